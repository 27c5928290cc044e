package cmdshared

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/dixonwille/wmenu.v4"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/internal/shared"
)

var ErrCancelled = errors.New("cancelled")

// PromptYesNo defaults to yes, and answers yes in non-interactive mode.
func PromptYesNo(prompt string) (bool, error) {
	return promptYesNo(os.Stdin, prompt)
}

func promptYesNo(in io.Reader, prompt string) (bool, error) {
	fmt.Print(prompt)
	if viper.GetBool("non-interactive") {
		fmt.Println("Y (non-interactive mode)")
		return true, nil
	}
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to prompt user: %w", err)
	}

	ansNormal := strings.ToLower(strings.TrimSpace(answer))
	if len(ansNormal) > 0 && ansNormal[0] == 'n' {
		return false, nil
	}
	return true, nil
}

var repairModeHelp = map[core.RepairMode]string{
	core.RepairSmart:             "hash files only when the instance changed",
	core.RepairFull:              "verify and fix everything",
	core.RepairVerifyOnly:        "report problems without changing anything",
	core.RepairModsOnly:          "disable broken or incompatible mods",
	core.RepairReinstallLoader:   "reinstall the mod loader profile",
	core.RepairRepairAndOptimize: "full repair, then clean up leftovers and old logs",
}

// ChooseRepairMode asks for a repair mode. Non-interactive runs get smart mode.
func ChooseRepairMode() (core.RepairMode, error) {
	if viper.GetBool("non-interactive") {
		return core.RepairSmart, nil
	}
	menu := wmenu.NewMenu("Choose a repair mode:")
	menu.Option("Cancel", nil, false, nil)
	for _, m := range core.RepairModes {
		menu.Option(fmt.Sprintf("%s (%s)", shared.HumanName(string(m)), repairModeHelp[m]), m, m == core.RepairSmart, nil)
	}

	var chosen core.RepairMode
	menu.Action(func(menuRes []wmenu.Opt) error {
		if len(menuRes) != 1 || menuRes[0].Value == nil {
			return ErrCancelled
		}
		mode, ok := menuRes[0].Value.(core.RepairMode)
		if !ok {
			return errors.New("error converting interface from wmenu")
		}
		chosen = mode
		return nil
	})
	if err := menu.Run(); err != nil {
		return "", err
	}
	return chosen, nil
}
