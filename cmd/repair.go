package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/internal/cmdshared"
	"github.com/leocov-dev/launchwiz/internal/shared"
)

// repairCmd represents the repair command
var repairCmd = &cobra.Command{
	Use:   "repair <id>",
	Short: "Find and fix broken game files, mods, configs and worlds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var mode core.RepairMode
		var err error
		if name := viper.GetString("repair.mode"); name != "" {
			mode, err = core.ParseRepairMode(name)
		} else {
			mode, err = cmdshared.ChooseRepairMode()
		}
		if errors.Is(err, cmdshared.ErrCancelled) {
			fmt.Println("Cancelled!")
			return
		}
		if err != nil {
			shared.Exitln(err)
		}

		report, err := app.Repair(cmd.Context(), args[0], mode)
		if report != nil {
			printRepair(report)
		}
		if err != nil {
			shared.ExitErr(err)
		}
		if mode == core.RepairVerifyOnly && len(report.Issues) > 0 {
			shared.Exitf("%d issues found, run `launchwiz repair %s --mode full` to fix them\n", len(report.Issues), args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)

	repairCmd.Flags().StringP("mode", "m", "", "smart, full, verify-only, mods-only, reinstall-loader or repair-and-optimize (omit to choose interactively)")
	_ = viper.BindPFlag("repair.mode", repairCmd.Flags().Lookup("mode"))
}
