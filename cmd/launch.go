package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/core"
	"github.com/leocov-dev/launchwiz/internal/shared"
	"github.com/leocov-dev/launchwiz/launchwiz"
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:     "launch <id>",
	Short:   "Prepare and start an instance, recovering from early crashes",
	Aliases: []string{"run", "play"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := app.Launch(ctx, args[0], launchwiz.LaunchOptions{
			Auth: core.Auth{PlayerName: viper.GetString("launch.player")},
		})
		if res != nil {
			for _, w := range res.Warnings {
				fmt.Println("warning:", w)
			}
		}
		if err != nil {
			if res != nil && len(res.Diagnostics) > 0 {
				fmt.Printf("The game crashed %d times during startup.\n", res.Launches)
				openDiagnostics(res.Diagnostics)
			}
			shared.ExitErr(err)
		}

		if res.Classification != "" {
			fmt.Printf("Started after %d attempts, earlier crashes look like: %s\n",
				res.Launches, shared.HumanName(string(res.Classification)))
		}
		proc := res.Process
		if proc.Exited() {
			fmt.Printf("The game exited cleanly (run %s)\n", proc.RunID)
			return
		}
		fmt.Printf("The game is running (run %s), logs in %s\n", proc.RunID, proc.StdoutPath)
		if viper.GetBool("launch.detach") {
			fmt.Println("Detached, the next command settles the run state once the game exits")
			return
		}
		if err := proc.Wait(ctx); err != nil && !errors.Is(err, ctx.Err()) {
			fmt.Println("game exited with an error:", err)
		}
		if ctx.Err() != nil {
			fmt.Println("Stopped waiting, the game keeps running")
			return
		}
		fmt.Printf("The game exited with code %d after %s\n", proc.ExitCode(), proc.Runtime().Round(time.Second))
	},
}

func openDiagnostics(paths []string) {
	last := paths[len(paths)-1]
	fmt.Println("Latest crash report:", last)
	if !viper.GetBool("launch.open-diagnostics") {
		return
	}
	if err := open.Run(last); err != nil {
		fmt.Println("Could not open the crash report:", err)
	}
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().Bool("open-diagnostics", false, "Open the crash report when the game cannot be started")
	_ = viper.BindPFlag("launch.open-diagnostics", launchCmd.Flags().Lookup("open-diagnostics"))
	launchCmd.Flags().Bool("detach", false, "Return once the game is up instead of waiting for it to exit")
	_ = viper.BindPFlag("launch.detach", launchCmd.Flags().Lookup("detach"))
	launchCmd.Flags().String("player", "", "The offline player name (defaults to the configured player)")
	_ = viper.BindPFlag("launch.player", launchCmd.Flags().Lookup("player"))
}
