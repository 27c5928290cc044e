package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leocov-dev/launchwiz/internal/cmdshared"
	"github.com/leocov-dev/launchwiz/internal/shared"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Forget the launch plan so the next prepare rebuilds it",
	Long: `Removes the persisted launch plan, command text and runtime snapshot of an
instance. Shared versions, libraries, assets, mods and worlds are kept.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, err := cmdshared.PromptYesNo(fmt.Sprintf("Reset the runtime of %s? [Y/n] ", args[0]))
		if err != nil {
			shared.Exitln(err)
		}
		if !ok {
			fmt.Println("Cancelled!")
			return
		}
		if err := app.Reset(cmd.Context(), args[0]); err != nil {
			shared.ExitErr(err)
		}
		fmt.Printf("%s reset, run `launchwiz prepare %s` to rebuild it\n", args[0], args[0])
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
