package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/internal/shared"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <id>",
	Short: "Run the pre-flight checks against the current launch plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := app.Validate(cmd.Context(), args[0])
		if err != nil {
			shared.ExitErr(err)
		}
		if res.Skipped {
			for _, w := range res.Warnings {
				fmt.Println("warning:", w)
			}
			return
		}
		if viper.GetBool("validate.json") {
			printJSON(res.Report)
		} else {
			printValidation(res.Report)
		}
		if !res.Report.OK {
			shared.Exitf("%s failed pre-flight validation, try `launchwiz repair %s`\n", args[0], args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
	_ = viper.BindPFlag("validate.json", validateCmd.Flags().Lookup("json"))
}
