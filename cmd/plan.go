package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/internal/shared"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <id>",
	Short: "Print the persisted launch command of an instance",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plan, err := app.Plan(cmd.Context(), args[0])
		if err != nil {
			shared.ExitErr(err)
		}
		if viper.GetBool("plan.json") {
			printJSON(plan)
			return
		}
		fmt.Println(plan.CommandText())
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Bool("json", false, "Print the whole launch plan as JSON")
	_ = viper.BindPFlag("plan.json", planCmd.Flags().Lookup("json"))
}
