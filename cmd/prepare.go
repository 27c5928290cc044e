package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leocov-dev/launchwiz/internal/shared"
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:     "prepare <id>",
	Short:   "Download, install and verify everything an instance needs to start",
	Aliases: []string{"bootstrap"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := app.Prepare(cmd.Context(), args[0], viper.GetBool("prepare.force"))
		if res != nil && res.Report != nil && !res.Report.OK {
			printValidation(res.Report)
		}
		if err != nil {
			shared.ExitErr(err)
		}
		for _, w := range res.Report.Warnings {
			fmt.Println("warning:", w)
		}
		if res.Reused {
			fmt.Printf("%s is up to date (%s)\n", args[0], res.Plan.VersionID)
			return
		}
		if viper.GetBool("prepare.diff") && res.PlanDiff != "" {
			fmt.Print(res.PlanDiff)
		}
		fmt.Printf("%s is ready to launch (%s, Java %d)\n", args[0], res.Plan.VersionID, res.Plan.ResolvedJavaMajor)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().BoolP("force", "f", false, "Re-fetch metadata and rebuild the launch plan even when it is current")
	_ = viper.BindPFlag("prepare.force", prepareCmd.Flags().Lookup("force"))
	prepareCmd.Flags().Bool("diff", false, "Show how the launch command changed when the plan was rebuilt")
	_ = viper.BindPFlag("prepare.diff", prepareCmd.Flags().Lookup("diff"))
}
