package cmd

import (
	"github.com/spf13/cobra"
)

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [root]",
		Short: "Run a full scan and print a plain text report",
		Long: `Run a full mutation scan and print the report as plain text, including the
diff of every surviving mutant. Suitable for CI logs and pull request comments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := workflow.GenerateReport(cmd.Context(), rootArg(args))
			if err != nil {
				return err
			}

			cmd.Print(report)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
