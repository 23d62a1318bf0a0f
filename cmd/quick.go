package cmd

import (
	"github.com/spf13/cobra"
)

const quickLongDescription = `Mutate only the functions touched by the latest commit and the working
tree, within a short time budget and a small per-file cap.

Without a usable git history the scan is empty and succeeds.`

// quickCmd represents the quick command.
var quickCmd = newQuickCmd()

func newQuickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick [root]",
		Short: "Run an incremental mutation scan over changed functions",
		Long:  quickLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := workflow.ScanQuick(cmd.Context(), rootArg(args))
			if err != nil {
				return err
			}

			return finishScan(cmd, result)
		},
	}

	configureGateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(quickCmd)
}
