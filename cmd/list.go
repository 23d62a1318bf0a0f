package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "List source files and mutation counts",
		Long:  "List every source file with a paired test and the number of mutation sites per operator, without running tests.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			estimates, err := workflow.Estimate(cmd.Context(), rootArg(args))

			return ui.DisplayEstimation(cmd.Context(), estimates, err)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
