package cmd

import (
	"github.com/spf13/cobra"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [root]",
		Short: "View the latest saved scan result",
		Long: `View the latest scan result saved under the reports directory. Files that
changed since that scan are marked stale.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := workflow.View(cmd.Context(), rootArg(args))
			if err != nil {
				return err
			}

			showDiffs, _ := cmd.Flags().GetBool(diffFlagName)

			return ui.DisplayResult(cmd.Context(), result, showDiffs)
		},
	}

	cmd.Flags().Bool(diffFlagName, false, "print the diff of every surviving mutant")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
