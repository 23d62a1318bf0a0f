package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchDebounceFlag time.Duration

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Re-run quick scans whenever Go sources change",
		Long: `Watch the project for changes to .go files and run a quick scan after each
burst of edits settles. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Printf("Watching %s for changes (debounce %s)\n", rootArg(args), viper.GetDuration(debounceKey))

			return workflow.Watch(ctx, rootArg(args), viper.GetDuration(debounceKey))
		},
	}

	cmd.Flags().DurationVar(&watchDebounceFlag, debounceFlagName, viper.GetDuration(debounceKey), "quiet period before a burst of changes triggers a scan")
	bindFlagToConfig(cmd.Flags().Lookup(debounceFlagName), debounceKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
