package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "gooze.dev/pkg/mutguard/internal/model"
)

const (
	failOnBlock = "block"
	failOnWarn  = "warn"
	failOnNone  = "none"
)

// errGateFailed is returned when a scan produces an issue at or above the
// --fail-on severity.
var errGateFailed = errors.New("mutation gate failed")

const scanLongDescription = `Mutate every source file that has a paired _test.go file and run the
paired tests against each mutant in a sandbox copy of the module.

Surviving mutants are reported as issues; files and the project are graded
against the block and warn thresholds.`

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Run a full mutation scan",
		Long:  scanLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := workflow.Scan(cmd.Context(), rootArg(args))
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
	rootCmd.AddCommand(scanCmd)
}

// configureGateFlags adds the flags shared by scan and quick. --fail-on is
// read per command, so it is not bound to the config key.
func configureGateFlags(cmd *cobra.Command) {
	cmd.Flags().String(failOnFlagName, viper.GetString(failOnKey), "exit non-zero on an issue of this severity or worse: block, warn or none")
	cmd.Flags().Bool(diffFlagName, false, "print the diff of every surviving mutant")
}

// finishScan displays result and applies the --fail-on gate.
func finishScan(cmd *cobra.Command, result m.ScanResult) error {
	showDiffs, _ := cmd.Flags().GetBool(diffFlagName)

	if err := ui.DisplayResult(cmd.Context(), result, showDiffs); err != nil {
		return fmt.Errorf("display result: %w", err)
	}

	failOn := viper.GetString(failOnKey)
	if flag := cmd.Flags().Lookup(failOnFlagName); flag != nil && flag.Changed {
		failOn = flag.Value.String()
	}

	if err := checkGate(result.Issues, failOn); err != nil {
		cmd.SilenceUsage = true
		return err
	}

	return nil
}

// checkGate fails when an issue reaches the failOn severity.
func checkGate(issues []m.Issue, failOn string) error {
	var threshold m.Severity

	switch strings.ToLower(strings.TrimSpace(failOn)) {
	case "", failOnNone:
		return nil
	case failOnBlock:
		threshold = m.SeverityBlock
	case failOnWarn:
		threshold = m.SeverityWarn
	default:
		return fmt.Errorf("unknown --%s value %q (want block, warn or none)", failOnFlagName, failOn)
	}

	count := 0

	for _, issue := range issues {
		if issue.Severity.Rank() >= threshold.Rank() {
			count++
		}
	}

	if count > 0 {
		return fmt.Errorf("%w: %d issue(s) at %s or above", errGateFailed, count, threshold)
	}

	return nil
}
