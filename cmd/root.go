// Package cmd provides the root command and CLI setup for mutguard.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutguard/internal/adapter"
	"gooze.dev/pkg/mutguard/internal/controller"
	"gooze.dev/pkg/mutguard/internal/domain"
	m "gooze.dev/pkg/mutguard/internal/model"
)

var ui controller.UI

// workflow is built on first use from the resolved configuration. Tests
// replace it with a mock.
var workflow domain.Workflow

var reportsOutputDirFlag string
var verboseFlag bool
var workersFlag int
var engineFlag string

func init() {
	configureRootFlags(rootCmd)

	ui = controller.NewUI(os.Stdout, controller.IsTTY(os.Stdout))
}

// newWorkflow wires the local adapters into a domain.Workflow.
func newWorkflow(cfg domain.Config, ui controller.UI) domain.Workflow {
	fs := adapter.NewLocalSourceFSAdapter()
	goFile := adapter.NewLocalGoFileAdapter()

	return domain.NewWorkflow(cfg, domain.WorkflowDeps{
		FS:           fs,
		Store:        adapter.NewYAMLReportStore(),
		Watcher:      adapter.NewFSNotifyWatcher(),
		UI:           ui,
		Selector:     domain.NewTargetSelector(fs, goFile, adapter.NewLocalGitAdapter()),
		Mutagen:      domain.NewMutagen(goFile, fs),
		Orchestrator: domain.NewOrchestrator(fs, adapter.NewLocalTestRunnerAdapter(), cfg.MutantTimeout),
		External:     domain.NewExternalEngine(adapter.NewLocalExternalToolAdapter(), cfg.Tools, cfg.EngineTimeout),
	})
}

const rootLongDescription = `mutguard is a mutation testing guard for Go. It makes small changes
(mutants) to your code, runs the paired tests against each one in a sandbox
copy of the module and reports the mutants your tests did not catch.

Commands take an optional project root, defaulting to the current directory.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutguard",
		Short: "Go mutation testing guard",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(verboseFlag)

			if workflow == nil {
				cfg := configFromViper(viper.GetViper())
				slog.Debug("Configuration resolved", "config", describeConfig(cfg))
				workflow = newWorkflow(cfg, ui)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd returns a fresh root command with its persistent flags bound.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"directory for saved scan results, relative to the project root",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().IntVarP(&workersFlag, workersFlagName, "p", viper.GetInt(workersKey), "concurrent mutant sandboxes per file (0 = number of CPUs)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(workersFlagName), workersKey)

	cmd.PersistentFlags().StringVar(&engineFlag, engineFlagName, viper.GetString(engineModeKey), "mutation engine: builtin, external or auto")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(engineFlagName), engineModeKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// rootArg returns the project root named by args, or the working directory.
func rootArg(args []string) m.Path {
	if len(args) == 0 || args[0] == "" {
		return "."
	}

	return m.Path(args[0])
}
