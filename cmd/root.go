// Package cmd provides the root command and CLI setup for unitmut.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/unitmut/internal/adapter"
	"gooze.dev/pkg/unitmut/internal/controller"
	"gooze.dev/pkg/unitmut/internal/domain"
	m "gooze.dev/pkg/unitmut/internal/model"
)

var goFileAdapter adapter.GoFileAdapter
var sourceFSAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var runnerFactory domain.RunnerFactory

// workflow is built on first use so that the --ui flag is already parsed.
// Tests replace it with a mock.
var workflow domain.Workflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// uiModeFlag selects the display: auto, simple or tui.
var uiModeFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

var verboseFlag bool
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	goFileAdapter = adapter.NewLocalGoFileAdapter()
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewYAMLReportStore()
	runnerFactory = domain.NewRunnerFactory(sourceFSAdapter, goFileAdapter)
}

// newWorkflow wires the production workflow with a UI writing to cmd.
func newWorkflow(cmd *cobra.Command) domain.Workflow {
	ui := controller.NewUI(cmd, viper.GetString(uiConfigKey))

	return domain.NewWorkflow(
		sourceFSAdapter,
		goFileAdapter,
		reportStore,
		ui,
		runnerFactory,
		domain.OpenSQLiteCoverage,
	)
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan multiple directories`

const rootLongDescription = `unitmut is a mutation testing tool that assesses the quality of a test
suite by introducing small changes (mutants) into the source code and running
every test unit against each of them. A mutant that no unit detects points at
a gap in the tests.

` + pathPatternsHelp

const runLongDescription = `Run mutation testing for the given sources (default: current module).

Each test file is decomposed into its atomic test units, which run one by one
against every mutant when individual tests are enabled.

` + pathPatternsHelp

const listLongDescription = `List the mutants that would be tested for the given sources.

` + pathPatternsHelp

const unitsLongDescription = `List the atomic test units found in the given test files.

Nested groups are flattened; a unit is named by its group titles and its own
title joined with spaces.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "unitmut",
		Short:         "Mutation testing with per-unit test execution",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))

			if workflow == nil {
				workflow = newWorkflow(cmd.Root())
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd builds a fresh root command with its persistent flags, so tests
// can attach subcommands without touching rootCmd.
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
			"output directory for mutation testing reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVar(&uiModeFlag, uiFlagName, viper.GetString(uiConfigKey), "display mode: auto, simple or tui")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(uiFlagName), uiConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file (default from log.filename)")
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
