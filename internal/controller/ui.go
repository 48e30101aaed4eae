// Package controller provides the output adapters that display mutation
// runs, test units and saved reports.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	m "gooze.dev/pkg/unitmut/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeEstimate StartMode = iota
	ModeTest
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithEstimateMode sets the UI to listing mode.
func WithEstimateMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeEstimate
	}
}

// WithTestMode sets the UI to test execution mode.
func WithTestMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeTest
	}
}

func startConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeEstimate}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI displays the progress and results of unitmut commands.
// Display methods may be called from several workers at once.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish
	DisplayMutants(ctx context.Context, mutants []m.Mutant, err error) error
	DisplayUnits(ctx context.Context, units []m.TestUnit, err error) error
	DisplayBaseline(ctx context.Context, result m.TestResult)
	DisplayConcurrencyInfo(ctx context.Context, threads int, shardIndex int, shardCount int)
	DisplayUpcomingTestsInfo(ctx context.Context, count int)
	DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant, threadID int)
	DisplayCompletedTestInfo(ctx context.Context, mutant m.Mutant, verdict m.Verdict)
	DisplayReport(ctx context.Context, report m.Report) error
	DisplayMutationScore(ctx context.Context, score float64)
}

// Output names accepted by NewUI.
const (
	OutputAuto   = "auto"
	OutputSimple = "simple"
	OutputTUI    = "tui"
)

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewUI picks the UI for output. "auto" selects the TUI on a terminal and the
// simple UI otherwise.
func NewUI(cmd *cobra.Command, output string) UI {
	switch output {
	case OutputTUI:
		return NewTUI(cmd.OutOrStdout())
	case OutputSimple:
		return NewSimpleUI(cmd)
	default:
		if IsTTY(cmd.OutOrStdout()) {
			return NewTUI(cmd.OutOrStdout())
		}

		return NewSimpleUI(cmd)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
