// Package controller provides output adapters for displaying mutation testing results.
package controller

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	m "gooze.dev/pkg/mutguard/internal/model"
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
	mode  StartMode
	title string
}

// WithEstimateMode sets the UI to estimation mode.
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

// WithTitle sets the heading shown while the UI runs.
func WithTitle(title string) StartOption {
	return func(c *StartConfig) {
		c.title = title
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeTest, title: "mutguard"}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// UI receives progress from the workflow and displays its results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayEstimation(ctx context.Context, estimates []m.FileEstimate, err error) error
	DisplayConcurrencyInfo(ctx context.Context, workers int, files int)
	DisplayUpcomingTestsInfo(ctx context.Context, target m.Target, count int)
	DisplayStartingTestInfo(ctx context.Context, mutant m.Mutant)
	DisplayCompletedTestInfo(ctx context.Context, verdict m.Verdict)
	DisplayResult(ctx context.Context, result m.ScanResult, showDiffs bool) error
}

// NewUI returns the interactive UI on a terminal and the plain one otherwise.
func NewUI(out io.Writer, tty bool) UI {
	if tty {
		return NewTUI(out)
	}

	return NewSimpleUI(out)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
