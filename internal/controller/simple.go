package controller

import (
	"context"
	"fmt"
	"io"
	"sync"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// SimpleUI implements UI with line-oriented output, for pipes and CI logs.
type SimpleUI struct {
	out io.Writer
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(out io.Writer) *SimpleUI {
	return &SimpleUI{out: out}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayEstimation prints the estimation results or error.
func (s *SimpleUI) DisplayEstimation(ctx context.Context, estimates []m.FileEstimate, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		s.printf("estimation error: %v\n", err)
		return err
	}

	s.printf("\n%s", RenderEstimation(estimates))

	return nil
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, workers int, files int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Scanning %d file(s) with %d worker(s)\n", files, workers)
}

// DisplayUpcomingTestsInfo shows the number of mutants planned for a target.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, target m.Target, count int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s: %d mutant(s)\n", target.Source, count)
}

// DisplayStartingTestInfo is silent; completions carry the useful line.
func (s *SimpleUI) DisplayStartingTestInfo(_ context.Context, _ m.Mutant) {}

// DisplayCompletedTestInfo shows the verdict of one mutant.
func (s *SimpleUI) DisplayCompletedTestInfo(ctx context.Context, verdict m.Verdict) {
	if ctx.Err() != nil {
		return
	}

	s.printf("  %s #%d line %d -> %s\n", verdict.Kind, verdict.Index, verdict.Line, verdict.Status)
}

// DisplayResult prints the rendered report.
func (s *SimpleUI) DisplayResult(ctx context.Context, result m.ScanResult, showDiffs bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", RenderReport(result, showDiffs))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.out, format, args...)
}
