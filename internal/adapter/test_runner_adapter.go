package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

const (
	defaultMaxOutput = 64 * 1024
	// killGrace is the time given to `go test` on top of its own -timeout
	// before the process is killed.
	killGrace = 5 * time.Second
)

// testTimeoutMarker is printed by a test binary that hit its -timeout.
var testTimeoutMarker = []byte("panic: test timed out")

// TestRun is the outcome of one `go test` invocation.
type TestRun struct {
	ExitCode  int
	Output    string
	TimedOut  bool
	Truncated bool
	Elapsed   time.Duration
}

// Passed reports whether the tests passed.
func (r TestRun) Passed() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// TestRunnerAdapter abstracts test execution operations for mutation testing.
type TestRunnerAdapter interface {
	// RunGoTest runs `go test` for pkg inside workDir. The returned error is
	// non-nil only when the runner could not be started; failing tests are
	// reported through TestRun.ExitCode.
	RunGoTest(ctx context.Context, workDir, pkg string, timeout time.Duration) (TestRun, error)
}

// LocalTestRunnerAdapter provides a concrete implementation using os/exec.
type LocalTestRunnerAdapter struct {
	goBinary  string
	maxOutput int
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter that runs the
// `go` found on PATH.
func NewLocalTestRunnerAdapter() *LocalTestRunnerAdapter {
	return &LocalTestRunnerAdapter{
		goBinary:  "go",
		maxOutput: defaultMaxOutput,
	}
}

// RunGoTest runs `go test -count=1 -failfast -timeout <timeout> <pkg>`.
func (a *LocalTestRunnerAdapter) RunGoTest(ctx context.Context, workDir, pkg string, timeout time.Duration) (TestRun, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+killGrace)
	defer cancel()

	// #nosec G204 - arguments are built by the engine, not taken from user input
	cmd := exec.CommandContext(ctx, a.goBinary, "test", "-count=1", "-failfast", "-timeout", timeout.String(), pkg)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "GOWORK=off")
	cmd.WaitDelay = killGrace

	var output bytes.Buffer

	limited := &limitedWriter{w: &output, limit: a.maxOutput}
	cmd.Stdout = limited
	cmd.Stderr = limited

	start := time.Now()
	err := cmd.Run()

	run := TestRun{
		Output:    output.String(),
		Truncated: limited.truncated,
		Elapsed:   time.Since(start),
	}

	if ctx.Err() != nil {
		run.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		run.ExitCode = -1

		return run, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return run, fmt.Errorf("start %s test: %w", a.goBinary, err)
		}

		run.ExitCode = exitErr.ExitCode()
		run.TimedOut = bytes.Contains(output.Bytes(), testTimeoutMarker)
	}

	return run, nil
}

// limitedWriter keeps the first limit bytes written to it and discards the rest.
type limitedWriter struct {
	w         io.Writer
	limit     int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.written >= lw.limit {
		lw.truncated = true
		return len(p), nil
	}

	chunk := p
	if remaining := lw.limit - lw.written; len(chunk) > remaining {
		chunk = chunk[:remaining]
		lw.truncated = true
	}

	n, err := lw.w.Write(chunk)
	lw.written += n

	return len(p), err
}
