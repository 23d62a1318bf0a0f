package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrToolUnavailable is returned when an external tool is not installed.
var ErrToolUnavailable = errors.New("tool not installed")

// ExternalToolAdapter runs third-party mutation tools.
type ExternalToolAdapter interface {
	// Available reports whether name can be found on PATH.
	Available(name string) bool

	// Run executes name with args in dir and returns its combined output. A
	// non-zero exit is not an error: tools report surviving mutants that way.
	Run(ctx context.Context, dir, name string, args []string, timeout time.Duration) (string, error)
}

// LocalExternalToolAdapter implements ExternalToolAdapter with os/exec.
type LocalExternalToolAdapter struct {
	maxOutput int
}

// NewLocalExternalToolAdapter constructs a LocalExternalToolAdapter.
func NewLocalExternalToolAdapter() *LocalExternalToolAdapter {
	return &LocalExternalToolAdapter{maxOutput: defaultMaxOutput * 4}
}

// Available looks name up on PATH.
func (a *LocalExternalToolAdapter) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes the tool under timeout.
func (a *LocalExternalToolAdapter) Run(ctx context.Context, dir, name string, args []string, timeout time.Duration) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrToolUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 - tool names come from a fixed list
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.WaitDelay = killGrace

	// Tools print their summary last.
	output := &tailWriter{limit: a.maxOutput}
	cmd.Stdout = output
	cmd.Stderr = output

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output.String(), fmt.Errorf("%s: %w", name, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return output.String(), fmt.Errorf("run %s: %w", name, err)
		}
	}

	return output.String(), nil
}

// tailWriter keeps the last limit bytes written to it.
type tailWriter struct {
	buf       []byte
	limit     int
	truncated bool
}

func (tw *tailWriter) Write(p []byte) (int, error) {
	tw.buf = append(tw.buf, p...)

	// Trim lazily so long streams are not copied on every write.
	if len(tw.buf) > 2*tw.limit {
		tw.buf = append(tw.buf[:0], tw.buf[len(tw.buf)-tw.limit:]...)
		tw.truncated = true
	}

	return len(p), nil
}

// String returns the retained tail, starting at a line boundary when the
// head was dropped.
func (tw *tailWriter) String() string {
	tail := tw.buf
	if len(tail) > tw.limit {
		tail = tail[len(tail)-tw.limit:]
		tw.truncated = true
	}

	if tw.truncated {
		if i := bytes.IndexByte(tail, '\n'); i >= 0 {
			tail = tail[i+1:]
		}
	}

	return string(tail)
}
