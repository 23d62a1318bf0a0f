package adapter

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestLocalExternalToolAdapter_Missing(t *testing.T) {
	adapter := NewLocalExternalToolAdapter()

	if adapter.Available("mutguard-no-such-tool") {
		t.Fatalf("Available() = true for a missing tool")
	}

	_, err := adapter.Run(context.Background(), t.TempDir(), "mutguard-no-such-tool", nil, time.Second)
	if !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("Run() error = %v, want ErrToolUnavailable", err)
	}
}

func TestLocalExternalToolAdapter_Run(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not on PATH")
	}

	adapter := NewLocalExternalToolAdapter()
	ctx := context.Background()

	t.Run("non-zero exit keeps output", func(t *testing.T) {
		out, err := adapter.Run(ctx, t.TempDir(), "sh", []string{"-c", "echo 'Killed: 3, Lived: 1'; exit 1"}, 10*time.Second)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !strings.Contains(out, "Killed: 3") {
			t.Fatalf("Run() output = %q", out)
		}
	})

	t.Run("summary survives long output", func(t *testing.T) {
		script := "yes 'LIVED ArithmeticSwap at calc.go:4' | head -n 30000; echo 'Killed: 3, Lived: 1'"

		out, err := adapter.Run(ctx, t.TempDir(), "sh", []string{"-c", script}, 10*time.Second)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !strings.HasSuffix(strings.TrimSpace(out), "Killed: 3, Lived: 1") {
			t.Fatalf("Run() output tail = %q", out[max(0, len(out)-80):])
		}

		if len(out) > adapter.maxOutput {
			t.Fatalf("Run() kept %d bytes, limit %d", len(out), adapter.maxOutput)
		}
	})

	t.Run("timeout is an error", func(t *testing.T) {
		_, err := adapter.Run(ctx, t.TempDir(), "sh", []string{"-c", "exec sleep 5"}, 100*time.Millisecond)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run() error = %v, want deadline exceeded", err)
		}
	})
}

func TestTailWriter(t *testing.T) {
	tw := &tailWriter{limit: 16}

	for i := 0; i < 10; i++ {
		if _, err := tw.Write([]byte("noise line\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := tw.Write([]byte("Lived: 2\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if got := tw.String(); got != "Lived: 2\n" {
		t.Fatalf("String() = %q, want the last complete line", got)
	}

	short := &tailWriter{limit: 64}
	_, _ = short.Write([]byte("a\nb\n"))

	if got := short.String(); got != "a\nb\n" {
		t.Fatalf("String() = %q, want everything when under the limit", got)
	}
}
