package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/mutguard/internal/controller"
	m "gooze.dev/pkg/mutguard/internal/model"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Scan(ctx context.Context, root m.Path) (m.ScanResult, error) {
	ret := w.Called(ctx, root)
	return ret.Get(0).(m.ScanResult), ret.Error(1)
}

func (w *mockWorkflow) ScanQuick(ctx context.Context, root m.Path) (m.ScanResult, error) {
	ret := w.Called(ctx, root)
	return ret.Get(0).(m.ScanResult), ret.Error(1)
}

func (w *mockWorkflow) GenerateReport(ctx context.Context, root m.Path) (string, error) {
	ret := w.Called(ctx, root)
	return ret.String(0), ret.Error(1)
}

func (w *mockWorkflow) Estimate(ctx context.Context, root m.Path) ([]m.FileEstimate, error) {
	ret := w.Called(ctx, root)
	estimates, _ := ret.Get(0).([]m.FileEstimate)

	return estimates, ret.Error(1)
}

func (w *mockWorkflow) View(ctx context.Context, root m.Path) (m.ScanResult, error) {
	ret := w.Called(ctx, root)
	return ret.Get(0).(m.ScanResult), ret.Error(1)
}

func (w *mockWorkflow) Watch(ctx context.Context, root m.Path, debounce time.Duration) error {
	return w.Called(ctx, root, debounce).Error(0)
}

// withMockWorkflow swaps the shared workflow for a mock until the test ends.
func withMockWorkflow(t *testing.T) *mockWorkflow {
	t.Helper()

	wf := &mockWorkflow{}
	original := workflow
	workflow = wf

	t.Cleanup(func() {
		workflow = original
		wf.AssertExpectations(t)
	})

	return wf
}

// withSimpleUI swaps the shared UI for a plain text one writing to the
// returned buffer.
func withSimpleUI(t *testing.T) *bytes.Buffer {
	t.Helper()

	out := &bytes.Buffer{}
	original := ui
	ui = controller.NewSimpleUI(out)

	t.Cleanup(func() { ui = original })

	return out
}

// executeCmd runs sub under a fresh root and returns the command's output.
func executeCmd(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()

	viper.Set(logFilenameKey, filepath.Join(t.TempDir(), "mutguard.log"))
	t.Cleanup(func() { viper.Set(logFilenameKey, defaultLogFilename) })

	out := &bytes.Buffer{}

	root := newRootCmd()
	root.AddCommand(sub)
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func sampleResult(issues ...m.Issue) m.ScanResult {
	return m.ScanResult{
		RunID:  "0123456789abcdef",
		Root:   "/repo",
		Mode:   m.ModeFull,
		Engine: "builtin",
		Files: []m.FileReport{
			{File: "/repo/calc.go", Total: 4, Killed: 3, Survived: 1, Score: 0.75},
		},
		Survivors: []m.Verdict{
			{Site: m.Site{Kind: m.ArithmeticSwap, Line: 5, Function: "Add"}, File: "/repo/calc.go", Status: m.Survived, Diff: "--- a/calc.go\n+++ b/calc.go\n-\treturn a + b\n+\treturn a - b\n"},
		},
		Issues: issues,
		Total:  4,
		Killed: 3,
		Score:  0.75,
	}
}
