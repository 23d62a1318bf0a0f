package controller

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutguard/internal/model"
)

func update(t *testing.T, sm scanModel, msg tea.Msg) scanModel {
	t.Helper()

	next, _ := sm.Update(msg)

	model, ok := next.(scanModel)
	require.True(t, ok)

	return model
}

func TestScanModel_Update(t *testing.T) {
	sm := newScanModel("mutguard scan")

	sm = update(t, sm, scanStartMsg{workers: 2, files: 3})
	sm = update(t, sm, targetMsg{file: "/repo/calc.go", count: 4})
	sm = update(t, sm, mutantStartMsg{label: "ArithmeticSwap line 4"})
	sm = update(t, sm, verdictMsg{killed: true})
	sm = update(t, sm, verdictMsg{killed: false})

	assert.Equal(t, 1, sm.filesSeen)
	assert.Equal(t, 4, sm.planned)
	assert.Equal(t, 2, sm.completed)
	assert.Equal(t, 1, sm.killed)
	assert.Equal(t, 1, sm.survived)
	assert.InDelta(t, 0.5, sm.percent(), 1e-9)

	view := sm.View()
	assert.Contains(t, view, "mutguard scan")
	assert.Contains(t, view, "[1/3] calc.go")
	assert.Contains(t, view, "ArithmeticSwap line 4")
	assert.Contains(t, view, "2/4")
	assert.Contains(t, view, "killed 1")
	assert.Contains(t, view, "survived 1")
	assert.Contains(t, view, "(2 workers)")
}

func TestScanModel_EmptyView(t *testing.T) {
	sm := newScanModel("mutguard")

	assert.InDelta(t, 0.0, sm.percent(), 1e-9)
	assert.Contains(t, sm.View(), "selecting targets")
	assert.NotNil(t, sm.Init())
}

func TestScanModel_Resize(t *testing.T) {
	sm := update(t, newScanModel("mutguard"), tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Equal(t, 16, sm.progress.Width)

	sm = update(t, sm, tea.WindowSizeMsg{Width: 200, Height: 10})
	assert.Equal(t, 16, sm.progress.Width)
}

func TestScanModel_SpinnerTick(t *testing.T) {
	sm := newScanModel("mutguard")

	next, cmd := sm.Update(spinner.TickMsg{ID: sm.spinner.ID()})

	_, ok := next.(scanModel)
	assert.True(t, ok)
	assert.NotNil(t, cmd)
}

func TestTUI_EstimateModePrintsTable(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer

	ui := NewTUI(&out)
	require.NoError(t, ui.Start(ctx, WithEstimateMode()))

	// No program runs in estimation mode, so progress calls are dropped.
	ui.DisplayCompletedTestInfo(ctx, m.Verdict{Killed: true})

	require.NoError(t, ui.DisplayEstimation(ctx, []m.FileEstimate{{File: "calc.go", Counts: map[m.OperatorKind]int{m.ComparisonSwap: 1}}}, nil))
	ui.Close(ctx)
	ui.Wait(ctx)

	assert.Contains(t, out.String(), "calc.go")
}

func TestTUI_DisplayResultWithoutStart(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, NewTUI(&out).DisplayResult(context.Background(), sampleResult(), false))
	assert.Contains(t, out.String(), "Mutation report /repo")
}
