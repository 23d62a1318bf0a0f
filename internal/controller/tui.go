package controller

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/mutguard/internal/model"
)

const progressWidth = 40

var (
	killedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	survivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUI implements UI using Bubble Tea: a spinner and progress bar while
// mutants run, then the plain report once the program exits.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress view. Estimation mode prints only the final
// table and needs no program.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)
	if cfg.mode == ModeEstimate {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program != nil {
		return nil
	}

	p.program = tea.NewProgram(newScanModel(cfg.title),
		tea.WithOutput(p.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	p.done = make(chan struct{})

	program, done := p.program, p.done

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil {
			_, _ = fmt.Fprintf(p.output, "progress view failed: %v\n", err)
		}
	}()

	return nil
}

// Close stops the progress view and waits for it to restore the terminal.
func (p *TUI) Close(_ context.Context) {
	p.mu.Lock()
	program, done := p.program, p.done
	p.program, p.done = nil, nil
	p.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the progress view has exited.
func (p *TUI) Wait(_ context.Context) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// DisplayEstimation prints the estimation table.
func (p *TUI) DisplayEstimation(ctx context.Context, estimates []m.FileEstimate, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		_, _ = fmt.Fprintf(p.output, "estimation error: %v\n", err)
		return err
	}

	_, writeErr := fmt.Fprint(p.output, RenderEstimation(estimates))

	return writeErr
}

// DisplayConcurrencyInfo shows concurrency settings.
func (p *TUI) DisplayConcurrencyInfo(_ context.Context, workers int, files int) {
	p.send(scanStartMsg{workers: workers, files: files})
}

// DisplayUpcomingTestsInfo announces the mutants planned for a target.
func (p *TUI) DisplayUpcomingTestsInfo(_ context.Context, target m.Target, count int) {
	p.send(targetMsg{file: string(target.Source), count: count})
}

// DisplayStartingTestInfo shows the mutant being run.
func (p *TUI) DisplayStartingTestInfo(_ context.Context, mutant m.Mutant) {
	p.send(mutantStartMsg{label: fmt.Sprintf("%s line %d", mutant.Kind, mutant.Line)})
}

// DisplayCompletedTestInfo records one verdict.
func (p *TUI) DisplayCompletedTestInfo(_ context.Context, verdict m.Verdict) {
	p.send(verdictMsg{killed: verdict.Killed})
}

// DisplayResult stops the progress view and prints the report.
func (p *TUI) DisplayResult(ctx context.Context, result m.ScanResult, showDiffs bool) error {
	p.Close(ctx)

	_, err := fmt.Fprint(p.output, RenderReport(result, showDiffs))

	return err
}

func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

type scanStartMsg struct {
	workers int
	files   int
}

type targetMsg struct {
	file  string
	count int
}

type mutantStartMsg struct {
	label string
}

type verdictMsg struct {
	killed bool
}

// scanModel is the Bubble Tea model of a running scan.
type scanModel struct {
	title    string
	spinner  spinner.Model
	progress progress.Model

	workers   int
	files     int
	filesSeen int
	file      string
	current   string
	planned   int
	completed int
	killed    int
	survived  int
}

func newScanModel(title string) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return scanModel{
		title:    title,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
	}
}

func (sm scanModel) Init() tea.Cmd {
	return sm.spinner.Tick
}

func (sm scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanStartMsg:
		sm.workers, sm.files = msg.workers, msg.files
	case targetMsg:
		sm.filesSeen++
		sm.file = msg.file
		sm.planned += msg.count
	case mutantStartMsg:
		sm.current = msg.label
	case verdictMsg:
		sm.completed++
		if msg.killed {
			sm.killed++
		} else {
			sm.survived++
		}
	case tea.WindowSizeMsg:
		if width := msg.Width - 4; width > 0 && width < progressWidth {
			sm.progress.Width = width
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		sm.spinner, cmd = sm.spinner.Update(msg)

		return sm, cmd
	}

	return sm, nil
}

func (sm scanModel) percent() float64 {
	if sm.planned == 0 {
		return 0
	}

	return float64(sm.completed) / float64(sm.planned)
}

func (sm scanModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(sm.title))
	b.WriteString("\n\n")

	file := "selecting targets"
	if sm.file != "" {
		file = fmt.Sprintf("[%d/%d] %s", sm.filesSeen, sm.files, filepath.Base(sm.file))
	}

	b.WriteString(fmt.Sprintf("%s %s", sm.spinner.View(), file))

	if sm.current != "" {
		b.WriteString(faintStyle.Render("  " + sm.current))
	}

	b.WriteString("\n")
	b.WriteString(sm.progress.ViewAs(sm.percent()))
	b.WriteString(fmt.Sprintf(" %d/%d\n", sm.completed, sm.planned))
	b.WriteString(killedStyle.Render(fmt.Sprintf("killed %d", sm.killed)))
	b.WriteString("  ")
	b.WriteString(survivedStyle.Render(fmt.Sprintf("survived %d", sm.survived)))

	if sm.workers > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  (%d workers)", sm.workers)))
	}

	b.WriteString("\n")

	return b.String()
}
