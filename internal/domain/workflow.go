package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/mutguard/internal/adapter"
	"gooze.dev/pkg/mutguard/internal/controller"
	m "gooze.dev/pkg/mutguard/internal/model"
	"gooze.dev/pkg/mutguard/pkg"
)

// Workflow is the entry point of the mutation engine.
type Workflow interface {
	// Scan mutates every eligible file under root.
	Scan(ctx context.Context, root m.Path) (m.ScanResult, error)
	// ScanQuick mutates only the functions touched by the latest change,
	// within the quick budget.
	ScanQuick(ctx context.Context, root m.Path) (m.ScanResult, error)
	// GenerateReport runs Scan and renders the result as text.
	GenerateReport(ctx context.Context, root m.Path) (string, error)
	// Estimate counts mutation sites per file without running tests.
	Estimate(ctx context.Context, root m.Path) ([]m.FileEstimate, error)
	// View loads the latest saved result and marks files changed since.
	View(ctx context.Context, root m.Path) (m.ScanResult, error)
	// Watch runs ScanQuick after every debounced burst of source changes
	// until ctx is done.
	Watch(ctx context.Context, root m.Path, debounce time.Duration) error
}

// WorkflowDeps are the collaborators of a Workflow.
type WorkflowDeps struct {
	FS           adapter.SourceFSAdapter
	Store        adapter.ReportStore
	Watcher      adapter.FileWatcher
	UI           controller.UI
	Selector     TargetSelector
	Mutagen      Mutagen
	Orchestrator Orchestrator
	External     ExternalEngine
}

type workflow struct {
	cfg Config
	WorkflowDeps
}

// NewWorkflow creates a Workflow. The configuration is validated by every
// operation rather than here, so a bad value surfaces as ErrInvalidConfig.
func NewWorkflow(cfg Config, deps WorkflowDeps) Workflow {
	return &workflow{cfg: cfg, WorkflowDeps: deps}
}

// scanPlan is what differs between a full and a quick scan.
type scanPlan struct {
	mode    m.ScanMode
	limit   int
	targets []m.Target
	// changes is nil in full mode.
	changes *m.ChangeSet
}

func (w *workflow) Scan(ctx context.Context, root m.Path) (m.ScanResult, error) {
	resolved, err := w.prepare(root)
	if err != nil {
		return m.ScanResult{}, err
	}

	result := w.newResult(ctx, resolved, m.ModeFull)

	if w.useExternal() {
		w.runExternal(ctx, &result)
		return w.finish(ctx, result), nil
	}

	targets, err := w.Selector.Select(ctx, resolved)
	if err != nil {
		slog.Error("Failed to select targets", "root", resolved, "error", err)
	}

	plan := scanPlan{mode: m.ModeFull, limit: w.cfg.MaxMutationsPerFile, targets: targets}

	if err := w.runBuiltin(ctx, plan, &result); err != nil {
		return m.ScanResult{}, err
	}

	return w.finish(ctx, result), nil
}

func (w *workflow) ScanQuick(ctx context.Context, root m.Path) (m.ScanResult, error) {
	resolved, err := w.prepare(root)
	if err != nil {
		return m.ScanResult{}, err
	}

	result := w.newResult(ctx, resolved, m.ModeQuick)

	budgetCtx, cancel := context.WithTimeout(ctx, w.cfg.QuickBudget)
	defer cancel()

	targets, changes := w.Selector.SelectChanged(budgetCtx, resolved)
	if changes.IsEmpty() {
		slog.Info("No changed functions to mutate", "root", resolved)
		return w.finish(ctx, result), nil
	}

	plan := scanPlan{
		mode:    m.ModeQuick,
		limit:   w.cfg.QuickMaxMutationsPerFile,
		targets: targets,
		changes: &changes,
	}

	if err := w.runBuiltin(budgetCtx, plan, &result); err != nil {
		return m.ScanResult{}, err
	}

	return w.finish(ctx, result), nil
}

func (w *workflow) GenerateReport(ctx context.Context, root m.Path) (string, error) {
	result, err := w.Scan(ctx, root)
	if err != nil {
		return "", err
	}

	return controller.RenderReport(result, true), nil
}

func (w *workflow) Estimate(ctx context.Context, root m.Path) ([]m.FileEstimate, error) {
	resolved, err := w.prepare(root)
	if err != nil {
		return nil, err
	}

	targets, err := w.Selector.Select(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("select targets: %w", err)
	}

	estimates := make([]m.FileEstimate, 0, len(targets))

	for _, target := range targets {
		estimate := m.FileEstimate{File: w.displayPath(resolved, target.Source), Counts: map[m.OperatorKind]int{}}

		unit, err := w.Mutagen.Load(ctx, target.Source)
		if err != nil {
			slog.Warn("Skipping unparseable source", "path", target.Source, "error", err)
		} else {
			estimate.Counts = w.Mutagen.Estimate(unit)
		}

		estimates = append(estimates, estimate)
	}

	return estimates, nil
}

func (w *workflow) View(ctx context.Context, root m.Path) (m.ScanResult, error) {
	resolved, err := resolveRoot(root)
	if err != nil {
		return m.ScanResult{}, err
	}

	result, err := w.Store.LoadLatest(ctx, w.reportsDir(resolved))
	if err != nil {
		return m.ScanResult{}, fmt.Errorf("load latest report: %w", err)
	}

	for i, file := range result.Files {
		if file.Hash == "" {
			continue
		}

		current, err := w.FS.HashFile(ctx, file.File)
		if err != nil || current != file.Hash {
			result.Files[i].Stale = true
		}
	}

	return result, nil
}

func (w *workflow) Watch(ctx context.Context, root m.Path, debounce time.Duration) error {
	resolved, err := w.prepare(root)
	if err != nil {
		return err
	}

	slog.Info("Watching for changes", "root", resolved, "debounce", debounce)

	return w.Watcher.Watch(ctx, resolved, debounce, func(ctx context.Context, paths []m.Path) {
		slog.Info("Sources changed", "count", len(paths))

		result, err := w.ScanQuick(ctx, resolved)
		if err != nil {
			slog.Error("Quick scan failed", "root", resolved, "error", err)
			return
		}

		if err := w.UI.DisplayResult(ctx, result, false); err != nil {
			slog.Error("Failed to display result", "error", err)
		}
	})
}

func (w *workflow) prepare(root m.Path) (m.Path, error) {
	if err := w.cfg.Validate(); err != nil {
		return "", err
	}

	return resolveRoot(root)
}

func (w *workflow) newResult(ctx context.Context, root m.Path, mode m.ScanMode) m.ScanResult {
	result := m.ScanResult{
		RunID:     uuid.NewString(),
		Root:      root,
		Mode:      mode,
		Engine:    string(EngineBuiltin),
		StartedAt: time.Now(),
		Score:     1.0,
	}

	if _, module, err := w.FS.FindModuleRoot(ctx, root); err == nil {
		result.Module = module
	}

	return result
}

func (w *workflow) useExternal() bool {
	switch w.cfg.Engine {
	case EngineExternal:
		return true
	case EngineAuto:
		_, ok := w.External.Detect()
		return ok
	default:
		return false
	}
}

func (w *workflow) runExternal(ctx context.Context, result *m.ScanResult) {
	result.Engine = string(EngineExternal)

	report, name, issue := w.External.Run(ctx, result.Root)
	if name != "" {
		result.Engine = name
	}

	if issue != nil {
		result.Issues = []m.Issue{*issue}
		return
	}

	agg := AggregateReports([]m.FileReport{*report}, nil, w.thresholds())

	result.Files = []m.FileReport{*report}
	result.Issues = agg.Issues
	result.Total = agg.Total
	result.Killed = agg.Killed
	result.Score = agg.Score
}

// runBuiltin mutates the planned targets one file at a time and scores the
// journaled verdicts once every file is done.
func (w *workflow) runBuiltin(ctx context.Context, plan scanPlan, result *m.ScanResult) error {
	spill, err := pkg.NewFileSpill[m.Verdict]("")
	if err != nil {
		return fmt.Errorf("create verdict journal: %w", err)
	}

	defer func() {
		if err := spill.Close(); err != nil {
			slog.Error("Failed to close verdict journal", "path", spill.Path(), "error", err)
		}
	}()

	if err := w.UI.Start(ctx, controller.WithTestMode(), controller.WithTitle(fmt.Sprintf("mutguard %s scan", plan.mode))); err != nil {
		slog.Error("Failed to start UI", "error", err)
	}
	defer w.UI.Close(ctx)

	w.UI.DisplayConcurrencyInfo(ctx, w.cfg.EffectiveWorkers(), len(plan.targets))

	scanned := make([]m.Target, 0, len(plan.targets))

	for _, target := range plan.targets {
		if ctx.Err() != nil {
			slog.Info("Scan stopped before all files were mutated", "remaining", len(plan.targets)-len(scanned))
			break
		}

		w.scanFile(ctx, target, plan, spill)
		scanned = append(scanned, target)
	}

	verdicts, err := spill.Collect()
	if err != nil {
		return fmt.Errorf("read verdict journal: %w", err)
	}

	byFile := make(map[m.Path][]m.Verdict)
	for _, v := range verdicts {
		byFile[v.File] = append(byFile[v.File], v)
	}

	reports := make([]m.FileReport, 0, len(scanned))

	for _, target := range scanned {
		report := BuildFileReport(target.Source, byFile[target.Source])

		// Hashes are recorded even when the scan was cancelled.
		if hash, err := w.FS.HashFile(context.WithoutCancel(ctx), target.Source); err == nil {
			report.Hash = hash
		}

		reports = append(reports, report)
	}

	var survivors []m.Verdict

	for _, v := range verdicts {
		if !v.Killed {
			survivors = append(survivors, v)
		}
	}

	sortVerdicts(survivors)

	agg := AggregateReports(reports, survivors, w.thresholds())

	result.Files = reports
	result.Survivors = survivors
	result.Issues = agg.Issues
	result.Total = agg.Total
	result.Killed = agg.Killed
	result.Score = agg.Score

	return nil
}

// scanFile runs the planned mutants of one target. The per-file timeout and
// ctx only gate launches: a mutant already running is bounded by the mutant
// timeout alone, so a scan deadline never turns it into a timeout kill.
// Mutants not launched are not counted.
func (w *workflow) scanFile(ctx context.Context, target m.Target, plan scanPlan, spill pkg.FileSpill[m.Verdict]) {
	unit, err := w.Mutagen.Load(ctx, target.Source)
	if err != nil {
		slog.Warn("Skipping unparseable source", "path", target.Source, "error", err)
		w.UI.DisplayUpcomingTestsInfo(ctx, target, 0)

		return
	}

	var keep SiteFilter
	if plan.changes != nil {
		changes := *plan.changes
		slog.Debug("Changed functions", "path", target.Source, "functions", changes.Names(target.Source))
		keep = func(site m.Site) bool { return changes.Has(target.Source, site.Function) }
	}

	sites := w.Mutagen.Plan(unit, plan.limit, keep)

	mutants := make([]m.Mutant, 0, len(sites))

	for _, site := range sites {
		if mutant, ok := w.Mutagen.Mutate(unit, site); ok {
			mutants = append(mutants, mutant)
		}
	}

	w.UI.DisplayUpcomingTestsInfo(ctx, target, len(mutants))

	if len(mutants) == 0 {
		return
	}

	launchCtx, cancel := context.WithTimeout(ctx, w.cfg.FileTimeout)
	defer cancel()

	runCtx := context.WithoutCancel(ctx)

	var group errgroup.Group
	group.SetLimit(w.cfg.EffectiveWorkers())

	for _, mutant := range mutants {
		if launchCtx.Err() != nil {
			slog.Info("File deadline reached", "path", target.Source)
			break
		}

		group.Go(func() error {
			// Queued behind the worker limit past the deadline.
			if launchCtx.Err() != nil {
				return nil
			}

			w.UI.DisplayStartingTestInfo(runCtx, mutant)

			verdict := w.Orchestrator.TestMutant(runCtx, target, mutant)

			slog.Debug("Mutant judged", "path", target.Source, "kind", verdict.Kind, "index", verdict.Index, "status", verdict.Status)
			w.UI.DisplayCompletedTestInfo(runCtx, verdict)

			if err := spill.Append(verdict); err != nil {
				slog.Error("Failed to journal verdict", "path", target.Source, "error", err)
			}

			return nil
		})
	}

	_ = group.Wait()
}

// finish stamps the duration and saves the result. Persistence failures are
// logged only.
func (w *workflow) finish(ctx context.Context, result m.ScanResult) m.ScanResult {
	result.Duration = time.Since(result.StartedAt)

	if w.cfg.ReportsDir == "" || w.Store == nil {
		return result
	}

	path, err := w.Store.SaveResult(context.WithoutCancel(ctx), w.reportsDir(result.Root), result)
	if err != nil {
		slog.Error("Failed to save scan result", "root", result.Root, "error", err)
		return result
	}

	slog.Info("Scan result saved", "path", path, "score", result.Score)

	return result
}

func (w *workflow) reportsDir(root m.Path) m.Path {
	if filepath.IsAbs(string(w.cfg.ReportsDir)) {
		return w.cfg.ReportsDir
	}

	return m.Path(filepath.Join(string(root), string(w.cfg.ReportsDir)))
}

func (w *workflow) thresholds() Thresholds {
	return Thresholds{Block: w.cfg.BlockThreshold, Warn: w.cfg.WarnThreshold}
}

func (w *workflow) displayPath(root, path m.Path) m.Path {
	rel, err := w.FS.RelPath(root, path)
	if err != nil {
		return path
	}

	return rel
}

// resolveRoot makes root absolute and resolves symlinks, so paths agree with
// those reported by git.
func resolveRoot(root m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(root))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	return m.Path(resolved), nil
}

func sortVerdicts(vs []m.Verdict) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]

		switch {
		case a.File != b.File:
			return a.File < b.File
		case a.Line != b.Line:
			return a.Line < b.Line
		case a.Kind != b.Kind:
			return a.Kind < b.Kind
		default:
			return a.Index < b.Index
		}
	})
}
