package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gooze.dev/pkg/mutguard/internal/adapter"
	m "gooze.dev/pkg/mutguard/internal/model"
)

const sandboxPattern = "mutguard-mutant-*"

// Orchestrator runs the paired test of a target against one mutant in a
// throwaway copy of the module and judges the outcome.
type Orchestrator interface {
	// TestMutant never returns an error: failures to build or run the
	// sandbox become Errored or TimedOut verdicts, which count as killed.
	TestMutant(ctx context.Context, target m.Target, mutant m.Mutant) m.Verdict
}

type orchestrator struct {
	fsAdapter     adapter.SourceFSAdapter
	testAdapter   adapter.TestRunnerAdapter
	mutantTimeout time.Duration
}

// NewOrchestrator constructs an Orchestrator backed by the provided
// filesystem and test runner adapters.
func NewOrchestrator(fsAdapter adapter.SourceFSAdapter, testAdapter adapter.TestRunnerAdapter, mutantTimeout time.Duration) Orchestrator {
	return &orchestrator{
		fsAdapter:     fsAdapter,
		testAdapter:   testAdapter,
		mutantTimeout: mutantTimeout,
	}
}

func (to *orchestrator) TestMutant(ctx context.Context, target m.Target, mutant m.Mutant) m.Verdict {
	start := time.Now()

	verdict := func(status m.Status, output string) m.Verdict {
		v := m.NewVerdict(mutant, status, time.Since(start))
		v.Output = output

		return v
	}

	if err := ctx.Err(); err != nil {
		return verdict(m.TimedOut, err.Error())
	}

	projectRoot, tmpDir, err := to.prepareWorkspace(ctx, target)
	if tmpDir != "" {
		defer to.cleanupTempDir(ctx, tmpDir)
	}

	if err != nil {
		return verdict(to.setupFailure(ctx), err.Error())
	}

	relSource, err := to.fsAdapter.RelPath(projectRoot, target.Source)
	if err != nil {
		slog.Error("Failed to get relative source path", "projectRoot", projectRoot, "sourcePath", target.Source, "error", err)
		return verdict(m.Errored, err.Error())
	}

	if err := to.writeMutatedFile(ctx, to.fsAdapter.JoinPath(string(tmpDir), string(relSource)), mutant.Text); err != nil {
		return verdict(to.setupFailure(ctx), err.Error())
	}

	return verdict(to.runTests(ctx, tmpDir, packagePattern(relSource)))
}

// setupFailure distinguishes a sandbox that ran out of time from one that
// could not be built.
func (to *orchestrator) setupFailure(ctx context.Context) m.Status {
	if ctx.Err() != nil {
		return m.TimedOut
	}

	return m.Errored
}

// prepareWorkspace copies the module owning the target into a temp root,
// keeping only the target's own test file.
func (to *orchestrator) prepareWorkspace(ctx context.Context, target m.Target) (m.Path, m.Path, error) {
	projectRoot, _, err := to.fsAdapter.FindModuleRoot(ctx, target.Source)
	if err != nil {
		slog.Error("Failed to find module root", "sourcePath", target.Source, "error", err)
		return "", "", fmt.Errorf("failed to find module root: %w", err)
	}

	relTest, err := to.fsAdapter.RelPath(projectRoot, target.Test)
	if err != nil {
		slog.Error("Failed to get relative test path", "projectRoot", projectRoot, "testPath", target.Test, "error", err)
		return "", "", fmt.Errorf("failed to get relative test path: %w", err)
	}

	tmpDir, err := to.fsAdapter.CreateTempDir(ctx, sandboxPattern)
	if err != nil {
		slog.Error("Failed to create temp dir", "error", err)
		return "", "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	onlyPairedTest := func(rel string, _ os.FileInfo) bool {
		return strings.HasSuffix(rel, "_test.go") && rel != string(relTest)
	}

	if err := to.fsAdapter.CopyDir(ctx, projectRoot, tmpDir, onlyPairedTest); err != nil {
		slog.Error("Failed to copy project to temp dir", "projectRoot", projectRoot, "tmpDir", tmpDir, "error", err)
		return projectRoot, tmpDir, fmt.Errorf("failed to copy project: %w", err)
	}

	return projectRoot, tmpDir, nil
}

func (to *orchestrator) writeMutatedFile(ctx context.Context, path m.Path, content []byte) error {
	if err := to.fsAdapter.WriteFile(ctx, path, content, 0o600); err != nil {
		slog.Error("Failed to write mutated file", "path", path, "error", err)
		return fmt.Errorf("failed to write mutated file: %w", err)
	}

	return nil
}

func (to *orchestrator) runTests(ctx context.Context, tmpDir m.Path, pkg string) (m.Status, string) {
	run, err := to.testAdapter.RunGoTest(ctx, string(tmpDir), pkg, to.mutantTimeout)
	if err != nil {
		slog.Error("Failed to start test runner", "dir", tmpDir, "error", err)
		return m.Errored, err.Error()
	}

	switch {
	case run.TimedOut:
		return m.TimedOut, run.Output
	case run.Passed():
		return m.Survived, run.Output
	default:
		return m.Killed, run.Output
	}
}

// cleanupTempDir removes the temporary directory, logging errors if cleanup fails.
func (to *orchestrator) cleanupTempDir(ctx context.Context, tmpDir m.Path) {
	if err := to.fsAdapter.RemoveAll(ctx, tmpDir); err != nil {
		slog.Error("Failed to cleanup temp dir", "tmpDir", tmpDir, "error", err)
	}
}

// packagePattern turns the relative path of a source file into the `go test`
// pattern of its package.
func packagePattern(relSource m.Path) string {
	dir := filepath.ToSlash(filepath.Dir(string(relSource)))
	if dir == "." {
		return "./"
	}

	return "./" + dir
}
