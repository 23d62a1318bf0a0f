package domain

import (
	"context"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gooze.dev/pkg/mutguard/internal/adapter"
	m "gooze.dev/pkg/mutguard/internal/model"
)

// TargetSelector decides which source files are mutated and pairs each with
// its test file.
type TargetSelector interface {
	// Select returns every eligible source file under root that has a test
	// file, sorted by path.
	Select(ctx context.Context, root m.Path) ([]m.Target, error)
	// SelectChanged restricts Select to the files touched by the latest
	// change and returns the functions that change named. Version control
	// problems yield no targets and an empty ChangeSet.
	SelectChanged(ctx context.Context, root m.Path) ([]m.Target, m.ChangeSet)
}

type targetSelector struct {
	fs     adapter.SourceFSAdapter
	goFile adapter.GoFileAdapter
	vcs    adapter.VCSAdapter
}

// NewTargetSelector constructs a TargetSelector.
func NewTargetSelector(fs adapter.SourceFSAdapter, goFile adapter.GoFileAdapter, vcs adapter.VCSAdapter) TargetSelector {
	return &targetSelector{fs: fs, goFile: goFile, vcs: vcs}
}

func (s *targetSelector) Select(ctx context.Context, root m.Path) ([]m.Target, error) {
	var candidates []m.Path

	err := s.fs.Walk(ctx, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != string(root) && adapter.SkipDirName(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if isCandidateName(info.Name()) {
			candidates = append(candidates, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	targets := make([]m.Target, 0, len(candidates))

	for _, source := range candidates {
		if target, ok := s.pair(ctx, source); ok {
			targets = append(targets, target)
		}
	}

	sortTargets(targets)

	return targets, nil
}

func (s *targetSelector) SelectChanged(ctx context.Context, root m.Path) ([]m.Target, m.ChangeSet) {
	changes := m.NewChangeSet()

	fileChanges, err := s.vcs.Changes(ctx, root)
	if err != nil {
		slog.Debug("No change set available", "root", root, "error", err)
		return nil, changes
	}

	for _, change := range fileChanges {
		if !isCandidateName(filepath.Base(string(change.Path))) || !s.underRoot(root, change.Path) {
			continue
		}

		for _, name := range change.Functions {
			changes.Add(change.Path, name)
		}

		s.addEnclosingFunctions(ctx, &changes, change)
	}

	var targets []m.Target

	for _, source := range changes.Files() {
		if target, ok := s.pair(ctx, source); ok {
			targets = append(targets, target)
		}
	}

	sortTargets(targets)

	return targets, changes
}

// addEnclosingFunctions records the functions of the current source that
// contain a changed line.
func (s *targetSelector) addEnclosingFunctions(ctx context.Context, changes *m.ChangeSet, change adapter.FileChange) {
	if len(change.Lines) == 0 {
		return
	}

	content, err := s.fs.ReadFile(ctx, change.Path)
	if err != nil {
		return
	}

	fset := token.NewFileSet()

	file, err := s.goFile.Parse(ctx, fset, string(change.Path), content)
	if err != nil {
		return
	}

	for _, line := range change.Lines {
		changes.Add(change.Path, s.goFile.FunctionAt(fset, file, line))
	}
}

func (s *targetSelector) underRoot(root, path m.Path) bool {
	rel, err := s.fs.RelPath(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(string(rel), ".."+string(filepath.Separator)) {
		return false
	}

	for _, dir := range strings.Split(filepath.Dir(string(rel)), string(filepath.Separator)) {
		if dir != "." && adapter.SkipDirName(dir) {
			return false
		}
	}

	return true
}

// pair resolves the test file of source, skipping generated files.
func (s *targetSelector) pair(ctx context.Context, source m.Path) (m.Target, bool) {
	test, err := s.fs.DetectTestFile(ctx, source)
	if err != nil || test == "" {
		slog.Debug("Skipping source without test file", "path", source, "error", err)
		return m.Target{}, false
	}

	if s.isGenerated(ctx, source) {
		slog.Debug("Skipping generated source", "path", source)
		return m.Target{}, false
	}

	return m.Target{Source: source, Test: test}, true
}

func (s *targetSelector) isGenerated(ctx context.Context, source m.Path) bool {
	content, err := s.fs.ReadFile(ctx, source)
	if err != nil {
		return false
	}

	file, err := s.goFile.Parse(ctx, token.NewFileSet(), string(source), content)
	if err != nil {
		// Unparseable files stay targets and produce zero mutants.
		return false
	}

	return s.goFile.IsGenerated(file)
}

func isCandidateName(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") && name != "doc.go"
}

func sortTargets(targets []m.Target) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].Source < targets[j].Source })
}
