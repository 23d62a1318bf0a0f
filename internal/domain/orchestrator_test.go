package domain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"gooze.dev/pkg/mutguard/internal/adapter"
	m "gooze.dev/pkg/mutguard/internal/model"
)

func requireGo(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("sandbox runs are slow")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}

// recordingFS remembers the sandboxes it creates and can fail CopyDir.
type recordingFS struct {
	*adapter.LocalSourceFSAdapter
	created []m.Path
	copyErr error
}

func (r *recordingFS) CreateTempDir(ctx context.Context, pattern string) (m.Path, error) {
	dir, err := r.LocalSourceFSAdapter.CreateTempDir(ctx, pattern)
	if err == nil {
		r.created = append(r.created, dir)
	}

	return dir, err
}

func (r *recordingFS) CopyDir(ctx context.Context, src, dst m.Path, skip adapter.SkipFunc) error {
	if r.copyErr != nil {
		return r.copyErr
	}

	return r.LocalSourceFSAdapter.CopyDir(ctx, src, dst, skip)
}

type failingRunner struct{}

func (failingRunner) RunGoTest(context.Context, string, string, time.Duration) (adapter.TestRun, error) {
	return adapter.TestRun{}, errors.New("exec: \"go\": executable file not found in $PATH")
}

func assertRemoved(t *testing.T, dirs []m.Path) {
	t.Helper()

	if len(dirs) == 0 {
		t.Fatalf("expected a sandbox to be created")
	}

	for _, dir := range dirs {
		if _, err := os.Stat(string(dir)); !os.IsNotExist(err) {
			t.Fatalf("sandbox %s was not removed", dir)
		}
	}
}

func calcTarget() m.Target {
	return m.Target{Source: examplePath("calc", "calc.go"), Test: examplePath("calc", "calc_test.go")}
}

func mutantFor(t *testing.T, target m.Target, site m.Site) m.Mutant {
	t.Helper()

	mg := newTestMutagen()

	mutant, ok := mg.Mutate(loadUnit(t, mg, target.Source), site)
	if !ok {
		t.Fatalf("no mutant for %+v", site)
	}

	return mutant
}

func TestOrchestrator_KilledMutant(t *testing.T) {
	requireGo(t)

	target := calcTarget()
	before, err := os.ReadFile(string(target.Source))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	fs := &recordingFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter()}
	orch := NewOrchestrator(fs, adapter.NewLocalTestRunnerAdapter(), time.Minute)

	verdict := orch.TestMutant(context.Background(), target, mutantFor(t, target, m.Site{Kind: m.ArithmeticSwap, Line: 5, Function: "Add"}))

	if verdict.Status != m.Killed || !verdict.Killed {
		t.Fatalf("expected killed verdict, got %s\n%s", verdict.Status, verdict.Output)
	}

	if verdict.File != target.Source || verdict.Kind != m.ArithmeticSwap || verdict.Function != "Add" {
		t.Fatalf("verdict lost its site: %+v", verdict)
	}

	after, err := os.ReadFile(string(target.Source))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	if !bytes.Equal(before, after) {
		t.Fatalf("source file changed on disk")
	}

	assertRemoved(t, fs.created)
}

func TestOrchestrator_VendoredModule(t *testing.T) {
	requireGo(t)
	t.Setenv("GOFLAGS", "")
	t.Setenv("GOPROXY", "off")

	root := t.TempDir()
	writeSource(t, root, "go.mod", "module example.com/calc\n\ngo 1.21\n\nrequire example.com/dep v1.0.0\n")
	writeSource(t, root, filepath.Join("vendor", "modules.txt"), "# example.com/dep v1.0.0\n## explicit\nexample.com/dep\n")
	writeSource(t, root, filepath.Join("vendor", "example.com", "dep", "dep.go"), "package dep\n\nfunc Two() int { return 2 }\n")
	source := writeSource(t, root, "calc.go", "package calc\n\nimport \"example.com/dep\"\n\nfunc AddTwo(a int) int {\n\treturn a + dep.Two()\n}\n")
	test := writeSource(t, root, "calc_test.go", "package calc\n\nimport \"testing\"\n\n"+
		"func TestAddTwo(t *testing.T) {\n\tAddTwo(3)\n}\n")

	target := m.Target{Source: source, Test: test}
	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), adapter.NewLocalTestRunnerAdapter(), time.Minute)

	verdict := orch.TestMutant(context.Background(), target, mutantFor(t, target, m.Site{Kind: m.ArithmeticSwap, Line: 6, Function: "AddTwo"}))

	// A sandbox missing vendor/ fails to build, which would count as a kill.
	if verdict.Status != m.Survived {
		t.Fatalf("expected the weak test to build from vendor/ and let the mutant survive, got %s\n%s", verdict.Status, verdict.Output)
	}
}

func TestOrchestrator_SurvivingMutant(t *testing.T) {
	requireGo(t)

	dir := t.TempDir()
	writeSource(t, dir, "go.mod", "module example.com/calc\n\ngo 1.21\n")
	source := writeSource(t, dir, "calc.go", "package calc\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	test := writeSource(t, dir, "calc_test.go", "package calc\n\nimport \"testing\"\n\nfunc TestAdd(t *testing.T) {\n\tAdd(2, 3)\n}\n")
	target := m.Target{Source: source, Test: test}

	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), adapter.NewLocalTestRunnerAdapter(), time.Minute)

	verdict := orch.TestMutant(context.Background(), target, mutantFor(t, target, m.Site{Kind: m.ArithmeticSwap}))

	if verdict.Status != m.Survived || verdict.Killed {
		t.Fatalf("expected surviving verdict, got %s\n%s", verdict.Status, verdict.Output)
	}

	if verdict.Diff == "" {
		t.Fatalf("expected the survivor to carry its diff")
	}
}

func TestOrchestrator_OnlyPairedTestIsKept(t *testing.T) {
	requireGo(t)

	dir := t.TempDir()
	writeSource(t, dir, "go.mod", "module example.com/calc\n\ngo 1.21\n")
	source := writeSource(t, dir, "calc.go", "package calc\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	test := writeSource(t, dir, "calc_test.go", "package calc\n\nimport \"testing\"\n\nfunc TestAdd(t *testing.T) {\n\tAdd(2, 3)\n}\n")
	// Another test file would kill the mutant if it were copied.
	writeSource(t, dir, "other_test.go", "package calc\n\nimport \"testing\"\n\nfunc TestOther(t *testing.T) {\n\tif Add(1, 1) != 2 {\n\t\tt.Fatal(\"broken\")\n\t}\n}\n")
	target := m.Target{Source: source, Test: test}

	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), adapter.NewLocalTestRunnerAdapter(), time.Minute)

	verdict := orch.TestMutant(context.Background(), target, mutantFor(t, target, m.Site{Kind: m.ArithmeticSwap}))

	if verdict.Status != m.Survived {
		t.Fatalf("expected other test files to be excluded, got %s\n%s", verdict.Status, verdict.Output)
	}
}

func TestOrchestrator_CompileErrorKills(t *testing.T) {
	requireGo(t)

	target := calcTarget()
	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), adapter.NewLocalTestRunnerAdapter(), time.Minute)

	mutant := m.Mutant{
		Site:   m.Site{Kind: m.StatementRemoval, Line: 15, Function: "Clamp"},
		Source: target.Source,
		Text:   []byte("package calc\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n\nfunc Clamp(v, lo, hi int) int {\n}\n"),
	}

	verdict := orch.TestMutant(context.Background(), target, mutant)

	if verdict.Status != m.Killed {
		t.Fatalf("expected compile error to kill the mutant, got %s", verdict.Status)
	}
}

func TestOrchestrator_SetupFailure(t *testing.T) {
	target := calcTarget()
	fs := &recordingFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter(), copyErr: errors.New("disk full")}
	orch := NewOrchestrator(fs, failingRunner{}, time.Minute)

	verdict := orch.TestMutant(context.Background(), target, m.Mutant{Site: m.Site{Kind: m.ComparisonSwap}, Source: target.Source})

	if verdict.Status != m.Errored || !verdict.Killed {
		t.Fatalf("expected errored verdict counted as killed, got %+v", verdict)
	}

	assertRemoved(t, fs.created)
}

func TestOrchestrator_RunnerUnavailable(t *testing.T) {
	target := calcTarget()
	fs := &recordingFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter()}
	orch := NewOrchestrator(fs, failingRunner{}, time.Minute)

	verdict := orch.TestMutant(context.Background(), target, m.Mutant{Site: m.Site{Kind: m.ComparisonSwap}, Source: target.Source, Text: []byte("package calc\n")})

	if verdict.Status != m.Errored {
		t.Fatalf("expected errored verdict, got %s", verdict.Status)
	}

	assertRemoved(t, fs.created)
}

func TestOrchestrator_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := &recordingFS{LocalSourceFSAdapter: adapter.NewLocalSourceFSAdapter()}
	orch := NewOrchestrator(fs, failingRunner{}, time.Minute)

	verdict := orch.TestMutant(ctx, calcTarget(), m.Mutant{Site: m.Site{Kind: m.ComparisonSwap}})

	if verdict.Status != m.TimedOut || !verdict.Killed {
		t.Fatalf("expected timed out verdict, got %+v", verdict)
	}

	if len(fs.created) != 0 {
		t.Fatalf("expected no sandbox for an expired context")
	}
}

func TestOrchestrator_NoModule(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, "calc.go", "package calc\n")
	test := writeSource(t, dir, "calc_test.go", "package calc\n")

	// t.TempDir may sit below a directory with a go.mod on some machines.
	if _, _, err := adapter.NewLocalSourceFSAdapter().FindModuleRoot(context.Background(), source); err == nil {
		t.Skip("temp dir is inside a Go module")
	}

	orch := NewOrchestrator(adapter.NewLocalSourceFSAdapter(), failingRunner{}, time.Minute)

	verdict := orch.TestMutant(context.Background(), m.Target{Source: source, Test: test}, m.Mutant{Site: m.Site{Kind: m.ComparisonSwap}, Source: source})

	if verdict.Status != m.Errored {
		t.Fatalf("expected errored verdict without a module, got %s", verdict.Status)
	}
}

func TestPackagePattern(t *testing.T) {
	tests := map[string]string{
		"calc.go":                       "./",
		filepath.Join("a", "b.go"):      "./a",
		filepath.Join("a", "b", "c.go"): "./a/b",
	}

	for rel, want := range tests {
		if got := packagePattern(m.Path(rel)); got != want {
			t.Errorf("packagePattern(%q) = %q, want %q", rel, got, want)
		}
	}
}
