// Package adapter contains UI and infrastructure adapters for the mutguard CLI.
package adapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// ErrNoModule is returned when no go.mod encloses a path.
var ErrNoModule = errors.New("no go.mod found")

// testFileSuffixes lists the paired test file names tried for a source file,
// in priority order.
var testFileSuffixes = []string{"_test.go", "_internal_test.go", "_integration_test.go"}

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning user projects and building sandboxes.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Walk traverses root recursively.
	Walk(ctx context.Context, root m.Path, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// DetectTestFile returns the test file paired with sourcePath, or "" when
	// there is none.
	DetectTestFile(ctx context.Context, sourcePath m.Path) (m.Path, error)

	// FindModuleRoot walks up from startPath to the directory holding go.mod
	// and returns it with the declared module path.
	FindModuleRoot(ctx context.Context, startPath m.Path) (m.Path, string, error)

	// CreateTempDir creates a temporary directory.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// CopyDir recursively copies a directory tree. Files for which skip
	// returns true are left out.
	CopyDir(ctx context.Context, src, dst m.Path, skip SkipFunc) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// SkipFunc decides whether a file, given by its path relative to the copy
// source, is left out of a copy.
type SkipFunc func(rel string, info os.FileInfo) bool

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over every file and directory under root.
func (a *LocalSourceFSAdapter) Walk(ctx context.Context, root m.Path, fn FilepathWalkFunc) error {
	return filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fn(path, info, err)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.ReadFile(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(ctx context.Context, path m.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DetectTestFile tries <stem>_test.go, <stem>_internal_test.go and
// <stem>_integration_test.go next to the source file, in that order.
func (a *LocalSourceFSAdapter) DetectTestFile(ctx context.Context, sourcePath m.Path) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source := string(sourcePath)
	if filepath.Ext(source) != ".go" || strings.HasSuffix(source, "_test.go") {
		return "", nil
	}

	stem := strings.TrimSuffix(filepath.Base(source), ".go")

	for _, suffix := range testFileSuffixes {
		candidate := filepath.Join(filepath.Dir(source), stem+suffix)

		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return m.Path(candidate), nil
		}

		if err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}

	return "", nil
}

// FindModuleRoot searches for a go.mod file walking up the directory tree.
// startPath may be a file or a directory.
func (a *LocalSourceFSAdapter) FindModuleRoot(ctx context.Context, startPath m.Path) (m.Path, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	dir, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", "", err
	}

	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")

		// #nosec G304 - go.mod of the scanned project
		data, readErr := os.ReadFile(goModPath)
		if readErr == nil {
			module := modfile.ModulePath(data)
			if module == "" {
				return "", "", fmt.Errorf("%s declares no module: %w", goModPath, ErrNoModule)
			}

			return m.Path(dir), module, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("%w in any parent directory of %s", ErrNoModule, startPath)
		}

		dir = parent
	}
}

// CreateTempDir creates a temporary directory for one mutant run.
func (a *LocalSourceFSAdapter) CreateTempDir(ctx context.Context, pattern string) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents. It ignores ctx so
// cleanup still happens after a deadline.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir recursively copies a directory tree, leaving out version control,
// node and vendor directories as well as any file skip rejects. A top-level
// vendor directory holding modules.txt is kept, since go test builds from it.
func (a *LocalSourceFSAdapter) CopyDir(ctx context.Context, src, dst m.Path, skip SkipFunc) error {
	_, statErr := os.Stat(filepath.Join(string(src), "vendor", "modules.txt"))
	keepVendor := statErr == nil

	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			baseName := filepath.Base(path)
			switch {
			case relPath == ".":
			case relPath == "vendor" && keepVendor:
			case baseName == ".git" || baseName == "vendor" || baseName == "node_modules":
				return filepath.SkipDir
			}

			return os.MkdirAll(filepath.Join(string(dst), relPath), 0o750)
		}

		if !info.Mode().IsRegular() || (skip != nil && skip(relPath, info)) {
			return nil
		}

		return a.copyFile(path, filepath.Join(string(dst), relPath), info.Mode())
	})
}

func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is internal project file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is internal destination path, not user input
	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// WriteFile writes content to a file with the given permissions, creating
// missing parent directories.
func (a *LocalSourceFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
