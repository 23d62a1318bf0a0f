package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// ErrVCSUnavailable is returned when the project is not a usable git checkout.
var ErrVCSUnavailable = errors.New("version control unavailable")

// funcLinePattern captures the name of a function or method declaration.
var funcLinePattern = regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`)

// FileChange describes the new side of one file in a diff.
type FileChange struct {
	// Path is the absolute path of the file in the working tree.
	Path m.Path
	// Functions are named by hunk headers or by changed `func` lines.
	Functions []string
	// Lines are the new-side line numbers touched by the diff.
	Lines []int
}

// VCSAdapter reads the latest change of a project.
type VCSAdapter interface {
	// Changes diffs the previous revision against the working tree.
	Changes(ctx context.Context, root m.Path) ([]FileChange, error)
}

// LocalGitAdapter implements VCSAdapter with the git CLI.
type LocalGitAdapter struct {
	gitBinary string
	base      string
}

// NewLocalGitAdapter constructs a LocalGitAdapter diffing against HEAD~1.
func NewLocalGitAdapter() *LocalGitAdapter {
	return &LocalGitAdapter{gitBinary: "git", base: "HEAD~1"}
}

// Changes runs `git diff HEAD~1` and parses the result.
func (a *LocalGitAdapter) Changes(ctx context.Context, root m.Path) ([]FileChange, error) {
	top, err := a.git(ctx, string(root), "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}

	out, err := a.git(ctx, string(root), "diff", "--no-color", "--no-ext-diff", "-U0", a.base, "--", "*.go")
	if err != nil {
		return nil, err
	}

	return ParseChanges(m.Path(strings.TrimSpace(string(top))), out)
}

func (a *LocalGitAdapter) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	// #nosec G204 - fixed git subcommands
	cmd := exec.CommandContext(ctx, a.gitBinary, append([]string{"-C", dir}, args...)...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: git %s: %v: %s", ErrVCSUnavailable, args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// ParseChanges turns a unified multi-file diff into file changes rooted at top.
// Deleted files are dropped.
func ParseChanges(top m.Path, diff []byte) ([]FileChange, error) {
	if len(bytes.TrimSpace(diff)) == 0 {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff(diff)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))

	for _, fd := range fileDiffs {
		name := cleanDiffPath(fd.NewName)
		if name == "" || name == "/dev/null" {
			continue
		}

		change := FileChange{Path: m.Path(filepath.Join(string(top), filepath.FromSlash(name)))}
		seen := make(map[string]struct{})

		addFunction := func(line string) {
			match := funcLinePattern.FindStringSubmatch(line)
			if match == nil {
				return
			}

			if _, ok := seen[match[1]]; !ok {
				seen[match[1]] = struct{}{}
				change.Functions = append(change.Functions, match[1])
			}
		}

		for _, hunk := range fd.Hunks {
			addFunction(hunk.Section)

			newLine := int(hunk.NewStartLine)

			for _, line := range strings.Split(strings.TrimSuffix(string(hunk.Body), "\n"), "\n") {
				if line == "" {
					newLine++
					continue
				}

				switch line[0] {
				case '+':
					addFunction(line[1:])
					change.Lines = append(change.Lines, newLine)
					newLine++
				case '-':
					addFunction(line[1:])
					change.Lines = append(change.Lines, newLine)
				case ' ':
					newLine++
				}
			}
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// cleanDiffPath removes the a/ or b/ prefix from git diff paths.
func cleanDiffPath(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}

	return path
}
