package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"gooze.dev/pkg/mutguard/internal/adapter"
	m "gooze.dev/pkg/mutguard/internal/model"
)

const (
	toolGremlins    = "gremlins"
	toolGoMutesting = "go-mutesting"
)

var (
	gremlinsSummary    = regexp.MustCompile(`Killed:\s*(\d+),\s*Lived:\s*(\d+)`)
	gremlinsTimedOut   = regexp.MustCompile(`Timed out:\s*(\d+)`)
	goMutestingSummary = regexp.MustCompile(`The mutation score is [0-9.]+ \((\d+) passed, (\d+) failed`)
)

// errUnparseable is returned when a tool's output carries no summary.
var errUnparseable = errors.New("no mutation summary in tool output")

type externalTool struct {
	args  []string
	parse func(output string) (killed, survived int, err error)
}

var externalTools = map[string]externalTool{
	toolGremlins:    {args: []string{"unleash", "."}, parse: parseGremlins},
	toolGoMutesting: {args: []string{"./..."}, parse: parseGoMutesting},
}

// ExternalEngine delegates mutation testing to an installed tool.
type ExternalEngine interface {
	// Detect returns the first configured tool found on PATH.
	Detect() (string, bool)
	// Run executes the first available tool in root. It returns either a
	// report covering the whole root, or an info issue explaining why there
	// is none.
	Run(ctx context.Context, root m.Path) (*m.FileReport, string, *m.Issue)
}

type externalEngine struct {
	tools   adapter.ExternalToolAdapter
	names   []string
	timeout time.Duration
}

// NewExternalEngine constructs an ExternalEngine that tries names in order.
func NewExternalEngine(tools adapter.ExternalToolAdapter, names []string, timeout time.Duration) ExternalEngine {
	return &externalEngine{tools: tools, names: names, timeout: timeout}
}

func (e *externalEngine) Detect() (string, bool) {
	for _, name := range e.names {
		if _, known := externalTools[name]; !known {
			slog.Warn("Unknown external mutation tool", "tool", name)
			continue
		}

		if e.tools.Available(name) {
			return name, true
		}
	}

	return "", false
}

func (e *externalEngine) Run(ctx context.Context, root m.Path) (*m.FileReport, string, *m.Issue) {
	name, ok := e.Detect()
	if !ok {
		return nil, "", infoIssue(fmt.Sprintf("no external mutation tool installed (tried %v): %v", e.names, ErrToolUnavailable))
	}

	tool := externalTools[name]

	output, err := e.tools.Run(ctx, string(root), name, tool.args, e.timeout)
	if err != nil {
		slog.Error("External mutation tool failed", "tool", name, "error", err)
		return nil, name, infoIssue(fmt.Sprintf("%s failed: %v", name, err))
	}

	killed, survived, err := tool.parse(output)
	if err != nil {
		slog.Error("Failed to parse external tool output", "tool", name, "error", err)
		return nil, name, infoIssue(fmt.Sprintf("%s: %v", name, err))
	}

	total := killed + survived

	return &m.FileReport{
		File:     root,
		Total:    total,
		Killed:   killed,
		Survived: survived,
		Score:    Score(killed, total),
	}, name, nil
}

func infoIssue(message string) *m.Issue {
	return &m.Issue{Guard: m.GuardID, Severity: m.SeverityInfo, Message: message}
}

// parseGremlins reads "Killed: K, Lived: L" and counts timeouts as killed.
func parseGremlins(output string) (int, int, error) {
	match := gremlinsSummary.FindStringSubmatch(output)
	if match == nil {
		return 0, 0, errUnparseable
	}

	killed, _ := strconv.Atoi(match[1])
	lived, _ := strconv.Atoi(match[2])

	if timedOut := gremlinsTimedOut.FindStringSubmatch(output); timedOut != nil {
		extra, _ := strconv.Atoi(timedOut[1])
		killed += extra
	}

	return killed, lived, nil
}

// parseGoMutesting reads "The mutation score is S (P passed, F failed, ...)".
// A passed mutant is one the tests caught.
func parseGoMutesting(output string) (int, int, error) {
	match := goMutestingSummary.FindStringSubmatch(output)
	if match == nil {
		return 0, 0, errUnparseable
	}

	passed, _ := strconv.Atoi(match[1])
	failed, _ := strconv.Atoi(match[2])

	return passed, failed, nil
}
