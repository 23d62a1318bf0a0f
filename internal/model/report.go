package model

import "time"

// GuardID identifies issues produced by the mutation engine.
const GuardID = "mutation"

// Severity grades an issue.
type Severity string

const (
	// SeverityBlock marks a weakness that should fail a gate.
	SeverityBlock Severity = "block"
	// SeverityWarn marks a weakness worth attention.
	SeverityWarn Severity = "warn"
	// SeverityInfo marks an individual finding or a tool-level note.
	SeverityInfo Severity = "info"
)

// Rank orders severities so that block > warn > info.
func (s Severity) Rank() int {
	switch s {
	case SeverityBlock:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// Issue is the generic finding shape shared with other analysis checks.
type Issue struct {
	Guard    string   `yaml:"guard"`
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`
	File     Path     `yaml:"file,omitempty"`
	Line     int      `yaml:"line,omitempty"`
}

// FileReport summarises the verdicts for one source file.
type FileReport struct {
	File     Path    `yaml:"file"`
	Total    int     `yaml:"total"`
	Killed   int     `yaml:"killed"`
	Survived int     `yaml:"survived"`
	Errored  int     `yaml:"errored,omitempty"`
	Score    float64 `yaml:"score"`
	Hash     string  `yaml:"hash,omitempty"`
	// Stale is set by View when the file changed after the scan.
	Stale bool `yaml:"-"`
}

// FileEstimate counts the mutation sites of one file per operator, before any
// cap is applied.
type FileEstimate struct {
	File   Path
	Counts map[OperatorKind]int
}

// Total sums the counts of every operator.
func (e FileEstimate) Total() int {
	total := 0
	for _, n := range e.Counts {
		total += n
	}

	return total
}

// ScanMode tells how targets were selected.
type ScanMode string

const (
	// ModeFull mutates every eligible file.
	ModeFull ScanMode = "full"
	// ModeQuick mutates only the functions touched by the latest change.
	ModeQuick ScanMode = "quick"
)

// ScanResult is the outcome of one scan.
type ScanResult struct {
	RunID     string        `yaml:"run_id"`
	Root      Path          `yaml:"root"`
	Module    string        `yaml:"module,omitempty"`
	Mode      ScanMode      `yaml:"mode"`
	Engine    string        `yaml:"engine"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`
	Files     []FileReport  `yaml:"files"`
	Survivors []Verdict     `yaml:"survivors,omitempty"`
	Issues    []Issue       `yaml:"issues"`
	Total     int           `yaml:"total"`
	Killed    int           `yaml:"killed"`
	Score     float64       `yaml:"score"`
}

// HasSeverity reports whether any issue is at least as severe as minimum.
func (r ScanResult) HasSeverity(minimum Severity) bool {
	for _, issue := range r.Issues {
		if issue.Severity.Rank() >= minimum.Rank() {
			return true
		}
	}

	return false
}
