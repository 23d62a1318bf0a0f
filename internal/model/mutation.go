// Package model defines the data structures for mutation testing.
package model

import "time"

// OperatorKind represents the category of mutation operator.
type OperatorKind string

const (
	// ComparisonSwap flips comparison operators (> <-> <, >= <-> <=, == <-> !=).
	ComparisonSwap OperatorKind = "ComparisonSwap"
	// BooleanSwap flips boolean literals and short-circuit operators (&& <-> ||).
	BooleanSwap OperatorKind = "BooleanSwap"
	// ReturnNoneSwap replaces returned values with the zero value of their type.
	ReturnNoneSwap OperatorKind = "ReturnNoneSwap"
	// ArithmeticSwap flips arithmetic operators (+ <-> -, * <-> /).
	ArithmeticSwap OperatorKind = "ArithmeticSwap"
	// StatementRemoval deletes one statement from a function body.
	StatementRemoval OperatorKind = "StatementRemoval"
)

// AllOperators returns every operator kind in catalog order.
func AllOperators() []OperatorKind {
	return []OperatorKind{ComparisonSwap, BooleanSwap, ReturnNoneSwap, ArithmeticSwap, StatementRemoval}
}

// Valid reports whether k names a known operator.
func (k OperatorKind) Valid() bool {
	for _, known := range AllOperators() {
		if k == known {
			return true
		}
	}

	return false
}

// Site identifies one mutation opportunity: the operator plus its ordinal in the
// catalog traversal. Line and Function are informational and taken from the
// unmodified source.
type Site struct {
	Kind     OperatorKind `yaml:"kind"`
	Index    int          `yaml:"index"`
	Line     int          `yaml:"line"`
	Function string       `yaml:"function,omitempty"`
}

// Mutant is a source file with exactly one site applied.
type Mutant struct {
	Site
	Source Path
	Text   []byte
	Diff   string
}

// Status is the outcome of running the tests against one mutant.
type Status int

const (
	// Killed indicates the tests failed against the mutant.
	Killed Status = iota
	// Survived indicates the tests passed against the mutant.
	Survived
	// TimedOut indicates the test run exceeded its deadline.
	TimedOut
	// Errored indicates the test runner could not be started.
	Errored
)

func (s Status) String() string {
	switch s {
	case Killed:
		return "killed"
	case Survived:
		return "survived"
	case TimedOut:
		return "timed out"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalYAML stores the status by name.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML restores a status stored by name.
func (s *Status) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	for _, candidate := range []Status{Killed, Survived, TimedOut, Errored} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}

	*s = Killed

	return nil
}

// Verdict is the judgement for one executed mutant.
//
// Killed is true for Killed, TimedOut and Errored: anything but a clean test
// pass is assumed to have been caught.
type Verdict struct {
	Site     `yaml:",inline"`
	File     Path          `yaml:"file"`
	Killed   bool          `yaml:"killed"`
	Status   Status        `yaml:"status"`
	Duration time.Duration `yaml:"duration"`
	Output   string        `yaml:"-"`
	Diff     string        `yaml:"diff,omitempty"`
}

// NewVerdict builds a verdict for mutant with the given status.
func NewVerdict(mutant Mutant, status Status, elapsed time.Duration) Verdict {
	return Verdict{
		Site:     mutant.Site,
		File:     mutant.Source,
		Killed:   status != Survived,
		Status:   status,
		Duration: elapsed,
		Diff:     mutant.Diff,
	}
}
