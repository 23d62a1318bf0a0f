package domain

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"gooze.dev/pkg/mutguard/internal/adapter"
	m "gooze.dev/pkg/mutguard/internal/model"
)

var (
	// ErrInvalidConfig is returned for configuration values outside their range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrRootNotFound is returned when the scan root does not exist.
	ErrRootNotFound = errors.New("root not found")
	// ErrToolUnavailable is returned when no external mutation tool is installed.
	ErrToolUnavailable = adapter.ErrToolUnavailable
	// ErrNoModule is returned when a source file is not inside a Go module.
	ErrNoModule = adapter.ErrNoModule
)

// EngineMode selects who produces the mutation findings.
type EngineMode string

const (
	// EngineBuiltin runs the built-in catalog and sandbox.
	EngineBuiltin EngineMode = "builtin"
	// EngineExternal delegates to an installed mutation tool.
	EngineExternal EngineMode = "external"
	// EngineAuto delegates when a tool is installed and falls back to builtin.
	EngineAuto EngineMode = "auto"
)

// Defaults.
const (
	DefaultBlockThreshold      = 0.30
	DefaultWarnThreshold       = 0.60
	DefaultMaxMutationsPerFile = 50
	DefaultMutantTimeout       = 30 * time.Second
	DefaultFileTimeout         = 5 * time.Minute
	DefaultQuickBudget         = 2 * time.Minute
	DefaultQuickMaxMutations   = 10
	DefaultEngineTimeout       = 10 * time.Minute
	DefaultReportsDir          = ".mutguard"
)

// Config holds the tunables of a scan.
type Config struct {
	BlockThreshold      float64
	WarnThreshold       float64
	MaxMutationsPerFile int
	MutantTimeout       time.Duration
	FileTimeout         time.Duration
	// Workers bounds concurrent sandboxes per file; 0 means runtime.NumCPU().
	Workers int

	QuickBudget              time.Duration
	QuickMaxMutationsPerFile int

	Engine        EngineMode
	Tools         []string
	EngineTimeout time.Duration

	// ReportsDir is where results are saved, relative to the scan root unless
	// absolute. Empty disables persistence.
	ReportsDir m.Path
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BlockThreshold:           DefaultBlockThreshold,
		WarnThreshold:            DefaultWarnThreshold,
		MaxMutationsPerFile:      DefaultMaxMutationsPerFile,
		MutantTimeout:            DefaultMutantTimeout,
		FileTimeout:              DefaultFileTimeout,
		QuickBudget:              DefaultQuickBudget,
		QuickMaxMutationsPerFile: DefaultQuickMaxMutations,
		Engine:                   EngineBuiltin,
		Tools:                    []string{toolGremlins, toolGoMutesting},
		EngineTimeout:            DefaultEngineTimeout,
		ReportsDir:               DefaultReportsDir,
	}
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.BlockThreshold < 0 || c.BlockThreshold > 1:
		return fmt.Errorf("%w: block threshold %.2f outside [0,1]", ErrInvalidConfig, c.BlockThreshold)
	case c.WarnThreshold < 0 || c.WarnThreshold > 1:
		return fmt.Errorf("%w: warn threshold %.2f outside [0,1]", ErrInvalidConfig, c.WarnThreshold)
	case c.BlockThreshold > c.WarnThreshold:
		return fmt.Errorf("%w: block threshold %.2f above warn threshold %.2f", ErrInvalidConfig, c.BlockThreshold, c.WarnThreshold)
	case c.MaxMutationsPerFile <= 0:
		return fmt.Errorf("%w: max mutations per file must be positive", ErrInvalidConfig)
	case c.QuickMaxMutationsPerFile <= 0:
		return fmt.Errorf("%w: quick max mutations per file must be positive", ErrInvalidConfig)
	case c.MutantTimeout <= 0 || c.FileTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	case c.QuickBudget <= 0 || c.EngineTimeout <= 0:
		return fmt.Errorf("%w: budgets must be positive", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}

	switch c.Engine {
	case EngineBuiltin, EngineExternal, EngineAuto:
	default:
		return fmt.Errorf("%w: unknown engine mode %q", ErrInvalidConfig, c.Engine)
	}

	return nil
}

// EffectiveWorkers clamps Workers to [1, 2*NumCPU], defaulting to NumCPU.
func (c Config) EffectiveWorkers() int {
	cpus := runtime.NumCPU()

	switch {
	case c.Workers <= 0:
		return cpus
	case c.Workers > 2*cpus:
		return 2 * cpus
	default:
		return c.Workers
	}
}
