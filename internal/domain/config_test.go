package domain

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.30, cfg.BlockThreshold, 1e-9)
	assert.InDelta(t, 0.60, cfg.WarnThreshold, 1e-9)
	assert.Equal(t, 50, cfg.MaxMutationsPerFile)
	assert.Equal(t, EngineBuiltin, cfg.Engine)
	assert.Equal(t, []string{"gremlins", "go-mutesting"}, cfg.Tools)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"block below zero", func(c *Config) { c.BlockThreshold = -0.1 }},
		{"warn above one", func(c *Config) { c.WarnThreshold = 1.5 }},
		{"block above warn", func(c *Config) { c.BlockThreshold, c.WarnThreshold = 0.7, 0.5 }},
		{"zero cap", func(c *Config) { c.MaxMutationsPerFile = 0 }},
		{"zero quick cap", func(c *Config) { c.QuickMaxMutationsPerFile = 0 }},
		{"zero mutant timeout", func(c *Config) { c.MutantTimeout = 0 }},
		{"negative file timeout", func(c *Config) { c.FileTimeout = -time.Second }},
		{"zero budget", func(c *Config) { c.QuickBudget = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"unknown engine", func(c *Config) { c.Engine = "magic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("edges are inclusive", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BlockThreshold, cfg.WarnThreshold = 0, 1
		assert.NoError(t, cfg.Validate())

		cfg.BlockThreshold, cfg.WarnThreshold = 0.5, 0.5
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_EffectiveWorkers(t *testing.T) {
	cpus := runtime.NumCPU()

	assert.Equal(t, cpus, Config{}.EffectiveWorkers())
	assert.Equal(t, 1, Config{Workers: 1}.EffectiveWorkers())
	assert.Equal(t, 2*cpus, Config{Workers: 10 * cpus}.EffectiveWorkers())
}
