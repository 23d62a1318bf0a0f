package mutagens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "gooze.dev/pkg/mutguard/internal/model"
)

func TestBooleanSwap_SharedCounter(t *testing.T) {
	src := `package flags

func Check(active, disabled bool) bool {
	ok := true
	return ok && !disabled || false
}
`
	unit := newUnit(t, src)

	// Encounter order: true, ||, &&, false.
	sites := Sites(unit.Fset, unit.File, m.BooleanSwap)
	assert.Len(t, sites, 4)

	assert.Contains(t, applyAndRender(t, unit, m.BooleanSwap, 0), "ok := false")
	assert.Contains(t, applyAndRender(t, unit, m.BooleanSwap, 1), "ok && !disabled && false")
	assert.Contains(t, applyAndRender(t, unit, m.BooleanSwap, 2), "ok || !disabled || false")
	assert.Contains(t, applyAndRender(t, unit, m.BooleanSwap, 3), "ok && !disabled || true")
}

func TestBooleanSwap_IgnoresNonValueIdentifiers(t *testing.T) {
	src := `package flags

type config struct{ enabled bool }

func Enabled(c config) bool {
	return c.enabled
}
`
	unit := newUnit(t, src)

	assert.Zero(t, CountTargets(unit.File, m.BooleanSwap))
}

func TestIsBooleanLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"true literal", "true", true},
		{"false literal", "false", true},
		{"variable name", "someVar", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isBooleanLiteral(tt.input))
		})
	}
}

func TestFlipBoolean(t *testing.T) {
	assert.Equal(t, "false", flipBoolean("true"))
	assert.Equal(t, "true", flipBoolean("false"))
}
