package mutagens

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"

	m "gooze.dev/pkg/mutguard/internal/model"
)

func TestComparisonSwap(t *testing.T) {
	src := `package calc

func Between(v, lo, hi int) bool {
	return v > lo && v <= hi && v != 0
}
`
	unit := newUnit(t, src)

	assert.Equal(t, 3, CountTargets(unit.File, m.ComparisonSwap))
	assert.Contains(t, applyAndRender(t, unit, m.ComparisonSwap, 0), "v < lo && v <= hi && v != 0")
	assert.Contains(t, applyAndRender(t, unit, m.ComparisonSwap, 1), "v > lo && v >= hi && v != 0")
	assert.Contains(t, applyAndRender(t, unit, m.ComparisonSwap, 2), "v > lo && v <= hi && v == 0")
}

func TestIsComparisonOp(t *testing.T) {
	tests := []struct {
		op       token.Token
		expected bool
	}{
		{token.LSS, true},
		{token.GTR, true},
		{token.LEQ, true},
		{token.GEQ, true},
		{token.EQL, true},
		{token.NEQ, true},
		{token.ADD, false},
		{token.LAND, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, isComparisonOp(tt.op))
		})
	}
}

func TestComparisonSwapsAreInvolutions(t *testing.T) {
	for op, swapped := range comparisonSwaps {
		assert.Equal(t, op, comparisonSwaps[swapped], op.String())
	}
}
