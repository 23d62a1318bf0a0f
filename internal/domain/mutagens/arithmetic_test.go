package mutagens

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"

	m "gooze.dev/pkg/mutguard/internal/model"
)

func TestArithmeticSwap(t *testing.T) {
	src := `package calc

func Add(a, b int) int {
	return a + b
}

func Scale(v, f int) int {
	return v * f
}

func Label(n string) string {
	return "item-" + n
}
`
	unit := newUnit(t, src)

	assert.Equal(t, 2, CountTargets(unit.File, m.ArithmeticSwap))
	assert.Contains(t, applyAndRender(t, unit, m.ArithmeticSwap, 0), "return a - b")
	assert.Contains(t, applyAndRender(t, unit, m.ArithmeticSwap, 1), "return v / f")

	_, _, ok := Apply(unit, m.ArithmeticSwap, 2)
	assert.False(t, ok)
}

func TestArithmeticSwap_SkipsStringConcatenation(t *testing.T) {
	src := `package names

import "strings"

const sep = "/"

var prefix = "v" + sep

func Join(a, b string) string {
	return a + b
}

func Path(dir string, n int) (p string) {
	base := dir + sep
	p = prefix + base + strings.Repeat("x", n+1)
	return p
}

func Wrap(s string) func(string) string {
	return func(t string) string {
		return s + t
	}
}

func Area(w, h float64) float64 {
	return w * h
}
`
	unit := newUnit(t, src)

	sites := Sites(unit.Fset, unit.File, m.ArithmeticSwap)
	assert.Len(t, sites, 2, "only n+1 and w*h are arithmetic")
	assert.Equal(t, "Path", sites[0].Function)
	assert.Equal(t, "Area", sites[1].Function)

	assert.Regexp(t, `strings\.Repeat\("x", n ?- ?1\)`, applyAndRender(t, unit, m.ArithmeticSwap, 0))
	assert.Contains(t, applyAndRender(t, unit, m.ArithmeticSwap, 1), "return w / h")
}

func TestIsArithmeticOp(t *testing.T) {
	tests := []struct {
		op       token.Token
		expected bool
	}{
		{token.ADD, true},
		{token.SUB, true},
		{token.MUL, true},
		{token.QUO, true},
		{token.REM, false},
		{token.EQL, false},
		{token.ILLEGAL, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, isArithmeticOp(tt.op))
		})
	}
}
