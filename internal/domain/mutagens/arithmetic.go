package mutagens

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

var arithmeticSwaps = map[token.Token]token.Token{
	token.ADD: token.SUB,
	token.SUB: token.ADD,
	token.MUL: token.QUO,
	token.QUO: token.MUL,
}

// arithmeticSwap flips + with - and * with /.
type arithmeticSwap struct{}

func (arithmeticSwap) sites(c *astutil.Cursor, fr *frame) []token.Pos {
	binExpr, ok := c.Node().(*ast.BinaryExpr)
	if !ok || !isArithmeticOp(binExpr.Op) {
		return nil
	}

	// String concatenation has no - counterpart; the swap would not compile.
	if binExpr.Op == token.ADD && fr.strs.holds(binExpr) {
		return nil
	}

	return []token.Pos{binExpr.OpPos}
}

func (arithmeticSwap) mutate(c *astutil.Cursor, _ *frame, _ int) {
	binExpr := c.Node().(*ast.BinaryExpr)
	binExpr.Op = arithmeticSwaps[binExpr.Op]
}

func isArithmeticOp(op token.Token) bool {
	_, ok := arithmeticSwaps[op]
	return ok
}

