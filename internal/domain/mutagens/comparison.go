package mutagens

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

var comparisonSwaps = map[token.Token]token.Token{
	token.GTR: token.LSS,
	token.LSS: token.GTR,
	token.GEQ: token.LEQ,
	token.LEQ: token.GEQ,
	token.EQL: token.NEQ,
	token.NEQ: token.EQL,
}

// comparisonSwap mirrors comparison operators.
type comparisonSwap struct{}

func (comparisonSwap) sites(c *astutil.Cursor, _ *frame) []token.Pos {
	binExpr, ok := c.Node().(*ast.BinaryExpr)
	if !ok || !isComparisonOp(binExpr.Op) {
		return nil
	}

	return []token.Pos{binExpr.OpPos}
}

func (comparisonSwap) mutate(c *astutil.Cursor, _ *frame, _ int) {
	binExpr := c.Node().(*ast.BinaryExpr)
	binExpr.Op = comparisonSwaps[binExpr.Op]
}

func isComparisonOp(op token.Token) bool {
	_, ok := comparisonSwaps[op]
	return ok
}
