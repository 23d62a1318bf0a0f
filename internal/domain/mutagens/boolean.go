package mutagens

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// booleanSwap flips boolean literals and short-circuit operators. Both forms
// share one counter, in the order they are encountered.
type booleanSwap struct{}

func (booleanSwap) sites(c *astutil.Cursor, _ *frame) []token.Pos {
	switch n := c.Node().(type) {
	case *ast.Ident:
		if isBooleanLiteral(n.Name) && inExpressionPosition(c) {
			return []token.Pos{n.Pos()}
		}
	case *ast.BinaryExpr:
		if n.Op == token.LAND || n.Op == token.LOR {
			return []token.Pos{n.OpPos}
		}
	}

	return nil
}

func (booleanSwap) mutate(c *astutil.Cursor, _ *frame, _ int) {
	switch n := c.Node().(type) {
	case *ast.Ident:
		flipped := ast.NewIdent(flipBoolean(n.Name))
		flipped.NamePos = n.NamePos
		c.Replace(flipped)
	case *ast.BinaryExpr:
		if n.Op == token.LAND {
			n.Op = token.LOR
		} else {
			n.Op = token.LAND
		}
	}
}

// inExpressionPosition rejects identifiers that name something rather than
// evaluate to a value, such as a selector or a declared name.
func inExpressionPosition(c *astutil.Cursor) bool {
	switch c.Name() {
	case "Sel", "Name", "Names", "Label":
		return false
	}

	return true
}

func isBooleanLiteral(name string) bool {
	return name == trueStr || name == falseStr
}

func flipBoolean(original string) string {
	if original == trueStr {
		return falseStr
	}

	return trueStr
}
