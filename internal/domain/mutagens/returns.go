package mutagens

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// returnNoneSwap replaces the values of a return statement with the zero value
// of each declared result type. Bare returns offer no site, and neither do
// returns whose values already are the zero values.
type returnNoneSwap struct{}

func (returnNoneSwap) sites(c *astutil.Cursor, fr *frame) []token.Pos {
	ret, ok := c.Node().(*ast.ReturnStmt)
	if !ok || len(ret.Results) == 0 {
		return nil
	}

	zeros := zeroResults(fr, len(ret.Results))
	if zeros == nil {
		return nil
	}

	for i, result := range ret.Results {
		if types.ExprString(result) != types.ExprString(zeros[i]) {
			return []token.Pos{ret.Pos()}
		}
	}

	return nil
}

func (returnNoneSwap) mutate(c *astutil.Cursor, fr *frame, _ int) {
	ret := c.Node().(*ast.ReturnStmt)
	zeros := zeroResults(fr, len(ret.Results))

	results := make([]ast.Expr, len(zeros))
	copy(results, zeros)
	ret.Results = results
}

// zeroResults returns one zero-value expression per declared result of the
// enclosing function, or nil when they do not line up with n returned values
// (for example `return f()` forwarding several results).
func zeroResults(fr *frame, n int) []ast.Expr {
	if fr == nil || fr.typ == nil || fr.typ.Results == nil {
		return nil
	}

	var zeros []ast.Expr

	for _, field := range fr.typ.Results.List {
		count := len(field.Names)
		if count == 0 {
			count = 1
		}

		for range count {
			zeros = append(zeros, zeroValue(field.Type))
		}
	}

	if len(zeros) != n {
		return nil
	}

	return zeros
}

var numericTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
	"byte": true, "rune": true,
}

// zeroValue builds the zero-value literal for a result type. Types that cannot
// be classified syntactically fall back to *new(T).
func zeroValue(typ ast.Expr) ast.Expr {
	switch t := typ.(type) {
	case *ast.Ident:
		switch {
		case numericTypes[t.Name]:
			return &ast.BasicLit{Kind: token.INT, Value: "0"}
		case t.Name == "string":
			return &ast.BasicLit{Kind: token.STRING, Value: `""`}
		case t.Name == "bool":
			return ast.NewIdent(falseStr)
		case t.Name == "error" || t.Name == "any":
			return ast.NewIdent("nil")
		}
	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return ast.NewIdent("nil")
	case *ast.ArrayType:
		if t.Len == nil {
			return ast.NewIdent("nil")
		}
	case *ast.ParenExpr:
		return zeroValue(t.X)
	}

	return &ast.StarExpr{
		X: &ast.CallExpr{
			Fun:  ast.NewIdent("new"),
			Args: []ast.Expr{typ},
		},
	}
}
