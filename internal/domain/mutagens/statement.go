package mutagens

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// statementRemoval deletes one top-level statement of a function body. A body
// with a single statement offers no site, so no mutant ever has an empty body.
type statementRemoval struct{}

func (statementRemoval) sites(c *astutil.Cursor, _ *frame) []token.Pos {
	body := functionBody(c)
	if body == nil || len(body.List) <= 1 {
		return nil
	}

	positions := make([]token.Pos, 0, len(body.List))
	for _, stmt := range body.List {
		positions = append(positions, stmt.Pos())
	}

	return positions
}

func (statementRemoval) mutate(c *astutil.Cursor, _ *frame, k int) {
	body := functionBody(c)

	list := make([]ast.Stmt, 0, len(body.List)-1)
	list = append(list, body.List[:k]...)
	list = append(list, body.List[k+1:]...)
	body.List = list
}

// functionBody returns the cursor's node when it is the body of a function
// declaration or literal.
func functionBody(c *astutil.Cursor) *ast.BlockStmt {
	block, ok := c.Node().(*ast.BlockStmt)
	if !ok || c.Name() != "Body" {
		return nil
	}

	switch c.Parent().(type) {
	case *ast.FuncDecl, *ast.FuncLit:
		return block
	}

	return nil
}
