// Package mutagens implements the mutation operator catalog.
//
// Every operator is driven by the same pre-order traversal, so the ordinal of a
// site is identical whether it is being counted or applied. Applying a site
// always works on a fresh parse of the source text, never on the caller's tree.
package mutagens

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// ParseMode is the parser mode shared by every component that parses sources.
const ParseMode = parser.ParseComments | parser.SkipObjectResolution

// frame describes the function enclosing a visited node. Package-level nodes
// get a frame with an empty name.
type frame struct {
	// name is the enclosing top-level function, also for nodes inside closures.
	name string
	typ  *ast.FuncType
	// strs names the identifiers in scope known to hold strings.
	strs stringNames
}

// operator offers mutation sites on the node under a cursor.
type operator interface {
	// sites returns the position of every site the current node offers, in order.
	sites(c *astutil.Cursor, fr *frame) []token.Pos
	// mutate applies the k-th site of the current node.
	mutate(c *astutil.Cursor, fr *frame, k int)
}

var catalog = map[m.OperatorKind]operator{
	m.ComparisonSwap:   comparisonSwap{},
	m.BooleanSwap:      booleanSwap{},
	m.ReturnNoneSwap:   returnNoneSwap{},
	m.ArithmeticSwap:   arithmeticSwap{},
	m.StatementRemoval: statementRemoval{},
}

// walk visits every node of file in pre-order. fn returns false to stop.
func walk(file *ast.File, fn func(c *astutil.Cursor, fr *frame) bool) {
	stack := []frame{{strs: packageStrings(file)}}

	stopped := false

	pre := func(c *astutil.Cursor) bool {
		if stopped {
			return false
		}

		switch n := c.Node().(type) {
		case *ast.FuncDecl:
			stack = append(stack, frame{name: n.Name.Name, typ: n.Type, strs: funcStrings(stack[0].strs, n.Type, n.Body)})
		case *ast.FuncLit:
			parent := stack[len(stack)-1]
			stack = append(stack, frame{name: parent.name, typ: n.Type, strs: funcStrings(parent.strs, n.Type, n.Body)})
		}

		if !fn(c, &stack[len(stack)-1]) {
			stopped = true
			return false
		}

		return true
	}

	post := func(c *astutil.Cursor) bool {
		switch c.Node().(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			stack = stack[:len(stack)-1]
		}

		return !stopped
	}

	astutil.Apply(file, pre, post)
}

// CountTargets returns the number of sites kind offers in file. It does not
// modify the tree.
func CountTargets(file *ast.File, kind m.OperatorKind) int {
	op, ok := catalog[kind]
	if !ok || file == nil {
		return 0
	}

	count := 0

	walk(file, func(c *astutil.Cursor, fr *frame) bool {
		count += len(op.sites(c, fr))
		return true
	})

	return count
}

// Sites lists the sites kind offers in file, with their line and enclosing
// function.
func Sites(fset *token.FileSet, file *ast.File, kind m.OperatorKind) []m.Site {
	op, ok := catalog[kind]
	if !ok || file == nil {
		return nil
	}

	var sites []m.Site

	walk(file, func(c *astutil.Cursor, fr *frame) bool {
		for _, pos := range op.sites(c, fr) {
			site := m.Site{Kind: kind, Index: len(sites)}
			if fset != nil && pos.IsValid() {
				site.Line = fset.Position(pos).Line
			}

			if fr != nil {
				site.Function = fr.name
			}

			sites = append(sites, site)
		}

		return true
	})

	return sites
}

// Apply parses a private copy of unit and applies the index-th site of kind to
// it. It reports false when there is no such site.
func Apply(unit *m.SourceUnit, kind m.OperatorKind, index int) (*token.FileSet, *ast.File, bool) {
	op, ok := catalog[kind]
	if !ok || unit == nil || index < 0 {
		return nil, nil, false
	}

	fset, file, err := Clone(unit)
	if err != nil {
		return nil, nil, false
	}

	if !applyTo(file, op, index) {
		return nil, nil, false
	}

	return fset, file, true
}

func applyTo(file *ast.File, op operator, index int) bool {
	seen := 0
	applied := false

	walk(file, func(c *astutil.Cursor, fr *frame) bool {
		found := len(op.sites(c, fr))
		if index < seen+found {
			op.mutate(c, fr, index-seen)
			applied = true

			return false
		}

		seen += found

		return true
	})

	return applied
}

// Clone re-parses the unit's text into a new file set.
func Clone(unit *m.SourceUnit) (*token.FileSet, *ast.File, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, string(unit.Path), unit.Text, ParseMode)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", unit.Path, err)
	}

	return fset, file, nil
}

// Render serializes file back to gofmt-formatted source.
func Render(fset *token.FileSet, file *ast.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}

	return buf.Bytes(), nil
}
