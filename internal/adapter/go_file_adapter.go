package adapter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
)

// parseMode matches the mode the mutation catalog parses with, so positions
// computed here line up with site positions.
const parseMode = parser.ParseComments | parser.SkipObjectResolution

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can focus
// on mutation rules.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// FunctionAt returns the name of the top-level function whose declaration
	// spans line, or "" when line is outside every function.
	FunctionAt(fileSet *token.FileSet, file *ast.File, line int) string

	// IsGenerated reports whether file carries a "Code generated ... DO NOT
	// EDIT." marker.
	IsGenerated(file *ast.File) bool
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parseMode)
}

// FunctionAt finds the function declaration covering line.
func (a *LocalGoFileAdapter) FunctionAt(fileSet *token.FileSet, file *ast.File, line int) string {
	if file == nil {
		return ""
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		start := fileSet.Position(fn.Pos()).Line
		end := fileSet.Position(fn.End()).Line

		if line >= start && line <= end {
			return fn.Name.Name
		}
	}

	return ""
}

// IsGenerated reports whether file is generated code.
func (a *LocalGoFileAdapter) IsGenerated(file *ast.File) bool {
	return file != nil && ast.IsGenerated(file)
}
