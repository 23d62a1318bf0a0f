package mutagens

import (
	"go/ast"
	"go/token"
	"maps"
)

// stringNames is the set of identifiers known to hold strings. It is built
// from declarations alone, without type checking: identifiers whose type comes
// from another file or package, and shadowing, are not tracked.
type stringNames map[string]bool

// stringResults lists standard library calls that return a string.
var stringResults = map[string]map[string]bool{
	"fmt": {"Sprint": true, "Sprintf": true, "Sprintln": true},
	"strings": {
		"Join": true, "Repeat": true, "Replace": true, "ReplaceAll": true,
		"ToLower": true, "ToUpper": true, "Trim": true, "TrimSpace": true,
		"TrimPrefix": true, "TrimSuffix": true, "TrimLeft": true, "TrimRight": true,
	},
	"strconv": {"Itoa": true, "FormatInt": true, "FormatFloat": true, "FormatBool": true, "Quote": true},
	"filepath": {"Join": true, "Base": true, "Dir": true, "Ext": true, "Clean": true},
}

// holds reports whether expr evaluates to a string.
func (s stringNames) holds(expr ast.Expr) bool {
	switch e := ast.Unparen(expr).(type) {
	case *ast.BasicLit:
		return e.Kind == token.STRING
	case *ast.Ident:
		return s[e.Name]
	case *ast.BinaryExpr:
		return e.Op == token.ADD && (s.holds(e.X) || s.holds(e.Y))
	case *ast.SliceExpr:
		return s.holds(e.X)
	case *ast.CallExpr:
		return isStringCall(e)
	}

	return false
}

func isStringCall(call *ast.CallExpr) bool {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name == "string"
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		return ok && stringResults[pkg.Name][fun.Sel.Name]
	}

	return false
}

func isStringType(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == "string"
}

// addSpec records the names of a var or const spec that hold strings.
func (s stringNames) addSpec(spec *ast.ValueSpec) {
	for i, name := range spec.Names {
		switch {
		case spec.Type != nil:
			s[name.Name] = isStringType(spec.Type)
		case len(spec.Values) == len(spec.Names):
			s[name.Name] = s.holds(spec.Values[i])
		}
	}
}

// addFields records parameters and results declared as string.
func (s stringNames) addFields(fields *ast.FieldList) {
	if fields == nil {
		return
	}

	for _, field := range fields.List {
		for _, name := range field.Names {
			s[name.Name] = isStringType(field.Type)
		}
	}
}

// packageStrings collects the package-level vars and consts of file that
// hold strings.
func packageStrings(file *ast.File) stringNames {
	names := make(stringNames)

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.VAR && gen.Tok != token.CONST) {
			continue
		}

		for _, spec := range gen.Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				names.addSpec(vs)
			}
		}
	}

	return names
}

// funcStrings extends outer with the string parameters, results and locals
// of a function.
func funcStrings(outer stringNames, typ *ast.FuncType, body *ast.BlockStmt) stringNames {
	names := maps.Clone(outer)
	if names == nil {
		names = make(stringNames)
	}

	names.addFields(typ.Params)
	names.addFields(typ.Results)

	if body == nil {
		return names
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ValueSpec:
			names.addSpec(n)
		case *ast.AssignStmt:
			if n.Tok != token.DEFINE || len(n.Lhs) != len(n.Rhs) {
				return true
			}

			for i, lhs := range n.Lhs {
				if ident, ok := lhs.(*ast.Ident); ok && ident.Name != "_" {
					names[ident.Name] = names.holds(n.Rhs[i])
				}
			}
		}

		return true
	})

	return names
}
