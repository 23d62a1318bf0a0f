package domain

import (
	"go/ast"
	"go/token"
	"strings"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// ignoreDirective marks code that must not be mutated. It may be followed by
// a comma-separated list of operator kinds; without one it covers all kinds.
//
//	//mutguard:ignore
//	//mutguard:ignore ComparisonSwap,StatementRemoval
const ignoreDirective = "//mutguard:ignore"

// ignoreRule lists the kinds a directive covers. A nil rule covers nothing and
// an empty non-nil rule covers everything.
type ignoreRule map[m.OperatorKind]struct{}

func (r ignoreRule) ignores(kind m.OperatorKind) bool {
	if r == nil {
		return false
	}

	if len(r) == 0 {
		return true
	}

	_, ok := r[kind]

	return ok
}

type lineRange struct {
	start, end int
	rule       ignoreRule
}

// ignoreIndex collects the directives of one file.
type ignoreIndex struct {
	file  ignoreRule
	funcs []lineRange
	line  map[int]ignoreRule
}

func parseIgnoreRule(text string) (ignoreRule, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(text), ignoreDirective)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return nil, false
	}

	rule := ignoreRule{}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return rule, true
	}

	for _, name := range strings.Split(rest, ",") {
		if kind := m.OperatorKind(strings.TrimSpace(name)); kind.Valid() {
			rule[kind] = struct{}{}
		}
	}

	// Only unknown kinds: the directive covers nothing.
	if len(rule) == 0 {
		return nil, false
	}

	return rule, true
}

func groupRule(group *ast.CommentGroup) (ignoreRule, bool) {
	if group == nil {
		return nil, false
	}

	for _, comment := range group.List {
		if rule, ok := parseIgnoreRule(comment.Text); ok {
			return rule, true
		}
	}

	return nil, false
}

func buildIgnoreIndex(fset *token.FileSet, file *ast.File) ignoreIndex {
	index := ignoreIndex{line: make(map[int]ignoreRule)}
	if file == nil {
		return index
	}

	docs := make(map[*ast.CommentGroup]struct{})
	var firstCode map[int]token.Pos

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		if rule, found := groupRule(fn.Doc); found {
			docs[fn.Doc] = struct{}{}
			index.funcs = append(index.funcs, lineRange{
				start: fset.Position(fn.Pos()).Line,
				end:   fset.Position(fn.End()).Line,
				rule:  rule,
			})
		}
	}

	for _, group := range file.Comments {
		if _, isDoc := docs[group]; isDoc {
			continue
		}

		for _, comment := range group.List {
			rule, ok := parseIgnoreRule(comment.Text)
			if !ok {
				continue
			}

			if comment.Pos() < file.Package {
				index.file = rule
				continue
			}

			line := fset.Position(comment.Pos()).Line
			index.line[line] = rule

			if firstCode == nil {
				firstCode = codeStarts(fset, file)
			}

			// A directive trailing code covers only its own line.
			if first, ok := firstCode[line]; !ok || first > comment.Pos() {
				index.line[line+1] = rule
			}
		}
	}

	return index
}

// codeStarts maps each line holding code to the position of its first
// token.
func codeStarts(fset *token.FileSet, file *ast.File) map[int]token.Pos {
	starts := make(map[int]token.Pos)

	mark := func(pos token.Pos) {
		line := fset.Position(pos).Line
		if first, ok := starts[line]; !ok || pos < first {
			starts[line] = pos
		}
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch n.(type) {
		case nil, *ast.CommentGroup, *ast.Comment:
			return false
		case *ast.File:
			return true
		}

		mark(n.Pos())
		mark(n.End() - 1)

		return true
	})

	return starts
}

// ignores reports whether site is covered by a directive.
func (ix ignoreIndex) ignores(site m.Site) bool {
	if ix.file.ignores(site.Kind) || ix.line[site.Line].ignores(site.Kind) {
		return true
	}

	for _, fn := range ix.funcs {
		if site.Line >= fn.start && site.Line <= fn.end && fn.rule.ignores(site.Kind) {
			return true
		}
	}

	return false
}
