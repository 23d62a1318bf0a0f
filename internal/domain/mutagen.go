// Package domain contains the core mutation testing workflow and logic.
package domain

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"gooze.dev/pkg/mutguard/internal/adapter"
	"gooze.dev/pkg/mutguard/internal/domain/mutagens"
	m "gooze.dev/pkg/mutguard/internal/model"
)

// SiteFilter decides whether a site is kept by Plan.
type SiteFilter func(site m.Site) bool

// Mutagen loads source files and turns their mutation sites into mutants.
type Mutagen interface {
	// Load reads and parses path.
	Load(ctx context.Context, path m.Path) (*m.SourceUnit, error)
	// Estimate counts the sites of every operator, after ignore directives.
	Estimate(unit *m.SourceUnit) map[m.OperatorKind]int
	// Plan selects at most limit sites, round-robin across operators in
	// catalog order. keep may be nil.
	Plan(unit *m.SourceUnit, limit int, keep SiteFilter) []m.Site
	// Mutate applies site to a private copy of unit. It reports false when
	// the site does not exist or does not change the rendered source.
	Mutate(unit *m.SourceUnit, site m.Site) (m.Mutant, bool)
}

type mutagen struct {
	adapter.GoFileAdapter
	adapter.SourceFSAdapter
}

// NewMutagen creates a new Mutagen instance.
func NewMutagen(goFileAdapter adapter.GoFileAdapter, sourceFSAdapter adapter.SourceFSAdapter) Mutagen {
	return &mutagen{
		GoFileAdapter:   goFileAdapter,
		SourceFSAdapter: sourceFSAdapter,
	}
}

func (mg *mutagen) Load(ctx context.Context, path m.Path) (*m.SourceUnit, error) {
	content, err := mg.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fset := token.NewFileSet()

	file, err := mg.Parse(ctx, fset, string(path), content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &m.SourceUnit{Path: path, Text: content, Fset: fset, File: file}, nil
}

func (mg *mutagen) Estimate(unit *m.SourceUnit) map[m.OperatorKind]int {
	counts := make(map[m.OperatorKind]int, len(m.AllOperators()))

	for kind, sites := range mg.sitesByKind(unit, nil) {
		counts[kind] = len(sites)
	}

	return counts
}

func (mg *mutagen) Plan(unit *m.SourceUnit, limit int, keep SiteFilter) []m.Site {
	byKind := mg.sitesByKind(unit, keep)

	var planned []m.Site

	for round := 0; limit <= 0 || len(planned) < limit; round++ {
		progressed := false

		for _, kind := range m.AllOperators() {
			sites := byKind[kind]
			if round >= len(sites) {
				continue
			}

			planned = append(planned, sites[round])
			progressed = true

			if limit > 0 && len(planned) == limit {
				return planned
			}
		}

		if !progressed {
			break
		}
	}

	return planned
}

func (mg *mutagen) sitesByKind(unit *m.SourceUnit, keep SiteFilter) map[m.OperatorKind][]m.Site {
	byKind := make(map[m.OperatorKind][]m.Site)
	if unit == nil || unit.File == nil {
		return byKind
	}

	ignore := buildIgnoreIndex(unit.Fset, unit.File)

	for _, kind := range m.AllOperators() {
		for _, site := range mutagens.Sites(unit.Fset, unit.File, kind) {
			if ignore.ignores(site) || (keep != nil && !keep(site)) {
				continue
			}

			byKind[kind] = append(byKind[kind], site)
		}
	}

	return byKind
}

func (mg *mutagen) Mutate(unit *m.SourceUnit, site m.Site) (m.Mutant, bool) {
	if unit == nil {
		return m.Mutant{}, false
	}

	fset, file, ok := mutagens.Apply(unit, site.Kind, site.Index)
	if !ok {
		return m.Mutant{}, false
	}

	mutated, err := mutagens.Render(fset, file)
	if err != nil {
		return m.Mutant{}, false
	}

	original, err := renderOriginal(unit)
	if err != nil || bytes.Equal(original, mutated) {
		return m.Mutant{}, false
	}

	return m.Mutant{
		Site:   site,
		Source: unit.Path,
		Text:   mutated,
		Diff:   unifiedDiff(unit.Path, original, mutated),
	}, true
}

// renderOriginal formats a fresh parse of the unit, so mutants are compared
// with the same printer output rather than the author's formatting.
func renderOriginal(unit *m.SourceUnit) ([]byte, error) {
	fset, file, err := mutagens.Clone(unit)
	if err != nil {
		return nil, err
	}

	return mutagens.Render(fset, file)
}

func unifiedDiff(path m.Path, original, mutated []byte) string {
	name := filepath.Base(string(path))

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(mutated)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return diff
}
