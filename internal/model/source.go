package model

import (
	"go/ast"
	"go/token"
	"sort"
)

// Path represents a file system path.
type Path string

// SourceUnit is a parsed Go source file. It is owned by a single scan call.
type SourceUnit struct {
	Path Path
	Text []byte
	Fset *token.FileSet
	File *ast.File
}

// Target pairs a source file with the test file that acts as its oracle.
type Target struct {
	Source Path
	Test   Path
}

// ChangeSet maps a file to the names of the functions touched by the latest
// change. It is only meaningful for one incremental scan.
type ChangeSet struct {
	Functions map[Path]map[string]struct{}
}

// NewChangeSet returns an empty ChangeSet.
func NewChangeSet() ChangeSet {
	return ChangeSet{Functions: make(map[Path]map[string]struct{})}
}

// Add records fn as changed in file.
func (c *ChangeSet) Add(file Path, fn string) {
	if fn == "" {
		return
	}

	if c.Functions == nil {
		c.Functions = make(map[Path]map[string]struct{})
	}

	names, ok := c.Functions[file]
	if !ok {
		names = make(map[string]struct{})
		c.Functions[file] = names
	}

	names[fn] = struct{}{}
}

// Has reports whether fn in file was changed.
func (c ChangeSet) Has(file Path, fn string) bool {
	names, ok := c.Functions[file]
	if !ok {
		return false
	}

	_, ok = names[fn]

	return ok
}

// Contains reports whether file has at least one changed function.
func (c ChangeSet) Contains(file Path) bool {
	return len(c.Functions[file]) > 0
}

// Files returns the changed files in sorted order.
func (c ChangeSet) Files() []Path {
	files := make([]Path, 0, len(c.Functions))
	for file := range c.Functions {
		if c.Contains(file) {
			files = append(files, file)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return files
}

// Names returns the changed function names for file in sorted order.
func (c ChangeSet) Names(file Path) []string {
	names := make([]string, 0, len(c.Functions[file]))
	for name := range c.Functions[file] {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// IsEmpty reports whether no function was recorded.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Files()) == 0
}
