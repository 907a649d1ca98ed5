// Package imports extracts and classifies import statements: which module a
// statement pulls from, which names it binds, and whether the path is
// relative to the current package.
package imports

import (
	"strings"

	"pymend/internal/syntax"
)

// Record describes one import statement found in a tree.
type Record struct {
	// Module is the dotted path as written, without leading dots.
	Module string
	// Level counts leading dots; zero for absolute imports.
	Level int
	// Names are the identifiers the statement binds, alias wins.
	Names []string
	// Star is true for "from mod import *".
	Star bool
	Node syntax.Stmt
}

// IsLocal reports whether the import path is syntactically relative to the
// current package. Purely a leading-dot test, never a filesystem lookup.
func (r Record) IsLocal() bool {
	return r.Level > 0
}

// Matches reports whether the record imports the given module, compared on
// the leading path component.
func (r Record) Matches(name string) bool {
	return leadingComponent(r.Module) == name
}

func leadingComponent(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// FindAll walks the whole tree, nested blocks included, and returns every
// import in source order.
func FindAll(mod *syntax.Module) []Record {
	var out []Record
	walkStmts(mod.Body, &out)
	return out
}

// FindTopLevel returns only module-scope imports.
func FindTopLevel(mod *syntax.Module) []Record {
	var out []Record
	for _, stmt := range mod.Body {
		collect(stmt, &out)
	}
	return out
}

// Locals returns every relative import in the tree.
func Locals(mod *syntax.Module) []Record {
	var out []Record
	for _, rec := range FindAll(mod) {
		if rec.IsLocal() {
			out = append(out, rec)
		}
	}
	return out
}

func walkStmts(body []syntax.Stmt, out *[]Record) {
	for _, stmt := range body {
		collect(stmt, out)
		switch s := stmt.(type) {
		case *syntax.FunctionDef:
			walkStmts(s.Body, out)
		case *syntax.ClassDef:
			walkStmts(s.Body, out)
		case *syntax.For:
			walkStmts(s.Body, out)
			walkStmts(s.Else, out)
		case *syntax.While:
			walkStmts(s.Body, out)
			walkStmts(s.Else, out)
		case *syntax.If:
			walkStmts(s.Body, out)
			walkStmts(s.Else, out)
		case *syntax.With:
			walkStmts(s.Body, out)
		case *syntax.Try:
			walkStmts(s.Body, out)
			for _, h := range s.Handlers {
				walkStmts(h.Body, out)
			}
			walkStmts(s.Else, out)
			walkStmts(s.Final, out)
		}
	}
}

func collect(stmt syntax.Stmt, out *[]Record) {
	switch s := stmt.(type) {
	case *syntax.Import:
		// "import a.b, c as d" yields one record per clause; each clause is
		// its own module path.
		for _, alias := range s.Names {
			*out = append(*out, Record{
				Module: alias.Name,
				Names:  []string{alias.Bound()},
				Node:   s,
			})
		}
	case *syntax.ImportFrom:
		rec := Record{
			Module: s.Module,
			Level:  s.Level,
			Star:   s.Star,
			Node:   s,
		}
		for _, alias := range s.Names {
			rec.Names = append(rec.Names, alias.Bound())
		}
		*out = append(*out, rec)
	}
}
