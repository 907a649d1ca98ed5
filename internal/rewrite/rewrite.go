// Package rewrite performs structural edits on parsed modules. Every
// operation is copy-on-write: the input tree is never touched, modified
// regions are rebuilt and unmodified subtrees are shared.
package rewrite

import (
	"strings"

	"pymend/internal/analysis"
	"pymend/internal/syntax"
)

// DeleteBindings removes every top-level simple-assignment statement whose
// targets are all plain names inside the removal set. A statement with any
// target outside the set is left whole; partial deletion never occurs.
func DeleteBindings(mod *syntax.Module, names analysis.Set) *syntax.Module {
	body := make([]syntax.Stmt, 0, len(mod.Body))
	for _, stmt := range mod.Body {
		if assign, ok := stmt.(*syntax.Assign); ok {
			if targets, plain := plainTargets(assign); plain && allIn(targets, names) {
				continue
			}
		}
		body = append(body, stmt)
	}
	return &syntax.Module{Body: body}
}

// DeleteDefinitions removes top-level function and class definitions whose
// name is in the removal set.
func DeleteDefinitions(mod *syntax.Module, names analysis.Set) *syntax.Module {
	body := make([]syntax.Stmt, 0, len(mod.Body))
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *syntax.FunctionDef:
			if names.Has(s.Name) {
				continue
			}
		case *syntax.ClassDef:
			if names.Has(s.Name) {
				continue
			}
		}
		body = append(body, stmt)
	}
	return &syntax.Module{Body: body}
}

// DeleteImports removes import and from-import statements whose module
// matches the given name on its leading path component, at any block depth.
// References to the names those imports bound are left alone; dropping the
// import may leave them dangling, which is the documented behavior.
func DeleteImports(mod *syntax.Module, module string) *syntax.Module {
	return rewriteModule(mod, func(stmt syntax.Stmt) []syntax.Stmt {
		switch s := stmt.(type) {
		case *syntax.Import:
			kept := make([]syntax.Alias, 0, len(s.Names))
			for _, alias := range s.Names {
				if leadingComponent(alias.Name) != module {
					kept = append(kept, alias)
				}
			}
			if len(kept) == 0 {
				return nil
			}
			if len(kept) == len(s.Names) {
				return []syntax.Stmt{s}
			}
			c := *s
			c.Names = kept
			return []syntax.Stmt{&c}
		case *syntax.ImportFrom:
			if leadingComponent(s.Module) == module {
				return nil
			}
		}
		return []syntax.Stmt{stmt}
	})
}

// DeleteLocalImports removes every relative (leading-dot) import at any
// block depth. Idempotent.
func DeleteLocalImports(mod *syntax.Module) *syntax.Module {
	return rewriteModule(mod, func(stmt syntax.Stmt) []syntax.Stmt {
		if imp, ok := stmt.(*syntax.ImportFrom); ok && imp.Level > 0 {
			return nil
		}
		return []syntax.Stmt{stmt}
	})
}

// DeleteFalseyBlocks removes if statements whose guard is statically false:
// the False literal, or a TYPE_CHECKING / typing.TYPE_CHECKING sentinel.
// The else branch content, if any, replaces the statement at the same block
// level. Guard evaluation is a syntactic pattern match only.
func DeleteFalseyBlocks(mod *syntax.Module) *syntax.Module {
	return rewriteModule(mod, func(stmt syntax.Stmt) []syntax.Stmt {
		if s, ok := stmt.(*syntax.If); ok && isFalseyGuard(s.Cond) {
			return s.Else
		}
		return []syntax.Stmt{stmt}
	})
}

func isFalseyGuard(cond syntax.Expr) bool {
	switch c := cond.(type) {
	case *syntax.Paren:
		return isFalseyGuard(c.Value)
	case *syntax.Literal:
		return c.IsFalse()
	case *syntax.Name:
		return c.ID == "TYPE_CHECKING"
	case *syntax.Attribute:
		if base, ok := c.Value.(*syntax.Name); ok {
			return base.ID == "typing" && c.Attr == "TYPE_CHECKING"
		}
	}
	return false
}

func leadingComponent(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// plainTargets returns the leaf names of an assignment whose every target is
// a bare name (or a tuple/list/star of bare names). Attribute and subscript
// targets disqualify the statement.
func plainTargets(assign *syntax.Assign) ([]string, bool) {
	var names []string
	for _, target := range assign.Targets {
		leaf, ok := leafNames(target)
		if !ok {
			return nil, false
		}
		names = append(names, leaf...)
	}
	return names, true
}

func leafNames(target syntax.Expr) ([]string, bool) {
	switch t := target.(type) {
	case *syntax.Name:
		return []string{t.ID}, true
	case *syntax.TupleExpr:
		return leafNameList(t.Elts)
	case *syntax.ListExpr:
		return leafNameList(t.Elts)
	case *syntax.Starred:
		return leafNames(t.Value)
	case *syntax.Paren:
		return leafNames(t.Value)
	default:
		return nil, false
	}
}

func leafNameList(elts []syntax.Expr) ([]string, bool) {
	var names []string
	for _, elt := range elts {
		leaf, ok := leafNames(elt)
		if !ok {
			return nil, false
		}
		names = append(names, leaf...)
	}
	return names, true
}

func allIn(names []string, set analysis.Set) bool {
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if !set.Has(name) {
			return false
		}
	}
	return true
}

// rewriteModule applies f to every statement bottom-up, rebuilding compound
// statements whose bodies changed and sharing everything else.
func rewriteModule(mod *syntax.Module, f func(syntax.Stmt) []syntax.Stmt) *syntax.Module {
	return &syntax.Module{Body: rewriteBody(mod.Body, f)}
}

func rewriteBody(body []syntax.Stmt, f func(syntax.Stmt) []syntax.Stmt) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		out = append(out, f(rewriteChildren(stmt, f))...)
	}
	return out
}

func rewriteChildren(stmt syntax.Stmt, f func(syntax.Stmt) []syntax.Stmt) syntax.Stmt {
	switch s := stmt.(type) {
	case *syntax.FunctionDef:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		return &c
	case *syntax.ClassDef:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		return &c
	case *syntax.For:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		c.Else = rewriteBody(s.Else, f)
		return &c
	case *syntax.While:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		c.Else = rewriteBody(s.Else, f)
		return &c
	case *syntax.If:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		c.Else = rewriteBody(s.Else, f)
		return &c
	case *syntax.With:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		return &c
	case *syntax.Try:
		c := *s
		c.Body = rewriteBody(s.Body, f)
		c.Handlers = make([]syntax.ExceptHandler, len(s.Handlers))
		for i, h := range s.Handlers {
			c.Handlers[i] = syntax.ExceptHandler{Type: h.Type, Name: h.Name, Body: rewriteBody(h.Body, f)}
		}
		c.Else = rewriteBody(s.Else, f)
		c.Final = rewriteBody(s.Final, f)
		return &c
	default:
		return stmt
	}
}
