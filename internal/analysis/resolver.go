package analysis

import (
	"pymend/internal/syntax"
)

// Missing returns the names the module reads but never binds anywhere,
// minus the builtin namespace and any extra names the caller treats as
// ambient (framework globals, conftest fixtures and the like).
func Missing(mod *syntax.Module, extra ...Set) Set {
	report := Walk(mod)
	subtract := make([]Set, 0, len(extra)+2)
	subtract = append(subtract, report.Defined, Builtins())
	subtract = append(subtract, extra...)
	return report.Used.Diff(subtract...)
}

// Unused returns the names the module binds but never reads.
func Unused(mod *syntax.Module) Set {
	report := Walk(mod)
	return report.Defined.Diff(report.Used)
}

// UnusedCandidates filters a removal wishlist down to names that are safe
// to hand to the rewriter: defined in the module and bound by a top-level
// simple assignment. Names bound only inside function bodies are excluded;
// deleting those would break control flow.
func UnusedCandidates(mod *syntax.Module, wanted Set) Set {
	defined := Walk(mod).Defined.Intersect(wanted)
	out := make(Set)
	for _, stmt := range mod.Body {
		assign, ok := stmt.(*syntax.Assign)
		if !ok {
			continue
		}
		for _, name := range assignNames(assign) {
			if defined.Has(name) {
				out.Add(name)
			}
		}
	}
	return out
}

// assignNames returns the bound names of a simple assignment, or nil when
// any target is not a plain name tuple (attribute and subscript targets
// never qualify for deletion).
func assignNames(assign *syntax.Assign) []string {
	var names []string
	for _, target := range assign.Targets {
		leaf, ok := plainNames(target)
		if !ok {
			return nil
		}
		names = append(names, leaf...)
	}
	return names
}

func plainNames(target syntax.Expr) ([]string, bool) {
	switch t := target.(type) {
	case *syntax.Name:
		return []string{t.ID}, true
	case *syntax.TupleExpr:
		return plainNameList(t.Elts)
	case *syntax.ListExpr:
		return plainNameList(t.Elts)
	case *syntax.Starred:
		return plainNames(t.Value)
	case *syntax.Paren:
		return plainNames(t.Value)
	default:
		return nil, false
	}
}

func plainNameList(elts []syntax.Expr) ([]string, bool) {
	var names []string
	for _, elt := range elts {
		leaf, ok := plainNames(elt)
		if !ok {
			return nil, false
		}
		names = append(names, leaf...)
	}
	return names, true
}
