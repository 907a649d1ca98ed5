package synth

import (
	"strings"
	"testing"

	"pymend/internal/analysis"
	"pymend/internal/syntax"
)

func TestFragmentBindsAllNames(t *testing.T) {
	stmts, err := Fragment(analysis.NewSet("y", "z"))
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	out := syntax.PrintStmts(stmts)
	if !strings.Contains(out, "class _Absent:") {
		t.Errorf("sentinel class missing:\n%s", out)
	}
	if !strings.Contains(out, "_absent = _Absent()") {
		t.Errorf("shared instance missing:\n%s", out)
	}
	if !strings.Contains(out, "y = _absent") || !strings.Contains(out, "z = _absent") {
		t.Errorf("bindings missing:\n%s", out)
	}
	if _, err := syntax.ParseString(out); err != nil {
		t.Errorf("fragment does not reparse: %v\n%s", err, out)
	}
}

func TestFragmentDeterministicOrder(t *testing.T) {
	stmts, err := Fragment(analysis.NewSet("z", "a", "m"))
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	out := syntax.PrintStmts(stmts)
	a := strings.Index(out, "a = _absent")
	m := strings.Index(out, "m = _absent")
	z := strings.Index(out, "z = _absent")
	if a < 0 || m < 0 || z < 0 || !(a < m && m < z) {
		t.Errorf("bindings not in lexicographic order:\n%s", out)
	}
}

func TestFragmentEmptySet(t *testing.T) {
	stmts, err := Fragment(analysis.NewSet())
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if len(stmts) != 0 {
		t.Errorf("empty set produced %d statements", len(stmts))
	}
}

func TestRepairEliminatesMissing(t *testing.T) {
	mod, err := syntax.ParseString("x = 5\nresult = x * y\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fixed, err := Repair(mod)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	out := syntax.Print(fixed)
	reparsed, err := syntax.ParseString(out)
	if err != nil {
		t.Fatalf("repaired output does not reparse: %v\n%s", err, out)
	}
	left := analysis.Missing(reparsed)
	if len(left) != 0 {
		t.Errorf("names still missing after repair: %v\n%s", left.Sorted(), out)
	}
	if !strings.Contains(out, "y = _absent") {
		t.Errorf("y not bound to the sentinel:\n%s", out)
	}
}

func TestRepairNoOpWhenComplete(t *testing.T) {
	mod, err := syntax.ParseString("x = 5\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fixed, err := Repair(mod)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if fixed != mod {
		t.Error("complete module should pass through unchanged")
	}
}
