package analysis

import (
	"testing"

	"pymend/internal/syntax"
)

func mustParse(t *testing.T, source string) *syntax.Module {
	t.Helper()
	mod, err := syntax.ParseString(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return mod
}

func assertSet(t *testing.T, got Set, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("set size = %d, want %d (got %v)", len(got), len(want), got.Sorted())
	}
	for _, name := range want {
		if !got.Has(name) {
			t.Errorf("missing %q in %v", name, got.Sorted())
		}
	}
}

func TestWalkDefinedAndUsed(t *testing.T) {
	report := Walk(mustParse(t, "x = 5\ny = 10\nz = x + y"))
	assertSet(t, report.Defined, "x", "y", "z")
	assertSet(t, report.Used, "x", "y")
}

func TestMissingSimple(t *testing.T) {
	missing := Missing(mustParse(t, "x = 5\nresult = x * y"))
	assertSet(t, missing, "y")
}

func TestMissingOrderIndependent(t *testing.T) {
	// Use before the textual definition point is not missing; resolution is
	// whole-tree, not line-ordered.
	missing := Missing(mustParse(t, "result = x * y\nx = 5"))
	assertSet(t, missing, "y")
}

func TestMissingExcludesBuiltins(t *testing.T) {
	missing := Missing(mustParse(t, "values = list(range(10))\ntotal = sum(values)"))
	assertSet(t, missing)
}

func TestMissingExtraAllowList(t *testing.T) {
	source := "out = db.query(q)"
	assertSet(t, Missing(mustParse(t, source)), "db", "q")
	assertSet(t, Missing(mustParse(t, source), NewSet("db")), "q")
}

func TestComprehensionTargetStaysLocal(t *testing.T) {
	report := Walk(mustParse(t, "[y for y in range(3)]"))
	if report.Defined.Has("y") {
		t.Error("comprehension target leaked into defined")
	}
	if report.Used.Has("y") {
		t.Error("comprehension target leaked into used")
	}
	if !report.Used.Has("range") {
		t.Error("outermost iterable not evaluated in enclosing scope")
	}
}

func TestComprehensionFreeVariable(t *testing.T) {
	report := Walk(mustParse(t, "rows = [fmt(item) for item in items]"))
	assertSet(t, report.Used, "fmt", "items")
	assertSet(t, report.Defined, "rows")
}

func TestWalrusEscapesComprehension(t *testing.T) {
	report := Walk(mustParse(t, "vals = [total := n for n in nums]"))
	if !report.Defined.Has("total") {
		t.Error("walrus binding did not escape the comprehension scope")
	}
	if report.Defined.Has("n") {
		t.Error("comprehension target leaked into defined")
	}
}

func TestFunctionScopeDoesNotLeak(t *testing.T) {
	source := "def handler(req):\n    body = req.text\n    return body\n"
	report := Walk(mustParse(t, source))
	assertSet(t, report.Defined, "handler", "req", "body")
	assertSet(t, report.Used, "req", "body")

	missing := Missing(mustParse(t, source))
	assertSet(t, missing)
}

func TestDefaultsEvaluatedInEnclosingScope(t *testing.T) {
	report := Walk(mustParse(t, "def f(a=fallback):\n    return a\n"))
	if !report.Used.Has("fallback") {
		t.Error("default expression not treated as enclosing-scope use")
	}
}

func TestGlobalDeclarationRoutesBinding(t *testing.T) {
	source := "def bump():\n    global counter\n    counter = counter + 1\n"
	report := Walk(mustParse(t, source))
	if !report.Defined.Has("counter") {
		t.Error("global-declared assignment should still register the binding")
	}
	missing := Missing(mustParse(t, source))
	assertSet(t, missing)
}

func TestAugAssignIsUseAndBinding(t *testing.T) {
	report := Walk(mustParse(t, "x += 1"))
	if !report.Used.Has("x") || !report.Defined.Has("x") {
		t.Errorf("augmented assignment: used=%v defined=%v", report.Used.Sorted(), report.Defined.Sorted())
	}
}

func TestAttributeTargetIsUse(t *testing.T) {
	report := Walk(mustParse(t, "obj.attr = value\nstore[key] = value"))
	assertSet(t, report.Defined)
	assertSet(t, report.Used, "obj", "store", "key", "value")
}

func TestImportBindings(t *testing.T) {
	source := "import os.path\nimport numpy as np\nfrom collections import deque, OrderedDict as OD\n"
	report := Walk(mustParse(t, source))
	assertSet(t, report.Defined, "os", "np", "deque", "OD")
}

func TestExceptNameBinds(t *testing.T) {
	source := "try:\n    risky()\nexcept ValueError as exc:\n    log(exc)\n"
	report := Walk(mustParse(t, source))
	if !report.Defined.Has("exc") {
		t.Error("except name not bound")
	}
	assertSet(t, Missing(mustParse(t, source)), "risky", "log")
}

func TestForAndWithTargets(t *testing.T) {
	source := "for i in items:\n    use(i)\nwith open(path) as fh:\n    fh.read()\n"
	report := Walk(mustParse(t, source))
	assertSet(t, report.Defined, "i", "fh")
	assertSet(t, report.Used, "items", "use", "i", "open", "path", "fh")
}

func TestLambdaParamsStayLocal(t *testing.T) {
	report := Walk(mustParse(t, "key = lambda pair: pair[idx]"))
	if report.Used.Has("pair") {
		t.Error("lambda parameter leaked as a use")
	}
	if !report.Used.Has("idx") {
		t.Error("lambda free variable lost")
	}
}

func TestClassifyAssignTargets(t *testing.T) {
	mod := mustParse(t, "a, (b, c) = value")
	c := Classify(mod.Body[0])
	assertSet(t, c.BindingNames(), "a", "b", "c")
	assertSet(t, c.Uses, "value")
}

func TestClassifyDoesNotDescendBodies(t *testing.T) {
	mod := mustParse(t, "def f(x):\n    inner = x\n")
	c := Classify(mod.Body[0])
	assertSet(t, c.BindingNames(), "f", "x")
	if c.Uses.Has("inner") {
		t.Error("classifier descended into the function body")
	}
}

func TestUnusedCandidatesTopLevelOnly(t *testing.T) {
	source := "stale = 1\nfresh = 2\ndef f():\n    inner = 3\nprint(fresh)\n"
	got := UnusedCandidates(mustParse(t, source), NewSet("stale", "inner", "fresh"))
	assertSet(t, got, "stale", "fresh")
}

func TestUnusedReport(t *testing.T) {
	unused := Unused(mustParse(t, "a = 1\nb = 2\nprint(a)"))
	assertSet(t, unused, "b")
}

func TestDelDiscardsBinding(t *testing.T) {
	report := Walk(mustParse(t, "tmp = load()\ndel tmp"))
	if report.Defined.Has("tmp") {
		t.Error("del did not discard the binding")
	}
}

func TestSetOperations(t *testing.T) {
	s := NewSet("a", "b", "c")
	got := s.Diff(NewSet("b"), NewSet("c"))
	assertSet(t, got, "a")
	assertSet(t, s.Intersect(NewSet("b", "z")), "b")
	sorted := NewSet("z", "a", "m").Sorted()
	if sorted[0] != "a" || sorted[1] != "m" || sorted[2] != "z" {
		t.Errorf("Sorted() = %v", sorted)
	}
}
