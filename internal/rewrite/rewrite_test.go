package rewrite

import (
	"strings"
	"testing"

	"pymend/internal/analysis"
	"pymend/internal/errs"
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

func render(t *testing.T, mod *syntax.Module) string {
	t.Helper()
	out := syntax.Print(mod)
	if _, err := syntax.ParseString(out); err != nil {
		t.Fatalf("rewritten output does not reparse: %v\n%s", err, out)
	}
	return out
}

func TestDeleteBindingsSingleTarget(t *testing.T) {
	mod := mustParse(t, "stale = 1\nkeep = 2\n")
	got := render(t, DeleteBindings(mod, analysis.NewSet("stale")))
	if strings.Contains(got, "stale") {
		t.Errorf("stale binding survived:\n%s", got)
	}
	if !strings.Contains(got, "keep = 2") {
		t.Errorf("unrelated binding removed:\n%s", got)
	}
}

func TestDeleteBindingsPartialTargetSafety(t *testing.T) {
	source := "x, y = compute()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteBindings(mod, analysis.NewSet("x")))
	if !strings.Contains(got, "x, y = compute()") {
		t.Errorf("partially matching tuple assignment was modified:\n%s", got)
	}
}

func TestDeleteBindingsWholeTuple(t *testing.T) {
	mod := mustParse(t, "x, y = compute()\n")
	got := render(t, DeleteBindings(mod, analysis.NewSet("x", "y")))
	if strings.Contains(got, "compute") {
		t.Errorf("fully matching tuple assignment survived:\n%s", got)
	}
}

func TestDeleteBindingsSkipsAttributeTargets(t *testing.T) {
	source := "obj.x = 1\n"
	mod := mustParse(t, source)
	got := render(t, DeleteBindings(mod, analysis.NewSet("x", "obj")))
	if !strings.Contains(got, "obj.x = 1") {
		t.Errorf("attribute-target assignment was removed:\n%s", got)
	}
}

func TestDeleteBindingsInputUntouched(t *testing.T) {
	mod := mustParse(t, "stale = 1\n")
	DeleteBindings(mod, analysis.NewSet("stale"))
	if len(mod.Body) != 1 {
		t.Error("input tree was mutated")
	}
}

func TestDeleteDefinitions(t *testing.T) {
	mod := mustParse(t, "def old():\n    pass\nclass Gone:\n    pass\ndef kept():\n    pass\n")
	got := render(t, DeleteDefinitions(mod, analysis.NewSet("old", "Gone")))
	if strings.Contains(got, "old") || strings.Contains(got, "Gone") {
		t.Errorf("definition survived:\n%s", got)
	}
	if !strings.Contains(got, "def kept") {
		t.Errorf("unrelated definition removed:\n%s", got)
	}
}

func TestDeleteImportsByModule(t *testing.T) {
	source := "import os\nimport os.path\nfrom os import sep\nimport sys\n"
	mod := mustParse(t, source)
	got := render(t, DeleteImports(mod, "os"))
	if strings.Contains(got, "os") {
		t.Errorf("os import survived:\n%s", got)
	}
	if !strings.Contains(got, "import sys") {
		t.Errorf("unrelated import removed:\n%s", got)
	}
}

func TestDeleteImportsSplitsClauseList(t *testing.T) {
	mod := mustParse(t, "import os, sys\n")
	got := render(t, DeleteImports(mod, "os"))
	if !strings.Contains(got, "import sys") || strings.Contains(got, "os") {
		t.Errorf("clause list not narrowed:\n%s", got)
	}
}

func TestDeleteLocalImports(t *testing.T) {
	source := "import os\nfrom .util import helper\nfrom ..core import base\nfrom typing import Any\n"
	mod := mustParse(t, source)
	got := render(t, DeleteLocalImports(mod))
	if strings.Contains(got, "util") || strings.Contains(got, "core") {
		t.Errorf("relative import survived:\n%s", got)
	}
	if !strings.Contains(got, "import os") || !strings.Contains(got, "from typing import Any") {
		t.Errorf("absolute import removed:\n%s", got)
	}
}

func TestDeleteLocalImportsIdempotent(t *testing.T) {
	mod := mustParse(t, "from .util import helper\nvalue = helper()\n")
	once := syntax.Print(DeleteLocalImports(mod))
	again, err := syntax.ParseString(once)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	twice := syntax.Print(DeleteLocalImports(again))
	if once != twice {
		t.Errorf("not idempotent:\n%q\nvs\n%q", once, twice)
	}
}

func TestDeleteLocalImportsNested(t *testing.T) {
	source := "def f():\n    from .sibling import g\n    return g()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteLocalImports(mod))
	if strings.Contains(got, "sibling") {
		t.Errorf("nested relative import survived:\n%s", got)
	}
	// Dangling reference to g is expected; only the import goes away.
	if !strings.Contains(got, "return g()") {
		t.Errorf("call site was rewritten:\n%s", got)
	}
}

func TestDeleteFalseyBlocksLiteralFalse(t *testing.T) {
	source := "if False:\n    dead()\nlive()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteFalseyBlocks(mod))
	if strings.Contains(got, "dead") {
		t.Errorf("dead block survived:\n%s", got)
	}
	if !strings.Contains(got, "live()") {
		t.Errorf("live statement removed:\n%s", got)
	}
}

func TestDeleteFalseyBlocksTypeChecking(t *testing.T) {
	source := "if TYPE_CHECKING:\n    from .models import Model\nif typing.TYPE_CHECKING:\n    x = 1\nrun()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteFalseyBlocks(mod))
	if strings.Contains(got, "Model") || strings.Contains(got, "x = 1") {
		t.Errorf("type-checking guard survived:\n%s", got)
	}
}

func TestDeleteFalseyBlocksKeepsElse(t *testing.T) {
	source := "if False:\n    dead()\nelse:\n    alive()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteFalseyBlocks(mod))
	if strings.Contains(got, "dead") {
		t.Errorf("dead branch survived:\n%s", got)
	}
	if !strings.Contains(got, "alive()") {
		t.Errorf("else content lost:\n%s", got)
	}
	if strings.Contains(got, "if") {
		t.Errorf("guard statement survived:\n%s", got)
	}
}

func TestDeleteFalseyBlocksLeavesTruthyGuards(t *testing.T) {
	source := "if flag:\n    work()\n"
	mod := mustParse(t, source)
	got := render(t, DeleteFalseyBlocks(mod))
	if !strings.Contains(got, "if flag:") {
		t.Errorf("runtime guard was removed:\n%s", got)
	}
}

func TestDeleteFalseyBlocksEmptiedFunctionBody(t *testing.T) {
	source := "def f():\n    if False:\n        x = 1\n"
	mod := mustParse(t, source)
	got := render(t, DeleteFalseyBlocks(mod))
	if !strings.Contains(got, "pass") {
		t.Errorf("emptied body did not get a pass:\n%s", got)
	}
}

func TestParseCallSpec(t *testing.T) {
	spec := ParseCallSpec("main(db, 'x,y', f(1, 2))", nil)
	if spec.Name != "main" {
		t.Errorf("name = %q", spec.Name)
	}
	want := []string{"db", "'x,y'", "f(1, 2)"}
	if len(spec.Args) != len(want) {
		t.Fatalf("args = %v, want %v", spec.Args, want)
	}
	for i, arg := range want {
		if spec.Args[i] != arg {
			t.Errorf("arg[%d] = %q, want %q", i, spec.Args[i], arg)
		}
	}
}

func TestParseCallSpecDefaults(t *testing.T) {
	spec := ParseCallSpec("main", []string{"db"})
	if spec.Name != "main" || len(spec.Args) != 1 || spec.Args[0] != "db" {
		t.Errorf("spec = %+v", spec)
	}
	spec = ParseCallSpec("main()", []string{"db"})
	if len(spec.Args) != 1 || spec.Args[0] != "db" {
		t.Errorf("empty arg list should fall back to defaults: %+v", spec)
	}
}

func TestFindCallTarget(t *testing.T) {
	mod := mustParse(t, "def run(db):\n    pass\n")
	name, ok := FindCallTarget(mod, "run(db)")
	if !ok || name != "run" {
		t.Errorf("got %q, %v", name, ok)
	}
	if _, ok := FindCallTarget(mod, "absent()"); ok {
		t.Error("nonexistent target reported found")
	}
}

func TestInsertCallAfterDef(t *testing.T) {
	mod := mustParse(t, "def setup(db):\n    db.init()\nvalue = 1\n")
	out, err := InsertCallAfterDef(mod, CallSpec{Name: "setup", Args: []string{"db"}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := render(t, out)
	idx := strings.Index(got, "setup(db)\nvalue = 1")
	if idx < 0 {
		t.Errorf("call not inserted after definition:\n%s", got)
	}
}

func TestInsertCallAfterLastDefinition(t *testing.T) {
	source := "def job():\n    pass\nmark = 1\ndef job():\n    pass\n"
	mod := mustParse(t, source)
	out, err := InsertCallAfterDef(mod, CallSpec{Name: "job"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := render(t, out)
	// The call lands after the second definition, never the first. Match the
	// statement as a whole line so a "def job():" header cannot satisfy it.
	before, after, found := strings.Cut(got, "mark = 1")
	if !found {
		t.Fatalf("marker lost:\n%s", got)
	}
	if strings.Contains(before, "\njob()\n") {
		t.Errorf("call anchored to the first definition:\n%s", got)
	}
	if !strings.Contains(after, "\njob()\n") {
		t.Errorf("call missing after the last definition:\n%s", got)
	}
}

func TestInsertCallNotFound(t *testing.T) {
	mod := mustParse(t, "x = 1\n")
	_, err := InsertCallAfterDef(mod, CallSpec{Name: "ghost"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errs.IsCode(err, errs.CodeNotFound) {
		t.Errorf("error code = %v", err)
	}
}

func TestInsertCallNestedDefinition(t *testing.T) {
	source := "class Svc:\n    def handle(self):\n        pass\n"
	mod := mustParse(t, source)
	out, err := InsertCallAfterDef(mod, CallSpec{Name: "handle", Args: []string{"self"}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := render(t, out)
	if !strings.Contains(got, "        pass\n    handle(self)") {
		t.Errorf("call not inserted at the definition's block level:\n%s", got)
	}
}
