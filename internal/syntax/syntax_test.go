package syntax

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, source string) *Module {
	t.Helper()
	mod, err := ParseString(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return mod
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, err := ParseString("def broken(:\n")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if !IsSyntaxError(err) {
		t.Errorf("error not classified as syntax error: %v", err)
	}
}

func TestParseEmptySource(t *testing.T) {
	mod := mustParse(t, "")
	if len(mod.Body) != 0 {
		t.Errorf("empty source produced %d statements", len(mod.Body))
	}
}

func TestAssignChain(t *testing.T) {
	mod := mustParse(t, "a = b = value")
	assign, ok := mod.Body[0].(*Assign)
	if !ok {
		t.Fatalf("statement is %T", mod.Body[0])
	}
	if len(assign.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(assign.Targets))
	}
	if Print(mod) != "a = b = value\n" {
		t.Errorf("printed %q", Print(mod))
	}
}

func TestElifChain(t *testing.T) {
	source := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	got := Print(mustParse(t, source))
	if got != source {
		t.Errorf("elif chain not preserved:\n%q\nwant\n%q", got, source)
	}
}

func TestRelativeImportLevels(t *testing.T) {
	mod := mustParse(t, "from ..pkg.sub import thing\n")
	imp, ok := mod.Body[0].(*ImportFrom)
	if !ok {
		t.Fatalf("statement is %T", mod.Body[0])
	}
	if imp.Level != 2 || imp.Module != "pkg.sub" {
		t.Errorf("level=%d module=%q", imp.Level, imp.Module)
	}
	if Print(mod) != "from ..pkg.sub import thing\n" {
		t.Errorf("printed %q", Print(mod))
	}
}

func TestAliasBound(t *testing.T) {
	cases := []struct {
		alias Alias
		want  string
	}{
		{Alias{Name: "os.path"}, "os"},
		{Alias{Name: "numpy", AsName: "np"}, "np"},
		{Alias{Name: "json"}, "json"},
	}
	for _, c := range cases {
		if got := c.alias.Bound(); got != c.want {
			t.Errorf("Bound(%+v) = %q, want %q", c.alias, got, c.want)
		}
	}
}

func TestRoundTripSampler(t *testing.T) {
	// Print need not preserve the original bytes; it must converge after one
	// pass and keep reparsing cleanly.
	samples := []string{
		"x = 5\ny = 10\nz = x + y\n",
		"def f(a, b=2, *args, sep: str = ',', **kw) -> int:\n    return a\n",
		"async def g():\n    async with open(p) as fh:\n        await fh.read()\n",
		"class C(Base, metaclass=Meta):\n    attr: int = 0\n    def m(self):\n        return self.attr\n",
		"for i, v in enumerate(xs):\n    print(i)\nelse:\n    done()\n",
		"try:\n    risky()\nexcept (ValueError, KeyError) as e:\n    handle(e)\nfinally:\n    close()\n",
		"result = [a * b for a in xs for b in ys if a != b]\n",
		"data = {k: v for k, v in pairs}\n",
		"total = sum(n for n in nums)\n",
		"if (x := probe()) is not None:\n    use(x)\n",
		"values = *head, *tail\n",
		"f(*args, **kwargs, key=1)\n",
		"message = f\"got {count} items\"\n",
		"x = -1 if flag else ~mask\n",
		"del a, b\nassert cond, 'boom'\nraise Err('x') from cause\n",
		"global g\nnonlocal_holder = lambda: g\n",
		"while not done:\n    break\n",
		"import os, sys\nfrom . import sibling\n",
		"matrix[i][j] += offset\n",
	}
	for _, sample := range samples {
		first, err := ParseString(sample)
		if err != nil {
			t.Errorf("sample does not parse: %v\n%s", err, sample)
			continue
		}
		once := Print(first)
		second, err := ParseString(once)
		if err != nil {
			t.Errorf("printed output does not reparse: %v\n%s", err, once)
			continue
		}
		twice := Print(second)
		if once != twice {
			t.Errorf("print did not converge:\n--- once\n%s--- twice\n%s", once, twice)
		}
	}
}

func TestUnknownConstructFallsBackRaw(t *testing.T) {
	// match statements are not modeled; they must survive as raw text with
	// their identifiers captured.
	source := "match command:\n    case 'go':\n        run()\n"
	mod := mustParse(t, source)
	if len(mod.Body) == 0 {
		t.Fatal("no statements")
	}
	raw, ok := mod.Body[0].(*RawStmt)
	if !ok {
		t.Fatalf("statement is %T, want RawStmt", mod.Body[0])
	}
	found := false
	for _, name := range raw.Names {
		if name == "command" {
			found = true
		}
	}
	if !found {
		t.Errorf("raw statement lost identifier: %v", raw.Names)
	}
	out := Print(mod)
	if _, err := ParseString(out); err != nil {
		t.Errorf("raw passthrough does not reparse: %v\n%s", err, out)
	}
}

func TestParseExpr(t *testing.T) {
	e, err := ParseExpr("run(db, 1)")
	if err != nil {
		t.Fatalf("parse expr: %v", err)
	}
	call, ok := e.(*Call)
	if !ok {
		t.Fatalf("expression is %T", e)
	}
	if name, ok := call.Func.(*Name); !ok || name.ID != "run" {
		t.Errorf("callee = %#v", call.Func)
	}
	if len(call.Args) != 2 {
		t.Errorf("args = %d", len(call.Args))
	}

	if _, err := ParseExpr("x = 1"); err == nil {
		t.Error("statement accepted as expression")
	}
}

func TestPrintEmptyBodiesGetPass(t *testing.T) {
	mod := &Module{Body: []Stmt{&FunctionDef{Name: "f"}}}
	got := Print(mod)
	if !strings.Contains(got, "def f():\n    pass\n") {
		t.Errorf("printed %q", got)
	}
}

func TestPositionTracking(t *testing.T) {
	mod := mustParse(t, "x = 1\ny = 2\n")
	if p := mod.Body[1].Pos(); p.Line != 2 || p.Column != 1 {
		t.Errorf("position = %+v", p)
	}
}

func TestParserPoolReuse(t *testing.T) {
	for i := 0; i < 8; i++ {
		if _, err := ParseString("x = 1\n"); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
}
