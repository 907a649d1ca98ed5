package analysis

import (
	"pymend/internal/syntax"
)

// Report is the aggregate result of one full-tree traversal. Used and
// Defined are computed independently; a name may appear in both. The one
// carve-out is comprehension locals, which contribute to neither set.
type Report struct {
	Used    Set
	Defined Set
}

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
	scopeComprehension
)

// scope is one lexical region on the walker's stack. Bindings never
// propagate outward; on pop, uses of names not locally bound merge into the
// parent as free variables.
type scope struct {
	kind      scopeKind
	parent    *scope
	defined   Set
	used      Set
	globals   Set
	nonlocals Set
}

func newScope(kind scopeKind, parent *scope) *scope {
	return &scope{
		kind:      kind,
		parent:    parent,
		defined:   make(Set),
		used:      make(Set),
		globals:   make(Set),
		nonlocals: make(Set),
	}
}

// bindScope resolves where a binding for name lands, honoring global and
// nonlocal declarations in the current function body.
func (s *scope) bindScope(name string) *scope {
	if s.globals.Has(name) {
		top := s
		for top.parent != nil {
			top = top.parent
		}
		return top
	}
	if s.nonlocals.Has(name) {
		for outer := s.parent; outer != nil; outer = outer.parent {
			if outer.kind == scopeFunction {
				return outer
			}
		}
	}
	return s
}

func (s *scope) bind(name string) {
	if name == "" {
		return
	}
	s.bindScope(name).defined.Add(name)
}

func (s *scope) use(name string) {
	if name != "" {
		s.used.Add(name)
	}
}

// walker carries the traversal accumulator; it is created per Walk call so
// the package stays reentrant.
type walker struct {
	report Report
}

// Walk traverses the full tree and returns the aggregate variable report.
// Deterministic: output is set-valued, so traversal order affects nothing.
func Walk(mod *syntax.Module) Report {
	w := &walker{report: Report{Used: make(Set), Defined: make(Set)}}
	sc := newScope(scopeModule, nil)
	for _, stmt := range mod.Body {
		w.stmt(stmt, sc)
	}
	w.pop(sc)
	return w.report
}

func (w *walker) pop(sc *scope) {
	if sc.kind != scopeComprehension {
		w.report.Defined.AddAll(sc.defined)
		w.report.Used.AddAll(sc.used)
	}
	if sc.parent == nil {
		return
	}
	for name := range sc.used {
		if !sc.defined.Has(name) {
			sc.parent.used.Add(name)
		}
	}
}

func (w *walker) stmt(s syntax.Stmt, sc *scope) {
	switch s := s.(type) {
	case *syntax.Assign:
		w.expr(s.Value, sc)
		for _, target := range s.Targets {
			w.bindTarget(target, sc)
		}
	case *syntax.AugAssign:
		if name, ok := s.Target.(*syntax.Name); ok {
			sc.use(name.ID)
			sc.bind(name.ID)
		} else {
			w.expr(s.Target, sc)
		}
		w.expr(s.Value, sc)
	case *syntax.AnnAssign:
		w.expr(s.Annotation, sc)
		w.expr(s.Value, sc)
		w.bindTarget(s.Target, sc)
	case *syntax.ExprStmt:
		w.expr(s.Value, sc)
	case *syntax.Import:
		for _, alias := range s.Names {
			sc.bind(alias.Bound())
		}
	case *syntax.ImportFrom:
		for _, alias := range s.Names {
			sc.bind(alias.Bound())
		}
	case *syntax.FunctionDef:
		w.functionDef(s, sc)
	case *syntax.ClassDef:
		w.classDef(s, sc)
	case *syntax.For:
		w.expr(s.Iter, sc)
		w.bindTarget(s.Target, sc)
		w.stmts(s.Body, sc)
		w.stmts(s.Else, sc)
	case *syntax.While:
		w.expr(s.Cond, sc)
		w.stmts(s.Body, sc)
		w.stmts(s.Else, sc)
	case *syntax.If:
		w.expr(s.Cond, sc)
		w.stmts(s.Body, sc)
		w.stmts(s.Else, sc)
	case *syntax.With:
		for _, item := range s.Items {
			w.expr(item.Context, sc)
			if item.Target != nil {
				w.bindTarget(item.Target, sc)
			}
		}
		w.stmts(s.Body, sc)
	case *syntax.Try:
		w.stmts(s.Body, sc)
		for _, handler := range s.Handlers {
			w.expr(handler.Type, sc)
			sc.bind(handler.Name)
			w.stmts(handler.Body, sc)
		}
		w.stmts(s.Else, sc)
		w.stmts(s.Final, sc)
	case *syntax.Return:
		w.expr(s.Value, sc)
	case *syntax.Raise:
		w.expr(s.Exc, sc)
		w.expr(s.From, sc)
	case *syntax.Global:
		for _, name := range s.Names {
			sc.globals.Add(name)
		}
	case *syntax.Nonlocal:
		for _, name := range s.Names {
			sc.nonlocals.Add(name)
		}
	case *syntax.Delete:
		for _, target := range s.Targets {
			if name, ok := target.(*syntax.Name); ok {
				delete(sc.defined, name.ID)
				continue
			}
			w.expr(target, sc)
		}
	case *syntax.Assert:
		w.expr(s.Test, sc)
		w.expr(s.Msg, sc)
	case *syntax.RawStmt:
		for _, name := range s.Names {
			sc.use(name)
		}
	}
}

func (w *walker) stmts(body []syntax.Stmt, sc *scope) {
	for _, s := range body {
		w.stmt(s, sc)
	}
}

// bindTarget binds the leaf names of an assignment-like target; attribute
// and subscript bases are uses, never new bindings.
func (w *walker) bindTarget(target syntax.Expr, sc *scope) {
	switch t := target.(type) {
	case nil:
	case *syntax.Name:
		sc.bind(t.ID)
	case *syntax.TupleExpr:
		for _, elt := range t.Elts {
			w.bindTarget(elt, sc)
		}
	case *syntax.ListExpr:
		for _, elt := range t.Elts {
			w.bindTarget(elt, sc)
		}
	case *syntax.Starred:
		w.bindTarget(t.Value, sc)
	case *syntax.Paren:
		w.bindTarget(t.Value, sc)
	case *syntax.Attribute:
		w.expr(t.Value, sc)
	case *syntax.Subscript:
		w.expr(t.Value, sc)
		w.expr(t.Index, sc)
	default:
		w.expr(target, sc)
	}
}

func (w *walker) functionDef(s *syntax.FunctionDef, sc *scope) {
	// Name binds in the enclosing scope; decorators, defaults, annotations
	// and the return annotation are evaluated there too.
	for _, dec := range s.Decorators {
		w.expr(dec, sc)
	}
	for _, param := range s.Params {
		w.expr(param.Annotation, sc)
		w.expr(param.Default, sc)
	}
	w.expr(s.Returns, sc)
	sc.bind(s.Name)

	inner := newScope(scopeFunction, sc)
	for _, param := range s.Params {
		if param.Name != "" && param.Name != "/" {
			inner.bind(param.Name)
		}
	}
	w.stmts(s.Body, inner)
	w.pop(inner)
}

func (w *walker) classDef(s *syntax.ClassDef, sc *scope) {
	for _, dec := range s.Decorators {
		w.expr(dec, sc)
	}
	for _, b := range s.Bases {
		w.expr(b, sc)
	}
	sc.bind(s.Name)

	inner := newScope(scopeClass, sc)
	w.stmts(s.Body, inner)
	w.pop(inner)
}

func (w *walker) expr(e syntax.Expr, sc *scope) {
	switch e := e.(type) {
	case nil:
	case *syntax.Name:
		sc.use(e.ID)
	case *syntax.Literal:
	case *syntax.FString:
		for _, interp := range e.Interps {
			w.expr(interp, sc)
		}
	case *syntax.Attribute:
		w.expr(e.Value, sc)
	case *syntax.Subscript:
		w.expr(e.Value, sc)
		w.expr(e.Index, sc)
	case *syntax.Call:
		w.expr(e.Func, sc)
		for _, arg := range e.Args {
			w.expr(arg, sc)
		}
	case *syntax.Keyword:
		w.expr(e.Value, sc)
	case *syntax.Starred:
		w.expr(e.Value, sc)
	case *syntax.BinOp:
		w.expr(e.Left, sc)
		w.expr(e.Right, sc)
	case *syntax.Compare:
		w.expr(e.Left, sc)
		for _, right := range e.Rights {
			w.expr(right, sc)
		}
	case *syntax.UnaryOp:
		w.expr(e.Value, sc)
	case *syntax.Cond:
		w.expr(e.Body, sc)
		w.expr(e.Test, sc)
		w.expr(e.Else, sc)
	case *syntax.Lambda:
		for _, param := range e.Params {
			w.expr(param.Annotation, sc)
			w.expr(param.Default, sc)
		}
		inner := newScope(scopeFunction, sc)
		for _, param := range e.Params {
			if param.Name != "" && param.Name != "/" {
				inner.bind(param.Name)
			}
		}
		w.expr(e.Body, inner)
		w.pop(inner)
	case *syntax.Walrus:
		w.expr(e.Value, sc)
		if e.Target != nil {
			// Walrus skips comprehension scopes and binds in the nearest
			// function or module scope.
			target := sc
			for target.kind == scopeComprehension && target.parent != nil {
				target = target.parent
			}
			target.bind(e.Target.ID)
		}
	case *syntax.TupleExpr:
		for _, elt := range e.Elts {
			w.expr(elt, sc)
		}
	case *syntax.ListExpr:
		for _, elt := range e.Elts {
			w.expr(elt, sc)
		}
	case *syntax.SetExpr:
		for _, elt := range e.Elts {
			w.expr(elt, sc)
		}
	case *syntax.DictExpr:
		for _, item := range e.Items {
			w.expr(item.Key, sc)
			w.expr(item.Value, sc)
		}
	case *syntax.Comp:
		w.comp(e, sc)
	case *syntax.Paren:
		w.expr(e.Value, sc)
	case *syntax.RawExpr:
		for _, name := range e.Names {
			sc.use(name)
		}
	}
}

// comp walks a comprehension in its own scope. The outermost iterable is
// evaluated in the enclosing scope; loop targets stay local and are dropped
// on pop, so they leak into neither the parent scope nor the report.
func (w *walker) comp(e *syntax.Comp, sc *scope) {
	if len(e.Clauses) > 0 {
		w.expr(e.Clauses[0].Iter, sc)
	}

	inner := newScope(scopeComprehension, sc)
	for i, clause := range e.Clauses {
		w.bindTarget(clause.Target, inner)
		if i > 0 {
			w.expr(clause.Iter, inner)
		}
		for _, cond := range clause.Ifs {
			w.expr(cond, inner)
		}
	}
	w.expr(e.Key, inner)
	w.expr(e.Elt, inner)
	w.pop(inner)
}
