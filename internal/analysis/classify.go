package analysis

import (
	"pymend/internal/syntax"
)

// BindKind says which grammar production introduced a binding.
type BindKind int

const (
	BindAssignment BindKind = iota
	BindParameter
	BindImportAlias
	BindForTarget
	BindWithTarget
	BindExceptName
	BindComprehensionTarget
	BindWalrus
	BindGlobalDecl
	BindNonlocalDecl
)

// BindingEvent is one name introduced by a node.
type BindingEvent struct {
	Name string
	Kind BindKind
	Node syntax.Node
}

// UseEvent is one name read by a node.
type UseEvent struct {
	Name string
	Node syntax.Node
}

// Classification is the per-node answer of the binding classifier: which
// names the node introduces and which it reads. Nested statement bodies are
// not descended; nested expressions are.
type Classification struct {
	Bindings []BindingEvent
	Uses     Set
}

// BindingNames returns the bound names as a set.
func (c Classification) BindingNames() Set {
	out := make(Set, len(c.Bindings))
	for _, b := range c.Bindings {
		out.Add(b.Name)
	}
	return out
}

// Classify decides whether one node introduces bindings, uses, both or
// neither. Statement bodies are the scope walker's concern; everything at
// expression depth (including walrus targets) is resolved here.
func Classify(node syntax.Node) Classification {
	c := &Classification{Uses: make(Set)}
	switch n := node.(type) {
	case *syntax.Assign:
		for _, target := range n.Targets {
			classifyTarget(c, target, BindAssignment)
		}
		scanExpr(c, n.Value)
	case *syntax.AugAssign:
		// Read-modify-write: a bare-name target is both use and binding.
		if name, ok := n.Target.(*syntax.Name); ok {
			c.Uses.Add(name.ID)
			c.bind(name.ID, BindAssignment, n)
		} else {
			scanExpr(c, n.Target)
		}
		scanExpr(c, n.Value)
	case *syntax.AnnAssign:
		classifyTarget(c, n.Target, BindAssignment)
		scanExpr(c, n.Annotation)
		scanExpr(c, n.Value)
	case *syntax.ExprStmt:
		scanExpr(c, n.Value)
	case *syntax.Import:
		for _, alias := range n.Names {
			c.bind(alias.Bound(), BindImportAlias, n)
		}
	case *syntax.ImportFrom:
		for _, alias := range n.Names {
			c.bind(alias.Bound(), BindImportAlias, n)
		}
	case *syntax.FunctionDef:
		c.bind(n.Name, BindAssignment, n)
		for _, param := range n.Params {
			if param.Name != "" && param.Name != "/" {
				c.bind(param.Name, BindParameter, n)
			}
			scanExpr(c, param.Annotation)
			scanExpr(c, param.Default)
		}
		scanExpr(c, n.Returns)
		for _, dec := range n.Decorators {
			scanExpr(c, dec)
		}
	case *syntax.ClassDef:
		c.bind(n.Name, BindAssignment, n)
		for _, b := range n.Bases {
			scanExpr(c, b)
		}
		for _, dec := range n.Decorators {
			scanExpr(c, dec)
		}
	case *syntax.For:
		classifyTarget(c, n.Target, BindForTarget)
		scanExpr(c, n.Iter)
	case *syntax.With:
		for _, item := range n.Items {
			scanExpr(c, item.Context)
			if item.Target != nil {
				classifyTarget(c, item.Target, BindWithTarget)
			}
		}
	case *syntax.Global:
		for _, name := range n.Names {
			c.bind(name, BindGlobalDecl, n)
		}
	case *syntax.Nonlocal:
		for _, name := range n.Names {
			c.bind(name, BindNonlocalDecl, n)
		}
	case *syntax.Return:
		scanExpr(c, n.Value)
	case *syntax.Raise:
		scanExpr(c, n.Exc)
		scanExpr(c, n.From)
	case *syntax.Delete:
		for _, target := range n.Targets {
			scanExpr(c, target)
		}
	case *syntax.Assert:
		scanExpr(c, n.Test)
		scanExpr(c, n.Msg)
	case *syntax.RawStmt:
		// Unhandled constructs: no binding, all contained identifiers used.
		for _, name := range n.Names {
			c.Uses.Add(name)
		}
	case syntax.Expr:
		scanExpr(c, n)
	}
	return *c
}

func (c *Classification) bind(name string, kind BindKind, node syntax.Node) {
	if name == "" {
		return
	}
	c.Bindings = append(c.Bindings, BindingEvent{Name: name, Kind: kind, Node: node})
}

// classifyTarget splits an assignment target into bindings and uses: only
// bare names (and names nested in tuple/list/starred targets) bind; the base
// of an attribute or subscript target is read, never bound.
func classifyTarget(c *Classification, target syntax.Expr, kind BindKind) {
	switch t := target.(type) {
	case nil:
	case *syntax.Name:
		c.bind(t.ID, kind, t)
	case *syntax.TupleExpr:
		for _, elt := range t.Elts {
			classifyTarget(c, elt, kind)
		}
	case *syntax.ListExpr:
		for _, elt := range t.Elts {
			classifyTarget(c, elt, kind)
		}
	case *syntax.Starred:
		classifyTarget(c, t.Value, kind)
	case *syntax.Paren:
		classifyTarget(c, t.Value, kind)
	case *syntax.Attribute:
		scanExpr(c, t.Value)
	case *syntax.Subscript:
		scanExpr(c, t.Value)
		scanExpr(c, t.Index)
	default:
		scanExpr(c, target)
	}
}

// TargetNames returns the leaf binding names of an assignment target.
func TargetNames(target syntax.Expr) []string {
	c := &Classification{Uses: make(Set)}
	classifyTarget(c, target, BindAssignment)
	names := make([]string, 0, len(c.Bindings))
	for _, b := range c.Bindings {
		names = append(names, b.Name)
	}
	return names
}

// scanExpr records the free names an expression reads, resolving the
// scope-free cases of comprehensions, lambdas and walrus targets locally.
func scanExpr(c *Classification, e syntax.Expr) {
	switch e := e.(type) {
	case nil:
	case *syntax.Name:
		c.Uses.Add(e.ID)
	case *syntax.Literal:
	case *syntax.FString:
		for _, interp := range e.Interps {
			scanExpr(c, interp)
		}
	case *syntax.Attribute:
		scanExpr(c, e.Value)
	case *syntax.Subscript:
		scanExpr(c, e.Value)
		scanExpr(c, e.Index)
	case *syntax.Call:
		scanExpr(c, e.Func)
		for _, arg := range e.Args {
			scanExpr(c, arg)
		}
	case *syntax.Keyword:
		scanExpr(c, e.Value)
	case *syntax.Starred:
		scanExpr(c, e.Value)
	case *syntax.BinOp:
		scanExpr(c, e.Left)
		scanExpr(c, e.Right)
	case *syntax.Compare:
		scanExpr(c, e.Left)
		for _, right := range e.Rights {
			scanExpr(c, right)
		}
	case *syntax.UnaryOp:
		scanExpr(c, e.Value)
	case *syntax.Cond:
		scanExpr(c, e.Body)
		scanExpr(c, e.Test)
		scanExpr(c, e.Else)
	case *syntax.Lambda:
		inner := &Classification{Uses: make(Set)}
		scanExpr(inner, e.Body)
		params := make(Set)
		for _, param := range e.Params {
			if param.Name != "" && param.Name != "/" {
				params.Add(param.Name)
			}
			scanExpr(c, param.Default)
			scanExpr(c, param.Annotation)
		}
		c.Uses.AddAll(inner.Uses.Diff(params))
		c.Bindings = append(c.Bindings, inner.Bindings...)
	case *syntax.Walrus:
		// Walrus binds in the nearest function or module scope.
		if e.Target != nil {
			c.bind(e.Target.ID, BindWalrus, e)
		}
		scanExpr(c, e.Value)
	case *syntax.TupleExpr:
		for _, elt := range e.Elts {
			scanExpr(c, elt)
		}
	case *syntax.ListExpr:
		for _, elt := range e.Elts {
			scanExpr(c, elt)
		}
	case *syntax.SetExpr:
		for _, elt := range e.Elts {
			scanExpr(c, elt)
		}
	case *syntax.DictExpr:
		for _, item := range e.Items {
			scanExpr(c, item.Key)
			scanExpr(c, item.Value)
		}
	case *syntax.Comp:
		scanComp(c, e)
	case *syntax.Paren:
		scanExpr(c, e.Value)
	case *syntax.RawExpr:
		for _, name := range e.Names {
			c.Uses.Add(name)
		}
	}
}

// scanComp resolves a comprehension without a scope stack: loop targets are
// local and do not escape; the outermost iterable is evaluated in the
// enclosing scope; walrus bindings do escape.
func scanComp(c *Classification, e *syntax.Comp) {
	if len(e.Clauses) > 0 {
		scanExpr(c, e.Clauses[0].Iter)
	}

	inner := &Classification{Uses: make(Set)}
	locals := make(Set)
	for i, clause := range e.Clauses {
		for _, name := range TargetNames(clause.Target) {
			locals.Add(name)
		}
		if i > 0 {
			scanExpr(inner, clause.Iter)
		}
		for _, cond := range clause.Ifs {
			scanExpr(inner, cond)
		}
	}
	scanExpr(inner, e.Key)
	scanExpr(inner, e.Elt)

	c.Uses.AddAll(inner.Uses.Diff(locals))
	c.Bindings = append(c.Bindings, inner.Bindings...)
}
