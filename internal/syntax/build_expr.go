package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func (b *builder) expr(node *sitter.Node) Expr {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier", "keyword_identifier":
		return &Name{base: b.pos(node), ID: b.text(node)}
	case "integer", "float", "true", "false", "none", "ellipsis":
		return &Literal{base: b.pos(node), Text: b.text(node)}
	case "string":
		return b.stringExpr(node)
	case "attribute":
		return &Attribute{
			base:  b.pos(node),
			Value: b.expr(node.ChildByFieldName("object")),
			Attr:  b.text(node.ChildByFieldName("attribute")),
		}
	case "subscript":
		return b.subscript(node)
	case "call":
		return b.call(node)
	case "binary_operator", "boolean_operator":
		return &BinOp{
			base:  b.pos(node),
			Left:  b.expr(node.ChildByFieldName("left")),
			Op:    b.text(node.ChildByFieldName("operator")),
			Right: b.expr(node.ChildByFieldName("right")),
		}
	case "comparison_operator":
		return b.comparison(node)
	case "not_operator":
		return &UnaryOp{base: b.pos(node), Op: "not", Value: b.expr(node.ChildByFieldName("argument"))}
	case "unary_operator":
		return &UnaryOp{
			base:  b.pos(node),
			Op:    b.text(node.ChildByFieldName("operator")),
			Value: b.expr(node.ChildByFieldName("argument")),
		}
	case "await":
		return &UnaryOp{base: b.pos(node), Op: "await", Value: b.expr(b.firstNamedChild(node))}
	case "conditional_expression":
		return b.conditional(node)
	case "lambda":
		return &Lambda{
			base:   b.pos(node),
			Params: b.parameters(node.ChildByFieldName("parameters")),
			Body:   b.expr(node.ChildByFieldName("body")),
		}
	case "named_expression":
		return b.namedExpr(node)
	case "tuple":
		return &TupleExpr{base: b.pos(node), Elts: b.namedChildExprs(node), Parens: true}
	case "expression_list", "pattern_list":
		return &TupleExpr{base: b.pos(node), Elts: b.namedChildExprs(node)}
	case "tuple_pattern":
		return &TupleExpr{base: b.pos(node), Elts: b.namedChildExprs(node), Parens: true}
	case "list", "list_pattern":
		return &ListExpr{base: b.pos(node), Elts: b.namedChildExprs(node)}
	case "set":
		return &SetExpr{base: b.pos(node), Elts: b.namedChildExprs(node)}
	case "dictionary":
		return b.dictionary(node)
	case "list_comprehension":
		return b.comprehension(node, ListComp)
	case "set_comprehension":
		return b.comprehension(node, SetComp)
	case "dictionary_comprehension":
		return b.comprehension(node, DictComp)
	case "generator_expression":
		return b.comprehension(node, GenExp)
	case "parenthesized_expression":
		return &Paren{base: b.pos(node), Value: b.expr(b.firstNamedChild(node))}
	case "list_splat", "list_splat_pattern":
		return &Starred{base: b.pos(node), Value: b.expr(b.firstNamedChild(node))}
	case "dictionary_splat", "dictionary_splat_pattern":
		return &Starred{base: b.pos(node), Value: b.expr(b.firstNamedChild(node)), Double: true}
	case "keyword_argument":
		return &Keyword{
			base:  b.pos(node),
			Name:  b.text(node.ChildByFieldName("name")),
			Value: b.expr(node.ChildByFieldName("value")),
		}
	}
	return b.rawExpr(node)
}

func (b *builder) rawExpr(node *sitter.Node) *RawExpr {
	return &RawExpr{base: b.pos(node), Text: b.text(node), Names: b.identifiers(node)}
}

func (b *builder) namedChildExprs(node *sitter.Node) []Expr {
	var out []Expr
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() && child.Kind() != "comment" {
			out = append(out, b.expr(child))
		}
	}
	return out
}

// stringExpr keeps plain strings verbatim and splits out f-string
// interpolations, whose expressions read names like any other expression.
func (b *builder) stringExpr(node *sitter.Node) Expr {
	var interps []Expr
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child.Kind() == "interpolation" {
				if expr := child.ChildByFieldName("expression"); expr != nil {
					interps = append(interps, b.expr(expr))
				} else if expr := b.firstNamedChild(child); expr != nil {
					interps = append(interps, b.expr(expr))
				}
				continue
			}
			collect(child)
		}
	}
	collect(node)

	if len(interps) == 0 {
		return &Literal{base: b.pos(node), Text: b.text(node)}
	}
	return &FString{base: b.pos(node), Text: b.text(node), Interps: interps}
}

func (b *builder) subscript(node *sitter.Node) Expr {
	value := node.ChildByFieldName("value")
	sub := &Subscript{base: b.pos(node), Value: b.expr(value)}

	var indexNodes []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if value != nil && child.StartByte() == value.StartByte() {
			continue
		}
		indexNodes = append(indexNodes, child)
	}

	if len(indexNodes) == 1 && indexNodes[0].Kind() != "slice" {
		sub.Index = b.expr(indexNodes[0])
		return sub
	}

	// Slices and multi-index subscripts stay verbatim.
	text := b.text(node)
	if value != nil {
		text = string(b.source[value.EndByte():node.EndByte()])
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	var names []string
	seen := make(map[string]bool)
	for _, idx := range indexNodes {
		for _, name := range b.identifiers(idx) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sub.Index = &RawExpr{base: b.pos(node), Text: text, Names: names}
	return sub
}

func (b *builder) call(node *sitter.Node) Expr {
	out := &Call{base: b.pos(node), Func: b.expr(node.ChildByFieldName("function"))}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return out
	}
	if args.Kind() == "generator_expression" {
		out.Args = []Expr{b.comprehension(args, GenExp)}
		return out
	}
	out.Args = b.callArgs(args)
	return out
}

func (b *builder) callArgs(argList *sitter.Node) []Expr {
	var out []Expr
	for i := uint(0); i < argList.ChildCount(); i++ {
		child := argList.Child(i)
		if child.IsNamed() && child.Kind() != "comment" {
			out = append(out, b.expr(child))
		}
	}
	return out
}

// comparison rebuilds a possibly chained comparison; the operator tokens are
// anonymous children between the operands ("not in" arrives as two tokens).
func (b *builder) comparison(node *sitter.Node) Expr {
	out := &Compare{base: b.pos(node)}
	var opParts []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "comment" {
			continue
		}
		if !child.IsNamed() {
			opParts = append(opParts, b.text(child))
			continue
		}
		if out.Left == nil {
			out.Left = b.expr(child)
			continue
		}
		out.Ops = append(out.Ops, strings.Join(opParts, " "))
		opParts = nil
		out.Rights = append(out.Rights, b.expr(child))
	}
	return out
}

func (b *builder) conditional(node *sitter.Node) Expr {
	out := &Cond{base: b.pos(node)}
	slot := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		switch slot {
		case 0:
			out.Body = b.expr(child)
		case 1:
			out.Test = b.expr(child)
		case 2:
			out.Else = b.expr(child)
		}
		slot++
	}
	return out
}

func (b *builder) namedExpr(node *sitter.Node) Expr {
	out := &Walrus{base: b.pos(node), Value: b.expr(node.ChildByFieldName("value"))}
	if name := node.ChildByFieldName("name"); name != nil {
		out.Target = &Name{base: b.pos(name), ID: b.text(name)}
	}
	return out
}

func (b *builder) dictionary(node *sitter.Node) Expr {
	out := &DictExpr{base: b.pos(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		switch child.Kind() {
		case "pair":
			out.Items = append(out.Items, DictItem{
				Key:   b.expr(child.ChildByFieldName("key")),
				Value: b.expr(child.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			out.Items = append(out.Items, DictItem{Value: b.expr(b.firstNamedChild(child))})
		}
	}
	return out
}

func (b *builder) comprehension(node *sitter.Node, kind CompKind) Expr {
	out := &Comp{base: b.pos(node), Kind: kind}

	if body := node.ChildByFieldName("body"); body != nil {
		if kind == DictComp && body.Kind() == "pair" {
			out.Key = b.expr(body.ChildByFieldName("key"))
			out.Elt = b.expr(body.ChildByFieldName("value"))
		} else {
			out.Elt = b.expr(body)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "for_in_clause":
			out.Clauses = append(out.Clauses, CompClause{
				Target: b.expr(child.ChildByFieldName("left")),
				Iter:   b.expr(child.ChildByFieldName("right")),
				Async:  b.hasKeyword(child, "async"),
			})
		case "if_clause":
			if len(out.Clauses) == 0 {
				continue
			}
			last := &out.Clauses[len(out.Clauses)-1]
			if cond := b.firstNamedChild(child); cond != nil {
				last.Ifs = append(last.Ifs, b.expr(cond))
			}
		}
	}
	return out
}
