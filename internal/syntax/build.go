package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// builder converts a tree-sitter CST into the typed AST. Constructs outside
// the modeled grammar fall back to RawStmt/RawExpr so the result is total
// over every parseable input.
type builder struct {
	source []byte
}

func (b *builder) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(b.source[node.StartByte():node.EndByte()])
}

func (b *builder) pos(node *sitter.Node) base {
	return base{P: Position{
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}}
}

// identifiers collects every identifier leaf under node, deduplicated in
// source order.
func (b *builder) identifiers(node *sitter.Node) []string {
	var names []string
	seen := make(map[string]bool)
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" || n.Kind() == "keyword_identifier" {
			name := b.text(n)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			collect(n.Child(i))
		}
	}
	collect(node)
	return names
}

func (b *builder) module(root *sitter.Node) *Module {
	return &Module{base: b.pos(root), Body: b.body(root)}
}

// body builds the statement list of a module or block node.
func (b *builder) body(node *sitter.Node) []Stmt {
	var stmts []Stmt
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		stmts = append(stmts, b.stmt(child))
	}
	return stmts
}

func (b *builder) blockBody(node *sitter.Node) []Stmt {
	if node == nil {
		return nil
	}
	return b.body(node)
}

func (b *builder) stmt(node *sitter.Node) Stmt {
	switch node.Kind() {
	case "expression_statement":
		return b.exprStatement(node)
	case "import_statement":
		return b.importStmt(node)
	case "import_from_statement", "future_import_statement":
		return b.importFromStmt(node)
	case "function_definition":
		return b.functionDef(node, nil)
	case "class_definition":
		return b.classDef(node, nil)
	case "decorated_definition":
		return b.decoratedDef(node)
	case "if_statement":
		return b.ifStmt(node)
	case "for_statement":
		return b.forStmt(node)
	case "while_statement":
		return b.whileStmt(node)
	case "with_statement":
		return b.withStmt(node)
	case "try_statement":
		return b.tryStmt(node)
	case "return_statement":
		return b.returnStmt(node)
	case "raise_statement":
		return b.raiseStmt(node)
	case "global_statement":
		return &Global{base: b.pos(node), Names: b.identifiers(node)}
	case "nonlocal_statement":
		return &Nonlocal{base: b.pos(node), Names: b.identifiers(node)}
	case "delete_statement":
		return b.deleteStmt(node)
	case "assert_statement":
		return b.assertStmt(node)
	case "pass_statement":
		return &Pass{base: b.pos(node)}
	case "break_statement":
		return &Break{base: b.pos(node)}
	case "continue_statement":
		return &Continue{base: b.pos(node)}
	}
	return b.rawStmt(node)
}

// rawStmt captures an unmodeled statement verbatim, dedented to its own
// starting column so the printer can re-indent it.
func (b *builder) rawStmt(node *sitter.Node) *RawStmt {
	text := b.text(node)
	col := int(node.StartPosition().Column)
	if col > 0 && strings.Contains(text, "\n") {
		lines := strings.Split(text, "\n")
		for i := 1; i < len(lines); i++ {
			trimmed := lines[i]
			for j := 0; j < col && len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t'); j++ {
				trimmed = trimmed[1:]
			}
			lines[i] = trimmed
		}
		text = strings.Join(lines, "\n")
	}
	return &RawStmt{base: b.pos(node), Text: text, Names: b.identifiers(node)}
}

func (b *builder) exprStatement(node *sitter.Node) Stmt {
	var inner *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() && child.Kind() != "comment" {
			inner = child
			break
		}
	}
	if inner == nil {
		return b.rawStmt(node)
	}

	switch inner.Kind() {
	case "assignment":
		return b.assignment(inner)
	case "augmented_assignment":
		return &AugAssign{
			base:   b.pos(inner),
			Target: b.expr(inner.ChildByFieldName("left")),
			Op:     b.operatorText(inner),
			Value:  b.expr(inner.ChildByFieldName("right")),
		}
	}
	return &ExprStmt{base: b.pos(node), Value: b.expr(inner)}
}

// assignment handles plain, chained and annotated assignments; tree-sitter
// folds all three into one node kind.
func (b *builder) assignment(node *sitter.Node) Stmt {
	left := node.ChildByFieldName("left")
	typ := node.ChildByFieldName("type")
	right := node.ChildByFieldName("right")

	if typ != nil {
		var value Expr
		if right != nil {
			value = b.expr(right)
		}
		return &AnnAssign{
			base:       b.pos(node),
			Target:     b.expr(left),
			Annotation: b.typeExpr(typ),
			Value:      value,
		}
	}

	targets := []Expr{b.expr(left)}
	for right != nil && right.Kind() == "assignment" && right.ChildByFieldName("type") == nil {
		targets = append(targets, b.expr(right.ChildByFieldName("left")))
		right = right.ChildByFieldName("right")
	}
	var value Expr
	if right != nil {
		value = b.expr(right)
	}
	return &Assign{base: b.pos(node), Targets: targets, Value: value}
}

// operatorText returns the text of the anonymous operator token of an
// augmented assignment or similar node.
func (b *builder) operatorText(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return b.text(op)
	}
	return "="
}

func (b *builder) importStmt(node *sitter.Node) Stmt {
	imp := &Import{base: b.pos(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			imp.Names = append(imp.Names, Alias{Name: b.text(child)})
		case "aliased_import":
			imp.Names = append(imp.Names, b.aliasedImport(child))
		}
	}
	return imp
}

func (b *builder) aliasedImport(node *sitter.Node) Alias {
	return Alias{
		Name:   b.text(node.ChildByFieldName("name")),
		AsName: b.text(node.ChildByFieldName("alias")),
	}
}

func (b *builder) importFromStmt(node *sitter.Node) Stmt {
	imp := &ImportFrom{base: b.pos(node)}

	if mod := node.ChildByFieldName("module_name"); mod != nil {
		if mod.Kind() == "relative_import" {
			text := b.text(mod)
			trimmed := strings.TrimLeft(text, ".")
			imp.Level = len(text) - len(trimmed)
			imp.Module = trimmed
		} else {
			imp.Module = b.text(mod)
		}
	}

	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			if b.text(child) == "import" {
				seenImport = true
			}
			continue
		}
		if !seenImport {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			imp.Star = true
		case "dotted_name", "identifier":
			imp.Names = append(imp.Names, Alias{Name: b.text(child)})
		case "aliased_import":
			imp.Names = append(imp.Names, b.aliasedImport(child))
		}
	}
	return imp
}

func (b *builder) decoratedDef(node *sitter.Node) Stmt {
	var decorators []Expr
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "decorator":
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.IsNamed() && sub.Kind() != "comment" {
					decorators = append(decorators, b.expr(sub))
				}
			}
		case "function_definition":
			return b.functionDef(child, decorators)
		case "class_definition":
			return b.classDef(child, decorators)
		}
	}
	return b.rawStmt(node)
}

func (b *builder) functionDef(node *sitter.Node, decorators []Expr) Stmt {
	fn := &FunctionDef{
		base:       b.pos(node),
		Name:       b.text(node.ChildByFieldName("name")),
		Params:     b.parameters(node.ChildByFieldName("parameters")),
		Body:       b.blockBody(node.ChildByFieldName("body")),
		Decorators: decorators,
		Async:      b.hasKeyword(node, "async"),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = b.typeExpr(ret)
	}
	return fn
}

func (b *builder) classDef(node *sitter.Node, decorators []Expr) Stmt {
	cls := &ClassDef{
		base:       b.pos(node),
		Name:       b.text(node.ChildByFieldName("name")),
		Body:       b.blockBody(node.ChildByFieldName("body")),
		Decorators: decorators,
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		cls.Bases = b.callArgs(supers)
	}
	return cls
}

func (b *builder) hasKeyword(node *sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() && b.text(child) == keyword {
			return true
		}
	}
	return false
}

func (b *builder) parameters(node *sitter.Node) []Param {
	if node == nil {
		return nil
	}
	var params []Param
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "identifier", "keyword_identifier":
			params = append(params, Param{Name: b.text(child)})
		case "typed_parameter":
			p := Param{Annotation: b.typeExpr(child.ChildByFieldName("type"))}
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				switch sub.Kind() {
				case "identifier", "keyword_identifier":
					p.Name = b.text(sub)
				case "list_splat_pattern":
					p.Star = "*"
					p.Name = strings.TrimPrefix(b.text(sub), "*")
				case "dictionary_splat_pattern":
					p.Star = "**"
					p.Name = strings.TrimPrefix(b.text(sub), "**")
				}
			}
			params = append(params, p)
		case "default_parameter":
			params = append(params, Param{
				Name:    b.text(child.ChildByFieldName("name")),
				Default: b.expr(child.ChildByFieldName("value")),
			})
		case "typed_default_parameter":
			params = append(params, Param{
				Name:       b.text(child.ChildByFieldName("name")),
				Annotation: b.typeExpr(child.ChildByFieldName("type")),
				Default:    b.expr(child.ChildByFieldName("value")),
			})
		case "list_splat_pattern":
			params = append(params, Param{Star: "*", Name: strings.TrimPrefix(b.text(child), "*")})
		case "dictionary_splat_pattern":
			params = append(params, Param{Star: "**", Name: strings.TrimPrefix(b.text(child), "**")})
		case "positional_separator":
			params = append(params, Param{Name: "/"})
		case "keyword_separator":
			params = append(params, Param{Star: "*"})
		}
	}
	return params
}

// typeExpr unwraps the grammar's "type" wrapper around annotations.
func (b *builder) typeExpr(node *sitter.Node) Expr {
	if node == nil {
		return nil
	}
	if node.Kind() == "type" {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.IsNamed() && child.Kind() != "comment" {
				return b.expr(child)
			}
		}
	}
	return b.expr(node)
}

func (b *builder) ifStmt(node *sitter.Node) Stmt {
	out := &If{
		base: b.pos(node),
		Cond: b.expr(node.ChildByFieldName("condition")),
		Body: b.blockBody(node.ChildByFieldName("consequence")),
	}

	current := out
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "elif_clause":
			next := &If{
				base: b.pos(child),
				Cond: b.expr(child.ChildByFieldName("condition")),
				Body: b.blockBody(child.ChildByFieldName("consequence")),
			}
			current.Else = []Stmt{next}
			current = next
		case "else_clause":
			current.Else = b.blockBody(child.ChildByFieldName("body"))
		}
	}
	return out
}

func (b *builder) elseClauseBody(node *sitter.Node) []Stmt {
	if node == nil {
		return nil
	}
	return b.blockBody(node.ChildByFieldName("body"))
}

func (b *builder) forStmt(node *sitter.Node) Stmt {
	return &For{
		base:   b.pos(node),
		Target: b.expr(node.ChildByFieldName("left")),
		Iter:   b.expr(node.ChildByFieldName("right")),
		Body:   b.blockBody(node.ChildByFieldName("body")),
		Else:   b.elseClauseBody(node.ChildByFieldName("alternative")),
		Async:  b.hasKeyword(node, "async"),
	}
}

func (b *builder) whileStmt(node *sitter.Node) Stmt {
	return &While{
		base: b.pos(node),
		Cond: b.expr(node.ChildByFieldName("condition")),
		Body: b.blockBody(node.ChildByFieldName("body")),
		Else: b.elseClauseBody(node.ChildByFieldName("alternative")),
	}
}

func (b *builder) withStmt(node *sitter.Node) Stmt {
	out := &With{
		base:  b.pos(node),
		Body:  b.blockBody(node.ChildByFieldName("body")),
		Async: b.hasKeyword(node, "async"),
	}

	var collectItems func(n *sitter.Node)
	collectItems = func(n *sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			switch child.Kind() {
			case "with_clause":
				collectItems(child)
			case "with_item":
				out.Items = append(out.Items, b.withItem(child))
			}
		}
	}
	collectItems(node)
	return out
}

func (b *builder) withItem(node *sitter.Node) WithItem {
	value := node.ChildByFieldName("value")
	if value != nil && value.Kind() == "as_pattern" {
		item := WithItem{}
		if alias := value.ChildByFieldName("alias"); alias != nil {
			item.Target = b.asPatternTarget(alias)
		}
		for i := uint(0); i < value.ChildCount(); i++ {
			child := value.Child(i)
			if child.IsNamed() && child.Kind() != "as_pattern_target" {
				item.Context = b.expr(child)
				break
			}
		}
		return item
	}
	return WithItem{Context: b.expr(value)}
}

func (b *builder) asPatternTarget(node *sitter.Node) Expr {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			return b.expr(child)
		}
	}
	return b.expr(node)
}

func (b *builder) tryStmt(node *sitter.Node) Stmt {
	out := &Try{base: b.pos(node), Body: b.blockBody(node.ChildByFieldName("body"))}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "except_clause", "except_group_clause":
			out.Handlers = append(out.Handlers, b.exceptClause(child))
		case "else_clause":
			out.Else = b.elseClauseBody(child)
		case "finally_clause":
			for j := uint(0); j < child.ChildCount(); j++ {
				if child.Child(j).Kind() == "block" {
					out.Final = b.body(child.Child(j))
				}
			}
		}
	}
	return out
}

func (b *builder) exceptClause(node *sitter.Node) ExceptHandler {
	handler := ExceptHandler{}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "block":
			handler.Body = b.body(child)
		case "as_pattern":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				handler.Name = strings.TrimSpace(b.text(alias))
			}
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.IsNamed() && sub.Kind() != "as_pattern_target" {
					handler.Type = b.expr(sub)
					break
				}
			}
		case "comment":
		default:
			if handler.Type == nil {
				handler.Type = b.expr(child)
			}
		}
	}
	return handler
}

func (b *builder) returnStmt(node *sitter.Node) Stmt {
	out := &Return{base: b.pos(node)}
	if value := b.firstNamedChild(node); value != nil {
		out.Value = b.expr(value)
	}
	return out
}

func (b *builder) raiseStmt(node *sitter.Node) Stmt {
	out := &Raise{base: b.pos(node)}
	if cause := node.ChildByFieldName("cause"); cause != nil {
		out.From = b.expr(cause)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() && child.Kind() != "comment" {
			if cause := node.ChildByFieldName("cause"); cause == nil || child.StartByte() != cause.StartByte() {
				out.Exc = b.expr(child)
				break
			}
		}
	}
	return out
}

func (b *builder) deleteStmt(node *sitter.Node) Stmt {
	out := &Delete{base: b.pos(node)}
	target := b.firstNamedChild(node)
	if target == nil {
		return out
	}
	if target.Kind() == "expression_list" {
		for i := uint(0); i < target.ChildCount(); i++ {
			child := target.Child(i)
			if child.IsNamed() && child.Kind() != "comment" {
				out.Targets = append(out.Targets, b.expr(child))
			}
		}
		return out
	}
	out.Targets = append(out.Targets, b.expr(target))
	return out
}

func (b *builder) assertStmt(node *sitter.Node) Stmt {
	out := &Assert{base: b.pos(node)}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if out.Test == nil {
			out.Test = b.expr(child)
		} else {
			out.Msg = b.expr(child)
			break
		}
	}
	return out
}

func (b *builder) firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() && child.Kind() != "comment" {
			return child
		}
	}
	return nil
}
