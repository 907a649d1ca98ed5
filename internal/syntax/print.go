package syntax

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// Print renders a module back to source text. Output is deterministic and
// canonically spaced; it does not try to reproduce the original formatting
// byte for byte, only a tree that reparses to the same semantics.
func Print(mod *Module) string {
	p := &printer{}
	p.stmts(mod.Body, 0)
	return p.sb.String()
}

// PrintStmts renders a statement fragment at top level, e.g. a synthesized
// prelude to prepend to another module.
func PrintStmts(stmts []Stmt) string {
	p := &printer{}
	p.stmts(stmts, 0)
	return p.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) line(depth int, text string) {
	for i := 0; i < depth; i++ {
		p.sb.WriteString(indentUnit)
	}
	p.sb.WriteString(text)
	p.sb.WriteString("\n")
}

func (p *printer) stmts(body []Stmt, depth int) {
	if len(body) == 0 {
		p.line(depth, "pass")
		return
	}
	for _, s := range body {
		p.stmt(s, depth)
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	switch s := s.(type) {
	case *Assign:
		parts := make([]string, 0, len(s.Targets)+1)
		for _, t := range s.Targets {
			parts = append(parts, exprString(t))
		}
		parts = append(parts, exprString(s.Value))
		p.line(depth, strings.Join(parts, " = "))
	case *AugAssign:
		p.line(depth, fmt.Sprintf("%s %s %s", exprString(s.Target), s.Op, exprString(s.Value)))
	case *AnnAssign:
		text := exprString(s.Target) + ": " + exprString(s.Annotation)
		if s.Value != nil {
			text += " = " + exprString(s.Value)
		}
		p.line(depth, text)
	case *ExprStmt:
		p.line(depth, exprString(s.Value))
	case *Import:
		p.line(depth, "import "+aliasList(s.Names))
	case *ImportFrom:
		p.line(depth, importFromString(s))
	case *FunctionDef:
		p.functionDef(s, depth)
	case *ClassDef:
		p.classDef(s, depth)
	case *For:
		head := "for " + exprString(s.Target) + " in " + exprString(s.Iter) + ":"
		if s.Async {
			head = "async " + head
		}
		p.line(depth, head)
		p.stmts(s.Body, depth+1)
		if len(s.Else) > 0 {
			p.line(depth, "else:")
			p.stmts(s.Else, depth+1)
		}
	case *While:
		p.line(depth, "while "+exprString(s.Cond)+":")
		p.stmts(s.Body, depth+1)
		if len(s.Else) > 0 {
			p.line(depth, "else:")
			p.stmts(s.Else, depth+1)
		}
	case *If:
		p.ifChain(s, depth, "if")
	case *With:
		items := make([]string, 0, len(s.Items))
		for _, item := range s.Items {
			text := exprString(item.Context)
			if item.Target != nil {
				text += " as " + exprString(item.Target)
			}
			items = append(items, text)
		}
		head := "with " + strings.Join(items, ", ") + ":"
		if s.Async {
			head = "async " + head
		}
		p.line(depth, head)
		p.stmts(s.Body, depth+1)
	case *Try:
		p.line(depth, "try:")
		p.stmts(s.Body, depth+1)
		for _, h := range s.Handlers {
			head := "except"
			if h.Type != nil {
				head += " " + exprString(h.Type)
				if h.Name != "" {
					head += " as " + h.Name
				}
			}
			p.line(depth, head+":")
			p.stmts(h.Body, depth+1)
		}
		if len(s.Else) > 0 {
			p.line(depth, "else:")
			p.stmts(s.Else, depth+1)
		}
		if len(s.Final) > 0 {
			p.line(depth, "finally:")
			p.stmts(s.Final, depth+1)
		}
	case *Return:
		if s.Value != nil {
			p.line(depth, "return "+exprString(s.Value))
		} else {
			p.line(depth, "return")
		}
	case *Raise:
		text := "raise"
		if s.Exc != nil {
			text += " " + exprString(s.Exc)
			if s.From != nil {
				text += " from " + exprString(s.From)
			}
		}
		p.line(depth, text)
	case *Global:
		p.line(depth, "global "+strings.Join(s.Names, ", "))
	case *Nonlocal:
		p.line(depth, "nonlocal "+strings.Join(s.Names, ", "))
	case *Delete:
		targets := make([]string, 0, len(s.Targets))
		for _, t := range s.Targets {
			targets = append(targets, exprString(t))
		}
		p.line(depth, "del "+strings.Join(targets, ", "))
	case *Assert:
		text := "assert " + exprString(s.Test)
		if s.Msg != nil {
			text += ", " + exprString(s.Msg)
		}
		p.line(depth, text)
	case *Pass:
		p.line(depth, "pass")
	case *Break:
		p.line(depth, "break")
	case *Continue:
		p.line(depth, "continue")
	case *RawStmt:
		for _, raw := range strings.Split(s.Text, "\n") {
			p.line(depth, raw)
		}
	default:
		p.line(depth, "pass")
	}
}

// ifChain re-sugars nested else-if bodies into elif clauses.
func (p *printer) ifChain(s *If, depth int, keyword string) {
	p.line(depth, keyword+" "+exprString(s.Cond)+":")
	p.stmts(s.Body, depth+1)
	if len(s.Else) == 0 {
		return
	}
	if len(s.Else) == 1 {
		if next, ok := s.Else[0].(*If); ok {
			p.ifChain(next, depth, "elif")
			return
		}
	}
	p.line(depth, "else:")
	p.stmts(s.Else, depth+1)
}

func (p *printer) functionDef(s *FunctionDef, depth int) {
	for _, dec := range s.Decorators {
		p.line(depth, "@"+exprString(dec))
	}
	head := "def " + s.Name + "(" + paramList(s.Params) + ")"
	if s.Async {
		head = "async " + head
	}
	if s.Returns != nil {
		head += " -> " + exprString(s.Returns)
	}
	p.line(depth, head+":")
	p.stmts(s.Body, depth+1)
}

func (p *printer) classDef(s *ClassDef, depth int) {
	for _, dec := range s.Decorators {
		p.line(depth, "@"+exprString(dec))
	}
	head := "class " + s.Name
	if len(s.Bases) > 0 {
		bases := make([]string, 0, len(s.Bases))
		for _, bse := range s.Bases {
			bases = append(bases, exprString(bse))
		}
		head += "(" + strings.Join(bases, ", ") + ")"
	}
	p.line(depth, head+":")
	p.stmts(s.Body, depth+1)
}

func aliasList(names []Alias) string {
	parts := make([]string, 0, len(names))
	for _, a := range names {
		if a.AsName != "" {
			parts = append(parts, a.Name+" as "+a.AsName)
		} else {
			parts = append(parts, a.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func importFromString(s *ImportFrom) string {
	module := strings.Repeat(".", s.Level) + s.Module
	if s.Star {
		return "from " + module + " import *"
	}
	return "from " + module + " import " + aliasList(s.Names)
}

func paramList(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, param := range params {
		parts = append(parts, paramString(param))
	}
	return strings.Join(parts, ", ")
}

func paramString(param Param) string {
	text := param.Star + param.Name
	if param.Annotation != nil {
		text += ": " + exprString(param.Annotation)
	}
	if param.Default != nil {
		if param.Annotation != nil {
			text += " = " + exprString(param.Default)
		} else {
			text += "=" + exprString(param.Default)
		}
	}
	return text
}

func exprString(e Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *Name:
		return e.ID
	case *Literal:
		return e.Text
	case *FString:
		return e.Text
	case *Attribute:
		return exprString(e.Value) + "." + e.Attr
	case *Subscript:
		return exprString(e.Value) + "[" + exprString(e.Index) + "]"
	case *Call:
		args := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			args = append(args, exprString(arg))
		}
		return exprString(e.Func) + "(" + strings.Join(args, ", ") + ")"
	case *Keyword:
		return e.Name + "=" + exprString(e.Value)
	case *Starred:
		star := "*"
		if e.Double {
			star = "**"
		}
		return star + exprString(e.Value)
	case *BinOp:
		return exprString(e.Left) + " " + e.Op + " " + exprString(e.Right)
	case *Compare:
		text := exprString(e.Left)
		for i, op := range e.Ops {
			text += " " + op + " " + exprString(e.Rights[i])
		}
		return text
	case *UnaryOp:
		if e.Op == "not" || e.Op == "await" {
			return e.Op + " " + exprString(e.Value)
		}
		return e.Op + exprString(e.Value)
	case *Cond:
		return exprString(e.Body) + " if " + exprString(e.Test) + " else " + exprString(e.Else)
	case *Lambda:
		if len(e.Params) == 0 {
			return "lambda: " + exprString(e.Body)
		}
		return "lambda " + paramList(e.Params) + ": " + exprString(e.Body)
	case *Walrus:
		return exprString(e.Target) + " := " + exprString(e.Value)
	case *TupleExpr:
		elts := make([]string, 0, len(e.Elts))
		for _, elt := range e.Elts {
			elts = append(elts, exprString(elt))
		}
		inner := strings.Join(elts, ", ")
		if len(e.Elts) == 1 {
			inner += ","
		}
		if e.Parens {
			return "(" + inner + ")"
		}
		return inner
	case *ListExpr:
		return "[" + exprJoin(e.Elts) + "]"
	case *SetExpr:
		if len(e.Elts) == 0 {
			return "set()"
		}
		return "{" + exprJoin(e.Elts) + "}"
	case *DictExpr:
		items := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			if item.Key == nil {
				items = append(items, "**"+exprString(item.Value))
			} else {
				items = append(items, exprString(item.Key)+": "+exprString(item.Value))
			}
		}
		return "{" + strings.Join(items, ", ") + "}"
	case *Comp:
		return compString(e)
	case *Paren:
		return "(" + exprString(e.Value) + ")"
	case *RawExpr:
		return e.Text
	}
	return ""
}

func exprJoin(elts []Expr) string {
	parts := make([]string, 0, len(elts))
	for _, elt := range elts {
		parts = append(parts, exprString(elt))
	}
	return strings.Join(parts, ", ")
}

func compString(e *Comp) string {
	var body string
	if e.Kind == DictComp {
		body = exprString(e.Key) + ": " + exprString(e.Elt)
	} else {
		body = exprString(e.Elt)
	}

	var clauses strings.Builder
	for _, clause := range e.Clauses {
		if clause.Async {
			clauses.WriteString(" async")
		}
		clauses.WriteString(" for ")
		clauses.WriteString(exprString(clause.Target))
		clauses.WriteString(" in ")
		clauses.WriteString(exprString(clause.Iter))
		for _, cond := range clause.Ifs {
			clauses.WriteString(" if ")
			clauses.WriteString(exprString(cond))
		}
	}

	inner := body + clauses.String()
	switch e.Kind {
	case ListComp:
		return "[" + inner + "]"
	case SetComp:
		return "{" + inner + "}"
	case DictComp:
		return "{" + inner + "}"
	default:
		return "(" + inner + ")"
	}
}
