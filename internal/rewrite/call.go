package rewrite

import (
	"strings"

	"pymend/internal/errs"
	"pymend/internal/syntax"
)

// CallSpec is a parsed call expression, independent of any tree: a function
// name plus argument source-text fragments in order.
type CallSpec struct {
	Name string
	Args []string
}

// ParseCallSpec splits "name(arg1, arg2)" into name and literal argument
// fragments. Arguments are kept as source text, never evaluated. When the
// text has no parenthesized argument list, or an empty one, defaults are
// used verbatim.
func ParseCallSpec(text string, defaults []string) CallSpec {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return CallSpec{Name: text, Args: append([]string(nil), defaults...)}
	}
	name := strings.TrimSpace(text[:open])
	inner := text[open+1:]
	if close := strings.LastIndexByte(inner, ')'); close >= 0 {
		inner = inner[:close]
	}
	args := splitArgs(inner)
	if len(args) == 0 {
		args = append([]string(nil), defaults...)
	}
	return CallSpec{Name: name, Args: args}
}

// splitArgs splits on top-level commas, respecting bracket nesting and
// string quotes so "f(a, (b, c), 'x,y')" yields three fragments.
func splitArgs(text string) []string {
	var args []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == quote && (i == 0 || text[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = appendArg(args, text[start:i])
				start = i + 1
			}
		}
	}
	return appendArg(args, text[start:])
}

func appendArg(args []string, fragment string) []string {
	if fragment = strings.TrimSpace(fragment); fragment != "" {
		args = append(args, fragment)
	}
	return args
}

// Stmt renders the call spec as a statement ready for insertion. Argument
// fragments parse into real expressions when they can; anything else is
// carried verbatim.
func (c CallSpec) Stmt() syntax.Stmt {
	args := make([]syntax.Expr, 0, len(c.Args))
	for _, arg := range c.Args {
		if e, err := syntax.ParseExpr(arg); err == nil {
			args = append(args, e)
			continue
		}
		args = append(args, &syntax.RawExpr{Text: arg})
	}
	return &syntax.ExprStmt{Value: &syntax.Call{Func: &syntax.Name{ID: c.Name}, Args: args}}
}

// FindCallTarget resolves a hint, either a bare name or a full call
// expression, against the tree's function definitions at any depth. Returns
// the function name and whether a definition exists.
func FindCallTarget(mod *syntax.Module, hint string) (string, bool) {
	name := strings.TrimSpace(hint)
	if open := strings.IndexByte(name, '('); open >= 0 {
		name = strings.TrimSpace(name[:open])
	}
	if name == "" {
		return "", false
	}
	return name, lastDef(mod.Body, name) != nil
}

// InsertCallAfterDef inserts a statement invoking spec directly after the
// lexically last definition of spec.Name, at the definition's own block
// level. Returns a NOT_FOUND error when no definition matches; callers may
// probe several hints.
func InsertCallAfterDef(mod *syntax.Module, spec CallSpec) (*syntax.Module, error) {
	target := lastDef(mod.Body, spec.Name)
	if target == nil {
		return nil, errs.Newf(errs.CodeNotFound, "no function definition named %q", spec.Name)
	}
	body, _ := insertAfter(mod.Body, target, spec.Stmt())
	return &syntax.Module{Body: body}, nil
}

// lastDef returns the lexically final function definition with the given
// name, searching nested bodies too.
func lastDef(body []syntax.Stmt, name string) *syntax.FunctionDef {
	var found *syntax.FunctionDef
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.FunctionDef:
			if s.Name == name {
				found = s
			}
			if inner := lastDef(s.Body, name); inner != nil {
				found = inner
			}
		case *syntax.ClassDef:
			if inner := lastDef(s.Body, name); inner != nil {
				found = inner
			}
		case *syntax.For:
			found = pickLast(found, lastDef(s.Body, name), lastDef(s.Else, name))
		case *syntax.While:
			found = pickLast(found, lastDef(s.Body, name), lastDef(s.Else, name))
		case *syntax.If:
			found = pickLast(found, lastDef(s.Body, name), lastDef(s.Else, name))
		case *syntax.With:
			found = pickLast(found, lastDef(s.Body, name))
		case *syntax.Try:
			found = pickLast(found, lastDef(s.Body, name))
			for _, h := range s.Handlers {
				found = pickLast(found, lastDef(h.Body, name))
			}
			found = pickLast(found, lastDef(s.Else, name), lastDef(s.Final, name))
		}
	}
	return found
}

func pickLast(found *syntax.FunctionDef, candidates ...*syntax.FunctionDef) *syntax.FunctionDef {
	for _, c := range candidates {
		if c != nil {
			found = c
		}
	}
	return found
}

// insertAfter rebuilds the statement path containing target, appending call
// right after it in its own block.
func insertAfter(body []syntax.Stmt, target *syntax.FunctionDef, call syntax.Stmt) ([]syntax.Stmt, bool) {
	for i, stmt := range body {
		if stmt == syntax.Stmt(target) {
			out := make([]syntax.Stmt, 0, len(body)+1)
			out = append(out, body[:i+1]...)
			out = append(out, call)
			out = append(out, body[i+1:]...)
			return out, true
		}
		if replacement, ok := insertInChildren(stmt, target, call); ok {
			out := make([]syntax.Stmt, len(body))
			copy(out, body)
			out[i] = replacement
			return out, true
		}
	}
	return body, false
}

func insertInChildren(stmt syntax.Stmt, target *syntax.FunctionDef, call syntax.Stmt) (syntax.Stmt, bool) {
	switch s := stmt.(type) {
	case *syntax.FunctionDef:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
	case *syntax.ClassDef:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
	case *syntax.For:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
		if els, ok := insertAfter(s.Else, target, call); ok {
			c := *s
			c.Else = els
			return &c, true
		}
	case *syntax.While:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
		if els, ok := insertAfter(s.Else, target, call); ok {
			c := *s
			c.Else = els
			return &c, true
		}
	case *syntax.If:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
		if els, ok := insertAfter(s.Else, target, call); ok {
			c := *s
			c.Else = els
			return &c, true
		}
	case *syntax.With:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
	case *syntax.Try:
		if body, ok := insertAfter(s.Body, target, call); ok {
			c := *s
			c.Body = body
			return &c, true
		}
		for i, h := range s.Handlers {
			if body, ok := insertAfter(h.Body, target, call); ok {
				c := *s
				c.Handlers = make([]syntax.ExceptHandler, len(s.Handlers))
				copy(c.Handlers, s.Handlers)
				c.Handlers[i].Body = body
				return &c, true
			}
		}
		if els, ok := insertAfter(s.Else, target, call); ok {
			c := *s
			c.Else = els
			return &c, true
		}
		if fin, ok := insertAfter(s.Final, target, call); ok {
			c := *s
			c.Final = fin
			return &c, true
		}
	}
	return stmt, false
}
