package syntax

import (
	"errors"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pymend/internal/errs"
)

// Parse builds a Module from Python source text. Malformed input surfaces as
// a SYNTAX_ERROR immediately; no partial tree is returned.
func Parse(source []byte) (*Module, error) {
	sp := pythonPool.Get()
	defer pythonPool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errs.New(errs.CodeSyntaxError, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, errs.New(errs.CodeSyntaxError, "parse produced no root node")
	}
	if root.HasError() {
		pos := firstErrorPosition(root)
		return nil, errs.Newf(errs.CodeSyntaxError, "invalid syntax at line %d, column %d", pos.Line, pos.Column)
	}

	b := &builder{source: source}
	return b.module(root), nil
}

// ParseString is a convenience wrapper for string input.
func ParseString(source string) (*Module, error) {
	return Parse([]byte(source))
}

// IsSyntaxError reports whether err came from unparseable input.
func IsSyntaxError(err error) bool {
	return errs.IsCode(err, errs.CodeSyntaxError)
}

// ParseExpr parses a single expression, such as a call spec hint.
func ParseExpr(source string) (Expr, error) {
	mod, err := ParseString(source)
	if err != nil {
		return nil, err
	}
	if len(mod.Body) != 1 {
		return nil, errs.Newf(errs.CodeSyntaxError, "expected one expression, got %d statements", len(mod.Body))
	}
	es, ok := mod.Body[0].(*ExprStmt)
	if !ok {
		return nil, errors.New("not an expression")
	}
	return es.Value, nil
}

func firstErrorPosition(node *sitter.Node) Position {
	if node.IsError() || node.IsMissing() {
		return Position{
			Line:   int(node.StartPosition().Row) + 1,
			Column: int(node.StartPosition().Column) + 1,
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.HasError() {
			return firstErrorPosition(child)
		}
	}
	return Position{
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}
