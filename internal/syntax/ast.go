package syntax

// Position is a 1-based line/column source location.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every statement and expression.
type Node interface {
	Pos() Position
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

type base struct {
	P Position
}

func (b base) Pos() Position { return b.P }

// Module is the root of one parsed source unit. Rewrite operations return a
// new Module; callers must treat transformation outputs as new values.
type Module struct {
	base
	Body []Stmt
}

// Alias is one entry of an import statement: name, optional as-name.
type Alias struct {
	Name   string
	AsName string
}

// Bound returns the name the alias introduces into the scope. For a dotted
// module path without an alias that is the leading component.
func (a Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	if i := indexByte(a.Name, '.'); i >= 0 {
		return a.Name[:i]
	}
	return a.Name
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Param is one function or lambda parameter. Star is "", "*" or "**"; a
// Param with Star "*" and an empty Name is the bare keyword-only separator,
// and a Name of "/" marks the positional-only separator.
type Param struct {
	Name       string
	Annotation Expr
	Default    Expr
	Star       string
}

// WithItem is one "expr as target" clause of a with statement.
type WithItem struct {
	Context Expr
	Target  Expr
}

// ExceptHandler is one except clause. Name is empty for a bare handler.
type ExceptHandler struct {
	Type Expr
	Name string
	Body []Stmt
}

// DictItem is one key/value pair; a nil Key means a **mapping expansion.
type DictItem struct {
	Key   Expr
	Value Expr
}

// CompKind distinguishes the four comprehension forms.
type CompKind int

const (
	ListComp CompKind = iota
	SetComp
	DictComp
	GenExp
)

// CompClause is one "for target in iter" clause plus its trailing filters.
type CompClause struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}

// Statements.

type Assign struct {
	base
	Targets []Expr // chained targets of "a = b = value"
	Value   Expr
}

type AugAssign struct {
	base
	Target Expr
	Op     string // "+=", "-=", ...
	Value  Expr
}

type AnnAssign struct {
	base
	Target     Expr
	Annotation Expr
	Value      Expr // nil for a bare annotation
}

type ExprStmt struct {
	base
	Value Expr
}

type Import struct {
	base
	Names []Alias
}

type ImportFrom struct {
	base
	Module string // without leading dots
	Level  int    // number of leading dots; > 0 means relative
	Names  []Alias
	Star   bool
}

type FunctionDef struct {
	base
	Name       string
	Params     []Param
	Returns    Expr
	Body       []Stmt
	Decorators []Expr
	Async      bool
}

type ClassDef struct {
	base
	Name       string
	Bases      []Expr // includes keyword arguments such as metaclass=...
	Body       []Stmt
	Decorators []Expr
}

type For struct {
	base
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
	Async  bool
}

type While struct {
	base
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// If holds one if/elif/else chain; an elif is represented as an Else body
// containing exactly one nested If, which the printer re-sugars.
type If struct {
	base
	Cond Expr
	Body []Stmt
	Else []Stmt
}

type With struct {
	base
	Items []WithItem
	Body  []Stmt
	Async bool
}

type Try struct {
	base
	Body     []Stmt
	Handlers []ExceptHandler
	Else     []Stmt
	Final    []Stmt
}

type Return struct {
	base
	Value Expr // nil for a bare return
}

type Raise struct {
	base
	Exc  Expr // nil for a bare raise
	From Expr
}

type Global struct {
	base
	Names []string
}

type Nonlocal struct {
	base
	Names []string
}

type Delete struct {
	base
	Targets []Expr
}

type Assert struct {
	base
	Test Expr
	Msg  Expr
}

type Pass struct{ base }
type Break struct{ base }
type Continue struct{ base }

// RawStmt preserves a construct the builder does not model. Text is the
// verbatim source slice (which may span multiple lines of a block) and Names
// the identifiers it contains, so analysis stays total: no binding, all
// contained identifiers count as uses.
type RawStmt struct {
	base
	Text  string
	Names []string
}

func (*Assign) stmt()      {}
func (*AugAssign) stmt()   {}
func (*AnnAssign) stmt()   {}
func (*ExprStmt) stmt()    {}
func (*Import) stmt()      {}
func (*ImportFrom) stmt()  {}
func (*FunctionDef) stmt() {}
func (*ClassDef) stmt()    {}
func (*For) stmt()         {}
func (*While) stmt()       {}
func (*If) stmt()          {}
func (*With) stmt()        {}
func (*Try) stmt()         {}
func (*Return) stmt()      {}
func (*Raise) stmt()       {}
func (*Global) stmt()      {}
func (*Nonlocal) stmt()    {}
func (*Delete) stmt()      {}
func (*Assert) stmt()      {}
func (*Pass) stmt()        {}
func (*Break) stmt()       {}
func (*Continue) stmt()    {}
func (*RawStmt) stmt()     {}

// Expressions.

type Name struct {
	base
	ID string
}

// Literal covers numbers, plain strings, True/False/None and Ellipsis. Text
// is the verbatim source spelling.
type Literal struct {
	base
	Text string
}

// IsFalse reports whether the literal is the False constant.
func (l *Literal) IsFalse() bool { return l.Text == "False" }

// FString is a formatted string literal; Text is verbatim, Interps the
// embedded interpolation expressions (which read names).
type FString struct {
	base
	Text    string
	Interps []Expr
}

type Attribute struct {
	base
	Value Expr
	Attr  string
}

type Subscript struct {
	base
	Value Expr
	Index Expr
}

type Call struct {
	base
	Func Expr
	Args []Expr // positional, Starred, and Keyword entries in source order
}

// Keyword is a name=value argument inside a call.
type Keyword struct {
	base
	Name  string
	Value Expr
}

// Starred is *x (or **x when Double) in call arguments or targets.
type Starred struct {
	base
	Value  Expr
	Double bool
}

type BinOp struct {
	base
	Left  Expr
	Op    string // "+", "and", "or", ...
	Right Expr
}

// Compare holds a (possibly chained) comparison: Left Ops[0] Rights[0] ...
type Compare struct {
	base
	Left   Expr
	Ops    []string
	Rights []Expr
}

type UnaryOp struct {
	base
	Op    string // "-", "+", "~", "not"
	Value Expr
}

// Cond is the ternary "Body if Test else Else".
type Cond struct {
	base
	Body Expr
	Test Expr
	Else Expr
}

type Lambda struct {
	base
	Params []Param
	Body   Expr
}

// Walrus is the := inline assignment.
type Walrus struct {
	base
	Target *Name
	Value  Expr
}

type TupleExpr struct {
	base
	Elts   []Expr
	Parens bool
}

type ListExpr struct {
	base
	Elts []Expr
}

type SetExpr struct {
	base
	Elts []Expr
}

type DictExpr struct {
	base
	Items []DictItem
}

// Comp is any of the four comprehension forms. For DictComp, Key holds the
// key expression and Elt the value; otherwise Key is nil.
type Comp struct {
	base
	Kind    CompKind
	Key     Expr
	Elt     Expr
	Clauses []CompClause
}

// Paren preserves an explicit grouping.
type Paren struct {
	base
	Value Expr
}

// RawExpr preserves an unmodeled expression verbatim; see RawStmt.
type RawExpr struct {
	base
	Text  string
	Names []string
}

func (*Name) expr()      {}
func (*Literal) expr()   {}
func (*FString) expr()   {}
func (*Attribute) expr() {}
func (*Subscript) expr() {}
func (*Call) expr()      {}
func (*Keyword) expr()   {}
func (*Starred) expr()   {}
func (*BinOp) expr()     {}
func (*Compare) expr()   {}
func (*UnaryOp) expr()   {}
func (*Cond) expr()      {}
func (*Lambda) expr()    {}
func (*Walrus) expr()    {}
func (*TupleExpr) expr() {}
func (*ListExpr) expr()  {}
func (*SetExpr) expr()   {}
func (*DictExpr) expr()  {}
func (*Comp) expr()      {}
func (*Paren) expr()     {}
func (*RawExpr) expr()   {}
