// Package pyast defines the expression and statement nodes the inference
// engine consumes. Parsing is an external collaborator: the engine only
// needs node kinds, operator symbols, operand sub-expressions, and source
// spans. The constructors here let tests build trees directly.
package pyast

import (
	"pythia/pkg/source"
)

// Node is implemented by every syntax node.
type Node interface {
	Span() source.Span
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

type base struct {
	Pos source.Span
}

func (b base) Span() source.Span { return b.Pos }

// --- Expressions ---

// Name is an identifier reference.
type Name struct {
	base
	ID string
}

// IntLit is an integer literal.
type IntLit struct {
	base
	Value int64
}

// FloatLit is a floating point literal.
type FloatLit struct {
	base
	Value float64
}

// StrLit is a string literal.
type StrLit struct {
	base
	Value string
}

// BytesLit is a bytes literal.
type BytesLit struct {
	base
	Value []byte
}

// BoolLit is True or False.
type BoolLit struct {
	base
	Value bool
}

// NoneLit is the None constant.
type NoneLit struct {
	base
}

// TupleExpr is a tuple display.
type TupleExpr struct {
	base
	Elts []Expr
}

// Attribute is a `value.attr` access.
type Attribute struct {
	base
	Value Expr
	Attr  string
}

// Keyword is a keyword argument in a call. An empty Name means `**value`.
type Keyword struct {
	Name  string
	Value Expr
}

// Starred wraps a `*value` splat in a call's positional arguments.
type Starred struct {
	base
	Value Expr
}

// Call is a function/method/constructor call.
type Call struct {
	base
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Subscript is `value[index]`; in annotation position it spells generic
// specializations like `tuple[int, str]` and `Literal[3]`.
type Subscript struct {
	base
	Value Expr
	Index Expr // a TupleExpr for multi-argument subscripts
}

// BinOpKind enumerates binary operators.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mult
	Div
	FloorDiv
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	MatMult
)

var binOpSymbols = [...]string{"+", "-", "*", "/", "//", "%", "**", "<<", ">>", "|", "^", "&", "@"}

// Symbol returns the operator's source spelling.
func (k BinOpKind) Symbol() string { return binOpSymbols[k] }

// BinOp is a binary operator application.
type BinOp struct {
	base
	Left  Expr
	Op    BinOpKind
	Right Expr
}

// UnaryOpKind enumerates unary operators.
type UnaryOpKind int

const (
	UAdd UnaryOpKind = iota
	USub
	Invert
	Not
)

var unaryOpSymbols = [...]string{"+", "-", "~", "not"}

func (k UnaryOpKind) Symbol() string { return unaryOpSymbols[k] }

// UnaryOp is a unary operator application.
type UnaryOp struct {
	base
	Op      UnaryOpKind
	Operand Expr
}

// CmpOpKind enumerates comparison operators.
type CmpOpKind int

const (
	Eq CmpOpKind = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOpSymbols = [...]string{"==", "!=", "<", "<=", ">", ">=", "is", "is not", "in", "not in"}

func (k CmpOpKind) Symbol() string { return cmpOpSymbols[k] }

// Compare is a (possibly chained) comparison.
type Compare struct {
	base
	Left        Expr
	Ops         []CmpOpKind
	Comparators []Expr
}

// BoolOpKind is `and` or `or`.
type BoolOpKind int

const (
	And BoolOpKind = iota
	Or
)

// BoolOp is a short-circuiting boolean expression with two or more operands.
type BoolOp struct {
	base
	Op     BoolOpKind
	Values []Expr
}

func (*Name) exprNode()      {}
func (*Subscript) exprNode() {}
func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StrLit) exprNode()    {}
func (*BytesLit) exprNode()  {}
func (*BoolLit) exprNode()   {}
func (*NoneLit) exprNode()   {}
func (*TupleExpr) exprNode() {}
func (*Attribute) exprNode() {}
func (*Starred) exprNode()   {}
func (*Call) exprNode()      {}
func (*BinOp) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*Compare) exprNode()   {}
func (*BoolOp) exprNode()    {}

// --- Statements ---

// Module is the root of a checked file.
type Module struct {
	base
	Body []Stmt
}

// ExprStmt is an expression evaluated for effect (including reveal_type and
// static_assert calls).
type ExprStmt struct {
	base
	Value Expr
}

// Assign binds the value's inferred type to a name, with an optional declared
// annotation.
type Assign struct {
	base
	Target     string
	Annotation Expr // nil when unannotated
	Value      Expr
}

// If is a conditional with an optional else branch. elif chains are nested
// If nodes in Orelse.
type If struct {
	base
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// While is a loop with an optional else branch.
type While struct {
	base
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// MatchCase is one case arm of a match statement.
type MatchCase struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    []Stmt
}

// Match is a structural pattern match statement.
type Match struct {
	base
	Subject Expr
	Cases   []MatchCase
}

// Import binds a module (or one of its names) in the current scope:
// `import mod`, `import mod as alias`, or `from mod import name`.
type Import struct {
	base
	Module string
	Name   string // empty for a whole-module import
	As     string // empty to bind under Module/Name
}

// Pass does nothing; useful in fixture bodies.
type Pass struct {
	base
}

func (*Module) stmtNode()   {}
func (*Import) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*Assign) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Match) stmtNode()    {}
func (*Pass) stmtNode()     {}

// --- Patterns ---

// Pattern is a match-case pattern.
type Pattern interface {
	patternNode()
}

// ClassPattern matches instances of a class, like `case C():`.
type ClassPattern struct {
	Class Expr
}

// ValuePattern matches a literal value, like `case 3:` or `case "x":`.
type ValuePattern struct {
	Value Expr
}

// CapturePattern matches anything, like `case _:` or `case other:`.
type CapturePattern struct {
	Name string // "_" for a wildcard
}

func (*ClassPattern) patternNode()   {}
func (*ValuePattern) patternNode()   {}
func (*CapturePattern) patternNode() {}
