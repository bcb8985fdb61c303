package pyast

import "pythia/pkg/source"

// Convenience constructors for building fixture trees in tests. Each takes
// no span; use WithSpan to pin one when a test asserts on positions.

func NewName(id string) *Name               { return &Name{ID: id} }
func NewInt(v int64) *IntLit                { return &IntLit{Value: v} }
func NewFloat(v float64) *FloatLit          { return &FloatLit{Value: v} }
func NewStr(v string) *StrLit               { return &StrLit{Value: v} }
func NewBytes(v []byte) *BytesLit           { return &BytesLit{Value: v} }
func NewBool(v bool) *BoolLit               { return &BoolLit{Value: v} }
func NewNone() *NoneLit                     { return &NoneLit{} }
func NewTuple(elts ...Expr) *TupleExpr      { return &TupleExpr{Elts: elts} }
func NewAttr(v Expr, attr string) *Attribute {
	return &Attribute{Value: v, Attr: attr}
}

func NewCall(fn Expr, args ...Expr) *Call { return &Call{Func: fn, Args: args} }

func NewSubscript(v Expr, index ...Expr) *Subscript {
	if len(index) == 1 {
		return &Subscript{Value: v, Index: index[0]}
	}
	return &Subscript{Value: v, Index: NewTuple(index...)}
}

func NewImport(module, as string) *Import { return &Import{Module: module, As: as} }

func NewFromImport(module, name, as string) *Import {
	return &Import{Module: module, Name: name, As: as}
}

func NewCallKw(fn Expr, args []Expr, kws ...Keyword) *Call {
	return &Call{Func: fn, Args: args, Keywords: kws}
}

func NewBinOp(left Expr, op BinOpKind, right Expr) *BinOp {
	return &BinOp{Left: left, Op: op, Right: right}
}

func NewUnaryOp(op UnaryOpKind, operand Expr) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

func NewCompare(left Expr, op CmpOpKind, right Expr) *Compare {
	return &Compare{Left: left, Ops: []CmpOpKind{op}, Comparators: []Expr{right}}
}

func NewBoolOp(op BoolOpKind, values ...Expr) *BoolOp {
	return &BoolOp{Op: op, Values: values}
}

func NewStarred(v Expr) *Starred { return &Starred{Value: v} }

func NewModule(body ...Stmt) *Module      { return &Module{Body: body} }
func NewExprStmt(v Expr) *ExprStmt        { return &ExprStmt{Value: v} }
func NewPass() *Pass                      { return &Pass{} }

func NewAssign(target string, value Expr) *Assign {
	return &Assign{Target: target, Value: value}
}

func NewAnnAssign(target string, ann, value Expr) *Assign {
	return &Assign{Target: target, Annotation: ann, Value: value}
}

func NewIf(test Expr, body, orelse []Stmt) *If {
	return &If{Test: test, Body: body, Orelse: orelse}
}

func NewWhile(test Expr, body, orelse []Stmt) *While {
	return &While{Test: test, Body: body, Orelse: orelse}
}

func NewMatch(subject Expr, cases ...MatchCase) *Match {
	return &Match{Subject: subject, Cases: cases}
}

// WithSpan returns the expression with its span set. Only the concrete node
// kinds built by this package are supported.
func WithSpan(e Expr, sp source.Span) Expr {
	switch n := e.(type) {
	case *Name:
		n.Pos = sp
	case *IntLit:
		n.Pos = sp
	case *FloatLit:
		n.Pos = sp
	case *StrLit:
		n.Pos = sp
	case *BytesLit:
		n.Pos = sp
	case *BoolLit:
		n.Pos = sp
	case *NoneLit:
		n.Pos = sp
	case *TupleExpr:
		n.Pos = sp
	case *Attribute:
		n.Pos = sp
	case *Subscript:
		n.Pos = sp
	case *Starred:
		n.Pos = sp
	case *Call:
		n.Pos = sp
	case *BinOp:
		n.Pos = sp
	case *UnaryOp:
		n.Pos = sp
	case *Compare:
		n.Pos = sp
	case *BoolOp:
		n.Pos = sp
	}
	return e
}
