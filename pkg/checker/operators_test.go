package checker

import (
	"context"
	"testing"

	"pythia/pkg/config"
	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

func newTestChecker(t *testing.T, opts ...Option) *Checker {
	t.Helper()
	return NewChecker(nil, opts...)
}

func expectType(t *testing.T, c *Checker, e pyast.Expr, want types.Type) {
	t.Helper()
	got := c.InferExpr(e)
	if !got.Equals(want) {
		t.Errorf("Expected %s, got %s", want.String(), got.String())
	}
}

func expectTag(t *testing.T, c *Checker, tag diag.Tag) {
	t.Helper()
	if len(c.Sink().ByTag(tag)) == 0 {
		t.Errorf("Expected a %s diagnostic, got %v", tag, c.Diagnostics())
	}
}

func expectNoTag(t *testing.T, c *Checker, tag diag.Tag) {
	t.Helper()
	if ds := c.Sink().ByTag(tag); len(ds) != 0 {
		t.Errorf("Expected no %s diagnostic, got %v", tag, ds)
	}
}

func TestLiteralIntArithmetic(t *testing.T) {
	c := newTestChecker(t)
	cases := []struct {
		op   pyast.BinOpKind
		l, r int64
		want types.Type
	}{
		{pyast.Add, 2, 3, types.NewIntLit(5)},
		{pyast.Sub, 2, 5, types.NewIntLit(-3)},
		{pyast.Mult, 4, 6, types.NewIntLit(24)},
		{pyast.FloorDiv, 7, 2, types.NewIntLit(3)},
		{pyast.FloorDiv, -7, 2, types.NewIntLit(-4)},
		{pyast.Mod, 7, 3, types.NewIntLit(1)},
		{pyast.Mod, -7, 3, types.NewIntLit(2)},
		{pyast.Mod, 7, -3, types.NewIntLit(-2)},
		{pyast.Pow, 2, 10, types.NewIntLit(1024)},
	}
	for _, tc := range cases {
		e := pyast.NewBinOp(pyast.NewInt(tc.l), tc.op, pyast.NewInt(tc.r))
		got := c.InferExpr(e)
		if !got.Equals(tc.want) {
			t.Errorf("%d %s %d = %s, want %s", tc.l, tc.op.Symbol(), tc.r, got.String(), tc.want.String())
		}
	}
}

func TestLiteralOverflowWidens(t *testing.T) {
	c := newTestChecker(t)
	big := int64(1) << 62
	e := pyast.NewBinOp(pyast.NewInt(big), pyast.Mult, pyast.NewInt(big))
	expectType(t, c, e, types.IntClass.Instance())
}

func TestNegativeExponentIsFloat(t *testing.T) {
	c := newTestChecker(t)
	e := pyast.NewBinOp(pyast.NewInt(2), pyast.Pow, pyast.NewUnaryOp(pyast.USub, pyast.NewInt(1)))
	expectType(t, c, e, types.FloatClass.Instance())
}

func TestBoolLiteralArithmetic(t *testing.T) {
	c := newTestChecker(t)

	// True + True computes through the int value of the bools.
	e := pyast.NewBinOp(pyast.NewBool(true), pyast.Add, pyast.NewBool(true))
	expectType(t, c, e, types.NewIntLit(2))

	// Bitwise on bools keeps the bool literal kind.
	e = pyast.NewBinOp(pyast.NewBool(true), pyast.BitOr, pyast.NewBool(false))
	expectType(t, c, e, types.NewBoolLit(true))

	e = pyast.NewBinOp(pyast.NewBool(true), pyast.BitAnd, pyast.NewBool(false))
	expectType(t, c, e, types.NewBoolLit(false))

	e = pyast.NewBinOp(pyast.NewBool(true), pyast.BitXor, pyast.NewBool(true))
	expectType(t, c, e, types.NewBoolLit(false))
}

func TestStringConcatAndRepeat(t *testing.T) {
	c := newTestChecker(t)

	e := pyast.NewBinOp(pyast.NewStr("ab"), pyast.Add, pyast.NewStr("cd"))
	expectType(t, c, e, types.NewStrLit("abcd"))

	e = pyast.NewBinOp(pyast.NewStr("ab"), pyast.Mult, pyast.NewInt(3))
	expectType(t, c, e, types.NewStrLit("ababab"))

	e = pyast.NewBinOp(pyast.NewInt(2), pyast.Mult, pyast.NewStr("xy"))
	expectType(t, c, e, types.NewStrLit("xyxy"))
}

func TestDivisionByZero(t *testing.T) {
	c := newTestChecker(t)
	e := pyast.NewBinOp(pyast.NewInt(1), pyast.Div, pyast.NewInt(0))
	c.InferExpr(e)
	expectTag(t, c, diag.DivisionByZero)

	c = newTestChecker(t)
	e = pyast.NewBinOp(pyast.NewInt(7), pyast.FloorDiv, pyast.NewInt(0))
	c.InferExpr(e)
	expectTag(t, c, diag.DivisionByZero)

	// A non-zero divisor is fine.
	c = newTestChecker(t)
	c.InferExpr(pyast.NewBinOp(pyast.NewInt(1), pyast.Div, pyast.NewInt(2)))
	expectNoTag(t, c, diag.DivisionByZero)
}

func TestDivisionByZeroSubclassExempt(t *testing.T) {
	// A subclass of int may redefine division, so only exact int and float
	// left operands are flagged.
	sub := types.NewClass("MyInt", []*types.Class{types.IntClass}, nil)
	c := newTestChecker(t)
	c.Scope().Define("x", sub.Instance())

	e := pyast.NewBinOp(pyast.NewName("x"), pyast.Div, pyast.NewInt(0))
	c.InferExpr(e)
	expectNoTag(t, c, diag.DivisionByZero)
}

func TestIntTrueDivIsFloat(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("a", types.IntClass.Instance())
	c.Scope().Define("b", types.IntClass.Instance())
	e := pyast.NewBinOp(pyast.NewName("a"), pyast.Div, pyast.NewName("b"))
	expectType(t, c, e, types.FloatClass.Instance())
}

func TestUnsupportedOperandReportsError(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("s", types.StrClass.Instance())
	c.Scope().Define("n", types.IntClass.Instance())
	e := pyast.NewBinOp(pyast.NewName("s"), pyast.Sub, pyast.NewName("n"))
	got := c.InferExpr(e)
	expectTag(t, c, diag.UnsupportedOperator)
	if !types.IsDynamic(got) {
		t.Errorf("Expected the failed operation to degrade to Unknown, got %s", got.String())
	}
}

func TestDunderDispatchCustomClass(t *testing.T) {
	a := types.NewClass("A", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__add__": &types.CallableType{
			Params: []types.Param{{Name: "other", Kind: types.PosOnly, Type: types.IntClass.Instance()}},
			Return: types.StrClass.Instance(),
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("a", a.Instance())

	e := pyast.NewBinOp(pyast.NewName("a"), pyast.Add, pyast.NewInt(1))
	expectType(t, c, e, types.StrClass.Instance())

	// An operand the dunder rejects behaves like NotImplemented.
	e = pyast.NewBinOp(pyast.NewName("a"), pyast.Add, pyast.NewStr("x"))
	c.InferExpr(e)
	expectTag(t, c, diag.UnsupportedOperator)
}

func TestReflectedFallback(t *testing.T) {
	b := types.NewClass("B", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__radd__": &types.CallableType{
			Params: []types.Param{{Name: "other", Kind: types.PosOnly, Type: types.IntClass.Instance()}},
			Return: types.BytesClass.Instance(),
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("b", b.Instance())

	// int has no __add__ accepting B, so B.__radd__ decides.
	e := pyast.NewBinOp(pyast.NewInt(1), pyast.Add, pyast.NewName("b"))
	expectType(t, c, e, types.BytesClass.Instance())
}

func TestSubtypeReflectedPrecedence(t *testing.T) {
	base := types.NewClass("Base", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__add__": &types.CallableType{
			Params: []types.Param{{Name: "other", Kind: types.PosOnly, Type: types.ObjectClass.Instance()}},
			Return: types.IntClass.Instance(),
		},
	})
	sub := types.NewClass("Sub", []*types.Class{base}, map[string]types.Type{
		"__radd__": &types.CallableType{
			Params: []types.Param{{Name: "other", Kind: types.PosOnly, Type: types.ObjectClass.Instance()}},
			Return: types.StrClass.Instance(),
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("base", base.Instance())
	c.Scope().Define("sub", sub.Instance())

	// The right operand's class is a proper subclass overriding the
	// reflected method, so it wins over Base.__add__.
	e := pyast.NewBinOp(pyast.NewName("base"), pyast.Add, pyast.NewName("sub"))
	expectType(t, c, e, types.StrClass.Instance())
}

func TestSameClassSkipsReflected(t *testing.T) {
	cls := types.NewClass("C", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__radd__": &types.CallableType{
			Params: []types.Param{{Name: "other", Kind: types.PosOnly, Type: types.ObjectClass.Instance()}},
			Return: types.StrClass.Instance(),
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("x", cls.Instance())
	c.Scope().Define("y", cls.Instance())

	// Identical classes never consult the reflected method.
	e := pyast.NewBinOp(pyast.NewName("x"), pyast.Add, pyast.NewName("y"))
	c.InferExpr(e)
	expectTag(t, c, diag.UnsupportedOperator)
}

func TestClassUnionSyntaxGatedOnVersion(t *testing.T) {
	// On a modern target `int | str` on class objects builds a runtime
	// union object.
	c := newTestChecker(t)
	e := pyast.NewBinOp(pyast.NewName("int"), pyast.BitOr, pyast.NewName("str"))
	expectType(t, c, e, types.UnionTypeClass.Instance())

	old, err := config.New("3.9", "linux")
	if err != nil {
		t.Fatalf("environment: %v", err)
	}
	c = NewChecker(old)
	c.InferExpr(pyast.NewBinOp(pyast.NewName("int"), pyast.BitOr, pyast.NewName("str")))
	expectTag(t, c, diag.UnsupportedOperator)
}

func TestUnaryOperators(t *testing.T) {
	c := newTestChecker(t)

	expectType(t, c, pyast.NewUnaryOp(pyast.USub, pyast.NewInt(3)), types.NewIntLit(-3))
	expectType(t, c, pyast.NewUnaryOp(pyast.UAdd, pyast.NewInt(3)), types.NewIntLit(3))
	expectType(t, c, pyast.NewUnaryOp(pyast.Invert, pyast.NewInt(0)), types.NewIntLit(-1))
	expectType(t, c, pyast.NewUnaryOp(pyast.Not, pyast.NewInt(0)), types.NewBoolLit(true))
	expectType(t, c, pyast.NewUnaryOp(pyast.Not, pyast.NewStr("x")), types.NewBoolLit(false))

	c.Scope().Define("n", types.IntClass.Instance())
	expectType(t, c, pyast.NewUnaryOp(pyast.Not, pyast.NewName("n")), types.BoolClass.Instance())
	expectType(t, c, pyast.NewUnaryOp(pyast.USub, pyast.NewName("n")), types.IntClass.Instance())
}

func TestUnionOperandDistributes(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("x", types.NewUnion(types.IntClass.Instance(), types.FloatClass.Instance()))
	e := pyast.NewBinOp(pyast.NewName("x"), pyast.Add, pyast.NewInt(1))
	expectType(t, c, e, types.NewUnion(types.IntClass.Instance(), types.FloatClass.Instance()))
}

func TestComparisonTypes(t *testing.T) {
	c := newTestChecker(t)

	expectType(t, c, pyast.NewCompare(pyast.NewInt(1), pyast.Lt, pyast.NewInt(2)), types.NewBoolLit(true))
	expectType(t, c, pyast.NewCompare(pyast.NewInt(3), pyast.Eq, pyast.NewInt(3)), types.NewBoolLit(true))
	expectType(t, c, pyast.NewCompare(pyast.NewInt(3), pyast.NotEq, pyast.NewInt(3)), types.NewBoolLit(false))

	c.Scope().Define("n", types.IntClass.Instance())
	expectType(t, c, pyast.NewCompare(pyast.NewName("n"), pyast.Eq, pyast.NewInt(3)), types.BoolClass.Instance())

	// Disjoint operands decide `is` statically.
	c.Scope().Define("s", types.StrClass.Instance())
	expectType(t, c, pyast.NewCompare(pyast.NewName("s"), pyast.Is, pyast.NewNone()), types.NewBoolLit(false))
}

func TestCancellationDiscardsPartialResults(t *testing.T) {
	c := newTestChecker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mod := pyast.NewModule(
		pyast.NewExprStmt(pyast.NewBinOp(pyast.NewInt(1), pyast.Div, pyast.NewInt(0))),
	)
	if _, err := c.CheckModule(ctx, mod); err == nil {
		t.Fatalf("Expected a cancellation error")
	}
	if len(c.Diagnostics()) != 0 {
		t.Errorf("Expected partial diagnostics to be discarded, got %v", c.Diagnostics())
	}
}
