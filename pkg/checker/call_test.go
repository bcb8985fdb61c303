package checker

import (
	"testing"

	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

func defineFn(c *Checker, name string, fn *types.CallableType) {
	c.Scope().Define(name, fn)
}

func TestCallBindsPositionalAndKeyword(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.IntClass.Instance()},
			{Name: "b", Kind: types.PosOrKw, Type: types.StrClass.Instance()},
		},
		Return: types.BytesClass.Instance(),
	})

	call := pyast.NewCallKw(pyast.NewName("f"),
		[]pyast.Expr{pyast.NewInt(1)},
		pyast.Keyword{Name: "b", Value: pyast.NewStr("x")})
	expectType(t, c, call, types.BytesClass.Instance())
	if c.Sink().HasErrors() {
		t.Errorf("Expected a clean call, got %v", c.Diagnostics())
	}
}

func TestCallMissingArgument(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.IntClass.Instance()},
			{Name: "b", Kind: types.PosOrKw, Type: types.StrClass.Instance()},
		},
		Return: types.None,
	})
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1)))
	expectTag(t, c, diag.MissingArgument)
}

func TestCallDefaultCoversMissing(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.IntClass.Instance()},
			{Name: "b", Kind: types.PosOrKw, Type: types.StrClass.Instance(), HasDefault: true},
		},
		Return: types.None,
	})
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1)))
	expectNoTag(t, c, diag.MissingArgument)
}

func TestCallTooManyPositional(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name:   "f",
		Params: []types.Param{{Name: "a", Kind: types.PosOnly, Type: types.IntClass.Instance()}},
		Return: types.None,
	})
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1), pyast.NewInt(2)))
	expectTag(t, c, diag.TooManyPositionalArgs)
}

func TestCallUnknownKeyword(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name:   "f",
		Params: []types.Param{{Name: "a", Kind: types.PosOrKw, Type: types.IntClass.Instance()}},
		Return: types.None,
	})
	call := pyast.NewCallKw(pyast.NewName("f"), nil,
		pyast.Keyword{Name: "nope", Value: pyast.NewInt(1)})
	c.InferExpr(call)
	expectTag(t, c, diag.UnknownArgument)
}

func TestCallDuplicateParameter(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name:   "f",
		Params: []types.Param{{Name: "a", Kind: types.PosOrKw, Type: types.IntClass.Instance()}},
		Return: types.None,
	})
	call := pyast.NewCallKw(pyast.NewName("f"),
		[]pyast.Expr{pyast.NewInt(1)},
		pyast.Keyword{Name: "a", Value: pyast.NewInt(2)})
	c.InferExpr(call)
	expectTag(t, c, diag.ParameterAlreadyAssigned)
}

func TestCallArgumentTypeMismatch(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name:   "f",
		Params: []types.Param{{Name: "a", Kind: types.PosOnly, Type: types.IntClass.Instance()}},
		Return: types.None,
	})
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewStr("x")))
	expectTag(t, c, diag.InvalidArgumentType)
}

func TestCallVarArgs(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "args", Kind: types.VarPos, Type: types.IntClass.Instance()},
		},
		Return: types.IntClass.Instance(),
	})
	call := pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1), pyast.NewInt(2), pyast.NewInt(3))
	expectType(t, c, call, types.IntClass.Instance())
	expectNoTag(t, c, diag.TooManyPositionalArgs)

	// Element type still checked.
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewStr("x")))
	expectTag(t, c, diag.InvalidArgumentType)
}

func TestCallVarKwargs(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "kwargs", Kind: types.VarKw, Type: types.StrClass.Instance()},
		},
		Return: types.None,
	})
	call := pyast.NewCallKw(pyast.NewName("f"), nil,
		pyast.Keyword{Name: "x", Value: pyast.NewStr("a")},
		pyast.Keyword{Name: "y", Value: pyast.NewStr("b")})
	c.InferExpr(call)
	expectNoTag(t, c, diag.UnknownArgument)
}

func TestCallKeywordOnly(t *testing.T) {
	c := newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "a", Kind: types.KwOnly, Type: types.IntClass.Instance()},
		},
		Return: types.None,
	})

	// Passing the keyword-only parameter positionally is a shape error.
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1)))
	expectTag(t, c, diag.TooManyPositionalArgs)

	c = newTestChecker(t)
	defineFn(c, "f", &types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "a", Kind: types.KwOnly, Type: types.IntClass.Instance()},
		},
		Return: types.None,
	})
	call := pyast.NewCallKw(pyast.NewName("f"), nil, pyast.Keyword{Name: "a", Value: pyast.NewInt(1)})
	c.InferExpr(call)
	expectNoTag(t, c, diag.TooManyPositionalArgs)
	expectNoTag(t, c, diag.MissingArgument)
}

func TestCallOnDynamicValue(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("x", types.Unknown)
	expectType(t, c, pyast.NewCall(pyast.NewName("x"), pyast.NewInt(1)), types.Unknown)
	if c.Sink().HasErrors() {
		t.Errorf("Expected no diagnostics calling a dynamic value, got %v", c.Diagnostics())
	}
}

func TestCallNonCallable(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("n", types.IntClass.Instance())
	got := c.InferExpr(pyast.NewCall(pyast.NewName("n")))
	if !c.Sink().HasErrors() {
		t.Errorf("Expected an error calling an int")
	}
	if !types.IsDynamic(got) {
		t.Errorf("Expected Unknown for a failed call, got %s", got.String())
	}
}

func TestConstructorCall(t *testing.T) {
	cls := types.NewClass("Point", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__init__": &types.CallableType{
			Name: "__init__",
			Params: []types.Param{
				{Name: "x", Kind: types.PosOnly, Type: types.IntClass.Instance()},
				{Name: "y", Kind: types.PosOnly, Type: types.IntClass.Instance()},
			},
			Return: types.None,
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("Point", cls.Literal())

	got := c.InferExpr(pyast.NewCall(pyast.NewName("Point"), pyast.NewInt(1), pyast.NewInt(2)))
	if !got.Equals(cls.Instance()) {
		t.Errorf("Expected a Point instance, got %s", got.String())
	}
	expectNoTag(t, c, diag.InvalidArgumentType)

	c.InferExpr(pyast.NewCall(pyast.NewName("Point"), pyast.NewStr("a"), pyast.NewInt(2)))
	expectTag(t, c, diag.InvalidArgumentType)
}

func TestBoundMethodCall(t *testing.T) {
	cls := types.NewClass("Greeter", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"greet": &types.CallableType{
			Name: "greet",
			Params: []types.Param{
				{Name: "name", Kind: types.PosOnly, Type: types.StrClass.Instance()},
			},
			Return: types.StrClass.Instance(),
		},
	})
	c := newTestChecker(t)
	c.Scope().Define("g", cls.Instance())

	call := pyast.NewCall(pyast.NewAttr(pyast.NewName("g"), "greet"), pyast.NewStr("world"))
	expectType(t, c, call, types.StrClass.Instance())
}
