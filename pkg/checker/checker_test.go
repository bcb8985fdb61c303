package checker

import (
	"context"
	"strings"
	"testing"

	"pythia/pkg/cache"
	"pythia/pkg/config"
	"pythia/pkg/diag"
	"pythia/pkg/modules"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

func TestUnresolvedName(t *testing.T) {
	c := newTestChecker(t)
	got := c.InferExpr(pyast.NewName("nope"))
	expectTag(t, c, diag.UnresolvedReference)
	if !types.IsDynamic(got) {
		t.Errorf("Expected Unknown for an unresolved name, got %s", got.String())
	}
}

func TestPossiblyUnboundName(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("x", types.IntClass.Instance())
	c.Scope().SetBoundness("x", PossiblyUnbound)
	got := c.InferExpr(pyast.NewName("x"))
	expectTag(t, c, diag.PossiblyUnresolvedRef)
	if !got.Equals(types.IntClass.Instance()) {
		t.Errorf("Expected int despite the warning, got %s", got.String())
	}
}

func TestAttributeOnInstance(t *testing.T) {
	cls := types.NewClass("Box", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"value": types.IntClass.Instance(),
	})
	c := newTestChecker(t)
	c.Scope().Define("b", cls.Instance())
	expectType(t, c, pyast.NewAttr(pyast.NewName("b"), "value"), types.IntClass.Instance())
}

func TestAttributeBoundMethod(t *testing.T) {
	fn := &types.CallableType{
		Name:   "get",
		Params: nil,
		Return: types.IntClass.Instance(),
	}
	cls := types.NewClass("Box", []*types.Class{types.ObjectClass}, map[string]types.Type{"get": fn})
	c := newTestChecker(t)
	c.Scope().Define("b", cls.Instance())

	got := c.InferExpr(pyast.NewAttr(pyast.NewName("b"), "get"))
	bm, ok := got.(*types.BoundMethodType)
	if !ok {
		t.Fatalf("Expected a bound method, got %s", got.String())
	}
	if bm.Func != fn || bm.ClassName != "Box" {
		t.Errorf("Expected get bound on Box, got %s defined on %s", bm.FuncName, bm.ClassName)
	}
}

func TestAttributeInheritedFromBase(t *testing.T) {
	base := types.NewClass("Base", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"tag": types.StrClass.Instance(),
	})
	sub := types.NewClass("Sub", []*types.Class{base}, nil)
	c := newTestChecker(t)
	c.Scope().Define("s", sub.Instance())
	expectType(t, c, pyast.NewAttr(pyast.NewName("s"), "tag"), types.StrClass.Instance())
}

func TestEnumMemberAccess(t *testing.T) {
	c := newTestChecker(t)
	color := types.NewClass("Color", []*types.Class{enumClassOrObject()}, nil)
	c.Scope().Define("Color", color.Literal())

	got := c.InferExpr(pyast.NewAttr(pyast.NewName("Color"), "RED"))
	lit, ok := got.(*types.LiteralType)
	if !ok || lit.Kind != types.EnumLiteral {
		t.Fatalf("Expected an enum literal, got %s", got.String())
	}
	if !got.Equals(types.NewEnumLit(color, "RED")) {
		t.Errorf("Expected Literal[Color.RED], got %s", got.String())
	}
}

func TestAttributeOnUnionDistributes(t *testing.T) {
	a := types.NewClass("A", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"v": types.IntClass.Instance(),
	})
	b := types.NewClass("B", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"v": types.StrClass.Instance(),
	})
	c := newTestChecker(t)
	c.Scope().Define("x", types.NewUnion(a.Instance(), b.Instance()))

	want := types.NewUnion(types.IntClass.Instance(), types.StrClass.Instance())
	expectType(t, c, pyast.NewAttr(pyast.NewName("x"), "v"), want)
}

func TestUnresolvedAttribute(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("n", types.IntClass.Instance())
	got := c.InferExpr(pyast.NewAttr(pyast.NewName("n"), "nope"))
	expectTag(t, c, diag.UnresolvedAttribute)
	if !types.IsDynamic(got) {
		t.Errorf("Expected Unknown for a missing attribute, got %s", got.String())
	}
}

func TestTupleSubscript(t *testing.T) {
	c := newTestChecker(t)
	tup := types.NewTuple(types.IntClass.Instance(), types.StrClass.Instance())
	c.Scope().Define("p", tup)

	expectType(t, c, pyast.NewSubscript(pyast.NewName("p"), pyast.NewInt(0)), types.IntClass.Instance())
	expectType(t, c, pyast.NewSubscript(pyast.NewName("p"), pyast.NewInt(1)), types.StrClass.Instance())

	// Negative indices count from the end.
	neg := pyast.NewSubscript(pyast.NewName("p"),
		&pyast.UnaryOp{Op: pyast.USub, Operand: pyast.NewInt(1)})
	expectType(t, c, neg, types.StrClass.Instance())

	// An index the checker cannot pin falls back to the element union.
	c.Scope().Define("i", types.IntClass.Instance())
	dyn := pyast.NewSubscript(pyast.NewName("p"), pyast.NewName("i"))
	expectType(t, c, dyn, types.NewUnion(types.IntClass.Instance(), types.StrClass.Instance()))
}

func TestAnnotationSubscripts(t *testing.T) {
	c := newTestChecker(t)

	lit := pyast.NewSubscript(pyast.NewName("Literal"), pyast.NewInt(3))
	expectType(t, c, lit, types.NewIntLit(3))

	opt := pyast.NewSubscript(pyast.NewName("Optional"), pyast.NewName("int"))
	expectType(t, c, opt, types.NewUnion(types.IntClass.Instance(), types.None))

	uni := pyast.NewSubscript(pyast.NewName("Union"), pyast.NewName("int"), pyast.NewName("str"))
	expectType(t, c, uni, types.NewUnion(types.IntClass.Instance(), types.StrClass.Instance()))

	tup := pyast.NewSubscript(pyast.NewName("tuple"), pyast.NewName("int"), pyast.NewName("str"))
	expectType(t, c, tup, types.NewTuple(types.IntClass.Instance(), types.StrClass.Instance()))

	sub := pyast.NewSubscript(pyast.NewName("type"), pyast.NewName("int"))
	want := types.Type(&types.SubclassOfType{Class: types.IntClass})
	got := c.InferExpr(sub)
	if !got.Equals(want) {
		t.Errorf("Expected %s, got %s", want.String(), got.String())
	}
}

func TestAnnotatedAssignment(t *testing.T) {
	c := newTestChecker(t)
	checkBody(t, c, pyast.NewAnnAssign("x", pyast.NewName("int"), pyast.NewInt(3)))
	expectNoTag(t, c, diag.InvalidAssignment)

	// The binding keeps the precise literal type.
	if got := resolveIn(t, c, "x"); !got.Equals(types.NewIntLit(3)) {
		t.Errorf("Expected Literal[3], got %s", got.String())
	}

	// Later assignments are checked against the declared type.
	checkBody(t, c, pyast.NewAssign("x", pyast.NewStr("nope")))
	expectTag(t, c, diag.InvalidAssignment)
}

func TestAnnotatedAssignmentMismatch(t *testing.T) {
	c := newTestChecker(t)
	checkBody(t, c, pyast.NewAnnAssign("x", pyast.NewName("int"), pyast.NewStr("s")))
	expectTag(t, c, diag.InvalidAssignment)
}

func testResolver() *modules.MemoryResolver {
	r := modules.NewMemoryResolver()
	r.AddModule(&modules.Module{
		Name: "os",
		Symbols: map[string]*modules.Symbol{
			"sep": {Name: "sep", Kind: modules.VariableSymbol, Type: types.StrClass.Instance()},
			"getcwd": {Name: "getcwd", Kind: modules.FunctionSymbol, Type: &types.CallableType{
				Name: "getcwd", Return: types.StrClass.Instance(),
			}},
			"add_dll_directory": {
				Name:      "add_dll_directory",
				Kind:      modules.FunctionSymbol,
				Type:      &types.CallableType{Name: "add_dll_directory", Return: types.None},
				Platforms: []string{"win32"},
			},
			"new_in_312": {
				Name:       "new_in_312",
				Kind:       modules.VariableSymbol,
				Type:       types.IntClass.Instance(),
				MinVersion: "3.12",
			},
		},
	})
	return r
}

func TestImportWholeModule(t *testing.T) {
	c := newTestChecker(t, WithResolver(testResolver()))
	checkBody(t, c, pyast.NewImport("os", ""))
	expectNoTag(t, c, diag.UnresolvedImport)

	expectType(t, c, pyast.NewAttr(pyast.NewName("os"), "sep"), types.StrClass.Instance())
	expectType(t, c, pyast.NewCall(pyast.NewAttr(pyast.NewName("os"), "getcwd")), types.StrClass.Instance())
}

func TestFromImport(t *testing.T) {
	c := newTestChecker(t, WithResolver(testResolver()))
	checkBody(t, c, pyast.NewFromImport("os", "sep", ""))
	expectNoTag(t, c, diag.UnresolvedImport)
	expectType(t, c, pyast.NewName("sep"), types.StrClass.Instance())
}

func TestFromImportAlias(t *testing.T) {
	c := newTestChecker(t, WithResolver(testResolver()))
	checkBody(t, c, pyast.NewFromImport("os", "sep", "separator"))
	expectType(t, c, pyast.NewName("separator"), types.StrClass.Instance())
}

func envFor(t *testing.T, version, platform string) *config.Environment {
	t.Helper()
	env, err := config.New(version, platform)
	if err != nil {
		t.Fatalf("Expected a valid environment, got %v", err)
	}
	return env
}

func TestGatedImportIsPossiblyUnbound(t *testing.T) {
	c := NewChecker(envFor(t, "3.13", "linux"), WithResolver(testResolver()))
	checkBody(t, c, pyast.NewFromImport("os", "add_dll_directory", ""))
	expectNoTag(t, c, diag.UnresolvedImport)

	c.InferExpr(pyast.NewName("add_dll_directory"))
	expectTag(t, c, diag.PossiblyUnboundImport)
}

func TestVersionGatedImport(t *testing.T) {
	old := NewChecker(envFor(t, "3.10", "linux"), WithResolver(testResolver()))
	checkBody(t, old, pyast.NewFromImport("os", "new_in_312", ""))
	old.InferExpr(pyast.NewName("new_in_312"))
	expectTag(t, old, diag.PossiblyUnboundImport)

	cur := NewChecker(envFor(t, "3.12", "linux"), WithResolver(testResolver()))
	checkBody(t, cur, pyast.NewFromImport("os", "new_in_312", ""))
	cur.InferExpr(pyast.NewName("new_in_312"))
	expectNoTag(t, cur, diag.PossiblyUnboundImport)
}

func TestImportUnknownModule(t *testing.T) {
	c := newTestChecker(t, WithResolver(testResolver()))
	checkBody(t, c, pyast.NewImport("no_such_module", ""))
	expectTag(t, c, diag.UnresolvedImport)
	// The name still binds so later uses do not cascade.
	expectType(t, c, pyast.NewName("no_such_module"), types.Unknown)
}

func TestImportMissingMember(t *testing.T) {
	c := newTestChecker(t, WithResolver(testResolver()))
	checkBody(t, c, pyast.NewFromImport("os", "nope", ""))
	expectTag(t, c, diag.UnresolvedImport)
}

func TestRevealType(t *testing.T) {
	c := newTestChecker(t)
	c.InferExpr(pyast.NewCall(pyast.NewName("reveal_type"), pyast.NewInt(7)))

	ds := c.Sink().ByTag(diag.RevealedType)
	if len(ds) != 1 {
		t.Fatalf("Expected one revealed-type diagnostic, got %v", c.Diagnostics())
	}
	if ds[0].Severity != diag.Info {
		t.Errorf("Expected an info diagnostic, got %v", ds[0].Severity)
	}
	if !strings.Contains(ds[0].Msg, "Literal[7]") {
		t.Errorf("Expected the revealed type in %q", ds[0].Msg)
	}
}

func TestStaticAssert(t *testing.T) {
	c := newTestChecker(t)
	c.InferExpr(pyast.NewCall(pyast.NewName("static_assert"), pyast.NewBool(true)))
	expectNoTag(t, c, diag.StaticAssertError)

	c.InferExpr(pyast.NewCall(pyast.NewName("static_assert"), pyast.NewBool(false)))
	expectTag(t, c, diag.StaticAssertError)
}

func TestStaticAssertAmbiguous(t *testing.T) {
	c := newTestChecker(t)
	c.Scope().Define("flag", types.BoolClass.Instance())
	c.InferExpr(pyast.NewCall(pyast.NewName("static_assert"), pyast.NewName("flag")))

	ds := c.Sink().ByTag(diag.StaticAssertError)
	if len(ds) != 1 {
		t.Fatalf("Expected one static-assert diagnostic, got %v", c.Diagnostics())
	}
	if !strings.Contains(ds[0].Msg, "could not be verified") {
		t.Errorf("Expected an ambiguity message, got %q", ds[0].Msg)
	}
}

func TestTypeRelationIntrinsics(t *testing.T) {
	c := newTestChecker(t)

	cases := []struct {
		fn   string
		a, b pyast.Expr
		want types.Type
	}{
		{"is_subtype_of", pyast.NewName("bool"), pyast.NewName("int"), types.NewBoolLit(true)},
		{"is_subtype_of", pyast.NewName("int"), pyast.NewName("str"), types.NewBoolLit(false)},
		{"is_subtype_of", pyast.NewName("Any"), pyast.NewName("int"), types.NewBoolLit(false)},
		{"is_assignable_to", pyast.NewName("Any"), pyast.NewName("int"), types.NewBoolLit(true)},
		{"is_assignable_to", pyast.NewName("str"), pyast.NewName("int"), types.NewBoolLit(false)},
		{"is_equivalent_to", pyast.NewName("int"), pyast.NewName("int"), types.NewBoolLit(true)},
		{"is_equivalent_to", pyast.NewName("bool"), pyast.NewName("int"), types.NewBoolLit(false)},
	}
	for _, tc := range cases {
		got := c.InferExpr(pyast.NewCall(pyast.NewName(tc.fn), tc.a, tc.b))
		if !got.Equals(tc.want) {
			t.Errorf("%s: Expected %s, got %s", tc.fn, tc.want.String(), got.String())
		}
	}
}

func TestHasMember(t *testing.T) {
	c := newTestChecker(t)
	yes := c.InferExpr(pyast.NewCall(pyast.NewName("has_member"),
		pyast.NewName("int"), pyast.NewStr("__add__")))
	if !yes.Equals(types.NewBoolLit(true)) {
		t.Errorf("Expected Literal[True], got %s", yes.String())
	}
	no := c.InferExpr(pyast.NewCall(pyast.NewName("has_member"),
		pyast.NewName("int"), pyast.NewStr("launch")))
	if !no.Equals(types.NewBoolLit(false)) {
		t.Errorf("Expected Literal[False], got %s", no.String())
	}
}

func TestValidateTypeGuardDefinitions(t *testing.T) {
	span := pyast.NewName("f").Span()

	// Guard with no parameter to narrow.
	c := newTestChecker(t)
	c.ValidateTypeGuard(&types.CallableType{
		Name:   "f",
		Return: types.BoolClass.Instance(),
		Guard:  &types.TypeGuardInfo{Kind: types.GuardTypeGuard, Target: types.IntClass.Instance(), ParamIndex: 0},
	}, span)
	expectTag(t, c, diag.InvalidTypeGuardDef)

	// Guard over a keyword-only parameter.
	c = newTestChecker(t)
	c.ValidateTypeGuard(&types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "x", Kind: types.KwOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
		Guard:  &types.TypeGuardInfo{Kind: types.GuardTypeGuard, Target: types.IntClass.Instance(), ParamIndex: 0},
	}, span)
	expectTag(t, c, diag.InvalidTypeGuardDef)

	// TypeIs target must be assignable to the parameter type.
	c = newTestChecker(t)
	c.ValidateTypeGuard(&types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "x", Kind: types.PosOrKw, Type: types.IntClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
		Guard:  &types.TypeGuardInfo{Kind: types.GuardTypeIs, Target: types.StrClass.Instance(), ParamIndex: 0},
	}, span)
	expectTag(t, c, diag.InvalidTypeGuardDef)

	// A well-formed TypeIs guard passes.
	c = newTestChecker(t)
	ok := c.ValidateTypeGuard(&types.CallableType{
		Name: "f",
		Params: []types.Param{
			{Name: "x", Kind: types.PosOrKw, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
		Guard:  &types.TypeGuardInfo{Kind: types.GuardTypeIs, Target: types.IntClass.Instance(), ParamIndex: 0},
	}, span)
	if !ok {
		t.Errorf("Expected a valid guard definition, got %v", c.Diagnostics())
	}
}

func TestUnsupportedBoolConversion(t *testing.T) {
	cls := types.NewClass("Weird", []*types.Class{types.ObjectClass}, map[string]types.Type{
		"__bool__": &types.CallableType{Name: "__bool__", Return: types.IntClass.Instance()},
	})
	c := newTestChecker(t)
	c.Scope().Define("w", cls.Instance())
	checkBody(t, c, pyast.NewIf(pyast.NewName("w"), []pyast.Stmt{pyast.NewPass()}, nil))
	expectTag(t, c, diag.UnsupportedBoolConversion)
}

func TestCheckModuleReportsAndReturns(t *testing.T) {
	c := newTestChecker(t)
	mod := &pyast.Module{Body: []pyast.Stmt{
		pyast.NewExprStmt(pyast.NewBinOp(pyast.NewStr("a"), pyast.Sub, pyast.NewInt(1))),
	}}
	ds, err := c.CheckModule(context.Background(), mod)
	if err != nil {
		t.Fatalf("Expected no hard error, got %v", err)
	}
	found := false
	for _, d := range ds {
		if d.Tag == diag.UnsupportedOperator {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an unsupported-operator diagnostic, got %v", ds)
	}
}

func TestSharedQueryCacheServesCallBinding(t *testing.T) {
	qc := cache.New()
	fn := sig("f", types.StrClass.Instance(), posParam("a", types.IntClass.Instance()))

	c := newTestChecker(t, WithQueryCache(qc))
	c.Scope().Define("f", fn)
	c.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1)))
	if qc.Len() == 0 {
		t.Fatal("Expected binding the call to populate the shared query cache")
	}

	// A second checker over the same cache repeats the query without
	// growing the table.
	n := qc.Len()
	other := newTestChecker(t, WithQueryCache(qc))
	other.Scope().Define("f", fn)
	other.InferExpr(pyast.NewCall(pyast.NewName("f"), pyast.NewInt(1)))
	if qc.Len() != n {
		t.Errorf("Expected %d memoized entries after the repeat, got %d", n, qc.Len())
	}
}
