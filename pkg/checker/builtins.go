package checker

import (
	"pythia/pkg/types"
)

// Canonical builtin function signatures. Narrowing recognizes calls to
// isinstance and issubclass by pointer identity against these values, so a
// user rebinding the names defeats the special-casing, which is the
// intended behavior.
var (
	isinstanceFn = &types.CallableType{
		Name: "isinstance",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "class_or_tuple", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
	issubclassFn = &types.CallableType{
		Name: "issubclass",
		Params: []types.Param{
			{Name: "cls", Kind: types.PosOnly, Type: &types.SubclassOfType{Class: types.ObjectClass}},
			{Name: "class_or_tuple", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
	revealTypeFn = &types.CallableType{
		Name: "reveal_type",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.ObjectClass.Instance(),
	}
	staticAssertFn = &types.CallableType{
		Name: "static_assert",
		Params: []types.Param{
			{Name: "condition", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "msg", Kind: types.PosOnly, Type: types.StrClass.Instance(), HasDefault: true},
		},
		Return: types.None,
	}
	lenFn = &types.CallableType{
		Name: "len",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.IntClass.Instance(),
	}
	boolFn = &types.CallableType{
		Name: "bool",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance(), HasDefault: true},
		},
		Return: types.BoolClass.Instance(),
	}
	reprFn = &types.CallableType{
		Name: "repr",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.StrClass.Instance(),
	}
)

// enumClass backs Color.RED style member access. Instances of subclasses
// compare by identity, which the narrowing rules for `is` rely on.
var enumClass = types.NewClass("Enum", []*types.Class{types.ObjectClass}, nil)

func enumClassOrObject() *types.Class {
	if enumClass != nil {
		return enumClass
	}
	return types.ObjectClass
}

// installBuiltins seeds the outermost scope with the builtin classes and
// functions every module sees.
func (c *Checker) installBuiltins() {
	classes := []*types.Class{
		types.ObjectClass, types.TypeClass, types.IntClass, types.FloatClass,
		types.ComplexClass, types.StrClass, types.BytesClass, types.BoolClass,
		types.TupleClass, types.ListClass, types.DictClass,
	}
	for _, cls := range classes {
		c.scope.Define(cls.Name, cls.Literal())
	}
	c.scope.Define("Enum", enumClass.Literal())
	c.scope.Define("None", types.None)

	c.scope.Define("isinstance", isinstanceFn)
	c.scope.Define("issubclass", issubclassFn)
	c.scope.Define("reveal_type", revealTypeFn)
	c.scope.Define("static_assert", staticAssertFn)
	c.scope.Define("len", lenFn)
	c.scope.Define("bool", boolFn)
	c.scope.Define("repr", reprFn)
	c.scope.Define("is_subtype_of", isSubtypeOfFn)
	c.scope.Define("is_assignable_to", isAssignableToFn)
	c.scope.Define("is_equivalent_to", isEquivalentToFn)
	c.scope.Define("has_member", hasMemberFn)
}
