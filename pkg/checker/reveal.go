package checker

import (
	"pythia/pkg/constraints"
	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/source"
	"pythia/pkg/types"
)

// Type-level predicates exposed to checked code. They evaluate at check
// time and produce bool literals when the answer is static.
var (
	isSubtypeOfFn = &types.CallableType{
		Name: "is_subtype_of",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "b", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
	isAssignableToFn = &types.CallableType{
		Name: "is_assignable_to",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "b", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
	isEquivalentToFn = &types.CallableType{
		Name: "is_equivalent_to",
		Params: []types.Param{
			{Name: "a", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "b", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
	hasMemberFn = &types.CallableType{
		Name: "has_member",
		Params: []types.Param{
			{Name: "obj", Kind: types.PosOnly, Type: types.ObjectClass.Instance()},
			{Name: "name", Kind: types.PosOnly, Type: types.StrClass.Instance()},
		},
		Return: types.BoolClass.Instance(),
	}
)

// tryIntrinsic dispatches calls whose callee is one of the checker's own
// builtins, recognized by identity.
func (c *Checker) tryIntrinsic(fnT types.Type, n *pyast.Call) (types.Type, bool) {
	switch fnT {
	case types.Type(revealTypeFn):
		return c.revealType(n), true
	case types.Type(staticAssertFn):
		return c.staticAssert(n), true
	case types.Type(isSubtypeOfFn):
		return c.typeRelation(n, func(a, b types.Type) *constraints.ConstraintSet {
			return constraints.WhenSubtypeOf(a, b)
		}), true
	case types.Type(isAssignableToFn):
		return c.typeRelation(n, func(a, b types.Type) *constraints.ConstraintSet {
			return constraints.WhenAssignableTo(a, b)
		}), true
	case types.Type(isEquivalentToFn):
		return c.typeRelation(n, func(a, b types.Type) *constraints.ConstraintSet {
			return constraints.WhenSubtypeOf(a, b).And(constraints.WhenSubtypeOf(b, a))
		}), true
	case types.Type(hasMemberFn):
		return c.hasMember(n), true
	}
	return nil, false
}

func (c *Checker) revealType(n *pyast.Call) types.Type {
	if len(n.Args) != 1 {
		c.bindArguments(revealTypeFn, c.evalArguments(n), n.Span(), true)
		return types.Unknown
	}
	t := c.inferExpr(n.Args[0])
	c.sink.Add(diag.RevealedType, diag.Info, n.Span(), "Revealed type is `%s`", t.String())
	return t
}

// staticAssert requires its condition to be statically true: an assertion
// the checker cannot prove, or can disprove, is an error.
func (c *Checker) staticAssert(n *pyast.Call) types.Type {
	if len(n.Args) == 0 {
		c.sink.Errorf(diag.StaticAssertError, n.Span(), "static_assert requires a condition")
		return types.None
	}
	t := c.inferExpr(n.Args[0])
	msg := ""
	if len(n.Args) > 1 {
		if s, ok := n.Args[1].(*pyast.StrLit); ok {
			msg = ": " + s.Value
		}
	}
	switch types.Truthiness(t) {
	case types.TriTrue:
		// Proven.
	case types.TriFalse:
		c.sink.Errorf(diag.StaticAssertError, n.Span(), "static assertion failed%s", msg)
	default:
		c.sink.Errorf(diag.StaticAssertError, n.Span(),
			"static assertion could not be verified for condition of type `%s`%s", t.String(), msg)
	}
	return types.None
}

// typeRelation evaluates a two-type predicate. With free type variables in
// play the answer comes from the constraint solver: a relation that holds
// under every assignment is True, one that holds under none is False, and
// anything in between stays a plain bool.
func (c *Checker) typeRelation(n *pyast.Call, rel func(a, b types.Type) *constraints.ConstraintSet) types.Type {
	if len(n.Args) != 2 {
		c.sink.Errorf(diag.InvalidArgumentType, n.Span(), "expected exactly two type arguments")
		return types.BoolClass.Instance()
	}
	a, aok := c.typeArgument(n.Args[0])
	b, bok := c.typeArgument(n.Args[1])
	if !aok || !bok {
		return types.BoolClass.Instance()
	}
	cs := rel(a, b)
	switch {
	case cs.IsAlways():
		return types.NewBoolLit(true)
	case cs.IsNever():
		return types.NewBoolLit(false)
	}
	return types.BoolClass.Instance()
}

// typeArgument resolves an argument in type position, accepting annotation
// forms first and falling back to the expression's inferred type.
func (c *Checker) typeArgument(e pyast.Expr) (types.Type, bool) {
	if t, ok := c.typeFromAnnotation(e); ok {
		return t, true
	}
	t := c.inferExpr(e)
	if cl, ok := t.(*types.ClassLiteralType); ok {
		return cl.Class.Instance(), true
	}
	return t, true
}

func (c *Checker) hasMember(n *pyast.Call) types.Type {
	if len(n.Args) != 2 {
		c.sink.Errorf(diag.InvalidArgumentType, n.Span(), "has_member expects an object and a name")
		return types.BoolClass.Instance()
	}
	t := c.inferExpr(n.Args[0])
	lit, ok := n.Args[1].(*pyast.StrLit)
	if !ok {
		c.inferExpr(n.Args[1])
		return types.BoolClass.Instance()
	}
	if types.IsDynamic(t) {
		return types.BoolClass.Instance()
	}
	switch v := t.(type) {
	case *types.InstanceType:
		_, _, found := v.Class.LookupMember(lit.Value)
		return types.NewBoolLit(found)
	case *types.LiteralType:
		_, _, found := v.BaseClass().LookupMember(lit.Value)
		return types.NewBoolLit(found)
	case *types.ClassLiteralType:
		_, _, found := v.Class.LookupMember(lit.Value)
		return types.NewBoolLit(found)
	}
	return types.BoolClass.Instance()
}

// ValidateTypeGuard checks a predicate signature: the guarded parameter must
// exist, and a TypeIs target must stay within that parameter's declared
// type.
func (c *Checker) ValidateTypeGuard(fn *types.CallableType, span source.Span) bool {
	g := fn.Guard
	if g == nil {
		return true
	}
	idx := g.ParamIndex
	if idx < 0 || idx >= len(fn.Params) {
		c.sink.Errorf(diag.InvalidTypeGuardDef, span,
			"type guard `%s` has no parameter to narrow", callableName(fn))
		return false
	}
	p := fn.Params[idx]
	if p.Kind == types.VarPos || p.Kind == types.VarKw || p.Kind == types.KwOnly {
		c.sink.Errorf(diag.InvalidTypeGuardDef, span,
			"type guard `%s` must narrow a positional parameter", callableName(fn))
		return false
	}
	if g.Kind == types.GuardTypeIs && !types.IsAssignableTo(g.Target, p.AnnotatedType()) {
		c.sink.Errorf(diag.InvalidTypeGuardDef, span,
			"narrowed type `%s` of `%s` is not assignable to parameter type `%s`",
			g.Target.String(), callableName(fn), p.AnnotatedType().String())
		return false
	}
	return true
}
