package checker

import (
	"strings"

	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

// narrowings maps a narrowable place (a name or dotted attribute path) to
// its refined type within one branch.
type narrowings map[string]types.Type

// narrowingKey produces the overlay key for an expression that names a
// stable place: a bare name or a chain of attribute accesses off one. Other
// expressions return "".
func narrowingKey(e pyast.Expr) string {
	switch n := e.(type) {
	case *pyast.Name:
		return n.ID
	case *pyast.Attribute:
		base := narrowingKey(n.Value)
		if base == "" {
			return ""
		}
		return base + "." + n.Attr
	}
	return ""
}

// keyType reads the current (pre-branch) type of a narrowing key, following
// attribute paths through member lookup when the overlay has no entry yet.
func (c *Checker) keyType(key string) types.Type {
	if t, _, ok := c.scope.Resolve(key); ok {
		return t
	}
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return types.Unknown
	}
	base := c.keyType(key[:i])
	switch v := base.(type) {
	case *types.InstanceType:
		if member, _, ok := v.Class.LookupMember(key[i+1:]); ok {
			return member
		}
	}
	return types.Unknown
}

// analyzeCondition infers the condition's type and computes the narrowings
// each branch may assume. Nested operands of `and`/`or` are analyzed under
// the narrowings established by the operands to their left, matching
// runtime short-circuit visibility.
func (c *Checker) analyzeCondition(cond pyast.Expr) (types.Type, narrowings, narrowings) {
	switch n := cond.(type) {
	case *pyast.UnaryOp:
		if n.Op == pyast.Not {
			ot, thenN, elseN := c.analyzeCondition(n.Operand)
			var res types.Type
			switch types.Truthiness(ot) {
			case types.TriTrue:
				res = types.NewBoolLit(false)
			case types.TriFalse:
				res = types.NewBoolLit(true)
			default:
				res = types.BoolClass.Instance()
			}
			return res, elseN, thenN
		}
	case *pyast.BoolOp:
		return c.analyzeBoolOp(n)
	case *pyast.Compare:
		return c.analyzeCompare(n)
	case *pyast.Call:
		if t, thenN, elseN, ok := c.analyzeGuardCall(n); ok {
			return t, thenN, elseN
		}
	case *pyast.Name, *pyast.Attribute:
		t := c.inferExpr(cond)
		key := narrowingKey(cond)
		if key == "" {
			return t, nil, nil
		}
		thenN := narrowings{key: narrowByTruthiness(t, true)}
		elseN := narrowings{key: narrowByTruthiness(t, false)}
		return t, thenN, elseN
	}
	return c.inferExpr(cond), nil, nil
}

func (c *Checker) analyzeBoolOp(n *pyast.BoolOp) (types.Type, narrowings, narrowings) {
	t, thenN, elseN := c.analyzeCondition(n.Values[0])
	resultParts := []types.Type{}

	for _, v := range n.Values[1:] {
		tri := c.checkTruthiness(t, n.Span())
		if n.Op == pyast.And {
			if tri == types.TriFalse {
				// The right operand is unreachable; the whole expression
				// keeps the left value and the left's narrowings.
				resultParts = append(resultParts, t)
				return types.NewUnion(resultParts...), thenN, elseN
			}
			if tri == types.TriAmbiguous {
				resultParts = append(resultParts, narrowByTruthiness(t, false))
			}
			// Analyze the right operand with the left's true-branch
			// narrowings visible.
			rt, rThen, rElse := c.analyzeUnder(thenN, v)
			thenN, elseN = c.mergeAnd(thenN, elseN, rThen, rElse)
			t = rt
		} else {
			if tri == types.TriTrue {
				resultParts = append(resultParts, t)
				return types.NewUnion(resultParts...), thenN, elseN
			}
			if tri == types.TriAmbiguous {
				resultParts = append(resultParts, narrowByTruthiness(t, true))
			}
			rt, rThen, rElse := c.analyzeUnder(elseN, v)
			thenN, elseN = c.mergeOr(thenN, elseN, rThen, rElse)
			t = rt
		}
	}
	resultParts = append(resultParts, t)
	return types.NewUnion(resultParts...), thenN, elseN
}

// analyzeUnder analyzes an expression with extra narrowings layered on.
func (c *Checker) analyzeUnder(overlay narrowings, e pyast.Expr) (types.Type, narrowings, narrowings) {
	saved := c.scope
	c.scope = NewEnclosedEnvironment(saved)
	for key, typ := range overlay {
		c.scope.Narrow(key, typ)
	}
	t, thenN, elseN := c.analyzeCondition(e)
	c.scope = saved
	return t, thenN, elseN
}

// mergeAnd combines `A and B`: the true branch requires both, so narrowings
// intersect; the false branch is `not A` or `A and not B`, a per-key union.
func (c *Checker) mergeAnd(aThen, aElse, bThen, bElse narrowings) (narrowings, narrowings) {
	thenN := narrowings{}
	for k, v := range aThen {
		thenN[k] = v
	}
	for k, v := range bThen {
		if prev, ok := thenN[k]; ok {
			thenN[k] = types.NewIntersection([]types.Type{prev, v}, nil)
		} else {
			thenN[k] = v
		}
	}

	elseN := narrowings{}
	for _, k := range keysOf(aElse, bElse, aThen) {
		orig := c.keyType(k)
		notA := valueOr(aElse, k, orig)
		aAndNotB := types.NewIntersection([]types.Type{valueOr(aThen, k, orig), valueOr(bElse, k, orig)}, nil)
		elseN[k] = types.NewUnion(notA, aAndNotB)
	}
	return thenN, elseN
}

// mergeOr combines `A or B`: the false branch requires both to fail, so
// false narrowings intersect; the true branch is `A` or `not A and B`.
func (c *Checker) mergeOr(aThen, aElse, bThen, bElse narrowings) (narrowings, narrowings) {
	elseN := narrowings{}
	for k, v := range aElse {
		elseN[k] = v
	}
	for k, v := range bElse {
		if prev, ok := elseN[k]; ok {
			elseN[k] = types.NewIntersection([]types.Type{prev, v}, nil)
		} else {
			elseN[k] = v
		}
	}

	thenN := narrowings{}
	for _, k := range keysOf(aThen, bThen, aElse) {
		orig := c.keyType(k)
		justA := valueOr(aThen, k, orig)
		notAThenB := types.NewIntersection([]types.Type{valueOr(aElse, k, orig), valueOr(bThen, k, orig)}, nil)
		thenN[k] = types.NewUnion(justA, notAThenB)
	}
	return thenN, elseN
}

func keysOf(maps ...narrowings) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func valueOr(m narrowings, k string, fallback types.Type) types.Type {
	if v, ok := m[k]; ok {
		return v
	}
	return fallback
}

func (c *Checker) analyzeCompare(n *pyast.Compare) (types.Type, narrowings, narrowings) {
	if len(n.Ops) != 1 {
		return c.inferCompare(n), nil, nil
	}
	op := n.Ops[0]
	left, right := n.Left, n.Comparators[0]
	lt := c.inferExpr(left)
	rt := c.inferExpr(right)
	t := c.resolveCompare(op, lt, rt)

	// Narrow whichever side names a place against the other side's type.
	// Swapping `None is x` costs nothing here.
	key := narrowingKey(left)
	otherT := rt
	if key == "" {
		key = narrowingKey(right)
		otherT = lt
	}
	if key == "" {
		return t, nil, nil
	}
	placeT := c.keyType(key)

	switch op {
	case pyast.Is, pyast.IsNot, pyast.Eq, pyast.NotEq:
		// Identity and equality narrow only against single-valued types;
		// two distinct objects of other types can still compare equal.
		if !types.IsSingleValued(otherT) {
			return t, nil, nil
		}
		matched := c.narrowTo(placeT, otherT)
		unmatched := c.subtract(placeT, otherT)
		if op == pyast.Is || op == pyast.Eq {
			return t, narrowings{key: matched}, narrowings{key: unmatched}
		}
		return t, narrowings{key: unmatched}, narrowings{key: matched}

	case pyast.In, pyast.NotIn:
		// Membership narrows only when the container is a fixed tuple of
		// single-valued elements, so both branches are exact.
		lkey := narrowingKey(left)
		if lkey == "" {
			return t, nil, nil
		}
		elems, ok := singleValuedElems(rt)
		if !ok {
			return t, nil, nil
		}
		lplace := c.keyType(lkey)
		member := types.Never
		rest := lplace
		for _, el := range elems {
			member = types.NewUnion(member, c.narrowTo(lplace, el))
			rest = c.subtract(rest, el)
		}
		if op == pyast.In {
			return t, narrowings{lkey: member}, narrowings{lkey: rest}
		}
		return t, narrowings{lkey: rest}, narrowings{lkey: member}
	}
	return t, nil, nil
}

// singleValuedElems returns the element types of a fixed tuple when every
// element is single-valued.
func singleValuedElems(t types.Type) ([]types.Type, bool) {
	tup, ok := t.(*types.TupleType)
	if !ok || tup.Variadic || len(tup.Elems) == 0 {
		return nil, false
	}
	for _, el := range tup.Elems {
		if !types.IsSingleValued(el) {
			return nil, false
		}
	}
	return tup.Elems, true
}

// analyzeGuardCall handles the narrowing call forms: isinstance, issubclass,
// and user-defined TypeGuard/TypeIs predicates.
func (c *Checker) analyzeGuardCall(n *pyast.Call) (types.Type, narrowings, narrowings, bool) {
	fnT := c.inferExpr(n.Func)

	// Builtin classification checks are recognized by identity so a
	// shadowed `isinstance` loses the special narrowing behavior.
	if fnT == types.Type(isinstanceFn) || fnT == types.Type(issubclassFn) {
		t := c.inferCall(n)
		if len(n.Args) != 2 {
			return t, nil, nil, true
		}
		key := narrowingKey(n.Args[0])
		if key == "" {
			return t, nil, nil, true
		}
		target, ok := c.classTestTarget(n.Args[1], fnT == types.Type(issubclassFn))
		if !ok {
			return t, nil, nil, true
		}
		placeT := c.keyType(key)
		thenN := narrowings{key: c.narrowTo(placeT, target)}
		elseN := narrowings{key: c.subtract(placeT, target)}
		return t, thenN, elseN, true
	}

	guard := guardInfo(fnT)
	if guard == nil {
		return nil, nil, nil, false
	}
	t := c.inferCall(n)
	idx := guard.ParamIndex
	if idx >= len(n.Args) {
		c.sink.Errorf(diag.InvalidTypeGuardCall, n.Span(),
			"type guard call provides no argument for the narrowed parameter")
		return t, nil, nil, true
	}
	key := narrowingKey(n.Args[idx])
	if key == "" {
		return t, nil, nil, true
	}
	placeT := c.keyType(key)
	switch guard.Kind {
	case types.GuardTypeGuard:
		// TypeGuard replaces outright and tells us nothing when false.
		return t, narrowings{key: guard.Target}, nil, true
	case types.GuardTypeIs:
		thenN := narrowings{key: c.narrowTo(placeT, guard.Target)}
		elseN := narrowings{key: c.subtract(placeT, guard.Target)}
		return t, thenN, elseN, true
	}
	return t, nil, nil, true
}

func guardInfo(t types.Type) *types.TypeGuardInfo {
	switch v := t.(type) {
	case *types.CallableType:
		return v.Guard
	case *types.BoundMethodType:
		return v.Func.Guard
	}
	return nil
}

// classTestTarget converts the second isinstance/issubclass argument into
// the narrowing target type: an instance (or type[C]) for a class literal,
// or a union of them for a tuple of classes.
func (c *Checker) classTestTarget(arg pyast.Expr, classCheck bool) (types.Type, bool) {
	argT := c.inferExpr(arg)
	var collect func(t types.Type) (types.Type, bool)
	collect = func(t types.Type) (types.Type, bool) {
		switch v := t.(type) {
		case *types.ClassLiteralType:
			if classCheck {
				return &types.SubclassOfType{Class: v.Class}, true
			}
			return v.Class.Instance(), true
		case *types.TupleType:
			parts := make([]types.Type, 0, len(v.Elems))
			for _, e := range v.Elems {
				p, ok := collect(e)
				if !ok {
					return nil, false
				}
				parts = append(parts, p)
			}
			return types.NewUnion(parts...), true
		case *types.UnionType:
			parts := make([]types.Type, 0, len(v.Members))
			for _, m := range v.Members {
				p, ok := collect(m)
				if !ok {
					return nil, false
				}
				parts = append(parts, p)
			}
			return types.NewUnion(parts...), true
		}
		return nil, false
	}
	return collect(argT)
}

// narrowTo refines t under the assumption that the value is of type target,
// distributing over union members and dropping the ones the assumption
// rules out.
func (c *Checker) narrowTo(t, target types.Type) types.Type {
	if types.IsDynamic(t) {
		return target
	}
	if u, ok := t.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if nm := c.narrowMember(m, target); nm != nil {
				kept = append(kept, nm)
			}
		}
		if len(kept) == 0 {
			return types.Never
		}
		return types.NewUnion(kept...)
	}
	if nm := c.narrowMember(t, target); nm != nil {
		return nm
	}
	return types.Never
}

func (c *Checker) narrowMember(m, target types.Type) types.Type {
	if types.IsDynamic(m) {
		return target
	}
	if c.subtypeCached(m, target) {
		return m
	}
	if c.subtypeCached(target, m) {
		return target
	}
	if types.IsDisjointFrom(m, target) {
		return nil
	}
	return types.NewIntersection([]types.Type{m, target}, nil)
}

// subtract refines t under the assumption that the value is NOT of type
// target.
func (c *Checker) subtract(t, target types.Type) types.Type {
	if types.IsDynamic(t) {
		return t
	}
	if u, ok := t.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if rm := c.subtractMember(m, target); rm != nil {
				kept = append(kept, rm)
			}
		}
		if len(kept) == 0 {
			return types.Never
		}
		return types.NewUnion(kept...)
	}
	if rm := c.subtractMember(t, target); rm != nil {
		return rm
	}
	return types.Never
}

func (c *Checker) subtractMember(m, target types.Type) types.Type {
	if types.IsDynamic(m) {
		return m
	}
	if c.subtypeCached(m, target) {
		return nil
	}
	if types.IsDisjointFrom(m, target) {
		return m
	}
	return types.NewIntersection([]types.Type{m}, []types.Type{target})
}

// narrowByTruthiness partitions t into its truthy or falsy portion. Members
// with a fixed truth value are kept or dropped; ambiguous members subtract
// the marker of the excluded outcome so the two branches stay disjoint.
func narrowByTruthiness(t types.Type, truthy bool) types.Type {
	if types.IsDynamic(t) {
		return t
	}
	if u, ok := t.(*types.UnionType); ok {
		var kept []types.Type
		for _, m := range u.Members {
			if nm := truthinessMember(m, truthy); nm != nil {
				kept = append(kept, nm)
			}
		}
		if len(kept) == 0 {
			return types.Never
		}
		return types.NewUnion(kept...)
	}
	if nm := truthinessMember(t, truthy); nm != nil {
		return nm
	}
	return types.Never
}

func truthinessMember(m types.Type, truthy bool) types.Type {
	switch types.Truthiness(m) {
	case types.TriTrue:
		if truthy {
			return m
		}
		return nil
	case types.TriFalse:
		if !truthy {
			return m
		}
		return nil
	}
	// bool splits exactly into its two literals.
	if inst, ok := m.(*types.InstanceType); ok && inst.Class.ID == types.BoolClass.ID {
		return types.NewBoolLit(truthy)
	}
	// A truthiness-varying object passes the test without being
	// definitionally truthy, so the branches carry the negated marker of
	// the excluded outcome rather than a positive assertion.
	excluded := types.AlwaysTruthy
	if truthy {
		excluded = types.AlwaysFalsy
	}
	return types.NewIntersection([]types.Type{m}, []types.Type{excluded})
}
