package types

// --- Literal promotion ---

// WidenLiteral replaces a literal type with its base instance type. Other
// types are returned unchanged.
func WidenLiteral(t Type) Type {
	if lit, ok := t.(*LiteralType); ok {
		return lit.BaseInstance()
	}
	return t
}

// PromoteLiteral widens literal types according to the variance of the
// position they occupy: a literal in covariant position keeps its precision,
// while invariant, contravariant, and bivariant positions widen it to the
// base instance type, since retaining the singleton there would be unsound.
// Promotion recurses into tuple elements (covariant) and generic arguments,
// composing each parameter's declared variance with the outer position.
//
// Positions carrying an explicit Literal[...] annotation must suppress
// promotion; callers express that by not calling PromoteLiteral for those
// positions (the checker consults the declared type first).
func PromoteLiteral(t Type, pos Variance) Type {
	switch v := t.(type) {
	case *LiteralType:
		if pos == Covariant {
			return v
		}
		return v.BaseInstance()
	case *TupleType:
		elems := make([]Type, len(v.Elems))
		changed := false
		for i, e := range v.Elems {
			elems[i] = PromoteLiteral(e, ComposeVariance(pos, Covariant))
			if elems[i] != e {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return &TupleType{Elems: elems, Variadic: v.Variadic}
	case *InstanceType:
		if len(v.Args) == 0 {
			return v
		}
		args := make([]Type, len(v.Args))
		changed := false
		for i, a := range v.Args {
			inner := Invariant
			if i < len(v.Class.TypeParams) {
				inner = v.Class.TypeParams[i].Variance
			}
			args[i] = PromoteLiteral(a, ComposeVariance(pos, inner))
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return &InstanceType{Class: v.Class, Args: args}
	case *UnionType:
		members := make([]Type, len(v.Members))
		changed := false
		for i, m := range v.Members {
			members[i] = PromoteLiteral(m, pos)
			if members[i] != m {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return NewUnion(members...)
	}
	return t
}
