package types

// IsSubtypeOf decides the fully static subtype relation A <: B. Dynamic
// types are handled conservatively: a dynamic type is only a subtype of
// itself and of object. Gradual relations go through IsAssignableTo.
func IsSubtypeOf(a, b Type) bool {
	return relate(a, b, false)
}

// IsAssignableTo decides assignability: subtyping relaxed for gradual types,
// where Any/Unknown is assignable to and from everything.
func IsAssignableTo(a, b Type) bool {
	return relate(a, b, true)
}

// IsEquivalentTo reports whether two normalized types denote the same set of
// materializations. Any and Unknown are mutually equivalent; otherwise this
// is structural equality.
func IsEquivalentTo(a, b Type) bool {
	return a.Equals(b)
}

func relate(a, b Type, gradual bool) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}

	// Dynamic types first.
	if IsDynamic(a) || IsDynamic(b) {
		if gradual {
			return true
		}
		if IsDynamic(a) && IsDynamic(b) {
			return true
		}
		// Statically, a dynamic type is only below the top type.
		if IsDynamic(a) {
			return isObjectTop(b)
		}
		return false
	}

	if _, ok := a.(*NeverType); ok {
		return true
	}
	if _, ok := b.(*NeverType); ok {
		return false
	}
	if isObjectTop(b) {
		return true
	}

	// Union on the left: every member must relate.
	if ua, ok := a.(*UnionType); ok {
		for _, m := range ua.Members {
			if !relate(m, b, gradual) {
				return false
			}
		}
		return true
	}

	// Intersection on the right: relate to every positive, stay disjoint
	// from every negative.
	if ib, ok := b.(*IntersectionType); ok {
		for _, p := range ib.Positive {
			if !relate(a, p, gradual) {
				return false
			}
		}
		for _, n := range ib.Negative {
			if !IsDisjointFrom(a, n) {
				return false
			}
		}
		return true
	}

	// Intersection on the left: any positive below b suffices.
	if ia, ok := a.(*IntersectionType); ok {
		for _, p := range ia.Positive {
			if relate(p, b, gradual) {
				return true
			}
		}
		// A pure-negation intersection is only below the top type,
		// already handled above.
		return false
	}

	// Union on the right: some member must accept a.
	if ub, ok := b.(*UnionType); ok {
		for _, m := range ub.Members {
			if relate(a, m, gradual) {
				return true
			}
		}
		return false
	}

	switch av := a.(type) {
	case *LiteralType:
		switch bv := b.(type) {
		case *LiteralType:
			return av.Equals(bv)
		case *TruthinessMarker:
			return av.IsTruthy() == bv.Truthy
		default:
			return relate(av.BaseInstance(), b, gradual)
		}

	case *InstanceType:
		switch bv := b.(type) {
		case *InstanceType:
			return instanceSubtype(av, bv, gradual)
		case *TruthinessMarker:
			return Truthiness(av) == truthToTri(bv.Truthy)
		}
		return false

	case *ClassLiteralType:
		switch bv := b.(type) {
		case *ClassLiteralType:
			return av.Class.ID == bv.Class.ID
		case *SubclassOfType:
			return av.Class.IsSubclassOf(bv.Class)
		case *InstanceType:
			meta := av.Class.Metaclass
			if meta == nil {
				meta = TypeClass
			}
			return relate(meta.Instance(), b, gradual)
		case *TruthinessMarker:
			return bv.Truthy
		}
		return false

	case *SubclassOfType:
		switch bv := b.(type) {
		case *SubclassOfType:
			return av.Class.IsSubclassOf(bv.Class)
		case *InstanceType:
			return relate(TypeClass.Instance(), b, gradual)
		case *TruthinessMarker:
			return bv.Truthy
		}
		return false

	case *ModuleLiteralType:
		if bv, ok := b.(*ModuleLiteralType); ok {
			return av.Name == bv.Name
		}
		if bv, ok := b.(*TruthinessMarker); ok {
			return bv.Truthy
		}
		return false

	case *TupleType:
		switch bv := b.(type) {
		case *TupleType:
			return tupleSubtype(av, bv, gradual)
		case *InstanceType:
			if bv.Class.ID == TupleClass.ID && len(bv.Args) == 0 {
				return true
			}
			return relate(TupleClass.Instance(), b, gradual)
		case *TruthinessMarker:
			if av.Variadic {
				return false
			}
			return (len(av.Elems) > 0) == bv.Truthy
		}
		return false

	case *CallableType:
		if bv, ok := b.(*CallableType); ok {
			return callableSubtype(av, bv, gradual)
		}
		if bv, ok := b.(*TruthinessMarker); ok {
			return bv.Truthy
		}
		return false

	case *BoundMethodType:
		if bv, ok := b.(*CallableType); ok {
			return callableSubtype(av.Func, bv, gradual)
		}
		if bv, ok := b.(*BoundMethodType); ok {
			return av.Equals(bv)
		}
		return false

	case *TypeVarType:
		if bv, ok := b.(*TypeVarType); ok && av.ID == bv.ID {
			return true
		}
		// A bounded typevar is below everything its bound is below; a
		// constrained one below whatever all constraints are below. Anything
		// finer is the constraint solver's job.
		if len(av.Constraints) > 0 {
			for _, c := range av.Constraints {
				if !relate(c, b, gradual) {
					return false
				}
			}
			return true
		}
		return relate(av.UpperBound(), b, gradual)
	}

	return false
}

func isObjectTop(t Type) bool {
	it, ok := t.(*InstanceType)
	return ok && it.Class.ID == ObjectClass.ID && len(it.Args) == 0
}

// instanceSubtype relates two class instances, mapping specializations
// across subclass edges via the declared generic bases.
func instanceSubtype(a, b *InstanceType, gradual bool) bool {
	if a.Class.ID == b.Class.ID {
		if len(b.Args) == 0 {
			// Unspecialized target accepts any specialization.
			return true
		}
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			v := Covariant
			if i < len(a.Class.TypeParams) {
				v = a.Class.TypeParams[i].Variance
			}
			if !argRelates(a.Args[i], b.Args[i], v, gradual) {
				return false
			}
		}
		return true
	}
	if !a.Class.IsSubclassOf(b.Class) {
		return false
	}
	if len(b.Args) == 0 {
		return true
	}
	// Substitute a's specialization into its declared generic bases and
	// recurse toward b's class.
	mapping := map[int64]Type{}
	for i, tp := range a.Class.TypeParams {
		if i < len(a.Args) {
			mapping[tp.ID] = a.Args[i]
		}
	}
	for _, gb := range a.Class.GenericBases {
		inst := Substitute(gb, mapping).(*InstanceType)
		if instanceSubtype(inst, b, gradual) {
			return true
		}
	}
	// Fall back through plain bases.
	for _, base := range a.Class.Bases {
		if base.IsSubclassOf(b.Class) || base.ID == b.Class.ID {
			if instanceSubtype(base.Instance(), b, gradual) {
				return true
			}
		}
	}
	return false
}

func argRelates(a, b Type, v Variance, gradual bool) bool {
	switch v {
	case Covariant:
		return relate(a, b, gradual)
	case Contravariant:
		return relate(b, a, gradual)
	case Bivariant:
		return relate(a, b, gradual) || relate(b, a, gradual)
	default:
		if gradual {
			return relate(a, b, true) && relate(b, a, true)
		}
		return IsEquivalentTo(a, b)
	}
}

func tupleSubtype(a, b *TupleType, gradual bool) bool {
	if b.Variadic {
		if a.Variadic {
			return relate(a.Elems[0], b.Elems[0], gradual)
		}
		for _, e := range a.Elems {
			if !relate(e, b.Elems[0], gradual) {
				return false
			}
		}
		return true
	}
	if a.Variadic || len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !relate(a.Elems[i], b.Elems[i], gradual) {
			return false
		}
	}
	return true
}

// callableSubtype: contravariant parameters, covariant return. Parameter
// matching is positional; richer kind-aware matching lives in the call
// binder, which is where argument shapes are actually checked.
func callableSubtype(a, b *CallableType, gradual bool) bool {
	aPos := positionalParams(a)
	bPos := positionalParams(b)
	if len(aPos) < len(bPos) && !hasVarPos(a) {
		return false
	}
	for i := range bPos {
		var ap Param
		if i < len(aPos) {
			ap = aPos[i]
		} else {
			ap = Param{Kind: VarPos, Type: varPosElem(a)}
		}
		if !relate(bPos[i].AnnotatedType(), ap.AnnotatedType(), gradual) {
			return false
		}
	}
	// Extra required parameters of a must have defaults.
	for i := len(bPos); i < len(aPos); i++ {
		if !aPos[i].HasDefault {
			return false
		}
	}
	return relate(a.ReturnType(), b.ReturnType(), gradual)
}

func positionalParams(c *CallableType) []Param {
	var out []Param
	for _, p := range c.Params {
		if p.Kind == PosOnly || p.Kind == PosOrKw {
			out = append(out, p)
		}
	}
	return out
}

func hasVarPos(c *CallableType) bool {
	for _, p := range c.Params {
		if p.Kind == VarPos {
			return true
		}
	}
	return false
}

func varPosElem(c *CallableType) Type {
	for _, p := range c.Params {
		if p.Kind == VarPos {
			return p.AnnotatedType()
		}
	}
	return Any
}

// IsDisjointFrom reports whether a and b have no common inhabitant. Dynamic
// types are never disjoint from anything. For plain instances the relation
// is conservative: two classes are disjoint only when neither subclasses the
// other and at least one is final, since multiple inheritance may otherwise
// join them.
func IsDisjointFrom(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if _, ok := a.(*NeverType); ok {
		return true
	}
	if _, ok := b.(*NeverType); ok {
		return true
	}
	if IsDynamic(a) || IsDynamic(b) {
		return false
	}

	if ua, ok := a.(*UnionType); ok {
		for _, m := range ua.Members {
			if !IsDisjointFrom(m, b) {
				return false
			}
		}
		return true
	}
	if ub, ok := b.(*UnionType); ok {
		return IsDisjointFrom(ub, a)
	}

	if ia, ok := a.(*IntersectionType); ok {
		for _, p := range ia.Positive {
			if IsDisjointFrom(p, b) {
				return true
			}
		}
		// b entirely inside a negated term is also unreachable.
		for _, n := range ia.Negative {
			if IsSubtypeOf(b, n) {
				return true
			}
		}
		return false
	}
	if _, ok := b.(*IntersectionType); ok {
		return IsDisjointFrom(b, a)
	}

	la, aIsLit := a.(*LiteralType)
	lb, bIsLit := b.(*LiteralType)
	if aIsLit && bIsLit {
		return !la.Equals(lb)
	}
	if aIsLit {
		return IsDisjointFrom(la.BaseInstance(), b)
	}
	if bIsLit {
		return IsDisjointFrom(a, lb.BaseInstance())
	}

	if ma, ok := a.(*TruthinessMarker); ok {
		if mb, ok := b.(*TruthinessMarker); ok {
			return ma.Truthy != mb.Truthy
		}
		switch Truthiness(b) {
		case TriTrue:
			return !ma.Truthy
		case TriFalse:
			return ma.Truthy
		}
		return false
	}
	if _, ok := b.(*TruthinessMarker); ok {
		return IsDisjointFrom(b, a)
	}

	ina, aIsInst := a.(*InstanceType)
	inb, bIsInst := b.(*InstanceType)
	if aIsInst && bIsInst {
		if isObjectTop(a) || isObjectTop(b) {
			return false
		}
		if ina.Class.IsSubclassOf(inb.Class) || inb.Class.IsSubclassOf(ina.Class) {
			return false
		}
		return ina.Class.Final || inb.Class.Final
	}

	// Tuples and instances.
	if ta, ok := a.(*TupleType); ok {
		if tb, ok := b.(*TupleType); ok {
			if ta.Variadic || tb.Variadic {
				return false
			}
			if len(ta.Elems) != len(tb.Elems) {
				return true
			}
			for i := range ta.Elems {
				if IsDisjointFrom(ta.Elems[i], tb.Elems[i]) {
					return true
				}
			}
			return false
		}
		if bIsInst {
			return IsDisjointFrom(TupleClass.Instance(), b)
		}
		return true
	}
	if _, ok := b.(*TupleType); ok {
		return IsDisjointFrom(b, a)
	}

	// Class objects vs. everything else.
	if ca, ok := a.(*ClassLiteralType); ok {
		switch cb := b.(type) {
		case *ClassLiteralType:
			return ca.Class.ID != cb.Class.ID
		case *SubclassOfType:
			return !ca.Class.IsSubclassOf(cb.Class)
		case *InstanceType:
			return IsDisjointFrom(TypeClass.Instance(), b)
		}
		return true
	}
	if _, ok := b.(*ClassLiteralType); ok {
		return IsDisjointFrom(b, a)
	}
	if _, ok := a.(*SubclassOfType); ok {
		switch b.(type) {
		case *SubclassOfType:
			return false
		case *InstanceType:
			return IsDisjointFrom(TypeClass.Instance(), b)
		}
		return true
	}
	if _, ok := b.(*SubclassOfType); ok {
		return IsDisjointFrom(b, a)
	}

	if ma, ok := a.(*ModuleLiteralType); ok {
		if mb, ok := b.(*ModuleLiteralType); ok {
			return ma.Name != mb.Name
		}
		if bIsInst {
			return !isObjectTop(b)
		}
		return true
	}

	return false
}

// Tri is a three-valued truthiness verdict.
type Tri int

const (
	TriAmbiguous Tri = iota
	TriTrue
	TriFalse
)

func truthToTri(truthy bool) Tri {
	if truthy {
		return TriTrue
	}
	return TriFalse
}

// Truthiness statically evaluates `bool(x)` for values of type t. Ordinary
// instances are ambiguous unless their class declares a __bool__ whose
// return type is a fixed boolean literal.
func Truthiness(t Type) Tri {
	switch v := t.(type) {
	case *LiteralType:
		return truthToTri(v.IsTruthy())
	case *TruthinessMarker:
		return truthToTri(v.Truthy)
	case *ClassLiteralType, *ModuleLiteralType, *CallableType, *BoundMethodType, *OverloadedType:
		return TriTrue
	case *TupleType:
		if v.Variadic {
			return TriAmbiguous
		}
		return truthToTri(len(v.Elems) > 0)
	case *InstanceType:
		if v.Class.ID == NoneClass.ID {
			return TriFalse
		}
		if boolMember, _, ok := v.Class.LookupMember("__bool__"); ok {
			if c, ok := boolMember.(*CallableType); ok {
				if lit, ok := c.ReturnType().(*LiteralType); ok && lit.Kind == BoolLiteral {
					return truthToTri(lit.BoolVal)
				}
			}
		}
		return TriAmbiguous
	case *UnionType:
		verdict := Truthiness(v.Members[0])
		if verdict == TriAmbiguous {
			return TriAmbiguous
		}
		for _, m := range v.Members[1:] {
			if Truthiness(m) != verdict {
				return TriAmbiguous
			}
		}
		return verdict
	case *IntersectionType:
		for _, p := range v.Positive {
			if tri := Truthiness(p); tri != TriAmbiguous {
				return tri
			}
		}
		for _, n := range v.Negative {
			if m, ok := n.(*TruthinessMarker); ok {
				// x & ~AlwaysFalsy is truthy, x & ~AlwaysTruthy falsy.
				return truthToTri(!m.Truthy)
			}
		}
		return TriAmbiguous
	}
	return TriAmbiguous
}

// IsSingleValued reports whether t is inhabited by exactly one runtime
// value, which is what licenses narrowing on == and is.
func IsSingleValued(t Type) bool {
	switch v := t.(type) {
	case *LiteralType, *ClassLiteralType, *ModuleLiteralType:
		return true
	case *InstanceType:
		return v.Class.ID == NoneClass.ID
	case *TupleType:
		if v.Variadic {
			return false
		}
		for _, e := range v.Elems {
			if !IsSingleValued(e) {
				return false
			}
		}
		return true
	}
	return false
}
