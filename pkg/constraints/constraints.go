// Package constraints represents boolean combinations of typevar range
// constraints (lower <= T <= upper) and answers subtype queries that depend
// on unresolved type variables. Constraint sets are ephemeral: built per
// query, combined algebraically, never persisted or mutated.
package constraints

import (
	"pythia/pkg/types"
)

// ConstraintSet is an immutable boolean combination of range constraints.
type ConstraintSet struct {
	root *node
}

// Always is the constraint set satisfied by every assignment: the identity
// for conjunction.
func Always() *ConstraintSet { return &ConstraintSet{root: trueNode} }

// Never is the unsatisfiable constraint set: the identity for disjunction.
// It vacuously implies any relation.
func Never() *ConstraintSet { return &ConstraintSet{root: falseNode} }

// Range builds the atomic constraint lower <= tv <= upper. A range whose
// static bounds are inverted is unsatisfiable; the unconstrained full range
// is Always.
func Range(lower types.Type, tv *types.TypeVarType, upper types.Type) *ConstraintSet {
	if lower == nil {
		lower = types.Never
	}
	if upper == nil {
		upper = types.ObjectClass.Instance()
	}
	if !types.ContainsTypeVar(lower) && !types.ContainsTypeVar(upper) {
		if !types.IsAssignableTo(lower, upper) && types.IsDisjointFrom(lower, upper) {
			return Never()
		}
		if _, lowNever := lower.(*types.NeverType); lowNever && isTop(upper) {
			return Always()
		}
	}
	a := newAtom(lower, tv, upper)
	return &ConstraintSet{root: mkNode(a, trueNode, falseNode)}
}

func isTop(t types.Type) bool {
	it, ok := t.(*types.InstanceType)
	return ok && it.Class.ID == types.ObjectClass.ID && len(it.Args) == 0
}

// And conjoins two constraint sets.
func (cs *ConstraintSet) And(other *ConstraintSet) *ConstraintSet {
	return &ConstraintSet{root: apply(opAnd, cs.root, other.root, map[[2]*node]*node{})}
}

// Or disjoins two constraint sets.
func (cs *ConstraintSet) Or(other *ConstraintSet) *ConstraintSet {
	return &ConstraintSet{root: apply(opOr, cs.root, other.root, map[[2]*node]*node{})}
}

// Negate complements the constraint set.
func (cs *ConstraintSet) Negate() *ConstraintSet {
	return &ConstraintSet{root: negate(cs.root, map[*node]*node{})}
}

// IsAlways reports whether every assignment satisfies the set.
func (cs *ConstraintSet) IsAlways() bool { return cs.root == trueNode }

// IsNever reports whether no assignment satisfies the set.
func (cs *ConstraintSet) IsNever() bool { return cs.root == falseNode }

// --- Implication queries ---

// bounds is the per-typevar range information extracted from one satisfying
// path, closed transitively through typevar-to-typevar constraints.
type bounds struct {
	lowers map[int64][]types.Type
	uppers map[int64][]types.Type
}

func pathBounds(p path) *bounds {
	b := &bounds{lowers: map[int64][]types.Type{}, uppers: map[int64][]types.Type{}}
	for _, a := range p {
		if _, ok := a.lower.(*types.NeverType); !ok {
			b.lowers[a.tv.ID] = append(b.lowers[a.tv.ID], a.lower)
		}
		if !isTop(a.upper) {
			b.uppers[a.tv.ID] = append(b.uppers[a.tv.ID], a.upper)
		}
		if a.tv.Bound != nil {
			b.uppers[a.tv.ID] = append(b.uppers[a.tv.ID], a.tv.Bound)
		}
	}
	return b
}

// closedUppers returns the transitive upper bounds of tv: direct uppers plus
// the uppers of any typevar appearing as an upper. Declaration order of the
// typevars cannot affect the outcome since the closure is a graph walk.
func (b *bounds) closedUppers(tv *types.TypeVarType, seen map[int64]bool) []types.Type {
	if seen[tv.ID] {
		return nil
	}
	seen[tv.ID] = true
	var out []types.Type
	direct := b.uppers[tv.ID]
	if len(direct) == 0 && tv.Bound != nil {
		direct = []types.Type{tv.Bound}
	}
	for _, u := range direct {
		out = append(out, u)
		if utv, ok := u.(*types.TypeVarType); ok {
			out = append(out, b.closedUppers(utv, seen)...)
		}
	}
	return out
}

func (b *bounds) closedLowers(tv *types.TypeVarType, seen map[int64]bool) []types.Type {
	if seen[tv.ID] {
		return nil
	}
	seen[tv.ID] = true
	var out []types.Type
	for _, l := range b.lowers[tv.ID] {
		out = append(out, l)
		if ltv, ok := l.(*types.TypeVarType); ok {
			out = append(out, b.closedLowers(ltv, seen)...)
		}
	}
	return out
}

// unsatisfiable detects paths whose static bounds are inverted, e.g.
// str <= T <= int; such paths are vacuous for implication.
func (b *bounds) unsatisfiable() bool {
	for id, lows := range b.lowers {
		for _, l := range lows {
			if types.ContainsTypeVar(l) {
				continue
			}
			for _, u := range b.uppers[id] {
				if types.ContainsTypeVar(u) {
					continue
				}
				if !types.IsAssignableTo(l, u) {
					return true
				}
			}
		}
	}
	return false
}

// ImpliesSubtypeOf reports whether the constraint set forces a <: b for
// every satisfying assignment of the involved typevars. An unsatisfiable set
// vacuously implies anything.
func (cs *ConstraintSet) ImpliesSubtypeOf(a, b types.Type) bool {
	if cs.root == falseNode {
		return true
	}
	paths := truePaths(cs.root)
	if len(paths) == 0 {
		return true
	}
	for _, p := range paths {
		pb := pathBounds(p)
		if pb.unsatisfiable() {
			continue
		}
		if !subtypeUnder(a, b, pb) {
			return false
		}
	}
	return true
}

// subtypeUnder checks a <: b given per-typevar bounds. A typevar on the left
// is replaced by its (transitive) upper bounds: the relation must hold at
// the top of its range to hold everywhere. A typevar on the right uses its
// lower bounds symmetrically.
func subtypeUnder(a, b types.Type, pb *bounds) bool {
	// Trivial bounds hold regardless of collected ranges; without these an
	// unconstrained typevar (no stored uppers) would fail even against the
	// top type.
	if isTop(b) {
		return true
	}
	if _, ok := a.(*types.NeverType); ok {
		return true
	}
	if atv, ok := a.(*types.TypeVarType); ok {
		if btv, ok := b.(*types.TypeVarType); ok && atv.ID == btv.ID {
			return true
		}
		for _, u := range pb.closedUppers(atv, map[int64]bool{}) {
			if _, isTV := u.(*types.TypeVarType); isTV {
				continue
			}
			if subtypeUnder(u, b, pb) {
				return true
			}
		}
		// Direct typevar-to-typevar edge: T <= U proves T <: U.
		if btv, ok := b.(*types.TypeVarType); ok {
			for _, u := range pb.closedUppers(atv, map[int64]bool{}) {
				if utv, isTV := u.(*types.TypeVarType); isTV && utv.ID == btv.ID {
					return true
				}
			}
		}
		return false
	}
	if btv, ok := b.(*types.TypeVarType); ok {
		for _, l := range pb.closedLowers(btv, map[int64]bool{}) {
			if _, isTV := l.(*types.TypeVarType); isTV {
				continue
			}
			if subtypeUnder(a, l, pb) {
				return true
			}
		}
		return false
	}

	ai, aInst := a.(*types.InstanceType)
	bi, bInst := b.(*types.InstanceType)
	if aInst && bInst && ai.Class.ID == bi.Class.ID && len(ai.Args) == len(bi.Args) && len(ai.Args) > 0 {
		// Variance-aware lifting: T <= X implies C[T] <: C[X] only in a
		// covariant position; invariant positions demand equality in both
		// directions; contravariant positions reverse the comparison.
		for i := range ai.Args {
			v := types.Invariant
			if i < len(ai.Class.TypeParams) {
				v = ai.Class.TypeParams[i].Variance
			}
			switch v {
			case types.Covariant:
				if !subtypeUnder(ai.Args[i], bi.Args[i], pb) {
					return false
				}
			case types.Contravariant:
				if !subtypeUnder(bi.Args[i], ai.Args[i], pb) {
					return false
				}
			default:
				if !equalUnder(ai.Args[i], bi.Args[i], pb) {
					return false
				}
			}
		}
		return true
	}

	if !types.ContainsTypeVar(a) && !types.ContainsTypeVar(b) {
		return types.IsSubtypeOf(a, b)
	}
	return false
}

// equalUnder checks that x and y must be equal for every satisfying
// assignment: either structurally equal, or a typevar pinched to exactly the
// other type from both sides.
func equalUnder(x, y types.Type, pb *bounds) bool {
	if x.Equals(y) {
		return true
	}
	if xtv, ok := x.(*types.TypeVarType); ok {
		return pinnedTo(xtv, y, pb)
	}
	if ytv, ok := y.(*types.TypeVarType); ok {
		return pinnedTo(ytv, x, pb)
	}
	return false
}

func pinnedTo(tv *types.TypeVarType, t types.Type, pb *bounds) bool {
	lowerHit := false
	for _, l := range pb.closedLowers(tv, map[int64]bool{}) {
		if l.Equals(t) {
			lowerHit = true
			break
		}
	}
	if !lowerHit {
		return false
	}
	for _, u := range pb.closedUppers(tv, map[int64]bool{}) {
		if u.Equals(t) {
			return true
		}
	}
	return false
}

// --- Relation-to-constraints translation ---

// WhenSubtypeOf returns the constraint set describing exactly which typevar
// specializations make a <: b hold. For typevar-free operands the answer is
// Always or Never; subtyping materializes dynamic bounds conservatively.
func WhenSubtypeOf(a, b types.Type) *ConstraintSet {
	return when(a, b, false)
}

// WhenAssignableTo is the assignability analogue: dynamic types succeed
// permissively (their bottom/top materializations are chosen in the
// relation's favor).
func WhenAssignableTo(a, b types.Type) *ConstraintSet {
	return when(a, b, true)
}

func when(a, b types.Type, gradual bool) *ConstraintSet {
	if gradual && (types.IsDynamic(a) || types.IsDynamic(b)) {
		return Always()
	}
	if atv, ok := a.(*types.TypeVarType); ok {
		if btv, ok := b.(*types.TypeVarType); ok && atv.ID == btv.ID {
			return Always()
		}
		return Range(types.Never, atv, b)
	}
	if btv, ok := b.(*types.TypeVarType); ok {
		return Range(a, btv, types.ObjectClass.Instance())
	}

	if ua, ok := a.(*types.UnionType); ok {
		cs := Always()
		for _, m := range ua.Members {
			cs = cs.And(when(m, b, gradual))
		}
		return cs
	}
	if ub, ok := b.(*types.UnionType); ok {
		cs := Never()
		for _, m := range ub.Members {
			cs = cs.Or(when(a, m, gradual))
		}
		return cs
	}

	ai, aInst := a.(*types.InstanceType)
	bi, bInst := b.(*types.InstanceType)
	if aInst && bInst && ai.Class.ID == bi.Class.ID && len(ai.Args) == len(bi.Args) && len(ai.Args) > 0 {
		cs := Always()
		for i := range ai.Args {
			v := types.Invariant
			if i < len(ai.Class.TypeParams) {
				v = ai.Class.TypeParams[i].Variance
			}
			switch v {
			case types.Covariant:
				cs = cs.And(when(ai.Args[i], bi.Args[i], gradual))
			case types.Contravariant:
				cs = cs.And(when(bi.Args[i], ai.Args[i], gradual))
			default:
				cs = cs.And(when(ai.Args[i], bi.Args[i], gradual))
				cs = cs.And(when(bi.Args[i], ai.Args[i], gradual))
			}
		}
		return cs
	}

	ta, aTup := a.(*types.TupleType)
	tb, bTup := b.(*types.TupleType)
	if aTup && bTup && !ta.Variadic && !tb.Variadic && len(ta.Elems) == len(tb.Elems) {
		cs := Always()
		for i := range ta.Elems {
			cs = cs.And(when(ta.Elems[i], tb.Elems[i], gradual))
		}
		return cs
	}

	if !types.ContainsTypeVar(a) && !types.ContainsTypeVar(b) {
		var holds bool
		if gradual {
			holds = types.IsAssignableTo(a, b)
		} else {
			holds = types.IsSubtypeOf(a, b)
		}
		if holds {
			return Always()
		}
		return Never()
	}
	// A typevar buried somewhere this translation does not decompose:
	// refuse to guess.
	return Never()
}
