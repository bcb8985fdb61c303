package types

import (
	"sort"
	"strings"
)

// IntersectionType is a conjunction of positive constraints and negated
// (excluded) constraints. It is always stored in canonical simplified form:
// no redundant or contradictory terms survive construction.
type IntersectionType struct {
	Positive []Type
	Negative []Type
}

func (it *IntersectionType) String() string {
	parts := make([]string, 0, len(it.Positive)+len(it.Negative))
	for _, t := range it.Positive {
		parts = append(parts, t.String())
	}
	for _, t := range it.Negative {
		parts = append(parts, "~"+t.String())
	}
	return strings.Join(parts, " & ")
}
func (it *IntersectionType) typeNode() {}

func (it *IntersectionType) Equals(other Type) bool {
	o, ok := other.(*IntersectionType)
	if !ok {
		return false
	}
	return setEqual(it.Positive, o.Positive) && setEqual(it.Negative, o.Negative)
}

func setEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, m := range a {
		found := false
		for j, n := range b {
			if !matched[j] && m.Equals(n) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewNegation builds ~t in canonical form.
func NewNegation(t Type) Type {
	return NewIntersection(nil, []Type{t})
}

// NewIntersection creates an intersection from positive and negative terms,
// in canonical simplified form:
//   - nested intersections are flattened into their pos/neg parts;
//   - a negated union splits into one negative per member (De Morgan), and a
//     negated negation returns to the positive side;
//   - a term appearing both positively and negatively, two disjoint
//     positives, or a negative subsuming a positive all collapse to Never;
//   - positives subsumed by a tighter positive are dropped, as are negatives
//     disjoint from the positive part;
//   - an empty intersection is object (the top type).
func NewIntersection(positives, negatives []Type) Type {
	var pos, neg []Type

	var addPos, addNeg func(t Type)
	addPos = func(t Type) {
		switch v := t.(type) {
		case nil:
			return
		case *IntersectionType:
			for _, p := range v.Positive {
				addPos(p)
			}
			for _, n := range v.Negative {
				addNeg(n)
			}
		default:
			pos = append(pos, t)
		}
	}
	addNeg = func(t Type) {
		switch v := t.(type) {
		case nil:
			return
		case *NeverType:
			// ~Never excludes nothing.
			return
		case *IntersectionType:
			if len(v.Positive) == 0 && len(v.Negative) == 1 {
				// Double negation.
				addPos(v.Negative[0])
				return
			}
			neg = append(neg, t)
		case *UnionType:
			// ~(A | B) == ~A & ~B
			for _, m := range v.Members {
				addNeg(m)
			}
		default:
			neg = append(neg, t)
		}
	}
	for _, t := range positives {
		addPos(t)
	}
	for _, t := range negatives {
		addNeg(t)
	}

	// Never among the positives poisons the whole conjunction.
	for _, t := range pos {
		if _, ok := t.(*NeverType); ok {
			return Never
		}
	}

	pos = dedup(pos)
	neg = dedup(neg)

	// Drop positives subsumed by a strictly tighter positive.
	var keptPos []Type
	for i, t := range pos {
		redundant := false
		if !IsDynamic(t) {
			for j, u := range pos {
				if i == j || IsDynamic(u) {
					continue
				}
				if IsSubtypeOf(u, t) && !(IsSubtypeOf(t, u) && j > i) {
					redundant = true
					break
				}
			}
		}
		if !redundant {
			keptPos = append(keptPos, t)
		}
	}
	pos = keptPos

	// Disjoint positives have no common inhabitant.
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			if IsDisjointFrom(pos[i], pos[j]) {
				return Never
			}
		}
	}

	// A negative that subsumes a positive empties the intersection; one
	// disjoint from a positive is redundant.
	var keptNeg []Type
	for _, n := range neg {
		contradicted := false
		redundant := false
		for _, p := range pos {
			if IsSubtypeOf(p, n) {
				contradicted = true
				break
			}
			if IsDisjointFrom(p, n) {
				redundant = true
			}
		}
		if contradicted {
			return Never
		}
		if !redundant {
			keptNeg = append(keptNeg, n)
		}
	}
	neg = keptNeg

	if len(pos) == 0 && len(neg) == 0 {
		return ObjectClass.Instance()
	}
	if len(pos) == 1 && len(neg) == 0 {
		return pos[0]
	}

	sort.SliceStable(pos, func(i, j int) bool { return canonicalKey(pos[i]) < canonicalKey(pos[j]) })
	sort.SliceStable(neg, func(i, j int) bool { return canonicalKey(neg[i]) < canonicalKey(neg[j]) })
	return &IntersectionType{Positive: pos, Negative: neg}
}

func dedup(ts []Type) []Type {
	var out []Type
	for _, t := range ts {
		dup := false
		for _, u := range out {
			if t.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}
