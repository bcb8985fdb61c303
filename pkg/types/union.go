package types

import (
	"sort"
	"strings"
)

// UnionType represents a union of multiple types. Members are stored in a
// canonical sorted order so that unions built in any insertion order compare
// structurally equal.
type UnionType struct {
	Members []Type
}

func (ut *UnionType) String() string {
	// Literal members render merged into a single bracket: Literal[1, 2, 3],
	// never Literal[1] | Literal[2] | Literal[3].
	var litVals []string
	var rest []string
	var parts []string
	for _, m := range ut.Members {
		if lit, ok := m.(*LiteralType); ok {
			litVals = append(litVals, lit.ValueString())
			continue
		}
		rest = append(rest, m.String())
	}
	if len(litVals) > 0 {
		parts = append(parts, "Literal["+strings.Join(litVals, ", ")+"]")
	}
	parts = append(parts, rest...)
	return strings.Join(parts, " | ")
}
func (ut *UnionType) typeNode() {}

// Equals compares unions as sets: same unique members, any order.
func (ut *UnionType) Equals(other Type) bool {
	o, ok := other.(*UnionType)
	if !ok {
		return false
	}
	if len(ut.Members) != len(o.Members) {
		return false
	}
	matched := make([]bool, len(o.Members))
	for _, m := range ut.Members {
		found := false
		for j, n := range o.Members {
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

// ContainsMember checks if the union has a member equal to target.
func (ut *UnionType) ContainsMember(target Type) bool {
	for _, m := range ut.Members {
		if m.Equals(target) {
			return true
		}
	}
	return false
}

// canonicalKey is the stable structural sort key used to order union and
// intersection members. Literals sort before other members, grouped by kind
// then value, so the rendered Literal[...] block is deterministic.
func canonicalKey(t Type) string {
	if lit, ok := t.(*LiteralType); ok {
		kindKey := [...]string{"int", "bool", "str", "bytes", "enum"}[lit.Kind]
		return "0:" + kindKey + ":" + lit.ValueString()
	}
	return "1:" + t.String()
}

// NewUnion creates a union from the given types: flattens nested unions,
// drops Never, deduplicates structurally-equal members, absorbs members that
// are subtypes of other members, and sorts into canonical order. A single
// surviving member is returned unwrapped; no members yields Never.
func NewUnion(ts ...Type) Type {
	var flat []Type
	var collect func(t Type)
	collect = func(t Type) {
		switch v := t.(type) {
		case nil:
			return
		case *NeverType:
			return
		case *UnionType:
			for _, m := range v.Members {
				collect(m)
			}
		default:
			flat = append(flat, t)
		}
	}
	for _, t := range ts {
		collect(t)
	}

	// Deduplicate by structural equality.
	var unique []Type
	for _, t := range flat {
		dup := false
		for _, u := range unique {
			if t.Equals(u) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, t)
		}
	}

	// Absorb members subsumed by another member. Dynamic types neither
	// absorb nor are absorbed: Any | int stays a two-member union.
	var members []Type
	for i, t := range unique {
		absorbed := false
		if !IsDynamic(t) {
			for j, u := range unique {
				if i == j || IsDynamic(u) {
					continue
				}
				if IsSubtypeOf(t, u) && !(IsSubtypeOf(u, t) && j > i) {
					absorbed = true
					break
				}
			}
		}
		if !absorbed {
			members = append(members, t)
		}
	}

	if len(members) == 0 {
		return Never
	}
	if len(members) == 1 {
		return members[0]
	}
	sort.SliceStable(members, func(i, j int) bool {
		return canonicalKey(members[i]) < canonicalKey(members[j])
	})
	return &UnionType{Members: members}
}

// UnionMembers returns t's members if it is a union, else t itself.
func UnionMembers(t Type) []Type {
	if u, ok := t.(*UnionType); ok {
		return u.Members
	}
	return []Type{t}
}
