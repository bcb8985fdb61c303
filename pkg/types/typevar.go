package types

import "sync/atomic"

var nextTypeVarID atomic.Int64

// TypeVarType is a type variable: an as-yet-undetermined type, optionally
// bounded or constrained. Identity is by ID, not name, so two typevars
// spelled `T` in different scopes stay distinct.
type TypeVarType struct {
	ID          int64
	Name        string
	Bound       Type   // upper bound, or nil
	Constraints []Type // value constraints (TypeVar("T", int, str)), or nil
	Default     Type   // or nil
	Variance    Variance
}

// NewTypeVar allocates a fresh type variable.
func NewTypeVar(name string) *TypeVarType {
	return &TypeVarType{ID: nextTypeVarID.Add(1), Name: name}
}

// NewBoundedTypeVar allocates a type variable with an upper bound.
func NewBoundedTypeVar(name string, bound Type) *TypeVarType {
	tv := NewTypeVar(name)
	tv.Bound = bound
	return tv
}

// WithVariance sets the declared variance and returns the typevar.
func (tv *TypeVarType) WithVariance(v Variance) *TypeVarType {
	tv.Variance = v
	return tv
}

func (tv *TypeVarType) String() string { return tv.Name }
func (tv *TypeVarType) typeNode()      {}
func (tv *TypeVarType) Equals(other Type) bool {
	o, ok := other.(*TypeVarType)
	return ok && o.ID == tv.ID
}

// UpperBound returns the typevar's effective upper bound (object when no
// bound is declared).
func (tv *TypeVarType) UpperBound() Type {
	if tv.Bound != nil {
		return tv.Bound
	}
	return ObjectClass.Instance()
}

// ContainsTypeVar reports whether t mentions any type variable.
func ContainsTypeVar(t Type) bool {
	switch v := t.(type) {
	case *TypeVarType:
		return true
	case *InstanceType:
		for _, a := range v.Args {
			if ContainsTypeVar(a) {
				return true
			}
		}
	case *UnionType:
		for _, m := range v.Members {
			if ContainsTypeVar(m) {
				return true
			}
		}
	case *IntersectionType:
		for _, m := range v.Positive {
			if ContainsTypeVar(m) {
				return true
			}
		}
		for _, m := range v.Negative {
			if ContainsTypeVar(m) {
				return true
			}
		}
	case *TupleType:
		for _, e := range v.Elems {
			if ContainsTypeVar(e) {
				return true
			}
		}
	case *CallableType:
		for _, p := range v.Params {
			if p.Type != nil && ContainsTypeVar(p.Type) {
				return true
			}
		}
		if v.Return != nil && ContainsTypeVar(v.Return) {
			return true
		}
	}
	return false
}

// FreeTypeVars collects the distinct type variables mentioned in t.
func FreeTypeVars(t Type) []*TypeVarType {
	var out []*TypeVarType
	seen := map[int64]bool{}
	var walk func(Type)
	walk = func(u Type) {
		switch v := u.(type) {
		case *TypeVarType:
			if !seen[v.ID] {
				seen[v.ID] = true
				out = append(out, v)
			}
		case *InstanceType:
			for _, a := range v.Args {
				walk(a)
			}
		case *UnionType:
			for _, m := range v.Members {
				walk(m)
			}
		case *IntersectionType:
			for _, m := range v.Positive {
				walk(m)
			}
			for _, m := range v.Negative {
				walk(m)
			}
		case *TupleType:
			for _, e := range v.Elems {
				walk(e)
			}
		case *CallableType:
			for _, p := range v.Params {
				if p.Type != nil {
					walk(p.Type)
				}
			}
			if v.Return != nil {
				walk(v.Return)
			}
		}
	}
	walk(t)
	return out
}

// Substitute replaces typevars in t according to the mapping. Types without
// typevars are returned unchanged.
func Substitute(t Type, mapping map[int64]Type) Type {
	if len(mapping) == 0 || !ContainsTypeVar(t) {
		return t
	}
	switch v := t.(type) {
	case *TypeVarType:
		if r, ok := mapping[v.ID]; ok {
			return r
		}
		return v
	case *InstanceType:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = Substitute(a, mapping)
		}
		return &InstanceType{Class: v.Class, Args: args}
	case *UnionType:
		members := make([]Type, len(v.Members))
		for i, m := range v.Members {
			members[i] = Substitute(m, mapping)
		}
		return NewUnion(members...)
	case *IntersectionType:
		pos := make([]Type, len(v.Positive))
		for i, m := range v.Positive {
			pos[i] = Substitute(m, mapping)
		}
		neg := make([]Type, len(v.Negative))
		for i, m := range v.Negative {
			neg[i] = Substitute(m, mapping)
		}
		return NewIntersection(pos, neg)
	case *TupleType:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Substitute(e, mapping)
		}
		return &TupleType{Elems: elems, Variadic: v.Variadic}
	case *CallableType:
		params := make([]Param, len(v.Params))
		for i, p := range v.Params {
			np := p
			if p.Type != nil {
				np.Type = Substitute(p.Type, mapping)
			}
			params[i] = np
		}
		ret := v.Return
		if ret != nil {
			ret = Substitute(ret, mapping)
		}
		return &CallableType{Name: v.Name, Params: params, Return: ret, Guard: v.Guard}
	}
	return t
}
