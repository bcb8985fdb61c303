package types

import "strings"

// TupleType is a covariant, fixed-length tuple, or a homogeneous variadic
// tuple (`tuple[T, ...]`) when Variadic is set (Elems then has length 1).
type TupleType struct {
	Elems    []Type
	Variadic bool
}

func NewTuple(elems ...Type) *TupleType {
	return &TupleType{Elems: elems}
}

func NewVariadicTuple(elem Type) *TupleType {
	return &TupleType{Elems: []Type{elem}, Variadic: true}
}

func (t *TupleType) String() string {
	if t.Variadic {
		return "tuple[" + t.Elems[0].String() + ", ...]"
	}
	if len(t.Elems) == 0 {
		return "tuple[()]"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "tuple[" + strings.Join(parts, ", ") + "]"
}
func (t *TupleType) typeNode() {}

func (t *TupleType) Equals(other Type) bool {
	o, ok := other.(*TupleType)
	if !ok || o.Variadic != t.Variadic || len(o.Elems) != len(t.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equals(o.Elems[i]) {
			return false
		}
	}
	return true
}
