package types

// Type is the interface implemented by all type representations.
type Type interface {
	// String returns the canonical rendered form of the type, as surfaced
	// by reveal_type.
	String() string
	// Equals checks if this type is structurally equivalent to another type
	// after normalization.
	Equals(other Type) bool

	// typeNode() is a marker method to ensure only types defined in this
	// package can be assigned to the Type interface. This keeps the type
	// system a closed set of variants.
	typeNode()
}

// Variance of a generic parameter position.
type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
	Bivariant
)

// ComposeVariance combines an outer position's variance with an inner
// declared variance: invariant and bivariant positions dominate, a
// contravariant outer flips the inner direction.
func ComposeVariance(outer, inner Variance) Variance {
	switch outer {
	case Invariant:
		return Invariant
	case Bivariant:
		return Bivariant
	case Contravariant:
		switch inner {
		case Covariant:
			return Contravariant
		case Contravariant:
			return Covariant
		default:
			return inner
		}
	default:
		return inner
	}
}

// --- Never ---

// NeverType is the bottom type: a subtype of everything, with no values.
type NeverType struct{}

// Never is the singleton bottom type.
var Never Type = &NeverType{}

func (n *NeverType) String() string { return "Never" }
func (n *NeverType) typeNode()      {}
func (n *NeverType) Equals(other Type) bool {
	_, ok := other.(*NeverType)
	return ok
}

// --- Dynamic types ---

// DynamicKind distinguishes the dynamic-type flavors. They are mutually
// equivalent for all subtyping and narrowing purposes; the distinction only
// survives into rendering.
type DynamicKind int

const (
	AnyKind DynamicKind = iota
	UnknownKind
	TodoKind
)

// DynamicType represents an unresolvable or unchecked set of possible runtime
// types. It participates permissively in assignability (every materialization
// is allowed) and is the universal fallback type for erroring expressions.
type DynamicType struct {
	Kind DynamicKind
	Note string // only for TodoKind
}

var (
	// Any is the explicitly-dynamic type (from an `Any` annotation).
	Any = &DynamicType{Kind: AnyKind}
	// Unknown is the implicitly-dynamic type produced by inference failures.
	Unknown = &DynamicType{Kind: UnknownKind}
)

// Todo marks a partially-modeled construct. Behaviorally identical to
// Unknown, but renders its note for debugging fixtures.
func Todo(note string) *DynamicType {
	return &DynamicType{Kind: TodoKind, Note: note}
}

func (d *DynamicType) String() string {
	switch d.Kind {
	case AnyKind:
		return "Any"
	case TodoKind:
		return "@Todo(" + d.Note + ")"
	default:
		return "Unknown"
	}
}
func (d *DynamicType) typeNode() {}

// Equals treats all dynamic types as mutually equivalent: every
// materialization of one is a materialization of the other.
func (d *DynamicType) Equals(other Type) bool {
	_, ok := other.(*DynamicType)
	return ok
}

// IsDynamic reports whether t is one of the dynamic types.
func IsDynamic(t Type) bool {
	_, ok := t.(*DynamicType)
	return ok
}

// --- Truthiness markers ---

// TruthinessMarker is one of the special AlwaysTruthy/AlwaysFalsy types: the
// set of objects whose truthiness is definitionally fixed. The narrowing
// engine intersects with their negations when a tested instance's truthiness
// cannot be decided statically.
type TruthinessMarker struct {
	Truthy bool
}

var (
	AlwaysTruthy Type = &TruthinessMarker{Truthy: true}
	AlwaysFalsy  Type = &TruthinessMarker{Truthy: false}
)

func (m *TruthinessMarker) String() string {
	if m.Truthy {
		return "AlwaysTruthy"
	}
	return "AlwaysFalsy"
}
func (m *TruthinessMarker) typeNode() {}
func (m *TruthinessMarker) Equals(other Type) bool {
	o, ok := other.(*TruthinessMarker)
	return ok && o.Truthy == m.Truthy
}

// --- Module literals ---

// ModuleLiteralType is the type of one specific module object.
type ModuleLiteralType struct {
	Name string
}

func NewModuleLiteral(name string) *ModuleLiteralType {
	return &ModuleLiteralType{Name: name}
}

func (m *ModuleLiteralType) String() string { return "<module '" + m.Name + "'>" }
func (m *ModuleLiteralType) typeNode()      {}
func (m *ModuleLiteralType) Equals(other Type) bool {
	o, ok := other.(*ModuleLiteralType)
	return ok && o.Name == m.Name
}
