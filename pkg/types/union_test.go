package types

import (
	"testing"
)

func TestUnionOrderIndependence(t *testing.T) {
	a := NewUnion(IntClass.Instance(), StrClass.Instance(), None)
	b := NewUnion(None, IntClass.Instance(), StrClass.Instance())
	c := NewUnion(StrClass.Instance(), None, IntClass.Instance())

	if !a.Equals(b) {
		t.Errorf("Expected %s to equal %s", a.String(), b.String())
	}
	if !a.Equals(c) {
		t.Errorf("Expected %s to equal %s", a.String(), c.String())
	}
	if a.String() != b.String() || b.String() != c.String() {
		t.Errorf("Expected identical rendering, got %q / %q / %q", a.String(), b.String(), c.String())
	}
}

func TestUnionFlattensNested(t *testing.T) {
	inner := NewUnion(IntClass.Instance(), StrClass.Instance())
	outer := NewUnion(inner, None)

	u, ok := outer.(*UnionType)
	if !ok {
		t.Fatalf("Expected a union, got %s", outer.String())
	}
	if len(u.Members) != 3 {
		t.Errorf("Expected 3 members after flattening, got %d (%s)", len(u.Members), outer.String())
	}
}

func TestUnionDropsNever(t *testing.T) {
	u := NewUnion(IntClass.Instance(), Never)
	if !u.Equals(IntClass.Instance()) {
		t.Errorf("Expected int, got %s", u.String())
	}

	if got := NewUnion(Never, Never); !got.Equals(Never) {
		t.Errorf("Expected Never, got %s", got.String())
	}
}

func TestUnionDeduplicates(t *testing.T) {
	u := NewUnion(IntClass.Instance(), IntClass.Instance(), IntClass.Instance())
	if !u.Equals(IntClass.Instance()) {
		t.Errorf("Expected duplicate members to collapse, got %s", u.String())
	}
}

func TestUnionSubtypeAbsorption(t *testing.T) {
	// bool is a subtype of int, so int | bool collapses to int.
	u := NewUnion(IntClass.Instance(), BoolClass.Instance())
	if !u.Equals(IntClass.Instance()) {
		t.Errorf("Expected bool to be absorbed into int, got %s", u.String())
	}

	// Literals are absorbed by their base instance type.
	u = NewUnion(IntClass.Instance(), NewIntLit(3))
	if !u.Equals(IntClass.Instance()) {
		t.Errorf("Expected Literal[3] to be absorbed into int, got %s", u.String())
	}
}

func TestUnionKeepsDynamicMembers(t *testing.T) {
	// Any would absorb everything under assignability; the union must keep
	// both members so the dynamic part stays visible.
	u := NewUnion(IntClass.Instance(), Any)
	un, ok := u.(*UnionType)
	if !ok {
		t.Fatalf("Expected int | Any to stay a union, got %s", u.String())
	}
	if len(un.Members) != 2 {
		t.Errorf("Expected 2 members, got %d (%s)", len(un.Members), u.String())
	}
}

func TestUnionLiteralRendering(t *testing.T) {
	u := NewUnion(NewIntLit(1), NewIntLit(2), NewIntLit(3))
	if got := u.String(); got != "Literal[1, 2, 3]" {
		t.Errorf("Expected Literal[1, 2, 3], got %q", got)
	}

	mixed := NewUnion(NewIntLit(1), StrClass.Instance(), NewIntLit(2))
	got := mixed.String()
	if got != "Literal[1, 2] | str" && got != "str | Literal[1, 2]" {
		t.Errorf("Expected merged literal bracket in rendering, got %q", got)
	}
}

func TestUnionBoolLiteralPair(t *testing.T) {
	u := NewUnion(NewBoolLit(true), NewBoolLit(false))
	un, ok := u.(*UnionType)
	if !ok {
		t.Fatalf("Expected Literal[True] | Literal[False] to stay a union, got %s", u.String())
	}
	if len(un.Members) != 2 {
		t.Errorf("Expected both bool literals kept, got %s", u.String())
	}
}

func TestUnionSingleMemberUnwraps(t *testing.T) {
	if got := NewUnion(StrClass.Instance()); !got.Equals(StrClass.Instance()) {
		t.Errorf("Expected single-member union to unwrap, got %s", got.String())
	}
}
