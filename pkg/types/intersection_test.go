package types

import (
	"testing"
)

func TestIntersectionDisjointCollapsesToNever(t *testing.T) {
	// int and str are both final in the sense that no class can inherit
	// from both, so their intersection is uninhabited.
	got := NewIntersection([]Type{IntClass.Instance(), StrClass.Instance()}, nil)
	if !got.Equals(Never) {
		t.Errorf("Expected int & str to be Never, got %s", got.String())
	}
}

func TestIntersectionSubsumption(t *testing.T) {
	// bool & int keeps only the more specific positive.
	got := NewIntersection([]Type{BoolClass.Instance(), IntClass.Instance()}, nil)
	if !got.Equals(BoolClass.Instance()) {
		t.Errorf("Expected bool & int to collapse to bool, got %s", got.String())
	}
}

func TestIntersectionNeverAbsorbs(t *testing.T) {
	got := NewIntersection([]Type{IntClass.Instance(), Never}, nil)
	if !got.Equals(Never) {
		t.Errorf("Expected int & Never to be Never, got %s", got.String())
	}
}

func TestDoubleNegationCollapses(t *testing.T) {
	neg := NewNegation(IntClass.Instance())
	got := NewNegation(neg)
	if !got.Equals(IntClass.Instance()) {
		t.Errorf("Expected ~~int to be int, got %s", got.String())
	}
}

func TestNegatedUnionSplits(t *testing.T) {
	// ~(int | str) becomes ~int & ~str.
	u := NewUnion(IntClass.Instance(), StrClass.Instance())
	got := NewNegation(u)
	i, ok := got.(*IntersectionType)
	if !ok {
		t.Fatalf("Expected an intersection, got %s", got.String())
	}
	if len(i.Negative) != 2 {
		t.Errorf("Expected 2 negative terms, got %d (%s)", len(i.Negative), got.String())
	}
	if len(i.Positive) != 0 {
		t.Errorf("Expected no positive terms, got %s", got.String())
	}
}

func TestNegativeClashingWithPositive(t *testing.T) {
	// int & ~int is uninhabited.
	got := NewIntersection([]Type{IntClass.Instance()}, []Type{IntClass.Instance()})
	if !got.Equals(Never) {
		t.Errorf("Expected int & ~int to be Never, got %s", got.String())
	}

	// bool & ~int: the negative subsumes the positive entirely.
	got = NewIntersection([]Type{BoolClass.Instance()}, []Type{IntClass.Instance()})
	if !got.Equals(Never) {
		t.Errorf("Expected bool & ~int to be Never, got %s", got.String())
	}
}

func TestDisjointNegativeDropped(t *testing.T) {
	// int & ~str: the negative excludes nothing int contains.
	got := NewIntersection([]Type{IntClass.Instance()}, []Type{StrClass.Instance()})
	if !got.Equals(IntClass.Instance()) {
		t.Errorf("Expected int & ~str to simplify to int, got %s", got.String())
	}
}

func TestEmptyIntersectionIsObject(t *testing.T) {
	got := NewIntersection(nil, nil)
	if !got.Equals(ObjectClass.Instance()) {
		t.Errorf("Expected the empty intersection to be object, got %s", got.String())
	}
}

func TestIntersectionOrderIndependence(t *testing.T) {
	a := NewIntersection([]Type{IntClass.Instance()}, []Type{NewIntLit(0), NewIntLit(1)})
	b := NewIntersection([]Type{IntClass.Instance()}, []Type{NewIntLit(1), NewIntLit(0)})
	if !a.Equals(b) {
		t.Errorf("Expected %s to equal %s", a.String(), b.String())
	}
}

func TestIntersectionFlattensNested(t *testing.T) {
	inner := NewIntersection([]Type{IntClass.Instance()}, []Type{NewIntLit(0)})
	outer := NewIntersection([]Type{inner}, []Type{NewIntLit(1)})
	i, ok := outer.(*IntersectionType)
	if !ok {
		t.Fatalf("Expected an intersection, got %s", outer.String())
	}
	if len(i.Positive) != 1 || len(i.Negative) != 2 {
		t.Errorf("Expected 1 positive and 2 negatives, got %s", outer.String())
	}
}
