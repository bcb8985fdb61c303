package types

import "strings"

// ParamKind is the binding discipline of one callable parameter.
type ParamKind int

const (
	PosOnly ParamKind = iota
	PosOrKw
	KwOnly
	VarPos // *args
	VarKw  // **kwargs
)

// Param is one parameter of a callable signature.
type Param struct {
	Name       string
	Kind       ParamKind
	Type       Type // nil means unannotated (treated as Any)
	HasDefault bool
}

// AnnotatedType returns the parameter's annotation, or Any when unannotated.
func (p Param) AnnotatedType() Type {
	if p.Type == nil {
		return Any
	}
	return p.Type
}

// GuardKind distinguishes the two user-defined narrowing predicate forms.
type GuardKind int

const (
	// GuardTypeGuard: a true result asserts the target type unconditionally.
	GuardTypeGuard GuardKind = iota
	// GuardTypeIs: a true result intersects with the argument's own type,
	// and a false result subtracts the target.
	GuardTypeIs
)

// TypeGuardInfo marks a callable as a narrowing predicate over one of its
// parameters.
type TypeGuardInfo struct {
	Kind       GuardKind
	Target     Type
	ParamIndex int
}

// CallableType is the type of a single (non-overloaded) callable.
type CallableType struct {
	Name   string // empty for anonymous callables
	Params []Param
	Return Type
	Guard  *TypeGuardInfo // non-nil for TypeGuard/TypeIs predicates
}

func (ct *CallableType) String() string {
	var b strings.Builder
	b.WriteString("(")
	lastPosOnly := -1
	for i, p := range ct.Params {
		if p.Kind == PosOnly {
			lastPosOnly = i
		}
	}
	wroteStar := false
	for i, p := range ct.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch p.Kind {
		case VarPos:
			b.WriteString("*")
			wroteStar = true
		case VarKw:
			b.WriteString("**")
		case KwOnly:
			if !wroteStar {
				b.WriteString("*, ")
				wroteStar = true
			}
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			if p.Type != nil {
				b.WriteString(": ")
			}
		}
		if p.Type != nil {
			b.WriteString(p.Type.String())
		}
		if p.HasDefault {
			b.WriteString(" = ...")
		}
		if i == lastPosOnly {
			b.WriteString(", /")
		}
	}
	b.WriteString(") -> ")
	if ct.Return != nil {
		b.WriteString(ct.Return.String())
	} else {
		b.WriteString("None")
	}
	return b.String()
}
func (ct *CallableType) typeNode() {}

func (ct *CallableType) Equals(other Type) bool {
	o, ok := other.(*CallableType)
	if !ok || len(o.Params) != len(ct.Params) {
		return false
	}
	for i := range ct.Params {
		p, q := ct.Params[i], o.Params[i]
		if p.Kind != q.Kind || p.HasDefault != q.HasDefault {
			return false
		}
		// Positional-only parameter names do not participate in identity.
		if p.Kind != PosOnly && p.Name != q.Name {
			return false
		}
		if !p.AnnotatedType().Equals(q.AnnotatedType()) {
			return false
		}
	}
	retA, retB := ct.Return, o.Return
	if retA == nil {
		retA = NoneClass.Instance()
	}
	if retB == nil {
		retB = NoneClass.Instance()
	}
	return retA.Equals(retB)
}

// ReturnType returns the declared return, or None when unannotated.
func (ct *CallableType) ReturnType() Type {
	if ct.Return == nil {
		return NoneClass.Instance()
	}
	return ct.Return
}

// --- Bound methods ---

// BoundMethodType is a method retrieved from an instance, with the receiver
// already bound.
type BoundMethodType struct {
	FuncName  string
	ClassName string
	Func      *CallableType
	Self      Type
}

func (bm *BoundMethodType) String() string {
	return "<bound method '" + bm.FuncName + "' of '" + bm.ClassName + "'>"
}
func (bm *BoundMethodType) typeNode() {}
func (bm *BoundMethodType) Equals(other Type) bool {
	o, ok := other.(*BoundMethodType)
	return ok && o.FuncName == bm.FuncName && o.ClassName == bm.ClassName &&
		o.Func.Equals(bm.Func) && o.Self.Equals(bm.Self)
}

// --- Overload groups ---

// OverloadedType groups the ordered candidate signatures of one overloaded
// callable. Order matters: overload resolution tries candidates in
// declaration order.
type OverloadedType struct {
	Name      string
	Overloads []*CallableType
}

func (ot *OverloadedType) String() string {
	return "Overload[" + ot.Name + "]"
}
func (ot *OverloadedType) typeNode() {}
func (ot *OverloadedType) Equals(other Type) bool {
	o, ok := other.(*OverloadedType)
	if !ok || o.Name != ot.Name || len(o.Overloads) != len(ot.Overloads) {
		return false
	}
	for i := range ot.Overloads {
		if !ot.Overloads[i].Equals(o.Overloads[i]) {
			return false
		}
	}
	return true
}
