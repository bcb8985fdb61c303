package types

import (
	"fmt"
	"strconv"
)

// LiteralKind distinguishes the value categories a literal type can carry.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	BoolLiteral
	StrLiteral
	BytesLiteral
	EnumLiteral
)

// LiteralType is a type inhabited by exactly one runtime value. Every
// literal is a singleton subtype of its corresponding instance type:
// Literal[True] of bool, Literal["x"] of str, and so on.
type LiteralType struct {
	Kind     LiteralKind
	IntVal   int64
	BoolVal  bool
	StrVal   string
	BytesVal string // stored as string so literals stay comparable
	EnumCls  *Class
	EnumName string
}

func NewIntLit(v int64) *LiteralType     { return &LiteralType{Kind: IntLiteral, IntVal: v} }
func NewBoolLit(v bool) *LiteralType     { return &LiteralType{Kind: BoolLiteral, BoolVal: v} }
func NewStrLit(v string) *LiteralType    { return &LiteralType{Kind: StrLiteral, StrVal: v} }
func NewBytesLit(v []byte) *LiteralType  { return &LiteralType{Kind: BytesLiteral, BytesVal: string(v)} }

func NewEnumLit(cls *Class, member string) *LiteralType {
	return &LiteralType{Kind: EnumLiteral, EnumCls: cls, EnumName: member}
}

// ValueString renders just the literal's value, as it appears inside the
// brackets of Literal[...].
func (l *LiteralType) ValueString() string {
	switch l.Kind {
	case IntLiteral:
		return strconv.FormatInt(l.IntVal, 10)
	case BoolLiteral:
		if l.BoolVal {
			return "True"
		}
		return "False"
	case StrLiteral:
		return fmt.Sprintf("%q", l.StrVal)
	case BytesLiteral:
		return fmt.Sprintf("b%q", l.BytesVal)
	default:
		return l.EnumCls.Name + "." + l.EnumName
	}
}

func (l *LiteralType) String() string { return "Literal[" + l.ValueString() + "]" }
func (l *LiteralType) typeNode()      {}

func (l *LiteralType) Equals(other Type) bool {
	o, ok := other.(*LiteralType)
	if !ok || o.Kind != l.Kind {
		return false
	}
	switch l.Kind {
	case IntLiteral:
		return o.IntVal == l.IntVal
	case BoolLiteral:
		return o.BoolVal == l.BoolVal
	case StrLiteral:
		return o.StrVal == l.StrVal
	case BytesLiteral:
		return o.BytesVal == l.BytesVal
	default:
		return o.EnumCls.ID == l.EnumCls.ID && o.EnumName == l.EnumName
	}
}

// BaseClass returns the class whose instances the literal belongs to.
func (l *LiteralType) BaseClass() *Class {
	switch l.Kind {
	case IntLiteral:
		return IntClass
	case BoolLiteral:
		return BoolClass
	case StrLiteral:
		return StrClass
	case BytesLiteral:
		return BytesClass
	default:
		return l.EnumCls
	}
}

// BaseInstance returns the literal's corresponding instance type.
func (l *LiteralType) BaseInstance() *InstanceType {
	return l.BaseClass().Instance()
}

// IsTruthy reports the literal's runtime truthiness. Enum members are truthy
// by default in CPython unless the enum overrides __bool__; boundness of that
// override is the caller's concern.
func (l *LiteralType) IsTruthy() bool {
	switch l.Kind {
	case IntLiteral:
		return l.IntVal != 0
	case BoolLiteral:
		return l.BoolVal
	case StrLiteral:
		return l.StrVal != ""
	case BytesLiteral:
		return l.BytesVal != ""
	default:
		return true
	}
}
