package types

// The builtin class skeleton: just enough of the types' dunder surface to
// drive operator resolution, truthiness, and narrowing without real stubs.
// Method members omit the self parameter; the checker binds receivers
// separately when it resolves a dunder through the MRO.

var (
	ObjectClass  = NewClassPlaceholder("object")
	TypeClass    = NewClassPlaceholder("type")
	IntClass     = NewClassPlaceholder("int")
	FloatClass   = NewClassPlaceholder("float")
	ComplexClass = NewClassPlaceholder("complex")
	StrClass     = NewClassPlaceholder("str")
	BytesClass   = NewClassPlaceholder("bytes")
	BoolClass    = NewClassPlaceholder("bool")
	NoneClass    = NewClassPlaceholder("NoneType")
	TupleClass   = NewClassPlaceholder("tuple")
	ListClass    = NewClassPlaceholder("list")
	DictClass    = NewClassPlaceholder("dict")
	// UnionTypeClass models types.UnionType, the runtime object produced by
	// `int | str` on Python >= 3.10.
	UnionTypeClass = NewClassPlaceholder("UnionType")
)

// None is the singleton instance type of NoneType.
var None Type

func method(name string, ret Type, params ...Param) *CallableType {
	return &CallableType{Name: name, Params: params, Return: ret}
}

func binaryDunder(name string, operand, ret Type) *CallableType {
	return method(name, ret, Param{Name: "value", Kind: PosOnly, Type: operand})
}

func init() {
	mustFinalize := func(c *Class, bases []*Class, members map[string]Type) {
		if err := c.Finalize(bases, members); err != nil {
			panic(err)
		}
	}

	mustFinalize(ObjectClass, nil, map[string]Type{})
	mustFinalize(TypeClass, []*Class{ObjectClass}, map[string]Type{})
	mustFinalize(NoneClass, []*Class{ObjectClass}, map[string]Type{})
	NoneClass.Final = true
	None = NoneClass.Instance()

	intT := IntClass.Instance()
	floatT := FloatClass.Instance()
	complexT := ComplexClass.Instance()
	strT := StrClass.Instance()
	bytesT := BytesClass.Instance()
	boolT := BoolClass.Instance()

	intMembers := map[string]Type{}
	for _, op := range []string{"__add__", "__sub__", "__mul__", "__floordiv__", "__mod__", "__pow__",
		"__radd__", "__rsub__", "__rmul__", "__rfloordiv__", "__rmod__", "__rpow__",
		"__and__", "__or__", "__xor__", "__lshift__", "__rshift__",
		"__rand__", "__ror__", "__rxor__", "__rlshift__", "__rrshift__"} {
		intMembers[op] = binaryDunder(op, intT, intT)
	}
	intMembers["__truediv__"] = binaryDunder("__truediv__", intT, floatT)
	intMembers["__rtruediv__"] = binaryDunder("__rtruediv__", intT, floatT)
	intMembers["__neg__"] = method("__neg__", intT)
	intMembers["__pos__"] = method("__pos__", intT)
	intMembers["__invert__"] = method("__invert__", intT)
	for _, op := range []string{"__eq__", "__ne__", "__lt__", "__le__", "__gt__", "__ge__"} {
		intMembers[op] = binaryDunder(op, ObjectClass.Instance(), boolT)
	}
	mustFinalize(IntClass, []*Class{ObjectClass}, intMembers)

	floatMembers := map[string]Type{}
	// Arithmetic on float accepts the numeric tower below it.
	numOperand := NewUnion(intT, floatT)
	for _, op := range []string{"__add__", "__sub__", "__mul__", "__truediv__", "__floordiv__",
		"__mod__", "__pow__", "__radd__", "__rsub__", "__rmul__", "__rtruediv__",
		"__rfloordiv__", "__rmod__", "__rpow__"} {
		floatMembers[op] = binaryDunder(op, numOperand, floatT)
	}
	floatMembers["__neg__"] = method("__neg__", floatT)
	floatMembers["__pos__"] = method("__pos__", floatT)
	mustFinalize(FloatClass, []*Class{ObjectClass}, floatMembers)

	complexMembers := map[string]Type{}
	cplxOperand := NewUnion(intT, floatT, complexT)
	for _, op := range []string{"__add__", "__sub__", "__mul__", "__truediv__", "__pow__",
		"__radd__", "__rsub__", "__rmul__", "__rtruediv__", "__rpow__"} {
		complexMembers[op] = binaryDunder(op, cplxOperand, complexT)
	}
	mustFinalize(ComplexClass, []*Class{ObjectClass}, complexMembers)

	strMembers := map[string]Type{
		"__add__":      binaryDunder("__add__", strT, strT),
		"__mul__":      binaryDunder("__mul__", intT, strT),
		"__rmul__":     binaryDunder("__rmul__", intT, strT),
		"__mod__":      binaryDunder("__mod__", ObjectClass.Instance(), strT),
		"__contains__": binaryDunder("__contains__", strT, boolT),
		"__len__":      method("__len__", intT),
	}
	mustFinalize(StrClass, []*Class{ObjectClass}, strMembers)

	bytesMembers := map[string]Type{
		"__add__":      binaryDunder("__add__", bytesT, bytesT),
		"__mul__":      binaryDunder("__mul__", intT, bytesT),
		"__rmul__":     binaryDunder("__rmul__", intT, bytesT),
		"__contains__": binaryDunder("__contains__", bytesT, boolT),
		"__len__":      method("__len__", intT),
	}
	mustFinalize(BytesClass, []*Class{ObjectClass}, bytesMembers)

	// bool subclasses int; its bitwise dunders narrow the result back to
	// bool when both operands are bool.
	boolMembers := map[string]Type{}
	for _, op := range []string{"__and__", "__or__", "__xor__", "__rand__", "__ror__", "__rxor__"} {
		boolMembers[op] = &OverloadedType{
			Name: op,
			Overloads: []*CallableType{
				binaryDunder(op, boolT, boolT),
				binaryDunder(op, intT, intT),
			},
		}
	}
	mustFinalize(BoolClass, []*Class{IntClass}, boolMembers)

	mustFinalize(TupleClass, []*Class{ObjectClass}, map[string]Type{
		"__len__": method("__len__", intT),
	})
	mustFinalize(ListClass, []*Class{ObjectClass}, map[string]Type{
		"__len__": method("__len__", intT),
	})
	mustFinalize(DictClass, []*Class{ObjectClass}, map[string]Type{
		"__len__": method("__len__", intT),
	})
	mustFinalize(UnionTypeClass, []*Class{ObjectClass}, map[string]Type{})

	for _, c := range []*Class{IntClass, FloatClass, ComplexClass, StrClass, BytesClass, BoolClass, UnionTypeClass} {
		c.Final = true
	}
	for _, c := range []*Class{ObjectClass, IntClass, FloatClass, ComplexClass, StrClass,
		BytesClass, BoolClass, NoneClass, TupleClass, ListClass, DictClass, UnionTypeClass} {
		c.Metaclass = TypeClass
	}
}
