package checker

import (
	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/source"
	"pythia/pkg/types"
)

var dunderNames = map[pyast.BinOpKind]string{
	pyast.Add:      "__add__",
	pyast.Sub:      "__sub__",
	pyast.Mult:     "__mul__",
	pyast.Div:      "__truediv__",
	pyast.FloorDiv: "__floordiv__",
	pyast.Mod:      "__mod__",
	pyast.Pow:      "__pow__",
	pyast.LShift:   "__lshift__",
	pyast.RShift:   "__rshift__",
	pyast.BitOr:    "__or__",
	pyast.BitXor:   "__xor__",
	pyast.BitAnd:   "__and__",
	pyast.MatMult:  "__matmul__",
}

var reflectedNames = map[pyast.BinOpKind]string{
	pyast.Add:      "__radd__",
	pyast.Sub:      "__rsub__",
	pyast.Mult:     "__rmul__",
	pyast.Div:      "__rtruediv__",
	pyast.FloorDiv: "__rfloordiv__",
	pyast.Mod:      "__rmod__",
	pyast.Pow:      "__rpow__",
	pyast.LShift:   "__rlshift__",
	pyast.RShift:   "__rrshift__",
	pyast.BitOr:    "__ror__",
	pyast.BitXor:   "__rxor__",
	pyast.BitAnd:   "__rand__",
	pyast.MatMult:  "__rmatmul__",
}

// Exponents past this magnitude widen to int rather than computing the
// literal, so huge powers stay cheap.
const maxLiteralExponent = 128

func (c *Checker) inferBinOp(n *pyast.BinOp) types.Type {
	lt := c.inferExpr(n.Left)
	rt := c.inferExpr(n.Right)
	return c.resolveBinary(n.Op, lt, rt, n.Span())
}

// resolveBinary applies the operator dispatch protocol: the reflected method
// of a right-operand proper subtype takes precedence when it differs from
// the left class's definition; otherwise __OP__ then __rOP__, except that
// identical operand classes never consult the reflected method.
func (c *Checker) resolveBinary(op pyast.BinOpKind, lt, rt types.Type, span source.Span) types.Type {
	// Distribute over union operands before anything else.
	if lu, ok := lt.(*types.UnionType); ok {
		parts := make([]types.Type, len(lu.Members))
		for i, m := range lu.Members {
			parts[i] = c.resolveBinary(op, m, rt, span)
		}
		return types.NewUnion(parts...)
	}
	if ru, ok := rt.(*types.UnionType); ok {
		parts := make([]types.Type, len(ru.Members))
		for i, m := range ru.Members {
			parts[i] = c.resolveBinary(op, lt, m, span)
		}
		return types.NewUnion(parts...)
	}

	c.checkDivisionByZero(op, lt, rt, span)

	if types.IsDynamic(lt) || types.IsDynamic(rt) {
		return types.Unknown
	}

	if res, ok := c.literalArithmetic(op, lt, rt); ok {
		return res
	}

	// PEP 604: `C | D` on class objects builds a runtime union type object,
	// gated on the target version.
	if op == pyast.BitOr && isClassObject(lt) && isClassObject(rt) {
		if c.env.AtLeast("3.10") {
			return types.UnionTypeClass.Instance()
		}
		// Below 3.10 only a metaclass __or__ saves the expression.
		meta := metaclassOf(lt)
		if _, _, ok := meta.LookupMember("__or__"); !ok {
			c.reportUnsupported(op, lt, rt, span)
			return types.Unknown
		}
	}

	lc := operandClass(lt)
	rc := operandClass(rt)
	if lc == nil || rc == nil {
		c.reportUnsupported(op, lt, rt, span)
		return types.Unknown
	}

	opName := dunderNames[op]
	rName := reflectedNames[op]

	// Subtype-reflected precedence: if the right operand's class is a
	// proper subclass of the left's and overrides the reflected dunder
	// somewhere below where the left's hierarchy defines it, the reflected
	// method goes first.
	if rc.ID != lc.ID && rc.IsSubclassOf(lc) {
		_, lcDef, lcHas := lc.LookupMember(rName)
		_, rcDef, rcHas := rc.LookupMember(rName)
		if rcHas && (!lcHas || rcDef.ID != lcDef.ID) {
			if res, ok := c.tryDunder(rc, rName, lt); ok {
				return res
			}
		}
	}

	if res, ok := c.tryDunder(lc, opName, rt); ok {
		return res
	}

	// Identical operand classes never fall back to the reflected method;
	// the runtime short-circuits it.
	if lc.ID != rc.ID {
		if res, ok := c.tryDunder(rc, rName, lt); ok {
			return res
		}
	}

	c.reportUnsupported(op, lt, rt, span)
	return types.Unknown
}

// tryDunder looks the method up along the MRO and checks the operand against
// its parameter; a missing method or a rejected operand behaves like a
// NotImplemented return.
func (c *Checker) tryDunder(recv *types.Class, name string, operand types.Type) (types.Type, bool) {
	member, _, ok := recv.LookupMember(name)
	if !ok {
		return nil, false
	}
	switch fn := member.(type) {
	case *types.CallableType:
		if !c.operandAccepted(fn, operand) {
			return nil, false
		}
		return fn.ReturnType(), true
	case *types.OverloadedType:
		for _, cand := range fn.Overloads {
			if c.operandAccepted(cand, operand) {
				return cand.ReturnType(), true
			}
		}
		return nil, false
	case *types.DynamicType:
		return types.Unknown, true
	}
	return nil, false
}

func (c *Checker) operandAccepted(fn *types.CallableType, operand types.Type) bool {
	if len(fn.Params) == 0 {
		return false
	}
	return c.assignableCached(operand, fn.Params[0].AnnotatedType())
}

func (c *Checker) reportUnsupported(op pyast.BinOpKind, lt, rt types.Type, span source.Span) {
	c.sink.Errorf(diag.UnsupportedOperator, span,
		"operator `%s` is unsupported between objects of type `%s` and `%s`",
		op.Symbol(), lt.String(), rt.String())
}

// checkDivisionByZero flags / // % with a literal-zero right operand when
// the left operand's class is exactly int or float; subclasses are exempt
// since they may override zero handling.
func (c *Checker) checkDivisionByZero(op pyast.BinOpKind, lt, rt types.Type, span source.Span) {
	if op != pyast.Div && op != pyast.FloorDiv && op != pyast.Mod {
		return
	}
	lit, ok := rt.(*types.LiteralType)
	if !ok || lit.Kind != types.IntLiteral || lit.IntVal != 0 {
		return
	}
	var lc *types.Class
	switch v := lt.(type) {
	case *types.LiteralType:
		if v.Kind != types.IntLiteral {
			return
		}
		lc = types.IntClass
	case *types.InstanceType:
		lc = v.Class
	default:
		return
	}
	if lc.ID == types.IntClass.ID || lc.ID == types.FloatClass.ID {
		c.sink.Errorf(diag.DivisionByZero, span,
			"cannot divide object of type `%s` by zero", lt.String())
	}
}

// literalArithmetic computes exact literal results for arithmetic on int and
// bool literals, string/bytes concatenation and repetition, and bitwise ops
// on bool literals. Results out of reach (overflow, huge exponents, division
// by zero) widen to the base instance type instead.
func (c *Checker) literalArithmetic(op pyast.BinOpKind, lt, rt types.Type) (types.Type, bool) {
	ll, lok := lt.(*types.LiteralType)
	rl, rok := rt.(*types.LiteralType)
	if !lok || !rok {
		return nil, false
	}

	// str/bytes concat and repetition.
	if ll.Kind == types.StrLiteral && rl.Kind == types.StrLiteral && op == pyast.Add {
		return types.NewStrLit(ll.StrVal + rl.StrVal), true
	}
	if ll.Kind == types.BytesLiteral && rl.Kind == types.BytesLiteral && op == pyast.Add {
		return types.NewBytesLit([]byte(ll.BytesVal + rl.BytesVal)), true
	}
	if ll.Kind == types.StrLiteral && rl.Kind == types.IntLiteral && op == pyast.Mult {
		return repeatStr(ll.StrVal, rl.IntVal)
	}
	if ll.Kind == types.IntLiteral && rl.Kind == types.StrLiteral && op == pyast.Mult {
		return repeatStr(rl.StrVal, ll.IntVal)
	}

	intish := func(l *types.LiteralType) (int64, bool) {
		switch l.Kind {
		case types.IntLiteral:
			return l.IntVal, true
		case types.BoolLiteral:
			if l.BoolVal {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	a, aok := intish(ll)
	b, bok := intish(rl)
	if !aok || !bok {
		return nil, false
	}

	bothBool := ll.Kind == types.BoolLiteral && rl.Kind == types.BoolLiteral

	// Bitwise on two bools keeps the bool literal identity.
	if bothBool {
		switch op {
		case pyast.BitOr:
			return types.NewBoolLit(ll.BoolVal || rl.BoolVal), true
		case pyast.BitAnd:
			return types.NewBoolLit(ll.BoolVal && rl.BoolVal), true
		case pyast.BitXor:
			return types.NewBoolLit(ll.BoolVal != rl.BoolVal), true
		}
	}

	switch op {
	case pyast.Add:
		if r, ok := addOverflow(a, b); ok {
			return types.NewIntLit(r), true
		}
		return types.IntClass.Instance(), true
	case pyast.Sub:
		if r, ok := addOverflow(a, -b); ok && !(b == minInt64) {
			return types.NewIntLit(r), true
		}
		return types.IntClass.Instance(), true
	case pyast.Mult:
		if r, ok := mulOverflow(a, b); ok {
			return types.NewIntLit(r), true
		}
		return types.IntClass.Instance(), true
	case pyast.FloorDiv:
		if b == 0 {
			return types.IntClass.Instance(), true
		}
		return types.NewIntLit(floorDiv(a, b)), true
	case pyast.Mod:
		if b == 0 {
			return types.IntClass.Instance(), true
		}
		return types.NewIntLit(pyMod(a, b)), true
	case pyast.Pow:
		if b < 0 {
			// Negative exponents produce floats.
			return types.FloatClass.Instance(), true
		}
		if b > maxLiteralExponent {
			return types.IntClass.Instance(), true
		}
		r := int64(1)
		for i := int64(0); i < b; i++ {
			var ok bool
			r, ok = mulOverflow(r, a)
			if !ok {
				return types.IntClass.Instance(), true
			}
		}
		return types.NewIntLit(r), true
	}
	return nil, false
}

const minInt64 = -1 << 63

func repeatStr(s string, n int64) (types.Type, bool) {
	if n < 0 {
		n = 0
	}
	if n*int64(len(s)) > 4096 {
		return types.StrClass.Instance(), true
	}
	out := ""
	for i := int64(0); i < n; i++ {
		out += s
	}
	return types.NewStrLit(out), true
}

func addOverflow(a, b int64) (int64, bool) {
	r := a + b
	if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
		return 0, false
	}
	return r, true
}

func mulOverflow(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

// floorDiv implements Python's floor division for negatives.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// pyMod implements Python's modulo, whose result takes the divisor's sign.
func pyMod(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

func isClassObject(t types.Type) bool {
	switch t.(type) {
	case *types.ClassLiteralType, *types.SubclassOfType:
		return true
	}
	return false
}

func metaclassOf(t types.Type) *types.Class {
	var cls *types.Class
	switch v := t.(type) {
	case *types.ClassLiteralType:
		cls = v.Class
	case *types.SubclassOfType:
		cls = v.Class
	default:
		return types.TypeClass
	}
	if cls.Metaclass != nil {
		return cls.Metaclass
	}
	return types.TypeClass
}

// operandClass maps an operand type to the class consulted for dunder
// lookup.
func operandClass(t types.Type) *types.Class {
	switch v := t.(type) {
	case *types.LiteralType:
		return v.BaseClass()
	case *types.InstanceType:
		return v.Class
	case *types.TupleType:
		return types.TupleClass
	case *types.ClassLiteralType:
		return metaclassOf(v)
	case *types.SubclassOfType:
		return metaclassOf(v)
	case *types.IntersectionType:
		for _, p := range v.Positive {
			if cls := operandClass(p); cls != nil {
				return cls
			}
		}
		return types.ObjectClass
	case *types.CallableType, *types.BoundMethodType, *types.OverloadedType:
		return types.ObjectClass
	case *types.ModuleLiteralType:
		return types.ObjectClass
	}
	return nil
}

// --- Unary operators ---

var unaryDunders = map[pyast.UnaryOpKind]string{
	pyast.UAdd:   "__pos__",
	pyast.USub:   "__neg__",
	pyast.Invert: "__invert__",
}

func (c *Checker) inferUnaryOp(n *pyast.UnaryOp) types.Type {
	t := c.inferExpr(n.Operand)

	if n.Op == pyast.Not {
		switch c.checkTruthiness(t, n.Span()) {
		case types.TriTrue:
			return types.NewBoolLit(false)
		case types.TriFalse:
			return types.NewBoolLit(true)
		}
		return types.BoolClass.Instance()
	}

	if types.IsDynamic(t) {
		return types.Unknown
	}

	// Exact literal results for integer-valued literals.
	if lit, ok := t.(*types.LiteralType); ok {
		v, isInt := int64(0), false
		switch lit.Kind {
		case types.IntLiteral:
			v, isInt = lit.IntVal, true
		case types.BoolLiteral:
			isInt = true
			if lit.BoolVal {
				v = 1
			}
		}
		if isInt {
			switch n.Op {
			case pyast.UAdd:
				return types.NewIntLit(v)
			case pyast.USub:
				if v != minInt64 {
					return types.NewIntLit(-v)
				}
			case pyast.Invert:
				return types.NewIntLit(^v)
			}
		}
	}

	if u, ok := t.(*types.UnionType); ok {
		parts := make([]types.Type, len(u.Members))
		for i, m := range u.Members {
			parts[i] = c.resolveUnary(n.Op, m, n.Span())
		}
		return types.NewUnion(parts...)
	}
	return c.resolveUnary(n.Op, t, n.Span())
}

func (c *Checker) resolveUnary(op pyast.UnaryOpKind, t types.Type, span source.Span) types.Type {
	cls := operandClass(t)
	if cls == nil {
		c.sink.Errorf(diag.UnsupportedOperator, span,
			"operator `%s` is unsupported for object of type `%s`", op.Symbol(), t.String())
		return types.Unknown
	}
	if member, _, ok := cls.LookupMember(unaryDunders[op]); ok {
		if fn, ok := member.(*types.CallableType); ok {
			return fn.ReturnType()
		}
	}
	c.sink.Errorf(diag.UnsupportedOperator, span,
		"operator `%s` is unsupported for object of type `%s`", op.Symbol(), t.String())
	return types.Unknown
}

// --- Comparisons and boolean operators ---

var compareDunders = map[pyast.CmpOpKind]string{
	pyast.Eq:    "__eq__",
	pyast.NotEq: "__ne__",
	pyast.Lt:    "__lt__",
	pyast.LtE:   "__le__",
	pyast.Gt:    "__gt__",
	pyast.GtE:   "__ge__",
}

func (c *Checker) inferCompare(n *pyast.Compare) types.Type {
	left := c.inferExpr(n.Left)
	result := types.Type(types.BoolClass.Instance())
	for i, op := range n.Ops {
		right := c.inferExpr(n.Comparators[i])
		result = c.resolveCompare(op, left, right)
		left = right
	}
	return result
}

func (c *Checker) resolveCompare(op pyast.CmpOpKind, lt, rt types.Type) types.Type {
	switch op {
	case pyast.Is, pyast.IsNot:
		// Disjoint single-valued operands decide identity statically.
		if types.IsSingleValued(lt) && types.IsSingleValued(rt) {
			same := lt.Equals(rt)
			if op == pyast.IsNot {
				same = !same
			}
			return types.NewBoolLit(same)
		}
		if types.IsDisjointFrom(lt, rt) {
			return types.NewBoolLit(op == pyast.IsNot)
		}
		return types.BoolClass.Instance()
	case pyast.In, pyast.NotIn:
		return types.BoolClass.Instance()
	case pyast.Eq, pyast.NotEq:
		ll, lok := lt.(*types.LiteralType)
		rl, rok := rt.(*types.LiteralType)
		if lok && rok {
			eq := ll.Equals(rl)
			if op == pyast.NotEq {
				eq = !eq
			}
			return types.NewBoolLit(eq)
		}
		return types.BoolClass.Instance()
	default:
		ll, lok := lt.(*types.LiteralType)
		rl, rok := rt.(*types.LiteralType)
		if lok && rok && ll.Kind == types.IntLiteral && rl.Kind == types.IntLiteral {
			var v bool
			switch op {
			case pyast.Lt:
				v = ll.IntVal < rl.IntVal
			case pyast.LtE:
				v = ll.IntVal <= rl.IntVal
			case pyast.Gt:
				v = ll.IntVal > rl.IntVal
			case pyast.GtE:
				v = ll.IntVal >= rl.IntVal
			}
			return types.NewBoolLit(v)
		}
		return types.BoolClass.Instance()
	}
}

// inferBoolOp types `a and b` / `a or b`: the result is a union of the
// operand types reachable under short-circuit evaluation, with statically
// decided branches pruned.
func (c *Checker) inferBoolOp(n *pyast.BoolOp) types.Type {
	var parts []types.Type
	for i, v := range n.Values {
		t := c.inferExpr(v)
		last := i == len(n.Values)-1
		if last {
			parts = append(parts, t)
			break
		}
		tri := c.checkTruthiness(t, v.Span())
		if n.Op == pyast.And {
			// A falsy value short-circuits an `and`.
			switch tri {
			case types.TriFalse:
				parts = append(parts, t)
				return types.NewUnion(parts...)
			case types.TriAmbiguous:
				parts = append(parts, narrowByTruthiness(t, false))
			}
		} else {
			switch tri {
			case types.TriTrue:
				parts = append(parts, t)
				return types.NewUnion(parts...)
			case types.TriAmbiguous:
				parts = append(parts, narrowByTruthiness(t, true))
			}
		}
	}
	return types.NewUnion(parts...)
}
