package checker

import (
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

// tryAnnotation recognizes subscript expressions that are type forms rather
// than value subscripts: Literal[...], tuple[...], type[C], Optional[T],
// Union[...], and parameterized generics C[...].
func (c *Checker) tryAnnotation(n *pyast.Subscript) (types.Type, bool) {
	name, ok := n.Value.(*pyast.Name)
	if !ok {
		return nil, false
	}
	switch name.ID {
	case "Literal":
		return c.literalForm(n.Index)
	case "Optional":
		if t, ok := c.typeFromAnnotation(n.Index); ok {
			return types.NewUnion(t, types.None), true
		}
		return nil, false
	case "Union":
		elems, ok := indexElems(n.Index)
		if !ok {
			return nil, false
		}
		parts := make([]types.Type, 0, len(elems))
		for _, e := range elems {
			t, ok := c.typeFromAnnotation(e)
			if !ok {
				return nil, false
			}
			parts = append(parts, t)
		}
		return types.NewUnion(parts...), true
	}

	bound, _, found := c.scope.Resolve(name.ID)
	if !found {
		return nil, false
	}
	cl, isClass := bound.(*types.ClassLiteralType)
	if !isClass {
		return nil, false
	}
	switch cl.Class.ID {
	case types.TypeClass.ID:
		if t, ok := c.typeFromAnnotation(n.Index); ok {
			if inst, ok := t.(*types.InstanceType); ok {
				return &types.SubclassOfType{Class: inst.Class}, true
			}
		}
		return nil, false
	case types.TupleClass.ID:
		return c.tupleForm(n.Index)
	}
	// Parameterized generic: only a class taking type parameters.
	if len(cl.Class.TypeParams) == 0 {
		return nil, false
	}
	elems, _ := indexElems(n.Index)
	args := make([]types.Type, 0, len(elems))
	for _, e := range elems {
		t, ok := c.typeFromAnnotation(e)
		if !ok {
			return nil, false
		}
		args = append(args, t)
	}
	return cl.Class.Instance(args...), true
}

// typeFromAnnotation resolves an annotation expression to the type it
// denotes. The second result is false when the expression is not a valid
// type form.
func (c *Checker) typeFromAnnotation(e pyast.Expr) (types.Type, bool) {
	switch n := e.(type) {
	case *pyast.NoneLit:
		return types.None, true
	case *pyast.Name:
		switch n.ID {
		case "None":
			return types.None, true
		case "Any":
			return types.Any, true
		}
		bound, _, ok := c.scope.Resolve(n.ID)
		if !ok {
			return nil, false
		}
		switch v := bound.(type) {
		case *types.ClassLiteralType:
			return v.Class.Instance(), true
		case *types.TypeVarType:
			return v, true
		case *types.DynamicType:
			return v, true
		}
		return nil, false
	case *pyast.Subscript:
		return c.tryAnnotation(n)
	case *pyast.BinOp:
		// PEP 604 unions in annotation position are legal at any target
		// version since only the checker evaluates them here.
		if n.Op != pyast.BitOr {
			return nil, false
		}
		lt, lok := c.typeFromAnnotation(n.Left)
		rt, rok := c.typeFromAnnotation(n.Right)
		if !lok || !rok {
			return nil, false
		}
		return types.NewUnion(lt, rt), true
	case *pyast.Attribute:
		t := c.inferAttribute(n)
		if cl, ok := t.(*types.ClassLiteralType); ok {
			return cl.Class.Instance(), true
		}
		return nil, false
	}
	return nil, false
}

// literalForm builds the union of literal types inside Literal[...].
func (c *Checker) literalForm(index pyast.Expr) (types.Type, bool) {
	elems, _ := indexElems(index)
	parts := make([]types.Type, 0, len(elems))
	for _, e := range elems {
		lit, ok := literalFromExpr(e)
		if !ok {
			return nil, false
		}
		parts = append(parts, lit)
	}
	if len(parts) == 0 {
		return nil, false
	}
	return types.NewUnion(parts...), true
}

func literalFromExpr(e pyast.Expr) (types.Type, bool) {
	switch n := e.(type) {
	case *pyast.IntLit:
		return types.NewIntLit(n.Value), true
	case *pyast.BoolLit:
		return types.NewBoolLit(n.Value), true
	case *pyast.StrLit:
		return types.NewStrLit(n.Value), true
	case *pyast.BytesLit:
		return types.NewBytesLit(n.Value), true
	case *pyast.NoneLit:
		return types.None, true
	case *pyast.UnaryOp:
		if n.Op == pyast.USub {
			if iv, ok := n.Operand.(*pyast.IntLit); ok {
				return types.NewIntLit(-iv.Value), true
			}
		}
	}
	return nil, false
}

// tupleForm resolves tuple[...] annotations, including the homogeneous
// tuple[T, ...] spelling and the empty tuple[()].
func (c *Checker) tupleForm(index pyast.Expr) (types.Type, bool) {
	elems, multi := indexElems(index)
	if multi && len(elems) == 2 {
		if isEllipsisName(elems[1]) {
			t, ok := c.typeFromAnnotation(elems[0])
			if !ok {
				return nil, false
			}
			return &types.TupleType{Elems: []types.Type{t}, Variadic: true}, true
		}
	}
	if len(elems) == 1 {
		if te, ok := elems[0].(*pyast.TupleExpr); ok && len(te.Elts) == 0 {
			return &types.TupleType{}, true
		}
	}
	parts := make([]types.Type, 0, len(elems))
	for _, e := range elems {
		t, ok := c.typeFromAnnotation(e)
		if !ok {
			return nil, false
		}
		parts = append(parts, t)
	}
	return &types.TupleType{Elems: parts}, true
}

// indexElems splits a subscript index into its element expressions,
// flattening tuple syntax like C[int, str].
func indexElems(index pyast.Expr) ([]pyast.Expr, bool) {
	if te, ok := index.(*pyast.TupleExpr); ok && len(te.Elts) > 0 {
		return te.Elts, true
	}
	return []pyast.Expr{index}, false
}

func isEllipsisName(e pyast.Expr) bool {
	n, ok := e.(*pyast.Name)
	return ok && n.ID == "..."
}
