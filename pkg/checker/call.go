package checker

import (
	"pythia/pkg/diag"
	"pythia/pkg/pyast"
	"pythia/pkg/source"
	"pythia/pkg/types"
)

// Argument is one evaluated call argument. A splatted fixed-length tuple
// expands to plain positional arguments before binding; a splatted
// homogeneous tuple stays as one Variadic entry standing for any number of
// values of its element type.
type Argument struct {
	Name     string // keyword name, "" when positional
	Type     types.Type
	Variadic bool
	Span     source.Span
}

func (c *Checker) evalArguments(n *pyast.Call) []Argument {
	var args []Argument
	for _, a := range n.Args {
		if st, ok := a.(*pyast.Starred); ok {
			t := c.inferExpr(st.Value)
			switch v := t.(type) {
			case *types.TupleType:
				if v.Variadic {
					args = append(args, Argument{Type: v.Elems[0], Variadic: true, Span: st.Span()})
				} else {
					for _, e := range v.Elems {
						args = append(args, Argument{Type: e, Span: st.Span()})
					}
				}
			default:
				if types.IsDynamic(t) {
					args = append(args, Argument{Type: types.Unknown, Variadic: true, Span: st.Span()})
				} else {
					args = append(args, Argument{Type: t, Variadic: true, Span: st.Span()})
				}
			}
			continue
		}
		args = append(args, Argument{Type: c.inferExpr(a), Span: a.Span()})
	}
	for _, kw := range n.Keywords {
		args = append(args, Argument{Name: kw.Name, Type: c.inferExpr(kw.Value), Span: kw.Value.Span()})
	}
	return args
}

func (c *Checker) inferCall(n *pyast.Call) types.Type {
	fnT := c.inferExpr(n.Func)

	// Checker intrinsics run before ordinary binding.
	if t, handled := c.tryIntrinsic(fnT, n); handled {
		return t
	}

	args := c.evalArguments(n)
	return c.callValue(fnT, args, n.Span())
}

func (c *Checker) callValue(fnT types.Type, args []Argument, span source.Span) types.Type {
	switch fn := fnT.(type) {
	case *types.DynamicType:
		return types.Unknown
	case *types.CallableType:
		ret, _ := c.bindArguments(fn, args, span, true)
		return ret
	case *types.BoundMethodType:
		ret, _ := c.bindArguments(fn.Func, args, span, true)
		return ret
	case *types.OverloadedType:
		return c.resolveOverloads(fn, args, span)
	case *types.ClassLiteralType:
		return c.construct(fn.Class, args, span)
	case *types.SubclassOfType:
		c.checkArgsOnly(args)
		return fn.Class.Instance()
	case *types.UnionType:
		parts := make([]types.Type, len(fn.Members))
		for i, m := range fn.Members {
			parts[i] = c.callValue(m, args, span)
		}
		return types.NewUnion(parts...)
	}
	c.sink.Errorf(diag.UnsupportedOperator, span, "object of type `%s` is not callable", fnT.String())
	return types.Unknown
}

// construct types a constructor call, binding against __init__ when the
// class declares one.
func (c *Checker) construct(cls *types.Class, args []Argument, span source.Span) types.Type {
	if member, _, ok := cls.LookupMember("__init__"); ok {
		switch fn := member.(type) {
		case *types.CallableType:
			c.bindArguments(fn, args, span, true)
			return cls.Instance()
		case *types.OverloadedType:
			c.resolveOverloads(fn, args, span)
			return cls.Instance()
		}
	}
	return cls.Instance()
}

func (c *Checker) checkArgsOnly(args []Argument) {
	// Argument expressions were already inferred; nothing further to check
	// without a signature.
	_ = args
}

// bindArguments matches evaluated arguments to a signature. With report
// set, shape and type mismatches go to the sink; without it the result only
// says whether the signature accepts the arguments, which is what overload
// filtering needs.
func (c *Checker) bindArguments(fn *types.CallableType, args []Argument, span source.Span, report bool) (types.Type, bool) {
	assigned := make([]bool, len(fn.Params))
	ok := true
	fail := func(tag diag.Tag, at source.Span, format string, fmtArgs ...any) {
		ok = false
		if report {
			c.sink.Errorf(tag, at, format, fmtArgs...)
		}
	}

	var varPos, varKw *types.Param
	firstKwOnly := len(fn.Params)
	for i := range fn.Params {
		switch fn.Params[i].Kind {
		case types.VarPos:
			varPos = &fn.Params[i]
			if firstKwOnly == len(fn.Params) {
				firstKwOnly = i
			}
		case types.VarKw:
			varKw = &fn.Params[i]
		case types.KwOnly:
			if firstKwOnly == len(fn.Params) {
				firstKwOnly = i
			}
		}
	}

	checkAssign := func(argT, paramT types.Type, name string, at source.Span) {
		if !c.assignableCached(argT, paramT) {
			fail(diag.InvalidArgumentType, at,
				"argument of type `%s` is not assignable to parameter `%s` of type `%s` in call to `%s`",
				argT.String(), name, paramT.String(), callableName(fn))
		}
	}

	next := 0
	for _, arg := range args {
		if arg.Name != "" {
			idx := -1
			for i := range fn.Params {
				p := fn.Params[i]
				if p.Name == arg.Name && (p.Kind == types.PosOrKw || p.Kind == types.KwOnly) {
					idx = i
					break
				}
			}
			if idx < 0 {
				if varKw != nil {
					checkAssign(arg.Type, varKw.AnnotatedType(), varKw.Name, arg.Span)
					continue
				}
				fail(diag.UnknownArgument, arg.Span,
					"no parameter named `%s` in call to `%s`", arg.Name, callableName(fn))
				continue
			}
			if assigned[idx] {
				fail(diag.ParameterAlreadyAssigned, arg.Span,
					"multiple values for parameter `%s` in call to `%s`", arg.Name, callableName(fn))
				continue
			}
			assigned[idx] = true
			checkAssign(arg.Type, fn.Params[idx].AnnotatedType(), arg.Name, arg.Span)
			continue
		}

		if arg.Variadic {
			// A homogeneous splat covers every remaining positional slot.
			for i := next; i < firstKwOnly; i++ {
				if fn.Params[i].Kind == types.VarPos || fn.Params[i].Kind == types.VarKw {
					continue
				}
				assigned[i] = true
				checkAssign(arg.Type, fn.Params[i].AnnotatedType(), fn.Params[i].Name, arg.Span)
			}
			next = firstKwOnly
			continue
		}

		if next < firstKwOnly && fn.Params[next].Kind != types.VarPos {
			assigned[next] = true
			checkAssign(arg.Type, fn.Params[next].AnnotatedType(), fn.Params[next].Name, arg.Span)
			next++
			continue
		}
		if varPos != nil {
			checkAssign(arg.Type, varPos.AnnotatedType(), varPos.Name, arg.Span)
			continue
		}
		fail(diag.TooManyPositionalArgs, arg.Span,
			"expected %d positional arguments in call to `%s`", positionalArity(fn), callableName(fn))
	}

	for i, p := range fn.Params {
		if assigned[i] || p.HasDefault {
			continue
		}
		if p.Kind == types.VarPos || p.Kind == types.VarKw {
			continue
		}
		fail(diag.MissingArgument, span,
			"missing argument for parameter `%s` in call to `%s`", p.Name, callableName(fn))
	}

	return fn.ReturnType(), ok
}

func positionalArity(fn *types.CallableType) int {
	n := 0
	for _, p := range fn.Params {
		if p.Kind == types.PosOnly || p.Kind == types.PosOrKw {
			n++
		}
	}
	return n
}

func callableName(fn *types.CallableType) string {
	if fn.Name != "" {
		return fn.Name
	}
	return "<callable>"
}
