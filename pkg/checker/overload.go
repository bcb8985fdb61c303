package checker

import (
	"strings"

	"pythia/pkg/diag"
	"pythia/pkg/source"
	"pythia/pkg/types"
)

// maxArgExpansions bounds the cartesian product of expanded argument types;
// past it the expansion step is skipped entirely.
const maxArgExpansions = 512

// resolveOverloads picks the matching overload for a call. Filtering runs
// in stages: arity first, then full type checks, then retry with expanded
// argument types when nothing matched directly. A failed resolution reports
// one folded diagnostic rather than one per overload.
func (c *Checker) resolveOverloads(fn *types.OverloadedType, args []Argument, span source.Span) types.Type {
	var arityOK []*types.CallableType
	for _, cand := range fn.Overloads {
		if c.arityAccepts(cand, args) {
			arityOK = append(arityOK, cand)
		}
	}

	// A lone arity survivor is evaluated as a plain call so its argument
	// errors surface precisely instead of folding.
	if len(arityOK) == 1 {
		ret, _ := c.bindArguments(arityOK[0], args, span, true)
		return ret
	}

	if matched := c.typeFilter(arityOK, args, span); len(matched) > 0 {
		return c.pickMatch(matched, args)
	}

	// Expansion: split union, bool, enum and tuple arguments into their
	// alternatives left to right; every combination must find an overload.
	if ret, ok := c.expandedMatch(arityOK, args, span); ok {
		return ret
	}

	c.sink.Errorf(diag.NoMatchingOverload, span,
		"no overload of `%s` matches arguments (%s)", fn.Name, describeArgs(args))
	return types.Unknown
}

// arityAccepts checks argument shape only, ignoring types.
func (c *Checker) arityAccepts(fn *types.CallableType, args []Argument) bool {
	nPos, hasVarSplat := 0, false
	kwNames := map[string]bool{}
	for _, a := range args {
		if a.Name != "" {
			kwNames[a.Name] = true
		} else if a.Variadic {
			hasVarSplat = true
		} else {
			nPos++
		}
	}

	var varPos, varKw bool
	posSlots, requiredPos := 0, 0
	byName := map[string]bool{}
	for _, p := range fn.Params {
		switch p.Kind {
		case types.VarPos:
			varPos = true
		case types.VarKw:
			varKw = true
		case types.PosOnly, types.PosOrKw:
			posSlots++
			if !p.HasDefault {
				requiredPos++
			}
			if p.Kind == types.PosOrKw {
				byName[p.Name] = true
			}
		case types.KwOnly:
			byName[p.Name] = true
		}
	}

	if nPos > posSlots && !varPos {
		return false
	}
	if nPos < requiredPos && !hasVarSplat {
		// Keywords may still cover the gap for pos-or-kw params.
		covered := 0
		for _, p := range fn.Params {
			if p.Kind == types.PosOrKw && !p.HasDefault && kwNames[p.Name] {
				covered++
			}
		}
		if nPos+covered < requiredPos {
			return false
		}
	}
	for name := range kwNames {
		if !byName[name] && !varKw {
			return false
		}
	}
	return true
}

func (c *Checker) typeFilter(cands []*types.CallableType, args []Argument, span source.Span) []*types.CallableType {
	var matched []*types.CallableType
	for _, cand := range cands {
		if _, ok := c.bindArguments(cand, args, span, false); ok {
			matched = append(matched, cand)
		}
	}
	return matched
}

// pickMatch applies the tie-breaking rules to a non-empty match set. An
// indeterminate-length splat is soundly absorbed only by a *args parameter,
// so when one is present the candidates that absorb it win; otherwise
// declaration order decides. When a dynamic argument makes several overloads
// with different returns plausible, the call's type is unknowable rather
// than declaration-ordered.
func (c *Checker) pickMatch(matched []*types.CallableType, args []Argument) types.Type {
	if len(matched) > 1 && anyDynamicArg(args) {
		first := matched[0].ReturnType()
		for _, m := range matched[1:] {
			if !m.ReturnType().Equals(first) {
				return types.Unknown
			}
		}
	}
	if hasVariadicArg(args) {
		for _, m := range matched {
			if hasVarPos(m) {
				return m.ReturnType()
			}
		}
	}
	return matched[0].ReturnType()
}

func hasVarPos(fn *types.CallableType) bool {
	for _, p := range fn.Params {
		if p.Kind == types.VarPos {
			return true
		}
	}
	return false
}

func hasVariadicArg(args []Argument) bool {
	for _, a := range args {
		if a.Variadic {
			return true
		}
	}
	return false
}

func anyDynamicArg(args []Argument) bool {
	for _, a := range args {
		if types.IsDynamic(a.Type) {
			return true
		}
	}
	return false
}

// expandedMatch splits expandable argument types and requires every
// combination to match some overload; the call's type is the union of the
// matched returns.
func (c *Checker) expandedMatch(cands []*types.CallableType, args []Argument, span source.Span) (types.Type, bool) {
	combos := expandArguments(args)
	if len(combos) <= 1 || len(combos) > maxArgExpansions {
		return nil, false
	}
	var returns []types.Type
	for _, combo := range combos {
		matched := c.typeFilter(cands, combo, span)
		if len(matched) == 0 {
			return nil, false
		}
		returns = append(returns, c.pickMatch(matched, combo))
	}
	return types.NewUnion(returns...), true
}

// expandArguments builds the cartesian product of per-argument alternatives,
// left to right. Arguments with nothing to split contribute themselves. A
// splatted alternative that turns out to be a fixed tuple (a union of
// tuples narrowed to one shape) is spliced into plain positional arguments,
// since its length is determinate in that alternative.
func expandArguments(args []Argument) [][]Argument {
	combos := [][]Argument{nil}
	for _, a := range args {
		alts := expandType(a.Type)
		var next [][]Argument
		for _, combo := range combos {
			for _, alt := range alts {
				if a.Variadic {
					if tup, ok := alt.(*types.TupleType); ok && !tup.Variadic {
						row := make([]Argument, len(combo), len(combo)+len(tup.Elems))
						copy(row, combo)
						for _, e := range tup.Elems {
							row = append(row, Argument{Type: e, Span: a.Span})
						}
						next = append(next, row)
						continue
					}
				}
				expanded := a
				expanded.Type = alt
				row := make([]Argument, len(combo), len(combo)+1)
				copy(row, combo)
				next = append(next, append(row, expanded))
			}
		}
		combos = next
		if len(combos) > maxArgExpansions {
			return combos
		}
	}
	return combos
}

// expandType lists the alternatives an argument type splits into: union
// members, the two bool literals, and tuples expanded elementwise.
func expandType(t types.Type) []types.Type {
	switch v := t.(type) {
	case *types.UnionType:
		var out []types.Type
		for _, m := range v.Members {
			out = append(out, expandType(m)...)
		}
		return out
	case *types.InstanceType:
		if v.Class.ID == types.BoolClass.ID && len(v.Args) == 0 {
			return []types.Type{types.NewBoolLit(true), types.NewBoolLit(false)}
		}
	case *types.TupleType:
		if v.Variadic || len(v.Elems) == 0 {
			break
		}
		combos := [][]types.Type{nil}
		for _, e := range v.Elems {
			alts := expandType(e)
			var next [][]types.Type
			for _, combo := range combos {
				for _, alt := range alts {
					row := make([]types.Type, len(combo), len(combo)+1)
					copy(row, combo)
					next = append(next, append(row, alt))
				}
			}
			combos = next
			if len(combos) > maxArgExpansions {
				return []types.Type{t}
			}
		}
		out := make([]types.Type, len(combos))
		for i, combo := range combos {
			out[i] = &types.TupleType{Elems: combo}
		}
		return out
	}
	return []types.Type{t}
}

func describeArgs(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			parts[i] = a.Name + "=" + a.Type.String()
		} else if a.Variadic {
			parts[i] = "*" + a.Type.String()
		} else {
			parts[i] = a.Type.String()
		}
	}
	return strings.Join(parts, ", ")
}
