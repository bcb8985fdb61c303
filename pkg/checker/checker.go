package checker

import (
	"context"
	"fmt"

	"pythia/pkg/cache"
	"pythia/pkg/config"
	"pythia/pkg/diag"
	"pythia/pkg/modules"
	"pythia/pkg/pyast"
	"pythia/pkg/source"
	"pythia/pkg/types"
)

const checkerDebug = false

func debugPrintf(format string, args ...interface{}) {
	if checkerDebug {
		fmt.Printf(format, args...)
	}
}

// Checker infers a type for every expression of a module and reports
// diagnostics. One Checker checks one module; the environment, resolver and
// cache may be shared across checkers.
type Checker struct {
	env      *config.Environment
	resolver modules.Resolver
	queries  *cache.QueryCache
	sink     *diag.Sink
	scope    *Environment
	ctx      context.Context
}

// Option configures a Checker.
type Option func(*Checker)

// WithResolver installs the module resolution boundary.
func WithResolver(r modules.Resolver) Option {
	return func(c *Checker) { c.resolver = r }
}

// WithQueryCache shares a memoized subtype-query cache between checkers.
func WithQueryCache(qc *cache.QueryCache) Option {
	return func(c *Checker) { c.queries = qc }
}

// NewChecker creates a checker for the given environment.
func NewChecker(env *config.Environment, opts ...Option) *Checker {
	if env == nil {
		env = config.Default()
	}
	c := &Checker{
		env:     env,
		queries: cache.New(),
		sink:    diag.NewSink(),
		scope:   NewEnvironment(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.installBuiltins()
	return c
}

// Scope exposes the global scope so tests and drivers can predefine classes,
// functions, and variables.
func (c *Checker) Scope() *Environment { return c.scope }

// Sink exposes the collected diagnostics.
func (c *Checker) Sink() *diag.Sink { return c.sink }

// Diagnostics returns all diagnostics collected so far.
func (c *Checker) Diagnostics() []*diag.Diagnostic { return c.sink.All() }

// CheckModule checks every statement of the module. Checking always runs to
// completion: errors degrade the affected expression's type to Unknown and
// analysis continues. The context is consulted between statements; a
// cancelled check returns early with ctx.Err() and its partial diagnostics
// are discarded.
func (c *Checker) CheckModule(ctx context.Context, mod *pyast.Module) ([]*diag.Diagnostic, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := c.ctx
	c.ctx = ctx
	defer func() { c.ctx = prev }()

	before := len(c.sink.All())
	for _, stmt := range mod.Body {
		if err := ctx.Err(); err != nil {
			// Discard in-flight partial results.
			c.sink.Truncate(before)
			return nil, err
		}
		c.checkStmt(stmt)
	}
	return c.sink.All(), nil
}

// InferExpr returns the inferred type of a standalone expression, for use by
// tests and the reveal surface.
func (c *Checker) InferExpr(e pyast.Expr) types.Type {
	return c.inferExpr(e)
}

func (c *Checker) inferExpr(e pyast.Expr) types.Type {
	switch n := e.(type) {
	case *pyast.IntLit:
		return types.NewIntLit(n.Value)
	case *pyast.BoolLit:
		return types.NewBoolLit(n.Value)
	case *pyast.StrLit:
		return types.NewStrLit(n.Value)
	case *pyast.BytesLit:
		return types.NewBytesLit(n.Value)
	case *pyast.FloatLit:
		return types.FloatClass.Instance()
	case *pyast.NoneLit:
		return types.None
	case *pyast.Name:
		return c.inferName(n)
	case *pyast.TupleExpr:
		elems := make([]types.Type, len(n.Elts))
		for i, el := range n.Elts {
			elems[i] = c.inferExpr(el)
		}
		return types.NewTuple(elems...)
	case *pyast.Attribute:
		return c.inferAttribute(n)
	case *pyast.Subscript:
		return c.inferSubscript(n)
	case *pyast.BinOp:
		return c.inferBinOp(n)
	case *pyast.UnaryOp:
		return c.inferUnaryOp(n)
	case *pyast.Compare:
		return c.inferCompare(n)
	case *pyast.BoolOp:
		return c.inferBoolOp(n)
	case *pyast.Call:
		return c.inferCall(n)
	case *pyast.Starred:
		return c.inferExpr(n.Value)
	}
	return types.Todo("unhandled expression kind")
}

func (c *Checker) inferName(n *pyast.Name) types.Type {
	t, boundness, ok := c.scope.Resolve(n.ID)
	if !ok {
		c.sink.Errorf(diag.UnresolvedReference, n.Span(), "name `%s` used when not defined", n.ID)
		return types.Unknown
	}
	switch boundness {
	case PossiblyUnbound:
		// Warn but keep the inferred type: precision over soundness when
		// the binding is probably fine.
		if c.scope.IsImported(n.ID) {
			c.sink.Warnf(diag.PossiblyUnboundImport, n.Span(), "import `%s` may be unbound", n.ID)
		} else {
			c.sink.Warnf(diag.PossiblyUnresolvedRef, n.Span(), "name `%s` may be unbound", n.ID)
		}
	case Unbound:
		c.sink.Errorf(diag.UnresolvedReference, n.Span(), "name `%s` used when not defined", n.ID)
		return types.Unknown
	}
	return t
}

func (c *Checker) inferAttribute(n *pyast.Attribute) types.Type {
	// A narrowed place like `x.attr` shadows the structural lookup.
	if key := narrowingKey(n); key != "" {
		if t, _, ok := c.scope.Resolve(key); ok {
			return t
		}
	}
	valT := c.inferExpr(n.Value)
	return c.memberType(valT, n.Attr, n.Span())
}

// memberType resolves attribute access on a value of type t.
func (c *Checker) memberType(t types.Type, name string, span source.Span) types.Type {
	switch v := t.(type) {
	case *types.DynamicType:
		return types.Unknown
	case *types.InstanceType:
		if member, defClass, ok := v.Class.LookupMember(name); ok {
			if fn, ok := member.(*types.CallableType); ok {
				return &types.BoundMethodType{
					FuncName:  fnName(fn, name),
					ClassName: defClass.Name,
					Func:      fn,
					Self:      v,
				}
			}
			return member
		}
	case *types.ClassLiteralType:
		if member, _, ok := v.Class.LookupMember(name); ok {
			return member
		}
		// Enum member access: Color.RED.
		if v.Class.IsSubclassOf(enumClassOrObject()) {
			return types.NewEnumLit(v.Class, name)
		}
	case *types.ModuleLiteralType:
		if c.resolver != nil {
			if mod, err := c.resolver.Resolve(v.Name, c.env); err == nil {
				if sym, ok := mod.Lookup(name, c.env); ok {
					return sym.Type
				}
			}
		}
	case *types.UnionType:
		parts := make([]types.Type, len(v.Members))
		for i, m := range v.Members {
			parts[i] = c.memberType(m, name, span)
		}
		return types.NewUnion(parts...)
	case *types.LiteralType:
		return c.memberType(v.BaseInstance(), name, span)
	case *types.IntersectionType:
		for _, p := range v.Positive {
			if mt := c.memberType(p, name, span); !types.IsDynamic(mt) {
				return mt
			}
		}
		return types.Unknown
	}
	c.sink.Errorf(diag.UnresolvedAttribute, span, "type `%s` has no attribute `%s`", t.String(), name)
	return types.Unknown
}

func fnName(fn *types.CallableType, fallback string) string {
	if fn.Name != "" {
		return fn.Name
	}
	return fallback
}

func (c *Checker) inferSubscript(n *pyast.Subscript) types.Type {
	// Annotation-like subscripts (Literal[...], tuple[...], C[...]) are
	// handled by the annotation resolver; value subscripts here.
	if t, ok := c.tryAnnotation(n); ok {
		return t
	}
	valT := c.inferExpr(n.Value)
	idxT := c.inferExpr(n.Index)
	if tup, ok := valT.(*types.TupleType); ok && !tup.Variadic {
		if lit, ok := idxT.(*types.LiteralType); ok && lit.Kind == types.IntLiteral {
			i := lit.IntVal
			if i < 0 {
				i += int64(len(tup.Elems))
			}
			if i >= 0 && i < int64(len(tup.Elems)) {
				return tup.Elems[i]
			}
		}
		return types.NewUnion(tup.Elems...)
	}
	if types.IsDynamic(valT) {
		return types.Unknown
	}
	return types.Todo("subscript on non-tuple value")
}

// checkTruthiness evaluates `bool(x)` for condition positions, reporting
// unsupported-bool-conversion when a class declares a __bool__ that cannot
// return a bool.
func (c *Checker) checkTruthiness(t types.Type, span source.Span) types.Tri {
	if inst, ok := t.(*types.InstanceType); ok {
		if member, _, ok := inst.Class.LookupMember("__bool__"); ok {
			if fn, ok := member.(*types.CallableType); ok {
				if !types.IsAssignableTo(fn.ReturnType(), types.BoolClass.Instance()) {
					c.sink.Errorf(diag.UnsupportedBoolConversion, span,
						"`%s.__bool__` returns `%s`, not `bool`", inst.Class.Name, fn.ReturnType().String())
					return types.TriAmbiguous
				}
			}
		}
	}
	return types.Truthiness(t)
}

// subtypeCached runs a subtype query through the shared memo table.
func (c *Checker) subtypeCached(a, b types.Type) bool {
	key := "sub|" + a.String() + "|" + b.String()
	return c.queries.Bool(key, func() bool {
		return types.IsSubtypeOf(a, b)
	})
}

// assignableCached is the memoized counterpart for assignability, used on
// the call-binding path where the same argument/parameter pairs recur
// across overload candidates and expanded argument lists.
func (c *Checker) assignableCached(a, b types.Type) bool {
	key := "asgn|" + a.String() + "|" + b.String()
	return c.queries.Bool(key, func() bool {
		return types.IsAssignableTo(a, b)
	})
}
