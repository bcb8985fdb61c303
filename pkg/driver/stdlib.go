package driver

import (
	"pythia/pkg/modules"
	"pythia/pkg/types"
)

// moduleBuilder accumulates one stub module's symbol table.
type moduleBuilder struct {
	mod *modules.Module
}

func newModule(name string) *moduleBuilder {
	return &moduleBuilder{mod: &modules.Module{Name: name, Symbols: map[string]*modules.Symbol{}}}
}

func (b *moduleBuilder) variable(name string, t types.Type) *moduleBuilder {
	b.mod.Symbols[name] = &modules.Symbol{Name: name, Kind: modules.VariableSymbol, Type: t}
	return b
}

func (b *moduleBuilder) function(name string, ret types.Type, params ...types.Param) *moduleBuilder {
	b.mod.Symbols[name] = &modules.Symbol{
		Name: name,
		Kind: modules.FunctionSymbol,
		Type: &types.CallableType{Name: name, Params: params, Return: ret},
	}
	return b
}

// gate restricts the most recently added symbol to a minimum version and/or
// platform set.
func (b *moduleBuilder) gate(name, minVersion string, platforms ...string) *moduleBuilder {
	if s, ok := b.mod.Symbols[name]; ok {
		s.MinVersion = minVersion
		s.Platforms = platforms
	}
	return b
}

func pos(name string, t types.Type) types.Param {
	return types.Param{Name: name, Kind: types.PosOrKw, Type: t}
}

// Stdlib returns a resolver serving small built-in stubs for the handful of
// stdlib modules the fixtures exercise. Real projects layer typeshed-backed
// resolvers in front via modules.ChainResolver.
func Stdlib() *modules.MemoryResolver {
	intT := types.IntClass.Instance()
	floatT := types.FloatClass.Instance()
	strT := types.StrClass.Instance()
	objT := types.ObjectClass.Instance()
	boolT := types.BoolClass.Instance()

	r := modules.NewMemoryResolver()

	sys := newModule("sys").
		variable("platform", strT).
		variable("maxsize", intT).
		variable("version", strT).
		function("exit", types.Never, pos("status", objT)).
		function("getsizeof", intT, pos("obj", objT))
	r.AddModule(sys.mod)

	mathMod := newModule("math").
		variable("pi", floatT).
		variable("e", floatT).
		variable("inf", floatT).
		variable("nan", floatT).
		function("floor", intT, pos("x", floatT)).
		function("ceil", intT, pos("x", floatT)).
		function("sqrt", floatT, pos("x", floatT)).
		function("isnan", boolT, pos("x", floatT))
	r.AddModule(mathMod.mod)

	osMod := newModule("os").
		variable("sep", strT).
		variable("linesep", strT).
		variable("name", strT).
		function("getcwd", strT).
		function("add_dll_directory", objT, pos("path", strT)).
		gate("add_dll_directory", "3.8", "win32")
	r.AddModule(osMod.mod)

	functools := newModule("functools").
		function("reduce", objT,
			pos("function", objT), pos("sequence", objT)).
		function("cache", objT, pos("user_function", objT)).
		gate("cache", "3.9")
	r.AddModule(functools.mod)

	return r
}
