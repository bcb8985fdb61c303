package checker

import (
	"golang.org/x/exp/maps"

	"pythia/pkg/types"
)

// Boundness tracks whether a binding is definitely assigned on the current
// control-flow path.
type Boundness int

const (
	Bound Boundness = iota
	PossiblyUnbound
	Unbound
)

type binding struct {
	declared   types.Type // annotation, nil when unannotated
	inferred   types.Type // current (possibly narrowed) type
	boundness  Boundness
	assigned   bool // written in this scope frame (vs. narrowed)
	fromImport bool
}

// Environment manages type bindings within lexical scopes and per-branch
// narrowing overlays. A branch pushes a child frame; assignments and
// narrowings recorded there are merged or discarded at the join point.
type Environment struct {
	symbols map[string]*binding
	outer   *Environment
}

// NewEnvironment creates a top-level environment.
func NewEnvironment() *Environment {
	return &Environment{symbols: map[string]*binding{}}
}

// NewEnclosedEnvironment creates an overlay frame within outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{symbols: map[string]*binding{}, outer: outer}
}

// Define adds a binding to the current frame.
func (e *Environment) Define(name string, typ types.Type) {
	e.symbols[name] = &binding{inferred: typ, assigned: true}
}

// DefineDeclared adds a binding with a declared (annotated) type.
func (e *Environment) DefineDeclared(name string, declared, inferred types.Type) {
	e.symbols[name] = &binding{declared: declared, inferred: inferred, assigned: true}
}

// DefineImported marks the binding as import-originated for boundness
// diagnostics.
func (e *Environment) DefineImported(name string, typ types.Type) {
	e.symbols[name] = &binding{inferred: typ, assigned: true, fromImport: true}
}

func (e *Environment) lookupBinding(name string) (*binding, bool) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.symbols[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Resolve returns the binding's current type and boundness.
func (e *Environment) Resolve(name string) (types.Type, Boundness, bool) {
	b, ok := e.lookupBinding(name)
	if !ok {
		return nil, Unbound, false
	}
	return b.inferred, b.boundness, true
}

// Declared returns the binding's annotated type, if any.
func (e *Environment) Declared(name string) (types.Type, bool) {
	b, ok := e.lookupBinding(name)
	if !ok || b.declared == nil {
		return nil, false
	}
	return b.declared, true
}

// IsImported reports whether the visible binding came from an import.
func (e *Environment) IsImported(name string) bool {
	b, ok := e.lookupBinding(name)
	return ok && b.fromImport
}

// Assign records a write in the current frame, shadowing outer bindings
// until the frame merges. The declared type and import origin carry over.
func (e *Environment) Assign(name string, typ types.Type) {
	if b, ok := e.symbols[name]; ok {
		b.inferred = typ
		b.assigned = true
		return
	}
	nb := &binding{inferred: typ, assigned: true}
	if outer, ok := e.lookupBinding(name); ok {
		nb.declared = outer.declared
		nb.fromImport = outer.fromImport
	}
	e.symbols[name] = nb
}

// Narrow records a control-flow refinement in the current frame without
// marking the binding as written; narrowings never survive the frame unless
// explicitly re-applied.
func (e *Environment) Narrow(name string, typ types.Type) {
	if b, ok := e.symbols[name]; ok {
		b.inferred = typ
		return
	}
	nb := &binding{inferred: typ}
	if outer, ok := e.lookupBinding(name); ok {
		nb.declared = outer.declared
		nb.boundness = outer.boundness
		nb.fromImport = outer.fromImport
	}
	e.symbols[name] = nb
}

// SetBoundness overrides the boundness of the visible binding.
func (e *Environment) SetBoundness(name string, b Boundness) {
	if bind, ok := e.lookupBinding(name); ok {
		bind.boundness = b
	}
}

// AssignedNames returns the names written (not merely narrowed) in this
// frame, in map order.
func (e *Environment) AssignedNames() []string {
	var out []string
	for _, name := range maps.Keys(e.symbols) {
		if e.symbols[name].assigned {
			out = append(out, name)
		}
	}
	return out
}

// FrameNames returns every name touched in this frame.
func (e *Environment) FrameNames() []string {
	return maps.Keys(e.symbols)
}

// WasAssignedHere reports whether the name was written in this frame.
func (e *Environment) WasAssignedHere(name string) bool {
	b, ok := e.symbols[name]
	return ok && b.assigned
}
