// Package modules is the injectable module/stub resolution boundary: given
// an import path and the active Python version/platform environment, it
// returns the resolved module's exported symbol table. The inference core
// never touches the filesystem itself, so resolvers can be backed by a
// cache, real stubs, or in-memory fixtures.
package modules

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"pythia/pkg/config"
	"pythia/pkg/types"
)

// SymbolKind classifies one exported symbol.
type SymbolKind int

const (
	FunctionSymbol SymbolKind = iota
	ClassSymbol
	VariableSymbol
	ModuleSymbol
)

// Symbol is one exported name of a module.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Type is the symbol's declared type: a CallableType or OverloadedType
	// for functions, a ClassLiteralType for classes, the variable's declared
	// type for variables.
	Type types.Type
	// Class is set for ClassSymbol entries.
	Class *types.Class
	// MinVersion gates the symbol on `sys.version_info >=` stub branches;
	// empty means unconditional.
	MinVersion string
	// Platforms restricts the symbol to specific sys.platform values; nil
	// means all platforms.
	Platforms []string
}

// Module is a resolved module's exported symbol table.
type Module struct {
	Name    string
	Symbols map[string]*Symbol
}

// Lookup returns the named symbol if it exists and is visible under env.
func (m *Module) Lookup(name string, env *config.Environment) (*Symbol, bool) {
	s, ok := m.Symbols[name]
	if !ok {
		return nil, false
	}
	if s.MinVersion != "" && !env.AtLeast(s.MinVersion) {
		return nil, false
	}
	if len(s.Platforms) > 0 && !slices.Contains(s.Platforms, env.Platform) {
		return nil, false
	}
	return s, true
}

// Names returns the visible symbol names in sorted order, the all_members
// query surface.
func (m *Module) Names(env *config.Environment) []string {
	var out []string
	for _, name := range maps.Keys(m.Symbols) {
		if _, ok := m.Lookup(name, env); ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Resolver resolves import paths to modules.
type Resolver interface {
	// Resolve returns the module for the given import path, honoring the
	// environment's version and platform, or an error when the path cannot
	// be resolved.
	Resolve(path string, env *config.Environment) (*Module, error)
}

// MemoryResolver is an in-memory Resolver for tests and synthetic stub
// trees. Safe for concurrent readers once populated.
type MemoryResolver struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{modules: map[string]*Module{}}
}

// AddModule registers a module under its import path.
func (r *MemoryResolver) AddModule(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Name] = m
}

func (r *MemoryResolver) Resolve(path string, env *config.Environment) (*Module, error) {
	r.mu.RLock()
	m, ok := r.modules[path]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("cannot resolve import %q", path)
	}
	return m, nil
}

// ChainResolver tries each resolver in order, wrapping the last failure with
// the full path for diagnostics.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(path string, env *config.Environment) (*Module, error) {
	var lastErr error
	for _, r := range c {
		m, err := r.Resolve(path, env)
		if err == nil {
			return m, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("empty resolver chain")
	}
	return nil, errors.Wrapf(lastErr, "resolving %q", path)
}
