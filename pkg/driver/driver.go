// Package driver wires the inference engine into a persistent session: one
// configuration environment, one module resolver, one shared query cache,
// and a checker whose global scope survives across module checks. Embedders
// and tests talk to a Session instead of assembling the pieces by hand.
package driver

import (
	"context"

	"pythia/pkg/cache"
	"pythia/pkg/checker"
	"pythia/pkg/config"
	"pythia/pkg/diag"
	"pythia/pkg/modules"
	"pythia/pkg/pyast"
	"pythia/pkg/types"
)

// Session is a persistent checking session. Names defined by one checked
// module remain visible to later ones, the way a REPL or a stub-warming
// pass would expect.
type Session struct {
	env      *config.Environment
	resolver modules.Resolver
	queries  *cache.QueryCache
	checker  *checker.Checker
}

// Option configures a Session.
type Option func(*Session)

// WithEnvironment pins the target Python version and platform. The default
// is config.Default().
func WithEnvironment(env *config.Environment) Option {
	return func(s *Session) { s.env = env }
}

// WithResolver replaces the module resolver. The default resolver serves
// the built-in stdlib stubs; pass a ChainResolver to layer project modules
// on top of them.
func WithResolver(r modules.Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

// NewSession creates a session with the built-in stdlib stubs and a fresh
// query cache.
func NewSession(opts ...Option) *Session {
	s := &Session{
		env:     config.Default(),
		queries: cache.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = Stdlib()
	}
	s.checker = checker.NewChecker(s.env,
		checker.WithResolver(s.resolver),
		checker.WithQueryCache(s.queries),
	)
	return s
}

// CheckModule type-checks one module body. Bindings it creates persist in
// the session scope. The returned diagnostics are those of this call only.
func (s *Session) CheckModule(ctx context.Context, mod *pyast.Module) ([]*diag.Diagnostic, error) {
	before := len(s.checker.Diagnostics())
	_, err := s.checker.CheckModule(ctx, mod)
	if err != nil {
		return nil, err
	}
	return s.checker.Diagnostics()[before:], nil
}

// Infer evaluates a single expression in the session scope.
func (s *Session) Infer(e pyast.Expr) types.Type {
	return s.checker.InferExpr(e)
}

// Define predefines a global binding, the embedding hook for host-provided
// symbols.
func (s *Session) Define(name string, t types.Type) {
	s.checker.Scope().Define(name, t)
}

// Environment returns the session's target environment.
func (s *Session) Environment() *config.Environment { return s.env }

// Diagnostics returns every diagnostic the session has accumulated.
func (s *Session) Diagnostics() []*diag.Diagnostic {
	return s.checker.Diagnostics()
}
