package resolvelib

// Resolver is the public entry point: it wires a Provider and a
// Reporter to a fresh resolution run and returns the final pinning and
// dependency graph, or a terminal error.
//
// Grounded on golang-dep's Solve(SolveParameters) top-level function in
// gps/solver.go, which plays the identical role: validate inputs,
// construct a throwaway solver, run it once, and hand back a Solution or
// an error. A Resolver holds no run-scoped state itself, so the same
// value can be reused to kick off independent resolutions.
type Resolver[I comparable, R any, C comparable] struct {
	provider Provider[I, R, C]
	reporter Reporter[I, R, C]
	opts     Options[I, R, C]
}

// New builds a Resolver. reporter may be nil, in which case a no-op
// BaseReporter is used.
func New[I comparable, R any, C comparable](provider Provider[I, R, C], reporter Reporter[I, R, C], opts Options[I, R, C]) *Resolver[I, R, C] {
	if reporter == nil {
		reporter = BaseReporter[I, R, C]{}
	}
	return &Resolver[I, R, C]{provider: provider, reporter: reporter, opts: opts}
}

// Resolve runs one resolution to completion over roots. It returns
// *ResolutionImpossible or *ResolutionTooDeep (or a provider/reporter
// error, propagated unchanged) on failure.
func (rv *Resolver[I, R, C]) Resolve(roots []R) (Result[I, R, C], error) {
	e := &resolution[I, R, C]{
		provider: rv.provider,
		reporter: rv.reporter,
		opts:     rv.opts,
	}
	return e.resolve(roots)
}
