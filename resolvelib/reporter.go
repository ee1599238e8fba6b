package resolvelib

// Reporter is a capability set of lifecycle callbacks, purely
// informational: nothing it does can change the resolution outcome. All
// methods are optional in spirit; embed BaseReporter to get no-op
// defaults and override only what you need.
//
// Grounded on golang-dep's SolveParameters.Trace/TraceLogger pair in
// gps/solver.go and the traceXxx helper methods on *solver (trace.go),
// generalized: rather than a single optional *log.Logger wired through
// one boolean flag, the reporter is its own interface so a caller can
// hook only the events it cares about (e.g. Visiting, for a "never
// visits a pruned candidate" test) without having to parse log lines.
type Reporter[I comparable, R, C any] interface {
	Starting()
	StartingRound(index int)
	EndingRound(index int, mapping map[I]C)
	Ending(mapping map[I]C)
	AddingRequirement(requirement R, parent C, hasParent bool)
	RejectingCandidate(identifier I, candidate C)
	Pinning(candidate C)
	ResolvingConflicts(causes []RequirementInformation[R, C])
	Visiting(candidate C)
}

// BaseReporter is a Reporter whose every method is a no-op. Embed it in a
// custom reporter and override selectively.
type BaseReporter[I comparable, R, C any] struct{}

func (BaseReporter[I, R, C]) Starting()                                           {}
func (BaseReporter[I, R, C]) StartingRound(index int)                             {}
func (BaseReporter[I, R, C]) EndingRound(index int, mapping map[I]C)              {}
func (BaseReporter[I, R, C]) Ending(mapping map[I]C)                              {}
func (BaseReporter[I, R, C]) AddingRequirement(requirement R, parent C, has bool) {}
func (BaseReporter[I, R, C]) RejectingCandidate(identifier I, candidate C)        {}
func (BaseReporter[I, R, C]) Pinning(candidate C)                                 {}
func (BaseReporter[I, R, C]) ResolvingConflicts(causes []RequirementInformation[R, C]) {}
func (BaseReporter[I, R, C]) Visiting(candidate C)                                {}

// VisitLog is an optional side-channel a test-oriented Reporter can embed
// to record every candidate the engine actually considered pinning, e.g.
// to compare how many candidates optimistic and conservative backjumping
// visit.
//
// Embed VisitLog in a custom Reporter and forward Visiting to Visit to
// enable it; BaseReporter alone does not track anything.
type VisitLog[C comparable] struct {
	visited map[C]int
}

// Visit records that candidate was considered.
func (v *VisitLog[C]) Visit(candidate C) {
	if v.visited == nil {
		v.visited = map[C]int{}
	}
	v.visited[candidate]++
}

// Count returns how many times candidate was considered.
func (v *VisitLog[C]) Count(candidate C) int {
	return v.visited[candidate]
}
