package resolvelib

import (
	"fmt"
	"sort"
)

// DefaultMaxRounds is the round budget used when Options.MaxRounds is 0
// or negative.
const DefaultMaxRounds = 500

// DefaultOptimisticBackjumpingRatio is the default aggressive-popping
// budget fraction for backjump.
const DefaultOptimisticBackjumpingRatio = 0.5

// Options configures a single Resolve call. The zero value is valid and
// uses every default.
type Options[I comparable, R, C any] struct {
	// MaxRounds bounds how many pin/backjump rounds the engine will run
	// before raising ResolutionTooDeep. Zero means DefaultMaxRounds.
	MaxRounds int

	// OptimisticBackjumpingRatio sets the fraction of the stack depth at
	// the point of failure above which backjump() takes the optimistic
	// fast path: the first identifier whose exclusion leaves a frame
	// unsatisfiable is enough to climb past that frame, without checking
	// whether any of its other touched identifiers would also need
	// excluding. Once the remaining depth drops below the ratio-scaled
	// floor, the engine re-checks every touched identifier at a frame
	// before climbing past it. Climbing itself is never optional — this
	// ratio only trades per-frame thoroughness for speed. Zero uses
	// DefaultOptimisticBackjumpingRatio; a caller that wants the fully
	// conservative path everywhere (to stress-test it) should pass a
	// strictly negative number — not 0, since 0 is the "use the
	// default" sentinel.
	OptimisticBackjumpingRatio float64

	// UseConservativeBackjumping, when true, forces the thorough,
	// check-every-touched-identifier path at every frame regardless of
	// OptimisticBackjumpingRatio. This is the knob to reach the
	// conservative path without fighting the "0 means default" sentinel
	// above.
	UseConservativeBackjumping bool
}

func (o Options[I, R, C]) maxRounds() int {
	if o.MaxRounds <= 0 {
		return DefaultMaxRounds
	}
	return o.MaxRounds
}

func (o Options[I, R, C]) ratio() float64 {
	if o.UseConservativeBackjumping {
		return 0
	}
	if o.OptimisticBackjumpingRatio == 0 {
		return DefaultOptimisticBackjumpingRatio
	}
	if o.OptimisticBackjumpingRatio < 0 {
		return 0
	}
	return o.OptimisticBackjumpingRatio
}

// resolution drives one resolve() run: it owns the stack and the
// provider/reporter pair for the duration of the run. Grounded on
// golang-dep's *solver in gps/solver.go, which plays exactly this role —
// one struct, one run, never reused across resolutions.
type resolution[I comparable, R any, C comparable] struct {
	provider Provider[I, R, C]
	reporter Reporter[I, R, C]
	stack    *resolutionStack[I, R, C]
	opts     Options[I, R, C]
}

func activeByID[I comparable, R any, C comparable](s *state[I, R, C]) map[I][]RequirementInformation[R, C] {
	out := make(map[I][]RequirementInformation[R, C], len(s.criteria))
	for id, c := range s.criteria {
		out[id] = c.information
	}
	return out
}

func incompatByID[I comparable, R any, C comparable](s *state[I, R, C]) map[I][]C {
	out := make(map[I][]C, len(s.criteria))
	for id, c := range s.criteria {
		out[id] = c.incompatibilities
	}
	return out
}

func candidatesByID[I comparable, R any, C comparable](s *state[I, R, C]) map[I][]C {
	out := make(map[I][]C, len(s.criteria))
	for id, c := range s.criteria {
		out[id] = c.candidates
	}
	return out
}

// addToCriteria is the sole injection primitive by which criteria grow:
// it merges (requirement, parent) into criteria[I], assigns the merged
// criterion back, and surfaces requirementsConflicted if the result is
// unsatisfiable.
func (e *resolution[I, R, C]) addToCriteria(s *state[I, R, C], identifier I, requirement R, parent C, hasParent bool) error {
	old := s.criteria[identifier] // zero value is a valid empty criterion

	merged, err := mergedWith(old, requirement, parent, hasParent, identifier, activeByID(s), incompatByID(s), e.provider)
	s.criteria[identifier] = merged
	if hasParent {
		e.reporter.AddingRequirement(requirement, parent, true)
	} else {
		var zero C
		e.reporter.AddingRequirement(requirement, zero, false)
	}
	return err
}

// resolve runs the round loop to completion, returning the final Result
// or a terminal error (ResolutionImpossible / ResolutionTooDeep).
func (e *resolution[I, R, C]) resolve(roots []R) (Result[I, R, C], error) {
	e.reporter.Starting()

	initial := newState[I, R, C]()
	e.stack = newResolutionStack(initial)
	top := e.stack.top()

	var conflictCauses []RequirementInformation[R, C]
	for _, r := range roots {
		id := e.provider.Identify(r)
		if err := e.addToCriteria(top, id, r, zeroOf[C](), false); err != nil {
			if rc, ok := err.(*requirementsConflicted[I, R, C]); ok {
				conflictCauses = append(conflictCauses, rc.criterion.information...)
				continue
			}
			return Result[I, R, C]{}, err
		}
	}
	if len(conflictCauses) > 0 {
		return Result[I, R, C]{}, &ResolutionImpossible[I, R, C]{Causes: conflictCauses}
	}

	maxRounds := e.opts.maxRounds()
	for round := 0; round < maxRounds; round++ {
		e.reporter.StartingRound(round)

		top = e.stack.top()
		unsatisfied := unsatisfiedNames(top)
		if len(unsatisfied) == 0 {
			e.reporter.Ending(top.mapping)
			return buildResult(*top, e.identifyCandidate), nil
		}

		identifier := e.chooseIdentifier(top, unsatisfied)

		// Pin works on a fresh frame, deep-copied from the current top, so
		// a failed attempt's partial criteria mutations can never leak
		// into the frame backjump will pop back to. The copy is kept only
		// if the pin actually lands; otherwise it is discarded immediately
		// so the stack depth backjump sees reflects the state as of the
		// start of this round, not this round's failed attempt.
		e.stack.pushCopyOfTop()
		top = e.stack.top()

		ok, causes, err := e.pin(identifier)
		if err != nil {
			return Result[I, R, C]{}, err
		}
		if !ok {
			e.stack.pop()
			if err := e.backjump(causes); err != nil {
				return Result[I, R, C]{}, err
			}
		}

		e.reporter.EndingRound(round, e.stack.top().mapping)
	}

	return Result[I, R, C]{}, &ResolutionTooDeep{MaxRounds: maxRounds}
}

func zeroOf[T any]() T {
	var z T
	return z
}

func (e *resolution[I, R, C]) identifyCandidate(c C) I {
	return e.provider.Identify(c)
}

// unsatisfiedNames returns identifiers present in criteria but not yet
// in mapping.
func unsatisfiedNames[I comparable, R any, C comparable](s *state[I, R, C]) []I {
	var out []I
	for id := range s.criteria {
		if _, pinned := s.mapping[id]; !pinned {
			out = append(out, id)
		}
	}
	// Stable order independent of Go's randomized map iteration, so that
	// preference ties break deterministically on the identifiers' %v
	// string order; the order in which criteria were added is not tracked.
	sort.Slice(out, func(i, j int) bool { return lessStable(out[i], out[j]) })
	return out
}

// lessStable provides a deterministic fallback order over identifiers
// when nothing else distinguishes them, using fmt's default formatting as
// a total, if arbitrary, order. Preference() ties are expected to be rare
// in a well-behaved Provider; this only guards against Go map iteration
// order leaking into the observable pinning sequence.
func lessStable[I comparable](a, b I) bool {
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}
