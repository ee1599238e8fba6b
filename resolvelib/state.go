package resolvelib

// state is an immutable-by-convention snapshot: the mapping of identifier
// to pinned candidate, the mapping of identifier to criterion, and the
// backtrack causes that produced this particular snapshot.
//
// Grounded on the trio of stacks golang-dep's solver keeps in lockstep
// (solver.sel, solver.unsel, solver.vqs in gps/solver.go) — this type
// generalizes that trio into a single snapshot, copied whole on push
// rather than maintained as three independently synchronized stacks.
type state[I comparable, R any, C comparable] struct {
	mapping         map[I]C
	criteria        map[I]criterion[I, R, C]
	backtrackCauses []RequirementInformation[R, C]
}

func newState[I comparable, R any, C comparable]() state[I, R, C] {
	return state[I, R, C]{
		mapping:  map[I]C{},
		criteria: map[I]criterion[I, R, C]{},
	}
}

// clone deep-copies mapping and criteria (and the slices each criterion
// holds) so that subsequent mutation of the copy never aliases the
// original. This is the push half of the resolution stack's push/pop
// discipline.
func (s state[I, R, C]) clone() state[I, R, C] {
	mapping := make(map[I]C, len(s.mapping))
	for k, v := range s.mapping {
		mapping[k] = v
	}

	criteria := make(map[I]criterion[I, R, C], len(s.criteria))
	for k, c := range s.criteria {
		criteria[k] = criterion[I, R, C]{
			information:       append([]RequirementInformation[R, C]{}, c.information...),
			incompatibilities: append([]C{}, c.incompatibilities...),
			candidates:        append([]C{}, c.candidates...),
		}
	}

	causes := append([]RequirementInformation[R, C]{}, s.backtrackCauses...)

	return state[I, R, C]{mapping: mapping, criteria: criteria, backtrackCauses: causes}
}

// resolutionStack is the non-empty sequence of states the engine
// maintains. push deep-copies the current top; pop discards it. All
// mutation happens on the top of the stack.
type resolutionStack[I comparable, R any, C comparable] struct {
	frames []state[I, R, C]
}

func newResolutionStack[I comparable, R any, C comparable](initial state[I, R, C]) *resolutionStack[I, R, C] {
	return &resolutionStack[I, R, C]{frames: []state[I, R, C]{initial}}
}

func (rs *resolutionStack[I, R, C]) top() *state[I, R, C] {
	return &rs.frames[len(rs.frames)-1]
}

func (rs *resolutionStack[I, R, C]) depth() int {
	return len(rs.frames)
}

// pushCopyOfTop duplicates the top frame and pushes the duplicate.
func (rs *resolutionStack[I, R, C]) pushCopyOfTop() {
	rs.frames = append(rs.frames, rs.top().clone())
}

// pop discards the top frame. It must never be called when depth() == 1.
func (rs *resolutionStack[I, R, C]) pop() {
	rs.frames = rs.frames[:len(rs.frames)-1]
}
