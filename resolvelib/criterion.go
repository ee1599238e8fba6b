package resolvelib

// criterion is the live set of (requirement, parent) edges for one
// identifier, plus its current candidate list in provider-preferred
// order. Criteria are logically immutable values: every operation below
// returns a new criterion rather than mutating the receiver, so the
// engine can replace map entries instead of mutating state shared with an
// earlier stack frame.
//
// Grounded on golang-dep's gps/selection.go (selection.getConstraint,
// which recomputes an intersection on demand) generalized from "a
// semver-specific constraint intersection" to "re-run FindMatches with
// the provider".
type criterion[I comparable, R any, C comparable] struct {
	information       []RequirementInformation[R, C]
	incompatibilities []C
	candidates        []C
}

// requirementsConflicted is the internal, engine-only signal raised by
// mergedWith when no candidate satisfies the merged requirement set. It
// is always recovered by the engine: either by moving on to the next
// pinning candidate, or by triggering a backjump. It never escapes to a
// caller of Resolver.Resolve.
type requirementsConflicted[I comparable, R any, C comparable] struct {
	criterion criterion[I, R, C]
}

func (e *requirementsConflicted[I, R, C]) Error() string {
	return "requirements conflicted"
}

// mergedWith returns a new criterion with (requirement, parent) appended
// to information, and candidates re-filtered through the provider so that
// only matches satisfying every requirement in the merged information
// remain, in the same provider-preferred order. If the filtered candidate
// list is empty, it returns requirementsConflicted carrying the new
// (unsatisfiable) criterion.
func mergedWith[I comparable, R any, C comparable](
	old criterion[I, R, C],
	requirement R,
	parent C,
	hasParent bool,
	identifier I,
	activeByID map[I][]RequirementInformation[R, C],
	incompatByID map[I][]C,
	provider Provider[I, R, C],
) (criterion[I, R, C], error) {
	var newInfo RequirementInformation[R, C]
	if hasParent {
		newInfo = parentInfo(requirement, parent)
	} else {
		newInfo = rootInfo[R, C](requirement)
	}
	info := append(append([]RequirementInformation[R, C]{}, old.information...), newInfo)

	merged := map[I][]RequirementInformation[R, C]{}
	for k, v := range activeByID {
		merged[k] = v
	}
	merged[identifier] = info

	matches, err := provider.FindMatches(identifier, merged, incompatByID)
	if err != nil {
		return criterion[I, R, C]{}, err
	}

	for _, m := range matches {
		for _, reqInfo := range info {
			if !provider.IsSatisfiedBy(reqInfo.Requirement, m) {
				return criterion[I, R, C]{}, &InconsistentCandidate[I, R, C]{
					Identifier:  identifier,
					Candidate:   m,
					Requirement: reqInfo.Requirement,
				}
			}
		}
	}

	newCrit := criterion[I, R, C]{
		information:       info,
		incompatibilities: old.incompatibilities,
		candidates:        matches,
	}

	if len(matches) == 0 {
		return newCrit, &requirementsConflicted[I, R, C]{criterion: newCrit}
	}

	return newCrit, nil
}

// excluded returns a new criterion with candidate added to
// incompatibilities and removed from candidates.
func excluded[I comparable, R any, C comparable](c criterion[I, R, C], candidate C) criterion[I, R, C] {
	remaining := make([]C, 0, len(c.candidates))
	for _, cand := range c.candidates {
		if cand != candidate {
			remaining = append(remaining, cand)
		}
	}

	return criterion[I, R, C]{
		information:       c.information,
		incompatibilities: append(append([]C{}, c.incompatibilities...), candidate),
		candidates:        remaining,
	}
}

// iterRequirements returns the requirements carried by this criterion, in
// the order they were merged in.
func (c criterion[I, R, C]) iterRequirements() []R {
	rs := make([]R, len(c.information))
	for i, info := range c.information {
		rs[i] = info.Requirement
	}
	return rs
}
