package resolvelib

import "sort"

// backjump implements causal backjumping with an optimistic fast path.
// causes seeds Φ, the cause set blamed for the failure that triggered
// this call.
//
// Grounded on golang-dep's solver.backtrack() in gps/solver.go, which
// pops the selection/version-queue stacks together until it finds a
// project whose version queue still has untried versions, excluding the
// version that just failed along the way. This generalizes that
// mechanism from "one queue per project" to a causal intersection test:
// only pop and repair frames that actually touch the conflicting
// identifiers.
//
// current_dependencies tracks both a requirement's own identifier and
// the identifier of whatever candidate introduced it. A conflict several
// levels down a dependency chain is only ever repairable at the
// ancestor frame that chose the candidate which, transitively, forced
// the bad requirement — so blame has to walk the parent chain, not just
// sit on the leaf identifier that happened to conflict; a deep,
// unbranching chain is unrepairable if blame can't reach past the leaf.
//
// Climbing past a frame whose repair still leaves a criterion
// unsatisfied is mandatory, never budget-gated: the loop only ever
// stops by finding a frame where every touched criterion stays
// satisfied, or by exhausting the stack. The ratio-scaled budget
// instead governs how thorough each individual frame's repair pass is.
// While the remaining stack depth stays at or above the ratio-scaled
// floor, the engine is optimistic: the moment one identifier's
// exclusion leaves its criterion unsatisfiable, it stops examining the
// rest of that frame's touched identifiers and climbs immediately.
// Below the floor (or with conservative backjumping forced), it keeps
// examining every touched identifier at the frame before deciding
// whether to climb, trading extra per-frame work for a Φ that is at
// least as complete. Both reach the same answer; the optimistic pass
// just gets there having excluded fewer candidates along the way.
func (e *resolution[I, R, C]) backjump(causes []RequirementInformation[R, C]) error {
	phi := append([]RequirementInformation[R, C]{}, causes...)
	currentDeps := e.idsOfRequirements(phi)

	initialDepth := e.stack.depth()
	floor := initialDepth - int(float64(initialDepth)*e.opts.ratio())

	for {
		if e.stack.depth() <= 1 {
			return &ResolutionImpossible[I, R, C]{Causes: phi}
		}

		poppedFrame := *e.stack.top()
		e.stack.pop()

		top := e.stack.top()
		incompatible := intersectIdentifiers(currentDeps, top)
		if len(incompatible) == 0 {
			// No frame touching the conflict yet; this pop was free
			// (nothing to repair, nothing visited) — keep climbing
			// regardless of budget.
			continue
		}

		aggressive := e.stack.depth() >= floor

		extended := false
		for _, j := range incompatible {
			badCandidate, found := badCandidateFor(j, poppedFrame, phi, e.provider)
			if !found {
				// Nothing pins or blames J at this frame: its criterion
				// is already whatever it was before the conflict ever
				// arose, and needs no repair here.
				continue
			}
			newCrit := excluded(top.criteria[j], badCandidate)
			top.criteria[j] = newCrit
			if len(newCrit.candidates) == 0 {
				phi = append(phi, newCrit.information...)
				extended = true
				if aggressive {
					break
				}
			}
		}

		if extended {
			// This frame's repair attempt still leaves an unsatisfiable
			// criterion: it cannot be the landing frame. Jump further
			// rather than finalizing a mapping removal here (the frame
			// is about to be popped again next iteration).
			currentDeps = e.idsOfRequirements(phi)
			continue
		}

		var unpinned []I
		for _, j := range incompatible {
			if _, wasPinned := top.mapping[j]; wasPinned {
				unpinned = append(unpinned, j)
			}
			delete(top.mapping, j)
		}
		if len(unpinned) > 0 {
			e.purgeStaleInformation(top, unpinned)
		}
		top.backtrackCauses = phi
		e.reporter.ResolvingConflicts(phi)
		return nil
	}
}

// purgeStaleInformation strips every criterion's information entries
// whose parent was one of the identifiers just unpinned, and re-derives
// that criterion's candidates from what remains. Without this, a
// criterion whose sole blame traces back through a candidate backjump
// just discarded stays wrongly unsatisfied forever: nothing else ever
// re-adds a requirement for it, since its parent is gone and nothing
// will choose that parent's candidate again until this identifier's own
// criterion recovers enough candidates to be pinned. Removing a
// requirement can only grow a candidate set, so this never itself
// raises requirementsConflicted.
func (e *resolution[I, R, C]) purgeStaleInformation(top *state[I, R, C], unpinned []I) {
	stale := make(map[I]struct{}, len(unpinned))
	for _, id := range unpinned {
		stale[id] = struct{}{}
	}

	for id, c := range top.criteria {
		kept := make([]RequirementInformation[R, C], 0, len(c.information))
		changed := false
		for _, info := range c.information {
			if info.HasParent {
				if _, isStale := stale[e.provider.Identify(info.Parent)]; isStale {
					changed = true
					continue
				}
			}
			kept = append(kept, info)
		}
		if !changed {
			continue
		}

		active := activeByID(top)
		active[id] = kept
		matches, err := e.provider.FindMatches(id, active, incompatByID(top))
		if err != nil {
			continue
		}
		top.criteria[id] = criterion[I, R, C]{
			information:       kept,
			incompatibilities: c.incompatibilities,
			candidates:        matches,
		}
	}
}

// idsOfRequirements returns the identifiers a cause set Φ implicates:
// each entry's own requirement, plus — when it has one — the identifier
// of the parent candidate that introduced it.
func (e *resolution[I, R, C]) idsOfRequirements(infos []RequirementInformation[R, C]) map[I]struct{} {
	out := make(map[I]struct{}, len(infos))
	for _, info := range infos {
		out[e.provider.Identify(info.Requirement)] = struct{}{}
		if info.HasParent {
			out[e.provider.Identify(info.Parent)] = struct{}{}
		}
	}
	return out
}

// intersectIdentifiers returns currentDeps ∩ (dom(top.mapping) ∪ dom(top.criteria)),
// sorted by lessStable so which identifier gets repaired first never
// depends on map iteration order.
func intersectIdentifiers[I comparable, R any, C comparable](currentDeps map[I]struct{}, top *state[I, R, C]) []I {
	var out []I
	for id := range currentDeps {
		if _, inMapping := top.mapping[id]; inMapping {
			out = append(out, id)
			continue
		}
		if _, inCriteria := top.criteria[id]; inCriteria {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessStable(out[i], out[j]) })
	return out
}

// badCandidateFor finds the candidate that should be excluded from
// criteria[j] for the just-popped frame: the candidate popped.mapping[j]
// pinned, if any, else any blamed parent in Φ whose own identifier is j.
func badCandidateFor[I comparable, R any, C comparable](j I, popped state[I, R, C], phi []RequirementInformation[R, C], provider Provider[I, R, C]) (C, bool) {
	if c, ok := popped.mapping[j]; ok {
		return c, true
	}
	for _, info := range phi {
		if info.HasParent && provider.Identify(info.Parent) == j {
			return info.Parent, true
		}
	}
	var zero C
	return zero, false
}
