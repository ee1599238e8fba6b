package resolvelib

// pin attempts to pin identifier to one of its candidates. It returns
// ok=true on success (mapping updated in place on the top state). On
// failure (the identifier is unresolvable at this state) it returns
// ok=false and causes: the RequirementInformation list to seed Φ for
// backjumping — at minimum criteria[identifier].information.
//
// Grounded on golang-dep's solver.findValidVersion / solver.createVersionQueue
// in gps/solver.go, and the per-candidate satisfiability checks in
// gps/satisfy.go (checkProject/checkDepsDisallowsSelected): both walk a
// candidate list front-to-back, probing dependencies against the current
// selection, and roll back whatever partial state a failed candidate
// accumulated before trying the next one.
func (e *resolution[I, R, C]) pin(identifier I) (ok bool, causes []RequirementInformation[R, C], err error) {
	top := e.stack.top()
	candidates := append([]C{}, top.criteria[identifier].candidates...)

	var encountered []RequirementInformation[R, C]

	for _, candidate := range candidates {
		e.reporter.Visiting(candidate)

		saved := snapshotCriteria(top)

		deps, derr := e.provider.GetDependencies(candidate)
		if derr != nil {
			return false, nil, derr
		}

		conflict := false
		for _, dep := range deps {
			depID := e.provider.Identify(dep)

			if pinnedCandidate, isPinned := top.mapping[depID]; isPinned {
				if !e.provider.IsSatisfiedBy(dep, pinnedCandidate) {
					conflict = true
					break
				}
			}

			if merr := e.addToCriteria(top, depID, dep, candidate, true); merr != nil {
				if rc, isConflict := merr.(*requirementsConflicted[I, R, C]); isConflict {
					encountered = append(encountered, rc.criterion.information...)
					conflict = true
					break
				}
				top.criteria = saved
				return false, nil, merr
			}
		}

		if conflict {
			e.reporter.RejectingCandidate(identifier, candidate)
			top.criteria = saved
			continue
		}

		top.mapping[identifier] = candidate
		e.reporter.Pinning(candidate)
		return true, nil, nil
	}

	causes = append(encountered, top.criteria[identifier].information...)
	return false, causes, nil
}

// snapshotCriteria takes a shallow copy of a state's criteria map,
// suitable for restoring after a failed pinning attempt. Shallow is
// sufficient because every criterion-producing operation (mergedWith,
// excluded) always returns a brand-new criterion rather than mutating an
// existing one in place; slices it changes are copied first, and slices
// it leaves unchanged are shared but never written to.
func snapshotCriteria[I comparable, R any, C comparable](s *state[I, R, C]) map[I]criterion[I, R, C] {
	out := make(map[I]criterion[I, R, C], len(s.criteria))
	for k, v := range s.criteria {
		out[k] = v
	}
	return out
}
