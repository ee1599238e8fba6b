package resolvelib

// chooseIdentifier optionally narrows the unsatisfied set via the
// provider's NarrowingProvider hook (default identity), then picks the
// identifier with the smallest preference key, breaking ties by the
// stable order unsatisfiedNames already imposed.
func (e *resolution[I, R, C]) chooseIdentifier(s *state[I, R, C], unsatisfied []I) I {
	narrowed := unsatisfied
	if np, ok := e.provider.(NarrowingProvider[I, R, C]); ok {
		n := np.NarrowRequirementSelection(unsatisfied, s.mapping, candidatesByID(s), activeByID(s), s.backtrackCauses)
		if len(n) > 0 {
			narrowed = n
		}
	}

	best := narrowed[0]
	bestKey := e.preferenceFor(s, best)
	for _, id := range narrowed[1:] {
		key := e.preferenceFor(s, id)
		if key.Less(bestKey) {
			best, bestKey = id, key
		}
	}
	return best
}

func (e *resolution[I, R, C]) preferenceFor(s *state[I, R, C], id I) PreferenceKey {
	return e.provider.Preference(id, s.mapping, candidatesByID(s), activeByID(s), s.backtrackCauses)
}
