package resolvelib

// Provider is the domain oracle the resolution engine drives. It is the
// sole way the core learns anything about the package universe: the core
// never inspects a Requirement or Candidate beyond what Provider methods
// tell it.
//
// Grounded on the SourceManager interface in golang-dep's gps/source_manager.go
// and the sourceBridge adapter in gps/bridge.go: both describe the same
// shape — a narrow capability surface the solver drives, never mutates,
// and never assumes structure about.
type Provider[I comparable, R any, C comparable] interface {
	// Identify returns the identifier for a requirement or a candidate.
	// Two objects map to the same Criterion iff they share an identifier.
	// Must be pure.
	Identify(requirementOrCandidate any) I

	// Preference returns a totally ordered key used to choose which
	// unsatisfied identifier to pin next; smaller sorts earlier. Must be
	// stable enough to break ties deterministically across runs with the
	// same inputs.
	Preference(
		identifier I,
		resolutions map[I]C,
		candidates map[I][]C,
		information map[I][]RequirementInformation[R, C],
		backtrackCauses []RequirementInformation[R, C],
	) PreferenceKey

	// FindMatches returns candidates for identifier, in preferred pinning
	// order, excluding anything present in incompatibilities, and such
	// that every returned candidate satisfies every requirement currently
	// active for identifier. The core re-queries this whenever the active
	// requirement or incompatibility set for identifier changes.
	FindMatches(
		identifier I,
		requirements map[I][]RequirementInformation[R, C],
		incompatibilities map[I][]C,
	) ([]C, error)

	// IsSatisfiedBy reports whether candidate satisfies requirement. Must
	// be pure.
	IsSatisfiedBy(requirement R, candidate C) bool

	// GetDependencies returns the requirements introduced by candidate.
	// Must be pure.
	GetDependencies(candidate C) ([]R, error)
}

// PreferenceKey is an opaque, totally ordered key. Use NewPreferenceKey to
// build one from zero or more ordered components (ints, strings, bools);
// components compare left-to-right, like a tuple.
type PreferenceKey struct {
	parts []prefPart
}

type prefPart struct {
	i int64
	s string
	b bool
	k byte // 'i', 's', or 'b'
}

// NewPreferenceKey builds a PreferenceKey from ordered int components.
func NewPreferenceKey(parts ...int) PreferenceKey {
	pk := PreferenceKey{parts: make([]prefPart, len(parts))}
	for i, p := range parts {
		pk.parts[i] = prefPart{i: int64(p), k: 'i'}
	}
	return pk
}

// WithBool appends a boolean component (false < true) to the key.
func (pk PreferenceKey) WithBool(b bool) PreferenceKey {
	pk.parts = append(append([]prefPart{}, pk.parts...), prefPart{b: b, k: 'b'})
	return pk
}

// WithString appends a string component to the key.
func (pk PreferenceKey) WithString(s string) PreferenceKey {
	pk.parts = append(append([]prefPart{}, pk.parts...), prefPart{s: s, k: 's'})
	return pk
}

// Less reports whether pk sorts before other, comparing components
// left-to-right. Shorter keys sort before longer keys that share a common
// prefix.
func (pk PreferenceKey) Less(other PreferenceKey) bool {
	for i := 0; i < len(pk.parts) && i < len(other.parts); i++ {
		a, b := pk.parts[i], other.parts[i]
		switch {
		case a.k == 'i' && a.i != b.i:
			return a.i < b.i
		case a.k == 's' && a.s != b.s:
			return a.s < b.s
		case a.k == 'b' && a.b != b.b:
			return !a.b && b.b
		}
	}
	return len(pk.parts) < len(other.parts)
}

// NarrowingProvider is an optional extension a Provider may also
// implement: a hook to narrow the set of identifiers the round loop will
// consider pinning this round, e.g. to prefer identifiers with 0 or 1
// remaining candidate. The default, when a Provider does not implement
// this interface, is the identity narrowing (consider every unsatisfied
// identifier).
type NarrowingProvider[I comparable, R any, C comparable] interface {
	NarrowRequirementSelection(
		identifiers []I,
		resolutions map[I]C,
		candidates map[I][]C,
		information map[I][]RequirementInformation[R, C],
		backtrackCauses []RequirementInformation[R, C],
	) []I
}
