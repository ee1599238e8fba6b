package resolvelib_test

import (
	"testing"

	"github.com/notatallshaw/resolvelib/providers/jsonfixture"
	"github.com/notatallshaw/resolvelib/resolvelib"
)

const fixtureDir = "../providers/jsonfixture/testdata"

// recordingReporter tracks every candidate visited, to check that
// optimistic backjumping visits no more intermediate candidates than
// the conservative path. Visits are keyed by string rendering rather
// than struct identity, since two separate resolve() runs load
// independent Provider instances whose *semver.Version pointers never
// compare equal to each other.
type recordingReporter struct {
	resolvelib.BaseReporter[string, jsonfixture.Requirement, jsonfixture.Candidate]
	visits map[string]int
}

func (r *recordingReporter) Visiting(c jsonfixture.Candidate) {
	if r.visits == nil {
		r.visits = map[string]int{}
	}
	r.visits[c.String()]++
}

func (r *recordingReporter) count(name, version string) int {
	return r.visits[name+"=="+version]
}

func loadCase(t *testing.T, name string) (*jsonfixture.Provider, []jsonfixture.Requirement) {
	t.Helper()
	provider, reqs, err := jsonfixture.LoadIndexNamedForCase(fixtureDir, name)
	if err != nil {
		t.Fatalf("loading case %s: %v", name, err)
	}
	return provider, reqs
}

func resolveCase(t *testing.T, name string, opts resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]) (resolvelib.Result[string, jsonfixture.Requirement, jsonfixture.Candidate], *recordingReporter, error) {
	t.Helper()
	provider, reqs := loadCase(t, name)
	reporter := &recordingReporter{}
	resolver := resolvelib.New[string, jsonfixture.Requirement, jsonfixture.Candidate](provider, reporter, opts)
	result, err := resolver.Resolve(reqs)
	return result, reporter, err
}

func mustVersion(t *testing.T, result resolvelib.Result[string, jsonfixture.Requirement, jsonfixture.Candidate], name string) string {
	t.Helper()
	c, ok := result.Mapping[name]
	if !ok {
		t.Fatalf("identifier %q not pinned; mapping=%v", name, result.Mapping)
	}
	return c.Version.String()
}

func TestTrivial(t *testing.T) {
	result, _, err := resolveCase(t, "s1.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustVersion(t, result, "a"); got != "1.0.0" {
		t.Errorf("a = %s, want 1.0.0", got)
	}
	if kids := result.Graph.RootChildren(); len(kids) != 1 || kids[0] != "a" {
		t.Errorf("root children = %v, want [a]", kids)
	}
}

func TestPickHighest(t *testing.T) {
	result, _, err := resolveCase(t, "s2.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustVersion(t, result, "a"); got != "3.0.0" {
		t.Errorf("a = %s, want 3.0.0", got)
	}
}

func TestTransitive(t *testing.T) {
	result, _, err := resolveCase(t, "s3.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustVersion(t, result, "a"); got != "1.0.0" {
		t.Errorf("a = %s, want 1.0.0", got)
	}
	if got := mustVersion(t, result, "b"); got != "3.0.0" {
		t.Errorf("b = %s, want 3.0.0", got)
	}
}

func TestConflictBacktrack(t *testing.T) {
	result, _, err := resolveCase(t, "s4.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustVersion(t, result, "a"); got != "1.0.0" {
		t.Errorf("a = %s, want 1.0.0", got)
	}
	if got := mustVersion(t, result, "b"); got != "0.9.0" {
		t.Errorf("b = %s, want 0.9.0 (downgraded)", got)
	}
	if got := mustVersion(t, result, "c"); got != "1.0.0" {
		t.Errorf("c = %s, want 1.0.0", got)
	}
}

func TestImpossible(t *testing.T) {
	_, _, err := resolveCase(t, "s5.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err == nil {
		t.Fatal("expected ResolutionImpossible, got nil error")
	}
	impossible, ok := err.(*resolvelib.ResolutionImpossible[string, jsonfixture.Requirement, jsonfixture.Candidate])
	if !ok {
		t.Fatalf("expected *ResolutionImpossible, got %T: %v", err, err)
	}
	ids := map[string]bool{}
	for _, cause := range impossible.Causes {
		ids[cause.Requirement.Name] = true
	}
	if !ids["c"] {
		t.Errorf("expected causes to implicate c, got %v", impossible.Causes)
	}
}

func TestDeepBackjumpVisitsFewerCandidatesWhenOptimistic(t *testing.T) {
	optimistic, optimisticReporter, err := resolveCase(t, "s6.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{
		OptimisticBackjumpingRatio: 0.5,
	})
	if err != nil {
		t.Fatalf("optimistic resolve: %v", err)
	}
	conservative, conservativeReporter, err := resolveCase(t, "s6.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{
		UseConservativeBackjumping: true,
	})
	if err != nil {
		t.Fatalf("conservative resolve: %v", err)
	}

	if got := mustVersion(t, optimistic, "e"); got != "2.0.0" {
		t.Errorf("optimistic e = %s, want 2.0.0", got)
	}
	if got := mustVersion(t, conservative, "e"); got != "2.0.0" {
		t.Errorf("conservative e = %s, want 2.0.0", got)
	}

	countMiddle := func(r *recordingReporter) int {
		total := 0
		for _, n := range []string{"b", "c", "d"} {
			total += r.count(n, "1.0.0")
		}
		return total
	}

	// Both must reach the same answer (property 5: ratio never changes
	// success/failure outcome); the optimistic run should not visit more
	// intermediate-chain candidates than the conservative run.
	optimisticMiddle := countMiddle(optimisticReporter)
	conservativeMiddle := countMiddle(conservativeReporter)
	if optimisticMiddle > conservativeMiddle {
		t.Errorf("optimistic visited more middle-chain candidates (%d) than conservative (%d)", optimisticMiddle, conservativeMiddle)
	}
}

func TestIdempotenceOfDuplicateRoots(t *testing.T) {
	provider, reqs := loadCase(t, "s3.json")
	reqs = append(reqs, reqs[0])

	resolver := resolvelib.New[string, jsonfixture.Requirement, jsonfixture.Candidate](provider, nil, resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	result, err := resolver.Resolve(reqs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustVersion(t, result, "a"); got != "1.0.0" {
		t.Errorf("a = %s, want 1.0.0", got)
	}
	if got := mustVersion(t, result, "b"); got != "3.0.0" {
		t.Errorf("b = %s, want 3.0.0", got)
	}
}

func TestDeterminism(t *testing.T) {
	result1, _, err := resolveCase(t, "s4.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve 1: %v", err)
	}
	result2, _, err := resolveCase(t, "s4.json", resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{})
	if err != nil {
		t.Fatalf("resolve 2: %v", err)
	}
	for id, c1 := range result1.Mapping {
		c2, ok := result2.Mapping[id]
		if !ok || c1.Version.String() != c2.Version.String() {
			t.Errorf("identifier %s diverged across runs: %v vs %v", id, c1, result2.Mapping[id])
		}
	}
}

func TestResolutionTooDeep(t *testing.T) {
	provider, reqs := loadCase(t, "s3.json")
	resolver := resolvelib.New[string, jsonfixture.Requirement, jsonfixture.Candidate](provider, nil, resolvelib.Options[string, jsonfixture.Requirement, jsonfixture.Candidate]{
		MaxRounds: 1,
	})
	_, err := resolver.Resolve(reqs)
	if _, ok := err.(*resolvelib.ResolutionTooDeep); !ok {
		t.Fatalf("expected *ResolutionTooDeep, got %T: %v", err, err)
	}
}
