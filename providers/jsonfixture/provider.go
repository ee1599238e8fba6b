// Package jsonfixture is an in-memory resolvelib.Provider backed by two
// JSON files: a package index (name -> version -> dependency list) and a
// case file naming the index and the root requirements to resolve. Case
// files carry no expected outcome; tests state that themselves. The layout mirrors the index/case pair Python
// resolvelib's functional-test harness reads, so fixtures can be
// authored the same way: one shared index, many small cases against it.
package jsonfixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	radix "github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/Masterminds/semver"

	"github.com/notatallshaw/resolvelib/resolvelib"
)

// Requirement is a name plus an optional version constraint ("" matches
// any version).
type Requirement struct {
	Name       string
	RawSpec    string
	Constraint *semver.Constraints
}

func (r Requirement) String() string {
	if r.RawSpec == "" {
		return r.Name
	}
	return r.Name + r.RawSpec
}

// Candidate is a concrete, resolved (name, version) pair.
type Candidate struct {
	Name    string
	Version *semver.Version
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s==%s", c.Name, c.Version.Original())
}

type indexVersion struct {
	version *semver.Version
	deps    []string
}

// versionTrie is a typed wrapper around a radix tree keyed by package
// name, each leaf holding that package's versions sorted highest-first.
//
// Grounded on golang-dep's deducerTrie in gps/typed_radix.go: the same
// "wrap *radix.Tree so callers never type-assert" shape, applied to
// package names instead of import-path prefixes.
type versionTrie struct {
	t *radix.Tree
}

func newVersionTrie() *versionTrie {
	return &versionTrie{t: radix.New()}
}

func (vt *versionTrie) insert(name string, versions []indexVersion) {
	vt.t.Insert(name, versions)
}

func (vt *versionTrie) get(name string) ([]indexVersion, bool) {
	v, ok := vt.t.Get(name)
	if !ok {
		return nil, false
	}
	return v.([]indexVersion), true
}

// Provider implements resolvelib.Provider[string, Requirement, Candidate]
// over a fixed, fully-loaded package universe.
type Provider struct {
	versions *versionTrie
}

type rawIndex map[string]map[string]struct {
	Dependencies []string `json:"dependencies"`
}

// LoadIndex reads a package-index JSON file of the shape
// {"name": {"version": {"dependencies": ["req", ...]}}}.
func LoadIndex(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "jsonfixture: opening index")
	}
	defer f.Close()

	var raw rawIndex
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "jsonfixture: decoding index %s", path)
	}

	vt := newVersionTrie()
	for name, versions := range raw {
		entries := make([]indexVersion, 0, len(versions))
		for vs, entry := range versions {
			v, err := semver.NewVersion(vs)
			if err != nil {
				return nil, errors.Wrapf(err, "jsonfixture: parsing version %q of %q", vs, name)
			}
			entries = append(entries, indexVersion{version: v, deps: entry.Dependencies})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].version.Compare(entries[j].version) > 0
		})
		vt.insert(name, entries)
	}

	return &Provider{versions: vt}, nil
}

// caseFile is the shape of a case JSON file: which index it resolves
// against (LoadCase's caller is expected to have already loaded it) and
// the root requirement strings.
type caseFile struct {
	Requested []string `json:"requested"`
}

// LoadCase reads a case JSON file's "requested" root requirements and
// parses each one; it does not load or consult any index.
func LoadCase(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "jsonfixture: opening case")
	}
	defer f.Close()

	var cf caseFile
	if err := json.NewDecoder(f).Decode(&cf); err != nil {
		return nil, errors.Wrapf(err, "jsonfixture: decoding case %s", path)
	}

	reqs := make([]Requirement, 0, len(cf.Requested))
	for _, r := range cf.Requested {
		parsed, err := ParseRequirement(r)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, parsed)
	}
	return reqs, nil
}

// LoadIndexNamedForCase is a convenience matching the Python harness's
// layout: <dir>/case/<caseName> (caseName is the full file name, extension
// included) names an index living at <dir>/index/<index-name>.json.
func LoadIndexNamedForCase(fixtureDir, caseName string) (*Provider, []Requirement, error) {
	casePath := filepath.Join(fixtureDir, "case", caseName)

	f, err := os.Open(casePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "jsonfixture: opening case")
	}
	var named struct {
		Index     string   `json:"index"`
		Requested []string `json:"requested"`
	}
	if err := json.NewDecoder(f).Decode(&named); err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "jsonfixture: decoding case %s", casePath)
	}
	f.Close()

	provider, err := LoadIndex(filepath.Join(fixtureDir, "index", named.Index+".json"))
	if err != nil {
		return nil, nil, err
	}

	reqs := make([]Requirement, 0, len(named.Requested))
	for _, r := range named.Requested {
		parsed, err := ParseRequirement(r)
		if err != nil {
			return nil, nil, err
		}
		reqs = append(reqs, parsed)
	}
	return provider, reqs, nil
}

func (p *Provider) Identify(requirementOrCandidate any) string {
	switch v := requirementOrCandidate.(type) {
	case Requirement:
		return v.Name
	case Candidate:
		return v.Name
	default:
		panic(fmt.Sprintf("jsonfixture: Identify called with unexpected type %T", requirementOrCandidate))
	}
}

func (p *Provider) Preference(
	identifier string,
	resolutions map[string]Candidate,
	candidates map[string][]Candidate,
	information map[string][]resolvelib.RequirementInformation[Requirement, Candidate],
	backtrackCauses []resolvelib.RequirementInformation[Requirement, Candidate],
) resolvelib.PreferenceKey {
	transitive := true
	for _, info := range information[identifier] {
		if !info.HasParent {
			transitive = false
			break
		}
	}
	return resolvelib.NewPreferenceKey().WithBool(transitive).WithString(identifier)
}

func (p *Provider) FindMatches(
	identifier string,
	requirements map[string][]resolvelib.RequirementInformation[Requirement, Candidate],
	incompatibilities map[string][]Candidate,
) ([]Candidate, error) {
	entries, ok := p.versions.get(identifier)
	if !ok {
		return nil, nil
	}

	bad := make(map[string]struct{}, len(incompatibilities[identifier]))
	for _, c := range incompatibilities[identifier] {
		bad[c.Version.String()] = struct{}{}
	}

	reqs := requirements[identifier]
	out := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if _, excluded := bad[entry.version.String()]; excluded {
			continue
		}
		satisfiesAll := true
		for _, info := range reqs {
			if info.Requirement.Constraint != nil && !info.Requirement.Constraint.Check(entry.version) {
				satisfiesAll = false
				break
			}
		}
		if !satisfiesAll {
			continue
		}
		out = append(out, Candidate{Name: identifier, Version: entry.version})
	}
	return out, nil
}

func (p *Provider) IsSatisfiedBy(requirement Requirement, candidate Candidate) bool {
	if requirement.Name != candidate.Name {
		return false
	}
	if requirement.Constraint == nil {
		return true
	}
	return requirement.Constraint.Check(candidate.Version)
}

func (p *Provider) GetDependencies(candidate Candidate) ([]Requirement, error) {
	entries, ok := p.versions.get(candidate.Name)
	if !ok {
		return nil, errors.Errorf("jsonfixture: no index entry for %s", candidate.Name)
	}
	for _, entry := range entries {
		if entry.version.Equal(candidate.Version) {
			deps := make([]Requirement, 0, len(entry.deps))
			for _, raw := range entry.deps {
				req, err := ParseRequirement(raw)
				if err != nil {
					return nil, err
				}
				deps = append(deps, req)
			}
			return deps, nil
		}
	}
	return nil, errors.Errorf("jsonfixture: no index entry for %s==%s", candidate.Name, candidate.Version.Original())
}
