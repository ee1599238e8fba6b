// Package pypisimple is an HTTP-backed resolvelib.Provider against a
// PyPI-style "simple index" (https://peps.python.org/pep-0503/): one
// page per project, listing links to that project's distribution
// files. Candidates are built from wheel filenames found on that page;
// a candidate's dependencies are discovered by fetching and parsing the
// wheel's own METADATA file.
//
// Directly grounded on original_source/examples/pypi_wheel_provider.py
// (PyPIProvider, get_project_from_pypi, get_metadata_for_wheel), with
// the network-fetch discipline of golang-dep's deduce.go's
// fetchMetadata/doFetchMetadata: context-scoped requests, no retries
// hidden from the caller, errors wrapped with the URL that failed.
package pypisimple

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/Masterminds/semver"

	"github.com/notatallshaw/resolvelib/resolvelib"
)

const defaultIndexURL = "https://pypi.org/simple"

// Requirement is a project name plus an optional version constraint.
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

// Candidate is a concrete distribution file: a project name, version,
// and the URL its wheel was found at.
type Candidate struct {
	Name    string
	Version *semver.Version
	URL     string
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s==%s", c.Name, c.Version.Original())
}

// Provider implements resolvelib.Provider[string, Requirement, Candidate]
// by querying a PyPI-compatible simple index over HTTP.
type Provider struct {
	IndexURL string
	Client   *http.Client
	Context  context.Context

	depsCache map[string][]Requirement
}

// New builds a Provider against indexURL (the default PyPI simple index
// if empty), using client for every HTTP call (http.DefaultClient if
// nil) and ctx to bound every request the Provider makes.
func New(ctx context.Context, indexURL string, client *http.Client) *Provider {
	if indexURL == "" {
		indexURL = defaultIndexURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{
		IndexURL:  indexURL,
		Client:    client,
		Context:   ctx,
		depsCache: map[string][]Requirement{},
	}
}

func (p *Provider) Identify(requirementOrCandidate any) string {
	switch v := requirementOrCandidate.(type) {
	case Requirement:
		return canonicalize(v.Name)
	case Candidate:
		return canonicalize(v.Name)
	default:
		panic(fmt.Sprintf("pypisimple: Identify called with unexpected type %T", requirementOrCandidate))
	}
}

// canonicalize matches packaging.utils.canonicalize_name: lowercase,
// runs of -_. collapsed to a single hyphen.
func canonicalize(name string) string {
	name = strings.ToLower(name)
	var buf strings.Builder
	lastWasSep := false
	for _, r := range name {
		if r == '-' || r == '_' || r == '.' {
			if !lastWasSep {
				buf.WriteByte('-')
			}
			lastWasSep = true
			continue
		}
		lastWasSep = false
		buf.WriteRune(r)
	}
	return buf.String()
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
	all, err := p.fetchProjectCandidates(identifier)
	if err != nil {
		return nil, err
	}

	bad := make(map[string]struct{}, len(incompatibilities[identifier]))
	for _, c := range incompatibilities[identifier] {
		bad[c.Version.String()] = struct{}{}
	}

	reqs := requirements[identifier]
	out := make([]Candidate, 0, len(all))
	for _, c := range all {
		if _, excluded := bad[c.Version.String()]; excluded {
			continue
		}
		satisfiesAll := true
		for _, info := range reqs {
			if info.Requirement.Constraint != nil && !info.Requirement.Constraint.Check(c.Version) {
				satisfiesAll = false
				break
			}
		}
		if satisfiesAll {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Provider) IsSatisfiedBy(requirement Requirement, candidate Candidate) bool {
	if canonicalize(requirement.Name) != canonicalize(candidate.Name) {
		return false
	}
	if requirement.Constraint == nil {
		return true
	}
	return requirement.Constraint.Check(candidate.Version)
}

func (p *Provider) GetDependencies(candidate Candidate) ([]Requirement, error) {
	if deps, ok := p.depsCache[candidate.URL]; ok {
		return deps, nil
	}

	deps, err := p.fetchWheelDependencies(candidate.URL)
	if err != nil {
		return nil, err
	}
	p.depsCache[candidate.URL] = deps
	return deps, nil
}

// fetchProjectCandidates downloads and parses a project's simple-index
// page, returning one Candidate per wheel link, newest version first.
// Non-wheel links (sdists, other extensions) and filenames carrying a
// version string semver cannot parse are skipped, not treated as
// errors — PyPI's simple index intentionally exposes arbitrary legacy
// naming that no resolver can make sense of uniformly.
func (p *Provider) fetchProjectCandidates(project string) ([]Candidate, error) {
	pageURL := fmt.Sprintf("%s/%s/", strings.TrimRight(p.IndexURL, "/"), project)

	body, err := p.get(pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := html.Parse(body)
	if err != nil {
		return nil, errors.Wrapf(err, "pypisimple: parsing index page %s", pageURL)
	}

	var candidates []Candidate
	walkLinks(doc, func(href string) {
		name, version, ok := parseWheelFilename(href)
		if !ok {
			return
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			return
		}
		resolved, err := url.Parse(href)
		if err != nil {
			return
		}
		base, err := url.Parse(pageURL)
		if err == nil {
			resolved = base.ResolveReference(resolved)
		}
		candidates = append(candidates, Candidate{Name: name, Version: v, URL: resolved.String()})
	})

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version.Compare(candidates[j].Version) > 0
	})
	return candidates, nil
}

// walkLinks calls fn with the href attribute of every <a> element found
// anywhere in the document.
func walkLinks(n *html.Node, fn func(href string)) {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				fn(attr.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkLinks(c, fn)
	}
}

// parseWheelFilename extracts (name, version) from a wheel filename of
// the form {name}-{version}-{python tag}-{abi tag}-{platform tag}.whl,
// matching pypi_wheel_provider.py's "very primitive wheel filename
// parsing": split on '-', take the first two fields.
func parseWheelFilename(href string) (name, version string, ok bool) {
	path := href
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	path = path[strings.LastIndexByte(path, '/')+1:]
	if !strings.HasSuffix(path, ".whl") {
		return "", "", false
	}
	fields := strings.Split(strings.TrimSuffix(path, ".whl"), "-")
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// fetchWheelDependencies downloads wheelURL, finds the *.dist-info/METADATA
// entry inside the zip, and parses its Requires-Dist header lines into
// Requirements. Markers (environment/extras conditionals) are not
// evaluated: every Requires-Dist line is included with its marker text
// dropped, and only lines whose requirement does not parse are skipped,
// matching the reference implementation's documented
// scope of "extras not supported in this example".
func (p *Provider) fetchWheelDependencies(wheelURL string) ([]Requirement, error) {
	body, err := p.get(wheelURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "pypisimple: reading wheel %s", wheelURL)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "pypisimple: opening wheel %s as zip", wheelURL)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".dist-info/METADATA") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "pypisimple: reading METADATA in %s", wheelURL)
		}
		defer rc.Close()
		return parseRequiresDist(rc)
	}

	// No METADATA entry found: treat as a dependency-free leaf rather
	// than an error, mirroring get_metadata_for_wheel's empty-message
	// fallback.
	return nil, nil
}

func parseRequiresDist(r io.Reader) ([]Requirement, error) {
	var deps []Requirement
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			// Blank line ends the header block; the message body follows.
			break
		}
		const prefix = "Requires-Dist:"
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if idx := strings.IndexByte(raw, ';'); idx >= 0 {
			// A marker follows the ';'; unevaluated per this provider's
			// documented scope, so the bare requirement is kept and the
			// marker text dropped.
			raw = strings.TrimSpace(raw[:idx])
		}
		req, err := ParseRequirement(raw)
		if err != nil {
			continue
		}
		deps = append(deps, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "pypisimple: scanning METADATA")
	}
	return deps, nil
}

// get issues a context-bounded GET and returns the response body on
// success, closing it itself and returning a wrapped error on any
// non-2xx status.
func (p *Provider) get(rawURL string) (io.ReadCloser, error) {
	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "pypisimple: building request for %s", rawURL)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "pypisimple: fetching %s", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errors.Errorf("pypisimple: %s returned status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}
