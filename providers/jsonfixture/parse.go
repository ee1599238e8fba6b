package jsonfixture

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/Masterminds/semver"
)

// nameSpecRegex splits a requirement string like "foo>=1.0.0,<2.0.0" into
// a bare package name and a trailing constraint expression, the same
// split Python's packaging.requirements.Requirement does by scanning
// past the name before handing the rest to a specifier parser.
var nameSpecRegex = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.\-]*)\s*(.*)$`)

// ParseRequirement parses a requirement string of the form "name",
// "name==1.2.3", or "name>=1.0.0,<2.0.0" (comma-separated constraints are
// ANDed, matching Masterminds/semver.NewConstraint's own comma syntax).
// "==" is accepted as a spelling of semver's exact-match "=" operator.
func ParseRequirement(raw string) (Requirement, error) {
	raw = strings.TrimSpace(raw)
	m := nameSpecRegex.FindStringSubmatch(raw)
	if m == nil {
		return Requirement{}, errors.Errorf("jsonfixture: cannot parse requirement %q", raw)
	}

	name, spec := m[1], strings.TrimSpace(m[2])
	if spec == "" {
		return Requirement{Name: name}, nil
	}

	c, err := semver.NewConstraint(strings.ReplaceAll(spec, "==", "="))
	if err != nil {
		return Requirement{}, errors.Wrapf(err, "jsonfixture: parsing constraint %q for %q", spec, name)
	}
	return Requirement{Name: name, RawSpec: spec, Constraint: c}, nil
}
