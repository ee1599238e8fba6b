package pypisimple

import (
	"strings"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"Foo_Bar":     "foo-bar",
		"foo.bar":     "foo-bar",
		"foo--bar":    "foo-bar",
		"Foo.Bar-Baz": "foo-bar-baz",
		"already-ok":  "already-ok",
	}
	for in, want := range cases {
		if got := canonicalize(in); got != want {
			t.Errorf("canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseWheelFilename(t *testing.T) {
	name, version, ok := parseWheelFilename("/simple/requests/requests-2.31.0-py3-none-any.whl")
	if !ok {
		t.Fatal("expected ok")
	}
	if name != "requests" || version != "2.31.0" {
		t.Errorf("got (%q, %q), want (requests, 2.31.0)", name, version)
	}
}

func TestParseWheelFilenameRejectsNonWheel(t *testing.T) {
	if _, _, ok := parseWheelFilename("/simple/requests/requests-2.31.0.tar.gz"); ok {
		t.Error("expected sdist filename to be rejected")
	}
}

func TestParseRequirement(t *testing.T) {
	req, err := ParseRequirement("requests>=2.0.0,<3.0.0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Name != "requests" {
		t.Errorf("Name = %q, want requests", req.Name)
	}
	if req.Constraint == nil {
		t.Fatal("expected a non-nil constraint")
	}
}

func TestParseRequirementRejectsExtras(t *testing.T) {
	if _, err := ParseRequirement("requests[security]>=2.0.0"); err == nil {
		t.Error("expected an error for a requirement with extras")
	}
}

func TestParseRequiresDist(t *testing.T) {
	metadata := strings.Join([]string{
		"Metadata-Version: 2.1",
		"Name: example",
		"Requires-Dist: certifi>=2017.4.17",
		`Requires-Dist: PySocks!=1.5.7,>=1.5.6 ; extra == "socks"`,
		"",
		"The body of the message, not a header.",
	}, "\n")

	deps, err := parseRequiresDist(strings.NewReader(metadata))
	if err != nil {
		t.Fatalf("parseRequiresDist: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deps, want 2: %v", len(deps), deps)
	}
	if deps[0].Name != "certifi" {
		t.Errorf("deps[0].Name = %q, want certifi", deps[0].Name)
	}
	if deps[1].Name != "PySocks" {
		t.Errorf("deps[1].Name = %q, want PySocks", deps[1].Name)
	}
}
