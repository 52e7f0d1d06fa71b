package reqs

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		wantStr      string
		wantEditable bool
		wantPath     bool
	}{
		{name: "bare name", token: "flask", wantStr: "flask"},
		{name: "pinned version", token: "flask==2.0", wantStr: "flask==2.0"},
		{name: "minimum version", token: "flask>=2.0", wantStr: "flask>=2.0"},
		{name: "version range", token: "flask>=2.0,<3", wantStr: "flask>=2.0,<3"},
		{name: "range with spaces", token: "flask >= 2.0, < 3", wantStr: "flask>=2.0,<3"},
		{name: "extras", token: "flask[async]", wantStr: "flask[async]"},
		{name: "extras and version", token: "flask[async,dotenv]>=2.0", wantStr: "flask[async,dotenv]>=2.0"},
		{name: "compatible release", token: "requests~=2.31", wantStr: "requests~=2.31"},
		{name: "arbitrary equality", token: "pkg===1.0+local", wantStr: "pkg===1.0+local"},
		{name: "wildcard pin", token: "pkg==1.*", wantStr: "pkg==1.*"},
		{name: "dotted name", token: "zope.interface", wantStr: "zope.interface"},
		{name: "relative path", token: "./mypkg", wantStr: "file://mypkg", wantPath: true},
		{name: "nested path", token: "src/mypkg", wantStr: "file://src/mypkg", wantPath: true},
		{name: "absolute path", token: "/opt/pkgs/mypkg", wantStr: "file:///opt/pkgs/mypkg", wantPath: true},
		{name: "file url", token: "file:///opt/pkgs/mypkg", wantStr: "file:///opt/pkgs/mypkg", wantPath: true},
		{name: "editable package", token: "-e flask", wantStr: "-e flask", wantEditable: true},
		{name: "editable path", token: "-e ./mypkg", wantStr: "-e file://mypkg", wantEditable: true, wantPath: true},
		{name: "ignorable flag dropped", token: "--no-deps flask", wantStr: "flask"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(tt.token)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.token, err)
			}
			if got := req.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
			if req.Editable != tt.wantEditable {
				t.Errorf("Editable = %v, want %v", req.Editable, tt.wantEditable)
			}
			if gotPath := req.Path != ""; gotPath != tt.wantPath {
				t.Errorf("path variant = %v, want %v", gotPath, tt.wantPath)
			}
			if (req.Spec != nil) == (req.Path != "") {
				t.Error("exactly one of Spec and Path must be set")
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, token := range []string{
		"",
		"-e",
		"pkg name with spaces",
		"pkg==",
		"pkg>=1.0,",
		"pkg[unclosed",
		"pkg; python_version>'3.8'",
		"-pkg",
		"==1.0",
	} {
		t.Run(token, func(t *testing.T) {
			if _, err := Parse(token); err == nil {
				t.Fatalf("Parse(%q): expected error", token)
			} else {
				var ierr *InvalidRequirementError
				if !errors.As(err, &ierr) {
					t.Errorf("expected *InvalidRequirementError, got %T", err)
				}
			}
		})
	}
}

// Parsing a requirement's own serialization must yield the same requirement.
func TestParseRoundTrip(t *testing.T) {
	tokens := []string{
		"flask",
		"flask==2.0",
		"flask[async,dotenv]>=2.0,<3",
		"-e flask",
		"./mypkg",
		"-e ./mypkg",
		"file://src/mypkg",
		"requests ~= 2.31",
	}
	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			first, err := Parse(token)
			if err != nil {
				t.Fatalf("Parse(%q): %v", token, err)
			}
			second, err := Parse(first.String())
			if err != nil {
				t.Fatalf("Parse(%q): %v", first.String(), err)
			}
			if first.String() != second.String() || first.Editable != second.Editable {
				t.Errorf("round trip changed %q: %q -> %q", token, first.String(), second.String())
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"pkg_name>=2.7", "pkg_name"},
		{"flask", "flask"},
		{"flask[async]==2.0", "flask"},
		{"--no-deps flask>=1", "flask"},
	}
	for _, tt := range tests {
		got, err := Name(tt.token)
		if err != nil {
			t.Fatalf("Name(%q): %v", tt.token, err)
		}
		if got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestNamePathHasNoName(t *testing.T) {
	if _, err := Name("./mypkg"); err == nil {
		t.Fatal("expected error for path token")
	}
}

func TestLess(t *testing.T) {
	a := mustParse(t, "alpha")
	b := mustParse(t, "beta")
	be := mustParse(t, "-e beta")

	if !a.Less(b) {
		t.Error("alpha should sort before beta")
	}
	if b.Less(a) {
		t.Error("beta should not sort before alpha")
	}
	if !b.Less(be) {
		t.Error("non-editable should sort before editable for equal specifiers")
	}
	if be.Less(b) {
		t.Error("editable should not sort before non-editable")
	}
}

func mustParse(t *testing.T, token string) Requirement {
	t.Helper()
	req, err := Parse(token)
	if err != nil {
		t.Fatalf("Parse(%q): %v", token, err)
	}
	return req
}
