// Package reqs models single requirement lines (versioned package specifiers
// or local paths, optionally editable) and aggregates them from CLI tokens
// and requirements files into deterministic, deduplicated sets.
package reqs

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// InvalidRequirementError reports a token that is neither a valid package
// specifier nor a path-like string.
type InvalidRequirementError struct {
	Token string
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid requirement string: %s", e.Token)
}

// Specifier is a structured package requirement: a distribution name with
// optional extras and version constraints, e.g. "flask[async]>=2.0,<3".
type Specifier struct {
	Name        string
	Extras      []string
	Constraints []string // normalized, e.g. ">=2.0"
}

// String renders the specifier in normalized form (no interior whitespace).
func (s *Specifier) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(s.Extras, ","))
		b.WriteString("]")
	}
	b.WriteString(strings.Join(s.Constraints, ","))
	return b.String()
}

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	versionRe = regexp.MustCompile(`^[A-Za-z0-9._*+!-]+$`)
)

// Comparison operators of the dependency-specifier grammar, longest first so
// prefix matching picks "==" over "=".
var constraintOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ParseSpecifier parses a structured package specifier.
func ParseSpecifier(s string) (*Specifier, error) {
	orig := s
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, ";") {
		return nil, &InvalidRequirementError{Token: orig}
	}

	end := len(s)
	for i, r := range s {
		if !isNameRune(r) {
			end = i
			break
		}
	}
	name := s[:end]
	if !nameRe.MatchString(name) {
		return nil, &InvalidRequirementError{Token: orig}
	}
	spec := &Specifier{Name: name}
	rest := strings.TrimSpace(s[end:])

	if strings.HasPrefix(rest, "[") {
		closing := strings.Index(rest, "]")
		if closing == -1 {
			return nil, &InvalidRequirementError{Token: orig}
		}
		for _, extra := range strings.Split(rest[1:closing], ",") {
			extra = strings.TrimSpace(extra)
			if !nameRe.MatchString(extra) {
				return nil, &InvalidRequirementError{Token: orig}
			}
			spec.Extras = append(spec.Extras, extra)
		}
		rest = strings.TrimSpace(rest[closing+1:])
	}

	if rest == "" {
		return spec, nil
	}
	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		op := ""
		for _, candidate := range constraintOps {
			if strings.HasPrefix(clause, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, &InvalidRequirementError{Token: orig}
		}
		version := strings.TrimSpace(clause[len(op):])
		if !versionRe.MatchString(version) {
			return nil, &InvalidRequirementError{Token: orig}
		}
		spec.Constraints = append(spec.Constraints, op+version)
	}
	return spec, nil
}

// Requirement is one resolvable dependency line: either a structured package
// specifier or a local filesystem path, optionally editable. Exactly one of
// Spec and Path is set.
type Requirement struct {
	Spec     *Specifier
	Path     string
	Editable bool
}

// Parse parses a requirement token from CLI input or a requirements-file
// line. A leading "-e" marks the requirement editable; any other "-"-prefixed
// sub-tokens are dropped as ignorable flags. Tokens containing a path
// separator or starting with "." are treated as paths (existence is not
// checked here); everything else must parse as a package specifier.
func Parse(token string) (Requirement, error) {
	toks := strings.Fields(token)
	editable := len(toks) > 0 && toks[0] == "-e"
	if editable {
		toks = toks[1:]
	}
	kept := toks[:0:0]
	for _, tok := range toks {
		if !strings.HasPrefix(tok, "-") {
			kept = append(kept, tok)
		}
	}
	s := strings.Join(kept, " ")

	if strings.Contains(s, "/") || strings.HasPrefix(s, ".") {
		s = strings.TrimPrefix(strings.TrimSpace(s), "file://")
		return Requirement{Path: filepath.Clean(s), Editable: editable}, nil
	}
	spec, err := ParseSpecifier(s)
	if err != nil {
		return Requirement{}, &InvalidRequirementError{Token: token}
	}
	return Requirement{Spec: spec, Editable: editable}, nil
}

// Name extracts the bare distribution name from a requirement token, e.g.
// "pkg_name>=2.7" yields "pkg_name". Path tokens have no name in this sense
// and fail.
func Name(token string) (string, error) {
	kept := []string{}
	for _, tok := range strings.Fields(token) {
		if !strings.HasPrefix(tok, "-") {
			kept = append(kept, tok)
		}
	}
	spec, err := ParseSpecifier(strings.Join(kept, " "))
	if err != nil {
		return "", err
	}
	return spec.Name, nil
}

// inner is the string form without the editable and file:// markers, used
// for ordering.
func (r Requirement) inner() string {
	if r.Spec != nil {
		return r.Spec.String()
	}
	return r.Path
}

// String serializes the requirement to its requirements-file line form.
func (r Requirement) String() string {
	var b strings.Builder
	if r.Editable {
		b.WriteString("-e ")
	}
	if r.Spec == nil {
		b.WriteString("file://")
	}
	b.WriteString(r.inner())
	return b.String()
}

// Less orders requirements lexicographically by their specifier text, with
// non-editable before editable for equal specifiers. Distro files are written
// in this order so their contents are deterministic.
func (r Requirement) Less(other Requirement) bool {
	if a, b := r.inner(), other.inner(); a != b {
		return a < b
	}
	return !r.Editable && other.Editable
}
