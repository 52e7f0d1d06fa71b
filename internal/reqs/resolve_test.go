package reqs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	writeFile(t, path, `# top comment
flask>=2.0

requests  # trailing comment
-e ./local/pkg
`)

	got, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := []string{"flask>=2.0", "requests", "-e file://local/pkg"}
	if len(got) != len(want) {
		t.Fatalf("got %d requirements, want %d", len(got), len(want))
	}
	for i, req := range got {
		if req.String() != want[i] {
			t.Errorf("requirement %d = %q, want %q", i, req.String(), want[i])
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.txt"))
	var nerr *NoSuchRequirementsFileError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NoSuchRequirementsFileError, got %v", err)
	}
}

func TestResolveDeduplicatesAndSorts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base.txt")
	writeFile(t, path, "requests\nflask>=2.0\n")

	got, err := Resolve([]string{"zope.interface", "flask >= 2.0", "aiohttp"}, []string{path})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"aiohttp", "flask>=2.0", "requests", "zope.interface"}
	if len(got) != len(want) {
		t.Fatalf("got %d requirements, want %d: %v", len(got), len(want), got)
	}
	for i, req := range got {
		if req.String() != want[i] {
			t.Errorf("requirement %d = %q, want %q", i, req.String(), want[i])
		}
	}
}

func TestResolveMissingFile(t *testing.T) {
	_, err := Resolve(nil, []string{"/does/not/exist.txt"})
	var nerr *NoSuchRequirementsFileError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *NoSuchRequirementsFileError, got %v", err)
	}
}

func TestResolveInvalidToken(t *testing.T) {
	_, err := Resolve([]string{"not a valid token"}, nil)
	var ierr *InvalidRequirementError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *InvalidRequirementError, got %v", err)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	got, err := Resolve(nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
