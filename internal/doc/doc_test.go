package doc

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/milieux-dev/milieux/internal/logging"
	"github.com/milieux-dev/milieux/internal/runner"
)

func mkPackage(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "__init__.py"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigYAML(t *testing.T) {
	setup := Setup{SiteName: "My Project"}
	data, err := setup.ConfigYAML([]string{"/site/pkg_a", "/site/pkg_b"})
	if err != nil {
		t.Fatalf("ConfigYAML: %v", err)
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generated config is not valid YAML: %v", err)
	}
	if parsed["site_name"] != "My Project" {
		t.Errorf("site_name = %v", parsed["site_name"])
	}
	if !strings.Contains(string(data), "/site/pkg_a") || !strings.Contains(string(data), "/site/pkg_b") {
		t.Errorf("config missing package paths:\n%s", data)
	}
}

func TestPackagePaths(t *testing.T) {
	site := t.TempDir()
	mkPackage(t, filepath.Join(site, "flask"))
	setup := Setup{SiteName: "docs", Packages: []string{"flask"}}
	got, err := setup.PackagePaths(site)
	if err != nil {
		t.Fatalf("PackagePaths: %v", err)
	}
	want := []string{filepath.Join(site, "flask")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PackagePaths = %v, want %v", got, want)
	}
}

func TestBuild(t *testing.T) {
	site := t.TempDir()
	mkPackage(t, filepath.Join(site, "flask"))
	dir := t.TempDir()
	fake := &runner.Fake{}

	setup := Setup{SiteName: "docs", Packages: []string{"flask"}}
	if err := setup.Build(dir, site, fake, logging.Nop()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	cfgPath := filepath.Join(dir, "mkdocs.yml")
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	want := []string{"mkdocs", "build", "--config-file", cfgPath}
	if got := fake.Last().Argv(); !reflect.DeepEqual(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
}

func TestBuildFailure(t *testing.T) {
	site := t.TempDir()
	mkPackage(t, filepath.Join(site, "flask"))
	fake := &runner.Fake{Results: []runner.Result{{Stderr: "config error\n", ExitCode: 1}}}

	setup := Setup{SiteName: "docs", Packages: []string{"flask"}}
	err := setup.Build(t.TempDir(), site, fake, logging.Nop())
	var berr *BuildError
	if !errors.As(err, &berr) {
		t.Fatalf("expected *BuildError, got %v", err)
	}
	if !strings.Contains(berr.Stderr, "config error") {
		t.Errorf("error missing stderr: %q", berr.Stderr)
	}
}
