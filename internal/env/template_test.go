package env

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milieux-dev/milieux/internal/template"
)

func TestTemplateVars(t *testing.T) {
	store, _, _ := newTestStore(t)
	env := scaffold(t, store, "dev", "3.11.4")
	vars, err := env.TemplateVars()
	if err != nil {
		t.Fatalf("TemplateVars: %v", err)
	}
	envDir := filepath.Join(store.Dir(), "dev")
	want := map[string]string{
		"ENV_NAME":              "dev",
		"ENV_DIR":               envDir,
		"ENV_CONFIG_PATH":       filepath.Join(envDir, "pyvenv.cfg"),
		"ENV_BIN_DIR":           filepath.Join(envDir, "bin"),
		"ENV_LIB_DIR":           filepath.Join(envDir, "lib"),
		"ENV_SITE_PACKAGES_DIR": filepath.Join(envDir, "lib", "python3.11", "site-packages"),
		"PYTHON_VERSION":        "3.11.4",
		"PY_MAJOR_MINOR":        "3.11",
	}
	for key, wantValue := range want {
		if vars[key] != wantValue {
			t.Errorf("vars[%q] = %q, want %q", key, vars[key], wantValue)
		}
	}
}

func TestRenderTemplateToStdout(t *testing.T) {
	store, _, _ := newTestStore(t)
	env := scaffold(t, store, "foo", "3.11.4")
	templatePath := filepath.Join(t.TempDir(), "conf.yml.template")
	if err := os.WriteFile(templatePath, []byte("{{ENV_NAME}}-{{CUSTOM}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := env.RenderTemplate(templatePath, "", map[string]string{"CUSTOM": "bar"}, &out)
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out.String() != "foo-bar" {
		t.Errorf("rendered = %q, want %q", out.String(), "foo-bar")
	}
}

func TestRenderTemplateExtraVarsWin(t *testing.T) {
	store, _, _ := newTestStore(t)
	env := scaffold(t, store, "dev", "3.11.4")
	templatePath := filepath.Join(t.TempDir(), "name.template")
	if err := os.WriteFile(templatePath, []byte("{{ENV_NAME}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := env.RenderTemplate(templatePath, "", map[string]string{"ENV_NAME": "override"}, &out)
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out.String() != "override" {
		t.Errorf("rendered = %q, want %q", out.String(), "override")
	}
}

func TestRenderTemplateToFile(t *testing.T) {
	store, _, _ := newTestStore(t)
	env := scaffold(t, store, "dev", "3.11.4")
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "conf.template")
	if err := os.WriteFile(templatePath, []byte("name: {{ENV_NAME}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := env.RenderTemplate(templatePath, "yml", nil, &out); err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed when a suffix is given, got %q", out.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "conf.yml"))
	if err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
	if string(data) != "name: dev\n" {
		t.Errorf("rendered file = %q", string(data))
	}
}

func TestRenderTemplateUndefinedVariable(t *testing.T) {
	store, _, _ := newTestStore(t)
	env := scaffold(t, store, "dev", "3.11.4")
	templatePath := filepath.Join(t.TempDir(), "bad.template")
	if err := os.WriteFile(templatePath, []byte("{{UNDEFINED_VAR}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := env.RenderTemplate(templatePath, "", nil, &out)
	var terr *template.Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *template.Error, got %v", err)
	}
	if !strings.Contains(err.Error(), templatePath) {
		t.Errorf("error %q missing template path", err.Error())
	}
}
