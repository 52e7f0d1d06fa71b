package env

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/milieux-dev/milieux/internal/template"
)

// TemplateVars computes the environment-derived variables available to
// templates.
func (e *Environment) TemplateVars() (map[string]string, error) {
	path, err := e.Path()
	if err != nil {
		return nil, err
	}
	version, err := e.PythonVersion()
	if err != nil {
		return nil, err
	}
	sitePackages, err := e.SitePackagesDir()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(version, ".", 3)
	majorMinor := strings.Join(parts[:2], ".")
	return map[string]string{
		"ENV_NAME":              e.Name,
		"ENV_DIR":               path,
		"ENV_CONFIG_PATH":       e.configPath(),
		"ENV_BIN_DIR":           e.binDir(),
		"ENV_LIB_DIR":           filepath.Join(path, "lib"),
		"ENV_SITE_PACKAGES_DIR": sitePackages,
		"PYTHON_VERSION":        version,
		"PY_MAJOR_MINOR":        majorMinor,
	}, nil
}

// RenderTemplate fills the template file with the environment-derived
// variables merged with extraVars (extraVars win on collision). With an
// empty suffix the output is printed to out; otherwise it is written next to
// the template with the final extension replaced by suffix.
func (e *Environment) RenderTemplate(templatePath, suffix string, extraVars map[string]string, out io.Writer) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}
	vars, err := e.TemplateVars()
	if err != nil {
		return err
	}
	for key, value := range extraVars {
		vars[key] = value
	}

	rendered, err := template.Render(string(data), vars)
	if err != nil {
		var terr *template.Error
		if errors.As(err, &terr) {
			terr.Path = templatePath
		}
		return err
	}

	if suffix == "" {
		fmt.Fprint(out, rendered)
		return nil
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	outPath := strings.TrimSuffix(templatePath, filepath.Ext(templatePath)) + suffix
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing rendered template: %w", err)
	}
	e.store.log.Infof("Rendered template %s to %s", templatePath, outPath)
	return nil
}
