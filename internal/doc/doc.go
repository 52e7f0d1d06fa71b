// Package doc builds API reference documentation by generating a config for
// the external static site generator and invoking it.
package doc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/milieux-dev/milieux/internal/pkgpath"
	"github.com/milieux-dev/milieux/internal/runner"
)

// BuildError reports a documentation build failure, carrying the site
// generator's stderr.
type BuildError struct {
	Stderr string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("documentation build failed:\n%s", strings.TrimRight(e.Stderr, "\n"))
}

// Setup describes a documentation site to build.
type Setup struct {
	SiteName string
	Packages []string
}

// PackagePaths resolves the configured package tokens to filesystem paths,
// looking importable names up in sitePackages.
func (s Setup) PackagePaths(sitePackages string) ([]string, error) {
	var paths []string
	for _, pkg := range s.Packages {
		resolved, err := pkgpath.Resolve(pkg, sitePackages)
		if err != nil {
			return nil, err
		}
		paths = append(paths, resolved...)
	}
	return paths, nil
}

type siteConfig struct {
	SiteName string       `yaml:"site_name"`
	Theme    themeConfig  `yaml:"theme"`
	Plugins  []any        `yaml:"plugins"`
	Nav      []navSection `yaml:"nav"`
}

type themeConfig struct {
	Name string `yaml:"name"`
}

type navSection map[string]string

// ConfigYAML renders the site generator config for the given package paths.
func (s Setup) ConfigYAML(packagePaths []string) ([]byte, error) {
	cfg := siteConfig{
		SiteName: s.SiteName,
		Theme:    themeConfig{Name: "material"},
		Plugins: []any{
			"search",
			map[string]any{
				"mkdocstrings": map[string]any{
					"handlers": map[string]any{
						"python": map[string]any{
							"paths": packagePaths,
						},
					},
				},
			},
		},
		Nav: []navSection{{"Home": "index.md"}},
	}
	return yaml.Marshal(cfg)
}

// Build writes the generated config into dir and runs the site generator
// there.
func (s Setup) Build(dir, sitePackages string, run runner.Runner, log *zap.SugaredLogger) error {
	paths, err := s.PackagePaths(sitePackages)
	if err != nil {
		return err
	}
	data, err := s.ConfigYAML(paths)
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "mkdocs.yml")
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("writing site config: %w", err)
	}
	log.Infof("Building documentation for %q", s.SiteName)

	cmd := runner.New("mkdocs", "build").Flag("--config-file", cfgPath)
	res, err := run.Run(cmd)
	if err != nil {
		return fmt.Errorf("running site generator: %w", err)
	}
	if !res.Ok() {
		return &BuildError{Stderr: res.Stderr}
	}
	log.Infof("Built documentation site in %s", filepath.Join(dir, "site"))
	return nil
}
