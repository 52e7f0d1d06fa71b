// Package pkgpath resolves package tokens (local project directories,
// importable module names, or installed project names) to the filesystem
// paths of the packages they provide.
package pkgpath

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// PackageNotFoundError reports a token that could not be resolved to any
// package path.
type PackageNotFoundError struct {
	Token string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Token)
}

// Resolve resolves a package token to one or more package directories.
// Local directories are inspected for their project layout; other tokens are
// looked up inside sitePackages, first as an importable name, then as an
// installed project whose manifest may list several top-level packages.
func Resolve(token, sitePackages string) ([]string, error) {
	kept := []string{}
	for _, tok := range strings.Fields(token) {
		if !strings.HasPrefix(tok, "-") {
			kept = append(kept, tok)
		}
	}
	if len(kept) != 1 {
		return nil, &PackageNotFoundError{Token: token}
	}
	name := kept[0]

	if info, err := os.Stat(name); err == nil && info.IsDir() {
		path, err := resolveProjectDir(name)
		if err != nil {
			return nil, &PackageNotFoundError{Token: token}
		}
		return []string{path}, nil
	}

	if sitePackages != "" {
		if path, ok := resolveImportable(name, sitePackages); ok {
			return []string{path}, nil
		}
		if paths, ok := resolveInstalledProject(name, sitePackages); ok {
			return paths, nil
		}
	}
	return nil, &PackageNotFoundError{Token: token}
}

// resolveProjectDir locates the package directory inside a project checkout.
// The project descriptor's name (hyphens substituted with underscores) is
// preferred, searched both at the top level and under src/; otherwise the
// first non-test subdirectory carrying a package marker wins.
func resolveProjectDir(dir string) (string, error) {
	if name := projectName(dir); name != "" {
		pkg := strings.ReplaceAll(name, "-", "_")
		for _, candidate := range []string{
			filepath.Join(dir, pkg),
			filepath.Join(dir, "src", pkg),
		} {
			if isPackageDir(candidate) {
				return candidate, nil
			}
		}
	}
	for _, root := range []string{dir, filepath.Join(dir, "src")} {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), "test") {
				continue
			}
			candidate := filepath.Join(root, entry.Name())
			if isPackageDir(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("no package found in %s", dir)
}

// projectName reads the project name from pyproject.toml, if present.
func projectName(dir string) string {
	path := filepath.Join(dir, "pyproject.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.GetString("project.name")
}

func isPackageDir(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "__init__.py"))
	return err == nil
}

// resolveImportable resolves a bare importable name inside site-packages:
// either a package directory or a single-file module.
func resolveImportable(name, sitePackages string) (string, bool) {
	pkgDir := filepath.Join(sitePackages, name)
	if isPackageDir(pkgDir) {
		return pkgDir, true
	}
	modFile := filepath.Join(sitePackages, name+".py")
	if _, err := os.Stat(modFile); err == nil {
		return modFile, true
	}
	return "", false
}

var nonNameRunRe = regexp.MustCompile(`[-_.]+`)

// normalizeProject normalizes a project name the way installer metadata
// directories do.
func normalizeProject(name string) string {
	return strings.ToLower(nonNameRunRe.ReplaceAllString(name, "_"))
}

// resolveInstalledProject looks the token up as an installed project and
// returns every top-level package its manifest provides. A single project
// may yield multiple packages.
func resolveInstalledProject(name, sitePackages string) ([]string, bool) {
	distInfo := findDistInfo(name, sitePackages)
	if distInfo == "" {
		return nil, false
	}
	tops := topLevelPackages(distInfo)
	if len(tops) == 0 {
		return nil, false
	}
	var paths []string
	for _, top := range tops {
		if path, ok := resolveImportable(top, sitePackages); ok {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil, false
	}
	sort.Strings(paths)
	return paths, true
}

func findDistInfo(name, sitePackages string) string {
	entries, err := os.ReadDir(sitePackages)
	if err != nil {
		return ""
	}
	want := normalizeProject(name)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
			continue
		}
		project, _, found := strings.Cut(entry.Name(), "-")
		if !found {
			continue
		}
		if normalizeProject(project) == want {
			return filepath.Join(sitePackages, entry.Name())
		}
	}
	return ""
}

// topLevelPackages lists the top-level names an installed project provides,
// from top_level.txt when present, otherwise from the RECORD manifest.
func topLevelPackages(distInfo string) []string {
	if data, err := os.ReadFile(filepath.Join(distInfo, "top_level.txt")); err == nil {
		var tops []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				tops = append(tops, line)
			}
		}
		return tops
	}

	data, err := os.ReadFile(filepath.Join(distInfo, "RECORD"))
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var tops []string
	for _, line := range strings.Split(string(data), "\n") {
		path, _, _ := strings.Cut(line, ",")
		top, rest, found := strings.Cut(path, "/")
		if !found || !strings.HasSuffix(rest, ".py") || strings.HasSuffix(top, ".dist-info") {
			continue
		}
		if !seen[top] {
			seen[top] = true
			tops = append(tops, top)
		}
	}
	return tops
}
