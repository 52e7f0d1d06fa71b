package reqs

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// NoSuchRequirementsFileError reports a requirements file that could not be
// read.
type NoSuchRequirementsFileError struct {
	Path string
}

func (e *NoSuchRequirementsFileError) Error() string {
	return fmt.Sprintf("no such requirements file: %s", e.Path)
}

// NoPackagesError reports that an operation was given nothing to work with.
type NoPackagesError struct {
	Msg string
}

func (e *NoPackagesError) Error() string {
	return e.Msg
}

// requirementLine strips a trailing "#" comment and surrounding whitespace,
// returning "" for lines that carry no requirement.
func requirementLine(line string) string {
	if idx := strings.Index(line, "#"); idx != -1 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// ParseFile reads a requirements file and parses each nontrivial line.
func ParseFile(path string) ([]Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NoSuchRequirementsFileError{Path: path}
	}
	var requirements []Requirement
	for _, line := range strings.Split(string(data), "\n") {
		token := requirementLine(line)
		if token == "" {
			continue
		}
		req, err := Parse(token)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}
	return requirements, nil
}

// Resolve combines raw package tokens with the contents of requirements
// files into one deduplicated set, sorted by the requirement order. Distro
// references are resolved to file paths by the caller beforehand.
func Resolve(packages []string, reqFiles []string) ([]Requirement, error) {
	seen := map[string]Requirement{}
	for _, pkg := range packages {
		req, err := Parse(pkg)
		if err != nil {
			return nil, err
		}
		seen[req.String()] = req
	}
	for _, path := range reqFiles {
		fileReqs, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, req := range fileReqs {
			seen[req.String()] = req
		}
	}

	resolved := make([]Requirement, 0, len(seen))
	for _, req := range seen {
		resolved = append(resolved, req)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Less(resolved[j])
	})
	return resolved, nil
}
