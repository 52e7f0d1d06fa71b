// Package distro manages named, persisted sets of package requirements. A
// distro is a plain requirements file <name>.txt under the configured distro
// directory; its lines are always sorted and deduplicated so the file content
// is deterministic regardless of input order.
package distro

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/milieux-dev/milieux/internal/config"
	"github.com/milieux-dev/milieux/internal/reqs"
	"github.com/milieux-dev/milieux/internal/runner"
)

// NoSuchDistroError reports a reference to a distro that does not exist.
type NoSuchDistroError struct {
	Name string
}

func (e *NoSuchDistroError) Error() string {
	return fmt.Sprintf("no distro named %q", e.Name)
}

// ExistsError reports an attempt to create a distro that already exists
// without the force flag.
type ExistsError struct {
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("distro %q already exists", e.Name)
}

// InvalidDistroError reports a distro whose requirements the dependency
// compiler rejected. Stderr carries the compiler's diagnostics.
type InvalidDistroError struct {
	Name   string
	Stderr string
}

func (e *InvalidDistroError) Error() string {
	return fmt.Sprintf("cannot lock distro %q:\n%s", e.Name, strings.TrimRight(e.Stderr, "\n"))
}

// Store provides access to the distros under the configured distro directory.
type Store struct {
	dir    string
	uvArgs []string
	run    runner.Runner
	log    *zap.SugaredLogger
}

// NewStore resolves the distro directory from the configuration, creating it
// if needed.
func NewStore(cfg config.Config, run runner.Runner, log *zap.SugaredLogger) (*Store, error) {
	dir, err := cfg.DistroDirPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating distro directory: %w", err)
	}
	uvArgs, err := cfg.UVArgs()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, uvArgs: uvArgs, run: run, log: log}, nil
}

// Dir returns the distro directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) filePath(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// Exists reports whether a distro with the given name exists.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.filePath(name))
	return err == nil && !info.IsDir()
}

// Path returns the path to the distro's requirements file.
func (s *Store) Path(name string) (string, error) {
	if !s.Exists(name) {
		return "", &NoSuchDistroError{Name: name}
	}
	return s.filePath(name), nil
}

// Names lists the existing distro names, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading distro directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(names)
	return names, nil
}

// List prints the distro directory and the names of the existing distros.
func (s *Store) List(w io.Writer) error {
	names, err := s.Names()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Distro directory: %s\n", s.dir)
	if len(names) == 0 {
		fmt.Fprintln(w, "No distros exist.")
		return nil
	}
	fmt.Fprintln(w, "Distros:")
	for _, name := range names {
		fmt.Fprintf(w, "    %s\n", name)
	}
	return nil
}

// Requirements reads and parses the distro's requirements file.
func (s *Store) Requirements(name string) ([]reqs.Requirement, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return reqs.ParseFile(path)
}

// RequirementPaths combines user-supplied requirements files with the file
// paths of the referenced distros.
func (s *Store) RequirementPaths(reqFiles []string, distros []string) ([]string, error) {
	paths := append([]string(nil), reqFiles...)
	for _, name := range distros {
		path, err := s.Path(name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// NewOptions collects the requirement sources for a new distro.
type NewOptions struct {
	Packages     []string
	Requirements []string
	Distros      []string
	Force        bool
}

// New creates a distro from the union of the given packages, requirements
// files, and other distros. The resulting file holds one requirement per
// line, sorted and deduplicated.
func (s *Store) New(name string, opts NewOptions) error {
	reqPaths, err := s.RequirementPaths(opts.Requirements, opts.Distros)
	if err != nil {
		return err
	}
	if len(opts.Packages) == 0 && len(reqPaths) == 0 {
		return &reqs.NoPackagesError{Msg: "must specify at least one package"}
	}
	resolved, err := reqs.Resolve(opts.Packages, reqPaths)
	if err != nil {
		return err
	}

	path := s.filePath(name)
	if s.Exists(name) {
		if !opts.Force {
			return &ExistsError{Name: name}
		}
		s.log.Warnf("Distro %q already exists -- overwriting", name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing old distro file: %w", err)
		}
	}

	s.log.Infof("Creating distro %q", name)
	var b strings.Builder
	for _, req := range resolved {
		b.WriteString(req.String())
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing distro file: %w", err)
	}
	s.log.Infof("Wrote %q requirements to %s", name, path)
	return nil
}

// Lock pins the distro's requirements to exact versions via the external
// dependency compiler and returns the compiler's output.
func (s *Store) Lock(name string, annotate bool) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	s.log.Infof("Locking dependencies for %q distro", name)
	cmd := runner.New("uv", "pip", "compile").
		Arg(path).
		FlagIf(!annotate, "--no-annotate").
		Arg(s.uvArgs...)
	res, err := s.run.Run(cmd)
	if err != nil {
		return "", fmt.Errorf("running dependency compiler: %w", err)
	}
	if !res.Ok() {
		return "", &InvalidDistroError{Name: name, Stderr: res.Stderr}
	}
	return res.Stdout, nil
}

// Remove deletes the distro's requirements file.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	s.log.Infof("Deleting %q distro", name)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing distro file: %w", err)
	}
	s.log.Infof("Deleted %s", path)
	return nil
}

// Show prints the distro's location and requirements. The location and
// heading go to info, the requirement lines to out, so that the requirement
// list stays pipeable.
func (s *Store) Show(name string, out, info io.Writer) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	requirements, err := reqs.ParseFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(info, "Distro %q is located at: %s\n", name, path)
	fmt.Fprintf(info, "Packages:\n\n")
	for _, req := range requirements {
		fmt.Fprintln(out, req.String())
	}
	return nil
}
