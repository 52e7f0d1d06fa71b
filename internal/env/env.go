// Package env manages isolated installation environments: directory trees
// with the standard venv layout whose package sets are mutated by shelling
// out to the external installer with VIRTUAL_ENV pointed at the environment.
package env

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/milieux-dev/milieux/internal/config"
	"github.com/milieux-dev/milieux/internal/distro"
	"github.com/milieux-dev/milieux/internal/reqs"
	"github.com/milieux-dev/milieux/internal/runner"
)

const progName = "milieux"

// ExistsError reports an attempt to create an environment that already
// exists without the force flag.
type ExistsError struct {
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("environment %q already exists", e.Name)
}

// NoSuchEnvironmentError reports a reference to an environment that does not
// exist.
type NoSuchEnvironmentError struct {
	Name string
}

func (e *NoSuchEnvironmentError) Error() string {
	return fmt.Sprintf("no environment named %q", e.Name)
}

// EnvError reports an environment operation failure, typically carrying the
// stderr of a failed subprocess.
type EnvError struct {
	Msg string
}

func (e *EnvError) Error() string {
	return e.Msg
}

// Store provides access to the environments under the configured environment
// directory.
type Store struct {
	dir     string
	uvArgs  []string
	distros *distro.Store
	run     runner.Runner
	log     *zap.SugaredLogger
}

// NewStore resolves the environment directory from the configuration,
// creating it if needed.
func NewStore(cfg config.Config, distros *distro.Store, run runner.Runner, log *zap.SugaredLogger) (*Store, error) {
	dir, err := cfg.EnvDirPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating environment directory: %w", err)
	}
	uvArgs, err := cfg.UVArgs()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, uvArgs: uvArgs, distros: distros, run: run, log: log}, nil
}

// Dir returns the environment directory.
func (s *Store) Dir() string {
	return s.dir
}

// Env returns a handle to the named environment. The environment need not
// exist yet.
func (s *Store) Env(name string) *Environment {
	return &Environment{Name: name, store: s}
}

// Names lists the existing environment names, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading environment directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// List prints the environment directory and the names of the existing
// environments.
func (s *Store) List(w io.Writer) error {
	names, err := s.Names()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Environment directory: %s\n", s.dir)
	if len(names) == 0 {
		fmt.Fprintln(w, "No environments exist.")
		return nil
	}
	fmt.Fprintln(w, "Environments:")
	for _, name := range names {
		fmt.Fprintf(w, "    %s\n", name)
	}
	return nil
}

// Active returns the environment named by VIRTUAL_ENV, when that path lies
// directly under this store's directory. A nil environment means none is
// active.
func (s *Store) Active() *Environment {
	value := os.Getenv("VIRTUAL_ENV")
	if value == "" {
		return nil
	}
	path := filepath.Clean(value)
	if filepath.Dir(path) != s.dir {
		return nil
	}
	env := s.Env(filepath.Base(path))
	if _, err := env.Path(); err != nil {
		return nil
	}
	return env
}

// NewOptions controls environment creation.
type NewOptions struct {
	Seed   bool   // install seed packages (pip etc.) into the new environment
	Python string // interpreter version to use, e.g. "3.11"
	Force  bool
}

// New creates a new environment by invoking the external venv creator. An
// existing environment is only replaced with Force; a failed creation is
// rolled back.
func (s *Store) New(name string, opts NewOptions) (*Environment, error) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		if !opts.Force {
			return nil, &ExistsError{Name: name}
		}
		s.log.Warnf("Environment %q already exists -- overwriting", name)
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("removing old environment: %w", err)
		}
	}
	s.log.Infof("Creating environment %q in %s", name, path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating environment directory: %w", err)
	}

	cmd := runner.New("uv", "venv").
		Arg(path).
		FlagIf(opts.Seed, "--seed")
	if opts.Python != "" {
		cmd.Flag("--python", opts.Python)
	}
	cmd.Arg(s.uvArgs...)

	res, err := s.run.Run(cmd)
	if err != nil || !res.Ok() {
		_ = os.RemoveAll(path)
		if err != nil {
			return nil, fmt.Errorf("running venv creator: %w", err)
		}
		return nil, &EnvError{Msg: strings.TrimRight(res.Stderr, "\n")}
	}

	env := s.Env(name)
	s.log.Infof("Activate with either of these commands:\n\tsource %s\n\t%s env activate %s",
		env.activatePath(), progName, name)
	return env, nil
}

var versionInfoRe = regexp.MustCompile(`version_info\s*=\s*(\d+\.\d+\.\d+)`)

// Environment is a handle to one named environment.
type Environment struct {
	Name  string
	store *Store
}

// dirPath is the environment directory, whether or not it exists.
func (e *Environment) dirPath() string {
	return filepath.Join(e.store.dir, e.Name)
}

// Path returns the environment directory, failing if the environment does
// not exist. Every operation except creation goes through this check.
func (e *Environment) Path() (string, error) {
	path := e.dirPath()
	if _, err := os.Stat(path); err != nil {
		return "", &NoSuchEnvironmentError{Name: e.Name}
	}
	return path, nil
}

func (e *Environment) configPath() string {
	return filepath.Join(e.dirPath(), "pyvenv.cfg")
}

func (e *Environment) binDir() string {
	return filepath.Join(e.dirPath(), "bin")
}

func (e *Environment) activatePath() string {
	return filepath.Join(e.binDir(), "activate")
}

// PythonVersion reads the interpreter version from the environment's own
// config file.
func (e *Environment) PythonVersion() (string, error) {
	if _, err := e.Path(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(e.configPath())
	if err != nil {
		return "", &EnvError{Msg: fmt.Sprintf("could not get python version info from %s", e.configPath())}
	}
	match := versionInfoRe.FindStringSubmatch(string(data))
	if match == nil {
		return "", &EnvError{Msg: fmt.Sprintf("could not get python version info from %s", e.configPath())}
	}
	return match[1], nil
}

// SitePackagesDir derives the site-packages path from the interpreter's
// major.minor version.
func (e *Environment) SitePackagesDir() (string, error) {
	version, err := e.PythonVersion()
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(version, ".", 3)
	minor := strings.Join(parts[:2], ".")
	return filepath.Join(e.dirPath(), "lib", "python"+minor, "site-packages"), nil
}

// runInEnv executes a command with VIRTUAL_ENV pointing at this environment
// so the installer targets it.
func (e *Environment) runInEnv(cmd *runner.Command) (runner.Result, error) {
	path, err := e.Path()
	if err != nil {
		return runner.Result{}, err
	}
	return e.store.run.Run(cmd.Env("VIRTUAL_ENV", path))
}

// InstallOptions collects the requirement sources for install/uninstall.
type InstallOptions struct {
	Packages     []string
	Requirements []string
	Distros      []string
	Upgrade      bool
	NoDeps       bool
	Editable     string // local path to install editable; install only
}

// Install installs packages, requirements files, and distros into the
// environment.
func (e *Environment) Install(opts InstallOptions) error {
	if _, err := e.Path(); err != nil {
		return err
	}
	e.store.log.Infof("Installing dependencies into %q environment", e.Name)
	return e.installOrUninstall("install", opts)
}

// Uninstall removes packages, requirements files, and distros from the
// environment.
func (e *Environment) Uninstall(opts InstallOptions) error {
	if _, err := e.Path(); err != nil {
		return err
	}
	e.store.log.Infof("Uninstalling dependencies from %q environment", e.Name)
	opts.Upgrade = false
	opts.NoDeps = false
	opts.Editable = ""
	return e.installOrUninstall("uninstall", opts)
}

func (e *Environment) installOrUninstall(operation string, opts InstallOptions) error {
	reqPaths, err := e.store.distros.RequirementPaths(opts.Requirements, opts.Distros)
	if err != nil {
		return err
	}
	if len(opts.Packages) == 0 && len(reqPaths) == 0 && opts.Editable == "" {
		return &reqs.NoPackagesError{Msg: fmt.Sprintf("must specify packages to %s", operation)}
	}

	cmd := runner.New("uv", "pip", operation)
	for _, path := range reqPaths {
		cmd.Flag("-r", path)
	}
	cmd.Arg(opts.Packages...)
	cmd.FlagIf(opts.Upgrade, "--upgrade")
	cmd.FlagIf(opts.NoDeps, "--no-deps")
	if opts.Editable != "" {
		cmd.Flag("--editable", opts.Editable)
	}
	if operation == "install" {
		cmd.Arg(e.store.uvArgs...)
	}
	cmd.Passthrough()

	res, err := e.runInEnv(cmd)
	if err != nil {
		return fmt.Errorf("running installer: %w", err)
	}
	if !res.Ok() {
		return &EnvError{Msg: strings.TrimRight(res.Stderr, "\n")}
	}
	return nil
}

// SyncOptions collects the requirement sources for Sync.
type SyncOptions struct {
	Requirements []string
	Distros      []string
}

// Sync makes the environment's installed set exactly match the given
// requirements, removing anything not listed.
func (e *Environment) Sync(opts SyncOptions) error {
	if _, err := e.Path(); err != nil {
		return err
	}
	reqPaths, err := e.store.distros.RequirementPaths(opts.Requirements, opts.Distros)
	if err != nil {
		return err
	}
	if len(reqPaths) == 0 {
		return &reqs.NoPackagesError{Msg: "must specify dependencies to sync"}
	}
	e.store.log.Infof("Syncing dependencies in %q environment", e.Name)

	cmd := runner.New("uv", "pip", "sync").
		Arg(reqPaths...).
		Arg(e.store.uvArgs...).
		Passthrough()
	res, err := e.runInEnv(cmd)
	if err != nil {
		return fmt.Errorf("running installer: %w", err)
	}
	if !res.Ok() {
		return &EnvError{Msg: strings.TrimRight(res.Stderr, "\n")}
	}
	return nil
}

// Freeze returns the installed packages as reported by the installer,
// one line per package.
func (e *Environment) Freeze() ([]string, error) {
	res, err := e.runInEnv(runner.New("uv", "pip", "freeze"))
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, &EnvError{Msg: strings.TrimRight(res.Stderr, "\n")}
	}
	out := strings.TrimRight(res.Stdout, "\n")
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Info describes an environment for display.
type Info struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	CreatedAt string   `json:"created_at"`
	Packages  []string `json:"packages,omitempty"`
}

// GetInfo gathers the environment's details. With listPackages, the
// installed package list is included.
func (e *Environment) GetInfo(listPackages bool) (Info, error) {
	path, err := e.Path()
	if err != nil {
		return Info{}, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Name:      e.Name,
		Path:      path,
		CreatedAt: stat.ModTime().Format(time.RFC3339),
	}
	if listPackages {
		packages, err := e.Freeze()
		if err != nil {
			return Info{}, err
		}
		info.Packages = packages
	}
	return info, nil
}

// Show prints the environment's details as indented JSON.
func (e *Environment) Show(listPackages bool, w io.Writer) error {
	info, err := e.GetInfo(listPackages)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// Remove deletes the environment directory recursively.
func (e *Environment) Remove() error {
	path, err := e.Path()
	if err != nil {
		return err
	}
	e.store.log.Infof("Deleting %q environment", e.Name)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing environment: %w", err)
	}
	e.store.log.Infof("Deleted %s", path)
	return nil
}

// Activate prints the shell command needed to activate the environment.
// Activation cannot be done on the caller's behalf, so the sourceable
// command goes to out and a human-readable explanation to info.
func (e *Environment) Activate(out, info io.Writer) error {
	if _, err := e.Path(); err != nil {
		return err
	}
	activatePath := e.activatePath()
	if _, err := os.Stat(activatePath); err != nil {
		return fmt.Errorf("activation script %s: %w", activatePath, os.ErrNotExist)
	}
	fmt.Fprintf(out, "source %s\n", activatePath)

	heading := color.New(color.FgCyan)
	heading.Fprintln(info, "\nTo activate the environment, run the following shell command:")
	fmt.Fprintf(info, "\nsource %s\n", activatePath)
	heading.Fprintln(info, "\nAlternatively, you can run (with backticks):")
	fmt.Fprintf(info, "\n`%s env activate %s`\n", progName, e.Name)
	heading.Fprintln(info, "\nTo deactivate the environment, run:")
	fmt.Fprintln(info, "\ndeactivate")
	return nil
}
