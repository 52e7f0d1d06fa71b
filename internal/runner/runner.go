// Package runner builds and executes external tool invocations. Commands are
// assembled with a builder so that install/uninstall/sync argument lists can
// be asserted in tests without spawning real subprocesses.
package runner

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Command is an external tool invocation under construction.
type Command struct {
	prog        string
	args        []string
	env         map[string]string
	passthrough bool
}

// New starts a command for the given program.
func New(prog string, args ...string) *Command {
	return &Command{prog: prog, args: args}
}

// Arg appends positional arguments.
func (c *Command) Arg(args ...string) *Command {
	c.args = append(c.args, args...)
	return c
}

// Flag appends a flag followed by its values, e.g. Flag("--index", url).
func (c *Command) Flag(name string, values ...string) *Command {
	c.args = append(c.args, name)
	c.args = append(c.args, values...)
	return c
}

// FlagIf appends a bare flag only when cond is true.
func (c *Command) FlagIf(cond bool, name string) *Command {
	if cond {
		c.args = append(c.args, name)
	}
	return c
}

// Env sets an environment variable for the subprocess, on top of the
// inherited environment.
func (c *Command) Env(key, value string) *Command {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
	return c
}

// Passthrough streams the subprocess output to the terminal in addition to
// capturing it. Used for long-running installer invocations whose progress
// the user wants to see.
func (c *Command) Passthrough() *Command {
	c.passthrough = true
	return c
}

// EnvValue reports the override set for an environment variable, if any.
func (c *Command) EnvValue(key string) (string, bool) {
	value, ok := c.env[key]
	return value, ok
}

// Argv returns the full argument vector, program first.
func (c *Command) Argv() []string {
	argv := make([]string, 0, len(c.args)+1)
	argv = append(argv, c.prog)
	argv = append(argv, c.args...)
	return argv
}

// String renders the command line the way it would be typed in a shell.
func (c *Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Result holds the outcome of a finished subprocess.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the subprocess exited with status zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Runner executes commands. Tests substitute a fake implementation.
type Runner interface {
	Run(cmd *Command) (Result, error)
}

// ExecRunner runs commands via os/exec, blocking until the subprocess exits.
type ExecRunner struct {
	Log *zap.SugaredLogger
}

// Run executes the command. A nonzero exit status is reported through
// Result.ExitCode, not through the returned error; the error is reserved for
// failures to start the subprocess at all.
func (r ExecRunner) Run(c *Command) (Result, error) {
	if r.Log != nil {
		r.Log.Info(c.String())
	}

	cmd := exec.Command(c.prog, c.args...)
	cmd.Env = mergedEnv(c.env)

	var stdout, stderr bytes.Buffer
	if c.passthrough {
		cmd.Stdout = io.MultiWriter(&stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // inherit as-is
	}
	env := os.Environ()
	out := env[:0:0]
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		if _, shadowed := overrides[key]; shadowed {
			continue
		}
		out = append(out, kv)
	}
	for key, value := range overrides {
		out = append(out, key+"="+value)
	}
	return out
}
