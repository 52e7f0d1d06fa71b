// main.go bootstraps milieux: it builds the root Cobra command, loads the
// configuration, and renders expected errors as single-line messages.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/milieux-dev/milieux/internal/config"
	"github.com/milieux-dev/milieux/internal/distro"
	"github.com/milieux-dev/milieux/internal/env"
	"github.com/milieux-dev/milieux/internal/logging"
	"github.com/milieux-dev/milieux/internal/runner"
)

const version = "0.1.0"

// app carries the shared state every subcommand needs: configuration, the
// logger, and the subprocess runner. It is populated once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	configPath string
	verbose    bool

	cfg config.Config
	log *zap.SugaredLogger
	run runner.Runner
}

func (a *app) setup() error {
	a.log = logging.New(a.verbose)
	a.run = runner.ExecRunner{Log: a.log}

	path := a.configPath
	explicit := path != ""
	if !explicit {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		if _, missing := err.(*config.NotFoundError); missing && !explicit {
			a.log.Warnf("Could not find config file %s: using defaults", path)
			cfg, err = config.Default()
			if err != nil {
				return err
			}
		} else {
			return err
		}
	}
	a.cfg = cfg
	return nil
}

func (a *app) distroStore() (*distro.Store, error) {
	return distro.NewStore(a.cfg, a.run, a.log)
}

func (a *app) envStore() (*env.Store, error) {
	distros, err := a.distroStore()
	if err != nil {
		return nil, err
	}
	return env.NewStore(a.cfg, distros, a.run, a.log)
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "milieux",
		Short:         "Tool to assist in developing, building, and installing Python packages",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to TOML config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	cmd.AddCommand(
		newConfigCommand(a),
		newDistroCommand(a),
		newDocCommand(a),
		newEnvCommand(a),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s - %s\n", color.New(color.FgRed, color.Bold).Sprint("ERROR"), color.RedString(err.Error()))
		os.Exit(1)
	}
}
