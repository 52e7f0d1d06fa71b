package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milieux-dev/milieux/internal/env"
)

func newEnvCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environments",
	}
	cmd.AddCommand(
		newEnvActivateCommand(a),
		newEnvFreezeCommand(a),
		newEnvInstallCommand(a),
		newEnvListCommand(a),
		newEnvNewCommand(a),
		newEnvRemoveCommand(a),
		newEnvShowCommand(a),
		newEnvSyncCommand(a),
		newEnvTemplateCommand(a),
		newEnvUninstallCommand(a),
	)
	return cmd
}

// resolveEnv picks the target environment: the named one, or the currently
// active one when the name is omitted or ".".
func resolveEnv(store *env.Store, args []string) (*env.Environment, error) {
	if len(args) > 0 && args[0] != "." {
		return store.Env(args[0]), nil
	}
	if active := store.Active(); active != nil {
		return active, nil
	}
	return nil, &env.EnvError{Msg: "not currently in an environment managed by milieux"}
}

func newEnvListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			return store.List(cmd.OutOrStdout())
		},
	}
}

func newEnvNewCommand(a *app) *cobra.Command {
	var opts env.NewOptions
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a new environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			_, err = store.New(args[0], opts)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "install seed packages (e.g. pip) into the environment")
	cmd.Flags().StringVarP(&opts.Python, "python", "p", "", "Python interpreter for the environment")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "force overwrite of environment if it exists")
	return cmd
}

func newEnvInstallCommand(a *app) *cobra.Command {
	var opts env.InstallOptions
	cmd := &cobra.Command{
		Use:   "install [NAME]",
		Short: "Install packages into an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args)
			if err != nil {
				return err
			}
			return environment.Install(opts)
		},
	}
	addRequirementFlags(cmd, &opts.Packages, &opts.Requirements, &opts.Distros)
	cmd.Flags().BoolVar(&opts.Upgrade, "upgrade", false, "allow package upgrades")
	cmd.Flags().BoolVar(&opts.NoDeps, "no-deps", false, "ignore package dependencies")
	cmd.Flags().StringVarP(&opts.Editable, "editable", "e", "", "do an editable install of a single local package path")
	return cmd
}

func newEnvUninstallCommand(a *app) *cobra.Command {
	var opts env.InstallOptions
	cmd := &cobra.Command{
		Use:   "uninstall [NAME]",
		Short: "Uninstall packages from an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args)
			if err != nil {
				return err
			}
			return environment.Uninstall(opts)
		},
	}
	addRequirementFlags(cmd, &opts.Packages, &opts.Requirements, &opts.Distros)
	return cmd
}

func newEnvSyncCommand(a *app) *cobra.Command {
	var opts env.SyncOptions
	cmd := &cobra.Command{
		Use:   "sync [NAME]",
		Short: "Sync an environment to exactly match requirements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args)
			if err != nil {
				return err
			}
			return environment.Sync(opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.Requirements, "requirements", "r", nil, "requirements file(s) listing packages")
	cmd.Flags().StringSliceVarP(&opts.Distros, "distros", "d", nil, "distro name(s) providing packages")
	return cmd
}

func newEnvActivateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate NAME",
		Short: "Print the command to activate an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			return store.Env(args[0]).Activate(cmd.OutOrStdout(), os.Stderr)
		},
	}
}

func newEnvFreezeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "freeze [NAME]",
		Short: "List installed packages in an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args)
			if err != nil {
				return err
			}
			packages, err := environment.Freeze()
			if err != nil {
				return err
			}
			for _, pkg := range packages {
				fmt.Fprintln(cmd.OutOrStdout(), pkg)
			}
			return nil
		},
	}
}

func newEnvShowCommand(a *app) *cobra.Command {
	var listPackages bool
	cmd := &cobra.Command{
		Use:   "show [NAME]",
		Short: "Show details about an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args)
			if err != nil {
				return err
			}
			return environment.Show(listPackages, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&listPackages, "list-packages", false, "include the list of installed packages")
	return cmd
}

func newEnvRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			return store.Env(args[0]).Remove()
		},
	}
}

func newEnvTemplateCommand(a *app) *cobra.Command {
	var (
		suffix   string
		varPairs []string
	)
	cmd := &cobra.Command{
		Use:   "template TEMPLATE [NAME]",
		Short: "Render a template file with environment variables",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, args[1:])
			if err != nil {
				return err
			}
			extraVars, err := parseVarPairs(varPairs)
			if err != nil {
				return err
			}
			return environment.RenderTemplate(args[0], suffix, extraVars, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&suffix, "suffix", "s", "", "write output next to the template with this suffix instead of printing")
	cmd.Flags().StringArrayVar(&varPairs, "var", nil, "extra template variable as KEY=VALUE (repeatable)")
	return cmd
}

func parseVarPairs(pairs []string) (map[string]string, error) {
	vars := map[string]string{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid template variable assignment %q (expected KEY=VALUE)", pair)
		}
		if _, dup := vars[key]; dup {
			return nil, fmt.Errorf("duplicate template variable %q", key)
		}
		vars[key] = value
	}
	return vars, nil
}

func addRequirementFlags(cmd *cobra.Command, packages, requirements, distros *[]string) {
	cmd.Flags().StringSliceVarP(packages, "packages", "p", nil, "packages, optionally with constraints (e.g. \"numpy>=1.25\")")
	cmd.Flags().StringSliceVarP(requirements, "requirements", "r", nil, "requirements file(s) listing packages")
	cmd.Flags().StringSliceVarP(distros, "distros", "d", nil, "distro name(s) providing packages")
}
