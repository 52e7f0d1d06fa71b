package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milieux-dev/milieux/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the milieux configuration",
	}
	cmd.AddCommand(newConfigPathCommand(a), newConfigShowCommand(a))
	return cmd
}

func newConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				defaultPath, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base_dir = %q\n", a.cfg.BaseDir)
			fmt.Fprintf(out, "env_dir = %q\n", a.cfg.EnvDir)
			fmt.Fprintf(out, "distro_dir = %q\n", a.cfg.DistroDir)
			if a.cfg.Pip.DefaultIndexURL != "" {
				fmt.Fprintf(out, "pip.default_index_url = %q\n", a.cfg.Pip.DefaultIndexURL)
			}
			for _, url := range a.cfg.Pip.IndexURLs {
				fmt.Fprintf(out, "pip.index_urls += %q\n", url)
			}
			if a.cfg.Pip.ExtraArgs != "" {
				fmt.Fprintf(out, "pip.extra_args = %q\n", a.cfg.Pip.ExtraArgs)
			}
			return nil
		},
	}
}
