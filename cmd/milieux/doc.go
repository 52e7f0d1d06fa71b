package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/milieux-dev/milieux/internal/doc"
)

func newDocCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Build API reference documentation",
	}
	cmd.AddCommand(newDocBuildCommand(a))
	return cmd
}

func newDocBuildCommand(a *app) *cobra.Command {
	var (
		setup   doc.Setup
		envName string
		outDir  string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate a site config and build the documentation site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.envStore()
			if err != nil {
				return err
			}
			environment, err := resolveEnv(store, []string{envName})
			if err != nil {
				return err
			}
			sitePackages, err := environment.SitePackagesDir()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			return setup.Build(outDir, sitePackages, a.run, a.log)
		},
	}
	cmd.Flags().StringVar(&setup.SiteName, "site-name", "", "name of the top-level documentation page")
	cmd.Flags().StringSliceVarP(&setup.Packages, "packages", "p", nil, "packages to include in the docs")
	cmd.Flags().StringVarP(&envName, "env", "n", ".", "environment providing the installed packages")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "directory for the generated config and site (default: working directory)")
	_ = cmd.MarkFlagRequired("site-name")
	_ = cmd.MarkFlagRequired("packages")
	return cmd
}
