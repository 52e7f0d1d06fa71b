package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/milieux-dev/milieux/internal/distro"
)

// datedName is the sentinel for "--new" without a value: the locked distro
// gets the source name plus a date stamp.
const datedName = "@dated"

func newDistroCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distro",
		Short: "Manage distros (sets of package requirements)",
	}
	cmd.AddCommand(
		newDistroListCommand(a),
		newDistroLockCommand(a),
		newDistroNewCommand(a),
		newDistroRemoveCommand(a),
		newDistroShowCommand(a),
	)
	return cmd
}

func newDistroListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all distros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.distroStore()
			if err != nil {
				return err
			}
			return store.List(cmd.OutOrStdout())
		},
	}
}

func newDistroNewCommand(a *app) *cobra.Command {
	var opts distro.NewOptions
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a new distro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.distroStore()
			if err != nil {
				return err
			}
			return store.New(args[0], opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.Packages, "packages", "p", nil, "packages to include in the distro")
	cmd.Flags().StringSliceVarP(&opts.Requirements, "requirements", "r", nil, "requirements file(s) listing packages")
	cmd.Flags().StringSliceVarP(&opts.Distros, "distros", "d", nil, "existing distro(s) providing packages")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "force overwrite of distro if it exists")
	return cmd
}

func newDistroLockCommand(a *app) *cobra.Command {
	var (
		newName  string
		force    bool
		annotate bool
	)
	cmd := &cobra.Command{
		Use:   "lock NAME",
		Short: "Lock dependencies in a distro to pinned versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.distroStore()
			if err != nil {
				return err
			}
			output, err := store.Lock(args[0], annotate)
			if err != nil {
				return err
			}
			if newName == "" {
				fmt.Fprint(cmd.OutOrStdout(), output)
				return nil
			}
			name := newName
			if name == datedName {
				name = args[0] + "." + time.Now().Format("20060102")
			}
			var packages []string
			for _, line := range strings.Split(output, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					packages = append(packages, line)
				}
			}
			return store.New(name, distro.NewOptions{Packages: packages, Force: force})
		},
	}
	cmd.Flags().StringVar(&newName, "new", "", "name of new locked distro (date-stamped when no name is given)")
	cmd.Flags().Lookup("new").NoOptDefVal = datedName
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force overwrite of new distro if it exists")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "include comment annotations indicating the source of each package")
	return cmd
}

func newDistroRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a distro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.distroStore()
			if err != nil {
				return err
			}
			return store.Remove(args[0])
		},
	}
}

func newDistroShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the contents of a distro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.distroStore()
			if err != nil {
				return err
			}
			return store.Show(args[0], cmd.OutOrStdout(), os.Stderr)
		},
	}
}
