// Package files implements idb file: moving files in and out of an app's
// container.
package files

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/pkg/client"
)

// Entrypoint returns the file command.
func Entrypoint(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage files in an application container",
		Long: `Manage files inside the container of an installed application.

Examples:
  idb file push --bundle-id com.example.demo a.txt b.txt Documents
  idb file pull --bundle-id com.example.demo Documents/db.sqlite ./out
  idb file ls --bundle-id com.example.demo Documents
  idb file mkdir --bundle-id com.example.demo Documents/cache
  idb file rm --bundle-id com.example.demo Documents/a.txt
  idb file mv --bundle-id com.example.demo Documents/a.txt Documents/b.txt Library`,
	}

	var bundleID string
	cmd.PersistentFlags().StringVarP(&bundleID, "bundle-id", "b", "", "application bundle id")
	_ = cmd.MarkPersistentFlagRequired("bundle-id")

	cmd.AddCommand(
		pushCmd(v, &bundleID),
		pullCmd(v, &bundleID),
		lsCmd(v, &bundleID),
		mkdirCmd(v, &bundleID),
		rmCmd(v, &bundleID),
		mvCmd(v, &bundleID),
	)

	return cmd
}

func pushCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "push <src>... <dst>",
		Short: "Copy local files into the container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, dst := args[:len(args)-1], args[len(args)-1]
			return cli.RunClient("push", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Push(ctx, srcs, *bundleID, dst); err != nil {
					return err
				}
				return out.Result("pushed", fmt.Sprintf("Pushed %d path(s)", len(srcs))).
					With("Bundle", *bundleID).
					With("Destination", dst).
					Render()
			})
		},
	}
}

func pullCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <src> <dst>",
		Short: "Copy a file or directory out of the container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("pull", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				dst, err := c.Pull(ctx, *bundleID, args[0], args[1])
				if err != nil {
					return err
				}
				return out.Result("pulled", fmt.Sprintf("Pulled %s", args[0])).
					With("Bundle", *bundleID).
					With("Destination", dst).
					Render()
			})
		},
	}
}

func lsCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory in the container",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return cli.RunClient("ls", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				entries, err := c.Ls(ctx, *bundleID, path)
				if err != nil {
					return err
				}
				return out.Lines("ls").Add(entries...).Render()
			})
		},
	}
}

func mkdirCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory in the container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("mkdir", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Mkdir(ctx, *bundleID, args[0]); err != nil {
					return err
				}
				return out.Result("mkdir", "Created "+args[0]).Render()
			})
		},
	}
}

func rmCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove paths from the container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("rm", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Rm(ctx, *bundleID, args...); err != nil {
					return err
				}
				return out.Result("rm", fmt.Sprintf("Removed %d path(s)", len(args))).Render()
			})
		},
	}
}

func mvCmd(v *viper.Viper, bundleID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src>... <dst>",
		Short: "Move paths within the container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, dst := args[:len(args)-1], args[len(args)-1]
			return cli.RunClient("mv", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Mv(ctx, *bundleID, srcs, dst); err != nil {
					return err
				}
				return out.Result("mv", fmt.Sprintf("Moved %d path(s)", len(srcs))).
					With("Destination", dst).
					Render()
			})
		},
	}
}
