// Package companions implements idb companion: the local registry of
// companion endpoints.
package companions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/internal/companion"
)

// Entrypoint returns the companion command.
func Entrypoint(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companion",
		Short: "Manage known companions",
		Long: `Manage the companions idb can talk to.

With exactly one companion registered, commands use it without --udid.

Examples:
  idb companion add 6F4C2A90-1B2C-4D3E-8F00-112233445566 localhost 10882 --local
  idb companion list
  idb companion remove 6F4C2A90-1B2C-4D3E-8F00-112233445566`,
	}

	cmd.AddCommand(
		addCmd(v),
		listCmd(v),
		removeCmd(v),
	)

	return cmd
}

func withRegistry(v *viper.Viper, name string, fn func(ctx context.Context, r *companion.Registry, out *cli.Output) error) error {
	return cli.RunCommand(cli.CommandConfig{
		Name:    name,
		Viper:   v,
		Timeout: cli.Timeout(v),
		Run: func(ctx context.Context, env *cli.Env, out *cli.Output) error {
			r, err := env.Registry(ctx)
			if err != nil {
				return err
			}
			return fn(ctx, r, out)
		},
	})
}

func addCmd(v *viper.Viper) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "add <udid> <host> <port>",
		Short: "Register a companion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[2])
			}
			d := companion.Descriptor{UDID: args[0], Host: args[1], Port: port, IsLocal: local}
			return withRegistry(v, "companion-add", func(ctx context.Context, r *companion.Registry, out *cli.Output) error {
				if err := r.Add(ctx, d); err != nil {
					return err
				}
				return out.Result("companion-added", "Added "+d.UDID).
					With("Address", d.Address()).
					With("Locality", d.Locality().String()).
					Render()
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "the companion runs on this machine")
	return cmd
}

func listCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered companions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(v, "companion-list", func(ctx context.Context, r *companion.Registry, out *cli.Output) error {
				all, err := r.List(ctx)
				if err != nil {
					return err
				}
				if len(all) == 0 {
					return out.Result("companions", "No companions registered").Render()
				}
				table := out.Table("companions", "UDID", "Address", "Locality")
				for _, d := range all {
					table.AddRow(d.UDID, d.Address(), d.Locality().String())
				}
				return table.Render()
			})
		},
	}
}

func removeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <udid>",
		Short: "Forget a companion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(v, "companion-remove", func(ctx context.Context, r *companion.Registry, out *cli.Output) error {
				if err := r.Remove(ctx, args[0]); err != nil {
					return err
				}
				return out.Result("companion-removed", "Removed "+args[0]).Render()
			})
		},
	}
}
