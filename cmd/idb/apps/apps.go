// Package apps implements the application commands: list-apps, terminate,
// uninstall, focus, open, approve and clear-keychain.
package apps

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/cel"
	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/pkg/client"
)

// Commands returns the top-level application commands.
func Commands(v *viper.Viper) []*cobra.Command {
	return []*cobra.Command{
		listAppsCmd(v),
		bundleCmd(v, "terminate", "Terminate a running application", "Terminated", (*client.Client).Terminate),
		bundleCmd(v, "uninstall", "Uninstall an application", "Uninstalled", (*client.Client).Uninstall),
		focusCmd(v),
		openCmd(v),
		approveCmd(v),
		clearKeychainCmd(v),
	}
}

func listAppsCmd(v *viper.Viper) *cobra.Command {
	var (
		filter       string
		processState bool
	)
	cmd := &cobra.Command{
		Use:   "list-apps",
		Short: "List installed applications",
		Long: `List installed applications.

--filter takes a CEL expression over bundle_id, name, install_type,
process_state, debuggable and architectures.

Examples:
  idb list-apps
  idb list-apps --filter 'install_type == "user" && debuggable'
  idb list-apps --filter 'bundle_id.startsWith("com.example.")' -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f *cel.Filter
			if filter != "" {
				var err error
				if f, err = cel.CompileApps(filter); err != nil {
					return err
				}
			}
			return cli.RunClient("list-apps", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				apps, err := c.ListApps(ctx, processState)
				if err != nil {
					return err
				}
				table := out.Table("apps", "Bundle ID", "Name", "Install Type", "Architectures", "Process State", "Debuggable")
				for _, a := range f.Apps(apps) {
					table.AddRow(a.BundleID, a.Name, a.InstallType, strings.Join(a.Architectures, ","), a.ProcessState, strconv.FormatBool(a.Debuggable))
				}
				return table.Render()
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression selecting apps")
	cmd.Flags().BoolVar(&processState, "fetch-process-state", true, "ask the companion for each app's process state")
	return cmd
}

func bundleCmd(v *viper.Viper, name, short, done string, call func(*client.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <bundle-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient(name, v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := call(c, ctx, args[0]); err != nil {
					return err
				}
				return out.Result(name, done+" "+args[0]).Render()
			})
		},
	}
}

func focusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Bring the simulator window to the front",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("focus", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Focus(ctx); err != nil {
					return err
				}
				return out.Result("focus", "Focused").Render()
			})
		},
	}
}

func openCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Open a URL on the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("open", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.OpenURL(ctx, args[0]); err != nil {
					return err
				}
				return out.Result("open", "Opened "+args[0]).Render()
			})
		},
	}
}

func approveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <bundle-id> <permission>...",
		Short: "Grant permissions to an application",
		Long:  "Grant permissions to an application. Permissions: " + strings.Join(client.PermissionNames(), ", ") + ".",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("approve", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.Approve(ctx, args[0], args[1:]...); err != nil {
					return err
				}
				return out.Result("approve", "Approved "+strings.Join(args[1:], ", ")).
					With("Bundle", args[0]).
					Render()
			})
		},
	}
}

func clearKeychainCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-keychain",
		Short: "Wipe the target's keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("clear-keychain", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.ClearKeychain(ctx); err != nil {
					return err
				}
				return out.Result("clear-keychain", "Keychain cleared").Render()
			})
		},
	}
}
