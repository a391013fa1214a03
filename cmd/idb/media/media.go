// Package media implements idb add-media and idb contacts.
package media

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/pkg/client"
)

// Entrypoint returns the add-media command.
func Entrypoint(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "add-media <file>...",
		Short: "Add photos and videos to the camera roll",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("add-media", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.AddMedia(ctx, args); err != nil {
					return err
				}
				return out.Result("media-added", fmt.Sprintf("Added %d file(s)", len(args))).Render()
			})
		},
	}
}

// ContactsEntrypoint returns the contacts command.
func ContactsEntrypoint(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contacts database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "update <db>",
		Short: "Replace the contacts database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunClient("contacts-update", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				if err := c.ContactsUpdate(ctx, args[0]); err != nil {
					return err
				}
				return out.Result("contacts-updated", "Contacts updated").With("Source", args[0]).Render()
			})
		},
	})
	return cmd
}
