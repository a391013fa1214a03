package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/cmd/idb/apps"
	"github.com/gezibash/idbridge/cmd/idb/companions"
	"github.com/gezibash/idbridge/cmd/idb/files"
	"github.com/gezibash/idbridge/cmd/idb/install"
	"github.com/gezibash/idbridge/cmd/idb/media"
	"github.com/gezibash/idbridge/cmd/idb/ui"
	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/internal/config"

	_ "github.com/gezibash/idbridge/internal/companion/physical/badger"
	_ "github.com/gezibash/idbridge/internal/companion/physical/fs"
	_ "github.com/gezibash/idbridge/internal/companion/physical/memory"
	_ "github.com/gezibash/idbridge/internal/companion/physical/redis"
	_ "github.com/gezibash/idbridge/internal/companion/physical/s3"
	_ "github.com/gezibash/idbridge/internal/companion/physical/sqlite"
)

func main() {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "idb",
		Short:         "Drive a device companion over gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.BindFlags(rootCmd, v)
	rootCmd.PersistentFlags().Duration("timeout", 0, "abort the command after this long (0 = no limit)")
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.AddCommand(install.Entrypoint(v))
	rootCmd.AddCommand(files.Entrypoint(v))
	rootCmd.AddCommand(media.Entrypoint(v))
	rootCmd.AddCommand(media.ContactsEntrypoint(v))
	rootCmd.AddCommand(ui.Entrypoint(v))
	rootCmd.AddCommand(companions.Entrypoint(v))
	rootCmd.AddCommand(apps.Commands(v)...)
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		out := cli.NewOutput(cli.ParseFormat(v.GetString("output")), os.Stderr)
		_ = out.Error(commandName(rootCmd), err).Render()
		os.Exit(1)
	}
}

// commandName names the subcommand that failed for the error envelope.
func commandName(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == root {
		return "idb"
	}
	return cmd.Name()
}
