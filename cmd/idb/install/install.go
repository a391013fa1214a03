// Package install implements the idb install command.
package install

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/pkg/client"
	"github.com/gezibash/idbridge/pkg/transfer"
)

type result struct {
	source   string
	artifact client.InstalledArtifact
}

// Entrypoint returns the install command.
func Entrypoint(v *viper.Viper) *cobra.Command {
	var (
		kind     string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "install <bundle>...",
		Short: "Install bundles on the companion's target",
		Long: `Install one or more bundles. A bundle is a path to a .app, .xctest,
.dylib, .dSYM or .framework (file or directory) or an http(s) URL the
companion downloads itself.

When the companion runs on this machine, paths are passed by reference.
Otherwise the bundle is archived and streamed.

Examples:
  idb install build/Demo.app
  idb install --type xctest build/DemoTests.xctest
  idb install --parallel 4 a.app b.app c.app`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst, err := transfer.ParseDestination(kind)
			if err != nil {
				return err
			}
			return cli.RunClient("install", v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
				results, err := installAll(ctx, c, dst, args, parallel)
				if err != nil {
					return err
				}
				table := out.Table("installed", "Source", "Name", "UUID")
				for _, r := range results {
					table.AddRow(r.source, r.artifact.Name, r.artifact.UUID)
				}
				return table.Render()
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", transfer.App.String(), "bundle type (app, xctest, dylib, dsym, framework)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "install up to this many bundles at once")

	return cmd
}

// installAll installs every source, each on its own stream. Results keep
// the order of sources. The first failure cancels the rest.
func installAll(ctx context.Context, c *client.Client, dst transfer.Destination, sources []string, parallel int) ([]result, error) {
	results := make([]result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, src := range sources {
		g.Go(func() error {
			artifact, err := c.Install(ctx, transfer.ParseSource(src), dst)
			if err != nil {
				return fmt.Errorf("install %s: %w", src, err)
			}
			results[i] = result{source: src, artifact: artifact}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
