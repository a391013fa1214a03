// Package ui implements idb ui: synthesised touch, button and keyboard
// input.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/cli"
	"github.com/gezibash/idbridge/pkg/client"
	"github.com/gezibash/idbridge/pkg/hid"
)

// Entrypoint returns the ui command.
func Entrypoint(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Send input events",
		Long: `Send touch, button and keyboard events to the target.

Examples:
  idb ui tap 100 200
  idb ui tap --duration 2s 100 200
  idb ui button home
  idb ui key 40
  idb ui key-sequence 11 8 15 15 18
  idb ui text "hello world"
  idb ui swipe 50 600 50 100 --delta 20`,
	}

	cmd.AddCommand(
		tapCmd(v),
		buttonCmd(v),
		keyCmd(v),
		keySequenceCmd(v),
		textCmd(v),
		swipeCmd(v),
	)

	return cmd
}

// send runs fn on a connected client and reports success.
func send(v *viper.Viper, name string, fn func(ctx context.Context, c *client.Client) error) error {
	return cli.RunClient(name, v, cli.Timeout(v), func(ctx context.Context, c *client.Client, out *cli.Output) error {
		if err := fn(ctx, c); err != nil {
			return err
		}
		return out.Result(name, "Sent "+name).Render()
	})
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", a)
		}
		out[i] = f
	}
	return out, nil
}

func parseKeycodes(args []string) ([]uint64, error) {
	out := make([]uint64, len(args))
	for i, a := range args {
		k, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid keycode %q", a)
		}
		out[i] = k
	}
	return out, nil
}

func tapCmd(v *viper.Viper) *cobra.Command {
	var hold time.Duration
	cmd := &cobra.Command{
		Use:   "tap <x> <y>",
		Short: "Tap a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			xy, err := parseFloats(args)
			if err != nil {
				return err
			}
			return send(v, "tap", func(ctx context.Context, c *client.Client) error {
				return c.Tap(ctx, xy[0], xy[1], hold)
			})
		},
	}
	cmd.Flags().DurationVar(&hold, "duration", 0, "hold the touch this long")
	return cmd
}

func buttonCmd(v *viper.Viper) *cobra.Command {
	var hold time.Duration
	names := make([]string, 0, int(hid.Siri)+1)
	for b := hid.ApplePay; b <= hid.Siri; b++ {
		names = append(names, b.String())
	}
	cmd := &cobra.Command{
		Use:       "button <" + strings.Join(names, "|") + ">",
		Short:     "Press a hardware button",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hid.ParseButton(args[0])
			if err != nil {
				return err
			}
			return send(v, "button", func(ctx context.Context, c *client.Client) error {
				return c.Button(ctx, b, hold)
			})
		},
	}
	cmd.Flags().DurationVar(&hold, "duration", 0, "hold the button this long")
	return cmd
}

func keyCmd(v *viper.Viper) *cobra.Command {
	var hold time.Duration
	cmd := &cobra.Command{
		Use:   "key <keycode>",
		Short: "Press a key by HID usage code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := parseKeycodes(args)
			if err != nil {
				return err
			}
			return send(v, "key", func(ctx context.Context, c *client.Client) error {
				return c.Key(ctx, codes[0], hold)
			})
		},
	}
	cmd.Flags().DurationVar(&hold, "duration", 0, "hold the key this long")
	return cmd
}

func keySequenceCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "key-sequence <keycode>...",
		Short: "Press keys one after another",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := parseKeycodes(args)
			if err != nil {
				return err
			}
			return send(v, "key-sequence", func(ctx context.Context, c *client.Client) error {
				return c.KeySequence(ctx, codes)
			})
		},
	}
}

func textCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "text <text>",
		Short: "Type ASCII text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject unsupported characters before dialling.
			if _, err := hid.TextEvents(args[0]); err != nil {
				return err
			}
			return send(v, "text", func(ctx context.Context, c *client.Client) error {
				return c.Text(ctx, args[0])
			})
		},
	}
}

func swipeCmd(v *viper.Viper) *cobra.Command {
	var delta float64
	cmd := &cobra.Command{
		Use:   "swipe <x1> <y1> <x2> <y2>",
		Short: "Swipe between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseFloats(args)
			if err != nil {
				return err
			}
			return send(v, "swipe", func(ctx context.Context, c *client.Client) error {
				return c.Swipe(ctx, hid.Point{X: p[0], Y: p[1]}, hid.Point{X: p[2], Y: p[3]}, delta)
			})
		},
	}
	cmd.Flags().Float64Var(&delta, "delta", hid.DefaultSwipeDelta, "distance between touch samples")
	return cmd
}
