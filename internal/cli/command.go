package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/pkg/client"
)

// CommandConfig configures a CLI command.
type CommandConfig struct {
	// Name identifies this command in logs.
	Name string

	// Viper holds the command's configuration.
	Viper *viper.Viper

	// Timeout for the command operation. Zero means no timeout.
	Timeout time.Duration

	// Run is the command's business logic.
	Run func(ctx context.Context, env *Env, out *Output) error
}

// RunCommand loads the environment, applies the timeout and runs the
// command. Logs go to stderr so stdout carries only results.
func RunCommand(cfg CommandConfig) error {
	if cfg.Name == "" {
		return errors.New("command name required")
	}
	if cfg.Viper == nil {
		return errors.New("viper required")
	}
	if cfg.Run == nil {
		return errors.New("run function required")
	}

	ctx := context.Background()
	env, err := Open(ctx, cfg.Viper, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close(context.Background()) }()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	return cfg.Run(ctx, env, NewOutputFromViper(cfg.Viper))
}

// RunClient is RunCommand with a connected client.
func RunClient(name string, v *viper.Viper, timeout time.Duration, run func(ctx context.Context, c *client.Client, out *Output) error) error {
	return RunCommand(CommandConfig{
		Name:    name,
		Viper:   v,
		Timeout: timeout,
		Run: func(ctx context.Context, env *Env, out *Output) error {
			c, err := env.Dial(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			return run(ctx, c, out.ForCompanion(c.Companion().UDID))
		},
	})
}

// Timeout returns the value of the global --timeout flag.
func Timeout(v *viper.Viper) time.Duration {
	return v.GetDuration("timeout")
}
