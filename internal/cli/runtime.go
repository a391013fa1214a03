// Package cli holds the plumbing shared by idb commands: config loading,
// observability setup, companion resolution and formatted output.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/gezibash/idbridge/internal/companion"
	"github.com/gezibash/idbridge/internal/config"
	"github.com/gezibash/idbridge/internal/observability"
	"github.com/gezibash/idbridge/pkg/client"
)

// Env is the per-invocation environment of a command.
type Env struct {
	Config config.Config
	Obs    *observability.Observability

	registry *companion.Registry
}

// Open loads configuration from v and starts observability. Logs go to logs.
func Open(ctx context.Context, v *viper.Viper, logs io.Writer) (*Env, error) {
	cfg, err := config.Load(v, v.GetString("config_file"))
	if err != nil {
		return nil, err
	}
	obs, err := observability.New(ctx, cfg.Obs(), logs)
	if err != nil {
		return nil, err
	}
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		obs.ServeMetrics(addr)
	}
	return &Env{Config: cfg, Obs: obs}, nil
}

// Registry opens the companion registry on first use.
func (e *Env) Registry(ctx context.Context) (*companion.Registry, error) {
	if e.registry != nil {
		return e.registry, nil
	}
	r, err := companion.Open(ctx, e.Config.Registry.Backend, e.Config.Registry.Config, e.Obs.Metrics)
	if err != nil {
		return nil, err
	}
	e.registry = r
	return r, nil
}

// Companion returns the companion to talk to. A registered entry wins; a
// udid that is not registered is reached at the configured host and port.
func (e *Env) Companion(ctx context.Context) (companion.Descriptor, error) {
	static, ok := e.Config.Static()
	r, err := e.Registry(ctx)
	if err != nil {
		if ok {
			slog.WarnContext(ctx, "companion registry unavailable", "error", err)
			return static, nil
		}
		return companion.Descriptor{}, err
	}
	d, err := r.Resolve(ctx, e.Config.Companion.UDID)
	if ok && errors.Is(err, companion.ErrNotFound) {
		return static, nil
	}
	return d, err
}

// ClientOptions returns the client options implied by the config.
func (e *Env) ClientOptions() []client.Option {
	return []client.Option{
		client.WithChunkSize(e.Config.Transfer.ChunkSize),
		client.WithMetrics(e.Obs.Metrics),
		client.WithDialTimeout(e.Config.GRPC.DialTimeout),
		client.WithMaxMessageSize(e.Config.GRPC.MaxMsgSize),
	}
}

// Dial connects to the resolved companion.
func (e *Env) Dial(ctx context.Context) (*client.Client, error) {
	d, err := e.Companion(ctx)
	if err != nil {
		return nil, err
	}
	return client.Dial(ctx, d, e.ClientOptions()...)
}

// Close releases the registry and flushes observability.
func (e *Env) Close(ctx context.Context) error {
	var errs []error
	if e.registry != nil {
		errs = append(errs, e.registry.Close())
	}
	errs = append(errs, e.Obs.Close(ctx))
	return errors.Join(errs...)
}
