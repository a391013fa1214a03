// Package client drives a companion over gRPC: it picks how each payload is
// framed, streams it, and turns the companion's answer or failure into a
// result or a domain error.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	idbv1 "github.com/gezibash/idbridge/api/idb/v1"
	"github.com/gezibash/idbridge/internal/companion"
	"github.com/gezibash/idbridge/internal/observability"
	"github.com/gezibash/idbridge/pkg/transfer"
)

// Client talks to one companion. It is safe for concurrent use; every
// operation opens its own stream on the shared connection.
type Client struct {
	conn *grpc.ClientConn
	stub idbv1.CompanionServiceClient
	desc companion.Descriptor
	cfg  clientConfig
}

type clientConfig struct {
	chunkSize   int
	metrics     *observability.Metrics
	dialTimeout time.Duration
	maxMsgSize  int
	dialOpts    []grpc.DialOption
}

// Option configures client behavior.
type Option func(*clientConfig)

// WithChunkSize bounds the size of DataChunk frames.
func WithChunkSize(n int) Option {
	return func(c *clientConfig) { c.chunkSize = n }
}

// WithMetrics records operation metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *clientConfig) { c.metrics = m }
}

// WithDialTimeout makes Dial wait up to d for the connection to become
// ready. Zero leaves the connection lazy.
func WithDialTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.dialTimeout = d }
}

// WithMaxMessageSize raises the gRPC send and receive message limits.
func WithMaxMessageSize(n int) Option {
	return func(c *clientConfig) { c.maxMsgSize = n }
}

// WithDialOptions appends raw gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *clientConfig) { c.dialOpts = append(c.dialOpts, opts...) }
}

const frameOverhead = 64

func newConfig(opts []Option) clientConfig {
	cfg := clientConfig{chunkSize: transfer.DefaultChunkSize}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = transfer.DefaultChunkSize
	}
	// A chunk plus its request envelope must fit in one message.
	if limit := cfg.maxMsgSize - frameOverhead; cfg.maxMsgSize > 0 && limit > 0 && cfg.chunkSize > limit {
		cfg.chunkSize = limit
	}
	return cfg
}

// Dial connects to the companion described by d.
func Dial(ctx context.Context, d companion.Descriptor, opts ...Option) (*Client, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(observability.UnaryClientInterceptor(cfg.metrics)),
		grpc.WithChainStreamInterceptor(observability.StreamClientInterceptor(cfg.metrics)),
	}
	if cfg.maxMsgSize > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.maxMsgSize),
			grpc.MaxCallSendMsgSize(cfg.maxMsgSize),
		))
	}
	dialOpts = append(dialOpts, cfg.dialOpts...)

	conn, err := grpc.NewClient(d.Address(), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Address(), err)
	}
	if cfg.dialTimeout > 0 {
		if err := waitReady(ctx, conn, cfg.dialTimeout); err != nil {
			_ = conn.Close()
			return nil, translate(fmt.Errorf("companion %s at %s unreachable: %w", d.UDID, d.Address(), err))
		}
	}
	slog.DebugContext(ctx, "companion connection created", "udid", d.UDID, "address", d.Address(), "local", d.IsLocal)

	c := newClient(conn, d, cfg)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection. The caller keeps ownership of cc.
func New(cc grpc.ClientConnInterface, d companion.Descriptor, opts ...Option) *Client {
	return newClient(cc, d, newConfig(opts))
}

func newClient(cc grpc.ClientConnInterface, d companion.Descriptor, cfg clientConfig) *Client {
	return &Client{stub: idbv1.NewCompanionServiceClient(cc), desc: d, cfg: cfg}
}

func waitReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			return ctx.Err()
		}
	}
}

// Companion returns the descriptor the client was built for.
func (c *Client) Companion() companion.Descriptor { return c.desc }

// Close releases the connection if Dial created it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) locality() transfer.Locality { return c.desc.Locality() }

func (c *Client) options() transfer.Options {
	return transfer.Options{ChunkSize: c.cfg.chunkSize}
}

func (c *Client) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (*observability.Operation, context.Context) {
	attrs = append(attrs,
		attribute.String("idb.udid", c.desc.UDID),
		attribute.Bool("idb.local", c.desc.IsLocal),
	)
	return observability.StartOperation(ctx, c.cfg.metrics, name, attrs...)
}
