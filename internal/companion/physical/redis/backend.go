// Package redis provides a Redis-backed companion registry backend, for
// registries shared between several hosts driving the same device farm.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/storage"
)

const (
	KeyAddr        = "addr"
	KeyPassword    = "password"
	KeyDB          = "db"
	KeyDialTimeout = "dial_timeout"
	KeyKeyPrefix   = "key_prefix"
)

func init() {
	physical.Register("redis", NewFactory, Defaults)
}

// Defaults returns the default configuration for the Redis backend.
func Defaults() map[string]string {
	return map[string]string{
		KeyAddr:        "localhost:6379",
		KeyPassword:    "",
		KeyDB:          "0",
		KeyDialTimeout: "5s",
		KeyKeyPrefix:   "idb:",
	}
}

// NewFactory connects to Redis and verifies the connection with a ping.
func NewFactory(ctx context.Context, config map[string]string) (physical.Backend, error) {
	addr := storage.GetString(config, KeyAddr, "")
	if addr == "" {
		return nil, storage.NewConfigError("redis", KeyAddr, "cannot be empty")
	}

	db, err := storage.GetInt(config, KeyDB, 0)
	if err != nil {
		return nil, storage.NewConfigErrorWithValue("redis", KeyDB, config[KeyDB], err.Error())
	}
	if db < 0 {
		return nil, storage.NewConfigErrorWithValue("redis", KeyDB, config[KeyDB], "must be non-negative")
	}

	dialTimeout, err := storage.GetDuration(config, KeyDialTimeout, 5*time.Second)
	if err != nil {
		return nil, storage.NewConfigErrorWithValue("redis", KeyDialTimeout, config[KeyDialTimeout], err.Error())
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    storage.GetString(config, KeyPassword, ""),
		DB:          db,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, storage.NewConfigErrorWithCause("redis", KeyAddr, "failed to connect", err)
	}

	prefix := storage.GetString(config, KeyKeyPrefix, "idb:")
	slog.Debug("redis companion registry opened", "addr", addr, "db", db, "key_prefix", prefix)
	return &Backend{client: client, hash: prefix + "companions"}, nil
}

// Backend keeps every record as a field of a single Redis hash.
type Backend struct {
	client *redis.Client
	hash   string
	closed atomic.Bool
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if err := physical.ValidateKey(key); err != nil {
		return err
	}
	if err := b.client.HSet(ctx, b.hash, key, value).Err(); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}
	value, err := b.client.HGet(ctx, b.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, physical.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (b *Backend) List(ctx context.Context) ([]physical.Record, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}
	fields, err := b.client.HGetAll(ctx, b.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	records := make([]physical.Record, 0, len(fields))
	for k, v := range fields {
		records = append(records, physical.Record{Key: k, Value: []byte(v)})
	}
	slices.SortFunc(records, func(a, b physical.Record) int { return strings.Compare(a.Key, b.Key) })
	return records, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if err := b.client.HDel(ctx, b.hash, key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.client.Close()
}
