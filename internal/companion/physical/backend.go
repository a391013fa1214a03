// Package physical provides the storage backend interface for the companion
// registry and the registry of backend factories.
package physical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gezibash/idbridge/internal/observability"
	"github.com/gezibash/idbridge/internal/storage"
)

var (
	// ErrNotFound indicates no record is stored under the key.
	ErrNotFound = errors.New("record not found")

	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("backend closed")

	// ErrInvalidKey indicates a key that cannot be stored.
	ErrInvalidKey = errors.New("invalid key")
)

// Record is one stored key/value pair.
type Record struct {
	Key   string
	Value []byte
}

// Backend stores opaque records by key. All implementations must be
// thread-safe.
type Backend interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every record ordered by key.
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// ValidateKey rejects keys that are empty or would not map to a single
// path element.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Factory creates a backend from a configuration map.
type Factory func(ctx context.Context, config map[string]string) (Backend, error)

// DefaultsFunc returns the default configuration for a backend.
type DefaultsFunc func() map[string]string

type backendEntry struct {
	factory  Factory
	defaults DefaultsFunc
}

var (
	backends   = make(map[string]backendEntry)
	backendsMu sync.RWMutex
)

// Register makes a backend available under name. It panics on duplicates.
func Register(name string, factory Factory, defaults DefaultsFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if _, exists := backends[name]; exists {
		panic(fmt.Sprintf("companion backend %q already registered", name))
	}
	backends[name] = backendEntry{factory: factory, defaults: defaults}
}

// GetDefaults returns the default configuration for a backend.
func GetDefaults(name string) map[string]string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	entry, ok := backends[name]
	if !ok || entry.defaults == nil {
		return nil
	}
	return entry.defaults()
}

// ListBackends returns the sorted names of all registered backends.
func ListBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates the named backend, layering config over its defaults.
func New(ctx context.Context, name string, config map[string]string, metrics *observability.Metrics) (_ Backend, err error) {
	op, ctx := observability.StartOperation(ctx, metrics, "companion.physical.new")
	defer func() { op.End(err) }()

	backendsMu.RLock()
	entry, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, storage.NewConfigError(name, "", fmt.Sprintf("unknown companion backend %q (available: %v)", name, ListBackends()))
	}

	var defaults map[string]string
	if entry.defaults != nil {
		defaults = entry.defaults()
	}
	backend, err := entry.factory(ctx, storage.MergeConfig(defaults, config))
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "companion backend created", "backend", name)
	return backend, nil
}

// IsRegistered reports whether a backend is registered under name.
func IsRegistered(name string) bool {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	_, ok := backends[name]
	return ok
}
