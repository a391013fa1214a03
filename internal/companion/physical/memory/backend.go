// Package memory provides an in-memory companion registry backend for tests
// and one-off sessions.
package memory

import (
	"context"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/companion/physical/badger"
)

func init() {
	physical.Register("memory", NewFactory, Defaults)
}

// Defaults returns the default configuration for the memory backend.
func Defaults() map[string]string {
	return map[string]string{
		badger.KeyInMemory: "true",
	}
}

// NewFactory creates a backend using BadgerDB's in-memory mode.
func NewFactory(ctx context.Context, _ map[string]string) (physical.Backend, error) {
	return badger.NewFactory(ctx, map[string]string{badger.KeyInMemory: "true"})
}
