// Package physicaltest runs the same behavioural checks against every
// companion registry backend.
package physicaltest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gezibash/idbridge/internal/companion/physical"
)

// Run exercises newBackend against the physical.Backend contract.
func Run(t *testing.T, newBackend func(t *testing.T) physical.Backend) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) {
		be := newBackend(t)
		ctx := context.Background()
		if err := be.Put(ctx, "sim-1", []byte(`{"a":1}`)); err != nil {
			t.Fatal(err)
		}
		got, err := be.Get(ctx, "sim-1")
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, []byte(`{"a":1}`)) {
			t.Errorf("Get = %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		be := newBackend(t)
		ctx := context.Background()
		_ = be.Put(ctx, "sim-1", []byte("old"))
		if err := be.Put(ctx, "sim-1", []byte("new")); err != nil {
			t.Fatal(err)
		}
		got, err := be.Get(ctx, "sim-1")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "new" {
			t.Errorf("Get = %q, want new", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		be := newBackend(t)
		if _, err := be.Get(context.Background(), "nope"); !errors.Is(err, physical.ErrNotFound) {
			t.Errorf("Get missing = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListSorted", func(t *testing.T) {
		be := newBackend(t)
		ctx := context.Background()
		for _, k := range []string{"c", "a", "b"} {
			if err := be.Put(ctx, k, []byte(k)); err != nil {
				t.Fatal(err)
			}
		}
		records, err := be.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 3 {
			t.Fatalf("List returned %d records, want 3", len(records))
		}
		for i, want := range []string{"a", "b", "c"} {
			if records[i].Key != want || string(records[i].Value) != want {
				t.Errorf("records[%d] = %s=%q", i, records[i].Key, records[i].Value)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		be := newBackend(t)
		ctx := context.Background()
		_ = be.Put(ctx, "sim-1", []byte("x"))
		if err := be.Delete(ctx, "sim-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := be.Get(ctx, "sim-1"); !errors.Is(err, physical.ErrNotFound) {
			t.Errorf("Get after delete = %v", err)
		}
		if err := be.Delete(ctx, "sim-1"); err != nil {
			t.Errorf("second delete = %v", err)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		be := newBackend(t)
		for _, k := range []string{"", "..", "a/b"} {
			if err := be.Put(context.Background(), k, []byte("x")); !errors.Is(err, physical.ErrInvalidKey) {
				t.Errorf("Put(%q) = %v, want ErrInvalidKey", k, err)
			}
		}
	})

	t.Run("Closed", func(t *testing.T) {
		be := newBackend(t)
		if err := be.Close(); err != nil {
			t.Fatal(err)
		}
		if err := be.Put(context.Background(), "k", nil); !errors.Is(err, physical.ErrClosed) {
			t.Errorf("Put after close = %v", err)
		}
		if _, err := be.List(context.Background()); !errors.Is(err, physical.ErrClosed) {
			t.Errorf("List after close = %v", err)
		}
	})
}
