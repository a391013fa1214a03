package badger

import (
	"context"
	"testing"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/companion/physical/physicaltest"
)

func TestBackend(t *testing.T) {
	physicaltest.Run(t, func(t *testing.T) physical.Backend {
		be, err := NewFactory(context.Background(), map[string]string{KeyPath: t.TempDir(), KeySyncWrites: "false"})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { be.Close() })
		return be
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := map[string]string{KeyPath: t.TempDir()}

	be, err := NewFactory(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := be.Put(ctx, "sim-1", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := be.Close(); err != nil {
		t.Fatal(err)
	}

	be, err = NewFactory(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer be.Close()
	got, err := be.Get(ctx, "sim-1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}
}

func TestEmptyPath(t *testing.T) {
	if _, err := NewFactory(context.Background(), map[string]string{KeyPath: ""}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
