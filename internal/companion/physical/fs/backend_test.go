package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/companion/physical/physicaltest"
)

func newTestBackend(t *testing.T) physical.Backend {
	t.Helper()
	be, err := NewFactory(context.Background(), map[string]string{KeyPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { be.Close() })
	return be
}

func TestBackend(t *testing.T) {
	physicaltest.Run(t, newTestBackend)
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	be, err := NewFactory(context.Background(), map[string]string{KeyPath: dir, KeyFilePermissions: "0640"})
	if err != nil {
		t.Fatal(err)
	}
	if err := be.Put(context.Background(), "sim-1", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "sim-1.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestListIgnoresStrayFiles(t *testing.T) {
	dir := t.TempDir()
	be, err := NewFactory(context.Background(), map[string]string{KeyPath: dir})
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, ".tmp-123"), []byte("partial"), 0o600)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)
	if err := be.Put(context.Background(), "sim-1", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	records, err := be.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Key != "sim-1" {
		t.Errorf("List = %+v", records)
	}
}

func TestInvalidPermissions(t *testing.T) {
	_, err := NewFactory(context.Background(), map[string]string{KeyPath: t.TempDir(), KeyFilePermissions: "rw"})
	if err == nil {
		t.Fatal("expected error for non-octal permissions")
	}
}
