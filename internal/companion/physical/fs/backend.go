// Package fs stores each companion record as a file in a directory, which
// makes the registry easy to inspect and edit by hand.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/storage"
)

const (
	KeyPath            = "path"
	KeyFilePermissions = "file_permissions"

	ext = ".json"
)

func init() {
	physical.Register("fs", NewFactory, Defaults)
}

// Defaults returns the default configuration for the filesystem backend.
func Defaults() map[string]string {
	return map[string]string{
		KeyPath:            "~/.idb/companions.d",
		KeyFilePermissions: "0600",
	}
}

// NewFactory creates a filesystem backend from a configuration map.
func NewFactory(_ context.Context, config map[string]string) (physical.Backend, error) {
	path := storage.GetString(config, KeyPath, "")
	if path == "" {
		return nil, storage.NewConfigError("fs", KeyPath, "cannot be empty")
	}
	path = storage.ExpandPath(path)

	perm, err := storage.GetFileMode(config, KeyFilePermissions, 0o600)
	if err != nil {
		return nil, storage.NewConfigErrorWithValue("fs", KeyFilePermissions, config[KeyFilePermissions], err.Error())
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, storage.NewConfigErrorWithCause("fs", KeyPath, "failed to create directory", err)
	}

	slog.Debug("fs companion registry opened", "path", path)
	return &Backend{root: path, perm: perm}, nil
}

// Backend is a filesystem implementation of physical.Backend.
type Backend struct {
	root   string
	perm   os.FileMode
	mu     sync.RWMutex
	closed atomic.Bool
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.root, key+ext)
}

// Put writes through a temp file and rename so readers never see a partial
// record.
func (b *Backend) Put(_ context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if err := physical.ValidateKey(key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("fs put: %w", err)
	}
	name := tmp.Name()
	_, writeErr := tmp.Write(value)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("fs put: %w", err)
	}
	if err := os.Chmod(name, b.perm); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("fs put: %w", err)
	}
	if err := os.Rename(name, b.path(key)); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("fs put: %w", err)
	}
	return nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}
	if err := physical.ValidateKey(key); err != nil {
		return nil, physical.ErrNotFound
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, physical.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fs get: %w", err)
	}
	return data, nil
}

func (b *Backend) List(_ context.Context) ([]physical.Record, error) {
	if b.closed.Load() {
		return nil, physical.ErrClosed
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("fs list: %w", err)
	}
	var records []physical.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.root, name))
		if err != nil {
			return nil, fmt.Errorf("fs list: %w", err)
		}
		records = append(records, physical.Record{Key: strings.TrimSuffix(name, ext), Value: data})
	}
	slices.SortFunc(records, func(a, b physical.Record) int { return strings.Compare(a.Key, b.Key) })
	return records, nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	if b.closed.Load() {
		return physical.ErrClosed
	}
	if err := physical.ValidateKey(key); err != nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs delete: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}
