// Package companion tracks the companions a host can reach: their UDID,
// address and whether they share a filesystem with this host.
package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/gezibash/idbridge/internal/companion/physical"
	"github.com/gezibash/idbridge/internal/observability"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
	"github.com/gezibash/idbridge/pkg/transfer"
)

// ErrNotFound indicates no companion is registered under the UDID.
var ErrNotFound = errors.New("companion not found")

// Descriptor identifies one companion endpoint.
type Descriptor struct {
	UDID string `json:"udid"`
	Host string `json:"host"`
	Port int    `json:"port"`
	// IsLocal is true when the companion runs on this host and can read
	// paths from the client's filesystem directly.
	IsLocal bool `json:"is_local"`
}

// Address returns the host:port dial target.
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Locality maps IsLocal onto the transfer strategy input.
func (d Descriptor) Locality() transfer.Locality {
	return transfer.LocalityOf(d.IsLocal)
}

// Validate checks that the descriptor can be stored and dialled.
func (d Descriptor) Validate() error {
	if err := physical.ValidateKey(d.UDID); err != nil {
		return idberrors.Newf(idberrors.KindInvalidArgument, "companion udid %q is not valid", d.UDID)
	}
	if d.Host == "" {
		return idberrors.New(idberrors.KindInvalidArgument, "companion host is empty")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return idberrors.Newf(idberrors.KindInvalidArgument, "companion port %d out of range", d.Port)
	}
	return nil
}

// Registry persists descriptors in a physical backend.
type Registry struct {
	backend physical.Backend
	metrics *observability.Metrics
}

// Open creates the named backend and wraps it in a Registry.
func Open(ctx context.Context, backend string, config map[string]string, metrics *observability.Metrics) (*Registry, error) {
	be, err := physical.New(ctx, backend, config, metrics)
	if err != nil {
		return nil, fmt.Errorf("open companion registry: %w", err)
	}
	return NewRegistry(be, metrics), nil
}

// NewRegistry wraps an existing backend.
func NewRegistry(backend physical.Backend, metrics *observability.Metrics) *Registry {
	return &Registry{backend: backend, metrics: metrics}
}

// Add stores d, replacing any descriptor with the same UDID.
func (r *Registry) Add(ctx context.Context, d Descriptor) (err error) {
	op, ctx := observability.StartOperation(ctx, r.metrics, "companion.add")
	defer func() { op.End(err) }()

	if err := d.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode companion: %w", err)
	}
	if err := r.backend.Put(ctx, d.UDID, data); err != nil {
		return fmt.Errorf("store companion: %w", err)
	}
	slog.DebugContext(ctx, "companion registered", "udid", d.UDID, "address", d.Address(), "local", d.IsLocal)
	return nil
}

// Get returns the descriptor registered under udid.
func (r *Registry) Get(ctx context.Context, udid string) (Descriptor, error) {
	data, err := r.backend.Get(ctx, udid)
	if errors.Is(err, physical.ErrNotFound) {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, udid)
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("load companion: %w", err)
	}
	return decode(data)
}

// List returns every registered descriptor ordered by UDID.
func (r *Registry) List(ctx context.Context) ([]Descriptor, error) {
	records, err := r.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companions: %w", err)
	}
	out := make([]Descriptor, 0, len(records))
	for _, rec := range records {
		d, err := decode(rec.Value)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable companion record", "key", rec.Key, "error", err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Remove deletes the descriptor for udid. Removing an unknown UDID is an error.
func (r *Registry) Remove(ctx context.Context, udid string) (err error) {
	op, ctx := observability.StartOperation(ctx, r.metrics, "companion.remove")
	defer func() { op.End(err) }()

	if _, err := r.Get(ctx, udid); err != nil {
		return err
	}
	return r.backend.Delete(ctx, udid)
}

// Resolve returns the companion for udid. An empty udid selects the only
// registered companion, and fails if there are none or several.
func (r *Registry) Resolve(ctx context.Context, udid string) (Descriptor, error) {
	if udid != "" {
		return r.Get(ctx, udid)
	}
	all, err := r.List(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	switch len(all) {
	case 0:
		return Descriptor{}, fmt.Errorf("%w: no companions registered", ErrNotFound)
	case 1:
		return all[0], nil
	default:
		return Descriptor{}, idberrors.Newf(idberrors.KindInvalidArgument, "%d companions registered, pass --udid to pick one", len(all))
	}
}

// Close releases the backend.
func (r *Registry) Close() error {
	return r.backend.Close()
}

func decode(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("decode companion: %w", err)
	}
	return d, nil
}
