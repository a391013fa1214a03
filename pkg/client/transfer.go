package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"

	idbv1 "github.com/gezibash/idbridge/api/idb/v1"
	"github.com/gezibash/idbridge/internal/observability"
	"github.com/gezibash/idbridge/pkg/archive"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
	"github.com/gezibash/idbridge/pkg/transfer"
)

type (
	installStream  = grpc.GenericClientStream[idbv1.InstallRequest, idbv1.InstallResponse]
	pushStream     = grpc.GenericClientStream[idbv1.PushRequest, idbv1.PushResponse]
	pullStream     = grpc.GenericClientStream[idbv1.PullRequest, idbv1.PullResponse]
	addMediaStream = grpc.GenericClientStream[idbv1.AddMediaRequest, idbv1.AddMediaResponse]
	contactsStream = grpc.GenericClientStream[idbv1.ContactsUpdateRequest, idbv1.ContactsUpdateResponse]
)

// InstalledArtifact is what the companion reports after an install.
type InstalledArtifact struct {
	Name string
	UUID string
}

// Install sends src to the companion for installation as dst.
func (c *Client) Install(ctx context.Context, src transfer.Source, dst transfer.Destination) (_ InstalledArtifact, err error) {
	op, ctx := c.start(ctx, "install", attribute.String("idb.destination", dst.String()))
	defer func() { op.End(err) }()

	strategy, err := transfer.Select(src, c.locality())
	if err != nil {
		return InstalledArtifact{}, translate(err)
	}
	op.Strategy(strategy.Kind.String())

	resp, err := transfer.Open(ctx, func(ctx context.Context) (*installStream, error) {
		return c.stub.Install(ctx)
	}, func(_ context.Context, s *installStream) (*idbv1.InstallResponse, error) {
		d := idbv1.Destination(dst)
		if err := transfer.Send[idbv1.InstallRequest, idbv1.InstallResponse](s, &idbv1.InstallRequest{Destination: &d}); err != nil {
			return nil, err
		}
		op.Frame("metadata", 0)
		frames := transfer.Map(c.payloads(op, strategy), func(p *idbv1.Payload) *idbv1.InstallRequest {
			return &idbv1.InstallRequest{Payload: p}
		})
		return transfer.Drain[idbv1.InstallRequest, idbv1.InstallResponse](s, frames)
	})
	if err != nil {
		return InstalledArtifact{}, translate(err)
	}
	slog.InfoContext(ctx, "installed", "name", resp.Name, "uuid", resp.UUID, "destination", dst)
	return InstalledArtifact{Name: resp.Name, UUID: resp.UUID}, nil
}

// InstallApp installs an application bundle.
func (c *Client) InstallApp(ctx context.Context, src transfer.Source) (InstalledArtifact, error) {
	return c.Install(ctx, src, transfer.App)
}

// InstallXCTest installs a test bundle.
func (c *Client) InstallXCTest(ctx context.Context, src transfer.Source) (InstalledArtifact, error) {
	return c.Install(ctx, src, transfer.XCTest)
}

// InstallDylib installs a dynamic library.
func (c *Client) InstallDylib(ctx context.Context, src transfer.Source) (InstalledArtifact, error) {
	return c.Install(ctx, src, transfer.Dylib)
}

// InstallDsym installs debug symbols.
func (c *Client) InstallDsym(ctx context.Context, src transfer.Source) (InstalledArtifact, error) {
	return c.Install(ctx, src, transfer.Dsym)
}

// InstallFramework installs a framework bundle.
func (c *Client) InstallFramework(ctx context.Context, src transfer.Source) (InstalledArtifact, error) {
	return c.Install(ctx, src, transfer.Framework)
}

// Push copies srcPaths into dstPath inside the container of bundleID.
func (c *Client) Push(ctx context.Context, srcPaths []string, bundleID, dstPath string) (err error) {
	op, ctx := c.start(ctx, "push", attribute.String("idb.bundle_id", bundleID), attribute.Int("idb.sources", len(srcPaths)))
	defer func() { op.End(err) }()

	strategy, err := transfer.SelectPaths(srcPaths, c.locality())
	if err != nil {
		return translate(err)
	}
	op.Strategy(strategy.Kind.String())

	_, err = transfer.Open(ctx, func(ctx context.Context) (*pushStream, error) {
		return c.stub.Push(ctx)
	}, func(_ context.Context, s *pushStream) (*idbv1.PushResponse, error) {
		header := &idbv1.PushRequest{Inner: &idbv1.PushInner{BundleID: bundleID, DstPath: dstPath}}
		if err := transfer.Send[idbv1.PushRequest, idbv1.PushResponse](s, header); err != nil {
			return nil, err
		}
		op.Frame("metadata", 0)
		frames := transfer.Map(c.payloads(op, strategy), func(p *idbv1.Payload) *idbv1.PushRequest {
			return &idbv1.PushRequest{Payload: p}
		})
		return transfer.Drain[idbv1.PushRequest, idbv1.PushResponse](s, frames)
	})
	return translate(err)
}

// Pull copies srcPath out of the container of bundleID. A local companion
// writes dstPath itself; a remote one streams an archive back, which is
// unpacked into the directory dstPath. It returns dstPath.
func (c *Client) Pull(ctx context.Context, bundleID, srcPath, dstPath string) (_ string, err error) {
	op, ctx := c.start(ctx, "pull", attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()

	if dstPath == "" {
		return "", idberrors.New(idberrors.KindInvalidArgument, "pull destination is empty")
	}
	local := c.locality() == transfer.Local
	req := &idbv1.PullRequest{BundleID: bundleID, SrcPath: srcPath}
	if local {
		abs, err := filepath.Abs(dstPath)
		if err != nil {
			return "", idberrors.Wrap(idberrors.KindInvalidArgument, err, "resolve "+dstPath)
		}
		req.DstPath = abs
	}

	_, err = transfer.Open(ctx, func(ctx context.Context) (*pullStream, error) {
		return c.stub.Pull(ctx)
	}, func(_ context.Context, s *pullStream) (struct{}, error) {
		if err := transfer.Send[idbv1.PullRequest, idbv1.PullResponse](s, req); err != nil {
			return struct{}{}, err
		}
		op.Frame("metadata", 0)
		if err := s.CloseSend(); err != nil {
			return struct{}{}, err
		}
		if local {
			_, err := s.Recv()
			return struct{}{}, err
		}
		chunks := transfer.Receive(s.Recv, func(r *idbv1.PullResponse) []byte {
			if r.Payload == nil {
				return nil
			}
			op.Received(len(r.Payload.Data))
			return r.Payload.Data
		})
		err := archive.Unpack(chunks, dstPath)
		if errors.Is(err, archive.ErrDestination) {
			// Pulled data that cannot be written locally was never delivered.
			return struct{}{}, idberrors.Wrap(idberrors.KindTransportFailed, err, "write "+dstPath)
		}
		return struct{}{}, err
	})
	if err != nil {
		return "", translate(err)
	}
	slog.InfoContext(ctx, "pulled", "src", srcPath, "dst", dstPath)
	return dstPath, nil
}

// AddMedia imports photos and videos into the device's media library.
func (c *Client) AddMedia(ctx context.Context, paths []string) (err error) {
	op, ctx := c.start(ctx, "add_media", attribute.Int("idb.sources", len(paths)))
	defer func() { op.End(err) }()

	strategy, err := transfer.SelectPaths(paths, c.locality())
	if err != nil {
		return translate(err)
	}
	op.Strategy(strategy.Kind.String())

	opts := c.options()
	opts.PlaceInSubfolders = true
	_, err = transfer.Open(ctx, func(ctx context.Context) (*addMediaStream, error) {
		return c.stub.AddMedia(ctx)
	}, func(_ context.Context, s *addMediaStream) (*idbv1.AddMediaResponse, error) {
		frames := transfer.Map(c.payloadsWith(op, strategy, opts), func(p *idbv1.Payload) *idbv1.AddMediaRequest {
			return &idbv1.AddMediaRequest{Payload: p}
		})
		return transfer.Drain[idbv1.AddMediaRequest, idbv1.AddMediaResponse](s, frames)
	})
	return translate(err)
}

// ContactsUpdate replaces the device's contacts with the database at path.
// The database is always sent as an archive, whatever the locality.
func (c *Client) ContactsUpdate(ctx context.Context, path string) (err error) {
	op, ctx := c.start(ctx, "contacts_update")
	defer func() { op.End(err) }()

	strategy, err := transfer.SelectPaths([]string{path}, transfer.Remote)
	if err != nil {
		return translate(err)
	}
	op.Strategy(strategy.Kind.String())

	_, err = transfer.Open(ctx, func(ctx context.Context) (*contactsStream, error) {
		return c.stub.ContactsUpdate(ctx)
	}, func(_ context.Context, s *contactsStream) (*idbv1.ContactsUpdateResponse, error) {
		frames := transfer.Map(c.payloads(op, strategy), func(p *idbv1.Payload) *idbv1.ContactsUpdateRequest {
			return &idbv1.ContactsUpdateRequest{Payload: p}
		})
		return transfer.Drain[idbv1.ContactsUpdateRequest, idbv1.ContactsUpdateResponse](s, frames)
	})
	return translate(err)
}

func (c *Client) payloads(op *observability.Operation, s transfer.Strategy) iter.Seq2[*idbv1.Payload, error] {
	return c.payloadsWith(op, s, c.options())
}

// payloadsWith converts strategy frames to wire payloads, counting each one
// on op as it goes out.
func (c *Client) payloadsWith(op *observability.Operation, s transfer.Strategy, opts transfer.Options) iter.Seq2[*idbv1.Payload, error] {
	return func(yield func(*idbv1.Payload, error) bool) {
		for f, err := range s.Frames(opts) {
			if err != nil {
				yield(nil, err)
				return
			}
			var p *idbv1.Payload
			switch v := f.(type) {
			case transfer.DataChunk:
				p = &idbv1.Payload{Data: []byte(v)}
				op.Frame("data", len(v))
			case transfer.PathRef:
				p = &idbv1.Payload{FilePath: string(v)}
				op.Frame("path", 0)
			case transfer.URLRef:
				p = &idbv1.Payload{URL: string(v)}
				op.Frame("url", 0)
			default:
				yield(nil, fmt.Errorf("unexpected payload frame %T", f))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}
