package transfer

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Stream is the client half of a client-streaming call.
// grpc.GenericClientStream satisfies it.
type Stream[Req, Resp any] interface {
	Send(*Req) error
	CloseSend() error
	Recv() (*Resp, error)
}

// Open starts a stream on a child of ctx and hands it to fn. The child
// context is cancelled when Open returns, whatever the outcome, which tears
// down the stream if fn left it half-finished.
func Open[S, T any](ctx context.Context, open func(context.Context) (S, error), fn func(context.Context, S) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := open(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx, s)
}

// Send writes leading frames, such as Metadata or a single reference, ahead
// of the payload.
func Send[Req, Resp any](s Stream[Req, Resp], reqs ...*Req) error {
	for _, req := range reqs {
		if err := s.Send(req); err != nil {
			return sendError(s, err)
		}
	}
	return nil
}

// Drain sends every frame of frames in order, ends the stream, then receives
// exactly one terminal response. The first send error or producer error
// aborts the call; nothing after it is sent and CloseSend is not called.
func Drain[Req, Resp any](s Stream[Req, Resp], frames iter.Seq2[*Req, error]) (*Resp, error) {
	if frames != nil {
		for req, err := range frames {
			if err != nil {
				return nil, err
			}
			if err := s.Send(req); err != nil {
				return nil, sendError(s, err)
			}
		}
	}
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	return s.Recv()
}

// sendError recovers the status behind a send that failed with io.EOF. gRPC
// reports a stream closed by the peer that way and keeps the real cause for
// the receive side.
func sendError[Req, Resp any](s Stream[Req, Resp], err error) error {
	if !errors.Is(err, io.EOF) {
		return err
	}
	if _, rerr := s.Recv(); rerr != nil && !errors.Is(rerr, io.EOF) {
		return rerr
	}
	return err
}
