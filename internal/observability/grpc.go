package observability

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey is the metadata key carrying the per-call request id.
const RequestIDKey = "x-idb-request-id"

// UnaryClientInterceptor traces one-shot calls and tags them with a request id.
func UnaryClientInterceptor(m *Metrics) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := otel.Tracer("grpc").Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		start := time.Now()
		err := invoker(injectOutgoing(ctx), method, req, reply, cc, opts...)
		finishRPC(span, m, method, start, err)
		return err
	}
}

// StreamClientInterceptor traces streaming calls. The span ends when the
// stream is torn down: on the final Recv, or on an error from either side.
func StreamClientInterceptor(m *Metrics) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ctx, span := otel.Tracer("grpc").Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		start := time.Now()

		cs, err := streamer(injectOutgoing(ctx), desc, cc, method, opts...)
		if err != nil {
			finishRPC(span, m, method, start, err)
			span.End()
			return nil, err
		}
		s := &clientStream{ClientStream: cs, span: span, metrics: m, method: method, start: start, serverStreams: desc.ServerStreams}
		go func() {
			<-cs.Context().Done()
			if err := ctx.Err(); err != nil {
				s.finish(status.FromContextError(err).Err())
			}
		}()
		return s, nil
	}
}

func injectOutgoing(ctx context.Context) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if len(md.Get(RequestIDKey)) == 0 {
		md.Set(RequestIDKey, uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(md))
	return metadata.NewOutgoingContext(ctx, md)
}

func finishRPC(span trace.Span, m *Metrics, method string, start time.Time, err error) {
	code := status.Code(err).String()
	span.SetAttributes(attribute.String("rpc.grpc.status_code", code))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(method, code).Observe(time.Since(start).Seconds())
	m.OperationTotal.WithLabelValues(method, code).Inc()
}

type clientStream struct {
	grpc.ClientStream
	span          trace.Span
	metrics       *Metrics
	method        string
	start         time.Time
	serverStreams bool
	sent          atomic.Int64
	recv          atomic.Int64
	done          atomic.Bool
}

func (s *clientStream) SendMsg(m any) error {
	err := s.ClientStream.SendMsg(m)
	if err == nil {
		s.sent.Add(1)
	} else if !errors.Is(err, io.EOF) {
		s.finish(err)
	}
	return err
}

func (s *clientStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	switch {
	case err == nil:
		s.recv.Add(1)
		if !s.serverStreams {
			s.finish(nil)
		}
	case errors.Is(err, io.EOF):
		s.finish(nil)
	default:
		s.finish(err)
	}
	return err
}

func (s *clientStream) finish(err error) {
	if s.done.Swap(true) {
		return
	}
	s.span.SetAttributes(
		attribute.Int64("rpc.messages_sent", s.sent.Load()),
		attribute.Int64("rpc.messages_received", s.recv.Load()),
	)
	finishRPC(s.span, s.metrics, s.method, s.start, err)
	s.span.End()
}

// StreamServerInterceptor returns a gRPC stream interceptor that creates spans and tracks messages.
func StreamServerInterceptor(m *Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := extractTraceContext(ss.Context())
		ctx, span := otel.Tracer("grpc").Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		start := time.Now()
		wrapped := &serverStream{ServerStream: ss, ctx: ctx}
		err := handler(srv, wrapped)

		span.SetAttributes(
			attribute.Int64("rpc.messages_sent", wrapped.sent.Load()),
			attribute.Int64("rpc.messages_received", wrapped.recv.Load()),
		)
		finishRPC(span, m, info.FullMethod, start, err)
		return err
	}
}

// RequestID returns the request id the client attached to an incoming call.
func RequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(RequestIDKey); len(v) > 0 {
		return v[0]
	}
	return ""
}

func extractTraceContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(md))
}

type serverStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent atomic.Int64
	recv atomic.Int64
}

func (w *serverStream) Context() context.Context { return w.ctx }

func (w *serverStream) SendMsg(m any) error {
	err := w.ServerStream.SendMsg(m)
	if err == nil {
		w.sent.Add(1)
	}
	return err
}

func (w *serverStream) RecvMsg(m any) error {
	err := w.ServerStream.RecvMsg(m)
	if err == nil {
		w.recv.Add(1)
	}
	return err
}
