package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// Operation tracks one client call with a span, metrics and logging.
// A nil *Metrics disables the Prometheus side.
type Operation struct {
	ctx     context.Context
	span    trace.Span
	metrics *Metrics
	name    string
	start   time.Time
	logger  *slog.Logger
	frames  int64
	bytes   int64
}

const tracerName = "github.com/gezibash/idbridge"

// StartOperation begins tracking an operation. The span is named
// "idb.<name>" and resolved through the global provider at call time.
func StartOperation(ctx context.Context, m *Metrics, name string, attrs ...attribute.KeyValue) (*Operation, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "idb."+name, trace.WithAttributes(attrs...))
	logger := slog.Default().With("operation", name)
	logger.DebugContext(ctx, "operation started")

	return &Operation{
		ctx:     ctx,
		span:    span,
		metrics: m,
		name:    name,
		start:   time.Now(),
		logger:  logger,
	}, ctx
}

// Frame records one request frame of the given kind sent on the stream.
func (o *Operation) Frame(kind string, payload int) {
	o.frames++
	o.bytes += int64(payload)
	if o.metrics == nil {
		return
	}
	o.metrics.FramesSent.WithLabelValues(o.name, kind).Inc()
	if payload > 0 {
		o.metrics.TransferBytes.WithLabelValues(o.name, "sent").Add(float64(payload))
	}
}

// Strategy tags the span with the framing strategy chosen for the call.
func (o *Operation) Strategy(kind string) {
	o.span.SetAttributes(attribute.String("idb.strategy", kind))
	o.logger = o.logger.With("strategy", kind)
}

// Received records payload bytes read back from the companion.
func (o *Operation) Received(n int) {
	o.bytes += int64(n)
	if o.metrics != nil && n > 0 {
		o.metrics.TransferBytes.WithLabelValues(o.name, "received").Add(float64(n))
	}
}

// End finishes the operation, recording duration and status.
func (o *Operation) End(err error) {
	duration := time.Since(o.start).Seconds()
	status := "ok"
	o.span.SetAttributes(
		attribute.Int64("idb.frames", o.frames),
		attribute.Int64("idb.bytes", o.bytes),
	)
	if err != nil {
		status = "error"
		o.logger.ErrorContext(o.ctx, "operation failed", "error", err, "duration", duration)
	} else {
		o.logger.InfoContext(o.ctx, "operation completed", "duration", duration, "frames", o.frames, "bytes", o.bytes)
	}

	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	if o.metrics == nil {
		return
	}
	o.metrics.OperationDuration.WithLabelValues(o.name, status).Observe(duration)
	o.metrics.OperationTotal.WithLabelValues(o.name, status).Inc()
	if err != nil {
		o.metrics.ErrorsTotal.WithLabelValues(o.name, idberrors.KindOf(err).String()).Inc()
	}
}
