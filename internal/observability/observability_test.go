package observability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"

	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// --- Shutdown Coordinator ---

func TestShutdownCoordinatorLIFO(t *testing.T) {
	var order []int
	sc := &ShutdownCoordinator{}

	for i := 1; i <= 3; i++ {
		sc.Register(fmt.Sprintf("h%d", i), func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	if err := sc.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Fatalf("expected LIFO [3,2,1], got %v", order)
	}
}

func TestShutdownCoordinatorRunsOnce(t *testing.T) {
	calls := 0
	sc := &ShutdownCoordinator{}
	sc.Register("h", func(context.Context) error {
		calls++
		return nil
	})
	_ = sc.Shutdown(context.Background())
	_ = sc.Shutdown(context.Background())
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestShutdownCoordinatorError(t *testing.T) {
	boom := errors.New("fail")
	var ran int
	sc := &ShutdownCoordinator{}
	sc.Register("first", func(context.Context) error { ran++; return nil })
	sc.Register("bad", func(context.Context) error { ran++; return boom })
	sc.Register("third", func(context.Context) error { ran++; return nil })

	err := sc.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Fatalf("error should mention 'bad': %v", err)
	}
	if ran != 3 {
		t.Fatalf("expected all 3 handlers to run, got %d", ran)
	}
}

// --- Metrics ---

func TestNewMetricsRegistersFamilies(t *testing.T) {
	m := NewMetrics()
	m.OperationTotal.WithLabelValues("push", "ok").Inc()
	m.OperationDuration.WithLabelValues("push", "ok").Observe(1)
	m.TransferBytes.WithLabelValues("push", "sent").Add(10)
	m.FramesSent.WithLabelValues("push", "data").Inc()
	m.ErrorsTotal.WithLabelValues("push", "transport_failed").Inc()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"idb_operation_total",
		"idb_operation_duration_seconds",
		"idb_transfer_bytes_total",
		"idb_frames_sent_total",
		"idb_errors_total",
	} {
		if !names[want] {
			t.Errorf("missing metric family %s", want)
		}
	}
}

// --- Logging ---

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("info", "json", &buf)
	logger.Info("hello", "udid", "sim-1")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"udid":"sim-1"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}

func TestSetupLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.level); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.With("op", "push").WithGroup("frame").Debug("sent", "kind", "data")

	out := buf.String()
	if !strings.Contains(out, "DBG sent") {
		t.Fatalf("missing level and message: %q", out)
	}
	if !strings.Contains(out, "op=push") || !strings.Contains(out, "frame.kind=data") {
		t.Fatalf("missing attrs: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("non-terminal output should not be colored: %q", out)
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	h := NewPrettyHandler(io.Discard, nil)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at default level")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be enabled at default level")
	}
}

func TestPrettyHandlerWithAttrsDoesNotAlias(t *testing.T) {
	var buf bytes.Buffer
	base := NewPrettyHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("a", "1")})
	left := slog.New(base.WithAttrs([]slog.Attr{slog.String("b", "2")}))
	right := slog.New(base.WithAttrs([]slog.Attr{slog.String("c", "3")}))

	left.Info("l")
	right.Info("r")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if strings.Contains(lines[1], "b=2") {
		t.Fatalf("attrs leaked between handlers: %q", lines[1])
	}
}

// --- Operation ---

func TestStartOperationEnd(t *testing.T) {
	m := NewMetrics()
	op, _ := StartOperation(context.Background(), m, "push")
	op.Frame("archive", 100)
	op.Frame("archive", 50)
	op.Frame("metadata", 0)
	op.End(nil)

	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("push", "ok")); got != 1 {
		t.Fatalf("expected 1 ok operation, got %f", got)
	}
	if got := testutil.ToFloat64(m.FramesSent.WithLabelValues("push", "archive")); got != 2 {
		t.Fatalf("expected 2 archive frames, got %f", got)
	}
	if got := testutil.ToFloat64(m.TransferBytes.WithLabelValues("push", "sent")); got != 150 {
		t.Fatalf("expected 150 bytes sent, got %f", got)
	}
}

func TestStartOperationEndErrorByKind(t *testing.T) {
	m := NewMetrics()
	op, _ := StartOperation(context.Background(), m, "install")
	op.End(idberrors.New(idberrors.KindTransportFailed, "stream reset"))

	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("install", "error")); got != 1 {
		t.Fatalf("expected 1 error operation, got %f", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("install", idberrors.KindTransportFailed.String())); got != 1 {
		t.Fatalf("expected 1 transport error, got %f", got)
	}
}

func TestOperationNilMetrics(t *testing.T) {
	op, _ := StartOperation(context.Background(), nil, "pull")
	op.Frame("data", 10)
	op.Received(10)
	op.End(errors.New("boom"))
}

// --- Observability ---

func TestNewObservabilityNoOTLP(t *testing.T) {
	obs, err := New(context.Background(), ObsConfig{LogLevel: "info", LogFormat: "json", ServiceName: "idb"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer obs.Close(context.Background())

	if obs.Logger == nil || obs.Metrics == nil {
		t.Fatal("logger and metrics must be set")
	}
	switch obs.TracerProvider.(type) {
	case *tracenoop.TracerProvider, tracenoop.TracerProvider:
	default:
		t.Fatalf("expected noop tracer provider, got %T", obs.TracerProvider)
	}
}

func TestNewObservabilityLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "idb.log")
	obs, err := New(context.Background(), ObsConfig{LogLevel: "info", LogFormat: "json", LogFile: path}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	obs.Logger.Info("to file")
	if err := obs.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestServeMetrics(t *testing.T) {
	obs, err := New(context.Background(), ObsConfig{LogFormat: "json"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	obs.ServeMetrics(addr)
	defer obs.Close(context.Background())

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health endpoint: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

// --- gRPC Interceptors ---

type mockServerStream struct {
	grpc.ServerStream
	ctx     context.Context
	recvErr error
}

func (m *mockServerStream) Context() context.Context { return m.ctx }
func (m *mockServerStream) SendMsg(any) error        { return nil }
func (m *mockServerStream) RecvMsg(any) error        { return m.recvErr }

func TestStreamServerInterceptor(t *testing.T) {
	m := NewMetrics()
	info := &grpc.StreamServerInfo{FullMethod: "/idb.CompanionService/push"}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDKey, "req-1"))

	var seen string
	err := StreamServerInterceptor(m)(nil, &mockServerStream{ctx: ctx}, info, func(_ any, ss grpc.ServerStream) error {
		seen = RequestID(ss.Context())
		return ss.RecvMsg(nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-1" {
		t.Fatalf("request id = %q, want req-1", seen)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues(info.FullMethod, "OK")); got != 1 {
		t.Fatalf("expected 1, got %f", got)
	}
}

func TestStreamServerInterceptorError(t *testing.T) {
	m := NewMetrics()
	info := &grpc.StreamServerInfo{FullMethod: "/idb.CompanionService/install"}
	want := grpcstatus.Error(grpccodes.Internal, "disk full")

	err := StreamServerInterceptor(m)(nil, &mockServerStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error {
		return want
	})
	if err != want {
		t.Fatalf("expected handler error, got %v", err)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues(info.FullMethod, "Internal")); got != 1 {
		t.Fatalf("expected 1 Internal, got %f", got)
	}
}

func TestUnaryClientInterceptorAddsRequestID(t *testing.T) {
	m := NewMetrics()
	var md metadata.MD
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}
	if err := UnaryClientInterceptor(m)(context.Background(), "/idb.CompanionService/ls", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if ids := md.Get(RequestIDKey); len(ids) != 1 || ids[0] == "" {
		t.Fatalf("request id missing from metadata: %v", md)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("/idb.CompanionService/ls", "OK")); got != 1 {
		t.Fatalf("expected 1 OK, got %f", got)
	}
}

func TestUnaryClientInterceptorKeepsRequestID(t *testing.T) {
	var got []string
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get(RequestIDKey)
		return nil
	}
	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDKey, "fixed")
	_ = UnaryClientInterceptor(nil)(ctx, "/m", nil, nil, nil, invoker)
	if len(got) != 1 || got[0] != "fixed" {
		t.Fatalf("request id = %v, want [fixed]", got)
	}
}

type mockClientStream struct {
	grpc.ClientStream
	ctx     context.Context
	recvErr error
}

func (m *mockClientStream) Context() context.Context { return m.ctx }
func (m *mockClientStream) SendMsg(any) error        { return nil }
func (m *mockClientStream) RecvMsg(any) error        { return m.recvErr }

func TestStreamClientInterceptorFinishesOnce(t *testing.T) {
	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	desc := &grpc.StreamDesc{ClientStreams: true}
	streamer := func(ctx context.Context, _ *grpc.StreamDesc, _ *grpc.ClientConn, _ string, _ ...grpc.CallOption) (grpc.ClientStream, error) {
		return &mockClientStream{ctx: ctx}, nil
	}
	cs, err := StreamClientInterceptor(m)(ctx, desc, nil, "/idb.CompanionService/push", streamer)
	if err != nil {
		t.Fatal(err)
	}
	_ = cs.SendMsg(nil)
	if err := cs.RecvMsg(nil); err != nil {
		t.Fatal(err)
	}
	_ = cs.RecvMsg(nil)
	cancel()
	time.Sleep(10 * time.Millisecond)

	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("/idb.CompanionService/push", "OK")); got != 1 {
		t.Fatalf("expected exactly 1 OK, got %f", got)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("/idb.CompanionService/push", "Canceled")); got != 0 {
		t.Fatalf("cancel after completion recorded %f Canceled", got)
	}
}

func TestStreamClientInterceptorAbandoned(t *testing.T) {
	m := NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())

	streamer := func(ctx context.Context, _ *grpc.StreamDesc, _ *grpc.ClientConn, _ string, _ ...grpc.CallOption) (grpc.ClientStream, error) {
		return &mockClientStream{ctx: ctx}, nil
	}
	if _, err := StreamClientInterceptor(m)(ctx, &grpc.StreamDesc{ClientStreams: true}, nil, "/m", streamer); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(m.OperationTotal.WithLabelValues("/m", "Canceled")) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("abandoned stream was never recorded as Canceled")
}

func TestStreamClientInterceptorOpenError(t *testing.T) {
	m := NewMetrics()
	want := grpcstatus.Error(grpccodes.Unavailable, "no companion")
	streamer := func(context.Context, *grpc.StreamDesc, *grpc.ClientConn, string, ...grpc.CallOption) (grpc.ClientStream, error) {
		return nil, want
	}
	_, err := StreamClientInterceptor(m)(context.Background(), &grpc.StreamDesc{}, nil, "/m", streamer)
	if err != want {
		t.Fatalf("expected open error, got %v", err)
	}
	if got := testutil.ToFloat64(m.OperationTotal.WithLabelValues("/m", "Unavailable")); got != 1 {
		t.Fatalf("expected 1 Unavailable, got %f", got)
	}
}
