// Package companiontest runs an in-process companion over bufconn and
// records every request frame it receives.
package companiontest

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	idbv1 "github.com/gezibash/idbridge/api/idb/v1"
	"github.com/gezibash/idbridge/internal/observability"
)

const bufSize = 1024 * 1024

// ErrInjected is the status returned by a stream cut short by FailAfter.
var ErrInjected = status.Error(codes.Aborted, "injected failure")

// Server is a fake CompanionService. Configure it before making calls.
type Server struct {
	idbv1.UnimplementedCompanionServiceServer

	// InstallResponse is the terminal response to every install.
	InstallResponse idbv1.InstallResponse

	// PullData is streamed back to remote pulls in PullChunkSize pieces.
	PullData      []byte
	PullChunkSize int

	Apps  []*idbv1.InstalledAppInfo
	Files []string

	mu         sync.Mutex
	requests   map[string][]any
	closed     map[string]bool
	requestIDs []string
	errs       map[string]error
	failAfter  map[string]int

	lis  *bufconn.Listener
	grpc *grpc.Server
}

// Start serves a new fake until the test ends.
func Start(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		PullChunkSize: 64 * 1024,
		requests:      make(map[string][]any),
		closed:        make(map[string]bool),
		errs:          make(map[string]error),
		failAfter:     make(map[string]int),
		lis:           bufconn.Listen(bufSize),
	}
	s.grpc = grpc.NewServer(
		grpc.ForceServerCodec(idbv1.Codec{}),
		grpc.StreamInterceptor(observability.StreamServerInterceptor(nil)),
	)
	idbv1.RegisterCompanionServiceServer(s.grpc, s)

	go func() {
		if err := s.grpc.Serve(s.lis); err != nil {
			t.Logf("companion exited: %v", err)
		}
	}()
	t.Cleanup(s.grpc.Stop)
	return s
}

// Dialer connects to the fake. Pass it with grpc.WithContextDialer.
func (s *Server) Dialer() func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, _ string) (net.Conn, error) {
		return s.lis.DialContext(ctx)
	}
}

// ClientConn returns a plaintext connection to the fake, closed when the
// test ends.
func (s *Server) ClientConn(t testing.TB, opts ...grpc.DialOption) *grpc.ClientConn {
	t.Helper()
	opts = append([]grpc.DialOption{
		grpc.WithContextDialer(s.Dialer()),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	if err != nil {
		t.Fatalf("dial companion: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SetError makes method fail with err before responding.
func (s *Server) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[method] = err
}

// FailAfter makes a client stream of method abort with ErrInjected once n
// requests have arrived.
func (s *Server) FailAfter(method string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter[method] = n
}

// Closed reports whether the last stream of method saw the client end it.
func (s *Server) Closed(method string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[method]
}

// RequestIDs returns the request ids seen on streams, in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// Requests returns the requests of type T recorded for method.
func Requests[T any](s *Server, method string) []*T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*T
	for _, r := range s.requests[method] {
		if v, ok := r.(*T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) record(method string, req any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[method] = append(s.requests[method], req)
}

func (s *Server) err(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[method]
}

func (s *Server) begin(ctx context.Context, method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed[method] = false
	s.requestIDs = append(s.requestIDs, observability.RequestID(ctx))
}

// collect reads a client stream to its end.
func collect[Req any](ctx context.Context, s *Server, method string, recv func() (*Req, error)) error {
	s.begin(ctx, method)
	s.mu.Lock()
	limit, limited := s.failAfter[method]
	s.mu.Unlock()

	for n := 0; ; {
		req, err := recv()
		if errors.Is(err, io.EOF) {
			s.mu.Lock()
			s.closed[method] = true
			s.mu.Unlock()
			return s.err(method)
		}
		if err != nil {
			return err
		}
		s.record(method, req)
		n++
		if limited && n >= limit {
			return ErrInjected
		}
	}
}

func (s *Server) Install(stream grpc.BidiStreamingServer[idbv1.InstallRequest, idbv1.InstallResponse]) error {
	if err := collect(stream.Context(), s, idbv1.MethodInstall, stream.Recv); err != nil {
		return err
	}
	resp := s.InstallResponse
	return stream.Send(&resp)
}

func (s *Server) Push(stream grpc.ClientStreamingServer[idbv1.PushRequest, idbv1.PushResponse]) error {
	if err := collect(stream.Context(), s, idbv1.MethodPush, stream.Recv); err != nil {
		return err
	}
	return stream.SendAndClose(&idbv1.PushResponse{})
}

func (s *Server) AddMedia(stream grpc.ClientStreamingServer[idbv1.AddMediaRequest, idbv1.AddMediaResponse]) error {
	if err := collect(stream.Context(), s, idbv1.MethodAddMedia, stream.Recv); err != nil {
		return err
	}
	return stream.SendAndClose(&idbv1.AddMediaResponse{})
}

func (s *Server) ContactsUpdate(stream grpc.ClientStreamingServer[idbv1.ContactsUpdateRequest, idbv1.ContactsUpdateResponse]) error {
	if err := collect(stream.Context(), s, idbv1.MethodContactsUpdate, stream.Recv); err != nil {
		return err
	}
	return stream.SendAndClose(&idbv1.ContactsUpdateResponse{})
}

func (s *Server) HID(stream grpc.ClientStreamingServer[idbv1.HIDEvent, idbv1.HIDResponse]) error {
	if err := collect(stream.Context(), s, idbv1.MethodHID, stream.Recv); err != nil {
		return err
	}
	return stream.SendAndClose(&idbv1.HIDResponse{})
}

// Pull answers a local pull with one empty response and a remote pull with
// PullData split into chunks.
func (s *Server) Pull(req *idbv1.PullRequest, stream grpc.ServerStreamingServer[idbv1.PullResponse]) error {
	s.begin(stream.Context(), idbv1.MethodPull)
	s.record(idbv1.MethodPull, req)
	if err := s.err(idbv1.MethodPull); err != nil {
		return err
	}
	if req.DstPath != "" {
		return stream.Send(&idbv1.PullResponse{})
	}
	size := max(s.PullChunkSize, 1)
	for data := s.PullData; len(data) > 0; {
		n := min(size, len(data))
		if err := stream.Send(&idbv1.PullResponse{Payload: &idbv1.Payload{Data: data[:n]}}); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func unary[Req, Resp any](s *Server, method string, req *Req, resp *Resp) (*Resp, error) {
	s.record(method, req)
	if err := s.err(method); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Server) ListApps(_ context.Context, req *idbv1.ListAppsRequest) (*idbv1.ListAppsResponse, error) {
	return unary(s, idbv1.MethodListApps, req, &idbv1.ListAppsResponse{Apps: s.Apps})
}

func (s *Server) Terminate(_ context.Context, req *idbv1.BundleRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodTerminate, req, &emptypb.Empty{})
}

func (s *Server) Uninstall(_ context.Context, req *idbv1.BundleRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodUninstall, req, &emptypb.Empty{})
}

func (s *Server) Focus(_ context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodFocus, req, &emptypb.Empty{})
}

func (s *Server) OpenURL(_ context.Context, req *idbv1.OpenURLRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodOpenURL, req, &emptypb.Empty{})
}

func (s *Server) Approve(_ context.Context, req *idbv1.ApproveRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodApprove, req, &emptypb.Empty{})
}

func (s *Server) ClearKeychain(_ context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodClearKeychain, req, &emptypb.Empty{})
}

func (s *Server) Ls(_ context.Context, req *idbv1.PathRequest) (*idbv1.LsResponse, error) {
	resp := &idbv1.LsResponse{}
	for _, f := range s.Files {
		resp.Files = append(resp.Files, &idbv1.FileInfo{Path: f})
	}
	return unary(s, idbv1.MethodLs, req, resp)
}

func (s *Server) Mkdir(_ context.Context, req *idbv1.PathRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodMkdir, req, &emptypb.Empty{})
}

func (s *Server) Rm(_ context.Context, req *idbv1.RmRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodRm, req, &emptypb.Empty{})
}

func (s *Server) Mv(_ context.Context, req *idbv1.MvRequest) (*emptypb.Empty, error) {
	return unary(s, idbv1.MethodMv, req, &emptypb.Empty{})
}
