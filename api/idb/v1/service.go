// Package idbv1 holds the CompanionService wire messages and gRPC bindings.
//
// Messages are written by hand against the companion's protobuf schema and
// encoded with protowire, so no code generation step is needed. Both the
// client stub and the server ServiceDesc are derived from Methods.
package idbv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "idb.CompanionService"

// Method describes one CompanionService RPC.
type Method struct {
	Name          string
	ClientStreams bool
	ServerStreams bool

	unary  grpc.MethodHandler
	stream grpc.StreamHandler
}

// FullName returns the gRPC method path.
func (m Method) FullName() string { return "/" + ServiceName + "/" + m.Name }

// Streaming reports whether the call is a stream in either direction.
func (m Method) Streaming() bool { return m.ClientStreams || m.ServerStreams }

// Method names.
const (
	MethodInstall        = "install"
	MethodPush           = "push"
	MethodPull           = "pull"
	MethodAddMedia       = "add_media"
	MethodContactsUpdate = "contacts_update"
	MethodHID            = "hid"
	MethodListApps       = "list_apps"
	MethodTerminate      = "terminate"
	MethodUninstall      = "uninstall"
	MethodFocus          = "focus"
	MethodOpenURL        = "open_url"
	MethodApprove        = "approve"
	MethodClearKeychain  = "clear_keychain"
	MethodLs             = "ls"
	MethodMkdir          = "mkdir"
	MethodRm             = "rm"
	MethodMv             = "mv"
)

// Methods is the operation table of CompanionService.
var Methods = []Method{
	{Name: MethodInstall, ClientStreams: true, ServerStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		return srv.(CompanionServiceServer).Install(&grpc.GenericServerStream[InstallRequest, InstallResponse]{ServerStream: s})
	}},
	{Name: MethodPush, ClientStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		return srv.(CompanionServiceServer).Push(&grpc.GenericServerStream[PushRequest, PushResponse]{ServerStream: s})
	}},
	{Name: MethodPull, ServerStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		in := new(PullRequest)
		if err := s.RecvMsg(in); err != nil {
			return err
		}
		return srv.(CompanionServiceServer).Pull(in, &grpc.GenericServerStream[PullRequest, PullResponse]{ServerStream: s})
	}},
	{Name: MethodAddMedia, ClientStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		return srv.(CompanionServiceServer).AddMedia(&grpc.GenericServerStream[AddMediaRequest, AddMediaResponse]{ServerStream: s})
	}},
	{Name: MethodContactsUpdate, ClientStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		return srv.(CompanionServiceServer).ContactsUpdate(&grpc.GenericServerStream[ContactsUpdateRequest, ContactsUpdateResponse]{ServerStream: s})
	}},
	{Name: MethodHID, ClientStreams: true, stream: func(srv any, s grpc.ServerStream) error {
		return srv.(CompanionServiceServer).HID(&grpc.GenericServerStream[HIDEvent, HIDResponse]{ServerStream: s})
	}},
	{Name: MethodListApps, unary: unaryHandler(MethodListApps, CompanionServiceServer.ListApps)},
	{Name: MethodTerminate, unary: unaryHandler(MethodTerminate, CompanionServiceServer.Terminate)},
	{Name: MethodUninstall, unary: unaryHandler(MethodUninstall, CompanionServiceServer.Uninstall)},
	{Name: MethodFocus, unary: unaryHandler(MethodFocus, CompanionServiceServer.Focus)},
	{Name: MethodOpenURL, unary: unaryHandler(MethodOpenURL, CompanionServiceServer.OpenURL)},
	{Name: MethodApprove, unary: unaryHandler(MethodApprove, CompanionServiceServer.Approve)},
	{Name: MethodClearKeychain, unary: unaryHandler(MethodClearKeychain, CompanionServiceServer.ClearKeychain)},
	{Name: MethodLs, unary: unaryHandler(MethodLs, CompanionServiceServer.Ls)},
	{Name: MethodMkdir, unary: unaryHandler(MethodMkdir, CompanionServiceServer.Mkdir)},
	{Name: MethodRm, unary: unaryHandler(MethodRm, CompanionServiceServer.Rm)},
	{Name: MethodMv, unary: unaryHandler(MethodMv, CompanionServiceServer.Mv)},
}

// Lookup returns the table entry for name.
func Lookup(name string) (Method, bool) {
	for _, m := range Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// CompanionServiceServer is the server API for CompanionService.
type CompanionServiceServer interface {
	Install(grpc.BidiStreamingServer[InstallRequest, InstallResponse]) error
	Push(grpc.ClientStreamingServer[PushRequest, PushResponse]) error
	Pull(*PullRequest, grpc.ServerStreamingServer[PullResponse]) error
	AddMedia(grpc.ClientStreamingServer[AddMediaRequest, AddMediaResponse]) error
	ContactsUpdate(grpc.ClientStreamingServer[ContactsUpdateRequest, ContactsUpdateResponse]) error
	HID(grpc.ClientStreamingServer[HIDEvent, HIDResponse]) error

	ListApps(context.Context, *ListAppsRequest) (*ListAppsResponse, error)
	Terminate(context.Context, *BundleRequest) (*emptypb.Empty, error)
	Uninstall(context.Context, *BundleRequest) (*emptypb.Empty, error)
	Focus(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	OpenURL(context.Context, *OpenURLRequest) (*emptypb.Empty, error)
	Approve(context.Context, *ApproveRequest) (*emptypb.Empty, error)
	ClearKeychain(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Ls(context.Context, *PathRequest) (*LsResponse, error)
	Mkdir(context.Context, *PathRequest) (*emptypb.Empty, error)
	Rm(context.Context, *RmRequest) (*emptypb.Empty, error)
	Mv(context.Context, *MvRequest) (*emptypb.Empty, error)
}

// UnimplementedCompanionServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedCompanionServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedCompanionServiceServer) Install(grpc.BidiStreamingServer[InstallRequest, InstallResponse]) error {
	return unimplemented(MethodInstall)
}
func (UnimplementedCompanionServiceServer) Push(grpc.ClientStreamingServer[PushRequest, PushResponse]) error {
	return unimplemented(MethodPush)
}
func (UnimplementedCompanionServiceServer) Pull(*PullRequest, grpc.ServerStreamingServer[PullResponse]) error {
	return unimplemented(MethodPull)
}
func (UnimplementedCompanionServiceServer) AddMedia(grpc.ClientStreamingServer[AddMediaRequest, AddMediaResponse]) error {
	return unimplemented(MethodAddMedia)
}
func (UnimplementedCompanionServiceServer) ContactsUpdate(grpc.ClientStreamingServer[ContactsUpdateRequest, ContactsUpdateResponse]) error {
	return unimplemented(MethodContactsUpdate)
}
func (UnimplementedCompanionServiceServer) HID(grpc.ClientStreamingServer[HIDEvent, HIDResponse]) error {
	return unimplemented(MethodHID)
}
func (UnimplementedCompanionServiceServer) ListApps(context.Context, *ListAppsRequest) (*ListAppsResponse, error) {
	return nil, unimplemented(MethodListApps)
}
func (UnimplementedCompanionServiceServer) Terminate(context.Context, *BundleRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodTerminate)
}
func (UnimplementedCompanionServiceServer) Uninstall(context.Context, *BundleRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodUninstall)
}
func (UnimplementedCompanionServiceServer) Focus(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodFocus)
}
func (UnimplementedCompanionServiceServer) OpenURL(context.Context, *OpenURLRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodOpenURL)
}
func (UnimplementedCompanionServiceServer) Approve(context.Context, *ApproveRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodApprove)
}
func (UnimplementedCompanionServiceServer) ClearKeychain(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodClearKeychain)
}
func (UnimplementedCompanionServiceServer) Ls(context.Context, *PathRequest) (*LsResponse, error) {
	return nil, unimplemented(MethodLs)
}
func (UnimplementedCompanionServiceServer) Mkdir(context.Context, *PathRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodMkdir)
}
func (UnimplementedCompanionServiceServer) Rm(context.Context, *RmRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodRm)
}
func (UnimplementedCompanionServiceServer) Mv(context.Context, *MvRequest) (*emptypb.Empty, error) {
	return nil, unimplemented(MethodMv)
}

func unaryHandler[Req, Resp any](name string, call func(CompanionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(CompanionServiceServer)
		handler := func(ctx context.Context, req any) (any, error) {
			out, err := call(s, ctx, req.(*Req))
			if err != nil {
				return nil, err
			}
			return out, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for CompanionService.
var ServiceDesc = buildServiceDesc()

func buildServiceDesc() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*CompanionServiceServer)(nil),
		Metadata:    "idb.proto",
	}
	for _, m := range Methods {
		if m.Streaming() {
			desc.Streams = append(desc.Streams, grpc.StreamDesc{
				StreamName:    m.Name,
				Handler:       m.stream,
				ClientStreams: m.ClientStreams,
				ServerStreams: m.ServerStreams,
			})
			continue
		}
		desc.Methods = append(desc.Methods, grpc.MethodDesc{MethodName: m.Name, Handler: m.unary})
	}
	return desc
}

// RegisterCompanionServiceServer registers srv on s. The server must be
// created with grpc.ForceServerCodec(Codec{}).
func RegisterCompanionServiceServer(s grpc.ServiceRegistrar, srv CompanionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
