package idbv1

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// CompanionServiceClient is the client API for CompanionService. Streaming
// calls return the raw generic stream so callers control Send, CloseSend and
// Recv themselves.
type CompanionServiceClient interface {
	Install(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[InstallRequest, InstallResponse], error)
	Push(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[PushRequest, PushResponse], error)
	Pull(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[PullRequest, PullResponse], error)
	AddMedia(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[AddMediaRequest, AddMediaResponse], error)
	ContactsUpdate(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[ContactsUpdateRequest, ContactsUpdateResponse], error)
	HID(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[HIDEvent, HIDResponse], error)

	ListApps(ctx context.Context, in *ListAppsRequest, opts ...grpc.CallOption) (*ListAppsResponse, error)
	Terminate(ctx context.Context, in *BundleRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Uninstall(ctx context.Context, in *BundleRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Focus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	OpenURL(ctx context.Context, in *OpenURLRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Approve(ctx context.Context, in *ApproveRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ClearKeychain(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Ls(ctx context.Context, in *PathRequest, opts ...grpc.CallOption) (*LsResponse, error)
	Mkdir(ctx context.Context, in *PathRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Rm(ctx context.Context, in *RmRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Mv(ctx context.Context, in *MvRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type companionServiceClient struct{ cc grpc.ClientConnInterface }

func NewCompanionServiceClient(cc grpc.ClientConnInterface) CompanionServiceClient {
	return &companionServiceClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
}

func newStream[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, opts []grpc.CallOption) (*grpc.GenericClientStream[Req, Resp], error) {
	m, ok := Lookup(name)
	if !ok || !m.Streaming() {
		return nil, fmt.Errorf("idbv1: %s is not a streaming method", name)
	}
	desc := &grpc.StreamDesc{StreamName: m.Name, ClientStreams: m.ClientStreams, ServerStreams: m.ServerStreams}
	s, err := cc.NewStream(ctx, desc, m.FullName(), callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[Req, Resp]{ClientStream: s}, nil
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(name), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *companionServiceClient) Install(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[InstallRequest, InstallResponse], error) {
	return newStream[InstallRequest, InstallResponse](ctx, c.cc, MethodInstall, opts)
}

func (c *companionServiceClient) Push(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[PushRequest, PushResponse], error) {
	return newStream[PushRequest, PushResponse](ctx, c.cc, MethodPush, opts)
}

func (c *companionServiceClient) Pull(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[PullRequest, PullResponse], error) {
	return newStream[PullRequest, PullResponse](ctx, c.cc, MethodPull, opts)
}

func (c *companionServiceClient) AddMedia(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[AddMediaRequest, AddMediaResponse], error) {
	return newStream[AddMediaRequest, AddMediaResponse](ctx, c.cc, MethodAddMedia, opts)
}

func (c *companionServiceClient) ContactsUpdate(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[ContactsUpdateRequest, ContactsUpdateResponse], error) {
	return newStream[ContactsUpdateRequest, ContactsUpdateResponse](ctx, c.cc, MethodContactsUpdate, opts)
}

func (c *companionServiceClient) HID(ctx context.Context, opts ...grpc.CallOption) (*grpc.GenericClientStream[HIDEvent, HIDResponse], error) {
	return newStream[HIDEvent, HIDResponse](ctx, c.cc, MethodHID, opts)
}

func (c *companionServiceClient) ListApps(ctx context.Context, in *ListAppsRequest, opts ...grpc.CallOption) (*ListAppsResponse, error) {
	return invoke[ListAppsRequest, ListAppsResponse](ctx, c.cc, MethodListApps, in, opts)
}

func (c *companionServiceClient) Terminate(ctx context.Context, in *BundleRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[BundleRequest, emptypb.Empty](ctx, c.cc, MethodTerminate, in, opts)
}

func (c *companionServiceClient) Uninstall(ctx context.Context, in *BundleRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[BundleRequest, emptypb.Empty](ctx, c.cc, MethodUninstall, in, opts)
}

func (c *companionServiceClient) Focus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, MethodFocus, in, opts)
}

func (c *companionServiceClient) OpenURL(ctx context.Context, in *OpenURLRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[OpenURLRequest, emptypb.Empty](ctx, c.cc, MethodOpenURL, in, opts)
}

func (c *companionServiceClient) Approve(ctx context.Context, in *ApproveRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[ApproveRequest, emptypb.Empty](ctx, c.cc, MethodApprove, in, opts)
}

func (c *companionServiceClient) ClearKeychain(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty, emptypb.Empty](ctx, c.cc, MethodClearKeychain, in, opts)
}

func (c *companionServiceClient) Ls(ctx context.Context, in *PathRequest, opts ...grpc.CallOption) (*LsResponse, error) {
	return invoke[PathRequest, LsResponse](ctx, c.cc, MethodLs, in, opts)
}

func (c *companionServiceClient) Mkdir(ctx context.Context, in *PathRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[PathRequest, emptypb.Empty](ctx, c.cc, MethodMkdir, in, opts)
}

func (c *companionServiceClient) Rm(ctx context.Context, in *RmRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[RmRequest, emptypb.Empty](ctx, c.cc, MethodRm, in, opts)
}

func (c *companionServiceClient) Mv(ctx context.Context, in *MvRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[MvRequest, emptypb.Empty](ctx, c.cc, MethodMv, in, opts)
}
