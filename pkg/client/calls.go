package client

import (
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/emptypb"

	idbv1 "github.com/gezibash/idbridge/api/idb/v1"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// App describes one installed application.
type App struct {
	BundleID      string   `json:"bundle_id" yaml:"bundle_id"`
	Name          string   `json:"name" yaml:"name"`
	Architectures []string `json:"architectures,omitempty" yaml:"architectures,omitempty"`
	InstallType   string   `json:"install_type" yaml:"install_type"`
	ProcessState  string   `json:"process_state" yaml:"process_state"`
	Debuggable    bool     `json:"debuggable" yaml:"debuggable"`
}

var processStates = map[idbv1.ProcessState]string{
	idbv1.ProcessStateUnknown:    "unknown",
	idbv1.ProcessStateNotRunning: "not_running",
	idbv1.ProcessStateRunning:    "running",
}

// ListApps returns the installed applications ordered by bundle id.
func (c *Client) ListApps(ctx context.Context, withProcessState bool) (_ []App, err error) {
	op, ctx := c.start(ctx, idbv1.MethodListApps)
	defer func() { op.End(err) }()

	resp, err := c.stub.ListApps(ctx, &idbv1.ListAppsRequest{SuppressProcessState: !withProcessState})
	if err != nil {
		return nil, translate(err)
	}
	apps := make([]App, 0, len(resp.Apps))
	for _, a := range resp.Apps {
		if a == nil {
			continue
		}
		apps = append(apps, App{
			BundleID:      a.BundleID,
			Name:          a.Name,
			Architectures: a.Architectures,
			InstallType:   a.InstallType,
			ProcessState:  processStates[a.ProcessState],
			Debuggable:    a.Debuggable,
		})
	}
	slices.SortFunc(apps, func(a, b App) int { return strings.Compare(a.BundleID, b.BundleID) })
	return apps, nil
}

// Terminate stops the running application.
func (c *Client) Terminate(ctx context.Context, bundleID string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodTerminate, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()
	_, err = c.stub.Terminate(ctx, &idbv1.BundleRequest{BundleID: bundleID})
	return translate(err)
}

// Uninstall removes the application.
func (c *Client) Uninstall(ctx context.Context, bundleID string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodUninstall, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()
	_, err = c.stub.Uninstall(ctx, &idbv1.BundleRequest{BundleID: bundleID})
	return translate(err)
}

// Focus brings the simulator window to the front.
func (c *Client) Focus(ctx context.Context) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodFocus)
	defer func() { op.End(err) }()
	_, err = c.stub.Focus(ctx, &emptypb.Empty{})
	return translate(err)
}

// OpenURL opens url on the device.
func (c *Client) OpenURL(ctx context.Context, url string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodOpenURL)
	defer func() { op.End(err) }()
	_, err = c.stub.OpenURL(ctx, &idbv1.OpenURLRequest{URL: url})
	return translate(err)
}

var permissions = map[string]idbv1.Permission{
	"photos":   idbv1.PermissionPhotos,
	"camera":   idbv1.PermissionCamera,
	"contacts": idbv1.PermissionContacts,
}

// PermissionNames returns the names Approve accepts.
func PermissionNames() []string {
	names := make([]string, 0, len(permissions))
	for n := range permissions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Approve grants the named permissions to bundleID.
func (c *Client) Approve(ctx context.Context, bundleID string, names ...string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodApprove, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()

	req := &idbv1.ApproveRequest{BundleID: bundleID}
	for _, n := range names {
		p, ok := permissions[strings.ToLower(n)]
		if !ok {
			return idberrors.Newf(idberrors.KindInvalidArgument, "unknown permission %q (valid: %s)", n, strings.Join(PermissionNames(), ", "))
		}
		req.Permissions = append(req.Permissions, p)
	}
	_, err = c.stub.Approve(ctx, req)
	return translate(err)
}

// ClearKeychain wipes the device keychain.
func (c *Client) ClearKeychain(ctx context.Context) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodClearKeychain)
	defer func() { op.End(err) }()
	_, err = c.stub.ClearKeychain(ctx, &emptypb.Empty{})
	return translate(err)
}

// Ls lists path inside the container of bundleID.
func (c *Client) Ls(ctx context.Context, bundleID, path string) (_ []string, err error) {
	op, ctx := c.start(ctx, idbv1.MethodLs, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()

	resp, err := c.stub.Ls(ctx, &idbv1.PathRequest{BundleID: bundleID, Path: path})
	if err != nil {
		return nil, translate(err)
	}
	files := make([]string, 0, len(resp.Files))
	for _, f := range resp.Files {
		if f != nil {
			files = append(files, f.Path)
		}
	}
	return files, nil
}

func (c *Client) Mkdir(ctx context.Context, bundleID, path string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodMkdir, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()
	_, err = c.stub.Mkdir(ctx, &idbv1.PathRequest{BundleID: bundleID, Path: path})
	return translate(err)
}

func (c *Client) Rm(ctx context.Context, bundleID string, paths ...string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodRm, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()
	_, err = c.stub.Rm(ctx, &idbv1.RmRequest{BundleID: bundleID, Paths: paths})
	return translate(err)
}

// Mv moves srcPaths into dstPath inside the container.
func (c *Client) Mv(ctx context.Context, bundleID string, srcPaths []string, dstPath string) (err error) {
	op, ctx := c.start(ctx, idbv1.MethodMv, attribute.String("idb.bundle_id", bundleID))
	defer func() { op.End(err) }()
	_, err = c.stub.Mv(ctx, &idbv1.MvRequest{BundleID: bundleID, SrcPaths: srcPaths, DstPath: dstPath})
	return translate(err)
}
