package idbv1

import "google.golang.org/protobuf/encoding/protowire"

type ListAppsRequest struct {
	SuppressProcessState bool
}

func (m *ListAppsRequest) appendWire(b []byte) []byte {
	return appendBool(b, 1, m.SuppressProcessState)
}

func (m *ListAppsRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.SuppressProcessState = d.bool()
			continue
		}
		d.skip()
	}
	return d.err
}

type ProcessState int32

const (
	ProcessStateUnknown ProcessState = iota
	ProcessStateNotRunning
	ProcessStateRunning
)

type InstalledAppInfo struct {
	BundleID      string
	Name          string
	Architectures []string
	InstallType   string
	ProcessState  ProcessState
	Debuggable    bool
}

func (m *InstalledAppInfo) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	b = appendString(b, 2, m.Name)
	for _, a := range m.Architectures {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, a)
	}
	b = appendString(b, 4, m.InstallType)
	b = appendVarint(b, 5, uint64(m.ProcessState))
	return appendBool(b, 6, m.Debuggable)
}

func (m *InstalledAppInfo) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.Name = d.string()
		case 3:
			m.Architectures = append(m.Architectures, d.string())
		case 4:
			m.InstallType = d.string()
		case 5:
			m.ProcessState = ProcessState(d.enum())
		case 6:
			m.Debuggable = d.bool()
		default:
			d.skip()
		}
	}
	return d.err
}

type ListAppsResponse struct {
	Apps []*InstalledAppInfo
}

func (m *ListAppsResponse) appendWire(b []byte) []byte {
	for _, app := range m.Apps {
		b = appendMessage(b, 1, app)
	}
	return b
}

func (m *ListAppsResponse) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			app := new(InstalledAppInfo)
			d.message(app)
			m.Apps = append(m.Apps, app)
			continue
		}
		d.skip()
	}
	return d.err
}

// BundleRequest addresses one installed bundle. It is the request shape of
// both terminate and uninstall.
type BundleRequest struct {
	BundleID string
}

func (m *BundleRequest) appendWire(b []byte) []byte { return appendString(b, 1, m.BundleID) }

func (m *BundleRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.BundleID = d.string()
			continue
		}
		d.skip()
	}
	return d.err
}

type OpenURLRequest struct {
	URL string
}

func (m *OpenURLRequest) appendWire(b []byte) []byte { return appendString(b, 1, m.URL) }

func (m *OpenURLRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.URL = d.string()
			continue
		}
		d.skip()
	}
	return d.err
}

type Permission int32

const (
	PermissionPhotos Permission = iota
	PermissionCamera
	PermissionContacts
)

type ApproveRequest struct {
	BundleID    string
	Permissions []Permission
}

func (m *ApproveRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	if len(m.Permissions) == 0 {
		return b
	}
	var packed []byte
	for _, p := range m.Permissions {
		packed = protowire.AppendVarint(packed, uint64(p))
	}
	return appendBytes(b, 2, packed)
}

func (m *ApproveRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			for _, v := range d.enums(nil) {
				m.Permissions = append(m.Permissions, Permission(v))
			}
		default:
			d.skip()
		}
	}
	return d.err
}

// PathRequest names one path inside a bundle container. It is the request
// shape of ls and mkdir.
type PathRequest struct {
	BundleID string
	Path     string
}

func (m *PathRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	return appendString(b, 2, m.Path)
}

func (m *PathRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.Path = d.string()
		default:
			d.skip()
		}
	}
	return d.err
}

type FileInfo struct {
	Path string
}

func (m *FileInfo) appendWire(b []byte) []byte { return appendString(b, 1, m.Path) }

func (m *FileInfo) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Path = d.string()
			continue
		}
		d.skip()
	}
	return d.err
}

type LsResponse struct {
	Files []*FileInfo
}

func (m *LsResponse) appendWire(b []byte) []byte {
	for _, f := range m.Files {
		b = appendMessage(b, 1, f)
	}
	return b
}

func (m *LsResponse) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			f := new(FileInfo)
			d.message(f)
			m.Files = append(m.Files, f)
			continue
		}
		d.skip()
	}
	return d.err
}

type RmRequest struct {
	BundleID string
	Paths    []string
}

func (m *RmRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	for _, p := range m.Paths {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	return b
}

func (m *RmRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.Paths = append(m.Paths, d.string())
		default:
			d.skip()
		}
	}
	return d.err
}

type MvRequest struct {
	BundleID string
	SrcPaths []string
	DstPath  string
}

func (m *MvRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	for _, p := range m.SrcPaths {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	return appendString(b, 3, m.DstPath)
}

func (m *MvRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.SrcPaths = append(m.SrcPaths, d.string())
		case 3:
			m.DstPath = d.string()
		default:
			d.skip()
		}
	}
	return d.err
}
