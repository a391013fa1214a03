package idbv1

// Payload is the body of a transfer frame. Exactly one of FilePath, URL or
// Data is set.
type Payload struct {
	FilePath string
	URL      string
	Data     []byte
}

func (m *Payload) appendWire(b []byte) []byte {
	switch {
	case m.Data != nil:
		return appendBytes(b, 3, m.Data)
	case m.URL != "":
		return appendString(b, 2, m.URL)
	default:
		return appendString(b, 1, m.FilePath)
	}
}

func (m *Payload) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.FilePath = d.string()
		case 2:
			m.URL = d.string()
		case 3:
			m.Data = d.bytes()
		default:
			d.skip()
		}
	}
	return d.err
}

// Destination is the install target kind.
type Destination int32

const (
	DestinationApp Destination = iota
	DestinationXCTest
	DestinationDylib
	DestinationDsym
	DestinationFramework
)

// InstallRequest carries either the destination, sent first, or a payload.
type InstallRequest struct {
	Destination *Destination
	Payload     *Payload
}

func (m *InstallRequest) appendWire(b []byte) []byte {
	if m.Destination != nil {
		return appendEnum(b, 1, int32(*m.Destination))
	}
	if m.Payload != nil {
		return appendMessage(b, 2, m.Payload)
	}
	return b
}

func (m *InstallRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			v := Destination(d.enum())
			m.Destination = &v
		case 2:
			m.Payload = new(Payload)
			d.message(m.Payload)
		default:
			d.skip()
		}
	}
	return d.err
}

type InstallResponse struct {
	Progress float64
	Name     string
	UUID     string
}

func (m *InstallResponse) appendWire(b []byte) []byte {
	b = appendDouble(b, 1, m.Progress)
	b = appendString(b, 2, m.Name)
	return appendString(b, 3, m.UUID)
}

func (m *InstallResponse) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.Progress = d.double()
		case 2:
			m.Name = d.string()
		case 3:
			m.UUID = d.string()
		default:
			d.skip()
		}
	}
	return d.err
}

type PushInner struct {
	BundleID string
	DstPath  string
}

func (m *PushInner) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	return appendString(b, 2, m.DstPath)
}

func (m *PushInner) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.DstPath = d.string()
		default:
			d.skip()
		}
	}
	return d.err
}

// PushRequest carries either the inner header, sent first, or a payload.
type PushRequest struct {
	Inner   *PushInner
	Payload *Payload
}

func (m *PushRequest) appendWire(b []byte) []byte {
	if m.Inner != nil {
		return appendMessage(b, 1, m.Inner)
	}
	if m.Payload != nil {
		return appendMessage(b, 2, m.Payload)
	}
	return b
}

func (m *PushRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.Inner = new(PushInner)
			d.message(m.Inner)
		case 2:
			m.Payload = new(Payload)
			d.message(m.Payload)
		default:
			d.skip()
		}
	}
	return d.err
}

type PushResponse struct{}

func (m *PushResponse) appendWire(b []byte) []byte { return b }

func (m *PushResponse) unmarshalWire(b []byte) error { return skipAll(b) }

// PullRequest leaves DstPath empty when the companion should stream the
// file back instead of writing it itself.
type PullRequest struct {
	BundleID string
	SrcPath  string
	DstPath  string
}

func (m *PullRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.BundleID)
	b = appendString(b, 2, m.SrcPath)
	return appendString(b, 3, m.DstPath)
}

func (m *PullRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.BundleID = d.string()
		case 2:
			m.SrcPath = d.string()
		case 3:
			m.DstPath = d.string()
		default:
			d.skip()
		}
	}
	return d.err
}

type PullResponse struct {
	Payload *Payload
}

func (m *PullResponse) appendWire(b []byte) []byte {
	if m.Payload == nil {
		return b
	}
	return appendMessage(b, 1, m.Payload)
}

func (m *PullResponse) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Payload = new(Payload)
			d.message(m.Payload)
			continue
		}
		d.skip()
	}
	return d.err
}

type AddMediaRequest struct {
	Payload *Payload
}

func (m *AddMediaRequest) appendWire(b []byte) []byte {
	if m.Payload == nil {
		return b
	}
	return appendMessage(b, 1, m.Payload)
}

func (m *AddMediaRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Payload = new(Payload)
			d.message(m.Payload)
			continue
		}
		d.skip()
	}
	return d.err
}

type AddMediaResponse struct{}

func (m *AddMediaResponse) appendWire(b []byte) []byte { return b }

func (m *AddMediaResponse) unmarshalWire(b []byte) error { return skipAll(b) }

type ContactsUpdateRequest struct {
	Payload *Payload
}

func (m *ContactsUpdateRequest) appendWire(b []byte) []byte {
	if m.Payload == nil {
		return b
	}
	return appendMessage(b, 1, m.Payload)
}

func (m *ContactsUpdateRequest) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Payload = new(Payload)
			d.message(m.Payload)
			continue
		}
		d.skip()
	}
	return d.err
}

type ContactsUpdateResponse struct{}

func (m *ContactsUpdateResponse) appendWire(b []byte) []byte { return b }

func (m *ContactsUpdateResponse) unmarshalWire(b []byte) error { return skipAll(b) }

func skipAll(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		d.skip()
	}
	return d.err
}
