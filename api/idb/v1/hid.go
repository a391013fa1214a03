package idbv1

type Point struct {
	X float64
	Y float64
}

func (m *Point) appendWire(b []byte) []byte {
	b = appendDouble(b, 1, m.X)
	return appendDouble(b, 2, m.Y)
}

func (m *Point) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.X = d.double()
		case 2:
			m.Y = d.double()
		default:
			d.skip()
		}
	}
	return d.err
}

type HIDDirection int32

const (
	HIDDirectionDown HIDDirection = iota
	HIDDirectionUp
)

type HIDButtonType int32

const (
	HIDButtonApplePay HIDButtonType = iota
	HIDButtonHome
	HIDButtonLock
	HIDButtonSideButton
	HIDButtonSiri
)

type HIDTouch struct {
	Point Point
}

func (m *HIDTouch) appendWire(b []byte) []byte { return appendMessage(b, 1, &m.Point) }

func (m *HIDTouch) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			d.message(&m.Point)
			continue
		}
		d.skip()
	}
	return d.err
}

type HIDButton struct {
	Button HIDButtonType
}

func (m *HIDButton) appendWire(b []byte) []byte { return appendVarint(b, 1, uint64(m.Button)) }

func (m *HIDButton) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Button = HIDButtonType(d.enum())
			continue
		}
		d.skip()
	}
	return d.err
}

type HIDKey struct {
	Keycode uint64
}

func (m *HIDKey) appendWire(b []byte) []byte { return appendVarint(b, 1, m.Keycode) }

func (m *HIDKey) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Keycode = d.varint()
			continue
		}
		d.skip()
	}
	return d.err
}

// HIDPressAction holds exactly one of Touch, Button or Key.
type HIDPressAction struct {
	Touch  *HIDTouch
	Button *HIDButton
	Key    *HIDKey
}

func (m *HIDPressAction) appendWire(b []byte) []byte {
	switch {
	case m.Touch != nil:
		return appendMessage(b, 1, m.Touch)
	case m.Button != nil:
		return appendMessage(b, 2, m.Button)
	case m.Key != nil:
		return appendMessage(b, 3, m.Key)
	}
	return b
}

func (m *HIDPressAction) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.Touch = new(HIDTouch)
			d.message(m.Touch)
		case 2:
			m.Button = new(HIDButton)
			d.message(m.Button)
		case 3:
			m.Key = new(HIDKey)
			d.message(m.Key)
		default:
			d.skip()
		}
	}
	return d.err
}

type HIDPress struct {
	Action    HIDPressAction
	Direction HIDDirection
}

func (m *HIDPress) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Action)
	return appendVarint(b, 2, uint64(m.Direction))
}

func (m *HIDPress) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			d.message(&m.Action)
		case 2:
			m.Direction = HIDDirection(d.enum())
		default:
			d.skip()
		}
	}
	return d.err
}

type HIDSwipe struct {
	Start Point
	End   Point
	Delta float64
}

func (m *HIDSwipe) appendWire(b []byte) []byte {
	b = appendMessage(b, 1, &m.Start)
	b = appendMessage(b, 2, &m.End)
	return appendDouble(b, 3, m.Delta)
}

func (m *HIDSwipe) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			d.message(&m.Start)
		case 2:
			d.message(&m.End)
		case 3:
			m.Delta = d.double()
		default:
			d.skip()
		}
	}
	return d.err
}

type HIDDelay struct {
	Duration float64
}

func (m *HIDDelay) appendWire(b []byte) []byte { return appendDouble(b, 1, m.Duration) }

func (m *HIDDelay) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		if d.num == 1 {
			m.Duration = d.double()
			continue
		}
		d.skip()
	}
	return d.err
}

// HIDEvent holds exactly one of Press, Swipe or Delay.
type HIDEvent struct {
	Press *HIDPress
	Swipe *HIDSwipe
	Delay *HIDDelay
}

func (m *HIDEvent) appendWire(b []byte) []byte {
	switch {
	case m.Press != nil:
		return appendMessage(b, 1, m.Press)
	case m.Swipe != nil:
		return appendMessage(b, 2, m.Swipe)
	case m.Delay != nil:
		return appendMessage(b, 3, m.Delay)
	}
	return b
}

func (m *HIDEvent) unmarshalWire(b []byte) error {
	d := decoder{b: b}
	for d.next() {
		switch d.num {
		case 1:
			m.Press = new(HIDPress)
			d.message(m.Press)
		case 2:
			m.Swipe = new(HIDSwipe)
			d.message(m.Swipe)
		case 3:
			m.Delay = new(HIDDelay)
			d.message(m.Delay)
		default:
			d.skip()
		}
	}
	return d.err
}

type HIDResponse struct{}

func (m *HIDResponse) appendWire(b []byte) []byte { return b }

func (m *HIDResponse) unmarshalWire(b []byte) error { return skipAll(b) }
