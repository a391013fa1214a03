package client

import (
	"context"
	"iter"
	"time"

	"google.golang.org/grpc"

	idbv1 "github.com/gezibash/idbridge/api/idb/v1"
	"github.com/gezibash/idbridge/internal/observability"
	idberrors "github.com/gezibash/idbridge/pkg/errors"
	"github.com/gezibash/idbridge/pkg/hid"
	"github.com/gezibash/idbridge/pkg/transfer"
)

type hidStream = grpc.GenericClientStream[idbv1.HIDEvent, idbv1.HIDResponse]

// HID streams events to the companion in order and waits for its single
// acknowledgement.
func (c *Client) HID(ctx context.Context, events iter.Seq[hid.Event]) (err error) {
	op, ctx := c.start(ctx, "hid")
	defer func() { op.End(err) }()

	_, err = transfer.Open(ctx, func(ctx context.Context) (*hidStream, error) {
		return c.stub.HID(ctx)
	}, func(_ context.Context, s *hidStream) (*idbv1.HIDResponse, error) {
		return transfer.Drain[idbv1.HIDEvent, idbv1.HIDResponse](s, wireEvents(op, events))
	})
	return translate(err)
}

// SendEvents is HID over a slice.
func (c *Client) SendEvents(ctx context.Context, events []hid.Event) error {
	return c.HID(ctx, func(yield func(hid.Event) bool) {
		for _, e := range events {
			if !yield(e) {
				return
			}
		}
	})
}

// Tap touches the screen at (x, y).
func (c *Client) Tap(ctx context.Context, x, y float64, hold time.Duration) error {
	return c.SendEvents(ctx, hid.TapEvents(x, y, hold))
}

// Button presses a hardware button.
func (c *Client) Button(ctx context.Context, b hid.ButtonType, hold time.Duration) error {
	return c.SendEvents(ctx, hid.ButtonPressEvents(b, hold))
}

// Key presses a single key by HID usage code.
func (c *Client) Key(ctx context.Context, keycode uint64, hold time.Duration) error {
	return c.SendEvents(ctx, hid.KeyPressEvents(keycode, hold))
}

// KeySequence presses each key in turn.
func (c *Client) KeySequence(ctx context.Context, keycodes []uint64) error {
	return c.SendEvents(ctx, hid.KeySequenceEvents(keycodes))
}

// Text types text on the device keyboard. Characters without a US layout
// key are rejected before anything is sent.
func (c *Client) Text(ctx context.Context, text string) error {
	events, err := hid.TextEvents(text)
	if err != nil {
		return err
	}
	return c.SendEvents(ctx, events)
}

// Swipe drags from start to end. A non-positive delta uses the default step.
func (c *Client) Swipe(ctx context.Context, start, end hid.Point, delta float64) error {
	return c.SendEvents(ctx, hid.SwipeEvents(start, end, delta))
}

func wireEvents(op *observability.Operation, events iter.Seq[hid.Event]) iter.Seq2[*idbv1.HIDEvent, error] {
	return func(yield func(*idbv1.HIDEvent, error) bool) {
		for e := range events {
			w, err := toWire(e)
			if err != nil {
				yield(nil, err)
				return
			}
			op.Frame("hid", 0)
			if !yield(w, nil) {
				return
			}
		}
	}
}

func toWire(e hid.Event) (*idbv1.HIDEvent, error) {
	switch v := e.(type) {
	case hid.Press:
		action, err := toWireAction(v.Action)
		if err != nil {
			return nil, err
		}
		dir := idbv1.HIDDirectionDown
		if v.Direction == hid.Up {
			dir = idbv1.HIDDirectionUp
		}
		return &idbv1.HIDEvent{Press: &idbv1.HIDPress{Action: action, Direction: dir}}, nil
	case hid.Swipe:
		return &idbv1.HIDEvent{Swipe: &idbv1.HIDSwipe{
			Start: wirePoint(v.Start),
			End:   wirePoint(v.End),
			Delta: v.Delta,
		}}, nil
	case hid.Delay:
		return &idbv1.HIDEvent{Delay: &idbv1.HIDDelay{Duration: v.Duration.Seconds()}}, nil
	default:
		return nil, idberrors.Newf(idberrors.KindInvalidArgument, "unsupported hid event %T", e)
	}
}

func toWireAction(a hid.Action) (idbv1.HIDPressAction, error) {
	switch v := a.(type) {
	case hid.Touch:
		return idbv1.HIDPressAction{Touch: &idbv1.HIDTouch{Point: wirePoint(v.Point)}}, nil
	case hid.Button:
		return idbv1.HIDPressAction{Button: &idbv1.HIDButton{Button: idbv1.HIDButtonType(v.Type)}}, nil
	case hid.Key:
		return idbv1.HIDPressAction{Key: &idbv1.HIDKey{Keycode: v.Keycode}}, nil
	default:
		return idbv1.HIDPressAction{}, idberrors.Newf(idberrors.KindInvalidArgument, "unsupported hid action %T", a)
	}
}

func wirePoint(p hid.Point) idbv1.Point { return idbv1.Point{X: p.X, Y: p.Y} }
