// Package hid models the input events replayed on a device and builds the
// event sequences for common gestures.
package hid

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Event is one of Press, Swipe or Delay.
type Event interface {
	isEvent()
}

// Action is what a Press acts on: one of Touch, Button or Key.
type Action interface {
	isAction()
}

type Direction int

const (
	Down Direction = iota
	Up
)

type Point struct {
	X, Y float64
}

type Touch struct {
	Point Point
}

type ButtonType int

const (
	ApplePay ButtonType = iota
	Home
	Lock
	SideButton
	Siri
)

var buttonNames = []string{"apple_pay", "home", "lock", "side_button", "siri"}

func (b ButtonType) String() string {
	if int(b) >= 0 && int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("ButtonType(%d)", int(b))
}

// ParseButton accepts names like "home" or "SIDE_BUTTON".
func ParseButton(s string) (ButtonType, error) {
	for i, name := range buttonNames {
		if strings.EqualFold(s, name) {
			return ButtonType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

type Button struct {
	Type ButtonType
}

// Key is a USB HID keyboard usage code.
type Key struct {
	Keycode uint64
}

type Press struct {
	Action    Action
	Direction Direction
}

type Swipe struct {
	Start Point
	End   Point
	Delta float64
}

type Delay struct {
	Duration time.Duration
}

func (Touch) isAction()  {}
func (Button) isAction() {}
func (Key) isAction()    {}

func (Press) isEvent() {}
func (Swipe) isEvent() {}
func (Delay) isEvent() {}

// DefaultSwipeDelta is the distance in points between intermediate touches
// of a swipe.
const DefaultSwipeDelta = 10

const swipeStepDelay = 50 * time.Millisecond

func press(a Action, hold time.Duration) []Event {
	events := []Event{Press{Action: a, Direction: Down}}
	if hold > 0 {
		events = append(events, Delay{Duration: hold})
	}
	return append(events, Press{Action: a, Direction: Up})
}

// TapEvents touches (x, y), holding for hold when positive.
func TapEvents(x, y float64, hold time.Duration) []Event {
	return press(Touch{Point: Point{X: x, Y: y}}, hold)
}

// ButtonPressEvents presses and releases a hardware button.
func ButtonPressEvents(b ButtonType, hold time.Duration) []Event {
	return press(Button{Type: b}, hold)
}

// KeyPressEvents presses and releases a single key.
func KeyPressEvents(keycode uint64, hold time.Duration) []Event {
	return press(Key{Keycode: keycode}, hold)
}

// KeySequenceEvents presses each key in turn.
func KeySequenceEvents(keycodes []uint64) []Event {
	var events []Event
	for _, k := range keycodes {
		events = append(events, KeyPressEvents(k, 0)...)
	}
	return events
}

// SwipeEvents drags a touch from start to end, moving delta points per step.
// A non-positive delta uses DefaultSwipeDelta.
func SwipeEvents(start, end Point, delta float64) []Event {
	if delta <= 0 {
		delta = DefaultSwipeDelta
	}
	dist := math.Hypot(end.X-start.X, end.Y-start.Y)
	steps := int(dist / delta)

	events := []Event{Press{Action: Touch{Point: start}, Direction: Down}}
	if steps > 0 {
		dx := (end.X - start.X) / float64(steps)
		dy := (end.Y - start.Y) / float64(steps)
		for i := 1; i <= steps; i++ {
			p := Point{X: start.X + dx*float64(i), Y: start.Y + dy*float64(i)}
			events = append(events,
				Press{Action: Touch{Point: p}, Direction: Down},
				Delay{Duration: swipeStepDelay},
			)
		}
	}
	return append(events, Press{Action: Touch{Point: end}, Direction: Up})
}
