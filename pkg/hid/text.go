package hid

import (
	idberrors "github.com/gezibash/idbridge/pkg/errors"
)

// KeyShift is the left shift usage code.
const KeyShift = 225

type keystroke struct {
	code  uint64
	shift bool
}

var keymap = buildKeymap()

func buildKeymap() map[rune]keystroke {
	m := make(map[rune]keystroke)
	for i := range 26 {
		m['a'+rune(i)] = keystroke{code: uint64(4 + i)}
		m['A'+rune(i)] = keystroke{code: uint64(4 + i), shift: true}
	}
	for i, r := range "1234567890" {
		m[r] = keystroke{code: uint64(30 + i)}
	}
	for i, r := range "!@#$%^&*()" {
		m[r] = keystroke{code: uint64(30 + i), shift: true}
	}
	plain := map[rune]uint64{
		'\n': 40, '\t': 43, ' ': 44, '-': 45, '=': 46, '[': 47, ']': 48,
		'\\': 49, ';': 51, '\'': 52, '`': 53, ',': 54, '.': 55, '/': 56,
	}
	for r, c := range plain {
		m[r] = keystroke{code: c}
	}
	shifted := map[rune]uint64{
		'_': 45, '+': 46, '{': 47, '}': 48, '|': 49, ':': 51, '"': 52,
		'~': 53, '<': 54, '>': 55, '?': 56,
	}
	for r, c := range shifted {
		m[r] = keystroke{code: c, shift: true}
	}
	return m
}

// TextEvents types text on a US keyboard layout. Characters without a key
// fail with an InvalidArgument error before any event is produced.
func TextEvents(text string) ([]Event, error) {
	var events []Event
	for _, r := range text {
		k, ok := keymap[r]
		if !ok {
			return nil, idberrors.Newf(idberrors.KindInvalidArgument, "no key for character %q", r)
		}
		if !k.shift {
			events = append(events, KeyPressEvents(k.code, 0)...)
			continue
		}
		events = append(events,
			Press{Action: Key{Keycode: KeyShift}, Direction: Down},
			Press{Action: Key{Keycode: k.code}, Direction: Down},
			Press{Action: Key{Keycode: k.code}, Direction: Up},
			Press{Action: Key{Keycode: KeyShift}, Direction: Up},
		)
	}
	return events, nil
}
