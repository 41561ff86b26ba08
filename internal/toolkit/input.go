package toolkit

import "strings"

// Buttons is a bitmask of mouse buttons.
type Buttons uint8

const (
	ButtonLeft Buttons = 1 << iota
	ButtonMiddle
	ButtonRight

	NoButtons Buttons = 0
	AllButtons        = ButtonLeft | ButtonMiddle | ButtonRight
)

// Each calls fn for every button set in b, in left, middle, right order.
func (b Buttons) Each(fn func(Buttons)) {
	for _, btn := range []Buttons{ButtonLeft, ButtonMiddle, ButtonRight} {
		if b&btn != 0 {
			fn(btn)
		}
	}
}

func (b Buttons) String() string {
	if b == NoButtons {
		return "none"
	}

	var names []string

	b.Each(func(btn Buttons) {
		switch btn {
		case ButtonLeft:
			names = append(names, "left")
		case ButtonMiddle:
			names = append(names, "middle")
		case ButtonRight:
			names = append(names, "right")
		}
	})

	return strings.Join(names, "+")
}

// Modifiers is a bitmask of modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Keys returns the key codes that produce m, in press order.
func (m Modifiers) Keys() []KeyCode {
	var keys []KeyCode

	if m&ModShift != 0 {
		keys = append(keys, KeyShift)
	}

	if m&ModCtrl != 0 {
		keys = append(keys, KeyControl)
	}

	if m&ModAlt != 0 {
		keys = append(keys, KeyAlt)
	}

	if m&ModMeta != 0 {
		keys = append(keys, KeyMeta)
	}

	return keys
}

// ModifierFor returns the modifier produced by code, or zero.
func ModifierFor(code KeyCode) Modifiers {
	switch code {
	case KeyShift:
		return ModShift
	case KeyControl:
		return ModCtrl
	case KeyAlt:
		return ModAlt
	case KeyMeta:
		return ModMeta
	}

	return 0
}
