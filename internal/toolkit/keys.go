package toolkit

import "fmt"

// KeyCode is a virtual key code. Values match the Win32 virtual-key table so the
// Windows injector can pass them through unchanged.
type KeyCode int

const (
	KeyBackspace KeyCode = 0x08
	KeyTab       KeyCode = 0x09
	KeyEnter     KeyCode = 0x0D
	KeyShift     KeyCode = 0x10
	KeyControl   KeyCode = 0x11
	KeyAlt       KeyCode = 0x12
	KeyEscape    KeyCode = 0x1B
	KeySpace     KeyCode = 0x20
	KeyPageUp    KeyCode = 0x21
	KeyPageDown  KeyCode = 0x22
	KeyEnd       KeyCode = 0x23
	KeyHome      KeyCode = 0x24
	KeyLeft      KeyCode = 0x25
	KeyUp        KeyCode = 0x26
	KeyRight     KeyCode = 0x27
	KeyDown      KeyCode = 0x28
	KeyInsert    KeyCode = 0x2D
	KeyDelete    KeyCode = 0x2E

	Key0 KeyCode = 0x30
	Key9 KeyCode = 0x39
	KeyA KeyCode = 0x41
	KeyZ KeyCode = 0x5A

	KeyMeta KeyCode = 0x5B

	KeyF1  KeyCode = 0x70
	KeyF12 KeyCode = 0x7B

	KeySemicolon    KeyCode = 0xBA
	KeyEquals       KeyCode = 0xBB
	KeyComma        KeyCode = 0xBC
	KeyMinus        KeyCode = 0xBD
	KeyPeriod       KeyCode = 0xBE
	KeySlash        KeyCode = 0xBF
	KeyBackQuote    KeyCode = 0xC0
	KeyOpenBracket  KeyCode = 0xDB
	KeyBackSlash    KeyCode = 0xDC
	KeyCloseBracket KeyCode = 0xDD
	KeyQuote        KeyCode = 0xDE
)

var keyNames = map[KeyCode]string{
	KeyBackspace:    "Backspace",
	KeyTab:          "Tab",
	KeyEnter:        "Enter",
	KeyShift:        "Shift",
	KeyControl:      "Ctrl",
	KeyAlt:          "Alt",
	KeyEscape:       "Escape",
	KeySpace:        "Space",
	KeyPageUp:       "PageUp",
	KeyPageDown:     "PageDown",
	KeyEnd:          "End",
	KeyHome:         "Home",
	KeyLeft:         "Left",
	KeyUp:           "Up",
	KeyRight:        "Right",
	KeyDown:         "Down",
	KeyInsert:       "Insert",
	KeyDelete:       "Delete",
	KeyMeta:         "Meta",
	KeySemicolon:    "Semicolon",
	KeyEquals:       "Equals",
	KeyComma:        "Comma",
	KeyMinus:        "Minus",
	KeyPeriod:       "Period",
	KeySlash:        "Slash",
	KeyBackQuote:    "BackQuote",
	KeyOpenBracket:  "OpenBracket",
	KeyBackSlash:    "BackSlash",
	KeyCloseBracket: "CloseBracket",
	KeyQuote:        "Quote",
}

func (k KeyCode) String() string {
	switch {
	case k >= Key0 && k <= Key9, k >= KeyA && k <= KeyZ:
		return string(rune(k))
	case k >= KeyF1 && k <= KeyF12:
		return fmt.Sprintf("F%d", k-KeyF1+1)
	}

	if name, ok := keyNames[k]; ok {
		return name
	}

	return fmt.Sprintf("0x%02X", int(k))
}

// IsKnown reports whether k is a key this package can name.
func (k KeyCode) IsKnown() bool {
	if k >= Key0 && k <= Key9 || k >= KeyA && k <= KeyZ || k >= KeyF1 && k <= KeyF12 {
		return true
	}

	_, ok := keyNames[k]

	return ok
}

// KeyStroke is a key plus the modifiers held while it is pressed.
type KeyStroke struct {
	Code      KeyCode
	Modifiers Modifiers
}

// US layout: the character each code produces without and with shift.
var usLayout = map[KeyCode][2]rune{
	KeySpace:        {' ', ' '},
	KeyEnter:        {'\n', '\n'},
	KeyTab:          {'\t', '\t'},
	KeySemicolon:    {';', ':'},
	KeyEquals:       {'=', '+'},
	KeyComma:        {',', '<'},
	KeyMinus:        {'-', '_'},
	KeyPeriod:       {'.', '>'},
	KeySlash:        {'/', '?'},
	KeyBackQuote:    {'`', '~'},
	KeyOpenBracket:  {'[', '{'},
	KeyBackSlash:    {'\\', '|'},
	KeyCloseBracket: {']', '}'},
	KeyQuote:        {'\'', '"'},
}

var shiftedDigits = [10]rune{')', '!', '@', '#', '$', '%', '^', '&', '*', '('}

var strokes = buildStrokes()

func buildStrokes() map[rune]KeyStroke {
	m := make(map[rune]KeyStroke)

	for c := KeyA; c <= KeyZ; c++ {
		m[rune('a'+c-KeyA)] = KeyStroke{Code: c}
		m[rune('A'+c-KeyA)] = KeyStroke{Code: c, Modifiers: ModShift}
	}

	for c := Key0; c <= Key9; c++ {
		m[rune('0'+c-Key0)] = KeyStroke{Code: c}
		m[shiftedDigits[c-Key0]] = KeyStroke{Code: c, Modifiers: ModShift}
	}

	for code, chars := range usLayout {
		m[chars[0]] = KeyStroke{Code: code}

		if chars[1] != chars[0] {
			m[chars[1]] = KeyStroke{Code: code, Modifiers: ModShift}
		}
	}

	m['\r'] = KeyStroke{Code: KeyEnter}

	return m
}

// KeyStrokeFor returns the keystroke that types r on a US keyboard.
func KeyStrokeFor(r rune) (KeyStroke, bool) {
	ks, ok := strokes[r]
	return ks, ok
}

// CharFor returns the character typed by code, or false if code types nothing.
func CharFor(code KeyCode, shifted bool) (rune, bool) {
	idx := 0
	if shifted {
		idx = 1
	}

	switch {
	case code >= KeyA && code <= KeyZ:
		if shifted {
			return rune('A' + code - KeyA), true
		}

		return rune('a' + code - KeyA), true
	case code >= Key0 && code <= Key9:
		if shifted {
			return shiftedDigits[code-Key0], true
		}

		return rune('0' + code - Key0), true
	}

	if chars, ok := usLayout[code]; ok {
		return chars[idx], true
	}

	return 0, false
}
