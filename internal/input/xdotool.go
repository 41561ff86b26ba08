package input

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// ErrUnsupportedKey is returned for key codes the backend cannot express.
var ErrUnsupportedKey = errors.New("unsupported key code")

// CommandRunner runs an external command and returns its trimmed output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out: %s", name)
	}

	if err != nil {
		return "", fmt.Errorf("command failed: %s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	return strings.TrimSpace(string(output)), nil
}

// XdotoolInjector injects input on X11 through the xdotool binary.
type XdotoolInjector struct {
	run     CommandRunner
	binary  string
	timeout time.Duration
}

// XdotoolOption configures an XdotoolInjector.
type XdotoolOption func(*XdotoolInjector)

// WithRunner replaces the command runner.
func WithRunner(r CommandRunner) XdotoolOption {
	return func(x *XdotoolInjector) { x.run = r }
}

// WithBinary overrides the xdotool executable path.
func WithBinary(path string) XdotoolOption {
	return func(x *XdotoolInjector) { x.binary = path }
}

// NewXdotoolInjector returns an injector that shells out to xdotool.
func NewXdotoolInjector(opts ...XdotoolOption) *XdotoolInjector {
	x := &XdotoolInjector{
		run:     ExecRunner,
		binary:  "xdotool",
		timeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(x)
	}

	return x
}

func (x *XdotoolInjector) Name() string { return "xdotool" }

func (x *XdotoolInjector) exec(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()

	return x.run(ctx, x.binary, args...)
}

func (x *XdotoolInjector) do(args ...string) error {
	_, err := x.exec(args...)
	return err
}

func (x *XdotoolInjector) MouseMove(px, py int) error {
	return x.do("mousemove", "--sync", strconv.Itoa(px), strconv.Itoa(py))
}

// X11 button numbers.
func xButton(b toolkit.Buttons) string {
	switch b {
	case toolkit.ButtonMiddle:
		return "2"
	case toolkit.ButtonRight:
		return "3"
	default:
		return "1"
	}
}

func (x *XdotoolInjector) MousePress(b toolkit.Buttons) error {
	var err error

	b.Each(func(btn toolkit.Buttons) {
		if err == nil {
			err = x.do("mousedown", xButton(btn))
		}
	})

	return err
}

func (x *XdotoolInjector) MouseRelease(b toolkit.Buttons) error {
	var err error

	b.Each(func(btn toolkit.Buttons) {
		if err == nil {
			err = x.do("mouseup", xButton(btn))
		}
	})

	return err
}

// MouseWheel maps negative amounts to button 4 (up) and positive to button 5 (down).
func (x *XdotoolInjector) MouseWheel(amount int) error {
	if amount == 0 {
		return nil
	}

	direction := "5"
	if amount < 0 {
		direction = "4"
		amount = -amount
	}

	return x.do("click", "--repeat", strconv.Itoa(amount), direction)
}

func (x *XdotoolInjector) KeyPress(code toolkit.KeyCode) error {
	sym, ok := Keysym(code)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedKey, code)
	}

	return x.do("keydown", sym)
}

func (x *XdotoolInjector) KeyRelease(code toolkit.KeyCode) error {
	sym, ok := Keysym(code)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedKey, code)
	}

	return x.do("keyup", sym)
}

// ScreenBounds parses "xdotool getdisplaygeometry", which prints "W H".
func (x *XdotoolInjector) ScreenBounds() (toolkit.Rect, error) {
	out, err := x.exec("getdisplaygeometry")
	if err != nil {
		return toolkit.Rect{}, err
	}

	fields := strings.Fields(out)
	if len(fields) != 2 {
		return toolkit.Rect{}, fmt.Errorf("unexpected display geometry %q", out)
	}

	w, errW := strconv.Atoi(fields[0])
	h, errH := strconv.Atoi(fields[1])

	if err := errors.Join(errW, errH); err != nil {
		return toolkit.Rect{}, fmt.Errorf("unexpected display geometry %q: %w", out, err)
	}

	return toolkit.Rect{Width: w, Height: h}, nil
}

// X11 keysym names, so xdotool never mistakes a symbol for a flag.
var keysyms = map[toolkit.KeyCode]string{
	toolkit.KeyBackspace:    "BackSpace",
	toolkit.KeyTab:          "Tab",
	toolkit.KeyEnter:        "Return",
	toolkit.KeyShift:        "shift",
	toolkit.KeyControl:      "ctrl",
	toolkit.KeyAlt:          "alt",
	toolkit.KeyMeta:         "super",
	toolkit.KeyEscape:       "Escape",
	toolkit.KeySpace:        "space",
	toolkit.KeyPageUp:       "Page_Up",
	toolkit.KeyPageDown:     "Page_Down",
	toolkit.KeyEnd:          "End",
	toolkit.KeyHome:         "Home",
	toolkit.KeyLeft:         "Left",
	toolkit.KeyUp:           "Up",
	toolkit.KeyRight:        "Right",
	toolkit.KeyDown:         "Down",
	toolkit.KeyInsert:       "Insert",
	toolkit.KeyDelete:       "Delete",
	toolkit.KeySemicolon:    "semicolon",
	toolkit.KeyEquals:       "equal",
	toolkit.KeyComma:        "comma",
	toolkit.KeyMinus:        "minus",
	toolkit.KeyPeriod:       "period",
	toolkit.KeySlash:        "slash",
	toolkit.KeyBackQuote:    "grave",
	toolkit.KeyOpenBracket:  "bracketleft",
	toolkit.KeyBackSlash:    "backslash",
	toolkit.KeyCloseBracket: "bracketright",
	toolkit.KeyQuote:        "apostrophe",
}

// Keysym returns the X11 keysym name for code.
func Keysym(code toolkit.KeyCode) (string, bool) {
	switch {
	case code >= toolkit.KeyA && code <= toolkit.KeyZ:
		return string(rune('a' + code - toolkit.KeyA)), true
	case code >= toolkit.Key0 && code <= toolkit.Key9:
		return string(rune(code)), true
	case code >= toolkit.KeyF1 && code <= toolkit.KeyF12:
		return code.String(), true
	}

	sym, ok := keysyms[code]

	return sym, ok
}
