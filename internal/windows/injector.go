//go:build windows

package windows

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// Injector synthesizes mouse and keyboard input with SendInput.
type Injector struct {
	log logger.LoggerInterface
}

// NewInjector creates a SendInput injector.
func NewInjector(log logger.LoggerInterface) *Injector {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Injector{log: log}
}

func (i *Injector) Name() string { return "sendinput" }

func (i *Injector) send(inputs []INPUT) error {
	ret, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(INPUT{})),
	)

	if ret != uintptr(len(inputs)) {
		i.log.Warn("SendInput failed", slog.Int("expected", len(inputs)), slog.Uint64("sent", uint64(ret)))
		return fmt.Errorf("SendInput sent %d of %d events: %w", ret, len(inputs), err)
	}

	return nil
}

func mouseInput(flags uint32, data uint32, dx, dy int32) INPUT {
	var in INPUT

	in.Type = INPUT_MOUSE
	mi := (*MOUSEINPUT)(unsafe.Pointer(&in.Data[0]))
	mi.Dx = dx
	mi.Dy = dy
	mi.MouseData = data
	mi.DwFlags = flags

	return in
}

func keyInput(vk uint16, flags uint32) INPUT {
	var in INPUT

	in.Type = INPUT_KEYBOARD
	kb := (*KEYBDINPUT)(unsafe.Pointer(&in.Data[0]))
	kb.WVk = vk
	kb.DwFlags = flags

	return in
}

// MouseMove moves the pointer in absolute virtual-desktop coordinates, which
// SendInput expresses on a 0..65535 grid.
func (i *Injector) MouseMove(x, y int) error {
	screen, err := i.ScreenBounds()
	if err != nil {
		return err
	}

	dx := normalize(x-screen.X, screen.Width)
	dy := normalize(y-screen.Y, screen.Height)

	return i.send([]INPUT{mouseInput(MOUSEEVENTF_MOVE|MOUSEEVENTF_ABSOLUTE|MOUSEEVENTF_VIRTUALDESK, 0, dx, dy)})
}

func normalize(v, extent int) int32 {
	if extent <= 1 {
		return 0
	}

	return int32((v*65535 + (extent-1)/2) / (extent - 1))
}

func buttonFlags(b toolkit.Buttons, down bool) uint32 {
	var flags uint32

	b.Each(func(btn toolkit.Buttons) {
		switch {
		case btn == toolkit.ButtonLeft && down:
			flags |= MOUSEEVENTF_LEFTDOWN
		case btn == toolkit.ButtonLeft:
			flags |= MOUSEEVENTF_LEFTUP
		case btn == toolkit.ButtonMiddle && down:
			flags |= MOUSEEVENTF_MIDDLEDOWN
		case btn == toolkit.ButtonMiddle:
			flags |= MOUSEEVENTF_MIDDLEUP
		case btn == toolkit.ButtonRight && down:
			flags |= MOUSEEVENTF_RIGHTDOWN
		case btn == toolkit.ButtonRight:
			flags |= MOUSEEVENTF_RIGHTUP
		}
	})

	return flags
}

func (i *Injector) MousePress(b toolkit.Buttons) error {
	return i.send([]INPUT{mouseInput(buttonFlags(b, true), 0, 0, 0)})
}

func (i *Injector) MouseRelease(b toolkit.Buttons) error {
	return i.send([]INPUT{mouseInput(buttonFlags(b, false), 0, 0, 0)})
}

// MouseWheel rotates by amount notches. Positive amounts scroll toward the
// user, which SendInput expresses as a negative delta.
func (i *Injector) MouseWheel(amount int) error {
	if amount == 0 {
		return nil
	}

	delta := int32(-amount * WHEEL_DELTA)

	return i.send([]INPUT{mouseInput(MOUSEEVENTF_WHEEL, uint32(delta), 0, 0)})
}

// Navigation keys need the extended flag or they arrive as numpad keys.
var extendedKeys = map[toolkit.KeyCode]bool{
	toolkit.KeyPageUp:   true,
	toolkit.KeyPageDown: true,
	toolkit.KeyEnd:      true,
	toolkit.KeyHome:     true,
	toolkit.KeyLeft:     true,
	toolkit.KeyUp:       true,
	toolkit.KeyRight:    true,
	toolkit.KeyDown:     true,
	toolkit.KeyInsert:   true,
	toolkit.KeyDelete:   true,
}

func keyFlags(code toolkit.KeyCode, up bool) uint32 {
	var flags uint32

	if extendedKeys[code] {
		flags |= KEYEVENTF_EXTENDEDKEY
	}

	if up {
		flags |= KEYEVENTF_KEYUP
	}

	return flags
}

func validKey(code toolkit.KeyCode) error {
	if code <= 0 || code > 0xFE {
		return fmt.Errorf("virtual key 0x%X out of range", int(code))
	}

	return nil
}

func (i *Injector) KeyPress(code toolkit.KeyCode) error {
	if err := validKey(code); err != nil {
		return err
	}

	return i.send([]INPUT{keyInput(uint16(code), keyFlags(code, false))})
}

func (i *Injector) KeyRelease(code toolkit.KeyCode) error {
	if err := validKey(code); err != nil {
		return err
	}

	return i.send([]INPUT{keyInput(uint16(code), keyFlags(code, true))})
}

// ScreenBounds returns the virtual desktop spanning all monitors.
func (i *Injector) ScreenBounds() (toolkit.Rect, error) {
	r := toolkit.Rect{
		X:      systemMetric(SM_XVIRTUALSCREEN),
		Y:      systemMetric(SM_YVIRTUALSCREEN),
		Width:  systemMetric(SM_CXVIRTUALSCREEN),
		Height: systemMetric(SM_CYVIRTUALSCREEN),
	}

	if r.IsEmpty() {
		r = toolkit.Rect{Width: systemMetric(SM_CXSCREEN), Height: systemMetric(SM_CYSCREEN)}
	}

	if r.IsEmpty() {
		return toolkit.Rect{}, fmt.Errorf("GetSystemMetrics returned an empty screen")
	}

	return r, nil
}
