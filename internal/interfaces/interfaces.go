// Package interfaces defines core interfaces for dependency injection and testing.
package interfaces

import (
	"time"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// Injector synthesizes OS-level input events. Calls are synchronous and are
// delivered to the OS in the order they are made.
type Injector interface {
	// Name identifies the backend, e.g. "sendinput" or "xdotool".
	Name() string
	MouseMove(x, y int) error
	MousePress(b toolkit.Buttons) error
	MouseRelease(b toolkit.Buttons) error
	// MouseWheel rotates the wheel by amount notches; negative is away from the user.
	MouseWheel(amount int) error
	KeyPress(code toolkit.KeyCode) error
	KeyRelease(code toolkit.KeyCode) error
	// ScreenBounds returns the physical screen rectangle.
	ScreenBounds() (toolkit.Rect, error)
}

// IdleWaiter blocks until the UI has processed everything posted so far.
type IdleWaiter interface {
	WaitForIdle()
}

// PointerMover moves the pointer over a component.
type PointerMover interface {
	MoveMouseOver(c toolkit.Component) error
}

// Sleeper pauses the caller. Tests substitute a recorder.
type Sleeper func(d time.Duration)
