package simui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// ErrNoButton is returned when a press or release names no button.
var ErrNoButton = errors.New("no mouse button given")

// Injector is the Desktop's OS input facility. It implements
// interfaces.Injector.
type Injector struct {
	d *Desktop

	mu        sync.Mutex
	pointer   toolkit.Point
	buttons   toolkit.Buttons
	modifiers toolkit.Modifiers
	calls     int
}

func (i *Injector) Name() string { return "simulated" }

// emit reports e to global listeners, then posts it as a native event. The
// lock is held so hardware events keep the order they were injected in.
func (i *Injector) emit(e toolkit.Event) {
	e.When = now()
	e.Modifiers = i.modifiers
	i.calls++

	i.d.emitGlobal(e)
	i.d.system.PostEvent(e)
}

func (i *Injector) MouseMove(x, y int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.pointer = toolkit.Pt(x, y)

	kind := toolkit.MouseMoved
	if i.buttons != toolkit.NoButtons {
		kind = toolkit.MouseDragged
	}

	i.emit(toolkit.Event{Kind: kind, Point: i.pointer, Buttons: i.buttons})

	return nil
}

func (i *Injector) MousePress(b toolkit.Buttons) error {
	if b&toolkit.AllButtons == 0 {
		return ErrNoButton
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.buttons |= b
	i.emit(toolkit.Event{Kind: toolkit.MousePressed, Point: i.pointer, Buttons: b})

	return nil
}

func (i *Injector) MouseRelease(b toolkit.Buttons) error {
	if b&toolkit.AllButtons == 0 {
		return ErrNoButton
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.buttons &^= b
	i.emit(toolkit.Event{Kind: toolkit.MouseReleased, Point: i.pointer, Buttons: b})

	return nil
}

func (i *Injector) MouseWheel(amount int) error {
	if amount == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.emit(toolkit.Event{Kind: toolkit.MouseWheel, Point: i.pointer, WheelRotation: amount})

	return nil
}

func (i *Injector) KeyPress(code toolkit.KeyCode) error {
	if !code.IsKnown() {
		return fmt.Errorf("unknown virtual key %s", code)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.modifiers |= toolkit.ModifierFor(code)
	i.emit(toolkit.Event{Kind: toolkit.KeyPressed, Point: i.pointer, Key: code})

	return nil
}

func (i *Injector) KeyRelease(code toolkit.KeyCode) error {
	if !code.IsKnown() {
		return fmt.Errorf("unknown virtual key %s", code)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.emit(toolkit.Event{Kind: toolkit.KeyReleased, Point: i.pointer, Key: code})
	i.modifiers &^= toolkit.ModifierFor(code)

	return nil
}

func (i *Injector) ScreenBounds() (toolkit.Rect, error) {
	return i.d.screen, nil
}

// Pointer returns the pointer position.
func (i *Injector) Pointer() toolkit.Point {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.pointer
}

// Calls returns how many hardware events have been injected.
func (i *Injector) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.calls
}
