package robot

import (
	"go.uber.org/multierr"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// Click clicks b times at the centre of c.
func (r *Robot) Click(c toolkit.Component, b toolkit.Buttons, times int) error {
	failure.MustNotBeNil(c, "component")

	center, err := r.center(c)
	if err != nil {
		return r.wrap("click", c, err)
	}

	return r.ClickAt(c, center, b, times)
}

// DoubleClick double-clicks the left button at the centre of c.
func (r *Robot) DoubleClick(c toolkit.Component) error {
	return r.Click(c, toolkit.ButtonLeft, 2)
}

// RightClick clicks the right button at the centre of c.
func (r *Robot) RightClick(c toolkit.Component) error {
	return r.Click(c, toolkit.ButtonRight, 1)
}

// ClickAt clicks b times at p, relative to c, after scrolling c into view.
// Presses of a multi-click go out back to back so the OS groups them into
// one gesture; the configured delay between events is restored afterwards.
func (r *Robot) ClickAt(c toolkit.Component, p toolkit.Point, b toolkit.Buttons, times int) error {
	failure.MustNotBeNil(c, "component")
	failure.Precondition(times > 0, "click count must be positive, got %d", times)
	failure.Precondition(b&toolkit.AllButtons != 0, "no mouse button to click")
	uithread.CheckNotOnUIThread(r.rt, "Click")

	if !r.settings.ClickOnDisabledComponentsAllowed() {
		enabled, err := uithread.Query(r.rt, c.IsEnabled)
		if err != nil {
			return r.wrap("click", c, err)
		}

		if !enabled {
			return r.wrap("click", c, &failure.ActionFailedError{Op: "click", Detail: "component is disabled"})
		}
	}

	if err := r.scrollToVisible(c, p); err != nil {
		return r.wrap("click", c, err)
	}

	if err := r.gen.MoveMouseTo(c, p); err != nil {
		return r.wrap("click", c, err)
	}

	if err := r.clickSequence(b, times); err != nil {
		return r.wrap("click", c, err)
	}

	r.waiter.WaitForIdle()

	return nil
}

// clickSequence issues press, (release, press) x (times-1), release. A held
// button is released again if the sequence breaks.
func (r *Robot) clickSequence(b toolkit.Buttons, times int) (err error) {
	if times > 1 {
		delay := r.settings.DelayBetweenEvents()
		r.settings.SetDelayBetweenEvents(0)

		defer r.settings.SetDelayBetweenEvents(int(delay.Milliseconds()))
	}

	held := false

	defer func() {
		if err != nil && held {
			err = multierr.Append(err, r.gen.ReleaseMouse(b))
		}
	}()

	for i := range times {
		if i > 0 {
			if err := r.gen.ReleaseMouse(b); err != nil {
				return err
			}

			held = false
		}

		if err := r.gen.PressMouse(b); err != nil {
			return err
		}

		held = true
	}

	if err := r.gen.ReleaseMouse(b); err != nil {
		return err
	}

	held = false

	return nil
}

// scrollToVisible asks every scrollable ancestor of c, innermost first, to
// bring p into view.
func (r *Robot) scrollToVisible(c toolkit.Component, p toolkit.Point) error {
	return uithread.Run(r.rt, func() error {
		for parent := c.Parent(); parent != nil; parent = parent.Parent() {
			s, ok := parent.(toolkit.Scrollable)
			if !ok {
				continue
			}

			at := c.LocationOnScreen().Add(p).Sub(s.LocationOnScreen())
			s.ScrollRectToVisible(toolkit.Rect{X: at.X, Y: at.Y, Width: 1, Height: 1})
		}

		return nil
	})
}

func (r *Robot) center(c toolkit.Component) (toolkit.Point, error) {
	size, err := uithread.Query(r.rt, func() toolkit.Size { return c.Bounds().Size() })
	if err != nil {
		return toolkit.Point{}, err
	}

	return toolkit.Pt(size.Width/2, size.Height/2), nil
}

// PressMouse presses b at the current pointer position.
func (r *Robot) PressMouse(b toolkit.Buttons) error {
	if err := r.gen.PressMouse(b); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// PressMouseAt moves to p, relative to c, and presses b. Nothing is injected
// when p is off screen.
func (r *Robot) PressMouseAt(c toolkit.Component, p toolkit.Point, b toolkit.Buttons) error {
	failure.MustNotBeNil(c, "component")

	if err := r.gen.PressMouseAt(c, p, b); err != nil {
		return r.wrap("press mouse", c, err)
	}

	r.waiter.WaitForIdle()

	return nil
}

// ReleaseMouse releases b.
func (r *Robot) ReleaseMouse(b toolkit.Buttons) error {
	if err := r.gen.ReleaseMouse(b); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// ReleaseMouseButtons releases exactly the buttons observed as held.
func (r *Robot) ReleaseMouseButtons() error {
	held := r.state.Buttons()
	if held == toolkit.NoButtons {
		return nil
	}

	var errs error

	held.Each(func(b toolkit.Buttons) {
		errs = multierr.Append(errs, r.gen.ReleaseMouse(b))
	})

	r.waiter.WaitForIdle()

	return errs
}

// MoveMouse moves the pointer to screen coordinates (x, y).
func (r *Robot) MoveMouse(x, y int) error {
	if err := r.gen.MoveMouse(x, y); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// MoveMouseTo moves the pointer to p relative to c.
func (r *Robot) MoveMouseTo(c toolkit.Component, p toolkit.Point) error {
	failure.MustNotBeNil(c, "component")

	if err := r.gen.MoveMouseTo(c, p); err != nil {
		return r.wrap("move mouse", c, err)
	}

	r.waiter.WaitForIdle()

	return nil
}

// MoveMouseOver moves the pointer to the centre of c.
func (r *Robot) MoveMouseOver(c toolkit.Component) error {
	failure.MustNotBeNil(c, "component")

	if err := r.gen.MoveMouseOver(c); err != nil {
		return r.wrap("move mouse", c, err)
	}

	r.waiter.WaitForIdle()

	return nil
}

// RotateMouseWheel turns the wheel by amount notches.
func (r *Robot) RotateMouseWheel(amount int) error {
	if err := r.gen.RotateWheel(amount); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// Jitter nudges the pointer away from the centre of c and back.
func (r *Robot) Jitter(c toolkit.Component) error {
	failure.MustNotBeNil(c, "component")

	if err := r.jitter(c); err != nil {
		return r.wrap("jitter", c, err)
	}

	r.waiter.WaitForIdle()

	return nil
}

func (r *Robot) jitter(c toolkit.Component) error {
	center, err := r.center(c)
	if err != nil {
		return err
	}

	if err := r.gen.MoveMouseTo(c, center.Add(toolkit.Pt(timeouts.JitterDistance, 0))); err != nil {
		return err
	}

	return r.gen.MoveMouseTo(c, center)
}

// IsDragging reports whether a drag is in progress.
func (r *Robot) IsDragging() bool {
	return r.state.DragInProgress()
}

// PressedButtons returns the mouse buttons observed as held.
func (r *Robot) PressedButtons() toolkit.Buttons {
	return r.state.Buttons()
}
