package simui

import (
	"log/slog"
	"slices"
	"time"

	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

var now = time.Now

// wheelUnit is how far one wheel notch scrolls a panel.
const wheelUnit = 20

type pressState struct {
	target  toolkit.Component
	buttons toolkit.Buttons

	lastTarget toolkit.Component
	lastButton toolkit.Buttons
	lastAt     time.Time
	count      int
}

// handleNative turns a hardware event into component events.
func (d *Desktop) handleNative(e toolkit.Event) {
	d.log.Trace("Native event",
		slog.String("kind", e.Kind.String()),
		slog.String("point", e.Point.String()),
	)

	switch e.Kind {
	case toolkit.MouseMoved, toolkit.MouseDragged:
		d.nativeMove(e)
	case toolkit.MousePressed:
		d.nativePress(e)
	case toolkit.MouseReleased:
		d.nativeRelease(e)
	case toolkit.MouseWheel:
		d.nativeWheel(e)
	case toolkit.KeyPressed, toolkit.KeyReleased:
		d.nativeKey(e)
	}
}

func relative(c toolkit.Component, p toolkit.Point) toolkit.Point {
	return p.Sub(c.LocationOnScreen())
}

func (d *Desktop) nativeMove(e toolkit.Event) {
	if e.Kind == toolkit.MouseDragged && d.press.target != nil {
		t := d.press.target
		d.postTo(t, toolkit.Event{Kind: toolkit.MouseDragged, Point: relative(t, e.Point), Buttons: e.Buttons, Modifiers: e.Modifiers})

		return
	}

	if t := d.componentAt(e.Point); t != nil {
		d.postTo(t, toolkit.Event{Kind: toolkit.MouseMoved, Point: relative(t, e.Point), Modifiers: e.Modifiers})
	}
}

func (d *Desktop) nativePress(e toolkit.Event) {
	if !d.insidePopup(e.Point) {
		d.hidePopups()
	}

	target := d.componentAt(e.Point)
	if target == nil {
		return
	}

	if _, inPopup := popupOf(target); !inPopup {
		if w, ok := toolkit.WindowAncestor(target).(*Window); ok {
			w.ToFront()
		}
	}

	p := &d.press
	if p.lastTarget == target && p.lastButton == e.Buttons && e.When.Sub(p.lastAt) <= timeouts.MultiClickInterval {
		p.count++
	} else {
		p.count = 1
	}

	p.lastTarget, p.lastButton, p.lastAt = target, e.Buttons, e.When

	if p.buttons == toolkit.NoButtons {
		p.target = target
	}

	p.buttons |= e.Buttons

	if target.IsEnabled() && canFocus(target) {
		d.requestFocus(target)
	}

	rel := relative(target, e.Point)
	d.postTo(target, toolkit.Event{Kind: toolkit.MousePressed, Point: rel, Buttons: e.Buttons, ClickCount: p.count, Modifiers: e.Modifiers})

	if e.Buttons&toolkit.ButtonRight != 0 && target.IsEnabled() {
		if menu := popupMenuFor(target); menu != nil {
			menu.Show(target, rel)
		}
	}
}

func (d *Desktop) nativeRelease(e toolkit.Event) {
	p := &d.press
	target := p.target
	p.buttons &^= e.Buttons

	if p.buttons == toolkit.NoButtons {
		p.target = nil
	}

	if target == nil {
		return
	}

	rel := relative(target, e.Point)
	d.postTo(target, toolkit.Event{Kind: toolkit.MouseReleased, Point: rel, Buttons: e.Buttons, ClickCount: p.count, Modifiers: e.Modifiers})

	if d.componentAt(e.Point) == target {
		d.postTo(target, toolkit.Event{Kind: toolkit.MouseClicked, Point: rel, Buttons: e.Buttons, ClickCount: p.count, Modifiers: e.Modifiers})
	}
}

func (d *Desktop) nativeWheel(e toolkit.Event) {
	target := d.componentAt(e.Point)
	if target == nil {
		return
	}

	for cur := toolkit.Component(target); cur != nil; {
		if p, ok := cur.(*Panel); ok && p.scrolling {
			p.scrollBy(e.WheelRotation * wheelUnit)
			break
		}

		parent := cur.Parent()
		if parent == nil {
			break
		}

		cur = parent
	}

	d.postTo(target, toolkit.Event{Kind: toolkit.MouseWheel, Point: relative(target, e.Point), WheelRotation: e.WheelRotation})
}

func (d *Desktop) nativeKey(e toolkit.Event) {
	owner := d.focus
	if owner == nil {
		return
	}

	d.postTo(owner, toolkit.Event{Kind: e.Kind, Key: e.Key, Modifiers: e.Modifiers})

	if e.Kind != toolkit.KeyPressed || e.Modifiers&(toolkit.ModCtrl|toolkit.ModAlt|toolkit.ModMeta) != 0 {
		return
	}

	if ch, ok := toolkit.CharFor(e.Key, e.Modifiers&toolkit.ModShift != 0); ok {
		d.postTo(owner, toolkit.Event{Kind: toolkit.KeyTyped, Key: e.Key, Char: ch, Modifiers: e.Modifiers})
	}
}

// componentAt returns the deepest showing component under p, popups first.
func (d *Desktop) componentAt(p toolkit.Point) toolkit.Component {
	for i := len(d.popups) - 1; i >= 0; i-- {
		if pm := d.popups[i]; pm.shown && toolkit.ScreenBounds(pm).Contains(p) {
			return deepest(pm, p)
		}
	}

	for i := len(d.windows) - 1; i >= 0; i-- {
		if w := d.windows[i]; w.IsShowing() && toolkit.ScreenBounds(w).Contains(p) {
			return deepest(w, p)
		}
	}

	return nil
}

func deepest(c toolkit.Component, p toolkit.Point) toolkit.Component {
	cont, ok := c.(toolkit.Container)
	if !ok {
		return c
	}

	children := cont.Children()
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if child.IsShowing() && toolkit.ScreenBounds(child).Contains(p) {
			return deepest(child, p)
		}
	}

	return c
}

func (d *Desktop) insidePopup(p toolkit.Point) bool {
	return slices.ContainsFunc(d.popups, func(pm *PopupMenu) bool {
		return pm.shown && toolkit.ScreenBounds(pm).Contains(p)
	})
}

// popupOf returns the popup c is an item of.
func popupOf(c toolkit.Component) (*PopupMenu, bool) {
	for cur := c; cur != nil; {
		if pm, ok := cur.(*PopupMenu); ok {
			return pm, true
		}

		parent := cur.Parent()
		if parent == nil {
			break
		}

		cur = parent
	}

	return nil, false
}

// popupMenuFor returns the popup menu set on c or its nearest ancestor.
func popupMenuFor(c toolkit.Component) *PopupMenu {
	type withPopup interface{ popupMenu() *PopupMenu }

	for cur := c; cur != nil; {
		if wp, ok := cur.(withPopup); ok && wp.popupMenu() != nil {
			return wp.popupMenu()
		}

		parent := cur.Parent()
		if parent == nil {
			break
		}

		cur = parent
	}

	return nil
}

func (n *node) popupMenu() *PopupMenu { return n.popup }

func (d *Desktop) hidePopups() {
	for _, p := range slices.Clone(d.popups) {
		p.Hide()
	}
}

func (d *Desktop) removePopup(p *PopupMenu) {
	d.popups = slices.DeleteFunc(d.popups, func(o *PopupMenu) bool { return o == p })
}

func (d *Desktop) removeWindow(w *Window) {
	d.windows = slices.DeleteFunc(d.windows, func(o *Window) bool { return o == w })
}

// requestFocus moves focus to c if its window is active.
func (d *Desktop) requestFocus(c toolkit.Component) bool {
	w := toolkit.WindowAncestor(c)
	if w == nil || !w.IsActive() || !c.IsShowing() || !canFocus(c) {
		return false
	}

	d.setFocus(c)

	return true
}

func (d *Desktop) setFocus(c toolkit.Component) {
	if d.focus == c {
		return
	}

	old := d.focus
	d.focus = c

	if w, ok := toolkit.WindowAncestor(c).(*Window); ok && c != nil {
		w.lastFocus = c
	}

	if old != nil {
		d.postTo(old, toolkit.Event{Kind: toolkit.FocusLost})
	}

	if c != nil {
		d.log.Trace("Focus changed", slog.String("from", toolkit.Describe(old)), slog.String("to", toolkit.Describe(c)))
		d.postTo(c, toolkit.Event{Kind: toolkit.FocusGained})
	}
}

// activate makes w the active window, raises it and restores its focus.
func (d *Desktop) activate(w *Window) {
	if d.active == w {
		return
	}

	if prev := d.active; prev != nil {
		prev.active = false
		d.postTo(prev, toolkit.Event{Kind: toolkit.WindowDeactivated})
	}

	w.active = true
	d.active = w

	if i := slices.Index(d.windows, w); i >= 0 {
		d.windows = append(slices.Delete(d.windows, i, i+1), w)
	}

	d.postTo(w, toolkit.Event{Kind: toolkit.WindowActivated})

	target := w.lastFocus
	if target == nil || !target.IsShowing() || !canFocus(target) {
		target = firstFocusable(w)
	}

	d.setFocus(target)
}

func firstFocusable(w *Window) toolkit.Component {
	var found toolkit.Component

	toolkit.Walk(w, func(c toolkit.Component) bool {
		if found != nil {
			return false
		}

		if c != toolkit.Component(w) && c.IsShowing() && canFocus(c) {
			found = c
			return false
		}

		return true
	})

	if found == nil {
		return w
	}

	return found
}

// deactivate clears w's active state and takes focus from its components.
func (d *Desktop) deactivate(w *Window) {
	if d.active != w {
		return
	}

	w.active = false
	d.active = nil
	d.postTo(w, toolkit.Event{Kind: toolkit.WindowDeactivated})

	if d.focus != nil && toolkit.WindowAncestor(d.focus) == toolkit.Window(w) {
		old := d.focus
		d.focus = nil
		d.postTo(old, toolkit.Event{Kind: toolkit.FocusLost})
	}
}
