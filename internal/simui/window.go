package simui

import (
	"slices"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

const packPadding = 10

// Window is a top-level container. It gets a native peer (becomes
// displayable) the first time it is shown and loses it on Dispose.
type Window struct {
	container
	title       string
	displayable bool
	active      bool
	opened      bool
	lastFocus   toolkit.Component
	onClosing   func()
}

// NewWindow creates a hidden Window at (100,100) with no size.
func (d *Desktop) NewWindow(name, title string) *Window {
	w := &Window{title: title}
	w.init(d, w, name, toolkit.Rect{X: 100, Y: 100})
	w.visible = false
	w.focusable = true

	return w
}

func (w *Window) Kind() string { return "Window" }

func (w *Window) Title() string { return w.title }

// Add appends children.
func (w *Window) Add(children ...toolkit.Component) *Window {
	w.add(children...)
	return w
}

// OnClosing replaces the default close handling, which disposes the window.
func (w *Window) OnClosing(fn func()) *Window {
	w.onClosing = fn
	return w
}

func (w *Window) IsShowing() bool { return w.visible && w.displayable }

func (w *Window) LocationOnScreen() toolkit.Point { return w.bounds.Location() }

// SetLocation moves the window.
func (w *Window) SetLocation(p toolkit.Point) {
	w.bounds.X, w.bounds.Y = p.X, p.Y
}

// Pack sizes the window to fit its children.
func (w *Window) Pack() {
	size := w.contentSize()

	w.bounds.Width = max(size.Width+packPadding, 50)
	w.bounds.Height = max(size.Height+packPadding, 50)
}

func (w *Window) SetSize(s toolkit.Size) {
	w.bounds.Width, w.bounds.Height = s.Width, s.Height
}

func (w *Window) SetVisible(v bool) {
	if !v {
		if w.visible {
			w.visible = false
			w.d.deactivate(w)
		}

		return
	}

	if !w.displayable {
		w.displayable = true
		w.d.windows = append(w.d.windows, w)
	}

	if !w.visible {
		w.visible = true

		if !w.opened {
			w.opened = true
			w.d.postTo(w, toolkit.Event{Kind: toolkit.WindowOpened})
		}
	}

	w.d.activate(w)
}

func (w *Window) ToFront() {
	if w.IsShowing() {
		w.d.activate(w)
	}
}

// Dispose releases the native peer, destroys embedded applets and posts
// WindowClosed.
func (w *Window) Dispose() {
	if !w.displayable {
		return
	}

	w.visible = false
	w.d.deactivate(w)
	w.displayable = false
	w.opened = false
	w.d.removeWindow(w)

	for _, p := range slices.Clone(w.d.popups) {
		if toolkit.IsDescendant(p, w) {
			p.Hide()
		}
	}

	toolkit.Walk(w, func(c toolkit.Component) bool {
		if a, ok := c.(*Applet); ok {
			a.Destroy()
		}

		return true
	})

	w.d.postTo(w, toolkit.Event{Kind: toolkit.WindowClosed})
}

func (w *Window) IsActive() bool { return w.active }

func (w *Window) IsDisplayable() bool { return w.displayable }

func (w *Window) handleEvent(e toolkit.Event) {
	if e.Kind == toolkit.WindowClosing {
		if w.onClosing != nil {
			w.onClosing()
		} else {
			w.Dispose()
		}
	}

	w.node.handleEvent(e)
}
