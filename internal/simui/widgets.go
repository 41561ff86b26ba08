package simui

import (
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// Button performs its actions when clicked with the left button or when
// Space is pressed while it has focus.
type Button struct {
	node
	text    string
	armed   bool
	actions []func()
}

// NewButton creates a Button.
func (d *Desktop) NewButton(name, text string, bounds toolkit.Rect) *Button {
	b := &Button{text: text}
	b.init(d, b, name, bounds)
	b.focusable = true

	return b
}

func (b *Button) Kind() string { return "Button" }

func (b *Button) Text() string { return b.text }

// OnAction registers fn to run on the button's queue when it is pressed.
func (b *Button) OnAction(fn func()) *Button {
	b.actions = append(b.actions, fn)
	return b
}

func (b *Button) handleEvent(e toolkit.Event) {
	switch e.Kind {
	case toolkit.MousePressed:
		b.armed = b.enabled && e.Buttons&toolkit.ButtonLeft != 0
	case toolkit.MouseReleased:
		inside := toolkit.RectAt(toolkit.Point{}, b.bounds.Size()).Contains(e.Point)
		if b.armed && b.enabled && inside && e.Buttons&toolkit.ButtonLeft != 0 {
			b.d.postTo(b, toolkit.Event{Kind: toolkit.ActionPerformed})
		}

		b.armed = false
	case toolkit.KeyPressed:
		if e.Key == toolkit.KeySpace && b.enabled {
			b.d.postTo(b, toolkit.Event{Kind: toolkit.ActionPerformed})
		}
	case toolkit.ActionPerformed:
		for _, fn := range b.actions {
			fn()
		}
	}

	b.node.handleEvent(e)
}

// TextField is a single-line editable text component.
type TextField struct {
	node
	text     []rune
	editable bool
}

// NewTextField creates an editable TextField.
func (d *Desktop) NewTextField(name string, bounds toolkit.Rect) *TextField {
	t := &TextField{editable: true}
	t.init(d, t, name, bounds)
	t.focusable = true

	return t
}

func (t *TextField) Kind() string { return "TextField" }

func (t *TextField) Text() string { return string(t.text) }

func (t *TextField) SetText(s string) { t.text = []rune(s) }

func (t *TextField) SetEditable(v bool) { t.editable = v }

func (t *TextField) handleEvent(e toolkit.Event) {
	if t.enabled && t.editable {
		switch {
		case e.Kind == toolkit.KeyTyped && e.Char >= ' ':
			t.text = append(t.text, e.Char)
		case e.Kind == toolkit.KeyPressed && e.Key == toolkit.KeyBackspace && len(t.text) > 0:
			t.text = t.text[:len(t.text)-1]
		}
	}

	t.node.handleEvent(e)
}

const (
	menuItemWidth  = 120
	menuItemHeight = 20
)

// PopupMenu is a transient vertical menu. It has no parent: it hangs off its
// invoker while shown.
type PopupMenu struct {
	container
	invoker  toolkit.Component
	location toolkit.Point
	shown    bool
}

// NewPopupMenu creates a hidden PopupMenu.
func (d *Desktop) NewPopupMenu(name string) *PopupMenu {
	p := &PopupMenu{}
	p.init(d, p, name, toolkit.Rect{})

	return p
}

func (p *PopupMenu) Kind() string { return "PopupMenu" }

// Add appends items, stacking them vertically.
func (p *PopupMenu) Add(items ...toolkit.Component) *PopupMenu {
	for _, item := range items {
		if s, ok := item.(interface{ SetBounds(toolkit.Rect) }); ok {
			s.SetBounds(toolkit.Rect{Y: len(p.children) * menuItemHeight, Width: menuItemWidth, Height: menuItemHeight})
		}

		p.add(item)
	}

	p.bounds = toolkit.Rect{Width: menuItemWidth, Height: len(p.children) * menuItemHeight}

	return p
}

func (p *PopupMenu) Invoker() toolkit.Component { return p.invoker }

func (p *PopupMenu) IsShowing() bool { return p.shown }

func (p *PopupMenu) LocationOnScreen() toolkit.Point { return p.location }

// Show displays the popup at point, relative to invoker.
func (p *PopupMenu) Show(invoker toolkit.Component, point toolkit.Point) {
	p.invoker = invoker
	p.location = invoker.LocationOnScreen().Add(point)

	if p.shown {
		return
	}

	p.shown = true
	p.d.popups = append(p.d.popups, p)
	p.d.postTo(p, toolkit.Event{Kind: toolkit.PopupShown})
}

// Hide hides the popup and any submenu shown from it.
func (p *PopupMenu) Hide() {
	if !p.shown {
		return
	}

	for _, child := range p.children {
		if m, ok := child.(*Menu); ok {
			m.submenu.Hide()
		}
	}

	p.shown = false
	p.d.removePopup(p)
	p.d.postTo(p, toolkit.Event{Kind: toolkit.PopupHidden})
}

// MenuItem is an entry of a PopupMenu.
type MenuItem struct {
	node
	text    string
	actions []func()
}

// NewMenuItem creates a MenuItem.
func (d *Desktop) NewMenuItem(name, text string) *MenuItem {
	m := &MenuItem{text: text}
	m.init(d, m, name, toolkit.Rect{})

	return m
}

func (m *MenuItem) Kind() string { return "MenuItem" }

func (m *MenuItem) Text() string { return m.text }

// OnAction registers fn to run when the item is chosen.
func (m *MenuItem) OnAction(fn func()) *MenuItem {
	m.actions = append(m.actions, fn)
	return m
}

func (m *MenuItem) handleEvent(e toolkit.Event) {
	switch e.Kind {
	case toolkit.MouseReleased:
		if m.enabled && e.Buttons&toolkit.ButtonLeft != 0 {
			m.d.postTo(m, toolkit.Event{Kind: toolkit.ActionPerformed})
		}
	case toolkit.ActionPerformed:
		m.d.hidePopups()

		for _, fn := range m.actions {
			fn()
		}
	}

	m.node.handleEvent(e)
}

// Menu is a menu entry that cascades to a submenu when the pointer moves
// over it or it is pressed.
type Menu struct {
	MenuItem
	submenu *PopupMenu
}

// NewMenu creates a Menu with an empty submenu. The menu is the submenu's
// invoker from the start.
func (d *Desktop) NewMenu(name, text string) *Menu {
	m := &Menu{submenu: d.NewPopupMenu(name + "-popup")}
	m.MenuItem.text = text
	m.init(d, m, name, toolkit.Rect{})
	m.submenu.invoker = m

	return m
}

func (m *Menu) Kind() string { return "Menu" }

func (m *Menu) Popup() toolkit.PopupMenu { return m.submenu }

// Submenu returns the cascading popup for adding items.
func (m *Menu) Submenu() *PopupMenu { return m.submenu }

func (m *Menu) handleEvent(e toolkit.Event) {
	switch e.Kind {
	case toolkit.MouseMoved, toolkit.MousePressed:
		if m.enabled && m.IsShowing() {
			m.submenu.Show(m, toolkit.Pt(m.bounds.Width, 0))
		}
	}

	m.node.handleEvent(e)
}
