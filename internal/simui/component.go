package simui

import (
	"slices"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

type listenerSet struct {
	next    int
	entries []listenerEntry
}

func (s *listenerSet) add(fn toolkit.Listener) func() {
	id := s.next
	s.next++
	s.entries = append(s.entries, listenerEntry{id: id, fn: fn})

	return func() {
		s.entries = slices.DeleteFunc(s.entries, func(l listenerEntry) bool { return l.id == id })
	}
}

func (s *listenerSet) fire(e toolkit.Event) {
	for _, l := range slices.Clone(s.entries) {
		l.fn(e)
	}
}

type attacher interface {
	attach(parent toolkit.Container)
}

type focusable interface {
	isFocusable() bool
}

func canFocus(c toolkit.Component) bool {
	f, ok := c.(focusable)
	return ok && f.isFocusable()
}

// node is the state every component shares. self is the outer component,
// so shared methods can hand out the right identity.
type node struct {
	d         *Desktop
	self      toolkit.Component
	name      string
	parent    toolkit.Container
	bounds    toolkit.Rect
	visible   bool
	enabled   bool
	focusable bool
	popup     *PopupMenu

	listeners      listenerSet
	focusListeners listenerSet
}

func (n *node) init(d *Desktop, self toolkit.Component, name string, bounds toolkit.Rect) {
	n.d = d
	n.self = self
	n.name = name
	n.bounds = bounds
	n.visible = true
	n.enabled = true
}

func (n *node) Name() string { return n.name }

func (n *node) Parent() toolkit.Container { return n.parent }

func (n *node) attach(parent toolkit.Container) { n.parent = parent }

func (n *node) Bounds() toolkit.Rect { return n.bounds }

// SetBounds moves and resizes the component within its parent.
func (n *node) SetBounds(r toolkit.Rect) { n.bounds = r }

func (n *node) IsShowing() bool {
	return n.visible && n.parent != nil && n.parent.IsShowing()
}

// SetVisible hides or shows the component within its parent.
func (n *node) SetVisible(v bool) { n.visible = v }

func (n *node) IsEnabled() bool { return n.enabled }

func (n *node) SetEnabled(v bool) { n.enabled = v }

func (n *node) HasFocus() bool { return n.d.focus == n.self }

func (n *node) isFocusable() bool { return n.focusable && n.enabled }

func (n *node) LocationOnScreen() toolkit.Point {
	return contentOrigin(n.parent).Add(n.bounds.Location())
}

func (n *node) RequestFocusInWindow() bool {
	return n.d.requestFocus(n.self)
}

func (n *node) OnFocusGained(fn toolkit.Listener) func() {
	return n.focusListeners.add(fn)
}

// AddListener observes every component event delivered to the component.
func (n *node) AddListener(fn toolkit.Listener) func() {
	return n.listeners.add(fn)
}

// SetPopupMenu makes a right press on the component show p.
func (n *node) SetPopupMenu(p *PopupMenu) { n.popup = p }

func (n *node) handleEvent(e toolkit.Event) {
	if e.Kind == toolkit.FocusGained {
		n.focusListeners.fire(e)
	}

	n.listeners.fire(e)
}

type originer interface {
	contentOrigin() toolkit.Point
}

// contentOrigin is the screen position children of c are laid out from.
func contentOrigin(c toolkit.Container) toolkit.Point {
	if c == nil {
		return toolkit.Point{}
	}

	if o, ok := c.(originer); ok {
		return o.contentOrigin()
	}

	return c.LocationOnScreen()
}

type container struct {
	node
	children []toolkit.Component
}

func (c *container) Children() []toolkit.Component {
	return slices.Clone(c.children)
}

func (c *container) add(children ...toolkit.Component) {
	parent, _ := c.self.(toolkit.Container)

	for _, child := range children {
		if a, ok := child.(attacher); ok {
			a.attach(parent)
		}

		c.children = append(c.children, child)
	}
}

// contentSize is the extent of the children.
func (c *container) contentSize() toolkit.Size {
	var u toolkit.Rect
	for _, child := range c.children {
		u = u.Union(child.Bounds())
	}

	return toolkit.Size{Width: u.X + u.Width, Height: u.Y + u.Height}
}

// Panel groups components. With scrolling enabled its bounds act as a
// viewport onto content that may be larger.
type Panel struct {
	container
	scrolling bool
	offset    toolkit.Point
}

// NewPanel creates a Panel.
func (d *Desktop) NewPanel(name string, bounds toolkit.Rect) *Panel {
	p := &Panel{}
	p.init(d, p, name, bounds)

	return p
}

func (p *Panel) Kind() string { return "Panel" }

// Add appends children.
func (p *Panel) Add(children ...toolkit.Component) *Panel {
	p.add(children...)
	return p
}

// EnableScrolling turns the panel into a viewport.
func (p *Panel) EnableScrolling() *Panel {
	p.scrolling = true
	return p
}

// ScrollOffset returns how far the content is scrolled.
func (p *Panel) ScrollOffset() toolkit.Point { return p.offset }

func (p *Panel) contentOrigin() toolkit.Point {
	return p.LocationOnScreen().Sub(p.offset)
}

// ScrollRectToVisible scrolls so that r, in viewport coordinates, is visible.
func (p *Panel) ScrollRectToVisible(r toolkit.Rect) {
	if !p.scrolling {
		return
	}

	view := p.bounds.Size()

	dx := scrollDelta(r.X, r.Width, view.Width)
	dy := scrollDelta(r.Y, r.Height, view.Height)

	p.scrollTo(p.offset.Add(toolkit.Pt(dx, dy)))
}

func scrollDelta(pos, extent, view int) int {
	switch {
	case pos < 0:
		return pos
	case pos+extent > view:
		return min(pos+extent-view, pos)
	}

	return 0
}

func (p *Panel) scrollBy(dy int) {
	if p.scrolling {
		p.scrollTo(p.offset.Add(toolkit.Pt(0, dy)))
	}
}

func (p *Panel) scrollTo(off toolkit.Point) {
	content := p.contentSize()
	view := p.bounds.Size()

	off.X = max(0, min(off.X, content.Width-view.Width))
	off.Y = max(0, min(off.Y, content.Height-view.Height))

	p.offset = off
}

// Label shows text.
type Label struct {
	node
	text string
}

// NewLabel creates a Label.
func (d *Desktop) NewLabel(name, text string, bounds toolkit.Rect) *Label {
	l := &Label{text: text}
	l.init(d, l, name, bounds)

	return l
}

func (l *Label) Kind() string { return "Label" }

func (l *Label) Text() string { return l.text }

func (l *Label) SetText(s string) { l.text = s }

// Applet is a container whose components dispatch on a queue of their own.
type Applet struct {
	container
	queue *Queue
}

// NewApplet creates an Applet and registers its queue.
func (d *Desktop) NewApplet(name string, bounds toolkit.Rect) *Applet {
	a := &Applet{queue: d.newQueue("applet-" + name)}
	a.init(d, a, name, bounds)

	return a
}

func (a *Applet) Kind() string { return "Applet" }

// Add appends children.
func (a *Applet) Add(children ...toolkit.Component) *Applet {
	a.add(children...)
	return a
}

func (a *Applet) AppletQueue() toolkit.EventQueue { return a.queue }

// Destroy unregisters the applet's queue. Pending units move to the system queue.
func (a *Applet) Destroy() {
	if a.queue.isLive() {
		a.d.removeQueue(a.queue)
	}
}
