package toolkit

// Component is a node of the UI tree. All methods are dispatch-goroutine only.
type Component interface {
	Name() string
	// Parent returns nil for windows and popups.
	Parent() Container
	// Bounds are relative to the parent.
	Bounds() Rect
	IsShowing() bool
	IsEnabled() bool
	HasFocus() bool
	LocationOnScreen() Point
	// RequestFocusInWindow asks for focus within the owning window. It fails
	// when that window is not the active one.
	RequestFocusInWindow() bool
	// OnFocusGained registers fn and returns a function that removes it.
	OnFocusGained(fn Listener) (remove func())
}

// Container holds child components.
type Container interface {
	Component
	Children() []Component
}

// Window is a top-level container with its own native peer.
type Window interface {
	Container
	Pack()
	SetSize(s Size)
	SetVisible(v bool)
	ToFront()
	Dispose()
	IsActive() bool
	// IsDisplayable reports whether the window has a peer, i.e. it has been
	// shown and not yet disposed.
	IsDisplayable() bool
}

// PopupMenu is a transient menu. Its Invoker is the component it was shown for.
type PopupMenu interface {
	Container
	Invoker() Component
}

// Menu is a menu item that cascades to a submenu.
type Menu interface {
	Component
	Popup() PopupMenu
}

// Scrollable is a component that can scroll part of its content into view.
type Scrollable interface {
	Component
	// ScrollRectToVisible scrolls so that r, relative to this component, is
	// visible.
	ScrollRectToVisible(r Rect)
}

// AppletHost embeds a sub-applet that runs on its own event queue.
type AppletHost interface {
	Container
	AppletQueue() EventQueue
}

// EventQueue is a FIFO queue serviced by the dispatch goroutine.
type EventQueue interface {
	Name() string
	// InvokeLater appends fn to the tail of the queue.
	InvokeLater(fn func())
	// PostEvent appends e to the tail of the queue.
	PostEvent(e Event)
	// Pending reports whether anything is queued or mid-dispatch. Called from
	// the dispatch goroutine, the unit making the call is not counted.
	Pending() bool
}

// Runtime is the UI toolkit being driven.
type Runtime interface {
	// IsDispatchThread reports whether the caller runs on the dispatch goroutine.
	IsDispatchThread() bool
	SystemQueue() EventQueue
	// Queues returns the live queues. The set changes as sub-applets come and go.
	Queues() []EventQueue
	QueueOf(c Component) EventQueue
	// Windows is dispatch-goroutine only.
	Windows() []Window
	// Popups returns the popup menus currently showing. Dispatch-goroutine only.
	Popups() []PopupMenu
	// FocusOwner is dispatch-goroutine only.
	FocusOwner() Component
	// FocusFollowsPointer reports whether the platform moves focus with the pointer.
	FocusFollowsPointer() bool
	// AddGlobalListener observes hardware input and window lifecycle events. fn
	// may be called from any goroutine.
	AddGlobalListener(fn Listener) (remove func())
}
