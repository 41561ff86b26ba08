package toolkit

import "time"

// EventKind identifies an Event.
type EventKind int

const (
	MouseMoved EventKind = iota + 1
	MouseDragged
	MousePressed
	MouseReleased
	MouseClicked
	MouseWheel
	KeyPressed
	KeyReleased
	KeyTyped
	FocusGained
	FocusLost
	WindowOpened
	WindowActivated
	WindowDeactivated
	WindowClosing
	WindowClosed
	ActionPerformed
	PopupShown
	PopupHidden
)

var kindNames = map[EventKind]string{
	MouseMoved:        "MouseMoved",
	MouseDragged:      "MouseDragged",
	MousePressed:      "MousePressed",
	MouseReleased:     "MouseReleased",
	MouseClicked:      "MouseClicked",
	MouseWheel:        "MouseWheel",
	KeyPressed:        "KeyPressed",
	KeyReleased:       "KeyReleased",
	KeyTyped:          "KeyTyped",
	FocusGained:       "FocusGained",
	FocusLost:         "FocusLost",
	WindowOpened:      "WindowOpened",
	WindowActivated:   "WindowActivated",
	WindowDeactivated: "WindowDeactivated",
	WindowClosing:     "WindowClosing",
	WindowClosed:      "WindowClosed",
	ActionPerformed:   "ActionPerformed",
	PopupShown:        "PopupShown",
	PopupHidden:       "PopupHidden",
}

func (k EventKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "Unknown"
}

// IsMouse reports whether k is a pointer event.
func (k EventKind) IsMouse() bool {
	return k >= MouseMoved && k <= MouseWheel
}

// IsKey reports whether k is a keyboard event.
func (k EventKind) IsKey() bool {
	return k >= KeyPressed && k <= KeyTyped
}

// IsWindow reports whether k is a window lifecycle event.
func (k EventKind) IsWindow() bool {
	return k >= WindowOpened && k <= WindowClosed
}

// Event is a UI event. Hardware events have a nil Source and a screen Point;
// component events carry their Source and a Point relative to it.
type Event struct {
	Kind          EventKind
	Source        Component
	Point         Point
	Buttons       Buttons
	Key           KeyCode
	Char          rune
	Modifiers     Modifiers
	ClickCount    int
	WheelRotation int
	When          time.Time
}

// Listener receives events.
type Listener func(Event)
