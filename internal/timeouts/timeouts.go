// Package timeouts defines timeout and delay constants for driving a UI event loop,
// plus the Watch used by every bounded retry loop.
package timeouts

import "time"

const (
	// Window Lifecycle Timeouts

	// WindowOpenTimeout is the maximum time ShowWindow waits for a window to be
	// showing and for its event queue to be live after setVisible was scheduled.
	WindowOpenTimeout = 20 * time.Second

	// WindowReadyPollInterval is the delay between readiness checks while waiting
	// for a window or component to become ready for input.
	WindowReadyPollInterval = 100 * time.Millisecond

	// Popup Lookup

	// PopupPollInterval is the delay between lookups while waiting for an active
	// popup menu to appear.
	PopupPollInterval = 100 * time.Millisecond

	// SubmenuPollInterval is the delay between jitters over a cascading menu
	// while waiting for its submenu to show.
	SubmenuPollInterval = 20 * time.Millisecond

	// Focus

	// FocusPollInterval is the delay between checks of the transient focus listener
	// while waiting for a focus transfer to be confirmed.
	FocusPollInterval = 10 * time.Millisecond

	// Idle Detection

	// IdleRetryPause is the yield between two idle cycles when events arrived on a
	// queue while its marker was pending.
	IdleRetryPause = 10 * time.Millisecond

	// Input Injection

	// KeyReleaseSettleDelay is the extra delay after a key release on platforms
	// that need time to settle (darwin).
	KeyReleaseSettleDelay = 100 * time.Millisecond

	// MultiClickInterval is the window within which repeated presses of the same
	// button are grouped by the OS into a single multi-click gesture.
	MultiClickInterval = 200 * time.Millisecond

	// JitterDistance is the distance (in pixels) of the reversible mouse movement
	// used to coax a native peer, such as a cascading submenu, into showing.
	JitterDistance = 1

	// DragThreshold is the distance (in pixels) the pointer must travel with a button
	// held before the motion counts as a drag.
	DragThreshold = 5

	// Logging

	// WaitLogInterval throttles "still waiting" log lines emitted by poll loops.
	WaitLogInterval = 3 * time.Second
)
