// Package settings holds the tunables read by every automation operation.
package settings

import (
	"strings"
	"sync"
	"time"
)

// LookupScope controls which components a lookup considers.
type LookupScope string

const (
	ScopeDefault     LookupScope = "default"
	ScopeShowingOnly LookupScope = "showing_only"
	ScopeAll         LookupScope = "all"
)

// Clamp ranges, in milliseconds.
const (
	MinDelayBetweenEvents = 0
	MaxDelayBetweenEvents = 60000

	MinEventPostingDelay = 0
	MaxEventPostingDelay = 1000

	MinIdleTimeout = 0
	MaxIdleTimeout = 60000

	MinTimeout = 0
	MaxTimeout = 60000

	MinDragDelay = 0
	MaxDragDelay = 60000
)

// Defaults, in milliseconds.
const (
	DefaultDelayBetweenEvents   = 60
	DefaultEventPostingDelay    = 100
	DefaultIdleTimeout          = 10000
	DefaultTimeoutToBeVisible   = 30000
	DefaultTimeoutToFindPopup   = 30000
	DefaultTimeoutToFindSubMenu = 100
)

// Settings is safe for concurrent use. Operations read it before acting and never
// cache values, so changes take effect on the next operation.
type Settings struct {
	mu sync.RWMutex

	delayBetweenEvents   int
	eventPostingDelay    int
	idleTimeout          int
	timeoutToBeVisible   int
	timeoutToFindPopup   int
	timeoutToFindSubMenu int
	dragDelay            int
	dropDelay            int
	lookupScope          LookupScope
	simpleWaitForIdle    bool
	clickOnDisabled      bool
}

// New returns Settings populated with defaults.
func New() *Settings {
	return &Settings{
		delayBetweenEvents:   DefaultDelayBetweenEvents,
		eventPostingDelay:    DefaultEventPostingDelay,
		idleTimeout:          DefaultIdleTimeout,
		timeoutToBeVisible:   DefaultTimeoutToBeVisible,
		timeoutToFindPopup:   DefaultTimeoutToFindPopup,
		timeoutToFindSubMenu: DefaultTimeoutToFindSubMenu,
		lookupScope:          ScopeDefault,
		clickOnDisabled:      true,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (s *Settings) get(f func() int) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ms(f())
}

func (s *Settings) set(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f()
}

// DelayBetweenEvents is the pause after every injected input event.
func (s *Settings) DelayBetweenEvents() time.Duration {
	return s.get(func() int { return s.delayBetweenEvents })
}

// SetDelayBetweenEvents sets the pause after every injected event, clamped to [0, 60000] ms.
func (s *Settings) SetDelayBetweenEvents(ms int) {
	s.set(func() { s.delayBetweenEvents = clamp(ms, MinDelayBetweenEvents, MaxDelayBetweenEvents) })
}

// EventPostingDelay is the time the OS is given to deliver a native event to
// the UI queue before idle detection starts.
func (s *Settings) EventPostingDelay() time.Duration {
	return s.get(func() int { return s.eventPostingDelay })
}

// SetEventPostingDelay clamps to [0, 1000] ms.
func (s *Settings) SetEventPostingDelay(ms int) {
	s.set(func() { s.eventPostingDelay = clamp(ms, MinEventPostingDelay, MaxEventPostingDelay) })
}

// IdleTimeout bounds a single waitForIdle call.
func (s *Settings) IdleTimeout() time.Duration {
	return s.get(func() int { return s.idleTimeout })
}

// SetIdleTimeout clamps to [0, 60000] ms.
func (s *Settings) SetIdleTimeout(ms int) {
	s.set(func() { s.idleTimeout = clamp(ms, MinIdleTimeout, MaxIdleTimeout) })
}

// TimeoutToBeVisible bounds waits for components to show and for focus transfers.
func (s *Settings) TimeoutToBeVisible() time.Duration {
	return s.get(func() int { return s.timeoutToBeVisible })
}

// SetTimeoutToBeVisible clamps to [0, 60000] ms.
func (s *Settings) SetTimeoutToBeVisible(ms int) {
	s.set(func() { s.timeoutToBeVisible = clamp(ms, MinTimeout, MaxTimeout) })
}

// TimeoutToFindPopup bounds the lookup of an active popup menu.
func (s *Settings) TimeoutToFindPopup() time.Duration {
	return s.get(func() int { return s.timeoutToFindPopup })
}

// SetTimeoutToFindPopup clamps to [0, 60000] ms.
func (s *Settings) SetTimeoutToFindPopup(ms int) {
	s.set(func() { s.timeoutToFindPopup = clamp(ms, MinTimeout, MaxTimeout) })
}

// TimeoutToFindSubMenu bounds the wait for a cascading submenu to show.
func (s *Settings) TimeoutToFindSubMenu() time.Duration {
	return s.get(func() int { return s.timeoutToFindSubMenu })
}

// SetTimeoutToFindSubMenu clamps to [0, 60000] ms.
func (s *Settings) SetTimeoutToFindSubMenu(ms int) {
	s.set(func() { s.timeoutToFindSubMenu = clamp(ms, MinTimeout, MaxTimeout) })
}

// DragDelay is the pause after the pointer starts a drag.
func (s *Settings) DragDelay() time.Duration {
	return s.get(func() int { return s.dragDelay })
}

// SetDragDelay clamps to [0, 60000] ms.
func (s *Settings) SetDragDelay(ms int) {
	s.set(func() { s.dragDelay = clamp(ms, MinDragDelay, MaxDragDelay) })
}

// DropDelay is the pause before the button is released at the end of a drag.
func (s *Settings) DropDelay() time.Duration {
	return s.get(func() int { return s.dropDelay })
}

// SetDropDelay clamps to [0, 60000] ms.
func (s *Settings) SetDropDelay(ms int) {
	s.set(func() { s.dropDelay = clamp(ms, MinDragDelay, MaxDragDelay) })
}

// ComponentLookupScope returns the scope used by component lookups.
func (s *Settings) ComponentLookupScope() LookupScope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookupScope
}

// SetComponentLookupScope sets the lookup scope. Unknown values fall back to ScopeDefault.
func (s *Settings) SetComponentLookupScope(scope LookupScope) {
	s.set(func() { s.lookupScope = ParseLookupScope(string(scope)) })
}

// SimpleWaitForIdle reports whether idle detection only watches the system queue.
func (s *Settings) SimpleWaitForIdle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.simpleWaitForIdle
}

// SetSimpleWaitForIdle toggles the single-queue idle fast path.
func (s *Settings) SetSimpleWaitForIdle(v bool) {
	s.set(func() { s.simpleWaitForIdle = v })
}

// ClickOnDisabledComponentsAllowed reports whether clicks on disabled components are permitted.
func (s *Settings) ClickOnDisabledComponentsAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clickOnDisabled
}

// SetClickOnDisabledComponentsAllowed toggles clicking disabled components.
func (s *Settings) SetClickOnDisabledComponentsAllowed(v bool) {
	s.set(func() { s.clickOnDisabled = v })
}

// ParseLookupScope maps a string to a LookupScope, defaulting to ScopeDefault.
func ParseLookupScope(v string) LookupScope {
	switch LookupScope(strings.ToLower(strings.TrimSpace(v))) {
	case ScopeShowingOnly:
		return ScopeShowingOnly
	case ScopeAll:
		return ScopeAll
	default:
		return ScopeDefault
	}
}

// Snapshot is a point-in-time copy of Settings, used for display and loading.
type Snapshot struct {
	DelayBetweenEvents               int         `mapstructure:"delay_between_events"`
	EventPostingDelay                int         `mapstructure:"event_posting_delay"`
	IdleTimeout                      int         `mapstructure:"idle_timeout"`
	TimeoutToBeVisible               int         `mapstructure:"timeout_to_be_visible"`
	TimeoutToFindPopup               int         `mapstructure:"timeout_to_find_popup"`
	TimeoutToFindSubMenu             int         `mapstructure:"timeout_to_find_sub_menu"`
	DragDelay                        int         `mapstructure:"drag_delay"`
	DropDelay                        int         `mapstructure:"drop_delay"`
	ComponentLookupScope             LookupScope `mapstructure:"component_lookup_scope"`
	SimpleWaitForIdle                bool        `mapstructure:"simple_wait_for_idle"`
	ClickOnDisabledComponentsAllowed bool        `mapstructure:"click_on_disabled_components_allowed"`
}

// Snapshot returns the current values.
func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		DelayBetweenEvents:               s.delayBetweenEvents,
		EventPostingDelay:                s.eventPostingDelay,
		IdleTimeout:                      s.idleTimeout,
		TimeoutToBeVisible:               s.timeoutToBeVisible,
		TimeoutToFindPopup:               s.timeoutToFindPopup,
		TimeoutToFindSubMenu:             s.timeoutToFindSubMenu,
		DragDelay:                        s.dragDelay,
		DropDelay:                        s.dropDelay,
		ComponentLookupScope:             s.lookupScope,
		SimpleWaitForIdle:                s.simpleWaitForIdle,
		ClickOnDisabledComponentsAllowed: s.clickOnDisabled,
	}
}

// Apply sets every value from snap through the clamping setters.
func (s *Settings) Apply(snap Snapshot) {
	s.SetDelayBetweenEvents(snap.DelayBetweenEvents)
	s.SetEventPostingDelay(snap.EventPostingDelay)
	s.SetIdleTimeout(snap.IdleTimeout)
	s.SetTimeoutToBeVisible(snap.TimeoutToBeVisible)
	s.SetTimeoutToFindPopup(snap.TimeoutToFindPopup)
	s.SetTimeoutToFindSubMenu(snap.TimeoutToFindSubMenu)
	s.SetDragDelay(snap.DragDelay)
	s.SetDropDelay(snap.DropDelay)
	s.SetComponentLookupScope(snap.ComponentLookupScope)
	s.SetSimpleWaitForIdle(snap.SimpleWaitForIdle)
	s.SetClickOnDisabledComponentsAllowed(snap.ClickOnDisabledComponentsAllowed)
}
