package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// InjectedEvent is one call made on a MockInjector.
type InjectedEvent struct {
	Op      string
	X, Y    int
	Buttons toolkit.Buttons
	Key     toolkit.KeyCode
	Amount  int
}

func (e InjectedEvent) String() string {
	switch e.Op {
	case "move":
		return fmt.Sprintf("move(%d,%d)", e.X, e.Y)
	case "press", "release":
		return fmt.Sprintf("%s(%s)", e.Op, e.Buttons)
	case "wheel":
		return fmt.Sprintf("wheel(%d)", e.Amount)
	default:
		return fmt.Sprintf("%s(%s)", e.Op, e.Key)
	}
}

// Helpers for building expected sequences.
func Move(x, y int) InjectedEvent { return InjectedEvent{Op: "move", X: x, Y: y} }

func Press(b toolkit.Buttons) InjectedEvent { return InjectedEvent{Op: "press", Buttons: b} }

func Release(b toolkit.Buttons) InjectedEvent { return InjectedEvent{Op: "release", Buttons: b} }

func Wheel(n int) InjectedEvent { return InjectedEvent{Op: "wheel", Amount: n} }

func KeyDown(k toolkit.KeyCode) InjectedEvent { return InjectedEvent{Op: "keydown", Key: k} }

func KeyUp(k toolkit.KeyCode) InjectedEvent { return InjectedEvent{Op: "keyup", Key: k} }

// MockInjector implements interfaces.Injector and records every call.
type MockInjector struct {
	mu        sync.Mutex
	screen    toolkit.Rect
	screenErr error
	keyErrors map[toolkit.KeyCode]error
	upErrors  map[toolkit.KeyCode]error
	releases  map[toolkit.KeyCode]int
	onEvent   func(InjectedEvent)
	Calls     []InjectedEvent
}

func NewMockInjector() *MockInjector {
	return &MockInjector{
		screen:    toolkit.Rect{Width: 1920, Height: 1080},
		keyErrors: make(map[toolkit.KeyCode]error),
		upErrors:  make(map[toolkit.KeyCode]error),
		releases:  make(map[toolkit.KeyCode]int),
		Calls:     []InjectedEvent{},
	}
}

// WithScreen sets the rectangle returned by ScreenBounds.
func (m *MockInjector) WithScreen(r toolkit.Rect) *MockInjector {
	m.screen = r
	return m
}

// WithScreenError makes ScreenBounds fail.
func (m *MockInjector) WithScreenError(err error) *MockInjector {
	m.screenErr = err
	return m
}

// WithKeyError makes KeyPress reject code with err.
func (m *MockInjector) WithKeyError(code toolkit.KeyCode, err error) *MockInjector {
	m.keyErrors[code] = err
	return m
}

// WithKeyReleaseError makes KeyRelease fail for code with err.
func (m *MockInjector) WithKeyReleaseError(code toolkit.KeyCode, err error) *MockInjector {
	m.upErrors[code] = err
	return m
}

// OnEvent registers fn to observe each recorded call.
func (m *MockInjector) OnEvent(fn func(InjectedEvent)) *MockInjector {
	m.onEvent = fn
	return m
}

func (m *MockInjector) Name() string { return "mock" }

func (m *MockInjector) record(e InjectedEvent) {
	m.mu.Lock()
	m.Calls = append(m.Calls, e)
	fn := m.onEvent
	m.mu.Unlock()

	if fn != nil {
		fn(e)
	}
}

func (m *MockInjector) MouseMove(x, y int) error {
	m.record(Move(x, y))
	return nil
}

func (m *MockInjector) MousePress(b toolkit.Buttons) error {
	m.record(Press(b))
	return nil
}

func (m *MockInjector) MouseRelease(b toolkit.Buttons) error {
	m.record(Release(b))
	return nil
}

func (m *MockInjector) MouseWheel(amount int) error {
	m.record(Wheel(amount))
	return nil
}

func (m *MockInjector) KeyPress(code toolkit.KeyCode) error {
	m.mu.Lock()
	err := m.keyErrors[code]
	m.mu.Unlock()

	if err != nil {
		return err
	}

	m.record(KeyDown(code))

	return nil
}

func (m *MockInjector) KeyRelease(code toolkit.KeyCode) error {
	m.mu.Lock()
	m.releases[code]++
	err := m.upErrors[code]
	m.mu.Unlock()

	if err != nil {
		return err
	}

	m.record(KeyUp(code))

	return nil
}

// ReleaseAttempts returns how many times KeyRelease was called for code,
// failed calls included.
func (m *MockInjector) ReleaseAttempts(code toolkit.KeyCode) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.releases[code]
}

func (m *MockInjector) ScreenBounds() (toolkit.Rect, error) {
	return m.screen, m.screenErr
}

// Recorded returns a copy of the recorded calls.
func (m *MockInjector) Recorded() []InjectedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]InjectedEvent(nil), m.Calls...)
}

// Reset clears the recorded calls.
func (m *MockInjector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = []InjectedEvent{}
}

// MockWaiter implements interfaces.IdleWaiter and counts calls.
type MockWaiter struct {
	mu    sync.Mutex
	calls int
	hook  func()
}

func NewMockWaiter() *MockWaiter {
	return &MockWaiter{}
}

// WithHook runs fn on every WaitForIdle call.
func (m *MockWaiter) WithHook(fn func()) *MockWaiter {
	m.hook = fn
	return m
}

func (m *MockWaiter) WaitForIdle() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.hook != nil {
		m.hook()
	}
}

// Calls returns the number of WaitForIdle calls.
func (m *MockWaiter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// SleepRecorder records requested sleeps without sleeping.
type SleepRecorder struct {
	mu     sync.Mutex
	Sleeps []time.Duration
}

func NewSleepRecorder() *SleepRecorder {
	return &SleepRecorder{Sleeps: []time.Duration{}}
}

func (s *SleepRecorder) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Sleeps = append(s.Sleeps, d)
}

// Recorded returns a copy of the recorded sleeps.
func (s *SleepRecorder) Recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.Sleeps...)
}
