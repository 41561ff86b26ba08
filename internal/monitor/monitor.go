// Package monitor tracks the live event queues and window lifecycle of a UI
// runtime.
package monitor

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// recentLimit bounds the cache of window events kept for late waiters.
const recentLimit = 256

// Monitor observes window lifecycle events through a global listener.
//
// A window is ready once it has been opened (or was already showing when the
// Monitor started) and the queue it dispatches on is one of the runtime's
// live queues.
type Monitor struct {
	rt  toolkit.Runtime
	log logger.LoggerInterface

	mu     sync.Mutex
	ready  map[toolkit.Window]bool
	opened []toolkit.Window
	recent []toolkit.Event
	subs   map[int]chan toolkit.Event
	nextID int

	remove func()
	once   sync.Once
}

// New starts a Monitor on rt. Windows already showing are marked ready.
func New(rt toolkit.Runtime, log logger.LoggerInterface) (*Monitor, error) {
	failure.MustNotBeNil(rt, "runtime")

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	m := &Monitor{
		rt:    rt,
		log:   log,
		ready: make(map[toolkit.Window]bool),
		subs:  make(map[int]chan toolkit.Event),
	}

	m.remove = rt.AddGlobalListener(m.observe)

	showing, err := uithread.Query(rt, func() []toolkit.Window {
		var out []toolkit.Window

		for _, w := range rt.Windows() {
			if w.IsShowing() {
				out = append(out, w)
			}
		}

		return out
	})
	if err != nil {
		m.Close()
		return nil, err
	}

	m.mu.Lock()
	for _, w := range showing {
		m.ready[w] = true
	}
	m.mu.Unlock()

	m.log.Debug("Window monitor started", slog.Int("showing", len(showing)))

	return m, nil
}

func (m *Monitor) observe(e toolkit.Event) {
	if !e.Kind.IsWindow() {
		return
	}

	w, ok := e.Source.(toolkit.Window)
	if !ok {
		return
	}

	m.mu.Lock()

	switch e.Kind {
	case toolkit.WindowOpened:
		if !m.ready[w] {
			m.opened = append(m.opened, w)
		}

		m.ready[w] = true
	case toolkit.WindowClosed:
		delete(m.ready, w)
		m.opened = slices.DeleteFunc(m.opened, func(o toolkit.Window) bool { return o == w })
	}

	m.recent = append(m.recent, e)
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}

	for _, ch := range m.subs {
		select {
		case ch <- e:
		default:
			m.log.Warn("window event buffer full, event dropped", slog.String("kind", e.Kind.String()))
		}
	}

	m.mu.Unlock()

	m.log.Trace("Window event", slog.String("kind", e.Kind.String()), slog.String("window", w.Name()))
}

// AllQueues returns the runtime's live queues.
func (m *Monitor) AllQueues() []toolkit.EventQueue {
	return m.rt.Queues()
}

// QueueOf returns the queue c dispatches on.
func (m *Monitor) QueueOf(c toolkit.Component) toolkit.EventQueue {
	return m.rt.QueueOf(c)
}

// IsWindowReady reports whether w has opened and its queue is live.
func (m *Monitor) IsWindowReady(w toolkit.Window) bool {
	if w == nil {
		return false
	}

	m.mu.Lock()
	ready := m.ready[w]
	m.mu.Unlock()

	if !ready {
		return false
	}

	q := m.rt.QueueOf(w)
	if q == nil {
		return false
	}

	return slices.Contains(m.rt.Queues(), q)
}

// OpenedWindows returns the windows opened since the Monitor started that have
// not closed yet, oldest first.
func (m *Monitor) OpenedWindows() []toolkit.Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.opened)
}

// WaitForEvent returns the most recent window event accepted by any matcher,
// or waits up to timeout for one to arrive.
func (m *Monitor) WaitForEvent(timeout time.Duration, matchers ...func(toolkit.Event) bool) (toolkit.Event, bool) {
	matches := func(e toolkit.Event) bool {
		for _, match := range matchers {
			if match(e) {
				return true
			}
		}

		return false
	}

	ch := make(chan toolkit.Event, recentLimit)

	// Subscribe before scanning the cache so nothing slips in between.
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch

	for i := len(m.recent) - 1; i >= 0; i-- {
		if matches(m.recent[i]) {
			e := m.recent[i]
			delete(m.subs, id)
			m.mu.Unlock()

			return e, true
		}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case e := <-ch:
			if matches(e) {
				return e, true
			}
		case <-timer.C:
			return toolkit.Event{}, false
		}
	}
}

// Close detaches the Monitor from the runtime.
func (m *Monitor) Close() {
	m.once.Do(func() {
		if m.remove != nil {
			m.remove()
		}

		m.log.Debug("Window monitor stopped")
	})
}

// OfKind matches window events of the given kind for w. A nil w matches any window.
func OfKind(kind toolkit.EventKind, w toolkit.Window) func(toolkit.Event) bool {
	return func(e toolkit.Event) bool {
		if e.Kind != kind {
			return false
		}

		return w == nil || e.Source == toolkit.Component(w)
	}
}
