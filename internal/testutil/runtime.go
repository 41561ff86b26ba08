package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// FakeQueue is a toolkit.EventQueue whose traffic can be inspected.
type FakeQueue struct {
	name string
	rt   *FakeRuntime

	mu          sync.Mutex
	items       []func()
	inFlight    bool
	invocations int
	events      []toolkit.Event
	posted      []toolkit.Event
}

func (q *FakeQueue) Name() string { return q.name }

func (q *FakeQueue) InvokeLater(fn func()) {
	q.mu.Lock()
	q.invocations++
	q.items = append(q.items, fn)
	q.mu.Unlock()

	q.rt.notify()
}

func (q *FakeQueue) PostEvent(e toolkit.Event) {
	q.mu.Lock()
	q.posted = append(q.posted, e)
	q.items = append(q.items, func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		q.events = append(q.events, e)
	})
	q.mu.Unlock()

	q.rt.notify()
}

// Pending counts a unit being run by DispatchNext, except from the dispatch
// goroutine itself.
func (q *FakeQueue) Pending() bool {
	onDispatch := q.rt.IsDispatchThread()

	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items) > 0 || (q.inFlight && !onDispatch)
}

// Len returns the number of queued items.
func (q *FakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Invocations returns how many units were posted with InvokeLater.
func (q *FakeQueue) Invocations() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.invocations
}

// Posted returns the events posted with PostEvent, dispatched or not.
func (q *FakeQueue) Posted() []toolkit.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]toolkit.Event(nil), q.posted...)
}

// Dispatched returns the posted events that have been dispatched.
func (q *FakeQueue) Dispatched() []toolkit.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]toolkit.Event(nil), q.events...)
}

// Pop removes and returns the head of the queue, or nil.
func (q *FakeQueue) Pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	fn := q.items[0]
	q.items = q.items[1:]

	return fn
}

func (q *FakeQueue) setInFlight(v bool) {
	q.mu.Lock()
	q.inFlight = v
	q.mu.Unlock()
}

// FakeRuntime is a toolkit.Runtime backed by FakeQueues.
//
// A runtime from NewFakeRuntime services its queues on its own goroutine. A
// runtime from NewManualRuntime has no loop: the goroutine that created it is
// the dispatch goroutine and drives dispatch with DispatchNext.
type FakeRuntime struct {
	mu        sync.Mutex
	queues    []*FakeQueue
	windows   []toolkit.Window
	focus     toolkit.Component
	listeners map[int]toolkit.Listener
	nextID    int

	pointerFocus bool
	dispatchID   atomic.Int64
	auto         bool

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

func newFakeRuntime() *FakeRuntime {
	r := &FakeRuntime{
		listeners: make(map[int]toolkit.Listener),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	r.queues = []*FakeQueue{{name: "system", rt: r}}

	return r
}

// NewFakeRuntime starts a runtime with its own dispatch goroutine. Call Close
// when done.
func NewFakeRuntime() *FakeRuntime {
	r := newFakeRuntime()
	r.auto = true
	started := make(chan struct{})

	go r.loop(started)
	<-started

	return r
}

// NewManualRuntime returns a runtime dispatched by the calling goroutine.
func NewManualRuntime() *FakeRuntime {
	r := newFakeRuntime()
	r.dispatchID.Store(goid.Get())

	return r
}

func (r *FakeRuntime) loop(started chan<- struct{}) {
	defer close(r.done)

	r.dispatchID.Store(goid.Get())
	close(started)

	for {
		if r.DispatchNext() {
			continue
		}

		select {
		case <-r.wake:
		case <-r.stop:
			return
		}
	}
}

func (r *FakeRuntime) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// DispatchNext runs one queued unit, scanning queues in order. It reports
// whether anything ran.
func (r *FakeRuntime) DispatchNext() bool {
	r.mu.Lock()
	queues := append([]*FakeQueue(nil), r.queues...)
	r.mu.Unlock()

	for _, q := range queues {
		if fn := q.Pop(); fn != nil {
			q.setInFlight(true)
			defer q.setInFlight(false)

			fn()

			return true
		}
	}

	return false
}

// Close stops the dispatch goroutine. Queued units are dropped.
func (r *FakeRuntime) Close() {
	r.stopped.Do(func() {
		close(r.stop)

		if r.auto {
			<-r.done
		}
	})
}

// Done is closed once the runtime has stopped.
func (r *FakeRuntime) Done() <-chan struct{} {
	return r.stop
}

// AddQueue registers an extra live queue.
func (r *FakeRuntime) AddQueue(name string) *FakeQueue {
	q := &FakeQueue{name: name, rt: r}

	r.mu.Lock()
	r.queues = append(r.queues, q)
	r.mu.Unlock()

	return q
}

// System returns the system queue.
func (r *FakeRuntime) System() *FakeQueue {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.queues[0]
}

// WithPointerFocus sets FocusFollowsPointer.
func (r *FakeRuntime) WithPointerFocus(v bool) *FakeRuntime {
	r.pointerFocus = v
	return r
}

// SetFocusOwner sets the value returned by FocusOwner.
func (r *FakeRuntime) SetFocusOwner(c toolkit.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.focus = c
}

// AddWindow registers w with Windows.
func (r *FakeRuntime) AddWindow(w toolkit.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.windows = append(r.windows, w)
}

// Emit delivers e to the global listeners on the calling goroutine.
func (r *FakeRuntime) Emit(e toolkit.Event) {
	r.mu.Lock()
	ls := make([]toolkit.Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		ls = append(ls, l)
	}
	r.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

func (r *FakeRuntime) IsDispatchThread() bool {
	return goid.Get() == r.dispatchID.Load()
}

func (r *FakeRuntime) SystemQueue() toolkit.EventQueue {
	return r.System()
}

func (r *FakeRuntime) Queues() []toolkit.EventQueue {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]toolkit.EventQueue, len(r.queues))
	for i, q := range r.queues {
		out[i] = q
	}

	return out
}

func (r *FakeRuntime) QueueOf(toolkit.Component) toolkit.EventQueue {
	return r.System()
}

func (r *FakeRuntime) Windows() []toolkit.Window {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]toolkit.Window(nil), r.windows...)
}

// Popups is always empty: FakeRuntime has no popup menus.
func (r *FakeRuntime) Popups() []toolkit.PopupMenu {
	return nil
}

func (r *FakeRuntime) FocusOwner() toolkit.Component {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.focus
}

func (r *FakeRuntime) FocusFollowsPointer() bool {
	return r.pointerFocus
}

func (r *FakeRuntime) AddGlobalListener(fn toolkit.Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.listeners, id)
	}
}

// NameGuard wraps a component and counts Name calls made off the dispatch
// goroutine.
type NameGuard struct {
	toolkit.Component

	rt        toolkit.Runtime
	offThread atomic.Int32
}

// GuardName wraps c.
func GuardName(rt toolkit.Runtime, c toolkit.Component) *NameGuard {
	return &NameGuard{Component: c, rt: rt}
}

func (g *NameGuard) Name() string {
	if !g.rt.IsDispatchThread() {
		g.offThread.Add(1)
	}

	return g.Component.Name()
}

// OffThreadCalls returns how many Name calls did not run on the dispatch goroutine.
func (g *NameGuard) OffThreadCalls() int {
	return int(g.offThread.Load())
}
