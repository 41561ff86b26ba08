// Package simui is an in-process UI runtime with a single dispatch goroutine.
//
// A Desktop owns a system queue plus one queue per Applet, serviced round
// robin by its dispatch goroutine. Its Injector plays the part of the OS:
// hardware events go to global listeners on the calling goroutine and are then
// posted to the system queue as native events, where they are hit-tested and
// turned into component events. Those are posted again, to the queue of the
// component they target, so handling one event routinely queues more.
//
// Component methods are dispatch-goroutine only, like any single-threaded
// toolkit. Build a component tree before showing it, then touch it through
// package uithread.
package simui

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// Queue is a FIFO queue serviced by the Desktop's dispatch goroutine.
type Queue struct {
	name string
	d    *Desktop

	mu       sync.Mutex
	items    []func()
	inFlight bool
	dead     bool
}

func (q *Queue) Name() string { return q.name }

// InvokeLater appends fn to the queue. Units posted to a destroyed queue run
// on the system queue.
func (q *Queue) InvokeLater(fn func()) {
	q.mu.Lock()
	if q.dead {
		q.mu.Unlock()
		q.d.log.Trace("Redirected unit posted to destroyed queue", slog.String("queue", q.name))
		q.d.system.InvokeLater(fn)

		return
	}

	q.items = append(q.items, fn)
	q.mu.Unlock()

	q.d.notify()
}

// PostEvent appends e to the queue.
func (q *Queue) PostEvent(e toolkit.Event) {
	q.InvokeLater(func() { q.d.dispatch(e) })
}

// Pending reports whether units are queued or one is being dispatched. On the
// dispatch goroutine the running unit is the caller and does not count.
func (q *Queue) Pending() bool {
	onDispatch := q.d.IsDispatchThread()

	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items) > 0 || (q.inFlight && !onDispatch)
}

func (q *Queue) pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}

	fn := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.inFlight = true

	return fn
}

func (q *Queue) finish() {
	q.mu.Lock()
	q.inFlight = false
	q.mu.Unlock()
}

// destroy marks q dead and returns what was still pending.
func (q *Queue) destroy() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.dead = true
	items := q.items
	q.items = nil

	return items
}

func (q *Queue) isLive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return !q.dead
}

type listenerEntry struct {
	id int
	fn toolkit.Listener
}

// Option configures a Desktop.
type Option func(*Desktop)

// WithScreen sets the screen rectangle. The default is 1920x1080.
func WithScreen(r toolkit.Rect) Option {
	return func(d *Desktop) { d.screen = r }
}

// WithLogger sets the logger.
func WithLogger(log logger.LoggerInterface) Option {
	return func(d *Desktop) { d.log = log }
}

// WithFocusFollowsPointer makes the Desktop report pointer-driven focus.
func WithFocusFollowsPointer() Option {
	return func(d *Desktop) { d.focusFollowsPointer = true }
}

// Desktop is a simulated UI runtime. It implements toolkit.Runtime.
type Desktop struct {
	log                 logger.LoggerInterface
	screen              toolkit.Rect
	focusFollowsPointer bool
	system              *Queue
	injector            *Injector

	mu        sync.Mutex
	queues    []*Queue
	next      int
	listeners []listenerEntry
	nextID    int

	dispatchID atomic.Int64
	wake       chan struct{}
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	// Dispatch goroutine only.
	windows []*Window
	popups  []*PopupMenu
	focus   toolkit.Component
	active  *Window
	press   pressState
}

// NewDesktop starts a Desktop. Call Close to stop its dispatch goroutine.
func NewDesktop(opts ...Option) *Desktop {
	d := &Desktop{
		log:    logger.NewNoOpLogger(),
		screen: toolkit.Rect{Width: 1920, Height: 1080},
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.system = &Queue{name: "system", d: d}
	d.queues = []*Queue{d.system}
	d.injector = &Injector{d: d}

	started := make(chan struct{})
	go d.loop(started)
	<-started

	return d
}

func (d *Desktop) loop(started chan<- struct{}) {
	defer close(d.done)

	d.dispatchID.Store(goid.Get())
	close(started)

	d.log.Debug("Dispatch loop started")

	for {
		select {
		case <-d.stop:
			d.log.Debug("Dispatch loop stopped")
			return
		default:
		}

		if q, fn := d.nextUnit(); fn != nil {
			d.run(fn)
			q.finish()

			continue
		}

		select {
		case <-d.wake:
		case <-d.stop:
			d.log.Debug("Dispatch loop stopped")
			return
		}
	}
}

// nextUnit pops from the live queues round robin.
func (d *Desktop) nextUnit() (*Queue, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.queues)
	for i := 0; i < n; i++ {
		idx := (d.next + i) % n
		q := d.queues[idx]

		if fn := q.pop(); fn != nil {
			d.next = (idx + 1) % n
			return q, fn
		}
	}

	return nil, nil
}

func (d *Desktop) run(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			d.log.Error("Dispatched unit panicked", slog.Any("panic", p))
		}
	}()

	fn()
}

func (d *Desktop) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops the dispatch goroutine. Queued units never run.
func (d *Desktop) Close() {
	d.stopOnce.Do(func() {
		close(d.stop)
		<-d.done
	})
}

// Done is closed once Close has been called.
func (d *Desktop) Done() <-chan struct{} {
	return d.stop
}

// Injector returns the Desktop's OS input injector.
func (d *Desktop) Injector() *Injector {
	return d.injector
}

// System returns the system queue.
func (d *Desktop) System() *Queue {
	return d.system
}

func (d *Desktop) newQueue(name string) *Queue {
	q := &Queue{name: name, d: d}

	d.mu.Lock()
	d.queues = append(d.queues, q)
	d.mu.Unlock()

	d.log.Debug("Event queue created", slog.String("queue", name))

	return q
}

// removeQueue unregisters q. Its pending units move to the system queue.
func (d *Desktop) removeQueue(q *Queue) {
	pending := q.destroy()

	d.mu.Lock()
	for i, cur := range d.queues {
		if cur == q {
			d.queues = append(d.queues[:i], d.queues[i+1:]...)
			break
		}
	}

	d.next = 0
	d.mu.Unlock()

	for _, fn := range pending {
		d.system.InvokeLater(fn)
	}

	d.log.Debug("Event queue destroyed", slog.String("queue", q.name), slog.Int("pending", len(pending)))
}

func (d *Desktop) IsDispatchThread() bool {
	return goid.Get() == d.dispatchID.Load()
}

func (d *Desktop) SystemQueue() toolkit.EventQueue {
	return d.system
}

func (d *Desktop) Queues() []toolkit.EventQueue {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]toolkit.EventQueue, len(d.queues))
	for i, q := range d.queues {
		out[i] = q
	}

	return out
}

// QueueOf returns the queue of the nearest live Applet above c, or the
// system queue.
func (d *Desktop) QueueOf(c toolkit.Component) toolkit.EventQueue {
	for cur := c; cur != nil; {
		if a, ok := cur.(*Applet); ok && a.queue.isLive() {
			return a.queue
		}

		if p, ok := cur.(toolkit.PopupMenu); ok && p.Invoker() != nil {
			cur = p.Invoker()
			continue
		}

		parent := cur.Parent()
		if parent == nil {
			break
		}

		cur = parent
	}

	return d.system
}

func (d *Desktop) Windows() []toolkit.Window {
	out := make([]toolkit.Window, len(d.windows))
	for i, w := range d.windows {
		out[i] = w
	}

	return out
}

func (d *Desktop) Popups() []toolkit.PopupMenu {
	out := make([]toolkit.PopupMenu, len(d.popups))
	for i, p := range d.popups {
		out[i] = p
	}

	return out
}

func (d *Desktop) FocusOwner() toolkit.Component {
	return d.focus
}

func (d *Desktop) FocusFollowsPointer() bool {
	return d.focusFollowsPointer
}

func (d *Desktop) AddGlobalListener(fn toolkit.Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.listeners = append(d.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

func (d *Desktop) emitGlobal(e toolkit.Event) {
	d.mu.Lock()
	ls := make([]toolkit.Listener, len(d.listeners))
	for i, l := range d.listeners {
		ls[i] = l.fn
	}
	d.mu.Unlock()

	for _, fn := range ls {
		fn(e)
	}
}

type eventHandler interface {
	handleEvent(e toolkit.Event)
}

// dispatch delivers e on the dispatch goroutine.
func (d *Desktop) dispatch(e toolkit.Event) {
	if e.Source == nil {
		d.handleNative(e)
		return
	}

	if e.Kind.IsWindow() {
		d.emitGlobal(e)
	}

	if h, ok := e.Source.(eventHandler); ok {
		h.handleEvent(e)
	}
}

// postTo queues e for c on c's queue.
func (d *Desktop) postTo(c toolkit.Component, e toolkit.Event) {
	e.Source = c
	if e.When.IsZero() {
		e.When = now()
	}

	d.QueueOf(c).PostEvent(e)
}
