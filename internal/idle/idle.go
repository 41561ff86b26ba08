// Package idle blocks a driver goroutine until the UI has drained its queues.
//
// A marker unit is posted to the tail of each live queue. Once the marker
// runs, everything posted before it has been dispatched, but dispatching may
// have queued more work, so the queue is checked again: if it is not empty the
// cycle repeats after a short pause. Every wait is bounded by the configured
// idle timeout. A component that re-posts work to itself forever keeps the
// queue busy, and WaitForIdle then returns when the timeout expires.
package idle

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// QueueSource enumerates the live event queues.
type QueueSource interface {
	AllQueues() []toolkit.EventQueue
}

type stoppable interface {
	Done() <-chan struct{}
}

// Report describes one WaitForIdle call.
type Report struct {
	Queues   int
	Cycles   int
	TimedOut bool
	Elapsed  time.Duration
}

// Waiter implements interfaces.IdleWaiter.
type Waiter struct {
	rt       toolkit.Runtime
	settings *settings.Settings
	log      logger.LoggerInterface
	sleep    interfaces.Sleeper
	source   QueueSource
	waitLog  *rate.Sometimes
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithSleeper replaces time.Sleep for the pre-delay and the retry pause.
func WithSleeper(fn interfaces.Sleeper) Option {
	return func(w *Waiter) { w.sleep = fn }
}

// WithQueueSource makes full mode wait on the queues source reports instead
// of Runtime.Queues.
func WithQueueSource(src QueueSource) Option {
	return func(w *Waiter) { w.source = src }
}

// NewWaiter creates a Waiter for rt.
func NewWaiter(rt toolkit.Runtime, s *settings.Settings, log logger.LoggerInterface, opts ...Option) *Waiter {
	failure.MustNotBeNil(rt, "runtime")
	failure.MustNotBeNil(s, "settings")

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	w := &Waiter{
		rt:       rt,
		settings: s,
		log:      log,
		sleep:    time.Sleep,
		waitLog:  &rate.Sometimes{Interval: timeouts.WaitLogInterval},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WaitForIdle blocks until every live queue has been observed empty right
// after its marker ran, or until the idle timeout expires. It panics with
// *failure.IllegalThreadStateError on the dispatch goroutine.
func (w *Waiter) WaitForIdle() {
	w.Wait()
}

// Wait is WaitForIdle returning what happened.
func (w *Waiter) Wait() Report {
	uithread.CheckNotOnUIThread(w.rt, "WaitForIdle")

	if pre := w.settings.EventPostingDelay() - w.settings.DelayBetweenEvents(); pre > 0 {
		w.sleep(pre)
	}

	watch := timeouts.StartWatch(w.settings.IdleTimeout())

	if w.settings.SimpleWaitForIdle() {
		ok, _ := w.waitForMarker(w.rt.SystemQueue(), watch.Remaining())

		return Report{Queues: 1, Cycles: 1, TimedOut: !ok, Elapsed: watch.Elapsed()}
	}

	queues := w.queues()
	results := make([]queueResult, len(queues))

	var g errgroup.Group

	for i, q := range queues {
		g.Go(func() error {
			results[i] = w.drain(q, watch)
			return nil
		})
	}

	_ = g.Wait()

	report := Report{Queues: len(queues), Elapsed: watch.Elapsed()}
	for _, r := range results {
		report.Cycles += r.cycles
		report.TimedOut = report.TimedOut || !r.idle
	}

	w.log.Trace("Wait for idle finished",
		slog.Int("queues", report.Queues),
		slog.Int("cycles", report.Cycles),
		slog.Bool("timedOut", report.TimedOut),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report
}

func (w *Waiter) queues() []toolkit.EventQueue {
	if w.source != nil {
		if qs := w.source.AllQueues(); len(qs) > 0 {
			return qs
		}
	}

	if qs := w.rt.Queues(); len(qs) > 0 {
		return qs
	}

	return []toolkit.EventQueue{w.rt.SystemQueue()}
}

type queueResult struct {
	cycles int
	idle   bool
}

// drain runs marker cycles on q until q is empty right after a marker ran.
func (w *Waiter) drain(q toolkit.EventQueue, watch *timeouts.Watch) queueResult {
	var res queueResult

	for {
		ran, pending := w.waitForMarker(q, watch.Remaining())
		if !ran {
			w.log.Trace("Idle wait timed out", slog.String("queue", q.Name()), slog.Int("cycles", res.cycles))
			return res
		}

		res.cycles++

		if !pending {
			res.idle = true
			return res
		}

		if watch.IsTimeOut() {
			return res
		}

		w.waitLog.Do(func() {
			w.log.Debug("Still waiting for queue to drain",
				slog.String("queue", q.Name()),
				slog.Int("cycles", res.cycles),
				slog.Duration("elapsed", watch.Elapsed()),
			)
		})

		w.sleep(timeouts.IdleRetryPause)
	}
}

// waitForMarker posts a marker to q and waits up to timeout for it to run.
// pending is sampled by the marker itself, so a unit taken off q after the
// marker returns is still seen.
func (w *Waiter) waitForMarker(q toolkit.EventQueue, timeout time.Duration) (ran, pending bool) {
	if timeout <= 0 {
		return false, false
	}

	done := make(chan bool, 1)
	q.InvokeLater(func() { done <- q.Pending() })

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var stopped <-chan struct{}
	if s, ok := w.rt.(stoppable); ok {
		stopped = s.Done()
	}

	select {
	case pending = <-done:
		return true, pending
	case <-timer.C:
		return false, false
	case <-stopped:
		return false, false
	}
}
