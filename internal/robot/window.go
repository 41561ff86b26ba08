package robot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/monitor"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// ShowWindow packs w if asked, applies size unless it is zero and makes w
// visible, then waits until w is showing and its queue is live. It fails with
// *failure.WaitTimedOutError after timeouts.WindowOpenTimeout.
func (r *Robot) ShowWindow(w toolkit.Window, size toolkit.Size, pack bool) error {
	failure.MustNotBeNil(w, "window")

	desc := uithread.Describe(r.rt, w)

	// setVisible may block on native peer creation, so it is not waited for.
	uithread.ExecuteNoResult(r.rt, func() {
		if pack {
			w.Pack()
		}

		if size != (toolkit.Size{}) {
			w.SetSize(size)
		}

		w.SetVisible(true)
	})

	var showing, ready bool

	err := r.poll(desc+" to open", timeouts.WindowOpenTimeout, timeouts.WindowReadyPollInterval,
		func() (bool, error) {
			var err error

			showing, err = uithread.Query(r.rt, w.IsShowing)
			if err != nil {
				return false, err
			}

			ready = r.monitor.IsWindowReady(w)

			return showing && ready, nil
		},
		nil,
		func() string { return fmt.Sprintf("showing=%t ready=%t", showing, ready) },
	)
	if err != nil {
		return r.wrap("show window", w, err)
	}

	r.log.Debug("Window shown", slog.String("window", desc))
	r.waiter.WaitForIdle()

	return nil
}

// CloseWindow asks w to close by posting WindowClosing to the queue it
// dispatches on. When w embeds an applet the event goes to the applet's
// queue so shutdown runs there. If w goes away, CloseWindow waits for its
// WindowClosed event; a window that vetoes the request is left open.
func (r *Robot) CloseWindow(w toolkit.Window) error {
	failure.MustNotBeNil(w, "window")

	type target struct {
		queue toolkit.EventQueue
		desc  string
		open  bool
	}

	dest, err := uithread.Query(r.rt, func() target {
		var host toolkit.AppletHost

		toolkit.Walk(w, func(c toolkit.Component) bool {
			if host != nil {
				return false
			}

			if h, ok := c.(toolkit.AppletHost); ok && c != toolkit.Component(w) {
				host = h
				return false
			}

			return true
		})

		t := target{queue: r.rt.QueueOf(w), desc: toolkit.Describe(w), open: w.IsDisplayable()}
		if host != nil {
			t.queue = host.AppletQueue()
		}

		return t
	})
	if err != nil {
		return r.wrap("close window", w, err)
	}

	q := dest.queue

	r.log.Debug("Posting window closing", slog.String("window", dest.desc), slog.String("queue", q.Name()))

	posted := time.Now()
	q.PostEvent(toolkit.Event{Kind: toolkit.WindowClosing, Source: w, When: posted})
	r.waiter.WaitForIdle()

	if !dest.open {
		return nil
	}

	stillOpen, err := uithread.Query(r.rt, w.IsDisplayable)
	if err != nil {
		return r.wrap("close window", w, err)
	}

	if stillOpen {
		r.log.Debug("Window stayed open", slog.String("window", dest.desc))
		return nil
	}

	closedOf := monitor.OfKind(toolkit.WindowClosed, w)

	watch := timeouts.StartWatch(r.settings.IdleTimeout())
	if _, ok := r.monitor.WaitForEvent(watch.Remaining(), func(e toolkit.Event) bool {
		return closedOf(e) && !e.When.Before(posted)
	}); !ok {
		return r.wrap("close window", w, &failure.WaitTimedOutError{Op: "WindowClosed", Elapsed: watch.Elapsed()})
	}

	return nil
}

// IsReadyForInput reports whether c is showing and its window is ready.
func (r *Robot) IsReadyForInput(c toolkit.Component) (bool, error) {
	failure.MustNotBeNil(c, "component")

	type snapshot struct {
		showing bool
		window  toolkit.Window
	}

	s, err := uithread.Query(r.rt, func() snapshot {
		return snapshot{showing: c.IsShowing(), window: toolkit.WindowAncestor(c)}
	})
	if err != nil {
		return false, err
	}

	return s.showing && r.monitor.IsWindowReady(s.window), nil
}

// WaitForComponentToBeReady polls until c is ready for input. A submenu gets
// the pointer jittered over its invoker between checks, since cascading menus
// often need motion rather than time to appear, and is waited for at least
// as long as the submenu timeout setting.
func (r *Robot) WaitForComponentToBeReady(c toolkit.Component, timeout time.Duration) error {
	failure.MustNotBeNil(c, "component")
	uithread.CheckNotOnUIThread(r.rt, "WaitForComponentToBeReady")

	type target struct {
		desc    string
		invoker toolkit.Component
	}

	tgt, err := uithread.Query(r.rt, func() target {
		t := target{desc: toolkit.Describe(c)}

		if p, ok := c.(toolkit.PopupMenu); ok {
			if inv := p.Invoker(); inv != nil {
				if _, isMenu := inv.(toolkit.Menu); isMenu {
					t.invoker = inv
				}
			}
		}

		return t
	})
	if err != nil {
		return r.wrap("wait for", c, err)
	}

	invoker := tgt.invoker
	interval := timeouts.WindowReadyPollInterval

	var before func() error
	if invoker != nil {
		before = func() error { return r.jitter(invoker) }
		interval = timeouts.SubmenuPollInterval
		timeout = max(timeout, r.settings.TimeoutToFindSubMenu())
	}

	err = r.poll(tgt.desc+" to be ready", timeout, interval,
		func() (bool, error) { return r.IsReadyForInput(c) }, before, nil)

	return r.wrap("wait for", c, err)
}
