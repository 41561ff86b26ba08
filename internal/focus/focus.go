// Package focus moves keyboard focus to a component and confirms the transfer.
package focus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qmuntal/stateless"
	"golang.org/x/time/rate"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// State is a step of a focus transfer.
type State string

const (
	NotFocused  State = "NotFocused"
	Listening   State = "Listening"
	Activating  State = "Activating"
	Requesting  State = "Requesting"
	Confirming  State = "Confirming"
	Focused     State = "Focused"
	Unconfirmed State = "Unconfirmed"
	Failed      State = "Failed"
)

type trigger string

const (
	triggerAlreadyFocused trigger = "alreadyFocused"
	triggerListen         trigger = "listen"
	triggerActivate       trigger = "activateWindow"
	triggerRequest        trigger = "request"
	triggerConfirm        trigger = "confirm"
	triggerSkipConfirm    trigger = "skipConfirm"
	triggerGained         trigger = "gained"
	triggerFail           trigger = "fail"
)

// TransitionFunc observes each step of a focus transfer.
type TransitionFunc func(from, to State)

// Option configures a Controller.
type Option func(*Controller)

// WithOwnerFinders replaces the focus-owner strategies. They are tried in
// order and the first to find an owner wins.
func WithOwnerFinders(finders ...OwnerFinder) Option {
	return func(c *Controller) { c.finders = finders }
}

// WithTransitionHook calls fn for every state change.
func WithTransitionHook(fn TransitionFunc) Option {
	return func(c *Controller) { c.hook = fn }
}

// Controller transfers focus from a driver goroutine.
type Controller struct {
	rt       toolkit.Runtime
	waiter   interfaces.IdleWaiter
	mover    interfaces.PointerMover
	settings *settings.Settings
	log      logger.LoggerInterface
	finders  []OwnerFinder
	hook     TransitionFunc
	waitLog  *rate.Sometimes
}

// NewController creates a Controller. mover is used on platforms where focus
// follows the pointer.
func NewController(rt toolkit.Runtime, waiter interfaces.IdleWaiter, mover interfaces.PointerMover, s *settings.Settings, log logger.LoggerInterface, opts ...Option) *Controller {
	failure.MustNotBeNil(rt, "runtime")
	failure.MustNotBeNil(waiter, "idle waiter")
	failure.MustNotBeNil(mover, "pointer mover")
	failure.MustNotBeNil(s, "settings")

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	c := &Controller{
		rt:       rt,
		waiter:   waiter,
		mover:    mover,
		settings: s,
		log:      log,
		finders:  DefaultOwnerFinders(),
		waitLog:  &rate.Sometimes{Interval: timeouts.WaitLogInterval},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FocusOwner returns the component that owns focus, or nil.
func (c *Controller) FocusOwner() (toolkit.Component, error) {
	return uithread.Query(c.rt, c.findOwner)
}

// findOwner runs on the UI thread. A failing strategy is logged and the next
// one is tried.
func (c *Controller) findOwner() toolkit.Component {
	for _, f := range c.finders {
		owner, err := f.FocusOwner(c.rt)
		if err == nil && owner != nil {
			return owner
		}

		if err != nil && !errors.Is(err, ErrNoFocusOwner) {
			c.log.Warn("Focus owner strategy failed", slog.String("strategy", f.Name()), slog.Any("error", err))
		}
	}

	return nil
}

type transfer struct {
	sm *stateless.StateMachine
	// target describes the component once it has been read on the UI thread.
	target string
}

func (c *Controller) newTransfer() *transfer {
	t := &transfer{target: "<pending>"}
	sm := stateless.NewStateMachine(NotFocused)

	sm.Configure(NotFocused).
		Permit(triggerAlreadyFocused, Focused).
		Permit(triggerListen, Listening).
		Permit(triggerFail, Failed)

	sm.Configure(Listening).
		Permit(triggerActivate, Activating).
		Permit(triggerRequest, Requesting).
		Permit(triggerFail, Failed)

	sm.Configure(Activating).
		Permit(triggerRequest, Requesting).
		Permit(triggerFail, Failed)

	sm.Configure(Requesting).
		Permit(triggerConfirm, Confirming).
		Permit(triggerSkipConfirm, Unconfirmed).
		Permit(triggerFail, Failed)

	sm.Configure(Confirming).
		Permit(triggerGained, Focused).
		Permit(triggerFail, Failed)

	sm.OnTransitioned(func(_ context.Context, tr stateless.Transition) {
		from, _ := tr.Source.(State)
		to, _ := tr.Destination.(State)

		c.log.Trace("Focus transition",
			slog.String("target", t.target),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			slog.Any("trigger", tr.Trigger),
		)

		if c.hook != nil {
			c.hook(from, to)
		}
	})

	t.sm = sm

	return t
}

func (t *transfer) fire(tr trigger) {
	if err := t.sm.Fire(tr); err != nil {
		panic(fmt.Errorf("focus transfer: %w", err))
	}
}

type prepared struct {
	desc           string
	alreadyFocused bool
	remove         func()
	activate       toolkit.Window
}

// Focus gives target keyboard focus. With wait it blocks until the target
// reports FocusGained, failing with *failure.ActionFailedError after the
// visibility timeout. A target that already owns focus is left alone.
func (c *Controller) Focus(target toolkit.Component, wait bool) error {
	failure.MustNotBeNil(target, "target")
	uithread.CheckNotOnUIThread(c.rt, "Focus")

	t := c.newTransfer()
	gained := make(chan struct{}, 1)

	p, err := uithread.Query(c.rt, func() prepared {
		desc := toolkit.Describe(target)

		owner := c.findOwner()
		if owner == target {
			return prepared{desc: desc, alreadyFocused: true}
		}

		var activate toolkit.Window
		if w := toolkit.WindowAncestor(target); w != nil && w != toolkit.WindowAncestor(owner) {
			activate = w
		}

		remove := target.OnFocusGained(func(toolkit.Event) {
			select {
			case gained <- struct{}{}:
			default:
			}
		})

		return prepared{desc: desc, remove: remove, activate: activate}
	})
	if err != nil {
		t.fire(triggerFail)
		return err
	}

	t.target = p.desc

	if p.alreadyFocused {
		t.fire(triggerAlreadyFocused)
		return nil
	}

	defer uithread.ExecuteNoResult(c.rt, p.remove)

	t.fire(triggerListen)

	if c.rt.FocusFollowsPointer() {
		if err := c.mover.MoveMouseOver(target); err != nil {
			t.fire(triggerFail)
			return err
		}
	}

	if p.activate != nil {
		t.fire(triggerActivate)

		err := uithread.Run(c.rt, func() error {
			p.activate.ToFront()
			p.activate.RequestFocusInWindow()

			return nil
		})
		if err != nil {
			t.fire(triggerFail)
			return err
		}

		c.waiter.WaitForIdle()
	}

	t.fire(triggerRequest)

	granted, err := uithread.Query(c.rt, target.RequestFocusInWindow)
	if err != nil {
		t.fire(triggerFail)
		return err
	}

	if !granted {
		c.log.Trace("Focus request refused", slog.String("target", p.desc))
	}

	if !wait {
		t.fire(triggerSkipConfirm)
		return nil
	}

	t.fire(triggerConfirm)

	if err := c.confirm(p.desc, gained); err != nil {
		t.fire(triggerFail)
		return err
	}

	t.fire(triggerGained)

	return nil
}

// confirm polls the focus-gained signal until it fires or the visibility
// timeout expires.
func (c *Controller) confirm(desc string, gained <-chan struct{}) error {
	watch := timeouts.StartWatch(c.settings.TimeoutToBeVisible())

	for {
		select {
		case <-gained:
			return nil
		default:
		}

		if watch.IsTimeOut() {
			return c.notConfirmed(desc, watch.Elapsed())
		}

		c.waitLog.Do(func() {
			c.log.Debug("Waiting for focus", slog.String("target", desc), slog.Duration("elapsed", watch.Elapsed()))
		})

		time.Sleep(timeouts.FocusPollInterval)
	}
}

func (c *Controller) notConfirmed(desc string, elapsed time.Duration) error {
	owner, err := uithread.Query(c.rt, func() string {
		return toolkit.Describe(c.findOwner())
	})
	if err != nil {
		owner = "<unknown>"
	}

	return &failure.ActionFailedError{
		Op:         "focus",
		Detail:     desc + " did not gain focus",
		Elapsed:    elapsed,
		FocusOwner: owner,
	}
}
