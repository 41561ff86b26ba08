// Package robot drives a UI runtime the way a user would, from a goroutine
// that is not the runtime's dispatch goroutine.
//
// Every operation follows the same pattern: synthesize input or schedule a
// mutation on the UI thread, wait for the UI to go idle, and where the outcome
// only shows up asynchronously, poll for it under a timeout. A Robot owns the
// screen lock for its lifetime; create it with New and always call CleanUp.
//
// A Robot is not safe for concurrent use. Drive it from one goroutine.
package robot

import (
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/focus"
	"github.com/Norgate-AV/uirobot/internal/idle"
	"github.com/Norgate-AV/uirobot/internal/input"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/monitor"
	"github.com/Norgate-AV/uirobot/internal/screenlock"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// Options configure a Robot. Runtime and Injector are required.
type Options struct {
	Runtime  toolkit.Runtime
	Injector interfaces.Injector
	// Settings defaults to settings.New().
	Settings *settings.Settings
	Logger   logger.LoggerInterface
	// Lock defaults to the process-wide screenlock.Shared().
	Lock *screenlock.Lock
	// Owner defaults to a fresh owner named "robot".
	Owner screenlock.Owner
	// Platform overrides the OS used for platform-specific input delays.
	Platform string
	// Sleeper replaces time.Sleep for inter-event delays.
	Sleeper interfaces.Sleeper
}

// Robot is one automation session.
type Robot struct {
	rt       toolkit.Runtime
	settings *settings.Settings
	log      logger.LoggerInterface
	lock     *screenlock.Lock
	owner    screenlock.Owner

	state   *input.State
	monitor *monitor.Monitor
	waiter  *idle.Waiter
	gen     *input.Generator
	focus   *focus.Controller

	cleanOnce sync.Once
	cleanErr  error
}

// New acquires the screen lock and starts a session. It fails with
// *failure.LockFailureError when another session holds the lock.
func New(opts Options) (*Robot, error) {
	failure.MustNotBeNil(opts.Runtime, "runtime")
	failure.MustNotBeNil(opts.Injector, "injector")

	r := &Robot{
		rt:       opts.Runtime,
		settings: opts.Settings,
		log:      opts.Logger,
		lock:     opts.Lock,
		owner:    opts.Owner,
	}

	if r.settings == nil {
		r.settings = settings.New()
	}

	if r.log == nil {
		r.log = logger.NewNoOpLogger()
	}

	if r.lock == nil {
		r.lock = screenlock.Shared()
	}

	if r.owner.IsZero() {
		r.owner = screenlock.NewOwner("robot")
	}

	if err := r.lock.Acquire(r.owner); err != nil {
		return nil, err
	}

	r.state = input.NewState(r.rt)

	mon, err := monitor.New(r.rt, r.log)
	if err != nil {
		r.state.Close()
		return nil, multierr.Append(fmt.Errorf("failed to start window monitor: %w", err), r.lock.Release(r.owner))
	}

	r.monitor = mon
	r.waiter = idle.NewWaiter(r.rt, r.settings, r.log, idle.WithQueueSource(mon))

	var genOpts []input.GeneratorOption
	if opts.Platform != "" {
		genOpts = append(genOpts, input.WithPlatform(opts.Platform))
	}

	if opts.Sleeper != nil {
		genOpts = append(genOpts, input.WithSleeper(opts.Sleeper))
	}

	r.gen = input.NewGenerator(r.rt, opts.Injector, r.settings, r.log, genOpts...)
	r.focus = focus.NewController(r.rt, r.waiter, r.gen, r.settings, r.log)

	r.log.Debug("Robot session started",
		slog.String("owner", r.owner.String()),
		slog.String("injector", opts.Injector.Name()),
	)

	return r, nil
}

// Settings returns the live settings. Changes apply to the next operation.
func (r *Robot) Settings() *settings.Settings { return r.settings }

func (r *Robot) Runtime() toolkit.Runtime { return r.rt }

// Owner returns the screen lock owner of this session.
func (r *Robot) Owner() screenlock.Owner { return r.owner }

// WaitForIdle blocks until the UI has processed everything posted so far.
func (r *Robot) WaitForIdle() {
	r.waiter.WaitForIdle()
}

// CleanUp releases held input, disposes the windows opened during the
// session and releases the screen lock. Only the first call does anything;
// later calls return the first result.
func (r *Robot) CleanUp() error {
	return r.cleanUp(true)
}

// CleanUpWithoutDisposingWindows is CleanUp leaving windows open.
func (r *Robot) CleanUpWithoutDisposingWindows() error {
	return r.cleanUp(false)
}

func (r *Robot) cleanUp(dispose bool) error {
	r.cleanOnce.Do(func() {
		var errs error

		errs = multierr.Append(errs, r.releaseHeldInput())

		if dispose {
			errs = multierr.Append(errs, r.disposeWindows())
		}

		r.monitor.Close()
		r.state.Close()

		errs = multierr.Append(errs, r.lock.Release(r.owner))

		r.cleanErr = errs
		r.log.Debug("Robot session cleaned up", slog.Bool("disposedWindows", dispose), slog.Any("error", errs))
	})

	return r.cleanErr
}

// releaseHeldInput releases every button and key the input state observed as
// held.
func (r *Robot) releaseHeldInput() error {
	var errs error

	r.state.Buttons().Each(func(b toolkit.Buttons) {
		errs = multierr.Append(errs, r.gen.ReleaseMouse(b))
	})

	for _, k := range r.state.PressedKeys() {
		errs = multierr.Append(errs, r.gen.ReleaseKey(k))
	}

	if errs != nil {
		return fmt.Errorf("release held input: %w", errs)
	}

	return nil
}

func (r *Robot) disposeWindows() error {
	windows := r.monitor.OpenedWindows()
	if len(windows) == 0 {
		return nil
	}

	err := uithread.Run(r.rt, func() error {
		for _, w := range windows {
			w.Dispose()
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("dispose windows: %w", err)
	}

	r.log.Debug("Disposed session windows", slog.Int("count", len(windows)))
	r.waiter.WaitForIdle()

	return nil
}

// wrap adds operation context to err.
func (r *Robot) wrap(op string, c toolkit.Component, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s %s: %w", op, uithread.Describe(r.rt, c), err)
}
