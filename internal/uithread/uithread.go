// Package uithread bridges driver goroutines and the UI dispatch goroutine.
//
// Every read or mutation of UI-owned state goes through Execute or one of its
// variants. None of them may be called from the dispatch goroutine itself:
// blocking it on its own queue would deadlock, so doing so panics with
// *failure.IllegalThreadStateError.
package uithread

import (
	"errors"
	"fmt"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// ErrRuntimeStopped is returned when the runtime shuts down before a unit ran.
var ErrRuntimeStopped = errors.New("UI runtime stopped")

// stoppable is implemented by runtimes that can shut down.
type stoppable interface {
	Done() <-chan struct{}
}

// CheckNotOnUIThread panics with *failure.IllegalThreadStateError when called
// on the dispatch goroutine.
func CheckNotOnUIThread(rt toolkit.Runtime, op string) {
	failure.MustNotBeNil(rt, "runtime")

	if rt.IsDispatchThread() {
		panic(&failure.IllegalThreadStateError{Op: op})
	}
}

type result[T any] struct {
	value T
	err   error
}

// Execute runs fn on the dispatch goroutine and blocks until it returns. An
// error or panic from fn is returned as *failure.UnexpectedError.
func Execute[T any](rt toolkit.Runtime, fn func() (T, error)) (T, error) {
	CheckNotOnUIThread(rt, "Execute")
	failure.MustNotBeNil(fn, "unit")

	done := make(chan result[T], 1)

	rt.SystemQueue().InvokeLater(func() {
		var r result[T]

		defer func() {
			if p := recover(); p != nil {
				r.err = panicError(p)
			}

			done <- r
		}()

		r.value, r.err = fn()
	})

	var stopped <-chan struct{}
	if s, ok := rt.(stoppable); ok {
		stopped = s.Done()
	}

	var zero T

	select {
	case r := <-done:
		if r.err != nil {
			return zero, &failure.UnexpectedError{Cause: r.err}
		}

		return r.value, nil
	case <-stopped:
		return zero, ErrRuntimeStopped
	}
}

// Run is Execute for units that only report an error.
func Run(rt toolkit.Runtime, fn func() error) error {
	_, err := Execute(rt, func() (struct{}, error) {
		return struct{}{}, fn()
	})

	return err
}

// Query runs a unit that cannot fail and returns its value. If the unit
// panics or the runtime stops, the zero value is returned with the error.
func Query[T any](rt toolkit.Runtime, fn func() T) (T, error) {
	return Execute(rt, func() (T, error) {
		return fn(), nil
	})
}

// Describe returns toolkit.Describe(c), read on the dispatch goroutine. It may
// be called from either side. When the runtime cannot run the unit it returns
// the component's type instead.
func Describe(rt toolkit.Runtime, c toolkit.Component) string {
	if c == nil {
		return toolkit.Describe(nil)
	}

	if rt.IsDispatchThread() {
		return toolkit.Describe(c)
	}

	desc, err := Query(rt, func() string { return toolkit.Describe(c) })
	if err != nil {
		return fmt.Sprintf("%T", c)
	}

	return desc
}

// ExecuteNoResult schedules fn on the dispatch goroutine and returns without
// waiting for it.
func ExecuteNoResult(rt toolkit.Runtime, fn func()) {
	CheckNotOnUIThread(rt, "ExecuteNoResult")
	failure.MustNotBeNil(fn, "unit")

	rt.SystemQueue().InvokeLater(fn)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}

	return fmt.Errorf("panic: %v", p)
}
