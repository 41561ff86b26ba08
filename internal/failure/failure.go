// Package failure defines the errors surfaced by the automation engine.
//
// Expected failure modes (timeouts, lookup ambiguity, rejected input) are
// returned as typed errors that callers inspect with errors.As. Caller bugs
// (calls from the wrong thread, nil targets) are not recoverable conditions and
// are raised with panic.
package failure

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// WaitTimedOutError is returned when a bounded wait exceeds its budget.
type WaitTimedOutError struct {
	Op      string
	Elapsed time.Duration
	// State is the best-known current state when the wait gave up, if any.
	State string
}

func (e *WaitTimedOutError) Error() string {
	msg := fmt.Sprintf("timed out waiting for %s after %dms", e.Op, e.Elapsed.Milliseconds())
	if e.State != "" {
		msg += " (" + e.State + ")"
	}

	return msg
}

// ActionFailedError is returned when an action ran but its expected outcome
// could not be confirmed.
type ActionFailedError struct {
	Op      string
	Detail  string
	Elapsed time.Duration
	// FocusOwner describes the component that owned focus when the action
	// failed. Empty when not relevant.
	FocusOwner string
}

func (e *ActionFailedError) Error() string {
	var b strings.Builder

	b.WriteString(e.Op)
	b.WriteString(" failed")

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Elapsed > 0 {
		fmt.Fprintf(&b, " after %dms", e.Elapsed.Milliseconds())
	}

	if e.FocusOwner != "" {
		b.WriteString("; focus owner: ")
		b.WriteString(e.FocusOwner)
	}

	return b.String()
}

// ComponentLookupError is returned when a lookup found no component, or more
// than one where exactly one was expected.
type ComponentLookupError struct {
	Message    string
	Candidates []string
}

func (e *ComponentLookupError) Error() string {
	if len(e.Candidates) == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s; candidates: [%s]", e.Message, strings.Join(e.Candidates, ", "))
}

// OutOfScreenBoundsError is returned when a point translated to screen
// coordinates lies outside the physical screen. The point is never clamped.
type OutOfScreenBoundsError struct {
	X, Y   int
	Screen string
}

func (e *OutOfScreenBoundsError) Error() string {
	return fmt.Sprintf("point (%d,%d) is not in screen bounds %s", e.X, e.Y, e.Screen)
}

// InvalidKeyCodeError is returned when the OS injection facility rejects a key code.
type InvalidKeyCodeError struct {
	Code  int
	Cause error
}

func (e *InvalidKeyCodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid key code %d: %v", e.Code, e.Cause)
	}

	return fmt.Sprintf("invalid key code %d", e.Code)
}

func (e *InvalidKeyCodeError) Unwrap() error { return e.Cause }

// UnexpectedError wraps a failure raised by a unit of work that ran on the UI thread.
type UnexpectedError struct {
	Cause error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error on UI thread: %v", e.Cause)
}

func (e *UnexpectedError) Unwrap() error { return e.Cause }

// LockFailureError is returned when the screen lock is held by another owner.
type LockFailureError struct {
	Holder string
}

func (e *LockFailureError) Error() string {
	if e.Holder == "" {
		return "screen lock is held by another automation session"
	}

	return "screen lock is held by " + e.Holder
}

// IllegalThreadStateError is the panic value raised when a primitive that
// synchronizes with the UI thread is invoked from the UI thread itself.
type IllegalThreadStateError struct {
	Op string
}

func (e *IllegalThreadStateError) Error() string {
	return e.Op + " must not be called from the UI thread"
}

// PreconditionError is the panic value raised for caller bugs such as nil
// targets or invalid arguments.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// MustNotBeNil panics with a PreconditionError if v is nil.
func MustNotBeNil(v any, what string) {
	if isNil(v) {
		panic(&PreconditionError{Message: what + " must not be nil"})
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}

// Precondition panics with a PreconditionError when ok is false.
func Precondition(ok bool, format string, args ...any) {
	if !ok {
		panic(&PreconditionError{Message: fmt.Sprintf(format, args...)})
	}
}
