package robot

import (
	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// Focus gives c keyboard focus without waiting for confirmation.
func (r *Robot) Focus(c toolkit.Component) error {
	failure.MustNotBeNil(c, "component")

	return r.wrap("focus", c, r.focus.Focus(c, false))
}

// FocusAndWaitForFocusGain gives c keyboard focus and waits until c reports
// it. It fails with *failure.ActionFailedError naming the actual focus owner
// when that does not happen within timeoutToBeVisible.
func (r *Robot) FocusAndWaitForFocusGain(c toolkit.Component) error {
	failure.MustNotBeNil(c, "component")

	return r.wrap("focus", c, r.focus.Focus(c, true))
}

// FocusOwner returns the component that owns focus, or nil.
func (r *Robot) FocusOwner() (toolkit.Component, error) {
	return r.focus.FocusOwner()
}
