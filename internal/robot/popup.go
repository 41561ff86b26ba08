package robot

import (
	"errors"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// ShowPopupMenu right-clicks p, relative to invoker, and returns the popup
// menu that appears. It fails with *failure.ComponentLookupError when none
// does.
func (r *Robot) ShowPopupMenu(invoker toolkit.Component, p toolkit.Point) (toolkit.PopupMenu, error) {
	if err := r.ClickAt(invoker, p, toolkit.ButtonRight, 1); err != nil {
		return nil, err
	}

	popup, err := r.FindActivePopupMenu()
	if err != nil {
		return nil, r.wrap("show popup menu", invoker, err)
	}

	if popup == nil {
		return nil, r.wrap("show popup menu", invoker, &failure.ComponentLookupError{Message: "no active popup menu found"})
	}

	return popup, nil
}

// FindActivePopupMenu returns the showing popup menu, polling until
// timeoutToFindPopup expires. It returns nil, nil if none shows up in time.
// Nested popups count once, as the outermost. If several unrelated popups
// show, it fails with *failure.ComponentLookupError naming all of them.
//
// On the UI thread it looks once and does not wait.
func (r *Robot) FindActivePopupMenu() (toolkit.PopupMenu, error) {
	if r.rt.IsDispatchThread() {
		return r.activePopup()
	}

	var found toolkit.PopupMenu

	err := r.poll("active popup menu", r.settings.TimeoutToFindPopup(), timeouts.PopupPollInterval,
		func() (bool, error) {
			p, err := uithread.Execute(r.rt, r.activePopup)
			if err != nil {
				return false, unwrapUnexpected(err)
			}

			found = p

			return p != nil, nil
		},
		nil, nil,
	)

	var timedOut *failure.WaitTimedOutError
	if errors.As(err, &timedOut) {
		return nil, nil
	}

	return found, err
}

// activePopup runs on the UI thread.
func (r *Robot) activePopup() (toolkit.PopupMenu, error) {
	var showing []toolkit.PopupMenu

	for _, p := range r.rt.Popups() {
		if p.IsShowing() {
			showing = append(showing, p)
		}
	}

	var outermost []toolkit.PopupMenu

	for _, p := range showing {
		nested := false

		for _, other := range showing {
			if other != p && toolkit.IsDescendant(p, other) {
				nested = true
				break
			}
		}

		if !nested {
			outermost = append(outermost, p)
		}
	}

	switch len(outermost) {
	case 0:
		return nil, nil
	case 1:
		return outermost[0], nil
	}

	candidates := make([]string, len(outermost))
	for i, p := range outermost {
		candidates[i] = toolkit.Describe(p)
	}

	return nil, &failure.ComponentLookupError{Message: "found more than one active popup menu", Candidates: candidates}
}

// unwrapUnexpected returns the error a UI-thread unit reported, without the
// *failure.UnexpectedError wrapper Execute adds.
func unwrapUnexpected(err error) error {
	var unexpected *failure.UnexpectedError
	if errors.As(err, &unexpected) {
		return unexpected.Cause
	}

	return err
}
