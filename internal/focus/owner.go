package focus

import (
	"errors"

	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// ErrNoFocusOwner is returned by a strategy that found no focus owner.
var ErrNoFocusOwner = errors.New("no focus owner")

// OwnerFinder is one strategy for discovering the current focus owner. It
// runs on the UI thread.
type OwnerFinder interface {
	Name() string
	FocusOwner(rt toolkit.Runtime) (toolkit.Component, error)
}

// RuntimeOwner asks the runtime's focus manager.
type RuntimeOwner struct{}

func (RuntimeOwner) Name() string { return "runtime" }

func (RuntimeOwner) FocusOwner(rt toolkit.Runtime) (toolkit.Component, error) {
	if c := rt.FocusOwner(); c != nil {
		return c, nil
	}

	return nil, ErrNoFocusOwner
}

// HierarchyOwner searches the active window for a component reporting focus.
type HierarchyOwner struct{}

func (HierarchyOwner) Name() string { return "hierarchy" }

func (HierarchyOwner) FocusOwner(rt toolkit.Runtime) (toolkit.Component, error) {
	for _, w := range rt.Windows() {
		if !w.IsActive() {
			continue
		}

		var found toolkit.Component

		toolkit.Walk(w, func(c toolkit.Component) bool {
			if found != nil {
				return false
			}

			if c.HasFocus() {
				found = c
				return false
			}

			return true
		})

		if found != nil {
			return found, nil
		}
	}

	return nil, ErrNoFocusOwner
}

// DefaultOwnerFinders is the order strategies are tried in.
func DefaultOwnerFinders() []OwnerFinder {
	return []OwnerFinder{RuntimeOwner{}, HierarchyOwner{}}
}
