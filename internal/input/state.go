// Package input observes and synthesizes hardware-level input.
package input

import (
	"sort"
	"sync"

	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// State tracks which mouse buttons and keys are physically held.
//
// It only learns from hardware events observed through the runtime's global
// listener, never from what the robot believes it injected, so it stays
// correct when an operation fails halfway or something outside the process
// moves the devices. All state lives in one goroutine; observations and
// queries are messages on the same channel, so a query is answered only after
// every event observed before it.
type State struct {
	msgs   chan func(*inputState)
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
	remove func()
}

type inputState struct {
	buttons    toolkit.Buttons
	keys       map[toolkit.KeyCode]struct{}
	drag       bool
	pressPoint toolkit.Point
	pointer    toolkit.Point
}

// NewState starts a State. If rt is not nil the State registers itself as a
// global listener on rt; otherwise feed it with Observe.
func NewState(rt toolkit.Runtime) *State {
	s := &State{
		msgs:   make(chan func(*inputState), 256),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go s.run()

	if rt != nil {
		s.remove = rt.AddGlobalListener(s.Observe)
	}

	return s
}

func (s *State) run() {
	defer close(s.exited)

	st := &inputState{keys: make(map[toolkit.KeyCode]struct{})}

	for {
		select {
		case fn := <-s.msgs:
			fn(st)
		case <-s.done:
			return
		}
	}
}

func (s *State) send(fn func(*inputState)) bool {
	select {
	case s.msgs <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Observe feeds a hardware event. Component events (non-nil Source) are ignored.
func (s *State) Observe(e toolkit.Event) {
	if e.Source != nil || !(e.Kind.IsMouse() || e.Kind == toolkit.KeyPressed || e.Kind == toolkit.KeyReleased) {
		return
	}

	s.send(func(st *inputState) { st.apply(e) })
}

func (st *inputState) apply(e toolkit.Event) {
	switch e.Kind {
	case toolkit.MousePressed:
		if st.buttons == toolkit.NoButtons {
			st.pressPoint = e.Point
		}

		st.buttons |= e.Buttons
		st.pointer = e.Point
	case toolkit.MouseReleased:
		st.buttons &^= e.Buttons
		st.pointer = e.Point

		if st.buttons == toolkit.NoButtons {
			st.drag = false
		}
	case toolkit.MouseMoved, toolkit.MouseDragged:
		st.pointer = e.Point

		if st.buttons != toolkit.NoButtons && !st.drag && beyondThreshold(st.pressPoint, e.Point) {
			st.drag = true
		}
	case toolkit.KeyPressed:
		st.keys[e.Key] = struct{}{}
	case toolkit.KeyReleased:
		delete(st.keys, e.Key)
	}
}

func beyondThreshold(a, b toolkit.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx+dy*dy > timeouts.DragThreshold*timeouts.DragThreshold
}

// query runs fn in the owner goroutine and waits for it. It reports false if
// the State is closed.
func (s *State) query(fn func(*inputState)) bool {
	reply := make(chan struct{})

	if !s.send(func(st *inputState) {
		fn(st)
		close(reply)
	}) {
		return false
	}

	select {
	case <-reply:
		return true
	case <-s.done:
		return false
	}
}

// Buttons returns the held mouse buttons.
func (s *State) Buttons() toolkit.Buttons {
	var b toolkit.Buttons

	s.query(func(st *inputState) { b = st.buttons })

	return b
}

// PressedKeys returns the held keys in ascending order.
func (s *State) PressedKeys() []toolkit.KeyCode {
	var keys []toolkit.KeyCode

	s.query(func(st *inputState) {
		for k := range st.keys {
			keys = append(keys, k)
		}
	})

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// DragInProgress reports whether the pointer moved past the drag threshold
// with a button held.
func (s *State) DragInProgress() bool {
	var d bool

	s.query(func(st *inputState) { d = st.drag })

	return d
}

// LastPointer returns the last observed pointer position.
func (s *State) LastPointer() toolkit.Point {
	var p toolkit.Point

	s.query(func(st *inputState) { p = st.pointer })

	return p
}

// Close detaches from the runtime and stops the owner goroutine.
func (s *State) Close() {
	s.once.Do(func() {
		if s.remove != nil {
			s.remove()
		}

		close(s.done)
		<-s.exited
	})
}
