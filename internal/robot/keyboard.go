package robot

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// PressKey presses code. A code the OS rejects is reported as
// *failure.InvalidKeyCodeError.
func (r *Robot) PressKey(code toolkit.KeyCode) error {
	if err := r.gen.PressKey(code, 0); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// ReleaseKey releases code.
func (r *Robot) ReleaseKey(code toolkit.KeyCode) error {
	if err := r.gen.ReleaseKey(code); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// PressAndReleaseKey types code while holding mods.
func (r *Robot) PressAndReleaseKey(code toolkit.KeyCode, mods toolkit.Modifiers) error {
	if err := r.stroke(code, mods, 0); err != nil {
		return err
	}

	r.waiter.WaitForIdle()

	return nil
}

// PressAndReleaseKeys types each code in turn.
func (r *Robot) PressAndReleaseKeys(codes ...toolkit.KeyCode) error {
	for _, code := range codes {
		if err := r.stroke(code, 0, 0); err != nil {
			return err
		}
	}

	r.waiter.WaitForIdle()

	return nil
}

// stroke presses the modifiers, presses and releases code, then releases the
// modifiers in reverse. Whatever is still held when a step fails is released.
func (r *Robot) stroke(code toolkit.KeyCode, mods toolkit.Modifiers, char rune) (err error) {
	var held []toolkit.KeyCode

	defer func() {
		if err == nil {
			return
		}

		for _, k := range slices.Backward(held) {
			err = multierr.Append(err, r.gen.ReleaseKey(k))
		}
	}()

	for _, m := range mods.Keys() {
		if err := r.gen.PressKey(m, 0); err != nil {
			return err
		}

		held = append(held, m)
	}

	if err := r.gen.PressKey(code, char); err != nil {
		return err
	}

	held = append(held, code)

	for len(held) > 0 {
		k := held[len(held)-1]
		held = held[:len(held)-1]

		if err := r.gen.ReleaseKey(k); err != nil {
			return err
		}
	}

	return nil
}

// Type types text into the focus owner. Characters with no key on a US
// layout are posted as KeyTyped events to the focus owner's queue.
func (r *Robot) Type(text string) error {
	uithread.CheckNotOnUIThread(r.rt, "Type")

	for _, ch := range text {
		if ks, ok := toolkit.KeyStrokeFor(ch); ok {
			if err := r.stroke(ks.Code, ks.Modifiers, ch); err != nil {
				return fmt.Errorf("type %s: %w", strconv.QuoteRune(ch), err)
			}

			continue
		}

		// Earlier keystrokes must reach the owner first.
		r.waiter.WaitForIdle()

		if err := r.postTyped(ch); err != nil {
			return fmt.Errorf("type %s: %w", strconv.QuoteRune(ch), err)
		}
	}

	r.waiter.WaitForIdle()

	return nil
}

func (r *Robot) postTyped(ch rune) error {
	owner, err := r.focus.FocusOwner()
	if err != nil {
		return err
	}

	if owner == nil {
		return &failure.ActionFailedError{Op: "type", Detail: "no component owns focus"}
	}

	r.rt.QueueOf(owner).PostEvent(toolkit.Event{
		Kind:   toolkit.KeyTyped,
		Source: owner,
		Char:   ch,
		When:   time.Now(),
	})

	return nil
}

// EnterText types text and presses Enter.
func (r *Robot) EnterText(text string) error {
	if err := r.Type(text); err != nil {
		return err
	}

	return r.PressAndReleaseKey(toolkit.KeyEnter, 0)
}
