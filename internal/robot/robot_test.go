package robot_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/robot"
	"github.com/Norgate-AV/uirobot/internal/screenlock"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/simui"
	"github.com/Norgate-AV/uirobot/internal/testutil"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	d        *simui.Desktop
	r        *robot.Robot
	settings *settings.Settings
}

type fixtureOption func(*robot.Options)

func withInjector(inj interfaces.Injector) fixtureOption {
	return func(o *robot.Options) { o.Injector = inj }
}

func withSleeper(fn interfaces.Sleeper) fixtureOption {
	return func(o *robot.Options) { o.Sleeper = fn }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	d := simui.NewDesktop()
	t.Cleanup(d.Close)

	s := testutil.FastSettings()
	o := robot.Options{
		Runtime:  d,
		Injector: d.Injector(),
		Settings: s,
		Logger:   testutil.NewTestLogger(t),
		Lock:     screenlock.New(screenlock.Options{}),
	}

	for _, opt := range opts {
		opt(&o)
	}

	r, err := robot.New(o)
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, r.CleanUp()) })

	return &fixture{d: d, r: r, settings: s}
}

func query[T any](t *testing.T, f *fixture, fn func() T) T {
	t.Helper()

	v, err := uithread.Query(f.d, fn)
	require.NoError(t, err)

	return v
}

func (f *fixture) onUI(t *testing.T, fn func()) {
	t.Helper()

	require.NoError(t, uithread.Run(f.d, func() error {
		fn()
		return nil
	}))
}

func (f *fixture) show(t *testing.T, w *simui.Window) {
	t.Helper()

	require.NoError(t, f.r.ShowWindow(w, toolkit.Size{}, true))
}

func TestRobot_ClickTogglesFlagWithoutExtraWait(t *testing.T) {
	f := newFixture(t)

	toggled := false
	button := f.d.NewButton("toggle", "Toggle", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25}).
		OnAction(func() { toggled = !toggled })
	f.show(t, f.d.NewWindow("main", "Main").Add(button))

	require.NoError(t, f.r.Click(button, toolkit.ButtonLeft, 1))

	assert.True(t, query(t, f, func() bool { return toggled }))
}

func TestRobot_MultiClickOrderAndDelay(t *testing.T) {
	injector := testutil.NewMockInjector()
	sleeps := testutil.NewSleepRecorder()
	f := newFixture(t, withInjector(injector), withSleeper(sleeps.Sleep))
	f.settings.SetDelayBetweenEvents(50)

	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	f.show(t, f.d.NewWindow("main", "Main").Add(button))

	at := query(t, f, func() toolkit.Point { return toolkit.ScreenBounds(button).Location().Add(toolkit.Pt(40, 12)) })

	require.NoError(t, f.r.Click(button, toolkit.ButtonLeft, 3))

	want := []testutil.InjectedEvent{
		testutil.Move(at.X, at.Y),
		testutil.Press(toolkit.ButtonLeft),
		testutil.Release(toolkit.ButtonLeft),
		testutil.Press(toolkit.ButtonLeft),
		testutil.Release(toolkit.ButtonLeft),
		testutil.Press(toolkit.ButtonLeft),
		testutil.Release(toolkit.ButtonLeft),
	}

	if diff := cmp.Diff(want, injector.Recorded()); diff != "" {
		t.Errorf("injected events mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []time.Duration{50 * time.Millisecond}, sleeps.Recorded(), "only the move is followed by a delay")
	assert.Equal(t, 50*time.Millisecond, f.settings.DelayBetweenEvents(), "delay restored")
}

func TestRobot_ClickPreconditions(t *testing.T) {
	f := newFixture(t)
	button := f.d.NewButton("ok", "OK", toolkit.Rect{Width: 10, Height: 10})

	assert.PanicsWithError(t, "click count must be positive, got 0", func() {
		_ = f.r.Click(button, toolkit.ButtonLeft, 0)
	})

	assert.PanicsWithError(t, "component must not be nil", func() {
		_ = f.r.Click(nil, toolkit.ButtonLeft, 1)
	})
}

func TestRobot_ClickFromUIThreadFails(t *testing.T) {
	f := newFixture(t)
	button := f.d.NewButton("ok", "OK", toolkit.Rect{Width: 10, Height: 10})

	err := uithread.Run(f.d, func() error {
		return f.r.ClickAt(button, toolkit.Pt(1, 1), toolkit.ButtonLeft, 1)
	})

	var illegal *failure.IllegalThreadStateError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "Click", illegal.Op)
}

func TestRobot_ClickOnDisabledComponent(t *testing.T) {
	tests := []struct {
		name    string
		allowed bool
		wantErr bool
	}{
		{name: "allowed", allowed: true},
		{name: "refused", allowed: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			injector := testutil.NewMockInjector()
			f := newFixture(t, withInjector(injector))
			f.settings.SetClickOnDisabledComponentsAllowed(tt.allowed)

			button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
			f.show(t, f.d.NewWindow("main", "Main").Add(button))
			f.onUI(t, func() { button.SetEnabled(false) })

			err := f.r.Click(button, toolkit.ButtonLeft, 1)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, injector.Recorded(), 3)

				return
			}

			var failed *failure.ActionFailedError
			require.ErrorAs(t, err, &failed)
			assert.Contains(t, err.Error(), "click Button[ok]")
			assert.Empty(t, injector.Recorded())
		})
	}
}

func TestRobot_ClickScrollsIntoView(t *testing.T) {
	f := newFixture(t)

	clicked := false
	far := f.d.NewButton("far", "Far", toolkit.Rect{X: 10, Y: 400, Width: 80, Height: 25}).
		OnAction(func() { clicked = true })
	panel := f.d.NewPanel("list", toolkit.Rect{X: 10, Y: 10, Width: 200, Height: 100}).
		EnableScrolling().
		Add(far)
	f.show(t, f.d.NewWindow("main", "Main").Add(panel))

	require.NoError(t, f.r.Click(far, toolkit.ButtonLeft, 1))

	assert.True(t, query(t, f, func() bool { return clicked }))
	assert.Positive(t, query(t, f, panel.ScrollOffset).Y)
}

func TestRobot_PressMouseOffScreenInjectsNothing(t *testing.T) {
	injector := testutil.NewMockInjector()
	f := newFixture(t, withInjector(injector))

	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	f.show(t, f.d.NewWindow("main", "Main").Add(button))

	origin := query(t, f, button.LocationOnScreen)

	err := f.r.PressMouseAt(button, toolkit.Pt(5000, 5000), toolkit.ButtonLeft)

	var offScreen *failure.OutOfScreenBoundsError
	require.ErrorAs(t, err, &offScreen)
	assert.Equal(t, origin.X+5000, offScreen.X)
	assert.Empty(t, injector.Recorded())
}

func TestRobot_ReleaseMouseButtons(t *testing.T) {
	tests := []struct {
		name string
		mask toolkit.Buttons
	}{
		{name: "left", mask: toolkit.ButtonLeft},
		{name: "left and right", mask: toolkit.ButtonLeft | toolkit.ButtonRight},
		{name: "all", mask: toolkit.AllButtons},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			require.NoError(t, f.r.PressMouse(tt.mask))
			require.Equal(t, tt.mask, f.r.PressedButtons())

			require.NoError(t, f.r.ReleaseMouseButtons())
			assert.Equal(t, toolkit.NoButtons, f.r.PressedButtons())
		})
	}
}

func TestRobot_TypeText(t *testing.T) {
	f := newFixture(t)

	field := f.d.NewTextField("name", toolkit.Rect{X: 10, Y: 10, Width: 150, Height: 25})
	f.show(t, f.d.NewWindow("main", "Main").Add(field))

	require.NoError(t, f.r.FocusAndWaitForFocusGain(field))
	require.NoError(t, f.r.Type("Hi there! Ça va"))

	assert.Equal(t, "Hi there! Ça va", query(t, f, field.Text))
}

func TestRobot_TypeWithoutFocusOwner(t *testing.T) {
	f := newFixture(t)

	err := f.r.Type("é")

	var failed *failure.ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "type", failed.Op)
}

func TestRobot_PressAndReleaseKeyWithModifiers(t *testing.T) {
	injector := testutil.NewMockInjector()
	f := newFixture(t, withInjector(injector))

	require.NoError(t, f.r.PressAndReleaseKey(toolkit.KeyA, toolkit.ModShift|toolkit.ModCtrl))

	want := []testutil.InjectedEvent{
		testutil.KeyDown(toolkit.KeyShift),
		testutil.KeyDown(toolkit.KeyControl),
		testutil.KeyDown(toolkit.KeyA),
		testutil.KeyUp(toolkit.KeyA),
		testutil.KeyUp(toolkit.KeyControl),
		testutil.KeyUp(toolkit.KeyShift),
	}

	if diff := cmp.Diff(want, injector.Recorded()); diff != "" {
		t.Errorf("injected events mismatch (-want +got):\n%s", diff)
	}
}

func TestRobot_RejectedKeyReleasesModifiers(t *testing.T) {
	rejected := toolkit.KeyA + 1
	injector := testutil.NewMockInjector().WithKeyError(rejected, errors.New("rejected"))
	f := newFixture(t, withInjector(injector))

	err := f.r.PressAndReleaseKey(rejected, toolkit.ModShift)

	var invalid *failure.InvalidKeyCodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int(rejected), invalid.Code)

	want := []testutil.InjectedEvent{
		testutil.KeyDown(toolkit.KeyShift),
		testutil.KeyUp(toolkit.KeyShift),
	}

	if diff := cmp.Diff(want, injector.Recorded()); diff != "" {
		t.Errorf("injected events mismatch (-want +got):\n%s", diff)
	}
}

func TestRobot_FailedKeyReleaseIsNotRetried(t *testing.T) {
	releaseErr := errors.New("release rejected")
	injector := testutil.NewMockInjector().WithKeyReleaseError(toolkit.KeyA, releaseErr)
	f := newFixture(t, withInjector(injector))

	err := f.r.PressAndReleaseKey(toolkit.KeyA, toolkit.ModShift)

	require.ErrorIs(t, err, releaseErr)
	assert.Equal(t, 1, injector.ReleaseAttempts(toolkit.KeyA))
	assert.Equal(t, 1, injector.ReleaseAttempts(toolkit.KeyShift), "the modifier is still released")

	want := []testutil.InjectedEvent{
		testutil.KeyDown(toolkit.KeyShift),
		testutil.KeyDown(toolkit.KeyA),
		testutil.KeyUp(toolkit.KeyShift),
	}

	if diff := cmp.Diff(want, injector.Recorded()); diff != "" {
		t.Errorf("injected events mismatch (-want +got):\n%s", diff)
	}
}

func TestRobot_ShowAndCloseWindow(t *testing.T) {
	f := newFixture(t)

	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	w := f.d.NewWindow("main", "Main").Add(button)

	require.NoError(t, f.r.ShowWindow(w, toolkit.Size{Width: 300, Height: 200}, false))

	ready, err := f.r.IsReadyForInput(button)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, toolkit.Size{Width: 300, Height: 200}, query(t, f, func() toolkit.Size { return w.Bounds().Size() }))

	require.NoError(t, f.r.CloseWindow(w))

	assert.False(t, query(t, f, w.IsDisplayable))

	ready, err = f.r.IsReadyForInput(button)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestRobot_CloseWindowWithApplet(t *testing.T) {
	f := newFixture(t)

	applet := f.d.NewApplet("game", toolkit.Rect{Width: 200, Height: 100})
	w := f.d.NewWindow("host", "Host").Add(applet)
	f.show(t, w)

	require.Len(t, f.d.Queues(), 2)

	require.NoError(t, f.r.CloseWindow(w))

	assert.False(t, query(t, f, w.IsDisplayable))
	assert.Len(t, f.d.Queues(), 1)
}

func TestRobot_CloseWindowVetoed(t *testing.T) {
	f := newFixture(t)

	vetoed := 0
	w := f.d.NewWindow("sticky", "Sticky").OnClosing(func() { vetoed++ })
	f.show(t, w)

	require.NoError(t, f.r.CloseWindow(w))

	assert.True(t, query(t, f, w.IsDisplayable))
	assert.Equal(t, 1, query(t, f, func() int { return vetoed }))
}

func TestRobot_CloseWindowNeverShown(t *testing.T) {
	f := newFixture(t)

	w := f.d.NewWindow("hidden", "Hidden")

	start := time.Now()
	require.NoError(t, f.r.CloseWindow(w))

	assert.Less(t, time.Since(start), f.settings.IdleTimeout(), "nothing to wait for")
}

func TestRobot_CloseWindowTwice(t *testing.T) {
	f := newFixture(t)

	w := f.d.NewWindow("again", "Again")

	for range 2 {
		f.show(t, w)
		require.NoError(t, f.r.CloseWindow(w))
		assert.False(t, query(t, f, w.IsDisplayable))
	}
}

func TestRobot_ComponentNamesReadOnUIThread(t *testing.T) {
	f := newFixture(t)

	hidden := f.d.NewButton("hidden", "Hidden", toolkit.Rect{Width: 10, Height: 10})
	f.d.NewWindow("never", "Never").Add(hidden)

	guarded := testutil.GuardName(f.d, hidden)

	err := f.r.WaitForComponentToBeReady(guarded, 30*time.Millisecond)

	var timedOut *failure.WaitTimedOutError
	require.ErrorAs(t, err, &timedOut)
	assert.Contains(t, err.Error(), "[hidden]")
	assert.Contains(t, timedOut.Op, "[hidden]")
	assert.Zero(t, guarded.OffThreadCalls())
}

func newPopupForm(f *fixture) (*simui.Window, *simui.Button, *simui.PopupMenu, *simui.Menu, *string) {
	chosen := new(string)

	more := f.d.NewMenu("more", "More")
	more.Submenu().Add(f.d.NewMenuItem("deep", "Deep").OnAction(func() { *chosen = "deep" }))

	popup := f.d.NewPopupMenu("context").Add(
		more,
		f.d.NewMenuItem("paste", "Paste").OnAction(func() { *chosen = "paste" }),
	)

	button := f.d.NewButton("target", "Target", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	button.SetPopupMenu(popup)

	return f.d.NewWindow("main", "Main").Add(button), button, popup, more, chosen
}

func TestRobot_ShowPopupMenuAndChoose(t *testing.T) {
	f := newFixture(t)
	w, button, popup, _, chosen := newPopupForm(f)
	f.show(t, w)

	got, err := f.r.ShowPopupMenu(button, toolkit.Pt(5, 5))
	require.NoError(t, err)
	assert.Equal(t, toolkit.PopupMenu(popup), got)

	paste := query(t, f, func() toolkit.Component { return popup.Children()[1] })
	require.NoError(t, f.r.Click(paste, toolkit.ButtonLeft, 1))

	assert.Equal(t, "paste", query(t, f, func() string { return *chosen }))
	assert.False(t, query(t, f, popup.IsShowing))
}

func TestRobot_ShowPopupMenuWithoutMenuFails(t *testing.T) {
	f := newFixture(t)
	f.settings.SetTimeoutToFindPopup(50)

	button := f.d.NewButton("plain", "Plain", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	f.show(t, f.d.NewWindow("main", "Main").Add(button))

	_, err := f.r.ShowPopupMenu(button, toolkit.Pt(5, 5))

	var lookup *failure.ComponentLookupError
	require.ErrorAs(t, err, &lookup)
}

func TestRobot_FindActivePopupMenu(t *testing.T) {
	t.Run("nested popups count as the outermost", func(t *testing.T) {
		f := newFixture(t)
		w, button, popup, more, _ := newPopupForm(f)
		f.show(t, w)

		f.onUI(t, func() {
			popup.Show(button, toolkit.Pt(5, 5))
			more.Submenu().Show(more, toolkit.Pt(120, 0))
		})

		got, err := f.r.FindActivePopupMenu()
		require.NoError(t, err)
		assert.Equal(t, toolkit.PopupMenu(popup), got)
	})

	t.Run("unrelated popups are ambiguous", func(t *testing.T) {
		f := newFixture(t)

		first := f.d.NewButton("first", "First", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
		second := f.d.NewButton("second", "Second", toolkit.Rect{X: 10, Y: 50, Width: 80, Height: 25})
		p1 := f.d.NewPopupMenu("p1").Add(f.d.NewMenuItem("a", "A"))
		p2 := f.d.NewPopupMenu("p2").Add(f.d.NewMenuItem("b", "B"))
		f.show(t, f.d.NewWindow("main", "Main").Add(first, second))

		f.onUI(t, func() {
			p1.Show(first, toolkit.Pt(1, 1))
			p2.Show(second, toolkit.Pt(1, 1))
		})

		got, err := f.r.FindActivePopupMenu()

		var lookup *failure.ComponentLookupError
		require.ErrorAs(t, err, &lookup)
		assert.Nil(t, got)
		assert.ElementsMatch(t, []string{"PopupMenu[p1]", "PopupMenu[p2]"}, lookup.Candidates)
	})

	t.Run("none showing", func(t *testing.T) {
		f := newFixture(t)
		f.settings.SetTimeoutToFindPopup(50)

		got, err := f.r.FindActivePopupMenu()

		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRobot_WaitForSubmenuJittersInvoker(t *testing.T) {
	f := newFixture(t)
	f.settings.SetTimeoutToFindSubMenu(1000)

	w, button, _, more, chosen := newPopupForm(f)
	f.show(t, w)

	_, err := f.r.ShowPopupMenu(button, toolkit.Pt(5, 5))
	require.NoError(t, err)
	require.False(t, query(t, f, more.Submenu().IsShowing))

	// No caller timeout: the submenu setting bounds the wait
	require.NoError(t, f.r.WaitForComponentToBeReady(more.Submenu(), 0))
	assert.True(t, query(t, f, more.Submenu().IsShowing))

	deep := query(t, f, func() toolkit.Component { return more.Submenu().Children()[0] })
	require.NoError(t, f.r.Click(deep, toolkit.ButtonLeft, 1))
	assert.Equal(t, "deep", query(t, f, func() string { return *chosen }))
}

func TestRobot_WaitForComponentTimesOut(t *testing.T) {
	f := newFixture(t)

	hidden := f.d.NewButton("hidden", "Hidden", toolkit.Rect{Width: 10, Height: 10})
	f.d.NewWindow("never", "Never").Add(hidden)

	err := f.r.WaitForComponentToBeReady(hidden, 50*time.Millisecond)

	var timedOut *failure.WaitTimedOutError
	require.ErrorAs(t, err, &timedOut)
	assert.GreaterOrEqual(t, timedOut.Elapsed, 50*time.Millisecond)
}

func TestRobot_FocusAcrossWindows(t *testing.T) {
	f := newFixture(t)

	field := f.d.NewTextField("field", toolkit.Rect{X: 10, Y: 10, Width: 150, Height: 25})
	first := f.d.NewWindow("first", "First").Add(field)
	second := f.d.NewWindow("second", "Second").Add(
		f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25}),
	)

	f.show(t, first)
	f.show(t, second)

	require.NoError(t, f.r.FocusAndWaitForFocusGain(field))

	owner, err := f.r.FocusOwner()
	require.NoError(t, err)
	assert.Equal(t, toolkit.Component(field), owner)
	assert.True(t, query(t, f, first.IsActive))
}

func TestRobot_SessionLock(t *testing.T) {
	d := simui.NewDesktop()
	defer d.Close()

	lock := screenlock.New(screenlock.Options{})
	opts := robot.Options{Runtime: d, Injector: d.Injector(), Settings: testutil.FastSettings(), Lock: lock}

	first, err := robot.New(opts)
	require.NoError(t, err)

	_, err = robot.New(opts)

	var lockErr *failure.LockFailureError
	require.ErrorAs(t, err, &lockErr)

	require.NoError(t, first.CleanUp())
	require.NoError(t, first.CleanUp(), "clean up is idempotent")
	assert.False(t, lock.AcquiredBy(first.Owner()))

	second, err := robot.New(opts)
	require.NoError(t, err)
	require.NoError(t, second.CleanUp())
}

func TestRobot_CleanUp(t *testing.T) {
	tests := []struct {
		name        string
		dispose     bool
		wantShowing bool
	}{
		{name: "disposes session windows", dispose: true, wantShowing: false},
		{name: "leaves windows open", dispose: false, wantShowing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := simui.NewDesktop()
			defer d.Close()

			r, err := robot.New(robot.Options{
				Runtime:  d,
				Injector: d.Injector(),
				Settings: testutil.FastSettings(),
				Lock:     screenlock.New(screenlock.Options{}),
			})
			require.NoError(t, err)

			w := d.NewWindow("main", "Main")
			require.NoError(t, r.ShowWindow(w, toolkit.Size{Width: 100, Height: 100}, false))
			require.NoError(t, r.PressMouse(toolkit.ButtonLeft))

			if tt.dispose {
				require.NoError(t, r.CleanUp())
			} else {
				require.NoError(t, r.CleanUpWithoutDisposingWindows())
			}

			showing, err := uithread.Query(d, w.IsShowing)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShowing, showing)
			assert.Equal(t, 2, d.Injector().Calls(), "the held button is released")
		})
	}
}
