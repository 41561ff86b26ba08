package simui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Norgate-AV/uirobot/internal/idle"
	"github.com/Norgate-AV/uirobot/internal/simui"
	"github.com/Norgate-AV/uirobot/internal/testutil"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	d      *simui.Desktop
	waiter *idle.Waiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := simui.NewDesktop()
	t.Cleanup(d.Close)

	return &fixture{d: d, waiter: idle.NewWaiter(d, testutil.FastSettings(), nil)}
}

func (f *fixture) onUI(t *testing.T, fn func()) {
	t.Helper()

	require.NoError(t, uithread.Run(f.d, func() error {
		fn()
		return nil
	}))
}

func query[T any](t *testing.T, f *fixture, fn func() T) T {
	t.Helper()

	v, err := uithread.Query(f.d, fn)
	require.NoError(t, err)

	return v
}

func (f *fixture) show(t *testing.T, w *simui.Window) {
	t.Helper()

	f.onUI(t, func() {
		w.Pack()
		w.SetVisible(true)
	})
	f.waiter.WaitForIdle()
}

func (f *fixture) clickAt(t *testing.T, c toolkit.Component, b toolkit.Buttons) {
	t.Helper()

	center := query(t, f, func() toolkit.Point { return toolkit.ScreenBounds(c).Center() })
	inj := f.d.Injector()

	require.NoError(t, inj.MouseMove(center.X, center.Y))
	require.NoError(t, inj.MousePress(b))
	require.NoError(t, inj.MouseRelease(b))
	f.waiter.WaitForIdle()
}

func (f *fixture) typeKey(t *testing.T, code toolkit.KeyCode) {
	t.Helper()

	require.NoError(t, f.d.Injector().KeyPress(code))
	require.NoError(t, f.d.Injector().KeyRelease(code))
}

func TestDesktop_DispatchThread(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.d.IsDispatchThread(), "test goroutine")

	other := make(chan bool)
	go func() { other <- f.d.IsDispatchThread() }()

	assert.False(t, <-other, "another driver goroutine")
	assert.True(t, query(t, f, f.d.IsDispatchThread))
}

func TestQueue_PendingWhileUnitRuns(t *testing.T) {
	f := newFixture(t)
	q := f.d.SystemQueue()

	started := make(chan struct{})
	release := make(chan struct{})
	inside := make(chan bool, 1)

	q.InvokeLater(func() {
		close(started)
		inside <- q.Pending()
		<-release
	})

	<-started
	assert.True(t, q.Pending(), "a running unit is pending for drivers")

	close(release)
	assert.False(t, <-inside, "the running unit does not count itself")

	testutil.Eventually(t, time.Second, func() bool { return !q.Pending() }, "queue drained")
}

func TestDesktop_ButtonClick(t *testing.T) {
	f := newFixture(t)

	clicked := false
	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25}).
		OnAction(func() { clicked = true })
	w := f.d.NewWindow("main", "Main").Add(button)

	f.show(t, w)
	f.clickAt(t, button, toolkit.ButtonLeft)

	assert.True(t, query(t, f, func() bool { return clicked }))
	assert.True(t, query(t, f, button.HasFocus), "click-to-focus")
}

func TestDesktop_RightClickDoesNotPressButton(t *testing.T) {
	f := newFixture(t)

	clicked := false
	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25}).
		OnAction(func() { clicked = true })

	f.show(t, f.d.NewWindow("main", "Main").Add(button))
	f.clickAt(t, button, toolkit.ButtonRight)

	assert.False(t, query(t, f, func() bool { return clicked }))
}

func TestDesktop_DisabledButtonIgnoresClick(t *testing.T) {
	f := newFixture(t)

	clicked := false
	button := f.d.NewButton("ok", "OK", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25}).
		OnAction(func() { clicked = true })
	button.SetEnabled(false)

	f.show(t, f.d.NewWindow("main", "Main").Add(button))
	f.clickAt(t, button, toolkit.ButtonLeft)

	assert.False(t, query(t, f, func() bool { return clicked }))
}

func TestDesktop_TypingIntoTextField(t *testing.T) {
	f := newFixture(t)

	field := f.d.NewTextField("name", toolkit.Rect{X: 10, Y: 10, Width: 200, Height: 20})
	f.show(t, f.d.NewWindow("form", "Form").Add(field))

	f.clickAt(t, field, toolkit.ButtonLeft)

	require.NoError(t, f.d.Injector().KeyPress(toolkit.KeyShift))
	f.typeKey(t, toolkit.KeyA+7) // H
	require.NoError(t, f.d.Injector().KeyRelease(toolkit.KeyShift))
	f.typeKey(t, toolkit.KeyA+8) // i
	f.typeKey(t, toolkit.KeyA+3) // d
	f.typeKey(t, toolkit.KeyBackspace)
	f.waiter.WaitForIdle()

	assert.Equal(t, "Hi", query(t, f, field.Text))
}

func TestDesktop_FocusFollowsActiveWindow(t *testing.T) {
	f := newFixture(t)

	first := f.d.NewTextField("first", toolkit.Rect{X: 10, Y: 10, Width: 100, Height: 20})
	second := f.d.NewTextField("second", toolkit.Rect{X: 10, Y: 10, Width: 100, Height: 20})
	w1 := f.d.NewWindow("one", "One").Add(first)
	w2 := f.d.NewWindow("two", "Two").Add(second)

	f.show(t, w1)
	assert.True(t, query(t, f, first.HasFocus))

	f.show(t, w2)
	assert.True(t, query(t, f, second.HasFocus))
	assert.False(t, query(t, f, w1.IsActive))

	assert.False(t, query(t, f, first.RequestFocusInWindow), "focus cannot move into an inactive window")

	f.onUI(t, w1.ToFront)
	assert.True(t, query(t, f, first.HasFocus), "activation restores the window's last focus owner")
}

func TestDesktop_FocusGainedListener(t *testing.T) {
	f := newFixture(t)

	a := f.d.NewTextField("a", toolkit.Rect{X: 10, Y: 10, Width: 100, Height: 20})
	b := f.d.NewTextField("b", toolkit.Rect{X: 10, Y: 40, Width: 100, Height: 20})
	f.show(t, f.d.NewWindow("form", "Form").Add(a, b))

	gained := 0
	f.onUI(t, func() {
		b.OnFocusGained(func(toolkit.Event) { gained++ })
		b.RequestFocusInWindow()
	})
	f.waiter.WaitForIdle()

	assert.Equal(t, 1, query(t, f, func() int { return gained }))
}

func TestDesktop_ClickCountGrouping(t *testing.T) {
	f := newFixture(t)

	button := f.d.NewButton("b", "B", toolkit.Rect{X: 10, Y: 10, Width: 80, Height: 25})
	f.show(t, f.d.NewWindow("main", "Main").Add(button))

	var counts []int
	f.onUI(t, func() {
		button.AddListener(func(e toolkit.Event) {
			if e.Kind == toolkit.MouseClicked {
				counts = append(counts, e.ClickCount)
			}
		})
	})

	center := query(t, f, func() toolkit.Point { return toolkit.ScreenBounds(button).Center() })
	inj := f.d.Injector()
	require.NoError(t, inj.MouseMove(center.X, center.Y))

	for range 3 {
		require.NoError(t, inj.MousePress(toolkit.ButtonLeft))
		require.NoError(t, inj.MouseRelease(toolkit.ButtonLeft))
	}

	f.waiter.WaitForIdle()

	assert.Equal(t, []int{1, 2, 3}, query(t, f, func() []int { return counts }))
}

func TestDesktop_PopupMenu(t *testing.T) {
	f := newFixture(t)

	chosen := ""
	popup := f.d.NewPopupMenu("context").Add(
		f.d.NewMenuItem("copy", "Copy").OnAction(func() { chosen = "copy" }),
		f.d.NewMenuItem("paste", "Paste").OnAction(func() { chosen = "paste" }),
	)

	panel := f.d.NewPanel("canvas", toolkit.Rect{X: 0, Y: 0, Width: 300, Height: 200})
	panel.SetPopupMenu(popup)
	f.show(t, f.d.NewWindow("main", "Main").Add(panel))

	f.clickAt(t, panel, toolkit.ButtonRight)

	require.True(t, query(t, f, popup.IsShowing))
	assert.Equal(t, toolkit.Component(panel), query(t, f, popup.Invoker))

	paste := query(t, f, func() toolkit.Component { return popup.Children()[1] })
	f.clickAt(t, paste, toolkit.ButtonLeft)

	assert.Equal(t, "paste", query(t, f, func() string { return chosen }))
	assert.False(t, query(t, f, popup.IsShowing))
}

func TestDesktop_SubmenuNeedsMotion(t *testing.T) {
	f := newFixture(t)

	more := f.d.NewMenu("more", "More")
	more.Submenu().Add(f.d.NewMenuItem("deep", "Deep"))

	popup := f.d.NewPopupMenu("context").Add(more)
	panel := f.d.NewPanel("canvas", toolkit.Rect{Width: 300, Height: 200})
	panel.SetPopupMenu(popup)
	f.show(t, f.d.NewWindow("main", "Main").Add(panel))

	f.clickAt(t, panel, toolkit.ButtonRight)
	require.True(t, query(t, f, popup.IsShowing))
	assert.False(t, query(t, f, more.Submenu().IsShowing))

	at := query(t, f, func() toolkit.Point { return toolkit.ScreenBounds(more).Center() })
	require.NoError(t, f.d.Injector().MouseMove(at.X, at.Y))
	f.waiter.WaitForIdle()

	assert.True(t, query(t, f, more.Submenu().IsShowing))
	assert.Equal(t, toolkit.Component(more), query(t, f, more.Submenu().Invoker))
}

func TestDesktop_AppletQueueLifecycle(t *testing.T) {
	f := newFixture(t)

	clicked := false
	button := f.d.NewButton("inner", "Inner", toolkit.Rect{X: 5, Y: 5, Width: 60, Height: 20}).
		OnAction(func() { clicked = true })
	applet := f.d.NewApplet("game", toolkit.Rect{X: 0, Y: 0, Width: 200, Height: 100}).Add(button)
	w := f.d.NewWindow("host", "Host").Add(applet)

	assert.Len(t, f.d.Queues(), 2)
	assert.Equal(t, applet.AppletQueue(), f.d.QueueOf(button))

	f.show(t, w)
	f.clickAt(t, button, toolkit.ButtonLeft)
	assert.True(t, query(t, f, func() bool { return clicked }))

	applet.AppletQueue().PostEvent(toolkit.Event{Kind: toolkit.WindowClosing, Source: w})
	f.waiter.WaitForIdle()

	assert.False(t, query(t, f, w.IsDisplayable))
	assert.Len(t, f.d.Queues(), 1, "disposing the host destroys the applet queue")
	assert.Equal(t, f.d.SystemQueue(), f.d.QueueOf(button))
}

func TestDesktop_WindowLifecycleEvents(t *testing.T) {
	f := newFixture(t)

	var kinds []toolkit.EventKind
	remove := f.d.AddGlobalListener(func(e toolkit.Event) {
		if e.Kind.IsWindow() {
			kinds = append(kinds, e.Kind)
		}
	})
	defer remove()

	w := f.d.NewWindow("main", "Main")
	f.show(t, w)

	f.d.SystemQueue().PostEvent(toolkit.Event{Kind: toolkit.WindowClosing, Source: w})
	f.waiter.WaitForIdle()

	got := query(t, f, func() []toolkit.EventKind { return kinds })
	assert.Equal(t, []toolkit.EventKind{
		toolkit.WindowOpened,
		toolkit.WindowActivated,
		toolkit.WindowClosing,
		toolkit.WindowDeactivated,
		toolkit.WindowClosed,
	}, got)
}

func TestDesktop_ScrollingPanel(t *testing.T) {
	f := newFixture(t)

	far := f.d.NewButton("far", "Far", toolkit.Rect{X: 0, Y: 400, Width: 80, Height: 20})
	panel := f.d.NewPanel("list", toolkit.Rect{X: 0, Y: 0, Width: 100, Height: 100}).
		EnableScrolling().
		Add(f.d.NewLabel("top", "Top", toolkit.Rect{Width: 80, Height: 20}), far)
	w := f.d.NewWindow("main", "Main").Add(panel)

	f.onUI(t, func() {
		w.SetSize(toolkit.Size{Width: 120, Height: 120})
		w.SetVisible(true)
	})

	f.onUI(t, func() {
		loc := far.LocationOnScreen().Sub(panel.LocationOnScreen())
		panel.ScrollRectToVisible(toolkit.RectAt(loc, far.Bounds().Size()))
	})

	assert.Equal(t, toolkit.Pt(0, 320), query(t, f, panel.ScrollOffset))
	assert.Equal(t, toolkit.Pt(100, 180), query(t, f, far.LocationOnScreen))
}

func TestDesktop_PanicInUnitIsContained(t *testing.T) {
	f := newFixture(t)

	f.d.SystemQueue().InvokeLater(func() { panic("boom") })

	assert.True(t, query(t, f, func() bool { return true }), "the loop keeps running")
}

func TestInjector_RejectsUnknownKey(t *testing.T) {
	f := newFixture(t)

	assert.Error(t, f.d.Injector().KeyPress(toolkit.KeyCode(0x3A)))
	assert.ErrorIs(t, f.d.Injector().MousePress(toolkit.NoButtons), simui.ErrNoButton)
	assert.Zero(t, f.d.Injector().Calls())
}
