package idle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/idle"
	"github.com/Norgate-AV/uirobot/internal/simui"
	"github.com/Norgate-AV/uirobot/internal/testutil"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWaitForIdle_PanicsOnUIThread(t *testing.T) {
	rt := testutil.NewManualRuntime()
	w := idle.NewWaiter(rt, testutil.FastSettings(), nil)

	defer func() {
		p := recover()
		require.NotNil(t, p, "expected a panic")

		err, ok := p.(*failure.IllegalThreadStateError)
		require.True(t, ok, "unexpected panic value %v", p)
		assert.Equal(t, "WaitForIdle", err.Op)
		assert.Zero(t, rt.System().Len(), "nothing is posted before the check")
	}()

	w.WaitForIdle()
}

func TestWaitForIdle_EmptyQueueTakesOneCycle(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	defer rt.Close()

	w := idle.NewWaiter(rt, testutil.FastSettings(), nil)

	report := w.Wait()

	assert.Equal(t, 1, report.Queues)
	assert.Equal(t, 1, report.Cycles)
	assert.False(t, report.TimedOut)
	assert.Equal(t, 1, rt.System().Invocations())
}

func TestWaitForIdle_RetriesOnceWhenWorkArrivesDuringMarker(t *testing.T) {
	rt := testutil.NewManualRuntime()
	sleeps := testutil.NewSleepRecorder()
	w := idle.NewWaiter(rt, testutil.FastSettings(), nil, idle.WithSleeper(sleeps.Sleep))
	q := rt.System()

	done := make(chan idle.Report, 1)
	go func() { done <- w.Wait() }()

	testutil.Eventually(t, time.Second, func() bool { return q.Len() == 1 }, "first marker posted")

	marker := q.Pop()
	q.PostEvent(toolkit.Event{Kind: toolkit.ActionPerformed})
	marker()

	testutil.Eventually(t, time.Second, func() bool { return q.Len() == 2 }, "second marker posted behind the new event")

	require.True(t, rt.DispatchNext())
	require.True(t, rt.DispatchNext())

	var report idle.Report
	select {
	case report = <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForIdle did not return")
	}

	assert.Equal(t, 2, q.Invocations(), "exactly one extra marker cycle")
	assert.Equal(t, 2, report.Cycles)
	assert.False(t, report.TimedOut)
	assert.Len(t, q.Dispatched(), 1)
	assert.Equal(t, []time.Duration{timeouts.IdleRetryPause}, sleeps.Recorded())
}

func TestWaitForIdle_TimesOutWhenNothingDispatches(t *testing.T) {
	rt := testutil.NewManualRuntime()
	s := testutil.FastSettings()
	s.SetIdleTimeout(50)

	w := idle.NewWaiter(rt, s, nil)

	done := make(chan idle.Report, 1)
	go func() { done <- w.Wait() }()

	select {
	case report := <-done:
		assert.True(t, report.TimedOut)
		assert.Zero(t, report.Cycles)
		assert.GreaterOrEqual(t, report.Elapsed, 50*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForIdle was not bounded by the idle timeout")
	}
}

func TestWaitForIdle_BoundedWhenWorkRepostsItself(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	defer rt.Close()

	s := testutil.FastSettings()
	s.SetIdleTimeout(100)

	var stop atomic.Bool

	var spin func()
	spin = func() {
		if !stop.Load() {
			rt.System().InvokeLater(spin)
		}
	}

	rt.System().InvokeLater(spin)

	start := time.Now()
	report := idle.NewWaiter(rt, s, nil).Wait()
	stop.Store(true)

	assert.True(t, report.TimedOut)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForIdle_DesktopWorkRepostingItselfRunsOutTimeout(t *testing.T) {
	d := simui.NewDesktop()
	defer d.Close()

	s := testutil.FastSettings()
	s.SetIdleTimeout(100)

	var stop atomic.Bool

	var spin func()
	spin = func() {
		time.Sleep(50 * time.Microsecond)

		if !stop.Load() {
			d.SystemQueue().InvokeLater(spin)
		}
	}

	d.SystemQueue().InvokeLater(spin)

	for range 5 {
		report := idle.NewWaiter(d, s, nil).Wait()

		assert.True(t, report.TimedOut)
		assert.GreaterOrEqual(t, report.Elapsed, 100*time.Millisecond)
	}

	stop.Store(true)
}

func TestWaitForIdle_WaitsOnEveryQueue(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	defer rt.Close()

	applet := rt.AddQueue("applet")

	report := idle.NewWaiter(rt, testutil.FastSettings(), nil).Wait()

	assert.Equal(t, 2, report.Queues)
	assert.False(t, report.TimedOut)
	assert.Equal(t, 1, applet.Invocations())
	assert.Equal(t, 1, rt.System().Invocations())
}

type queueList []toolkit.EventQueue

func (l queueList) AllQueues() []toolkit.EventQueue { return l }

func TestWaitForIdle_QueueSource(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	defer rt.Close()

	extra := rt.AddQueue("extra")

	w := idle.NewWaiter(rt, testutil.FastSettings(), nil, idle.WithQueueSource(queueList{extra}))
	report := w.Wait()

	assert.Equal(t, 1, report.Queues)
	assert.Equal(t, 1, extra.Invocations())
	assert.Zero(t, rt.System().Invocations())
}

func TestWaitForIdle_SimpleMode(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	defer rt.Close()

	applet := rt.AddQueue("applet")

	s := testutil.FastSettings()
	s.SetSimpleWaitForIdle(true)

	report := idle.NewWaiter(rt, s, nil).Wait()

	assert.Equal(t, idle.Report{Queues: 1, Cycles: 1, Elapsed: report.Elapsed}, report)
	assert.Equal(t, 1, rt.System().Invocations())
	assert.Zero(t, applet.Invocations())
}

func TestWaitForIdle_PreDelay(t *testing.T) {
	tests := []struct {
		name    string
		delay   int
		posting int
		want    []time.Duration
	}{
		{name: "posting exceeds delay", delay: 60, posting: 100, want: []time.Duration{40 * time.Millisecond}},
		{name: "delay exceeds posting", delay: 200, posting: 100, want: nil},
		{name: "equal", delay: 100, posting: 100, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := testutil.NewFakeRuntime()
			defer rt.Close()

			s := testutil.FastSettings()
			s.SetDelayBetweenEvents(tt.delay)
			s.SetEventPostingDelay(tt.posting)

			sleeps := testutil.NewSleepRecorder()
			idle.NewWaiter(rt, s, nil, idle.WithSleeper(sleeps.Sleep)).WaitForIdle()

			assert.Equal(t, tt.want, sleeps.Recorded())
		})
	}
}

func TestWaitForIdle_RuntimeStopped(t *testing.T) {
	rt := testutil.NewFakeRuntime()
	rt.Close()

	report := idle.NewWaiter(rt, testutil.FastSettings(), nil).Wait()

	assert.True(t, report.TimedOut)
	assert.Less(t, report.Elapsed, time.Second)
}
