package timeouts

import "time"

// Watch is a stopwatch with a deadline. A Watch is created fresh for every wait
// operation and is never reused across operations.
type Watch struct {
	start    time.Time
	duration time.Duration
	now      func() time.Time
}

// StartWatch returns a Watch started now that expires after d.
func StartWatch(d time.Duration) *Watch {
	return startWatch(d, time.Now)
}

func startWatch(d time.Duration, now func() time.Time) *Watch {
	return &Watch{start: now(), duration: d, now: now}
}

// IsTimeOut reports whether more than the watch duration has elapsed since it
// was started. Once true it stays true for this Watch.
func (w *Watch) IsTimeOut() bool {
	return w.Elapsed() > w.duration
}

// Elapsed returns the time since the watch was started.
func (w *Watch) Elapsed() time.Duration {
	// Sub uses the monotonic clock reading, so elapsed never goes backwards.
	return w.now().Sub(w.start)
}

// Duration returns the configured timeout.
func (w *Watch) Duration() time.Duration {
	return w.duration
}

// Remaining returns the time left before the watch expires, or zero.
func (w *Watch) Remaining() time.Duration {
	if r := w.duration - w.Elapsed(); r > 0 {
		return r
	}

	return 0
}
