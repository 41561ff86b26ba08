package robot

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
)

// poll checks cond every interval until it holds or timeout expires. An error
// from cond ends the wait. On expiry a *failure.WaitTimedOutError is returned
// carrying what state reports, if state is not nil. before, if not nil, runs
// ahead of every retry; its error also ends the wait.
func (r *Robot) poll(op string, timeout, interval time.Duration, cond func() (bool, error), before func() error, state func() string) error {
	watch := timeouts.StartWatch(timeout)
	waitLog := rate.Sometimes{Interval: timeouts.WaitLogInterval}

	for attempt := 0; ; attempt++ {
		if attempt > 0 && before != nil {
			if err := before(); err != nil {
				return err
			}
		}

		ok, err := cond()
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		if watch.IsTimeOut() {
			timedOut := &failure.WaitTimedOutError{Op: op, Elapsed: watch.Elapsed()}
			if state != nil {
				timedOut.State = state()
			}

			return timedOut
		}

		waitLog.Do(func() {
			r.log.Debug("Still waiting", slog.String("for", op), slog.Duration("elapsed", watch.Elapsed()))
		})

		time.Sleep(interval)
	}
}
