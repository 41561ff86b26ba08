// Package testutil provides test utilities and mock implementations.
package testutil

import (
	"testing"
	"time"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/settings"
)

// FastSettings returns Settings with every delay and timeout shortened so
// tests run quickly.
func FastSettings() *settings.Settings {
	s := settings.New()
	s.SetDelayBetweenEvents(0)
	s.SetEventPostingDelay(0)
	s.SetIdleTimeout(2000)
	s.SetTimeoutToBeVisible(2000)
	s.SetTimeoutToFindPopup(500)
	s.SetTimeoutToFindSubMenu(100)

	return s
}

// NewTestLogger returns a logger that discards everything.
func NewTestLogger(t *testing.T) logger.LoggerInterface {
	t.Helper()

	return logger.NewNoOpLogger()
}

// Eventually polls cond every 5ms until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, msg)
		}

		time.Sleep(5 * time.Millisecond)
	}
}
