//go:build windows

package cmd

import (
	"log/slog"

	"github.com/Norgate-AV/uirobot/internal/windows"
)

// registerConsoleHandler catches the console window being closed, which
// Windows does not deliver as a signal.
func registerConsoleHandler(ctx *ExecutionContext) {
	err := windows.OnConsoleControl(func(event string) bool {
		ctx.log.Debug("Received console control event", slog.String("type", event))
		ctx.interrupt(event)

		return true
	})
	if err != nil {
		ctx.log.Warn("Failed to register console control handler", slog.Any("error", err))
	}
}

func isElevated() (elevated, known bool) {
	return windows.IsElevated(), true
}
