//go:build windows

package windows

import (
	"sync"

	"golang.org/x/sys/windows"
)

// Console control event types
const (
	CTRL_C_EVENT        = 0
	CTRL_BREAK_EVENT    = 1
	CTRL_CLOSE_EVENT    = 2
	CTRL_LOGOFF_EVENT   = 5
	CTRL_SHUTDOWN_EVENT = 6
)

var ctrlNames = map[uint32]string{
	CTRL_C_EVENT:        "CTRL_C",
	CTRL_BREAK_EVENT:    "CTRL_BREAK",
	CTRL_CLOSE_EVENT:    "CTRL_CLOSE",
	CTRL_LOGOFF_EVENT:   "CTRL_LOGOFF",
	CTRL_SHUTDOWN_EVENT: "CTRL_SHUTDOWN",
}

// CtrlTypeName returns a human-readable name for a control event type
func CtrlTypeName(ctrlType uint32) string {
	if name, ok := ctrlNames[ctrlType]; ok {
		return name
	}

	return "UNKNOWN"
}

var (
	ctrlMu      sync.Mutex
	ctrlHandler func(event string) bool
	ctrlOnce    sync.Once
	ctrlErr     error
)

// OnConsoleControl routes console control events (Ctrl+C, console window
// close, logoff, shutdown) to fn. fn returns true when it handled the event.
// A later call replaces the handler.
func OnConsoleControl(fn func(event string) bool) error {
	ctrlMu.Lock()
	ctrlHandler = fn
	ctrlMu.Unlock()

	ctrlOnce.Do(func() {
		ret, _, err := procSetConsoleCtrlHandler.Call(windows.NewCallback(consoleCtrlCallback), 1)
		if ret == 0 {
			ctrlErr = err
		}
	})

	return ctrlErr
}

func consoleCtrlCallback(ctrlType uint32) uintptr {
	ctrlMu.Lock()
	fn := ctrlHandler
	ctrlMu.Unlock()

	if fn != nil && fn(CtrlTypeName(ctrlType)) {
		return 1
	}

	return 0 // let the default handler run
}
