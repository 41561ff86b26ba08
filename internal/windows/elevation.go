//go:build windows

package windows

import "golang.org/x/sys/windows"

// IsElevated reports whether this process runs with an elevated token. Input
// injected from a non-elevated process is dropped by elevated windows.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
