//go:build !windows

package cmd

func registerConsoleHandler(*ExecutionContext) {}

// Elevation only gates input delivery on Windows.
func isElevated() (elevated, known bool) {
	return false, false
}
