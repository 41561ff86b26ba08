//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/input"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/robot"
	"github.com/Norgate-AV/uirobot/internal/screenlock"
	"github.com/Norgate-AV/uirobot/internal/simui"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

// systemInjector returns the OS injector or skips when this machine has none.
func systemInjector(t *testing.T) interfaces.Injector {
	t.Helper()

	inj, err := input.NewSystemInjector(logger.NewNoOpLogger())
	if err != nil {
		t.Skipf("No system injector: %v", err)
	}

	return inj
}

// TestIntegration_ScreenBounds tests that the OS reports a usable screen
func TestIntegration_ScreenBounds(t *testing.T) {
	inj := systemInjector(t)

	screen, err := inj.ScreenBounds()
	require.NoError(t, err)

	assert.False(t, screen.IsEmpty(), "Screen should have a size")
	assert.NotEmpty(t, inj.Name())
}

// TestIntegration_MovePointer drives the real pointer using component
// coordinates from a simulated window, under the cross-process screen lock.
func TestIntegration_MovePointer(t *testing.T) {
	inj := systemInjector(t)

	d := simui.NewDesktop()
	defer d.Close()

	r, err := robot.New(robot.Options{
		Runtime:  d,
		Injector: inj,
		Lock:     screenlock.New(screenlock.Options{FilePath: screenlock.DefaultFilePath()}),
	})
	require.NoError(t, err)

	defer func() {
		assert.NoError(t, r.CleanUp())
	}()

	w := d.NewWindow("anchor", "Anchor")
	require.NoError(t, r.ShowWindow(w, toolkit.Size{Width: 200, Height: 100}, false))

	require.NoError(t, r.MoveMouseTo(w, toolkit.Pt(10, 10)))
	require.NoError(t, r.MoveMouse(0, 0))

	// Off-screen targets fail before anything is injected
	err = r.PressMouseAt(w, toolkit.Pt(1_000_000, 1_000_000), toolkit.ButtonLeft)

	var offScreen *failure.OutOfScreenBoundsError
	require.ErrorAs(t, err, &offScreen)
}
