package input

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/Norgate-AV/uirobot/internal/failure"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/timeouts"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

// Generator injects OS-level input events in the order they are requested.
// After every event it pauses for the configured delay between events.
type Generator struct {
	rt       toolkit.Runtime
	injector interfaces.Injector
	settings *settings.Settings
	log      logger.LoggerInterface
	platform string
	sleep    interfaces.Sleeper
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithPlatform overrides runtime.GOOS for platform-specific timing.
func WithPlatform(goos string) GeneratorOption {
	return func(g *Generator) { g.platform = goos }
}

// WithSleeper replaces time.Sleep.
func WithSleeper(fn interfaces.Sleeper) GeneratorOption {
	return func(g *Generator) { g.sleep = fn }
}

// NewGenerator returns a Generator that injects through injector and
// translates component coordinates on rt.
func NewGenerator(rt toolkit.Runtime, injector interfaces.Injector, s *settings.Settings, log logger.LoggerInterface, opts ...GeneratorOption) *Generator {
	failure.MustNotBeNil(rt, "runtime")
	failure.MustNotBeNil(injector, "injector")
	failure.MustNotBeNil(s, "settings")

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	g := &Generator{
		rt:       rt,
		injector: injector,
		settings: s,
		log:      log,
		platform: runtime.GOOS,
		sleep:    time.Sleep,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Injector returns the backend in use.
func (g *Generator) Injector() interfaces.Injector {
	return g.injector
}

func (g *Generator) emit(op string, inject func() error, attrs ...any) error {
	if err := inject(); err != nil {
		return err
	}

	g.log.Trace("Injected "+op, attrs...)

	if d := g.settings.DelayBetweenEvents(); d > 0 {
		g.sleep(d)
	}

	return nil
}

// PressMouse presses the buttons in b at the current pointer position.
func (g *Generator) PressMouse(b toolkit.Buttons) error {
	return g.emit("mouse press", func() error {
		return g.injector.MousePress(b)
	}, slog.String("buttons", b.String()))
}

// ReleaseMouse releases the buttons in b.
func (g *Generator) ReleaseMouse(b toolkit.Buttons) error {
	return g.emit("mouse release", func() error {
		return g.injector.MouseRelease(b)
	}, slog.String("buttons", b.String()))
}

// MoveMouse moves the pointer to screen coordinates (x, y).
func (g *Generator) MoveMouse(x, y int) error {
	return g.emit("mouse move", func() error {
		return g.injector.MouseMove(x, y)
	}, slog.Int("x", x), slog.Int("y", y))
}

// RotateWheel turns the mouse wheel by amount notches.
func (g *Generator) RotateWheel(amount int) error {
	return g.emit("mouse wheel", func() error {
		return g.injector.MouseWheel(amount)
	}, slog.Int("amount", amount))
}

// PressKey presses code. char is the character it is expected to type, or 0,
// and is used for diagnostics only. A rejected code is reported as
// *failure.InvalidKeyCodeError.
func (g *Generator) PressKey(code toolkit.KeyCode, char rune) error {
	attrs := []any{slog.String("key", code.String())}
	if char != 0 {
		attrs = append(attrs, slog.String("char", string(char)))
	}

	return g.emit("key press", func() error {
		if err := g.injector.KeyPress(code); err != nil {
			return &failure.InvalidKeyCodeError{Code: int(code), Cause: err}
		}

		return nil
	}, attrs...)
}

// ReleaseKey releases code. On darwin an extra settle delay follows.
func (g *Generator) ReleaseKey(code toolkit.KeyCode) error {
	err := g.emit("key release", func() error {
		return g.injector.KeyRelease(code)
	}, slog.String("key", code.String()))
	if err != nil {
		return err
	}

	if g.platform == "darwin" {
		g.sleep(timeouts.KeyReleaseSettleDelay)
	}

	return nil
}

// ScreenPoint translates p, relative to c, to screen coordinates and checks
// that the result lies on the physical screen. The point is never clamped:
// an off-screen point is reported as *failure.OutOfScreenBoundsError.
func (g *Generator) ScreenPoint(c toolkit.Component, p toolkit.Point) (toolkit.Point, error) {
	failure.MustNotBeNil(c, "component")

	origin, err := uithread.Query(g.rt, c.LocationOnScreen)
	if err != nil {
		return toolkit.Point{}, fmt.Errorf("failed to locate %T: %w", c, err)
	}

	pt := origin.Add(p)

	screen, err := g.injector.ScreenBounds()
	if err != nil {
		return toolkit.Point{}, fmt.Errorf("failed to read screen bounds: %w", err)
	}

	if !screen.Contains(pt) {
		return toolkit.Point{}, &failure.OutOfScreenBoundsError{X: pt.X, Y: pt.Y, Screen: screen.String()}
	}

	return pt, nil
}

// MoveMouseTo moves the pointer to p relative to c.
func (g *Generator) MoveMouseTo(c toolkit.Component, p toolkit.Point) error {
	pt, err := g.ScreenPoint(c, p)
	if err != nil {
		return err
	}

	return g.MoveMouse(pt.X, pt.Y)
}

// MoveMouseOver moves the pointer to the centre of c.
func (g *Generator) MoveMouseOver(c toolkit.Component) error {
	failure.MustNotBeNil(c, "component")

	size, err := uithread.Query(g.rt, func() toolkit.Size { return c.Bounds().Size() })
	if err != nil {
		return err
	}

	return g.MoveMouseTo(c, toolkit.Pt(size.Width/2, size.Height/2))
}

// PressMouseAt moves the pointer to p relative to c and presses b. Nothing is
// injected when p is off screen.
func (g *Generator) PressMouseAt(c toolkit.Component, p toolkit.Point, b toolkit.Buttons) error {
	if err := g.MoveMouseTo(c, p); err != nil {
		return err
	}

	return g.PressMouse(b)
}
