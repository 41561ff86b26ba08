package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/robot"
	"github.com/Norgate-AV/uirobot/internal/screenlock"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/simui"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
	"github.com/Norgate-AV/uirobot/internal/uithread"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an automation session against the simulated desktop",
	Args:  cobra.NoArgs,
	RunE:  runDemoCmd,
}

// DemoParams holds the dependencies of a demo session.
type DemoParams struct {
	Settings *settings.Settings
	Logger   logger.LoggerInterface
	// Context, if set, learns the session so interrupts can clean it up.
	Context *ExecutionContext
}

// StepResult is the outcome of one demo step.
type StepResult struct {
	Name    string
	Elapsed time.Duration
	Err     error
}

type demoStep struct {
	name string
	run  func() error
}

// demoForm is the window the demo drives.
type demoForm struct {
	window *simui.Window
	greet  *simui.Button
	name   *simui.TextField
	status *simui.Label
	clear  *simui.MenuItem
}

func newDemoForm(d *simui.Desktop) *demoForm {
	f := &demoForm{
		name:   d.NewTextField("name", toolkit.Rect{X: 10, Y: 10, Width: 150, Height: 25}),
		status: d.NewLabel("status", "", toolkit.Rect{X: 10, Y: 80, Width: 200, Height: 20}),
		clear:  d.NewMenuItem("clear", "Clear"),
	}

	f.greet = d.NewButton("greet", "Greet", toolkit.Rect{X: 10, Y: 45, Width: 80, Height: 25}).
		OnAction(func() { f.status.SetText("Hello, " + f.name.Text()) })

	f.clear.OnAction(func() { f.name.SetText("") })
	f.name.SetPopupMenu(d.NewPopupMenu("edit").Add(f.clear))

	f.window = d.NewWindow("demo", "uirobot demo").Add(f.name, f.greet, f.status)

	return f
}

// expect reads a value on the UI thread and fails when it differs from want.
func expect[T comparable](rt toolkit.Runtime, what string, read func() T, want T) error {
	got, err := uithread.Query(rt, read)
	if err != nil {
		return err
	}

	if got != want {
		return fmt.Errorf("%s: got %v, want %v", what, got, want)
	}

	return nil
}

// runDemo drives a form on a fresh simulated desktop and reports every step.
// It stops at the first failing step.
func runDemo(params DemoParams) (results []StepResult, err error) {
	log := params.Logger

	d := simui.NewDesktop(simui.WithLogger(log))
	defer d.Close()

	r, err := robot.New(robot.Options{
		Runtime:  d,
		Injector: d.Injector(),
		Settings: params.Settings,
		Logger:   log,
		// The simulated desktop does not touch the real screen.
		Lock: screenlock.New(screenlock.Options{}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if params.Context != nil {
		params.Context.setRobot(r)
	}

	defer func() {
		if cleanErr := r.CleanUp(); cleanErr != nil && err == nil {
			err = fmt.Errorf("failed to clean up session: %w", cleanErr)
		}
	}()

	f := newDemoForm(d)

	steps := []demoStep{
		{"Show window", func() error {
			return r.ShowWindow(f.window, toolkit.Size{}, true)
		}},
		{"Focus name field", func() error {
			return r.FocusAndWaitForFocusGain(f.name)
		}},
		{"Type name", func() error {
			if err := r.Type("World"); err != nil {
				return err
			}

			return expect(d, "name field", f.name.Text, "World")
		}},
		{"Click greet", func() error {
			if err := r.Click(f.greet, toolkit.ButtonLeft, 1); err != nil {
				return err
			}

			return expect(d, "status", f.status.Text, "Hello, World")
		}},
		{"Clear from context menu", func() error {
			if _, err := r.ShowPopupMenu(f.name, toolkit.Pt(5, 5)); err != nil {
				return err
			}

			if err := r.Click(f.clear, toolkit.ButtonLeft, 1); err != nil {
				return err
			}

			return expect(d, "name field", f.name.Text, "")
		}},
		{"Close window", func() error {
			if err := r.CloseWindow(f.window); err != nil {
				return err
			}

			return expect(d, "window displayable", f.window.IsDisplayable, false)
		}},
	}

	for _, step := range steps {
		start := time.Now()
		stepErr := step.run()

		results = append(results, StepResult{Name: step.name, Elapsed: time.Since(start), Err: stepErr})

		if stepErr != nil {
			log.Error("Demo step failed", slog.String("step", step.name), slog.Any("error", stepErr))
			return results, fmt.Errorf("step %q failed: %w", step.name, stepErr)
		}

		log.Debug("Demo step passed", slog.String("step", step.name))
	}

	return results, nil
}

// displayDemoResults shows each step to the user
func displayDemoResults(results []StepResult, log logger.LoggerInterface) {
	for i, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "FAILED"
		}

		log.Info(fmt.Sprintf("  %d. %-26s %-6s %s", i+1, res.Name, status, res.Elapsed.Round(time.Millisecond)))
	}
}

func runDemoCmd(cmd *cobra.Command, _ []string) (err error) {
	cfg := NewConfigFromFlags(cmd)

	log, err := initializeLogger(cfg)
	if err != nil {
		return err
	}

	defer log.Close()
	defer recoverPanic(log, &err)

	log.Debug("Starting demo", slog.Bool("verbose", cfg.Verbose), slog.String("config", cfg.ConfigPath))

	s, err := loadSettings(cfg, log)
	if err != nil {
		return err
	}

	ctx := newExecutionContext(log)

	stop := setupSignalHandlers(ctx)
	defer stop()

	results, err := runDemo(DemoParams{Settings: s, Logger: log, Context: ctx})
	displayDemoResults(results, log)

	if err != nil {
		return err
	}

	log.Info("Demo complete", slog.Int("steps", len(results)))

	return nil
}
