package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/robot"
)

// ExecutionContext holds state needed throughout a session and for cleanup
// in signal handlers.
type ExecutionContext struct {
	mu       sync.Mutex
	robot    *robot.Robot
	log      logger.LoggerInterface
	exitFunc func(int) // Injectable for testing; defaults to os.Exit
}

func newExecutionContext(log logger.LoggerInterface) *ExecutionContext {
	return &ExecutionContext{log: log, exitFunc: os.Exit}
}

// setRobot records the session an interrupt has to clean up.
func (c *ExecutionContext) setRobot(r *robot.Robot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.robot = r
}

// interrupt releases held input and the screen lock, then exits with 130.
func (c *ExecutionContext) interrupt(reason string) {
	c.log.Info("Interrupt received, starting cleanup", slog.String("reason", reason))

	c.mu.Lock()
	r := c.robot
	c.mu.Unlock()

	if r != nil {
		if err := r.CleanUp(); err != nil {
			c.log.Error("Cleanup failed", slog.Any("error", err))
		}
	}

	c.log.Debug("Cleanup completed, exiting")
	c.exitFunc(130)
}

// setupSignalHandlers routes SIGINT, SIGTERM and platform console events to
// ctx.interrupt. The returned function stops listening.
func setupSignalHandlers(ctx *ExecutionContext) func() {
	registerConsoleHandler(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		select {
		case sig := <-sigChan:
			ctx.log.Debug("Received signal", slog.Any("signal", sig))
			ctx.interrupt(sig.String())
		case <-done:
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			wg.Wait()
		})
	}
}
