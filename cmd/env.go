package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/uirobot/internal/input"
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/toolkit"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Report the input injection backend and screen bounds of this machine",
	Args:  cobra.NoArgs,
	RunE:  runEnvCmd,
}

// EnvParams holds the dependencies of an environment check.
type EnvParams struct {
	Logger      logger.LoggerInterface
	NewInjector func(logger.LoggerInterface) (interfaces.Injector, error)
	IsElevated  func() (elevated, known bool)
}

// EnvResult describes the injection environment.
type EnvResult struct {
	Backend        string
	Screen         toolkit.Rect
	Elevated       bool
	ElevationKnown bool
}

func runEnvCheck(params EnvParams) (*EnvResult, error) {
	inj, err := params.NewInjector(params.Logger)
	if err != nil {
		return nil, fmt.Errorf("no input injector for this platform: %w", err)
	}

	screen, err := inj.ScreenBounds()
	if err != nil {
		return nil, fmt.Errorf("failed to read screen bounds from %s: %w", inj.Name(), err)
	}

	result := &EnvResult{Backend: inj.Name(), Screen: screen}

	if params.IsElevated != nil {
		result.Elevated, result.ElevationKnown = params.IsElevated()
	}

	return result, nil
}

func displayEnvResult(result *EnvResult, log logger.LoggerInterface) {
	log.Info("Input injection available",
		slog.String("backend", result.Backend),
		slog.String("screen", result.Screen.String()),
	)

	if result.ElevationKnown && !result.Elevated {
		log.Warn("Process is not elevated: input sent to elevated windows will be dropped")
	}
}

func runEnvCmd(cmd *cobra.Command, _ []string) (err error) {
	cfg := NewConfigFromFlags(cmd)

	log, err := initializeLogger(cfg)
	if err != nil {
		return err
	}

	defer log.Close()
	defer recoverPanic(log, &err)

	result, err := runEnvCheck(EnvParams{
		Logger:      log,
		NewInjector: input.NewSystemInjector,
		IsElevated:  isElevated,
	})
	if err != nil {
		log.Error("Environment check failed", slog.Any("error", err))
		return err
	}

	displayEnvResult(result, log)

	return nil
}
