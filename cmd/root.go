package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/settings"
	"github.com/Norgate-AV/uirobot/internal/version"
)

// RootCmd is the root command for the uirobot CLI application.
var RootCmd = &cobra.Command{
	Use:          "uirobot",
	Short:        "uirobot - Drive desktop UIs with synthesized input",
	Version:      version.GetVersion(),
	Args:         cobra.NoArgs,
	RunE:         Execute,
	SilenceUsage: true, // Don't show usage on runtime errors
}

func init() {
	RootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	RootCmd.PersistentFlags().BoolP("verbose", "V", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolP("logs", "l", false, "print the current log file to stdout and exit")
	RootCmd.PersistentFlags().StringP("config", "c", "", "settings file (YAML, JSON or TOML)")

	RootCmd.AddCommand(settingsCmd, demoCmd, envCmd)
}

// handleLogsFlag processes the --logs flag and exits if needed
func handleLogsFlag(cfg *Config, w io.Writer, exitFunc func(int)) error {
	if !cfg.ShowLogs {
		return nil
	}

	if err := logger.PrintLogFile(w, logger.LoggerOptions{}); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logPath := logger.GetLogPath(logger.LoggerOptions{})
			fmt.Fprintf(os.Stderr, "Log file does not exist: %s\n", logPath)
			exitFunc(1)

			return nil
		}

		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		exitFunc(1)

		return nil
	}

	exitFunc(0)

	return nil
}

// initializeLogger creates a logger and logs startup information
func initializeLogger(cfg *Config) (logger.LoggerInterface, error) {
	log, err := logger.NewLogger(logger.LoggerOptions{
		Verbose:  cfg.Verbose,
		Compress: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// loadSettings reads the effective settings for cfg.
func loadSettings(cfg *Config, log logger.LoggerInterface) (*settings.Settings, error) {
	s, err := settings.Load(cfg.ConfigPath)
	if err != nil {
		log.Error("Failed to load settings", slog.String("path", cfg.ConfigPath), slog.Any("error", err))
		return nil, err
	}

	log.Debug("Settings loaded", slog.String("path", cfg.ConfigPath), slog.Any("settings", s.Snapshot()))

	return s, nil
}

// recoverPanic logs a panic with its stack and turns it into an error.
func recoverPanic(log logger.LoggerInterface, err *error) {
	r := recover()
	if r == nil {
		return
	}

	log.Error("PANIC RECOVERED",
		slog.Any("panic", r),
		slog.String("stack", string(debug.Stack())),
	)

	fmt.Fprintf(os.Stderr, "\n*** PANIC: %v ***\n", r)
	fmt.Fprintf(os.Stderr, "Check log file for details\n")

	*err = fmt.Errorf("panic: %v", r)
}

// Execute handles the root command: --logs, otherwise help.
func Execute(cmd *cobra.Command, _ []string) error {
	cfg := NewConfigFromFlags(cmd)

	if cfg.ShowLogs {
		return handleLogsFlag(cfg, cmd.OutOrStdout(), os.Exit)
	}

	return cmd.Help()
}
