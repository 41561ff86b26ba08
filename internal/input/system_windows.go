//go:build windows

package input

import (
	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
	"github.com/Norgate-AV/uirobot/internal/windows"
)

// NewSystemInjector returns the SendInput injector.
func NewSystemInjector(log logger.LoggerInterface) (interfaces.Injector, error) {
	return windows.NewInjector(log), nil
}
