//go:build !linux && !windows

package input

import (
	"fmt"
	"runtime"

	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
)

// NewSystemInjector reports that this platform has no injector backend.
func NewSystemInjector(_ logger.LoggerInterface) (interfaces.Injector, error) {
	return nil, fmt.Errorf("%w on %s", ErrNoSystemInjector, runtime.GOOS)
}
