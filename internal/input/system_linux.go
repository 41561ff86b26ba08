//go:build linux

package input

import (
	"errors"
	"os"
	"os/exec"

	"github.com/Norgate-AV/uirobot/internal/interfaces"
	"github.com/Norgate-AV/uirobot/internal/logger"
)

// NewSystemInjector returns the xdotool injector. It needs an X11 display and
// the xdotool binary on PATH.
func NewSystemInjector(_ logger.LoggerInterface) (interfaces.Injector, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errors.New("no X11 display: DISPLAY is not set")
	}

	path, err := exec.LookPath("xdotool")
	if err != nil {
		return nil, errors.Join(ErrNoSystemInjector, err)
	}

	return NewXdotoolInjector(WithBinary(path)), nil
}
