package input

import "errors"

// ErrNoSystemInjector is returned when no OS injector backend is available.
var ErrNoSystemInjector = errors.New("no OS input injector available")
