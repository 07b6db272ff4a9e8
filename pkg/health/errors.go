package health

import "errors"

// ErrCheckTimeout wraps the error of a check that outlived the run timeout.
var ErrCheckTimeout = errors.New("health: check timeout")
