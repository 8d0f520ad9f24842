package stopwatch

import "errors"

// ErrInvalidTransition is returned when a command is not allowed in the
// current state. The state is left unchanged.
var ErrInvalidTransition = errors.New("invalid stopwatch transition")
