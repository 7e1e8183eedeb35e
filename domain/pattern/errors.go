package pattern

import "errors"

var (
	// ErrUnknownSignal indicates a signal the tracker does not define.
	ErrUnknownSignal = errors.New("unknown pattern signal")

	// ErrInvalidConfig indicates tracker settings out of range.
	ErrInvalidConfig = errors.New("invalid pattern tracker config")
)
