package action

import "errors"

var (
	// ErrNilDirective indicates an attempt to enqueue a nil directive.
	ErrNilDirective = errors.New("nil directive")

	// ErrInvalidConfig indicates queue settings out of range.
	ErrInvalidConfig = errors.New("invalid action queue config")
)
