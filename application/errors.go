package application

import "errors"

// Application errors.
var (
	// ErrNoWorld indicates an engine built without a world collaborator.
	ErrNoWorld = errors.New("world is required")

	// ErrClosed indicates use of an engine after Close.
	ErrClosed = errors.New("engine closed")

	// ErrSuperseded is reported when the watchdog gives up on an oracle call.
	ErrSuperseded = errors.New("oracle call superseded by fallback")
)
