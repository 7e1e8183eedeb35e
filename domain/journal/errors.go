package journal

import "errors"

var (
	// ErrInvalidEntry indicates an entry missing required fields.
	ErrInvalidEntry = errors.New("invalid journal entry")

	// ErrStoreClosed indicates use of a closed store.
	ErrStoreClosed = errors.New("journal store closed")

	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("journal backend connection failed")
)
