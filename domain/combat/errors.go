package combat

import "errors"

// Domain errors for combat operations.
var (
	// ErrCommitted indicates the actor is locked into an attack or recovery.
	ErrCommitted = errors.New("actor is committed")

	// ErrUnknownAction indicates the action is not a gated action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownAttack indicates the attack kind is not light or heavy.
	ErrUnknownAttack = errors.New("unknown attack kind")
)
