// Package combat provides the core domain model for duel actors.
package combat

// State is a per-actor combat/behavior state.
type State string

// Actor states. Combat is continuous, so there is no terminal state.
const (
	StateIdle        State = "idle"
	StateMove        State = "move"
	StateWindupLight State = "windup_light"
	StateWindupHeavy State = "windup_heavy"
	StateAttackLight State = "attack_light"
	StateAttackHeavy State = "attack_heavy"
	StateGuard       State = "guard"
	StateParryWindow State = "parry_window"
	StateRecovery    State = "recovery"
)

// IsCommitted returns true while the actor is locked into an attack or its
// recovery. Committed actors reject new dash and attack starts and ignore
// movement and guard input.
func (s State) IsCommitted() bool {
	switch s {
	case StateWindupLight, StateWindupHeavy, StateAttackLight, StateAttackHeavy, StateRecovery:
		return true
	default:
		return false
	}
}

// IsValid returns true if the state is one of the nine actor states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateMove, StateWindupLight, StateWindupHeavy, StateAttackLight,
		StateAttackHeavy, StateGuard, StateParryWindow, StateRecovery:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns every actor state.
func AllStates() []State {
	return []State{
		StateIdle,
		StateMove,
		StateWindupLight,
		StateWindupHeavy,
		StateAttackLight,
		StateAttackHeavy,
		StateGuard,
		StateParryWindow,
		StateRecovery,
	}
}

// CommittedStates returns the states that gate new actions.
func CommittedStates() []State {
	return []State{
		StateWindupLight,
		StateWindupHeavy,
		StateAttackLight,
		StateAttackHeavy,
		StateRecovery,
	}
}

// Permits returns nil if an actor in this state may start the action,
// ErrCommitted if the commitment gate rejects it, or ErrUnknownAction.
func (s State) Permits(a Action) error {
	switch a {
	case ActionDash, ActionLightAttack, ActionHeavyAttack:
	default:
		return ErrUnknownAction
	}
	if s.IsCommitted() {
		return ErrCommitted
	}
	return nil
}
