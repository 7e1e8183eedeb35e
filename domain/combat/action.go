package combat

import "time"

// AttackKind distinguishes light and heavy attacks.
type AttackKind string

// Attack kinds.
const (
	AttackLight AttackKind = "light"
	AttackHeavy AttackKind = "heavy"
)

// IsValid returns true for light and heavy.
func (k AttackKind) IsValid() bool {
	return k == AttackLight || k == AttackHeavy
}

// Action is a player-initiated action that must pass the commitment gate.
type Action string

// Gated actions.
const (
	ActionDash        Action = "dash"
	ActionLightAttack Action = "light_attack"
	ActionHeavyAttack Action = "heavy_attack"
)

// AllActions returns every gated action.
func AllActions() []Action {
	return []Action{ActionDash, ActionLightAttack, ActionHeavyAttack}
}

// AttackTiming holds the phase durations of one attack kind. Each phase is
// measured from the moment the previous phase began.
type AttackTiming struct {
	Windup   time.Duration `json:"windup" yaml:"windup"`
	Active   time.Duration `json:"active" yaml:"active"`
	Recovery time.Duration `json:"recovery" yaml:"recovery"`
}

// Total returns the full length of the attack.
func (t AttackTiming) Total() time.Duration {
	return t.Windup + t.Active + t.Recovery
}

// Timings maps attack kinds to their phase durations.
type Timings map[AttackKind]AttackTiming

// DefaultTimings returns the reference attack timings.
func DefaultTimings() Timings {
	return Timings{
		AttackLight: {Windup: 120 * time.Millisecond, Active: 60 * time.Millisecond, Recovery: 140 * time.Millisecond},
		AttackHeavy: {Windup: 300 * time.Millisecond, Active: 100 * time.Millisecond, Recovery: 220 * time.Millisecond},
	}
}

// Input is the raw player input sampled for one frame. Dash, Light,
// Heavy, Shoot and Reload are edge-triggered; Left, Right and Guard are
// held.
type Input struct {
	Left  bool
	Right bool
	Dash  bool
	Light bool
	Heavy bool
	Guard bool

	// Shoot and Reload are only read by the arena profile.
	Shoot  bool
	Reload bool
}

// Direction returns -1, 0 or +1 from the held movement keys.
func (in Input) Direction() float64 {
	var dir float64
	if in.Left {
		dir--
	}
	if in.Right {
		dir++
	}
	return dir
}
