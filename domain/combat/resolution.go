package combat

import (
	"math"
	"time"
)

// Outcome is the result of resolving one committed attack.
type Outcome string

// Resolution outcomes. Exactly one is selected per commit.
const (
	OutcomeParry Outcome = "parry"
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
)

// Reach maps attack kinds to their horizontal reach.
type Reach map[AttackKind]float64

// DefaultReach returns the reference reach values. Heavy reaches further.
func DefaultReach() Reach {
	return Reach{
		AttackLight: 80,
		AttackHeavy: 120,
	}
}

// Strike describes one committed attack to resolve.
type Strike struct {
	Kind       AttackKind
	AttackerX  float64
	DefenderX  float64
	ParryUntil time.Time
	At         time.Time
}

// Resolution is the resolved outcome of a strike.
type Resolution struct {
	Attacker ActorID
	Defender ActorID
	Kind     AttackKind
	Outcome  Outcome
	Distance float64
	At       time.Time
}

// Resolve selects parry, hit or miss from the distance and the defender's
// parry window. It is deterministic and has no side effects.
func Resolve(s Strike, reach Reach) (Outcome, float64) {
	dist := math.Abs(s.DefenderX - s.AttackerX)
	limit, ok := reach[s.Kind]
	if !ok || dist > limit {
		return OutcomeMiss, dist
	}
	if !s.ParryUntil.IsZero() && s.At.Before(s.ParryUntil) {
		return OutcomeParry, dist
	}
	return OutcomeHit, dist
}
