package config

import (
	"github.com/felixgeelhaar/duelist/domain/action"
	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/pattern"
)

// Timings returns the attack timings as combat values.
func (c CombatConfig) Timings() combat.Timings {
	return combat.Timings{
		combat.AttackLight: c.Light.timing(),
		combat.AttackHeavy: c.Heavy.timing(),
	}
}

// Reach returns the attack reach per kind.
func (c CombatConfig) Reach() combat.Reach {
	return combat.Reach{
		combat.AttackLight: c.Light.Reach,
		combat.AttackHeavy: c.Heavy.Reach,
	}
}

// Damage returns the health damage of an attack kind.
func (c CombatConfig) Damage(kind combat.AttackKind) float64 {
	switch kind {
	case combat.AttackLight:
		return c.Light.Damage
	case combat.AttackHeavy:
		return c.Heavy.Damage
	}
	return 0
}

func (a AttackConfig) timing() combat.AttackTiming {
	return combat.AttackTiming{
		Windup:   a.Windup.Duration(),
		Active:   a.Active.Duration(),
		Recovery: a.Recovery.Duration(),
	}
}

// Tracker returns the pattern tracker settings.
func (p PatternConfig) Tracker() pattern.Config {
	cfg := pattern.DefaultConfig()
	cfg.Window = p.Window
	cfg.Horizon = p.Horizon.Duration()
	cfg.FullConfidence = p.FullConfidence
	return cfg
}

// Action returns the action queue settings.
func (q QueueConfig) Action() action.Config {
	return action.Config{
		StepScale: q.StepScale,
		Horizon:   q.Horizon.Duration(),
	}
}
