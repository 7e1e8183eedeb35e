package arena

import (
	"math"
	"math/rand"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// PilotConfig tunes the scripted player.
type PilotConfig struct {
	// Seed makes a run reproducible.
	Seed int64
	// Reaction is the minimum time between decisions.
	Reaction time.Duration
	// PreferredRange is the distance the pilot tries to hold.
	PreferredRange float64
	// Aggression is the chance of attacking when in range.
	Aggression float64
	// HeavyShare is the chance an attack is heavy.
	HeavyShare float64
	// GuardChance is the chance of guarding instead of attacking.
	GuardChance float64
	// DashChance is the chance of dashing in from far away.
	DashChance float64
	// ShootChance is the chance of firing while closing in. Zero disables
	// ranged input.
	ShootChance float64
}

// DefaultPilotConfig returns a moderately aggressive pilot.
func DefaultPilotConfig() PilotConfig {
	return PilotConfig{
		Seed:           1,
		Reaction:       180 * time.Millisecond,
		PreferredRange: 90,
		Aggression:     0.5,
		HeavyShare:     0.3,
		GuardChance:    0.2,
		DashChance:     0.15,
	}
}

// Pilot produces player input from the world state. Attack and dash
// presses are edge-triggered: they appear in one frame only.
type Pilot struct {
	cfg     PilotConfig
	rng     *rand.Rand
	nextAt  time.Time
	holding combat.Input
	shots   int
}

// NewPilot creates a pilot.
func NewPilot(cfg PilotConfig) *Pilot {
	if cfg.Reaction <= 0 {
		cfg.Reaction = DefaultPilotConfig().Reaction
	}
	if cfg.PreferredRange <= 0 {
		cfg.PreferredRange = DefaultPilotConfig().PreferredRange
	}
	return &Pilot{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next returns the input for the frame at now.
func (p *Pilot) Next(now time.Time, w *World) combat.Input {
	if now.Before(p.nextAt) {
		return p.held()
	}
	p.nextAt = now.Add(p.cfg.Reaction)

	px, nx := w.X(combat.ActorPlayer), w.X(combat.ActorNPC)
	dist := math.Abs(nx - px)
	toward := nx > px

	p.holding = combat.Input{}
	in := combat.Input{}

	switch {
	case dist > p.cfg.PreferredRange*2 && p.rng.Float64() < p.cfg.DashChance:
		in.Dash = true
		p.holding.Right, p.holding.Left = toward, !toward
	case dist > p.cfg.PreferredRange:
		p.holding.Right, p.holding.Left = toward, !toward
	case p.rng.Float64() < p.cfg.GuardChance:
		p.holding.Guard = true
	case p.rng.Float64() < p.cfg.Aggression:
		if p.rng.Float64() < p.cfg.HeavyShare {
			in.Heavy = true
		} else {
			in.Light = true
		}
	default:
		p.holding.Right, p.holding.Left = !toward, toward
	}

	if p.cfg.ShootChance > 0 {
		p.shoot(&in, dist)
	}

	held := p.held()
	in.Left, in.Right, in.Guard = held.Left, held.Right, held.Guard
	return in
}

// shoot fires from beyond the preferred range and reloads once the
// magazine is spent.
func (p *Pilot) shoot(in *combat.Input, dist float64) {
	if p.shots >= combat.MagazineSize {
		in.Reload = true
		p.shots = 0
		return
	}
	if dist > p.cfg.PreferredRange && p.rng.Float64() < p.cfg.ShootChance {
		in.Shoot = true
		p.shots++
	}
}

func (p *Pilot) held() combat.Input {
	return combat.Input{Left: p.holding.Left, Right: p.holding.Right, Guard: p.holding.Guard}
}
