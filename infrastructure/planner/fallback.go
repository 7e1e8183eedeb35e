package planner

import (
	"math"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/pattern"
	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

// Rationales attached to fallback plans.
const (
	RationaleParry   = "back step and late parry against the windup"
	RationaleClose   = "close distance with micro steps"
	RationaleSpacing = "keep spacing and threaten a light strike"
	RationaleSafe    = "fallback"
)

// FallbackConfig tunes the local heuristic.
type FallbackConfig struct {
	Spacing      float64
	NearBand     float64
	FarBand      float64
	Step         float64
	StepDuration time.Duration
	StrikeRange  float64
	StrikeDelay  time.Duration
	ParryDelay   time.Duration

	// AdaptConfidence is the attack-range confidence needed to widen
	// spacing. Zero disables adaptation.
	AdaptConfidence float64
	AdaptCap        float64
}

// DefaultFallbackConfig returns the reference heuristic settings.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Spacing:         120,
		NearBand:        10,
		FarBand:         20,
		Step:            0.6,
		StepDuration:    120 * time.Millisecond,
		StrikeRange:     110,
		StrikeDelay:     160 * time.Millisecond,
		ParryDelay:      120 * time.Millisecond,
		AdaptConfidence: 0.6,
		AdaptCap:        40,
	}
}

// FallbackConfigFrom converts engine configuration.
func FallbackConfigFrom(c config.FallbackConfig) FallbackConfig {
	return FallbackConfig{
		Spacing:         c.Spacing,
		NearBand:        c.NearBand,
		FarBand:         c.FarBand,
		Step:            c.Step,
		StepDuration:    c.StepDuration.Duration(),
		StrikeRange:     c.StrikeRange,
		StrikeDelay:     c.StrikeDelay.Duration(),
		ParryDelay:      c.ParryDelay.Duration(),
		AdaptConfidence: c.AdaptConfidence,
		AdaptCap:        c.AdaptCap,
	}
}

// Fallback is the local heuristic planner. It is pure and synchronous and
// always returns a valid plan.
type Fallback struct {
	cfg FallbackConfig
}

// NewFallback creates a fallback planner.
func NewFallback(cfg FallbackConfig) *Fallback {
	return &Fallback{cfg: cfg}
}

// Config returns the heuristic settings.
func (f *Fallback) Config() FallbackConfig {
	return f.cfg
}

// SafeDefault is the plan used when the heuristic itself fails: stand
// still for 80ms.
func SafeDefault(t int64) plan.Plan {
	return plan.Plan{
		Directives: []plan.Directive{plan.MicroStep{DX: 0, Duration: 80 * time.Millisecond}},
		Rationale:  RationaleSafe,
		Source:     plan.SourceFallback,
		Timestamp:  t,
	}
}

// Plan derives a plan from the snapshot alone. Any panic or invalid
// result yields SafeDefault.
func (f *Fallback) Plan(snap snapshot.Snapshot) (p plan.Plan) {
	defer func() {
		if r := recover(); r != nil {
			p = SafeDefault(snap.T)
		}
	}()

	p = f.plan(snap)
	if err := p.Validate(); err != nil || p.IsEmpty() {
		return SafeDefault(snap.T)
	}
	return p
}

func (f *Fallback) plan(snap snapshot.Snapshot) plan.Plan {
	dx := snap.Offset()
	absdx := math.Abs(dx)
	spacing := f.Spacing(snap)

	// Positive micro steps move right; "away" is opposite the player.
	away := f.cfg.Step
	if dx > 0 {
		away = -f.cfg.Step
	}

	var step float64
	switch {
	case absdx < spacing-f.cfg.NearBand:
		step = away
	case absdx > spacing+f.cfg.FarBand:
		step = -away
	}

	p := plan.Plan{
		Directives: []plan.Directive{plan.MicroStep{DX: step, Duration: f.cfg.StepDuration}},
		Source:     plan.SourceFallback,
		Timestamp:  snap.T,
	}

	_, windup := snap.FindEvent(snapshot.EventWindup, combat.ActorPlayer)
	switch {
	case windup:
		p.Directives = append(p.Directives, plan.ParryWindow{Delay: f.cfg.ParryDelay})
		p.Rationale = RationaleParry
	case absdx < f.cfg.StrikeRange:
		p.Directives = append(p.Directives, plan.Strike{Delay: f.cfg.StrikeDelay, Attack: combat.AttackLight})
	}

	if !windup {
		if absdx > spacing {
			p.Rationale = RationaleClose
		} else {
			p.Rationale = RationaleSpacing
		}
	}
	return p
}

// Spacing returns the preferred separation for the snapshot. Once the
// player's attack range is known with enough confidence, spacing widens to
// sit just outside it, by at most AdaptCap.
func (f *Fallback) Spacing(snap snapshot.Snapshot) float64 {
	spacing := f.cfg.Spacing
	if f.cfg.AdaptConfidence <= 0 {
		return spacing
	}
	s, ok := snap.Pattern(pattern.SignalAttackRange)
	if !ok || s.Confidence < f.cfg.AdaptConfidence {
		return spacing
	}
	wanted := s.Mean + f.cfg.NearBand
	if wanted <= spacing {
		return spacing
	}
	return math.Min(wanted, spacing+f.cfg.AdaptCap)
}
