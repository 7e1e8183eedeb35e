// Package plan provides the behavior plan model and its tagged-text codec.
package plan

import (
	"fmt"
	"math"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// Kind identifies a directive variant. The values double as the element
// names of the tagged-text encoding.
type Kind string

// Directive kinds.
const (
	KindMicroStep   Kind = "microStep"
	KindParryWindow Kind = "parry"
	KindStrike      Kind = "strike"
)

// Kinds returns every directive kind in encoding order.
func Kinds() []Kind {
	return []Kind{KindMicroStep, KindParryWindow, KindStrike}
}

// Directive is one typed, timed action of a plan.
type Directive interface {
	Kind() Kind
	Validate() error
}

// MicroStep moves the actor by a normalized offset over a duration.
type MicroStep struct {
	DX       float64
	Duration time.Duration
}

// Kind implements Directive.
func (MicroStep) Kind() Kind { return KindMicroStep }

// Validate implements Directive.
func (m MicroStep) Validate() error {
	if math.IsNaN(m.DX) || math.IsInf(m.DX, 0) || m.DX < -MaxStep || m.DX > MaxStep {
		return fmt.Errorf("%w: microStep dx %v outside [-%v, %v]", ErrInvalidDirective, m.DX, MaxStep, MaxStep)
	}
	if m.Duration <= 0 || m.Duration > MaxDelay {
		return fmt.Errorf("%w: microStep duration %v outside (0, %v]", ErrInvalidDirective, m.Duration, MaxDelay)
	}
	return nil
}

// ParryWindow arms a parry window after a delay.
type ParryWindow struct {
	Delay time.Duration
}

// Kind implements Directive.
func (ParryWindow) Kind() Kind { return KindParryWindow }

// Validate implements Directive.
func (p ParryWindow) Validate() error {
	return validateDelay(KindParryWindow, p.Delay)
}

// Strike starts an attack of the given kind after a delay.
type Strike struct {
	Delay  time.Duration
	Attack combat.AttackKind
}

// Kind implements Directive.
func (Strike) Kind() Kind { return KindStrike }

// Validate implements Directive.
func (s Strike) Validate() error {
	if !s.Attack.IsValid() {
		return fmt.Errorf("%w: strike kind %q", ErrInvalidDirective, s.Attack)
	}
	return validateDelay(KindStrike, s.Delay)
}

func validateDelay(kind Kind, d time.Duration) error {
	if d < 0 || d > MaxDelay {
		return fmt.Errorf("%w: %s delay %v outside [0, %v]", ErrInvalidDirective, kind, d, MaxDelay)
	}
	return nil
}

// Limits on directive values accepted by the codec.
const (
	MaxStep  = 1.0
	MaxDelay = time.Second
)

// Source tells where a plan came from.
type Source string

// Plan sources.
const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Plan is an ordered set of directives with an optional rationale.
type Plan struct {
	Directives []Directive
	Rationale  string
	Source     Source

	// Timestamp is the issuing time in Unix milliseconds, zero if unknown.
	Timestamp int64
}

// IsEmpty returns true if the plan carries no directives.
func (p Plan) IsEmpty() bool {
	return len(p.Directives) == 0
}

// Find returns the directive of the given kind, if present.
func (p Plan) Find(kind Kind) (Directive, bool) {
	for _, d := range p.Directives {
		if d.Kind() == kind {
			return d, true
		}
	}
	return nil, false
}

// Validate checks every directive and rejects duplicate kinds.
func (p Plan) Validate() error {
	seen := make(map[Kind]bool, len(p.Directives))
	for _, d := range p.Directives {
		if d == nil {
			return fmt.Errorf("%w: nil directive", ErrInvalidDirective)
		}
		if seen[d.Kind()] {
			return fmt.Errorf("%w: %s", ErrDuplicateDirective, d.Kind())
		}
		seen[d.Kind()] = true
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}
