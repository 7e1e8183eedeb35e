// Package action turns plan directives into timed effects on an actor.
package action

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/plan"
)

// Config tunes how directives become effects.
type Config struct {
	// StepScale converts a normalized micro step offset into distance.
	StepScale float64 `json:"step_scale" yaml:"step_scale"`

	// Horizon is how long a started action stays queued before cleanup.
	Horizon time.Duration `json:"horizon" yaml:"horizon"`
}

// DefaultConfig returns the standard queue settings.
func DefaultConfig() Config {
	return Config{
		StepScale: 140,
		Horizon:   800 * time.Millisecond,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.StepScale <= 0 {
		return fmt.Errorf("%w: step_scale must be positive", ErrInvalidConfig)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be positive", ErrInvalidConfig)
	}
	return nil
}

// Effector applies directive effects to the controlled actor.
type Effector interface {
	// SetVelocity sets the actor's horizontal velocity.
	SetVelocity(vx float64)

	// ArmParry opens the actor's parry window at now.
	ArmParry(now time.Time)

	// Strike starts an attack at now. It fails if the actor is committed.
	Strike(kind combat.AttackKind, now time.Time) error
}

// QueuedAction is a directive waiting for or undergoing execution.
type QueuedAction struct {
	Directive   plan.Directive
	ScheduledAt time.Time
	Started     bool
	StartedAt   time.Time

	fired bool
}

// Kind returns the directive kind.
func (a *QueuedAction) Kind() plan.Kind {
	return a.Directive.Kind()
}

// dueAt returns when the delayed effect fires, relative to the start.
func (a *QueuedAction) dueAt() time.Time {
	switch d := a.Directive.(type) {
	case plan.ParryWindow:
		return a.StartedAt.Add(d.Delay)
	case plan.Strike:
		return a.StartedAt.Add(d.Delay)
	case plan.MicroStep:
		return a.StartedAt.Add(d.Duration)
	}
	return a.StartedAt
}

// Fired reports one effect applied during Advance.
type Fired struct {
	Kind      plan.Kind
	Directive plan.Directive
	At        time.Time

	// Err is set when the effector rejected the effect.
	Err error
}

// Queue holds at most one action per directive kind. A newer directive
// replaces the queued one of the same kind; effects never blend.
// The queue is owned by the tick goroutine and is not safe for concurrent use.
type Queue struct {
	cfg     Config
	actions []*QueuedAction

	stepping  bool
	stepUntil time.Time
}

// NewQueue creates a queue. Invalid settings fall back to the defaults.
func NewQueue(cfg Config) *Queue {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Queue{cfg: cfg}
}

// Enqueue schedules a directive to start at the given time, evicting any
// queued action of the same kind. It returns true if an action was evicted.
func (q *Queue) Enqueue(d plan.Directive, at time.Time) (bool, error) {
	if d == nil {
		return false, ErrNilDirective
	}

	evicted := false
	kept := q.actions[:0]
	for _, a := range q.actions {
		if a.Kind() == d.Kind() {
			evicted = true
			continue
		}
		kept = append(kept, a)
	}
	q.actions = append(kept, &QueuedAction{Directive: d, ScheduledAt: at})
	return evicted, nil
}

// EnqueuePlan enqueues every directive of a plan and returns the number
// of evicted actions.
func (q *Queue) EnqueuePlan(p plan.Plan, at time.Time) int {
	evicted := 0
	for _, d := range p.Directives {
		ok, err := q.Enqueue(d, at)
		if err != nil {
			continue
		}
		if ok {
			evicted++
		}
	}
	return evicted
}

// Advance starts due actions, fires delayed effects, ends finished micro
// steps and purges spent actions. Calling it repeatedly with the same time
// applies each effect at most once.
func (q *Queue) Advance(now time.Time, eff Effector) []Fired {
	var fired []Fired

	for _, a := range q.actions {
		if !a.Started {
			if now.Before(a.ScheduledAt) {
				continue
			}
			a.Started = true
			a.StartedAt = now

			if step, ok := a.Directive.(plan.MicroStep); ok {
				eff.SetVelocity(q.stepVelocity(step))
				q.stepping = true
				q.stepUntil = now.Add(step.Duration)
				a.fired = true
				fired = append(fired, Fired{Kind: plan.KindMicroStep, Directive: step, At: now})
				continue
			}
		}

		if a.fired || now.Before(a.dueAt()) {
			continue
		}
		a.fired = true

		switch d := a.Directive.(type) {
		case plan.ParryWindow:
			eff.ArmParry(now)
			fired = append(fired, Fired{Kind: plan.KindParryWindow, Directive: d, At: now})
		case plan.Strike:
			err := eff.Strike(d.Attack, now)
			fired = append(fired, Fired{Kind: plan.KindStrike, Directive: d, At: now, Err: err})
		}
	}

	if q.stepping && !now.Before(q.stepUntil) {
		eff.SetVelocity(0)
		q.stepping = false
	}

	q.purge(now)
	return fired
}

func (q *Queue) stepVelocity(step plan.MicroStep) float64 {
	ms := float64(step.Duration) / float64(time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return step.DX * q.cfg.StepScale * 1000 / ms
}

func (q *Queue) purge(now time.Time) {
	kept := q.actions[:0]
	for _, a := range q.actions {
		if a.Started && a.fired && !now.Before(a.dueAt()) && !now.Before(a.StartedAt.Add(q.cfg.Horizon)) {
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(q.actions); i++ {
		q.actions[i] = nil
	}
	q.actions = kept
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	return len(q.actions)
}

// Get returns a copy of the queued action of the given kind.
func (q *Queue) Get(kind plan.Kind) (QueuedAction, bool) {
	for _, a := range q.actions {
		if a.Kind() == kind {
			return *a, true
		}
	}
	return QueuedAction{}, false
}

// Actions returns copies of the queued actions in queue order.
func (q *Queue) Actions() []QueuedAction {
	out := make([]QueuedAction, 0, len(q.actions))
	for _, a := range q.actions {
		out = append(out, *a)
	}
	return out
}

// Stepping returns true while a micro step velocity is applied.
func (q *Queue) Stepping() bool {
	return q.stepping
}

// Reset drops every action. A running micro step is stopped through eff
// when it is not nil.
func (q *Queue) Reset(eff Effector) {
	if q.stepping && eff != nil {
		eff.SetVelocity(0)
	}
	q.stepping = false
	q.actions = nil
}

// Reconfigure replaces the queue settings; invalid settings are rejected.
func (q *Queue) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	q.cfg = cfg
	return nil
}
