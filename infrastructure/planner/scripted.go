package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

// ScriptStep defines one scripted oracle reply.
type ScriptStep struct {
	// Plan is returned when Err is nil.
	Plan plan.Plan

	// Err is returned instead of a plan.
	Err error

	// Delay simulates round-trip latency. The call honors ctx while waiting.
	Delay time.Duration

	// Condition is an optional assertion on the received snapshot.
	Condition func(snapshot.Snapshot) bool
}

// ScriptedOracle replays a predefined sequence for deterministic testing.
type ScriptedOracle struct {
	steps    []ScriptStep
	index    int
	repeat   bool
	received []snapshot.Snapshot
	mu       sync.Mutex
}

// NewScriptedOracle creates a scripted oracle with the given steps.
func NewScriptedOracle(steps ...ScriptStep) *ScriptedOracle {
	return &ScriptedOracle{steps: steps}
}

// Repeat makes the oracle replay its last step once the script runs out.
func (o *ScriptedOracle) Repeat() *ScriptedOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.repeat = true
	return o
}

// Plan returns the next scripted reply.
func (o *ScriptedOracle) Plan(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error) {
	o.mu.Lock()
	o.received = append(o.received, snap)
	if o.index >= len(o.steps) && (!o.repeat || len(o.steps) == 0) {
		o.mu.Unlock()
		return plan.Plan{}, ErrScriptExhausted
	}
	idx := o.index
	if idx >= len(o.steps) {
		idx = len(o.steps) - 1
	} else {
		o.index++
	}
	step := o.steps[idx]
	o.mu.Unlock()

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return plan.Plan{}, ctx.Err()
		case <-timer.C:
		}
	}

	if step.Condition != nil && !step.Condition(snap) {
		return plan.Plan{}, &ConditionFailedError{StepIndex: idx}
	}
	if step.Err != nil {
		return plan.Plan{}, step.Err
	}

	p := step.Plan
	if p.Source == "" {
		p.Source = plan.SourceOracle
	}
	return p, nil
}

// Calls returns the number of snapshots received.
func (o *ScriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.received)
}

// Received returns copies of the received snapshots.
func (o *ScriptedOracle) Received() []snapshot.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]snapshot.Snapshot, len(o.received))
	copy(out, o.received)
	return out
}

// Reset rewinds the script and forgets received snapshots.
func (o *ScriptedOracle) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.index = 0
	o.received = nil
}

// IsComplete returns true if all steps have been consumed.
func (o *ScriptedOracle) IsComplete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.index >= len(o.steps)
}

// ConditionFailedError indicates a step condition was not met.
type ConditionFailedError struct {
	StepIndex int
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition failed at step %d", e.StepIndex)
}
