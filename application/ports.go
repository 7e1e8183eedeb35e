package application

import (
	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/plan"
)

// World is the physics collaborator. Positions and velocities live there;
// the engine only reads them and sets horizontal motion.
type World interface {
	X(id combat.ActorID) float64
	Y(id combat.ActorID) float64
	VX(id combat.ActorID) float64
	SetVX(id combat.ActorID, vx float64)
	Displace(id combat.ActorID, dx float64)
}

// Cue names a visual cue for the renderer.
type Cue string

// Render cues.
const (
	CueParryWindow Cue = "parry_window"
	CueStrike      Cue = "strike"
	CueParry       Cue = "parry"
	CueHit         Cue = "hit"
)

// Notifier receives render notifications. Calls happen on the goroutine
// calling Tick and must not block.
type Notifier interface {
	// PlanApplied reports the plan handed to the action queue.
	PlanApplied(p plan.Plan)
	// Resolved reports the outcome of a committed attack.
	Resolved(r combat.Resolution)
	// Cue asks the renderer to flash a cue on an actor.
	Cue(actor combat.ActorID, cue Cue)
}

// NoopNotifier discards notifications.
type NoopNotifier struct{}

// PlanApplied implements Notifier.
func (NoopNotifier) PlanApplied(plan.Plan) {}

// Resolved implements Notifier.
func (NoopNotifier) Resolved(combat.Resolution) {}

// Cue implements Notifier.
func (NoopNotifier) Cue(combat.ActorID, Cue) {}

var _ Notifier = NoopNotifier{}
