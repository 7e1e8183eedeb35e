// Package snapshot provides the per-cycle view of the simulation sent to
// the planning oracle.
package snapshot

import (
	"math"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/pattern"
)

// ActorSnapshot is the observable state of one actor.
type ActorSnapshot struct {
	X            float64       `json:"x"`
	Y            float64       `json:"y"`
	VX           float64       `json:"vx"`
	Facing       combat.Facing `json:"facing"`
	State        combat.State  `json:"state"`
	Gauges       combat.Gauges `json:"gauges"`
	LastAction   string        `json:"lastAction"`
	LastActionAt int64         `json:"lastTs,omitempty"`
}

// Position is the kinematic part of an actor snapshot.
type Position struct {
	X, Y, VX float64
}

// Capture builds an actor snapshot from its state and position.
func Capture(a *combat.ActorState, pos Position) ActorSnapshot {
	s := ActorSnapshot{
		X:          pos.X,
		Y:          pos.Y,
		VX:         pos.VX,
		Facing:     a.Facing,
		State:      a.State,
		Gauges:     a.Gauges,
		LastAction: a.LastAction,
	}
	if !a.LastActionAt.IsZero() {
		s.LastActionAt = a.LastActionAt.UnixMilli()
	}
	return s
}

// Snapshot is the world state sent with one planning request.
type Snapshot struct {
	// T is the capture time in Unix milliseconds.
	T        int64             `json:"t"`
	Player   ActorSnapshot     `json:"player"`
	NPC      ActorSnapshot     `json:"npc"`
	Events   []Event           `json:"events"`
	Patterns []pattern.Summary `json:"patterns,omitempty"`
}

// New creates a snapshot stamped at now.
func New(now time.Time, player, npc ActorSnapshot, events []Event, patterns []pattern.Summary) Snapshot {
	if events == nil {
		events = []Event{}
	}
	return Snapshot{
		T:        now.UnixMilli(),
		Player:   player,
		NPC:      npc,
		Events:   events,
		Patterns: patterns,
	}
}

// Offset returns player.X - npc.X.
func (s Snapshot) Offset() float64 {
	return s.Player.X - s.NPC.X
}

// Separation returns the absolute horizontal distance between the actors.
func (s Snapshot) Separation() float64 {
	return math.Abs(s.Offset())
}

// FindEvent returns the first event of the given kind raised by actor.
func (s Snapshot) FindEvent(kind EventKind, actor combat.ActorID) (Event, bool) {
	for _, e := range s.Events {
		if e.Kind == kind && e.Actor == actor {
			return e, true
		}
	}
	return Event{}, false
}

// Pattern returns the summary for a signal, if present.
func (s Snapshot) Pattern(sig pattern.Signal) (pattern.Summary, bool) {
	for _, p := range s.Patterns {
		if p.Signal == sig {
			return p, true
		}
	}
	return pattern.Summary{}, false
}
