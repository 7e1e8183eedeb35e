// Package arena provides a minimal one-dimensional world for running the
// engine without a physics substrate, and a scripted player pilot.
package arena

import (
	"math"
	"sync"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

// Arena bounds and spawn points.
const (
	MinX    = 40.0
	MaxX    = 920.0
	GroundY = 380.0

	PlayerSpawnX = 240.0
	NPCSpawnX    = 720.0
)

type body struct {
	x, y, vx float64
}

// World integrates horizontal velocity and clamps actors to the arena.
type World struct {
	mu     sync.RWMutex
	bodies map[combat.ActorID]*body
}

// NewWorld creates a world with both actors at their spawn points.
func NewWorld() *World {
	w := &World{}
	w.Reset()
	return w
}

// Reset puts both actors back on their spawn points at rest.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.bodies = map[combat.ActorID]*body{
		combat.ActorPlayer: {x: PlayerSpawnX, y: GroundY},
		combat.ActorNPC:    {x: NPCSpawnX, y: GroundY},
	}
}

func (w *World) get(id combat.ActorID) *body {
	b, ok := w.bodies[id]
	if !ok {
		b = &body{x: MinX, y: GroundY}
		w.bodies[id] = b
	}
	return b
}

// X returns the actor's horizontal position.
func (w *World) X(id combat.ActorID) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[id]; ok {
		return b.x
	}
	return 0
}

// Y returns the actor's vertical position.
func (w *World) Y(id combat.ActorID) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[id]; ok {
		return b.y
	}
	return 0
}

// VX returns the actor's horizontal velocity in units per second.
func (w *World) VX(id combat.ActorID) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.bodies[id]; ok {
		return b.vx
	}
	return 0
}

// SetVX sets the actor's horizontal velocity.
func (w *World) SetVX(id combat.ActorID, vx float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.get(id).vx = vx
}

// Displace moves the actor instantly by dx, clamped to the arena.
func (w *World) Displace(id combat.ActorID, dx float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.get(id)
	b.x = clamp(b.x+dx, MinX, MaxX)
}

// Place sets the actor's position, clamped to the arena.
func (w *World) Place(id combat.ActorID, x float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.get(id).x = clamp(x, MinX, MaxX)
}

// Position returns the kinematic part of an actor snapshot.
func (w *World) Position(id combat.ActorID) snapshot.Position {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	if !ok {
		return snapshot.Position{}
	}
	return snapshot.Position{X: b.x, Y: b.y, VX: b.vx}
}

// Step advances every body by dt.
func (w *World) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	secs := dt.Seconds()

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.bodies {
		b.x = clamp(b.x+b.vx*secs, MinX, MaxX)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
