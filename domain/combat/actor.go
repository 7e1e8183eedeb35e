package combat

import "time"

// ActorID identifies one of the two duel participants.
type ActorID string

// The two actors of a duel.
const (
	ActorPlayer ActorID = "player"
	ActorNPC    ActorID = "npc"
)

// Opponent returns the other actor.
func (id ActorID) Opponent() ActorID {
	if id == ActorPlayer {
		return ActorNPC
	}
	return ActorPlayer
}

// Facing is the horizontal direction an actor looks at.
type Facing string

// Facing directions.
const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Sign returns +1 for right and -1 for left.
func (f Facing) Sign() float64 {
	if f == FacingLeft {
		return -1
	}
	return 1
}

// FacingToward returns the facing that looks from x toward target.
func FacingToward(x, target float64) Facing {
	if target >= x {
		return FacingRight
	}
	return FacingLeft
}

// Gauges holds the actor's resource levels.
type Gauges struct {
	Stamina float64 `json:"stamina"`
	Health  float64 `json:"health"`
	Ammo    int     `json:"ammo"`
}

// MagazineSize is the ammo held after a reload.
const MagazineSize = 12

// DefaultGauges returns full gauges.
func DefaultGauges() Gauges {
	return Gauges{
		Stamina: 100,
		Health:  100,
		Ammo:    MagazineSize,
	}
}

// ActorState is the mutable state owned by one actor.
type ActorState struct {
	ID           ActorID
	State        State
	Facing       Facing
	Gauges       Gauges
	LastAction   string
	LastActionAt time.Time

	// ParryUntil is the expiry of the actor's parry window. The window is
	// active while now is strictly before it.
	ParryUntil time.Time
}

// NewActorState creates an idle actor.
func NewActorState(id ActorID, facing Facing) *ActorState {
	return &ActorState{
		ID:         id,
		State:      StateIdle,
		Facing:     facing,
		Gauges:     DefaultGauges(),
		LastAction: "idle",
	}
}

// ParryActive reports whether the parry window is open at now.
func (a *ActorState) ParryActive(now time.Time) bool {
	return !a.ParryUntil.IsZero() && now.Before(a.ParryUntil)
}

// Shoot spends one round. It returns false with an empty magazine.
func (a *ActorState) Shoot() bool {
	if a.Gauges.Ammo <= 0 {
		return false
	}
	a.Gauges.Ammo--
	return true
}

// Reload refills the magazine and returns the rounds left before it.
func (a *ActorState) Reload() int {
	left := a.Gauges.Ammo
	a.Gauges.Ammo = MagazineSize
	return left
}

// CanAct returns true if the actor may start a new dash or attack.
func (a *ActorState) CanAct() bool {
	return !a.State.IsCommitted()
}
