// Package statemachine provides the statekit integration for duel actors.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// Context carries the actor through the state machine.
type Context struct {
	Actor *combat.ActorState
	Now   time.Time
}

// NewContext creates a new machine context.
func NewContext(actor *combat.ActorState) *Context {
	return &Context{Actor: actor}
}

// Event types understood by the actor machine.
const (
	EventMove        statekit.EventType = "MOVE"
	EventHalt        statekit.EventType = "HALT"
	EventDash        statekit.EventType = "DASH"
	EventGuard       statekit.EventType = "GUARD"
	EventRelease     statekit.EventType = "RELEASE"
	EventWindupLight statekit.EventType = "WINDUP_LIGHT"
	EventWindupHeavy statekit.EventType = "WINDUP_HEAVY"
	EventCommit      statekit.EventType = "COMMIT"
	EventRecover     statekit.EventType = "RECOVER"
	EventSettle      statekit.EventType = "SETTLE"
	EventParry       statekit.EventType = "PARRY"
	EventParryEnd    statekit.EventType = "PARRY_END"
)

// State IDs as StateID type for statekit.
const (
	stateIdle        statekit.StateID = statekit.StateID(combat.StateIdle)
	stateMove        statekit.StateID = statekit.StateID(combat.StateMove)
	stateWindupLight statekit.StateID = statekit.StateID(combat.StateWindupLight)
	stateWindupHeavy statekit.StateID = statekit.StateID(combat.StateWindupHeavy)
	stateAttackLight statekit.StateID = statekit.StateID(combat.StateAttackLight)
	stateAttackHeavy statekit.StateID = statekit.StateID(combat.StateAttackHeavy)
	stateGuard       statekit.StateID = statekit.StateID(combat.StateGuard)
	stateParryWindow statekit.StateID = statekit.StateID(combat.StateParryWindow)
	stateRecovery    statekit.StateID = statekit.StateID(combat.StateRecovery)
)

// transitions mirrors the statechart below. Events missing for a state
// are rejected before they reach the interpreter.
var transitions = map[combat.State]map[statekit.EventType]combat.State{
	combat.StateIdle: {
		EventMove:        combat.StateMove,
		EventDash:        combat.StateMove,
		EventGuard:       combat.StateGuard,
		EventWindupLight: combat.StateWindupLight,
		EventWindupHeavy: combat.StateWindupHeavy,
		EventParry:       combat.StateParryWindow,
	},
	combat.StateMove: {
		EventHalt:        combat.StateIdle,
		EventDash:        combat.StateMove,
		EventGuard:       combat.StateGuard,
		EventWindupLight: combat.StateWindupLight,
		EventWindupHeavy: combat.StateWindupHeavy,
		EventParry:       combat.StateParryWindow,
	},
	combat.StateGuard: {
		EventRelease:     combat.StateIdle,
		EventDash:        combat.StateMove,
		EventWindupLight: combat.StateWindupLight,
		EventWindupHeavy: combat.StateWindupHeavy,
	},
	combat.StateParryWindow: {
		EventParryEnd:    combat.StateIdle,
		EventParry:       combat.StateParryWindow,
		EventGuard:       combat.StateGuard,
		EventDash:        combat.StateMove,
		EventWindupLight: combat.StateWindupLight,
		EventWindupHeavy: combat.StateWindupHeavy,
	},
	combat.StateWindupLight: {EventCommit: combat.StateAttackLight},
	combat.StateWindupHeavy: {EventCommit: combat.StateAttackHeavy},
	combat.StateAttackLight: {EventRecover: combat.StateRecovery},
	combat.StateAttackHeavy: {EventRecover: combat.StateRecovery},
	combat.StateRecovery:    {EventSettle: combat.StateIdle},
}

// Target returns the state an event leads to from s.
func Target(s combat.State, event statekit.EventType) (combat.State, bool) {
	to, ok := transitions[s][event]
	return to, ok
}

// NewActorMachine creates the actor statechart. There is no final state.
func NewActorMachine(id combat.ActorID) (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](string(id)).
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("record", recordTransition).
		State(stateIdle).
			On(EventMove).Target(stateMove).Do("record").
			On(EventDash).Target(stateMove).Do("record").
			On(EventGuard).Target(stateGuard).Do("record").
			On(EventWindupLight).Target(stateWindupLight).Do("record").
			On(EventWindupHeavy).Target(stateWindupHeavy).Do("record").
			On(EventParry).Target(stateParryWindow).Do("record").
			Done().
		State(stateMove).
			On(EventHalt).Target(stateIdle).Do("record").
			On(EventGuard).Target(stateGuard).Do("record").
			On(EventWindupLight).Target(stateWindupLight).Do("record").
			On(EventWindupHeavy).Target(stateWindupHeavy).Do("record").
			On(EventParry).Target(stateParryWindow).Do("record").
			Done().
		State(stateGuard).
			On(EventRelease).Target(stateIdle).Do("record").
			On(EventDash).Target(stateMove).Do("record").
			On(EventWindupLight).Target(stateWindupLight).Do("record").
			On(EventWindupHeavy).Target(stateWindupHeavy).Do("record").
			Done().
		State(stateParryWindow).
			On(EventParryEnd).Target(stateIdle).Do("record").
			On(EventGuard).Target(stateGuard).Do("record").
			On(EventDash).Target(stateMove).Do("record").
			On(EventWindupLight).Target(stateWindupLight).Do("record").
			On(EventWindupHeavy).Target(stateWindupHeavy).Do("record").
			Done().
		State(stateWindupLight).
			On(EventCommit).Target(stateAttackLight).Do("record").
			Done().
		State(stateWindupHeavy).
			On(EventCommit).Target(stateAttackHeavy).Do("record").
			Done().
		State(stateAttackLight).
			On(EventRecover).Target(stateRecovery).Do("record").
			Done().
		State(stateAttackHeavy).
			On(EventRecover).Target(stateRecovery).Do("record").
			Done().
		State(stateRecovery).
			On(EventSettle).Target(stateIdle).Do("record").
			Done().
		Build()
}

// StateFromMachine converts the machine state ID to a combat state.
func StateFromMachine(stateID statekit.StateID) combat.State {
	return combat.State(stateID)
}
