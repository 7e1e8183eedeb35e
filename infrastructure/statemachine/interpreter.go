package statemachine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// ErrInvalidTransition indicates an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

// Config tunes an actor machine.
type Config struct {
	Timings     combat.Timings
	ParryWindow time.Duration
}

// DefaultConfig returns the reference timings and a 120ms parry window.
func DefaultConfig() Config {
	return Config{
		Timings:     combat.DefaultTimings(),
		ParryWindow: 120 * time.Millisecond,
	}
}

// Phase is a transition scheduled for a later frame.
type Phase struct {
	Event  statekit.EventType
	Label  string
	DueAt  time.Time
	Attack combat.AttackKind
}

// Fired reports one transition applied by Advance.
type Fired struct {
	Event  statekit.EventType
	From   combat.State
	To     combat.State
	At     time.Time
	Attack combat.AttackKind
}

// IsCommit returns true for the transition into an attack's active phase.
func (f Fired) IsCommit() bool {
	return f.Event == EventCommit
}

// Machine drives one actor through the statechart. Timed phases are kept
// as data and fired by Advance, so the machine only changes on the
// goroutine that calls it.
type Machine struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
	cfg    Config
	id     string

	phases    []Phase
	dashUntil time.Time
}

// New creates and starts a machine for the actor.
func New(actor *combat.ActorState, cfg Config) (*Machine, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: nil actor", ErrInvalidTransition)
	}
	if cfg.Timings == nil {
		cfg.Timings = combat.DefaultTimings()
	}
	if cfg.ParryWindow <= 0 {
		cfg.ParryWindow = DefaultConfig().ParryWindow
	}

	machine, err := NewActorMachine(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("build actor machine: %w", err)
	}

	ctx := NewContext(actor)
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})

	m := &Machine{interp: interp, ctx: ctx, cfg: cfg, id: string(actor.ID)}
	m.interp.Start()
	m.sync()
	return m, nil
}

// Stop stops the interpreter.
func (m *Machine) Stop() {
	m.interp.Stop()
}

// Actor returns the actor driven by the machine.
func (m *Machine) Actor() *combat.ActorState {
	return m.ctx.Actor
}

// State returns the current state.
func (m *Machine) State() combat.State {
	return StateFromMachine(m.interp.State().Value)
}

// Matches checks if the current state matches the given state.
func (m *Machine) Matches(s combat.State) bool {
	return m.interp.Matches(statekit.StateID(s))
}

// Pending returns copies of the scheduled phases in due order.
func (m *Machine) Pending() []Phase {
	out := make([]Phase, len(m.phases))
	copy(out, m.phases)
	return out
}

// Reconfigure replaces timings and parry window for attacks started later.
func (m *Machine) Reconfigure(cfg Config) {
	if cfg.Timings != nil {
		m.cfg.Timings = cfg.Timings
	}
	if cfg.ParryWindow > 0 {
		m.cfg.ParryWindow = cfg.ParryWindow
	}
}

// send applies an event accepted by the current state.
func (m *Machine) send(event statekit.EventType, label string, now time.Time) (combat.State, error) {
	from := m.State()
	to, ok := Target(from, event)
	if !ok {
		return from, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, event, from)
	}

	m.ctx.Now = now
	if to == from {
		if label != "" {
			m.ctx.Actor.LastAction = label
			m.ctx.Actor.LastActionAt = now
		}
		return to, nil
	}

	m.interp.Send(statekit.Event{
		Type:    event,
		Payload: TransitionPayload{To: to, Label: label},
	})
	m.sync()
	return m.State(), nil
}

func (m *Machine) sync() {
	m.ctx.Actor.State = m.State()
}

func (m *Machine) schedule(p Phase) {
	m.phases = append(m.phases, p)
	sort.SliceStable(m.phases, func(i, j int) bool { return m.phases[i].DueAt.Before(m.phases[j].DueAt) })
}

func (m *Machine) unschedule(event statekit.EventType) {
	kept := m.phases[:0]
	for _, p := range m.phases {
		if p.Event != event {
			kept = append(kept, p)
		}
	}
	m.phases = kept
}

// BeginAttack starts a windup and schedules commit, recovery and settle.
func (m *Machine) BeginAttack(kind combat.AttackKind, now time.Time) error {
	action := combat.ActionLightAttack
	event := EventWindupLight
	if kind == combat.AttackHeavy {
		action = combat.ActionHeavyAttack
		event = EventWindupHeavy
	}
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", combat.ErrUnknownAttack, kind)
	}
	if err := m.State().Permits(action); err != nil {
		return err
	}
	timing, ok := m.cfg.Timings[kind]
	if !ok {
		return fmt.Errorf("%w: no timing for %q", combat.ErrUnknownAttack, kind)
	}

	if _, err := m.send(event, "windup_"+string(kind), now); err != nil {
		return err
	}
	m.unschedule(EventParryEnd)
	m.dashUntil = time.Time{}

	commitAt := now.Add(timing.Windup)
	recoverAt := commitAt.Add(timing.Active)
	settleAt := recoverAt.Add(timing.Recovery)
	m.schedule(Phase{Event: EventCommit, Label: "attack_" + string(kind), DueAt: commitAt, Attack: kind})
	m.schedule(Phase{Event: EventRecover, Label: "recovery", DueAt: recoverAt, Attack: kind})
	m.schedule(Phase{Event: EventSettle, DueAt: settleAt, Attack: kind})
	return nil
}

// Dash starts a dash lasting d.
func (m *Machine) Dash(now time.Time, d time.Duration) error {
	if err := m.State().Permits(combat.ActionDash); err != nil {
		return err
	}
	if _, err := m.send(EventDash, "dash", now); err != nil {
		return err
	}
	m.unschedule(EventParryEnd)
	m.dashUntil = now.Add(d)
	return nil
}

// Dashing returns true while a dash is running.
func (m *Machine) Dashing(now time.Time) bool {
	return !m.dashUntil.IsZero() && now.Before(m.dashUntil)
}

// SetMoving moves between idle and move. Other states ignore it, and a
// running dash keeps the actor in move.
func (m *Machine) SetMoving(moving bool, now time.Time) {
	switch s := m.State(); {
	case moving && s == combat.StateIdle:
		_, _ = m.send(EventMove, "", now)
	case !moving && s == combat.StateMove && !m.Dashing(now):
		_, _ = m.send(EventHalt, "", now)
	}
}

// SetGuard holds or releases guard. Entering guard opens a parry window on
// the actor. It returns true when guard was entered on this call.
func (m *Machine) SetGuard(held bool, now time.Time) bool {
	s := m.State()
	if s.IsCommitted() {
		return false
	}
	if !held {
		if s == combat.StateGuard {
			_, _ = m.send(EventRelease, "", now)
		}
		return false
	}
	if s == combat.StateGuard {
		return false
	}
	if _, err := m.send(EventGuard, "guard", now); err != nil {
		return false
	}
	m.unschedule(EventParryEnd)
	m.dashUntil = time.Time{}
	m.ctx.Actor.ParryUntil = now.Add(m.cfg.ParryWindow)
	return true
}

// ArmParry opens the parry window at now. Outside commitment and guard the
// actor also enters parry_window until the window closes.
func (m *Machine) ArmParry(now time.Time) {
	m.ctx.Actor.ParryUntil = now.Add(m.cfg.ParryWindow)

	if _, ok := Target(m.State(), EventParry); !ok {
		return
	}
	if _, err := m.send(EventParry, "parry", now); err != nil {
		return
	}
	m.dashUntil = time.Time{}
	m.unschedule(EventParryEnd)
	m.schedule(Phase{Event: EventParryEnd, DueAt: m.ctx.Actor.ParryUntil})
}

// ConsumeParry closes the parry window after it deflected a strike.
func (m *Machine) ConsumeParry() {
	m.ctx.Actor.ParryUntil = time.Time{}
}

// Advance fires every phase due at now, in order. Phases no longer valid
// for the current state are dropped.
func (m *Machine) Advance(now time.Time) []Fired {
	var fired []Fired
	for len(m.phases) > 0 && !now.Before(m.phases[0].DueAt) {
		p := m.phases[0]
		m.phases = m.phases[1:]

		from := m.State()
		to, err := m.send(p.Event, p.Label, p.DueAt)
		if err != nil {
			continue
		}
		fired = append(fired, Fired{Event: p.Event, From: from, To: to, At: p.DueAt, Attack: p.Attack})
	}

	if !m.dashUntil.IsZero() && !now.Before(m.dashUntil) {
		m.dashUntil = time.Time{}
	}
	return fired
}

// Reset returns the machine to idle and drops all scheduled phases.
func (m *Machine) Reset(now time.Time) error {
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    m.id,
		CurrentState: stateIdle,
		Context:      m.ctx,
		CreatedAt:    now,
	}
	if err := m.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	m.phases = nil
	m.dashUntil = time.Time{}
	m.ctx.Actor.ParryUntil = time.Time{}
	m.sync()
	return nil
}
