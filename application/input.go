package application

import (
	"math"
	"strconv"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/pattern"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/statemachine"
)

func (e *Engine) separation() float64 {
	return math.Abs(e.world.X(combat.ActorPlayer) - e.world.X(combat.ActorNPC))
}

// face turns idle or moving actors toward each other.
func (e *Engine) face() {
	px, nx := e.world.X(combat.ActorPlayer), e.world.X(combat.ActorNPC)
	if !e.player.State.IsCommitted() {
		e.player.Facing = combat.FacingToward(px, nx)
	}
	if !e.npc.State.IsCommitted() {
		e.npc.Facing = combat.FacingToward(nx, px)
	}
}

func (e *Engine) record(kind snapshot.EventKind, actor combat.ActorID, detail string, now time.Time) {
	e.events.Record(snapshot.NewEvent(kind, actor, detail, now))
}

func (e *Engine) sample(sig pattern.Signal, value float64, now time.Time) {
	if err := e.tracker.Record(sig, value, now); err != nil {
		logging.Debug().
			Add(logging.Str("signal", string(sig))).
			Add(logging.ErrorField(err)).
			Msg("pattern sample rejected")
	}
}

// handleInput drives the player machine from raw input. Committed and
// guarding states ignore movement.
func (e *Engine) handleInput(now time.Time, in combat.Input) {
	tuning := e.tuning.Combat
	m := e.playerM
	sep := e.separation()

	if in.Dash {
		if err := m.Dash(now, tuning.DashDuration.Duration()); err == nil {
			e.dashVX = e.player.Facing.Sign() * (tuning.MoveSpeed + tuning.DashSpeed)
			e.record(snapshot.EventDash, combat.ActorPlayer, "", now)
			e.sample(pattern.SignalDashSeparation, sep, now)
		}
	}

	for _, press := range []struct {
		pressed bool
		kind    combat.AttackKind
	}{
		{in.Light, combat.AttackLight},
		{in.Heavy, combat.AttackHeavy},
	} {
		if !press.pressed {
			continue
		}
		if err := m.BeginAttack(press.kind, now); err != nil {
			continue
		}
		e.record(snapshot.EventWindup, combat.ActorPlayer, string(press.kind), now)
		e.sample(pattern.SignalAttackRange, sep, now)
		heavy := 0.0
		if press.kind == combat.AttackHeavy {
			heavy = 1
		}
		e.sample(pattern.SignalHeavyShare, heavy, now)
	}

	if m.SetGuard(in.Guard, now) {
		e.record(snapshot.EventGuard, combat.ActorPlayer, "", now)
		e.sample(pattern.SignalGuard, sep, now)
	}

	if e.tuning.Profile == config.ProfileArena && !m.State().IsCommitted() {
		e.handleShooter(now, in, sep)
	}

	var vx float64
	switch state := m.State(); {
	case m.Dashing(now):
		vx = e.dashVX
	case state.IsCommitted(), state == combat.StateGuard:
	default:
		vx = in.Direction() * tuning.MoveSpeed
	}
	m.SetMoving(vx != 0, now)
	e.world.SetVX(combat.ActorPlayer, vx)
}

// handleShooter applies the arena profile's ranged inputs. A reload in the
// same frame as a shot happens after it.
func (e *Engine) handleShooter(now time.Time, in combat.Input, sep float64) {
	if in.Shoot && e.player.Shoot() {
		e.record(snapshot.EventShot, combat.ActorPlayer, strconv.Itoa(e.player.Gauges.Ammo), now)
		e.sample(pattern.SignalShot, sep, now)
	}
	if in.Reload {
		left := e.player.Reload()
		e.record(snapshot.EventReload, combat.ActorPlayer, strconv.Itoa(left), now)
		e.sample(pattern.SignalReload, float64(left), now)
	}
}

// advanceMachines fires due phases on both actors and resolves every
// attack that commits.
func (e *Engine) advanceMachines(now time.Time, f *Frame) {
	for _, m := range []*statemachine.Machine{e.playerM, e.npcM} {
		for _, fired := range m.Advance(now) {
			f.Transitions = append(f.Transitions, fired)
			if fired.IsCommit() {
				f.Resolutions = append(f.Resolutions, e.resolve(m.Actor().ID, fired.Attack, fired.At))
			}
		}
	}
}

// resolve settles one committed attack and applies its displacement.
func (e *Engine) resolve(attackerID combat.ActorID, kind combat.AttackKind, at time.Time) combat.Resolution {
	attacker := e.actor(attackerID)
	defender := e.actor(attackerID.Opponent())
	tuning := e.tuning.Combat

	ax, dx := e.world.X(attacker.ID), e.world.X(defender.ID)
	outcome, dist := combat.Resolve(combat.Strike{
		Kind:       kind,
		AttackerX:  ax,
		DefenderX:  dx,
		ParryUntil: defender.ParryUntil,
		At:         at,
	}, e.reach)

	dir := attacker.Facing.Sign()
	if dx != ax {
		dir = math.Copysign(1, dx-ax)
	}

	e.record(snapshot.EventCommitAttack, attacker.ID, string(kind), at)
	switch outcome {
	case combat.OutcomeParry:
		e.world.Displace(attacker.ID, -dir*tuning.ParryKnockback)
		e.machine(defender.ID).ConsumeParry()
		e.record(snapshot.EventParry, defender.ID, string(kind), at)
		e.notifier.Cue(defender.ID, CueParry)
	case combat.OutcomeHit:
		e.world.Displace(defender.ID, dir*tuning.HitPush)
		defender.Gauges.Health = max(0, defender.Gauges.Health-tuning.Damage(kind))
		e.record(snapshot.EventHit, attacker.ID, string(kind), at)
		e.notifier.Cue(defender.ID, CueHit)
	default:
		e.record(snapshot.EventMiss, attacker.ID, string(kind), at)
	}

	res := combat.Resolution{
		Attacker: attacker.ID,
		Defender: defender.ID,
		Kind:     kind,
		Outcome:  outcome,
		Distance: dist,
		At:       at,
	}
	e.stats.Resolutions[outcome]++
	e.metrics.RecordResolution(e.ctx, string(attacker.ID), string(kind), string(outcome))
	e.notifier.Resolved(res)

	logging.Debug().
		Add(logging.SessionID(e.session)).
		Add(logging.Actor(attacker.ID)).
		Add(logging.Str("kind", string(kind))).
		Add(logging.Str("outcome", string(outcome))).
		Add(logging.Float("distance", dist)).
		Msg("attack resolved")
	return res
}

// npcEffector applies queued directives to the NPC.
type npcEffector struct {
	e *Engine
}

func (n npcEffector) SetVelocity(vx float64) {
	e := n.e
	if e.npc.State.IsCommitted() {
		vx = 0
	}
	e.world.SetVX(combat.ActorNPC, vx)
	e.npcM.SetMoving(vx != 0, e.now)
}

func (n npcEffector) ArmParry(now time.Time) {
	e := n.e
	e.npcM.ArmParry(now)
	e.record(snapshot.EventParryWindow, combat.ActorNPC, "", now)
	e.notifier.Cue(combat.ActorNPC, CueParryWindow)
}

func (n npcEffector) Strike(kind combat.AttackKind, now time.Time) error {
	e := n.e
	if err := e.npcM.BeginAttack(kind, now); err != nil {
		return err
	}
	e.record(snapshot.EventWindup, combat.ActorNPC, string(kind), now)
	e.notifier.Cue(combat.ActorNPC, CueStrike)
	return nil
}
