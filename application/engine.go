// Package application runs the decision loop. On a fixed cadence it asks
// the planning oracle for a plan for the NPC, falls back to the local
// heuristic when the oracle is slow or fails, and applies plans to the
// actors frame by frame.
package application

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/duelist/domain/action"
	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/domain/pattern"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
	"github.com/felixgeelhaar/duelist/infrastructure/statemachine"
	"github.com/felixgeelhaar/duelist/infrastructure/telemetry"
)

const tracerName = "github.com/felixgeelhaar/duelist/application"

// eventBufferLimit bounds the events kept between two snapshots.
const eventBufferLimit = 128

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	// World is the physics collaborator. Required.
	World World

	// Oracle plans for the NPC. Nil means every cycle uses the fallback.
	Oracle planner.Oracle

	// Tuning holds timings and cadence. Nil means the duel profile.
	Tuning *config.EngineConfig

	// Notifier receives render notifications.
	Notifier Notifier

	// Journal persists one entry per planning cycle. Nil disables it.
	Journal journal.Store

	// Metrics records engine metrics.
	Metrics telemetry.Metrics

	// Tracer traces oracle calls.
	Tracer trace.Tracer

	// SessionID names the first session. Empty generates one.
	SessionID string
}

// Stats counts what happened in the current session.
type Stats struct {
	Frames         uint64
	Cycles         uint64
	OraclePlans    uint64
	FallbackPlans  uint64
	Failures       uint64
	Superseded     uint64
	Stale          uint64
	Evictions      uint64
	JournalDropped uint64
	Resolutions    map[combat.Outcome]int
}

// Frame reports what one Tick did.
type Frame struct {
	Plans       []Applied
	Transitions []statemachine.Fired
	Resolutions []combat.Resolution
	Actions     []action.Fired
}

// Engine owns both actors, the NPC action queue and the planning cycle.
// Tick, Reset and the accessors must be called from one goroutine;
// Reconfigure and Close may be called from any goroutine.
type Engine struct {
	world    World
	oracle   planner.Oracle
	notifier Notifier
	metrics  telemetry.Metrics
	tracer   trace.Tracer
	recorder *recorder

	tuning   *config.EngineConfig
	fallback *planner.Fallback
	interval time.Duration
	budget   time.Duration
	grace    time.Duration
	reach    combat.Reach

	mu      sync.Mutex
	pending *config.EngineConfig
	closed  bool

	session string
	player  *combat.ActorState
	npc     *combat.ActorState
	playerM *statemachine.Machine
	npcM    *statemachine.Machine
	queue   *action.Queue
	events  *snapshot.Buffer
	tracker *pattern.Tracker

	now        time.Time
	started    bool
	nextPlanAt time.Time
	dashVX     float64

	cycleID uint64
	active  *cycle
	retired []*cycle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats Stats
}

// NewEngine creates a new engine with the given configuration.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.World == nil {
		return nil, ErrNoWorld
	}

	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.DefaultEngineConfig()
	}
	if errs := config.NewValidator().Validate(tuning); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
	}

	if cfg.Notifier == nil {
		cfg.Notifier = NoopNotifier{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &telemetry.NoopMetricsProvider{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	e := &Engine{
		world:    cfg.World,
		oracle:   cfg.Oracle,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		session:  cfg.SessionID,
		player:   combat.NewActorState(combat.ActorPlayer, combat.FacingRight),
		npc:      combat.NewActorState(combat.ActorNPC, combat.FacingLeft),
		events:   snapshot.NewBuffer(eventBufferLimit),
		stats:    Stats{Resolutions: make(map[combat.Outcome]int)},
	}
	e.applyTuning(tuning)
	e.queue = action.NewQueue(tuning.Queue.Action())
	e.tracker = pattern.NewTracker(tuning.Patterns.Tracker())

	var err error
	if e.playerM, err = statemachine.New(e.player, machineConfig(tuning)); err != nil {
		return nil, err
	}
	if e.npcM, err = statemachine.New(e.npc, machineConfig(tuning)); err != nil {
		e.playerM.Stop()
		return nil, err
	}

	if cfg.Journal != nil {
		e.recorder = newRecorder(cfg.Journal, tuning.Journal.Buffer)
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	logging.Info().
		Add(logging.SessionID(e.session)).
		Add(logging.Str("profile", string(tuning.Profile))).
		Add(logging.Bool("oracle", e.oracle != nil)).
		Add(logging.Duration(e.interval)).
		Msg("engine created")
	return e, nil
}

func machineConfig(t *config.EngineConfig) statemachine.Config {
	return statemachine.Config{
		Timings:     t.Combat.Timings(),
		ParryWindow: t.Combat.ParryWindow.Duration(),
	}
}

func (e *Engine) applyTuning(t *config.EngineConfig) {
	e.tuning = t
	e.fallback = planner.NewFallback(planner.FallbackConfigFrom(t.Fallback))
	e.interval = t.Tick.ThinkInterval.Duration()
	e.budget = t.Oracle.Timeout.Duration()
	e.grace = t.Tick.Grace.Duration()
	e.reach = t.Combat.Reach()
}

// Tick is the per-frame entry point. It collects a finished planning
// cycle, applies player input, fires due actor phases, dispatches a new
// cycle when one is due and advances the NPC action queue. It never
// waits on the oracle.
func (e *Engine) Tick(now time.Time, input combat.Input) Frame {
	var f Frame
	if e.isClosed() {
		return f
	}
	e.applyPending()

	e.now = now
	if !e.started {
		e.started = true
		e.nextPlanAt = now
	}
	e.stats.Frames++
	e.metrics.RecordFrame(e.ctx)

	e.drainRetired(now)
	if applied, ok := e.collect(now); ok {
		f.Plans = append(f.Plans, applied)
	}

	e.face()
	e.handleInput(now, input)
	e.advanceMachines(now, &f)

	if applied, ok := e.dispatch(now); ok {
		f.Plans = append(f.Plans, applied)
	}

	f.Actions = e.queue.Advance(now, npcEffector{e: e})
	for _, fired := range f.Actions {
		if fired.Err != nil {
			logging.Debug().
				Add(logging.SessionID(e.session)).
				Add(logging.Actor(combat.ActorNPC)).
				Add(logging.Str("kind", string(fired.Kind))).
				Add(logging.ErrorField(fired.Err)).
				Msg("queued action rejected")
		}
	}
	return f
}

// Reset starts a new session at now: fresh actors, queue, events and
// pattern statistics. A cycle still in flight becomes stale.
func (e *Engine) Reset(now time.Time) error {
	if e.isClosed() {
		return ErrClosed
	}
	e.applyPending()
	e.retireActive()

	*e.player = *combat.NewActorState(combat.ActorPlayer, combat.FacingRight)
	*e.npc = *combat.NewActorState(combat.ActorNPC, combat.FacingLeft)
	if err := e.playerM.Reset(now); err != nil {
		return err
	}
	if err := e.npcM.Reset(now); err != nil {
		return err
	}

	e.queue.Reset(npcEffector{e: e})
	e.world.SetVX(combat.ActorPlayer, 0)
	e.world.SetVX(combat.ActorNPC, 0)
	e.events.Reset()
	e.tracker = pattern.NewTracker(e.tuning.Patterns.Tracker())

	e.session = uuid.NewString()
	e.now = now
	e.started = true
	e.nextPlanAt = now
	e.dashVX = 0
	e.stats = Stats{Resolutions: make(map[combat.Outcome]int)}

	logging.Info().
		Add(logging.SessionID(e.session)).
		Msg("session started")
	return nil
}

// Reconfigure validates new tuning and applies it before the next frame.
// Pattern settings take effect at the next Reset.
func (e *Engine) Reconfigure(t *config.EngineConfig) error {
	if t == nil {
		return fmt.Errorf("%w: nil tuning", config.ErrValidationFailed)
	}
	if errs := config.NewValidator().Validate(t); errs.HasErrors() {
		return fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	copied := *t
	e.pending = &copied
	return nil
}

func (e *Engine) applyPending() {
	e.mu.Lock()
	t := e.pending
	e.pending = nil
	e.mu.Unlock()
	if t == nil {
		return
	}

	e.applyTuning(t)
	e.playerM.Reconfigure(machineConfig(t))
	e.npcM.Reconfigure(machineConfig(t))
	if err := e.queue.Reconfigure(t.Queue.Action()); err != nil {
		logging.Warn().
			Add(logging.SessionID(e.session)).
			Add(logging.ErrorField(err)).
			Msg("queue tuning rejected")
	}

	logging.Info().
		Add(logging.SessionID(e.session)).
		Add(logging.Duration(e.interval)).
		Msg("tuning applied")
}

// Close cancels any planning cycle, waits for oracle calls to return and
// flushes the journal.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	var err error
	if e.recorder != nil {
		err = e.recorder.Close()
	}
	e.playerM.Stop()
	e.npcM.Stop()
	return err
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Session returns the current session id.
func (e *Engine) Session() string {
	return e.session
}

// Stats returns a copy of the session counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Resolutions = maps.Clone(e.stats.Resolutions)
	if e.recorder != nil {
		s.JournalDropped = e.recorder.Dropped()
	}
	return s
}

// Actor returns a copy of an actor's state.
func (e *Engine) Actor(id combat.ActorID) combat.ActorState {
	return *e.actor(id)
}

// Queue returns copies of the NPC's queued actions.
func (e *Engine) Queue() []action.QueuedAction {
	return e.queue.Actions()
}

// Patterns returns the player pattern summaries at now.
func (e *Engine) Patterns(now time.Time) []pattern.Summary {
	return e.tracker.Summary(now)
}

// InFlight reports whether a planning cycle is waiting on the oracle.
func (e *Engine) InFlight() bool {
	return e.active != nil
}

// NextPlanAt returns when the next cycle may be dispatched.
func (e *Engine) NextPlanAt() time.Time {
	return e.nextPlanAt
}

// Tuning returns the tuning in effect.
func (e *Engine) Tuning() *config.EngineConfig {
	return e.tuning
}

func (e *Engine) actor(id combat.ActorID) *combat.ActorState {
	if id == combat.ActorNPC {
		return e.npc
	}
	return e.player
}

func (e *Engine) machine(id combat.ActorID) *statemachine.Machine {
	if id == combat.ActorNPC {
		return e.npcM
	}
	return e.playerM
}

func (e *Engine) position(id combat.ActorID) snapshot.Position {
	return snapshot.Position{X: e.world.X(id), Y: e.world.Y(id), VX: e.world.VX(id)}
}

// capture builds the snapshot sent with a cycle. It drains the event
// buffer.
func (e *Engine) capture(now time.Time) snapshot.Snapshot {
	return snapshot.New(now,
		snapshot.Capture(e.player, e.position(combat.ActorPlayer)),
		snapshot.Capture(e.npc, e.position(combat.ActorNPC)),
		e.events.Drain(),
		e.tracker.Summary(now),
	)
}
