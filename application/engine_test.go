package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/domain/pattern"
	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/arena"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
	"github.com/felixgeelhaar/duelist/infrastructure/storage/memory"
)

var t0 = time.Unix(1_700_000_000, 0)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

type cueRecord struct {
	actor combat.ActorID
	cue   Cue
}

type recordingNotifier struct {
	plans       []plan.Plan
	resolutions []combat.Resolution
	cues        []cueRecord
}

func (n *recordingNotifier) PlanApplied(p plan.Plan)      { n.plans = append(n.plans, p) }
func (n *recordingNotifier) Resolved(r combat.Resolution) { n.resolutions = append(n.resolutions, r) }
func (n *recordingNotifier) Cue(actor combat.ActorID, cue Cue) {
	n.cues = append(n.cues, cueRecord{actor, cue})
}

func (n *recordingNotifier) hasCue(actor combat.ActorID, cue Cue) bool {
	for _, c := range n.cues {
		if c.actor == actor && c.cue == cue {
			return true
		}
	}
	return false
}

// blockingOracle waits for its context and counts concurrent calls.
type blockingOracle struct {
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (o *blockingOracle) Plan(ctx context.Context, _ snapshot.Snapshot) (plan.Plan, error) {
	o.calls.Add(1)
	n := o.active.Add(1)
	defer o.active.Add(-1)
	for {
		seen := o.maxSeen.Load()
		if n <= seen || o.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	<-ctx.Done()
	return plan.Plan{}, ctx.Err()
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *arena.World) {
	t.Helper()
	world := arena.NewWorld()
	e, err := NewEngineWithOptions(append([]Option{WithWorld(world)}, opts...)...)
	if err != nil {
		t.Fatalf("NewEngineWithOptions() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, world
}

// waitForPlan re-ticks at the same instant until a plan is applied.
func waitForPlan(t *testing.T, e *Engine, now time.Time) Applied {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f := e.Tick(now, combat.Input{}); len(f.Plans) > 0 {
			return f.Plans[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no plan applied")
	return Applied{}
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("requires world", func(t *testing.T) {
		t.Parallel()
		if _, err := NewEngine(EngineConfig{}); !errors.Is(err, ErrNoWorld) {
			t.Errorf("NewEngine() error = %v, want ErrNoWorld", err)
		}
	})

	t.Run("rejects invalid tuning", func(t *testing.T) {
		t.Parallel()
		tuning := config.DefaultEngineConfig()
		tuning.Tick.ThinkInterval = 0
		_, err := NewEngineWithOptions(WithWorld(arena.NewWorld()), WithTuning(tuning))
		if !errors.Is(err, config.ErrValidationFailed) {
			t.Errorf("NewEngine() error = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, WithSessionID("s-1"))
		if e.Session() != "s-1" {
			t.Errorf("Session() = %q", e.Session())
		}
		if e.Tuning().Profile != config.ProfileDuel {
			t.Errorf("Profile = %q", e.Tuning().Profile)
		}
		if got := e.Actor(combat.ActorNPC); got.State != combat.StateIdle || got.Gauges.Health != 100 {
			t.Errorf("npc = %+v", got)
		}
	})
}

func TestEngine_FallbackOnlyCadence(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	e, _ := newTestEngine(t, WithNotifier(notifier))

	f := e.Tick(t0, combat.Input{})
	if len(f.Plans) != 1 {
		t.Fatalf("first tick plans = %d, want 1", len(f.Plans))
	}
	applied := f.Plans[0]
	if applied.Cycle != 1 || applied.Plan.Source != plan.SourceFallback {
		t.Errorf("applied = %+v", applied)
	}
	// 480 apart: the heuristic closes in.
	step, ok := applied.Plan.Find(plan.KindMicroStep)
	if !ok || step.(plan.MicroStep).DX >= 0 {
		t.Errorf("micro step = %+v, want a step toward the player", step)
	}
	if !e.NextPlanAt().Equal(t0.Add(ms(125))) {
		t.Errorf("NextPlanAt() = %v", e.NextPlanAt().Sub(t0))
	}

	if f := e.Tick(t0.Add(ms(60)), combat.Input{}); len(f.Plans) != 0 {
		t.Errorf("plans before the interval = %d", len(f.Plans))
	}
	if f := e.Tick(t0.Add(ms(125)), combat.Input{}); len(f.Plans) != 1 || f.Plans[0].Cycle != 2 {
		t.Errorf("second cycle = %+v", f.Plans)
	}

	stats := e.Stats()
	if stats.Cycles != 2 || stats.FallbackPlans != 2 || stats.Frames != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
	if len(notifier.plans) != 2 {
		t.Errorf("notified plans = %d", len(notifier.plans))
	}
}

func TestEngine_AppliesOraclePlan(t *testing.T) {
	t.Parallel()

	oracle := planner.NewScriptedOracle(planner.ScriptStep{
		Plan: plan.Plan{
			Directives: []plan.Directive{
				plan.MicroStep{DX: 0.5, Duration: ms(100)},
				plan.ParryWindow{Delay: ms(200)},
			},
			Rationale: "hold the line",
		},
	}).Repeat()
	e, _ := newTestEngine(t, WithOracle(oracle))

	if f := e.Tick(t0, combat.Input{}); len(f.Plans) != 0 {
		t.Fatalf("plan applied synchronously: %+v", f.Plans)
	}
	if !e.InFlight() {
		t.Fatal("InFlight() = false after dispatch")
	}

	applied := waitForPlan(t, e, t0)
	if applied.Plan.Source != plan.SourceOracle || applied.Failure != nil {
		t.Errorf("applied = %+v", applied)
	}
	if applied.Plan.Rationale != "hold the line" {
		t.Errorf("Rationale = %q", applied.Plan.Rationale)
	}
	if e.InFlight() {
		t.Error("InFlight() = true after collection")
	}

	kinds := map[plan.Kind]bool{}
	for _, a := range e.Queue() {
		kinds[a.Kind()] = true
	}
	if !kinds[plan.KindParryWindow] || !kinds[plan.KindMicroStep] {
		t.Errorf("queue kinds = %v", kinds)
	}
	if got := e.Stats().OraclePlans; got != 1 {
		t.Errorf("OraclePlans = %d", got)
	}
}

func TestEngine_OracleFailuresFallBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step planner.ScriptStep
		want error
	}{
		{
			name: "error",
			step: planner.ScriptStep{Err: planner.ErrBadStatus},
			want: planner.ErrBadStatus,
		},
		{
			name: "empty plan",
			step: planner.ScriptStep{Plan: plan.Plan{}},
			want: plan.ErrEmptyPlan,
		},
		{
			name: "duplicate kinds",
			step: planner.ScriptStep{Plan: plan.Plan{Directives: []plan.Directive{
				plan.ParryWindow{}, plan.ParryWindow{Delay: ms(10)},
			}}},
			want: plan.ErrDuplicateDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, _ := newTestEngine(t, WithOracle(planner.NewScriptedOracle(tt.step)))

			e.Tick(t0, combat.Input{})
			applied := waitForPlan(t, e, t0)
			if applied.Plan.Source != plan.SourceFallback {
				t.Errorf("Source = %q, want fallback", applied.Plan.Source)
			}
			if !errors.Is(applied.Failure, tt.want) {
				t.Errorf("Failure = %v, want %v", applied.Failure, tt.want)
			}
			if got := e.Stats().Failures; got != 1 {
				t.Errorf("Failures = %d", got)
			}
		})
	}
}

func TestEngine_SlowOracleFallsBackWithinBudget(t *testing.T) {
	t.Parallel()

	oracle := planner.NewScriptedOracle(planner.ScriptStep{
		Plan:  plan.Plan{Directives: []plan.Directive{plan.Strike{Attack: combat.AttackHeavy}}},
		Delay: ms(400),
	}).Repeat()
	e, _ := newTestEngine(t, WithOracle(oracle))

	var first *Applied
	deadline := time.Now().Add(2 * time.Second)
	for first == nil && time.Now().Before(deadline) {
		f := e.Tick(time.Now(), combat.Input{})
		for i := range f.Plans {
			first = &f.Plans[i]
		}
		time.Sleep(5 * time.Millisecond)
	}

	if first == nil {
		t.Fatal("no plan applied")
	}
	if first.Plan.Source != plan.SourceFallback {
		t.Errorf("Source = %q, want fallback", first.Plan.Source)
	}
	if first.Failure == nil {
		t.Error("Failure = nil, want timeout or supersession")
	}
	if e.Stats().OraclePlans != 0 {
		t.Error("a 400ms oracle plan was applied")
	}
}

func TestEngine_OneRequestInFlight(t *testing.T) {
	t.Parallel()

	oracle := &blockingOracle{}
	e, _ := newTestEngine(t, WithOracle(oracle))

	// Every frame is past the think interval but short of the watchdog.
	for i := 0; i <= 34; i++ {
		e.Tick(t0.Add(ms(10*i)), combat.Input{})
	}

	deadline := time.Now().Add(time.Second)
	for oracle.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := oracle.calls.Load(); got != 1 {
		t.Errorf("oracle calls = %d, want 1", got)
	}
	if got := oracle.maxSeen.Load(); got > 1 {
		t.Errorf("concurrent calls = %d", got)
	}
	if !e.InFlight() {
		t.Error("InFlight() = false")
	}
}

func TestEngine_TickNeverWaitsOnOracle(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, WithOracle(&blockingOracle{}))

	var slowest time.Duration
	for i := 0; i < 200; i++ {
		start := time.Now()
		e.Tick(t0.Add(ms(5*i)), combat.Input{Right: i%2 == 0})
		slowest = max(slowest, time.Since(start))
	}
	if slowest > 50*time.Millisecond {
		t.Errorf("slowest Tick() = %v", slowest)
	}
}

func TestEngine_StaleResultDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var first atomic.Bool
	oracle := planner.OracleFunc(func(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error) {
		if snap.T == t0.UnixMilli() {
			first.Store(true)
			<-release
			return plan.Plan{
				Directives: []plan.Directive{plan.Strike{Attack: combat.AttackHeavy}},
				Rationale:  "late",
			}, nil
		}
		<-ctx.Done()
		return plan.Plan{}, ctx.Err()
	})
	journalStore := memory.NewJournalStore()
	notifier := &recordingNotifier{}
	e, _ := newTestEngine(t, WithOracle(oracle), WithNotifier(notifier), WithJournal(journalStore))
	session := e.Session()

	e.Tick(t0, combat.Input{})
	deadline := time.Now().Add(2 * time.Second)
	for !first.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !first.Load() {
		t.Fatal("first cycle never reached the oracle")
	}

	// Budget 300ms plus 50ms grace.
	if f := e.Tick(t0.Add(ms(349)), combat.Input{}); len(f.Plans) != 0 {
		t.Fatalf("watchdog fired early: %+v", f.Plans)
	}
	f := e.Tick(t0.Add(ms(350)), combat.Input{})
	if len(f.Plans) != 1 {
		t.Fatalf("plans at the deadline = %d, want 1", len(f.Plans))
	}
	if !f.Plans[0].Superseded || !errors.Is(f.Plans[0].Failure, ErrSuperseded) {
		t.Errorf("applied = %+v, want superseded", f.Plans[0])
	}
	if f.Plans[0].Plan.Source != plan.SourceFallback {
		t.Errorf("Source = %q", f.Plans[0].Plan.Source)
	}

	close(release)
	deadline = time.Now().Add(2 * time.Second)
	for e.Stats().Stale == 0 && time.Now().Before(deadline) {
		e.Tick(t0.Add(ms(350)), combat.Input{})
		time.Sleep(time.Millisecond)
	}
	if got := e.Stats().Stale; got != 1 {
		t.Fatalf("Stale = %d, want 1", got)
	}
	for _, p := range notifier.plans {
		if p.Rationale == "late" {
			t.Error("stale plan reached the notifier")
		}
	}
	for _, a := range e.Queue() {
		if s, ok := a.Directive.(plan.Strike); ok && s.Attack == combat.AttackHeavy {
			t.Error("stale strike reached the queue")
		}
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	entries, err := journalStore.List(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	outcomes := map[journal.Outcome]int{}
	for _, entry := range entries {
		outcomes[entry.Outcome]++
	}
	if outcomes[journal.OutcomeSuperseded] != 1 || outcomes[journal.OutcomeStale] != 1 {
		t.Errorf("journal outcomes = %v", outcomes)
	}
}

func TestEngine_PlayerLightAttackHits(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	e, world := newTestEngine(t, WithNotifier(notifier))
	world.Place(combat.ActorNPC, 300)

	e.Tick(t0, combat.Input{})
	e.Tick(t0.Add(ms(10)), combat.Input{Light: true})
	if got := e.Actor(combat.ActorPlayer).State; got != combat.StateWindupLight {
		t.Fatalf("player state = %q", got)
	}

	f := e.Tick(t0.Add(ms(130)), combat.Input{})
	if len(f.Resolutions) != 1 {
		t.Fatalf("resolutions = %d, want 1", len(f.Resolutions))
	}
	res := f.Resolutions[0]
	if res.Attacker != combat.ActorPlayer || res.Outcome != combat.OutcomeHit || res.Distance != 60 {
		t.Errorf("resolution = %+v", res)
	}
	if got := world.X(combat.ActorNPC); got != 324 {
		t.Errorf("npc x = %v, want 324", got)
	}
	if got := e.Actor(combat.ActorNPC).Gauges.Health; got != 92 {
		t.Errorf("npc health = %v, want 92", got)
	}
	if !notifier.hasCue(combat.ActorNPC, CueHit) {
		t.Error("hit cue not sent")
	}
	if e.Stats().Resolutions[combat.OutcomeHit] != 1 {
		t.Errorf("Resolutions = %v", e.Stats().Resolutions)
	}
}

func TestEngine_NPCParryKnocksBackAttacker(t *testing.T) {
	t.Parallel()

	oracle := planner.OracleFunc(func(context.Context, snapshot.Snapshot) (plan.Plan, error) {
		return plan.Plan{Directives: []plan.Directive{plan.ParryWindow{Delay: ms(50)}}}, nil
	})
	notifier := &recordingNotifier{}
	e, world := newTestEngine(t, WithOracle(oracle), WithNotifier(notifier))
	world.Place(combat.ActorNPC, 300)

	e.Tick(t0, combat.Input{})
	waitForPlan(t, e, t0)

	e.Tick(t0.Add(ms(10)), combat.Input{Light: true})
	e.Tick(t0.Add(ms(50)), combat.Input{})
	npc := e.Actor(combat.ActorNPC)
	if npc.State != combat.StateParryWindow || !npc.ParryUntil.Equal(t0.Add(ms(170))) {
		t.Fatalf("npc = %+v, want parry window until +170ms", npc)
	}
	if !notifier.hasCue(combat.ActorNPC, CueParryWindow) {
		t.Error("parry window cue not sent")
	}

	f := e.Tick(t0.Add(ms(130)), combat.Input{})
	if len(f.Resolutions) != 1 || f.Resolutions[0].Outcome != combat.OutcomeParry {
		t.Fatalf("resolutions = %+v, want one parry", f.Resolutions)
	}
	if got := world.X(combat.ActorPlayer); got != arena.PlayerSpawnX-20 {
		t.Errorf("player x = %v, want knockback of 20", got)
	}
	if !e.Actor(combat.ActorNPC).ParryUntil.IsZero() {
		t.Error("parry window not consumed")
	}
	if got := e.Actor(combat.ActorNPC).Gauges.Health; got != 100 {
		t.Errorf("npc health = %v", got)
	}
}

func TestEngine_CommitmentGateIgnoresMovement(t *testing.T) {
	t.Parallel()

	e, world := newTestEngine(t)

	e.Tick(t0, combat.Input{Light: true, Right: true})
	if got := world.VX(combat.ActorPlayer); got != 0 {
		t.Errorf("vx during windup = %v", got)
	}
	e.Tick(t0.Add(ms(200)), combat.Input{Right: true})
	if got := world.VX(combat.ActorPlayer); got != 0 {
		t.Errorf("vx during attack = %v", got)
	}
	if f := e.Tick(t0.Add(ms(200)), combat.Input{Heavy: true}); e.Actor(combat.ActorPlayer).State == combat.StateWindupHeavy {
		t.Errorf("heavy accepted while committed: %+v", f.Transitions)
	}

	// Light attack is over after 120+60+140ms. Input is read before phases
	// advance, so the settle lands one frame before movement resumes.
	e.Tick(t0.Add(ms(400)), combat.Input{})
	e.Tick(t0.Add(ms(410)), combat.Input{Right: true})
	if got := world.VX(combat.ActorPlayer); got != 180 {
		t.Errorf("vx after recovery = %v, want 180", got)
	}
	if got := e.Actor(combat.ActorPlayer).State; got != combat.StateMove {
		t.Errorf("state = %q", got)
	}
}

func TestEngine_DashAndGuardRecordPatterns(t *testing.T) {
	t.Parallel()

	e, world := newTestEngine(t)

	e.Tick(t0, combat.Input{Dash: true})
	if got := world.VX(combat.ActorPlayer); got != 560 {
		t.Errorf("dash vx = %v, want 560", got)
	}
	e.Tick(t0.Add(ms(150)), combat.Input{Guard: true})
	if got := e.Actor(combat.ActorPlayer); got.State != combat.StateGuard || !got.ParryActive(t0.Add(ms(200))) {
		t.Errorf("player = %+v", got)
	}
	if got := world.VX(combat.ActorPlayer); got != 0 {
		t.Errorf("guard vx = %v", got)
	}

	signals := map[pattern.Signal]bool{}
	for _, s := range e.Patterns(t0.Add(ms(150))) {
		signals[s.Signal] = true
	}
	if !signals[pattern.SignalDashSeparation] || !signals[pattern.SignalGuard] {
		t.Errorf("patterns = %v", signals)
	}
}

func TestEngine_ArenaShooterPatterns(t *testing.T) {
	t.Parallel()

	arenaTuning, err := config.ProfileConfig(config.ProfileArena)
	if err != nil {
		t.Fatalf("ProfileConfig() error = %v", err)
	}
	e, _ := newTestEngine(t, WithTuning(arenaTuning))

	e.Tick(t0, combat.Input{Shoot: true})
	e.Tick(t0.Add(ms(10)), combat.Input{Shoot: true})
	if got := e.Actor(combat.ActorPlayer).Gauges.Ammo; got != combat.MagazineSize-2 {
		t.Fatalf("ammo = %d, want %d", got, combat.MagazineSize-2)
	}
	e.Tick(t0.Add(ms(20)), combat.Input{Reload: true})
	if got := e.Actor(combat.ActorPlayer).Gauges.Ammo; got != combat.MagazineSize {
		t.Errorf("ammo after reload = %d", got)
	}

	summaries := map[pattern.Signal]pattern.Summary{}
	for _, s := range e.Patterns(t0.Add(ms(20))) {
		summaries[s.Signal] = s
	}
	if got := summaries[pattern.SignalShot].Samples; got != 2 {
		t.Errorf("shot samples = %d, want 2", got)
	}
	if got := summaries[pattern.SignalReload].Mean; got != float64(combat.MagazineSize-2) {
		t.Errorf("reload mean = %v", got)
	}
}

func TestEngine_DuelIgnoresShooterInput(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	e.Tick(t0, combat.Input{Shoot: true})
	if got := e.Actor(combat.ActorPlayer).Gauges.Ammo; got != combat.MagazineSize {
		t.Errorf("ammo = %d", got)
	}
	for _, s := range e.Patterns(t0) {
		if s.Signal == pattern.SignalShot {
			t.Error("shot sampled in duel profile")
		}
	}
}

func TestEngine_SnapshotEventsDrainedOnce(t *testing.T) {
	t.Parallel()

	oracle := planner.NewScriptedOracle(planner.ScriptStep{
		Plan: plan.Plan{Directives: []plan.Directive{plan.MicroStep{DX: 0.2, Duration: ms(100)}}},
	}).Repeat()
	e, _ := newTestEngine(t, WithOracle(oracle))

	e.Tick(t0, combat.Input{Light: true})
	waitForPlan(t, e, t0)
	e.Tick(t0.Add(ms(125)), combat.Input{})
	waitForPlan(t, e, t0.Add(ms(125)))

	received := oracle.Received()
	if len(received) != 2 {
		t.Fatalf("snapshots = %d", len(received))
	}
	if _, ok := received[0].FindEvent(snapshot.EventWindup, combat.ActorPlayer); !ok {
		t.Error("first snapshot lacks the windup")
	}
	if _, ok := received[0].Pattern(pattern.SignalAttackRange); !ok {
		t.Error("first snapshot lacks attack range samples")
	}
	if _, ok := received[1].FindEvent(snapshot.EventWindup, combat.ActorPlayer); ok {
		t.Error("windup delivered twice")
	}
	if received[0].T != t0.UnixMilli() {
		t.Errorf("T = %d", received[0].T)
	}
}

func TestEngine_Reset(t *testing.T) {
	t.Parallel()

	oracle := &blockingOracle{}
	e, world := newTestEngine(t, WithOracle(oracle))
	world.Place(combat.ActorNPC, 300)
	first := e.Session()

	e.Tick(t0, combat.Input{Light: true})
	if !e.InFlight() {
		t.Fatal("InFlight() = false")
	}

	t1 := t0.Add(ms(50))
	if err := e.Reset(t1); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if e.Session() == first {
		t.Error("session id unchanged")
	}
	if e.InFlight() {
		t.Error("cycle still in flight after Reset")
	}
	if got := e.Actor(combat.ActorPlayer); got.State != combat.StateIdle || len(e.machine(combat.ActorPlayer).Pending()) != 0 {
		t.Errorf("player = %+v", got)
	}
	if len(e.Queue()) != 0 || len(e.Patterns(t1)) != 0 {
		t.Error("queue or patterns survived Reset")
	}
	if e.Stats().Frames != 0 {
		t.Errorf("Stats() = %+v", e.Stats())
	}

	e.Tick(t1, combat.Input{})
	if !e.InFlight() {
		t.Error("no cycle dispatched after Reset")
	}
}

func TestEngine_Reconfigure(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	bad := config.DefaultEngineConfig()
	bad.Oracle.Timeout = 0
	if err := e.Reconfigure(bad); !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("Reconfigure(bad) error = %v", err)
	}
	if err := e.Reconfigure(nil); !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("Reconfigure(nil) error = %v", err)
	}

	arenaTuning, err := config.ProfileConfig(config.ProfileArena)
	if err != nil {
		t.Fatalf("ProfileConfig() error = %v", err)
	}
	if err := e.Reconfigure(arenaTuning); err != nil {
		t.Fatalf("Reconfigure() error = %v", err)
	}
	if e.Tuning().Profile != config.ProfileDuel {
		t.Error("tuning applied before the next frame")
	}

	e.Tick(t0, combat.Input{})
	if e.Tuning().Profile != config.ProfileArena {
		t.Errorf("Profile = %q", e.Tuning().Profile)
	}
	if want := t0.Add(arenaTuning.Tick.ThinkInterval.Duration()); !e.NextPlanAt().Equal(want) {
		t.Errorf("NextPlanAt() = %v, want %v", e.NextPlanAt().Sub(t0), want.Sub(t0))
	}
}

func TestEngine_JournalRecordsCycles(t *testing.T) {
	t.Parallel()

	store := memory.NewJournalStore()
	e, _ := newTestEngine(t, WithJournal(store))
	session := e.Session()

	for i := 0; i < 3; i++ {
		e.Tick(t0.Add(ms(125*i)), combat.Input{})
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := store.List(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Cycle != uint64(i+1) || entry.Outcome != journal.OutcomeApplied || entry.Source != plan.SourceFallback {
			t.Errorf("entry %d = %+v", i, entry)
		}
		if entry.Plan == "" {
			t.Errorf("entry %d has no plan text", i)
		}
	}
}

func TestEngine_Closed(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, WithOracle(&blockingOracle{}))
	e.Tick(t0, combat.Input{})

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if f := e.Tick(t0.Add(ms(500)), combat.Input{}); len(f.Plans)+len(f.Transitions) != 0 {
		t.Errorf("Tick() after Close = %+v", f)
	}
	if err := e.Reset(t0); !errors.Is(err, ErrClosed) {
		t.Errorf("Reset() error = %v", err)
	}
	if err := e.Reconfigure(config.DefaultEngineConfig()); !errors.Is(err, ErrClosed) {
		t.Errorf("Reconfigure() error = %v", err)
	}
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{ErrSuperseded, "superseded"},
		{context.DeadlineExceeded, "timeout"},
		{planner.ErrTimeout, "timeout"},
		{context.Canceled, "canceled"},
		{planner.ErrCircuitOpen, "circuit_open"},
		{planner.ErrBadStatus, "bad_status"},
		{plan.ErrEmptyPlan, "empty"},
		{plan.ErrMalformed, "decode"},
		{errors.New("connection refused"), "transport"},
	}

	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
