package action

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/plan"
)

type recordingEffector struct {
	velocities []float64
	parries    []time.Time
	strikes    []combat.AttackKind
	strikeErr  error
}

func (r *recordingEffector) SetVelocity(vx float64) {
	r.velocities = append(r.velocities, vx)
}

func (r *recordingEffector) ArmParry(now time.Time) {
	r.parries = append(r.parries, now)
}

func (r *recordingEffector) Strike(kind combat.AttackKind, _ time.Time) error {
	r.strikes = append(r.strikes, kind)
	return r.strikeErr
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestQueue_OneActionPerKind(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	t0 := time.Unix(10, 0)

	if _, err := q.Enqueue(plan.MicroStep{DX: 0.5, Duration: ms(100)}, t0); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	_, _ = q.Enqueue(plan.Strike{Delay: ms(160), Attack: combat.AttackLight}, t0)

	evicted, err := q.Enqueue(plan.MicroStep{DX: -0.2, Duration: ms(80)}, t0.Add(ms(5)))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if !evicted {
		t.Error("Enqueue() evicted = false, want true")
	}

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	got, ok := q.Get(plan.KindMicroStep)
	if !ok {
		t.Fatal("Get(microStep) not found")
	}
	if step := got.Directive.(plan.MicroStep); step.DX != -0.2 {
		t.Errorf("queued dx = %v, want -0.2 (newest wins)", step.DX)
	}

	counts := map[plan.Kind]int{}
	for _, a := range q.Actions() {
		counts[a.Kind()]++
	}
	for kind, n := range counts {
		if n > 1 {
			t.Errorf("kind %s queued %d times", kind, n)
		}
	}
}

func TestQueue_EnqueueNil(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	if _, err := q.Enqueue(nil, time.Now()); !errors.Is(err, ErrNilDirective) {
		t.Errorf("Enqueue(nil) error = %v, want ErrNilDirective", err)
	}
}

func TestQueue_AdvanceIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	q.EnqueuePlan(plan.Plan{Directives: []plan.Directive{
		plan.MicroStep{DX: 0.6, Duration: ms(120)},
		plan.ParryWindow{Delay: 0},
	}}, t0)

	for i := 0; i < 3; i++ {
		q.Advance(t0, eff)
	}

	if len(eff.velocities) != 1 {
		t.Errorf("velocity set %d times, want 1", len(eff.velocities))
	}
	if len(eff.parries) != 1 {
		t.Errorf("parry armed %d times, want 1", len(eff.parries))
	}
	a, _ := q.Get(plan.KindMicroStep)
	if !a.Started || !a.StartedAt.Equal(t0) {
		t.Errorf("micro step Started=%v StartedAt=%v", a.Started, a.StartedAt)
	}
}

func TestQueue_MicroStepVelocity(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	_, _ = q.Enqueue(plan.MicroStep{DX: 0.6, Duration: ms(120)}, t0)

	q.Advance(t0, eff)
	if len(eff.velocities) != 1 || eff.velocities[0] != 700 {
		t.Fatalf("velocities = %v, want [700]", eff.velocities)
	}
	if !q.Stepping() {
		t.Error("Stepping() = false during step")
	}

	q.Advance(t0.Add(ms(119)), eff)
	if len(eff.velocities) != 1 {
		t.Errorf("velocity changed before step end: %v", eff.velocities)
	}

	q.Advance(t0.Add(ms(120)), eff)
	if len(eff.velocities) != 2 || eff.velocities[1] != 0 {
		t.Errorf("velocities = %v, want zeroed at end", eff.velocities)
	}
	if q.Stepping() {
		t.Error("Stepping() = true after step end")
	}
}

func TestQueue_DelayedEffects(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	q.EnqueuePlan(plan.Plan{Directives: []plan.Directive{
		plan.ParryWindow{Delay: ms(120)},
		plan.Strike{Delay: ms(160), Attack: combat.AttackHeavy},
	}}, t0)

	q.Advance(t0, eff)
	q.Advance(t0.Add(ms(100)), eff)
	if len(eff.parries) != 0 || len(eff.strikes) != 0 {
		t.Fatalf("effects fired early: parries=%v strikes=%v", eff.parries, eff.strikes)
	}

	fired := q.Advance(t0.Add(ms(130)), eff)
	if len(fired) != 1 || fired[0].Kind != plan.KindParryWindow {
		t.Errorf("fired = %+v, want parry", fired)
	}

	fired = q.Advance(t0.Add(ms(170)), eff)
	if len(fired) != 1 || fired[0].Kind != plan.KindStrike {
		t.Errorf("fired = %+v, want strike", fired)
	}
	if len(eff.strikes) != 1 || eff.strikes[0] != combat.AttackHeavy {
		t.Errorf("strikes = %v, want [heavy]", eff.strikes)
	}
}

func TestQueue_StrikeRejectionReported(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{strikeErr: combat.ErrCommitted}
	t0 := time.Unix(0, 0)
	_, _ = q.Enqueue(plan.Strike{Attack: combat.AttackLight}, t0)

	fired := q.Advance(t0, eff)
	if len(fired) != 1 || !errors.Is(fired[0].Err, combat.ErrCommitted) {
		t.Errorf("fired = %+v, want ErrCommitted", fired)
	}
	if again := q.Advance(t0.Add(ms(10)), eff); len(again) != 0 {
		t.Errorf("rejected strike retried: %+v", again)
	}
}

func TestQueue_Purge(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	q.EnqueuePlan(plan.Plan{Directives: []plan.Directive{
		plan.MicroStep{DX: 0.1, Duration: ms(80)},
		plan.Strike{Delay: ms(900), Attack: combat.AttackLight},
	}}, t0)

	q.Advance(t0, eff)
	q.Advance(t0.Add(ms(799)), eff)
	if q.Len() != 2 {
		t.Fatalf("Len() = %d before horizon, want 2", q.Len())
	}

	q.Advance(t0.Add(ms(800)), eff)
	if q.Len() != 1 {
		t.Fatalf("Len() = %d after horizon, want 1 (strike not yet fired)", q.Len())
	}

	q.Advance(t0.Add(ms(900)), eff)
	if q.Len() != 0 {
		t.Errorf("Len() = %d after strike, want 0", q.Len())
	}
	if len(eff.strikes) != 1 {
		t.Errorf("strikes = %v, want one", eff.strikes)
	}
}

func TestQueue_FutureActionWaits(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	_, _ = q.Enqueue(plan.MicroStep{DX: 1, Duration: ms(100)}, t0.Add(ms(50)))

	q.Advance(t0, eff)
	if a, _ := q.Get(plan.KindMicroStep); a.Started {
		t.Error("action started before ScheduledAt")
	}
	q.Advance(t0.Add(ms(50)), eff)
	if a, _ := q.Get(plan.KindMicroStep); !a.Started {
		t.Error("action not started at ScheduledAt")
	}
}

func TestQueue_EvictedPendingEffectNeverFires(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	_, _ = q.Enqueue(plan.Strike{Delay: ms(200), Attack: combat.AttackHeavy}, t0)
	q.Advance(t0, eff)

	_, _ = q.Enqueue(plan.Strike{Delay: ms(300), Attack: combat.AttackLight}, t0.Add(ms(100)))
	q.Advance(t0.Add(ms(100)), eff)
	q.Advance(t0.Add(ms(250)), eff)
	if len(eff.strikes) != 0 {
		t.Fatalf("evicted strike fired: %v", eff.strikes)
	}
	q.Advance(t0.Add(ms(400)), eff)
	if len(eff.strikes) != 1 || eff.strikes[0] != combat.AttackLight {
		t.Errorf("strikes = %v, want [light]", eff.strikes)
	}
}

func TestQueue_Reset(t *testing.T) {
	t.Parallel()

	q := NewQueue(DefaultConfig())
	eff := &recordingEffector{}
	t0 := time.Unix(0, 0)
	_, _ = q.Enqueue(plan.MicroStep{DX: 1, Duration: ms(500)}, t0)
	q.Advance(t0, eff)

	q.Reset(eff)
	if q.Len() != 0 || q.Stepping() {
		t.Errorf("Reset left Len=%d Stepping=%v", q.Len(), q.Stepping())
	}
	if last := eff.velocities[len(eff.velocities)-1]; last != 0 {
		t.Errorf("velocity after Reset = %v, want 0", last)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if err := (Config{StepScale: 0, Horizon: time.Second}).Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
	}
	q := NewQueue(DefaultConfig())
	if err := q.Reconfigure(Config{StepScale: 100}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Reconfigure() = %v, want ErrInvalidConfig", err)
	}
}
