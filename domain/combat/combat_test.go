package combat

import (
	"errors"
	"testing"
	"time"
)

func TestState_IsCommitted(t *testing.T) {
	t.Parallel()

	committed := map[State]bool{
		StateWindupLight: true,
		StateWindupHeavy: true,
		StateAttackLight: true,
		StateAttackHeavy: true,
		StateRecovery:    true,
	}

	for _, s := range AllStates() {
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()

			if got := s.IsCommitted(); got != committed[s] {
				t.Errorf("%s.IsCommitted() = %v, want %v", s, got, committed[s])
			}
			if !s.IsValid() {
				t.Errorf("%s.IsValid() = false", s)
			}
		})
	}

	if State("flying").IsValid() {
		t.Error("unknown state should not be valid")
	}
}

func TestActorID_Opponent(t *testing.T) {
	t.Parallel()

	if ActorPlayer.Opponent() != ActorNPC {
		t.Error("player opponent should be npc")
	}
	if ActorNPC.Opponent() != ActorPlayer {
		t.Error("npc opponent should be player")
	}
}

func TestFacingToward(t *testing.T) {
	t.Parallel()

	if FacingToward(100, 200) != FacingRight {
		t.Error("expected right")
	}
	if FacingToward(200, 100) != FacingLeft {
		t.Error("expected left")
	}
	if FacingRight.Sign() != 1 || FacingLeft.Sign() != -1 {
		t.Error("unexpected facing sign")
	}
}

func TestActorState_ParryActive(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	a := NewActorState(ActorNPC, FacingLeft)

	if a.ParryActive(now) {
		t.Error("fresh actor should have no parry window")
	}

	a.ParryUntil = now.Add(50 * time.Millisecond)
	if !a.ParryActive(now) {
		t.Error("window 50ms in the future should be active")
	}
	if a.ParryActive(now.Add(50 * time.Millisecond)) {
		t.Error("window should be closed at its expiry instant")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)

	tests := []struct {
		name       string
		kind       AttackKind
		distance   float64
		parryUntil time.Time
		want       Outcome
	}{
		{"light at reach without window hits", AttackLight, 80, time.Time{}, OutcomeHit},
		{"light at reach with window parries", AttackLight, 80, now.Add(50 * time.Millisecond), OutcomeParry},
		{"expired window hits", AttackLight, 80, now.Add(-time.Millisecond), OutcomeHit},
		{"light beyond reach misses", AttackLight, 81, time.Time{}, OutcomeMiss},
		{"heavy reaches further", AttackHeavy, 120, time.Time{}, OutcomeHit},
		{"heavy beyond reach misses even with window", AttackHeavy, 121, now.Add(time.Second), OutcomeMiss},
		{"unknown kind misses", AttackKind("kick"), 10, time.Time{}, OutcomeMiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, dist := Resolve(Strike{
				Kind:       tt.kind,
				AttackerX:  200,
				DefenderX:  200 + tt.distance,
				ParryUntil: tt.parryUntil,
				At:         now,
			}, DefaultReach())
			if got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
			if dist != tt.distance {
				t.Errorf("distance = %v, want %v", dist, tt.distance)
			}
		})
	}
}

func TestDefaultTimings(t *testing.T) {
	t.Parallel()

	timings := DefaultTimings()
	if got := timings[AttackLight].Total(); got != 320*time.Millisecond {
		t.Errorf("light total = %v, want 320ms", got)
	}
	if got := timings[AttackHeavy].Total(); got != 620*time.Millisecond {
		t.Errorf("heavy total = %v, want 620ms", got)
	}
}

func TestInput_Direction(t *testing.T) {
	t.Parallel()

	if (Input{Left: true}).Direction() != -1 {
		t.Error("left should be -1")
	}
	if (Input{Right: true}).Direction() != 1 {
		t.Error("right should be +1")
	}
	if (Input{Left: true, Right: true}).Direction() != 0 {
		t.Error("both should cancel")
	}
}

func TestState_PermitsCommitmentGate(t *testing.T) {
	t.Parallel()

	for _, s := range AllStates() {
		for _, a := range AllActions() {
			err := s.Permits(a)
			if s.IsCommitted() {
				if !errors.Is(err, ErrCommitted) {
					t.Errorf("%s.Permits(%s) = %v, want ErrCommitted", s, a, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s.Permits(%s) = %v, want nil", s, a, err)
			}
		}
		if err := s.Permits("teleport"); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("%s.Permits(teleport) = %v, want ErrUnknownAction", s, err)
		}
	}
}

func TestActorState_ShootAndReload(t *testing.T) {
	t.Parallel()

	a := NewActorState(ActorPlayer, FacingRight)
	a.Gauges.Ammo = 1
	if !a.Shoot() {
		t.Fatal("Shoot() = false with one round")
	}
	if a.Shoot() {
		t.Error("Shoot() = true with an empty magazine")
	}
	if left := a.Reload(); left != 0 {
		t.Errorf("Reload() = %d, want 0", left)
	}
	if a.Gauges.Ammo != MagazineSize {
		t.Errorf("Ammo = %d", a.Gauges.Ammo)
	}
}
