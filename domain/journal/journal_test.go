package journal

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/duelist/domain/plan"
)

func TestEntry_Validate(t *testing.T) {
	t.Parallel()

	valid := Entry{SessionID: "s", Cycle: 1, Outcome: OutcomeApplied}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing session", Entry{Cycle: 1, Outcome: OutcomeApplied}},
		{"zero cycle", Entry{SessionID: "s", Outcome: OutcomeApplied}},
		{"bad outcome", Entry{SessionID: "s", Cycle: 1, Outcome: "lost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.entry.Validate(); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Validate() = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize([]Entry{
		{Source: plan.SourceOracle, Outcome: OutcomeApplied},
		{Source: plan.SourceFallback, Outcome: OutcomeApplied},
		{Source: plan.SourceFallback, Outcome: OutcomeSuperseded},
		{Source: plan.SourceOracle, Outcome: OutcomeStale},
	})

	if s.Cycles != 3 || s.Stale != 1 {
		t.Errorf("Cycles=%d Stale=%d, want 3 and 1", s.Cycles, s.Stale)
	}
	if s.BySource[plan.SourceFallback] != 2 || s.BySource[plan.SourceOracle] != 1 {
		t.Errorf("BySource = %v", s.BySource)
	}
}
