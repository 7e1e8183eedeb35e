// Package journal records one entry per planning cycle for later review.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/duelist/domain/plan"
)

// Outcome tells what the engine did with a cycle's plan.
type Outcome string

// Cycle outcomes.
const (
	// OutcomeApplied means the plan reached the action queue.
	OutcomeApplied Outcome = "applied"
	// OutcomeSuperseded means the watchdog replaced the cycle with a fallback.
	OutcomeSuperseded Outcome = "superseded"
	// OutcomeStale means the result arrived for an inactive cycle and was dropped.
	OutcomeStale Outcome = "stale"
)

// Entry is the record of one planning cycle.
type Entry struct {
	SessionID string        `json:"session_id"`
	Cycle     uint64        `json:"cycle"`
	Source    plan.Source   `json:"source"`
	Outcome   Outcome       `json:"outcome"`
	Rationale string        `json:"rationale,omitempty"`
	Plan      string        `json:"plan,omitempty"`
	Failure   string        `json:"failure,omitempty"`
	Latency   time.Duration `json:"latency"`
	At        time.Time     `json:"at"`
}

// Validate checks the entry's required fields.
func (e Entry) Validate() error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidEntry)
	}
	if e.Cycle == 0 {
		return fmt.Errorf("%w: cycle must be positive", ErrInvalidEntry)
	}
	switch e.Outcome {
	case OutcomeApplied, OutcomeSuperseded, OutcomeStale:
	default:
		return fmt.Errorf("%w: outcome %q", ErrInvalidEntry, e.Outcome)
	}
	return nil
}

// Store persists journal entries.
type Store interface {
	// Append persists an entry.
	Append(ctx context.Context, e Entry) error

	// List returns the entries of a session ordered by cycle. A positive
	// limit keeps only the most recent entries.
	List(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Close releases the store's resources.
	Close() error
}

// Stats aggregates a session's entries.
type Stats struct {
	Cycles   int
	BySource map[plan.Source]int
	Stale    int
}

// Summarize aggregates entries.
func Summarize(entries []Entry) Stats {
	s := Stats{BySource: make(map[plan.Source]int)}
	for _, e := range entries {
		if e.Outcome == OutcomeStale {
			s.Stale++
			continue
		}
		s.Cycles++
		s.BySource[e.Source]++
	}
	return s
}
