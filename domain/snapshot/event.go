package snapshot

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// EventKind classifies a notable occurrence between two snapshots.
type EventKind string

// Event kinds.
const (
	EventWindup       EventKind = "windup"
	EventDash         EventKind = "dash"
	EventCommitAttack EventKind = "commit_attack"
	EventHit          EventKind = "hit"
	EventParry        EventKind = "parry"
	EventMiss         EventKind = "miss"
	EventGuard        EventKind = "guard"
	EventParryWindow  EventKind = "parry_window"
	EventShot         EventKind = "shot"
	EventReload       EventKind = "reload"
)

// Event is one occurrence reported with the next snapshot.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Actor  combat.ActorID `json:"actor"`
	Detail string         `json:"detail,omitempty"`

	// At is the occurrence time in Unix milliseconds.
	At int64 `json:"t"`
}

// NewEvent creates an event stamped at now.
func NewEvent(kind EventKind, actor combat.ActorID, detail string, now time.Time) Event {
	return Event{Kind: kind, Actor: actor, Detail: detail, At: now.UnixMilli()}
}

// Buffer collects events between snapshots. Drain hands over everything
// recorded so far and empties the buffer in one step, so an event is
// reported exactly once.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewBuffer creates a buffer holding at most limit events; the oldest are
// dropped past that. A non-positive limit means unbounded.
func NewBuffer(limit int) *Buffer {
	return &Buffer{limit: limit}
}

// Record appends an event.
func (b *Buffer) Record(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, e)
	if b.limit > 0 && len(b.events) > b.limit {
		b.events = append(b.events[:0:0], b.events[len(b.events)-b.limit:]...)
	}
}

// Drain returns all buffered events and clears the buffer.
func (b *Buffer) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.events
	b.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Reset discards pending events.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
