// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/duelist/domain/journal"
)

// JournalStore is an in-memory implementation of journal.Store.
type JournalStore struct {
	entries map[string][]journal.Entry // sessionID -> entries
	closed  bool
	mu      sync.RWMutex
}

// NewJournalStore creates a new in-memory journal store.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		entries: make(map[string][]journal.Entry),
	}
}

// Append persists an entry.
func (s *JournalStore) Append(ctx context.Context, e journal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return journal.ErrStoreClosed
	}
	s.entries[e.SessionID] = append(s.entries[e.SessionID], e)
	return nil
}

// List returns a session's entries ordered by cycle.
func (s *JournalStore) List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, journal.ErrStoreClosed
	}

	out := make([]journal.Entry, len(s.entries[sessionID]))
	copy(out, s.entries[sessionID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Sessions returns the ids of all sessions with entries.
func (s *JournalStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close marks the store closed.
func (s *JournalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ journal.Store = (*JournalStore)(nil)
