package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/domain/plan"
)

// JournalStore is a SQLite-backed implementation of journal.Store.
type JournalStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewJournalStore opens the journal described by cfg.
func NewJournalStore(cfg Config) (*JournalStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &JournalStore{db: db}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewJournalStoreFromDB creates a journal store from an existing database connection.
func NewJournalStoreFromDB(db *sql.DB) (*JournalStore, error) {
	s := &JournalStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the journal table if it doesn't exist.
func (s *JournalStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS plan_journal (
			session_id TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			source TEXT NOT NULL,
			outcome TEXT NOT NULL,
			rationale TEXT NOT NULL DEFAULT '',
			plan TEXT NOT NULL DEFAULT '',
			failure TEXT NOT NULL DEFAULT '',
			latency_us INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_plan_journal_session ON plan_journal(session_id, cycle);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append persists an entry.
func (s *JournalStore) Append(ctx context.Context, e journal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return journal.ErrStoreClosed
	}
	if err := e.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_journal
		 (session_id, cycle, source, outcome, rationale, plan, failure, latency_us, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID,
		int64(e.Cycle),
		string(e.Source),
		string(e.Outcome),
		e.Rationale,
		e.Plan,
		e.Failure,
		e.Latency.Microseconds(),
		e.At.UnixMicro(),
	)
	return err
}

// List returns a session's entries ordered by cycle.
func (s *JournalStore) List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, journal.ErrStoreClosed
	}

	query := `SELECT session_id, cycle, source, outcome, rationale, plan, failure, latency_us, recorded_at
		FROM plan_journal WHERE session_id = ? ORDER BY cycle DESC, rowid DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []journal.Entry
	for rows.Next() {
		var (
			e                  journal.Entry
			cycle              int64
			source, outcome    string
			latencyUS, atMicro int64
		)
		if err := rows.Scan(&e.SessionID, &cycle, &source, &outcome, &e.Rationale, &e.Plan, &e.Failure, &latencyUS, &atMicro); err != nil {
			return nil, err
		}
		e.Cycle = uint64(cycle)
		e.Source = plan.Source(source)
		e.Outcome = journal.Outcome(outcome)
		e.Latency = time.Duration(latencyUS) * time.Microsecond
		e.At = time.UnixMicro(atMicro)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest first so LIMIT keeps the latest entries.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close closes the database connection.
func (s *JournalStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

var _ journal.Store = (*JournalStore)(nil)
