// Package sqlite provides a SQLite-backed plan journal.
package sqlite

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/felixgeelhaar/duelist/domain/config"
)

// Config configures the SQLite journal.
type Config struct {
	// DSN is the data source name, e.g. "file:journal.db?mode=rwc".
	DSN string

	// WAL lets `duelist journal` read while a match is still appending.
	WAL bool

	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration

	// AutoMigrate creates the journal table when it is missing.
	AutoMigrate bool
}

// DefaultConfig returns the settings of the local match journal.
func DefaultConfig() Config {
	return Config{
		DSN:         "file:duelist.db?mode=rwc",
		WAL:         true,
		BusyTimeout: 5 * time.Second,
		AutoMigrate: true,
	}
}

// ConfigFrom applies the engine's journal section to the defaults.
func ConfigFrom(j config.JournalConfig) Config {
	cfg := DefaultConfig()
	if j.DSN != "" {
		cfg.DSN = j.DSN
	}
	return cfg
}

// Errors
var (
	ErrConnectionFailed = errors.New("sqlite: connection failed")
	ErrMigrationFailed  = errors.New("sqlite: migration failed")
)

// openDB opens the journal database. The recorder is the only writer, so
// one connection is enough and keeps in-memory DSNs on a single database.
func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(1)

	var pragmas []string
	if cfg.WAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, "PRAGMA busy_timeout="+strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrMigrationFailed, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return db, nil
}
