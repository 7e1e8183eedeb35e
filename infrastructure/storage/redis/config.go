// Package redis provides a Redis-backed plan journal.
package redis

import (
	"time"

	"github.com/felixgeelhaar/duelist/domain/config"
)

// Config configures the Redis journal.
type Config struct {
	// Address is the server address (host:port).
	Address string

	// Password for authentication (optional).
	Password string

	// DB selects the database index.
	DB int

	// Timeout bounds dialing and each command.
	Timeout time.Duration

	// KeyPrefix namespaces the journal keys.
	KeyPrefix string

	// TTL expires a session's journal after its last write. Zero keeps it.
	TTL time.Duration
}

// DefaultConfig returns the settings of a local journal server. Sessions
// expire after a day.
func DefaultConfig() Config {
	return Config{
		Address:   "localhost:6379",
		Timeout:   3 * time.Second,
		KeyPrefix: "duelist:",
		TTL:       24 * time.Hour,
	}
}

// ConfigFrom applies the engine's journal section to the defaults.
func ConfigFrom(j config.JournalConfig) Config {
	cfg := DefaultConfig()
	if j.Addr != "" {
		cfg.Address = j.Addr
	}
	cfg.Password = j.Password
	if j.TTL != 0 {
		cfg.TTL = j.TTL.Duration()
	}
	return cfg
}
