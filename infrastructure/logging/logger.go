// Package logging provides structured logging using bolt.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/duelist/domain/config"
)

var current atomic.Pointer[bolt.Logger]

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is json or console.
	Format string

	// Output is the destination. Engine logs default to stderr so frame
	// reports and JSON output on stdout stay parseable.
	Output io.Writer
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

// ConfigFrom applies the engine's logging section to the defaults.
// Verbose forces debug level, which includes per-cycle plan logs.
func ConfigFrom(c config.LoggingConfig, verbose bool) Config {
	cfg := DefaultConfig()
	if c.Level != "" {
		cfg.Level = c.Level
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if verbose {
		cfg.Level = "debug"
	}
	return cfg
}

func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// Init installs a logger built from cfg. Later calls replace it, so each
// CLI command can apply its own configuration.
func Init(cfg Config) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler bolt.Handler
	if cfg.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	current.Store(bolt.New(handler).SetLevel(parseLevel(cfg.Level)))
}

// Replace swaps the logger, e.g. to capture output in tests. It returns
// the previous one.
func Replace(l *bolt.Logger) *bolt.Logger {
	prev := Get()
	current.Store(l)
	return prev
}

// Get returns the logger, installing the default one on first use.
func Get() *bolt.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(DefaultConfig())
	return current.Load()
}

// LogEvent wraps a bolt.Event so Fields can be chained onto it.
type LogEvent struct {
	event *bolt.Event
}

// Add applies a field and returns the wrapper for chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the event.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Debug starts a debug event.
func Debug() *LogEvent {
	return &LogEvent{event: Get().Debug()}
}

// Info starts an info event.
func Info() *LogEvent {
	return &LogEvent{event: Get().Info()}
}

// Warn starts a warn event.
func Warn() *LogEvent {
	return &LogEvent{event: Get().Warn()}
}
