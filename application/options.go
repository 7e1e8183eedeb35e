package application

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
	"github.com/felixgeelhaar/duelist/infrastructure/telemetry"
)

// Option configures an engine.
type Option func(*EngineConfig)

// WithWorld sets the physics collaborator.
func WithWorld(w World) Option {
	return func(c *EngineConfig) {
		c.World = w
	}
}

// WithOracle sets the planning oracle.
func WithOracle(o planner.Oracle) Option {
	return func(c *EngineConfig) {
		c.Oracle = o
	}
}

// WithTuning sets the engine tuning.
func WithTuning(t *config.EngineConfig) Option {
	return func(c *EngineConfig) {
		c.Tuning = t
	}
}

// WithNotifier sets the render notifier.
func WithNotifier(n Notifier) Option {
	return func(c *EngineConfig) {
		c.Notifier = n
	}
}

// WithJournal enables the cycle journal.
func WithJournal(s journal.Store) Option {
	return func(c *EngineConfig) {
		c.Journal = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer for oracle calls.
func WithTracer(t trace.Tracer) Option {
	return func(c *EngineConfig) {
		c.Tracer = t
	}
}

// WithSessionID names the first session.
func WithSessionID(id string) Option {
	return func(c *EngineConfig) {
		c.SessionID = id
	}
}

// NewEngineWithOptions creates an engine from options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	var cfg EngineConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg)
}
