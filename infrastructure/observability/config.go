// Package observability wires OpenTelemetry tracing and an in-process
// metric reader for the engine and the relay.
package observability

import (
	"io"
	"time"

	"github.com/felixgeelhaar/duelist/domain/config"
)

// Config configures the observability infrastructure.
type Config struct {
	// ServiceName is the name of the service for telemetry.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Environment is the deployment environment, usually the engine profile.
	Environment string

	// Tracing configures span export.
	Tracing TracingConfig
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled enables tracing (default: false).
	Enabled bool

	// Exporter specifies the trace exporter type.
	Exporter ExporterType

	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// Insecure disables TLS for the exporter connection.
	Insecure bool

	// SampleRate is the sampling rate (0.0-1.0, default: 1.0).
	SampleRate float64

	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration

	// MaxExportBatchSize is the maximum batch size.
	MaxExportBatchSize int

	// Writer receives stdout spans. Nil means os.Stdout.
	Writer io.Writer
}

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterOTLP exports to an OTLP gRPC collector.
	ExporterOTLP ExporterType = "otlp"

	// ExporterStdout writes spans as JSON.
	ExporterStdout ExporterType = "stdout"

	// ExporterNoop disables export.
	ExporterNoop ExporterType = "noop"
)

// DefaultConfig returns a configuration with tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "duelist",
		ServiceVersion: "dev",
		Environment:    "duel",
		Tracing: TracingConfig{
			Exporter:           ExporterStdout,
			SampleRate:         1.0,
			BatchTimeout:       5 * time.Second,
			MaxExportBatchSize: 512,
		},
	}
}

// ConfigFrom maps the engine telemetry section onto a provider config.
func ConfigFrom(engine *config.EngineConfig, version string) Config {
	cfg := DefaultConfig()
	if version != "" {
		cfg.ServiceVersion = version
	}
	if engine == nil {
		return cfg
	}
	if engine.Profile != "" {
		cfg.Environment = string(engine.Profile)
	}

	t := engine.Telemetry
	cfg.Tracing.Enabled = t.Tracing
	switch t.Exporter {
	case "otlp":
		cfg.Tracing.Exporter = ExporterOTLP
		cfg.Tracing.Endpoint = t.Endpoint
		cfg.Tracing.Insecure = true
	case "", "stdout":
		cfg.Tracing.Exporter = ExporterStdout
	default:
		cfg.Tracing.Exporter = ExporterType(t.Exporter)
	}
	if t.SampleRate > 0 {
		cfg.Tracing.SampleRate = t.SampleRate
	}
	return cfg
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithEnvironment sets the deployment environment.
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithStdoutTracing enables tracing to w, or stdout when w is nil.
func WithStdoutTracing(w io.Writer) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = ExporterStdout
		c.Tracing.Writer = w
	}
}

// WithOTLP enables tracing to an OTLP collector.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = ExporterOTLP
		c.Tracing.Endpoint = endpoint
		c.Tracing.Insecure = insecure
	}
}

// WithSampleRate sets the trace sampling ratio.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.Tracing.SampleRate = rate
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}
