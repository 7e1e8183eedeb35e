package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/duelist/domain/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ServiceName != "duelist" {
		t.Errorf("ServiceName = %s, want duelist", cfg.ServiceName)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", cfg.Tracing.SampleRate)
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	engine := config.DefaultEngineConfig()
	engine.Profile = config.ProfileArena
	engine.Telemetry = config.TelemetryConfig{
		Tracing:    true,
		Exporter:   "otlp",
		Endpoint:   "collector:4317",
		SampleRate: 0.25,
	}

	cfg := ConfigFrom(engine, "1.2.3")
	if cfg.ServiceVersion != "1.2.3" || cfg.Environment != "arena" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != ExporterOTLP || cfg.Tracing.Endpoint != "collector:4317" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}

	if got := ConfigFrom(nil, ""); got.ServiceVersion != "dev" {
		t.Errorf("ConfigFrom(nil) version = %s, want dev", got.ServiceVersion)
	}
}

func TestNew_TracingDisabled(t *testing.T) {
	t.Parallel()

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	if p.TracingEnabled() {
		t.Error("TracingEnabled() should be false")
	}
	_, span := p.Tracer("test").Start(context.Background(), "noop")
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
	span.End()
}

func TestNew_StdoutTracing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := New(WithStdoutTracing(&buf), WithServiceName("duelist-test"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !p.TracingEnabled() {
		t.Fatal("TracingEnabled() should be true")
	}

	_, span := p.Tracer("test").Start(context.Background(), "plan.cycle")
	span.SetAttributes(attribute.String("plan.source", "fallback"))
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "plan.cycle") || !strings.Contains(out, "duelist-test") {
		t.Errorf("exported spans missing name or service: %s", out)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "zipkin"

	if _, err := New(WithConfig(cfg)); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestProvider_Summary(t *testing.T) {
	t.Parallel()

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	ctx := context.Background()
	meter := p.MeterProvider().Meter("test")
	cycles, _ := meter.Int64Counter("duelist.plan.cycles")
	latency, _ := meter.Float64Histogram("duelist.plan.latency")

	cycles.Add(ctx, 3, metric.WithAttributes(attribute.String("plan.source", "oracle")))
	cycles.Add(ctx, 2, metric.WithAttributes(attribute.String("plan.source", "fallback")))
	latency.Record(ctx, float64(40*time.Millisecond/time.Millisecond))
	latency.Record(ctx, 60)

	s, err := p.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got := s.Total("duelist.plan.cycles"); got != 5 {
		t.Errorf("Total(cycles) = %v, want 5", got)
	}
	if got := s.Value("duelist.plan.cycles", "plan.source", "fallback"); got != 2 {
		t.Errorf("Value(fallback) = %v, want 2", got)
	}
	series := s.Metrics["duelist.plan.latency"]
	if len(series) != 1 || series[0].Count != 2 || series[0].Value != 100 {
		t.Errorf("latency series = %+v", series)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("WriteTo() lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "duelist.plan.cycles") {
		t.Errorf("first line = %q, want cycles first", lines[0])
	}
}
