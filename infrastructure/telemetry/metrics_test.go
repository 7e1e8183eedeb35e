package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMetrics creates a provider backed by a private manual reader.
func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	t.Helper()

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	cfg := DefaultMetricsConfig()
	cfg.MeterProvider = provider
	mp := NewMetricsProvider(cfg)
	if mp.Error() != nil {
		t.Fatalf("failed to create metrics provider: %v", mp.Error())
	}

	return reader, mp
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if key != "" {
			if v, ok := dp.Attributes.Value(attribute.Key(key)); !ok || v.AsString() != value {
				continue
			}
		}
		total += dp.Value
	}
	return total
}

func TestNewMetricsProvider(t *testing.T) {
	t.Parallel()

	_, mp := setupTestMetrics(t)
	if mp == nil {
		t.Fatal("NewMetricsProvider returned nil")
	}
}

func TestMetricsProvider_RecordPlan(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordPlan(ctx, "oracle", 80*time.Millisecond)
	mp.RecordPlan(ctx, "fallback", 300*time.Millisecond)
	mp.RecordPlan(ctx, "fallback", time.Millisecond)

	metrics := collect(t, reader)
	cycles, ok := metrics[MetricPlanCycles]
	if !ok {
		t.Fatalf("%s metric not found", MetricPlanCycles)
	}
	if got := sumOf(t, cycles, "plan.source", "fallback"); got != 2 {
		t.Errorf("fallback cycles = %d, want 2", got)
	}
	if got := sumOf(t, cycles, "", ""); got != 3 {
		t.Errorf("total cycles = %d, want 3", got)
	}

	latency, ok := metrics[MetricPlanLatency]
	if !ok {
		t.Fatalf("%s metric not found", MetricPlanLatency)
	}
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", latency.Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("latency samples = %d, want 3", count)
	}
}

func TestMetricsProvider_Counters(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordPlanFailure(ctx, "timeout")
	mp.RecordStale(ctx)
	mp.RecordStale(ctx)
	mp.RecordResolution(ctx, "npc", "light", "parry")
	mp.RecordEviction(ctx, "microStep")
	mp.RecordFrame(ctx)
	mp.RecordRelayReply(ctx, "heuristic")
	mp.RecordRateLimitHit(ctx)

	metrics := collect(t, reader)
	tests := []struct {
		name string
		key  string
		val  string
		want int64
	}{
		{MetricPlanFailures, "failure.reason", "timeout", 1},
		{MetricPlanStale, "", "", 2},
		{MetricResolutions, "combat.outcome", "parry", 1},
		{MetricEvictions, "action.kind", "microStep", 1},
		{MetricFrames, "", "", 1},
		{MetricRelayReplies, "plan.source", "heuristic", 1},
		{MetricRateLimited, "", "", 1},
	}
	for _, tt := range tests {
		m, ok := metrics[tt.name]
		if !ok {
			t.Errorf("%s metric not found", tt.name)
			continue
		}
		if got := sumOf(t, m, tt.key, tt.val); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMetricsProvider_InFlight(t *testing.T) {
	t.Parallel()

	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.IncrementInFlight(ctx)
	mp.IncrementInFlight(ctx)
	mp.DecrementInFlight(ctx)

	m, ok := collect(t, reader)[MetricInFlight]
	if !ok {
		t.Fatalf("%s metric not found", MetricInFlight)
	}
	if got := sumOf(t, m, "", ""); got != 1 {
		t.Errorf("in flight = %d, want 1", got)
	}
}

func TestNoopMetricsProvider(t *testing.T) {
	t.Parallel()

	var m Metrics = &NoopMetricsProvider{}
	ctx := context.Background()

	m.RecordPlan(ctx, "oracle", time.Millisecond)
	m.RecordPlanFailure(ctx, "decode")
	m.RecordStale(ctx)
	m.RecordResolution(ctx, "player", "heavy", "hit")
	m.RecordEviction(ctx, "strike")
	m.RecordFrame(ctx)
	m.RecordRelayReply(ctx, "openai")
	m.RecordRateLimitHit(ctx)
	m.IncrementInFlight(ctx)
	m.DecrementInFlight(ctx)
}
