// Package telemetry provides OpenTelemetry metrics for the duel engine and
// the planning relay.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricPlanCycles   = "duelist.plan.cycles"
	MetricPlanFailures = "duelist.plan.failures"
	MetricPlanStale    = "duelist.plan.stale"
	MetricPlanLatency  = "duelist.plan.latency"
	MetricResolutions  = "duelist.combat.resolutions"
	MetricEvictions    = "duelist.queue.evictions"
	MetricFrames       = "duelist.frames"
	MetricRelayReplies = "duelist.relay.replies"
	MetricRateLimited  = "duelist.relay.ratelimit.hits"
	MetricInFlight     = "duelist.plan.inflight"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	planCycles   metric.Int64Counter
	planFailures metric.Int64Counter
	planStale    metric.Int64Counter
	resolutions  metric.Int64Counter
	evictions    metric.Int64Counter
	frames       metric.Int64Counter
	relayReplies metric.Int64Counter
	rateLimited  metric.Int64Counter

	// Histograms
	planLatency metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	inFlight metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/duelist").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global provider.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/duelist",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.planCycles, MetricPlanCycles, "Plans applied, by source", "{plan}"},
		{&mp.planFailures, MetricPlanFailures, "Oracle failures, by reason", "{failure}"},
		{&mp.planStale, MetricPlanStale, "Oracle replies discarded as stale", "{reply}"},
		{&mp.resolutions, MetricResolutions, "Attack resolutions, by outcome", "{resolution}"},
		{&mp.evictions, MetricEvictions, "Queued actions replaced before completion", "{action}"},
		{&mp.frames, MetricFrames, "Frames ticked", "{frame}"},
		{&mp.relayReplies, MetricRelayReplies, "Relay replies, by source", "{reply}"},
		{&mp.rateLimited, MetricRateLimited, "Relay requests over the rate limit", "{hit}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	// Histograms
	mp.planLatency, err = mp.meter.Float64Histogram(
		MetricPlanLatency,
		metric.WithDescription("Round trip of planning cycles"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	// Gauges (UpDownCounters)
	mp.inFlight, err = mp.meter.Int64UpDownCounter(
		MetricInFlight,
		metric.WithDescription("Planning requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordPlan records an applied plan and the cycle latency.
func (mp *MetricsProvider) RecordPlan(ctx context.Context, source string, latency time.Duration) {
	attrs := metric.WithAttributes(attribute.String("plan.source", source))
	mp.planCycles.Add(ctx, 1, attrs)
	mp.planLatency.Record(ctx, float64(latency.Microseconds())/1000, attrs)
}

// RecordPlanFailure records a failed oracle call.
func (mp *MetricsProvider) RecordPlanFailure(ctx context.Context, reason string) {
	mp.planFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("failure.reason", reason)))
}

// RecordStale records a discarded late reply.
func (mp *MetricsProvider) RecordStale(ctx context.Context) {
	mp.planStale.Add(ctx, 1)
}

// RecordResolution records an attack resolution.
func (mp *MetricsProvider) RecordResolution(ctx context.Context, attacker, kind, outcome string) {
	mp.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("combat.attacker", attacker),
		attribute.String("combat.kind", kind),
		attribute.String("combat.outcome", outcome),
	))
}

// RecordEviction records a queued action replaced by a newer one.
func (mp *MetricsProvider) RecordEviction(ctx context.Context, kind string) {
	mp.evictions.Add(ctx, 1, metric.WithAttributes(attribute.String("action.kind", kind)))
}

// RecordFrame records one tick.
func (mp *MetricsProvider) RecordFrame(ctx context.Context) {
	mp.frames.Add(ctx, 1)
}

// RecordRelayReply records a relay reply.
func (mp *MetricsProvider) RecordRelayReply(ctx context.Context, source string) {
	mp.relayReplies.Add(ctx, 1, metric.WithAttributes(attribute.String("plan.source", source)))
}

// RecordRateLimitHit records a rate limit hit.
func (mp *MetricsProvider) RecordRateLimitHit(ctx context.Context) {
	mp.rateLimited.Add(ctx, 1)
}

// IncrementInFlight increments the in-flight gauge.
func (mp *MetricsProvider) IncrementInFlight(ctx context.Context) {
	mp.inFlight.Add(ctx, 1)
}

// DecrementInFlight decrements the in-flight gauge.
func (mp *MetricsProvider) DecrementInFlight(ctx context.Context) {
	mp.inFlight.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordPlan is a no-op.
func (n *NoopMetricsProvider) RecordPlan(context.Context, string, time.Duration) {}

// RecordPlanFailure is a no-op.
func (n *NoopMetricsProvider) RecordPlanFailure(context.Context, string) {}

// RecordStale is a no-op.
func (n *NoopMetricsProvider) RecordStale(context.Context) {}

// RecordResolution is a no-op.
func (n *NoopMetricsProvider) RecordResolution(context.Context, string, string, string) {}

// RecordEviction is a no-op.
func (n *NoopMetricsProvider) RecordEviction(context.Context, string) {}

// RecordFrame is a no-op.
func (n *NoopMetricsProvider) RecordFrame(context.Context) {}

// RecordRelayReply is a no-op.
func (n *NoopMetricsProvider) RecordRelayReply(context.Context, string) {}

// RecordRateLimitHit is a no-op.
func (n *NoopMetricsProvider) RecordRateLimitHit(context.Context) {}

// IncrementInFlight is a no-op.
func (n *NoopMetricsProvider) IncrementInFlight(context.Context) {}

// DecrementInFlight is a no-op.
func (n *NoopMetricsProvider) DecrementInFlight(context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordPlan(ctx context.Context, source string, latency time.Duration)
	RecordPlanFailure(ctx context.Context, reason string)
	RecordStale(ctx context.Context)
	RecordResolution(ctx context.Context, attacker, kind, outcome string)
	RecordEviction(ctx context.Context, kind string)
	RecordFrame(ctx context.Context)
	RecordRelayReply(ctx context.Context, source string)
	RecordRateLimitHit(ctx context.Context)
	IncrementInFlight(ctx context.Context)
	DecrementInFlight(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
