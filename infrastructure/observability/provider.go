package observability

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrUnknownExporter indicates an unsupported trace exporter type.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider owns the tracer and meter providers of one process.
type Provider struct {
	config         Config
	resource       *resource.Resource
	tracerProvider trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	shutdownFuncs  []func(context.Context) error
}

// New creates a provider. Metrics are always collected in process so
// that a run can be summarized; tracing is exported only when enabled.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Not merged with resource.Default() to avoid schema URL conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	p := &Provider{
		config:         cfg,
		resource:       res,
		tracerProvider: noop.NewTracerProvider(),
		reader:         sdkmetric.NewManualReader(),
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(p.reader),
		sdkmetric.WithResource(res),
	)
	p.shutdownFuncs = append(p.shutdownFuncs, p.meterProvider.Shutdown)

	if cfg.Tracing.Enabled {
		if err := p.setupTracing(); err != nil {
			_ = p.Shutdown(context.Background())
			return nil, err
		}
	}
	return p, nil
}

func (p *Provider) setupTracing() error {
	tc := p.config.Tracing

	var exporter sdktrace.SpanExporter
	switch tc.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tc.Endpoint),
		}
		if tc.Insecure {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return fmt.Errorf("otlp exporter: %w", err)
		}
		exporter = exp

	case ExporterStdout:
		w := tc.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		exporter = exp

	case ExporterNoop:
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownExporter, tc.Exporter)
	}

	var sampler sdktrace.Sampler
	switch {
	case tc.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case tc.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(tc.SampleRate)
	}

	batchOpts := []sdktrace.BatchSpanProcessorOption{}
	if tc.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(tc.BatchTimeout))
	}
	if tc.MaxExportBatchSize > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(tc.MaxExportBatchSize))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batchOpts...),
		sdktrace.WithResource(p.resource),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	p.tracerProvider = tp
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

// Install sets the providers as the process-wide otel globals.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Config returns the provider configuration.
func (p *Provider) Config() Config {
	return p.config
}

// TracingEnabled reports whether spans are exported.
func (p *Provider) TracingEnabled() bool {
	_, ok := p.tracerProvider.(*sdktrace.TracerProvider)
	return ok
}

// TracerProvider returns the tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Tracer returns a named tracer.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tracerProvider.Tracer(name)
}

// MeterProvider returns the meter provider backing Summary.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes spans and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdownFuncs) - 1; i >= 0; i-- {
		if err := p.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}
