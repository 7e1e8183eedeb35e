package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/infrastructure/observability"
	"github.com/felixgeelhaar/duelist/infrastructure/storage/memory"
	"github.com/felixgeelhaar/duelist/infrastructure/storage/redis"
	"github.com/felixgeelhaar/duelist/infrastructure/storage/sqlite"
	"github.com/felixgeelhaar/duelist/infrastructure/telemetry"
)

// setupObservability builds the tracer and meter providers for a command.
// Stdout spans go to stderr so command output stays parseable.
func (a *App) setupObservability(cfg *config.EngineConfig) (*observability.Provider, telemetry.Metrics, error) {
	oc := observability.ConfigFrom(cfg, Version)
	if oc.Tracing.Exporter == observability.ExporterStdout {
		oc.Tracing.Writer = a.stderr
	}

	provider, err := observability.New(observability.WithConfig(oc))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	provider.Install()

	metrics := telemetry.NewMetricsProvider(telemetry.MetricsConfig{
		MeterName:     telemetry.DefaultMetricsConfig().MeterName,
		MeterVersion:  Version,
		MeterProvider: provider.MeterProvider(),
	})
	return provider, metrics, nil
}

func shutdownObservability(provider *observability.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = provider.Shutdown(ctx)
}

// openJournal opens the configured journal backend. It returns nil when
// journaling is disabled.
func openJournal(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.NewJournalStore(), nil
	case "sqlite":
		store, err := sqlite.NewJournalStore(sqlite.ConfigFrom(cfg))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		store, err := redis.NewJournalStore(redis.ConfigFrom(cfg))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown journal backend: %s", cfg.Backend)
	}
}
