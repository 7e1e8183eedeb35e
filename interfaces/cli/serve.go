package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/oracle"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
)

// serveOptions holds options for the serve command.
type serveOptions struct {
	configPath string
	profile    string
	addr       string
	cors       bool
	verbose    bool
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning relay",
		Long: `Serve the planning relay. The relay accepts a world snapshot, asks the
configured chat-completion provider for a plan and answers with the plan
text. Without an API key, or whenever the provider fails, it answers with
the local heuristic.

Routes:
  POST /duelista/act
  POST /zero-api/duelista/act
  GET  /healthz

Examples:
  # Heuristic-only relay on :8787
  duelist serve

  # Relay backed by a provider named in the config
  RELAY_API_KEY=... duelist serve -c relay.yaml --cors`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Profile preset when no file is given")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.cors, "cors", false, "Allow browser clients on other origins")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	cfg, err := loadConfig(opts.configPath, opts.profile, false)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Relay.Addr = opts.addr
	}
	a.initLogging(cfg.Logging, opts.verbose)

	obs, metrics, err := a.setupObservability(cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability(obs)

	provider, err := oracle.NewProvider(cfg.Relay)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	hc := oracle.HandlerConfig{
		Fallback:      planner.NewFallback(planner.FallbackConfigFrom(cfg.Fallback)),
		Timeout:       cfg.Relay.Timeout.Duration(),
		RetryAttempts: cfg.Relay.RetryAttempts,
		RateLimit:     cfg.Relay.RateLimit,
		Burst:         cfg.Relay.Burst,
		Metrics:       metrics,
	}
	if provider != nil {
		hc.Source = provider.Name()
		hc.Oracle = oracle.NewCompletionPlanner(oracle.CompletionPlannerConfig{
			Provider:    provider,
			Model:       cfg.Relay.Model,
			Temperature: cfg.Relay.Temperature,
			MaxTokens:   cfg.Relay.MaxTokens,
		})
	} else {
		logging.Warn().
			Add(logging.Component("relay")).
			Add(logging.Str("provider", cfg.Relay.Provider)).
			Msg("no API key, serving heuristic plans only")
	}

	server := oracle.NewServer(oracle.ServerConfig{
		Address:    cfg.Relay.Addr,
		EnableCORS: opts.cors,
	}, oracle.NewHandler(hc))

	_, _ = fmt.Fprintf(a.stdout, "Relay listening on %s\n", cfg.Relay.Addr)
	return server.ListenAndServe(ctx)
}
