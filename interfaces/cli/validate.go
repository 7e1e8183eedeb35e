package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate an engine configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - The selected profile
  - Timings, bands and budgets
  - Journal, telemetry and relay settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  duelist validate -c duel.yaml

  # Strict validation (fail on missing env vars)
  duelist validate -c duel.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, "", opts.strict)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Profile: %s\n", cfg.Profile)

	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Think interval: %s\n", cfg.Tick.ThinkInterval.Duration())
	_, _ = fmt.Fprintf(a.stdout, "  Oracle budget: %s (+%s grace)\n", cfg.Oracle.Timeout.Duration(), cfg.Tick.Grace.Duration())
	if cfg.Oracle.URL != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Oracle: %s\n", cfg.Oracle.URL)
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Oracle: none (fallback only)\n")
	}
	if cfg.Oracle.CircuitBreaker.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Circuit breaker: enabled (threshold=%d, timeout=%s)\n",
			cfg.Oracle.CircuitBreaker.Threshold, cfg.Oracle.CircuitBreaker.Timeout.Duration())
	}
	if cfg.Journal.Backend != "" && cfg.Journal.Backend != "none" {
		_, _ = fmt.Fprintf(a.stdout, "  Journal: %s\n", cfg.Journal.Backend)
	}
	if cfg.Telemetry.Tracing {
		_, _ = fmt.Fprintf(a.stdout, "  Tracing: %s\n", cfg.Telemetry.Exporter)
	}

	return nil
}
