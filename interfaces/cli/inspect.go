package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
)

// inspectOptions holds options for the inspect command.
type inspectOptions struct {
	configPath string
	profile    string
	outputJSON bool
	section    string
}

// newInspectCmd creates the inspect command.
func (a *App) newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect configuration details",
		Long: `Inspect and display the effective engine configuration.

Without -c the preset of --profile is shown.

Sections:
  all        Show all configuration (default)
  tick       Show planning cadence
  oracle     Show oracle budget and circuit breaker
  combat     Show attack timings and combat constants
  fallback   Show heuristic spacing and delays
  relay      Show relay server settings

Examples:
  # Inspect full configuration
  duelist inspect -c duel.yaml

  # Inspect the arena preset's combat timings
  duelist inspect --profile arena --section combat

  # Output as JSON
  duelist inspect -c duel.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspectConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Profile preset to inspect when no file is given")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.section, "section", "all", "Section to inspect (all, tick, oracle, combat, fallback, relay)")

	return cmd
}

// inspectConfig inspects the configuration.
func (a *App) inspectConfig(opts *inspectOptions) error {
	cfg, err := loadConfig(opts.configPath, opts.profile, false)
	if err != nil {
		return err
	}

	if opts.outputJSON {
		return a.inspectJSON(cfg, opts.section)
	}
	return a.inspectText(cfg, opts.section)
}

// inspectJSON outputs configuration as JSON.
func (a *App) inspectJSON(cfg *config.EngineConfig, section string) error {
	var output any

	switch section {
	case "all":
		output = cfg
	case "tick":
		output = cfg.Tick
	case "oracle":
		output = cfg.Oracle
	case "combat":
		output = cfg.Combat
	case "fallback":
		output = cfg.Fallback
	case "relay":
		relay := cfg.Relay
		if relay.APIKey != "" {
			relay.APIKey = "********"
		}
		output = relay
	default:
		return fmt.Errorf("unknown section: %s", section)
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// inspectText outputs configuration as formatted text.
func (a *App) inspectText(cfg *config.EngineConfig, section string) error {
	switch section {
	case "all":
		a.printHeader(cfg)
		a.printTickSection(cfg)
		a.printOracleSection(cfg)
		a.printCombatSection(cfg)
		a.printFallbackSection(cfg)
		a.printRelaySection(cfg)
	case "tick":
		a.printTickSection(cfg)
	case "oracle":
		a.printOracleSection(cfg)
	case "combat":
		a.printCombatSection(cfg)
	case "fallback":
		a.printFallbackSection(cfg)
	case "relay":
		a.printRelaySection(cfg)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}

	return nil
}

func (a *App) printHeader(cfg *config.EngineConfig) {
	_, _ = fmt.Fprintf(a.stdout, "Engine Configuration: %s\n", cfg.Profile)
	_, _ = fmt.Fprintf(a.stdout, "═══════════════════════════════════════\n\n")
}

func (a *App) printTickSection(cfg *config.EngineConfig) {
	_, _ = fmt.Fprintf(a.stdout, "Tick\n")
	_, _ = fmt.Fprintf(a.stdout, "  Think interval: %s\n", cfg.Tick.ThinkInterval.Duration())
	_, _ = fmt.Fprintf(a.stdout, "  Watchdog grace: %s\n\n", cfg.Tick.Grace.Duration())
}

func (a *App) printOracleSection(cfg *config.EngineConfig) {
	_, _ = fmt.Fprintf(a.stdout, "Oracle\n")
	url := cfg.Oracle.URL
	if url == "" {
		url = "(none)"
	}
	_, _ = fmt.Fprintf(a.stdout, "  URL: %s\n", url)
	_, _ = fmt.Fprintf(a.stdout, "  Budget: %s\n", cfg.Oracle.Timeout.Duration())
	cb := cfg.Oracle.CircuitBreaker
	if cb.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Circuit breaker: threshold %d, open for %s\n\n", cb.Threshold, cb.Timeout.Duration())
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Circuit breaker: disabled\n\n")
	}
}

func (a *App) printCombatSection(cfg *config.EngineConfig) {
	c := cfg.Combat
	_, _ = fmt.Fprintf(a.stdout, "Combat\n")
	for _, kind := range []combat.AttackKind{combat.AttackLight, combat.AttackHeavy} {
		atk := c.Light
		if kind == combat.AttackHeavy {
			atk = c.Heavy
		}
		_, _ = fmt.Fprintf(a.stdout, "  %-5s windup %s, active %s, recovery %s, reach %.0f, damage %.0f\n",
			kind, atk.Windup.Duration(), atk.Active.Duration(), atk.Recovery.Duration(), atk.Reach, atk.Damage)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Parry window: %s (knockback %.0f)\n", c.ParryWindow.Duration(), c.ParryKnockback)
	_, _ = fmt.Fprintf(a.stdout, "  Hit push: %.0f\n", c.HitPush)
	_, _ = fmt.Fprintf(a.stdout, "  Move speed: %.0f, dash +%.0f for %s\n\n", c.MoveSpeed, c.DashSpeed, c.DashDuration.Duration())
}

func (a *App) printFallbackSection(cfg *config.EngineConfig) {
	f := cfg.Fallback
	_, _ = fmt.Fprintf(a.stdout, "Fallback\n")
	_, _ = fmt.Fprintf(a.stdout, "  Spacing: %.0f (-%.0f/+%.0f)\n", f.Spacing, f.NearBand, f.FarBand)
	_, _ = fmt.Fprintf(a.stdout, "  Step: %.2f for %s\n", f.Step, f.StepDuration.Duration())
	_, _ = fmt.Fprintf(a.stdout, "  Strike: under %.0f after %s\n", f.StrikeRange, f.StrikeDelay.Duration())
	_, _ = fmt.Fprintf(a.stdout, "  Parry: after %s\n", f.ParryDelay.Duration())
	_, _ = fmt.Fprintf(a.stdout, "  Adaptive spacing: confidence %.2f, cap %.0f\n\n", f.AdaptConfidence, f.AdaptCap)
}

func (a *App) printRelaySection(cfg *config.EngineConfig) {
	r := cfg.Relay
	_, _ = fmt.Fprintf(a.stdout, "Relay\n")
	_, _ = fmt.Fprintf(a.stdout, "  Address: %s\n", r.Addr)
	_, _ = fmt.Fprintf(a.stdout, "  Provider: %s\n", r.Provider)
	if r.Model != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Model: %s\n", r.Model)
	}
	if r.APIKey == "" {
		_, _ = fmt.Fprintf(a.stdout, "  API key: not set (heuristic only)\n")
	}
	_, _ = fmt.Fprintf(a.stdout, "  Timeout: %s, attempts %d\n", r.Timeout.Duration(), r.RetryAttempts)
	if r.RateLimit > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Rate limit: %d/s (burst %d)\n", r.RateLimit, r.Burst)
	}
}
