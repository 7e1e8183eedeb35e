package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist/domain/config"
	cfgloader "github.com/felixgeelhaar/duelist/infrastructure/config"
)

// newProfilesCmd creates the profiles command.
func (a *App) newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List tuning profiles",
		Long: `List the built-in tuning profiles. A configuration file selects one with
"profile:" and overrides only the fields it names.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range []config.Profile{config.ProfileDuel, config.ProfileArena} {
				cfg, err := config.ProfileConfig(p)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, "%-6s think every %s, oracle budget %s, spacing %.0f\n",
					p, cfg.Tick.ThinkInterval.Duration(), cfg.Oracle.Timeout.Duration(), cfg.Fallback.Spacing)
			}
			return nil
		},
	}
}

// defaultsOptions holds options for the defaults command.
type defaultsOptions struct {
	profile    string
	format     string
	outputPath string
}

// newDefaultsCmd creates the defaults command.
func (a *App) newDefaultsCmd() *cobra.Command {
	opts := &defaultsOptions{}

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print a profile's full configuration",
		Long: `Print every field of a profile preset as a starting point for a
configuration file.

Examples:
  # Print the duel preset as YAML
  duelist defaults

  # Write the arena preset as JSON
  duelist defaults --profile arena -o arena.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeDefaults(opts)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", string(config.ProfileDuel), "Profile preset")
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "Output format when writing to stdout (yaml or json)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

func (a *App) writeDefaults(opts *defaultsOptions) error {
	cfg, err := config.ProfileConfig(config.Profile(opts.profile))
	if err != nil {
		return err
	}

	if opts.outputPath != "" {
		if err := cfgloader.Save(opts.outputPath, cfg); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
		_, _ = fmt.Fprintf(a.stdout, "Configuration written to %s\n", opts.outputPath)
		return nil
	}
	return cfgloader.Encode(a.stdout, cfg, cfgloader.Format(opts.format))
}
