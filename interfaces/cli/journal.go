package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/domain/plan"
)

// journalOptions holds options for the journal command.
type journalOptions struct {
	configPath string
	session    string
	limit      int
	outputJSON bool
}

// newJournalCmd creates the journal command.
func (a *App) newJournalCmd() *cobra.Command {
	opts := &journalOptions{}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the planning cycles of a session",
		Long: `Show the journal entries a session recorded in the configured
persistent backend (sqlite or redis).

Examples:
  # Last 20 cycles of a session
  duelist journal -c duel.yaml --session 6f1c... --limit 20

  # Entries as JSON
  duelist journal -c duel.yaml --session 6f1c... --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showJournal(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().StringVar(&opts.session, "session", "", "Session id (required)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show only the most recent entries")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Output as JSON")

	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func (a *App) showJournal(ctx context.Context, opts *journalOptions) error {
	cfg, err := loadConfig(opts.configPath, "", false)
	if err != nil {
		return err
	}
	switch cfg.Journal.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("journal backend %q is not persistent", cfg.Journal.Backend)
	}

	store, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx, opts.session, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to list journal: %w", err)
	}

	if opts.outputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "No entries for session %s.\n", opts.session)
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("#%-5d %-9s %-10s %8s", e.Cycle, e.Source, e.Outcome, e.Latency.Round(time.Millisecond))
		if e.Rationale != "" {
			line += "  " + e.Rationale
		}
		if e.Failure != "" {
			line += "  (" + e.Failure + ")"
		}
		_, _ = fmt.Fprintln(a.stdout, line)
	}

	stats := journal.Summarize(entries)
	_, _ = fmt.Fprintf(a.stdout, "\n%d cycles: %d oracle, %d fallback, %d stale\n",
		stats.Cycles, stats.BySource[plan.SourceOracle], stats.BySource[plan.SourceFallback], stats.Stale)
	return nil
}
