package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist/application"
	"github.com/felixgeelhaar/duelist/domain/combat"
	"github.com/felixgeelhaar/duelist/domain/config"
	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/infrastructure/arena"
	cfgloader "github.com/felixgeelhaar/duelist/infrastructure/config"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
)

// simulateOptions holds options for the simulate command.
type simulateOptions struct {
	configPath  string
	profile     string
	oracleURL   string
	duration    time.Duration
	fps         int
	seed        int64
	realtime    bool
	watch       bool
	verbose     bool
	jsonOutput  bool
	showMetrics bool
}

// newSimulateCmd creates the simulate command.
func (a *App) newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a headless duel",
		Long: `Run a headless duel between a scripted player and the NPC.

Without an oracle the duel runs on a simulated clock as fast as possible
and every plan comes from the local heuristic. With --oracle (or
oracle.url in the config) the duel runs in real time so the oracle
budget means what it says.

Examples:
  # Ten simulated seconds, heuristic only
  duelist simulate

  # Thirty seconds against a running relay
  duelist simulate --oracle http://localhost:8787/duelista/act --duration 30s

  # Reload tuning while the duel runs
  duelist simulate -c duel.yaml --realtime --watch --duration 2m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.simulate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Profile preset when no file is given")
	cmd.Flags().StringVar(&opts.oracleURL, "oracle", "", "Oracle URL (overrides config)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "Duel length")
	cmd.Flags().IntVar(&opts.fps, "fps", 60, "Frames per second")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "Pilot random seed")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Pace frames with the wall clock")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Apply configuration file changes while running")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print every applied plan")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&opts.showMetrics, "metrics", false, "Print collected metrics")

	return cmd
}

// simReport is the outcome of a simulated duel.
type simReport struct {
	Session        string                 `json:"session"`
	Profile        config.Profile         `json:"profile"`
	Duration       string                 `json:"duration"`
	Frames         uint64                 `json:"frames"`
	Cycles         uint64                 `json:"cycles"`
	OraclePlans    uint64                 `json:"oracle_plans"`
	FallbackPlans  uint64                 `json:"fallback_plans"`
	Failures       uint64                 `json:"failures"`
	Superseded     uint64                 `json:"superseded"`
	Stale          uint64                 `json:"stale"`
	Evictions      uint64                 `json:"evictions"`
	Knockouts      map[combat.ActorID]int `json:"knockouts"`
	Resolutions    map[string]int         `json:"resolutions"`
	PlayerHealth   float64                `json:"player_health"`
	NPCHealth      float64                `json:"npc_health"`
	JournalDropped uint64                 `json:"journal_dropped,omitempty"`
}

// planPrinter prints applied plans when verbose.
type planPrinter struct {
	application.NoopNotifier
	w     io.Writer
	start time.Time
	now   func() time.Time
	res   map[string]int
}

func (p *planPrinter) PlanApplied(pl plan.Plan) {
	if p.w == nil {
		return
	}
	_, _ = fmt.Fprintf(p.w, "[%7.3fs] %-8s %s\n", p.now().Sub(p.start).Seconds(), pl.Source, plan.Encode(pl))
}

func (p *planPrinter) Resolved(r combat.Resolution) {
	p.res[string(r.Attacker)+" "+string(r.Kind)+" "+string(r.Outcome)]++
}

func (a *App) simulate(ctx context.Context, opts *simulateOptions) error {
	if opts.fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	if opts.watch && opts.configPath == "" {
		return fmt.Errorf("--watch needs a configuration file (-c flag)")
	}

	cfg, err := loadConfig(opts.configPath, opts.profile, false)
	if err != nil {
		return err
	}
	if opts.oracleURL != "" {
		cfg.Oracle.URL = opts.oracleURL
	}
	a.initLogging(cfg.Logging, false)

	obs, metrics, err := a.setupObservability(cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability(obs)

	store, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	realtime := opts.realtime
	var oracle planner.Oracle
	if cfg.Oracle.URL != "" {
		client, err := planner.NewClient(planner.ClientConfig{
			URL:              cfg.Oracle.URL,
			Timeout:          cfg.Oracle.Timeout.Duration(),
			CircuitBreaker:   cfg.Oracle.CircuitBreaker.Enabled,
			BreakerThreshold: cfg.Oracle.CircuitBreaker.Threshold,
			BreakerTimeout:   cfg.Oracle.CircuitBreaker.Timeout.Duration(),
		})
		if err != nil {
			return fmt.Errorf("failed to create oracle client: %w", err)
		}
		oracle = client
		realtime = true
	}

	world := arena.NewWorld()
	pilotCfg := arena.DefaultPilotConfig()
	pilotCfg.Seed = opts.seed
	if cfg.Profile == config.ProfileArena {
		pilotCfg.ShootChance = 0.4
	}
	pilot := arena.NewPilot(pilotCfg)

	var now time.Time
	printer := &planPrinter{now: func() time.Time { return now }, res: make(map[string]int)}
	if opts.verbose {
		printer.w = a.stdout
	}

	engineOpts := []application.Option{
		application.WithWorld(world),
		application.WithTuning(cfg),
		application.WithNotifier(printer),
		application.WithMetrics(metrics),
		application.WithTracer(obs.Tracer("github.com/felixgeelhaar/duelist/application")),
	}
	if oracle != nil {
		engineOpts = append(engineOpts, application.WithOracle(oracle))
	}
	if store != nil {
		engineOpts = append(engineOpts, application.WithJournal(store))
	}
	engine, err := application.NewEngineWithOptions(engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.watch {
		loader := cfgloader.NewLoader()
		watcher := cfgloader.NewWatcher(opts.configPath, loader, func(next *config.EngineConfig) {
			if err := engine.Reconfigure(next); err != nil {
				logging.Warn().Add(logging.ErrorField(err)).Msg("tuning rejected")
			}
		})
		go func() { _ = watcher.Run(runCtx) }()
	}

	report := simReport{
		Profile:   cfg.Profile,
		Knockouts: make(map[combat.ActorID]int),
	}
	var totals application.Stats

	frame := time.Second / time.Duration(opts.fps)
	start := time.Now()
	now = start
	printer.start = start
	end := start.Add(opts.duration)

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(frame)
		defer ticker.Stop()
	}

loop:
	for now.Before(end) {
		engine.Tick(now, pilot.Next(now, world))
		world.Step(frame)

		for _, id := range []combat.ActorID{combat.ActorPlayer, combat.ActorNPC} {
			if engine.Actor(id).Gauges.Health > 0 {
				continue
			}
			report.Knockouts[id]++
			addStats(&totals, engine.Stats())
			world.Reset()
			if err := engine.Reset(now); err != nil {
				return err
			}
			break
		}

		if !realtime {
			now = now.Add(frame)
			if runCtx.Err() != nil {
				break
			}
			continue
		}
		select {
		case <-runCtx.Done():
			break loop
		case t := <-ticker.C:
			now = t
		}
	}

	cancel()
	if err := engine.Close(); err != nil {
		return err
	}
	addStats(&totals, engine.Stats())

	report.Session = engine.Session()
	report.Duration = now.Sub(start).Round(time.Millisecond).String()
	report.Frames = totals.Frames
	report.Cycles = totals.Cycles
	report.OraclePlans = totals.OraclePlans
	report.FallbackPlans = totals.FallbackPlans
	report.Failures = totals.Failures
	report.Superseded = totals.Superseded
	report.Stale = totals.Stale
	report.Evictions = totals.Evictions
	report.JournalDropped = totals.JournalDropped
	report.Resolutions = printer.res
	report.PlayerHealth = engine.Actor(combat.ActorPlayer).Gauges.Health
	report.NPCHealth = engine.Actor(combat.ActorNPC).Gauges.Health

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		a.printReport(report)
	}

	if opts.showMetrics {
		summary, err := obs.Summary(ctx)
		if err != nil {
			return fmt.Errorf("failed to collect metrics: %w", err)
		}
		_, _ = fmt.Fprintf(a.stdout, "\nMetrics\n")
		_, _ = summary.WriteTo(a.stdout)
	}
	return nil
}

func addStats(total *application.Stats, s application.Stats) {
	total.Frames += s.Frames
	total.Cycles += s.Cycles
	total.OraclePlans += s.OraclePlans
	total.FallbackPlans += s.FallbackPlans
	total.Failures += s.Failures
	total.Superseded += s.Superseded
	total.Stale += s.Stale
	total.Evictions += s.Evictions
	total.JournalDropped = s.JournalDropped
}

func (a *App) printReport(r simReport) {
	_, _ = fmt.Fprintf(a.stdout, "Duel finished\n")
	_, _ = fmt.Fprintf(a.stdout, "  Session: %s\n", r.Session)
	_, _ = fmt.Fprintf(a.stdout, "  Profile: %s\n", r.Profile)
	_, _ = fmt.Fprintf(a.stdout, "  Duration: %s (%d frames)\n", r.Duration, r.Frames)
	_, _ = fmt.Fprintf(a.stdout, "  Plans: %d (%d oracle, %d fallback)\n", r.Cycles, r.OraclePlans, r.FallbackPlans)
	if r.Failures > 0 || r.Stale > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  Oracle failures: %d (%d superseded, %d stale)\n", r.Failures, r.Superseded, r.Stale)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Knockouts: player %d, npc %d\n", r.Knockouts[combat.ActorPlayer], r.Knockouts[combat.ActorNPC])
	_, _ = fmt.Fprintf(a.stdout, "  Health: player %.0f, npc %.0f\n", r.PlayerHealth, r.NPCHealth)
	for _, key := range slices.Sorted(maps.Keys(r.Resolutions)) {
		_, _ = fmt.Fprintf(a.stdout, "    %-22s %d\n", key, r.Resolutions[key])
	}
}
