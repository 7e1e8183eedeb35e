// Package cli provides the duelist command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/duelist"
	"github.com/felixgeelhaar/duelist/domain/config"
	cfgloader "github.com/felixgeelhaar/duelist/infrastructure/config"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

// Version information set at build time.
var (
	Version   = duelist.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "duelist",
		Short: "Real-time action orchestration for a duelling NPC",
		Long: `duelist drives a non-player combatant in a real-time duel. A slow
planning oracle is asked for a plan on a fixed cadence while a local
heuristic guarantees a plan is always applied on time.

Commands run a headless duel, serve the planning relay, and validate or
inspect engine configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newInspectCmd(),
		app.newProfilesCmd(),
		app.newDefaultsCmd(),
		app.newServeCmd(),
		app.newSimulateCmd(),
		app.newJournalCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "duelist version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

// loadConfig reads the configuration file, or the named profile preset
// when no file is given.
func loadConfig(path, profile string, strict bool) (*config.EngineConfig, error) {
	if path == "" {
		if profile == "" {
			return config.DefaultEngineConfig(), nil
		}
		return config.ProfileConfig(config.Profile(profile))
	}

	loader := cfgloader.NewLoaderWithOptions(cfgloader.WithStrictEnv(strict))
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initLogging sends engine logs to stderr so command output stays clean.
func (a *App) initLogging(cfg config.LoggingConfig, verbose bool) {
	lc := logging.ConfigFrom(cfg, verbose)
	lc.Output = a.stderr
	logging.Init(lc)
}
