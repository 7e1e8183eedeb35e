// Package config provides domain models for engine configuration.
package config

import (
	"time"
)

// Profile names a preset of engine tuning.
type Profile string

// Known profiles.
const (
	// ProfileDuel is the melee duel with a 125ms think interval.
	ProfileDuel Profile = "duel"
	// ProfileArena is the shooter arena with a 100ms think interval.
	ProfileArena Profile = "arena"
)

// EngineConfig represents the complete engine configuration.
type EngineConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Profile selects the preset the other sections override.
	Profile Profile `json:"profile" yaml:"profile"`

	// Tick contains the planning cadence.
	Tick TickConfig `json:"tick" yaml:"tick"`
	// Oracle contains the planning oracle client settings.
	Oracle OracleConfig `json:"oracle" yaml:"oracle"`
	// Combat contains actor timings and hit resolution.
	Combat CombatConfig `json:"combat" yaml:"combat"`
	// Fallback contains the local heuristic settings.
	Fallback FallbackConfig `json:"fallback" yaml:"fallback"`
	// Patterns contains the pattern tracker settings.
	Patterns PatternConfig `json:"patterns" yaml:"patterns"`
	// Queue contains the action queue settings.
	Queue QueueConfig `json:"queue" yaml:"queue"`
	// Journal contains plan journal persistence settings.
	Journal JournalConfig `json:"journal,omitempty" yaml:"journal,omitempty"`
	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Logging contains log output settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Relay contains the oracle relay server settings.
	Relay RelayConfig `json:"relay,omitempty" yaml:"relay,omitempty"`
}

// TickConfig controls the decision loop cadence.
type TickConfig struct {
	// ThinkInterval is the time between planning cycles.
	ThinkInterval Duration `json:"think_interval" yaml:"think_interval"`
	// Grace is added to the oracle timeout before the watchdog fires.
	Grace Duration `json:"grace" yaml:"grace"`
}

// OracleConfig configures the plan request client.
type OracleConfig struct {
	// URL is the oracle endpoint. Empty disables the oracle.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Timeout is the hard round-trip budget per request.
	Timeout Duration `json:"timeout" yaml:"timeout"`
	// CircuitBreaker configures failure isolation.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AttackConfig describes one attack kind.
type AttackConfig struct {
	Windup   Duration `json:"windup" yaml:"windup"`
	Active   Duration `json:"active" yaml:"active"`
	Recovery Duration `json:"recovery" yaml:"recovery"`
	Reach    float64  `json:"reach" yaml:"reach"`
	Damage   float64  `json:"damage" yaml:"damage"`
}

// CombatConfig contains actor movement, timings and hit resolution.
type CombatConfig struct {
	Light AttackConfig `json:"light" yaml:"light"`
	Heavy AttackConfig `json:"heavy" yaml:"heavy"`

	// ParryWindow is how long an armed parry stays open.
	ParryWindow Duration `json:"parry_window" yaml:"parry_window"`
	// ParryKnockback displaces the attacker on a parry.
	ParryKnockback float64 `json:"parry_knockback" yaml:"parry_knockback"`
	// HitPush displaces the defender on a hit.
	HitPush float64 `json:"hit_push" yaml:"hit_push"`

	// MoveSpeed is the walking speed in units per second.
	MoveSpeed float64 `json:"move_speed" yaml:"move_speed"`
	// DashSpeed is the dash speed in units per second.
	DashSpeed float64 `json:"dash_speed" yaml:"dash_speed"`
	// DashDuration is how long a dash lasts.
	DashDuration Duration `json:"dash_duration" yaml:"dash_duration"`
}

// FallbackConfig tunes the local heuristic planner.
type FallbackConfig struct {
	// Spacing is the preferred separation.
	Spacing float64 `json:"spacing" yaml:"spacing"`
	// NearBand is how far inside Spacing the NPC tolerates before backing off.
	NearBand float64 `json:"near_band" yaml:"near_band"`
	// FarBand is how far outside Spacing the NPC tolerates before closing in.
	FarBand float64 `json:"far_band" yaml:"far_band"`
	// Step is the normalized micro step size.
	Step float64 `json:"step" yaml:"step"`
	// StepDuration is the duration of the micro step.
	StepDuration Duration `json:"step_duration" yaml:"step_duration"`
	// StrikeRange is the separation under which a light strike is planned.
	StrikeRange float64 `json:"strike_range" yaml:"strike_range"`
	// StrikeDelay is the delay of the planned strike.
	StrikeDelay Duration `json:"strike_delay" yaml:"strike_delay"`
	// ParryDelay is the delay of the parry planned against a windup.
	ParryDelay Duration `json:"parry_delay" yaml:"parry_delay"`
	// AdaptConfidence is the attack-range confidence that widens spacing.
	AdaptConfidence float64 `json:"adapt_confidence" yaml:"adapt_confidence"`
	// AdaptCap bounds how far spacing may widen.
	AdaptCap float64 `json:"adapt_cap" yaml:"adapt_cap"`
}

// PatternConfig tunes the pattern tracker.
type PatternConfig struct {
	Window         int      `json:"window" yaml:"window"`
	Horizon        Duration `json:"horizon" yaml:"horizon"`
	FullConfidence int      `json:"full_confidence" yaml:"full_confidence"`
}

// QueueConfig tunes the action queue.
type QueueConfig struct {
	StepScale float64  `json:"step_scale" yaml:"step_scale"`
	Horizon   Duration `json:"horizon" yaml:"horizon"`
}

// JournalConfig configures plan journal persistence.
type JournalConfig struct {
	// Backend is memory, sqlite, redis or empty for none.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DSN is the SQLite data source name.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Addr is the Redis address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Password is the Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// TTL expires a Redis session journal after its last write.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// Buffer is the capacity of the asynchronous write queue.
	Buffer int `json:"buffer,omitempty" yaml:"buffer,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Tracing enables span export.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Exporter is stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// SampleRate is the trace sampling ratio.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// RelayConfig configures the oracle relay server.
type RelayConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Provider is openai, cerebras, anthropic or ollama.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Model is the provider model name.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// APIKey authenticates with the provider. Empty means heuristic only.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// MaxTokens caps the completion length.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// Timeout bounds a provider call.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// RateLimit is requests per second per client address.
	RateLimit int `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// Burst is the rate limit burst size.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`
	// RetryAttempts is the number of provider attempts.
	RetryAttempts int `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
}

// DefaultEngineConfig returns the duel profile.
func DefaultEngineConfig() *EngineConfig {
	cfg, _ := ProfileConfig(ProfileDuel)
	return cfg
}

// ProfileConfig returns the preset for a profile.
func ProfileConfig(p Profile) (*EngineConfig, error) {
	cfg := &EngineConfig{
		Name:    "duelist",
		Profile: ProfileDuel,
		Tick: TickConfig{
			ThinkInterval: Duration(125 * time.Millisecond),
			Grace:         Duration(50 * time.Millisecond),
		},
		Oracle: OracleConfig{
			Timeout: Duration(300 * time.Millisecond),
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:   true,
				Threshold: 5,
				Timeout:   Duration(2 * time.Second),
			},
		},
		Combat: CombatConfig{
			Light: AttackConfig{
				Windup:   Duration(120 * time.Millisecond),
				Active:   Duration(60 * time.Millisecond),
				Recovery: Duration(140 * time.Millisecond),
				Reach:    80,
				Damage:   8,
			},
			Heavy: AttackConfig{
				Windup:   Duration(300 * time.Millisecond),
				Active:   Duration(100 * time.Millisecond),
				Recovery: Duration(220 * time.Millisecond),
				Reach:    120,
				Damage:   20,
			},
			ParryWindow:    Duration(120 * time.Millisecond),
			ParryKnockback: 20,
			HitPush:        24,
			MoveSpeed:      180,
			DashSpeed:      380,
			DashDuration:   Duration(100 * time.Millisecond),
		},
		Fallback: FallbackConfig{
			Spacing:         120,
			NearBand:        10,
			FarBand:         20,
			Step:            0.6,
			StepDuration:    Duration(120 * time.Millisecond),
			StrikeRange:     110,
			StrikeDelay:     Duration(160 * time.Millisecond),
			ParryDelay:      Duration(120 * time.Millisecond),
			AdaptConfidence: 0.6,
			AdaptCap:        40,
		},
		Patterns: PatternConfig{
			Window:         5,
			Horizon:        Duration(10 * time.Second),
			FullConfidence: 5,
		},
		Queue: QueueConfig{
			StepScale: 140,
			Horizon:   Duration(800 * time.Millisecond),
		},
		Journal: JournalConfig{
			Buffer: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Relay: RelayConfig{
			Addr:          ":8787",
			Provider:      "openai",
			Temperature:   0.4,
			MaxTokens:     512,
			Timeout:       Duration(250 * time.Millisecond),
			RateLimit:     20,
			Burst:         10,
			RetryAttempts: 1,
		},
	}

	switch p {
	case ProfileDuel, "":
	case ProfileArena:
		cfg.Profile = ProfileArena
		cfg.Tick.ThinkInterval = Duration(100 * time.Millisecond)
	default:
		return nil, ErrUnknownProfile
	}
	return cfg, nil
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
