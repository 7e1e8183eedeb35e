package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates engine configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *EngineConfig) ValidationErrors {
	v.errors = nil

	v.validateProfile(config)
	v.validateTick(config)
	v.validateOracle(config)
	v.validateCombat(config)
	v.validateFallback(config)
	v.validatePatterns(config)
	v.validateQueue(config)
	v.validateJournal(config)
	v.validateTelemetry(config)
	v.validateRelay(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) positive(path string, value float64) {
	if value <= 0 {
		v.addError(path, "must be positive")
	}
}

func (v *Validator) validateProfile(config *EngineConfig) {
	switch config.Profile {
	case ProfileDuel, ProfileArena, "":
	default:
		v.addError("profile", fmt.Sprintf("invalid profile: %s", config.Profile))
	}
}

func (v *Validator) validateTick(config *EngineConfig) {
	if config.Tick.ThinkInterval.Duration() <= 0 {
		v.addError("tick.think_interval", "think_interval must be positive")
	}
	if config.Tick.Grace.Duration() < 0 {
		v.addError("tick.grace", "grace must be non-negative")
	}
}

func (v *Validator) validateOracle(config *EngineConfig) {
	if config.Oracle.Timeout.Duration() <= 0 {
		v.addError("oracle.timeout", "timeout must be positive")
	}
	if config.Oracle.URL != "" &&
		!strings.HasPrefix(config.Oracle.URL, "http://") &&
		!strings.HasPrefix(config.Oracle.URL, "https://") {
		v.addError("oracle.url", fmt.Sprintf("unsupported scheme: %s", config.Oracle.URL))
	}

	cb := config.Oracle.CircuitBreaker
	if cb.Enabled {
		if cb.Threshold <= 0 {
			v.addError("oracle.circuit_breaker.threshold", "threshold must be positive when enabled")
		}
		if cb.Timeout.Duration() <= 0 {
			v.addError("oracle.circuit_breaker.timeout", "timeout must be positive when enabled")
		}
	}
}

func (v *Validator) validateAttack(path string, a AttackConfig) {
	if a.Windup.Duration() <= 0 {
		v.addError(path+".windup", "windup must be positive")
	}
	if a.Active.Duration() <= 0 {
		v.addError(path+".active", "active must be positive")
	}
	if a.Recovery.Duration() <= 0 {
		v.addError(path+".recovery", "recovery must be positive")
	}
	v.positive(path+".reach", a.Reach)
	if a.Damage < 0 {
		v.addError(path+".damage", "damage must be non-negative")
	}
}

func (v *Validator) validateCombat(config *EngineConfig) {
	c := config.Combat
	v.validateAttack("combat.light", c.Light)
	v.validateAttack("combat.heavy", c.Heavy)

	if c.ParryWindow.Duration() <= 0 {
		v.addError("combat.parry_window", "parry_window must be positive")
	}
	if c.ParryKnockback < 0 {
		v.addError("combat.parry_knockback", "parry_knockback must be non-negative")
	}
	if c.HitPush < 0 {
		v.addError("combat.hit_push", "hit_push must be non-negative")
	}
	v.positive("combat.move_speed", c.MoveSpeed)
	v.positive("combat.dash_speed", c.DashSpeed)
	if c.DashDuration.Duration() <= 0 {
		v.addError("combat.dash_duration", "dash_duration must be positive")
	}
}

func (v *Validator) validateFallback(config *EngineConfig) {
	f := config.Fallback
	v.positive("fallback.spacing", f.Spacing)
	if f.NearBand < 0 || f.NearBand >= f.Spacing {
		v.addError("fallback.near_band", "near_band must be in [0, spacing)")
	}
	if f.FarBand < 0 {
		v.addError("fallback.far_band", "far_band must be non-negative")
	}
	if f.Step <= 0 || f.Step > 1 {
		v.addError("fallback.step", "step must be in (0, 1]")
	}
	if f.StepDuration.Duration() <= 0 {
		v.addError("fallback.step_duration", "step_duration must be positive")
	}
	v.positive("fallback.strike_range", f.StrikeRange)
	if f.StrikeDelay.Duration() < 0 {
		v.addError("fallback.strike_delay", "strike_delay must be non-negative")
	}
	if f.ParryDelay.Duration() < 0 {
		v.addError("fallback.parry_delay", "parry_delay must be non-negative")
	}
	if f.AdaptConfidence < 0 || f.AdaptConfidence > 1 {
		v.addError("fallback.adapt_confidence", "adapt_confidence must be in [0, 1]")
	}
	if f.AdaptCap < 0 {
		v.addError("fallback.adapt_cap", "adapt_cap must be non-negative")
	}
}

func (v *Validator) validatePatterns(config *EngineConfig) {
	p := config.Patterns
	if p.Window <= 0 {
		v.addError("patterns.window", "window must be positive")
	}
	if p.Horizon.Duration() <= 0 {
		v.addError("patterns.horizon", "horizon must be positive")
	}
	if p.FullConfidence <= 0 {
		v.addError("patterns.full_confidence", "full_confidence must be positive")
	}
}

func (v *Validator) validateQueue(config *EngineConfig) {
	v.positive("queue.step_scale", config.Queue.StepScale)
	if config.Queue.Horizon.Duration() <= 0 {
		v.addError("queue.horizon", "horizon must be positive")
	}
}

func (v *Validator) validateJournal(config *EngineConfig) {
	j := config.Journal
	switch j.Backend {
	case "", "none", "memory":
	case "sqlite":
		if j.DSN == "" {
			v.addError("journal.dsn", "dsn is required for sqlite backend")
		}
	case "redis":
		if j.Addr == "" {
			v.addError("journal.addr", "addr is required for redis backend")
		}
	default:
		v.addError("journal.backend", fmt.Sprintf("unknown backend: %s", j.Backend))
	}
	if j.Buffer < 0 {
		v.addError("journal.buffer", "buffer must be non-negative")
	}
	if j.TTL.Duration() < 0 {
		v.addError("journal.ttl", "ttl must be non-negative")
	}
}

func (v *Validator) validateTelemetry(config *EngineConfig) {
	t := config.Telemetry
	if !t.Tracing {
		return
	}
	switch t.Exporter {
	case "", "stdout":
	case "otlp":
		if t.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("telemetry.sample_rate", "sample_rate must be in [0, 1]")
	}
}

func (v *Validator) validateRelay(config *EngineConfig) {
	r := config.Relay
	switch strings.ToLower(r.Provider) {
	case "", "openai", "cerebras", "anthropic", "ollama":
	default:
		v.addError("relay.provider", fmt.Sprintf("unknown provider: %s", r.Provider))
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		v.addError("relay.temperature", "temperature must be in [0, 2]")
	}
	if r.MaxTokens < 0 {
		v.addError("relay.max_tokens", "max_tokens must be non-negative")
	}
	if r.RateLimit < 0 || r.Burst < 0 {
		v.addError("relay.rate_limit", "rate_limit and burst must be non-negative")
	}
	if r.RetryAttempts < 0 {
		v.addError("relay.retry_attempts", "retry_attempts must be non-negative")
	}
}
