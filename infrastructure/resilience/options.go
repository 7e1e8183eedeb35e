package resilience

import "time"

// Option adjusts an executor Config.
type Option func(*Config)

// WithInFlight sets how many calls run at once.
func WithInFlight(n int) Option {
	return func(c *Config) {
		c.InFlight = n
	}
}

// WithBudget bounds each call.
func WithBudget(d time.Duration) Option {
	return func(c *Config) {
		c.Budget = d
	}
}

// WithBreaker enables the breaker. It opens after threshold consecutive
// failures and probes again after cooldown.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(c *Config) {
		c.Breaker = true
		c.BreakerThreshold = threshold
		c.BreakerCooldown = cooldown
	}
}

// WithoutBreaker disables the breaker.
func WithoutBreaker() Option {
	return func(c *Config) {
		c.Breaker = false
	}
}

// WithRetry retries failed calls up to attempts tries in total.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		c.Attempts = attempts
		c.RetryDelay = delay
	}
}
