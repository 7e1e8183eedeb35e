package resilience

import (
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opt   Option
		check func(Config) bool
	}{
		{"in flight", WithInFlight(4), func(c Config) bool { return c.InFlight == 4 }},
		{"budget", WithBudget(250 * time.Millisecond), func(c Config) bool { return c.Budget == 250*time.Millisecond }},
		{"breaker", WithBreaker(10, time.Minute), func(c Config) bool {
			return c.Breaker && c.BreakerThreshold == 10 && c.BreakerCooldown == time.Minute
		}},
		{"no breaker", WithoutBreaker(), func(c Config) bool { return !c.Breaker }},
		{"retry", WithRetry(5, time.Second), func(c Config) bool { return c.Attempts == 5 && c.RetryDelay == time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := OracleConfig(time.Second)
			tt.opt(&config)
			if !tt.check(config) {
				t.Errorf("option %s not applied: %+v", tt.name, config)
			}
		})
	}
}

func TestRelayConfig(t *testing.T) {
	t.Parallel()

	config := RelayConfig(time.Second, 3)
	if config.Breaker {
		t.Error("relay config enables the breaker")
	}
	if config.Attempts != 3 || config.InFlight != 64 || config.Budget != time.Second {
		t.Errorf("RelayConfig() = %+v", config)
	}
}
