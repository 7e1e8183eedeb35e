// Package resilience guards oracle calls with fortify bulkhead, circuit
// breaker and retry.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

// ErrCircuitOpen indicates the call was skipped because the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config tunes an Executor.
type Config struct {
	// InFlight is the number of calls admitted at once.
	InFlight int

	// Budget bounds each call, retries included. Zero means unbounded.
	Budget time.Duration

	// Breaker enables the circuit breaker.
	Breaker bool

	// BreakerThreshold is the run of consecutive failures that opens it.
	BreakerThreshold int

	// BreakerCooldown is how long it stays open before probing again.
	BreakerCooldown time.Duration

	// Attempts is the total number of tries. One disables retry.
	Attempts int

	// RetryDelay is the wait before the first retry; later waits double.
	RetryDelay time.Duration
}

// OracleConfig returns the settings of the engine's planning client: one
// call in flight, no retry, and a breaker so a dead oracle is skipped.
func OracleConfig(budget time.Duration) Config {
	return Config{
		InFlight:         1,
		Budget:           budget,
		Breaker:          true,
		BreakerThreshold: 5,
		BreakerCooldown:  2 * time.Second,
		Attempts:         1,
		RetryDelay:       20 * time.Millisecond,
	}
}

// RelayConfig returns the settings of the relay's completion calls. Many
// clients share the relay, so there is no breaker; transient provider
// errors are retried inside the budget.
func RelayConfig(budget time.Duration, attempts int) Config {
	return Config{
		InFlight:   64,
		Budget:     budget,
		Attempts:   attempts,
		RetryDelay: 10 * time.Millisecond,
	}
}

// Executor runs calls under the configured guards.
type Executor[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	breaker  circuitbreaker.CircuitBreaker[T]
	retry    retry.Retry[T]
	config   Config
}

// NewExecutor creates an executor. Non-positive counts fall back to the
// oracle defaults.
func NewExecutor[T any](config Config) *Executor[T] {
	defaults := OracleConfig(config.Budget)
	if config.InFlight <= 0 {
		config.InFlight = defaults.InFlight
	}
	if config.BreakerThreshold <= 0 {
		config.BreakerThreshold = defaults.BreakerThreshold
	}
	if config.BreakerCooldown <= 0 {
		config.BreakerCooldown = defaults.BreakerCooldown
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	threshold := uint32(config.BreakerThreshold) // #nosec G115 -- positive, checked above

	return &Executor[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: config.InFlight,
		}),
		breaker: circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.BreakerCooldown,
			Timeout:     config.BreakerCooldown,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
		retry: retry.New[T](retry.Config{
			MaxAttempts:        config.Attempts,
			InitialDelay:       config.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         2.0,
			NonRetryableErrors: []error{context.Canceled, context.DeadlineExceeded},
			OnRetry: func(attempt int, err error) {
				logging.Debug().
					Add(logging.Int("attempt", attempt)).
					Add(logging.ErrorField(err)).
					Msg("retrying oracle call")
			},
		}),
		config: config,
	}
}

// NewExecutorWithOptions creates an executor from OracleConfig(0) and opts.
func NewExecutorWithOptions[T any](opts ...Option) *Executor[T] {
	config := OracleConfig(0)
	for _, opt := range opts {
		opt(&config)
	}
	return NewExecutor[T](config)
}

// Config returns the effective configuration.
func (e *Executor[T]) Config() Config {
	return e.config
}

// Execute runs fn inside the bulkhead, then the budget, then the breaker,
// then retry.
func (e *Executor[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	if e.CircuitOpen() {
		var zero T
		return zero, ErrCircuitOpen
	}

	return e.bulkhead.Execute(ctx, func(ctx context.Context) (T, error) {
		if e.config.Budget > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.config.Budget)
			defer cancel()
		}

		call := fn
		if e.config.Attempts > 1 {
			call = func(ctx context.Context) (T, error) {
				return e.retry.Do(ctx, fn)
			}
		}
		if !e.config.Breaker {
			return call(ctx)
		}
		return e.breaker.Execute(ctx, call)
	})
}

// BreakerState returns the breaker's current state.
func (e *Executor[T]) BreakerState() circuitbreaker.State {
	return e.breaker.State()
}

// CircuitOpen returns true while the breaker rejects calls.
func (e *Executor[T]) CircuitOpen() bool {
	return e.config.Breaker && e.breaker.State() == circuitbreaker.StateOpen
}
