package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/resilience"
)

const maxResponseBytes = 64 << 10

// ClientConfig configures the oracle client.
type ClientConfig struct {
	// URL is the oracle endpoint receiving the snapshot.
	URL string

	// Timeout is the hard round-trip budget (default: 300ms).
	Timeout time.Duration

	// CircuitBreaker enables skipping the oracle after repeated failures.
	CircuitBreaker bool

	// BreakerThreshold is consecutive failures before the breaker opens.
	BreakerThreshold int

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// HTTPClient overrides the transport. Its own timeout is ignored in
	// favor of Timeout.
	HTTPClient *http.Client
}

// DefaultClientConfig returns a 300ms budget with the breaker enabled.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:              url,
		Timeout:          300 * time.Millisecond,
		CircuitBreaker:   true,
		BreakerThreshold: 5,
		BreakerTimeout:   2 * time.Second,
	}
}

// Client posts snapshots to the planning oracle and decodes its plans.
type Client struct {
	url      string
	timeout  time.Duration
	http     *http.Client
	executor *resilience.Executor[plan.Plan]
	tracer   trace.Tracer
}

// NewClient creates an oracle client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig(cfg.URL).Timeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []resilience.Option{resilience.WithBudget(cfg.Timeout), resilience.WithoutBreaker()}
	if cfg.CircuitBreaker {
		opts = append(opts, resilience.WithBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout))
	}
	executor := resilience.NewExecutorWithOptions[plan.Plan](opts...)

	return &Client{
		url:      cfg.URL,
		timeout:  cfg.Timeout,
		http:     httpClient,
		executor: executor,
		tracer:   otel.Tracer("github.com/felixgeelhaar/duelist/planner"),
	}, nil
}

// Timeout returns the round-trip budget.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// CircuitOpen returns true while the breaker skips the oracle.
func (c *Client) CircuitOpen() bool {
	return c.executor.CircuitOpen()
}

// Plan posts the snapshot and returns the decoded oracle plan. It never
// panics; every failure is returned wrapped in ErrOracleFailed.
func (c *Client) Plan(ctx context.Context, snap snapshot.Snapshot) (p plan.Plan, err error) {
	ctx, span := c.tracer.Start(ctx, "oracle.plan",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int64("duelist.snapshot.t", snap.T)),
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrOracleFailed, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("duelist.plan.directives", len(p.Directives)))
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	p, err = c.executor.Execute(ctx, func(ctx context.Context) (plan.Plan, error) {
		return c.roundTrip(ctx, snap)
	})
	if err != nil {
		return plan.Plan{}, classify(err)
	}
	return p, nil
}

func (c *Client) roundTrip(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return plan.Plan{}, fmt.Errorf("%w: http %d", ErrBadStatus, resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return plan.Plan{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Status != "" && out.Status != StatusOK {
		return plan.Plan{}, fmt.Errorf("%w: %q %s", ErrBadStatus, out.Status, out.Error)
	}
	text := strings.TrimSpace(out.XML)
	if text == "" {
		return plan.Plan{}, ErrEmptyResponse
	}
	if block := plan.Extract(text); block != "" {
		text = block
	}

	p, err := plan.Decode(text)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	p.Source = plan.SourceOracle

	logging.Debug().
		Add(logging.Source(out.Source)).
		Add(logging.Int("directives", len(p.Directives))).
		Msg("oracle plan decoded")
	return p, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return fmt.Errorf("%w: %w", ErrOracleFailed, ErrCircuitOpen)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrOracleFailed, ErrTimeout)
	default:
		return fmt.Errorf("%w: %w", ErrOracleFailed, err)
	}
}
