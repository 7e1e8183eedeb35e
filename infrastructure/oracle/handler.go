package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
	"github.com/felixgeelhaar/duelist/infrastructure/resilience"
	"github.com/felixgeelhaar/duelist/infrastructure/telemetry"
)

// SourceHeuristic marks replies produced by the local heuristic.
const SourceHeuristic = "heuristic"

const maxRequestBytes = 64 << 10

// HandlerConfig configures the act handler.
type HandlerConfig struct {
	// Oracle answers with a model. Nil means heuristic only.
	Oracle planner.Oracle

	// Source names the oracle on the wire (default: "oracle").
	Source string

	// Fallback is the heuristic used whenever the oracle cannot answer.
	Fallback *planner.Fallback

	// Timeout bounds one oracle call, retries included (default: 250ms).
	Timeout time.Duration

	// RetryAttempts is the number of oracle attempts (default: 1).
	RetryAttempts int

	// RateLimit is oracle calls per second per client; zero disables.
	RateLimit int

	// Burst is the rate limit burst size (default: RateLimit).
	Burst int

	// Metrics records replies. Nil means no metrics.
	Metrics telemetry.Metrics
}

// Handler serves the act endpoint: snapshot in, plan out.
type Handler struct {
	oracle   planner.Oracle
	source   string
	fallback *planner.Fallback
	limiter  ratelimit.RateLimiter
	executor *resilience.Executor[plan.Plan]
	metrics  telemetry.Metrics
}

// NewHandler creates an act handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Source == "" {
		cfg.Source = "oracle"
	}
	if cfg.Fallback == nil {
		cfg.Fallback = planner.NewFallback(planner.DefaultFallbackConfig())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &telemetry.NoopMetricsProvider{}
	}

	h := &Handler{
		oracle:   cfg.Oracle,
		source:   cfg.Source,
		fallback: cfg.Fallback,
		metrics:  cfg.Metrics,
		executor: resilience.NewExecutor[plan.Plan](resilience.RelayConfig(cfg.Timeout, cfg.RetryAttempts)),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		h.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RateLimit,
			Burst:    burst,
			FailOpen: true,
		})
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, planner.Response{Status: "error", Error: "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, planner.Response{Status: "error", Error: "unreadable body"})
		return
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		writeJSON(w, http.StatusBadRequest, planner.Response{Status: "error", Error: "invalid snapshot"})
		return
	}

	resp := h.Act(r.Context(), snap, clientKey(r))
	writeJSON(w, http.StatusOK, resp)
}

// Act plans for one snapshot. It always returns an ok response: the
// heuristic answers when the oracle is missing, limited or failing.
func (h *Handler) Act(ctx context.Context, snap snapshot.Snapshot, client string) planner.Response {
	if h.oracle == nil {
		return h.heuristic(ctx, snap, "no provider")
	}
	if h.limiter != nil && !h.limiter.Allow(ctx, client) {
		h.metrics.RecordRateLimitHit(ctx)
		return h.heuristic(ctx, snap, "rate limited")
	}

	start := time.Now()
	p, err := h.executor.Execute(ctx, func(ctx context.Context) (plan.Plan, error) {
		return h.oracle.Plan(ctx, snap)
	})
	if err != nil {
		reason := "provider error"
		if errors.Is(err, ErrRateLimited) {
			reason = "provider rate limited"
		}
		logging.Warn().
			Add(logging.Source(h.source)).
			Add(logging.ErrorField(err)).
			Add(logging.Duration(time.Since(start))).
			Msg("oracle failed, using heuristic")
		return h.heuristic(ctx, snap, reason)
	}

	h.metrics.RecordRelayReply(ctx, h.source)
	logging.Debug().
		Add(logging.Source(h.source)).
		Add(logging.Duration(time.Since(start))).
		Msg("oracle plan relayed")
	return planner.Response{Status: planner.StatusOK, Source: h.source, XML: plan.Encode(p)}
}

func (h *Handler) heuristic(ctx context.Context, snap snapshot.Snapshot, reason string) planner.Response {
	p := h.fallback.Plan(snap)
	h.metrics.RecordRelayReply(ctx, SourceHeuristic)
	logging.Debug().
		Add(logging.Source(SourceHeuristic)).
		Add(logging.Reason(reason)).
		Msg("heuristic plan relayed")
	return planner.Response{Status: planner.StatusOK, Source: SourceHeuristic, XML: plan.Encode(p)}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
