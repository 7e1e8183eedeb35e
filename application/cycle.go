package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
	"github.com/felixgeelhaar/duelist/infrastructure/planner"
)

// Applied describes a plan handed to the action queue.
type Applied struct {
	Cycle   uint64
	Plan    plan.Plan
	Latency time.Duration

	// Failure is the oracle error that made the cycle fall back.
	Failure error

	// Superseded is set when the watchdog fired before the oracle answered.
	Superseded bool
}

// cycle is one planning request. Only the tick goroutine touches it,
// except for the buffered result channel.
type cycle struct {
	id         uint64
	session    string
	snap       snapshot.Snapshot
	dispatched time.Time
	deadline   time.Time
	cancel     context.CancelFunc
	result     chan cycleResult
}

type cycleResult struct {
	plan    plan.Plan
	err     error
	latency time.Duration
}

// dispatch starts a planning cycle when one is due and none is in flight.
// Without an oracle the fallback plan is applied immediately.
func (e *Engine) dispatch(now time.Time) (Applied, bool) {
	if e.active != nil || now.Before(e.nextPlanAt) {
		return Applied{}, false
	}
	e.nextPlanAt = now.Add(e.interval)
	e.cycleID++
	snap := e.capture(now)

	if e.oracle == nil {
		return e.apply(now, e.cycleID, e.fallback.Plan(snap), 0, nil, false), true
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.budget)
	c := &cycle{
		id:         e.cycleID,
		session:    e.session,
		snap:       snap,
		dispatched: now,
		deadline:   now.Add(e.budget + e.grace),
		cancel:     cancel,
		result:     make(chan cycleResult, 1),
	}
	e.active = c
	e.metrics.IncrementInFlight(e.ctx)

	e.wg.Add(1)
	go e.request(ctx, c)

	logging.Debug().
		Add(logging.SessionID(c.session)).
		Add(logging.Cycle(c.id)).
		Add(logging.Float("separation", snap.Separation())).
		Add(logging.Int("events", len(snap.Events))).
		Msg("plan requested")
	return Applied{}, false
}

// request runs the oracle call off the tick goroutine.
func (e *Engine) request(ctx context.Context, c *cycle) {
	defer e.wg.Done()
	defer c.cancel()

	ctx, span := e.tracer.Start(ctx, "plan.cycle",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("session.id", c.session),
			attribute.Int64("cycle.id", int64(c.id)),
			attribute.Float64("snapshot.separation", c.snap.Separation()),
		),
	)
	defer span.End()

	start := time.Now()
	p, err := e.callOracle(ctx, c.snap)
	latency := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("plan.directives", len(p.Directives)))
		span.SetStatus(codes.Ok, "")
	}
	e.metrics.DecrementInFlight(context.Background())

	c.result <- cycleResult{plan: p, err: err, latency: latency}
}

func (e *Engine) callOracle(ctx context.Context, snap snapshot.Snapshot) (p plan.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = plan.Plan{}, fmt.Errorf("%w: panic: %v", planner.ErrOracleFailed, r)
		}
	}()

	p, err = e.oracle.Plan(ctx, snap)
	if err != nil {
		return plan.Plan{}, err
	}
	if p.IsEmpty() {
		return plan.Plan{}, plan.ErrEmptyPlan
	}
	if err := p.Validate(); err != nil {
		return plan.Plan{}, err
	}
	if p.Source == "" {
		p.Source = plan.SourceOracle
	}
	return p, nil
}

// collect applies the active cycle's result if it arrived, or the
// fallback once the watchdog deadline has passed.
func (e *Engine) collect(now time.Time) (Applied, bool) {
	c := e.active
	if c == nil {
		return Applied{}, false
	}

	select {
	case r := <-c.result:
		e.active = nil
		c.cancel()
		if r.err != nil {
			return e.fallBack(now, c, r.err, r.latency, false), true
		}
		return e.apply(now, c.id, r.plan, r.latency, nil, false), true
	default:
	}

	if now.Before(c.deadline) {
		return Applied{}, false
	}

	e.retireActive()
	e.stats.Superseded++
	logging.Warn().
		Add(logging.SessionID(c.session)).
		Add(logging.Cycle(c.id)).
		Add(logging.Duration(now.Sub(c.dispatched))).
		Msg("oracle superseded by fallback")
	return e.fallBack(now, c, ErrSuperseded, now.Sub(c.dispatched), true), true
}

func (e *Engine) fallBack(now time.Time, c *cycle, cause error, latency time.Duration, superseded bool) Applied {
	reason := failureReason(cause)
	e.stats.Failures++
	e.metrics.RecordPlanFailure(e.ctx, reason)

	logging.Warn().
		Add(logging.SessionID(c.session)).
		Add(logging.Cycle(c.id)).
		Add(logging.Reason(reason)).
		Add(logging.ErrorField(cause)).
		Msg("oracle plan unavailable, using fallback")

	return e.apply(now, c.id, e.fallback.Plan(c.snap), latency, cause, superseded)
}

// retireActive abandons the active cycle. Its result, if one still
// arrives, is discarded as stale.
func (e *Engine) retireActive() {
	c := e.active
	if c == nil {
		return
	}
	e.active = nil
	c.cancel()
	e.retired = append(e.retired, c)
}

// drainRetired discards results that arrived for abandoned cycles.
func (e *Engine) drainRetired(now time.Time) {
	if len(e.retired) == 0 {
		return
	}

	kept := e.retired[:0]
	for _, c := range e.retired {
		select {
		case r := <-c.result:
			e.stats.Stale++
			e.metrics.RecordStale(e.ctx)
			e.journal(journal.Entry{
				SessionID: c.session,
				Cycle:     c.id,
				Source:    plan.SourceOracle,
				Outcome:   journal.OutcomeStale,
				Rationale: r.plan.Rationale,
				Plan:      encodePlan(r.plan),
				Failure:   errorText(r.err),
				Latency:   r.latency,
				At:        now,
			})
			logging.Debug().
				Add(logging.SessionID(c.session)).
				Add(logging.Cycle(c.id)).
				Add(logging.Duration(r.latency)).
				Msg("stale plan discarded")
		default:
			kept = append(kept, c)
		}
	}
	clear(e.retired[len(kept):])
	e.retired = kept
}

// apply hands a plan to the action queue and records the cycle.
func (e *Engine) apply(now time.Time, id uint64, p plan.Plan, latency time.Duration, failure error, superseded bool) Applied {
	for _, d := range p.Directives {
		evicted, err := e.queue.Enqueue(d, now)
		if err != nil {
			logging.Warn().
				Add(logging.Cycle(id)).
				Add(logging.ErrorField(err)).
				Msg("directive rejected")
			continue
		}
		if evicted {
			e.stats.Evictions++
			e.metrics.RecordEviction(e.ctx, string(d.Kind()))
		}
	}

	e.stats.Cycles++
	if p.Source == plan.SourceOracle {
		e.stats.OraclePlans++
	} else {
		e.stats.FallbackPlans++
	}
	e.metrics.RecordPlan(e.ctx, string(p.Source), latency)
	e.notifier.PlanApplied(p)

	outcome := journal.OutcomeApplied
	if superseded {
		outcome = journal.OutcomeSuperseded
	}
	e.journal(journal.Entry{
		SessionID: e.session,
		Cycle:     id,
		Source:    p.Source,
		Outcome:   outcome,
		Rationale: p.Rationale,
		Plan:      encodePlan(p),
		Failure:   errorText(failure),
		Latency:   latency,
		At:        now,
	})

	logging.Debug().
		Add(logging.SessionID(e.session)).
		Add(logging.Cycle(id)).
		Add(logging.Source(string(p.Source))).
		Add(logging.Duration(latency)).
		Add(logging.Int("directives", len(p.Directives))).
		Add(logging.Str("rationale", p.Rationale)).
		Msg("plan applied")

	return Applied{
		Cycle:      id,
		Plan:       p,
		Latency:    latency,
		Failure:    failure,
		Superseded: superseded,
	}
}

func (e *Engine) journal(entry journal.Entry) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(entry)
}

func encodePlan(p plan.Plan) string {
	if p.IsEmpty() {
		return ""
	}
	return plan.Encode(p)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// failureReason maps an oracle failure to a metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, planner.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, planner.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, planner.ErrBadStatus):
		return "bad_status"
	case errors.Is(err, planner.ErrEmptyResponse), errors.Is(err, plan.ErrEmptyPlan):
		return "empty"
	case errors.Is(err, plan.ErrMalformed),
		errors.Is(err, plan.ErrUnknownTag),
		errors.Is(err, plan.ErrMissingTag),
		errors.Is(err, plan.ErrMissingAttribute),
		errors.Is(err, plan.ErrInvalidDirective),
		errors.Is(err, plan.ErrDuplicateDirective):
		return "decode"
	default:
		return "transport"
	}
}
