package planner

import "errors"

// Planner errors. Every oracle failure wraps ErrOracleFailed so callers
// can treat them as one planning failure.
var (
	// ErrOracleFailed is the umbrella for any failed oracle call.
	ErrOracleFailed = errors.New("oracle call failed")

	// ErrNoEndpoint indicates the client was created without a URL.
	ErrNoEndpoint = errors.New("oracle endpoint not configured")

	// ErrTimeout indicates the round trip exceeded its budget.
	ErrTimeout = errors.New("oracle timed out")

	// ErrBadStatus indicates a non-2xx HTTP status or a non-ok body status.
	ErrBadStatus = errors.New("oracle returned bad status")

	// ErrEmptyResponse indicates the response carried no plan text.
	ErrEmptyResponse = errors.New("oracle returned no plan")

	// ErrCircuitOpen indicates the oracle was skipped by the circuit breaker.
	ErrCircuitOpen = errors.New("oracle circuit open")

	// ErrScriptExhausted indicates a scripted oracle has no more steps.
	ErrScriptExhausted = errors.New("script exhausted")
)
