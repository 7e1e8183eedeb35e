// Package planner produces NPC plans: an HTTP client for the remote
// planning oracle, the local fallback heuristic and scripted oracles for
// deterministic tests.
package planner

import (
	"context"

	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

// Oracle turns a snapshot into a plan. Implementations must honor ctx
// cancellation and report every failure as an error.
type Oracle interface {
	Plan(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error)

// Plan calls f.
func (f OracleFunc) Plan(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error) {
	return f(ctx, snap)
}

// Response is the oracle's JSON reply. Status may be omitted; when set
// it must be "ok".
type Response struct {
	Status string `json:"status,omitempty"`
	Source string `json:"source,omitempty"`
	XML    string `json:"xml"`
	Error  string `json:"error,omitempty"`
}

// StatusOK is the only accepted response status.
const StatusOK = "ok"
