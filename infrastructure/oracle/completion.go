package oracle

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/duelist/domain/plan"
	"github.com/felixgeelhaar/duelist/domain/snapshot"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

// CompletionPlanner asks a chat-completion model for a plan.
type CompletionPlanner struct {
	provider     Provider
	model        string
	temperature  float64
	topP         float64
	maxTokens    int
	systemPrompt string
}

// CompletionPlannerConfig configures the completion planner.
type CompletionPlannerConfig struct {
	Provider     Provider
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// NewCompletionPlanner creates a planner backed by a provider.
func NewCompletionPlanner(config CompletionPlannerConfig) *CompletionPlanner {
	systemPrompt := config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	temperature := config.Temperature
	if temperature == 0 {
		temperature = 0.4
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}

	return &CompletionPlanner{
		provider:     config.Provider,
		model:        config.Model,
		temperature:  temperature,
		topP:         0.9,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}
}

// Name returns the provider name, used as the plan source on the wire.
func (p *CompletionPlanner) Name() string {
	return p.provider.Name()
}

// Plan implements planner.Oracle.
func (p *CompletionPlanner) Plan(ctx context.Context, snap snapshot.Snapshot) (plan.Plan, error) {
	req := CompletionRequest{
		Model: p.model,
		Messages: []Message{
			{Role: "system", Content: p.systemPrompt},
			{Role: "user", Content: TickPrompt(snap)},
		},
		Temperature: p.temperature,
		TopP:        p.topP,
		MaxTokens:   p.maxTokens,
	}

	resp, err := p.provider.Complete(ctx, req)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("completion failed: %w", err)
	}
	if resp.Error != nil {
		return plan.Plan{}, fmt.Errorf("%w: %w", ErrProviderFailed, resp.Error)
	}

	text := plan.Extract(resp.Message.Content)
	if text == "" {
		text = resp.Message.Content
	}
	out, err := plan.Decode(text)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("invalid completion: %w", err)
	}
	out.Source = plan.SourceOracle

	logging.Debug().
		Add(logging.Source(p.provider.Name())).
		Add(logging.Int("tokens", resp.Usage.TotalTokens)).
		Msg("completion plan decoded")
	return out, nil
}
