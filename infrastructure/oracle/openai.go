package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat completion APIs, including Cerebras.
type OpenAIProvider struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	Name    string        // Default: openai
	APIKey  string        // Required
	BaseURL string        // Default: https://api.openai.com
	Model   string        // e.g., "gpt-4o-mini"
	Timeout time.Duration // Default: 250ms
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(config OpenAIConfig) *OpenAIProvider {
	name := config.Name
	if name == "" {
		name = "openai"
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}

	return &OpenAIProvider{
		name:    name,
		apiKey:  config.APIKey,
		baseURL: baseURL,
		model:   config.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

type openAIChatRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	Stream              bool      `json:"stream"`
	Temperature         float64   `json:"temperature,omitempty"`
	TopP                float64   `json:"top_p,omitempty"`
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete implements the Provider interface.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(openAIChatRequest{
		Model:               model,
		Messages:            req.Messages,
		Temperature:         req.Temperature,
		TopP:                req.TopP,
		MaxCompletionTokens: req.MaxTokens,
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, providerError(p.name, resp.StatusCode, respBody)
	}

	var out openAIChatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return CompletionResponse{Error: &APIError{
			Type:    out.Error.Type,
			Message: out.Error.Message,
			Code:    out.Error.Code,
		}}, nil
	}
	if len(out.Choices) == 0 {
		return CompletionResponse{}, ErrNoCompletion
	}

	return CompletionResponse{
		ID:      out.ID,
		Model:   out.Model,
		Message: out.Choices[0].Message,
		Usage:   out.Usage,
	}, nil
}
