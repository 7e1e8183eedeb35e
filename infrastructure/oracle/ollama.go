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

// OllamaProvider implements the Provider interface for a local Ollama.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL string        // Default: http://localhost:11434
	Model   string        // e.g., "llama3.2"
	Timeout time.Duration // Default: 250ms
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(config OllamaConfig) *OllamaProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   config.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Complete implements the Provider interface.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Options: &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		return CompletionResponse{}, providerError("ollama", resp.StatusCode, respBody)
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Message.Content == "" {
		return CompletionResponse{}, ErrNoCompletion
	}

	return CompletionResponse{Model: out.Model, Message: out.Message}, nil
}
