// Package oracle implements the planning relay: an HTTP service that turns
// a duel snapshot into a plan with a chat-completion model, and falls back
// to the local heuristic whenever the model cannot answer in time.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/duelist/domain/config"
)

// Provider errors.
var (
	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrRateLimited indicates the provider rejected the call with 429.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrProviderFailed indicates any other provider failure.
	ErrProviderFailed = errors.New("provider failed")

	// ErrNoCompletion indicates the provider answered without content.
	ErrNoCompletion = errors.New("provider returned no completion")
)

// Provider defines the interface for chat-completion providers.
type Provider interface {
	// Complete sends a chat completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Name returns the provider name for logging.
	Name() string
}

// CompletionRequest represents a chat completion request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// CompletionResponse represents a chat completion response.
type CompletionResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Message Message   `json:"message"`
	Usage   Usage     `json:"usage"`
	Error   *APIError `json:"error,omitempty"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError represents an API error response.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Type + ": " + e.Message + " (" + e.Code + ")"
	}
	return e.Type + ": " + e.Message
}

// providerError maps a non-200 reply to a sentinel error without echoing
// more than a short prefix of the body.
func providerError(provider string, status int, body []byte) error {
	const maxBody = 200
	detail := strings.TrimSpace(string(body))
	if len(detail) > maxBody {
		detail = detail[:maxBody] + "..."
	}
	sentinel := ErrProviderFailed
	if status == 429 {
		sentinel = ErrRateLimited
	}
	return fmt.Errorf("%w: %s status %d: %s", sentinel, provider, status, detail)
}

// Default endpoints and models per provider.
const (
	DefaultOpenAIURL     = "https://api.openai.com"
	DefaultCerebrasURL   = "https://api.cerebras.ai"
	DefaultAnthropicURL  = "https://api.anthropic.com"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultCerebrasModel = "qwen-3-coder-480b"
)

// NewProvider builds the provider named in the relay configuration.
// A missing API key returns (nil, nil) for hosted providers: the relay
// then answers with the heuristic only.
func NewProvider(cfg config.RelayConfig) (Provider, error) {
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(OpenAIConfig{
			Name:    "openai",
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	case "cerebras":
		if cfg.APIKey == "" {
			return nil, nil
		}
		baseURL, model := cfg.BaseURL, cfg.Model
		if baseURL == "" {
			baseURL = DefaultCerebrasURL
		}
		if model == "" {
			model = DefaultCerebrasModel
		}
		return NewOpenAIProvider(OpenAIConfig{
			Name:    "cerebras",
			APIKey:  cfg.APIKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: timeout,
		}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
