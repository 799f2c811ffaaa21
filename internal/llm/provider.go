package llm

import (
	"context"
	"errors"

	"promptvault/internal/config"
)

// ErrNotConfigured is returned when no provider API key is set.
var ErrNotConfigured = errors.New("no LLM provider configured")

// Provider runs a single rendered prompt against one model.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

type CompletionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type CompletionResponse struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Output     string `json:"output"`
	TokensUsed int    `json:"tokens_used"`
	LatencyMs  int64  `json:"latency_ms"`
}

// NewFromConfig picks the configured default provider. Returns
// ErrNotConfigured when the matching API key is missing.
func NewFromConfig(cfg config.LLMConfig) (Provider, error) {
	switch cfg.DefaultProvider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, ErrNotConfigured
		}
		return NewAnthropicProvider(cfg.AnthropicKey), nil
	default:
		if cfg.OpenAIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIProvider(cfg.OpenAIKey), nil
	}
}
