package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Request is one chat-style completion: a fixed system instruction plus a user payload.
type Request struct {
	System string
	User   string
	Tier   ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent returns the raw text of the model's answer.
	GenerateContent(ctx context.Context, req Request) (string, error)
	// GetModel returns the provider model name for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used by the OpenAI provider.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string, opts ...Option) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI, "":
		return NewOpenAIClient(config, apiKey, o.httpClient)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}
