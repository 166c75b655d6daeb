// Package llm provides centralized LLM configuration and client abstractions.
// Two providers are supported: any OpenAI-compatible chat completions endpoint (GitHub Models by
// default) and Google Gemini.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierStandard is for moderate reasoning: parsing, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: rewriting
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string // chat completions URL, OpenAI provider only
	Timeout     time.Duration
	Temperature float32
}

// DefaultConfig returns the default configuration (GitHub Models, OpenAI-compatible)
func DefaultConfig() *Config {
	return DefaultOpenAIConfig()
}

// DefaultOpenAIConfig returns the default OpenAI-compatible configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierStandard: "openai/gpt-4.1",
			TierAdvanced: "openai/gpt-4.1",
		},
		BaseURL: "https://models.github.ai/inference/chat/completions",
		Timeout: DefaultTimeout,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout: DefaultTimeout,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback: standard tier
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
