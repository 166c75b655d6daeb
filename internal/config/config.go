// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither the environment nor a config file sets a value.
const (
	DefaultResumeAPIBaseURL = "https://portfolio-api-oo25.onrender.com/api"
	DefaultOpenAIBaseURL    = "https://models.github.ai/inference/chat/completions"
	DefaultOpenAIModel      = "openai/gpt-4.1"
	DefaultGeminiModel      = "gemini-2.5-pro"
	DefaultTelegramAPIURL   = "https://api.telegram.org"
	DefaultTemplateID       = "templates/resume_template.cshtml"
	DefaultResumeName       = "Vikramaditya_Pratap_Singh"
	DefaultPollInterval     = 30
	DefaultMaxPollAttempts  = 20
	DefaultHTTPTimeout      = 30
	DefaultLLMTimeout       = 120
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds every setting of the pipeline. Values come from the environment (see FromEnv)
// and may be overridden by a JSON or YAML file (see LoadConfig).
type Config struct {
	// Resume API
	ResumeAPIBaseURL  string `json:"resume_api_base_url,omitempty" yaml:"resume_api_base_url,omitempty" validate:"required,url"`
	ResumeAPIUsername string `json:"resume_api_username,omitempty" yaml:"resume_api_username,omitempty" validate:"required"`
	ResumeAPIPassword string `json:"resume_api_password,omitempty" yaml:"resume_api_password,omitempty" validate:"required"`

	// Completion API
	LLMProvider   string `json:"llm_provider,omitempty" yaml:"llm_provider,omitempty" validate:"oneof=openai gemini"`
	GitHubPAT     string `json:"github_pat,omitempty" yaml:"github_pat,omitempty" validate:"required_if=LLMProvider openai"`
	GeminiAPIKey  string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty" validate:"required_if=LLMProvider gemini"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty" yaml:"openai_base_url,omitempty" validate:"required,url"`
	OpenAIModel   string `json:"openai_model,omitempty" yaml:"openai_model,omitempty" validate:"required"`
	GeminiModel   string `json:"gemini_model,omitempty" yaml:"gemini_model,omitempty" validate:"required"`

	// Notifications
	TelegramBotToken string `json:"telegram_bot_token,omitempty" yaml:"telegram_bot_token,omitempty" validate:"required"`
	TelegramChatID   string `json:"telegram_chat_id,omitempty" yaml:"telegram_chat_id,omitempty" validate:"required"`
	TelegramAPIURL   string `json:"telegram_api_url,omitempty" yaml:"telegram_api_url,omitempty" validate:"required,url"`

	// Polling and timeouts, in seconds
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty" yaml:"poll_interval_seconds,omitempty" validate:"min=1"`
	MaxPollAttempts     int `json:"max_poll_attempts,omitempty" yaml:"max_poll_attempts,omitempty" validate:"min=1"`
	HTTPTimeoutSeconds  int `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"min=1"`
	LLMTimeoutSeconds   int `json:"llm_timeout_seconds,omitempty" yaml:"llm_timeout_seconds,omitempty" validate:"min=1"`

	// Generation defaults
	DefaultTemplateID string `json:"default_template_id,omitempty" yaml:"default_template_id,omitempty" validate:"templateid"`
	DefaultResumeName string `json:"default_resume_name,omitempty" yaml:"default_resume_name,omitempty" validate:"resumename"`

	// Optional
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	LogLevel    string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat   string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`
}

// Defaults returns a Config holding only the built-in defaults.
func Defaults() Config {
	return Config{
		ResumeAPIBaseURL:    DefaultResumeAPIBaseURL,
		LLMProvider:         ProviderOpenAI,
		OpenAIBaseURL:       DefaultOpenAIBaseURL,
		OpenAIModel:         DefaultOpenAIModel,
		GeminiModel:         DefaultGeminiModel,
		TelegramAPIURL:      DefaultTelegramAPIURL,
		PollIntervalSeconds: DefaultPollInterval,
		MaxPollAttempts:     DefaultMaxPollAttempts,
		HTTPTimeoutSeconds:  DefaultHTTPTimeout,
		LLMTimeoutSeconds:   DefaultLLMTimeout,
		DefaultTemplateID:   DefaultTemplateID,
		DefaultResumeName:   DefaultResumeName,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// FromEnv reads the configuration from environment variables, falling back to Defaults.
// Only malformed numbers are reported here; missing required values are caught by Validate.
func FromEnv() (*Config, error) {
	cfg := Defaults()

	str := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(dst *int, key string) error {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(&cfg.ResumeAPIBaseURL, "RESUME_API_BASE_URL")
	str(&cfg.ResumeAPIUsername, "RESUME_API_USERNAME")
	str(&cfg.ResumeAPIPassword, "RESUME_API_PASSWORD")
	str(&cfg.LLMProvider, "LLM_PROVIDER")
	str(&cfg.GitHubPAT, "GITHUB_PAT")
	str(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	str(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	str(&cfg.OpenAIModel, "OPENAI_MODEL")
	str(&cfg.GeminiModel, "GEMINI_MODEL")
	str(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	str(&cfg.TelegramChatID, "TELEGRAM_CHAT_ID")
	str(&cfg.TelegramAPIURL, "TELEGRAM_API_URL")
	str(&cfg.DefaultTemplateID, "DEFAULT_TEMPLATE_ID")
	str(&cfg.DefaultResumeName, "DEFAULT_RESUME_NAME")
	str(&cfg.DatabaseURL, "DATABASE_URL")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LogFormat, "LOG_FORMAT")

	for key, dst := range map[string]*int{
		"POLL_INTERVAL_SECONDS": &cfg.PollIntervalSeconds,
		"MAX_POLL_ATTEMPTS":     &cfg.MaxPollAttempts,
		"HTTP_TIMEOUT_SECONDS":  &cfg.HTTPTimeoutSeconds,
		"LLM_TIMEOUT_SECONDS":   &cfg.LLMTimeoutSeconds,
	} {
		if err := num(dst, key); err != nil {
			return nil, err
		}
	}

	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON or YAML file; the format follows the extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer a config file over the environment.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct{ dst, def *string }{
		{&result.ResumeAPIBaseURL, &defaults.ResumeAPIBaseURL},
		{&result.ResumeAPIUsername, &defaults.ResumeAPIUsername},
		{&result.ResumeAPIPassword, &defaults.ResumeAPIPassword},
		{&result.LLMProvider, &defaults.LLMProvider},
		{&result.GitHubPAT, &defaults.GitHubPAT},
		{&result.GeminiAPIKey, &defaults.GeminiAPIKey},
		{&result.OpenAIBaseURL, &defaults.OpenAIBaseURL},
		{&result.OpenAIModel, &defaults.OpenAIModel},
		{&result.GeminiModel, &defaults.GeminiModel},
		{&result.TelegramBotToken, &defaults.TelegramBotToken},
		{&result.TelegramChatID, &defaults.TelegramChatID},
		{&result.TelegramAPIURL, &defaults.TelegramAPIURL},
		{&result.DefaultTemplateID, &defaults.DefaultTemplateID},
		{&result.DefaultResumeName, &defaults.DefaultResumeName},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.LogLevel, &defaults.LogLevel},
		{&result.LogFormat, &defaults.LogFormat},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = *s.def
		}
	}

	// Int fields: use default if zero
	ints := []struct{ dst, def *int }{
		{&result.PollIntervalSeconds, &defaults.PollIntervalSeconds},
		{&result.MaxPollAttempts, &defaults.MaxPollAttempts},
		{&result.HTTPTimeoutSeconds, &defaults.HTTPTimeoutSeconds},
		{&result.LLMTimeoutSeconds, &defaults.LLMTimeoutSeconds},
	}
	for _, n := range ints {
		if *n.dst == 0 {
			*n.dst = *n.def
		}
	}

	return result
}

// PollInterval is the fixed delay between status queries.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// HTTPTimeout bounds each resume API and notification request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// LLMTimeout bounds each completion request.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// PollBudget is the longest the poller may wait: attempts × interval.
func (c *Config) PollBudget() time.Duration {
	return time.Duration(c.MaxPollAttempts) * c.PollInterval()
}
