package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-autopilot/internal/faults"
)

// envNames maps Config field names to the variables that set them.
var envNames = map[string]string{
	"ResumeAPIBaseURL":    "RESUME_API_BASE_URL",
	"ResumeAPIUsername":   "RESUME_API_USERNAME",
	"ResumeAPIPassword":   "RESUME_API_PASSWORD",
	"LLMProvider":         "LLM_PROVIDER",
	"GitHubPAT":           "GITHUB_PAT",
	"GeminiAPIKey":        "GEMINI_API_KEY",
	"OpenAIBaseURL":       "OPENAI_BASE_URL",
	"OpenAIModel":         "OPENAI_MODEL",
	"GeminiModel":         "GEMINI_MODEL",
	"TelegramBotToken":    "TELEGRAM_BOT_TOKEN",
	"TelegramChatID":      "TELEGRAM_CHAT_ID",
	"TelegramAPIURL":      "TELEGRAM_API_URL",
	"PollIntervalSeconds": "POLL_INTERVAL_SECONDS",
	"MaxPollAttempts":     "MAX_POLL_ATTEMPTS",
	"HTTPTimeoutSeconds":  "HTTP_TIMEOUT_SECONDS",
	"LLMTimeoutSeconds":   "LLM_TIMEOUT_SECONDS",
	"DefaultTemplateID":   "DEFAULT_TEMPLATE_ID",
	"DefaultResumeName":   "DEFAULT_RESUME_NAME",
	"LogLevel":            "LOG_LEVEL",
	"LogFormat":           "LOG_FORMAT",
}

// NewValidator returns a validator with the "templateid" and "resumename" tags registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("templateid", func(fl validator.FieldLevel) bool {
		return ValidTemplateID(fl.Field().String())
	})
	_ = validate.RegisterValidation("resumename", func(fl validator.FieldLevel) bool {
		return ValidResumeName(fl.Field().String())
	})
	return validate
}

// Validate checks that all required settings are present and well-formed.
// Missing values are reported together, by environment variable name.
func (c *Config) Validate() error {
	err := NewValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return faults.Config("config", err.Error())
	}

	var missing, invalid []string
	for _, fe := range verrs {
		name := envNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required", "required_if":
			missing = append(missing, name)
		default:
			invalid = append(invalid, fmt.Sprintf("%s (%s)", name, describeTag(fe)))
		}
	}
	sort.Strings(missing)
	sort.Strings(invalid)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(invalid, ", "))
	}
	return faults.Config("config", strings.Join(parts, "; ")+"; please check your .env file")
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return "must be a URL"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "templateid":
		return "must look like templates/name" + TemplateExtension
	case "resumename":
		return "must not be empty or contain " + ReservedNameChars
	}
	return fe.Tag()
}
