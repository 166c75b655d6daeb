package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/schemas"
)

// OpenAIClient implements Client against an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey     string
	config     *Config
	httpClient *http.Client
}

// NewOpenAIClient constructs a new OpenAI-compatible client. A nil httpClient gets one with
// config.Timeout.
func NewOpenAIClient(config *Config, apiKey string, httpClient *http.Client) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("chat completions URL is required")
	}
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		config:     config,
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateContent posts one chat completion and returns the first choice's content.
func (c *OpenAIClient) GenerateContent(ctx context.Context, req Request) (string, error) {
	const op = "chat completion"

	model := c.config.GetModel(req.Tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", faults.Transport(op, "failed to create request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", faults.Transport(op, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", faults.Transport(op, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := faults.Transport(op, fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
		fe.StatusCode = resp.StatusCode
		fe.Body = faults.Truncate(string(body), faults.SampleLimit)
		return "", fe
	}

	if err := schemas.Validate(schemas.ChatCompletionResponse, body); err != nil {
		return "", faults.Protocol(op, "unexpected response format", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", faults.Protocol(op, "failed to decode response", err)
	}

	return parsed.Choices[0].Message.Content, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no per-client resources.
func (c *OpenAIClient) Close() error {
	return nil
}

var _ Client = (*OpenAIClient)(nil)
var _ Client = (*GeminiClient)(nil)
