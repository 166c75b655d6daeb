// Package notify sends pipeline status messages to a Telegram chat. Delivery is best effort:
// failures are logged and reported as false, never as errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/prompts"
	"github.com/jonathan/resume-autopilot/internal/schemas"
	"github.com/jonathan/resume-autopilot/internal/types"
)

const (
	// DefaultAPIURL is the Telegram Bot API root.
	DefaultAPIURL = "https://api.telegram.org"
	// DefaultTimeout bounds one sendMessage call.
	DefaultTimeout = 10 * time.Second

	messagesFile = "notifications.json"
)

// Options configures a Telegram notifier.
type Options struct {
	APIURL     string
	BotToken   string
	ChatID     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	apiURL     string
	botToken   string
	chatID     string
	httpClient *http.Client
	log        logging.Logger
}

// NewTelegram returns a notifier for opts.ChatID.
func NewTelegram(opts Options) *Telegram {
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Telegram{
		apiURL:     apiURL,
		botToken:   opts.BotToken,
		chatID:     opts.ChatID,
		httpClient: httpClient,
		log:        log.With("component", "notifier"),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Send delivers text to the configured chat. parseMode may be empty. It reports whether the
// API acknowledged the message.
func (t *Telegram) Send(ctx context.Context, text, parseMode string) bool {
	if err := t.send(ctx, text, parseMode); err != nil {
		t.log.Warn("Failed to send Telegram notification", "error", err)
		return false
	}
	t.log.Info("Telegram notification sent")
	return true
}

func (t *Telegram) send(ctx context.Context, text, parseMode string) error {
	const op = "send notification"

	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text, ParseMode: parseMode})
	if err != nil {
		return fmt.Errorf("%s: failed to encode message: %w", op, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return faults.Transport(op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of logs.
		return faults.Transport(op, "request failed", redact(err, t.botToken))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return faults.Transport(op, "failed to read response body", err)
	}
	if err := schemas.Validate(schemas.TelegramResponse, body); err != nil {
		fe := faults.Protocol(op, fmt.Sprintf("unexpected response (HTTP status %d)", resp.StatusCode), err)
		fe.StatusCode = resp.StatusCode
		return fe
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return faults.Protocol(op, "failed to decode response", err)
	}
	if !parsed.OK {
		fe := faults.Transport(op, "API rejected message: "+parsed.Description, nil)
		fe.StatusCode = resp.StatusCode
		return fe
	}
	return nil
}

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), secret, "<redacted>"), cause: err}
}

type redactedError struct {
	msg   string
	cause error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.cause }

func (t *Telegram) render(key string, data map[string]string) string {
	text, err := prompts.Render(messagesFile, key, data)
	if err != nil {
		t.log.Error("Missing notification template", "key", key, "error", err)
		return ""
	}
	return text
}

// NotifyStart announces a pipeline run.
func (t *Telegram) NotifyStart(ctx context.Context, mode types.Mode) bool {
	return t.Send(ctx, t.render("pipeline-start", map[string]string{"Mode": mode.DisplayName()}), "")
}

// NotifySuccess reports the generated PDF.
func (t *Telegram) NotifySuccess(ctx context.Context, pdfURL string, mode types.Mode) bool {
	return t.Send(ctx, t.render("success", map[string]string{"Mode": mode.DisplayName(), "PDFURL": pdfURL}), "")
}

// NotifyFailure reports a failed run with its reason.
func (t *Telegram) NotifyFailure(ctx context.Context, reason string, mode types.Mode) bool {
	return t.Send(ctx, t.render("failure", map[string]string{"Mode": mode.DisplayName(), "Error": reason}), "")
}

// NotifyInterrupted reports a user cancellation.
func (t *Telegram) NotifyInterrupted(ctx context.Context) bool {
	return t.Send(ctx, t.render("interrupted", nil), "")
}
