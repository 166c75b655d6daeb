// Package resumeapi is the client for the resume-building web API: login, resume retrieval,
// PDF generation and job status.
package resumeapi

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
	"github.com/jonathan/resume-autopilot/internal/schemas"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client talks to the resume API. It owns the credential cache, so one Client is one login.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        logging.Logger
	session    *Session
}

// New returns a Client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, faults.Config("resume api", "base URL is required")
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

	return &Client{
		baseURL:    base,
		username:   opts.Username,
		password:   opts.Password,
		httpClient: httpClient,
		log:        log.With("component", "resume_api"),
		session:    &Session{},
	}, nil
}

// request describes one JSON call.
type request struct {
	op     string
	method string
	path   string
	body   any
	auth   bool
	schema string
}

// do sends req and returns the validated response body.
// Non-2xx statuses and connection failures are transport faults; a body that does not match
// req.schema is a protocol fault.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", req.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reader)
	if err != nil {
		return nil, faults.Transport(req.op, "failed to create request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.auth {
		header, err := c.AuthHeader(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", header)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, faults.Transport(req.op, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Transport(req.op, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := faults.Transport(req.op, fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
		fe.StatusCode = resp.StatusCode
		fe.Body = faults.Truncate(string(body), faults.SampleLimit)
		return nil, fe
	}

	if req.schema != "" {
		if err := schemas.Validate(req.schema, body); err != nil {
			return nil, faults.Protocol(req.op, "unexpected response format", err)
		}
	}
	return body, nil
}
