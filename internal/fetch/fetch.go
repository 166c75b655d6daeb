// Package fetch downloads job posting pages and reduces them to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/logging"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeAutopilot/1.0)"

// maxPageBytes caps how much of a page is read.
const maxPageBytes = 5 << 20

// Page is a downloaded HTML document.
type Page struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Options configures a Fetcher.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Fetcher downloads pages over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       logging.Logger
}

// NewFetcher returns a Fetcher. Zero options get defaults.
func NewFetcher(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Fetcher{client: client, userAgent: ua, log: log}
}

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Get downloads rawURL. Any status other than 200 is a transport fault.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	const op = "fetch page"

	if !IsURL(rawURL) {
		return nil, faults.Config(op, fmt.Sprintf("invalid URL %q", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, faults.Transport(op, "failed to create request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, faults.Transport(op, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, faults.Transport(op, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		fe := faults.Transport(op, fmt.Sprintf("HTTP status %d for %s", resp.StatusCode, rawURL), nil)
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}

	f.log.Debug("Fetched page", "url", rawURL, "bytes", len(body))
	return &Page{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// baseNoise is stripped from every page before extraction.
const baseNoise = "nav, footer, header, script, style, noscript, svg, iframe, .ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup"

// MainText parses html, drops noise, and returns the text of the first element matching one
// of content (in order), or of <body> when none match. Blank lines are removed and every
// line is trimmed.
func MainText(html string, content []string, noise []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(baseNoise).Remove()
	if len(noise) > 0 {
		doc.Find(strings.Join(noise, ", ")).Remove()
	}

	selection := doc.Find("body")
	for _, sel := range content {
		if found := doc.Find(sel); found.Length() > 0 {
			selection = found.First()
			break
		}
	}

	return squeezeLines(selection.Text()), nil
}

func squeezeLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
