package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/resume-autopilot/internal/logging"
)

// MinContentLength is the shortest extracted text accepted from a plain HTTP fetch.
// Anything shorter is likely a script-rendered page.
const MinContentLength = 500

// NeedsRendering reports whether text is too short to be a real posting.
func NeedsRendering(text string) bool {
	return len(strings.TrimSpace(text)) < MinContentLength
}

// Renderer returns the HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome. Chrome or Chromium must be installed.
type ChromeRenderer struct {
	Timeout time.Duration
	Logger  logging.Logger
}

// Render loads rawURL, waits for the body and a short settle period, and returns the outer HTML.
func (r ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}

	log.Debug("Starting headless browser", "url", rawURL)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("Rendered page", "url", rawURL, "bytes", len(html))
	return html, nil
}
