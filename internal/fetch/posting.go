package fetch

import (
	"context"
	"fmt"
)

// JobPosting downloads rawURL and extracts the posting text using the selectors of the
// detected site. When renderer is non-nil and the plain fetch yields too little text, the page
// is rendered in a browser and extracted again; a failed render keeps the plain text.
func (f *Fetcher) JobPosting(ctx context.Context, rawURL string, renderer Renderer) (string, error) {
	site := DetectSite(rawURL)
	f.log.Info("Fetching job description", "url", rawURL, "site", site.Name)

	page, err := f.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := MainText(page.HTML, site.Content, site.NoiseSelectors())
	if err != nil {
		return "", fmt.Errorf("fetch job posting: %w", err)
	}

	if renderer != nil && NeedsRendering(text) {
		f.log.Info("Page content too short, rendering in browser", "chars", len(text))
		html, err := renderer.Render(ctx, rawURL)
		if err != nil {
			f.log.Warn("Browser rendering failed, using fetched content", "error", err)
			return text, nil
		}
		rendered, err := MainText(html, site.Content, site.NoiseSelectors())
		if err != nil {
			f.log.Warn("Failed to extract rendered content", "error", err)
			return text, nil
		}
		text = rendered
	}

	f.log.Debug("Extracted job description", "chars", len(text))
	return text, nil
}
