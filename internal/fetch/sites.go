package fetch

import (
	"net/url"
	"strings"
)

// Site is a known job board. Each one has its own markup.
type Site struct {
	Name    string
	hosts   []string
	Content []string // selectors for the posting body, most specific first
	Noise   []string // selectors removed before extraction
}

// formNoise is present on every job board: application forms, EEO notices, share buttons.
var formNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".eeo-section",
	".voluntary-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

var knownSites = []Site{
	{
		Name:    "greenhouse",
		hosts:   []string{"greenhouse.io"},
		Content: []string{".job__description.body", ".job__description", ".job-post-container", "#content"},
		Noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	{
		Name:    "lever",
		hosts:   []string{"lever.co"},
		Content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		Noise:   []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	{
		Name:    "workday",
		hosts:   []string{"myworkdayjobs.com", "workday.com"},
		Content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
		Noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	{
		Name:    "linkedin",
		hosts:   []string{"linkedin.com"},
		Content: []string{".show-more-less-html__markup", ".description__text", ".jobs-description"},
		Noise:   []string{".sign-in-modal", ".join-form", ".similar-jobs"},
	},
}

// genericSite matches any other page.
var genericSite = Site{
	Name: "generic",
	Content: []string{
		".job-description",
		"#job-description",
		".job-content",
		".job-details",
		".posting-content",
		"[data-testid='job-description']",
		"main",
		"article",
		"#content",
		".content",
	},
}

// DetectSite picks the job board serving rawURL, or the generic profile.
func DetectSite(rawURL string) Site {
	u, err := url.Parse(rawURL)
	if err != nil {
		return genericSite
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range knownSites {
		for _, h := range s.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return s
			}
		}
	}
	return genericSite
}

// NoiseSelectors returns the site-specific noise plus the selectors common to all job boards.
func (s Site) NoiseSelectors() []string {
	out := make([]string, 0, len(formNoise)+len(s.Noise))
	out = append(out, formNoise...)
	return append(out, s.Noise...)
}
