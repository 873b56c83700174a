package scraper

import "time"

// NewClient returns the plain HTTP client, or a browser-backed one when
// useBrowser is set. Probes and downloads always go over plain HTTP.
func NewClient(timeout time.Duration, useBrowser bool, browserURL string) Client {
	httpScraper := NewHTTPScraper(timeout)
	if !useBrowser {
		return httpScraper
	}
	return &BrowserClient{
		Pages: NewRodScraper(browserURL, timeout),
		HTTP:  httpScraper,
	}
}
