package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request represents a single fetch issued by the pipeline.
type Request struct {
	URL       string
	Headers   map[string]string
	UserAgent string
}

// Result is a fetched and normalized HTML page.
type Result struct {
	URL     string
	Title   string
	RawHTML string
	Text    string
	Status  int
	Engine  string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// ErrTooLarge is returned by Download when a body exceeds the size limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// Scraper defines the interface for page scrapers.
type Scraper interface {
	Scrape(ctx context.Context, req Request) (*Result, error)
}

// Client is everything the pipeline needs from the network: rendering
// pages, cheap existence probes and raw document downloads.
type Client interface {
	Scraper
	Probe(ctx context.Context, req Request) error
	Download(ctx context.Context, req Request, limit int64) ([]byte, error)
}

// HTTPScraper is a basic implementation using net/http and goquery.
type HTTPScraper struct {
	client *http.Client
}

func NewHTTPScraper(timeout time.Duration) *HTTPScraper {
	return &HTTPScraper{
		client: &http.Client{Timeout: timeout},
	}
}

// NewHTTPScraperWithClient wraps an existing client, e.g. httptest's.
func NewHTTPScraperWithClient(client *http.Client) *HTTPScraper {
	return &HTTPScraper{client: client}
}

// HTTPClient exposes the underlying client for collaborators that issue
// their own requests (robots.txt).
func (s *HTTPScraper) HTTPClient() *http.Client {
	return s.client
}

func (s *HTTPScraper) newRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	return httpReq, nil
}

func (s *HTTPScraper) Scrape(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := s.newRequest(ctx, http.MethodGet, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: req.URL, Code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	htmlStr := string(bodyBytes)
	title, text := Normalize(htmlStr, httpReq.URL.String())

	return &Result{
		URL:     httpReq.URL.String(),
		Title:   title,
		RawHTML: htmlStr,
		Text:    text,
		Status:  resp.StatusCode,
		Engine:  "http",
	}, nil
}

// Probe issues a HEAD request. Servers that refuse HEAD (405, 501) are
// given the benefit of the doubt; any other status >= 400 fails.
func (s *HTTPScraper) Probe(ctx context.Context, req Request) error {
	httpReq, err := s.newRequest(ctx, http.MethodHead, req)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed, resp.StatusCode == http.StatusNotImplemented:
		return nil
	case resp.StatusCode >= 400:
		return &StatusError{URL: req.URL, Code: resp.StatusCode}
	}
	return nil
}

// Download fetches the raw body of req.URL. A positive limit caps the
// number of bytes read; larger bodies yield ErrTooLarge.
func (s *HTTPScraper) Download(ctx context.Context, req Request, limit int64) ([]byte, error) {
	httpReq, err := s.newRequest(ctx, http.MethodGet, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: req.URL, Code: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, ErrTooLarge
	}
	return body, nil
}

// BrowserClient renders pages with a browser engine and falls back to
// plain HTTP for probes and downloads.
type BrowserClient struct {
	Pages Scraper
	HTTP  *HTTPScraper
}

func (b *BrowserClient) Scrape(ctx context.Context, req Request) (*Result, error) {
	return b.Pages.Scrape(ctx, req)
}

func (b *BrowserClient) Probe(ctx context.Context, req Request) error {
	return b.HTTP.Probe(ctx, req)
}

func (b *BrowserClient) Download(ctx context.Context, req Request, limit int64) ([]byte, error) {
	return b.HTTP.Download(ctx, req, limit)
}
