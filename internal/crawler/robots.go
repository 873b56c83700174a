package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	robotstxt "github.com/temoto/robotstxt"
)

// RobotsPolicy answers whether a URL on the analysed site may be fetched.
// A nil policy allows everything.
type RobotsPolicy struct {
	host  string
	group *robotstxt.Group
}

// LoadRobots fetches robots.txt for the host of baseURL. Any failure
// (network, non-200, parse error) results in a nil policy, which allows
// every URL.
func LoadRobots(ctx context.Context, client *http.Client, baseURL, userAgent string) *RobotsPolicy {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	data, err := fetchRobots(ctx, client, base, userAgent)
	if err != nil {
		return nil
	}
	return &RobotsPolicy{
		host:  strings.ToLower(base.Host),
		group: data.FindGroup(userAgent),
	}
}

// ParseRobots builds a policy for host from a robots.txt body.
func ParseRobots(host string, body []byte, userAgent string) (*RobotsPolicy, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, err
	}
	return &RobotsPolicy{host: strings.ToLower(host), group: data.FindGroup(userAgent)}, nil
}

// Allowed reports whether link may be fetched. Links on other hosts are
// outside the policy and always allowed.
func (p *RobotsPolicy) Allowed(link string) bool {
	if p == nil || p.group == nil {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	if strings.ToLower(u.Host) != p.host {
		return true
	}
	return p.group.Test(u.RequestURI())
}

// fetchRobots fetches and parses robots.txt for a given base URL.
func fetchRobots(ctx context.Context, client *http.Client, base *url.URL, userAgent string) (*robotstxt.RobotsData, error) {
	robotsURL := &url.URL{
		Scheme: base.Scheme,
		Host:   base.Host,
		Path:   "/robots.txt",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("non-200 robots.txt")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, err
	}

	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}
