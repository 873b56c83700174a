package scrapeutil

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// CollapseWhitespace replaces every run of whitespace with a single space
// and trims the result.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most limit runes of s. A non-positive limit
// returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// SiteDomain returns the host of rawURL without a leading "www.", lowercased.
// It returns "" when rawURL has no host.
func SiteDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// SiteOrigin returns scheme://host for rawURL, or "" when it is not absolute.
func SiteOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// ContainsDomain reports whether link mentions domain. The check is a plain
// substring match on the lowercased link, so "example.nl" also matches
// "sub.example.nl".
func ContainsDomain(link, domain string) bool {
	if domain == "" {
		return false
	}
	return strings.Contains(strings.ToLower(link), strings.ToLower(domain))
}

// LastPathSegment returns the unescaped final path segment of rawURL,
// falling back to rawURL itself when there is none.
func LastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}
	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	if seg == "" || seg == "." || seg == "/" {
		return rawURL
	}
	return seg
}

// IsHTTPURL reports whether rawURL is an absolute http or https URL.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
