package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"subsidyscout/internal/model"
	"subsidyscout/internal/scrapeutil"
)

// documentExtensions is checked in order, so longer extensions must come
// before their prefixes (".docx" before ".doc").
var documentExtensions = []struct {
	ext string
	typ model.DocumentType
}{
	{".pptx", model.DocumentTypePPTX},
	{".docx", model.DocumentTypeDOCX},
	{".xlsx", model.DocumentTypeXLSX},
	{".pdf", model.DocumentTypePDF},
	{".ppt", model.DocumentTypePPTX},
	{".doc", model.DocumentTypeDOCX},
	{".xls", model.DocumentTypeXLSX},
}

// VisitedChecker reports whether a URL was already fetched in the current
// analysis.
type VisitedChecker interface {
	Visited(url string) bool
}

// HarvestResult holds the two disjoint link sets found on a page.
type HarvestResult struct {
	Pages     []model.LinkRecord
	Documents []model.LinkRecord
}

// PageURLs returns the page links as a lookup set.
func (h HarvestResult) PageURLs() map[string]struct{} {
	return urlSet(h.Pages)
}

// DocumentURLs returns the document links as a lookup set.
func (h HarvestResult) DocumentURLs() map[string]struct{} {
	return urlSet(h.Documents)
}

func urlSet(links []model.LinkRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l.URL] = struct{}{}
	}
	return set
}

// IsDocumentURL reports whether link looks like a downloadable document.
// The match is a case-insensitive substring test, so query strings and
// path segments containing an extension also count.
func IsDocumentURL(link string) bool {
	return DocumentTypeOf(link) != model.DocumentTypeUnknown
}

// DocumentTypeOf guesses the document format from the URL.
func DocumentTypeOf(link string) model.DocumentType {
	lower := strings.ToLower(link)
	for _, de := range documentExtensions {
		if strings.Contains(lower, de.ext) {
			return de.typ
		}
	}
	return model.DocumentTypeUnknown
}

// Harvest extracts page and document links from markup. Relative links
// are resolved against the origin of baseURL, and page links are limited
// to URLs that contain the site's domain. URLs are deduplicated by exact
// string equality; no canonicalization is done, so "/a" and "/a/" are
// distinct. Links reported as visited by visited (which may be nil) are
// left out. Markup that cannot be parsed yields an empty result.
func Harvest(markup, baseURL string, visited VisitedChecker) HarvestResult {
	res := HarvestResult{
		Pages:     []model.LinkRecord{},
		Documents: []model.LinkRecord{},
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return res
	}
	origin := scrapeutil.SiteOrigin(baseURL)
	domain := scrapeutil.SiteDomain(baseURL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return res
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		link, ok := resolveLink(strings.TrimSpace(href), base, origin)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		if visited != nil && visited.Visited(link) {
			return
		}

		text := scrapeutil.CollapseWhitespace(sel.Text())
		if docType := DocumentTypeOf(link); docType != model.DocumentTypeUnknown {
			seen[link] = struct{}{}
			res.Documents = append(res.Documents, model.LinkRecord{
				URL:          link,
				DisplayText:  text,
				Kind:         model.LinkKindDocument,
				DocumentType: docType,
			})
			return
		}

		if !scrapeutil.ContainsDomain(link, domain) {
			return
		}
		seen[link] = struct{}{}
		res.Pages = append(res.Pages, model.LinkRecord{
			URL:         link,
			DisplayText: text,
			Kind:        model.LinkKindPage,
		})
	})

	return res
}

// resolveLink turns an href into an absolute http(s) URL. Absolute links
// are returned untouched.
func resolveLink(href string, base *url.URL, origin string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return href, true
	case strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "tel:"),
		strings.HasPrefix(lower, "javascript:"),
		strings.HasPrefix(lower, "data:"):
		return "", false
	case strings.HasPrefix(href, "//"):
		if base.Scheme == "" {
			return "", false
		}
		return base.Scheme + ":" + href, true
	case strings.HasPrefix(href, "/"):
		if origin == "" {
			return "", false
		}
		return origin + href, true
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		// Some other scheme (ftp:, etc.).
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}
