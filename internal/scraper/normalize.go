package scraper

import (
	"net/url"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"subsidyscout/internal/scrapeutil"
)

// boilerplateSelectors are removed before text extraction.
const boilerplateSelectors = "script, style, noscript, template, iframe, svg, canvas, form, " +
	"nav, header, footer, aside, [role=navigation], [role=banner], [role=contentinfo], " +
	".breadcrumb, .breadcrumbs, .skip-link, .cookie-banner, #cookie-consent"

// Normalize returns the page title and the visible text of htmlStr with
// navigation and other boilerplate removed and whitespace collapsed. Line
// structure (headings, paragraphs, list items) is kept as one line each.
// When nothing is left after stripping, a readability pass over the
// original markup is tried instead.
func Normalize(htmlStr, pageURL string) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", collapseLines(htmlStr)
	}

	title = scrapeutil.CollapseWhitespace(doc.Find("title").First().Text())
	if title == "" {
		title = scrapeutil.CollapseWhitespace(doc.Find("h1").First().Text())
	}

	doc.Find(boilerplateSelectors).Remove()
	doc.Find("img, picture").Remove()
	// Keep anchor text, drop the hrefs; they only add noise for the oracle.
	doc.Find("a").Contents().Unwrap()
	doc.Find("a").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	text = markdownText(body, pageURL)
	if text == "" {
		text = readabilityText(htmlStr, pageURL)
	}
	return title, text
}

func markdownText(body *goquery.Selection, pageURL string) string {
	bodyHTML, err := goquery.OuterHtml(body)
	if err != nil {
		return collapseLines(body.Text())
	}

	converter := htmlmd.NewConverter(scrapeutil.SiteDomain(pageURL), true, nil)
	markdown, err := converter.ConvertString(bodyHTML)
	if err != nil {
		return collapseLines(body.Text())
	}
	return collapseLines(markdown)
}

func readabilityText(htmlStr, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(htmlStr), parsedURL)
	if err != nil {
		return ""
	}
	return collapseLines(article.TextContent)
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = scrapeutil.CollapseWhitespace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
