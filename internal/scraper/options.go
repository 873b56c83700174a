package scraper

import "strings"

// RequestOptions is a higher-level set of options used to construct a
// low-level scraper.Request in a consistent way across the pipeline.
type RequestOptions struct {
	URL       string
	UserAgent string
	Languages []string
	Accept    string
}

// BuildRequestFromOptions builds a scraper.Request from higher-level
// RequestOptions, deriving Accept-Language from Languages.
func BuildRequestFromOptions(opts RequestOptions) Request {
	headers := map[string]string{}
	if len(opts.Languages) > 0 {
		headers["Accept-Language"] = strings.Join(opts.Languages, ",")
	}
	if opts.Accept != "" {
		headers["Accept"] = opts.Accept
	}

	return Request{
		URL:       opts.URL,
		Headers:   headers,
		UserAgent: opts.UserAgent,
	}
}

// DutchLanguages is the Accept-Language preference used for government sites.
var DutchLanguages = []string{"nl-NL", "nl;q=0.9", "en;q=0.5"}
