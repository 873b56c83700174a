package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// LinkKind separates navigable pages from downloadable documents.
type LinkKind string

const (
	LinkKindPage     LinkKind = "page"
	LinkKindDocument LinkKind = "document"
)

// DocumentType is the format guessed from a document URL's extension.
type DocumentType string

const (
	DocumentTypePDF     DocumentType = "pdf"
	DocumentTypeDOCX    DocumentType = "docx"
	DocumentTypeXLSX    DocumentType = "xlsx"
	DocumentTypePPTX    DocumentType = "pptx"
	DocumentTypeUnknown DocumentType = "unknown"
)

// LinkRecord is a single harvested anchor.
type LinkRecord struct {
	URL          string       `json:"url"`
	DisplayText  string       `json:"display_text,omitempty"`
	Kind         LinkKind     `json:"kind"`
	DocumentType DocumentType `json:"document_type,omitempty"`
}

// Priority accepts both numeric and textual priorities ("1", 1, "high")
// since the planning oracle is not consistent about it.
type Priority string

func (p *Priority) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Priority(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Priority(n.String())
	return nil
}

// PlanMainPage is the root of a scraping plan.
type PlanMainPage struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
}

// PlanTarget is a sub-page or document selected for retrieval.
type PlanTarget struct {
	URL      string   `json:"url"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority"`
}

// ScrapingPlan is the prioritized set of pages and documents to fetch
// before any requirement analysis happens.
type ScrapingPlan struct {
	MainPage      PlanMainPage `json:"main_page"`
	SubPages      []PlanTarget `json:"sub_pages"`
	Documents     []PlanTarget `json:"documents"`
	MaxPages      int          `json:"max_pages"`
	MaxDocuments  int          `json:"max_documents"`
	FocusKeywords []string     `json:"focus_keywords"`
}

const (
	DefaultMaxPages     = 8
	DefaultMaxDocuments = 5
)

// Normalize fills missing limits and nil slices, and removes duplicate
// focus keywords while keeping their first-seen order.
func (p *ScrapingPlan) Normalize() {
	if p.MaxPages <= 0 {
		p.MaxPages = DefaultMaxPages
	}
	if p.MaxDocuments <= 0 {
		p.MaxDocuments = DefaultMaxDocuments
	}
	if p.SubPages == nil {
		p.SubPages = []PlanTarget{}
	}
	if p.Documents == nil {
		p.Documents = []PlanTarget{}
	}

	seen := make(map[string]struct{}, len(p.FocusKeywords))
	keywords := make([]string, 0, len(p.FocusKeywords))
	for _, kw := range p.FocusKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	p.FocusKeywords = keywords
}

// PageRecord is a fetched HTML page held in memory for one analysis.
type PageRecord struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	RawMarkup      string   `json:"-"`
	NormalizedText string   `json:"normalized_text"`
	Priority       Priority `json:"priority,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// DocumentRecord is a fetched document and its extracted text. An empty
// ExtractedText is valid; extraction failures are not fatal.
type DocumentRecord struct {
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	ExtractedText string       `json:"extracted_text"`
	Type          DocumentType `json:"type"`
	Priority      Priority     `json:"priority,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// RequirementSet is the classified output of an analysis.
type RequirementSet struct {
	Attestations    []string `json:"attestations"`
	NonAttestations []string `json:"non_attestations"`
	AnalysisNotes   string   `json:"analysis_notes"`
}

// Result is returned by the analyzer. A failed result only carries URL,
// Error and AnalyzedAt; see MarshalJSON.
type Result struct {
	URL           string
	Title         string
	Requirements  RequirementSet
	AnalyzedAt    time.Time
	PagesAnalyzed int
	Plan          ScrapingPlan
	Error         string
}

// Failed reports whether the result carries a top-level error.
func (r Result) Failed() bool {
	return r.Error != ""
}

type successResult struct {
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	Requirements  RequirementSet `json:"requirements"`
	AnalyzedAt    time.Time      `json:"analyzed_at"`
	PagesAnalyzed int            `json:"pages_analyzed"`
	Plan          ScrapingPlan   `json:"ai_scraping_plan"`
}

type errorResult struct {
	URL        string    `json:"url"`
	Error      string    `json:"error"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// MarshalJSON emits either the success shape or the error shape, never a mix.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(errorResult{URL: r.URL, Error: r.Error, AnalyzedAt: r.AnalyzedAt})
	}
	return json.Marshal(successResult{
		URL:           r.URL,
		Title:         r.Title,
		Requirements:  r.Requirements,
		AnalyzedAt:    r.AnalyzedAt,
		PagesAnalyzed: r.PagesAnalyzed,
		Plan:          r.Plan,
	})
}
