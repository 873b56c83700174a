// Package planner asks the reasoning oracle which pages and documents of
// a subsidy page are worth reading, and checks its answer against the
// links that actually exist on the page.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"subsidyscout/internal/crawler"
	"subsidyscout/internal/llm"
	"subsidyscout/internal/metrics"
	"subsidyscout/internal/model"
	"subsidyscout/internal/scraper"
	"subsidyscout/internal/scrapeutil"
)

var (
	// ErrMainPageUnreachable is returned when the page to analyse cannot
	// be fetched. It ends the analysis.
	ErrMainPageUnreachable = errors.New("main page unreachable")
	// ErrOracleUnavailable is returned when the planning call itself
	// fails (transport, auth, configuration).
	ErrOracleUnavailable = errors.New("reasoning oracle unavailable")
)

const (
	defaultPageTextLimit    = 4000
	defaultMaxLinksInPrompt = 60
	defaultMaxTokens        = 2000
)

// Options tunes plan synthesis. Zero values fall back to defaults.
type Options struct {
	UserAgent        string
	PageTextLimit    int
	MaxLinksInPrompt int
	Temperature      float64
	MaxTokens        int
}

// Synthesizer fetches the main page, harvests its links and asks the
// oracle for a scraping plan.
type Synthesizer struct {
	client scraper.Client
	oracle llm.Completer
	opts   Options
	logger *slog.Logger
}

// Synthesis is everything planning learned about the main page. MainPage
// is reused by the crawl so the page is not fetched twice.
type Synthesis struct {
	Plan     model.ScrapingPlan
	MainPage model.PageRecord
	Links    crawler.HarvestResult
	Fallback bool
}

// NewSynthesizer constructs a Synthesizer. A nil logger uses slog.Default.
func NewSynthesizer(client scraper.Client, oracle llm.Completer, opts Options, logger *slog.Logger) *Synthesizer {
	if opts.PageTextLimit <= 0 {
		opts.PageTextLimit = defaultPageTextLimit
	}
	if opts.MaxLinksInPrompt <= 0 {
		opts.MaxLinksInPrompt = defaultMaxLinksInPrompt
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{client: client, oracle: oracle, opts: opts, logger: logger}
}

// Synthesize produces an unvalidated plan for mainURL. Fetch and oracle
// transport failures are returned as errors; an answer that cannot be
// parsed yields the fallback plan instead.
func (s *Synthesizer) Synthesize(ctx context.Context, mainURL string) (*Synthesis, error) {
	req := scraper.BuildRequestFromOptions(scraper.RequestOptions{
		URL:       mainURL,
		UserAgent: s.opts.UserAgent,
		Languages: scraper.DutchLanguages,
	})
	page, err := s.client.Scrape(ctx, req)
	if err != nil {
		metrics.RecordFetch(metrics.KindMain, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %s: %v", ErrMainPageUnreachable, mainURL, err)
	}
	metrics.RecordFetch(metrics.KindMain, metrics.OutcomeOK)

	links := crawler.Harvest(page.RawHTML, mainURL, nil)
	syn := &Synthesis{
		MainPage: model.PageRecord{
			URL:            mainURL,
			Title:          page.Title,
			RawMarkup:      page.RawHTML,
			NormalizedText: page.Text,
			Priority:       "high",
			Reason:         "Main subsidy page",
		},
		Links: links,
	}
	s.logger.Info("harvested links",
		"url", mainURL,
		"pages", len(links.Pages),
		"documents", len(links.Documents),
	)

	answer, err := s.oracle.Complete(ctx, llm.CompletionRequest{
		System:      planSystemPrompt,
		Prompt:      s.buildPrompt(mainURL, page.Title, page.Text, links),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		metrics.RecordLLMCall(metrics.StagePlan, metrics.OutcomeError)
		return nil, fmt.Errorf("%w: plan synthesis: %v", ErrOracleUnavailable, err)
	}

	plan, err := ParsePlan(answer)
	if err != nil {
		metrics.RecordLLMCall(metrics.StagePlan, metrics.OutcomeFallback)
		s.logger.Warn("plan answer unusable, falling back to main page only", "url", mainURL, "error", err)
		syn.Plan = FallbackPlan(mainURL, page.Title)
		syn.Fallback = true
		return syn, nil
	}
	metrics.RecordLLMCall(metrics.StagePlan, metrics.OutcomeOK)

	plan.MainPage.URL = mainURL
	if plan.MainPage.Title == "" {
		plan.MainPage.Title = page.Title
	}
	syn.Plan = plan
	return syn, nil
}

// ParsePlan decodes an oracle answer strictly: a fenced block is
// unwrapped, everything else must be a single JSON object.
func ParsePlan(answer string) (model.ScrapingPlan, error) {
	body, _ := llm.StripCodeFence(answer)
	body = strings.TrimSpace(body)
	if body == "" {
		return model.ScrapingPlan{}, llm.ErrNoJSON
	}

	var plan model.ScrapingPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return model.ScrapingPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	plan.Normalize()
	return plan, nil
}

// FallbackPlan covers only the main page.
func FallbackPlan(mainURL, title string) model.ScrapingPlan {
	plan := model.ScrapingPlan{
		MainPage: model.PlanMainPage{URL: mainURL, Title: title, Priority: "high"},
	}
	plan.Normalize()
	return plan
}

const planSystemPrompt = "You plan web crawls for analysing Dutch government subsidy schemes. " +
	"You only ever choose from the links you are given and you answer with a single JSON object."

func (s *Synthesizer) buildPrompt(mainURL, title, text string, links crawler.HarvestResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subsidy page: %s\n", mainURL)
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	b.WriteString("\nPage content:\n")
	b.WriteString(scrapeutil.Truncate(text, s.opts.PageTextLimit))
	b.WriteString("\n\nAvailable page links:\n")

	pages := links.Pages
	if len(pages) > s.opts.MaxLinksInPrompt {
		pages = pages[:s.opts.MaxLinksInPrompt]
	}
	writeLinks(&b, pages)

	b.WriteString("\nAvailable document links:\n")
	writeLinks(&b, links.Documents)

	b.WriteString(`
Select the sub-pages and documents most likely to describe who can apply,
which conditions apply and which documents or data an applicant must supply
(voorwaarden, aanvragen, verplichte bijlagen, formulieren, regelingen).
Only use URLs exactly as listed above. Do not invent URLs.

Answer with JSON in exactly this shape:
{
  "main_page": {"url": "<subsidy page url>", "title": "<page title>", "priority": "high"},
  "sub_pages": [{"url": "<listed page url>", "reason": "<why>", "priority": "high|medium|low"}],
  "documents": [{"url": "<listed document url>", "reason": "<why>", "priority": "high|medium|low"}],
  "max_pages": 8,
  "max_documents": 5,
  "focus_keywords": ["<keyword>"]
}`)
	return b.String()
}

func writeLinks(b *strings.Builder, links []model.LinkRecord) {
	if len(links) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, l := range links {
		text := l.DisplayText
		if text == "" {
			text = scrapeutil.LastPathSegment(l.URL)
		}
		fmt.Fprintf(b, "- %s | %s\n", l.URL, text)
	}
}
