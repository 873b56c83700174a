// Package crawl walks a validated scraping plan, one target at a time.
package crawl

import (
	"context"
	"log/slog"
	"time"

	"subsidyscout/internal/crawler"
	"subsidyscout/internal/extract"
	"subsidyscout/internal/metrics"
	"subsidyscout/internal/model"
	"subsidyscout/internal/scraper"
	"subsidyscout/internal/scrapeutil"
)

// DefaultMaxDocumentBytes caps a single document download.
const DefaultMaxDocumentBytes = 20 << 20

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures an Executor.
type Options struct {
	UserAgent string
	// Delay is inserted after every successful fetch, before the next
	// request goes out.
	Delay            time.Duration
	MaxDocumentBytes int64
	// Robots may be nil, which allows everything.
	Robots *crawler.RobotsPolicy
	Sleep  Sleeper
	Logger *slog.Logger
}

// Output is what the crawl collected.
type Output struct {
	Pages     []model.PageRecord
	Documents []model.DocumentRecord
}

// Executor fetches the targets of a single plan. It holds the VisitedSet
// for that analysis, so a new Executor must be created per analysis.
type Executor struct {
	client  scraper.Client
	opts    Options
	visited *VisitedSet
	logger  *slog.Logger

	// delayPending is set after a successful fetch and cleared once the
	// politeness delay has been observed.
	delayPending bool
}

func New(client scraper.Client, opts Options) *Executor {
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if opts.Sleep == nil {
		opts.Sleep = ContextSleep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client:  client,
		opts:    opts,
		visited: NewVisitedSet(),
		logger:  logger,
	}
}

// Visited exposes the executor's VisitedSet.
func (e *Executor) Visited() *VisitedSet {
	return e.visited
}

// Execute walks plan: the main page first, then up to plan.MaxPages
// sub-pages and up to plan.MaxDocuments documents, in plan order. When
// mainPage is non-nil it is the page already fetched during planning and
// is reused as is. Failures of individual targets are logged and skipped;
// Execute itself never fails. A cancelled ctx stops the walk and returns
// what was collected so far.
func (e *Executor) Execute(ctx context.Context, plan model.ScrapingPlan, mainPage *model.PageRecord) Output {
	plan.Normalize()
	out := Output{
		Pages:     []model.PageRecord{},
		Documents: []model.DocumentRecord{},
	}

	if mainPage != nil {
		e.visited.Add(mainPage.URL)
		out.Pages = append(out.Pages, *mainPage)
	} else if page, ok := e.fetchPage(ctx, plan.MainPage.URL, metrics.KindMain, false); ok {
		if page.Title == "" {
			page.Title = plan.MainPage.Title
		}
		if page.Title == "" {
			page.Title = scrapeutil.LastPathSegment(page.URL)
		}
		page.Priority = plan.MainPage.Priority
		page.Reason = "Main subsidy page"
		out.Pages = append(out.Pages, page)
	}

	for _, target := range limit(plan.SubPages, plan.MaxPages) {
		if ctx.Err() != nil {
			return out
		}
		page, ok := e.fetchPage(ctx, target.URL, metrics.KindPage, true)
		if !ok {
			continue
		}
		if page.Title == "" {
			page.Title = scrapeutil.LastPathSegment(page.URL)
		}
		page.Priority = target.Priority
		page.Reason = target.Reason
		out.Pages = append(out.Pages, page)
	}

	for _, target := range limit(plan.Documents, plan.MaxDocuments) {
		if ctx.Err() != nil {
			return out
		}
		doc, ok := e.fetchDocument(ctx, target)
		if !ok {
			continue
		}
		out.Documents = append(out.Documents, doc)
	}

	e.logger.Info("crawl finished",
		"url", plan.MainPage.URL,
		"pages", len(out.Pages),
		"documents", len(out.Documents),
		"visited", e.visited.Len(),
	)
	return out
}

func limit(targets []model.PlanTarget, n int) []model.PlanTarget {
	if n >= 0 && len(targets) > n {
		return targets[:n]
	}
	return targets
}

// admit decides whether link should be requested at all and marks it
// visited when it should. A URL is requested at most once per analysis,
// whatever the outcome of that request.
func (e *Executor) admit(link, kind string) bool {
	if !scrapeutil.IsHTTPURL(link) {
		e.logger.Debug("skipping invalid target url", "kind", kind, "url", link)
		metrics.RecordFetch(kind, metrics.OutcomeSkipped)
		return false
	}
	if e.visited.Visited(link) {
		e.logger.Debug("skipping visited target", "kind", kind, "url", link)
		metrics.RecordFetch(kind, metrics.OutcomeSkipped)
		return false
	}
	if !e.opts.Robots.Allowed(link) {
		e.logger.Info("robots.txt disallows target", "kind", kind, "url", link)
		metrics.RecordFetch(kind, metrics.OutcomeSkipped)
		return false
	}
	e.visited.Add(link)
	return true
}

// pace observes the politeness delay owed by the previous successful
// fetch. It returns false when ctx ended while waiting.
func (e *Executor) pace(ctx context.Context) bool {
	if !e.delayPending {
		return true
	}
	e.delayPending = false
	if err := e.opts.Sleep(ctx, e.opts.Delay); err != nil {
		return false
	}
	return true
}

func (e *Executor) request(link string) scraper.Request {
	return scraper.BuildRequestFromOptions(scraper.RequestOptions{
		URL:       link,
		UserAgent: e.opts.UserAgent,
		Languages: scraper.DutchLanguages,
	})
}

func (e *Executor) fetchPage(ctx context.Context, link, kind string, probe bool) (model.PageRecord, bool) {
	if !e.admit(link, kind) || !e.pace(ctx) {
		return model.PageRecord{}, false
	}
	req := e.request(link)

	if probe {
		if err := e.client.Probe(ctx, req); err != nil {
			e.logger.Debug("probe failed, skipping page", "url", link, "error", err)
			metrics.RecordFetch(kind, metrics.OutcomeSkipped)
			return model.PageRecord{}, false
		}
	}

	res, err := e.client.Scrape(ctx, req)
	if err != nil {
		e.logger.Warn("page fetch failed", "url", link, "error", err)
		metrics.RecordFetch(kind, metrics.OutcomeError)
		return model.PageRecord{}, false
	}
	metrics.RecordFetch(kind, metrics.OutcomeOK)
	e.delayPending = true

	return model.PageRecord{
		URL:            link,
		Title:          res.Title,
		RawMarkup:      res.RawHTML,
		NormalizedText: res.Text,
	}, true
}

func (e *Executor) fetchDocument(ctx context.Context, target model.PlanTarget) (model.DocumentRecord, bool) {
	if !e.admit(target.URL, metrics.KindDocument) || !e.pace(ctx) {
		return model.DocumentRecord{}, false
	}

	data, err := e.client.Download(ctx, e.request(target.URL), e.opts.MaxDocumentBytes)
	if err != nil {
		e.logger.Warn("document fetch failed", "url", target.URL, "error", err)
		metrics.RecordFetch(metrics.KindDocument, metrics.OutcomeError)
		return model.DocumentRecord{}, false
	}
	metrics.RecordFetch(metrics.KindDocument, metrics.OutcomeOK)
	e.delayPending = true

	docType := crawler.DocumentTypeOf(target.URL)
	text := extract.Text(docType, data)
	if text == "" {
		e.logger.Info("no text extracted from document", "url", target.URL, "type", docType, "bytes", len(data))
	}
	return model.DocumentRecord{
		URL:           target.URL,
		Title:         scrapeutil.LastPathSegment(target.URL),
		ExtractedText: text,
		Type:          docType,
		Priority:      target.Priority,
		Reason:        target.Reason,
	}, true
}
