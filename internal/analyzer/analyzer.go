// Package analyzer wires the pipeline together: plan, validate, crawl,
// classify.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"subsidyscout/internal/classifier"
	"subsidyscout/internal/config"
	"subsidyscout/internal/crawl"
	"subsidyscout/internal/crawler"
	"subsidyscout/internal/llm"
	"subsidyscout/internal/metrics"
	"subsidyscout/internal/model"
	"subsidyscout/internal/planner"
	"subsidyscout/internal/scraper"
	"subsidyscout/internal/scrapeutil"
	"subsidyscout/internal/vocab"
)

// ErrInvalidURL is returned for anything but an absolute http(s) URL.
var ErrInvalidURL = errors.New("url must be an absolute http or https URL")

// Analyzer is the single entry point used by the HTTP and CLI shims.
type Analyzer interface {
	AnalyzeSubsidy(ctx context.Context, url string) model.Result
}

// Service runs analyses. It holds no per-analysis state and is safe for
// concurrent use; every call builds its own crawl executor.
type Service struct {
	cfg        *config.Config
	client     scraper.Client
	oracle     llm.Completer
	vocab      vocab.Vocabulary
	logger     *slog.Logger
	sleep      crawl.Sleeper
	now        func() time.Time
	robotsHTTP *http.Client
}

type Option func(*Service)

// WithSleeper replaces the politeness delay implementation.
func WithSleeper(s crawl.Sleeper) Option {
	return func(svc *Service) { svc.sleep = s }
}

// WithClock replaces time.Now for analyzed_at.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// WithRobotsClient sets the client used to fetch robots.txt.
func WithRobotsClient(c *http.Client) Option {
	return func(svc *Service) { svc.robotsHTTP = c }
}

func NewService(cfg *config.Config, client scraper.Client, oracle llm.Completer, v vocab.Vocabulary, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:    cfg,
		client: client,
		oracle: oracle,
		vocab:  v,
		logger: logger,
		sleep:  crawl.ContextSleep,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.robotsHTTP == nil {
		s.robotsHTTP = robotsClientFor(client, cfg.ScraperTimeout())
	}
	return s
}

func robotsClientFor(c scraper.Client, timeout time.Duration) *http.Client {
	switch sc := c.(type) {
	case *scraper.HTTPScraper:
		return sc.HTTPClient()
	case *scraper.BrowserClient:
		if sc.HTTP != nil {
			return sc.HTTP.HTTPClient()
		}
	}
	return &http.Client{Timeout: timeout}
}

// AnalyzeSubsidy runs the whole pipeline for url. It always returns a
// Result: either a success or one carrying a top-level error.
func (s *Service) AnalyzeSubsidy(ctx context.Context, url string) model.Result {
	start := s.now()
	logger := s.logger.With("url", url)

	res, err := s.analyze(ctx, url, logger)
	res.URL = url
	res.AnalyzedAt = s.now().UTC()
	if err != nil {
		metrics.RecordAnalysis(false)
		logger.Error("analysis failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return model.Result{URL: url, Error: err.Error(), AnalyzedAt: res.AnalyzedAt}
	}

	metrics.RecordAnalysis(true)
	logger.Info("analysis finished",
		"pages_analyzed", res.PagesAnalyzed,
		"attestations", len(res.Requirements.Attestations),
		"non_attestations", len(res.Requirements.NonAttestations),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (s *Service) analyze(ctx context.Context, url string, logger *slog.Logger) (model.Result, error) {
	if !scrapeutil.IsHTTPURL(url) {
		return model.Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	if s.oracle == nil {
		return model.Result{}, fmt.Errorf("%w: %v", planner.ErrOracleUnavailable, llm.ErrNotConfigured)
	}

	synth := planner.NewSynthesizer(s.client, s.oracle, planner.Options{
		UserAgent:        s.cfg.Scraper.UserAgent,
		PageTextLimit:    s.cfg.Planner.PageTextLimit,
		MaxLinksInPrompt: s.cfg.Planner.MaxLinksInPrompt,
		Temperature:      s.cfg.Planner.Temperature,
		MaxTokens:        s.cfg.Planner.MaxTokens,
	}, logger)
	syn, err := synth.Synthesize(ctx, url)
	if err != nil {
		return model.Result{}, err
	}

	plan, dropped := planner.Validator{ValidateDocuments: s.cfg.Planner.ValidateDocuments}.
		Validate(syn.Plan, syn.Links.Pages, syn.Links.Documents)
	if len(dropped) > 0 {
		metrics.RecordRejectedURLs(len(dropped))
		logger.Warn("plan referenced urls that are not on the page", "dropped", dropped)
	}
	logger.Info("plan ready",
		"fallback", syn.Fallback,
		"sub_pages", len(plan.SubPages),
		"documents", len(plan.Documents),
		"max_pages", plan.MaxPages,
		"max_documents", plan.MaxDocuments,
	)

	var robots *crawler.RobotsPolicy
	if s.cfg.Robots.Respect {
		robots = crawler.LoadRobots(ctx, s.robotsHTTP, url, s.cfg.Scraper.UserAgent)
	}
	exec := crawl.New(s.client, crawl.Options{
		UserAgent:        s.cfg.Scraper.UserAgent,
		Delay:            s.cfg.CrawlDelay(),
		MaxDocumentBytes: s.cfg.Crawl.MaxDocumentBytes,
		Robots:           robots,
		Sleep:            s.sleep,
		Logger:           logger,
	})
	out := exec.Execute(ctx, plan, &syn.MainPage)

	cls := classifier.New(s.oracle, s.vocab, classifier.Options{
		ContentLimit: s.cfg.Classifier.ContentLimit,
		Temperature:  s.cfg.Classifier.Temperature,
		MaxTokens:    s.cfg.Classifier.MaxTokens,
	}, logger)
	reqs, err := cls.Classify(ctx, out.Pages, out.Documents)
	if err != nil {
		return model.Result{}, err
	}

	title := plan.MainPage.Title
	if title == "" {
		title = syn.MainPage.Title
	}
	return model.Result{
		Title:         title,
		Requirements:  reqs,
		PagesAnalyzed: len(out.Pages) + len(out.Documents),
		Plan:          plan,
	}, nil
}
