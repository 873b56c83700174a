package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsidyscout/internal/crawler"
	"subsidyscout/internal/model"
	"subsidyscout/internal/scraper"
)

// fakeClient serves pages and documents from maps and logs every request,
// together with sleeps, in a single timeline.
type fakeClient struct {
	pages     map[string]string
	docs      map[string][]byte
	probeFail map[string]bool
	timeline  []string
}

func (f *fakeClient) Scrape(_ context.Context, req scraper.Request) (*scraper.Result, error) {
	f.timeline = append(f.timeline, "GET "+req.URL)
	markup, ok := f.pages[req.URL]
	if !ok {
		return nil, &scraper.StatusError{URL: req.URL, Code: http.StatusNotFound}
	}
	title, text := scraper.Normalize(markup, req.URL)
	return &scraper.Result{URL: req.URL, Title: title, RawHTML: markup, Text: text, Status: 200}, nil
}

func (f *fakeClient) Probe(_ context.Context, req scraper.Request) error {
	f.timeline = append(f.timeline, "HEAD "+req.URL)
	if f.probeFail[req.URL] {
		return &scraper.StatusError{URL: req.URL, Code: http.StatusNotFound}
	}
	return nil
}

func (f *fakeClient) Download(_ context.Context, req scraper.Request, _ int64) ([]byte, error) {
	f.timeline = append(f.timeline, "GET "+req.URL)
	data, ok := f.docs[req.URL]
	if !ok {
		return nil, &scraper.StatusError{URL: req.URL, Code: http.StatusNotFound}
	}
	return data, nil
}

func (f *fakeClient) sleeper() Sleeper {
	return func(_ context.Context, d time.Duration) error {
		f.timeline = append(f.timeline, fmt.Sprintf("SLEEP %s", d))
		return nil
	}
}

func (f *fakeClient) count(entry string) int {
	n := 0
	for _, e := range f.timeline {
		if e == entry {
			n++
		}
	}
	return n
}

func page(title, body string) string {
	return "<html><head><title>" + title + "</title></head><body><p>" + body + "</p></body></html>"
}

func target(url string) model.PlanTarget {
	return model.PlanTarget{URL: url, Reason: "reason for " + url, Priority: "high"}
}

const base = "https://www.rvo.nl"

func TestExecute_ReusesMainPageAndDelaysBetweenSuccesses(t *testing.T) {
	fc := &fakeClient{
		pages: map[string]string{base + "/onderwerpen/a": page("Voorwaarden", "Alleen mkb")},
		docs:  map[string][]byte{base + "/doc/plan.pdf": []byte("not really a pdf")},
	}
	ex := New(fc, Options{Delay: time.Second, Sleep: fc.sleeper()})
	main := &model.PageRecord{URL: base + "/regeling", Title: "Regeling", NormalizedText: "hoofdtekst"}

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		MainPage:  model.PlanMainPage{URL: base + "/regeling"},
		SubPages:  []model.PlanTarget{target(base + "/onderwerpen/a")},
		Documents: []model.PlanTarget{target(base + "/doc/plan.pdf")},
	}, main)

	assert.Equal(t, []string{
		"HEAD " + base + "/onderwerpen/a",
		"GET " + base + "/onderwerpen/a",
		"SLEEP 1s",
		"GET " + base + "/doc/plan.pdf",
	}, fc.timeline)

	require.Len(t, out.Pages, 2)
	assert.Equal(t, *main, out.Pages[0])
	assert.Equal(t, "Voorwaarden", out.Pages[1].Title)
	assert.Equal(t, "Alleen mkb", out.Pages[1].NormalizedText)
	assert.Equal(t, "reason for "+base+"/onderwerpen/a", out.Pages[1].Reason)

	require.Len(t, out.Documents, 1)
	doc := out.Documents[0]
	assert.Equal(t, "plan.pdf", doc.Title)
	assert.Equal(t, model.DocumentTypePDF, doc.Type)
	assert.Empty(t, doc.ExtractedText, "unreadable documents are kept with empty text")
	assert.Equal(t, model.Priority("high"), doc.Priority)
}

func TestExecute_FetchesMainPageWhenNotProvided(t *testing.T) {
	fc := &fakeClient{pages: map[string]string{base + "/regeling": page("", "tekst")}}
	ex := New(fc, Options{Sleep: fc.sleeper()})

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		MainPage: model.PlanMainPage{URL: base + "/regeling", Title: "Plan titel"},
	}, nil)

	require.Len(t, out.Pages, 1)
	assert.Equal(t, "Plan titel", out.Pages[0].Title)
	assert.Equal(t, []string{"GET " + base + "/regeling"}, fc.timeline, "main page is not probed")
}

func TestExecute_MainPageFailureIsNotFatal(t *testing.T) {
	fc := &fakeClient{pages: map[string]string{base + "/a": page("A", "a")}}
	ex := New(fc, Options{Sleep: fc.sleeper()})

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		MainPage: model.PlanMainPage{URL: base + "/gone"},
		SubPages: []model.PlanTarget{target(base + "/a")},
	}, nil)

	require.Len(t, out.Pages, 1)
	assert.Equal(t, base+"/a", out.Pages[0].URL)
	assert.Equal(t, []string{
		"GET " + base + "/gone",
		"HEAD " + base + "/a",
		"GET " + base + "/a",
	}, fc.timeline, "failed fetches owe no delay")
}

func TestExecute_SameURLFetchedAtMostOnce(t *testing.T) {
	shared := base + "/bijlage"
	fc := &fakeClient{
		pages: map[string]string{shared: page("Bijlage", "b")},
		docs:  map[string][]byte{shared: []byte("b")},
	}
	ex := New(fc, Options{Sleep: fc.sleeper()})
	main := &model.PageRecord{URL: base + "/regeling"}

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		SubPages:  []model.PlanTarget{target(shared), target(shared), target(base + "/regeling")},
		Documents: []model.PlanTarget{target(shared), target(base + "/regeling")},
	}, main)

	assert.Equal(t, 1, fc.count("GET "+shared))
	assert.Equal(t, 1, fc.count("HEAD "+shared))
	assert.Zero(t, fc.count("GET "+base+"/regeling"))
	assert.Len(t, out.Pages, 2)
	assert.Empty(t, out.Documents)
	assert.True(t, ex.Visited().Visited(shared))
}

func TestExecute_FailedProbeSkipsWithoutDelay(t *testing.T) {
	fc := &fakeClient{
		pages:     map[string]string{base + "/a": page("A", "a"), base + "/b": page("B", "b"), base + "/c": page("C", "c")},
		probeFail: map[string]bool{base + "/b": true},
	}
	ex := New(fc, Options{Delay: 50 * time.Millisecond, Sleep: fc.sleeper()})

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		SubPages: []model.PlanTarget{target(base + "/a"), target(base + "/b"), target(base + "/c")},
	}, nil)

	require.Len(t, out.Pages, 2)
	assert.Equal(t, base+"/a", out.Pages[0].URL)
	assert.Equal(t, base+"/c", out.Pages[1].URL)
	assert.Zero(t, fc.count("GET "+base+"/b"))
	assert.Equal(t, 1, fc.count("SLEEP 50ms"))
}

func TestExecute_LimitsCountPlanSlots(t *testing.T) {
	fc := &fakeClient{pages: map[string]string{}, docs: map[string][]byte{}}
	var subPages, docs []model.PlanTarget
	for i := 0; i < 12; i++ {
		u := fmt.Sprintf("%s/p/%d", base, i)
		fc.pages[u] = page(fmt.Sprintf("P%d", i), "x")
		subPages = append(subPages, target(u))
		d := fmt.Sprintf("%s/d/%d.docx", base, i)
		fc.docs[d] = []byte("x")
		docs = append(docs, target(d))
	}
	// The first slot is a failing probe and still counts.
	fc.probeFail = map[string]bool{base + "/p/0": true}
	ex := New(fc, Options{Sleep: fc.sleeper()})

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		SubPages:     subPages,
		Documents:    docs,
		MaxPages:     3,
		MaxDocuments: 0, // defaults to 5
	}, nil)

	assert.Len(t, out.Pages, 2)
	assert.Len(t, out.Documents, model.DefaultMaxDocuments)
	assert.Zero(t, fc.count("HEAD "+base+"/p/3"))
}

func TestExecute_RespectsRobots(t *testing.T) {
	policy, err := crawler.ParseRobots("www.rvo.nl", []byte("User-agent: *\nDisallow: /intern/\n"), "subsidyscout")
	require.NoError(t, err)
	fc := &fakeClient{pages: map[string]string{
		base + "/intern/x": page("X", "x"),
		base + "/publiek":  page("P", "p"),
	}}
	ex := New(fc, Options{Robots: policy, Sleep: fc.sleeper()})

	out := ex.Execute(context.Background(), model.ScrapingPlan{
		SubPages: []model.PlanTarget{target(base + "/intern/x"), target(base + "/publiek")},
	}, nil)

	require.Len(t, out.Pages, 1)
	assert.Equal(t, base+"/publiek", out.Pages[0].URL)
	assert.Zero(t, fc.count("HEAD "+base+"/intern/x"))
}

func TestExecute_CancelledContextStops(t *testing.T) {
	fc := &fakeClient{pages: map[string]string{base + "/a": page("A", "a"), base + "/b": page("B", "b")}}
	ctx, cancel := context.WithCancel(context.Background())
	ex := New(fc, Options{Delay: time.Hour, Sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ContextSleep(ctx, d)
	}})

	out := ex.Execute(ctx, model.ScrapingPlan{
		SubPages: []model.PlanTarget{target(base + "/a"), target(base + "/b")},
	}, nil)

	require.Len(t, out.Pages, 1)
	assert.Zero(t, fc.count("HEAD "+base+"/b"))
}

func TestContextSleep(t *testing.T) {
	require.NoError(t, ContextSleep(context.Background(), 0))
	require.NoError(t, ContextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ContextSleep(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecute_OverHTTP(t *testing.T) {
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/voorwaarden":
			fmt.Fprint(w, page("Voorwaarden", "U heeft een KvK-nummer nodig."))
		case "/groot.pdf":
			w.Write([]byte(strings.Repeat("x", 2048)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ex := New(scraper.NewHTTPScraperWithClient(srv.Client()), Options{MaxDocumentBytes: 1024})
	out := ex.Execute(context.Background(), model.ScrapingPlan{
		SubPages:  []model.PlanTarget{target(srv.URL + "/voorwaarden"), target(srv.URL + "/weg")},
		Documents: []model.PlanTarget{target(srv.URL + "/groot.pdf")},
	}, &model.PageRecord{URL: srv.URL + "/"})

	require.Len(t, out.Pages, 2)
	assert.Contains(t, out.Pages[1].NormalizedText, "KvK-nummer")
	assert.Empty(t, out.Documents, "oversized documents are skipped")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"HEAD /voorwaarden", "GET /voorwaarden", "HEAD /weg", "GET /groot.pdf",
	}, methods)
}
