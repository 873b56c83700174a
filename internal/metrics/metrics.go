package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline and HTTP counters, registered on a private registry so tests
// and embedding programs never collide with the default one.

const namespace = "subsidyscout"

var (
	registry = prometheus.NewRegistry()

	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed analyses by outcome.",
	}, []string{"outcome"})

	fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Target fetches by kind (main, page, document) and outcome.",
	}, []string{"kind", "outcome"})

	llmCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_calls_total",
		Help:      "Oracle calls by pipeline stage and outcome.",
	}, []string{"stage", "outcome"})

	planRejectedURLs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_rejected_urls_total",
		Help:      "Planned URLs dropped because they were not harvested from the page.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
	}, []string{"method", "path"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		analysesTotal,
		fetchesTotal,
		llmCallsTotal,
		planRejectedURLs,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// Fetch kinds.
const (
	KindMain     = "main"
	KindPage     = "page"
	KindDocument = "document"
)

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "fallback"
)

// Oracle stages.
const (
	StagePlan     = "plan"
	StageClassify = "classify"
)

// RecordAnalysis counts a finished analysis.
func RecordAnalysis(success bool) {
	outcome := OutcomeOK
	if !success {
		outcome = OutcomeError
	}
	analysesTotal.WithLabelValues(outcome).Inc()
}

// RecordFetch counts a single target fetch.
func RecordFetch(kind, outcome string) {
	fetchesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordLLMCall counts an oracle call for stage. outcome is one of
// OutcomeOK, OutcomeError or OutcomeFallback (answer could not be parsed).
func RecordLLMCall(stage, outcome string) {
	llmCallsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordRejectedURLs adds n to the rejected plan URL counter.
func RecordRejectedURLs(n int) {
	if n <= 0 {
		return
	}
	planRejectedURLs.Add(float64(n))
}

// RecordRequest increments the request counter and observes latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(float64(latencyMs) / 1000)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Gatherer exposes the registry for tests and embedding programs.
func Gatherer() prometheus.Gatherer {
	return registry
}
