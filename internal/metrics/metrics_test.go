package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecordRequestAndExport(t *testing.T) {
	RecordRequest("POST", "/v1/analyze", 200, 42)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `subsidyscout_http_requests_total{method="POST",path="/v1/analyze",status="200"}`)
	assert.Contains(t, out, "subsidyscout_http_request_duration_seconds_bucket")
	assert.Contains(t, out, "go_goroutines")
}

func TestPipelineCounters(t *testing.T) {
	beforeOK := counterValue(t, "subsidyscout_analyses_total", map[string]string{"outcome": "ok"})
	beforeErr := counterValue(t, "subsidyscout_analyses_total", map[string]string{"outcome": "error"})
	RecordAnalysis(true)
	RecordAnalysis(false)
	RecordAnalysis(false)
	assert.Equal(t, beforeOK+1, counterValue(t, "subsidyscout_analyses_total", map[string]string{"outcome": "ok"}))
	assert.Equal(t, beforeErr+2, counterValue(t, "subsidyscout_analyses_total", map[string]string{"outcome": "error"}))

	fetchLabels := map[string]string{"kind": KindDocument, "outcome": OutcomeSkipped}
	before := counterValue(t, "subsidyscout_fetches_total", fetchLabels)
	RecordFetch(KindDocument, OutcomeSkipped)
	assert.Equal(t, before+1, counterValue(t, "subsidyscout_fetches_total", fetchLabels))

	llmLabels := map[string]string{"stage": StagePlan, "outcome": OutcomeFallback}
	before = counterValue(t, "subsidyscout_llm_calls_total", llmLabels)
	RecordLLMCall(StagePlan, OutcomeFallback)
	assert.Equal(t, before+1, counterValue(t, "subsidyscout_llm_calls_total", llmLabels))
}

func TestRecordRejectedURLs_IgnoresNonPositive(t *testing.T) {
	before := counterValue(t, "subsidyscout_plan_rejected_urls_total", nil)
	RecordRejectedURLs(0)
	RecordRejectedURLs(-3)
	RecordRejectedURLs(2)
	assert.Equal(t, before+2, counterValue(t, "subsidyscout_plan_rejected_urls_total", nil))
}
