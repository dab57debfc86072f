package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetric returns the sample of c whose labels include all of labels.
func findMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		matched := 0
		for _, lp := range d.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return d
		}
	}
	return nil
}

func TestPrometheusMetrics_ObservesLatencyPerRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("latency-test"))
	r.Post("/cart/items", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/cart/items", nil))
	}

	m := findMetric(t, httpRequestDuration, map[string]string{
		"service": "latency-test",
		"method":  http.MethodPost,
		"path":    "/cart/items",
	})
	require.NotNil(t, m)
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("unmatched-test"))
	r.Get("/known", func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	m := findMetric(t, httpRequestsTotal, map[string]string{
		"service": "unmatched-test",
		"path":    "unmatched",
		"status":  "404",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}
