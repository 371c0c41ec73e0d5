package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	t.Parallel()

	m := newTestMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/leads/{leadId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leads/"+id, nil))
	}

	require.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/leads/{leadId}", "404")))
	require.Equal(t, float64(0), testutil.ToFloat64(m.HTTPActiveRequests))
}

func TestRecordersAndExposition(t *testing.T) {
	t.Parallel()

	m := newTestMetrics()
	m.RecordLeadEvent("created")
	m.RecordLeadEvent("created")
	m.RecordQuickNoteConversion(ConversionPartial)
	m.RecordExport("xlsx")

	require.Equal(t, float64(2), testutil.ToFloat64(m.LeadEvents.WithLabelValues("created")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.QuickNoteConversion.WithLabelValues(ConversionPartial)))

	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), `crm_lead_exports_total{format="xlsx"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordLeadEvent("created")
	m.RecordQuickNoteConversion(ConversionFailed)
	m.RecordExport("csv")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	resp := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, resp.Code)
}
