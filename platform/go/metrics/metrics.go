package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Conversion outcomes recorded by RecordQuickNoteConversion.
const (
	ConversionSucceeded = "succeeded"
	ConversionPartial   = "partial"
	ConversionFailed    = "failed"
)

// Metrics holds the Prometheus collectors of the CRM API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge

	// Business metrics
	LeadEvents          *prometheus.CounterVec
	QuickNoteConversion *prometheus.CounterVec
	ExportsCreated      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry that also
// carries the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		registry: gatherer,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of HTTP requests being served",
		}),

		LeadEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_events_total",
				Help: "Lead mutations confirmed by the store",
			},
			[]string{"event"}, // created, updated, deleted, note_added, update_logged
		),
		QuickNoteConversion: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_quick_note_conversions_total",
				Help: "Quick note to lead conversions by outcome",
			},
			[]string{"result"},
		),
		ExportsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_exports_total",
				Help: "Lead exports served by format",
			},
			[]string{"format"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		m.LeadEvents,
		m.QuickNoteConversion,
		m.ExportsCreated,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by the chi route
// pattern, so /leads/{leadId} is one series regardless of id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPActiveRequests.Inc()
		defer m.HTTPActiveRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// RecordLeadEvent increments the lead events counter.
func (m *Metrics) RecordLeadEvent(event string) {
	if m == nil {
		return
	}
	m.LeadEvents.WithLabelValues(event).Inc()
}

// RecordQuickNoteConversion increments the conversion counter for the given outcome.
func (m *Metrics) RecordQuickNoteConversion(result string) {
	if m == nil {
		return
	}
	m.QuickNoteConversion.WithLabelValues(result).Inc()
}

// RecordExport increments the exports counter.
func (m *Metrics) RecordExport(format string) {
	if m == nil {
		return
	}
	m.ExportsCreated.WithLabelValues(format).Inc()
}
