package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	authFailures     *prometheus.CounterVec
	authzDenials     *prometheus.CounterVec
	auditWriteErrors prometheus.Counter
	rangeAllocated   *prometheus.GaugeVec
	rangeCapacity    *prometheus.GaugeVec
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubcore_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	authFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_auth_failures_total",
		Help: "Failed authentication attempts by realm.",
	}, []string{"realm"})
	authzDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clubcore_authz_denials_total",
		Help: "Authorization denials by capability and role.",
	}, []string{"capability", "role"})
	auditWriteErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clubcore_audit_write_failures_total",
		Help: "Audit events that could not be persisted.",
	})
	rangeAllocated := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clubcore_idrange_allocated",
		Help: "Identifiers issued per range kind.",
	}, []string{"kind"})
	rangeCapacity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clubcore_idrange_capacity",
		Help: "Total identifier capacity per range kind.",
	}, []string{"kind"})
	registry.MustRegister(requests, duration, authFailures, authzDenials, auditWriteErrors, rangeAllocated, rangeCapacity)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		authFailures:     authFailures,
		authzDenials:     authzDenials,
		auditWriteErrors: auditWriteErrors,
		rangeAllocated:   rangeAllocated,
		rangeCapacity:    rangeCapacity,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// AuthFailure counts one failed authentication attempt.
func (m *Metrics) AuthFailure(realm string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(realm).Inc()
}

// AuthzDenial counts one authorization denial.
func (m *Metrics) AuthzDenial(capability, role string) {
	if m == nil {
		return
	}
	m.authzDenials.WithLabelValues(capability, role).Inc()
}

// AuditWriteFailure counts one failed audit append.
func (m *Metrics) AuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteErrors.Inc()
}

// SetRangeUsage publishes allocator usage for a range kind.
func (m *Metrics) SetRangeUsage(kind string, allocated, capacity int64) {
	if m == nil {
		return
	}
	m.rangeAllocated.WithLabelValues(kind).Set(float64(allocated))
	m.rangeCapacity.WithLabelValues(kind).Set(float64(capacity))
}

// Registerer exposes the registry for custom collector registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
