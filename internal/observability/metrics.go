package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the admin app, the remote client
// and the background worker.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	remoteTotal     *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	staleResponses  *prometheus.CounterVec
	hiddenRows      *prometheus.CounterVec
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "challan_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "challan_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	remote := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "challan_remote_requests_total",
		Help: "Requests to the remote collection API by operation and outcome.",
	}, []string{"op", "outcome"})
	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "challan_remote_request_duration_seconds",
		Help:    "Remote collection API latency per operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "challan_list_stale_responses_total",
		Help: "List responses discarded because a newer request was issued.",
	}, []string{"entity"})
	hidden := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "challan_list_hidden_rows_total",
		Help: "Rows returned by the server that contradict the current list inputs.",
	}, []string{"entity"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "challan_jobs_total",
		Help: "Background tasks processed by type and status.",
	}, []string{"task", "status"})
	registry.MustRegister(requests, duration, remote, remoteDuration, stale, hidden, jobs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		remoteTotal:     remote,
		remoteDuration:  remoteDuration,
		staleResponses:  stale,
		hiddenRows:      hidden,
		jobsTotal:       jobs,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route.
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

// ObserveRemote records one call to the remote API.
func (m *Metrics) ObserveRemote(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.remoteTotal.WithLabelValues(op, outcome).Inc()
	m.remoteDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// StaleResponse counts a discarded list response.
func (m *Metrics) StaleResponse(entity string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(entity).Inc()
}

// FilterMismatch counts rows hidden by the local filter.
func (m *Metrics) FilterMismatch(entity string, hidden int) {
	if m == nil {
		return
	}
	m.hiddenRows.WithLabelValues(entity).Add(float64(hidden))
}

// JobProcessed counts a finished background task.
func (m *Metrics) JobProcessed(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// Registerer exposes the registry for custom collectors.
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
