// Package metrics exposes Prometheus instrumentation for the API and the analysis pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeNoMatches  = "no_matches"
	OutcomeParseError = "parse_error"
	OutcomeError      = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibliotek_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibliotek_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bibliotek_analysis_total",
			Help: "Total number of bookshelf analyses by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// Vision models are slow; buckets reach two minutes
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bibliotek_analysis_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	AnalysisCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bibliotek_analysis_cache_hits_total",
			Help: "Total number of analyses answered from the cache",
		},
	)
)

// RecordAnalysis counts one analysis and, for provider calls, its duration
func RecordAnalysis(provider, outcome string, duration time.Duration) {
	AnalysisTotal.WithLabelValues(provider, outcome).Inc()
	if duration > 0 {
		AnalysisDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// RecordCacheHit counts an analysis served from the cache
func RecordCacheHit() {
	AnalysisCacheHits.Inc()
}

// Middleware records request counts and latency, labelled by chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
