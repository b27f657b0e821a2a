package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_sessions_active",
			Help: "Number of interview sessions currently in progress",
		},
	)
	SessionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_completed_total",
			Help: "Total number of interview sessions completed",
		},
	)

	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_tasks_enqueued_total",
			Help: "Total number of analysis tasks enqueued",
		},
		[]string{"tier"},
	)
	TasksQueued = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "analysis_tasks_queued",
			Help: "Number of analysis tasks waiting per priority tier",
		},
		[]string{"tier"},
	)
	TasksProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analysis_tasks_processing",
			Help: "Number of analysis tasks currently processing",
		},
	)
	TasksCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_tasks_completed_total",
			Help: "Total number of analysis tasks completed",
		},
	)
	TasksFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_tasks_failed_total",
			Help: "Total number of analysis tasks failed",
		},
	)
	TasksRetriedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_tasks_retried_total",
			Help: "Total number of analysis task retries scheduled",
		},
	)
	TasksAbandonedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_tasks_abandoned_total",
			Help: "Total number of analysis tasks abandoned past the retry ceiling",
		},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "End-to-end analysis pipeline duration per task",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
	InvalidInterviewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_invalid_interviews_total",
			Help: "Total number of interviews rejected by the response validator",
		},
	)
	OverallScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_overall_score",
			Help:    "Distribution of overall interview scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	EvaluatorFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_evaluator_fallbacks_total",
			Help: "Total number of LLM evaluator failures that fell back to the heuristic scorer",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to
// call from both the server and worker entrypoints.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ActiveSessions,
			SessionsCompletedTotal,
			TasksEnqueuedTotal,
			TasksQueued,
			TasksProcessing,
			TasksCompletedTotal,
			TasksFailedTotal,
			TasksRetriedTotal,
			TasksAbandonedTotal,
			AnalysisDuration,
			InvalidInterviewsTotal,
			OverallScoreHistogram,
			EvaluatorFallbacksTotal,
		)
	})
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
