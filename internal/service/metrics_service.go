package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the reward
// engine. All methods are nil-safe so callers can run without metrics wired.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	rewardsApplied  *prometheus.CounterVec
	evaluations     *prometheus.CounterVec
	streakRuns      prometheus.Counter
	streakRewards   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_hits_total",
		Help: "Total report cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_misses_total",
		Help: "Total report cache misses",
	})

	rewardsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_applied_total",
		Help: "Total reward records created, labelled by initial status and trigger",
	}, []string{"status", "trigger"})

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eligibility_evaluations_total",
		Help: "Total eligibility evaluations, labelled by verdict",
	}, []string{"verdict"})

	streakRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streak_trigger_runs_total",
		Help: "Total streak trigger batch runs",
	})

	streakRewards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streak_rewards_applied_total",
		Help: "Total rewards applied by the streak trigger",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, rewardsApplied, evaluations, streakRuns, streakRewards, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		rewardsApplied:  rewardsApplied,
		evaluations:     evaluations,
		streakRuns:      streakRuns,
		streakRewards:   streakRewards,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records report cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordRewardApplied counts a newly created reward record.
func (m *MetricsService) RecordRewardApplied(status, trigger string) {
	if m == nil {
		return
	}
	m.rewardsApplied.WithLabelValues(status, trigger).Inc()
}

// RecordEvaluation counts an eligibility verdict.
func (m *MetricsService) RecordEvaluation(eligible bool) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(strconv.FormatBool(eligible)).Inc()
}

// RecordStreakRun counts a completed streak batch and the rewards it applied.
func (m *MetricsService) RecordStreakRun(applied int) {
	if m == nil {
		return
	}
	m.streakRuns.Inc()
	if applied > 0 {
		m.streakRewards.Add(float64(applied))
	}
}
