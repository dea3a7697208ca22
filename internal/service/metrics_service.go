package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes recorded as metric labels.
const (
	GenerationOutcomeSuccess    = "success"
	GenerationOutcomeInvalid    = "invalid"
	GenerationOutcomeContention = "contention"
	GenerationOutcomeFailed     = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the generator.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec

	generationRuns      *prometheus.CounterVec
	generationDuration  prometheus.Observer
	lessonsPlaced       prometheus.Counter
	lessonsShort        *prometheus.CounterVec
	lastGenerationLoad  prometheus.Gauge
	conflictCheckResult *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_cache_latency_seconds",
		Help:    "Latency for timetable cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_cache_write_seconds",
		Help:    "Latency for timetable cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_cache_lookups_total",
		Help: "Timetable cache lookups by result",
	}, []string{"result"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generation_runs_total",
		Help: "Schedule generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Wall time of schedule generation runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	lessonsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_generation_lessons_placed_total",
		Help: "Lessons placed by the generator",
	})

	lessonsShort := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_generation_lessons_short_total",
		Help: "Lessons the generator could not place, by reason",
	}, []string{"reason"})

	lastGenerationLoad := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_generation_last_total_lessons",
		Help: "Lessons produced by the most recent successful run",
	})

	conflictCheckResult := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflict_checks_total",
		Help: "Manual conflict checks by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		generationRuns, generationDuration, lessonsPlaced, lessonsShort, lastGenerationLoad, conflictCheckResult, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheLookups:        cacheLookups,
		generationRuns:      generationRuns,
		generationDuration:  generationDuration,
		lessonsPlaced:       lessonsPlaced,
		lessonsShort:        lessonsShort,
		lastGenerationLoad:  lastGenerationLoad,
		conflictCheckResult: conflictCheckResult,
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

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordGeneration records one generation run. shortfalls maps reason to lesson count.
func (m *MetricsService) RecordGeneration(outcome string, duration time.Duration, lessons int, shortfalls map[string]int) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	if outcome != GenerationOutcomeSuccess {
		return
	}
	m.lessonsPlaced.Add(float64(lessons))
	m.lastGenerationLoad.Set(float64(lessons))
	for reason, count := range shortfalls {
		if count > 0 {
			m.lessonsShort.WithLabelValues(reason).Add(float64(count))
		}
	}
}

// RecordConflictCheck counts manual conflict checks.
func (m *MetricsService) RecordConflictCheck(conflicting bool) {
	if m == nil {
		return
	}
	result := "clear"
	if conflicting {
		result = "conflict"
	}
	m.conflictCheckResult.WithLabelValues(result).Inc()
}
