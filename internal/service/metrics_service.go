package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

// MetricsService owns the Prometheus collectors and keeps plain counters for
// the JSON snapshot served to admins.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	rateLimited        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	exportJobs         *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	rateLimitedCount     uint64
	generationCount      uint64
}

const metricsNamespace = "lessonplan"

// NewMetricsService builds a private registry with the API collectors plus
// the Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	httpLabels := []string{"method", "path", "status"}
	m := &MetricsService{
		registry: registry,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "Duration of HTTP requests in seconds", Buckets: prometheus.DefBuckets,
		}, httpLabels),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status",
		}, httpLabels),
		cacheLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "read_seconds",
			Help: "Latency of list cache reads", Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		cacheWrite: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "write_seconds",
			Help: "Latency of list cache writes", Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "hit_ratio",
			Help: "Share of list reads served from cache",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "hits_total", Help: "List cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "misses_total", Help: "List cache misses",
		}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "rate_limited_requests_total",
			Help: "Requests rejected by the sliding window limiter",
		}, []string{"rule"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Name: "lesson_generation_duration_seconds",
			Help: "Duration of AI lesson generation calls", Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"outcome"}),
		exportJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "export_jobs_total",
			Help: "Export jobs by terminal status",
		}, []string{"status"}),
	}
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected under the named rule.
func (m *MetricsService) RecordRateLimited(rule string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(rule).Inc()
	atomic.AddUint64(&m.rateLimitedCount, 1)
}

// ObserveGeneration records one AI generation call. Outcome is "ok" or the error code.
func (m *MetricsService) ObserveGeneration(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.generationCount, 1)
}

// RecordExportJob counts an export job reaching a terminal status.
func (m *MetricsService) RecordExportJob(status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(status)).Inc()
}

// Snapshot returns aggregated metrics for the admin endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RateLimited:              atomic.LoadUint64(&m.rateLimitedCount),
		Generations:              atomic.LoadUint64(&m.generationCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
