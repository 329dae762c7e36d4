package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tabungan-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	storeDuration    *prometheus.HistogramVec
	ledgerOperations *prometheus.CounterVec
	ledgerDuration   *prometheus.HistogramVec
	ledgerStudents   prometheus.Gauge
	ledgerBalance    prometheus.Gauge
	eventsDelivered  *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storeOpCount         uint64
	storeOpDurationTotal uint64
	ledgerOpCount        uint64
	ledgerFailures       uint64
	studentCount         int64
	totalBalance         int64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Duration of persistence gateway operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	ledgerOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	ledgerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger mutations including persistence",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ledgerStudents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_students",
		Help: "Number of registered students",
	})

	ledgerBalance := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_total_balance_rupiah",
		Help: "Sum of all student balances",
	})

	eventsDelivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_events_total",
		Help: "Ledger events delivered to observers by type",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storeDuration, ledgerOperations, ledgerDuration, ledgerStudents, ledgerBalance, eventsDelivered, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		storeDuration:    storeDuration,
		ledgerOperations: ledgerOperations,
		ledgerDuration:   ledgerDuration,
		ledgerStudents:   ledgerStudents,
		ledgerBalance:    ledgerBalance,
		eventsDelivered:  eventsDelivered,
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
	m.cacheLatency.Observe(duration.Seconds())
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
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreOperation records persistence gateway timing.
func (m *MetricsService) ObserveStoreOperation(operation string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.storeDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeOpDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveLedgerOperation counts a ledger mutation by outcome.
func (m *MetricsService) ObserveLedgerOperation(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ledgerOperations.WithLabelValues(operation, outcome).Inc()
	m.ledgerDuration.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.ledgerOpCount, 1)
	if outcome == outcomePersistence {
		atomic.AddUint64(&m.ledgerFailures, 1)
	}
}

// SetLedgerTotals updates the student count and balance gauges.
func (m *MetricsService) SetLedgerTotals(students int, totalBalance int64) {
	if m == nil {
		return
	}
	m.ledgerStudents.Set(float64(students))
	m.ledgerBalance.Set(float64(totalBalance))
	atomic.StoreInt64(&m.studentCount, int64(students))
	atomic.StoreInt64(&m.totalBalance, totalBalance)
}

// RecordLedgerEvent counts an event delivered to observers.
func (m *MetricsService) RecordLedgerEvent(event models.LedgerEvent) {
	if m == nil {
		return
	}
	m.eventsDelivered.WithLabelValues(string(event.Type)).Inc()
}

// Snapshot returns aggregated metrics suitable for the admin API.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	storeCount := atomic.LoadUint64(&m.storeOpCount)
	storeDuration := atomic.LoadUint64(&m.storeOpDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgStoreMs float64
	if storeCount > 0 {
		avgStoreMs = float64(storeDuration) / float64(storeCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:             cacheRatio,
		CacheHits:                 hits,
		CacheMisses:               misses,
		RequestsTotal:             requests,
		AverageRequestDurationMs:  avgRequestMs,
		StoreOperationCount:       storeCount,
		AverageStoreOperationMs:   avgStoreMs,
		LedgerOperations:          atomic.LoadUint64(&m.ledgerOpCount),
		LedgerPersistenceFailures: atomic.LoadUint64(&m.ledgerFailures),
		Students:                  atomic.LoadInt64(&m.studentCount),
		TotalBalance:              atomic.LoadInt64(&m.totalBalance),
		Goroutines:                runtime.NumGoroutine(),
		GeneratedAt:               time.Now().UTC(),
	}
}
