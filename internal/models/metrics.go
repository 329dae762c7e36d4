package models

import "time"

// SystemMetrics summarises instrumentation counters for the admin API.
type SystemMetrics struct {
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	StoreOperationCount       uint64    `json:"store_operation_count"`
	AverageStoreOperationMs   float64   `json:"average_store_operation_ms"`
	LedgerOperations          uint64    `json:"ledger_operations"`
	LedgerPersistenceFailures uint64    `json:"ledger_persistence_failures"`
	Students                  int64     `json:"students"`
	TotalBalance              int64     `json:"total_balance"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
