package cache

import (
	"sync/atomic"
	"time"
)

// CacheMetrics counts operations seen by a FallbackCache.
type CacheMetrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Errors    int64 `json:"errors"`
	Fallbacks int64 `json:"fallbacks"`
	Writes    int64 `json:"writes"`
	StartTime int64 `json:"start_time"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{
		StartTime: time.Now().Unix(),
	}
}

func (m *CacheMetrics) RecordHit() {
	atomic.AddInt64(&m.Hits, 1)
}

func (m *CacheMetrics) RecordMiss() {
	atomic.AddInt64(&m.Misses, 1)
}

func (m *CacheMetrics) RecordError() {
	atomic.AddInt64(&m.Errors, 1)
}

// RecordFallback counts an operation served by the in-memory store
// because the primary backend failed or its breaker was open.
func (m *CacheMetrics) RecordFallback() {
	atomic.AddInt64(&m.Fallbacks, 1)
}

func (m *CacheMetrics) RecordWrite() {
	atomic.AddInt64(&m.Writes, 1)
}

func (m *CacheMetrics) GetStats() CacheMetrics {
	return CacheMetrics{
		Hits:      atomic.LoadInt64(&m.Hits),
		Misses:    atomic.LoadInt64(&m.Misses),
		Errors:    atomic.LoadInt64(&m.Errors),
		Fallbacks: atomic.LoadInt64(&m.Fallbacks),
		Writes:    atomic.LoadInt64(&m.Writes),
		StartTime: m.StartTime,
	}
}

func (m *CacheMetrics) HitRate() float64 {
	hits := atomic.LoadInt64(&m.Hits)
	misses := atomic.LoadInt64(&m.Misses)
	total := hits + misses

	if total == 0 {
		return 0.0
	}

	return float64(hits) / float64(total) * 100.0
}
