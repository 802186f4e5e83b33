package cache

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

// FallbackCache sends every call to the primary backend through a circuit
// breaker. When the primary errors or the breaker is open the call is
// served by an in-memory store instead, so callers never see ErrCacheDown.
type FallbackCache struct {
	primary  Cache
	memory   *MemoryCache
	breaker  *CircuitBreaker
	metrics  *CacheMetrics
	logger   *log.Logger
	disabled bool
}

// NewFallbackCache wraps primary. A nil primary yields a memory-only cache.
func NewFallbackCache(primary Cache, breakerConfig *CircuitBreakerConfig, logger *log.Logger) *FallbackCache {
	if logger == nil {
		logger = log.Default()
	}
	if breakerConfig == nil {
		breakerConfig = DefaultCircuitBreakerConfig()
	}

	fc := &FallbackCache{
		primary:  primary,
		memory:   NewMemoryCache(),
		metrics:  NewCacheMetrics(),
		logger:   logger.WithPrefix("cache"),
		disabled: primary == nil,
	}

	cfg := *breakerConfig
	userHook := cfg.OnStateChange
	cfg.OnStateChange = func(from, to CircuitBreakerState) {
		fc.logger.Warn("circuit breaker state change", "from", from, "to", to)
		if userHook != nil {
			userHook(from, to)
		}
	}
	fc.breaker = NewCircuitBreaker(&cfg)
	return fc
}

// call runs fn against the primary. It reports false when the caller
// should fall back to memory.
func (fc *FallbackCache) call(op string, fn func() error) bool {
	if fc.disabled {
		return false
	}
	err := fc.breaker.Execute(fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrCircuitBreakerOpen):
	default:
		fc.metrics.RecordError()
		fc.logger.Debug("primary cache failed", "op", op, "err", err)
	}
	fc.metrics.RecordFallback()
	return false
}

func (fc *FallbackCache) Set(key string, value interface{}, ttl time.Duration) error {
	fc.metrics.RecordWrite()
	if fc.call("set", func() error { return fc.primary.Set(key, value, ttl) }) {
		return nil
	}
	return fc.memory.Set(key, value, ttl)
}

func (fc *FallbackCache) Get(key string, dest interface{}) error {
	var miss bool
	var err error
	ok := fc.call("get", func() error {
		err := fc.primary.Get(key, dest)
		if errors.Is(err, ErrCacheMiss) {
			miss = true
			return nil
		}
		return err
	})
	// Entries written during an outage only live in memory.
	if !ok || miss {
		err = fc.memory.Get(key, dest)
	}

	switch {
	case err == nil:
		fc.metrics.RecordHit()
	case errors.Is(err, ErrCacheMiss):
		fc.metrics.RecordMiss()
	}
	return err
}

func (fc *FallbackCache) Delete(key string) error {
	fc.metrics.RecordWrite()
	// The key may have been written to memory during an outage.
	memErr := fc.memory.Delete(key)
	fc.call("delete", func() error { return fc.primary.Delete(key) })
	return memErr
}

func (fc *FallbackCache) Exists(key string) (bool, error) {
	var found bool
	ok := fc.call("exists", func() error {
		var err error
		found, err = fc.primary.Exists(key)
		return err
	})
	if ok && found {
		return true, nil
	}
	return fc.memory.Exists(key)
}

func (fc *FallbackCache) Incr(key string, ttl time.Duration) (int64, error) {
	fc.metrics.RecordWrite()
	var n int64
	ok := fc.call("incr", func() error {
		var err error
		n, err = fc.primary.Incr(key, ttl)
		return err
	})
	if ok {
		return n, nil
	}
	return fc.memory.Incr(key, ttl)
}

func (fc *FallbackCache) Metrics() CacheMetrics {
	return fc.metrics.GetStats()
}

func (fc *FallbackCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"metrics":  fc.metrics.GetStats(),
		"hit_rate": fc.metrics.HitRate(),
		"memory":   fc.memory.Stats(),
		"breaker":  fc.breaker.GetStats(),
	}
	if !fc.disabled {
		stats["primary"] = fc.primary.Stats()
	}
	return stats
}

// Health reports the primary's health. A memory-only cache is always healthy.
func (fc *FallbackCache) Health() error {
	if fc.disabled {
		return nil
	}
	if err := fc.primary.Health(); err != nil {
		return errors.Join(ErrCacheDown, err)
	}
	return nil
}

func (fc *FallbackCache) Close() error {
	var primaryErr error
	if !fc.disabled {
		primaryErr = fc.primary.Close()
	}
	return errors.Join(primaryErr, fc.memory.Close())
}
