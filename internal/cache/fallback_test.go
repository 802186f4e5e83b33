package cache

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestFallbackCache_MemoryOnly(t *testing.T) {
	fc := NewFallbackCache(nil, nil, quietLogger())
	defer fc.Close()

	require.NoError(t, fc.Set("k", "v", time.Minute))

	var got string
	require.NoError(t, fc.Get("k", &got))
	assert.Equal(t, "v", got)

	n, err := fc.Incr("c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, fc.Health())
	_, hasPrimary := fc.Stats()["primary"]
	assert.False(t, hasPrimary)
}

func TestFallbackCache_UsesPrimary(t *testing.T) {
	redisCache, mr := setupTestRedis(t)
	fc := NewFallbackCache(redisCache, nil, quietLogger())

	require.NoError(t, fc.Set("k", "v", time.Minute))
	assert.True(t, mr.Exists("todo:k"))

	var got string
	require.NoError(t, fc.Get("k", &got))
	assert.Equal(t, "v", got)

	assert.ErrorIs(t, fc.Get("missing", &got), ErrCacheMiss)

	metrics := fc.Metrics()
	assert.Equal(t, int64(1), metrics.Hits)
	assert.Equal(t, int64(1), metrics.Misses)
	assert.Equal(t, int64(0), metrics.Fallbacks)
	assert.Equal(t, CircuitBreakerClosed, fc.breaker.GetState(), "misses must not count as failures")
}

func TestFallbackCache_FallsBackWhenPrimaryDown(t *testing.T) {
	redisCache, mr := setupTestRedis(t)

	var transitions []string
	fc := NewFallbackCache(redisCache, &CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          time.Hour,
		HalfOpenMaxCalls: 1,
		OnStateChange: func(from, to CircuitBreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}, quietLogger())

	mr.Close()

	require.NoError(t, fc.Set("revoked:jti", true, time.Minute))
	exists, err := fc.Exists("revoked:jti")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := fc.Incr("login:alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, CircuitBreakerOpen, fc.breaker.GetState())
	assert.Equal(t, []string{"closed->open"}, transitions)
	assert.ErrorIs(t, fc.Health(), ErrCacheDown)

	metrics := fc.Metrics()
	assert.Equal(t, int64(3), metrics.Fallbacks)
	assert.Equal(t, int64(2), metrics.Errors)
}

func TestFallbackCache_DeleteClearsMemoryCopy(t *testing.T) {
	fc := NewFallbackCache(nil, nil, quietLogger())

	require.NoError(t, fc.Set("k", 1, 0))
	require.NoError(t, fc.Delete("k"))

	exists, err := fc.Exists("k")
	require.NoError(t, err)
	assert.False(t, exists)
}
