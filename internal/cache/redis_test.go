package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MinIdleConns != 2 {
		t.Errorf("Expected MinIdleConns to be 2, got %d", config.MinIdleConns)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}

	if config.KeyPrefix != "todo:" {
		t.Errorf("Expected KeyPrefix to be todo:, got %s", config.KeyPrefix)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	config := DefaultCacheConfig()
	config.Addr = mr.Addr()
	config.MaxRetries = -1

	cache := NewRedisCache(config)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestNewRedisCache_WithNilConfig(t *testing.T) {
	cache := NewRedisCache(nil)
	defer cache.Close()

	if cache.client == nil {
		t.Error("Expected Redis client to be initialized")
	}
	if cache.prefix != "todo:" {
		t.Errorf("Expected default prefix, got %q", cache.prefix)
	}
	if cache.opTimeout != 6*time.Second {
		t.Errorf("Expected command timeout of read+write timeouts, got %v", cache.opTimeout)
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)

	type testData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := testData{Name: "test", Value: 42}
	if err := cache.Set("test:key", original, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	if !mr.Exists("todo:test:key") {
		t.Error("Expected key to be stored under the configured prefix")
	}

	var retrieved testData
	if err := cache.Get("test:key", &retrieved); err != nil {
		t.Fatalf("Failed to get from cache: %v", err)
	}

	if retrieved != original {
		t.Errorf("Expected %+v, got %+v", original, retrieved)
	}
}

func TestRedisCache_Get_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	var result string
	err := cache.Get("non-existent-key", &result)

	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisCache_Set_InvalidData(t *testing.T) {
	cache, _ := setupTestRedis(t)

	ch := make(chan int)
	if err := cache.Set("test:key", ch, time.Minute); err == nil {
		t.Error("Expected error when setting unmarshalable data")
	}
}

func TestRedisCache_Get_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	mr.Set("todo:test:invalid", "invalid-json")

	var result map[string]interface{}
	if err := cache.Get("test:invalid", &result); err == nil {
		t.Error("Expected error when getting invalid JSON")
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.Set("revoked:abc", true, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	var v bool
	if err := cache.Get("revoked:abc", &v); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestRedisCache_DeleteAndExists(t *testing.T) {
	cache, _ := setupTestRedis(t)

	if err := cache.Set("test:delete", "data", time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}

	exists, err := cache.Exists("test:delete")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist")
	}

	if err := cache.Delete("test:delete"); err != nil {
		t.Fatalf("Failed to delete from cache: %v", err)
	}

	exists, err = cache.Exists("test:delete")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected key to be gone after delete")
	}
}

func TestRedisCache_Incr(t *testing.T) {
	cache, mr := setupTestRedis(t)

	for want := int64(1); want <= 3; want++ {
		n, err := cache.Incr("login:alice", time.Minute)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if n != want {
			t.Errorf("Expected counter %d, got %d", want, n)
		}
	}

	if ttl := mr.TTL("todo:login:alice"); ttl != time.Minute {
		t.Errorf("Expected TTL of 1m set on first increment, got %v", ttl)
	}

	mr.FastForward(time.Minute)

	n, err := cache.Incr("login:alice", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected counter to restart after expiry, got %d", n)
	}
}

func TestRedisCache_Health(t *testing.T) {
	cache, mr := setupTestRedis(t)

	if err := cache.Health(); err != nil {
		t.Errorf("Expected healthy cache, got %v", err)
	}

	mr.Close()

	if err := cache.Health(); err == nil {
		t.Error("Expected health check to fail after Redis is stopped")
	}
}

func TestRedisCache_Stats(t *testing.T) {
	cache, _ := setupTestRedis(t)

	stats := cache.Stats()
	if stats["backend"] != "redis" {
		t.Errorf("Expected backend redis, got %v", stats["backend"])
	}
	if stats["prefix"] != "todo:" {
		t.Errorf("Expected prefix todo:, got %v", stats["prefix"])
	}
	if _, ok := stats["conns_total"]; !ok {
		t.Error("Expected conns_total in stats")
	}
}

func TestCacheErrors(t *testing.T) {
	if errors.Is(ErrCacheMiss, ErrCacheDown) {
		t.Error("ErrCacheMiss and ErrCacheDown must be distinct")
	}
	if ErrCacheMiss.Error() != "cache miss" {
		t.Errorf("Unexpected ErrCacheMiss text %q", ErrCacheMiss.Error())
	}
}
