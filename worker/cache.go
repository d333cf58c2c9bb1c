package worker

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/primeworks/factord/config"
)

// Cache stores rendered factorization results keyed by the input
// decimal string. Implementations must be safe for concurrent use.
// Cache failures degrade to recomputation, never to request failure,
// so Get simply reports a miss when the backend is unavailable.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Close() error
}

// NewCache builds the configured cache backend, or nil when caching is
// disabled.
func NewCache(cfg config.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Backend {
	case config.CacheBackendRedis:
		return NewRedisCache(cfg)
	default:
		return NewMemoryCache(cfg.MaxEntries, cfg.TTL.Std())
	}
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process cache with TTL expiry and a hard entry
// cap. A janitor goroutine sweeps expired entries periodically.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	ttl        time.Duration
}

// NewMemoryCache creates a memory cache. A zero ttl disables expiry.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// StartJanitor starts a goroutine that sweeps expired entries until the
// context is cancelled.
func (c *MemoryCache) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 || c.ttl <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.sweep()
			}
		}
	}()
}

// Get returns the cached value for key if present and unexpired.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value. When the cache is full an arbitrary entry is
// evicted; factorization inputs have no useful recency structure to
// exploit, and the janitor reclaims expired entries anyway.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}

	c.entries[key] = memoryEntry{
		value:   value,
		expires: time.Now().Add(c.ttl),
	}
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases the cache.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// RedisCache shares results across daemon replicas through Redis.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(cfg config.CacheConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &RedisCache{
		rdb:    rdb,
		ttl:    cfg.TTL.Std(),
		prefix: "factord:result:",
	}
}

// Get returns the cached value for key. Backend errors read as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores a value with the configured TTL. Backend errors are
// dropped; the next request recomputes.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	_ = c.rdb.Set(ctx, c.prefix+key, value, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
