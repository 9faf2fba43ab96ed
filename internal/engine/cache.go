package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result cache: 2-tier, L1 in-memory + L2 Redis.
// L1 is fast but lost on restart. L2 survives restarts.
var resultCache *tieredCache

// DefaultCacheTTL applies when CacheOptions.TTL is zero.
var DefaultCacheTTL = 6 * time.Hour

// Cache metrics — atomic counters for thread-safe access.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	l1              sync.Map      // key → *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	maxEntries      int
	cleanupInterval time.Duration
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the 2-tier cache. Call after Init().
// redisURL can be empty to disable L2.
func InitCache(redisURL string, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{maxEntries: maxEntries, cleanupInterval: cleanupInterval}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	resultCache = c
	slog.Info("cache: initialized", slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// CacheKey builds a deterministic cache key from parts. Identical parts in
// identical order always map to the same slot.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("gv:%x", hash[:12]) // 24-char hex prefix
}

// CacheOptions controls a single WithCache call.
type CacheOptions struct {
	TTL    time.Duration
	Bypass bool // skip the lookup, still populate on success
}

// Cached wraps a value with its cache provenance.
type Cached[T any] struct {
	Data        T
	IsFromCache bool
}

// WithCache returns the cached value for key if present, otherwise runs fn
// and stores its result. Errors from fn are never cached.
func WithCache[T any](ctx context.Context, key string, opts CacheOptions, fn func(context.Context) (T, error)) (Cached[T], error) {
	if !opts.Bypass {
		if data, ok := cacheGet(ctx, key); ok {
			var out T
			if json.Unmarshal(data, &out) == nil {
				return Cached[T]{Data: out, IsFromCache: true}, nil
			}
		}
	}

	out, err := fn(ctx)
	if err != nil {
		return Cached[T]{}, err
	}

	if data, err := json.Marshal(out); err == nil {
		ttl := opts.TTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		cacheSet(ctx, key, data, ttl)
	}
	return Cached[T]{Data: out}, nil
}

// CacheGet exposes the raw byte lookup for callers that manage their own
// serialization (the tool layer).
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	return cacheGet(ctx, key)
}

// CacheSet exposes the raw byte store. A non-positive ttl uses the default.
func CacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cacheSet(ctx, key, data, ttl)
}

// cacheGet tries L1, then L2. On L2 hit, populates L1.
func cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if resultCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	if val, ok := resultCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			slog.Debug("cache: L1 hit", slog.String("key", key))
			cacheHits.Add(1)
			return entry.data, true
		}
		resultCache.l1.Delete(key) // expired
	}

	if resultCache.rdb != nil {
		data, err := resultCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			slog.Debug("cache: L2 hit", slog.String("key", key))
			cacheHits.Add(1)
			ttl, terr := resultCache.rdb.TTL(ctx, key).Result()
			if terr != nil || ttl <= 0 {
				ttl = DefaultCacheTTL
			}
			resultCache.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(ttl)})
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// cacheSet stores value in both L1 and L2.
func cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if resultCache == nil {
		return
	}

	resultCache.evictIfNeeded()

	resultCache.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(ttl)})

	if resultCache.rdb != nil {
		if err := resultCache.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded removes entries when L1 exceeds maxEntries.
// Removes expired entries first, then oldest entries if still over limit.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})

	if count < c.maxEntries {
		return
	}

	// Phase 1: remove expired
	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	if count < c.maxEntries {
		return
	}

	// Phase 2: remove oldest entries until under limit
	var oldest struct {
		key any
		at  time.Time
	}
	for count >= c.maxEntries {
		oldest.key = nil
		oldest.at = time.Now().Add(100 * time.Hour) // far future
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok {
				// Earlier expiry = older entry (since expiry = createdAt + ttl)
				if entry.expiresAt.Before(oldest.at) {
					oldest.key = key
					oldest.at = entry.expiresAt
				}
			}
			return true
		})
		if oldest.key == nil {
			break
		}
		c.l1.Delete(oldest.key)
		count--
	}
}

// cleanupLoop periodically removes expired L1 entries.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}
