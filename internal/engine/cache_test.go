package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func initTestCache(t *testing.T, maxEntries int) {
	t.Helper()
	resultCache = &tieredCache{maxEntries: maxEntries}
	t.Cleanup(func() { resultCache = nil })
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("transcript", "caption_track", "dQw4w9WgXcQ")
	b := CacheKey("transcript", "caption_track", "dQw4w9WgXcQ")
	if a != b {
		t.Errorf("same parts should produce same key: %q vs %q", a, b)
	}
	c := CacheKey("transcript", "transcript_api", "dQw4w9WgXcQ")
	if a == c {
		t.Error("different parts should produce different keys")
	}
	if len(a) != 27 { // "gv:" + 24 hex chars
		t.Errorf("unexpected key length %d: %q", len(a), a)
	}
}

func TestWithCacheMissThenHit(t *testing.T) {
	initTestCache(t, 100)
	ctx := context.Background()
	key := CacheKey("test", "miss_then_hit")

	calls := 0
	fn := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.IsFromCache {
		t.Error("first call should be a miss")
	}

	second, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.IsFromCache {
		t.Error("second call should be a hit")
	}
	if calls != 1 {
		t.Errorf("expected fn to run once, ran %d times", calls)
	}
	if len(second.Data) != 2 || second.Data[0] != "a" {
		t.Errorf("unexpected cached data: %v", second.Data)
	}
}

func TestWithCacheErrorNotCached(t *testing.T) {
	initTestCache(t, 100)
	ctx := context.Background()
	key := CacheKey("test", "error_not_cached")

	calls := 0
	_, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("upstream down")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	got, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsFromCache {
		t.Error("failed result must not populate the cache")
	}
	if got.Data != 42 || calls != 2 {
		t.Errorf("got %d with %d calls, want 42 with 2 calls", got.Data, calls)
	}
}

func TestWithCacheBypass(t *testing.T) {
	initTestCache(t, 100)
	ctx := context.Background()
	key := CacheKey("test", "bypass")

	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, fn); err != nil {
		t.Fatal(err)
	}
	got, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute, Bypass: true}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsFromCache {
		t.Error("bypass must skip the lookup")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestWithCacheExpiry(t *testing.T) {
	initTestCache(t, 100)
	ctx := context.Background()
	key := CacheKey("test", "expiry")

	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := WithCache(ctx, key, CacheOptions{TTL: 10 * time.Millisecond}, fn); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	got, err := WithCache(ctx, key, CacheOptions{TTL: time.Minute}, fn)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsFromCache {
		t.Error("expired entry should not hit")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCacheGetSetRaw(t *testing.T) {
	initTestCache(t, 100)
	ctx := context.Background()
	key := CacheKey("test", "raw")

	if _, ok := CacheGet(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	CacheSet(ctx, key, []byte(`{"x":1}`), time.Minute)
	data, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(data) != `{"x":1}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestEvictIfNeeded(t *testing.T) {
	initTestCache(t, 3)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		cacheSet(ctx, k, []byte(k), time.Minute)
	}

	count := 0
	resultCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}
