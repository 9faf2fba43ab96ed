// Package toolutil provides shared helpers for go_video MCP tools:
// JSON-typed access to the engine cache and video ID validation.
package toolutil

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// videoIDRe matches a YouTube video ID: exactly 11 URL-safe base64 chars.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidateVideoID checks a tool's video_id input before any I/O happens.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("video_id is required")
	}
	if !videoIDRe.MatchString(id) {
		return fmt.Errorf("video_id must be an 11-character YouTube video ID, got %q", id)
	}
	return nil
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	data, ok := engine.CacheGet(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(ctx, key, data, ttl)
}
