package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests  atomic.Int64
	TranscriptFallbacks atomic.Int64 // strategy failures that fell through
	ChapterRequests     atomic.Int64
	CombineRequests     atomic.Int64
	AICalls             atomic.Int64
	AIErrors            atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"transcript_requests":  metrics.TranscriptRequests.Load(),
		"transcript_fallbacks": metrics.TranscriptFallbacks.Load(),
		"chapter_requests":     metrics.ChapterRequests.Load(),
		"combine_requests":     metrics.CombineRequests.Load(),
		"ai_calls":             metrics.AICalls.Load(),
		"ai_errors":            metrics.AIErrors.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"transcript_requests", "transcript_fallbacks",
		"chapter_requests", "combine_requests",
		"ai_calls", "ai_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	// Lifetime AI spend from the usage ledger. Skipped when the ledger is
	// unavailable; the counters above still render.
	if usage, err := UsageTotals(context.Background()); err == nil {
		fmt.Fprintf(&sb, "ai_usage_calls %d\n", usage.TotalCalls)
		fmt.Fprintf(&sb, "ai_usage_input_tokens %d\n", usage.TotalInputTokens)
		fmt.Fprintf(&sb, "ai_usage_output_tokens %d\n", usage.TotalOutputTokens)
		fmt.Fprintf(&sb, "ai_usage_cost_usd %.6f\n", usage.TotalCostUSD)
	}
	return sb.String()
}

// Incrementors for sources/ and video/ sub-packages.
func IncrTranscriptRequest()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFallback() { metrics.TranscriptFallbacks.Add(1) }
func IncrChapterRequest()     { metrics.ChapterRequests.Add(1) }
func IncrCombineRequest()     { metrics.CombineRequests.Add(1) }
func IncrAICall()             { metrics.AICalls.Add(1) }
func IncrAIError()            { metrics.AIErrors.Add(1) }
