package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/sources"
)

// Combiner orchestrates transcript fetch + chapter fetch + segmentation into
// one CombinedTranscriptChapters. Failures come back as a populated Error
// field, never as a Go error: "no transcript" is a value the tool layer
// forwards, not a condition it recovers from.

// TranscriptFetcher and ChapterFetcher let tests substitute the network layer.
type (
	TranscriptFetcher func(ctx context.Context, videoID string) ([]engine.TranscriptSegment, bool, error)
	ChapterFetcher    func(ctx context.Context, videoID string) ([]engine.Chapter, bool, error)
)

type Combiner struct {
	fetchTranscript TranscriptFetcher
	fetchChapters   ChapterFetcher
}

// NewCombiner wires the production YouTube fetchers.
func NewCombiner() *Combiner {
	return &Combiner{
		fetchTranscript: sources.FetchTranscript,
		fetchChapters:   sources.FetchChapters,
	}
}

// NewCombinerWith builds a combiner with explicit fetchers, for tests.
func NewCombinerWith(t TranscriptFetcher, c ChapterFetcher) *Combiner {
	return &Combiner{fetchTranscript: t, fetchChapters: c}
}

// CombineOptions shapes one combine run.
type CombineOptions struct {
	OverlapOffsetSeconds float64 // 0 = engine default
	TotalChapters        int     // force N equal synthetic chapters
}

const combinedTTL = 12 * time.Hour

// recoverToErr converts a panic in a fetch goroutine into an error so the
// pipeline's error-as-value contract holds even for bugs.
func recoverToErr(dst *error) {
	if r := recover(); r != nil {
		*dst = fmt.Errorf("internal error: %v", r)
	}
}

// Combine fetches transcript and official chapters concurrently, segments,
// and returns the normalized unit. IsFromCache is true only when both
// sub-fetches were cache hits. Any panic inside the pipeline is converted to
// an Error-carrying result with zero-valued metadata.
func (c *Combiner) Combine(ctx context.Context, videoID string, opts CombineOptions) (result engine.CombinedTranscriptChapters) {
	engine.IncrCombineRequest()
	result = engine.CombinedTranscriptChapters{VideoID: videoID}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("combine panic",
				slog.String("id", videoID),
				slog.Any("panic", r))
			result = engine.CombinedTranscriptChapters{
				VideoID: videoID,
				Error:   fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	var (
		wg            sync.WaitGroup
		transcript    []engine.TranscriptSegment
		transcriptHit bool
		transcriptErr error
		chapters      []engine.Chapter
		chaptersHit   bool
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer recoverToErr(&transcriptErr)
		transcript, transcriptHit, transcriptErr = c.fetchTranscript(ctx, videoID)
	}()
	go func() {
		defer wg.Done()
		var err error
		defer func() {
			recoverToErr(&err)
			if err != nil {
				chapters = nil
			}
		}()
		chapters, chaptersHit, err = c.fetchChapters(ctx, videoID)
		if err != nil {
			// No official chapters is routine; synthetic windows cover it.
			if !errors.Is(err, sources.ErrNoChapters) {
				slog.Warn("chapter fetch failed, using synthetic chapters",
					slog.String("id", videoID),
					slog.Any("error", err))
			}
			chapters = nil
		}
	}()
	wg.Wait()

	if transcriptErr != nil {
		result.Error = transcriptErr.Error()
		return result
	}

	segOpts := DefaultSegmentOptions()
	if opts.OverlapOffsetSeconds > 0 {
		segOpts.OverlapOffsetSeconds = opts.OverlapOffsetSeconds
	}
	if opts.TotalChapters > 0 {
		segOpts.TotalChapters = opts.TotalChapters
		chapters = nil // forced split overrides official chapters
	}

	withContent, filtered := BuildChapters(chapters, transcript, segOpts)

	result.Metadata = engine.CombinedMetadata{
		TotalDuration:        totalDuration(transcript),
		ChapterCount:         len(withContent),
		TranscriptItemCount:  len(filtered),
		OverlapOffsetSeconds: segOpts.OverlapOffsetSeconds,
	}
	result.Chapters = withContent
	result.Transcript = filtered
	result.IsFromCache = transcriptHit && chaptersHit
	return result
}

// CombineCached runs Combine behind the result cache. Error-carrying results
// are returned but never cached, so a transient failure does not poison the
// slot.
func (c *Combiner) CombineCached(ctx context.Context, videoID string, opts CombineOptions) engine.CombinedTranscriptChapters {
	key := engine.CacheKey("combined", videoID,
		fmt.Sprintf("%.1f", opts.OverlapOffsetSeconds),
		fmt.Sprintf("%d", opts.TotalChapters))

	cached, err := engine.WithCache(ctx, key, engine.CacheOptions{TTL: combinedTTL},
		func(ctx context.Context) (engine.CombinedTranscriptChapters, error) {
			res := c.Combine(ctx, videoID, opts)
			if res.Error != "" {
				return engine.CombinedTranscriptChapters{}, errors.New(res.Error)
			}
			return res, nil
		})
	if err != nil {
		return engine.CombinedTranscriptChapters{VideoID: videoID, Error: err.Error()}
	}
	res := cached.Data
	if cached.IsFromCache {
		res.IsFromCache = true
	}
	return res
}
