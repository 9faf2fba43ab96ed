package video

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Shared machinery for the AI actions: strategy selection, chapter fan-out,
// and transcript rendering. Each concrete action lives in its own file.

// useMapReduce decides single-pass vs chapter-parallel for summary-style
// actions: map-reduce only pays off above the char limit and with at least
// two chapters to split across.
func useMapReduce(combined engine.CombinedTranscriptChapters) bool {
	limit := engine.Cfg.TranscriptCharLimit
	if limit <= 0 {
		limit = 50000
	}
	if len(combined.Chapters) < 2 {
		return false
	}
	return transcriptCharLen(combined) > limit
}

// promptRuneLimit bounds any single content block interpolated into a
// prompt. Content past this point would overrun the model context anyway;
// the tail is cut rather than failing the action.
const promptRuneLimit = 200000

// capContent bounds transcript or chapter content before prompt
// interpolation, rune-safe for non-ASCII captions.
func capContent(s string) string {
	return engine.TruncateRunes(s, promptRuneLimit, "\n[transcript truncated]")
}

// transcriptCharLen is the total character count of the filtered transcript.
func transcriptCharLen(combined engine.CombinedTranscriptChapters) int {
	n := 0
	for _, seg := range combined.Transcript {
		n += len(seg.Text)
	}
	return n
}

// renderTranscript joins segment texts in time order, without timestamps.
func renderTranscript(segments []engine.TranscriptSegment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// renderTimestamped prefixes each segment with its start time marker so the
// model can cite real timestamps.
func renderTimestamped(segments []engine.TranscriptSegment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%.0f] %s", seg.StartSeconds, seg.Text)
	}
	return sb.String()
}

// chapterResult pairs one chapter's AI output with its position.
type chapterResult[T any] struct {
	index int
	value T
	cost  engine.PromptCost
}

// mapChapters issues fn once per chapter concurrently and joins. Results come
// back in chapter order regardless of completion order. Any single failure
// aborts the whole action; per-chapter degradation is deliberately not
// attempted.
func mapChapters[T any](ctx context.Context, chapters []engine.ChapterWithContent,
	fn func(ctx context.Context, i int, ch engine.ChapterWithContent) (T, engine.PromptCost, error),
) ([]T, engine.PromptCost, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]chapterResult[T], 0, len(chapters))
		firstErr error
	)

	for i, ch := range chapters {
		wg.Add(1)
		go func(i int, ch engine.ChapterWithContent) {
			defer wg.Done()
			v, cost, err := fn(ctx, i, ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("chapter %q: %w", ch.Title, err)
				}
				return
			}
			results = append(results, chapterResult[T]{index: i, value: v, cost: cost})
		}(i, ch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, engine.PromptCost{}, firstErr
	}

	ordered := make([]T, len(chapters))
	var total engine.PromptCost
	for _, r := range results {
		ordered[r.index] = r.value
		total = total.Add(r.cost)
	}
	return ordered, total, nil
}

// actionMeta builds the shared result header for a finished action.
func actionMeta(videoID string, cost engine.PromptCost) engine.ActionMeta {
	return engine.ActionMeta{
		VideoID: videoID,
		ModelID: engine.Cfg.AIModel,
		Cost:    cost,
	}
}

// actionError builds the error-carrying header for a failed action, flagging
// rate limits so the caller can back off instead of retrying blindly.
func actionError(videoID string, err error) engine.ActionMeta {
	return engine.ActionMeta{
		VideoID:     videoID,
		ModelID:     engine.Cfg.AIModel,
		RateLimited: engine.IsRateLimitError(err),
		Error:       err.Error(),
	}
}

// combinedOrError fetches the combined unit and converts a pipeline-level
// Error into an action error header.
func combinedOrError(ctx context.Context, c *Combiner, videoID string) (engine.CombinedTranscriptChapters, *engine.ActionMeta) {
	combined := c.CombineCached(ctx, videoID, CombineOptions{})
	if combined.Error != "" {
		meta := engine.ActionMeta{
			VideoID: videoID,
			Error:   combined.Error,
		}
		return combined, &meta
	}
	return combined, nil
}
