package video

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Segmenter: assigns transcript segments to chapter windows and filters
// promotional material. Pure functions over in-memory data, no I/O.

// FilterConfig holds the promotional-phrase lists. Passed explicitly so the
// filter set is swappable per deployment and testable without globals.
type FilterConfig struct {
	// TitlePhrases drop a whole chapter when its lower-cased title contains one.
	TitlePhrases []string
	// TextMarkers drop a transcript segment when its lower-cased text contains one.
	TextMarkers []string
}

// DefaultFilterConfig returns the stock promo filter.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		TitlePhrases: []string{"sponsor", "advertisement", "ad break", "promotion"},
		TextMarkers:  []string{"is sponsored by", "today's sponsor", "use code", "check out our sponsor"},
	}
}

// SegmentOptions controls one segmentation run.
type SegmentOptions struct {
	OverlapOffsetSeconds   float64
	ChapterDurationSeconds float64 // synthetic chapter length
	TotalChapters          int     // force N equal synthetic chapters; 0 = use duration
	Filter                 FilterConfig
}

// DefaultSegmentOptions builds options from engine config with the stock filter.
func DefaultSegmentOptions() SegmentOptions {
	opts := SegmentOptions{
		OverlapOffsetSeconds:   engine.Cfg.OverlapOffsetSeconds,
		ChapterDurationSeconds: engine.Cfg.ChapterDurationSeconds,
		Filter:                 DefaultFilterConfig(),
	}
	if opts.OverlapOffsetSeconds <= 0 {
		opts.OverlapOffsetSeconds = 5
	}
	if opts.ChapterDurationSeconds <= 0 {
		opts.ChapterDurationSeconds = 600
	}
	return opts
}

// BuildChapters runs the full segmentation pipeline: resolve open ends,
// synthesize chapters when none are declared, filter promo chapters and
// segments, widen windows by the overlap, and assign segments by start time.
// Returns the populated chapters plus the filtered transcript.
func BuildChapters(chapters []engine.Chapter, transcript []engine.TranscriptSegment, opts SegmentOptions) ([]engine.ChapterWithContent, []engine.TranscriptSegment) {
	duration := totalDuration(transcript)

	if len(chapters) == 0 {
		chapters = SynthesizeChapters(duration, opts)
	}
	chapters = resolveOpenEnds(chapters, duration)
	chapters = filterChapters(chapters, opts.Filter)
	if len(chapters) == 0 {
		// Everything was promotional. Keep the video usable.
		chapters = []engine.Chapter{{Title: "Full Video", StartTime: 0, EndTime: duration}}
	}

	transcript = filterSegments(transcript, opts.Filter)
	return assignSegments(chapters, transcript, opts.OverlapOffsetSeconds), transcript
}

// SynthesizeChapters builds fixed-duration chapters spanning duration,
// titled "Chapter N (M:SS)". TotalChapters forces an equal split; otherwise
// ChapterDurationSeconds windows are used.
func SynthesizeChapters(duration float64, opts SegmentOptions) []engine.Chapter {
	if duration <= 0 {
		return nil
	}
	window := opts.ChapterDurationSeconds
	if window <= 0 {
		window = 600
	}
	if opts.TotalChapters > 0 {
		window = duration / float64(opts.TotalChapters)
	}

	var chapters []engine.Chapter
	for start := 0.0; start < duration; start += window {
		end := start + window
		if end > duration {
			end = duration
		}
		chapters = append(chapters, engine.Chapter{
			Title:     fmt.Sprintf("Chapter %d (%s)", len(chapters)+1, engine.FormatTimestamp(start)),
			StartTime: start,
			EndTime:   end,
		})
	}
	return chapters
}

// totalDuration is the last segment's end; segments arrive time-ordered from
// the decoders but a scan keeps this robust to stray ordering.
func totalDuration(transcript []engine.TranscriptSegment) float64 {
	var max float64
	for _, seg := range transcript {
		if seg.EndSeconds > max {
			max = seg.EndSeconds
		}
	}
	return max
}

// resolveOpenEnds replaces the open-ended sentinel on the final chapter with
// the transcript's total duration.
func resolveOpenEnds(chapters []engine.Chapter, duration float64) []engine.Chapter {
	out := make([]engine.Chapter, len(chapters))
	copy(out, chapters)
	for i := range out {
		if out[i].EndTime == engine.ChapterOpenEnd {
			out[i].EndTime = duration
		}
	}
	return out
}

// filterChapters drops chapters whose title contains a promo phrase.
// Dropped content is discarded, never merged into a neighbor.
func filterChapters(chapters []engine.Chapter, f FilterConfig) []engine.Chapter {
	out := make([]engine.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		title := strings.ToLower(ch.Title)
		promo := false
		for _, phrase := range f.TitlePhrases {
			if strings.Contains(title, phrase) {
				promo = true
				break
			}
		}
		if !promo {
			out = append(out, ch)
		}
	}
	return out
}

// filterSegments drops segments whose text contains a promo marker.
func filterSegments(segments []engine.TranscriptSegment, f FilterConfig) []engine.TranscriptSegment {
	out := make([]engine.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		text := strings.ToLower(seg.Text)
		promo := false
		for _, marker := range f.TextMarkers {
			if strings.Contains(text, marker) {
				promo = true
				break
			}
		}
		if !promo {
			out = append(out, seg)
		}
	}
	return out
}

// assignSegments widens each chapter window by overlap and collects every
// segment whose start time falls inside. A segment may land in adjacent
// chapters when widened windows intersect; that bleed is intentional. O(s×c)
// membership testing is fine at typical chapter counts (<20).
func assignSegments(chapters []engine.Chapter, segments []engine.TranscriptSegment, overlap float64) []engine.ChapterWithContent {
	out := make([]engine.ChapterWithContent, 0, len(chapters))
	for i, ch := range chapters {
		start := ch.StartTime
		if i > 0 {
			start -= overlap
			if start < 0 {
				start = 0
			}
		}
		end := ch.EndTime + overlap

		var assigned []engine.TranscriptSegment
		for _, seg := range segments {
			if seg.StartSeconds >= start && seg.StartSeconds < end {
				assigned = append(assigned, seg)
			}
		}
		sort.SliceStable(assigned, func(a, b int) bool {
			return assigned[a].StartSeconds < assigned[b].StartSeconds
		})

		var sb strings.Builder
		for j, seg := range assigned {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(seg.Text)
		}
		out = append(out, engine.ChapterWithContent{
			Chapter:  ch,
			Content:  sb.String(),
			Segments: assigned,
		})
	}
	return out
}
