package sources

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Chapters come from the video description: YouTube renders a chapter list
// from lines that start with (or contain) a timestamp. The first chapter
// must start at 0:00 for YouTube to show chapters at all, and we apply the
// same rule so our list matches what viewers see.

// ErrNoChapters means the video has no parseable chapter lines in its
// description. Callers usually fall back to synthetic chapters.
var ErrNoChapters = errors.New("no chapters in video description")

const chapterTTL = 24 * time.Hour

// VideoMeta is the subset of player metadata the pipeline needs.
type VideoMeta struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"` // seconds, 0 if unknown
}

// chapterLineRe matches a description line carrying a chapter timestamp,
// e.g. "0:00 Intro", "- 12:34 — The main part", "(1:02:03) Outro".
var chapterLineRe = regexp.MustCompile(`^\W*(\d{1,3}:\d{2}(?::\d{2})?)\W*\s*(.+?)\s*$`)

// FetchVideoMeta returns title, description, and duration for videoID,
// resolved through the ANDROID /player endpoint. Cached.
func FetchVideoMeta(ctx context.Context, videoID string) (VideoMeta, bool, error) {
	cached, err := engine.WithCache(ctx,
		engine.CacheKey("video_meta", videoID),
		engine.CacheOptions{TTL: chapterTTL},
		func(ctx context.Context) (VideoMeta, error) {
			playerResp, err := fetchPlayerResponse(ctx, videoID)
			if err != nil {
				return VideoMeta{}, err
			}
			if playerResp.VideoDetails == nil {
				return VideoMeta{}, errors.New("no videoDetails in player response")
			}
			d := playerResp.VideoDetails
			dur, _ := strconv.ParseFloat(d.LengthSeconds, 64)
			return VideoMeta{
				VideoID:     d.VideoID,
				Title:       d.Title,
				Description: d.ShortDescription,
				Duration:    dur,
			}, nil
		})
	if err != nil {
		return VideoMeta{}, false, err
	}
	return cached.Data, cached.IsFromCache, nil
}

// FetchChapters returns the description-declared chapter list for videoID.
// Each chapter ends where the next begins; the final chapter is open-ended
// until the segmenter resolves it against the transcript duration.
// Returns ErrNoChapters when the description declares none.
func FetchChapters(ctx context.Context, videoID string) ([]engine.Chapter, bool, error) {
	engine.IncrChapterRequest()

	cached, err := engine.WithCache(ctx,
		engine.CacheKey("chapters", videoID),
		engine.CacheOptions{TTL: chapterTTL},
		func(ctx context.Context) ([]engine.Chapter, error) {
			meta, _, err := FetchVideoMeta(ctx, videoID)
			if err != nil {
				return nil, err
			}
			chapters := ParseChapterLines(meta.Description)
			if len(chapters) == 0 {
				return nil, ErrNoChapters
			}
			return chapters, nil
		})
	if err != nil {
		return nil, false, err
	}
	return cached.Data, cached.IsFromCache, nil
}

// ParseChapterLines extracts an ordered chapter list from a video description.
// Rules mirror YouTube's own rendering:
//   - one chapter per line containing "<timestamp> <title>"
//   - the first chapter must start at 0:00
//   - timestamps must be strictly increasing; out-of-order lines are dropped
//   - each chapter's end is the next chapter's start; the last is open-ended
func ParseChapterLines(description string) []engine.Chapter {
	var chapters []engine.Chapter
	lastStart := -1.0

	for _, line := range strings.Split(description, "\n") {
		m := chapterLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start := engine.ParseTimestamp(m[1])
		if start < 0 {
			continue
		}
		title := strings.Trim(strings.TrimSpace(m[2]), "-—–| ")
		if title == "" {
			continue
		}
		if len(chapters) == 0 && start != 0 {
			continue // chapter lists must open at 0:00
		}
		if start <= lastStart {
			continue
		}
		chapters = append(chapters, engine.Chapter{
			Title:     title,
			StartTime: start,
			EndTime:   engine.ChapterOpenEnd,
		})
		lastStart = start
	}

	// A single 0:00 line is a greeting, not a chapter list.
	if len(chapters) < 2 {
		return nil
	}
	for i := range chapters[:len(chapters)-1] {
		chapters[i].EndTime = chapters[i+1].StartTime
	}
	return chapters
}
