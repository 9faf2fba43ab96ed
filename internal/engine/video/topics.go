package video

import (
	"context"
	"fmt"
	"sort"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Topics identifies the titled regions of the video with per-topic key
// points. Chapter-parallel whenever at least two chapters exist — per-chapter
// timestamp accuracy matters more than call-count economy here — with every
// returned timestamp clamped into its chapter's window. Falls back to one
// single-pass call over the timestamped transcript when chapters are
// unavailable.
func Topics(ctx context.Context, c *Combiner, videoID string) engine.TopicsOutput {
	combined, errMeta := combinedOrError(ctx, c, videoID)
	if errMeta != nil {
		return engine.TopicsOutput{ActionMeta: *errMeta}
	}

	if len(combined.Chapters) < 2 {
		res, err := engine.ProcessPrompt(ctx,
			fmt.Sprintf(topicsSinglePrompt, capContent(renderTimestamped(combined.Transcript))),
			"video_topics")
		if err != nil {
			return engine.TopicsOutput{ActionMeta: actionError(videoID, err)}
		}
		topics, _ := engine.DecodeJSONBlock[[]engine.VideoTopic](res.Text)
		sortTopics(topics)
		return engine.TopicsOutput{
			ActionMeta: actionMeta(videoID, res.Cost),
			Topics:     topics,
		}
	}

	chapterTopics, cost, err := mapChapters(ctx, combined.Chapters,
		func(ctx context.Context, _ int, ch engine.ChapterWithContent) ([]engine.VideoTopic, engine.PromptCost, error) {
			res, err := engine.ProcessPrompt(ctx,
				fmt.Sprintf(topicsChapterPrompt,
					ch.StartTime, ch.EndTime,
					ch.StartTime, ch.EndTime,
					ch.Title,
					capContent(renderTimestamped(ch.Segments))),
				"video_topics_chapter")
			if err != nil {
				return nil, engine.PromptCost{}, err
			}
			topics, _ := engine.DecodeJSONBlock[[]engine.VideoTopic](res.Text)
			return clampTopics(topics, ch.StartTime, ch.EndTime), res.Cost, nil
		})
	if err != nil {
		return engine.TopicsOutput{ActionMeta: actionError(videoID, err)}
	}

	var topics []engine.VideoTopic
	for _, ct := range chapterTopics {
		topics = append(topics, ct...)
	}
	sortTopics(topics)
	return engine.TopicsOutput{
		ActionMeta: actionMeta(videoID, cost),
		Topics:     topics,
	}
}

// clampTopics forces every topic and key-point timestamp into [start, end).
// Model-reported timestamps are never trusted raw; out-of-range values are
// hallucinations, not data.
func clampTopics(topics []engine.VideoTopic, start, end float64) []engine.VideoTopic {
	for i := range topics {
		topics[i].Timestamp = clamp(topics[i].Timestamp, start, end)
		for j := range topics[i].KeyPoints {
			topics[i].KeyPoints[j].Timestamp = clamp(topics[i].KeyPoints[j].Timestamp, start, end)
		}
	}
	return topics
}

func clamp(v, start, end float64) float64 {
	if v < start {
		return start
	}
	if v >= end {
		// Half-open window: the last representable instant is just inside.
		if end-start > 1 {
			return end - 1
		}
		return start
	}
	return v
}

func sortTopics(topics []engine.VideoTopic) {
	sort.SliceStable(topics, func(a, b int) bool {
		return topics[a].Timestamp < topics[b].Timestamp
	})
}
