package video

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// KeyPoints extracts the video's most important timestamped points. Uses the
// same single-pass vs map-reduce policy as Summarize. Malformed model JSON
// yields an empty list, never a failure.
func KeyPoints(ctx context.Context, c *Combiner, videoID string) engine.KeyPointsOutput {
	combined, errMeta := combinedOrError(ctx, c, videoID)
	if errMeta != nil {
		return engine.KeyPointsOutput{ActionMeta: *errMeta}
	}

	if !useMapReduce(combined) {
		res, err := engine.ProcessPrompt(ctx,
			fmt.Sprintf(keyPointsPrompt, capContent(renderTimestamped(combined.Transcript))),
			"video_key_points")
		if err != nil {
			return engine.KeyPointsOutput{ActionMeta: actionError(videoID, err)}
		}
		points, _ := engine.DecodeJSONBlock[[]engine.TopicKeyPoint](res.Text)
		sortKeyPoints(points)
		return engine.KeyPointsOutput{
			ActionMeta: actionMeta(videoID, res.Cost),
			KeyPoints:  points,
		}
	}

	chapterPoints, mapCost, err := mapChapters(ctx, combined.Chapters,
		func(ctx context.Context, _ int, ch engine.ChapterWithContent) ([]engine.TopicKeyPoint, engine.PromptCost, error) {
			res, err := engine.ProcessPrompt(ctx,
				fmt.Sprintf(keyPointsPrompt, capContent(renderTimestamped(ch.Segments))),
				"video_key_points_chapter")
			if err != nil {
				return nil, engine.PromptCost{}, err
			}
			points, _ := engine.DecodeJSONBlock[[]engine.TopicKeyPoint](res.Text)
			return points, res.Cost, nil
		})
	if err != nil {
		return engine.KeyPointsOutput{ActionMeta: actionError(videoID, err)}
	}

	merged, _ := json.Marshal(chapterPoints)
	synth, err := engine.ProcessPrompt(ctx,
		fmt.Sprintf(keyPointsSynthesisPrompt, string(merged)),
		"video_key_points_synthesis")
	if err != nil {
		return engine.KeyPointsOutput{ActionMeta: actionError(videoID, err)}
	}

	points, ok := engine.DecodeJSONBlock[[]engine.TopicKeyPoint](synth.Text)
	if !ok {
		// Synthesis text was unusable; fall back to the raw chapter points.
		for _, cp := range chapterPoints {
			points = append(points, cp...)
		}
	}
	sortKeyPoints(points)
	return engine.KeyPointsOutput{
		ActionMeta: actionMeta(videoID, mapCost.Add(synth.Cost)),
		KeyPoints:  points,
	}
}

func sortKeyPoints(points []engine.TopicKeyPoint) {
	sort.SliceStable(points, func(a, b int) bool {
		return points[a].Timestamp < points[b].Timestamp
	})
}
