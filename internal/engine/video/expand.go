package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Topic drill-downs. Both variants are always single-pass; the difference is
// scope — ExpandTopic reads the whole transcript, ExpandSubtopic reads only
// a supplied content slice (one topic or chapter's text).

// expandPayload is the structured shape both expand prompts request.
type expandPayload struct {
	Expansion string                 `json:"expansion"`
	KeyPoints []engine.TopicKeyPoint `json:"key_points"`
}

// ExpandTopic produces an in-depth treatment of one named topic.
// Validation fails fast, before any fetch or AI call.
func ExpandTopic(ctx context.Context, c *Combiner, videoID, topicTitle string) engine.ExpandOutput {
	if strings.TrimSpace(topicTitle) == "" {
		return engine.ExpandOutput{
			ActionMeta: actionError(videoID, errors.New("topic_title is required")),
		}
	}

	combined, errMeta := combinedOrError(ctx, c, videoID)
	if errMeta != nil {
		return engine.ExpandOutput{ActionMeta: *errMeta, TopicTitle: topicTitle}
	}

	res, err := engine.ProcessPrompt(ctx,
		fmt.Sprintf(topicExpandPrompt, topicTitle, capContent(renderTimestamped(combined.Transcript))),
		"video_topic_expand")
	if err != nil {
		return engine.ExpandOutput{ActionMeta: actionError(videoID, err), TopicTitle: topicTitle}
	}
	return expandOutput(videoID, topicTitle, res)
}

// ExpandSubtopic expands within a caller-supplied content slice. No fetch at
// all: the slice is the whole context.
func ExpandSubtopic(ctx context.Context, videoID, topicTitle, content string) engine.ExpandOutput {
	if strings.TrimSpace(topicTitle) == "" {
		return engine.ExpandOutput{
			ActionMeta: actionError(videoID, errors.New("topic_title is required")),
		}
	}
	if strings.TrimSpace(content) == "" {
		return engine.ExpandOutput{
			ActionMeta: actionError(videoID, errors.New("content is required")),
			TopicTitle: topicTitle,
		}
	}

	res, err := engine.ProcessPrompt(ctx,
		fmt.Sprintf(subtopicExpandPrompt, topicTitle, capContent(content)),
		"video_subtopic_expand")
	if err != nil {
		return engine.ExpandOutput{ActionMeta: actionError(videoID, err), TopicTitle: topicTitle}
	}
	return expandOutput(videoID, topicTitle, res)
}

// expandOutput decodes the structured payload; unusable JSON degrades to the
// raw text as the expansion rather than failing the action.
func expandOutput(videoID, topicTitle string, res engine.PromptResult) engine.ExpandOutput {
	payload, ok := engine.DecodeJSONBlock[expandPayload](res.Text)
	if !ok {
		payload = expandPayload{Expansion: strings.TrimSpace(engine.StripFences(res.Text))}
	}
	return engine.ExpandOutput{
		ActionMeta: actionMeta(videoID, res.Cost),
		TopicTitle: topicTitle,
		Expansion:  payload.Expansion,
		KeyPoints:  payload.KeyPoints,
	}
}
