package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Explain produces a plain-language walkthrough of the video. With
// PerChapter set it fans out one independent explanation per chapter and
// skips the synthesis pass entirely — the one fan-out in the action set that
// does not reduce.
func Explain(ctx context.Context, c *Combiner, videoID string, perChapter bool) engine.ExplainOutput {
	combined, errMeta := combinedOrError(ctx, c, videoID)
	if errMeta != nil {
		return engine.ExplainOutput{ActionMeta: *errMeta}
	}

	if perChapter && len(combined.Chapters) > 0 {
		explanations, cost, err := mapChapters(ctx, combined.Chapters,
			func(ctx context.Context, _ int, ch engine.ChapterWithContent) (engine.ChapterSummary, engine.PromptCost, error) {
				res, err := engine.ProcessPrompt(ctx,
					fmt.Sprintf(explainChapterPrompt, ch.Title, capContent(ch.Content)),
					"video_explain_chapter")
				if err != nil {
					return engine.ChapterSummary{}, engine.PromptCost{}, err
				}
				return engine.ChapterSummary{Title: ch.Title, Summary: strings.TrimSpace(res.Text)}, res.Cost, nil
			})
		if err != nil {
			return engine.ExplainOutput{ActionMeta: actionError(videoID, err)}
		}
		return engine.ExplainOutput{
			ActionMeta:          actionMeta(videoID, cost),
			ChapterExplanations: explanations,
		}
	}

	res, err := engine.ProcessPrompt(ctx,
		fmt.Sprintf(explainSinglePrompt, videoID, capContent(renderTranscript(combined.Transcript))),
		"video_explain")
	if err != nil {
		return engine.ExplainOutput{ActionMeta: actionError(videoID, err)}
	}
	return engine.ExplainOutput{
		ActionMeta:  actionMeta(videoID, res.Cost),
		Explanation: strings.TrimSpace(res.Text),
	}
}
