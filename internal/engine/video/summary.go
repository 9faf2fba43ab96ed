package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// Summarize produces one cohesive summary of the video. Short transcripts
// (or single-chapter videos) go through a single call; long multi-chapter
// transcripts fan out one call per chapter and synthesize the partials.
// Cost always reflects every call made.
func Summarize(ctx context.Context, c *Combiner, videoID string) engine.SummaryOutput {
	combined, errMeta := combinedOrError(ctx, c, videoID)
	if errMeta != nil {
		return engine.SummaryOutput{ActionMeta: *errMeta}
	}

	if !useMapReduce(combined) {
		res, err := engine.ProcessPrompt(ctx,
			fmt.Sprintf(summarySinglePrompt, videoID, capContent(renderTranscript(combined.Transcript))),
			"video_summary")
		if err != nil {
			return engine.SummaryOutput{ActionMeta: actionError(videoID, err)}
		}
		return engine.SummaryOutput{
			ActionMeta: actionMeta(videoID, res.Cost),
			Summary:    strings.TrimSpace(res.Text),
		}
	}

	summaries, mapCost, err := mapChapters(ctx, combined.Chapters,
		func(ctx context.Context, _ int, ch engine.ChapterWithContent) (engine.ChapterSummary, engine.PromptCost, error) {
			res, err := engine.ProcessPrompt(ctx,
				fmt.Sprintf(summaryChapterPrompt, ch.Title, capContent(ch.Content)),
				"video_summary_chapter")
			if err != nil {
				return engine.ChapterSummary{}, engine.PromptCost{}, err
			}
			return engine.ChapterSummary{Title: ch.Title, Summary: strings.TrimSpace(res.Text)}, res.Cost, nil
		})
	if err != nil {
		return engine.SummaryOutput{ActionMeta: actionError(videoID, err)}
	}

	var sb strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&sb, "## %s\n%s\n\n", s.Title, s.Summary)
	}
	synth, err := engine.ProcessPrompt(ctx,
		fmt.Sprintf(summarySynthesisPrompt, videoID, sb.String()),
		"video_summary_synthesis")
	if err != nil {
		return engine.SummaryOutput{ActionMeta: actionError(videoID, err)}
	}

	return engine.SummaryOutput{
		ActionMeta:       actionMeta(videoID, mapCost.Add(synth.Cost)),
		Summary:          strings.TrimSpace(synth.Text),
		ChapterSummaries: summaries,
	}
}
