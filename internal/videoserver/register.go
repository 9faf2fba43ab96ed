// Package videoserver registers the go_video MCP tool surface: transcript
// retrieval plus the AI actions (summary, key points, topics, explanations,
// topic drill-downs).
//
// Convention shared by every AI tool here: AI failures come back inside the
// output value (error / rate_limited fields populated), not as MCP protocol
// errors — only input validation fails the call itself. Successful results
// are cached per (tool, cache params); error-carrying results never are.
package videoserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/engine/video"
	"github.com/anatolykoptev/go_video/internal/toolutil"
)

// actionTTL covers cached AI action outputs. Transcript-level caching has its
// own TTLs inside the sources package.
const actionTTL = 12 * time.Hour

var combiner = video.NewCombiner()

// RegisterTools registers every video tool on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerVideoTranscript(server)
	registerVideoSummary(server)
	registerVideoKeyPoints(server)
	registerVideoTopics(server)
	registerVideoExplain(server)
	registerVideoTopicExpand(server)
	registerVideoSubtopicExpand(server)
}

func registerVideoTranscript(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_transcript",
		Description: "Fetch a YouTube video's transcript combined with its chapters. Returns time-aligned segments, per-chapter content (official chapters from the description, or synthetic fixed-duration chapters), and metadata. Promotional chapters and sponsor-read segments are filtered out.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoTranscriptInput) (*mcp.CallToolResult, engine.CombinedTranscriptChapters, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.CombinedTranscriptChapters{}, err
		}
		out := combiner.CombineCached(ctx, input.VideoID, video.CombineOptions{
			OverlapOffsetSeconds: input.OverlapOffsetSeconds,
			TotalChapters:        input.TotalChapters,
		})
		return nil, out, nil
	})
}

func registerVideoSummary(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_summary",
		Description: "Summarize a YouTube video from its transcript. Long multi-chapter videos are summarized chapter by chapter in parallel and then synthesized into one cohesive summary; the response includes per-chapter summaries and total AI cost.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoActionInput) (*mcp.CallToolResult, engine.SummaryOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.SummaryOutput{}, err
		}
		cacheKey := engine.CacheKey("video_summary", input.VideoID)
		if out, ok := toolutil.CacheLoadJSON[engine.SummaryOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.Summarize(ctx, combiner, input.VideoID)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func registerVideoKeyPoints(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_key_points",
		Description: "Extract the most important timestamped key points from a YouTube video's transcript. Each point carries a title, one-sentence text, and the timestamp (seconds) where it is made.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoActionInput) (*mcp.CallToolResult, engine.KeyPointsOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.KeyPointsOutput{}, err
		}
		cacheKey := engine.CacheKey("video_key_points", input.VideoID)
		if out, ok := toolutil.CacheLoadJSON[engine.KeyPointsOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.KeyPoints(ctx, combiner, input.VideoID)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func registerVideoTopics(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_topics",
		Description: "Identify the topics covered in a YouTube video, each with a description, timestamp, and timestamped key points. Topics are extracted per chapter in parallel for timestamp accuracy and sorted by time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoActionInput) (*mcp.CallToolResult, engine.TopicsOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.TopicsOutput{}, err
		}
		cacheKey := engine.CacheKey("video_topics", input.VideoID)
		if out, ok := toolutil.CacheLoadJSON[engine.TopicsOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.Topics(ctx, combiner, input.VideoID)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func registerVideoExplain(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_explain",
		Description: "Explain a YouTube video's content in plain language for someone new to the subject. Set per_chapter=true for independent per-chapter explanations instead of one cohesive walkthrough.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.VideoExplainInput) (*mcp.CallToolResult, engine.ExplainOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.ExplainOutput{}, err
		}
		cacheKey := engine.CacheKey("video_explain", input.VideoID, boolParam(input.PerChapter))
		if out, ok := toolutil.CacheLoadJSON[engine.ExplainOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.Explain(ctx, combiner, input.VideoID, input.PerChapter)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func registerVideoTopicExpand(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_topic_expand",
		Description: "Expand in depth on one topic from a YouTube video, using the full transcript as context. Returns a multi-paragraph treatment plus timestamped key points. Cached per (video, topic).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.TopicExpandInput) (*mcp.CallToolResult, engine.ExpandOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.ExpandOutput{}, err
		}
		cacheKey := engine.CacheKey("video_topic_expand", input.VideoID, input.TopicTitle)
		if out, ok := toolutil.CacheLoadJSON[engine.ExpandOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.ExpandTopic(ctx, combiner, input.VideoID, input.TopicTitle)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func registerVideoSubtopicExpand(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_subtopic_expand",
		Description: "Expand in depth on a subtopic within a supplied content slice (one topic or chapter's text) from a YouTube video. No transcript fetch: the supplied content is the whole context. Cached per (video, subtopic).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.SubtopicExpandInput) (*mcp.CallToolResult, engine.ExpandOutput, error) {
		if err := toolutil.ValidateVideoID(input.VideoID); err != nil {
			return nil, engine.ExpandOutput{}, err
		}
		cacheKey := engine.CacheKey("video_subtopic_expand", input.VideoID, input.TopicTitle)
		if out, ok := toolutil.CacheLoadJSON[engine.ExpandOutput](ctx, cacheKey); ok {
			out.IsFromCache = true
			return nil, out, nil
		}
		out := video.ExpandSubtopic(ctx, input.VideoID, input.TopicTitle, input.Content)
		if out.Error == "" {
			toolutil.CacheStoreJSON(ctx, cacheKey, out, actionTTL)
		}
		return nil, out, nil
	})
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
