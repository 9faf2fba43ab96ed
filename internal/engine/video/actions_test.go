package video

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/m43i/go-ai/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// scriptedAdapter answers Chat calls from a routing function and counts them.
type scriptedAdapter struct {
	calls   atomic.Int64
	respond func(prompt string) (string, error)
}

func (s *scriptedAdapter) Chat(_ context.Context, params *core.ChatParams) (*core.ChatResult, error) {
	s.calls.Add(1)
	prompt := ""
	if len(params.Messages) > 0 {
		if tp, ok := params.Messages[0].(core.TextMessagePart); ok {
			prompt = tp.Content
		}
	}
	text, err := s.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &core.ChatResult{
		Text:  text,
		Usage: &core.Usage{PromptTokens: 1000, CompletionTokens: 500},
	}, nil
}

func (s *scriptedAdapter) ChatStream(context.Context, *core.ChatParams) (<-chan core.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

// perCallCost mirrors the fake usage at the test config's prices.
const perCallCost = 1000.0/1e6*1.0 + 500.0/1e6*10.0

func initActionConfig(t *testing.T, adapter core.TextAdapter) {
	t.Helper()
	engine.Init(engine.Config{
		AIAdapter:              adapter,
		AIModel:                "test-model",
		AITemperature:          0.2,
		AIMaxTokens:            2048,
		AIInputCostPerMTok:     1.0,
		AIOutputCostPerMTok:    10.0,
		OverlapOffsetSeconds:   5,
		ChapterDurationSeconds: 600,
		TranscriptCharLimit:    50000,
		UsageDBPath:            t.TempDir() + "/usage.db",
	})
	t.Cleanup(func() { engine.Init(engine.Config{}) })
}

// longCombiner fabricates a 3-chapter video whose transcript exceeds the
// single-pass char limit.
func longCombiner(t *testing.T) *Combiner {
	t.Helper()
	long := strings.Repeat("words and more words ", 100) // ~2100 chars per segment
	var segs []engine.TranscriptSegment
	for i := 0; i < 30; i++ {
		start := float64(i * 30)
		segs = append(segs, engine.TranscriptSegment{
			StartSeconds: start, EndSeconds: start + 30, Text: long,
		})
	}
	official := []engine.Chapter{
		{Title: "Part One", StartTime: 0, EndTime: 300},
		{Title: "Part Two", StartTime: 300, EndTime: 600},
		{Title: "Part Three", StartTime: 600, EndTime: engine.ChapterOpenEnd},
	}
	return NewCombinerWith(staticTranscript(segs, false), staticChapters(official, false))
}

// shortCombiner fabricates a small single-chapter video.
func shortCombiner() *Combiner {
	segs := makeTranscript(300, 10)
	return NewCombinerWith(staticTranscript(segs, false), staticChapters(nil, false))
}

func TestSummarizeSinglePass(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "short video summary", nil
	}}
	initActionConfig(t, fake)

	out := Summarize(context.Background(), shortCombiner(), "abcdefghijk")
	require.Empty(t, out.Error)
	assert.Equal(t, "short video summary", out.Summary)
	assert.Empty(t, out.ChapterSummaries)
	assert.EqualValues(t, 1, fake.calls.Load())
	assert.InDelta(t, perCallCost, out.Cost.TotalCost, 1e-9)
	assert.Equal(t, "test-model", out.ModelID)
}

func TestSummarizeMapReduce(t *testing.T) {
	fake := &scriptedAdapter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "per-chapter summaries") {
			return "the synthesized whole", nil
		}
		return "one chapter summary", nil
	}}
	initActionConfig(t, fake)

	out := Summarize(context.Background(), longCombiner(t), "abcdefghijk")
	require.Empty(t, out.Error)
	assert.Equal(t, "the synthesized whole", out.Summary)
	require.Len(t, out.ChapterSummaries, 3)
	assert.Equal(t, "Part One", out.ChapterSummaries[0].Title)

	// 3 chapter calls + 1 synthesis call, cost summed across all 4.
	assert.EqualValues(t, 4, fake.calls.Load())
	assert.InDelta(t, 4*perCallCost, out.Cost.TotalCost, 1e-9)
}

func TestSummarizeChapterFailureAbortsAction(t *testing.T) {
	fake := &scriptedAdapter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Part Two") {
			return "", errors.New("model exploded")
		}
		return "fine", nil
	}}
	initActionConfig(t, fake)

	out := Summarize(context.Background(), longCombiner(t), "abcdefghijk")
	require.NotEmpty(t, out.Error)
	assert.Contains(t, out.Error, "Part Two")
	assert.Empty(t, out.Summary)
	assert.False(t, out.RateLimited)
}

func TestSummarizeRateLimitFlag(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "", errors.New("HTTP 429: rate limit exceeded")
	}}
	initActionConfig(t, fake)

	out := Summarize(context.Background(), shortCombiner(), "abcdefghijk")
	require.NotEmpty(t, out.Error)
	assert.True(t, out.RateLimited)
}

func TestSummarizeNoTranscriptIsValue(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		t.Fatal("no AI call should happen without a transcript")
		return "", nil
	}}
	initActionConfig(t, fake)

	c := NewCombinerWith(
		func(context.Context, string) ([]engine.TranscriptSegment, bool, error) {
			return nil, false, errors.New("no transcript available")
		},
		staticChapters(nil, false),
	)
	out := Summarize(context.Background(), c, "abcdefghijk")
	assert.Equal(t, "no transcript available", out.Error)
	assert.EqualValues(t, 0, fake.calls.Load())
}

func TestTopicsChapterParallelClampsTimestamps(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		// Hallucinated out-of-range timestamps on purpose.
		return `[{"title": "T", "description": "d", "timestamp": 99999,
		         "key_points": [{"title": "p", "text": "t", "timestamp": -50}]}]`, nil
	}}
	initActionConfig(t, fake)

	out := Topics(context.Background(), longCombiner(t), "abcdefghijk")
	require.Empty(t, out.Error)
	require.Len(t, out.Topics, 3) // one per chapter
	assert.EqualValues(t, 3, fake.calls.Load())

	windows := [][2]float64{{0, 300}, {300, 600}, {600, 900}}
	for i, topic := range out.Topics {
		lo, hi := windows[i][0], windows[i][1]
		assert.GreaterOrEqual(t, topic.Timestamp, lo)
		assert.Less(t, topic.Timestamp, hi)
		for _, kp := range topic.KeyPoints {
			assert.GreaterOrEqual(t, kp.Timestamp, lo)
			assert.Less(t, kp.Timestamp, hi)
		}
	}
}

func TestTopicsSinglePassWhenNoChapterSplit(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "```json\n[{\"title\": \"Only Topic\", \"description\": \"d\", \"timestamp\": 42, \"key_points\": []}]\n```", nil
	}}
	initActionConfig(t, fake)

	out := Topics(context.Background(), shortCombiner(), "abcdefghijk")
	require.Empty(t, out.Error)
	require.Len(t, out.Topics, 1)
	assert.Equal(t, "Only Topic", out.Topics[0].Title)
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestTopicsMalformedJSONYieldsEmpty(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "I am sorry, I cannot produce JSON today.", nil
	}}
	initActionConfig(t, fake)

	out := Topics(context.Background(), shortCombiner(), "abcdefghijk")
	require.Empty(t, out.Error)
	assert.Empty(t, out.Topics)
}

func TestTopicsSortedByTimestamp(t *testing.T) {
	fake := &scriptedAdapter{respond: func(prompt string) (string, error) {
		// Each chapter reports a topic at its window start; concurrent
		// completion order must not affect final ordering.
		if strings.Contains(prompt, "Part Three") {
			return `[{"title": "C", "description": "d", "timestamp": 700, "key_points": []}]`, nil
		}
		if strings.Contains(prompt, "Part Two") {
			return `[{"title": "B", "description": "d", "timestamp": 400, "key_points": []}]`, nil
		}
		return `[{"title": "A", "description": "d", "timestamp": 100, "key_points": []}]`, nil
	}}
	initActionConfig(t, fake)

	out := Topics(context.Background(), longCombiner(t), "abcdefghijk")
	require.Len(t, out.Topics, 3)
	assert.Equal(t, []string{"A", "B", "C"},
		[]string{out.Topics[0].Title, out.Topics[1].Title, out.Topics[2].Title})
}

func TestKeyPointsMapReduceCostSum(t *testing.T) {
	fake := &scriptedAdapter{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "per-chapter key point lists") {
			return `[{"title": "merged", "text": "x", "timestamp": 10}]`, nil
		}
		return `[{"title": "point", "text": "x", "timestamp": 5}]`, nil
	}}
	initActionConfig(t, fake)

	out := KeyPoints(context.Background(), longCombiner(t), "abcdefghijk")
	require.Empty(t, out.Error)
	assert.EqualValues(t, 4, fake.calls.Load())
	assert.InDelta(t, 4*perCallCost, out.Cost.TotalCost, 1e-9)
	require.Len(t, out.KeyPoints, 1)
	assert.Equal(t, "merged", out.KeyPoints[0].Title)
}

func TestExplainPerChapterNoSynthesis(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "chapter explanation", nil
	}}
	initActionConfig(t, fake)

	out := Explain(context.Background(), longCombiner(t), "abcdefghijk", true)
	require.Empty(t, out.Error)
	assert.Empty(t, out.Explanation)
	require.Len(t, out.ChapterExplanations, 3)
	// Fan-out without reduce: exactly one call per chapter.
	assert.EqualValues(t, 3, fake.calls.Load())
	assert.InDelta(t, 3*perCallCost, out.Cost.TotalCost, 1e-9)
}

func TestExplainCohesive(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "one cohesive explanation", nil
	}}
	initActionConfig(t, fake)

	out := Explain(context.Background(), shortCombiner(), "abcdefghijk", false)
	require.Empty(t, out.Error)
	assert.Equal(t, "one cohesive explanation", out.Explanation)
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestExpandTopicValidation(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		t.Fatal("validation must fail before any AI call")
		return "", nil
	}}
	initActionConfig(t, fake)

	out := ExpandTopic(context.Background(), shortCombiner(), "abcdefghijk", "  ")
	assert.Contains(t, out.Error, "topic_title")
	assert.EqualValues(t, 0, fake.calls.Load())
}

func TestExpandSubtopicValidation(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		t.Fatal("validation must fail before any AI call")
		return "", nil
	}}
	initActionConfig(t, fake)

	out := ExpandSubtopic(context.Background(), "abcdefghijk", "topic", "")
	assert.Contains(t, out.Error, "content")
}

func TestExpandSubtopicStructured(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return `{"expansion": "deep dive", "key_points": [{"title": "p", "text": "t", "timestamp": 12}]}`, nil
	}}
	initActionConfig(t, fake)

	out := ExpandSubtopic(context.Background(), "abcdefghijk", "Topic", "chapter text here")
	require.Empty(t, out.Error)
	assert.Equal(t, "Topic", out.TopicTitle)
	assert.Equal(t, "deep dive", out.Expansion)
	require.Len(t, out.KeyPoints, 1)
}

func TestExpandMalformedFallsBackToRawText(t *testing.T) {
	fake := &scriptedAdapter{respond: func(string) (string, error) {
		return "just prose, no structure", nil
	}}
	initActionConfig(t, fake)

	out := ExpandSubtopic(context.Background(), "abcdefghijk", "Topic", "content")
	require.Empty(t, out.Error)
	assert.Equal(t, "just prose, no structure", out.Expansion)
	assert.Empty(t, out.KeyPoints)
}

func TestOversizedContentCappedBeforePrompt(t *testing.T) {
	var captured string
	fake := &scriptedAdapter{respond: func(prompt string) (string, error) {
		captured = prompt
		return "capped summary", nil
	}}
	initActionConfig(t, fake)

	// Multi-byte runes, well past the per-prompt cap.
	huge := strings.Repeat("слово ", 50000)
	segs := []engine.TranscriptSegment{{StartSeconds: 0, EndSeconds: 60, Text: huge}}
	c := NewCombinerWith(staticTranscript(segs, false), staticChapters(nil, false))

	out := Summarize(context.Background(), c, "abcdefghijk")
	require.Empty(t, out.Error)
	assert.Equal(t, "capped summary", out.Summary)
	assert.Contains(t, captured, "[transcript truncated]")
	assert.Less(t, utf8.RuneCountInString(captured), promptRuneLimit+1000)
}
