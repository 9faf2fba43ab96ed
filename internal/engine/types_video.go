package engine

// --- Transcript / chapter data model ---

// TranscriptSegment is a single time-stamped unit of transcript text.
// Produced by a transcript decoder; immutable afterwards.
type TranscriptSegment struct {
	StartSeconds  float64 `json:"start_seconds"`
	EndSeconds    float64 `json:"end_seconds"`
	Text          string  `json:"text"`
	StartTimeText string  `json:"start_time_text"`
}

// ChapterOpenEnd marks the final chapter's end time before it is resolved
// against the transcript's total duration.
const ChapterOpenEnd = float64(-1)

// Chapter is a named time range within a video, either platform-declared
// (parsed from the description) or synthesized from fixed-duration windows.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ChapterWithContent is a chapter plus the space-joined, time-ordered text of
// every transcript segment assigned to it.
type ChapterWithContent struct {
	Chapter
	Content  string              `json:"content"`
	Segments []TranscriptSegment `json:"segments"`
}

// CombinedMetadata summarizes a combined transcript+chapters result.
type CombinedMetadata struct {
	TotalDuration        float64 `json:"total_duration"`
	ChapterCount         int     `json:"chapter_count"`
	TranscriptItemCount  int     `json:"transcript_item_count"`
	OverlapOffsetSeconds float64 `json:"overlap_offset_seconds"`
}

// CombinedTranscriptChapters is the normalized unit handed to the AI layer.
// A failed pipeline populates Error and leaves the metadata zero-valued;
// callers check Error instead of catching anything.
type CombinedTranscriptChapters struct {
	VideoID     string               `json:"video_id"`
	Metadata    CombinedMetadata     `json:"metadata"`
	Chapters    []ChapterWithContent `json:"chapters"`
	Transcript  []TranscriptSegment  `json:"transcript"`
	Error       string               `json:"error,omitempty"`
	IsFromCache bool                 `json:"is_from_cache"`
}

// TopicKeyPoint is one timestamped point under a topic.
type TopicKeyPoint struct {
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// VideoTopic is a titled region of the video with its key points.
// Timestamps are always clamped into the producing chapter's window.
type VideoTopic struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Timestamp   float64         `json:"timestamp"`
	KeyPoints   []TopicKeyPoint `json:"key_points"`
}

// ChapterSummary is one chapter's AI output in a map-reduce run.
type ChapterSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// --- Tool input types ---

type VideoActionInput struct {
	VideoID string `json:"video_id" jsonschema:"YouTube video ID (11 characters)"`
}

type VideoExplainInput struct {
	VideoID    string `json:"video_id" jsonschema:"YouTube video ID (11 characters)"`
	PerChapter bool   `json:"per_chapter,omitempty" jsonschema:"Produce an independent explanation per chapter instead of one cohesive explanation"`
}

type TopicExpandInput struct {
	VideoID    string `json:"video_id" jsonschema:"YouTube video ID (11 characters)"`
	TopicTitle string `json:"topic_title" jsonschema:"Title of the topic to expand on"`
}

type SubtopicExpandInput struct {
	VideoID    string `json:"video_id" jsonschema:"YouTube video ID (11 characters)"`
	TopicTitle string `json:"topic_title" jsonschema:"Title of the subtopic to expand on"`
	Content    string `json:"content" jsonschema:"Narrow content slice (one topic or chapter's text) to expand within"`
}

type VideoTranscriptInput struct {
	VideoID              string  `json:"video_id" jsonschema:"YouTube video ID (11 characters)"`
	OverlapOffsetSeconds float64 `json:"overlap_offset_seconds,omitempty" jsonschema:"Chapter boundary overlap in seconds (default 5)"`
	TotalChapters        int     `json:"total_chapters,omitempty" jsonschema:"Force this many equal synthetic chapters when the video has no official chapters"`
}

// --- Tool output types (JSON responses) ---

// ActionMeta carries the fields every AI action result shares.
type ActionMeta struct {
	VideoID     string     `json:"video_id"`
	ModelID     string     `json:"model_id,omitempty"`
	Cost        PromptCost `json:"cost"`
	IsFromCache bool       `json:"is_from_cache"`
	RateLimited bool       `json:"rate_limited,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type SummaryOutput struct {
	ActionMeta
	Summary          string           `json:"summary,omitempty"`
	ChapterSummaries []ChapterSummary `json:"chapter_summaries,omitempty"`
}

type KeyPointsOutput struct {
	ActionMeta
	KeyPoints []TopicKeyPoint `json:"key_points,omitempty"`
}

type TopicsOutput struct {
	ActionMeta
	Topics []VideoTopic `json:"topics,omitempty"`
}

type ExplainOutput struct {
	ActionMeta
	Explanation         string           `json:"explanation,omitempty"`
	ChapterExplanations []ChapterSummary `json:"chapter_explanations,omitempty"`
}

type ExpandOutput struct {
	ActionMeta
	TopicTitle string          `json:"topic_title"`
	Expansion  string          `json:"expansion,omitempty"`
	KeyPoints  []TopicKeyPoint `json:"key_points,omitempty"`
}
