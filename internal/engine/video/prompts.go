package video

// LLM prompt templates — data only, no logic.

// summarySinglePrompt — one cohesive summary over the whole transcript.
// Args: video ID, transcript text.
const summarySinglePrompt = `Summarize the following video transcript into a clear, well-structured summary.

Rules:
- 2-4 paragraphs of plain prose, no markdown headers
- Cover the main argument, key supporting points, and any conclusions
- Do NOT pad with filler like "in this video" or "the speaker discusses"
- Write in the SAME LANGUAGE as the transcript

Video: %s

Transcript:
%s`

// summaryChapterPrompt — map phase: summarize one chapter in isolation.
// Args: chapter title, chapter content.
const summaryChapterPrompt = `Summarize this single chapter of a longer video. Be concise and specific.

Rules:
- 2-4 sentences of plain prose
- Only cover what THIS chapter says; do not speculate about the rest of the video
- Keep concrete details: names, numbers, commands, conclusions

Chapter: %s

Content:
%s`

// summarySynthesisPrompt — reduce phase: merge chapter summaries into one.
// Args: video ID, concatenated chapter summaries.
const summarySynthesisPrompt = `Below are per-chapter summaries of one video, in order. Merge them into a single cohesive summary of the whole video.

Rules:
- 2-4 paragraphs of plain prose, no markdown headers
- Preserve the video's narrative arc; do not list chapters one by one
- Remove repetition between chapters
- Write in the SAME LANGUAGE as the summaries

Video: %s

Chapter summaries:
%s`

// keyPointsPrompt — timestamped key points over a transcript slice.
// Args: transcript text with timestamps.
const keyPointsPrompt = `Extract the most important key points from this timestamped video transcript.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
[
  {"title": "Short point title", "text": "One-sentence explanation of the point.", "timestamp": 123.0}
]

Rules:
- 5-10 key points, each with the timestamp (in seconds) where it is made
- title: under 8 words; text: one complete sentence
- timestamp must be a number taken from the transcript markers, not invented
- Order by timestamp ascending
- Use the SAME LANGUAGE as the transcript

Transcript:
%s`

// keyPointsSynthesisPrompt — reduce phase for key points.
// Args: concatenated per-chapter key point JSON.
const keyPointsSynthesisPrompt = `Below are per-chapter key point lists (JSON) for one video. Merge them into a single deduplicated list of the video's most important points.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
[
  {"title": "Short point title", "text": "One-sentence explanation.", "timestamp": 123.0}
]

Rules:
- Keep 8-15 points total, the most important across all chapters
- Keep each point's original timestamp
- Drop near-duplicates, keep the better-phrased one
- Order by timestamp ascending

Chapter key points:
%s`

// topicsChapterPrompt — per-chapter topic extraction with a hard time window.
// Args: start seconds, end seconds, start seconds, end seconds (the window is
// stated in the header and restated in the rules), chapter title, chapter
// content with timestamps.
const topicsChapterPrompt = `Identify the topics covered in this chapter of a video. This chapter spans seconds %.0f to %.0f.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
[
  {
    "title": "Topic title",
    "description": "1-2 sentence description of the topic.",
    "timestamp": 123.0,
    "key_points": [
      {"title": "Point title", "text": "One sentence.", "timestamp": 130.0}
    ]
  }
]

Rules:
- 1-3 topics for THIS chapter only
- Every timestamp MUST be within [%.0f, %.0f) — use the transcript's own markers
- 2-4 key points per topic
- Use the SAME LANGUAGE as the transcript

Chapter: %s

Content:
%s`

// topicsSinglePrompt — whole-transcript topic extraction when no chapters exist.
// Args: transcript text with timestamps.
const topicsSinglePrompt = `Identify the main topics covered in this timestamped video transcript.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
[
  {
    "title": "Topic title",
    "description": "1-2 sentence description of the topic.",
    "timestamp": 123.0,
    "key_points": [
      {"title": "Point title", "text": "One sentence.", "timestamp": 130.0}
    ]
  }
]

Rules:
- 3-8 topics spanning the whole video, ordered by timestamp
- Timestamps come from the transcript markers, never invented
- 2-4 key points per topic
- Use the SAME LANGUAGE as the transcript

Transcript:
%s`

// explainSinglePrompt — plain-language explanation of the whole video.
// Args: video ID, transcript text.
const explainSinglePrompt = `Explain the content of this video in plain language, as if teaching someone new to the subject.

Rules:
- 3-6 paragraphs, no markdown headers
- Define jargon the first time it appears
- Walk through the reasoning, not just the conclusions
- Write in the SAME LANGUAGE as the transcript

Video: %s

Transcript:
%s`

// explainChapterPrompt — independent per-chapter explanation, no reduce step.
// Args: chapter title, chapter content.
const explainChapterPrompt = `Explain this chapter of a video in plain language, as if teaching someone new to the subject.

Rules:
- 1-2 paragraphs, no markdown headers
- Only explain what THIS chapter covers
- Define jargon the first time it appears

Chapter: %s

Content:
%s`

// topicExpandPrompt — deep-dive on one topic against the full transcript.
// Args: topic title, transcript text.
const topicExpandPrompt = `Expand in depth on the topic "%s" using only this video transcript.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
{
  "expansion": "3-5 paragraph in-depth treatment of the topic, plain prose.",
  "key_points": [
    {"title": "Point title", "text": "One sentence.", "timestamp": 123.0}
  ]
}

Rules:
- Only use material from the transcript; do not add outside knowledge
- timestamps come from the transcript markers
- Use the SAME LANGUAGE as the transcript

Transcript:
%s`

// subtopicExpandPrompt — deep-dive within a supplied narrow content slice.
// Args: subtopic title, content slice.
const subtopicExpandPrompt = `Expand in depth on "%s" using only the content below (one topic or chapter of a video).

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
{
  "expansion": "2-4 paragraph in-depth treatment, plain prose.",
  "key_points": [
    {"title": "Point title", "text": "One sentence.", "timestamp": 123.0}
  ]
}

Rules:
- Only use the supplied content; do not add outside knowledge
- Use the SAME LANGUAGE as the content

Content:
%s`
