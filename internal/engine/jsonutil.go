package engine

import (
	"encoding/json"
	"regexp"
	"strings"
)

// JSON salvage for model output. Models asked for structured output wrap it
// in markdown fences, prepend prose, or truncate the tail; these helpers
// recover what they can and report failure as a boolean, never a panic.

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")

// ExtractJSONBlock pulls a JSON payload out of free-form model text.
// Order: fenced code block first, then a best-effort raw object/array scan.
// Returns "" when nothing parseable-looking is present.
func ExtractJSONBlock(raw string) string {
	if m := fencedBlockRe.FindStringSubmatch(raw); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	// Try candidates in document order: a bare array must win over the
	// objects inside it. Candidates that never close are skipped.
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		if b := ExtractJSON([]byte(raw[i:])); b != nil {
			return string(b)
		}
	}
	return ""
}

// DecodeJSONBlock extracts and unmarshals a JSON payload from model text.
// Returns the zero value and false on any failure.
func DecodeJSONBlock[T any](raw string) (T, bool) {
	var out T
	block := ExtractJSONBlock(raw)
	if block == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// ExtractJSON extracts a complete JSON object or array starting at b[0]
// by tracking bracket depth, string state, and escapes.
func ExtractJSON(b []byte) []byte {
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, c := range b {
		if inStr {
			if c == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch c {
			case '"':
				inStr = true
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = c
	}
	return nil
}

// StripFences removes markdown code fences from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
