package sources

import (
	"encoding/json"
	"testing"

	"github.com/anatolykoptev/go_video/internal/engine"
)

func TestDecodeTimedText(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.12" dur="2.5">hello &amp;amp; welcome</text>
  <text start="2.62" dur="3.0">&lt;font color="#CCCCCC"&gt;second line&lt;/font&gt;</text>
  <text start="5.62" dur="1.0">   </text>
  <text start="6.62" dur="2.0">closing thoughts</text>
</transcript>`)

	segs, err := decodeTimedText(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments (blank dropped), got %d", len(segs))
	}
	if segs[0].Text != "hello & welcome" {
		t.Errorf("entities not decoded: %q", segs[0].Text)
	}
	if segs[0].StartSeconds != 0.12 {
		t.Errorf("start = %v", segs[0].StartSeconds)
	}
	if segs[0].EndSeconds != 2.62 {
		t.Errorf("end = %v", segs[0].EndSeconds)
	}
	if segs[1].Text != "second line" {
		t.Errorf("markup not stripped: %q", segs[1].Text)
	}
	if segs[0].StartTimeText != "0:00" {
		t.Errorf("start text = %q", segs[0].StartTimeText)
	}
}

func TestDecodeTimedTextEmptyIsFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no lines", `<transcript></transcript>`},
		{"only blank lines", `<transcript><text start="0" dur="1">  </text></transcript>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeTimedText([]byte(tt.body)); err == nil {
				t.Error("zero non-empty segments must decode as failure")
			}
		})
	}
}

func TestDecodeTimedTextMalformedXML(t *testing.T) {
	if _, err := decodeTimedText([]byte(`<transcript><text`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestPickBestTrack(t *testing.T) {
	manual := captionTrack{BaseURL: "https://yt/manual", LanguageCode: "en"}
	auto := captionTrack{BaseURL: "https://yt/auto", LanguageCode: "en", Kind: "asr"}
	german := captionTrack{BaseURL: "https://yt/de", LanguageCode: "de"}
	poToken := captionTrack{BaseURL: "https://yt/blocked&exp=xpe", LanguageCode: "en"}

	tests := []struct {
		name    string
		tracks  []captionTrack
		langs   []string
		wantURL string
		wantOK  bool
	}{
		{"manual preferred over asr", []captionTrack{auto, manual}, []string{"en"}, "https://yt/manual", true},
		{"asr when no manual", []captionTrack{auto, german}, []string{"en"}, "https://yt/auto", true},
		{"language preference order", []captionTrack{german, manual}, []string{"de", "en"}, "https://yt/de", true},
		{"english fallback", []captionTrack{german, manual}, []string{"fr"}, "https://yt/manual", true},
		{"first usable as last resort", []captionTrack{german}, []string{"fr"}, "https://yt/de", true},
		{"potoken tracks skipped", []captionTrack{poToken, manual}, []string{"en"}, "https://yt/manual", true},
		{"all potoken", []captionTrack{poToken}, []string{"en"}, poToken.BaseURL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tt.tracks, tt.langs)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.BaseURL != tt.wantURL {
				t.Errorf("picked %q, want %q", got.BaseURL, tt.wantURL)
			}
		})
	}
}

func TestExtractTranscriptToken(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		data := []byte(`{"engagementPanels":[{"x":{"getTranscriptEndpoint":{"params":"CgtkUXc0dzlXZ1hjUQ%3D%3D"}}}]}`)
		token, err := extractTranscriptToken(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "CgtkUXc0dzlXZ1hjUQ==" {
			t.Errorf("token = %q", token)
		}
	})
	t.Run("absent", func(t *testing.T) {
		if _, err := extractTranscriptToken([]byte(`{"contents":{}}`)); err == nil {
			t.Error("expected error when endpoint missing")
		}
	})
}

func TestDecodeTranscriptSegments(t *testing.T) {
	raw := `{
	  "actions": [{
	    "updateEngagementPanelAction": {
	      "content": {"transcriptRenderer": {"content": {"transcriptSearchPanelRenderer": {"body": {"transcriptSegmentListRenderer": {"initialSegments": [
	        {"transcriptSegmentRenderer": {"startMs": "1500", "endMs": "4000", "startTimeText": {"simpleText": "0:01"}, "snippet": {"runs": [{"text": "first"}, {"text": "part"}]}}},
	        {"transcriptSegmentRenderer": {"startMs": "4000", "endMs": "6000", "snippet": {"runs": [{"text": "  "}]}}},
	        {"transcriptSegmentRenderer": {"startMs": "6000", "endMs": "5000", "snippet": {"runs": [{"text": "clamped"}]}}}
	      ]}}}}}}
	    }
	  }]
	}`
	var resp ytGetTranscriptResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("fixture unmarshal: %v", err)
	}

	segs := decodeTranscriptSegments(resp)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments (blank dropped), got %d", len(segs))
	}
	if segs[0].Text != "first part" {
		t.Errorf("runs not joined: %q", segs[0].Text)
	}
	if segs[0].StartSeconds != 1.5 || segs[0].EndSeconds != 4.0 {
		t.Errorf("times = %v..%v", segs[0].StartSeconds, segs[0].EndSeconds)
	}
	if segs[0].StartTimeText != "0:01" {
		t.Errorf("start text = %q", segs[0].StartTimeText)
	}
	if segs[1].EndSeconds != segs[1].StartSeconds {
		t.Errorf("inverted end should clamp to start, got %v..%v", segs[1].StartSeconds, segs[1].EndSeconds)
	}
}

func TestParseChapterLines(t *testing.T) {
	t.Run("standard list", func(t *testing.T) {
		desc := "Great video about Go.\n\n" +
			"0:00 Intro\n" +
			"2:30 - Setting up\n" +
			"10:00 Advanced patterns\n" +
			"1:02:03 Closing thoughts\n\n" +
			"Follow me on social media."
		chapters := ParseChapterLines(desc)
		if len(chapters) != 4 {
			t.Fatalf("expected 4 chapters, got %d: %+v", len(chapters), chapters)
		}
		if chapters[0].Title != "Intro" || chapters[0].StartTime != 0 {
			t.Errorf("chapter 0 = %+v", chapters[0])
		}
		if chapters[1].Title != "Setting up" || chapters[1].StartTime != 150 {
			t.Errorf("chapter 1 = %+v", chapters[1])
		}
		if chapters[0].EndTime != 150 {
			t.Errorf("chapter 0 end should be next start, got %v", chapters[0].EndTime)
		}
		if chapters[3].EndTime != engine.ChapterOpenEnd {
			t.Errorf("last chapter should be open-ended, got %v", chapters[3].EndTime)
		}
	})

	t.Run("must start at zero", func(t *testing.T) {
		if got := ParseChapterLines("2:00 Not from start\n5:00 Later"); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("out of order lines dropped", func(t *testing.T) {
		chapters := ParseChapterLines("0:00 A\n5:00 B\n3:00 out of order\n8:00 C")
		if len(chapters) != 3 {
			t.Fatalf("expected 3 chapters, got %d", len(chapters))
		}
		if chapters[2].Title != "C" {
			t.Errorf("chapter 2 = %+v", chapters[2])
		}
	})

	t.Run("single timestamp is not a chapter list", func(t *testing.T) {
		if got := ParseChapterLines("0:00 hello everyone"); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("no timestamps", func(t *testing.T) {
		if got := ParseChapterLines("just a plain description"); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}
