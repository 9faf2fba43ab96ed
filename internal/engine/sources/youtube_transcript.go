package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
)

// YouTube transcript fetching — an ordered chain of strategies, first
// success wins:
//  1. caption_track:   ANDROID /player → captionTracks → timedtext XML
//  2. transcript_api:  /next → engagement panel token → /get_transcript JSON
//  3. browser_client:  watch-page scrape + timedtext through the
//                      Chrome-fingerprint client (blocked-network path)

// ErrNoTranscript is the terminal condition after every strategy failed.
// Callers must treat it as non-retryable for that video.
var ErrNoTranscript = errors.New("no transcript available")

var errNoSegments = errors.New("decoded zero non-empty segments")

// transcriptTTL keeps transcripts hot without re-hitting YouTube; transcripts
// for a published video effectively never change.
const transcriptTTL = 24 * time.Hour

type transcriptStrategy struct {
	name  string
	fetch func(ctx context.Context, videoID string) ([]engine.TranscriptSegment, error)
}

// transcriptStrategies returns the fallback chain in attempt order.
// Reordering or adding a strategy is a one-line change here.
func transcriptStrategies() []transcriptStrategy {
	return []transcriptStrategy{
		{"caption_track", fetchSegmentsViaCaptionTrack},
		{"transcript_api", fetchSegmentsViaTranscriptAPI},
		{"browser_client", fetchSegmentsViaBrowserClient},
	}
}

// FetchTranscript runs the fallback chain for videoID. Each strategy is
// individually cached, so a warm earlier strategy short-circuits the rest.
// Returns the segments, whether they came from cache, or ErrNoTranscript
// once every strategy has failed.
func FetchTranscript(ctx context.Context, videoID string) ([]engine.TranscriptSegment, bool, error) {
	engine.IncrTranscriptRequest()

	for _, st := range transcriptStrategies() {
		start := time.Now()
		fetch := st.fetch
		cached, err := engine.WithCache(ctx,
			engine.CacheKey("transcript", st.name, videoID),
			engine.CacheOptions{TTL: transcriptTTL},
			func(ctx context.Context) ([]engine.TranscriptSegment, error) {
				segs, err := fetch(ctx, videoID)
				if err != nil {
					return nil, err
				}
				if len(segs) == 0 {
					// Empty decode is a failure: caching it would pin
					// "no content" as a valid transcript.
					return nil, errNoSegments
				}
				return segs, nil
			})
		if err == nil {
			return cached.Data, cached.IsFromCache, nil
		}

		engine.IncrTranscriptFallback()
		slog.Warn("transcript strategy failed, falling through",
			slog.String("strategy", st.name),
			slog.String("id", videoID),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
	}

	return nil, false, ErrNoTranscript
}

// --- Strategy 1: caption track + timedtext XML ---

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken — those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return tracks[0], false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// decodeTimedText parses a timedtext XML document into segments.
func decodeTimedText(body []byte) ([]engine.TranscriptSegment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]engine.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CleanMarkup(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, engine.TranscriptSegment{
			StartSeconds:  line.Start,
			EndSeconds:    line.Start + line.Dur,
			Text:          text,
			StartTimeText: engine.FormatTimestamp(line.Start),
		})
	}
	if len(segments) == 0 {
		return nil, errNoSegments
	}
	return segments, nil
}

// fetchTimedText fetches and decodes a YouTube timedtext caption URL.
func fetchTimedText(ctx context.Context, baseURL string) ([]engine.TranscriptSegment, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	return decodeTimedText(body)
}

// fetchSegmentsViaCaptionTrack resolves a caption track URL through the
// ANDROID /player endpoint and downloads its timedtext document.
func fetchSegmentsViaCaptionTrack(ctx context.Context, videoID string) ([]engine.TranscriptSegment, error) {
	playerResp, err := fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if playerResp.Captions == nil {
		reason := ""
		if playerResp.PlayabilityStatus != nil {
			reason = playerResp.PlayabilityStatus.Reason
		}
		if reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", reason)
		}
		return nil, errors.New("no captions in player response")
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	track, ok := pickBestTrack(tracks, engine.Cfg.CaptionLanguages)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// --- Strategy 2: formal transcript API ---

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// decodeTranscriptSegments converts a /get_transcript JSON response into segments.
func decodeTranscriptSegments(resp ytGetTranscriptResp) []engine.TranscriptSegment {
	var segments []engine.TranscriptSegment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				if run.Text != "" {
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(run.Text)
				}
			}
			text := strings.TrimSpace(sb.String())
			if text == "" {
				continue
			}
			startSec := parseMs(r.StartMs)
			endSec := parseMs(r.EndMs)
			if endSec < startSec {
				endSec = startSec
			}
			startText := r.StartTimeText.SimpleText
			if startText == "" {
				startText = engine.FormatTimestamp(startSec)
			}
			segments = append(segments, engine.TranscriptSegment{
				StartSeconds:  startSec,
				EndSeconds:    endSec,
				Text:          text,
				StartTimeText: startText,
			})
		}
	}
	return segments
}

// parseMs converts a millisecond string field to seconds; bad input maps to 0.
func parseMs(s string) float64 {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ms / 1000
}

// fetchSegmentsViaTranscriptAPI fetches a transcript via:
//  1. POST /next → get engagementPanels containing transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func fetchSegmentsViaTranscriptAPI(ctx context.Context, videoID string) ([]engine.TranscriptSegment, error) {
	visitorData := generateVisitorData()

	nextData, err := postInnerTubeWEB(ctx, ytNextURL, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	transcriptData, err := postInnerTubeWEB(ctx, ytGetTranscriptURL, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": ytWebClientCtx{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	segments := decodeTranscriptSegments(transcriptResp)
	if len(segments) == 0 {
		return nil, errNoSegments
	}
	return segments, nil
}

// --- Strategy 3: browser-fingerprint fallback ---

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchSegmentsViaBrowserClient scrapes the watch page through the
// Chrome-fingerprint TLS client and extracts a caption track URL from
// ytInitialPlayerResponse. Last resort for networks where the plain
// in-process client is blocked.
func fetchSegmentsViaBrowserClient(ctx context.Context, videoID string) ([]engine.TranscriptSegment, error) {
	bc := engine.Cfg.BrowserClient
	if bc == nil {
		return nil, errors.New("browser client disabled")
	}
	if err := innertubeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, status, err := bc.Do(http.MethodGet, ytWatchURL+videoID, engine.ChromeHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("watch page HTTP %d", status)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := engine.ExtractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	if playerResp.Captions == nil {
		return nil, errors.New("no captions in ytInitialPlayerResponse")
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks in watch page")
	}
	track, ok := pickBestTrack(tracks, engine.Cfg.CaptionLanguages)
	if !ok {
		return nil, errors.New("all tracks require PoToken")
	}

	ttBody, ttStatus, err := bc.Do(http.MethodGet, track.BaseURL, engine.ChromeHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext via browser client: %w", err)
	}
	if ttStatus != http.StatusOK {
		return nil, fmt.Errorf("timedtext HTTP %d", ttStatus)
	}
	return decodeTimedText(ttBody)
}
