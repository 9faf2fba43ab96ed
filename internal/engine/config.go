package engine

import (
	"net/http"
	"time"

	"github.com/m43i/go-ai/core"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	AIAdapter           core.TextAdapter
	AIModel             string
	AITemperature       float64
	AIMaxTokens         int64
	AIInputCostPerMTok  float64 // USD per 1M prompt tokens
	AIOutputCostPerMTok float64 // USD per 1M completion tokens

	CaptionLanguages []string // preferred caption track languages, in order

	OverlapOffsetSeconds   float64
	ChapterDurationSeconds float64 // synthetic chapter length when no official chapters
	TranscriptCharLimit    int     // single-pass vs map-reduce threshold

	UsageDBPath          string
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = blocked-network fallback strategy disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, video).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
