// go_video — YouTube transcript & AI summarization MCP server.
//
// Exposes video tools over MCP: video_transcript, video_summary,
// video_key_points, video_topics, video_explain, video_topic_expand,
// video_subtopic_expand. Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/m43i/go-ai/openai"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_video/internal/engine"
	"github.com/anatolykoptev/go_video/internal/videoserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_video",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_video",
		Version: version,
	}, nil)

	videoserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 7))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_video",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		AIModel:             env.Str("AI_MODEL", "gemini-2.5-flash"),
		AITemperature:       env.Float("AI_TEMPERATURE", 0.2),
		AIMaxTokens:         int64(env.Int("AI_MAX_TOKENS", 16384)),
		AIInputCostPerMTok:  env.Float("AI_INPUT_COST_PER_MTOK", 0.30),
		AIOutputCostPerMTok: env.Float("AI_OUTPUT_COST_PER_MTOK", 2.50),

		CaptionLanguages: env.List("CAPTION_LANGUAGES", "en"),

		OverlapOffsetSeconds:   env.Float("OVERLAP_OFFSET_SECONDS", 5),
		ChapterDurationSeconds: env.Float("CHAPTER_DURATION_SECONDS", 600),
		TranscriptCharLimit:    env.Int("TRANSCRIPT_CHAR_LIMIT", 50000),

		UsageDBPath:          env.Str("USAGE_DB_PATH", ""),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),

		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	apiBase := env.Str("AI_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai")
	apiKey := env.Str("AI_API_KEY", "")
	c.AIAdapter = openai.New(c.AIModel,
		openai.WithAPIKey(apiKey),
		openai.WithBaseURL(apiBase),
		openai.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)

	bc, err := engine.NewBrowserClient()
	if err != nil {
		slog.Warn("browser client init failed, fallback strategy disabled", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("browser client initialized")
	}

	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheMaxEntries, c.CacheCleanupInterval)
}
