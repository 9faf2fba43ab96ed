package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m43i/go-ai/core"
)

// AI invocation primitive. Every action in the video layer funnels through
// ProcessPrompt; the tag is bookkeeping only and never changes behavior.

// PromptCost is the token accounting for one AI call.
type PromptCost struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// Add returns the element-wise sum of two costs.
func (c PromptCost) Add(o PromptCost) PromptCost {
	return PromptCost{
		InputTokens:  c.InputTokens + o.InputTokens,
		OutputTokens: c.OutputTokens + o.OutputTokens,
		TotalCost:    c.TotalCost + o.TotalCost,
	}
}

// PromptResult is the text and cost of one completed AI call.
type PromptResult struct {
	Text string
	Cost PromptCost
}

// ErrEmptyCompletion means the model returned no text at all.
var ErrEmptyCompletion = errors.New("empty completion")

// ProcessPrompt sends one prompt to the configured model and returns the raw
// response text plus its cost. The tag identifies the caller in logs and in
// the usage ledger.
func ProcessPrompt(ctx context.Context, prompt, tag string) (PromptResult, error) {
	if cfg.AIAdapter == nil {
		return PromptResult{}, errors.New("AI adapter not configured")
	}
	IncrAICall()
	start := time.Now()

	temp := cfg.AITemperature
	maxTokens := cfg.AIMaxTokens
	res, err := cfg.AIAdapter.Chat(ctx, &core.ChatParams{
		Messages: []core.MessageUnion{
			core.TextMessagePart{Role: core.RoleUser, Content: prompt},
		},
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	})
	if err != nil {
		IncrAIError()
		return PromptResult{}, fmt.Errorf("ai chat [%s]: %w", tag, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		IncrAIError()
		return PromptResult{}, ErrEmptyCompletion
	}

	cost := costFromUsage(res.Usage)
	RecordUsage(ctx, tag, cfg.AIModel, cost)

	slog.Debug("ai call",
		slog.String("tag", tag),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int64("input_tokens", cost.InputTokens),
		slog.Int64("output_tokens", cost.OutputTokens))
	return PromptResult{Text: res.Text, Cost: cost}, nil
}

// costFromUsage prices a call from its token counts. Providers that omit
// usage data yield a zero cost rather than an error.
func costFromUsage(u *core.Usage) PromptCost {
	if u == nil {
		return PromptCost{}
	}
	total := float64(u.PromptTokens)/1e6*cfg.AIInputCostPerMTok +
		float64(u.CompletionTokens)/1e6*cfg.AIOutputCostPerMTok
	return PromptCost{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalCost:    total,
	}
}

// rateLimitMarkers are matched case-insensitively against provider error text.
var rateLimitMarkers = []string{"429", "rate limit", "rate_limit", "quota", "resource exhausted"}

// IsRateLimitError reports whether err looks like an upstream quota or
// rate-limit rejection. Heuristic only: providers disagree on error shapes,
// so substring matching is the common denominator.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
