package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// AI usage ledger — append-only SQLite record of every ProcessPrompt call.
// Best-effort: a broken ledger never fails an AI call, it only logs.

// UsageSummary holds aggregated token usage and cost totals.
type UsageSummary struct {
	TotalCalls        int64   `json:"total_calls"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
}

var (
	usageDB   *sql.DB
	usageOnce sync.Once
	usageErr  error
)

// openUsageDB opens (or creates) the SQLite usage ledger.
func openUsageDB() (*sql.DB, error) {
	usageOnce.Do(func() {
		path := cfg.UsageDBPath
		if path == "" {
			dir := filepath.Join(os.Getenv("HOME"), ".go_video")
			if err := os.MkdirAll(dir, 0750); err != nil {
				usageErr = fmt.Errorf("usage: mkdir %s: %w", dir, err)
				return
			}
			path = filepath.Join(dir, "usage.db")
		}

		db, err := sql.Open("sqlite", path)
		if err != nil {
			usageErr = fmt.Errorf("usage: open %s: %w", path, err)
			return
		}

		schema := `
		CREATE TABLE IF NOT EXISTS ai_usage (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     TEXT NOT NULL,
			tag           TEXT NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost_usd      REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ai_usage_timestamp ON ai_usage(timestamp);
		CREATE INDEX IF NOT EXISTS idx_ai_usage_tag ON ai_usage(tag);
		`
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			usageErr = fmt.Errorf("usage: migrate schema: %w", err)
			return
		}
		usageDB = db
	})
	return usageDB, usageErr
}

// RecordUsage appends one AI call's cost to the ledger.
func RecordUsage(ctx context.Context, tag, model string, cost PromptCost) {
	db, err := openUsageDB()
	if err != nil {
		slog.Debug("usage: ledger unavailable", slog.Any("error", err))
		return
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO ai_usage (timestamp, tag, model, input_tokens, output_tokens, cost_usd)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		tag, model, cost.InputTokens, cost.OutputTokens, cost.TotalCost,
	)
	if err != nil {
		slog.Debug("usage: insert failed", slog.Any("error", err))
	}
}

// UsageTotals aggregates the whole ledger.
func UsageTotals(ctx context.Context) (UsageSummary, error) {
	db, err := openUsageDB()
	if err != nil {
		return UsageSummary{}, err
	}
	var s UsageSummary
	row := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0),
		        COALESCE(SUM(cost_usd), 0)
		 FROM ai_usage`)
	if err := row.Scan(&s.TotalCalls, &s.TotalInputTokens, &s.TotalOutputTokens, &s.TotalCostUSD); err != nil {
		return UsageSummary{}, fmt.Errorf("usage: totals: %w", err)
	}
	return s, nil
}
