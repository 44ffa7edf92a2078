package database

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order on startup. Each statement is
// idempotent so repeated boots are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		horizon INTEGER NOT NULL,
		simulations INTEGER NOT NULL,
		seed BIGINT NOT NULL,
		model_count INTEGER NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS stock_bars (
		symbol VARCHAR(16) NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		open DECIMAL(18, 6) NOT NULL,
		high DECIMAL(18, 6) NOT NULL,
		low DECIMAL(18, 6) NOT NULL,
		close DECIMAL(18, 6) NOT NULL,
		volume DECIMAL(24, 4) NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, timestamp)
	)`,
}

// EnsureSchema creates the tables the repositories depend on.
func EnsureSchema(ctx context.Context, pool DatabasePool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
