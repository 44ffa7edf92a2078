package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finforge/revcast/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// AnalysisSummary is the stored view of a completed analysis run.
type AnalysisSummary struct {
	ID          string    `json:"id" db:"id"`
	Horizon     int       `json:"horizon" db:"horizon"`
	Simulations int       `json:"simulations" db:"simulations"`
	Seed        int64     `json:"seed" db:"seed"`
	ModelCount  int       `json:"model_count" db:"model_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AnalysisRepository persists completed analysis runs.
type AnalysisRepository struct {
	pool DatabasePool
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(pool DatabasePool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// Save stores the run summary and the full result payload as JSON.
func (r *AnalysisRepository) Save(ctx context.Context, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (id, horizon, simulations, seed, model_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		result.ID, result.Horizon, result.Simulations, result.Seed,
		len(result.Forecasts), payload, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store analysis run %s: %w", result.ID, err)
	}
	return nil
}

// Recent returns summaries of the most recent runs, newest first.
func (r *AnalysisRepository) Recent(ctx context.Context, limit int) ([]AnalysisSummary, error) {
	query := `
		SELECT id, horizon, simulations, seed, model_count, created_at
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	var summaries []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.ID, &s.Horizon, &s.Simulations, &s.Seed, &s.ModelCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analysis runs: %w", err)
	}
	return summaries, nil
}

// Get loads one stored run payload by ID.
func (r *AnalysisRepository) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	query := `SELECT payload FROM analysis_runs WHERE id = $1`

	var payload []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		return nil, fmt.Errorf("failed to load analysis run %s: %w", id, err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis run %s: %w", id, err)
	}
	return &result, nil
}
