package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finforge/revcast/internal/forecast"
	"github.com/finforge/revcast/internal/models"
)

func sampleAnalysisResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:          "3f1a7f8e-0000-0000-0000-000000000001",
		CreatedAt:   time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Horizon:     5,
		Simulations: 1000,
		Seed:        42,
		Series: []forecast.Point{
			{Year: 2024, Value: 60.9},
			{Year: 2025, Value: 130.5},
		},
		Forecasts: map[string]*forecast.ForecastResult{
			"Ensemble": {
				Model:  "Ensemble",
				Points: []forecast.Point{{Year: 2026, Value: 170.2}},
			},
		},
	}
}

func TestAnalysisRepositorySave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	result := sampleAnalysisResult()
	payload, err := json.Marshal(result)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs(result.ID, result.Horizon, result.Simulations, result.Seed,
			len(result.Forecasts), payload, result.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewAnalysisRepository(mock)
	require.NoError(t, repo.Save(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	createdAt := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "horizon", "simulations", "seed", "model_count", "created_at"}).
		AddRow("run-2", 5, 1000, int64(42), 9, createdAt).
		AddRow("run-1", 3, 500, int64(7), 9, createdAt.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, horizon, simulations, seed, model_count, created_at").
		WithArgs(10).
		WillReturnRows(rows)

	repo := NewAnalysisRepository(mock)
	summaries, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "run-2", summaries[0].ID)
	assert.Equal(t, int64(42), summaries[0].Seed)
	assert.Equal(t, 9, summaries[1].ModelCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stored := sampleAnalysisResult()
	payload, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM analysis_runs").
		WithArgs(stored.ID).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	repo := NewAnalysisRepository(mock)
	result, err := repo.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, result.ID)
	assert.Equal(t, 5, result.Horizon)
	require.Contains(t, result.Forecasts, "Ensemble")
	assert.InDelta(t, 170.2, result.Forecasts["Ensemble"].Points[0].Value, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepositoryGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM analysis_runs").
		WithArgs("missing").
		WillReturnError(assert.AnError)

	repo := NewAnalysisRepository(mock)
	_, err = repo.Get(context.Background(), "missing")
	assert.Error(t, err)
}
