package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finforge/revcast/internal/models"
)

func sampleBar(ts time.Time, close float64) models.StockBar {
	return models.StockBar{
		Symbol:      "AAPL",
		Timestamp:   ts,
		Open:        decimal.NewFromFloat(close - 0.5),
		High:        decimal.NewFromFloat(close + 1),
		Low:         decimal.NewFromFloat(close - 1),
		Close:       decimal.NewFromFloat(close),
		Volume:      decimal.NewFromInt(100000),
		CollectedAt: ts.Add(time.Second),
	}
}

func TestPriceRepositorySaveBars(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	bars := []models.StockBar{
		sampleBar(base, 189.25),
		sampleBar(base.Add(5*time.Minute), 189.70),
	}

	for _, bar := range bars {
		mock.ExpectExec("INSERT INTO stock_bars").
			WithArgs(bar.Symbol, bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.CollectedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	repo := NewPriceRepository(mock)
	written, err := repo.SaveBars(context.Background(), bars)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepositorySaveBarsStopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	bars := []models.StockBar{sampleBar(base, 189.25), sampleBar(base.Add(5*time.Minute), 189.70)}

	mock.ExpectExec("INSERT INTO stock_bars").
		WithArgs(bars[0].Symbol, bars[0].Timestamp, bars[0].Open, bars[0].High, bars[0].Low, bars[0].Close, bars[0].Volume, bars[0].CollectedAt).
		WillReturnError(assert.AnError)

	repo := NewPriceRepository(mock)
	written, err := repo.SaveBars(context.Background(), bars)
	assert.Error(t, err)
	assert.Equal(t, int64(0), written)
}

func TestPriceRepositoryRecentBars(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)
	first := sampleBar(base, 189.25)
	second := sampleBar(base.Add(5*time.Minute), 189.70)

	rows := pgxmock.NewRows([]string{"symbol", "timestamp", "open", "high", "low", "close", "volume", "collected_at"}).
		AddRow(first.Symbol, first.Timestamp, first.Open, first.High, first.Low, first.Close, first.Volume, first.CollectedAt).
		AddRow(second.Symbol, second.Timestamp, second.Open, second.High, second.Low, second.Close, second.Volume, second.CollectedAt)

	mock.ExpectQuery("SELECT symbol, timestamp, open, high, low, close, volume, collected_at").
		WithArgs("AAPL", 50).
		WillReturnRows(rows)

	repo := NewPriceRepository(mock)
	bars, err := repo.RecentBars(context.Background(), "AAPL", 50)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.True(t, bars[1].Close.Equal(decimal.NewFromFloat(189.70)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
