package database

import (
	"context"
	"fmt"

	"github.com/finforge/revcast/internal/models"
)

// PriceRepository persists collected stock bars. The (symbol, timestamp)
// pair is unique, so re-collecting an interval is an upsert, not a
// duplicate.
type PriceRepository struct {
	pool DatabasePool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool DatabasePool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveBars upserts a batch of bars for one symbol. Returns the number of
// rows written.
func (r *PriceRepository) SaveBars(ctx context.Context, bars []models.StockBar) (int64, error) {
	query := `
		INSERT INTO stock_bars (symbol, timestamp, open, high, low, close, volume, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			collected_at = EXCLUDED.collected_at`

	var written int64
	for _, bar := range bars {
		tag, err := r.pool.Exec(ctx, query,
			bar.Symbol, bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.CollectedAt)
		if err != nil {
			return written, fmt.Errorf("failed to store bar for %s at %s: %w", bar.Symbol, bar.Timestamp, err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// RecentBars returns the latest bars for a symbol in ascending time order.
func (r *PriceRepository) RecentBars(ctx context.Context, symbol string, limit int) ([]models.StockBar, error) {
	query := `
		SELECT symbol, timestamp, open, high, low, close, volume, collected_at
		FROM (
			SELECT symbol, timestamp, open, high, low, close, volume, collected_at
			FROM stock_bars
			WHERE symbol = $1
			ORDER BY timestamp DESC
			LIMIT $2
		) recent
		ORDER BY timestamp ASC`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []models.StockBar
	for rows.Next() {
		var b models.StockBar
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bar for %s: %w", symbol, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bars for %s: %w", symbol, err)
	}
	return bars, nil
}
