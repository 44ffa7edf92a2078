package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBar represents one aggregate bar collected from the market data API.
type StockBar struct {
	Symbol      string          `json:"symbol" db:"symbol"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	Open        decimal.Decimal `json:"open" db:"open"`
	High        decimal.Decimal `json:"high" db:"high"`
	Low         decimal.Decimal `json:"low" db:"low"`
	Close       decimal.Decimal `json:"close" db:"close"`
	Volume      decimal.Decimal `json:"volume" db:"volume"`
	CollectedAt time.Time       `json:"collected_at" db:"collected_at"`
}

// PriceSnapshot is the latest published view of a symbol: last price plus
// indicator context computed over the most recent bars.
type PriceSnapshot struct {
	Symbol    string          `json:"symbol"`
	Last      decimal.Decimal `json:"last"`
	AsOf      time.Time       `json:"as_of"`
	BarCount  int             `json:"bar_count"`
	SMA20     decimal.Decimal `json:"sma_20"`
	RSI14     decimal.Decimal `json:"rsi_14"`
	UpdatedAt time.Time       `json:"updated_at"`
}
