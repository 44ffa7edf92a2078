package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/finforge/revcast/internal/cache"
	"github.com/finforge/revcast/internal/config"
	"github.com/finforge/revcast/internal/database"
	"github.com/finforge/revcast/internal/models"
	"github.com/finforge/revcast/internal/telemetry"
)

const (
	snapshotBarWindow = 50
	smaPeriod         = 20
	rsiPeriod         = 14
)

// PriceCollector polls a Polygon-style aggregates API for the configured
// symbols on a fixed interval, stores the bars, and publishes the latest
// snapshot per symbol to the cache.
type PriceCollector struct {
	cfg      *config.Config
	repo     *database.PriceRepository
	cache    *cache.SnapshotCache
	client   *http.Client
	logger   *logrus.Logger
	interval time.Duration
	callGap  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPriceCollector creates a collector. repo may be nil, in which case
// bars are only published to the cache.
func NewPriceCollector(cfg *config.Config, repo *database.PriceRepository, snapshotCache *cache.SnapshotCache, logger *logrus.Logger) *PriceCollector {
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	interval := 5 * time.Minute
	if cfg.MarketData.CollectionInterval != "" {
		if parsed, err := time.ParseDuration(cfg.MarketData.CollectionInterval); err == nil {
			interval = parsed
		}
	}

	// Free-tier rate limits are per minute; space calls out evenly.
	callGap := time.Duration(0)
	if cfg.MarketData.CallsPerMinute > 0 {
		callGap = time.Minute / time.Duration(cfg.MarketData.CallsPerMinute)
	}

	return &PriceCollector{
		cfg:      cfg,
		repo:     repo,
		cache:    snapshotCache,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		interval: interval,
		callGap:  callGap,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the background collection loop.
func (c *PriceCollector) Start() error {
	if c.cfg.MarketData.APIKey == "" {
		return fmt.Errorf("market data API key is not configured")
	}

	c.logger.WithFields(logrus.Fields{
		"symbols":  len(c.cfg.MarketData.Symbols),
		"interval": c.interval.String(),
	}).Info("Starting price collector")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collectAll(c.ctx)
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				c.collectAll(c.ctx)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the collection loop.
func (c *PriceCollector) Stop() {
	c.logger.Info("Stopping price collector")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("Price collector stopped")
}

func (c *PriceCollector) collectAll(ctx context.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -c.cfg.MarketData.LookbackDays)

	for i, symbol := range c.cfg.MarketData.Symbols {
		if i > 0 && c.callGap > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.callGap):
			}
		}

		if err := c.collectSymbol(ctx, symbol, from, to); err != nil {
			c.logger.WithField("symbol", symbol).WithError(err).Warn("Collection failed")
		}
	}
}

func (c *PriceCollector) collectSymbol(ctx context.Context, symbol string, from, to time.Time) error {
	ctx, span := telemetry.Tracer("price-collector").Start(ctx, "collect_symbol",
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	bars, err := c.fetchAggregates(ctx, symbol, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}
	span.SetAttributes(attribute.Int("bars", len(bars)))
	if len(bars) == 0 {
		c.logger.WithField("symbol", symbol).Debug("No bars returned")
		return nil
	}

	if c.repo != nil {
		written, err := c.repo.SaveBars(ctx, bars)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store failed")
			return err
		}
		c.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"bars":   written,
		}).Debug("Stored bars")
	}

	if err := c.publishSnapshot(ctx, symbol, bars); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot publish failed")
		return err
	}
	return nil
}

// aggregatesResponse mirrors the Polygon aggregates payload.
type aggregatesResponse struct {
	Status       string         `json:"status"`
	ResultsCount int            `json:"resultsCount"`
	Results      []aggregateBar `json:"results"`
}

type aggregateBar struct {
	Timestamp int64   `json:"t"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

func (c *PriceCollector) fetchAggregates(ctx context.Context, symbol string, from, to time.Time) ([]models.StockBar, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		c.cfg.MarketData.BaseURL, symbol,
		c.cfg.MarketData.Interval, c.cfg.MarketData.Timespan,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")
	params.Set("limit", "50000")
	params.Set("apiKey", c.cfg.MarketData.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregates request for %s: %w", symbol, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregates request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("aggregates API returned %d for %s: %s", resp.StatusCode, symbol, string(body))
	}

	var payload aggregatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode aggregates for %s: %w", symbol, err)
	}

	// Delayed data is still valid on the free tier.
	if payload.Status != "OK" && payload.Status != "DELAYED" {
		return nil, fmt.Errorf("aggregates API status %q for %s", payload.Status, symbol)
	}

	now := time.Now().UTC()
	bars := make([]models.StockBar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, models.StockBar{
			Symbol:      symbol,
			Timestamp:   time.UnixMilli(r.Timestamp).UTC(),
			Open:        decimal.NewFromFloat(r.Open),
			High:        decimal.NewFromFloat(r.High),
			Low:         decimal.NewFromFloat(r.Low),
			Close:       decimal.NewFromFloat(r.Close),
			Volume:      decimal.NewFromFloat(r.Volume),
			CollectedAt: now,
		})
	}
	return bars, nil
}

func (c *PriceCollector) publishSnapshot(ctx context.Context, symbol string, bars []models.StockBar) error {
	if c.cache == nil {
		return nil
	}

	window := bars
	if len(window) > snapshotBarWindow {
		window = window[len(window)-snapshotBarWindow:]
	}

	closes := make([]float64, len(window))
	for i, b := range window {
		closes[i], _ = b.Close.Float64()
	}

	last := window[len(window)-1]
	snapshot := &models.PriceSnapshot{
		Symbol:    symbol,
		Last:      last.Close,
		AsOf:      last.Timestamp,
		BarCount:  len(window),
		UpdatedAt: time.Now().UTC(),
	}

	if len(closes) >= smaPeriod {
		smaIndicator := trend.NewSmaWithPeriod[float64](smaPeriod)
		sma := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(closes)))
		if len(sma) > 0 {
			snapshot.SMA20 = decimal.NewFromFloat(sma[len(sma)-1])
		}
	}
	if len(closes) > rsiPeriod {
		rsiIndicator := momentum.NewRsiWithPeriod[float64](rsiPeriod)
		rsi := helper.ChanToSlice(rsiIndicator.Compute(helper.SliceToChan(closes)))
		if len(rsi) > 0 {
			snapshot.RSI14 = decimal.NewFromFloat(rsi[len(rsi)-1])
		}
	}

	return c.cache.Set(ctx, snapshot)
}
