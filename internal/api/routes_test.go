package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finforge/revcast/internal/api/handlers"
	"github.com/finforge/revcast/internal/cache"
	"github.com/finforge/revcast/internal/config"
	"github.com/finforge/revcast/internal/models"
	"github.com/finforge/revcast/internal/services"
)

func setupRouter(t *testing.T) (*gin.Engine, *cache.SnapshotCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{
		Forecast: config.ForecastConfig{
			HorizonYears:    5,
			Simulations:     100,
			Seed:            42,
			MaxHorizonYears: 30,
			MaxSimulations:  100000,
			MetricsTopN:     3,
		},
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := cache.NewSnapshotCache(client, time.Minute, logger)

	analysis := services.NewAnalysisService(cfg, nil, logger)
	forecastHandler := handlers.NewForecastHandler(analysis, nil, logger)
	priceHandler := handlers.NewPriceHandler(snapshots, nil, logger)

	router := gin.New()
	SetupRoutes(router, nil, nil, forecastHandler, priceHandler)
	return router, snapshots
}

func TestHealthEndpointWithDisabledBackends(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "disabled", health.Services.Database)
	assert.Equal(t, "disabled", health.Services.Redis)
}

func TestRouteRegistration(t *testing.T) {
	router, snapshots := setupRouter(t)
	require.NoError(t, snapshots.Set(context.Background(), &models.PriceSnapshot{Symbol: "AAPL"}))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/forecast"},
		{http.MethodPost, "/api/v1/forecast/metrics"},
		{http.MethodGet, "/api/v1/forecast/runs"},
		{http.MethodGet, "/api/v1/forecast/runs/some-id"},
		{http.MethodGet, "/api/v1/prices/AAPL"},
		{http.MethodGet, "/api/v1/prices/AAPL/bars"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, http.StatusNotFound, w.Code, "%s %s should be registered", tt.method, tt.path)
	}
}
