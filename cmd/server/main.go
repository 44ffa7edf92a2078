package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/finforge/revcast/internal/api"
	"github.com/finforge/revcast/internal/api/handlers"
	"github.com/finforge/revcast/internal/cache"
	"github.com/finforge/revcast/internal/config"
	"github.com/finforge/revcast/internal/database"
	"github.com/finforge/revcast/internal/logging"
	"github.com/finforge/revcast/internal/services"
	"github.com/finforge/revcast/internal/telemetry"
)

func main() {
	// Load .env if present; real environments configure via the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	// Initialize tracing
	tracing, err := telemetry.Init(context.Background(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down telemetry")
		}
	}()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db.Pool); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	// Initialize Redis
	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	snapshotTTL := 15 * time.Minute
	if parsed, err := time.ParseDuration(cfg.MarketData.SnapshotTTL); err == nil {
		snapshotTTL = parsed
	}
	snapshotCache := cache.NewSnapshotCache(redis.Client, snapshotTTL, logger)

	analysisRepo := database.NewAnalysisRepository(db.Pool)
	priceRepo := database.NewPriceRepository(db.Pool)

	analysisService := services.NewAnalysisService(cfg, analysisRepo, logger)

	// The collector only runs when an API key is configured; the forecast
	// API works without it.
	collector := services.NewPriceCollector(cfg, priceRepo, snapshotCache, logger)
	if cfg.MarketData.APIKey != "" {
		if err := collector.Start(); err != nil {
			logger.WithError(err).Error("Failed to start price collector")
		} else {
			defer collector.Stop()
		}
	} else {
		logger.Warn("Market data API key not configured, price collector disabled")
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	forecastHandler := handlers.NewForecastHandler(analysisService, analysisRepo, logger)
	priceHandler := handlers.NewPriceHandler(snapshotCache, priceRepo, logger)
	api.SetupRoutes(router, db, redis, forecastHandler, priceHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
