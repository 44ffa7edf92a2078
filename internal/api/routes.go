package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finforge/revcast/internal/api/handlers"
	"github.com/finforge/revcast/internal/database"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, forecastHandler *handlers.ForecastHandler, priceHandler *handlers.PriceHandler) {
	// Health check endpoint
	router.GET("/health", healthCheck(db, redis))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Analysis routes
		forecastGroup := v1.Group("/forecast")
		{
			forecastGroup.POST("", forecastHandler.RunAnalysis)
			forecastGroup.POST("/metrics", forecastHandler.GetMetrics)
			forecastGroup.GET("/runs", forecastHandler.ListRuns)
			forecastGroup.GET("/runs/:id", forecastHandler.GetRun)
		}

		// Collected price routes
		prices := v1.Group("/prices")
		{
			prices.GET("/:symbol", priceHandler.GetSnapshot)
			prices.GET("/:symbol/bars", priceHandler.GetBars)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		// Check database health
		if db == nil {
			response.Services.Database = "disabled"
		} else if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		// Check Redis health
		if redis == nil {
			response.Services.Redis = "disabled"
		} else if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
