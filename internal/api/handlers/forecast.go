package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finforge/revcast/internal/database"
	"github.com/finforge/revcast/internal/forecast"
	"github.com/finforge/revcast/internal/services"
)

// ForecastHandler serves analysis runs over HTTP.
type ForecastHandler struct {
	analysis *services.AnalysisService
	repo     *database.AnalysisRepository
	logger   *logrus.Logger
}

// NewForecastHandler creates a forecast handler. repo may be nil when run
// history is not persisted.
func NewForecastHandler(analysis *services.AnalysisService, repo *database.AnalysisRepository, logger *logrus.Logger) *ForecastHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ForecastHandler{analysis: analysis, repo: repo, logger: logger}
}

// AnalysisRequest is the POST body for a full analysis run.
type AnalysisRequest struct {
	Series         []forecast.Point `json:"series" binding:"required"`
	Horizon        int              `json:"horizon"`
	Simulations    int              `json:"simulations"`
	Seed           *int64           `json:"seed"`
	EnsembleModels []string         `json:"ensemble_models"`
}

// RunAnalysis executes a full analysis run for the posted series.
func (h *ForecastHandler) RunAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	series, err := forecast.NewRevenueSeries(req.Series)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), series, services.AnalysisOptions{
		Horizon:        req.Horizon,
		Simulations:    req.Simulations,
		Seed:           req.Seed,
		EnsembleModels: req.EnsembleModels,
	})
	if err != nil {
		h.logger.WithError(err).Warn("Analysis request failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TopMetricsResponse is the ranked accuracy view returned by GetMetrics.
type TopMetricsResponse struct {
	Metrics   []forecast.MetricsRecord `json:"metrics"`
	Count     int                      `json:"count"`
	Timestamp time.Time                `json:"timestamp"`
}

// GetMetrics runs the fitted catalogue for the posted series and returns
// only the ranked accuracy records.
func (h *ForecastHandler) GetMetrics(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	series, err := forecast.NewRevenueSeries(req.Series)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), series, services.AnalysisOptions{
		Horizon:     req.Horizon,
		Simulations: req.Simulations,
		Seed:        req.Seed,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	metrics := result.Metrics
	if topN := c.Query("top"); topN != "" {
		n, err := strconv.Atoi(topN)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top parameter"})
			return
		}
		metrics = forecast.NewReporter(metrics).TopN(n)
	}

	c.JSON(http.StatusOK, TopMetricsResponse{
		Metrics:   metrics,
		Count:     len(metrics),
		Timestamp: time.Now(),
	})
}

// ListRuns returns summaries of recently persisted runs.
func (h *ForecastHandler) ListRuns(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	summaries, err := h.repo.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list analysis runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analysis runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": summaries, "count": len(summaries)})
}

// GetRun returns one persisted run by ID.
func (h *ForecastHandler) GetRun(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is not enabled"})
		return
	}

	result, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis run not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// statusForError maps the forecast error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var insufficient *forecast.InsufficientDataError
	var invalid *forecast.InvalidArgumentError
	var unstable *forecast.NumericInstabilityError

	switch {
	case errors.As(err, &insufficient), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &unstable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
