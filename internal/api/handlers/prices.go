package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finforge/revcast/internal/cache"
	"github.com/finforge/revcast/internal/database"
)

// PriceHandler serves collected stock prices: the cached latest snapshot
// and the stored bar history.
type PriceHandler struct {
	snapshots *cache.SnapshotCache
	repo      *database.PriceRepository
	logger    *logrus.Logger
}

// NewPriceHandler creates a price handler.
func NewPriceHandler(snapshots *cache.SnapshotCache, repo *database.PriceRepository, logger *logrus.Logger) *PriceHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &PriceHandler{snapshots: snapshots, repo: repo, logger: logger}
}

// GetSnapshot returns the cached latest snapshot for a symbol.
func (h *PriceHandler) GetSnapshot(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	snapshot, ok := h.snapshots.Get(c.Request.Context(), symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for symbol " + symbol})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetBars returns recent stored bars for a symbol.
func (h *PriceHandler) GetBars(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "bar history is not enabled"})
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = parsed
	}

	bars, err := h.repo.RecentBars(c.Request.Context(), symbol, limit)
	if err != nil {
		h.logger.WithField("symbol", symbol).WithError(err).Error("Failed to load bars")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bars"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"bars":      bars,
		"count":     len(bars),
		"timestamp": time.Now(),
	})
}
