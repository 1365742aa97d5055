package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultMatchLimit = 50
	maxMatchLimit     = 200
)

// GetStats handles GET /api/v1/stats
// Reports job counts per status and the total number of match records.
func (h *StatusHandler) GetStats(c *gin.Context) {
	jobCounts, err := h.storage.JobCounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load stats",
		})
		return
	}

	matchCount, err := h.storage.MatchCount(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count matches", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":          jobCounts,
		"match_records": matchCount,
	})
}

// GetEventMatches handles GET /api/v1/events/:event_id/matches
// Lists the newest stored matches for one event.
func (h *StatusHandler) GetEventMatches(c *gin.Context) {
	eventID := c.Param("event_id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "event_id is required",
		})
		return
	}

	limit := defaultMatchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be a positive integer",
			})
			return
		}
		if parsed > maxMatchLimit {
			parsed = maxMatchLimit
		}
		limit = parsed
	}

	matches, err := h.storage.EventMatches(c.Request.Context(), eventID, limit)
	if err != nil {
		h.logger.Error("Failed to list event matches",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list matches",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id": eventID,
		"count":    len(matches),
		"matches":  matches,
	})
}

// GetHealth handles GET /health
func (h *StatusHandler) GetHealth(c *gin.Context) {
	if err := h.dbClient.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pulse-status-api",
	})
}
