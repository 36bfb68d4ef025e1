package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/service"
	"staff_messenger/pkg/logger"
)

type StatsHandler struct {
	statsService service.StatsService
	log          logger.Logger
}

func NewStatsHandler(statsService service.StatsService, log logger.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		log:          log,
	}
}

// Messaging backs the unread badge recompute without shipping the whole
// conversation list.
func (h *StatsHandler) Messaging(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	stats, err := h.statsService.GetMessagingStats(c.Request.Context(), viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
