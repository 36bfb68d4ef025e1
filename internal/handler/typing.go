package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/service"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type TypingHandler struct {
	typingService service.TypingService
	log           logger.Logger
}

func NewTypingHandler(typingService service.TypingService, log logger.Logger) *TypingHandler {
	return &TypingHandler{
		typingService: typingService,
		log:           log,
	}
}

type TypingRequest struct {
	PeerID   string `json:"peerId" binding:"required"`
	IsTyping bool   `json:"isTyping"`
}

func (h *TypingHandler) Set(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return
	}

	if err := h.typingService.SetTyping(c.Request.Context(), viewerID, peerID, req.IsTyping); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Get is the polling fallback for clients not holding a websocket.
func (h *TypingHandler) Get(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	peerID, err := uuid.Parse(c.Query("peerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return
	}

	status, err := h.typingService.PeerTyping(c.Request.Context(), viewerID, peerID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
