package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/service"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type MessageHandler struct {
	messageService service.MessageService
	log            logger.Logger
}

func NewMessageHandler(messageService service.MessageService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		log:            log,
	}
}

// History returns the ascending message history for a peer. A peer the
// viewer has never talked to yields an empty list.
func (h *MessageHandler) History(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	peerID, err := uuid.Parse(c.Query("peerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return
	}

	messages, err := h.messageService.History(c.Request.Context(), viewerID, peerID)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	PeerID      string   `json:"peerId" binding:"required"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer ID"})
		return
	}

	message, err := h.messageService.Send(c.Request.Context(), viewerID, peerID, req.Content, req.Attachments)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}
