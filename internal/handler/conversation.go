package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/service"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type ConversationHandler struct {
	conversationService service.ConversationService
	log                 logger.Logger
}

func NewConversationHandler(conversationService service.ConversationService, log logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		log:                 log,
	}
}

func (h *ConversationHandler) List(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	conversations, err := h.conversationService.List(c.Request.Context(), viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"memberIds" binding:"required"`
}

func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member ID: " + raw})
			return
		}
		memberIDs = append(memberIDs, id)
	}

	conv, err := h.conversationService.CreateGroup(c.Request.Context(), viewerID, req.Name, memberIDs)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	if err := h.conversationService.MarkRead(c.Request.Context(), viewerID, conversationID); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
