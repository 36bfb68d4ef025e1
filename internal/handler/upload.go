package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/service"
	apperrors "staff_messenger/pkg/errors"
	"staff_messenger/pkg/logger"
)

type UploadHandler struct {
	attachmentService service.AttachmentService
	log               logger.Logger
}

func NewUploadHandler(attachmentService service.AttachmentService, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		attachmentService: attachmentService,
		log:               log,
	}
}

// Upload accepts one file per request; clients with several files loop.
// Rejection reasons are returned verbatim so the client can show them
// per-file.
func (h *UploadHandler) Upload(c *gin.Context) {
	viewerID := c.MustGet("user_id").(uuid.UUID)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), viewerID, file)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, attachment)
}
