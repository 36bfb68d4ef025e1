package domain

import (
	"github.com/google/uuid"
)

// MessagingStats is the per-viewer aggregate backing the directory badge.
type MessagingStats struct {
	UserID            uuid.UUID `json:"user_id"`
	TotalUnread       int       `json:"total_unread"`
	ConversationCount int       `json:"conversation_count"`
	MessagesSent      int       `json:"messages_sent"`
}
