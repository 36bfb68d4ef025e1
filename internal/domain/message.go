package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once created. Content may be empty only when at
// least one attachment is present.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Attachment is the result of an out-of-band upload. Once referenced by a
// sent message the URL is owned by that message.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// TypingStatus is ephemeral state; it lives in redis under a TTL and is
// never persisted as a queryable entity.
type TypingStatus struct {
	IsTyping bool `json:"isTyping"`
}
