package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is an addressable channel between exactly two users (direct)
// or N users (group). OtherUser is populated for direct conversations only;
// LastMessage and UnreadCount are viewer-relative denormalizations computed
// at read time.
type Conversation struct {
	ID          uuid.UUID       `json:"id"`
	IsGroup     bool            `json:"isGroup"`
	Name        *string         `json:"name,omitempty"`
	MemberCount int             `json:"memberCount,omitempty"`
	OtherUser   *User           `json:"otherUser"`
	LastMessage *MessageSummary `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MessageSummary is the denormalized tail of a conversation, used for
// directory ordering.
type MessageSummary struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ConversationMember struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}
