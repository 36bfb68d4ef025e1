// Package client implements the session-side messaging core: the
// conversation directory, the per-peer message stream with optimistic
// sends, the typing indicator channel, and the attachment upload queue.
// Server state is always authoritative; everything optimistic here is
// provisional until acknowledged.
package client

import (
	"strings"
	"time"
)

// IDs are strings on this side of the wire because the directory
// synthesizes placeholder conversation ids ("new-<peerId>") that never
// reach the server.

type User struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar,omitempty"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type MessageSummary struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Conversation struct {
	ID          string          `json:"id"`
	IsGroup     bool            `json:"isGroup"`
	Name        string          `json:"name,omitempty"`
	MemberCount int             `json:"memberCount,omitempty"`
	OtherUser   *User           `json:"otherUser"`
	LastMessage *MessageSummary `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

type TypingStatus struct {
	IsTyping bool `json:"isTyping"`
}
