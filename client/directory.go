package client

import (
	"sort"
	"strings"
)

// placeholderPrefix marks directory rows synthesized for contacts with no
// message history. Placeholder ids never go to the server; the first
// successful send replaces them with a real conversation id.
const placeholderPrefix = "new-"

func PlaceholderID(peerID string) string {
	return placeholderPrefix + peerID
}

func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// BuildDirectory merges the roster with the conversations that already have
// messages into one ordered contact list. Every roster user gets a row:
// their existing direct conversation when one exists, a placeholder
// otherwise. Group conversations come along as-is. Rows with history sort
// first, newest last message on top; placeholder rows keep roster order.
// The function is pure: identical inputs give identical output.
func BuildDirectory(allUsers []User, conversations []Conversation) []Conversation {
	users := dedupeUsers(allUsers)

	byPeer := make(map[string]Conversation, len(conversations))
	for _, conv := range conversations {
		if !conv.IsGroup && conv.OtherUser != nil {
			byPeer[conv.OtherUser.ID] = conv
		}
	}

	rows := make([]Conversation, 0, len(users)+len(conversations))
	for _, conv := range conversations {
		if conv.IsGroup {
			rows = append(rows, conv)
		}
	}
	for _, user := range users {
		if conv, ok := byPeer[user.ID]; ok {
			rows = append(rows, conv)
			continue
		}
		u := user
		rows = append(rows, Conversation{
			ID:        PlaceholderID(user.ID),
			OtherUser: &u,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].LastMessage, rows[j].LastMessage
		switch {
		case a != nil && b == nil:
			return true
		case a == nil:
			return false
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	return rows
}

// dedupeUsers drops repeated roster ids; the last occurrence wins but the
// first occurrence's position is kept so ordering stays stable.
func dedupeUsers(users []User) []User {
	index := make(map[string]int, len(users))
	out := make([]User, 0, len(users))
	for _, user := range users {
		if at, seen := index[user.ID]; seen {
			out[at] = user
			continue
		}
		index[user.ID] = len(out)
		out = append(out, user)
	}
	return out
}

// FilterDirectory keeps rows whose display name contains the query,
// case-insensitively. An empty query returns the input unchanged; no match
// returns an empty (non-nil) list.
func FilterDirectory(rows []Conversation, query string) []Conversation {
	if query == "" {
		return rows
	}

	needle := strings.ToLower(query)
	out := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		var name string
		switch {
		case row.IsGroup:
			name = row.Name
		case row.OtherUser != nil:
			name = row.OtherUser.FullName()
		}
		if strings.Contains(strings.ToLower(name), needle) {
			out = append(out, row)
		}
	}
	return out
}

// TotalUnread sums unread counts over rows backed by real conversations.
// Placeholder rows have nothing unread by construction, but are excluded
// explicitly anyway.
func TotalUnread(rows []Conversation) int {
	total := 0
	for _, row := range rows {
		if IsPlaceholderID(row.ID) {
			continue
		}
		total += row.UnreadCount
	}
	return total
}
