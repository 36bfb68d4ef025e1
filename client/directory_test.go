package client

import (
	"reflect"
	"testing"
	"time"
)

func user(id, first, last string) User {
	return User{ID: id, FirstName: first, LastName: last}
}

func convWith(peer User, lastAt time.Time, unread int) Conversation {
	p := peer
	return Conversation{
		ID:          "conv-" + peer.ID,
		OtherUser:   &p,
		LastMessage: &MessageSummary{Content: "hi", SenderID: peer.ID, CreatedAt: lastAt},
		UnreadCount: unread,
	}
}

func TestBuildDirectoryOrdering(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := user("a", "Ada", "Archer")
	b := user("b", "Ben", "Brook")
	c := user("c", "Cleo", "Cruz")
	d := user("d", "Dan", "Drew")

	rows := BuildDirectory(
		[]User{a, b, c, d},
		[]Conversation{
			convWith(b, base.Add(-time.Hour), 1),
			convWith(d, base, 3),
		},
	)

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	// History rows first, newest first.
	if rows[0].OtherUser.ID != "d" || rows[1].OtherUser.ID != "b" {
		t.Errorf("history rows out of order: %s, %s", rows[0].OtherUser.ID, rows[1].OtherUser.ID)
	}

	// No-history rows keep roster order.
	if rows[2].OtherUser.ID != "a" || rows[3].OtherUser.ID != "c" {
		t.Errorf("placeholder rows out of order: %s, %s", rows[2].OtherUser.ID, rows[3].OtherUser.ID)
	}

	for _, row := range rows[2:] {
		if !IsPlaceholderID(row.ID) {
			t.Errorf("expected placeholder id, got %q", row.ID)
		}
		if row.LastMessage != nil {
			t.Errorf("placeholder row %q has a last message", row.ID)
		}
		if row.UnreadCount != 0 {
			t.Errorf("placeholder row %q has unread %d", row.ID, row.UnreadCount)
		}
	}
}

func TestBuildDirectoryIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := []User{user("a", "Ada", "Archer"), user("b", "Ben", "Brook")}
	conversations := []Conversation{convWith(users[0], base, 2)}

	first := BuildDirectory(users, conversations)
	second := BuildDirectory(users, conversations)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different directories")
	}
}

func TestBuildDirectoryDedupesRoster(t *testing.T) {
	dup := user("a", "Ada", "Archer")
	newer := user("a", "Adelaide", "Archer")

	rows := BuildDirectory([]User{dup, user("b", "Ben", "Brook"), newer}, nil)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after dedupe, got %d", len(rows))
	}
	// Last occurrence wins, first position kept.
	if rows[0].OtherUser.FirstName != "Adelaide" {
		t.Errorf("expected last occurrence to win, got %q", rows[0].OtherUser.FirstName)
	}
}

func TestBuildDirectoryIncludesGroups(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := user("a", "Ada", "Archer")
	group := Conversation{
		ID:          "conv-g",
		IsGroup:     true,
		Name:        "Ops",
		LastMessage: &MessageSummary{Content: "standup", SenderID: "x", CreatedAt: base.Add(time.Minute)},
	}

	rows := BuildDirectory([]User{a}, []Conversation{convWith(a, base, 0), group})

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "conv-g" {
		t.Errorf("group with newest message should sort first, got %q", rows[0].ID)
	}
}

func TestBuildDirectoryExampleScenario(t *testing.T) {
	t1 := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	a := user("A", "Alice", "Ames")
	b := user("B", "Bob", "Burns")

	rows := BuildDirectory([]User{a, b}, []Conversation{convWith(a, t1, 2)})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].OtherUser.ID != "A" || rows[0].UnreadCount != 2 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].ID != "new-B" || rows[1].LastMessage != nil || rows[1].UnreadCount != 0 {
		t.Errorf("unexpected placeholder row: %+v", rows[1])
	}
}

func TestFilterDirectory(t *testing.T) {
	rows := BuildDirectory([]User{
		user("a", "Ada", "Archer"),
		user("b", "Ben", "Brook"),
	}, nil)

	if got := FilterDirectory(rows, ""); len(got) != 2 {
		t.Errorf("empty query should return all rows, got %d", len(got))
	}
	if got := FilterDirectory(rows, "ada arch"); len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
	if got := FilterDirectory(rows, "BROOK"); len(got) != 1 {
		t.Errorf("match should be case-insensitive, got %d", len(got))
	}
	got := FilterDirectory(rows, "zzz")
	if got == nil || len(got) != 0 {
		t.Errorf("no match should return empty non-nil list, got %v", got)
	}
}

func TestFilterDirectoryMatchesGroupName(t *testing.T) {
	rows := []Conversation{{ID: "conv-g", IsGroup: true, Name: "Payroll Crew"}}
	if got := FilterDirectory(rows, "payroll"); len(got) != 1 {
		t.Errorf("expected group name match, got %d", len(got))
	}
}

func TestTotalUnread(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := user("a", "Ada", "Archer")
	b := user("b", "Ben", "Brook")

	rows := BuildDirectory([]User{a, b, user("c", "Cleo", "Cruz")}, []Conversation{
		convWith(a, base, 2),
		convWith(b, base.Add(time.Second), 3),
	})

	if got := TotalUnread(rows); got != 5 {
		t.Errorf("expected total unread 5, got %d", got)
	}
}
