package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStream(api API) *Stream {
	s := NewStream(api, "viewer")
	n := 0
	s.newTempID = func() string {
		n++
		return fmt.Sprintf("temp-%d", n)
	}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		base = base.Add(time.Millisecond)
		return base
	}
	return s
}

func serverMessage(id, convID, content string) *Message {
	return &Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       "viewer",
		Content:        content,
		Attachments:    []string{},
		CreatedAt:      time.Date(2026, 3, 10, 12, 0, 5, 0, time.UTC),
	}
}

func TestSendEmptyIsNoOp(t *testing.T) {
	calls := 0
	api := &fakeAPI{sendFn: func(context.Context, string, string, []string) (*Message, error) {
		calls++
		return nil, nil
	}}
	s := newTestStream(api)
	s.Select("peer")

	msg, err := s.Send(context.Background(), "   ", nil)
	if msg != nil || err != nil {
		t.Fatalf("expected no-op, got %v, %v", msg, err)
	}
	if calls != 0 {
		t.Errorf("empty send must not hit the network, saw %d calls", calls)
	}
	if len(s.Messages()) != 0 {
		t.Errorf("empty send must not touch the stream")
	}
}

func TestSendAttachmentsOnlyIsValid(t *testing.T) {
	api := &fakeAPI{sendFn: func(_ context.Context, _, content string, attachments []string) (*Message, error) {
		m := serverMessage("m1", "conv1", content)
		m.Attachments = attachments
		return m, nil
	}}
	s := newTestStream(api)
	s.Select("peer")

	msg, err := s.Send(context.Background(), "", []string{"/uploads/a.pdf"})
	if err != nil || msg == nil {
		t.Fatalf("attachment-only send should succeed: %v", err)
	}
}

func TestSendRollbackOnFailure(t *testing.T) {
	api := &fakeAPI{sendFn: func(context.Context, string, string, []string) (*Message, error) {
		return nil, &APIError{Kind: ErrTransient, Reason: "boom"}
	}}
	s := newTestStream(api)
	s.Select("peer")

	before := s.Messages()
	if _, err := s.Send(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected send error")
	}

	after := s.Messages()
	if len(after) != len(before) {
		t.Errorf("failed send left %d orphaned messages", len(after)-len(before))
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending table not cleaned up: %d", s.PendingCount())
	}
}

func TestSendReconciliationIdentity(t *testing.T) {
	n := 0
	api := &fakeAPI{sendFn: func(_ context.Context, _, content string, _ []string) (*Message, error) {
		n++
		return serverMessage(fmt.Sprintf("server-%d", n), "conv1", content), nil
	}}
	s := newTestStream(api)
	s.Select("peer")

	// Two sends with identical content back to back.
	if _, err := s.Send(context.Background(), "same words", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Send(context.Background(), "same words", nil); err != nil {
		t.Fatal(err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected exactly 2 messages, got %d", len(msgs))
	}
	seen := map[string]bool{}
	for _, m := range msgs {
		if IsTempID(m.ID) {
			t.Errorf("temp id %q survived reconciliation", m.ID)
		}
		if seen[m.ID] {
			t.Errorf("duplicate server id %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestOverlappingSendsKeepInsertionOrder(t *testing.T) {
	firstAck := make(chan struct{})
	secondDone := make(chan struct{})

	api := &fakeAPI{sendFn: func(_ context.Context, _, content string, _ []string) (*Message, error) {
		if content == "first" {
			<-firstAck // ack arrives after the second send's ack
			return serverMessage("server-first", "conv1", content), nil
		}
		return serverMessage("server-second", "conv1", content), nil
	}}
	s := newTestStream(api)
	s.Select("peer")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := s.Send(context.Background(), "first", nil); err != nil {
			t.Error(err)
		}
	}()
	// Give the first send time to append its optimistic copy.
	waitFor(t, func() bool { return len(s.Messages()) == 1 })

	go func() {
		defer wg.Done()
		defer close(secondDone)
		if _, err := s.Send(context.Background(), "second", nil); err != nil {
			t.Error(err)
		}
	}()
	<-secondDone
	close(firstAck)
	wg.Wait()

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "server-first" || msgs[1].ID != "server-second" {
		t.Errorf("visual order broken: got [%s, %s]", msgs[0].ID, msgs[1].ID)
	}
}

func TestStaleHistoryDiscarded(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{historyFn: func(_ context.Context, peerID string) ([]Message, error) {
		if peerID == "old" {
			<-release
			return []Message{*serverMessage("stale", "conv-old", "old history")}, nil
		}
		return []Message{*serverMessage("fresh", "conv-new", "new history")}, nil
	}}
	s := newTestStream(api)

	s.Select("old")
	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	// Switch peers while the old fetch is still in flight.
	s.Select("new")
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != "fresh" {
		t.Errorf("stale response was committed: %+v", msgs)
	}
	if s.State() != StateLoaded {
		t.Errorf("expected StateLoaded, got %v", s.State())
	}
}

func TestLoadFailureIsRetryable(t *testing.T) {
	fail := true
	api := &fakeAPI{historyFn: func(context.Context, string) ([]Message, error) {
		if fail {
			return nil, &APIError{Kind: ErrTransient, Reason: "network down"}
		}
		return []Message{*serverMessage("m1", "conv1", "hello")}, nil
	}}
	s := newTestStream(api)
	s.Select("peer")

	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected load failure")
	}
	if s.State() != StateFailed {
		t.Fatalf("expected StateFailed, got %v", s.State())
	}
	var apiErr *APIError
	if !errors.As(s.LoadErr(), &apiErr) || !apiErr.Retryable() {
		t.Errorf("load failure should be retryable: %v", s.LoadErr())
	}

	fail = false
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateLoaded || len(s.Messages()) != 1 {
		t.Errorf("retry did not recover the stream")
	}
}

func TestPlaceholderPeerAdoptsRealConversation(t *testing.T) {
	api := &fakeAPI{
		historyFn: func(_ context.Context, peerID string) ([]Message, error) {
			if peerID != "B" {
				t.Errorf("placeholder prefix leaked to the server: %q", peerID)
			}
			return []Message{}, nil
		},
		sendFn: func(_ context.Context, peerID, content string, _ []string) (*Message, error) {
			if peerID != "B" {
				t.Errorf("placeholder prefix leaked to the server: %q", peerID)
			}
			return serverMessage("m1", "conv-real", content), nil
		},
	}
	s := newTestStream(api)
	s.Select(PlaceholderID("B"))

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.ConversationID() != "" {
		t.Errorf("no conversation should exist before first send")
	}

	if _, err := s.Send(context.Background(), "hi", nil); err != nil {
		t.Fatal(err)
	}
	if s.ConversationID() != "conv-real" {
		t.Errorf("expected adopted conversation id, got %q", s.ConversationID())
	}
}

func TestSendAckAfterPeerSwitchIsDropped(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{sendFn: func(_ context.Context, _, content string, _ []string) (*Message, error) {
		<-release
		return serverMessage("late", "conv-old", content), nil
	}}
	s := newTestStream(api)
	s.Select("old")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Send(context.Background(), "left behind", nil)
	}()
	waitFor(t, func() bool { return len(s.Messages()) == 1 })

	s.Select("new")
	close(release)
	<-done

	if got := len(s.Messages()); got != 0 {
		t.Errorf("late ack leaked into the new peer's stream: %d messages", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
