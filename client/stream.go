package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type StreamState int

const (
	StateIdle StreamState = iota
	StateLoading
	StateLoaded
	StateFailed
)

const tempIDPrefix = "temp-"

// IsTempID reports whether id names an optimistic message that has not
// been acknowledged by the server yet.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// Stream holds the message history for the currently selected peer and
// reconciles optimistic sends against server acknowledgments.
//
// Every load and send captures the generation current at call time; a
// response whose generation is stale (the peer changed underneath it) is
// discarded instead of committed. That guard replaces cancellation tokens.
type Stream struct {
	api      API
	viewerID string

	// Injectable for tests.
	now       func() time.Time
	newTempID func() string

	mu             sync.Mutex
	peerID         string
	conversationID string
	generation     uint64
	state          StreamState
	messages       []Message
	pending        map[string]bool // temp ids awaiting acknowledgment
	loadErr        error
}

func NewStream(api API, viewerID string) *Stream {
	return &Stream{
		api:       api,
		viewerID:  viewerID,
		now:       time.Now,
		newTempID: func() string { return tempIDPrefix + uuid.NewString() },
		pending:   make(map[string]bool),
	}
}

// Select switches the active peer. The history buffer resets and the
// generation advances, which invalidates every in-flight load and orphans
// in-flight sends (their acks will be dropped on arrival).
func (s *Stream) Select(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if peerID == s.peerID {
		return
	}
	s.peerID = peerID
	s.conversationID = ""
	s.generation++
	s.state = StateLoading
	s.messages = nil
	s.pending = make(map[string]bool)
	s.loadErr = nil
}

// Load fetches history for the selected peer and commits it unless the
// selection changed while the request was in flight. Safe to call again
// after a failure (the retry affordance).
func (s *Stream) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.peerID == "" {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	peerID := s.peerID
	s.state = StateLoading
	s.loadErr = nil
	s.mu.Unlock()

	// A placeholder row means no conversation exists yet; the server is
	// only ever asked about the real peer id.
	requestID := strings.TrimPrefix(peerID, placeholderPrefix)

	history, err := s.api.History(ctx, requestID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Stale response: a newer selection owns the stream now.
		return nil
	}

	if err != nil {
		s.state = StateFailed
		s.loadErr = err
		return err
	}

	s.messages = history
	for _, m := range history {
		if m.ConversationID != "" {
			s.conversationID = m.ConversationID
		}
	}
	s.state = StateLoaded
	return nil
}

// Send appends an optimistic message and issues the create request. A call
// with blank content and no attachments is a no-op: no network, no error.
// On acknowledgment the temporary message is replaced in place, correlated
// by its temp id so identical content cannot misattribute. On failure the
// temporary message is rolled back and the error returned; the caller keeps
// the compose box intact and may retry.
func (s *Stream) Send(ctx context.Context, content string, attachments []string) (*Message, error) {
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.peerID == "" {
		s.mu.Unlock()
		return nil, &APIError{Kind: ErrValidation, Reason: "no peer selected"}
	}
	gen := s.generation
	peerID := strings.TrimPrefix(s.peerID, placeholderPrefix)

	temp := Message{
		ID:          s.newTempID(),
		SenderID:    s.viewerID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   s.now(),
	}
	s.messages = append(s.messages, temp)
	s.pending[temp.ID] = true
	s.mu.Unlock()

	confirmed, err := s.api.SendMessage(ctx, peerID, content, attachments)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// The peer changed mid-send; the optimistic copy is already gone.
		if err != nil {
			return nil, err
		}
		return confirmed, nil
	}

	delete(s.pending, temp.ID)

	if err != nil {
		s.removeByID(temp.ID)
		return nil, err
	}

	// Identity swap only: the confirmed record takes the temp's slot so
	// visual insertion order is preserved even when acks arrive out of
	// order across overlapping sends.
	replaced := false
	for i := range s.messages {
		if s.messages[i].ID == temp.ID {
			s.messages[i] = *confirmed
			replaced = true
			break
		}
	}
	if !replaced {
		s.messages = append(s.messages, *confirmed)
	}

	if confirmed.ConversationID != "" {
		s.conversationID = confirmed.ConversationID
	}

	return confirmed, nil
}

func (s *Stream) removeByID(id string) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// Messages returns a snapshot of the visible stream.
func (s *Stream) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadErr returns the failure that put the stream into StateFailed.
func (s *Stream) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Stream) PeerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// ConversationID reports the real conversation id once one is known, empty
// while the selection is still a no-history placeholder.
func (s *Stream) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// PendingCount reports sends still awaiting acknowledgment.
func (s *Stream) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
