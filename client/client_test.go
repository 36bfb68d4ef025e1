package client

import (
	"context"
	"io"
	"sync"
)

// fakeAPI lets each test script the collaborator's behavior per call.
type fakeAPI struct {
	mu sync.Mutex

	historyFn  func(ctx context.Context, peerID string) ([]Message, error)
	sendFn     func(ctx context.Context, peerID, content string, attachments []string) (*Message, error)
	typingFn   func(ctx context.Context, peerID string, isTyping bool) error
	uploadFn   func(ctx context.Context, filename, contentType string, body io.Reader) (*Attachment, error)
	typingLog  []typingCall
	uploadsSeq []string
}

type typingCall struct {
	peerID   string
	isTyping bool
}

func (f *fakeAPI) ListUsers(context.Context) ([]User, error)                 { return nil, nil }
func (f *fakeAPI) ListConversations(context.Context) ([]Conversation, error) { return nil, nil }
func (f *fakeAPI) PeerTyping(context.Context, string) (bool, error)          { return false, nil }
func (f *fakeAPI) CreateGroup(context.Context, string, []string) (*Conversation, error) {
	return nil, nil
}
func (f *fakeAPI) MarkRead(context.Context, string) error { return nil }

func (f *fakeAPI) History(ctx context.Context, peerID string) ([]Message, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, peerID)
	}
	return nil, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, peerID, content string, attachments []string) (*Message, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, peerID, content, attachments)
	}
	return nil, nil
}

func (f *fakeAPI) SetTyping(ctx context.Context, peerID string, isTyping bool) error {
	f.mu.Lock()
	f.typingLog = append(f.typingLog, typingCall{peerID: peerID, isTyping: isTyping})
	f.mu.Unlock()
	if f.typingFn != nil {
		return f.typingFn(ctx, peerID, isTyping)
	}
	return nil
}

func (f *fakeAPI) typingCalls() []typingCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]typingCall, len(f.typingLog))
	copy(out, f.typingLog)
	return out
}

func (f *fakeAPI) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Attachment, error) {
	f.mu.Lock()
	f.uploadsSeq = append(f.uploadsSeq, filename)
	f.mu.Unlock()
	if f.uploadFn != nil {
		return f.uploadFn(ctx, filename, contentType, body)
	}
	return &Attachment{URL: "/uploads/" + filename, Filename: filename, Type: contentType}, nil
}
