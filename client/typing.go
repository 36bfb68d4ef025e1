package client

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TypingController runs the typing indicator channel for the selected
// peer, independently of the message stream.
//
// Outbound signals are edge-triggered on the composing state, with a
// keep-alive re-ping while composing so the server-side TTL stays fresh.
// Inbound signals apply only to the current peer and self-clear after
// Expiry with no stop event, covering a peer whose client died mid-compose.
type TypingController struct {
	api API

	// KeepAlive must be shorter than the server's TTL; Expiry bounds how
	// long a stale inbound "typing" survives.
	keepAlive time.Duration
	expiry    time.Duration

	mu          sync.Mutex
	peerID      string
	composing   bool
	otherTyping bool
	expireTimer *time.Timer
	pingTimer   *time.Timer
	closed      bool
}

func NewTypingController(api API, keepAlive, expiry time.Duration) *TypingController {
	return &TypingController{
		api:       api,
		keepAlive: keepAlive,
		expiry:    expiry,
	}
}

// SetPeer switches the controller to a new peer. A pending "composing"
// state for the old peer gets a best-effort stop signal, and any inbound
// indicator is reset so the new conversation never shows the old peer's
// typing state.
func (t *TypingController) SetPeer(ctx context.Context, peerID string) {
	t.mu.Lock()
	oldPeer := t.peerID
	wasComposing := t.composing

	t.peerID = peerID
	t.composing = false
	t.otherTyping = false
	t.stopTimersLocked()
	t.mu.Unlock()

	if wasComposing && oldPeer != "" {
		// Best effort only; the server TTL cleans up if this is lost.
		_ = t.api.SetTyping(ctx, strings.TrimPrefix(oldPeer, placeholderPrefix), false)
	}
}

// OnContentChange receives every compose-box edit. Only transitions of the
// composing state hit the network; repeated keystrokes while already
// composing are absorbed by the keep-alive timer.
func (t *TypingController) OnContentChange(ctx context.Context, content string) error {
	t.mu.Lock()
	if t.peerID == "" || t.closed {
		t.mu.Unlock()
		return nil
	}
	composing := len(content) > 0
	if composing == t.composing {
		t.mu.Unlock()
		return nil
	}
	t.composing = composing
	peerID := strings.TrimPrefix(t.peerID, placeholderPrefix)

	if composing {
		t.armKeepAliveLocked(peerID)
	} else if t.pingTimer != nil {
		t.pingTimer.Stop()
		t.pingTimer = nil
	}
	t.mu.Unlock()

	return t.api.SetTyping(ctx, peerID, composing)
}

// armKeepAliveLocked re-pings while composing so the server TTL does not
// lapse mid-compose. Caller holds t.mu.
func (t *TypingController) armKeepAliveLocked(peerID string) {
	if t.pingTimer != nil {
		t.pingTimer.Stop()
	}
	t.pingTimer = time.AfterFunc(t.keepAlive, func() {
		t.mu.Lock()
		stillComposing := t.composing && !t.closed && strings.TrimPrefix(t.peerID, placeholderPrefix) == peerID
		if stillComposing {
			t.armKeepAliveLocked(peerID)
		}
		t.mu.Unlock()

		if stillComposing {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = t.api.SetTyping(ctx, peerID, true)
		}
	})
}

// HandleInbound applies a typing event for some peer. Events for anyone
// but the current peer are ignored; a "typing" event arms the expiry timer
// so the indicator clears itself when no follow-up arrives.
func (t *TypingController) HandleInbound(peerID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || peerID != strings.TrimPrefix(t.peerID, placeholderPrefix) {
		return
	}

	t.otherTyping = isTyping

	if t.expireTimer != nil {
		t.expireTimer.Stop()
		t.expireTimer = nil
	}
	if isTyping {
		expected := t.peerID
		t.expireTimer = time.AfterFunc(t.expiry, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.peerID == expected {
				t.otherTyping = false
			}
		})
	}
}

// OtherTyping reports whether the current peer is composing.
func (t *TypingController) OtherTyping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.otherTyping
}

// Close flushes a final stop signal if the user was mid-compose and stops
// all timers. The controller is unusable afterwards.
func (t *TypingController) Close(ctx context.Context) {
	t.mu.Lock()
	wasComposing := t.composing
	peerID := t.peerID
	t.closed = true
	t.composing = false
	t.otherTyping = false
	t.stopTimersLocked()
	t.mu.Unlock()

	if wasComposing && peerID != "" {
		_ = t.api.SetTyping(ctx, strings.TrimPrefix(peerID, placeholderPrefix), false)
	}
}

func (t *TypingController) stopTimersLocked() {
	if t.expireTimer != nil {
		t.expireTimer.Stop()
		t.expireTimer = nil
	}
	if t.pingTimer != nil {
		t.pingTimer.Stop()
		t.pingTimer = nil
	}
}
