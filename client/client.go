package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API is the messaging collaborator surface the core talks to. The HTTP
// implementation below is the production one; tests substitute fakes.
type API interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	History(ctx context.Context, peerID string) ([]Message, error)
	SendMessage(ctx context.Context, peerID, content string, attachments []string) (*Message, error)
	SetTyping(ctx context.Context, peerID string, isTyping bool) error
	PeerTyping(ctx context.Context, peerID string) (bool, error)
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Attachment, error)
	CreateGroup(ctx context.Context, name string, memberIDs []string) (*Conversation, error)
	MarkRead(ctx context.Context, conversationID string) error
}

// ErrorKind follows the failure taxonomy: transient failures are
// retryable, validation failures are not, authorization failures surface
// as "unable to load" and are the session collaborator's problem.
type ErrorKind int

const (
	ErrTransient ErrorKind = iota
	ErrValidation
	ErrAuthorization
)

type APIError struct {
	Kind   ErrorKind
	Status int
	Reason string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *APIError) Retryable() bool {
	return e.Kind == ErrTransient
}

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: ErrTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiErrorFromResponse(resp)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func apiErrorFromResponse(resp *http.Response) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	kind := ErrTransient
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = ErrAuthorization
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		kind = ErrValidation
	}

	return &APIError{Kind: kind, Status: resp.StatusCode, Reason: payload.Error}
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *HTTPClient) History(ctx context.Context, peerID string) ([]Message, error) {
	var messages []Message
	path := "/api/messages?peerId=" + url.QueryEscape(peerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, peerID, content string, attachments []string) (*Message, error) {
	req := map[string]any{
		"peerId":  peerID,
		"content": content,
	}
	if len(attachments) > 0 {
		req["attachments"] = attachments
	}

	var message Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *HTTPClient) SetTyping(ctx context.Context, peerID string, isTyping bool) error {
	req := map[string]any{"peerId": peerID, "isTyping": isTyping}
	return c.do(ctx, http.MethodPost, "/api/typing", req, nil)
}

func (c *HTTPClient) PeerTyping(ctx context.Context, peerID string) (bool, error) {
	var status TypingStatus
	path := "/api/typing?peerId=" + url.QueryEscape(peerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return false, err
	}
	return status.IsTyping, nil
}

func (c *HTTPClient) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Attachment, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: ErrTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiErrorFromResponse(resp)
	}

	var attachment Attachment
	if err := json.NewDecoder(resp.Body).Decode(&attachment); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (c *HTTPClient) CreateGroup(ctx context.Context, name string, memberIDs []string) (*Conversation, error) {
	req := map[string]any{"name": name, "memberIds": memberIDs}

	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations/group", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *HTTPClient) MarkRead(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/api/conversations/"+url.PathEscape(conversationID)+"/read", nil, nil)
}
