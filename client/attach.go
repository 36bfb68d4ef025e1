package client

import (
	"context"
	"io"
	"sync"
)

// UploadFile is one file picked for attachment, not yet uploaded.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UploadOutcome is the per-file result of an upload batch. Outcomes are
// independent: one file failing says nothing about its neighbors.
type UploadOutcome struct {
	Filename   string
	Attachment *Attachment
	Err        error
}

func (o UploadOutcome) OK() bool {
	return o.Err == nil
}

// UploadAll uploads files one at a time, in order. Sequential on purpose:
// it bounds concurrent upload load and keeps per-file errors attributable.
// A failed file is recorded and the loop continues; only a cancelled
// context stops the batch early.
func UploadAll(ctx context.Context, api API, files []UploadFile) []UploadOutcome {
	outcomes := make([]UploadOutcome, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			outcomes = append(outcomes, UploadOutcome{Filename: f.Name, Err: ctx.Err()})
			continue
		}

		attachment, err := api.Upload(ctx, f.Name, f.ContentType, f.Body)
		outcomes = append(outcomes, UploadOutcome{
			Filename:   f.Name,
			Attachment: attachment,
			Err:        err,
		})
	}
	return outcomes
}

// AllSucceeded gates the send: a message with attachments goes out only
// when every selected file uploaded.
func AllSucceeded(outcomes []UploadOutcome) bool {
	for _, o := range outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// PendingAttachments is the set of uploaded-but-unsent attachments under
// the compose box. Removing one is purely local: nothing durable
// references the URL until a message does.
type PendingAttachments struct {
	mu    sync.Mutex
	items []Attachment
}

func (p *PendingAttachments) Add(a Attachment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, a)
}

func (p *PendingAttachments) Remove(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].URL == url {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

func (p *PendingAttachments) URLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	urls := make([]string, len(p.items))
	for i, a := range p.items {
		urls[i] = a.URL
	}
	return urls
}

func (p *PendingAttachments) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Clear empties the pending set, typically right after a successful send.
func (p *PendingAttachments) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}
