package client

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestUploadAllPartialFailure(t *testing.T) {
	api := &fakeAPI{uploadFn: func(_ context.Context, filename, contentType string, _ io.Reader) (*Attachment, error) {
		if filename == "report.pdf" {
			return nil, &APIError{Kind: ErrTransient, Reason: "upstream timeout"}
		}
		return &Attachment{URL: "/uploads/" + filename, Filename: filename, Type: contentType}, nil
	}}

	files := []UploadFile{
		{Name: "photo.png", ContentType: "image/png", Body: strings.NewReader("png")},
		{Name: "report.pdf", ContentType: "application/pdf", Body: strings.NewReader("pdf")},
		{Name: "notes.txt", ContentType: "text/plain", Body: strings.NewReader("txt")},
	}
	outcomes := UploadAll(context.Background(), api, files)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].OK() || !outcomes[2].OK() {
		t.Errorf("neighbors of a failed file must still succeed: %+v", outcomes)
	}
	if outcomes[1].OK() {
		t.Error("failed file reported success")
	}
	if outcomes[0].Attachment == nil || outcomes[0].Attachment.URL != "/uploads/photo.png" {
		t.Errorf("unexpected attachment for first file: %+v", outcomes[0].Attachment)
	}
	if AllSucceeded(outcomes) {
		t.Error("AllSucceeded must be false with one failure")
	}
}

func TestUploadAllSequentialOrder(t *testing.T) {
	api := &fakeAPI{}
	files := []UploadFile{
		{Name: "a.png", Body: strings.NewReader("a")},
		{Name: "b.png", Body: strings.NewReader("b")},
		{Name: "c.png", Body: strings.NewReader("c")},
	}
	outcomes := UploadAll(context.Background(), api, files)

	if !AllSucceeded(outcomes) {
		t.Fatalf("uploads failed unexpectedly: %+v", outcomes)
	}
	want := []string{"a.png", "b.png", "c.png"}
	if !reflect.DeepEqual(api.uploadsSeq, want) {
		t.Errorf("uploads out of order: %v", api.uploadsSeq)
	}
}

func TestUploadAllCancelledContext(t *testing.T) {
	calls := 0
	api := &fakeAPI{uploadFn: func(context.Context, string, string, io.Reader) (*Attachment, error) {
		calls++
		return &Attachment{}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []UploadFile{
		{Name: "a.png", Body: strings.NewReader("a")},
		{Name: "b.png", Body: strings.NewReader("b")},
	}
	outcomes := UploadAll(ctx, api, files)

	if len(outcomes) != 2 {
		t.Fatalf("every file still gets an outcome, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.OK() {
			t.Errorf("cancelled upload reported success: %+v", o)
		}
	}
}

func TestPendingAttachments(t *testing.T) {
	var p PendingAttachments
	p.Add(Attachment{URL: "/uploads/a.png", Filename: "a.png"})
	p.Add(Attachment{URL: "/uploads/b.pdf", Filename: "b.pdf"})

	if p.Len() != 2 {
		t.Fatalf("expected 2 pending, got %d", p.Len())
	}

	// Removal is local only; the uploaded blob stays on the server.
	if !p.Remove("/uploads/a.png") {
		t.Error("known url not removed")
	}
	if p.Remove("/uploads/a.png") {
		t.Error("second removal of the same url reported true")
	}

	urls := p.URLs()
	if len(urls) != 1 || urls[0] != "/uploads/b.pdf" {
		t.Errorf("unexpected remaining urls: %v", urls)
	}

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("clear left %d entries", p.Len())
	}
}
