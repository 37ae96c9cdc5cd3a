package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type fakeExtractor struct{ gotType string }

func (f *fakeExtractor) ExtractText(_ context.Context, r io.Reader, contentType string) (string, error) {
	f.gotType = contentType
	b, err := io.ReadAll(r)
	return strings.TrimSpace(string(b)), err
}

func TestImportDraft(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	ext := &fakeExtractor{}
	svc := NewDocumentService(ext, store)

	res, err := svc.ImportDraft(ctx, alice, "2024-07-01", "notes.md", "application/octet-stream", strings.NewReader(" Mon brouillon \n"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Entry == nil || res.Entry.Text != "Mon brouillon" || res.Entry.Submitted {
		t.Fatalf("unexpected entry: %+v", res.Entry)
	}
	if ext.gotType != "text/plain" {
		t.Fatalf("content type = %q", ext.gotType)
	}

	if _, err := svc.ImportDraft(ctx, alice, "2024-07-02", "vide.txt", "", strings.NewReader("   ")); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("empty document: got %v", err)
	}

	if _, err := store.MarkSubmitted(ctx, alice, "2024-07-01"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := svc.ImportDraft(ctx, alice, "2024-07-01", "x.txt", "", strings.NewReader("nouveau")); !errors.Is(err, ErrEntryFinalized) {
		t.Fatalf("import over final entry: got %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := []struct {
		filename, declared, want string
	}{
		{"a.PDF", "", "application/pdf"},
		{"a.docx", "application/octet-stream", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"blob", "text/html", "text/html"},
		{"blob", "", "text/plain"},
	}
	for _, tc := range cases {
		if got := ContentTypeFor(tc.filename, tc.declared); got != tc.want {
			t.Errorf("ContentTypeFor(%q, %q) = %q, want %q", tc.filename, tc.declared, got, tc.want)
		}
	}
}
