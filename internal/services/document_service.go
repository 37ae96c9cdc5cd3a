package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/markdave123-py/Penpal/internal/core"
)

// MaxImportBytes bounds uploaded documents.
const MaxImportBytes = 5 << 20

// DocumentService turns an uploaded document into the day's draft.
type DocumentService struct {
	extractor core.DocumentExtractor
	entries   *EntryStore
}

func NewDocumentService(extractor core.DocumentExtractor, entries *EntryStore) *DocumentService {
	return &DocumentService{extractor: extractor, entries: entries}
}

// ImportDraft extracts text from r and saves it as a draft. A final entry is
// left untouched and ErrEntryFinalized is returned.
func (s *DocumentService) ImportDraft(ctx context.Context, id Identity, dateKey, filename, contentType string, r io.Reader) (Result, error) {
	text, err := s.extractor.ExtractText(ctx, io.LimitReader(r, MaxImportBytes), ContentTypeFor(filename, contentType))
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	return s.entries.Save(ctx, id, dateKey, text, false)
}

// ContentTypeFor prefers the extension over a generic declared type.
func ContentTypeFor(filename, declared string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".txt", ".md":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".odt":
		return "application/vnd.oasis.opendocument.text"
	case ".rtf":
		return "application/rtf"
	case ".html", ".htm":
		return "text/html"
	}
	if declared == "" || declared == "application/octet-stream" {
		return "text/plain"
	}
	return declared
}
