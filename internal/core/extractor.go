package core

import (
	"context"
	"io"
)

// DocumentExtractor turns an uploaded document into plain text.
// The contentType hint helps the extractor choose the right parsing strategy.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error)
}
