// Package extractor turns uploaded documents into plain draft text.
package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Penpal/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts r with docconv and normalises the result into
// paragraphs separated by a single blank line.
func (e *DocconvExtractor) ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	res, err := docconv.Convert(r, contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv %s: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return NormalizeText(res.Body), nil
}

// NormalizeText trims every line and collapses runs of blank lines.
func NormalizeText(s string) string {
	var (
		out   []string
		blank bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
