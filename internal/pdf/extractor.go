package pdf

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
)

// Extractor turns raw PDF bytes into an ordered sequence of page strings.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]string, error)
}

// DocconvExtractor extracts text with docconv (pdftotext under the hood),
// which separates pages with form feeds.
type DocconvExtractor struct{}

func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) Extract(ctx context.Context, data []byte) ([]string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", false)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := SplitPages(res.Body)
	slog.DebugContext(ctx, "extracted pdf text", "pages", len(pages), "bytes", len(data))
	return pages, nil
}

// SplitPages splits extracted text on form-feed page boundaries, trims each
// page, and drops pages that are blank or whitespace-only. Order is
// preserved. An all-blank document yields an empty slice, not an error;
// the caller decides what empty content means.
func SplitPages(text string) []string {
	raw := strings.Split(text, "\f")
	pages := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}
