package document

import (
	"context"

	"pdfstream/internal/queue"
)

// EnqueueRequest is the producer-facing shape of a new ingestion job. A
// producer that already extracted the text (e.g. at upload time) may attach
// the pages so the worker skips the fetch.
type EnqueueRequest struct {
	DocumentRef      string   `json:"document_ref"`
	OriginalFilename string   `json:"original_filename,omitempty"`
	ExtractedText    []string `json:"extracted_text,omitempty"`
}

type Queue interface {
	Enqueue(ctx context.Context, job *queue.Job, opts queue.Options) (string, error)
	Get(ctx context.Context, id string) (*queue.Job, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
