package worker

import (
	"context"

	"pdfstream/internal/queue"
)

// EmbeddingRecord is what gets persisted to the vector store: one vector per
// document, the text it represents, and enough metadata to trace it back.
type EmbeddingRecord struct {
	Vector     []float32
	SourceText string
	Metadata   map[string]string
}

type Queue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Ack(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, jobErr error) (*queue.Job, error)
	UpdateExtractedText(ctx context.Context, id string, pages []string) error
}

type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Store(ctx context.Context, rec EmbeddingRecord, collection string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
