package weaviate

import (
	"context"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"

	"pdfstream/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// Store writes one embedding per document. Writes are idempotent: any
// previous object for the same source is deleted first, and the object ID is
// derived deterministically from the source ref, so redelivered jobs overwrite
// instead of duplicating.
func (s *Store) Store(ctx context.Context, rec worker.EmbeddingRecord, collection string) error {
	source := rec.Metadata["source"]

	if err := s.deleteBySource(ctx, collection, source); err != nil {
		return err
	}

	_, err := s.client.Data().Creator().
		WithClassName(collection).
		WithID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()).
		WithProperties(map[string]interface{}{
			"content":  rec.SourceText,
			"source":   source,
			"filename": rec.Metadata["filename"],
		}).
		WithVector(rec.Vector).
		Do(ctx)
	return err
}

func (s *Store) deleteBySource(ctx context.Context, collection, source string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(collection).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"source"}).
			WithOperator(filters.Equal).
			WithValueString(source)).
		Do(ctx)
	return err
}
