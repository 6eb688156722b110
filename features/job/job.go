package job

import (
	"context"

	"pdfstream/internal/queue"
)

// DeadLetterQueue is the slice of the ingestion queue this feature needs:
// inspecting jobs that exhausted their attempts and putting them back on the
// queue after the operator fixed the underlying cause.
type DeadLetterQueue interface {
	ListDead(ctx context.Context) ([]queue.Job, error)
	RetryDead(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*queue.Job, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
