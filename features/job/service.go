package job

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pdfstream/internal/config"
	"pdfstream/internal/queue"
	"pdfstream/internal/worker"
)

type Service struct {
	queue DeadLetterQueue
	pub   EventPublisher
}

func NewService(q DeadLetterQueue, pub EventPublisher) *Service {
	return &Service{queue: q, pub: pub}
}

func (s *Service) List(ctx context.Context) ([]queue.Job, error) {
	return s.queue.ListDead(ctx)
}

// Retry puts a dead job back on the queue with a fresh attempt budget. The
// worker pool picks it up on its next poll; nothing is processed inline.
func (s *Service) Retry(ctx context.Context, id string) error {
	if err := s.queue.RetryDead(ctx, id); err != nil {
		return err
	}

	job, err := s.queue.Get(ctx, id)
	if err != nil {
		// The retry itself succeeded, the event is best effort.
		slog.WarnContext(ctx, "failed to load retried job for event", "job_id", id, "error", err)
		return nil
	}

	payload, err := json.Marshal(worker.Event{
		Stage:         worker.EventEnqueued,
		JobID:         job.ID,
		DocumentRef:   job.DocumentRef,
		CorrelationID: job.CorrelationID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal retry event", "error", err)
		return nil
	}
	if err := s.pub.Publish(config.TopicJobLifecycle, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish retry event", "error", err)
	}
	return nil
}
