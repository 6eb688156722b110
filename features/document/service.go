package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pdfstream/internal/config"
	"pdfstream/internal/middleware"
	"pdfstream/internal/queue"
	"pdfstream/internal/worker"
)

type Service struct {
	queue Queue
	pub   EventPublisher
	opts  queue.Options
}

func NewService(q Queue, pub EventPublisher, opts queue.Options) *Service {
	return &Service{queue: q, pub: pub, opts: opts}
}

// Enqueue registers a document for ingestion and returns the accepted job.
// The job is durable the moment this returns; processing happens later on
// the worker pool.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*queue.Job, error) {
	if req.DocumentRef == "" {
		return nil, fmt.Errorf("document_ref is required")
	}

	correlationID := middleware.GetCorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	job := &queue.Job{
		DocumentRef:      req.DocumentRef,
		OriginalFilename: req.OriginalFilename,
		ExtractedText:    req.ExtractedText,
		CorrelationID:    correlationID,
	}

	id, err := s.queue.Enqueue(ctx, job, s.opts)
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}

	slog.InfoContext(ctx, "job enqueued", "job_id", id, "document_ref", req.DocumentRef)
	s.publishEnqueued(ctx, job)

	return job, nil
}

func (s *Service) Get(ctx context.Context, id string) (*queue.Job, error) {
	return s.queue.Get(ctx, id)
}

func (s *Service) publishEnqueued(ctx context.Context, job *queue.Job) {
	payload, err := json.Marshal(worker.Event{
		Stage:         worker.EventEnqueued,
		JobID:         job.ID,
		DocumentRef:   job.DocumentRef,
		CorrelationID: job.CorrelationID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal enqueued event", "error", err)
		return
	}
	if err := s.pub.Publish(config.TopicJobLifecycle, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish enqueued event", "error", err)
	}
}
