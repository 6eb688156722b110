package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pdfstream/internal/config"
	"pdfstream/internal/middleware"
	"pdfstream/internal/queue"
)

// Pool pulls jobs from the queue with bounded concurrency and drives each one
// through the Processor, acking or failing based on the returned error. Jobs
// are independent; workers share nothing but the queue itself.
//
// Errors from the queue's own durability layer are fatal: Run returns and the
// process exits so supervision can restart it, rather than silently dropping
// work.
type Pool struct {
	queue        Queue
	processor    *Processor
	pub          EventPublisher
	concurrency  int
	pollInterval time.Duration
}

func NewPool(q Queue, p *Processor, pub EventPublisher, concurrency int, pollInterval time.Duration) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:        q,
		processor:    p,
		pub:          pub,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

func (p *Pool) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "worker pool starting", "concurrency", p.concurrency, "poll_interval", p.pollInterval)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		g.Go(func() error {
			return p.loop(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		slog.Info("worker pool stopped")
		return nil
	}
	return err
}

func (p *Pool) loop(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Drain ready jobs before sleeping again.
			for {
				job, err := p.queue.Dequeue(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return fmt.Errorf("dequeue: %w", err)
				}
				if job == nil {
					break
				}
				if err := p.handle(ctx, job); err != nil {
					return err
				}
			}
		}
	}
}

func (p *Pool) handle(ctx context.Context, job *queue.Job) error {
	if job.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, job.CorrelationID)
	}

	slog.InfoContext(ctx, "job started", "job_id", job.ID, "document_ref", job.DocumentRef, "attempt", job.Attempt)
	p.publish(ctx, config.TopicJobLifecycle, EventStarted, job, "")

	hadText := len(job.ExtractedText) > 0
	procErr := p.processor.Process(ctx, job)

	if procErr == nil {
		if err := p.queue.Ack(ctx, job.ID); err != nil {
			if errors.Is(err, queue.ErrLeaseLost) {
				slog.WarnContext(ctx, "lease lost before ack", "job_id", job.ID)
				return nil
			}
			return fmt.Errorf("ack %s: %w", job.ID, err)
		}
		slog.InfoContext(ctx, "job completed", "job_id", job.ID, "document_ref", job.DocumentRef, "attempt", job.Attempt)
		p.publish(ctx, config.TopicJobLifecycle, EventCompleted, job, "")
		return nil
	}

	// Shutdown mid-job: leave the lease to expire so another worker
	// redelivers, instead of burning an attempt on a cancellation.
	if ctx.Err() != nil && errors.Is(procErr, context.Canceled) {
		slog.InfoContext(ctx, "job interrupted by shutdown, leaving lease", "job_id", job.ID)
		return nil
	}

	// The extraction already succeeded; persist it so the retry skips
	// re-fetching. Best effort, the retry just re-extracts on miss.
	if !hadText && len(job.ExtractedText) > 0 {
		if err := p.queue.UpdateExtractedText(ctx, job.ID, job.ExtractedText); err != nil {
			slog.WarnContext(ctx, "failed to persist extracted text", "job_id", job.ID, "error", err)
		}
	}

	failed, err := p.queue.Fail(ctx, job.ID, procErr)
	if err != nil {
		if errors.Is(err, queue.ErrLeaseLost) {
			slog.WarnContext(ctx, "lease lost before fail", "job_id", job.ID)
			return nil
		}
		return fmt.Errorf("fail %s: %w", job.ID, err)
	}

	if failed.Status == queue.StatusDead {
		slog.ErrorContext(ctx, "job dead", "job_id", job.ID, "document_ref", job.DocumentRef, "attempt", failed.Attempt, "error", procErr)
		job.Attempt = failed.Attempt
		p.publish(ctx, config.TopicJobDead, EventDead, job, procErr.Error())
		return nil
	}

	slog.WarnContext(ctx, "job failed, will retry", "job_id", job.ID, "document_ref", job.DocumentRef, "attempt", failed.Attempt, "error", procErr)
	job.Attempt = failed.Attempt
	p.publish(ctx, config.TopicJobLifecycle, EventFailed, job, procErr.Error())
	return nil
}

// publish emits a lifecycle event, fire and forget. Observability must not
// fail the job.
func (p *Pool) publish(ctx context.Context, topic, stage string, job *queue.Job, errMsg string) {
	if p.pub == nil {
		return
	}

	body, err := json.Marshal(Event{
		Stage:         stage,
		JobID:         job.ID,
		DocumentRef:   job.DocumentRef,
		Attempt:       job.Attempt,
		Error:         errMsg,
		CorrelationID: job.CorrelationID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal event", "error", err)
		return
	}

	if err := p.pub.Publish(topic, body); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "topic", topic, "stage", stage, "error", err)
	}
}
