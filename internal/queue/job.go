package queue

import (
	"time"
)

// Job statuses. A job cycles pending -> in_progress -> failed_retryable ->
// pending (via next_run_at) until it either completes or exhausts its
// attempts and goes dead. Dead and completed are terminal.
const (
	StatusPending         = "pending"
	StatusInProgress      = "in_progress"
	StatusCompleted       = "completed"
	StatusFailedRetryable = "failed_retryable"
	StatusDead            = "dead"
)

// Job is one unit of ingestion work referencing a single document.
type Job struct {
	ID               string        `json:"id"`
	DocumentRef      string        `json:"document_ref"`
	OriginalFilename string        `json:"original_filename,omitempty"`
	ExtractedText    []string      `json:"extracted_text,omitempty"`
	Attempt          int           `json:"attempt"`
	MaxAttempts      int           `json:"max_attempts"`
	BaseDelay        time.Duration `json:"-"`
	Status           string        `json:"status"`
	Error            string        `json:"error,omitempty"`
	CorrelationID    string        `json:"correlation_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	LastAttemptAt    time.Time     `json:"last_attempt_at,omitzero"`
	NextRunAt        time.Time     `json:"next_run_at,omitzero"`
	LeaseExpiresAt   time.Time     `json:"-"`
}

// Options controls delivery for a single job.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Backoff returns the delay before redelivery after the given processing
// attempt: base * 2^(attempt-1). Attempt counts from 1.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// PermanentError marks job errors that cannot succeed on retry. Fail sends
// jobs carrying one straight to dead instead of burning the remaining
// attempts on a document that will never parse.
type PermanentError interface {
	error
	Permanent() bool
}
