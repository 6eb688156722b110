package worker

import "time"

// Job lifecycle stages published on the events topics.
const (
	EventEnqueued  = "enqueued"
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventDead      = "dead"
)

type Event struct {
	Stage         string    `json:"stage"`
	JobID         string    `json:"job_id"`
	DocumentRef   string    `json:"document_ref"`
	Attempt       int       `json:"attempt"`
	Error         string    `json:"error,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
