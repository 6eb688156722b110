package config

const (
	// TopicJobLifecycle carries job state-change events (enqueued, started,
	// completed, failed) for downstream observers.
	TopicJobLifecycle = "ingest.lifecycle"

	// TopicJobDead carries jobs that exhausted their retry budget, for
	// operator inspection and alerting.
	TopicJobDead = "ingest.dead"
)
