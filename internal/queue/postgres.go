package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// ErrLeaseLost is returned by Ack/Fail when the job is no longer held by the
// caller, typically because the lease expired and another worker picked the
// job up. Safe to ignore under at-least-once delivery.
var ErrLeaseLost = errors.New("job lease no longer held")

// PostgresQueue is a durable job queue on a single ingestion_jobs table.
// Dequeue takes a time-bounded lease via a single UPDATE with a
// FOR UPDATE SKIP LOCKED sub-select, so at most one worker holds a job at a
// time and crashed workers' jobs become re-deliverable once the lease lapses.
type PostgresQueue struct {
	db           *sql.DB
	leaseTimeout time.Duration
}

func NewPostgresQueue(db *sql.DB, leaseTimeout time.Duration) *PostgresQueue {
	return &PostgresQueue{db: db, leaseTimeout: leaseTimeout}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, job *Job, opts Options) (string, error) {
	query := `INSERT INTO ingestion_jobs (document_ref, original_filename, extracted_text, max_attempts, base_delay_ms, correlation_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := q.db.QueryRowContext(ctx, query,
		job.DocumentRef,
		job.OriginalFilename,
		pq.Array(job.ExtractedText),
		opts.MaxAttempts,
		opts.BaseDelay.Milliseconds(),
		job.CorrelationID,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return "", err
	}
	job.Status = StatusPending
	job.MaxAttempts = opts.MaxAttempts
	job.BaseDelay = opts.BaseDelay
	return job.ID, nil
}

// Dequeue leases the next runnable job, or returns (nil, nil) when none is
// due. Runnable means pending or failed_retryable with next_run_at reached,
// or in_progress with an expired lease. The attempt counter is incremented
// here so redeliveries after a worker crash are counted too.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Job, error) {
	query := `
	UPDATE ingestion_jobs SET
		status = 'in_progress',
		attempt = attempt + 1,
		last_attempt_at = NOW(),
		lease_expires_at = NOW() + make_interval(secs => $1)
	WHERE id = (
		SELECT id FROM ingestion_jobs
		WHERE ((status = 'pending' OR status = 'failed_retryable') AND next_run_at <= NOW())
			OR (status = 'in_progress' AND lease_expires_at <= NOW())
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, document_ref, original_filename, extracted_text, attempt, max_attempts, base_delay_ms, status, error, correlation_id, created_at, last_attempt_at, next_run_at`

	job, err := scanJob(q.db.QueryRowContext(ctx, query, q.leaseTimeout.Seconds()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// Ack marks the job completed and releases the lease.
func (q *PostgresQueue) Ack(ctx context.Context, id string) error {
	query := `UPDATE ingestion_jobs SET status = 'completed', error = '', lease_expires_at = NULL WHERE id = $1 AND status = 'in_progress'`
	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLeaseLost
	}
	return nil
}

// Fail records the error for the current attempt. Retryable failures are
// rescheduled with exponential backoff (base_delay * 2^(attempt-1));
// permanent failures and jobs out of attempts go dead. Returns the job's
// resulting status and attempt count.
func (q *PostgresQueue) Fail(ctx context.Context, id string, jobErr error) (*Job, error) {
	permanent := false
	var p PermanentError
	if errors.As(jobErr, &p) {
		permanent = p.Permanent()
	}

	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}

	query := `
	UPDATE ingestion_jobs SET
		status = CASE WHEN $2 OR attempt >= max_attempts THEN 'dead' ELSE 'failed_retryable' END,
		error = $3,
		next_run_at = NOW() + make_interval(secs => (base_delay_ms::float8 / 1000.0) * power(2, GREATEST(attempt, 1) - 1)),
		lease_expires_at = NULL
	WHERE id = $1 AND status = 'in_progress'
	RETURNING status, attempt`

	job := &Job{ID: id, Error: msg}
	err := q.db.QueryRowContext(ctx, query, id, permanent, msg).Scan(&job.Status, &job.Attempt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaseLost
		}
		return nil, err
	}
	return job, nil
}

// UpdateExtractedText persists the extracted pages so a retried job skips
// re-fetching and re-extracting the document.
func (q *PostgresQueue) UpdateExtractedText(ctx context.Context, id string, pages []string) error {
	query := `UPDATE ingestion_jobs SET extracted_text = $2 WHERE id = $1`
	_, err := q.db.ExecContext(ctx, query, id, pq.Array(pages))
	return err
}

func (q *PostgresQueue) Get(ctx context.Context, id string) (*Job, error) {
	query := `SELECT id, document_ref, original_filename, extracted_text, attempt, max_attempts, base_delay_ms, status, error, correlation_id, created_at, last_attempt_at, next_run_at FROM ingestion_jobs WHERE id = $1`
	return scanJob(q.db.QueryRowContext(ctx, query, id))
}

func (q *PostgresQueue) ListDead(ctx context.Context) ([]Job, error) {
	query := `SELECT id, document_ref, original_filename, extracted_text, attempt, max_attempts, base_delay_ms, status, error, correlation_id, created_at, last_attempt_at, next_run_at FROM ingestion_jobs WHERE status = 'dead' ORDER BY created_at DESC`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// RetryDead resets a dead job to pending with a fresh attempt budget.
func (q *PostgresQueue) RetryDead(ctx context.Context, id string) error {
	query := `UPDATE ingestion_jobs SET status = 'pending', attempt = 0, error = '', next_run_at = NOW() WHERE id = $1 AND status = 'dead'`
	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q *PostgresQueue) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM ingestion_jobs GROUP BY status`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	job := &Job{}
	var pages pq.StringArray
	var baseDelayMS int64
	var lastAttemptAt, nextRunAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.DocumentRef,
		&job.OriginalFilename,
		&pages,
		&job.Attempt,
		&job.MaxAttempts,
		&baseDelayMS,
		&job.Status,
		&job.Error,
		&job.CorrelationID,
		&job.CreatedAt,
		&lastAttemptAt,
		&nextRunAt,
	)
	if err != nil {
		return nil, err
	}

	job.ExtractedText = pages
	job.BaseDelay = time.Duration(baseDelayMS) * time.Millisecond
	if lastAttemptAt.Valid {
		job.LastAttemptAt = lastAttemptAt.Time
	}
	if nextRunAt.Valid {
		job.NextRunAt = nextRunAt.Time
	}
	return job, nil
}
