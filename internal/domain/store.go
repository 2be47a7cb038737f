package domain

import "context"

// JobStore defines persistence for jobs plus the pending queue and the bounded
// terminal-job history. It is the only component that mutates job state; queue
// membership always agrees with status == queued.
type JobStore interface {
	// Create inserts a queued job and appends it to the pending queue tail.
	// Returns ErrDuplicateID if the id is already present.
	Create(ctx context.Context, job *Job) error

	// Get returns the job or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// ListQueued returns pending jobs, oldest-enqueued first.
	ListQueued(ctx context.Context) ([]Job, error)

	// QueueLength reports the number of pending jobs.
	QueueLength(ctx context.Context) (int, error)

	// ClaimNext atomically removes the oldest queued job from the queue and
	// marks it processing. Two concurrent callers never receive the same job.
	// Returns ErrNotFound when the queue is empty.
	ClaimNext(ctx context.Context) (*Job, error)

	// Complete transitions a queued or processing job to completed with the
	// given tracks and appends it to history. Returns ErrNotFound for unknown
	// ids and ErrInvalidTransition once the job is terminal.
	Complete(ctx context.Context, id string, tracks []Track) error

	// Fail is symmetric to Complete with a failure reason.
	Fail(ctx context.Context, id string, reason string) error

	// History returns up to limit most recent terminal jobs, newest first.
	History(ctx context.Context, limit int) ([]Job, error)

	// Stats reports queue depth and recent outcome counts.
	Stats(ctx context.Context) (Stats, error)
}
