// Package store defines the durable job record collaborator the core
// writes through, plus an in-process implementation. The durable record
// is distinct from the queue's live status view: the queue answers "what
// is happening right now", the store answers "what happened".
package store

import (
	"context"
	"errors"

	"media-transcription-service/internal/models"
)

// ErrNotFound is returned for job ids the store has never seen or that
// were deleted.
var ErrNotFound = errors.New("store: job not found")

// JobStore is the durable metadata store contract. Implementations must
// support concurrent reads while a worker holds an in-flight update.
type JobStore interface {
	// Create persists a new job record and returns its assigned id.
	// Ids are monotonically assigned and stable for the job's lifetime.
	Create(ctx context.Context, job models.Job) (int64, error)

	// Get returns the job record, or ErrNotFound.
	Get(ctx context.Context, id int64) (models.Job, error)

	// UpdateStatus advances a job's status. artifact may be nil; it is
	// only retained when status is COMPLETED. Invalid lifecycle
	// transitions are rejected.
	UpdateStatus(ctx context.Context, id int64, status models.JobStatus, artifact []byte) error

	// CountActive returns the owner's number of non-terminal jobs
	// (QUEUED or PROCESSING). Used by the submission usage gate.
	CountActive(ctx context.Context, ownerID string) (int, error)

	// Delete removes the record. Deleting an unknown id returns
	// ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
