// Package queue provides the dual-priority job queue that feeds the
// worker pool. HIGH-tier entries always drain ahead of LOW-tier entries,
// including LOW entries admitted earlier; within a tier, admission order
// is preserved. This is strict priority: a LOW entry can be starved
// indefinitely under sustained HIGH admission, which is an accepted
// property of the design, not a bug. Fairness, if ever needed, belongs
// in a policy layered on top.
package queue

import (
	"context"

	"media-transcription-service/internal/models"
)

// PriorityJobQueue is the scheduling contract between submission and the
// worker pool. Either an in-memory or a distributed implementation can
// satisfy it; the service wires exactly one backend.
type PriorityJobQueue interface {
	// Submit admits a job id under a priority tier. It never blocks and
	// never fails on a valid id.
	Submit(tier models.PriorityTier, jobID int64)

	// Claim blocks until an entry is available or ctx is done, then
	// returns the highest-priority, earliest-admitted entry, atomically
	// removing it from the pending set. Two concurrent Claims never
	// return the same entry. Claiming flips the live status to
	// PROCESSING.
	Claim(ctx context.Context) (int64, error)

	// Status returns the live, in-memory view of a job, distinct from
	// the durable record. Ids never submitted to this instance report
	// StatusUnknown.
	Status(jobID int64) models.JobStatus

	// SetStatus records a terminal live status for a claimed job.
	SetStatus(jobID int64, status models.JobStatus)

	// Depth returns the number of pending (unclaimed) entries.
	Depth() int
}
