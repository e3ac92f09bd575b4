package queue

import (
	"context"
	"sync"

	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability/metrics"
)

// Memory is the in-process PriorityJobQueue backend. One FIFO per tier,
// so admission order within a tier is the slice order; Claim drains the
// HIGH lane before looking at LOW. The pending lanes and the live-status
// map are the only state mutated concurrently by multiple workers, so
// every access holds the queue mutex.
type Memory struct {
	mu     sync.Mutex
	cond   *sync.Cond
	high   []int64
	low    []int64
	status map[int64]models.JobStatus

	metrics *metrics.Metrics
}

var _ PriorityJobQueue = (*Memory)(nil)

// NewMemory creates an empty in-memory queue.
func NewMemory() *Memory {
	q := &Memory{
		status:  make(map[int64]models.JobStatus),
		metrics: metrics.DefaultMetrics,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit admits jobID under tier. Unbounded by design; deployments that
// need a depth cap enforce it upstream at admission.
func (q *Memory) Submit(tier models.PriorityTier, jobID int64) {
	q.mu.Lock()
	if tier == models.TierHigh {
		q.high = append(q.high, jobID)
	} else {
		q.low = append(q.low, jobID)
	}
	q.status[jobID] = models.StatusQueued
	depth := len(q.high) + len(q.low)
	q.mu.Unlock()

	q.metrics.RecordJobSubmitted(tier.String())
	q.metrics.SetQueueDepth(depth)
	q.cond.Signal()
}

// Claim blocks the calling worker until an entry exists, then removes
// and returns the winning entry under the queue mutex, so no two
// claimants can observe the same entry.
func (q *Memory) Claim(ctx context.Context) (int64, error) {
	// Wake waiters when the context is cancelled so they can observe
	// it. The broadcast must hold the mutex: without it, a cancellation
	// firing between a claimer's ctx.Err() check and its cond.Wait()
	// registration would be lost and the claimer would sleep past
	// cancellation.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.high) == 0 && len(q.low) == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		q.cond.Wait()
	}

	var jobID int64
	if len(q.high) > 0 {
		jobID, q.high = q.high[0], q.high[1:]
	} else {
		jobID, q.low = q.low[0], q.low[1:]
	}
	q.status[jobID] = models.StatusProcessing
	q.metrics.SetQueueDepth(len(q.high) + len(q.low))
	return jobID, nil
}

// Status returns the live status, or StatusUnknown for ids this instance
// has never seen.
func (q *Memory) Status(jobID int64) models.JobStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.status[jobID]
	if !ok {
		return models.StatusUnknown
	}
	return s
}

// SetStatus records a live status update for a job. Backward transitions
// are dropped so a late writer cannot resurrect a terminal job.
func (q *Memory) SetStatus(jobID int64, status models.JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if cur, ok := q.status[jobID]; ok && !cur.CanTransitionTo(status) {
		return
	}
	q.status[jobID] = status
}

// Depth returns the number of pending entries across both tiers.
func (q *Memory) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.high) + len(q.low)
}
