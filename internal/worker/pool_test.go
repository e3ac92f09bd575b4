package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"media-transcription-service/internal/models"
	"media-transcription-service/internal/queue"
	"media-transcription-service/internal/store"
)

// recordingRunner captures job execution order and lets tests fail or
// stall specific jobs.
type recordingRunner struct {
	mu    sync.Mutex
	order []int64
	done  chan int64

	failIDs map[int64]bool
	block   chan struct{} // when non-nil, Run waits on it
	jobs    store.JobStore
}

func (r *recordingRunner) Run(ctx context.Context, job models.Job) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.order = append(r.order, job.ID)
	fail := r.failIDs[job.ID]
	r.mu.Unlock()

	status := models.StatusCompleted
	if fail {
		status = models.StatusFailed
	}
	var err error
	if r.jobs != nil {
		err = r.jobs.UpdateStatus(ctx, job.ID, status, nil)
	}
	if r.done != nil {
		r.done <- job.ID
	}
	if fail {
		return errors.New("job failed")
	}
	return err
}

func (r *recordingRunner) ran() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out
}

func seed(t *testing.T, jobs store.JobStore, q queue.PriorityJobQueue, tier models.PriorityTier) int64 {
	t.Helper()
	id, err := jobs.Create(context.Background(), models.Job{
		OwnerID:      "owner-1",
		PriorityTier: tier,
		MediaRef:     "media/x",
	})
	if err != nil {
		t.Fatal(err)
	}
	q.Submit(tier, id)
	return id
}

func waitFor(t *testing.T, done chan int64, n int) []int64 {
	t.Helper()
	var got []int64
	for i := 0; i < n; i++ {
		select {
		case id := <-done:
			got = append(got, id)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for job %d of %d", i+1, n)
		}
	}
	return got
}

func TestPool_HighTierDrainsFirst(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	runner := &recordingRunner{done: make(chan int64, 8), jobs: jobs}
	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 1})

	// LOW admitted first, then HIGH; a single worker must still take
	// HIGH first.
	lowID := seed(t, jobs, q, models.TierLow)
	highID := seed(t, jobs, q, models.TierHigh)

	pool.Start(context.Background())
	waitFor(t, runner.done, 2)
	pool.Stop()

	order := runner.ran()
	if order[0] != highID || order[1] != lowID {
		t.Fatalf("execution order = %v, want [%d %d]", order, highID, lowID)
	}
}

func TestPool_TerminalStatusRecorded(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	runner := &recordingRunner{done: make(chan int64, 8), jobs: jobs, failIDs: map[int64]bool{}}

	okID := seed(t, jobs, q, models.TierHigh)
	badID := seed(t, jobs, q, models.TierHigh)
	runner.failIDs[badID] = true

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 2})
	pool.Start(context.Background())
	waitFor(t, runner.done, 2)
	pool.Stop()

	if got := q.Status(okID); got != models.StatusCompleted {
		t.Errorf("live status of %d = %s, want COMPLETED", okID, got)
	}
	if got := q.Status(badID); got != models.StatusFailed {
		t.Errorf("live status of %d = %s, want FAILED", badID, got)
	}

	okJob, err := jobs.Get(context.Background(), okID)
	if err != nil {
		t.Fatal(err)
	}
	if okJob.Status != models.StatusCompleted {
		t.Errorf("durable status of %d = %s, want COMPLETED", okID, okJob.Status)
	}
}

func TestPool_MarksProcessingBeforeRun(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()

	statusCh := make(chan models.JobStatus, 1)
	runner := runnerFunc(func(ctx context.Context, job models.Job) error {
		got, err := jobs.Get(ctx, job.ID)
		if err != nil {
			return err
		}
		statusCh <- got.Status
		return jobs.UpdateStatus(ctx, job.ID, models.StatusCompleted, nil)
	})

	seed(t, jobs, q, models.TierHigh)

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 1})
	pool.Start(context.Background())

	select {
	case status := <-statusCh:
		if status != models.StatusProcessing {
			t.Errorf("durable status during run = %s, want PROCESSING", status)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}
	pool.Stop()
}

type runnerFunc func(ctx context.Context, job models.Job) error

func (f runnerFunc) Run(ctx context.Context, job models.Job) error { return f(ctx, job) }

func TestPool_StopDrainsInFlight(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	block := make(chan struct{})
	runner := &recordingRunner{done: make(chan int64, 1), jobs: jobs, block: block}

	id := seed(t, jobs, q, models.TierHigh)

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 1})
	pool.Start(context.Background())

	// Wait for the worker to claim the job, then begin shutdown while
	// it is still in flight.
	deadline := time.Now().Add(5 * time.Second)
	for q.Depth() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never claimed")
		}
		time.Sleep(time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a job was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the in-flight job finished")
	}

	if got := runner.ran(); len(got) != 1 || got[0] != id {
		t.Errorf("in-flight job did not run to completion: %v", got)
	}
}

func TestPool_JobTimeoutBoundsExecution(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	done := make(chan error, 1)
	runner := runnerFunc(func(ctx context.Context, job models.Job) error {
		select {
		case <-ctx.Done():
			done <- ctx.Err()
			_ = jobs.UpdateStatus(context.Background(), job.ID, models.StatusFailed, nil)
			return ctx.Err()
		case <-time.After(10 * time.Second):
			done <- nil
			return nil
		}
	})

	seed(t, jobs, q, models.TierHigh)

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 1, JobTimeout: 20 * time.Millisecond})
	pool.Start(context.Background())

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout never fired")
	}
	pool.Stop()
}

// processingRejectStore fails the PROCESSING write, simulating a durable
// store outage at claim time.
type processingRejectStore struct {
	store.JobStore
}

func (s *processingRejectStore) UpdateStatus(ctx context.Context, id int64, status models.JobStatus, artifact []byte) error {
	if status == models.StatusProcessing {
		return errors.New("store unavailable")
	}
	return s.JobStore.UpdateStatus(ctx, id, status, artifact)
}

func TestPool_FailedProcessingWriteStillTerminatesDurably(t *testing.T) {
	inner := store.NewMemory()
	jobs := &processingRejectStore{JobStore: inner}
	q := queue.NewMemory()
	runner := &recordingRunner{jobs: inner}

	id := seed(t, inner, q, models.TierHigh)

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 1})
	pool.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := inner.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.IsTerminal() {
			if job.Status != models.StatusFailed {
				t.Errorf("durable status = %s, want FAILED", job.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("durable record never reached a terminal state")
		}
		time.Sleep(time.Millisecond)
	}
	pool.Stop()

	if got := q.Status(id); got != models.StatusFailed {
		t.Errorf("live status = %s, want FAILED", got)
	}
	if len(runner.ran()) != 0 {
		t.Error("job must not run when it could not be marked PROCESSING")
	}
}

func TestPool_ZeroWorkersIsValid(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	runner := &recordingRunner{jobs: jobs}

	seed(t, jobs, q, models.TierHigh)

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 0})
	pool.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	if q.Depth() != 1 {
		t.Errorf("queue depth = %d, want undrained 1", q.Depth())
	}
	if len(runner.ran()) != 0 {
		t.Error("no job should have run with zero workers")
	}
	pool.Stop()
}

func TestPool_ConcurrentWorkersDrainEverything(t *testing.T) {
	jobs := store.NewMemory()
	q := queue.NewMemory()
	const n = 40
	runner := &recordingRunner{done: make(chan int64, n), jobs: jobs}

	want := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		tier := models.TierLow
		if i%2 == 0 {
			tier = models.TierHigh
		}
		want[seed(t, jobs, q, tier)] = true
	}

	pool := NewPool(Config{Queue: q, Jobs: jobs, Runner: runner, Count: 4})
	pool.Start(context.Background())
	got := waitFor(t, runner.done, n)
	pool.Stop()

	seen := make(map[int64]bool, n)
	for _, id := range got {
		if seen[id] {
			t.Errorf("job %d executed twice", id)
		}
		seen[id] = true
		if !want[id] {
			t.Errorf("unexpected job id %d", id)
		}
	}
	if len(seen) != n {
		t.Errorf("drained %d jobs, want %d", len(seen), n)
	}
}
