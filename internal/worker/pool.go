// Package worker runs the pool of executors that drain the priority
// queue and drive jobs through the processing pipeline. Shutdown is
// graceful: claiming stops immediately, in-flight jobs run to their
// terminal status before Stop returns.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability/logging"
	"media-transcription-service/internal/observability/metrics"
	"media-transcription-service/internal/queue"
	"media-transcription-service/internal/store"
)

// JobRunner executes one claimed job to its terminal durable status. A
// non-nil error means the job ended FAILED.
type JobRunner interface {
	Run(ctx context.Context, job models.Job) error
}

// Pool owns a fixed number of executor goroutines. Zero workers is a
// valid configuration: submissions are accepted and queue up, nothing
// drains them.
type Pool struct {
	queue   queue.PriorityJobQueue
	jobs    store.JobStore
	runner  JobRunner
	metrics *metrics.Metrics

	count      int
	jobTimeout time.Duration

	mu        sync.Mutex
	claimStop context.CancelFunc
	wg        sync.WaitGroup
}

// Config bundles the pool's collaborators and sizing.
type Config struct {
	Queue  queue.PriorityJobQueue
	Jobs   store.JobStore
	Runner JobRunner

	// Count is the number of concurrent executors.
	Count int

	// JobTimeout bounds a single job execution. Zero means no bound.
	JobTimeout time.Duration
}

// NewPool constructs a stopped pool.
func NewPool(cfg Config) *Pool {
	return &Pool{
		queue:      cfg.Queue,
		jobs:       cfg.Jobs,
		runner:     cfg.Runner,
		metrics:    metrics.DefaultMetrics,
		count:      cfg.Count,
		jobTimeout: cfg.JobTimeout,
	}
}

// Start launches the executors. ctx cancellation stops claiming the
// same way Stop does.
func (p *Pool) Start(ctx context.Context) {
	claimCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.claimStop = cancel
	p.mu.Unlock()

	logger := logging.WithComponent("worker-pool")
	logger.Info().
		Int("workers", p.count).Msg("Starting worker pool")

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.runWorker(claimCtx, i)
	}
}

// Stop ends claiming and blocks until every in-flight job has reached
// its terminal status.
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.claimStop
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	logger := logging.WithComponent("worker-pool")
	logger.Info().Msg("Worker pool stopped")
}

// runWorker is the executor loop: claim, mark PROCESSING, run, record
// the live terminal status. Claiming is the only point that honors
// shutdown; a job already claimed always finishes.
func (p *Pool) runWorker(claimCtx context.Context, id int) {
	defer p.wg.Done()
	p.metrics.WorkerStarted()
	defer p.metrics.WorkerStopped()

	log := logging.WithWorker(id)
	log.Debug().Msg("Worker started")

	for {
		jobID, err := p.queue.Claim(claimCtx)
		if err != nil {
			log.Debug().Msg("Worker draining, claim loop ended")
			return
		}
		p.execute(jobID, log)
	}
}

func (p *Pool) execute(jobID int64, log zerolog.Logger) {
	// Execution deliberately does not inherit the claim context, so a
	// shutdown mid-job never aborts the pipeline.
	ctx := context.Background()
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Int64("job_id", jobID).Msg("Claimed job no longer exists, skipping")
			p.queue.SetStatus(jobID, models.StatusFailed)
			return
		}
		log.Error().Err(err).Int64("job_id", jobID).Msg("Failed to load claimed job")
		p.failJob(ctx, jobID, log)
		return
	}

	if err := p.jobs.UpdateStatus(ctx, jobID, models.StatusProcessing, nil); err != nil {
		log.Error().Err(err).Int64("job_id", jobID).Msg("Failed to mark job PROCESSING")
		p.failJob(ctx, jobID, log)
		return
	}
	job.Status = models.StatusProcessing

	if err := p.runner.Run(ctx, job); err != nil {
		p.queue.SetStatus(jobID, models.StatusFailed)
		return
	}
	p.queue.SetStatus(jobID, models.StatusCompleted)
}

// failJob records FAILED on both the durable record and the live view
// for a claimed job that never started, so the two cannot diverge. The
// QUEUED→FAILED write is valid for exactly this case.
func (p *Pool) failJob(ctx context.Context, jobID int64, log zerolog.Logger) {
	if err := p.jobs.UpdateStatus(ctx, jobID, models.StatusFailed, nil); err != nil {
		log.Error().Err(err).Int64("job_id", jobID).Msg("Failed to record terminal FAILED status")
	}
	p.queue.SetStatus(jobID, models.StatusFailed)
}
