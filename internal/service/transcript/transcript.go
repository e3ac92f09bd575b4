// Package transcript reads completed jobs back out: it decrypts and
// decodes the stored artifact and renders it in a requested export
// format. For FAILED jobs only the id and status are exposed; the
// failure cause stays in the logs.
package transcript

import (
	"context"
	"errors"
	"fmt"

	"media-transcription-service/internal/cryptostore"
	"media-transcription-service/internal/export"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability/logging"
	"media-transcription-service/internal/observability/metrics"
	"media-transcription-service/internal/store"
)

// ErrNotReady is returned when a job exists but has no transcript to
// export yet (QUEUED or PROCESSING).
var ErrNotReady = errors.New("transcript: job has no transcript yet")

// ErrFailed is returned for jobs that ended FAILED. Callers get the
// status and nothing else.
var ErrFailed = errors.New("transcript: job failed")

// Status is the externally visible view of a job.
type Status struct {
	JobID  int64
	Status models.JobStatus
}

// Reader serves transcript reads and exports.
type Reader struct {
	jobs    store.JobStore
	crypto  *cryptostore.Store
	metrics *metrics.Metrics
}

// NewReader constructs a Reader.
func NewReader(jobs store.JobStore, crypto *cryptostore.Store) *Reader {
	return &Reader{jobs: jobs, crypto: crypto, metrics: metrics.DefaultMetrics}
}

// Status returns the job's visible state, or store.ErrNotFound.
func (r *Reader) Status(ctx context.Context, jobID int64) (Status, error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return Status{}, err
	}
	return Status{JobID: job.ID, Status: job.Status}, nil
}

// Artifact returns the decoded transcript of a COMPLETED job.
func (r *Reader) Artifact(ctx context.Context, jobID int64) (*models.TranscriptArtifact, error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch job.Status {
	case models.StatusCompleted:
	case models.StatusFailed:
		return nil, fmt.Errorf("%w: job %d", ErrFailed, jobID)
	default:
		return nil, fmt.Errorf("%w: job %d is %s", ErrNotReady, jobID, job.Status)
	}

	plain, err := r.crypto.Decrypt(job.Artifact)
	if err != nil {
		// An undecryptable artifact means tampering or a key mismatch.
		logger := logging.WithJob(jobID, job.PriorityTier.String())
		logger.Error().
			Err(err).Msg("Stored artifact failed integrity check")
		return nil, err
	}
	return models.DecodeArtifact(plain)
}

// Export renders one job's transcript in the named format.
func (r *Reader) Export(ctx context.Context, jobID int64, formatName string) (export.Result, error) {
	artifact, err := r.Artifact(ctx, jobID)
	if err != nil {
		return export.Result{}, err
	}
	result, err := export.Segments(artifact.Segments, formatName)
	r.metrics.RecordExport(formatName, err)
	if err != nil {
		return export.Result{}, err
	}
	return result, nil
}

// ExportArchive renders several jobs into one zip, every entry in the
// same format. Jobs without an exportable transcript are skipped, not
// errors; an unknown id is still an error.
func (r *Reader) ExportArchive(ctx context.Context, jobIDs []int64, formatName string) ([]byte, error) {
	if !export.Supported(formatName) {
		return nil, fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, formatName)
	}

	items := make([]export.ArchiveItem, 0, len(jobIDs))
	for _, id := range jobIDs {
		artifact, err := r.Artifact(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotReady) || errors.Is(err, ErrFailed) {
				logger := logging.Logger()
				logger.Debug().Int64("jobId", id).Msg("Skipping job without transcript in archive")
				continue
			}
			return nil, err
		}
		items = append(items, export.ArchiveItem{JobID: id, Segments: artifact.Segments})
	}

	data, err := export.Archive(items, formatName)
	r.metrics.RecordExport(formatName, err)
	if err != nil {
		return nil, err
	}
	return data, nil
}
