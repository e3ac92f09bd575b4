// Package pipeline executes the per-job processing chain:
// decrypt → restore → transcribe → diarize → translate → encode →
// encrypt → persist. Decrypt and transcribe failures are fatal and end
// the job FAILED; restore, diarize, and translate degrade gracefully
// and never change the terminal status away from COMPLETED. Workspace
// cleanup always runs, on every path.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"media-transcription-service/internal/blob"
	"media-transcription-service/internal/cryptostore"
	"media-transcription-service/internal/events"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability/logging"
	"media-transcription-service/internal/observability/metrics"
	"media-transcription-service/internal/provider"
	"media-transcription-service/internal/store"
)

// Stage names, used in errors, logs and metrics labels.
const (
	StageDecrypt    = "decrypt"
	StageRestore    = "restore"
	StageTranscribe = "transcribe"
	StageDiarize    = "diarize"
	StageTranslate  = "translate"
	StageEncode     = "encode"
	StagePersist    = "persist"
)

// FatalStageError aborts the pipeline and fails the job. The wrapped
// provider error is logged inside the core but never stored on the job
// record, so callers only ever see {id, FAILED}.
type FatalStageError struct {
	Stage string
	Err   error
}

func (e *FatalStageError) Error() string {
	return fmt.Sprintf("pipeline: fatal failure in %s stage: %v", e.Stage, e.Err)
}

func (e *FatalStageError) Unwrap() error {
	return e.Err
}

// Runner executes pipelines against a fixed set of collaborators. The
// optional capabilities (Diarizer, Translator, Restorer) may be nil,
// which is a valid degraded mode rather than a configuration error.
type Runner struct {
	crypto     *cryptostore.Store
	blobs      blob.Store
	jobs       store.JobStore
	cache      *provider.Cache
	diarizer   provider.Diarizer
	translator provider.Translator
	restorer   provider.Restorer
	publisher  *events.Publisher
	metrics    *metrics.Metrics
	workRoot   string
}

// Options bundles the Runner's collaborators.
type Options struct {
	Crypto     *cryptostore.Store
	Blobs      blob.Store
	Jobs       store.JobStore
	Cache      *provider.Cache
	Diarizer   provider.Diarizer
	Translator provider.Translator
	Restorer   provider.Restorer
	Publisher  *events.Publisher

	// WorkRoot is the base directory for per-execution workspaces.
	// Empty means the OS temp dir.
	WorkRoot string
}

// NewRunner constructs a Runner.
func NewRunner(opts Options) *Runner {
	if opts.WorkRoot == "" {
		opts.WorkRoot = os.TempDir()
	}
	return &Runner{
		crypto:     opts.Crypto,
		blobs:      opts.Blobs,
		jobs:       opts.Jobs,
		cache:      opts.Cache,
		diarizer:   opts.Diarizer,
		translator: opts.Translator,
		restorer:   opts.Restorer,
		publisher:  opts.Publisher,
		metrics:    metrics.DefaultMetrics,
		workRoot:   opts.WorkRoot,
	}
}

// Run executes the full chain for a claimed job and writes the terminal
// durable status exactly once. A non-nil return means the job FAILED.
func (r *Runner) Run(ctx context.Context, job models.Job) error {
	started := time.Now()

	// Workspace is private to this execution; distinct per job id and
	// attempt so concurrent workers never share paths.
	workspace := filepath.Join(r.workRoot, fmt.Sprintf("job-%d-%s", job.ID, uuid.NewString()))
	if err := os.MkdirAll(workspace, 0o700); err != nil {
		return r.fail(ctx, job, started, &FatalStageError{Stage: StageDecrypt, Err: err})
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			logger := logging.WithJob(job.ID, job.PriorityTier.String())
			logger.Warn().
				Err(err).Str("workspace", workspace).Msg("Workspace cleanup failed")
		}
	}()

	mediaPath, err := r.decrypt(ctx, job, workspace)
	if err != nil {
		return r.fail(ctx, job, started, err)
	}

	mediaPath = r.restore(ctx, job, workspace, mediaPath)

	result, err := r.transcribe(ctx, job, mediaPath)
	if err != nil {
		return r.fail(ctx, job, started, err)
	}
	segments := result.Segments

	segments = r.diarize(ctx, job, mediaPath, segments)

	if job.Options.TargetLanguage != "" && !result.Translated {
		segments = r.translate(ctx, job, segments)
	}

	if err := r.persist(ctx, job, segments); err != nil {
		return r.fail(ctx, job, started, err)
	}

	r.metrics.RecordSegments(len(segments))
	r.metrics.RecordJobOutcome(job.PriorityTier.String(), true, time.Since(started).Seconds())
	logger := logging.WithJob(job.ID, job.PriorityTier.String())
	logger.Info().
		Int("segments", len(segments)).
		Dur("elapsed", time.Since(started)).
		Msg("Job completed")
	return nil
}

// decrypt fetches the encrypted upload and materializes a plaintext
// working copy inside the workspace. Fatal on any failure.
func (r *Runner) decrypt(ctx context.Context, job models.Job, workspace string) (string, error) {
	defer r.observeStage(StageDecrypt, time.Now())

	encrypted, err := r.blobs.Get(ctx, job.MediaRef)
	if err != nil {
		return "", &FatalStageError{Stage: StageDecrypt, Err: err}
	}
	plaintext, err := r.crypto.Decrypt(encrypted)
	if err != nil {
		return "", &FatalStageError{Stage: StageDecrypt, Err: err}
	}

	mediaPath := filepath.Join(workspace, "media")
	if err := os.WriteFile(mediaPath, plaintext, 0o600); err != nil {
		return "", &FatalStageError{Stage: StageDecrypt, Err: err}
	}
	return mediaPath, nil
}

// restore optionally normalizes the working copy. Always returns a
// usable path: on any failure the unrestored copy is carried forward.
func (r *Runner) restore(ctx context.Context, job models.Job, workspace, mediaPath string) string {
	if !job.Options.Restore {
		return mediaPath
	}
	defer r.observeStage(StageRestore, time.Now())

	stageLog := logging.WithStage(job.ID, StageRestore)
	if r.restorer == nil {
		stageLog.Warn().Msg("Restore requested but no restorer is configured; continuing unrestored")
		r.metrics.RecordStageDegraded(StageRestore)
		return mediaPath
	}

	restoredPath := filepath.Join(workspace, "media-restored")
	if err := r.restorer.Restore(ctx, mediaPath, restoredPath); err != nil {
		stageLog.Warn().Err(err).Msg("Restore failed; continuing with unrestored audio")
		r.metrics.RecordStageDegraded(StageRestore)
		return mediaPath
	}
	return restoredPath
}

// transcribe runs the tier-selected model. Fatal on load or inference
// failure. Output order is normalized so downstream stages can rely on
// non-decreasing start times.
func (r *Runner) transcribe(ctx context.Context, job models.Job, mediaPath string) (provider.TranscribeResult, error) {
	defer r.observeStage(StageTranscribe, time.Now())

	transcriber, err := r.cache.Get(job.Options.ModelTier)
	if err != nil {
		return provider.TranscribeResult{}, &FatalStageError{Stage: StageTranscribe, Err: err}
	}

	result, err := transcriber.Transcribe(ctx, provider.TranscribeRequest{
		MediaPath:      mediaPath,
		SourceLanguage: job.Options.SourceLanguage,
		TargetLanguage: job.Options.TargetLanguage,
	})
	if err != nil {
		return provider.TranscribeResult{}, &FatalStageError{Stage: StageTranscribe, Err: err}
	}

	for i := range result.Segments {
		if err := result.Segments[i].Validate(); err != nil {
			return provider.TranscribeResult{}, &FatalStageError{Stage: StageTranscribe, Err: err}
		}
		if result.Segments[i].Speaker == "" {
			result.Segments[i].Speaker = models.DefaultSpeaker
		}
	}
	sort.SliceStable(result.Segments, func(i, j int) bool {
		return result.Segments[i].Start < result.Segments[j].Start
	})
	return result, nil
}

// diarize labels segments with speakers. Never fatal: unavailable
// capability or a provider failure degrades to the default label.
func (r *Runner) diarize(ctx context.Context, job models.Job, mediaPath string, segments []models.Segment) []models.Segment {
	if !job.Options.Diarize {
		return segments
	}
	defer r.observeStage(StageDiarize, time.Now())

	stageLog := logging.WithStage(job.ID, StageDiarize)
	if r.diarizer == nil {
		stageLog.Warn().Msg("Diarization requested but capability is unavailable; using default labels")
		r.metrics.RecordStageDegraded(StageDiarize)
		return segments
	}

	intervals, err := r.diarizer.Diarize(ctx, mediaPath)
	if err != nil {
		stageLog.Warn().Err(err).Msg("Diarization failed; using default labels")
		r.metrics.RecordStageDegraded(StageDiarize)
		return segments
	}
	return AssignSpeakers(segments, intervals)
}

// AssignSpeakers labels each segment with the first diarized interval
// that fully contains it; segments outside every interval keep the
// default label. The mapping is deterministic and idempotent, and never
// reorders segments.
func AssignSpeakers(segments []models.Segment, intervals []provider.SpeakerInterval) []models.Segment {
	out := make([]models.Segment, len(segments))
	copy(out, segments)

	for i := range out {
		out[i].Speaker = models.DefaultSpeaker
		for _, iv := range intervals {
			if out[i].Start >= iv.Start && out[i].End <= iv.End {
				out[i].Speaker = iv.Speaker
				break
			}
		}
	}
	return out
}

// translate translates each segment independently. A failed segment
// keeps its original text; siblings are unaffected. Never fatal.
func (r *Runner) translate(ctx context.Context, job models.Job, segments []models.Segment) []models.Segment {
	defer r.observeStage(StageTranslate, time.Now())

	stageLog := logging.WithStage(job.ID, StageTranslate)
	if r.translator == nil {
		stageLog.Warn().Msg("Translation requested but capability is unavailable; keeping original text")
		r.metrics.RecordStageDegraded(StageTranslate)
		return segments
	}

	out := make([]models.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		translated, err := r.translator.TranslateText(ctx, out[i].Text, job.Options.SourceLanguage, job.Options.TargetLanguage)
		if err != nil {
			stageLog.Warn().Err(err).Int("segment", i).Msg("Segment translation failed; keeping original text")
			r.metrics.RecordStageDegraded(StageTranslate)
			continue
		}
		// Translated text replaces the original outright.
		out[i].Text = translated
	}
	return out
}

// persist encodes, encrypts, and stores the transcript artifact with a
// terminal COMPLETED write, then announces it.
func (r *Runner) persist(ctx context.Context, job models.Job, segments []models.Segment) error {
	defer r.observeStage(StagePersist, time.Now())

	artifact := models.TranscriptArtifact{
		Segments: segments,
		Metadata: models.ArtifactMetadata{
			ModelTier:      job.Options.ModelTier,
			SourceLanguage: job.Options.SourceLanguage,
			TargetLanguage: job.Options.TargetLanguage,
			Restore:        job.Options.Restore,
			Diarize:        job.Options.Diarize,
		},
	}
	if artifact.Segments == nil {
		artifact.Segments = []models.Segment{}
	}

	encoded, err := artifact.Encode()
	if err != nil {
		return &FatalStageError{Stage: StageEncode, Err: err}
	}
	encrypted, err := r.crypto.Encrypt(encoded)
	if err != nil {
		return &FatalStageError{Stage: StageEncode, Err: err}
	}
	if err := r.jobs.UpdateStatus(ctx, job.ID, models.StatusCompleted, encrypted); err != nil {
		return &FatalStageError{Stage: StagePersist, Err: err}
	}

	if r.publisher != nil {
		key := fmt.Sprintf("job-%d", job.ID)
		_ = r.publisher.PublishStatus(ctx, key, models.JobStatusEvent{
			EventType: "job.status",
			JobID:     job.ID,
			OwnerID:   job.OwnerID,
			Tier:      job.PriorityTier.String(),
			Status:    models.StatusCompleted.String(),
			Timestamp: time.Now().UnixMilli(),
		})
		_ = r.publisher.PublishTranscriptReady(ctx, key, models.TranscriptReadyEvent{
			EventType:    "job.transcript.ready",
			JobID:        job.ID,
			OwnerID:      job.OwnerID,
			SegmentCount: len(segments),
			Timestamp:    time.Now().UnixMilli(),
		})
	}
	return nil
}

// fail records the terminal FAILED status. The stage error stays in the
// logs; the durable record carries only the status.
func (r *Runner) fail(ctx context.Context, job models.Job, started time.Time, cause error) error {
	var stage string
	if fe, ok := cause.(*FatalStageError); ok {
		stage = fe.Stage
	}

	logger := logging.WithJob(job.ID, job.PriorityTier.String())
	logger.Error().
		Err(cause).Str("stage", stage).Msg("Job failed")
	r.metrics.RecordStageFatal(stage)
	r.metrics.RecordJobOutcome(job.PriorityTier.String(), false, time.Since(started).Seconds())

	if err := r.jobs.UpdateStatus(ctx, job.ID, models.StatusFailed, nil); err != nil {
		logger := logging.WithJob(job.ID, job.PriorityTier.String())
		logger.Error().
			Err(err).Msg("Failed to record terminal FAILED status")
	}

	if r.publisher != nil {
		_ = r.publisher.PublishStatus(ctx, fmt.Sprintf("job-%d", job.ID), models.JobStatusEvent{
			EventType: "job.status",
			JobID:     job.ID,
			OwnerID:   job.OwnerID,
			Tier:      job.PriorityTier.String(),
			Status:    models.StatusFailed.String(),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return cause
}

func (r *Runner) observeStage(stage string, start time.Time) {
	r.metrics.RecordStage(stage, time.Since(start).Seconds())
}
