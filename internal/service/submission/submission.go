// Package submission admits new transcription jobs: it validates the
// request, applies the owner's tier and usage gate, encrypts and stores
// the uploaded media, persists the durable record, and enqueues the job.
// Nothing enters the queue unless every prior step succeeded.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-transcription-service/internal/blob"
	"media-transcription-service/internal/cryptostore"
	"media-transcription-service/internal/events"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability/logging"
	"media-transcription-service/internal/observability/metrics"
	"media-transcription-service/internal/queue"
	"media-transcription-service/internal/store"
)

// ErrAdmission marks a rejected submission: the owner's usage gate said
// no. The job was never persisted or enqueued.
var ErrAdmission = errors.New("submission: admission refused")

// ErrValidation marks a structurally invalid request.
var ErrValidation = errors.New("submission: invalid request")

// TierProvider answers billing-side questions about an owner. The
// service never mutates billing state; it only reads the answers.
type TierProvider interface {
	// TierFor maps an owner to a priority tier.
	TierFor(ctx context.Context, ownerID string) (models.PriorityTier, error)

	// AllowSubmission reports whether an owner with activeJobs
	// non-terminal jobs may admit one more.
	AllowSubmission(ctx context.Context, ownerID string, activeJobs int) (bool, error)
}

// StaticTiers is a TierProvider backed by a fixed owner→tier map, with
// a per-owner cap applied to LOW-tier owners only. Owners absent from
// the map default to LOW.
type StaticTiers struct {
	Tiers             map[string]models.PriorityTier
	MaxActivePerOwner int
}

var _ TierProvider = (*StaticTiers)(nil)

func (s *StaticTiers) TierFor(_ context.Context, ownerID string) (models.PriorityTier, error) {
	if tier, ok := s.Tiers[ownerID]; ok {
		return tier, nil
	}
	return models.TierLow, nil
}

func (s *StaticTiers) AllowSubmission(ctx context.Context, ownerID string, activeJobs int) (bool, error) {
	tier, err := s.TierFor(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if tier == models.TierHigh || s.MaxActivePerOwner <= 0 {
		return true, nil
	}
	return activeJobs < s.MaxActivePerOwner, nil
}

// Request is a job submission: who, what media, and how to process it.
type Request struct {
	OwnerID string
	Media   []byte
	Options models.JobOptions
}

// Handler admits jobs. All collaborators are required except the
// publisher, which may be nil.
type Handler struct {
	tiers     TierProvider
	crypto    *cryptostore.Store
	blobs     blob.Store
	jobs      store.JobStore
	queue     queue.PriorityJobQueue
	publisher *events.Publisher
	metrics   *metrics.Metrics

	maxUploadBytes int64
}

// Options bundles the Handler's collaborators.
type Options struct {
	Tiers     TierProvider
	Crypto    *cryptostore.Store
	Blobs     blob.Store
	Jobs      store.JobStore
	Queue     queue.PriorityJobQueue
	Publisher *events.Publisher

	// MaxUploadBytes caps the media payload. Zero means no cap.
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(opts Options) *Handler {
	return &Handler{
		tiers:          opts.Tiers,
		crypto:         opts.Crypto,
		blobs:          opts.Blobs,
		jobs:           opts.Jobs,
		queue:          opts.Queue,
		publisher:      opts.Publisher,
		metrics:        metrics.DefaultMetrics,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// Submit admits one job and returns its assigned id. On ErrAdmission or
// ErrValidation nothing was persisted.
func (h *Handler) Submit(ctx context.Context, req Request) (int64, error) {
	if err := validate(req, h.maxUploadBytes); err != nil {
		return 0, err
	}

	tier, err := h.tiers.TierFor(ctx, req.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("submission: tier lookup: %w", err)
	}
	active, err := h.jobs.CountActive(ctx, req.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("submission: usage lookup: %w", err)
	}
	allowed, err := h.tiers.AllowSubmission(ctx, req.OwnerID, active)
	if err != nil {
		return 0, fmt.Errorf("submission: usage gate: %w", err)
	}
	if !allowed {
		return 0, fmt.Errorf("%w: owner %s has %d active jobs", ErrAdmission, req.OwnerID, active)
	}

	encrypted, err := h.crypto.Encrypt(req.Media)
	if err != nil {
		return 0, fmt.Errorf("submission: encrypt media: %w", err)
	}
	mediaRef := "media/" + uuid.NewString()
	if err := h.blobs.Put(ctx, mediaRef, encrypted); err != nil {
		return 0, fmt.Errorf("submission: store media: %w", err)
	}

	id, err := h.jobs.Create(ctx, models.Job{
		OwnerID:      req.OwnerID,
		PriorityTier: tier,
		MediaRef:     mediaRef,
		Options:      req.Options,
	})
	if err != nil {
		// Do not leave an orphaned upload behind.
		_ = h.blobs.Delete(ctx, mediaRef)
		return 0, fmt.Errorf("submission: create record: %w", err)
	}

	h.queue.Submit(tier, id)

	if h.publisher != nil {
		_ = h.publisher.PublishStatus(ctx, fmt.Sprintf("job-%d", id), models.JobStatusEvent{
			EventType: "job.status",
			JobID:     id,
			OwnerID:   req.OwnerID,
			Tier:      tier.String(),
			Status:    models.StatusQueued.String(),
			Timestamp: time.Now().UnixMilli(),
		})
	}

	logger := logging.WithJob(id, tier.String())
	logger.Info().
		Str("ownerId", req.OwnerID).
		Int("mediaBytes", len(req.Media)).
		Msg("Job admitted")
	return id, nil
}

func validate(req Request, maxUploadBytes int64) error {
	if strings.TrimSpace(req.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if len(req.Media) == 0 {
		return fmt.Errorf("%w: media payload is empty", ErrValidation)
	}
	if maxUploadBytes > 0 && int64(len(req.Media)) > maxUploadBytes {
		return fmt.Errorf("%w: media payload exceeds %d bytes", ErrValidation, maxUploadBytes)
	}
	return nil
}
