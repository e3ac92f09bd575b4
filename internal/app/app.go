// Package app wires the service together: crypto, storage, queue,
// providers, pipeline, worker pool and the observability surface, all
// from configuration. It owns startup order and graceful shutdown.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"media-transcription-service/internal/blob"
	"media-transcription-service/internal/config"
	"media-transcription-service/internal/cryptostore"
	"media-transcription-service/internal/events"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/observability"
	"media-transcription-service/internal/observability/logging"
	"media-transcription-service/internal/pipeline"
	"media-transcription-service/internal/provider"
	"media-transcription-service/internal/provider/sim"
	"media-transcription-service/internal/queue"
	"media-transcription-service/internal/service/submission"
	"media-transcription-service/internal/service/transcript"
	"media-transcription-service/internal/store"
	"media-transcription-service/internal/worker"
)

// Application holds the wired service.
type Application struct {
	Cfg    *config.Config
	Logger zerolog.Logger

	Submission  *submission.Handler
	Transcripts *transcript.Reader
	Queue       queue.PriorityJobQueue
	Jobs        store.JobStore

	pool      *worker.Pool
	publisher *events.Publisher
	obs       *observability.Server
	ready     atomic.Bool

	startupTime time.Time
}

// New builds the full collaborator graph. Nothing starts running until
// Start.
func New(cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	crypto, err := buildCrypto(cfg.Crypto, a.Logger)
	if err != nil {
		return nil, err
	}
	blobs, err := buildBlobs(cfg.Storage)
	if err != nil {
		return nil, err
	}

	jobs := store.NewMemory()
	q := queue.NewMemory()
	a.Jobs = jobs
	a.Queue = q

	a.publisher = events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicStatus:     cfg.Kafka.TopicStatus,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		Principal:       cfg.Kafka.Principal,
	})

	if cfg.Providers.Transcriber != "sim" && cfg.Providers.Transcriber != "" {
		a.Logger.Warn().Str("transcriber", cfg.Providers.Transcriber).
			Msg("Unknown transcriber backend, falling back to sim")
	}
	cache := provider.NewCache(func(tier models.ModelTier) (provider.Transcriber, error) {
		t := sim.NewTranscriber(tier)
		t.Delay = cfg.Providers.SimDelay
		return t, nil
	})

	var (
		diarizer   provider.Diarizer
		translator provider.Translator
		restorer   provider.Restorer
	)
	if cfg.Providers.Diarization {
		diarizer = sim.NewDiarizer()
	}
	if cfg.Providers.Translation {
		translator = &sim.Translator{}
	}
	if cfg.Providers.Restoration {
		restorer = &sim.Restorer{}
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Crypto:     crypto,
		Blobs:      blobs,
		Jobs:       jobs,
		Cache:      cache,
		Diarizer:   diarizer,
		Translator: translator,
		Restorer:   restorer,
		Publisher:  a.publisher,
		WorkRoot:   cfg.Workers.WorkRoot,
	})

	a.pool = worker.NewPool(worker.Config{
		Queue:      q,
		Jobs:       jobs,
		Runner:     runner,
		Count:      cfg.Workers.Count,
		JobTimeout: cfg.Workers.JobTimeout,
	})

	a.Submission = submission.NewHandler(submission.Options{
		Tiers:          &submission.StaticTiers{MaxActivePerOwner: cfg.Limits.MaxActivePerOwner},
		Crypto:         crypto,
		Blobs:          blobs,
		Jobs:           jobs,
		Queue:          q,
		Publisher:      a.publisher,
		MaxUploadBytes: cfg.Limits.MaxUploadBytes,
	})
	a.Transcripts = transcript.NewReader(jobs, crypto)

	a.obs = observability.NewServer(":"+cfg.HTTP.MetricsPort, a.ready.Load)

	a.Logger.Info().
		Str("principal", cfg.Service.Principal).
		Int("workers", cfg.Workers.Count).
		Str("storage", cfg.Storage.Backend).
		Msg("Application created")
	return a, nil
}

// Start launches the worker pool and the observability server.
func (a *Application) Start(ctx context.Context) {
	a.startupTime = time.Now().UTC()
	a.obs.Start()
	a.pool.Start(ctx)
	a.ready.Store(true)
	a.Logger.Info().Time("startupTime", a.startupTime).Msg("Service started")
}

// Shutdown drains gracefully: stop admitting, drain in-flight jobs,
// close the publisher, then the HTTP surface.
func (a *Application) Shutdown(ctx context.Context) {
	a.ready.Store(false)
	a.Logger.Info().Msg("Service shutting down")

	a.pool.Stop()
	if err := a.publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Publisher close failed")
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Observability server shutdown failed")
	}
	a.Logger.Info().Msg("Service stopped")
}

func buildCrypto(cfg config.CryptoConfig, logger zerolog.Logger) (*cryptostore.Store, error) {
	keyHex := cfg.KeyHex
	if keyHex == "" {
		logger.Warn().Msg("No CRYPTO_KEY_HEX set, generating a volatile key; stored data will be unreadable after restart")
		generated, err := cryptostore.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("app: generate key: %w", err)
		}
		keyHex = generated
	}
	return cryptostore.NewFromHex(keyHex)
}

func buildBlobs(cfg config.StorageConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "fs", "":
		return blob.NewFS(cfg.FSRoot)
	case "minio":
		return blob.NewMinio(context.Background(), blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("app: unknown storage backend %q", cfg.Backend)
	}
}
