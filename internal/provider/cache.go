package provider

import (
	"sync"

	"github.com/rs/zerolog/log"

	"media-transcription-service/internal/models"
)

// LoaderFunc constructs the Transcriber for a model tier. Loading a
// model is expensive, so results are cached.
type LoaderFunc func(tier models.ModelTier) (Transcriber, error)

// Cache holds loaded per-tier transcribers: load-on-first-use, retained
// for the process lifetime, no eviction. It is constructed once and
// handed to the worker pool, rather than living in ambient global state.
type Cache struct {
	mu     sync.Mutex
	loader LoaderFunc
	loaded map[models.ModelTier]Transcriber
}

// NewCache creates a cache around the given loader.
func NewCache(loader LoaderFunc) *Cache {
	return &Cache{
		loader: loader,
		loaded: make(map[models.ModelTier]Transcriber),
	}
}

// Get returns the transcriber for tier, loading it on first use. A
// failed load is not cached, so a later call can retry.
func (c *Cache) Get(tier models.ModelTier) (Transcriber, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.loaded[tier]; ok {
		return t, nil
	}

	t, err := c.loader(tier)
	if err != nil {
		return nil, err
	}
	c.loaded[tier] = t
	log.Info().Str("modelTier", tier.String()).Msg("Model tier loaded")
	return t, nil
}

// Loaded returns the tiers currently resident, for diagnostics.
func (c *Cache) Loaded() []models.ModelTier {
	c.mu.Lock()
	defer c.mu.Unlock()

	tiers := make([]models.ModelTier, 0, len(c.loaded))
	for tier := range c.loaded {
		tiers = append(tiers, tier)
	}
	return tiers
}
