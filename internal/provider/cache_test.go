package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"media-transcription-service/internal/models"
)

type countingTranscriber struct {
	tier models.ModelTier
}

func (c *countingTranscriber) Transcribe(context.Context, TranscribeRequest) (TranscribeResult, error) {
	return TranscribeResult{}, nil
}

func TestCache_LoadOnFirstUse(t *testing.T) {
	var loads int32
	cache := NewCache(func(tier models.ModelTier) (Transcriber, error) {
		atomic.AddInt32(&loads, 1)
		return &countingTranscriber{tier: tier}, nil
	})

	a, err := cache.Get(models.TierFast)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Get(models.TierFast)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the same cached instance on repeat Get")
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Errorf("expected 1 load, got %d", got)
	}

	if _, err := cache.Get(models.TierAccurate); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&loads); got != 2 {
		t.Errorf("expected 2 loads after second tier, got %d", got)
	}
}

func TestCache_FailedLoadNotCached(t *testing.T) {
	var loads int32
	fail := errors.New("model file missing")
	cache := NewCache(func(tier models.ModelTier) (Transcriber, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			return nil, fail
		}
		return &countingTranscriber{tier: tier}, nil
	})

	if _, err := cache.Get(models.TierBalanced); !errors.Is(err, fail) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, err := cache.Get(models.TierBalanced); err != nil {
		t.Fatalf("expected retried load to succeed, got %v", err)
	}
}

func TestCache_ConcurrentGetLoadsOnce(t *testing.T) {
	var loads int32
	cache := NewCache(func(tier models.ModelTier) (Transcriber, error) {
		atomic.AddInt32(&loads, 1)
		return &countingTranscriber{tier: tier}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(models.TierFast); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Errorf("expected exactly 1 load under concurrency, got %d", got)
	}
}
