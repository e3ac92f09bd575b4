package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"media-transcription-service/internal/models"
)

// Memory is an in-process JobStore. A RWMutex keeps reads concurrent
// while a worker writes its in-flight update.
type Memory struct {
	mu     sync.RWMutex
	jobs   map[int64]models.Job
	nextID int64
}

var _ JobStore = (*Memory)(nil)

// NewMemory creates an empty in-memory job store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[int64]models.Job)}
}

// Create assigns the next monotonic id and persists the record as QUEUED.
func (m *Memory) Create(_ context.Context, job models.Job) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	job.ID = m.nextID
	job.Status = models.StatusQueued
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	m.jobs[job.ID] = job
	return job.ID, nil
}

// Get returns a copy of the record, or ErrNotFound.
func (m *Memory) Get(_ context.Context, id int64) (models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return job, nil
}

// UpdateStatus advances the record's lifecycle. The artifact is retained
// only alongside a COMPLETED write, so a FAILED job never carries a
// partial transcript.
func (m *Memory) UpdateStatus(_ context.Context, id int64, status models.JobStatus, artifact []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !job.Status.CanTransitionTo(status) {
		return fmt.Errorf("store: invalid transition %s -> %s for job %d", job.Status, status, id)
	}
	job.Status = status
	if status == models.StatusCompleted {
		job.Artifact = artifact
	}
	m.jobs[id] = job
	return nil
}

// CountActive counts the owner's QUEUED and PROCESSING records.
func (m *Memory) CountActive(_ context.Context, ownerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, job := range m.jobs {
		if job.OwnerID == ownerID && !job.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

// Delete removes the record.
func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}
