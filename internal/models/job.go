// Package models defines the data structures shared across the transcription core.
package models

import (
	"fmt"
	"strings"
	"time"
)

// PriorityTier determines queue dequeue precedence.
type PriorityTier int

const (
	// TierHigh - paid submitters, always drained first.
	TierHigh PriorityTier = iota
	// TierLow - free submitters, served after every HIGH entry.
	TierLow
)

// String returns the string representation of the tier.
func (t PriorityTier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierLow:
		return "LOW"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

// Rank returns the ordering rank of the tier; lower ranks dequeue first.
func (t PriorityTier) Rank() int {
	return int(t)
}

// JobStatus represents the lifecycle state of a transcription job.
type JobStatus int

const (
	// StatusQueued - job admitted, waiting for a worker.
	StatusQueued JobStatus = iota
	// StatusProcessing - a worker claimed the job and is running the pipeline.
	StatusProcessing
	// StatusCompleted - terminal; encrypted transcript artifact is stored.
	StatusCompleted
	// StatusFailed - terminal; a fatal stage aborted the pipeline.
	StatusFailed
	// StatusUnknown - the id was never seen by this queue instance.
	StatusUnknown
)

// String returns the string representation of the status.
func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusProcessing:
		return "PROCESSING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the status is terminal (COMPLETED or FAILED).
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving to next is a valid forward
// transition. The lifecycle is monotonic:
//
//	QUEUED → PROCESSING → COMPLETED
//	       ↘            ↘ FAILED
//
// A job may fail straight from QUEUED when a worker claims it but
// cannot start it, so the record always reaches a terminal state.
// Terminal states are written exactly once and never left.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// ModelTier is a named quality/speed tradeoff for the transcription stage.
type ModelTier int

const (
	// TierBalanced - the default middle ground.
	TierBalanced ModelTier = iota
	// TierFast - cheapest, least accurate.
	TierFast
	// TierAccurate - most compute, most accurate.
	TierAccurate
)

// String returns the string representation of the model tier.
func (m ModelTier) String() string {
	switch m {
	case TierFast:
		return "FAST"
	case TierBalanced:
		return "BALANCED"
	case TierAccurate:
		return "ACCURATE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", m)
	}
}

// ParseModelTier parses a case-insensitive tier name, defaulting to BALANCED.
func ParseModelTier(s string) ModelTier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FAST":
		return TierFast
	case "ACCURATE":
		return TierAccurate
	default:
		return TierBalanced
	}
}

// JobOptions carries the per-job processing switches chosen at submission.
type JobOptions struct {
	ModelTier      ModelTier `json:"modelTier"`
	SourceLanguage string    `json:"sourceLanguage,omitempty"`
	TargetLanguage string    `json:"targetLanguage,omitempty"`
	Restore        bool      `json:"restore"`
	Diarize        bool      `json:"diarize"`
}

// Job is the unit of work flowing from submission through the pipeline.
type Job struct {
	ID           int64        `json:"id"`
	OwnerID      string       `json:"ownerId"`
	PriorityTier PriorityTier `json:"priorityTier"`
	MediaRef     string       `json:"mediaRef"`
	Options      JobOptions   `json:"options"`
	Status       JobStatus    `json:"status"`
	// Artifact is the encrypted transcript blob, set only on COMPLETED.
	Artifact  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
