package models

// JobStatusEvent is published on every job status transition.
type JobStatusEvent struct {
	EventType string `json:"eventType"`
	JobID     int64  `json:"jobId"`
	OwnerID   string `json:"ownerId"`
	Tier      string `json:"tier"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// TranscriptReadyEvent is published once when a job's encrypted
// transcript artifact has been persisted.
type TranscriptReadyEvent struct {
	EventType    string `json:"eventType"`
	JobID        int64  `json:"jobId"`
	OwnerID      string `json:"ownerId"`
	SegmentCount int    `json:"segmentCount"`
	Timestamp    int64  `json:"timestamp"`
}
