package events

import (
	"context"
	"testing"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerStatus != nil {
				t.Error("expected nil status writer when disabled")
			}
			if p.writerTranscript != nil {
				t.Error("expected nil transcript writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:         false,
		Brokers:         []string{"localhost:9092"},
		TopicStatus:     "jobs.status",
		TopicTranscript: "jobs.transcript",
		Principal:       "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicStatus != "jobs.status" {
		t.Errorf("expected status topic 'jobs.status', got %s", p.topicStatus)
	}
	if p.topicTranscript != "jobs.transcript" {
		t.Errorf("expected transcript topic 'jobs.transcript', got %s", p.topicTranscript)
	}
}

func TestPublisher_PublishStatus_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := map[string]string{"status": "QUEUED"}
	if err := p.PublishStatus(context.Background(), "job-1", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishTranscriptReady_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := map[string]string{"jobId": "1"}
	if err := p.PublishTranscriptReady(context.Background(), "job-1", event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshaled.
	event := make(chan int)
	if err := p.PublishStatus(context.Background(), "job-1", event); err == nil {
		t.Error("expected error for unmarshalable event")
	}
	if err := p.PublishTranscriptReady(context.Background(), "job-1", event); err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
