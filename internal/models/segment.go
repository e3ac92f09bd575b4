package models

import (
	"encoding/json"
	"fmt"
)

// DefaultSpeaker is the label applied when diarization is absent or no
// diarized interval contains a segment.
const DefaultSpeaker = "Speaker 1"

// Segment is one transcribed span of audio.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// Validate checks the segment's time range.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment start %.3f is negative", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("segment end %.3f precedes start %.3f", s.End, s.Start)
	}
	return nil
}

// ArtifactMetadata records the processing options the transcript was
// produced with.
type ArtifactMetadata struct {
	ModelTier      ModelTier `json:"modelTier"`
	SourceLanguage string    `json:"sourceLanguage,omitempty"`
	TargetLanguage string    `json:"targetLanguage,omitempty"`
	Restore        bool      `json:"restore"`
	Diarize        bool      `json:"diarize"`
}

// TranscriptArtifact is the decrypted form of a job's stored transcript.
// Its JSON shape is the wire contract for all exporters and must remain
// stable across versions for backward-compatible re-export.
type TranscriptArtifact struct {
	Segments []Segment        `json:"segments"`
	Metadata ArtifactMetadata `json:"metadata"`
}

// Encode serializes the artifact to its stable JSON form.
func (a *TranscriptArtifact) Encode() ([]byte, error) {
	return json.Marshal(a)
}

// DecodeArtifact parses an artifact from its JSON form.
func DecodeArtifact(data []byte) (*TranscriptArtifact, error) {
	var a TranscriptArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode transcript artifact: %w", err)
	}
	return &a, nil
}
