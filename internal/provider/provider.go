// Package provider defines the capability interfaces the pipeline calls
// for transcription, diarization, translation, and audio restoration.
// Absence of a capability is a first-class state: a nil Diarizer,
// Translator, or Restorer means "not installed", and the pipeline
// degrades instead of failing.
package provider

import (
	"context"

	"media-transcription-service/internal/models"
)

// TranscribeRequest carries the input for one transcription call.
type TranscribeRequest struct {
	// MediaPath is the decrypted working copy inside the job workspace.
	MediaPath string

	// SourceLanguage is an optional hint; empty means auto-detect.
	SourceLanguage string

	// TargetLanguage, when set, asks for translate-while-transcribing
	// where the backing model supports it. Transcribers that honored it
	// report Translated=true in the result.
	TargetLanguage string
}

// TranscribeResult is an ordered segment sequence plus whether the
// target-language translation already happened in-model.
type TranscribeResult struct {
	Segments []models.Segment

	// Translated is true when the transcriber already produced text in
	// the requested target language, making a separate translate stage
	// unnecessary.
	Translated bool
}

// Transcriber converts a media file into ordered segments. One
// implementation exists per model tier; failures here are fatal to the
// job.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error)
}

// SpeakerInterval is one diarized span of audio attributed to a speaker.
type SpeakerInterval struct {
	Start   float64
	End     float64
	Speaker string
}

// Diarizer produces speaker-labeled time intervals for a media file.
type Diarizer interface {
	Diarize(ctx context.Context, mediaPath string) ([]SpeakerInterval, error)
}

// Translator translates one segment's text. Each segment is translated
// independently, so a single failure never affects siblings.
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Restorer normalizes loudness and levels of an audio file, writing the
// result to outPath. Restoration never blocks a job from completing.
type Restorer interface {
	Restore(ctx context.Context, inPath, outPath string) error
}
