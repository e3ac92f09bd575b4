// Package sim provides simulated providers for running the service
// without real models and for exercising the pipeline in tests. The
// simulated transcriber emits deterministic canned segments so the same
// input always produces the same transcript.
package sim

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"media-transcription-service/internal/models"
	"media-transcription-service/internal/provider"
)

// DefaultScript is the canned segment sequence the simulated
// transcriber emits, in non-decreasing start order.
var DefaultScript = []models.Segment{
	{Start: 0.0, End: 2.4, Text: "Thanks everyone for joining today"},
	{Start: 2.9, End: 5.1, Text: "Let's start with the quarterly numbers"},
	{Start: 5.6, End: 9.0, Text: "Revenue is up twelve percent over last quarter"},
	{Start: 9.4, End: 11.2, Text: "Any questions before we move on"},
}

// Transcriber is a deterministic provider.Transcriber. The tier only
// affects a simulated processing delay; output is identical across
// tiers so tests stay stable.
type Transcriber struct {
	Tier   models.ModelTier
	Script []models.Segment

	// Delay simulates per-tier compute cost. Zero in tests.
	Delay time.Duration

	// Err, when set, makes every call fail. Used to exercise the fatal
	// transcribe path.
	Err error

	// SupportsTaskTranslate marks the tier as able to translate while
	// transcribing.
	SupportsTaskTranslate bool
}

var _ provider.Transcriber = (*Transcriber)(nil)

// NewTranscriber returns a simulated transcriber for a tier with the
// default script.
func NewTranscriber(tier models.ModelTier) *Transcriber {
	return &Transcriber{Tier: tier, Script: DefaultScript}
}

// Transcribe returns the canned script. The media file must exist; a
// missing working copy is a genuine failure, not a simulation.
func (t *Transcriber) Transcribe(ctx context.Context, req provider.TranscribeRequest) (provider.TranscribeResult, error) {
	if t.Err != nil {
		return provider.TranscribeResult{}, t.Err
	}
	if _, err := os.Stat(req.MediaPath); err != nil {
		return provider.TranscribeResult{}, fmt.Errorf("sim: media not readable: %w", err)
	}
	if t.Delay > 0 {
		select {
		case <-time.After(t.Delay):
		case <-ctx.Done():
			return provider.TranscribeResult{}, ctx.Err()
		}
	}

	segments := make([]models.Segment, len(t.Script))
	copy(segments, t.Script)

	translated := false
	if req.TargetLanguage != "" && t.SupportsTaskTranslate {
		for i := range segments {
			segments[i].Text = fmt.Sprintf("[%s] %s", req.TargetLanguage, segments[i].Text)
		}
		translated = true
	}
	return provider.TranscribeResult{Segments: segments, Translated: translated}, nil
}

// Diarizer is a deterministic provider.Diarizer emitting fixed speaker
// intervals.
type Diarizer struct {
	Intervals []provider.SpeakerInterval
	Err       error
}

var _ provider.Diarizer = (*Diarizer)(nil)

// NewDiarizer returns a diarizer whose intervals cover the default
// script with two alternating speakers.
func NewDiarizer() *Diarizer {
	return &Diarizer{
		Intervals: []provider.SpeakerInterval{
			{Start: 0.0, End: 5.5, Speaker: "Speaker 1"},
			{Start: 5.5, End: 12.0, Speaker: "Speaker 2"},
		},
	}
}

// Diarize returns the configured intervals.
func (d *Diarizer) Diarize(_ context.Context, _ string) ([]provider.SpeakerInterval, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]provider.SpeakerInterval, len(d.Intervals))
	copy(out, d.Intervals)
	return out, nil
}

// Translator is a provider.Translator that wraps text in a target
// language marker. FailOn lets tests fail specific inputs.
type Translator struct {
	Err error

	// FailOn, when non-empty, fails only for texts containing it.
	FailOn string
}

var _ provider.Translator = (*Translator)(nil)

// TranslateText returns a deterministic pseudo-translation.
func (t *Translator) TranslateText(_ context.Context, text, _, targetLang string) (string, error) {
	if t.Err != nil {
		return "", t.Err
	}
	if t.FailOn != "" && strings.Contains(text, t.FailOn) {
		return "", fmt.Errorf("sim: translation refused for %q", text)
	}
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}

// Restorer is a provider.Restorer that copies the input file, standing
// in for a loudness-normalization pass.
type Restorer struct {
	Err error
}

var _ provider.Restorer = (*Restorer)(nil)

// Restore copies inPath to outPath.
func (r *Restorer) Restore(_ context.Context, inPath, outPath string) error {
	if r.Err != nil {
		return r.Err
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o600)
}
