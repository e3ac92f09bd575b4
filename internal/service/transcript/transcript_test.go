package transcript

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"media-transcription-service/internal/cryptostore"
	"media-transcription-service/internal/export"
	"media-transcription-service/internal/models"
	"media-transcription-service/internal/store"
)

var testSegments = []models.Segment{
	{Start: 0, End: 2.5, Speaker: "Speaker 1", Text: "hello there"},
	{Start: 3, End: 5, Speaker: "Speaker 2", Text: "hi yourself"},
}

type env struct {
	reader *Reader
	jobs   *store.Memory
	crypto *cryptostore.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	crypto, err := cryptostore.New(bytes.Repeat([]byte{0x33}, cryptostore.KeySize))
	if err != nil {
		t.Fatal(err)
	}
	jobs := store.NewMemory()
	return &env{reader: NewReader(jobs, crypto), jobs: jobs, crypto: crypto}
}

// seedCompleted persists a COMPLETED job carrying the encrypted
// transcript artifact.
func (e *env) seedCompleted(t *testing.T, segments []models.Segment) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := e.jobs.Create(ctx, models.Job{OwnerID: "o", PriorityTier: models.TierHigh, MediaRef: "m"})
	if err != nil {
		t.Fatal(err)
	}
	artifact := models.TranscriptArtifact{Segments: segments}
	encoded, err := artifact.Encode()
	if err != nil {
		t.Fatal(err)
	}
	encrypted, err := e.crypto.Encrypt(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.jobs.UpdateStatus(ctx, id, models.StatusProcessing, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.jobs.UpdateStatus(ctx, id, models.StatusCompleted, encrypted); err != nil {
		t.Fatal(err)
	}
	return id
}

func (e *env) seedFailed(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := e.jobs.Create(ctx, models.Job{OwnerID: "o", PriorityTier: models.TierLow, MediaRef: "m"})
	if err != nil {
		t.Fatal(err)
	}
	_ = e.jobs.UpdateStatus(ctx, id, models.StatusProcessing, nil)
	_ = e.jobs.UpdateStatus(ctx, id, models.StatusFailed, nil)
	return id
}

func TestArtifact_RoundTrip(t *testing.T) {
	e := newEnv(t)
	id := e.seedCompleted(t, testSegments)

	artifact, err := e.reader.Artifact(context.Background(), id)
	if err != nil {
		t.Fatalf("Artifact: %v", err)
	}
	if len(artifact.Segments) != len(testSegments) {
		t.Fatalf("got %d segments, want %d", len(artifact.Segments), len(testSegments))
	}
	for i, s := range artifact.Segments {
		if s != testSegments[i] {
			t.Errorf("segment %d = %+v, want %+v", i, s, testSegments[i])
		}
	}
}

func TestArtifact_StatusGates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	queued, err := e.jobs.Create(ctx, models.Job{OwnerID: "o", MediaRef: "m"})
	if err != nil {
		t.Fatal(err)
	}
	failed := e.seedFailed(t)

	if _, err := e.reader.Artifact(ctx, queued); !errors.Is(err, ErrNotReady) {
		t.Errorf("queued job: expected ErrNotReady, got %v", err)
	}
	if _, err := e.reader.Artifact(ctx, failed); !errors.Is(err, ErrFailed) {
		t.Errorf("failed job: expected ErrFailed, got %v", err)
	}
	if _, err := e.reader.Artifact(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown job: expected ErrNotFound, got %v", err)
	}
}

func TestStatus_FailedJobExposesOnlyIDAndStatus(t *testing.T) {
	e := newEnv(t)
	id := e.seedFailed(t)

	status, err := e.reader.Status(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if status.JobID != id || status.Status != models.StatusFailed {
		t.Errorf("status = %+v, want {%d FAILED}", status, id)
	}
}

func TestExport_RendersRequestedFormat(t *testing.T) {
	e := newEnv(t)
	id := e.seedCompleted(t, testSegments)

	result, err := e.reader.Export(context.Background(), id, "srt")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	body := string(result.Data)
	if !strings.Contains(body, "00:00:00,000 --> 00:00:02,500") {
		t.Errorf("srt output missing cue timing:\n%s", body)
	}
	if !strings.Contains(body, "hello there") {
		t.Errorf("srt output missing text:\n%s", body)
	}
	if result.Extension != "srt" {
		t.Errorf("extension = %q, want srt", result.Extension)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e := newEnv(t)
	id := e.seedCompleted(t, testSegments)

	_, err := e.reader.Export(context.Background(), id, "xml")
	if !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExport_TamperedArtifactSurfacesIntegrityError(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	id, err := e.jobs.Create(ctx, models.Job{OwnerID: "o", MediaRef: "m"})
	if err != nil {
		t.Fatal(err)
	}
	_ = e.jobs.UpdateStatus(ctx, id, models.StatusProcessing, nil)
	if err := e.jobs.UpdateStatus(ctx, id, models.StatusCompleted, []byte("not a ciphertext")); err != nil {
		t.Fatal(err)
	}

	_, err = e.reader.Export(ctx, id, "txt")
	if !errors.Is(err, cryptostore.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestExportArchive_SkipsJobsWithoutTranscript(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	done1 := e.seedCompleted(t, testSegments)
	failed := e.seedFailed(t)
	done2 := e.seedCompleted(t, testSegments[:1])

	data, err := e.reader.ExportArchive(ctx, []int64{done1, failed, done2}, "txt")
	if err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}
	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if len(names) != 2 {
		t.Fatalf("archive has %d entries, want 2 (failed job skipped): %v", len(names), names)
	}
	for _, id := range []int64{done1, done2} {
		want := "job-" + strconv.FormatInt(id, 10) + ".txt"
		if !names[want] {
			t.Errorf("archive missing %s", want)
		}
	}
}

func TestExportArchive_UnknownJobIsAnError(t *testing.T) {
	e := newEnv(t)
	id := e.seedCompleted(t, testSegments)

	_, err := e.reader.ExportArchive(context.Background(), []int64{id, 9999}, "txt")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestExportArchive_UnsupportedFormatCheckedUpFront(t *testing.T) {
	e := newEnv(t)
	id := e.seedCompleted(t, testSegments)

	_, err := e.reader.ExportArchive(context.Background(), []int64{id}, "mp3")
	if !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
