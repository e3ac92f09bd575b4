package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestFS_PutGetDelete(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()

	payload := []byte("encrypted media bytes")
	if err := fs.Put(ctx, "media/job-1", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := fs.Get(ctx, "media/job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get returned %q, want %q", got, payload)
	}

	if err := fs.Delete(ctx, "media/job-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Get(ctx, "media/job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFS_GetMissing(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := fs.Get(context.Background(), "media/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFS_DeleteMissingIsNoop(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := fs.Delete(context.Background(), "media/nope"); err != nil {
		t.Errorf("delete of missing key should be a no-op, got %v", err)
	}
}

func TestFS_EmptyPayload(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := fs.Put(ctx, "media/empty", []byte{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := fs.Get(ctx, "media/empty")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(got))
	}
}
