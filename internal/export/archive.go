package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"media-transcription-service/internal/models"
)

// ArchiveItem is one job's segments destined for the bulk archive.
type ArchiveItem struct {
	JobID    int64
	Segments []models.Segment
}

// Archive renders every item into formatName and bundles the results
// into a single zip, one file per job named job-<id>.<ext>. An unknown
// format fails up front, before any file is written.
func Archive(items []ArchiveItem, formatName string) ([]byte, error) {
	if !Supported(formatName) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, formatName)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, item := range items {
		res, err := Segments(item.Segments, formatName)
		if err != nil {
			return nil, err
		}
		f, err := zw.Create(fmt.Sprintf("job-%d.%s", item.JobID, res.Extension))
		if err != nil {
			return nil, fmt.Errorf("export: archive entry for job %d: %w", item.JobID, err)
		}
		if _, err := f.Write(res.Data); err != nil {
			return nil, fmt.Errorf("export: archive write for job %d: %w", item.JobID, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("export: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
