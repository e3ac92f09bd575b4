package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"media-transcription-service/internal/models"
)

// renderTXT emits one line per segment in the shared plain-text form.
func renderTXT(segments []models.Segment) ([]byte, error) {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, line(s))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// renderCSV emits a header row plus one data row per segment, with
// standard CSV quoting for speaker and text fields.
func renderCSV(segments []models.Segment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"start", "end", "speaker", "text"}); err != nil {
		return nil, err
	}
	for _, s := range segments {
		row := []string{
			formatTimestamp(s.Start, ":"),
			formatTimestamp(s.End, ":"),
			s.Speaker,
			s.Text,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderSRT emits 1-based numbered blocks with comma millisecond
// separators and a blank line between blocks.
func renderSRT(segments []models.Segment) ([]byte, error) {
	lines := make([]string, 0, len(segments)*4)
	for i, s := range segments {
		speaker := s.Speaker
		if speaker == "" {
			speaker = models.DefaultSpeaker
		}
		lines = append(lines,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s --> %s", formatTimestamp(s.Start, ","), formatTimestamp(s.End, ",")),
			fmt.Sprintf("%s: %s", speaker, s.Text),
			"",
		)
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// renderVTT emits the WEBVTT header followed by per-segment cues with
// dot millisecond separators.
func renderVTT(segments []models.Segment) ([]byte, error) {
	lines := []string{"WEBVTT", ""}
	for _, s := range segments {
		speaker := s.Speaker
		if speaker == "" {
			speaker = models.DefaultSpeaker
		}
		lines = append(lines,
			fmt.Sprintf("%s --> %s", formatTimestamp(s.Start, "."), formatTimestamp(s.End, ".")),
			fmt.Sprintf("%s: %s", speaker, s.Text),
			"",
		)
	}
	return []byte(strings.Join(lines, "\n")), nil
}
