// Package export renders an ordered segment sequence into the supported
// output formats. Exporters are pure: same segments in, same bytes out,
// no side effects.
package export

import (
	"errors"
	"fmt"
	"strings"

	"media-transcription-service/internal/models"
)

// ErrUnsupportedFormat is returned for formats not in the registry. No
// partial output is ever produced alongside it.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Result is one exported document.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
}

type renderFunc func(segments []models.Segment) ([]byte, error)

type format struct {
	render      renderFunc
	contentType string
	extension   string
}

// registry maps format names to renderers. Populated once at init; read
// only afterwards.
var registry = map[string]format{
	"txt":  {renderTXT, "text/plain", "txt"},
	"csv":  {renderCSV, "text/csv", "csv"},
	"srt":  {renderSRT, "application/x-subrip", "srt"},
	"vtt":  {renderVTT, "text/vtt", "vtt"},
	"docx": {renderDOCX, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
	"pdf":  {renderPDF, "application/pdf", "pdf"},
}

// Formats returns the registered format names.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Supported reports whether name is a registered format.
func Supported(name string) bool {
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// Segments renders segments into the named format. Format names are
// case-insensitive.
func Segments(segments []models.Segment, formatName string) (Result, error) {
	f, ok := registry[strings.ToLower(formatName)]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, formatName)
	}
	data, err := f.render(segments)
	if err != nil {
		return Result{}, fmt.Errorf("export: render %s: %w", formatName, err)
	}
	return Result{Data: data, ContentType: f.contentType, Extension: f.extension}, nil
}

// line renders the shared plain-text representation of one segment:
// [HH:MM:SS:mmm - HH:MM:SS:mmm] Speaker: text
func line(s models.Segment) string {
	speaker := s.Speaker
	if speaker == "" {
		speaker = models.DefaultSpeaker
	}
	return fmt.Sprintf("[%s - %s] %s: %s",
		formatTimestamp(s.Start, ":"), formatTimestamp(s.End, ":"), speaker, s.Text)
}
