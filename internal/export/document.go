package export

import (
	"bytes"

	docx "github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"

	"media-transcription-service/internal/models"
)

// renderDOCX produces a rich-text document with one paragraph per
// segment, using the shared plain-text line form.
func renderDOCX(segments []models.Segment) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()
	for _, s := range segments {
		doc.AddParagraph().AddText(line(s))
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPDF produces a fixed-page document with one block per segment,
// using the shared plain-text line form.
func renderPDF(segments []models.Segment) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, s := range segments {
		pdf.MultiCell(0, 10, line(s), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
