package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/risk"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

// DefaultTitle heads every generated report.
const DefaultTitle = "Diabetes Risk Report"

// Document is the content shared by every report format.
type Document struct {
	ID          uuid.UUID
	Title       string
	Verdict     string
	Advice      string
	Band        risk.Band
	Probability float64
	Fields      []features.Field
	GeneratedAt time.Time
}

// New builds the report content for one scored vector.
func New(v features.Vector, verdict scoring.Verdict, at time.Time) Document {
	return Document{
		ID:          uuid.New(),
		Title:       DefaultTitle,
		Verdict:     verdict.Summary(),
		Advice:      verdict.Advice(),
		Band:        verdict.Band,
		Probability: verdict.Probability,
		Fields:      v.Fields(),
		GeneratedAt: at,
	}
}

// Lines returns the body lines in reading order: verdict, advice, one
// "Label: value" line per field, then the report ID and generation time.
func (d Document) Lines() []string {
	lines := []string{"Result: " + d.Verdict, d.Advice, ""}
	for _, f := range d.Fields {
		lines = append(lines, f.Label+": "+f.Display())
	}
	return append(lines, "",
		"Report ID: "+d.ID.String(),
		"Generated: "+d.GeneratedAt.UTC().Format(time.RFC3339),
	)
}

// Format is a downloadable report type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts "pdf" or "docx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOCX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q: want pdf or docx", s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// Filename is the suggested download name for d.
func (f Format) Filename(d Document) string {
	return fmt.Sprintf("diabetes-risk-%s.%s", d.GeneratedAt.UTC().Format("20060102-150405"), f)
}

// Write renders d in format f.
func Write(w io.Writer, f Format, d Document) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, d, PDFOptions{Compress: true})
	case FormatDOCX:
		return WriteDOCX(w, d)
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}
