package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Layout of the paginated report, in millimetres and points.
const (
	pdfMargin     = 20.0
	pdfTitleSize  = 16.0
	pdfBodySize   = 12.0
	pdfLineHeight = 7.0
	pdfFont       = "Helvetica"
)

// PDFOptions tune the PDF writer.
type PDFOptions struct {
	// Compress deflates page content streams.
	Compress bool
}

// WritePDF renders d as an A4 PDF.
func WritePDF(w io.Writer, d Document, opts PDFOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(PDFText(s)) }

	pdf.SetTitle(PDFText(d.Title), false)
	pdf.SetCreator("GlucoRisk", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", pdfTitleSize)
	pdf.CellFormat(0, 10, text(d.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "", pdfBodySize)
	for _, line := range d.Lines() {
		if line == "" {
			pdf.Ln(pdfLineHeight / 2)
			continue
		}
		pdf.MultiCell(0, pdfLineHeight, text(line), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}
