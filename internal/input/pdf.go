package input

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// TextExtractor returns the text of every page of a document, in page order.
type TextExtractor interface {
	PageTexts(r io.ReaderAt, size int64) ([]string, error)
}

// PDF fills a vector from the first eight numbers found in a document's text.
//
// The mapping is purely positional: the n-th number in reading order becomes
// the n-th schema column. Page numbers, dates or reference ranges printed
// before the clinical values shift every field. Replace the Source, not the
// pipeline, when a labelled extractor is available.
type PDF struct {
	R         io.ReaderAt
	Size      int64
	Extractor TextExtractor
}

// Resolve implements Source.
func (s *PDF) Resolve(ctx context.Context) (features.Vector, error) {
	pages, err := s.Extractor.PageTexts(s.R, s.Size)
	if err != nil {
		return features.Vector{}, fmt.Errorf("extract pdf text: %w", err)
	}
	var b strings.Builder
	for _, page := range pages {
		if page == "" {
			continue
		}
		b.WriteString(page)
		b.WriteByte('\n')
	}
	return Text(b.String()).Resolve(ctx)
}

// Text applies the positional extraction to plain text.
type Text string

// Resolve implements Source.
func (t Text) Resolve(_ context.Context) (features.Vector, error) {
	values := ExtractNumbers(string(t))
	if len(values) < features.Count {
		return features.Vector{}, &InsufficientDataError{
			Found:    len(values),
			Required: features.Count,
			Values:   values,
		}
	}
	return features.FromValues(values[:features.Count])
}

// ExtractNumbers returns every whitespace-separated token that reads as a
// non-negative decimal number, in text order. Grouping commas are dropped
// first; a token may hold at most one decimal point.
func ExtractNumbers(text string) []float64 {
	var out []float64
	for _, token := range strings.Fields(text) {
		token = strings.ReplaceAll(token, ",", "")
		if !isDecimal(token) {
			continue
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isDecimal(token string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(token); i++ {
		switch c := token[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// PDFTextExtractor reads page text with github.com/ledongthuc/pdf. Lines are
// rebuilt from glyph positions; the library's plain-text helpers run lines
// together, which glues each value to the next label.
type PDFTextExtractor struct{}

// PageTexts implements TextExtractor.
func (PDFTextExtractor) PageTexts(r io.ReaderAt, size int64) (pages []string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(page.Content().Text))
	}
	return pages, nil
}

// pageText joins positioned text runs in content-stream order. A change of
// baseline starts a new line. A horizontal gap wider than a fraction of the
// font size becomes a space, when the run's advance width is known; the
// standard fonts carry no width table, so their runs report zero.
func pageText(runs []pdf.Text) string {
	var b strings.Builder
	for i, t := range runs {
		if i > 0 {
			prev := runs[i-1]
			switch {
			case math.Abs(t.Y-prev.Y) > lineTolerance(t.FontSize, prev.FontSize):
				b.WriteByte('\n')
			case prev.W > 0 && t.X-(prev.X+prev.W) > gapTolerance(t.FontSize):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}

func lineTolerance(a, b float64) float64 {
	return math.Max(1, 0.3*math.Min(a, b))
}

func gapTolerance(size float64) float64 {
	return math.Max(0.5, 0.15*size)
}
