package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// Source yields one clinical vector.
type Source interface {
	Resolve(ctx context.Context) (features.Vector, error)
}

// MissingColumnError reports structured input lacking schema columns.
type MissingColumnError struct {
	Missing []string
}

func (e *MissingColumnError) Error() string {
	return "missing column(s): " + strings.Join(e.Missing, ", ")
}

// InvalidValueError reports a cell that is not a number.
type InvalidValueError struct {
	Column string
	Raw    string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("column %s: %q is not a number", e.Column, e.Raw)
}

// InsufficientDataError reports a document with fewer numbers than the schema
// needs. Values holds what was extracted so a person can correct it.
type InsufficientDataError struct {
	Found    int
	Required int
	Values   []float64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("extracted only %d values, required %d", e.Found, e.Required)
}

// ErrUnsupportedFile is returned for uploads that are neither CSV, PDF nor
// plain text.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ForFile picks a strategy from the file extension. A nil extractor means
// PDFTextExtractor.
func ForFile(name string, r io.ReaderAt, size int64, extractor TextExtractor) (Source, error) {
	return ForKind(filepath.Ext(name), r, size, extractor)
}

// ForKind picks a strategy by kind: "csv", "pdf" or "txt", with or without a
// leading dot and in any case.
func ForKind(kind string, r io.ReaderAt, size int64, extractor TextExtractor) (Source, error) {
	if extractor == nil {
		extractor = PDFTextExtractor{}
	}
	switch k := strings.TrimPrefix(strings.ToLower(kind), "."); k {
	case "csv":
		return &CSV{R: io.NewSectionReader(r, 0, size)}, nil
	case "pdf":
		return &PDF{R: r, Size: size, Extractor: extractor}, nil
	case "txt":
		body, err := io.ReadAll(io.NewSectionReader(r, 0, size))
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
		return Text(body), nil
	default:
		return nil, fmt.Errorf("%w %q: want csv, pdf or txt", ErrUnsupportedFile, kind)
	}
}
