package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// CSVLog appends records to a delimited file. The header is written when the
// file is missing or empty.
//
// The mutex covers the check-header-then-append sequence, so concurrent
// callers in one process never both write a header or interleave rows. Other
// processes appending to the same file must serialize on their own.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

// NewCSVLog returns a log backed by path. The file is created on first append.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Path returns the backing file.
func (l *CSVLog) Path() string {
	return l.path
}

// Append implements Log.
func (l *CSVLog) Append(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: open %q: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("history: stat %q: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("history: write header: %w", err)
		}
	}
	if err := w.Write(row(rec)); err != nil {
		return fmt.Errorf("history: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("history: flush: %w", err)
	}
	return f.Sync()
}

// List reads every record back in append order. A missing file is an empty
// history.
func (l *CSVLog) List(_ context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open %q: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("history: read header: %w", err)
	}

	out := []Record{}
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("history: read row %d: %w", len(out)+1, err)
		}
		rec, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("history: row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}

func row(rec Record) []string {
	fields := rec.Features.Fields()
	out := make([]string, 0, len(Header))
	for _, f := range fields {
		out = append(out, f.Display())
	}
	return append(out, rec.Result, strconv.FormatFloat(rec.Probability, 'f', -1, 64))
}

func parseRow(cells []string) (Record, error) {
	values := make([]float64, features.Count)
	for i := range values {
		v, err := strconv.ParseFloat(cells[i], 64)
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", features.Order[i], err)
		}
		values[i] = v
	}
	vec, err := features.FromValues(values)
	if err != nil {
		return Record{}, err
	}
	p, err := strconv.ParseFloat(cells[features.Count+1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("Probability: %w", err)
	}
	return Record{Features: vec, Result: cells[features.Count], Probability: p}, nil
}
