package input

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// CSV reads the first data row of a header-bearing table. Columns outside the
// schema are ignored; header spellings go through features.Canonical so DPF
// and DiabetesPedigreeFunction are the same column.
type CSV struct {
	R io.Reader
}

// Resolve implements Source.
func (s *CSV) Resolve(_ context.Context) (features.Vector, error) {
	r := csv.NewReader(s.R)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return features.Vector{}, &MissingColumnError{Missing: append([]string{}, features.Order...)}
	}
	if err != nil {
		return features.Vector{}, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := features.Canonical(h)
		if !ok {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range features.Order {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return features.Vector{}, &MissingColumnError{Missing: missing}
	}

	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return features.Vector{}, &features.SchemaError{Reason: "csv has a header but no data row"}
	}
	if err != nil {
		return features.Vector{}, fmt.Errorf("read csv row: %w", err)
	}

	values := make([]float64, len(features.Order))
	for i, name := range features.Order {
		col := index[name]
		if col >= len(row) {
			return features.Vector{}, &InvalidValueError{Column: name, Raw: ""}
		}
		raw := strings.TrimSpace(row[col])
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return features.Vector{}, &InvalidValueError{Column: name, Raw: raw}
		}
		values[i] = v
	}
	return features.FromValues(values)
}
