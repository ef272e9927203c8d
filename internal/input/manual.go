package input

import (
	"context"
	"strconv"
	"strings"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// Manual holds user-entered values keyed by schema column. Missing fields
// take the form default and every value is clamped to the form bounds, so
// Resolve never fails.
type Manual map[string]float64

// ParseManual reads one value per schema column through lookup. Blank or
// unparseable values are treated as missing.
func ParseManual(lookup func(key string) string) Manual {
	m := Manual{}
	for _, name := range features.Order {
		raw := strings.TrimSpace(lookup(name))
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			m[name] = v
		}
	}
	return m
}

// Resolve implements Source.
func (m Manual) Resolve(_ context.Context) (features.Vector, error) {
	values := make([]float64, len(features.Order))
	for i, name := range features.Order {
		v, ok := m[name]
		if !ok {
			v = features.Bounds[name].Default
		}
		values[i] = features.Clamp(name, v)
	}
	return features.FromValues(values)
}

// Exact holds values keyed by schema column that are used as given. Missing
// fields take the form default, but nothing is clamped, so a vector that was
// scored from an upload renders again unchanged. Out-of-domain values fail
// with features.DomainError.
type Exact map[string]float64

// Resolve implements Source.
func (m Exact) Resolve(_ context.Context) (features.Vector, error) {
	values := make([]float64, len(features.Order))
	for i, name := range features.Order {
		v, ok := m[name]
		if !ok {
			v = features.Bounds[name].Default
		}
		values[i] = v
	}
	vec, err := features.FromValues(values)
	if err != nil {
		return features.Vector{}, err
	}
	if err := vec.Validate(); err != nil {
		return features.Vector{}, err
	}
	return vec, nil
}
