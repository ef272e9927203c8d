package history

import (
	"context"
	"errors"
	"time"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

// Header is the column row of the history table.
var Header = append(append([]string{}, features.Order...), "Result", "Probability")

// Record is one scored vector together with its verdict.
type Record struct {
	Features    features.Vector `json:"features"`
	Result      string          `json:"result"`
	Probability float64         `json:"probability"`
	// Label and ScoredAt are kept by sinks that have room for them; the CSV
	// table does not carry them.
	Label    string    `json:"label,omitempty"`
	ScoredAt time.Time `json:"scoredAt,omitempty"`
}

// NewRecord pairs a vector with the verdict it produced.
func NewRecord(v features.Vector, verdict scoring.Verdict, at time.Time) Record {
	return Record{
		Features:    v,
		Result:      verdict.Result(),
		Probability: verdict.Probability,
		Label:       verdict.Label.String(),
		ScoredAt:    at,
	}
}

// Log is an append-only store of scored records. Records are never updated
// or removed.
type Log interface {
	Append(ctx context.Context, rec Record) error
}

// Tee appends to every log in order and joins their errors. The first log is
// the source of truth; later ones are mirrors.
func Tee(logs ...Log) Log {
	return tee(logs)
}

type tee []Log

func (t tee) Append(ctx context.Context, rec Record) error {
	var errs []error
	for _, l := range t {
		if err := l.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
