package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/model"
	"github.com/Skufu/GlucoRisk/internal/risk"
)

var (
	// ErrResourceUnavailable is wrapped by every missing-resource error.
	ErrResourceUnavailable = errors.New("scoring resource unavailable")
	ErrScalerUnavailable   = fmt.Errorf("scaler not loaded: %w", ErrResourceUnavailable)
	ErrModelUnavailable    = fmt.Errorf("model not loaded: %w", ErrResourceUnavailable)
)

// Observer receives the outcome of every Score call.
type Observer interface {
	ObserveScore(v Verdict, elapsed time.Duration)
	ObserveScoreError(reason string)
}

// Pipeline scales a vector, runs the classifier and bands the probability.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	res      model.Resources
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a Pipeline over the given resources.
func New(res model.Resources, opts ...Option) *Pipeline {
	p := &Pipeline{
		res:    res,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready reports whether both resources are loaded.
func (p *Pipeline) Ready() bool {
	return p.res.Ready()
}

// Score produces the verdict for v.
func (p *Pipeline) Score(ctx context.Context, v features.Vector) (Verdict, error) {
	start := p.now()
	verdict, err := p.score(v)
	if err != nil {
		p.logger.WarnContext(ctx, "scoring failed", "err", err)
		if p.observer != nil {
			p.observer.ObserveScoreError(Reason(err))
		}
		return Verdict{}, err
	}
	p.logger.DebugContext(ctx, "scored",
		"label", verdict.Label.String(),
		"probability", verdict.Probability,
		"band", verdict.Band.String(),
	)
	if p.observer != nil {
		p.observer.ObserveScore(verdict, p.now().Sub(start))
	}
	return verdict, nil
}

func (p *Pipeline) score(v features.Vector) (Verdict, error) {
	if err := v.Validate(); err != nil {
		return Verdict{}, err
	}
	raw := v.Values()
	if len(raw) != features.Count {
		return Verdict{}, &features.SchemaError{Reason: fmt.Sprintf("expected %d values, got %d", features.Count, len(raw))}
	}

	if p.res.Scaler == nil {
		return Verdict{}, ErrScalerUnavailable
	}
	scaled, err := p.res.Scaler.Transform(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("scale: %w", err)
	}
	if len(scaled) != features.Count {
		return Verdict{}, &features.SchemaError{Reason: fmt.Sprintf("scaler returned %d values", len(scaled))}
	}

	if p.res.Classifier == nil {
		return Verdict{}, ErrModelUnavailable
	}
	proba, err := p.res.Classifier.PredictProba(scaled)
	if err != nil {
		return Verdict{}, fmt.Errorf("predict probability: %w", err)
	}
	label, err := p.res.Classifier.Predict(scaled)
	if err != nil {
		return Verdict{}, fmt.Errorf("predict label: %w", err)
	}

	band, err := risk.Classify(proba[1])
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{
		Label:       labelFromClass(label),
		Probability: proba[1],
		Band:        band,
	}, nil
}

// Reason classifies err for metrics and API responses.
func Reason(err error) string {
	var (
		schemaErr *features.SchemaError
		fieldErr  *features.DomainError
		probErr   *risk.DomainError
	)
	switch {
	case errors.Is(err, ErrResourceUnavailable):
		return "resource_unavailable"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &fieldErr), errors.As(err, &probErr):
		return "domain"
	default:
		return "internal"
	}
}
