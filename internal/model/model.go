package model

import (
	"fmt"
	"math"
)

// Scaler maps raw clinical units to the classifier's training distribution.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Classifier is a trained binary classifier.
type Classifier interface {
	// Predict returns the class label, 0 or 1.
	Predict(x []float64) (int, error)
	// PredictProba returns [p(negative), p(positive)].
	PredictProba(x []float64) ([2]float64, error)
}

// StandardScaler subtracts the fitted mean and divides by the fitted scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Transform standardizes x. It never modifies x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: got %d values, fitted on %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		scale := s.Scale[j]
		if scale == 0 {
			scale = 1
		}
		out[j] = (v - s.Mean[j]) / scale
	}
	return out, nil
}

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	Weights []float64
	Bias    float64
	// Threshold is the decision threshold used by Predict. It is independent
	// of the risk band thresholds.
	Threshold float64
}

// PredictProba returns the class probabilities for one scaled row.
func (m *LogisticRegression) PredictProba(x []float64) ([2]float64, error) {
	if len(x) != len(m.Weights) {
		return [2]float64{}, fmt.Errorf("classifier: got %d values, fitted on %d", len(x), len(m.Weights))
	}
	sum := m.Bias
	for j, v := range x {
		sum += m.Weights[j] * v
	}
	p := sigmoid(sum)
	return [2]float64{1 - p, p}, nil
}

// Predict returns 1 when p(positive) reaches Threshold.
func (m *LogisticRegression) Predict(x []float64) (int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if proba[1] >= m.Threshold {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
