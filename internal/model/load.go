package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/GlucoRisk/internal/features"
)

// Resource kinds understood by the loaders.
const (
	KindStandardScaler     = "standard_scaler"
	KindLogisticRegression = "logistic_regression"
)

// DefaultThreshold is the classifier decision threshold when a resource does
// not declare one.
const DefaultThreshold = 0.5

// scalerFile is the on-disk scaler resource. JSON files parse too.
type scalerFile struct {
	Kind     string    `yaml:"kind"`
	Features []string  `yaml:"features"`
	Mean     []float64 `yaml:"mean"`
	Scale    []float64 `yaml:"scale"`
}

// classifierFile is the on-disk classifier resource.
type classifierFile struct {
	Kind      string    `yaml:"kind"`
	Features  []string  `yaml:"features"`
	Weights   []float64 `yaml:"weights"`
	Bias      float64   `yaml:"bias"`
	Threshold *float64  `yaml:"threshold"`
}

// LoadScaler reads a scaler resource from path.
func LoadScaler(path string) (*StandardScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scaler: read %q: %w", path, err)
	}
	var f scalerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scaler: parse %q: %w", path, err)
	}
	if f.Kind != KindStandardScaler {
		return nil, fmt.Errorf("scaler: %q: unsupported kind %q", path, f.Kind)
	}
	if err := checkColumns(f.Features); err != nil {
		return nil, fmt.Errorf("scaler: %q: %w", path, err)
	}
	if len(f.Mean) != features.Count || len(f.Scale) != features.Count {
		return nil, fmt.Errorf("scaler: %q: want %d mean and scale values, got %d and %d",
			path, features.Count, len(f.Mean), len(f.Scale))
	}
	if err := checkFinite(append(append([]float64{}, f.Mean...), f.Scale...)); err != nil {
		return nil, fmt.Errorf("scaler: %q: %w", path, err)
	}
	return &StandardScaler{Mean: f.Mean, Scale: f.Scale}, nil
}

// LoadClassifier reads a classifier resource from path.
func LoadClassifier(path string) (*LogisticRegression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read %q: %w", path, err)
	}
	var f classifierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("classifier: parse %q: %w", path, err)
	}
	if f.Kind != KindLogisticRegression {
		return nil, fmt.Errorf("classifier: %q: unsupported kind %q", path, f.Kind)
	}
	if err := checkColumns(f.Features); err != nil {
		return nil, fmt.Errorf("classifier: %q: %w", path, err)
	}
	if len(f.Weights) != features.Count {
		return nil, fmt.Errorf("classifier: %q: want %d weights, got %d", path, features.Count, len(f.Weights))
	}
	if err := checkFinite(append(append([]float64{}, f.Weights...), f.Bias)); err != nil {
		return nil, fmt.Errorf("classifier: %q: %w", path, err)
	}
	threshold := DefaultThreshold
	if f.Threshold != nil {
		threshold = *f.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("classifier: %q: threshold %v outside [0, 1]", path, threshold)
	}
	return &LogisticRegression{Weights: f.Weights, Bias: f.Bias, Threshold: threshold}, nil
}

// checkColumns verifies the declared training columns, when present.
func checkColumns(columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	return features.CheckOrder(columns)
}

func checkFinite(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite parameter")
		}
	}
	return nil
}

// Resources are the process-wide scoring resources. Either field may be nil
// when its file could not be loaded.
type Resources struct {
	Scaler     Scaler
	Classifier Classifier
}

// Ready reports whether both resources are loaded.
func (r Resources) Ready() bool {
	return r.Scaler != nil && r.Classifier != nil
}

// Load reads both resources once. A failure is logged and leaves the
// corresponding field nil so the service can start in a degraded state.
func Load(logger *slog.Logger, classifierPath, scalerPath string) Resources {
	var res Resources

	if s, err := LoadScaler(scalerPath); err != nil {
		logger.Error("scaler unavailable, scoring disabled", "path", scalerPath, "err", err)
	} else {
		res.Scaler = s
		logger.Info("scaler loaded", "path", scalerPath)
	}

	if c, err := LoadClassifier(classifierPath); err != nil {
		logger.Error("classifier unavailable, scoring disabled", "path", classifierPath, "err", err)
	} else {
		res.Classifier = c
		logger.Info("classifier loaded", "path", classifierPath, "threshold", c.Threshold)
	}

	return res
}
