// Package risk maps a positive-class probability onto an ordinal risk band.
package risk

import (
	"fmt"
	"math"
)

// Band is an ordinal risk classification. Higher values mean higher risk.
type Band int

const (
	Low Band = iota
	Moderate
	High
)

// Probability thresholds. A probability equal to a threshold resolves to the
// higher band.
const (
	ThresholdModerate = 0.50
	ThresholdHigh     = 0.75
)

// DomainError reports a probability outside [0, 1].
type DomainError struct {
	Probability float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("probability %v outside [0, 1]", e.Probability)
}

// Classify returns the band for p.
func Classify(p float64) (Band, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Low, &DomainError{Probability: p}
	}
	switch {
	case p >= ThresholdHigh:
		return High, nil
	case p >= ThresholdModerate:
		return Moderate, nil
	default:
		return Low, nil
	}
}

// String returns the short band name.
func (b Band) String() string {
	switch b {
	case Low:
		return "Low"
	case Moderate:
		return "Moderate"
	case High:
		return "High"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// Title is the band as shown on cards, reports and the history log.
func (b Band) Title() string {
	return b.String() + " Risk"
}

// Advice is the guidance shown next to the verdict.
func (b Band) Advice() string {
	switch b {
	case High:
		return "High chance of diabetes — please consult a doctor."
	case Moderate:
		return "Medium risk — monitor your health and lifestyle."
	default:
		return "Low risk — keep maintaining a healthy lifestyle!"
	}
}

// ParseBand reverses Title and String.
func ParseBand(s string) (Band, error) {
	switch s {
	case "Low", "Low Risk":
		return Low, nil
	case "Moderate", "Moderate Risk":
		return Moderate, nil
	case "High", "High Risk":
		return High, nil
	default:
		return Low, fmt.Errorf("invalid risk band: %q", s)
	}
}

// MarshalText encodes the band by name.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a band name.
func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
