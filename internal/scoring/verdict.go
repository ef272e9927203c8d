package scoring

import (
	"fmt"

	"github.com/Skufu/GlucoRisk/internal/risk"
)

// Label is the classifier's binary decision.
type Label int

const (
	Negative Label = iota
	Positive
)

func labelFromClass(class int) Label {
	if class == 1 {
		return Positive
	}
	return Negative
}

func (l Label) String() string {
	if l == Positive {
		return "Positive"
	}
	return "Negative"
}

// MarshalText encodes the label by name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Verdict is the immutable result of one scoring call. Label comes from the
// classifier's own decision threshold and Band from the fixed risk thresholds;
// under a miscalibrated model they can disagree.
type Verdict struct {
	Label       Label     `json:"label"`
	Probability float64   `json:"probability"`
	Band        risk.Band `json:"band"`
}

// Result is the verdict text stored in the history log.
func (v Verdict) Result() string {
	return v.Band.Title()
}

// Summary is the one-line verdict shown on cards and reports.
func (v Verdict) Summary() string {
	return fmt.Sprintf("%s — probability %.2f", v.Band.Title(), v.Probability)
}

// Advice is the guidance for the verdict's band.
func (v Verdict) Advice() string {
	return v.Band.Advice()
}
