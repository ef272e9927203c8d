package report

import (
	"strconv"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/risk"
)

// Card is the inline summary shown under the form.
type Card struct {
	Title       string
	Verdict     string
	Band        string
	Class       string
	Probability string
	Percent     int
	Advice      string
	Fields      []features.Field
}

// NewCard returns the on-screen summary of d.
func NewCard(d Document) Card {
	return Card{
		Title:       d.Band.Title(),
		Verdict:     d.Verdict,
		Band:        d.Band.String(),
		Class:       cardClass(d.Band),
		Probability: strconv.FormatFloat(d.Probability, 'f', 2, 64),
		Percent:     int(d.Probability*100 + 0.5),
		Advice:      d.Advice,
		Fields:      d.Fields,
	}
}

func cardClass(b risk.Band) string {
	switch b {
	case risk.High:
		return "risk-high"
	case risk.Moderate:
		return "risk-moderate"
	default:
		return "risk-low"
	}
}
