package scoring

import (
	"fmt"
	"strings"

	"github.com/sentira-edu/platform/pkg/common/models"
)

// likertText is the conversion table for text-valued answers, expressed as
// positions on the unit interval. Raw text is resolved here at ingestion
// and nowhere else.
var likertText = map[string]float64{
	"never":            0.00,
	"rarely":           0.25,
	"sometimes":        0.50,
	"often":            0.75,
	"always":           1.00,
	"not at all":       0.00,
	"several days":     0.33,
	"more than half":   0.66,
	"nearly every day": 1.00,
}

// Normalize resolves a raw answer to the unit interval given the item's
// declared scale bounds. The numeric and choice variants use the reversible
// linear transform (raw - min) / (max - min); text goes through the likert
// table. Out-of-range values are rejected, not clamped.
func Normalize(raw models.RawResponseValue, scaleMin, scaleMax int) (float64, error) {
	switch raw.Kind {
	case models.RawNumeric:
		return normalizeLinear(raw.Numeric, scaleMin, scaleMax)
	case models.RawChoice:
		return normalizeLinear(float64(raw.Choice), scaleMin, scaleMax)
	case models.RawText:
		value, ok := likertText[strings.ToLower(strings.TrimSpace(raw.Text))]
		if !ok {
			return 0, fmt.Errorf("unrecognized text answer %q", raw.Text)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("unknown raw value kind %q", raw.Kind)
	}
}

// Denormalize inverts Normalize for numeric and choice answers.
func Denormalize(normalized float64, scaleMin, scaleMax int) float64 {
	return normalized*float64(scaleMax-scaleMin) + float64(scaleMin)
}

func normalizeLinear(value float64, scaleMin, scaleMax int) (float64, error) {
	if scaleMax <= scaleMin {
		return 0, fmt.Errorf("invalid scale bounds [%d, %d]", scaleMin, scaleMax)
	}
	if value < float64(scaleMin) || value > float64(scaleMax) {
		return 0, fmt.Errorf("raw value %.2f outside scale [%d, %d]", value, scaleMin, scaleMax)
	}
	return (value - float64(scaleMin)) / float64(scaleMax-scaleMin), nil
}
