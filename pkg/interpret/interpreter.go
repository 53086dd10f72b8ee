package interpret

import (
	"fmt"

	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
)

// Interpreter maps validated-scale raw scores to severity bands. All
// methods are pure table lookups; the only failure mode is an out-of-range
// score, which is rejected rather than clamped so data errors cannot pass
// for clinical readings.
type Interpreter struct {
	catalog Catalog
}

func New(catalog Catalog) *Interpreter {
	return &Interpreter{catalog: catalog}
}

// Scales exposes the catalog's scale specs so callers can discover which
// validated scales a questionnaire's items belong to.
func (i *Interpreter) Scales() map[string]ScaleSpec {
	return i.catalog.Scales
}

// Interpret evaluates a raw score on the named scale. selfHarmPositive
// reports whether the scale's designated self-harm item received any
// positive value; when it did, the result is forced to SEVERE with the
// immediate-action flag regardless of the total score.
func (i *Interpreter) Interpret(scaleName string, rawScore float64, selfHarmPositive bool) (models.Interpretation, error) {
	spec, ok := i.catalog.Scales[scaleName]
	if !ok {
		return models.Interpretation{}, fmt.Errorf("unknown scale %q", scaleName)
	}
	if rawScore < spec.MinScore || rawScore > spec.MaxScore {
		return models.Interpretation{}, apperr.InvalidScoreRange(scaleName, rawScore, spec.MinScore, spec.MaxScore)
	}

	bandScore := rawScore
	if spec.PercentBands {
		bandScore = rawScore / spec.MaxScore * 100
	}

	band, err := lookupBand(spec, bandScore)
	if err != nil {
		return models.Interpretation{}, err
	}

	result := models.Interpretation{
		Scale:           spec.Name,
		RawScore:        rawScore,
		Severity:        band.Severity,
		AlertLevel:      band.AlertLevel,
		Description:     band.Description,
		Recommendations: band.Recommendations,
	}

	if selfHarmPositive && spec.SelfHarmItemCode != "" {
		result.Severity = models.SeveritySevere
		result.AlertLevel = models.AlertRed
		result.RequiresImmediateAction = true
		result.Description = "Self-harm ideation reported"
		result.Recommendations = append([]string{"Contact the student today", "Escalate to the crisis response team"}, band.Recommendations...)
	}

	return result, nil
}

// ShouldAlert reports whether an interpretation warrants an alert: any band
// at or above MODERATE, or a forced immediate-action result.
func ShouldAlert(interp models.Interpretation) bool {
	return interp.RequiresImmediateAction || severityRank(interp.Severity) >= severityRank(models.SeverityModerate)
}

// Combine folds several interpretations into one alert level: the maximum
// severity wins, and immediate action propagates if any scale requires it.
func Combine(interps []models.Interpretation) (models.AlertLevel, bool) {
	level := models.AlertGreen
	immediate := false
	for _, interp := range interps {
		if interp.AlertLevel.Rank() > level.Rank() {
			level = interp.AlertLevel
		}
		if interp.RequiresImmediateAction {
			immediate = true
		}
	}
	return level, immediate
}

// KindFor maps an alert level to the risk taxonomy tag.
func KindFor(level models.AlertLevel, immediate bool) models.AlertKind {
	if immediate {
		return models.RiskImmediateCrisis
	}
	switch level {
	case models.AlertRed:
		return models.RiskHigh
	case models.AlertOrange:
		return models.RiskHigh
	case models.AlertYellow:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// lookupBand finds the band containing score. Point-banded scales (PHQ-9,
// GAD-7) use inclusive integer ranges with a one-point gap between bands;
// percent bands abut exactly, upper bound exclusive. The last band includes
// its upper bound so the scale maximum resolves.
func lookupBand(spec ScaleSpec, score float64) (Band, error) {
	for idx, band := range spec.Bands {
		if idx == len(spec.Bands)-1 {
			if score >= band.Min && score <= band.Max {
				return band, nil
			}
			continue
		}
		upper := band.Max
		if !spec.PercentBands {
			upper++
		}
		if score >= band.Min && score < upper {
			return band, nil
		}
	}
	return Band{}, fmt.Errorf("no band for %s score %.2f", spec.Name, score)
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityMinimal:
		return 0
	case models.SeverityMild:
		return 1
	case models.SeverityModerate:
		return 2
	case models.SeverityModeratelySevere:
		return 3
	case models.SeveritySevere:
		return 4
	}
	return -1
}
