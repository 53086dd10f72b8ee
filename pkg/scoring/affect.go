package scoring

import "github.com/sentira-edu/platform/pkg/common/models"

// Circumplex mapping: which categories carry each axis, and which arousal
// categories contribute inverted (high anxiety/stress is a negative arousal
// contribution under this convention).
var (
	valenceCategories = map[models.Category]bool{
		models.CategoryWellbeing:    true,
		models.CategoryMood:         true,
		models.CategorySatisfaction: true,
		models.CategorySelfEsteem:   true,
	}
	arousalCategories = map[models.Category]bool{
		models.CategoryEnergy:     true,
		models.CategoryAnxiety:    true,
		models.CategoryStress:     true,
		models.CategoryExcitement: true,
	}
	invertedArousal = map[models.Category]bool{
		models.CategoryAnxiety: true,
		models.CategoryStress:  true,
	}
)

// MapAffect places a session on the valence/arousal plane. Group averages
// over normalized values are rescaled from [0,1] to [-1,1]. An axis with no
// contributing responses stays nil: undefined, never zero.
func MapAffect(responses []models.Response) models.AffectCoordinate {
	var valenceSum, arousalSum float64
	var valenceN, arousalN int

	for _, resp := range responses {
		if valenceCategories[resp.Category] {
			valenceSum += resp.NormalizedValue
			valenceN++
		}
		if arousalCategories[resp.Category] {
			value := resp.NormalizedValue
			if invertedArousal[resp.Category] {
				value = 1 - value
			}
			arousalSum += value
			arousalN++
		}
	}

	var coord models.AffectCoordinate
	if valenceN > 0 {
		v := rescale(valenceSum / float64(valenceN))
		coord.Valence = &v
	}
	if arousalN > 0 {
		a := rescale(arousalSum / float64(arousalN))
		coord.Arousal = &a
	}
	return coord
}

func rescale(unit float64) float64 {
	return 2*unit - 1
}
