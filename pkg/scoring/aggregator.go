package scoring

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
)

const trendBand = 0.1

// CategoryScores computes per-category summaries over a session's
// responses. Weights are item weights (default 1 for items without one or
// for proxy-free responses). Responses must be in chronological order,
// which LoadResponses guarantees.
func CategoryScores(responses []models.Response, itemWeights map[uuid.UUID]float64) map[models.Category]models.CategoryScoreSummary {
	grouped := make(map[models.Category][]models.Response)
	for _, resp := range responses {
		grouped[resp.Category] = append(grouped[resp.Category], resp)
	}

	summaries := make(map[models.Category]models.CategoryScoreSummary, len(grouped))
	for category, group := range grouped {
		values := make([]float64, len(group))
		weights := make([]float64, len(group))
		for i, resp := range group {
			values[i] = resp.NormalizedValue
			weights[i] = 1
			if resp.ItemID != nil {
				if w, ok := itemWeights[*resp.ItemID]; ok && w > 0 {
					weights[i] = w
				}
			}
		}

		trend, err := Trend(values)
		if err != nil {
			trend = models.TrendStable
		}

		summaries[category] = models.CategoryScoreSummary{
			Category:    category,
			Mean:        weightedMean(values, weights),
			Min:         minOf(values),
			Max:         maxOf(values),
			StdDev:      stddev(values),
			Trend:       trend,
			SampleCount: len(values),
		}
	}
	return summaries
}

// OverallScore is the sample-weighted mean across categories rescaled to
// 0-100.
func OverallScore(summaries map[models.Category]models.CategoryScoreSummary) float64 {
	var total, weight float64
	for _, summary := range summaries {
		total += summary.Mean * float64(summary.SampleCount)
		weight += float64(summary.SampleCount)
	}
	if weight == 0 {
		return 0
	}
	return total / weight * 100
}

// Trend labels a chronologically ordered value series by comparing
// split-half means: RISING when the second half exceeds the first by more
// than the band, FALLING when below by more, STABLE otherwise.
func Trend(values []float64) (models.TrendDirection, error) {
	if len(values) == 0 {
		return "", apperr.ErrInsufficientData
	}
	if len(values) < 2 {
		return models.TrendStable, nil
	}

	half := len(values) / 2
	first := mean(values[:half])
	second := mean(values[len(values)-half:])

	switch {
	case second-first > trendBand:
		return models.TrendRising, nil
	case first-second > trendBand:
		return models.TrendFalling, nil
	default:
		return models.TrendStable, nil
	}
}

// ScaleRawScore sums raw answer values for the responses bound to a named
// scale, for handing to the clinical interpreter.
func ScaleRawScore(responses []models.Response, scaleItems map[uuid.UUID]models.Item, scaleName string) (float64, int) {
	var total float64
	var count int
	for _, resp := range responses {
		if resp.ItemID == nil {
			continue
		}
		item, ok := scaleItems[*resp.ItemID]
		if !ok || item.ScaleName != scaleName {
			continue
		}
		total += Denormalize(resp.NormalizedValue, item.ScaleMin, item.ScaleMax)
		count++
	}
	return total, count
}

func weightedMean(values, weights []float64) float64 {
	var total, weight float64
	for i, v := range values {
		total += v * weights[i]
		weight += weights[i]
	}
	if weight == 0 {
		return 0
	}
	return total / weight
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[0]
}

func maxOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)-1]
}
