package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
)

func resp(category models.Category, normalized float64, order int) models.Response {
	return models.Response{
		ID:              uuid.New(),
		Category:        category,
		NormalizedValue: normalized,
		Order:           order,
	}
}

func TestCategoryScoresBasics(t *testing.T) {
	responses := []models.Response{
		resp(models.CategoryAnxiety, 0.2, 1),
		resp(models.CategoryAnxiety, 0.4, 2),
		resp(models.CategoryAnxiety, 0.6, 3),
		resp(models.CategoryMood, 0.8, 4),
	}

	summaries := CategoryScores(responses, nil)
	anxiety, ok := summaries[models.CategoryAnxiety]
	if !ok {
		t.Fatal("missing anxiety summary")
	}
	if math.Abs(anxiety.Mean-0.4) > 1e-9 {
		t.Fatalf("expected mean 0.4, got %f", anxiety.Mean)
	}
	if anxiety.Min != 0.2 || anxiety.Max != 0.6 {
		t.Fatalf("wrong min/max: %f/%f", anxiety.Min, anxiety.Max)
	}
	if anxiety.SampleCount != 3 {
		t.Fatalf("expected 3 samples, got %d", anxiety.SampleCount)
	}
	if summaries[models.CategoryMood].SampleCount != 1 {
		t.Fatal("expected mood summary with one sample")
	}
}

func TestCategoryScoresItemWeights(t *testing.T) {
	heavy := uuid.New()
	light := uuid.New()
	responses := []models.Response{
		{ID: uuid.New(), ItemID: &heavy, Category: models.CategoryStress, NormalizedValue: 1.0, Order: 1},
		{ID: uuid.New(), ItemID: &light, Category: models.CategoryStress, NormalizedValue: 0.0, Order: 2},
	}
	weights := map[uuid.UUID]float64{heavy: 3, light: 1}

	summaries := CategoryScores(responses, weights)
	if got := summaries[models.CategoryStress].Mean; math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected weighted mean 0.75, got %f", got)
	}
}

func TestTrendLabels(t *testing.T) {
	cases := []struct {
		values []float64
		want   models.TrendDirection
	}{
		{[]float64{0.2, 0.2, 0.6, 0.7}, models.TrendRising},
		{[]float64{0.8, 0.7, 0.3, 0.2}, models.TrendFalling},
		{[]float64{0.5, 0.5, 0.55, 0.5}, models.TrendStable},
		{[]float64{0.4}, models.TrendStable},
	}

	for _, tc := range cases {
		got, err := Trend(tc.values)
		if err != nil {
			t.Fatalf("trend failed for %v: %v", tc.values, err)
		}
		if got != tc.want {
			t.Fatalf("trend for %v: expected %s, got %s", tc.values, tc.want, got)
		}
	}
}

func TestTrendEmptyIsInsufficientData(t *testing.T) {
	if _, err := Trend(nil); !errors.Is(err, apperr.ErrInsufficientData) {
		t.Fatalf("expected InsufficientData, got %v", err)
	}
}

func TestOverallScoreRescaled(t *testing.T) {
	summaries := map[models.Category]models.CategoryScoreSummary{
		models.CategoryAnxiety: {Mean: 0.5, SampleCount: 2},
		models.CategoryMood:    {Mean: 1.0, SampleCount: 2},
	}
	if got := OverallScore(summaries); math.Abs(got-75) > 1e-9 {
		t.Fatalf("expected overall 75, got %f", got)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	for raw := 1; raw <= 5; raw++ {
		normalized, err := Normalize(models.NumericValue(float64(raw)), 1, 5)
		if err != nil {
			t.Fatalf("normalize %d failed: %v", raw, err)
		}
		back := Denormalize(normalized, 1, 5)
		if math.Abs(back-float64(raw)) > 1e-9 {
			t.Fatalf("round trip for %d: got %f", raw, back)
		}
	}
}

func TestNormalizeRejectsOutOfRange(t *testing.T) {
	if _, err := Normalize(models.NumericValue(6), 1, 5); err == nil {
		t.Fatal("expected rejection of out-of-range raw value")
	}
	if _, err := Normalize(models.ChoiceValue(0), 1, 5); err == nil {
		t.Fatal("expected rejection of out-of-range choice")
	}
}

func TestNormalizeTextTable(t *testing.T) {
	got, err := Normalize(models.TextValue("Nearly every day"), 0, 3)
	if err != nil {
		t.Fatalf("text normalize failed: %v", err)
	}
	if got != 1.0 {
		t.Fatalf("expected 1.0 for top likert answer, got %f", got)
	}
	if _, err := Normalize(models.TextValue("banana"), 0, 3); err == nil {
		t.Fatal("expected rejection of unknown text answer")
	}
}
