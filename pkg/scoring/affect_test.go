package scoring

import (
	"math"
	"testing"

	"github.com/sentira-edu/platform/pkg/common/models"
)

func TestMapAffectMaxValence(t *testing.T) {
	responses := []models.Response{
		resp(models.CategoryWellbeing, 1.0, 1),
		resp(models.CategoryMood, 1.0, 2),
		resp(models.CategorySatisfaction, 1.0, 3),
		resp(models.CategorySelfEsteem, 1.0, 4),
	}

	coord := MapAffect(responses)
	if coord.Valence == nil {
		t.Fatal("expected valence to be defined")
	}
	if math.Abs(*coord.Valence-1.0) > 1e-9 {
		t.Fatalf("expected valence 1.0, got %f", *coord.Valence)
	}
	if coord.Arousal != nil {
		t.Fatal("expected arousal undefined without arousal-bearing responses")
	}
}

func TestMapAffectMinValence(t *testing.T) {
	responses := []models.Response{
		resp(models.CategoryWellbeing, 0.0, 1),
		resp(models.CategoryMood, 0.0, 2),
	}

	coord := MapAffect(responses)
	if coord.Valence == nil || math.Abs(*coord.Valence+1.0) > 1e-9 {
		t.Fatalf("expected valence -1.0, got %v", coord.Valence)
	}
}

func TestMapAffectInvertsAnxietyAndStress(t *testing.T) {
	// High anxiety/stress pulls arousal negative under this convention.
	responses := []models.Response{
		resp(models.CategoryAnxiety, 1.0, 1),
		resp(models.CategoryStress, 1.0, 2),
	}

	coord := MapAffect(responses)
	if coord.Arousal == nil || math.Abs(*coord.Arousal+1.0) > 1e-9 {
		t.Fatalf("expected arousal -1.0 from max anxiety/stress, got %v", coord.Arousal)
	}

	energized := []models.Response{
		resp(models.CategoryEnergy, 1.0, 1),
		resp(models.CategoryExcitement, 1.0, 2),
	}
	coord = MapAffect(energized)
	if coord.Arousal == nil || math.Abs(*coord.Arousal-1.0) > 1e-9 {
		t.Fatalf("expected arousal 1.0 from max energy/excitement, got %v", coord.Arousal)
	}
}

func TestMapAffectUndefinedAxes(t *testing.T) {
	coord := MapAffect(nil)
	if coord.Valence != nil || coord.Arousal != nil {
		t.Fatalf("expected both axes undefined with no responses, got %+v", coord)
	}
}
