package irt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/models"
)

func item(id string, difficulty, discrimination float64, order int) models.Item {
	return models.Item{
		ID:             uuid.MustParse(id),
		Difficulty:     difficulty,
		Discrimination: discrimination,
		Order:          order,
	}
}

func TestSelectNextAdaptivePicksClosestDifficulty(t *testing.T) {
	candidates := []models.Item{
		item("00000000-0000-0000-0000-000000000001", -1.5, 1, 1),
		item("00000000-0000-0000-0000-000000000002", 0.2, 1, 2),
		item("00000000-0000-0000-0000-000000000003", 1.8, 1, 3),
	}

	got := SelectNext(0.0, candidates, true)
	if got == nil {
		t.Fatal("expected a selection")
	}
	if got.ID != candidates[1].ID {
		t.Fatalf("expected item closest to theta, got difficulty %f", got.Difficulty)
	}
}

func TestSelectNextAdaptiveTieBreaksOnLowestID(t *testing.T) {
	candidates := []models.Item{
		item("00000000-0000-0000-0000-00000000000b", 0.5, 1, 1),
		item("00000000-0000-0000-0000-00000000000a", -0.5, 1, 2),
	}

	got := SelectNext(0.0, candidates, true)
	if got.ID != candidates[1].ID {
		t.Fatalf("expected lowest id on tie, got %s", got.ID)
	}
}

func TestSelectNextAdaptivePrefersDiscriminatingItem(t *testing.T) {
	candidates := []models.Item{
		item("00000000-0000-0000-0000-000000000001", 0.4, 0.5, 1),
		item("00000000-0000-0000-0000-000000000002", 0.4, 2.0, 2),
	}

	got := SelectNext(0.0, candidates, true)
	if got.ID != candidates[1].ID {
		t.Fatal("expected the sharper item at equal distance")
	}
}

func TestSelectNextFixedOrder(t *testing.T) {
	candidates := []models.Item{
		item("00000000-0000-0000-0000-000000000001", 0.0, 1, 7),
		item("00000000-0000-0000-0000-000000000002", 0.0, 1, 2),
		item("00000000-0000-0000-0000-000000000003", 0.0, 1, 5),
	}

	got := SelectNext(1.5, candidates, false)
	if got.Order != 2 {
		t.Fatalf("expected lowest order candidate, got order %d", got.Order)
	}
}

func TestSelectNextEmptyPool(t *testing.T) {
	if got := SelectNext(0.0, nil, true); got != nil {
		t.Fatalf("expected nil on exhausted pool, got %+v", got)
	}
}
