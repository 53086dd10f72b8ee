package itembank

import (
	"context"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/models"
)

// Source is the read-only item catalog the engine consumes. Implementations
// must return items in a stable order and never expose an item with
// non-positive discrimination. Questionnaire-scoped items and shared bank
// items are unified here; selection logic never sees the storage origin.
type Source interface {
	ActiveItems(ctx context.Context, questionnaireRef string) ([]models.Item, error)
	Item(ctx context.Context, id uuid.UUID) (models.Item, error)
	Questionnaire(ctx context.Context, ref string) (models.Questionnaire, error)
}
