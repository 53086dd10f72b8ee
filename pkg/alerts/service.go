package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
	"github.com/sentira-edu/platform/pkg/observability/metrics"
)

// Store is the persistence surface the alert service needs; the GORM
// Repository satisfies it. Dedup decisions live here, not in storage.
type Store interface {
	Create(ctx context.Context, alert models.Alert) (models.Alert, error)
	Update(ctx context.Context, alert models.Alert) (models.Alert, error)
	FindPendingInWindow(ctx context.Context, subjectID uuid.UUID, since time.Time) (models.Alert, bool, error)
	Get(ctx context.Context, id uuid.UUID) (models.Alert, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Alert, error)
	ListByStatus(ctx context.Context, status models.AlertStatus, limit int) ([]models.Alert, error)
}

// Publisher is the event-bus surface; the Kafka producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Service struct {
	store       Store
	publisher   Publisher
	dedupWindow time.Duration
	now         func() time.Time
}

func NewService(store Store, publisher Publisher, dedupWindow time.Duration) *Service {
	return &Service{
		store:       store,
		publisher:   publisher,
		dedupWindow: dedupWindow,
		now:         time.Now,
	}
}

// Raise emits an alert for a subject, deduplicating against the window: a
// PENDING alert raised for the same subject within the window is updated in
// place rather than duplicated, so the inbox holds at most one live alert
// per subject at a time.
func (s *Service) Raise(ctx context.Context, alert models.Alert) (models.Alert, error) {
	now := s.now()
	existing, found, err := s.store.FindPendingInWindow(ctx, alert.SubjectID, now.Add(-s.dedupWindow))
	if err != nil {
		return models.Alert{}, err
	}

	if found {
		existing.SessionID = alert.SessionID
		existing.Level = alert.Level
		existing.Kind = alert.Kind
		existing.Category = alert.Category
		existing.Score = alert.Score
		existing.Recommendations = alert.Recommendations
		existing.RequiresImmediateAction = existing.RequiresImmediateAction || alert.RequiresImmediateAction
		existing.UpdatedAt = now

		updated, err := s.store.Update(ctx, existing)
		if err != nil {
			return models.Alert{}, err
		}
		metrics.IncAlertUpdated()
		s.publish(ctx, "alert.updated", updated)
		return updated, nil
	}

	alert.ID = uuid.New()
	alert.Status = models.AlertPending
	alert.CreatedAt = now
	alert.UpdatedAt = now

	created, err := s.store.Create(ctx, alert)
	if err != nil {
		return models.Alert{}, err
	}
	metrics.IncAlertRaised()
	s.publish(ctx, "alert.raised", created)
	return created, nil
}

// UpdateStatus moves an alert through its follow-up workflow.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus) (models.Alert, error) {
	alert, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Alert{}, err
	}
	alert.Status = status
	alert.UpdatedAt = s.now()
	return s.store.Update(ctx, alert)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Alert, error) {
	return s.store.ListBySubject(ctx, subjectID, limit)
}

func (s *Service) ListByStatus(ctx context.Context, status models.AlertStatus, limit int) ([]models.Alert, error) {
	return s.store.ListByStatus(ctx, status, limit)
}

func (s *Service) publish(ctx context.Context, eventType string, alert models.Alert) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEvent(ctx, eventType, "assessment-service", map[string]interface{}{
		"alert_id":                  alert.ID.String(),
		"subject_id":                alert.SubjectID.String(),
		"session_id":                alert.SessionID.String(),
		"level":                     string(alert.Level),
		"kind":                      string(alert.Kind),
		"requires_immediate_action": alert.RequiresImmediateAction,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("alert_id", alert.ID).Error("failed to publish alert event")
	}
}
