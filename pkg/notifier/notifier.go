package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
	"github.com/sentira-edu/platform/pkg/observability/metrics"
)

// Channel identifies who a notification is addressed to.
type Channel string

const (
	ChannelCounselor Channel = "COUNSELOR"
	ChannelGuardian  Channel = "GUARDIAN"
	ChannelStudent   Channel = "STUDENT"
)

// Notification is one delivered message. Rows are append-only.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Channel   Channel   `json:"channel"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]Notification, error)
}

// Service turns platform events into notifications. It is intentionally
// dumb about delivery: writing the row is the delivery contract here, and
// outbound channels poll the table.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// HandleAlertEvent reacts to alert.raised and alert.updated. Every alert
// notifies the counselor inbox; immediate-action alerts additionally notify
// the guardian channel.
func (s *Service) HandleAlertEvent(ctx context.Context, event models.Event) error {
	if event.Type != "alert.raised" && event.Type != "alert.updated" {
		return nil
	}

	subjectID, err := subjectFromEvent(event)
	if err != nil {
		return err
	}
	level, _ := event.Data["level"].(string)
	kind, _ := event.Data["kind"].(string)
	immediate, _ := event.Data["requires_immediate_action"].(bool)

	title := fmt.Sprintf("Wellbeing alert (%s)", level)
	body := fmt.Sprintf("A %s alert was raised for one of your students.", kind)
	if event.Type == "alert.updated" {
		body = fmt.Sprintf("An open %s alert for one of your students was escalated.", kind)
	}

	if err := s.create(ctx, subjectID, ChannelCounselor, title, body, event.ID); err != nil {
		return err
	}
	if immediate {
		if err := s.create(ctx, subjectID, ChannelGuardian,
			"Urgent: please contact the school",
			"The school counseling team needs to speak with you today regarding your child.",
			event.ID); err != nil {
			return err
		}
	}
	return nil
}

// HandleSessionEvent reacts to session.finalized and reward.credited with
// student-facing notifications.
func (s *Service) HandleSessionEvent(ctx context.Context, event models.Event) error {
	subjectID, err := subjectFromEvent(event)
	if err != nil {
		return err
	}

	switch event.Type {
	case "session.finalized":
		return s.create(ctx, subjectID, ChannelStudent,
			"Check-in complete",
			"Thanks for completing your check-in. Your responses help us support you better.",
			event.ID)
	case "reward.credited":
		points, _ := event.Data["points"].(float64)
		return s.create(ctx, subjectID, ChannelStudent,
			"Points earned",
			fmt.Sprintf("You earned %d points for completing a check-in.", int(points)),
			event.ID)
	}
	return nil
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]Notification, error) {
	return s.store.ListBySubject(ctx, subjectID, limit)
}

func (s *Service) create(ctx context.Context, subjectID uuid.UUID, channel Channel, title, body, eventID string) error {
	n, err := s.store.Create(ctx, Notification{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Channel:   channel,
		Title:     title,
		Body:      body,
		EventID:   eventID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	metrics.IncNotificationDispatched()
	logger.Log.WithFields(map[string]interface{}{
		"notification_id": n.ID,
		"channel":         string(channel),
	}).Info("notification dispatched")
	return nil
}

func subjectFromEvent(event models.Event) (uuid.UUID, error) {
	raw, _ := event.Data["subject_id"].(string)
	subjectID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("event %s carries no valid subject_id: %w", event.ID, err)
	}
	return subjectID, nil
}
