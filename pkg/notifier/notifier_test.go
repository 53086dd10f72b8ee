package notifier

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeStore struct {
	created []Notification
}

func (f *fakeStore) Create(_ context.Context, n Notification) (Notification, error) {
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeStore) ListBySubject(_ context.Context, subjectID uuid.UUID, _ int) ([]Notification, error) {
	var result []Notification
	for _, n := range f.created {
		if n.SubjectID == subjectID {
			result = append(result, n)
		}
	}
	return result, nil
}

func alertEvent(eventType string, subjectID uuid.UUID, immediate bool) models.Event {
	return models.Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Source: "assessment-service",
		Data: map[string]interface{}{
			"subject_id":                subjectID.String(),
			"level":                     "RED",
			"kind":                      "IMMEDIATE_CRISIS",
			"requires_immediate_action": immediate,
		},
	}
}

func TestAlertNotifiesCounselor(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store)

	subject := uuid.New()
	if err := service.HandleAlertEvent(context.Background(), alertEvent("alert.raised", subject, false)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(store.created))
	}
	if store.created[0].Channel != ChannelCounselor {
		t.Fatalf("expected counselor channel, got %s", store.created[0].Channel)
	}
}

func TestImmediateAlertAlsoNotifiesGuardian(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store)

	subject := uuid.New()
	if err := service.HandleAlertEvent(context.Background(), alertEvent("alert.updated", subject, true)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(store.created) != 2 {
		t.Fatalf("expected two notifications, got %d", len(store.created))
	}
	channels := map[Channel]bool{}
	for _, n := range store.created {
		channels[n.Channel] = true
	}
	if !channels[ChannelCounselor] || !channels[ChannelGuardian] {
		t.Fatalf("expected counselor and guardian channels, got %v", channels)
	}
}

func TestSessionEventsNotifyStudent(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store)
	subject := uuid.New()

	finalized := models.Event{
		ID:   uuid.New().String(),
		Type: "session.finalized",
		Data: map[string]interface{}{"subject_id": subject.String()},
	}
	if err := service.HandleSessionEvent(context.Background(), finalized); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	// JSON round-trips numbers as float64, which is what the consumer hands us.
	reward := models.Event{
		ID:   uuid.New().String(),
		Type: "reward.credited",
		Data: map[string]interface{}{"subject_id": subject.String(), "points": float64(90)},
	}
	if err := service.HandleSessionEvent(context.Background(), reward); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(store.created) != 2 {
		t.Fatalf("expected two notifications, got %d", len(store.created))
	}
	for _, n := range store.created {
		if n.Channel != ChannelStudent {
			t.Fatalf("expected student channel, got %s", n.Channel)
		}
	}
	if store.created[1].Body != "You earned 90 points for completing a check-in." {
		t.Fatalf("unexpected reward body: %q", store.created[1].Body)
	}
}

func TestMalformedSubjectRejected(t *testing.T) {
	store := &fakeStore{}
	service := NewService(store)

	event := models.Event{
		ID:   uuid.New().String(),
		Type: "session.finalized",
		Data: map[string]interface{}{"subject_id": "not-a-uuid"},
	}
	if err := service.HandleSessionEvent(context.Background(), event); err == nil {
		t.Fatal("expected error for malformed subject id")
	}
	if len(store.created) != 0 {
		t.Fatal("no notification should be stored for a malformed event")
	}
}
