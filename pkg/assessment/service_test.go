package assessment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
	"github.com/sentira-edu/platform/pkg/interpret"
	"github.com/sentira-edu/platform/pkg/itembank"
	"github.com/sentira-edu/platform/pkg/session"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// In-memory collaborators mirroring the storage contracts.

type memStore struct {
	sessions  map[uuid.UUID]models.Session
	responses map[uuid.UUID][]models.Response
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[uuid.UUID]models.Session),
		responses: make(map[uuid.UUID][]models.Response),
	}
}

func (m *memStore) Create(_ context.Context, s models.Session) (models.Session, error) {
	s.Version = 1
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) Load(_ context.Context, id uuid.UUID) (models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, apperr.SessionNotFound(id.String())
	}
	return s, nil
}

func (m *memStore) Save(_ context.Context, s models.Session) (models.Session, error) {
	current, ok := m.sessions[s.ID]
	if !ok {
		return models.Session{}, apperr.SessionNotFound(s.ID.String())
	}
	if current.Version != s.Version {
		return models.Session{}, fmt.Errorf("%w: session %s", apperr.ErrConcurrentModification, s.ID)
	}
	s.Version++
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) SaveWithResponse(_ context.Context, s models.Session, resp models.Response) (models.Session, error) {
	current, ok := m.sessions[s.ID]
	if !ok {
		return models.Session{}, apperr.SessionNotFound(s.ID.String())
	}
	if current.Version != s.Version {
		return models.Session{}, fmt.Errorf("%w: session %s", apperr.ErrConcurrentModification, s.ID)
	}
	s.Version++
	m.sessions[s.ID] = s
	m.responses[resp.SessionID] = append(m.responses[resp.SessionID], resp)
	return s, nil
}

func (m *memStore) LoadResponses(_ context.Context, sessionID uuid.UUID) ([]models.Response, error) {
	return m.responses[sessionID], nil
}

func (m *memStore) ListBySubject(_ context.Context, subjectID uuid.UUID, _ int) ([]models.Session, error) {
	var result []models.Session
	for _, s := range m.sessions {
		if s.SubjectID == subjectID {
			result = append(result, s)
		}
	}
	return result, nil
}

type memItems struct {
	questionnaire models.Questionnaire
	items         []models.Item
}

func (m *memItems) ActiveItems(_ context.Context, _ string) ([]models.Item, error) {
	return m.items, nil
}

func (m *memItems) Item(_ context.Context, id uuid.UUID) (models.Item, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.Item{}, apperr.ItemNotFound(id.String())
}

func (m *memItems) Questionnaire(_ context.Context, _ string) (models.Questionnaire, error) {
	return m.questionnaire, nil
}

type memAlerts struct {
	raised []models.Alert
}

func (m *memAlerts) Raise(_ context.Context, alert models.Alert) (models.Alert, error) {
	alert.ID = uuid.New()
	alert.Status = models.AlertPending
	alert.CreatedAt = time.Now()
	m.raised = append(m.raised, alert)
	return alert, nil
}

func (m *memAlerts) ListBySubject(_ context.Context, subjectID uuid.UUID, _ int) ([]models.Alert, error) {
	var result []models.Alert
	for _, alert := range m.raised {
		if alert.SubjectID == subjectID {
			result = append(result, alert)
		}
	}
	return result, nil
}

type memPublisher struct {
	events []string
}

func (m *memPublisher) PublishEvent(_ context.Context, eventType string, _ string, _ map[string]interface{}) error {
	m.events = append(m.events, eventType)
	return nil
}

func phq9Items() []models.Item {
	catalog := itembank.DefaultCatalog()
	var items []models.Item
	for _, q := range catalog.Questionnaires {
		if q.Ref != "phq-9" {
			continue
		}
		for _, ci := range q.Items {
			items = append(items, models.Item{
				ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("test:"+ci.ScaleItemCode)),
				Category:       models.Category(ci.Category),
				Discrimination: ci.Discrimination,
				Difficulty:     ci.Difficulty,
				ScaleMin:       ci.ScaleMin,
				ScaleMax:       ci.ScaleMax,
				Order:          ci.Order,
				Weight:         1,
				ScaleName:      ci.ScaleName,
				ScaleItemCode:  ci.ScaleItemCode,
				Active:         true,
			})
		}
	}
	return items
}

func newTestService(store SessionStore, items *memItems, sink *memAlerts, publisher *memPublisher) *Service {
	return NewService(
		store,
		items,
		interpret.New(interpret.DefaultCatalog()),
		sink,
		publisher,
		session.StopPolicy{MinResponses: 5, SEMThreshold: 0.30, MaxItemRatio: 0.6},
		0, 1,
	)
}

func TestFullScreeningFlowRaisesCrisisAlert(t *testing.T) {
	store := newMemStore()
	items := &memItems{
		questionnaire: models.Questionnaire{Ref: "phq-9", Adaptive: false, Active: true},
		items:         phq9Items(),
	}
	sink := &memAlerts{}
	publisher := &memPublisher{}
	service := newTestService(store, items, sink, publisher)

	subject := uuid.New()
	start, err := service.StartSession(context.Background(), "phq-9", subject)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if start.Session.Status != models.SessionInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", start.Session.Status)
	}
	if start.FirstItem == nil || start.FirstItem.Order != 1 {
		t.Fatalf("expected first item in fixed order, got %+v", start.FirstItem)
	}

	// Answer every item at the scale maximum.
	current := start.FirstItem
	var lastResult models.SubmitResponseResult
	seen := make(map[uuid.UUID]bool)
	for current != nil {
		if seen[current.ID] {
			t.Fatalf("item %s presented twice", current.ID)
		}
		seen[current.ID] = true

		lastResult, err = service.SubmitResponse(context.Background(), start.Session.ID, models.SubmitResponseRequest{
			ItemID:           &current.ID,
			RawValue:         models.NumericValue(3),
			ResponseTimeSecs: 4,
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		current = lastResult.NextItem
	}

	if !lastResult.ShouldFinalize {
		t.Fatal("expected finalize signal after exhausting the pool")
	}
	if lastResult.FinalizeReason != models.StopPoolExhausted {
		t.Fatalf("expected POOL_EXHAUSTED, got %s", lastResult.FinalizeReason)
	}
	if lastResult.UpdatedTheta <= 0 {
		t.Fatalf("expected positive theta after max answers, got %f", lastResult.UpdatedTheta)
	}
	if lastResult.StandardError >= 1 {
		t.Fatalf("expected SEM below prior after nine answers, got %f", lastResult.StandardError)
	}

	sess, err := service.ChangeSessionState(context.Background(), start.Session.ID, session.ActionFinalize)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if sess.Status != models.SessionFinalized || sess.FinishedAt == nil {
		t.Fatalf("finalize did not close the session: %+v", sess)
	}
	if sess.MeanResponseSecs != 4 {
		t.Fatalf("expected mean response time 4s, got %f", sess.MeanResponseSecs)
	}

	// Max answers on PHQ-9 include a positive self-harm item: the combined
	// alert must be RED with immediate action.
	if len(sink.raised) != 1 {
		t.Fatalf("expected one alert, got %d", len(sink.raised))
	}
	alert := sink.raised[0]
	if alert.Level != models.AlertRed || !alert.RequiresImmediateAction {
		t.Fatalf("expected RED immediate-action alert, got %+v", alert)
	}
	if alert.Kind != models.RiskImmediateCrisis {
		t.Fatalf("expected IMMEDIATE_CRISIS, got %s", alert.Kind)
	}

	foundFinalized, foundReward := false, false
	for _, event := range publisher.events {
		if event == "session.finalized" {
			foundFinalized = true
		}
		if event == "reward.credited" {
			foundReward = true
		}
	}
	if !foundFinalized || !foundReward {
		t.Fatalf("expected session.finalized and reward.credited events, got %v", publisher.events)
	}

	result, err := service.GetSessionResult(context.Background(), start.Session.ID)
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if len(result.Interpretations) != 1 || result.Interpretations[0].Scale != "PHQ-9" {
		t.Fatalf("expected one PHQ-9 interpretation, got %+v", result.Interpretations)
	}
	if result.Interpretations[0].Severity != models.SeveritySevere {
		t.Fatalf("expected SEVERE at total 27, got %s", result.Interpretations[0].Severity)
	}
	if len(result.Alerts) != 1 {
		t.Fatalf("expected session alert in result, got %d", len(result.Alerts))
	}
	if result.OverallScore <= 0 {
		t.Fatal("expected non-zero overall score")
	}
}

func TestSubmitRejectedWhenNotInProgress(t *testing.T) {
	store := newMemStore()
	items := &memItems{
		questionnaire: models.Questionnaire{Ref: "phq-9", Adaptive: false, Active: true},
		items:         phq9Items(),
	}
	service := newTestService(store, items, &memAlerts{}, &memPublisher{})

	start, err := service.StartSession(context.Background(), "phq-9", uuid.New())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.ChangeSessionState(context.Background(), start.Session.ID, session.ActionPause); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	_, err = service.SubmitResponse(context.Background(), start.Session.ID, models.SubmitResponseRequest{
		ItemID:   &start.FirstItem.ID,
		RawValue: models.NumericValue(1),
	})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected InvalidTransition on paused session, got %v", err)
	}
}

func TestCancelSkipsScoringAndAlerts(t *testing.T) {
	store := newMemStore()
	items := &memItems{
		questionnaire: models.Questionnaire{Ref: "phq-9", Adaptive: false, Active: true},
		items:         phq9Items(),
	}
	sink := &memAlerts{}
	publisher := &memPublisher{}
	service := newTestService(store, items, sink, publisher)

	start, err := service.StartSession(context.Background(), "phq-9", uuid.New())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.SubmitResponse(context.Background(), start.Session.ID, models.SubmitResponseRequest{
		ItemID:   &start.FirstItem.ID,
		RawValue: models.NumericValue(3),
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	sess, err := service.ChangeSessionState(context.Background(), start.Session.ID, session.ActionCancel)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if sess.Status != models.SessionCancelled || sess.FinishedAt == nil {
		t.Fatalf("cancel did not close the session: %+v", sess)
	}
	if len(sink.raised) != 0 {
		t.Fatal("cancel must not raise alerts")
	}
	for _, event := range publisher.events {
		if event == "session.finalized" || event == "reward.credited" {
			t.Fatalf("cancel must not publish %s", event)
		}
	}
}

func TestAdaptiveSessionRespectsItemCeiling(t *testing.T) {
	store := newMemStore()
	items := &memItems{
		questionnaire: models.Questionnaire{Ref: "wellbeing-checkin", Adaptive: true, Active: true},
		items:         checkinItems(),
	}
	service := newTestService(store, items, &memAlerts{}, &memPublisher{})

	start, err := service.StartSession(context.Background(), "wellbeing-checkin", uuid.New())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 10 items at ratio 0.6 cap presentations at 6. Middling answers keep
	// the SEM above threshold so the ceiling is what stops the session.
	current := start.FirstItem
	var last models.SubmitResponseResult
	presented := 1
	for current != nil {
		last, err = service.SubmitResponse(context.Background(), start.Session.ID, models.SubmitResponseRequest{
			ItemID:           &current.ID,
			RawValue:         models.NumericValue(3),
			ResponseTimeSecs: 2,
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		current = last.NextItem
		if current != nil {
			presented++
		}
	}

	if presented > 6 {
		t.Fatalf("adaptive ceiling breached: %d items presented", presented)
	}
	if !last.ShouldFinalize {
		t.Fatal("expected finalize signal at the ceiling")
	}
}

// conflictOnceStore loses the conditional write a set number of times, the
// way a racing writer would between the service's load and save.
type conflictOnceStore struct {
	*memStore
	conflicts int
}

func (c *conflictOnceStore) SaveWithResponse(ctx context.Context, s models.Session, resp models.Response) (models.Session, error) {
	if c.conflicts > 0 {
		c.conflicts--
		return models.Session{}, fmt.Errorf("%w: session %s version %d", apperr.ErrConcurrentModification, s.ID, s.Version)
	}
	return c.memStore.SaveWithResponse(ctx, s, resp)
}

func TestLostSubmitRacePersistsNothing(t *testing.T) {
	inner := newMemStore()
	store := &conflictOnceStore{memStore: inner, conflicts: 1}
	items := &memItems{
		questionnaire: models.Questionnaire{Ref: "phq-9", Adaptive: false, Active: true},
		items:         phq9Items(),
	}
	service := newTestService(store, items, &memAlerts{}, &memPublisher{})

	start, err := service.StartSession(context.Background(), "phq-9", uuid.New())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	req := models.SubmitResponseRequest{
		ItemID:   &start.FirstItem.ID,
		RawValue: models.NumericValue(2),
	}

	_, err = service.SubmitResponse(context.Background(), start.Session.ID, req)
	if !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("expected ConcurrentModification, got %v", err)
	}
	if got := len(inner.responses[start.Session.ID]); got != 0 {
		t.Fatalf("rejected submit must persist no response rows, found %d", got)
	}

	// The mandated retry stores the answer exactly once.
	result, err := service.SubmitResponse(context.Background(), start.Session.ID, req)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	rows := inner.responses[start.Session.ID]
	if len(rows) != 1 {
		t.Fatalf("expected one stored response after retry, got %d", len(rows))
	}
	if rows[0].Order != 1 {
		t.Fatalf("expected response order 1, got %d", rows[0].Order)
	}
	if result.NextItem == nil || result.NextItem.ID == start.FirstItem.ID {
		t.Fatal("expected a fresh next item after the retry")
	}
}

func TestAdaptivePresentationStaysDuplicateFree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		store := newMemStore()
		items := &memItems{
			questionnaire: models.Questionnaire{Ref: "wellbeing-checkin", Adaptive: true, Active: true},
			items:         checkinItems(),
		}
		service := newTestService(store, items, &memAlerts{}, &memPublisher{})

		start, err := service.StartSession(context.Background(), "wellbeing-checkin", uuid.New())
		if err != nil {
			t.Fatalf("trial %d: start failed: %v", trial, err)
		}

		current := start.FirstItem
		for current != nil {
			result, err := service.SubmitResponse(context.Background(), start.Session.ID, models.SubmitResponseRequest{
				ItemID:   &current.ID,
				RawValue: models.NumericValue(float64(1 + rng.Intn(5))),
			})
			if err != nil {
				t.Fatalf("trial %d: submit failed: %v", trial, err)
			}
			current = result.NextItem
		}

		sess := store.sessions[start.Session.ID]
		if len(sess.PresentedItemIDs) == 0 {
			t.Fatalf("trial %d: no items presented", trial)
		}
		seen := make(map[uuid.UUID]bool, len(sess.PresentedItemIDs))
		for _, id := range sess.PresentedItemIDs {
			if seen[id] {
				t.Fatalf("trial %d: item %s presented twice", trial, id)
			}
			seen[id] = true
		}
	}
}

func checkinItems() []models.Item {
	catalog := itembank.DefaultCatalog()
	var items []models.Item
	for _, q := range catalog.Questionnaires {
		if q.Ref != "wellbeing-checkin" {
			continue
		}
		for i, ci := range q.Items {
			items = append(items, models.Item{
				ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("test:checkin:%d", i))),
				Category:       models.Category(ci.Category),
				Discrimination: ci.Discrimination,
				Difficulty:     ci.Difficulty,
				ScaleMin:       ci.ScaleMin,
				ScaleMax:       ci.ScaleMax,
				Order:          ci.Order,
				Weight:         1,
				Active:         true,
			})
		}
	}
	return items
}
