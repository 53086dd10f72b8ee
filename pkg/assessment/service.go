package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
	"github.com/sentira-edu/platform/pkg/interpret"
	"github.com/sentira-edu/platform/pkg/irt"
	"github.com/sentira-edu/platform/pkg/itembank"
	"github.com/sentira-edu/platform/pkg/observability/metrics"
	"github.com/sentira-edu/platform/pkg/scoring"
	"github.com/sentira-edu/platform/pkg/session"
)

// SessionStore is the storage collaborator for sessions and their
// append-only responses. Save and SaveWithResponse are conditional on the
// loaded version and return ConcurrentModification on a lost race;
// SaveWithResponse persists the response row and the session write together,
// so a rejected save leaves no trace of the answer.
type SessionStore interface {
	Create(ctx context.Context, s models.Session) (models.Session, error)
	Load(ctx context.Context, id uuid.UUID) (models.Session, error)
	Save(ctx context.Context, s models.Session) (models.Session, error)
	SaveWithResponse(ctx context.Context, s models.Session, resp models.Response) (models.Session, error)
	LoadResponses(ctx context.Context, sessionID uuid.UUID) ([]models.Response, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Session, error)
}

// AlertSink is the slice of the alert service the engine drives.
type AlertSink interface {
	Raise(ctx context.Context, alert models.Alert) (models.Alert, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Alert, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const eventSource = "assessment-service"

// Service orchestrates the adaptive assessment flow: trait estimation,
// item selection, stopping, scoring, interpretation and alerting. It holds
// no mutable state of its own; every operation loads a session snapshot,
// computes and writes back.
type Service struct {
	sessions    SessionStore
	items       itembank.Source
	interpreter *interpret.Interpreter
	alerts      AlertSink
	publisher   Publisher

	stop         session.StopPolicy
	initialTheta float64
	initialSEM   float64
	now          func() time.Time
}

func NewService(
	sessions SessionStore,
	items itembank.Source,
	interpreter *interpret.Interpreter,
	alerts AlertSink,
	publisher Publisher,
	stop session.StopPolicy,
	initialTheta, initialSEM float64,
) *Service {
	return &Service{
		sessions:     sessions,
		items:        items,
		interpreter:  interpreter,
		alerts:       alerts,
		publisher:    publisher,
		stop:         stop,
		initialTheta: initialTheta,
		initialSEM:   initialSEM,
		now:          time.Now,
	}
}

// StartSession creates an IN_PROGRESS session and hands out the first item.
func (s *Service) StartSession(ctx context.Context, questionnaireRef string, subjectID uuid.UUID) (models.StartSessionResponse, error) {
	questionnaire, err := s.items.Questionnaire(ctx, questionnaireRef)
	if err != nil {
		return models.StartSessionResponse{}, err
	}
	items, err := s.items.ActiveItems(ctx, questionnaireRef)
	if err != nil {
		return models.StartSessionResponse{}, err
	}

	now := s.now()
	sess := models.Session{
		ID:               uuid.New(),
		SubjectID:        subjectID,
		QuestionnaireRef: questionnaireRef,
		Status:           models.SessionInitial,
		Theta:            s.initialTheta,
		StandardError:    s.initialSEM,
		Confidence:       0,
		StartedAt:        now,
	}
	if err := session.Activate(&sess); err != nil {
		return models.StartSessionResponse{}, err
	}

	firstItem := irt.SelectNext(sess.Theta, items, questionnaire.Adaptive)
	if firstItem != nil {
		sess.PresentedItemIDs = append(sess.PresentedItemIDs, firstItem.ID)
	}

	created, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return models.StartSessionResponse{}, err
	}

	metrics.IncSessionStarted()
	logger.Log.WithFields(map[string]interface{}{
		"session_id":    created.ID,
		"subject_id":    subjectID,
		"questionnaire": questionnaireRef,
	}).Info("assessment session started")

	return models.StartSessionResponse{Session: created, FirstItem: firstItem}, nil
}

// SubmitResponse records an answer, re-estimates the trait, evaluates the
// stopping rule and either hands out the next item or signals that the
// caller should finalize.
func (s *Service) SubmitResponse(ctx context.Context, sessionID uuid.UUID, req models.SubmitResponseRequest) (models.SubmitResponseResult, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return models.SubmitResponseResult{}, err
	}
	if sess.Status != models.SessionInProgress {
		return models.SubmitResponseResult{}, apperr.InvalidTransition(string(sess.Status), "submit_response")
	}

	questionnaire, err := s.items.Questionnaire(ctx, sess.QuestionnaireRef)
	if err != nil {
		return models.SubmitResponseResult{}, err
	}
	items, err := s.items.ActiveItems(ctx, sess.QuestionnaireRef)
	if err != nil {
		return models.SubmitResponseResult{}, err
	}
	byID := itemsByID(items)

	category := req.Category
	scaleMin, scaleMax := req.ScaleMin, req.ScaleMax
	var domainTag string
	if req.ItemID != nil {
		item, ok := byID[*req.ItemID]
		if !ok {
			loaded, err := s.items.Item(ctx, *req.ItemID)
			if err != nil {
				return models.SubmitResponseResult{}, err
			}
			item = loaded
		}
		category = item.Category
		scaleMin, scaleMax = item.ScaleMin, item.ScaleMax
		domainTag = item.ScaleName
	}

	normalized, err := scoring.Normalize(req.RawValue, scaleMin, scaleMax)
	if err != nil {
		return models.SubmitResponseResult{}, fmt.Errorf("failed to normalize response: %w", err)
	}

	responses, err := s.sessions.LoadResponses(ctx, sess.ID)
	if err != nil {
		return models.SubmitResponseResult{}, err
	}

	response := models.Response{
		ID:               uuid.New(),
		SessionID:        sess.ID,
		ItemID:           req.ItemID,
		RawValue:         req.RawValue,
		NormalizedValue:  normalized,
		Category:         category,
		DomainTag:        domainTag,
		ResponseTimeSecs: req.ResponseTimeSecs,
		Order:            len(responses) + 1,
		Timestamp:        s.now(),
	}
	responses = append(responses, response)

	estimate := irt.Update(
		irt.NewEstimate(s.initialTheta, s.initialSEM),
		scoredResponses(responses, byID),
	)
	sess.Theta = estimate.Theta
	sess.StandardError = estimate.StandardError
	sess.Confidence = estimate.Confidence
	sess.ResponseCount = len(responses)

	remaining := unpresented(items, &sess)
	shouldStop, reason := s.stop.Evaluate(
		sess.ResponseCount,
		sess.StandardError,
		len(remaining) == 0,
		len(sess.PresentedItemIDs),
		len(items),
		questionnaire.Adaptive,
	)

	result := models.SubmitResponseResult{
		UpdatedTheta:   sess.Theta,
		StandardError:  sess.StandardError,
		Confidence:     sess.Confidence,
		ShouldFinalize: shouldStop,
		FinalizeReason: reason,
	}

	if !shouldStop {
		next := irt.SelectNext(sess.Theta, remaining, questionnaire.Adaptive)
		if next != nil {
			if sess.Presented(next.ID) {
				// Selector contract guarantees this cannot happen; treat it
				// as a fatal consistency failure and abort the write.
				return models.SubmitResponseResult{}, apperr.DuplicateItemPresentation(sess.ID.String(), next.ID.String())
			}
			sess.PresentedItemIDs = append(sess.PresentedItemIDs, next.ID)
			result.NextItem = next
		} else {
			result.ShouldFinalize = true
			result.FinalizeReason = models.StopPoolExhausted
		}
	}

	if _, err := s.sessions.SaveWithResponse(ctx, sess, response); err != nil {
		return models.SubmitResponseResult{}, err
	}
	metrics.IncResponseRecorded()
	return result, nil
}

// ChangeSessionState applies a lifecycle action. Finalize runs scoring,
// interpretation and alerting before the session is written back; cancel
// records the end time but skips all scoring.
func (s *Service) ChangeSessionState(ctx context.Context, sessionID uuid.UUID, action session.Action) (models.Session, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	now := s.now()
	if err := session.Transition(&sess, action, now); err != nil {
		return models.Session{}, err
	}

	if action == session.ActionFinalize {
		if err := s.finalize(ctx, &sess); err != nil {
			return models.Session{}, err
		}
	}

	saved, err := s.sessions.Save(ctx, sess)
	if err != nil {
		return models.Session{}, err
	}

	switch action {
	case session.ActionFinalize:
		metrics.IncSessionFinalized()
	case session.ActionCancel:
		metrics.IncSessionCancelled()
	}

	logger.Log.WithFields(map[string]interface{}{
		"session_id": saved.ID,
		"action":     string(action),
		"status":     string(saved.Status),
	}).Info("session state changed")
	return saved, nil
}

// GetSessionResult computes the derived result view: category summaries,
// overall score, affect position, scale interpretations and the subject's
// alerts for this session.
func (s *Service) GetSessionResult(ctx context.Context, sessionID uuid.UUID) (models.SessionResult, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return models.SessionResult{}, err
	}
	responses, err := s.sessions.LoadResponses(ctx, sessionID)
	if err != nil {
		return models.SessionResult{}, err
	}
	items, err := s.items.ActiveItems(ctx, sess.QuestionnaireRef)
	if err != nil {
		return models.SessionResult{}, err
	}
	byID := itemsByID(items)

	summaries := scoring.CategoryScores(responses, itemWeights(items))
	interpretations, err := s.interpretScales(responses, byID)
	if err != nil {
		return models.SessionResult{}, err
	}

	var sessionAlerts []models.Alert
	if s.alerts != nil {
		all, err := s.alerts.ListBySubject(ctx, sess.SubjectID, 100)
		if err != nil {
			return models.SessionResult{}, err
		}
		for _, alert := range all {
			if alert.SessionID == sessionID {
				sessionAlerts = append(sessionAlerts, alert)
			}
		}
	}

	return models.SessionResult{
		SessionID:       sessionID,
		CategoryScores:  summaries,
		OverallScore:    scoring.OverallScore(summaries),
		Affect:          scoring.MapAffect(responses),
		Interpretations: interpretations,
		Alerts:          sessionAlerts,
	}, nil
}

// ListSessions returns a subject's sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Session, error) {
	return s.sessions.ListBySubject(ctx, subjectID, limit)
}

func (s *Service) finalize(ctx context.Context, sess *models.Session) error {
	responses, err := s.sessions.LoadResponses(ctx, sess.ID)
	if err != nil {
		return err
	}
	sess.MeanResponseSecs = meanResponseTime(responses)

	items, err := s.items.ActiveItems(ctx, sess.QuestionnaireRef)
	if err != nil {
		return err
	}
	byID := itemsByID(items)

	interpretations, err := s.interpretScales(responses, byID)
	if err != nil {
		return err
	}

	if err := s.raiseAlerts(ctx, sess, interpretations); err != nil {
		return err
	}

	s.publish(ctx, "session.finalized", map[string]interface{}{
		"session_id":     sess.ID.String(),
		"subject_id":     sess.SubjectID.String(),
		"questionnaire":  sess.QuestionnaireRef,
		"response_count": len(responses),
		"theta":          sess.Theta,
		"confidence":     sess.Confidence,
	})
	// Reward credit is proportional to effort; the gamification collaborator
	// consumes this event.
	s.publish(ctx, "reward.credited", map[string]interface{}{
		"subject_id": sess.SubjectID.String(),
		"session_id": sess.ID.String(),
		"points":     len(responses) * 10,
	})
	return nil
}

// interpretScales totals raw scores per validated scale present in the
// responses and runs each through the clinical interpreter.
func (s *Service) interpretScales(responses []models.Response, byID map[uuid.UUID]models.Item) ([]models.Interpretation, error) {
	var interpretations []models.Interpretation
	for name, spec := range s.interpreter.Scales() {
		total, count := scoring.ScaleRawScore(responses, byID, name)
		if count == 0 {
			continue
		}

		selfHarm := false
		if spec.SelfHarmItemCode != "" {
			for _, resp := range responses {
				if resp.ItemID == nil {
					continue
				}
				item, ok := byID[*resp.ItemID]
				if ok && item.ScaleItemCode == spec.SelfHarmItemCode && resp.NormalizedValue > 0 {
					selfHarm = true
					break
				}
			}
		}

		interp, err := s.interpreter.Interpret(name, total, selfHarm)
		if err != nil {
			return nil, err
		}
		interpretations = append(interpretations, interp)
	}
	return interpretations, nil
}

// raiseAlerts combines the alerting interpretations into a single alert per
// finalized session; the alert service dedups against the subject's window.
func (s *Service) raiseAlerts(ctx context.Context, sess *models.Session, interpretations []models.Interpretation) error {
	if s.alerts == nil {
		return nil
	}

	var triggering []models.Interpretation
	for _, interp := range interpretations {
		if interpret.ShouldAlert(interp) {
			triggering = append(triggering, interp)
		}
	}
	if len(triggering) == 0 {
		return nil
	}

	level, immediate := interpret.Combine(triggering)
	worst := triggering[0]
	for _, interp := range triggering {
		if interp.AlertLevel.Rank() > worst.AlertLevel.Rank() {
			worst = interp
		}
	}

	var recommendations []string
	seen := make(map[string]bool)
	for _, interp := range triggering {
		for _, rec := range interp.Recommendations {
			if !seen[rec] {
				seen[rec] = true
				recommendations = append(recommendations, rec)
			}
		}
	}

	_, err := s.alerts.Raise(ctx, models.Alert{
		SubjectID:               sess.SubjectID,
		SessionID:               sess.ID,
		Level:                   level,
		Kind:                    interpret.KindFor(level, immediate),
		Category:                categoryForScale(worst.Scale),
		Score:                   worst.RawScore,
		Recommendations:         recommendations,
		RequiresImmediateAction: immediate,
	})
	return err
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Error("failed to publish event")
	}
}

func itemsByID(items []models.Item) map[uuid.UUID]models.Item {
	byID := make(map[uuid.UUID]models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}

func itemWeights(items []models.Item) map[uuid.UUID]float64 {
	weights := make(map[uuid.UUID]float64, len(items))
	for _, item := range items {
		if item.Weight > 0 {
			weights[item.ID] = item.Weight
		}
	}
	return weights
}

func unpresented(items []models.Item, sess *models.Session) []models.Item {
	remaining := make([]models.Item, 0, len(items))
	for _, item := range items {
		if !sess.Presented(item.ID) {
			remaining = append(remaining, item)
		}
	}
	return remaining
}

func scoredResponses(responses []models.Response, byID map[uuid.UUID]models.Item) []irt.ScoredResponse {
	scored := make([]irt.ScoredResponse, 0, len(responses))
	for _, resp := range responses {
		sr := irt.ScoredResponse{Discrimination: 1, Difficulty: 0, Normalized: resp.NormalizedValue}
		if resp.ItemID != nil {
			if item, ok := byID[*resp.ItemID]; ok {
				sr.Discrimination = item.Discrimination
				sr.Difficulty = item.Difficulty
			}
		}
		scored = append(scored, sr)
	}
	return scored
}

func meanResponseTime(responses []models.Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	var total float64
	for _, resp := range responses {
		total += resp.ResponseTimeSecs
	}
	return total / float64(len(responses))
}

func categoryForScale(scale string) models.Category {
	switch scale {
	case "PHQ-9":
		return models.CategoryDepression
	case "GAD-7":
		return models.CategoryAnxiety
	case "WHO-5":
		return models.CategoryWellbeing
	}
	return ""
}
