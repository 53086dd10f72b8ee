package session

import (
	"time"

	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
)

type Action string

const (
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
)

// legal transitions: INITIAL -> IN_PROGRESS -> {PAUSED <-> IN_PROGRESS,
// FINALIZED, CANCELLED}; PAUSED -> CANCELLED.
var transitions = map[models.SessionStatus]map[Action]models.SessionStatus{
	models.SessionInProgress: {
		ActionPause:    models.SessionPaused,
		ActionFinalize: models.SessionFinalized,
		ActionCancel:   models.SessionCancelled,
	},
	models.SessionPaused: {
		ActionResume: models.SessionInProgress,
		ActionCancel: models.SessionCancelled,
	},
}

// Activate moves a freshly created session into IN_PROGRESS.
func Activate(s *models.Session) error {
	if s.Status != models.SessionInitial {
		return apperr.InvalidTransition(string(s.Status), string(models.SessionInProgress))
	}
	s.Status = models.SessionInProgress
	return nil
}

// Transition applies a lifecycle action in place. An illegal action returns
// InvalidTransition naming current and requested state and leaves the
// session untouched.
func Transition(s *models.Session, action Action, now time.Time) error {
	next, ok := transitions[s.Status][action]
	if !ok {
		return apperr.InvalidTransition(string(s.Status), string(action))
	}

	s.Status = next
	switch action {
	case ActionPause:
		s.PausedAt = &now
	case ActionResume:
		s.PausedAt = nil
	case ActionFinalize, ActionCancel:
		s.FinishedAt = &now
		s.ElapsedSeconds = now.Sub(s.StartedAt).Seconds()
	}
	return nil
}
