package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the assessment engine packages. Callers match
// with errors.Is; constructors below attach detail while keeping the
// sentinel in the chain.
var (
	ErrInvalidTransition         = errors.New("invalid session state transition")
	ErrSessionNotFound           = errors.New("session not found")
	ErrItemNotFound              = errors.New("item not found")
	ErrQuestionnaireNotFound     = errors.New("questionnaire not found")
	ErrConcurrentModification    = errors.New("concurrent session modification")
	ErrInsufficientData          = errors.New("insufficient data")
	ErrDuplicateItemPresentation = errors.New("item already presented in session")
	ErrInvalidScoreRange         = errors.New("score outside scale range")
)

func InvalidTransition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func SessionNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

func ItemNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

func DuplicateItemPresentation(sessionID, itemID string) error {
	return fmt.Errorf("%w: session %s item %s", ErrDuplicateItemPresentation, sessionID, itemID)
}

func InvalidScoreRange(scale string, score, min, max float64) error {
	return fmt.Errorf("%w: %s score %.2f not in [%.0f, %.0f]", ErrInvalidScoreRange, scale, score, min, max)
}
