package assessment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
	"github.com/sentira-edu/platform/pkg/session"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sessions", h.handleStartSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/responses", h.handleSubmitResponse).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/state", h.handleChangeState).Methods(http.MethodPatch)
	r.HandleFunc("/sessions/{id}/result", h.handleGetResult).Methods(http.MethodGet)
	r.HandleFunc("/subjects/{id}/sessions", h.handleListSessions).Methods(http.MethodGet)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.QuestionnaireRef == "" || req.SubjectID == uuid.Nil {
		http.Error(w, "questionnaire_ref and subject_id are required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.StartSession(r.Context(), req.QuestionnaireRef, req.SubjectID)
	if err != nil {
		h.writeError(w, err, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	var req models.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := h.service.SubmitResponse(r.Context(), sessionID, req)
	if err != nil {
		h.writeError(w, err, "failed to submit response")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleChangeState(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	var req models.ChangeSessionStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	action := session.Action(req.Action)
	switch action {
	case session.ActionPause, session.ActionResume, session.ActionFinalize, session.ActionCancel:
	default:
		http.Error(w, "invalid action", http.StatusBadRequest)
		return
	}

	sess, err := h.service.ChangeSessionState(r.Context(), sessionID, action)
	if err != nil {
		h.writeError(w, err, "failed to change session state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	result, err := h.service.GetSessionResult(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err, "failed to compute session result")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid subject id", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := h.service.ListSessions(r.Context(), subjectID, limit)
	if err != nil {
		h.writeError(w, err, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": sessions})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, apperr.ErrSessionNotFound),
		errors.Is(err, apperr.ErrItemNotFound),
		errors.Is(err, apperr.ErrQuestionnaireNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrConcurrentModification):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrInvalidScoreRange), errors.Is(err, apperr.ErrInsufficientData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.Log.WithError(err).Error(message)
		http.Error(w, message, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
