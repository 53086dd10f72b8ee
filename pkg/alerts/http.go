package alerts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.handleListByStatus).Methods(http.MethodGet)
	r.HandleFunc("/subjects/{id}/alerts", h.handleListBySubject).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}/status", h.handleUpdateStatus).Methods(http.MethodPatch)
}

func (h *Handler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	status := models.AlertStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.AlertPending
	}
	alerts, err := h.service.ListByStatus(r.Context(), status, parseLimit(r, 50))
	if err != nil {
		logger.Log.WithError(err).Error("failed to list alerts")
		http.Error(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": alerts})
}

func (h *Handler) handleListBySubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid subject id", http.StatusBadRequest)
		return
	}
	alerts, err := h.service.ListBySubject(r.Context(), subjectID, parseLimit(r, 50))
	if err != nil {
		logger.Log.WithError(err).Error("failed to list subject alerts")
		http.Error(w, "failed to list alerts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": alerts})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Status models.AlertStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch payload.Status {
	case models.AlertAcknowledged, models.AlertInFollowup, models.AlertResolved:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	alert, err := h.service.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		logger.Log.WithError(err).Error("failed to update alert status")
		http.Error(w, "failed to update alert", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alert": alert})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
