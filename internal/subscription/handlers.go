package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/obs"
)

// Handler exposes the pause/resume operations over HTTP.
type Handler struct {
	Svc *Service
}

type pauseRequest struct {
	PauseDurationDays int `json:"pauseDurationDays"`
}

type resumeRequest struct {
	ResumeDate string `json:"resumeDate"`
}

type actionResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResumeDate string `json:"resumeDate,omitempty"`
}

// Pause handles POST /orders/{orderId}/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "order id must be a UUID", nil)
		return
	}
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", nil)
		return
	}

	resumeDate, err := h.Svc.Pause(r.Context(), orderID, req.PauseDurationDays)
	if err != nil {
		countOutcome(obs.PauseTotal, "rejected")
		writeEngineError(w, err)
		return
	}
	countOutcome(obs.PauseTotal, "ok")
	common.JSON(w, http.StatusOK, actionResponse{
		Success:    true,
		Message:    "subscription paused",
		ResumeDate: resumeDate.Format("2006-01-02"),
	})
}

// Resume handles POST /orders/{orderId}/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "order id must be a UUID", nil)
		return
	}
	var req resumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", nil)
		return
	}

	var resumeDate *time.Time
	if req.ResumeDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ResumeDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_RESUME_DATE", "resumeDate must be YYYY-MM-DD", nil)
			return
		}
		resumeDate = &parsed
	}

	if err := h.Svc.Resume(r.Context(), orderID, resumeDate); err != nil {
		countOutcome(obs.ResumeTotal, "rejected")
		writeEngineError(w, err)
		return
	}
	countOutcome(obs.ResumeTotal, "ok")
	common.JSON(w, http.StatusOK, actionResponse{Success: true, Message: "subscription resumed"})
}

func countOutcome(vec *prometheus.CounterVec, result string) {
	if vec != nil {
		vec.WithLabelValues(result).Inc()
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrAlreadyPaused):
		common.JSONError(w, http.StatusConflict, "ALREADY_PAUSED", err.Error(), nil)
	case errors.Is(err, ErrPauseLimitExceeded):
		common.JSONError(w, http.StatusConflict, "PAUSE_LIMIT_EXCEEDED", err.Error(), nil)
	case errors.Is(err, ErrDurationTooLong):
		common.JSONError(w, http.StatusUnprocessableEntity, "DURATION_TOO_LONG", err.Error(), nil)
	case errors.Is(err, ErrInvalidDuration):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_DURATION", err.Error(), nil)
	case errors.Is(err, ErrNoEligibleDelivery):
		common.JSONError(w, http.StatusConflict, "NO_ELIGIBLE_DELIVERY", err.Error(), nil)
	case errors.Is(err, ErrNotActive):
		common.JSONError(w, http.StatusConflict, "NOT_ACTIVE", err.Error(), nil)
	case errors.Is(err, ErrNotPaused):
		common.JSONError(w, http.StatusConflict, "NOT_PAUSED", err.Error(), nil)
	case errors.Is(err, ErrInsufficientNotice):
		common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_NOTICE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
