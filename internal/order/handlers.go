package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/pricing"
	"github.com/noah-isme/backend-mealbox/internal/schedule"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// Handler exposes order creation and retrieval over HTTP.
type Handler struct {
	Svc *Service
}

type createRequest struct {
	Selection    pricing.Selection `json:"selection"`
	StartDate    string            `json:"startDate,omitempty"`
	DeliveryDays []string          `json:"deliveryDays,omitempty"`
}

type orderResponse struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	PlanID            string          `json:"planId"`
	Selection         json.RawMessage `json:"selection"`
	DailyCost         float64         `json:"dailyCost"`
	WeeklyCost        float64         `json:"weeklyCost"`
	SubscriptionCost  float64         `json:"subscriptionCost"`
	DiscountCategory  string          `json:"discountCategory,omitempty"`
	DiscountRate      float64         `json:"discountRate"`
	DiscountAmount    float64         `json:"discountAmount"`
	DurationDiscount  float64         `json:"durationDiscountAmount"`
	TotalSavings      float64         `json:"totalSavings"`
	PauseCount        int32           `json:"pauseCount"`
	PauseDurationDays *int32          `json:"pauseDurationDays,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type deliveryResponse struct {
	ID            string     `json:"id"`
	ScheduledDate string     `json:"scheduledDate"`
	Status        string     `json:"status"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func toOrderResponse(o store.Order) orderResponse {
	return orderResponse{
		ID:                o.ID.String(),
		Status:            string(o.Status),
		PlanID:            o.PlanID,
		Selection:         json.RawMessage(o.Selection),
		DailyCost:         o.DailyCost,
		WeeklyCost:        o.WeeklyCost,
		SubscriptionCost:  o.SubscriptionCost,
		DiscountCategory:  o.DiscountCategory,
		DiscountRate:      o.DiscountRate,
		DiscountAmount:    o.DiscountAmount,
		DurationDiscount:  o.DurationDiscount,
		TotalSavings:      o.TotalSavings,
		PauseCount:        o.PauseCount,
		PauseDurationDays: o.PauseDurationDays,
		CreatedAt:         o.CreatedAt,
	}
}

// Create handles POST /orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	customerUUID, err := uuid.Parse(customerID)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "customer id must be a UUID", nil)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", nil)
		return
	}

	var start time.Time
	if req.StartDate != "" {
		start, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_START_DATE", "startDate must be YYYY-MM-DD", nil)
			return
		}
	}

	order, scheduled, err := h.Svc.Create(r.Context(), CreateParams{
		CustomerID:   customerUUID,
		Selection:    req.Selection,
		StartDate:    start,
		DeliveryDays: req.DeliveryDays,
	})
	if err != nil {
		if verr, ok := pricing.AsValidationError(err); ok {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "selection is invalid", verr.Violations)
			return
		}
		if errors.Is(err, schedule.ErrScheduleExists) {
			common.JSONError(w, http.StatusConflict, "SCHEDULE_EXISTS", "order already has a delivery schedule", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}

	common.JSON(w, http.StatusCreated, map[string]any{
		"order":               toOrderResponse(order),
		"deliveriesScheduled": scheduled,
	})
}

// Get handles GET /orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "order id must be a UUID", nil)
		return
	}
	order, err := h.Svc.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(order)})
}

// Deliveries handles GET /orders/{orderId}/deliveries.
func (h *Handler) Deliveries(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "order id must be a UUID", nil)
		return
	}
	deliveries, err := h.Svc.Deliveries(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	out := make([]deliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, deliveryResponse{
			ID:            d.ID.String(),
			ScheduledDate: d.ScheduledDate.Format("2006-01-02"),
			Status:        string(d.Status),
			DeliveredAt:   d.DeliveredAt,
			Notes:         d.Notes,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"deliveries": out})
}
