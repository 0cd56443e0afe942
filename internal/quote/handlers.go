package quote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/config"
	"github.com/noah-isme/backend-mealbox/internal/obs"
	"github.com/noah-isme/backend-mealbox/internal/pricing"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// PlanLister is the slice of the store the plan listing needs.
type PlanLister interface {
	ListPlans(ctx context.Context) ([]store.Plan, error)
}

// Handler serves price quotes and the plan catalog.
type Handler struct {
	Pricing pricing.Config
	Plans   PlanLister
	Log     zerolog.Logger
}

// PricingConfigFrom builds the immutable pricing configuration from app config.
func PricingConfigFrom(cfg *config.Config) pricing.Config {
	return pricing.Config{
		MainMealPrice:   cfg.PriceMainMeal,
		BreakfastPrice:  cfg.PriceBreakfast,
		SnackPrice:      cfg.PriceSnack,
		PlanMultipliers: cfg.PlanMultipliers,
		DayBands:        pricing.DefaultDayBands(),
		VolumeBands:     pricing.DefaultVolumeBands(),
		DurationRates:   pricing.DefaultDurationRates(),
		PromoRates:      cfg.PromoRates,
	}
}

// Quote handles POST /quotes: price a meal selection without persisting anything.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var sel pricing.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", nil)
		return
	}

	result, err := pricing.Calculate(sel, h.Pricing)
	if err != nil {
		if verr, ok := pricing.AsValidationError(err); ok {
			if obs.QuoteTotal != nil {
				obs.QuoteTotal.WithLabelValues("invalid").Inc()
			}
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "selection is invalid", verr.Violations)
			return
		}
		h.Log.Error().Err(err).Msg("quote failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}

	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues("ok").Inc()
	}
	if obs.QuoteDiscountCategory != nil {
		obs.QuoteDiscountCategory.WithLabelValues(string(result.WeeklyDiscount.Category)).Inc()
	}
	common.JSON(w, http.StatusOK, result)
}

type planResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// ListPlans handles GET /plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Plans.ListPlans(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("list plans failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{ID: p.ID, Name: p.Name, Multiplier: p.Multiplier})
	}
	common.JSON(w, http.StatusOK, map[string]any{"plans": out})
}
