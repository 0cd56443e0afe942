package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/pricing"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

type stubPlans struct {
	plans []store.Plan
}

func (s *stubPlans) ListPlans(context.Context) ([]store.Plan, error) {
	return s.plans, nil
}

func testHandler() *Handler {
	return &Handler{
		Pricing: pricing.Config{
			MainMealPrice:  40,
			BreakfastPrice: 30,
			SnackPrice:     15,
			PlanMultipliers: map[string]float64{
				"muscle-gain": 1.15,
			},
			DayBands:      pricing.DefaultDayBands(),
			VolumeBands:   pricing.DefaultVolumeBands(),
			DurationRates: pricing.DefaultDurationRates(),
		},
		Plans: &stubPlans{plans: []store.Plan{{ID: "muscle-gain", Name: "Muscle Gain", Multiplier: 1.15}}},
		Log:   zerolog.Nop(),
	}
}

func TestQuoteReturnsBreakdown(t *testing.T) {
	t.Parallel()

	body := `{"planId":"muscle-gain","mainMeals":2,"breakfasts":1,"snacks":0,"daysPerWeek":7,"duration":"1-month"}`
	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(body))
	rr := httptest.NewRecorder()
	testHandler().Quote(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var result pricing.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.InDelta(t, 126.5, result.DailyCost, 0.001)
	require.InDelta(t, 2868.42, result.SubscriptionCost, 0.001)
	require.Equal(t, pricing.CategoryDays, result.WeeklyDiscount.Category)
}

func TestQuoteReportsAllViolations(t *testing.T) {
	t.Parallel()

	body := `{"planId":"nope","mainMeals":0,"breakfasts":1,"daysPerWeek":9,"duration":"forever"}`
	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(body))
	rr := httptest.NewRecorder()
	testHandler().Quote(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var envelope struct {
		Error struct {
			Code    string   `json:"code"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.Equal(t, "VALIDATION", envelope.Error.Code)
	require.Len(t, envelope.Error.Details, 5)
}

func TestQuoteRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()
	testHandler().Quote(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListPlans(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	rr := httptest.NewRecorder()
	testHandler().ListPlans(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope struct {
		Plans []planResponse `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.Len(t, envelope.Plans, 1)
	require.Equal(t, "muscle-gain", envelope.Plans[0].ID)
}
