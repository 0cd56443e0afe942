package pricing

import (
	"math"
	"strings"
)

// Duration identifies a subscription duration category.
type Duration string

const (
	DurationOneWeek  Duration = "1-week"
	DurationTwoWeeks Duration = "2-weeks"
	DurationOneMonth Duration = "1-month"
)

// Weeks returns the number of billed weeks for the duration category.
func (d Duration) Weeks() int {
	switch d {
	case DurationOneWeek:
		return 1
	case DurationTwoWeeks:
		return 2
	case DurationOneMonth:
		return 4
	default:
		return 0
	}
}

// Selection describes the customer's meal choice for a quote. It is an input
// value only and is never persisted as-is; orders store a JSON snapshot.
type Selection struct {
	PlanID      string   `json:"planId" validate:"required"`
	MainMeals   int      `json:"mainMeals" validate:"gte=0"`
	Breakfasts  int      `json:"breakfasts" validate:"gte=0"`
	Snacks      int      `json:"snacks" validate:"gte=0"`
	DaysPerWeek int      `json:"daysPerWeek" validate:"gte=3,lte=7"`
	Duration    Duration `json:"duration"`
	PromoCode   string   `json:"promoCode,omitempty"`
}

// Config carries all pricing inputs. It is loaded once at startup and passed
// by value so discount rules stay test-injectable and versionable.
type Config struct {
	MainMealPrice  float64
	BreakfastPrice float64
	SnackPrice     float64

	// PlanMultipliers scales main meal and breakfast prices per plan. Snacks
	// are commodity add-ons and are never scaled.
	PlanMultipliers map[string]float64

	// DayBands and VolumeBands are the weekly discount tables, bucketed by
	// days-per-week and total item count respectively.
	DayBands    []Band
	VolumeBands []Band

	// DurationRates applies on top of the weekly price, independently of the
	// weekly discount.
	DurationRates map[Duration]float64

	// PromoRates maps a promotional code to its weekly discount rate. Unknown
	// codes price as 0%, they are not an error.
	PromoRates map[string]float64
}

// Band maps an inclusive integer range to a discount rate. Max <= 0 means the
// band is unbounded above.
type Band struct {
	Min  int
	Max  int
	Rate float64
}

// DefaultDayBands returns the standard days-per-week discount table.
func DefaultDayBands() []Band {
	return []Band{
		{Min: 3, Max: 4, Rate: 0},
		{Min: 5, Max: 6, Rate: 0.05},
		{Min: 7, Max: 7, Rate: 0.10},
	}
}

// DefaultVolumeBands returns the standard item-volume discount table.
func DefaultVolumeBands() []Band {
	return []Band{
		{Min: 6, Max: 13, Rate: 0},
		{Min: 14, Max: 20, Rate: 0.05},
		{Min: 21, Max: 35, Rate: 0.10},
		{Min: 36, Max: 0, Rate: 0.15},
	}
}

// DefaultDurationRates returns the standard duration discount table.
func DefaultDurationRates() map[Duration]float64 {
	return map[Duration]float64{
		DurationOneWeek:  0,
		DurationTwoWeeks: 0.05,
		DurationOneMonth: 0.10,
	}
}

// UnitPrices is the plan-adjusted per-item price breakdown.
type UnitPrices struct {
	MainMeal  float64 `json:"mainMeal"`
	Breakfast float64 `json:"breakfast"`
	Snack     float64 `json:"snack"`
}

// AppliedDiscount reports the winning weekly discount.
type AppliedDiscount struct {
	Category Category `json:"category"`
	Rate     float64  `json:"rate"`
	Amount   float64  `json:"amount"`
}

// Result is the full price breakdown for a selection. All monetary fields are
// rounded to two decimals; intermediate math is never rounded.
type Result struct {
	DailyCost        float64         `json:"dailyCost"`
	WeeklyCost       float64         `json:"weeklyCost"`
	SubscriptionCost float64         `json:"subscriptionCost"`
	WeeklyDiscount   AppliedDiscount `json:"weeklyDiscount"`
	DurationDiscount float64         `json:"durationDiscountAmount"`
	TotalSavings     float64         `json:"totalSavings"`
	UnitPrices       UnitPrices      `json:"unitPrices"`
	TotalItems       int             `json:"totalItems"`
	WeekCount        int             `json:"weekCount"`
}

// Calculate prices a meal selection. It validates the selection first and
// returns a *ValidationError listing every violated rule, not just the first.
func Calculate(sel Selection, cfg Config) (Result, error) {
	if err := ValidateSelection(sel, cfg); err != nil {
		return Result{}, err
	}

	multiplier := cfg.PlanMultipliers[sel.PlanID]
	unit := UnitPrices{
		MainMeal:  cfg.MainMealPrice * multiplier,
		Breakfast: cfg.BreakfastPrice * multiplier,
		// Snacks are exempt from plan multipliers.
		Snack: cfg.SnackPrice,
	}

	dailyCost := float64(sel.MainMeals)*unit.MainMeal +
		float64(sel.Breakfasts)*unit.Breakfast +
		float64(sel.Snacks)*unit.Snack
	weeklySubtotal := dailyCost * float64(sel.DaysPerWeek)
	totalItems := (sel.MainMeals + sel.Breakfasts + sel.Snacks) * sel.DaysPerWeek

	winner := pickWeeklyDiscount(weeklyCandidates(cfg, sel, totalItems))
	weeklyCost := weeklySubtotal * (1 - winner.Rate)

	weeks := sel.Duration.Weeks()
	durationRate := cfg.DurationRates[sel.Duration]
	subscriptionSubtotal := weeklyCost * float64(weeks)
	subscriptionCost := subscriptionSubtotal * (1 - durationRate)
	totalSavings := weeklySubtotal*float64(weeks) - subscriptionCost

	return Result{
		DailyCost:        round2(dailyCost),
		WeeklyCost:       round2(weeklyCost),
		SubscriptionCost: round2(subscriptionCost),
		WeeklyDiscount: AppliedDiscount{
			Category: winner.Category,
			Rate:     winner.Rate,
			Amount:   round2(weeklySubtotal * winner.Rate),
		},
		DurationDiscount: round2(subscriptionSubtotal - subscriptionCost),
		TotalSavings:     round2(totalSavings),
		UnitPrices: UnitPrices{
			MainMeal:  round2(unit.MainMeal),
			Breakfast: round2(unit.Breakfast),
			Snack:     round2(unit.Snack),
		},
		TotalItems: totalItems,
		WeekCount:  weeks,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func promoRate(cfg Config, code string) float64 {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return 0
	}
	return cfg.PromoRates[trimmed]
}
