package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/pricing"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

type fakeQuerier struct {
	order      store.Order
	deliveries []time.Time
}

func (f *fakeQuerier) CreateOrder(_ context.Context, arg store.CreateOrderParams) (store.Order, error) {
	f.order = store.Order{
		ID:               uuid.New(),
		CustomerID:       arg.CustomerID,
		PlanID:           arg.PlanID,
		Selection:        arg.Selection,
		Status:           store.OrderStatusActive,
		DailyCost:        arg.DailyCost,
		WeeklyCost:       arg.WeeklyCost,
		SubscriptionCost: arg.SubscriptionCost,
		DiscountCategory: arg.DiscountCategory,
		DiscountRate:     arg.DiscountRate,
		DiscountAmount:   arg.DiscountAmount,
		DurationDiscount: arg.DurationDiscount,
		TotalSavings:     arg.TotalSavings,
		CreatedAt:        time.Now(),
	}
	return f.order, nil
}

func (f *fakeQuerier) GetOrder(_ context.Context, _ uuid.UUID) (store.Order, error) {
	return f.order, nil
}

func (f *fakeQuerier) ListDeliveriesByOrder(_ context.Context, _ uuid.UUID) ([]store.Delivery, error) {
	return nil, nil
}

func (f *fakeQuerier) CountDeliveriesByOrder(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(f.deliveries)), nil
}

func (f *fakeQuerier) BulkInsertDeliveries(_ context.Context, _ uuid.UUID, dates []time.Time) (int64, error) {
	f.deliveries = append(f.deliveries, dates...)
	return int64(len(dates)), nil
}

func testService(q *fakeQuerier) *Service {
	return &Service{
		Q: q,
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
		DeliveryDays: []string{"Monday", "Wednesday", "Friday"},
		Log:          zerolog.Nop(),
		Now:          func() time.Time { return time.Date(2023, time.December, 31, 10, 0, 0, 0, time.UTC) },
	}
}

func TestCreatePersistsPricingSnapshotAndSchedule(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	svc := testService(q)

	sel := pricing.Selection{
		PlanID:      "muscle-gain",
		MainMeals:   2,
		Breakfasts:  1,
		DaysPerWeek: 7,
		Duration:    pricing.DurationOneMonth,
	}
	order, scheduled, err := svc.Create(context.Background(), CreateParams{
		CustomerID: uuid.New(),
		Selection:  sel,
		StartDate:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.InDelta(t, 126.5, order.DailyCost, 0.001)
	require.InDelta(t, 2868.42, order.SubscriptionCost, 0.001)
	require.Equal(t, "days", order.DiscountCategory)

	// 4 weeks of Mon/Wed/Fri.
	require.EqualValues(t, 12, scheduled)
	require.Len(t, q.deliveries, 12)
	require.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), q.deliveries[0])

	var stored pricing.Selection
	require.NoError(t, json.Unmarshal(order.Selection, &stored))
	require.Equal(t, sel, stored)
}

func TestCreateDefaultsStartToTomorrow(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	svc := testService(q)

	_, scheduled, err := svc.Create(context.Background(), CreateParams{
		CustomerID: uuid.New(),
		Selection: pricing.Selection{
			PlanID:      "muscle-gain",
			MainMeals:   2,
			Breakfasts:  0,
			DaysPerWeek: 5,
			Duration:    pricing.DurationOneWeek,
		},
	})
	require.NoError(t, err)
	require.NotZero(t, scheduled)
	// Start is 2024-01-01 (the day after the fixed clock), a Monday.
	require.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), q.deliveries[0])
}

func TestCreateRejectsInvalidSelection(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	svc := testService(q)

	_, _, err := svc.Create(context.Background(), CreateParams{
		CustomerID: uuid.New(),
		Selection: pricing.Selection{
			PlanID:      "muscle-gain",
			MainMeals:   0,
			Breakfasts:  1,
			DaysPerWeek: 5,
			Duration:    pricing.DurationOneWeek,
		},
	})
	require.Error(t, err)
	_, ok := pricing.AsValidationError(err)
	require.True(t, ok)
	require.Empty(t, q.deliveries)
}
