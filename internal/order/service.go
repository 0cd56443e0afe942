package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/obs"
	"github.com/noah-isme/backend-mealbox/internal/pricing"
	"github.com/noah-isme/backend-mealbox/internal/schedule"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Querier is the slice of the store the order service needs. Satisfied by
// *store.Queries.
type Querier interface {
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	ListDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) ([]store.Delivery, error)
	CountDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	BulkInsertDeliveries(ctx context.Context, orderID uuid.UUID, dates []time.Time) (int64, error)
}

// Service creates orders: it prices the selection, persists the order row and
// materializes the delivery schedule in one transaction.
type Service struct {
	Q            Querier
	Pool         *pgxpool.Pool
	Pricing      pricing.Config
	DeliveryDays []string
	Events       *events.Bus
	Log          zerolog.Logger
	Now          func() time.Time
}

// CreateParams carries a new order request.
type CreateParams struct {
	CustomerID   uuid.UUID
	Selection    pricing.Selection
	StartDate    time.Time
	DeliveryDays []string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) inTx(ctx context.Context, fn func(q Querier) error) error {
	if s.Pool == nil {
		return fn(s.Q)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	q := s.Q
	if queries, ok := s.Q.(*store.Queries); ok {
		q = queries.WithTx(tx)
	}
	if err := fn(q); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Create prices the selection and persists the order with its full delivery
// schedule. A zero StartDate defaults to tomorrow; empty DeliveryDays fall
// back to the service default.
func (s *Service) Create(ctx context.Context, params CreateParams) (store.Order, int64, error) {
	result, err := pricing.Calculate(params.Selection, s.Pricing)
	if err != nil {
		return store.Order{}, 0, err
	}

	selection, err := json.Marshal(params.Selection)
	if err != nil {
		return store.Order{}, 0, fmt.Errorf("encode selection: %w", err)
	}

	start := params.StartDate
	if start.IsZero() {
		start = s.now().AddDate(0, 0, 1)
	}
	days := params.DeliveryDays
	if len(days) == 0 {
		days = s.DeliveryDays
	}

	var (
		order     store.Order
		scheduled int64
	)
	err = s.inTx(ctx, func(q Querier) error {
		order, err = q.CreateOrder(ctx, store.CreateOrderParams{
			CustomerID:       params.CustomerID,
			PlanID:           params.Selection.PlanID,
			Selection:        selection,
			DailyCost:        result.DailyCost,
			WeeklyCost:       result.WeeklyCost,
			SubscriptionCost: result.SubscriptionCost,
			DiscountCategory: string(result.WeeklyDiscount.Category),
			DiscountRate:     result.WeeklyDiscount.Rate,
			DiscountAmount:   result.WeeklyDiscount.Amount,
			DurationDiscount: result.DurationDiscount,
			TotalSavings:     result.TotalSavings,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		scheduler := &schedule.Service{Q: q}
		scheduled, err = scheduler.Materialize(ctx, order.ID, start, result.WeekCount, days)
		if err != nil {
			return fmt.Errorf("materialize schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		if obs.OrderCreatedTotal != nil {
			obs.OrderCreatedTotal.WithLabelValues("error").Inc()
		}
		return store.Order{}, 0, err
	}

	if obs.OrderCreatedTotal != nil {
		obs.OrderCreatedTotal.WithLabelValues("ok").Inc()
	}
	if obs.DeliveriesScheduledTotal != nil {
		obs.DeliveriesScheduledTotal.Add(float64(scheduled))
	}
	s.Log.Info().
		Str("order_id", order.ID.String()).
		Str("plan_id", order.PlanID).
		Int64("deliveries", scheduled).
		Msg("order created")

	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderScheduled, order.ID, map[string]any{
			"planId":     order.PlanID,
			"deliveries": scheduled,
			"startDate":  start.Format("2006-01-02"),
		}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("emit order event")
		}
	}
	return order, scheduled, nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (store.Order, error) {
	order, err := s.Q.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, ErrNotFound
		}
		return store.Order{}, err
	}
	return order, nil
}

// Deliveries returns every delivery for an order ordered by date.
func (s *Service) Deliveries(ctx context.Context, id uuid.UUID) ([]store.Delivery, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Q.ListDeliveriesByOrder(ctx, id)
}
