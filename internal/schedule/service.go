package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrScheduleExists is returned when an order already has deliveries;
// materializing a schedule is a one-shot operation per order.
var ErrScheduleExists = errors.New("schedule already materialized for order")

// Querier is the slice of the store the scheduler needs.
type Querier interface {
	CountDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	BulkInsertDeliveries(ctx context.Context, orderID uuid.UUID, dates []time.Time) (int64, error)
}

// Service materializes delivery schedules into the store.
type Service struct {
	Q Querier
}

// Materialize generates the delivery dates for the order and inserts them as
// pending deliveries. It refuses to run twice for the same order.
func (s *Service) Materialize(ctx context.Context, orderID uuid.UUID, start time.Time, totalWeeks int, dayNames []string) (int64, error) {
	count, err := s.Q.CountDeliveriesByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, ErrScheduleExists
	}

	dates, err := Dates(start, totalWeeks, dayNames)
	if err != nil {
		return 0, err
	}
	return s.Q.BulkInsertDeliveries(ctx, orderID, dates)
}
