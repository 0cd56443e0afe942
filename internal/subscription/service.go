package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/lock"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// Querier is the slice of the store the engine needs. Satisfied by
// *store.Queries; tests substitute a fake.
type Querier interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (store.Order, error)
	SetOrderPaused(ctx context.Context, arg store.SetOrderPausedParams) error
	SetOrderActive(ctx context.Context, id uuid.UUID) error
	ListPendingDeliveriesForUpdate(ctx context.Context, orderID uuid.UUID) ([]store.Delivery, error)
	ShiftPendingDeliveriesFrom(ctx context.Context, arg store.ShiftPendingDeliveriesFromParams) (int64, error)
	ShiftAllPendingDeliveries(ctx context.Context, arg store.ShiftAllPendingDeliveriesParams) (int64, error)
}

// Policy holds the business limits on pausing and resuming.
type Policy struct {
	PauseMinNotice  time.Duration
	ResumeMinNotice time.Duration
	PauseMaxDays    int
	PauseLimit      int
}

// DefaultPolicy returns the standard limits: one pause per subscription
// lifetime, at most 21 days, 72h pause notice and 48h resume notice.
func DefaultPolicy() Policy {
	return Policy{
		PauseMinNotice:  72 * time.Hour,
		ResumeMinNotice: 48 * time.Hour,
		PauseMaxDays:    21,
		PauseLimit:      1,
	}
}

// Service runs the pause/resume state machine over orders and their
// deliveries. All state is read fresh inside a transaction with row locks;
// nothing is cached between calls.
type Service struct {
	Q      Querier
	Pool   *pgxpool.Pool
	Locker *lock.Mutex
	Policy Policy
	Events *events.Bus
	Log    zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// inTx runs fn against a transaction-bound querier. When no pool is
// configured (tests) fn runs against s.Q directly.
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

// withOrderLock serializes pause/resume per order across instances when a
// locker is configured. The row locks inside the transaction already protect
// correctness; the redis lock just avoids pointless lock-wait pileups.
func (s *Service) withOrderLock(ctx context.Context, orderID uuid.UUID, fn func() error) error {
	if s.Locker == nil {
		return fn()
	}
	h, err := s.Locker.Acquire(ctx, "sub:pause:"+orderID.String())
	if err != nil {
		return fmt.Errorf("acquire order lock: %w", err)
	}
	defer h.Release(context.Background())
	return fn()
}

// Pause pauses an active subscription for days days. The earliest pending
// delivery at or beyond now+PauseMinNotice anchors the pause: that delivery
// and everything after it shift forward by days, while nearer deliveries
// still ship. Returns the resume date (anchor + days).
func (s *Service) Pause(ctx context.Context, orderID uuid.UUID, days int) (time.Time, error) {
	var resumeDate time.Time
	err := s.withOrderLock(ctx, orderID, func() error {
		return s.inTx(ctx, func(q Querier) error {
			order, err := q.GetOrderForUpdate(ctx, orderID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("load order: %w", err)
			}

			switch order.Status {
			case store.OrderStatusPaused:
				return ErrAlreadyPaused
			case store.OrderStatusActive:
			default:
				return ErrNotActive
			}
			if int(order.PauseCount) >= s.Policy.PauseLimit {
				return ErrPauseLimitExceeded
			}
			if days > s.Policy.PauseMaxDays {
				return ErrDurationTooLong
			}
			if days < 1 {
				return ErrInvalidDuration
			}

			now := s.now()
			floor := now.Add(s.Policy.PauseMinNotice)

			pending, err := q.ListPendingDeliveriesForUpdate(ctx, orderID)
			if err != nil {
				return fmt.Errorf("load pending deliveries: %w", err)
			}
			var pauseStart time.Time
			found := false
			for _, d := range pending {
				if !d.ScheduledDate.Before(floor) {
					pauseStart = d.ScheduledDate
					found = true
					break
				}
			}
			if !found {
				return ErrNoEligibleDelivery
			}

			if err := q.SetOrderPaused(ctx, store.SetOrderPausedParams{
				ID:                orderID,
				PausedAt:          now,
				PauseDurationDays: int32(days),
			}); err != nil {
				return fmt.Errorf("mark order paused: %w", err)
			}
			shifted, err := q.ShiftPendingDeliveriesFrom(ctx, store.ShiftPendingDeliveriesFromParams{
				OrderID: orderID,
				From:    pauseStart,
				Days:    int32(days),
			})
			if err != nil {
				return fmt.Errorf("shift deliveries: %w", err)
			}

			resumeDate = pauseStart.AddDate(0, 0, days)
			s.Log.Info().
				Str("order_id", orderID.String()).
				Int("pause_days", days).
				Int64("deliveries_shifted", shifted).
				Time("resume_date", resumeDate).
				Msg("subscription paused")
			return nil
		})
	})
	if err != nil {
		return time.Time{}, err
	}

	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicSubscriptionPaused, orderID, map[string]any{
			"pauseDurationDays": days,
			"resumeDate":        resumeDate.Format("2006-01-02"),
		}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", orderID.String()).Msg("emit pause event")
		}
	}
	return resumeDate, nil
}

// Resume reactivates a paused subscription. With no explicit date the
// pause-time shift stands and only the status flips. With an explicit date
// the whole remaining schedule is re-based: each pending delivery lands at
// its original pre-pause date plus the difference between resumeDate and the
// first pending delivery's original date.
func (s *Service) Resume(ctx context.Context, orderID uuid.UUID, resumeDate *time.Time) error {
	err := s.withOrderLock(ctx, orderID, func() error {
		return s.inTx(ctx, func(q Querier) error {
			order, err := q.GetOrderForUpdate(ctx, orderID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("load order: %w", err)
			}
			if order.Status != store.OrderStatusPaused {
				return ErrNotPaused
			}

			if resumeDate == nil {
				if err := q.SetOrderActive(ctx, orderID); err != nil {
					return fmt.Errorf("mark order active: %w", err)
				}
				s.Log.Info().Str("order_id", orderID.String()).Msg("subscription resumed")
				return nil
			}

			if resumeDate.Before(s.now().Add(s.Policy.ResumeMinNotice)) {
				return ErrInsufficientNotice
			}

			pending, err := q.ListPendingDeliveriesForUpdate(ctx, orderID)
			if err != nil {
				return fmt.Errorf("load pending deliveries: %w", err)
			}
			if len(pending) > 0 {
				applied := 0
				if order.PauseDurationDays != nil {
					applied = int(*order.PauseDurationDays)
				}
				original := pending[0].ScheduledDate.AddDate(0, 0, -applied)
				diff := wholeDays(resumeDate.Sub(original))
				if _, err := q.ShiftAllPendingDeliveries(ctx, store.ShiftAllPendingDeliveriesParams{
					OrderID: orderID,
					Days:    int32(diff - applied),
				}); err != nil {
					return fmt.Errorf("rebase deliveries: %w", err)
				}
			}

			if err := q.SetOrderActive(ctx, orderID); err != nil {
				return fmt.Errorf("mark order active: %w", err)
			}
			s.Log.Info().
				Str("order_id", orderID.String()).
				Time("resume_date", *resumeDate).
				Msg("subscription resumed on explicit date")
			return nil
		})
	})
	if err != nil {
		return err
	}

	if s.Events != nil {
		payload := map[string]any{}
		if resumeDate != nil {
			payload["resumeDate"] = resumeDate.Format("2006-01-02")
		}
		if _, err := s.Events.Emit(ctx, events.TopicSubscriptionResume, orderID, payload); err != nil {
			s.Log.Warn().Err(err).Str("order_id", orderID.String()).Msg("emit resume event")
		}
	}
	return nil
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
