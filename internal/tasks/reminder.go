package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/obs"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// TypeDeliveryReminder is the asynq task type for delivery reminders.
const TypeDeliveryReminder = "delivery:reminder"

// ReminderPayload selects which calendar date to remind for. An empty Date
// means "lead days from now", letting the scheduler enqueue a static task.
type ReminderPayload struct {
	Date string `json:"date,omitempty"`
}

// NewReminderTask builds a reminder task for the given date.
func NewReminderTask(date time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(ReminderPayload{Date: date.Format("2006-01-02")})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeliveryReminder, payload), nil
}

// Querier is the slice of the store the reminder handler needs.
type Querier interface {
	ListPendingDeliveriesOnDate(ctx context.Context, date time.Time) ([]store.Delivery, error)
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
}

// ReminderHandler emits a delivery.reminder event for every pending delivery
// on the reminder date. Notifiers on the event bus turn those into emails.
type ReminderHandler struct {
	Q        Querier
	Events   *events.Bus
	LeadDays int
	Log      zerolog.Logger
	Now      func() time.Time
}

func (h *ReminderHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ProcessTask implements asynq.Handler.
func (h *ReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReminderPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode reminder payload: %w", err)
		}
	}

	var date time.Time
	if payload.Date != "" {
		parsed, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return fmt.Errorf("parse reminder date: %w", err)
		}
		date = parsed
	} else {
		lead := h.LeadDays
		if lead <= 0 {
			lead = 1
		}
		date = h.now().AddDate(0, 0, lead)
	}

	deliveries, err := h.Q.ListPendingDeliveriesOnDate(ctx, date)
	if err != nil {
		return fmt.Errorf("list pending deliveries: %w", err)
	}

	sent := 0
	for _, d := range deliveries {
		order, err := h.Q.GetOrder(ctx, d.OrderID)
		if err != nil {
			h.Log.Warn().Err(err).Str("order_id", d.OrderID.String()).Msg("load order for reminder")
			if obs.ReminderSentTotal != nil {
				obs.ReminderSentTotal.WithLabelValues("error").Inc()
			}
			continue
		}
		// Reminders only make sense for live subscriptions.
		if order.Status != store.OrderStatusActive {
			continue
		}
		if h.Events != nil {
			if _, err := h.Events.Emit(ctx, events.TopicDeliveryReminder, d.OrderID, map[string]any{
				"deliveryId":    d.ID.String(),
				"scheduledDate": d.ScheduledDate.Format("2006-01-02"),
			}); err != nil {
				h.Log.Warn().Err(err).Str("delivery_id", d.ID.String()).Msg("emit reminder event")
				if obs.ReminderSentTotal != nil {
					obs.ReminderSentTotal.WithLabelValues("error").Inc()
				}
				continue
			}
		}
		if obs.ReminderSentTotal != nil {
			obs.ReminderSentTotal.WithLabelValues("ok").Inc()
		}
		sent++
	}

	h.Log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("deliveries", len(deliveries)).
		Int("reminders", sent).
		Msg("delivery reminders processed")
	return nil
}
