package store

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the subscription lifecycle states. Completed and
// cancelled are terminal and reached through collaborators outside this
// service; the pause engine only moves between active and paused.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusPaused    OrderStatus = "paused"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DeliveryStatus enumerates delivery states.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusSkipped   DeliveryStatus = "skipped"
	DeliveryStatusPaused    DeliveryStatus = "paused"
)

// Order is a subscription order row with its pricing snapshot and pause state.
type Order struct {
	ID                uuid.UUID
	CustomerID        uuid.UUID
	PlanID            string
	Selection         []byte
	Status            OrderStatus
	DailyCost         float64
	WeeklyCost        float64
	SubscriptionCost  float64
	DiscountCategory  string
	DiscountRate      float64
	DiscountAmount    float64
	DurationDiscount  float64
	TotalSavings      float64
	PauseCount        int32
	PausedAt          *time.Time
	PauseDurationDays *int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Delivery is a single scheduled delivery owned by exactly one order.
type Delivery struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ScheduledDate time.Time
	Status        DeliveryStatus
	DeliveredAt   *time.Time
	Notes         *string
	CreatedAt     time.Time
}

// Plan is a meal plan row with its price multiplier.
type Plan struct {
	ID         string
	Name       string
	Multiplier float64
}

// DomainEvent is a persisted domain event row.
type DomainEvent struct {
	ID          int64
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}
