package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles the hand-written SQL used by the engine.
type Queries struct {
	db DBTX
}

// New constructs Queries over the given connection source.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the provided transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const orderColumns = `id, customer_id, plan_id, selection, status,
	daily_cost, weekly_cost, subscription_cost,
	discount_category, discount_rate, discount_amount,
	duration_discount, total_savings,
	pause_count, paused_at, pause_duration_days, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.PlanID, &o.Selection, &o.Status,
		&o.DailyCost, &o.WeeklyCost, &o.SubscriptionCost,
		&o.DiscountCategory, &o.DiscountRate, &o.DiscountAmount,
		&o.DurationDiscount, &o.TotalSavings,
		&o.PauseCount, &o.PausedAt, &o.PauseDurationDays, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateOrderParams carries a new order row including its pricing snapshot.
type CreateOrderParams struct {
	CustomerID       uuid.UUID
	PlanID           string
	Selection        []byte
	DailyCost        float64
	WeeklyCost       float64
	SubscriptionCost float64
	DiscountCategory string
	DiscountRate     float64
	DiscountAmount   float64
	DurationDiscount float64
	TotalSavings     float64
}

// CreateOrder inserts a new active order and returns the stored row.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			customer_id, plan_id, selection, status,
			daily_cost, weekly_cost, subscription_cost,
			discount_category, discount_rate, discount_amount,
			duration_discount, total_savings
		) VALUES ($1, $2, $3, 'active', $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+orderColumns,
		arg.CustomerID, arg.PlanID, arg.Selection,
		arg.DailyCost, arg.WeeklyCost, arg.SubscriptionCost,
		arg.DiscountCategory, arg.DiscountRate, arg.DiscountAmount,
		arg.DurationDiscount, arg.TotalSavings,
	)
	return scanOrder(row)
}

// GetOrder returns an order by id.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate returns an order by id with a row lock held for the
// duration of the surrounding transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

// SetOrderPausedParams records a pause on the order row.
type SetOrderPausedParams struct {
	ID                uuid.UUID
	PausedAt          time.Time
	PauseDurationDays int32
}

// SetOrderPaused flips the order to paused and increments the pause counter.
func (q *Queries) SetOrderPaused(ctx context.Context, arg SetOrderPausedParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE orders
		SET status = 'paused',
			paused_at = $2,
			pause_duration_days = $3,
			pause_count = pause_count + 1,
			updated_at = now()
		WHERE id = $1`,
		arg.ID, arg.PausedAt, arg.PauseDurationDays,
	)
	return err
}

// SetOrderActive flips the order back to active. Pause bookkeeping columns
// are kept for audit.
func (q *Queries) SetOrderActive(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE orders SET status = 'active', updated_at = now() WHERE id = $1`, id)
	return err
}

const deliveryColumns = `id, order_id, scheduled_date, status, delivered_at, notes, created_at`

func scanDeliveries(rows pgx.Rows) ([]Delivery, error) {
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ScheduledDate, &d.Status, &d.DeliveredAt, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDeliveriesByOrder returns every delivery for the order ordered by date.
func (q *Queries) ListDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE order_id = $1
		ORDER BY scheduled_date`, orderID)
	if err != nil {
		return nil, err
	}
	return scanDeliveries(rows)
}

// ListPendingDeliveriesForUpdate returns the order's pending deliveries
// ordered by date, locked for the surrounding transaction.
func (q *Queries) ListPendingDeliveriesForUpdate(ctx context.Context, orderID uuid.UUID) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE order_id = $1 AND status = 'pending'
		ORDER BY scheduled_date
		FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	return scanDeliveries(rows)
}

// CountDeliveriesByOrder counts all deliveries for the order.
func (q *Queries) CountDeliveriesByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM deliveries WHERE order_id = $1`, orderID).Scan(&count)
	return count, err
}

// BulkInsertDeliveries inserts one pending delivery per date for the order.
func (q *Queries) BulkInsertDeliveries(ctx context.Context, orderID uuid.UUID, dates []time.Time) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	tag, err := q.db.Exec(ctx, `
		INSERT INTO deliveries (order_id, scheduled_date, status)
		SELECT $1, unnest($2::date[]), 'pending'`,
		orderID, dates)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ShiftPendingDeliveriesFromParams shifts pending deliveries scheduled at or
// after From forward by Days.
type ShiftPendingDeliveriesFromParams struct {
	OrderID uuid.UUID
	From    time.Time
	Days    int32
}

// ShiftPendingDeliveriesFrom applies the pause-time forward shift.
func (q *Queries) ShiftPendingDeliveriesFrom(ctx context.Context, arg ShiftPendingDeliveriesFromParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE deliveries
		SET scheduled_date = scheduled_date + $3::int
		WHERE order_id = $1 AND status = 'pending' AND scheduled_date >= $2`,
		arg.OrderID, arg.From, arg.Days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ShiftAllPendingDeliveriesParams shifts every pending delivery by Days,
// which may be negative when a resume re-bases the schedule earlier.
type ShiftAllPendingDeliveriesParams struct {
	OrderID uuid.UUID
	Days    int32
}

// ShiftAllPendingDeliveries applies the resume-time re-base shift.
func (q *Queries) ShiftAllPendingDeliveries(ctx context.Context, arg ShiftAllPendingDeliveriesParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE deliveries
		SET scheduled_date = scheduled_date + $2::int
		WHERE order_id = $1 AND status = 'pending'`,
		arg.OrderID, arg.Days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkDeliveryDelivered records completion of a delivery. The transition is
// driven by fulfillment collaborators, not by this engine.
func (q *Queries) MarkDeliveryDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := q.db.Exec(ctx, `
		UPDATE deliveries
		SET status = 'delivered', delivered_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at)
	return err
}

// ListPendingDeliveriesOnDate returns all pending deliveries across orders
// scheduled on the given calendar date. Used by the reminder worker.
func (q *Queries) ListPendingDeliveriesOnDate(ctx context.Context, date time.Time) ([]Delivery, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE status = 'pending' AND scheduled_date = $1::date
		ORDER BY order_id, scheduled_date`, date)
	if err != nil {
		return nil, err
	}
	return scanDeliveries(rows)
}

// UpsertPlan inserts or updates a plan row.
func (q *Queries) UpsertPlan(ctx context.Context, plan Plan) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO plans (id, name, multiplier)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, multiplier = EXCLUDED.multiplier`,
		plan.ID, plan.Name, plan.Multiplier)
	return err
}

// ListPlans returns all plans ordered by id.
func (q *Queries) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, multiplier FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Multiplier); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertDomainEventParams carries a new domain event row.
type InsertDomainEventParams struct {
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
}

// InsertDomainEvent persists a domain event and returns the stored row.
func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		arg.Topic, arg.AggregateID, arg.Payload)
	var ev DomainEvent
	err := row.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
