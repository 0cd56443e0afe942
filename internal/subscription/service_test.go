package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/store"
)

// fakeQuerier keeps one order and its deliveries in memory and applies the
// same mutations the SQL layer would.
type fakeQuerier struct {
	order   store.Order
	pending []store.Delivery
}

func (f *fakeQuerier) GetOrderForUpdate(_ context.Context, _ uuid.UUID) (store.Order, error) {
	return f.order, nil
}

func (f *fakeQuerier) SetOrderPaused(_ context.Context, arg store.SetOrderPausedParams) error {
	f.order.Status = store.OrderStatusPaused
	f.order.PausedAt = &arg.PausedAt
	f.order.PauseDurationDays = &arg.PauseDurationDays
	f.order.PauseCount++
	return nil
}

func (f *fakeQuerier) SetOrderActive(_ context.Context, _ uuid.UUID) error {
	f.order.Status = store.OrderStatusActive
	return nil
}

func (f *fakeQuerier) ListPendingDeliveriesForUpdate(_ context.Context, _ uuid.UUID) ([]store.Delivery, error) {
	out := make([]store.Delivery, len(f.pending))
	copy(out, f.pending)
	return out, nil
}

func (f *fakeQuerier) ShiftPendingDeliveriesFrom(_ context.Context, arg store.ShiftPendingDeliveriesFromParams) (int64, error) {
	var n int64
	for i, d := range f.pending {
		if !d.ScheduledDate.Before(arg.From) {
			f.pending[i].ScheduledDate = d.ScheduledDate.AddDate(0, 0, int(arg.Days))
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) ShiftAllPendingDeliveries(_ context.Context, arg store.ShiftAllPendingDeliveriesParams) (int64, error) {
	for i, d := range f.pending {
		f.pending[i].ScheduledDate = d.ScheduledDate.AddDate(0, 0, int(arg.Days))
	}
	return int64(len(f.pending)), nil
}

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestService(q *fakeQuerier) *Service {
	return &Service{
		Q:      q,
		Policy: DefaultPolicy(),
		Log:    zerolog.Nop(),
		Now:    func() time.Time { return testNow },
	}
}

func activeOrder() store.Order {
	return store.Order{ID: uuid.New(), Status: store.OrderStatusActive}
}

func pendingAt(offsets ...time.Duration) []store.Delivery {
	out := make([]store.Delivery, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, store.Delivery{
			ID:            uuid.New(),
			ScheduledDate: testNow.Add(off),
			Status:        store.DeliveryStatusPending,
		})
	}
	return out
}

func TestPauseShiftsEligibleDeliveriesOnly(t *testing.T) {
	t.Parallel()

	// One delivery inside the 72h window, two beyond it.
	q := &fakeQuerier{
		order:   activeOrder(),
		pending: pendingAt(24*time.Hour, 96*time.Hour, 168*time.Hour),
	}
	svc := newTestService(q)

	resumeDate, err := svc.Pause(context.Background(), q.order.ID, 7)
	require.NoError(t, err)

	// Anchor is the +96h delivery; resume date is anchor + 7 days.
	require.Equal(t, testNow.Add(96*time.Hour).AddDate(0, 0, 7), resumeDate)

	// The near delivery still ships on its original date.
	require.Equal(t, testNow.Add(24*time.Hour), q.pending[0].ScheduledDate)
	require.Equal(t, testNow.Add(96*time.Hour).AddDate(0, 0, 7), q.pending[1].ScheduledDate)
	require.Equal(t, testNow.Add(168*time.Hour).AddDate(0, 0, 7), q.pending[2].ScheduledDate)

	require.Equal(t, store.OrderStatusPaused, q.order.Status)
	require.EqualValues(t, 1, q.order.PauseCount)
	require.NotNil(t, q.order.PauseDurationDays)
	require.EqualValues(t, 7, *q.order.PauseDurationDays)
}

func TestPauseEligibilityBoundary(t *testing.T) {
	t.Parallel()

	// Exactly now+72h is eligible.
	q := &fakeQuerier{order: activeOrder(), pending: pendingAt(72 * time.Hour)}
	svc := newTestService(q)
	resumeDate, err := svc.Pause(context.Background(), q.order.ID, 3)
	require.NoError(t, err)
	require.Equal(t, testNow.Add(72*time.Hour).AddDate(0, 0, 3), resumeDate)

	// One minute short of the floor is not.
	q2 := &fakeQuerier{order: activeOrder(), pending: pendingAt(72*time.Hour - time.Minute)}
	svc2 := newTestService(q2)
	_, err = svc2.Pause(context.Background(), q2.order.ID, 3)
	require.ErrorIs(t, err, ErrNoEligibleDelivery)
}

func TestPauseTwiceReturnsAlreadyPaused(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{order: activeOrder(), pending: pendingAt(96 * time.Hour)}
	svc := newTestService(q)

	_, err := svc.Pause(context.Background(), q.order.ID, 5)
	require.NoError(t, err)
	afterFirst := q.pending[0].ScheduledDate

	_, err = svc.Pause(context.Background(), q.order.ID, 5)
	require.ErrorIs(t, err, ErrAlreadyPaused)
	require.Equal(t, afterFirst, q.pending[0].ScheduledDate)
}

func TestPauseLifetimeLimit(t *testing.T) {
	t.Parallel()

	order := activeOrder()
	order.PauseCount = 1
	q := &fakeQuerier{order: order, pending: pendingAt(96 * time.Hour)}
	svc := newTestService(q)

	_, err := svc.Pause(context.Background(), q.order.ID, 5)
	require.ErrorIs(t, err, ErrPauseLimitExceeded)
}

func TestPauseDurationLimits(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{order: activeOrder(), pending: pendingAt(96 * time.Hour)}
	svc := newTestService(q)

	_, err := svc.Pause(context.Background(), q.order.ID, 22)
	require.ErrorIs(t, err, ErrDurationTooLong)

	_, err = svc.Pause(context.Background(), q.order.ID, 0)
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestPauseRejectsTerminalStates(t *testing.T) {
	t.Parallel()

	order := activeOrder()
	order.Status = store.OrderStatusCancelled
	q := &fakeQuerier{order: order}
	svc := newTestService(q)

	_, err := svc.Pause(context.Background(), q.order.ID, 5)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestResumeRequiresPausedState(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{order: activeOrder()}
	svc := newTestService(q)

	err := svc.Resume(context.Background(), q.order.ID, nil)
	require.ErrorIs(t, err, ErrNotPaused)
}

func TestResumeWithoutDateKeepsSchedule(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{order: activeOrder(), pending: pendingAt(96 * time.Hour)}
	svc := newTestService(q)

	_, err := svc.Pause(context.Background(), q.order.ID, 7)
	require.NoError(t, err)
	shifted := q.pending[0].ScheduledDate

	require.NoError(t, svc.Resume(context.Background(), q.order.ID, nil))
	require.Equal(t, store.OrderStatusActive, q.order.Status)
	require.Equal(t, shifted, q.pending[0].ScheduledDate)
}

func TestResumeInsufficientNotice(t *testing.T) {
	t.Parallel()

	order := activeOrder()
	order.Status = store.OrderStatusPaused
	q := &fakeQuerier{order: order}
	svc := newTestService(q)

	early := testNow.Add(47 * time.Hour)
	err := svc.Resume(context.Background(), q.order.ID, &early)
	require.ErrorIs(t, err, ErrInsufficientNotice)
}

func TestResumeRebasesWholeSchedule(t *testing.T) {
	t.Parallel()

	// Pending deliveries at +2, +9 and +16 days with no pause-time shift
	// recorded. Resuming at originalDay0 + 5 moves every delivery by +5.
	order := activeOrder()
	order.Status = store.OrderStatusPaused
	q := &fakeQuerier{
		order:   order,
		pending: pendingAt(2*24*time.Hour, 9*24*time.Hour, 16*24*time.Hour),
	}
	svc := newTestService(q)

	resume := testNow.Add(2 * 24 * time.Hour).AddDate(0, 0, 5)
	require.NoError(t, svc.Resume(context.Background(), q.order.ID, &resume))

	require.Equal(t, testNow.Add(2*24*time.Hour).AddDate(0, 0, 5), q.pending[0].ScheduledDate)
	require.Equal(t, testNow.Add(9*24*time.Hour).AddDate(0, 0, 5), q.pending[1].ScheduledDate)
	require.Equal(t, testNow.Add(16*24*time.Hour).AddDate(0, 0, 5), q.pending[2].ScheduledDate)
	require.Equal(t, store.OrderStatusActive, q.order.Status)
}

func TestResumeReplacesPauseShiftInsteadOfStacking(t *testing.T) {
	t.Parallel()

	// A 7 day pause already shifted the schedule from +2/+9/+16 to
	// +9/+16/+23. Resuming at originalDay0 + 5 must land everything at
	// original + 5, pulling dates back rather than adding on top.
	order := activeOrder()
	order.Status = store.OrderStatusPaused
	applied := int32(7)
	order.PauseDurationDays = &applied
	order.PauseCount = 1
	q := &fakeQuerier{
		order:   order,
		pending: pendingAt(9*24*time.Hour, 16*24*time.Hour, 23*24*time.Hour),
	}
	svc := newTestService(q)

	resume := testNow.Add(2 * 24 * time.Hour).AddDate(0, 0, 5)
	require.NoError(t, svc.Resume(context.Background(), q.order.ID, &resume))

	require.Equal(t, testNow.Add(2*24*time.Hour).AddDate(0, 0, 5), q.pending[0].ScheduledDate)
	require.Equal(t, testNow.Add(9*24*time.Hour).AddDate(0, 0, 5), q.pending[1].ScheduledDate)
	require.Equal(t, testNow.Add(16*24*time.Hour).AddDate(0, 0, 5), q.pending[2].ScheduledDate)
}

func TestResumeWithDateAndNoPendingJustActivates(t *testing.T) {
	t.Parallel()

	order := activeOrder()
	order.Status = store.OrderStatusPaused
	q := &fakeQuerier{order: order}
	svc := newTestService(q)

	resume := testNow.AddDate(0, 0, 10)
	require.NoError(t, svc.Resume(context.Background(), q.order.ID, &resume))
	require.Equal(t, store.OrderStatusActive, q.order.Status)
}
