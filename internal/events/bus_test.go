package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

type stubStore struct {
	lastParams store.InsertDomainEventParams
	nextID     int64
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg store.InsertDomainEventParams) (store.DomainEvent, error) {
	s.lastParams = arg
	s.nextID++
	return store.DomainEvent{
		ID:          s.nextID,
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []store.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	st := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{notifier}}

	aggregate := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicSubscriptionPaused, aggregate, map[string]any{"resumeDate": "2024-02-01"})
	require.NoError(t, err)
	require.Equal(t, events.TopicSubscriptionPaused, st.lastParams.Topic)
	require.JSONEq(t, `{"resumeDate":"2024-02-01"}`, string(st.lastParams.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)
}

func TestEmitRejectsMissingTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderScheduled, uuid.Nil, nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureStillPersists(t *testing.T) {
	st := &stubStore{}
	failing := &captureNotifier{err: errors.New("smtp down")}
	bus := events.Bus{Store: st, Notifiers: []events.Notifier{failing}}

	ev, err := bus.Emit(context.Background(), events.TopicOrderScheduled, uuid.New(), nil)
	require.Error(t, err)
	require.NotZero(t, ev.ID)
	require.JSONEq(t, `{}`, string(st.lastParams.Payload))
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderScheduled, uuid.New(), []byte("{not json"))
	require.Error(t, err)
}
