package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

func TestNotifySendsEmailWithRecipient(t *testing.T) {
	t.Parallel()

	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}

	err := n.Notify(context.Background(), store.DomainEvent{
		Topic:       events.TopicSubscriptionPaused,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"email":"jo@example.com","resumeDate":"2024-02-01"}`),
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, mail.Outbox, 1)
	require.Equal(t, "jo@example.com", mail.Outbox[0].To)
	require.Equal(t, "Your subscription is paused", mail.Outbox[0].Subject)
	require.Contains(t, mail.Outbox[0].HTML, "2024-02-01")
}

func TestNotifySkipsWithoutRecipientOrWhenDisabled(t *testing.T) {
	t.Parallel()

	mail := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: mail, Enabled: true}
	require.NoError(t, n.Notify(context.Background(), store.DomainEvent{
		Topic:   events.TopicOrderScheduled,
		Payload: []byte(`{}`),
	}))
	require.Empty(t, mail.Outbox)

	off := EmailNotifier{Mail: mail, Enabled: false}
	require.NoError(t, off.Notify(context.Background(), store.DomainEvent{
		Topic:   events.TopicOrderScheduled,
		Payload: []byte(`{"email":"jo@example.com"}`),
	}))
	require.Empty(t, mail.Outbox)
}

func TestNotifyHonorsTopicToggles(t *testing.T) {
	t.Parallel()

	mail := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         mail,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicDeliveryReminder: false},
	}
	require.NoError(t, n.Notify(context.Background(), store.DomainEvent{
		Topic:   events.TopicDeliveryReminder,
		Payload: []byte(`{"email":"jo@example.com"}`),
	}))
	require.Empty(t, mail.Outbox)
}
