package events

// Topic constants for domain events emitted by the engine.
const (
	TopicOrderScheduled     = "order.scheduled"
	TopicSubscriptionPaused = "subscription.paused"
	TopicSubscriptionResume = "subscription.resumed"
	TopicDeliveryReminder   = "delivery.reminder"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderScheduled,
		TopicSubscriptionPaused,
		TopicSubscriptionResume,
		TopicDeliveryReminder,
	}
}
