package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-mealbox/internal/common"
	"github.com/noah-isme/backend-mealbox/internal/events"
	"github.com/noah-isme/backend-mealbox/internal/store"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// DefaultToggles enables email for every notifiable topic.
func DefaultToggles() map[string]bool {
	toggles := make(map[string]bool)
	for _, topic := range events.DefaultTopics() {
		toggles[topic] = true
	}
	return toggles
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic), bodyFor(event.Topic, payload, event.OccurredAt))
}

func extractRecipient(payload map[string]any) string {
	keys := []string{"email", "recipient", "customerEmail"}
	for _, key := range keys {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderScheduled:
		return "Your meal subscription is confirmed"
	case events.TopicSubscriptionPaused:
		return "Your subscription is paused"
	case events.TopicSubscriptionResume:
		return "Your subscription is active again"
	case events.TopicDeliveryReminder:
		return "Your delivery arrives tomorrow"
	default:
		return fmt.Sprintf("Notification: %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s occurred at %s.", topic, occurred.Format(time.RFC3339))
	if resumeDate, ok := payload["resumeDate"].(string); ok && resumeDate != "" {
		summary += fmt.Sprintf("\nDeliveries resume on %s.", resumeDate)
	}
	if startDate, ok := payload["startDate"].(string); ok && startDate != "" {
		summary += fmt.Sprintf("\nFirst delivery on %s.", startDate)
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		summary += "\n" + note
	}
	return summary
}
