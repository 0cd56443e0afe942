package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts pricing quote outcomes.
	QuoteTotal *prometheus.CounterVec
	// QuoteDiscountCategory counts which weekly discount category won.
	QuoteDiscountCategory *prometheus.CounterVec
	// OrderCreatedTotal counts order creation outcomes.
	OrderCreatedTotal *prometheus.CounterVec
	// PauseTotal counts pause attempts by outcome.
	PauseTotal *prometheus.CounterVec
	// ResumeTotal counts resume attempts by outcome.
	ResumeTotal *prometheus.CounterVec
	// DeliveriesScheduledTotal counts delivery rows materialized at order creation.
	DeliveriesScheduledTotal prometheus.Counter
	// ReminderSentTotal counts delivery reminder notifications by outcome.
	ReminderSentTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of pricing quote requests by outcome.",
		}, []string{"result"})
		QuoteDiscountCategory = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_discount_category_total",
			Help:      "Count of winning weekly discount categories across quotes.",
		}, []string{"category"})
		OrderCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_created_total",
			Help:      "Count of order creation attempts by outcome.",
		}, []string{"result"})
		PauseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_pause_total",
			Help:      "Count of subscription pause attempts by outcome.",
		}, []string{"result"})
		ResumeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_resume_total",
			Help:      "Count of subscription resume attempts by outcome.",
		}, []string{"result"})
		DeliveriesScheduledTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_scheduled_total",
			Help:      "Total delivery rows materialized at order creation.",
		})
		ReminderSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_reminder_total",
			Help:      "Count of delivery reminder notifications by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteDiscountCategory, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteDiscountCategory = v
			}
		})
		mustRegisterCollector(reg, OrderCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, PauseTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PauseTotal = v
			}
		})
		mustRegisterCollector(reg, ResumeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ResumeTotal = v
			}
		})
		mustRegisterCollector(reg, DeliveriesScheduledTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DeliveriesScheduledTotal = v
			}
		})
		mustRegisterCollector(reg, ReminderSentTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReminderSentTotal = v
			}
		})
	})
}
