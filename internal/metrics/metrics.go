package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent counts messages accepted by the delivery router, by type.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailengine_messages_sent_total",
			Help: "Total messages accepted for delivery",
		},
		[]string{"type"}, // "internal" or "external"
	)

	// MessagesDelivered counts messages that reached delivered status.
	MessagesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailengine_messages_delivered_total",
			Help: "Total messages delivered",
		},
		[]string{"type"},
	)

	// DeliveryFailures counts external transport failures.
	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailengine_delivery_failures_total",
			Help: "Total external delivery failures",
		},
	)

	// MessagesRead counts read-state transitions.
	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailengine_messages_read_total",
			Help: "Total messages marked read",
		},
	)

	// DraftsSaved counts drafts persisted without routing.
	DraftsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailengine_drafts_saved_total",
			Help: "Total drafts saved",
		},
	)
)
