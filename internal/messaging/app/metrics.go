package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "sends_processed_total",
			Help:      "Total outbound send orchestrations processed.",
		},
		[]string{"message_type", "outcome"}, // outcome: success, validation_error, transport_error, store_error, ...
	)

	statusEventsAppliedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "status_events_applied_total",
			Help:      "Total status events appended to message histories.",
		},
		[]string{"status"},
	)

	acksReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "transport_acks_received_total",
			Help:      "Total transport acknowledgments received from NATS.",
		},
		[]string{"subject"},
	)

	statusAcksDroppedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "transport_acks_dropped_total",
			Help:      "Transport acknowledgments dropped without a status update.",
		},
		[]string{"reason"}, // bad_payload, unknown_code, unknown_message
	)
)
