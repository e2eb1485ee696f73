package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nico4348/baileys-nest-sub001/internal/platform/messagebroker"
)

// TransportAckPayload is the structure of acknowledgment messages published
// by the transport on transport.acks.<session>.
type TransportAckPayload struct {
	SessionID          string `json:"session_id"`
	TransportMessageID string `json:"transport_message_id"`
	Status             string `json:"status"` // Raw transport status code
}

// AckConsumer consumes transport acknowledgments from NATS and feeds them to
// the orchestrator's status path.
type AckConsumer struct {
	natsClient   *messagebroker.NATSClient
	orchestrator *Orchestrator
	logger       *slog.Logger
	sub          *nats.Subscription
}

// NewAckConsumer creates a new AckConsumer.
func NewAckConsumer(natsClient *messagebroker.NATSClient, orchestrator *Orchestrator, logger *slog.Logger) *AckConsumer {
	return &AckConsumer{
		natsClient:   natsClient,
		orchestrator: orchestrator,
		logger:       logger.With("service", "ack_consumer"),
	}
}

// Start subscribes to the acknowledgment subject with the given queue group.
func (c *AckConsumer) Start(ctx context.Context, subject, queueGroup string) error {
	c.logger.Info("Starting transport ack consumer", "subject", subject, "queue_group", queueGroup)

	msgHandler := func(msg *nats.Msg) {
		acksReceivedCounter.WithLabelValues(msg.Subject).Inc()
		c.logger.Debug("Received transport ack", "subject", msg.Subject, "data_len", len(msg.Data))

		var ack TransportAckPayload
		if err := json.Unmarshal(msg.Data, &ack); err != nil {
			c.logger.Error("Failed to unmarshal transport ack payload", "error", err, "data", string(msg.Data))
			statusAcksDroppedCounter.WithLabelValues("bad_payload").Inc()
			return
		}
		if ack.TransportMessageID == "" {
			c.logger.Error("Transport ack missing transport_message_id", "subject", msg.Subject)
			statusAcksDroppedCounter.WithLabelValues("bad_payload").Inc()
			return
		}

		// Each ack gets its own timeout so one slow database call cannot
		// stall the subscription callback indefinitely.
		ackCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.orchestrator.ReportStatus(ackCtx, ack.TransportMessageID, ack.Status); err != nil {
			c.logger.Error("Failed to process transport ack",
				"error", err, "transport_message_id", ack.TransportMessageID, "status", ack.Status)
		}
	}

	sub, err := c.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to ack subject '%s': %w", subject, err)
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes from the acknowledgment subject.
func (c *AckConsumer) Stop() {
	if c.sub != nil && c.sub.IsValid() {
		c.logger.Info("Unsubscribing from transport ack subject", "subject", c.sub.Subject)
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Error("Failed to unsubscribe from NATS", "error", err, "subject", c.sub.Subject)
		}
	}
}
