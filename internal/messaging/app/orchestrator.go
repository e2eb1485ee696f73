package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/adapters/transport"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

// Subject for send-result events published after successful orchestration.
const natsSendResultSubject = "messages.sent"

// Publisher publishes gateway events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// sendHandler builds the transport request for one message type. Handlers are
// registered per type on the orchestrator instance; there is no process-wide
// registry.
type sendHandler func(ctx context.Context, req *domain.OutboundRequest, correlationID string, target *domain.TransportKey) (transport.SendRequestData, error)

// Orchestrator coordinates outbound sends: validation, per-type dispatch to
// the transport, persistence of the normalized record plus payload, and the
// message's status history.
type Orchestrator struct {
	messageRepo  repository.MessageRepository
	statusEngine *StatusEngine
	transport    transport.Adapter
	txm          TxRunner
	db           repository.Querier
	events       Publisher
	logger       *slog.Logger
	handlers     map[domain.MessageType]sendHandler
}

// NewOrchestrator creates a new Orchestrator. events may be nil when no
// broker is attached (e.g. in tests).
func NewOrchestrator(
	messageRepo repository.MessageRepository,
	statusEngine *StatusEngine,
	transportAdapter transport.Adapter,
	txm TxRunner,
	db repository.Querier,
	events Publisher,
	logger *slog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		messageRepo:  messageRepo,
		statusEngine: statusEngine,
		transport:    transportAdapter,
		txm:          txm,
		db:           db,
		events:       events,
		logger:       logger.With("service", "message_orchestrator"),
	}
	o.handlers = map[domain.MessageType]sendHandler{
		domain.MessageTypeText:     o.buildTextSend,
		domain.MessageTypeMedia:    o.buildMediaSend,
		domain.MessageTypeReaction: o.buildReactionSend,
	}
	return o
}

// Send orchestrates one outbound message. It always returns a structured
// result; failures never escape as a fault to the caller.
func (o *Orchestrator) Send(ctx context.Context, req *domain.OutboundRequest) domain.SendResult {
	// The correlation id exists before any I/O so even total failures can be
	// logged and traced against an identity.
	correlationID := uuid.NewString()
	logger := o.logger.With("correlation_id", correlationID, "session_id", req.SessionID)

	if err := ValidateOutbound(req); err != nil {
		logger.WarnContext(ctx, "Outbound request failed validation", "error", err, "type", string(req.Type))
		sendsProcessedCounter.WithLabelValues(string(req.Type), "validation_error").Inc()
		return failureResult(req.Type, err)
	}

	handler, ok := o.handlers[req.Type]
	if !ok {
		// Unreachable after validation, kept as a guard for handler wiring.
		err := &domain.UnsupportedTypeError{Type: req.Type}
		sendsProcessedCounter.WithLabelValues(string(req.Type), "unsupported_type").Inc()
		return failureResult(req.Type, err)
	}

	// Reaction targets are resolved exactly once, at the boundary, before
	// dispatch; both the transport request and the persisted payload use the
	// same resolved key.
	var resolvedTarget *domain.TransportKey
	if req.Type == domain.MessageTypeReaction {
		var err error
		resolvedTarget, err = o.resolveReactionTarget(ctx, req.Reaction.Target)
		if err != nil {
			logger.WarnContext(ctx, "Failed to resolve reaction target", "error", err)
			sendsProcessedCounter.WithLabelValues(string(req.Type), "dispatch_error").Inc()
			return failureResult(req.Type, err)
		}
	}

	treq, err := handler(ctx, req, correlationID, resolvedTarget)
	if err != nil {
		logger.WarnContext(ctx, "Failed to prepare transport request", "error", err, "type", string(req.Type))
		sendsProcessedCounter.WithLabelValues(string(req.Type), "dispatch_error").Inc()
		return failureResult(req.Type, err)
	}

	resp, err := o.transport.Send(ctx, treq)
	if err != nil {
		logger.ErrorContext(ctx, "Transport send failed", "error", err, "transport", o.transport.GetName())
		sendsProcessedCounter.WithLabelValues(string(req.Type), "transport_error").Inc()
		return failureResult(req.Type, &domain.SendFailedError{Reason: err.Error()})
	}
	if resp == nil || resp.TransportMessageID == "" {
		err := &domain.SendFailedError{Reason: "transport response lacked a message id"}
		logger.ErrorContext(ctx, "Transport response missing correlating identifiers", "transport", o.transport.GetName())
		sendsProcessedCounter.WithLabelValues(string(req.Type), "transport_error").Inc()
		return failureResult(req.Type, err)
	}

	if err := o.persistSend(ctx, req, correlationID, resolvedTarget, resp); err != nil {
		logger.ErrorContext(ctx, "Failed to persist message record", "error", err)
		sendsProcessedCounter.WithLabelValues(string(req.Type), "store_error").Inc()
		return failureResult(req.Type, err)
	}

	// The transport accepted the message; record "sent". Status recording is
	// auxiliary auditing, failures here are not fatal to the caller.
	if err := o.statusEngine.Apply(ctx, correlationID, domain.StatusSent); err != nil {
		logger.ErrorContext(ctx, "Failed to record sent status", "error", err)
	}

	o.publishSendResult(ctx, logger, correlationID, resp.TransportMessageID)

	logger.InfoContext(ctx, "Message orchestrated successfully",
		"transport_message_id", resp.TransportMessageID, "type", string(req.Type))
	sendsProcessedCounter.WithLabelValues(string(req.Type), "success").Inc()

	return domain.SendResult{
		Success:            true,
		MessageID:          correlationID,
		TransportMessageID: resp.TransportMessageID,
		Timestamp:          resp.Timestamp,
		MessageType:        req.Type,
	}
}

// persistSend writes the MessageRecord, its type-specific payload, and the
// initial receipt status as one transaction so a crash cannot leave a record
// without its payload or history.
func (o *Orchestrator) persistSend(ctx context.Context, req *domain.OutboundRequest, correlationID string, target *domain.TransportKey, resp *transport.SendResponseData) error {
	return o.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		transportID := resp.TransportMessageID
		rec := &domain.MessageRecord{
			ID:                 correlationID,
			SessionID:          req.SessionID,
			Recipient:          req.Recipient,
			Type:               req.Type,
			Direction:          domain.DirectionOutbound,
			QuotedMessageID:    req.QuotedMessageID,
			TransportMessageID: &transportID,
		}
		if err := o.messageRepo.Create(ctx, tx, rec); err != nil {
			return fmt.Errorf("failed to create message record: %w", err)
		}

		switch req.Type {
		case domain.MessageTypeText:
			err := o.messageRepo.CreateTextPayload(ctx, tx, &domain.TextPayload{
				MessageID: correlationID,
				Body:      req.Text.Text,
			})
			if err != nil {
				return fmt.Errorf("failed to create text payload: %w", err)
			}
		case domain.MessageTypeMedia:
			err := o.messageRepo.CreateMediaPayload(ctx, tx, &domain.MediaPayload{
				MessageID: correlationID,
				URL:       req.Media.URL,
				MediaType: req.Media.MediaType,
				MimeType:  req.Media.MimeType,
				FileName:  req.Media.FileName,
				Caption:   req.Media.Caption,
			})
			if err != nil {
				return fmt.Errorf("failed to create media payload: %w", err)
			}
		case domain.MessageTypeReaction:
			err := o.messageRepo.CreateReactionPayload(ctx, tx, &domain.ReactionPayload{
				MessageID:       correlationID,
				Emoji:           req.Reaction.Emoji,
				TargetMessageID: target.ID,
			})
			if err != nil {
				return fmt.Errorf("failed to create reaction payload: %w", err)
			}
		}

		return o.statusEngine.ApplyTx(ctx, tx, correlationID, domain.StatusMessageReceipt)
	})
}

// buildTextSend prepares the transport request for a text message.
func (o *Orchestrator) buildTextSend(ctx context.Context, req *domain.OutboundRequest, correlationID string, _ *domain.TransportKey) (transport.SendRequestData, error) {
	treq := transport.SendRequestData{
		InternalMessageID: correlationID,
		SessionID:         req.SessionID,
		Recipient:         req.Recipient,
		Type:              domain.MessageTypeText,
		Text:              req.Text.Text,
	}
	if req.QuotedMessageID != nil {
		treq.QuotedMessageID = *req.QuotedMessageID
	}
	return treq, nil
}

// buildMediaSend prepares the transport request for a media message.
func (o *Orchestrator) buildMediaSend(ctx context.Context, req *domain.OutboundRequest, correlationID string, _ *domain.TransportKey) (transport.SendRequestData, error) {
	treq := transport.SendRequestData{
		InternalMessageID: correlationID,
		SessionID:         req.SessionID,
		Recipient:         req.Recipient,
		Type:              domain.MessageTypeMedia,
		MediaURL:          req.Media.URL,
		MediaType:         req.Media.MediaType,
		MimeType:          req.Media.MimeType,
		FileName:          req.Media.FileName,
	}
	if req.Media.Caption != nil {
		treq.Caption = *req.Media.Caption
	}
	if req.QuotedMessageID != nil {
		treq.QuotedMessageID = *req.QuotedMessageID
	}
	return treq, nil
}

// buildReactionSend prepares the transport request for a reaction using the
// target resolved at the boundary.
func (o *Orchestrator) buildReactionSend(ctx context.Context, req *domain.OutboundRequest, correlationID string, target *domain.TransportKey) (transport.SendRequestData, error) {
	return transport.SendRequestData{
		InternalMessageID: correlationID,
		SessionID:         req.SessionID,
		Recipient:         req.Recipient,
		Type:              domain.MessageTypeReaction,
		Emoji:             req.Reaction.Emoji,
		ReactionTarget:    target,
	}, nil
}

// resolveReactionTarget turns the tagged target reference into the transport
// envelope the backend expects.
func (o *Orchestrator) resolveReactionTarget(ctx context.Context, target *domain.ReactionTarget) (*domain.TransportKey, error) {
	switch target.Kind {
	case domain.TargetByKey:
		return target.Key, nil
	case domain.TargetByCorrelationID:
		transportID, err := o.messageRepo.GetTransportMessageID(ctx, o.db, target.CorrelationID)
		if err != nil {
			if errors.Is(err, domain.ErrMessageNotFound) {
				return nil, &domain.ValidationError{
					Field:  "reactionData.targetMessageId",
					Reason: fmt.Sprintf("no sent message found for correlation id %s", target.CorrelationID),
				}
			}
			return nil, err
		}
		return &domain.TransportKey{ID: transportID, FromMe: true}, nil
	case domain.TargetByRawID:
		// Pass through; the transport may reject it if it needs the full envelope.
		return &domain.TransportKey{ID: target.RawID}, nil
	default:
		return nil, fmt.Errorf("unknown reaction target kind: %d", target.Kind)
	}
}

// GetMessage returns the persisted record for a correlation id.
func (o *Orchestrator) GetMessage(ctx context.Context, id string) (*domain.MessageRecord, error) {
	return o.messageRepo.GetByID(ctx, o.db, id)
}

// GetHistory returns a message's status history, oldest first.
func (o *Orchestrator) GetHistory(ctx context.Context, id string) ([]domain.StatusEvent, error) {
	return o.statusEngine.GetHistory(ctx, id)
}

// ReportStatus maps a raw transport status code to a canonical status and
// applies it to the message identified by the transport-assigned id. Unknown
// codes and unknown ids are logged and dropped; apply failures are logged but
// non-fatal since status recording is auxiliary auditing.
func (o *Orchestrator) ReportStatus(ctx context.Context, transportMessageID, rawStatusCode string) error {
	status, ok := domain.StatusFromTransportCode(rawStatusCode)
	if !ok {
		o.logger.WarnContext(ctx, "Unknown transport status code, dropping",
			"transport_message_id", transportMessageID, "raw_status", rawStatusCode)
		statusAcksDroppedCounter.WithLabelValues("unknown_code").Inc()
		return nil
	}

	messageID, err := o.messageRepo.FindIDByTransportMessageID(ctx, o.db, transportMessageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			o.logger.WarnContext(ctx, "No message found for transport acknowledgment, dropping",
				"transport_message_id", transportMessageID, "status", status.Name)
			statusAcksDroppedCounter.WithLabelValues("unknown_message").Inc()
			return nil
		}
		return fmt.Errorf("failed to resolve transport message id: %w", err)
	}

	if err := o.statusEngine.Apply(ctx, messageID, status); err != nil {
		o.logger.ErrorContext(ctx, "Failed to apply acknowledged status",
			"error", err, "message_id", messageID, "status", status.Name)
	}
	return nil
}

// publishSendResult emits a broker event so downstream consumers can react
// to successful sends. Best-effort only.
func (o *Orchestrator) publishSendResult(ctx context.Context, logger *slog.Logger, correlationID, transportMessageID string) {
	if o.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"message_id":           correlationID,
		"transport_message_id": transportMessageID,
		"sent_at":              time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal send-result event", "error", err)
		return
	}
	if err := o.events.Publish(ctx, natsSendResultSubject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish send-result event", "error", err, "subject", natsSendResultSubject)
	}
}

func failureResult(t domain.MessageType, err error) domain.SendResult {
	return domain.SendResult{
		Success:     false,
		MessageType: t,
		Error:       err.Error(),
	}
}
