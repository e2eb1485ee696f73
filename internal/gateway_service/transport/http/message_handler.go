package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	msgdomain "github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

// Orchestrator is the messaging entry point consumed by the HTTP surface.
type Orchestrator interface {
	Send(ctx context.Context, req *msgdomain.OutboundRequest) msgdomain.SendResult
	GetMessage(ctx context.Context, id string) (*msgdomain.MessageRecord, error)
	GetHistory(ctx context.Context, id string) ([]msgdomain.StatusEvent, error)
	ReportStatus(ctx context.Context, transportMessageID, rawStatusCode string) error
}

// AuthStateService is the session teardown surface.
type AuthStateService interface {
	DeleteAuthState(ctx context.Context, sessionID string) error
}

type MessageHandler struct {
	orchestrator Orchestrator
	authState    AuthStateService
	logger       *slog.Logger
}

func NewMessageHandler(orchestrator Orchestrator, authState AuthStateService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		orchestrator: orchestrator,
		authState:    authState,
		logger:       logger.With("handler", "message"),
	}
}

// RegisterRoutes registers gateway routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages/send", h.handleSendMessage)
	r.Get("/messages/{messageID}", h.handleGetMessage)
	r.Get("/messages/{messageID}/status", h.handleGetStatusHistory)
	r.Post("/transport/status", h.handleReportStatus)
	r.Delete("/sessions/{sessionID}/auth", h.handleDeleteAuthState)
}

func (h *MessageHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode send message request", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	domainReq, err := req.ToDomain()
	if err != nil {
		logger.WarnContext(ctx, "Failed to parse send message request", "error", err)
		h.jsonError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.orchestrator.Send(ctx, domainReq)
	response := SendMessageResponse{
		Success:            result.Success,
		MessageID:          result.MessageID,
		TransportMessageID: result.TransportMessageID,
		Timestamp:          result.Timestamp,
		MessageType:        string(result.MessageType),
		Error:              result.Error,
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func (h *MessageHandler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	rec, err := h.orchestrator.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, msgdomain.ErrMessageNotFound) {
			h.jsonError(w, logger, "Message not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "Failed to get message", "error", err, "message_id", messageID)
		h.jsonError(w, logger, "Failed to retrieve message", http.StatusInternalServerError)
		return
	}

	response := MessageResponse{
		ID:                 rec.ID,
		SessionID:          rec.SessionID,
		Recipient:          rec.Recipient,
		MessageType:        string(rec.Type),
		Direction:          string(rec.Direction),
		QuotedMessageID:    rec.QuotedMessageID,
		TransportMessageID: rec.TransportMessageID,
		CreatedAt:          rec.CreatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *MessageHandler) handleGetStatusHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	history, err := h.orchestrator.GetHistory(ctx, messageID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to get status history", "error", err, "message_id", messageID)
		h.jsonError(w, logger, "Failed to retrieve status history", http.StatusInternalServerError)
		return
	}

	response := make([]StatusEventResponse, 0, len(history))
	for _, ev := range history {
		response = append(response, StatusEventResponse{
			StatusName:     ev.StatusName,
			HierarchyLevel: ev.HierarchyLevel,
			CreatedAt:      ev.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleReportStatus is the webhook path for transports that push
// acknowledgments over HTTP instead of the broker.
func (h *MessageHandler) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req ReportStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(ctx, "Failed to decode status report", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TransportMessageID == "" {
		h.jsonError(w, logger, "transport_message_id is required", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.ReportStatus(ctx, req.TransportMessageID, req.Status); err != nil {
		logger.ErrorContext(ctx, "Failed to process status report", "error", err,
			"transport_message_id", req.TransportMessageID)
		h.jsonError(w, logger, "Failed to process status report", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) handleDeleteAuthState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.authState.DeleteAuthState(ctx, sessionID); err != nil {
		logger.ErrorContext(ctx, "Failed to delete auth state", "error", err, "session_id", sessionID)
		h.jsonError(w, logger, "Failed to delete auth state", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Warn("API error response", "status_code", statusCode, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(GenericErrorResponse{Error: message})
}
