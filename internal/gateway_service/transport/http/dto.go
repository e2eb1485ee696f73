package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

// SendMessageRequest is the DTO for POST /messages/send.
type SendMessageRequest struct {
	SessionID       string            `json:"session_id"`
	Recipient       string            `json:"recipient"`
	MessageType     string            `json:"message_type"`
	TextData        *TextDataDTO      `json:"text_data,omitempty"`
	MediaData       *MediaDataDTO     `json:"media_data,omitempty"`
	ReactionData    *ReactionDataDTO  `json:"reaction_data,omitempty"`
	QuotedMessageID *string           `json:"quoted_message_id,omitempty"`
}

type TextDataDTO struct {
	Text string `json:"text"`
}

type MediaDataDTO struct {
	URL       string  `json:"url"`
	MediaType string  `json:"media_type"`
	MimeType  string  `json:"mime_type,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Caption   *string `json:"caption,omitempty"`
}

type ReactionDataDTO struct {
	Emoji string `json:"emoji"`
	// TargetMessageID accepts a full transport envelope object, a previously
	// issued correlation UUID, or a bare transport id string.
	TargetMessageID json.RawMessage `json:"target_message_id,omitempty"`
}

type transportKeyDTO struct {
	ID        string `json:"id"`
	RemoteJID string `json:"remote_jid,omitempty"`
	FromMe    bool   `json:"from_me,omitempty"`
}

// ToDomain converts the DTO into the orchestrator's request type, resolving
// the shape of the reaction target into its tagged variant.
func (r *SendMessageRequest) ToDomain() (*domain.OutboundRequest, error) {
	req := &domain.OutboundRequest{
		SessionID:       r.SessionID,
		Recipient:       r.Recipient,
		Type:            domain.MessageType(r.MessageType),
		QuotedMessageID: r.QuotedMessageID,
	}
	if r.TextData != nil {
		req.Text = &domain.TextData{Text: r.TextData.Text}
	}
	if r.MediaData != nil {
		req.Media = &domain.MediaData{
			URL:       r.MediaData.URL,
			MediaType: r.MediaData.MediaType,
			MimeType:  r.MediaData.MimeType,
			FileName:  r.MediaData.FileName,
			Caption:   r.MediaData.Caption,
		}
	}
	if r.ReactionData != nil {
		target, err := parseReactionTarget(r.ReactionData.TargetMessageID)
		if err != nil {
			return nil, err
		}
		req.Reaction = &domain.ReactionData{
			Emoji:  r.ReactionData.Emoji,
			Target: target,
		}
	}
	return req, nil
}

// parseReactionTarget classifies the polymorphic target reference once, at
// the request boundary. A JSON object is the full transport envelope; a UUID
// string is a correlation id; any other string is a raw transport id.
func parseReactionTarget(raw json.RawMessage) (*domain.ReactionTarget, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var key transportKeyDTO
	if err := json.Unmarshal(raw, &key); err == nil && key.ID != "" {
		return domain.TargetFromKey(domain.TransportKey{
			ID:        key.ID,
			RemoteJID: key.RemoteJID,
			FromMe:    key.FromMe,
		}), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("target_message_id must be an object or a string")
	}
	if s == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(s); err == nil {
		return domain.TargetFromCorrelationID(s), nil
	}
	return domain.TargetFromRawID(s), nil
}

// SendMessageResponse mirrors the orchestrator's uniform result.
type SendMessageResponse struct {
	Success            bool      `json:"success"`
	MessageID          string    `json:"message_id,omitempty"`
	TransportMessageID string    `json:"transport_message_id,omitempty"`
	Timestamp          time.Time `json:"timestamp,omitempty"`
	MessageType        string    `json:"message_type"`
	Error              string    `json:"error,omitempty"`
}

// MessageResponse is the DTO for GET /messages/{messageID}.
type MessageResponse struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Recipient          string    `json:"recipient"`
	MessageType        string    `json:"message_type"`
	Direction          string    `json:"direction"`
	QuotedMessageID    *string   `json:"quoted_message_id,omitempty"`
	TransportMessageID *string   `json:"transport_message_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// StatusEventResponse is one row of GET /messages/{messageID}/status.
type StatusEventResponse struct {
	StatusName     string    `json:"status_name"`
	HierarchyLevel int       `json:"hierarchy_level"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReportStatusRequest is the DTO for POST /transport/status.
type ReportStatusRequest struct {
	TransportMessageID string `json:"transport_message_id"`
	Status             string `json:"status"`
}

// GenericErrorResponse is the uniform error body.
type GenericErrorResponse struct {
	Error string `json:"error"`
}
