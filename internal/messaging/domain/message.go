package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// MessageType defines the supported outbound message kinds.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeMedia    MessageType = "media"
	MessageTypeReaction MessageType = "reaction"
)

// Value implements the driver.Valuer interface for MessageType.
func (t MessageType) Value() (driver.Value, error) {
	return string(t), nil
}

// Scan implements the sql.Scanner interface for MessageType.
func (t *MessageType) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan MessageType: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*t = MessageType(strVal)
	switch *t {
	case MessageTypeText, MessageTypeMedia, MessageTypeReaction:
		return nil
	default:
		return fmt.Errorf("unknown MessageType value: %s", strVal)
	}
}

// Direction indicates whether a message was sent or received by the gateway.
type Direction string

const (
	DirectionOutbound Direction = "out"
	DirectionInbound  Direction = "in"
)

// MessageRecord is the normalized, persisted form of a message that reached
// the persistence step. Immutable after creation.
type MessageRecord struct {
	ID                 string      `json:"id"` // Correlation UUID, generated before any I/O
	SessionID          string      `json:"session_id"`
	Recipient          string      `json:"recipient"`
	Type               MessageType `json:"message_type"`
	Direction          Direction   `json:"direction"`
	QuotedMessageID    *string     `json:"quoted_message_id,omitempty"`
	TransportMessageID *string     `json:"transport_message_id,omitempty"` // ID assigned by the transport
	CreatedAt          time.Time   `json:"created_at"`
}

// TextPayload is the type-specific payload for text messages.
type TextPayload struct {
	MessageID string `json:"message_id"`
	Body      string `json:"body"`
}

// MediaPayload is the type-specific payload for media messages.
type MediaPayload struct {
	MessageID string  `json:"message_id"`
	URL       string  `json:"url"`
	MediaType string  `json:"media_type"` // e.g. "image", "video", "audio", "document"
	MimeType  string  `json:"mime_type"`
	FileName  string  `json:"file_name"`
	Caption   *string `json:"caption,omitempty"`
}

// ReactionPayload is the type-specific payload for reaction messages.
type ReactionPayload struct {
	MessageID       string `json:"message_id"`
	Emoji           string `json:"emoji"`
	TargetMessageID string `json:"target_message_id"`
}

// TransportKey is the transport-side envelope identifying a message, as
// required when reacting to or quoting an existing message.
type TransportKey struct {
	ID        string `json:"id"`
	RemoteJID string `json:"remote_jid,omitempty"`
	FromMe    bool   `json:"from_me,omitempty"`
}

// ReactionTargetKind discriminates the reaction target variants.
type ReactionTargetKind int

const (
	// TargetByKey means the caller supplied the full transport envelope.
	TargetByKey ReactionTargetKind = iota + 1
	// TargetByCorrelationID means the caller supplied a previously issued
	// correlation id; the stored transport id is looked up before dispatch.
	TargetByCorrelationID
	// TargetByRawID means the caller supplied a bare transport identifier.
	// The transport may reject it if more context is required.
	TargetByRawID
)

// ReactionTarget is the tagged reference to the message being reacted to,
// resolved once at the request boundary.
type ReactionTarget struct {
	Kind          ReactionTargetKind
	Key           *TransportKey
	CorrelationID string
	RawID         string
}

// TargetFromKey builds a ReactionTarget from a full transport envelope.
func TargetFromKey(key TransportKey) *ReactionTarget {
	return &ReactionTarget{Kind: TargetByKey, Key: &key}
}

// TargetFromCorrelationID builds a ReactionTarget from a correlation id.
func TargetFromCorrelationID(id string) *ReactionTarget {
	return &ReactionTarget{Kind: TargetByCorrelationID, CorrelationID: id}
}

// TargetFromRawID builds a ReactionTarget from a bare transport identifier.
func TargetFromRawID(id string) *ReactionTarget {
	return &ReactionTarget{Kind: TargetByRawID, RawID: id}
}

// TextData carries the caller-supplied fields of a text request.
type TextData struct {
	Text string `json:"text"`
}

// MediaData carries the caller-supplied fields of a media request.
type MediaData struct {
	URL       string  `json:"url"`
	MediaType string  `json:"media_type"`
	MimeType  string  `json:"mime_type,omitempty"`
	FileName  string  `json:"file_name,omitempty"`
	Caption   *string `json:"caption,omitempty"`
}

// ReactionData carries the caller-supplied fields of a reaction request.
type ReactionData struct {
	Emoji  string          `json:"emoji"`
	Target *ReactionTarget `json:"-"`
}

// OutboundRequest is the transient input to the orchestrator. It is not
// persisted as-is; validation produces the normalized MessageRecord plus a
// type-specific payload.
type OutboundRequest struct {
	SessionID       string
	Recipient       string
	Type            MessageType
	Text            *TextData
	Media           *MediaData
	Reaction        *ReactionData
	QuotedMessageID *string
}

// SendResult is the uniform result of an orchestration call. Failures are
// reported here, never as a panic across the orchestration boundary.
type SendResult struct {
	Success            bool        `json:"success"`
	MessageID          string      `json:"message_id,omitempty"` // Correlation id
	TransportMessageID string      `json:"transport_message_id,omitempty"`
	Timestamp          time.Time   `json:"timestamp,omitempty"`
	MessageType        MessageType `json:"message_type"`
	Error              string      `json:"error,omitempty"`
}
