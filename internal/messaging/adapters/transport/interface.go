package transport

import (
	"context"
	"time"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

// SendRequestData holds the data a transport adapter needs to dispatch one
// outbound message. Exactly the fields for the request's type are set.
type SendRequestData struct {
	InternalMessageID string // Correlation id, for transport-side tracing
	SessionID         string
	Recipient         string
	Type              domain.MessageType

	Text string

	MediaURL  string
	MediaType string
	MimeType  string
	FileName  string
	Caption   string

	Emoji          string
	ReactionTarget *domain.TransportKey

	QuotedMessageID string
}

// SendResponseData holds the outcome of a transport send attempt.
type SendResponseData struct {
	TransportMessageID string // The id assigned by the transport
	Timestamp          time.Time
	RawStatus          string // Raw status code reported on submission
}

// Adapter defines the interface to the external message-delivery backend.
// Session lifecycle (connect/reconnect/QR) is the backend's concern; the
// orchestrator only dispatches sends and consumes acknowledgments.
type Adapter interface {
	Send(ctx context.Context, request SendRequestData) (*SendResponseData, error)
	GetName() string
}
