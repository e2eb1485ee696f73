package app

import (
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

// ValidateOutbound checks the type-specific structure of an outbound request.
// Pure function: no side effects, no I/O.
func ValidateOutbound(req *domain.OutboundRequest) error {
	if req.SessionID == "" {
		return &domain.ValidationError{Field: "sessionId", Reason: "must not be empty"}
	}
	if req.Recipient == "" {
		return &domain.ValidationError{Field: "recipient", Reason: "must not be empty"}
	}

	switch req.Type {
	case domain.MessageTypeText:
		if req.Text == nil || req.Text.Text == "" {
			return &domain.ValidationError{Field: "textData.text", Reason: "text messages require a non-empty text"}
		}
	case domain.MessageTypeMedia:
		if req.Media == nil {
			return &domain.ValidationError{Field: "mediaData", Reason: "media messages require media data"}
		}
		if req.Media.URL == "" {
			return &domain.ValidationError{Field: "mediaData.url", Reason: "media messages require a non-empty url"}
		}
		if req.Media.MediaType == "" {
			return &domain.ValidationError{Field: "mediaData.mediaType", Reason: "media messages require a non-empty mediaType"}
		}
	case domain.MessageTypeReaction:
		if req.Reaction == nil {
			return &domain.ValidationError{Field: "reactionData", Reason: "reaction messages require reaction data"}
		}
		if req.Reaction.Emoji == "" {
			return &domain.ValidationError{Field: "reactionData.emoji", Reason: "reaction messages require a non-empty emoji"}
		}
		if req.Reaction.Target == nil {
			return &domain.ValidationError{Field: "reactionData.targetMessageId", Reason: "reaction messages require a target message reference"}
		}
	default:
		return &domain.UnsupportedTypeError{Type: req.Type}
	}
	return nil
}
