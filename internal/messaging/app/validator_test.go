package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

func validTextRequest() *domain.OutboundRequest {
	return &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeText,
		Text:      &domain.TextData{Text: "hi"},
	}
}

func TestValidateOutbound_Text(t *testing.T) {
	assert.NoError(t, ValidateOutbound(validTextRequest()))
}

func TestValidateOutbound_TextMissingBody(t *testing.T) {
	req := validTextRequest()
	req.Text = &domain.TextData{}

	err := ValidateOutbound(req)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "textData.text", verr.Field)
}

func TestValidateOutbound_TextMissingData(t *testing.T) {
	req := validTextRequest()
	req.Text = nil

	var verr *domain.ValidationError
	require.ErrorAs(t, ValidateOutbound(req), &verr)
	assert.Equal(t, "textData.text", verr.Field)
}

func TestValidateOutbound_Media(t *testing.T) {
	cases := []struct {
		name      string
		media     *domain.MediaData
		wantField string
	}{
		{"valid", &domain.MediaData{URL: "https://cdn.example/x.jpg", MediaType: "image"}, ""},
		{"missing data", nil, "mediaData"},
		{"missing url", &domain.MediaData{MediaType: "image"}, "mediaData.url"},
		{"missing media type", &domain.MediaData{URL: "https://cdn.example/x.jpg"}, "mediaData.mediaType"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &domain.OutboundRequest{
				SessionID: "session-1",
				Recipient: "5511999999999",
				Type:      domain.MessageTypeMedia,
				Media:     tc.media,
			}
			err := ValidateOutbound(req)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestValidateOutbound_Reaction(t *testing.T) {
	target := domain.TargetFromRawID("ABC123")

	cases := []struct {
		name      string
		reaction  *domain.ReactionData
		wantField string
	}{
		{"valid", &domain.ReactionData{Emoji: "👍", Target: target}, ""},
		{"missing data", nil, "reactionData"},
		{"missing emoji", &domain.ReactionData{Target: target}, "reactionData.emoji"},
		{"missing target", &domain.ReactionData{Emoji: "👍"}, "reactionData.targetMessageId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &domain.OutboundRequest{
				SessionID: "session-1",
				Recipient: "5511999999999",
				Type:      domain.MessageTypeReaction,
				Reaction:  tc.reaction,
			}
			err := ValidateOutbound(req)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantField, verr.Field)
		})
	}
}

func TestValidateOutbound_UnsupportedType(t *testing.T) {
	req := &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageType("sticker"),
	}

	var uerr *domain.UnsupportedTypeError
	require.ErrorAs(t, ValidateOutbound(req), &uerr)
	assert.Equal(t, domain.MessageType("sticker"), uerr.Type)
}

func TestValidateOutbound_MissingSessionAndRecipient(t *testing.T) {
	req := validTextRequest()
	req.SessionID = ""
	var verr *domain.ValidationError
	require.ErrorAs(t, ValidateOutbound(req), &verr)
	assert.Equal(t, "sessionId", verr.Field)

	req = validTextRequest()
	req.Recipient = ""
	require.ErrorAs(t, ValidateOutbound(req), &verr)
	assert.Equal(t, "recipient", verr.Field)
}
