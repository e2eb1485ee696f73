package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/adapters/transport"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

// --- Mocks ---

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, q repository.Querier, rec *domain.MessageRecord) error {
	args := m.Called(ctx, q, rec)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, q repository.Querier, id string) (*domain.MessageRecord, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessageRecord), args.Error(1)
}

func (m *MockMessageRepository) CreateTextPayload(ctx context.Context, q repository.Querier, p *domain.TextPayload) error {
	args := m.Called(ctx, q, p)
	return args.Error(0)
}

func (m *MockMessageRepository) CreateMediaPayload(ctx context.Context, q repository.Querier, p *domain.MediaPayload) error {
	args := m.Called(ctx, q, p)
	return args.Error(0)
}

func (m *MockMessageRepository) CreateReactionPayload(ctx context.Context, q repository.Querier, p *domain.ReactionPayload) error {
	args := m.Called(ctx, q, p)
	return args.Error(0)
}

func (m *MockMessageRepository) GetTransportMessageID(ctx context.Context, q repository.Querier, correlationID string) (string, error) {
	args := m.Called(ctx, q, correlationID)
	return args.String(0), args.Error(1)
}

func (m *MockMessageRepository) FindIDByTransportMessageID(ctx context.Context, q repository.Querier, transportMessageID string) (string, error) {
	args := m.Called(ctx, q, transportMessageID)
	return args.String(0), args.Error(1)
}

type MockTransportAdapter struct {
	mock.Mock
}

func (m *MockTransportAdapter) Send(ctx context.Context, request transport.SendRequestData) (*transport.SendResponseData, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transport.SendResponseData), args.Error(1)
}

func (m *MockTransportAdapter) GetName() string { return "mock" }

// fakeTxRunner runs the transaction body directly; repositories are mocked
// so no real transaction is needed.
type fakeTxRunner struct{}

func (fakeTxRunner) WithinTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- Test setup ---

type orchestratorTestComponents struct {
	orchestrator *Orchestrator
	messageRepo  *MockMessageRepository
	statusRepo   *memStatusRepo
	transport    *MockTransportAdapter
}

func setupOrchestratorTest(t *testing.T) orchestratorTestComponents {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageRepo := new(MockMessageRepository)
	statusRepo := &memStatusRepo{}
	transportAdapter := new(MockTransportAdapter)

	engine := NewStatusEngine(statusRepo, nil, logger)
	orchestrator := NewOrchestrator(messageRepo, engine, transportAdapter, fakeTxRunner{}, nil, nil, logger)

	return orchestratorTestComponents{
		orchestrator: orchestrator,
		messageRepo:  messageRepo,
		statusRepo:   statusRepo,
		transport:    transportAdapter,
	}
}

// --- Tests ---

func TestOrchestrator_SendText_PersistsRecordPayloadAndStatuses(t *testing.T) {
	comps := setupOrchestratorTest(t)
	ctx := context.Background()

	comps.transport.On("Send", mock.Anything, mock.MatchedBy(func(req transport.SendRequestData) bool {
		return req.Type == domain.MessageTypeText && req.Text == "hi"
	})).Return(&transport.SendResponseData{
		TransportMessageID: "T1",
		Timestamp:          time.Now().UTC(),
		RawStatus:          "PENDING",
	}, nil)

	var createdRecord *domain.MessageRecord
	comps.messageRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.MessageRecord")).
		Run(func(args mock.Arguments) {
			createdRecord = args.Get(2).(*domain.MessageRecord)
		}).Return(nil)
	comps.messageRepo.On("CreateTextPayload", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.TextPayload")).
		Return(nil)

	result := comps.orchestrator.Send(ctx, &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeText,
		Text:      &domain.TextData{Text: "hi"},
	})

	require.True(t, result.Success, "expected success, got error: %s", result.Error)
	assert.NotEmpty(t, result.MessageID)
	assert.Equal(t, "T1", result.TransportMessageID)
	assert.Equal(t, domain.MessageTypeText, result.MessageType)

	require.NotNil(t, createdRecord)
	assert.Equal(t, result.MessageID, createdRecord.ID)
	assert.Equal(t, domain.DirectionOutbound, createdRecord.Direction)
	require.NotNil(t, createdRecord.TransportMessageID)
	assert.Equal(t, "T1", *createdRecord.TransportMessageID)

	history, err := comps.orchestrator.GetHistory(ctx, result.MessageID)
	require.NoError(t, err)
	assert.Equal(t, []string{"message_receipt", "sent"}, statusNames(history))

	comps.messageRepo.AssertExpectations(t)
	comps.transport.AssertExpectations(t)
}

func TestOrchestrator_SendText_MissingBodyFailsWithoutPersisting(t *testing.T) {
	comps := setupOrchestratorTest(t)

	result := comps.orchestrator.Send(context.Background(), &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeText,
		Text:      &domain.TextData{},
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "textData.text")
	assert.Equal(t, domain.MessageTypeText, result.MessageType)

	comps.messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	comps.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOrchestrator_SendUnsupportedTypeFails(t *testing.T) {
	comps := setupOrchestratorTest(t)

	result := comps.orchestrator.Send(context.Background(), &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageType("location"),
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported message type")
	comps.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOrchestrator_SendFailsWhenTransportOmitsMessageID(t *testing.T) {
	comps := setupOrchestratorTest(t)

	comps.transport.On("Send", mock.Anything, mock.Anything).
		Return(&transport.SendResponseData{TransportMessageID: ""}, nil)

	result := comps.orchestrator.Send(context.Background(), validOrchestratorTextRequest())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "send failed")
	comps.messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_SendFailsWhenTransportErrors(t *testing.T) {
	comps := setupOrchestratorTest(t)

	comps.transport.On("Send", mock.Anything, mock.Anything).
		Return(nil, errors.New("socket closed"))

	result := comps.orchestrator.Send(context.Background(), validOrchestratorTextRequest())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "socket closed")
	comps.messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_SendMedia(t *testing.T) {
	comps := setupOrchestratorTest(t)
	caption := "holiday"

	comps.transport.On("Send", mock.Anything, mock.MatchedBy(func(req transport.SendRequestData) bool {
		return req.Type == domain.MessageTypeMedia && req.MediaURL == "https://cdn.example/a.jpg" && req.Caption == "holiday"
	})).Return(&transport.SendResponseData{TransportMessageID: "T2", Timestamp: time.Now().UTC()}, nil)

	comps.messageRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	var payload *domain.MediaPayload
	comps.messageRepo.On("CreateMediaPayload", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.MediaPayload")).
		Run(func(args mock.Arguments) {
			payload = args.Get(2).(*domain.MediaPayload)
		}).Return(nil)

	result := comps.orchestrator.Send(context.Background(), &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeMedia,
		Media: &domain.MediaData{
			URL:       "https://cdn.example/a.jpg",
			MediaType: "image",
			MimeType:  "image/jpeg",
			FileName:  "a.jpg",
			Caption:   &caption,
		},
	})

	require.True(t, result.Success, "expected success, got error: %s", result.Error)
	require.NotNil(t, payload)
	assert.Equal(t, "image", payload.MediaType)
	assert.Equal(t, result.MessageID, payload.MessageID)
}

func TestOrchestrator_ThreeReactionsAgainstSameTarget(t *testing.T) {
	comps := setupOrchestratorTest(t)
	ctx := context.Background()

	comps.transport.On("Send", mock.Anything, mock.Anything).
		Return(&transport.SendResponseData{TransportMessageID: "T3", Timestamp: time.Now().UTC()}, nil).Times(3)
	comps.messageRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	var payloads []*domain.ReactionPayload
	comps.messageRepo.On("CreateReactionPayload", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.ReactionPayload")).
		Run(func(args mock.Arguments) {
			payloads = append(payloads, args.Get(2).(*domain.ReactionPayload))
		}).Return(nil).Times(3)

	seen := map[string]bool{}
	for _, emoji := range []string{"👍", "❤️", "😂"} {
		result := comps.orchestrator.Send(ctx, &domain.OutboundRequest{
			SessionID: "session-1",
			Recipient: "5511999999999",
			Type:      domain.MessageTypeReaction,
			Reaction: &domain.ReactionData{
				Emoji:  emoji,
				Target: domain.TargetFromRawID("TARGET9"),
			},
		})
		require.True(t, result.Success, "expected success, got error: %s", result.Error)
		seen[result.MessageID] = true
	}

	assert.Len(t, seen, 3, "each reaction gets its own correlation id")
	require.Len(t, payloads, 3)
	for _, p := range payloads {
		assert.Equal(t, "TARGET9", p.TargetMessageID)
	}
}

func TestOrchestrator_ReactionByCorrelationIDResolvesStoredTransportID(t *testing.T) {
	comps := setupOrchestratorTest(t)

	priorID := "6a0c7f3e-0000-4000-8000-000000000001"
	comps.messageRepo.On("GetTransportMessageID", mock.Anything, mock.Anything, priorID).
		Return("T9", nil)

	comps.transport.On("Send", mock.Anything, mock.MatchedBy(func(req transport.SendRequestData) bool {
		return req.ReactionTarget != nil && req.ReactionTarget.ID == "T9" && req.ReactionTarget.FromMe
	})).Return(&transport.SendResponseData{TransportMessageID: "T10", Timestamp: time.Now().UTC()}, nil)

	comps.messageRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	comps.messageRepo.On("CreateReactionPayload", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.ReactionPayload) bool {
		return p.TargetMessageID == "T9"
	})).Return(nil)

	result := comps.orchestrator.Send(context.Background(), &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeReaction,
		Reaction: &domain.ReactionData{
			Emoji:  "👍",
			Target: domain.TargetFromCorrelationID(priorID),
		},
	})

	require.True(t, result.Success, "expected success, got error: %s", result.Error)
	comps.messageRepo.AssertExpectations(t)
	comps.transport.AssertExpectations(t)
}

func TestOrchestrator_ReactionByCorrelationIDUnknownMessageFails(t *testing.T) {
	comps := setupOrchestratorTest(t)

	comps.messageRepo.On("GetTransportMessageID", mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.ErrMessageNotFound)

	result := comps.orchestrator.Send(context.Background(), &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeReaction,
		Reaction: &domain.ReactionData{
			Emoji:  "👍",
			Target: domain.TargetFromCorrelationID("6a0c7f3e-0000-4000-8000-000000000002"),
		},
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no sent message found")
	comps.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOrchestrator_ReportStatus_AppliesCanonicalStatus(t *testing.T) {
	comps := setupOrchestratorTest(t)
	ctx := context.Background()

	comps.messageRepo.On("FindIDByTransportMessageID", mock.Anything, mock.Anything, "T1").
		Return("m1", nil)

	require.NoError(t, comps.orchestrator.ReportStatus(ctx, "T1", "3"))

	history, err := comps.orchestrator.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"delivered"}, statusNames(history))
}

func TestOrchestrator_ReportStatus_OutOfOrderAckIsNoOp(t *testing.T) {
	comps := setupOrchestratorTest(t)
	ctx := context.Background()

	comps.messageRepo.On("FindIDByTransportMessageID", mock.Anything, mock.Anything, "T1").
		Return("m1", nil)

	require.NoError(t, comps.orchestrator.ReportStatus(ctx, "T1", "DELIVERY_ACK"))
	require.NoError(t, comps.orchestrator.ReportStatus(ctx, "T1", "SERVER_ACK"))

	history, err := comps.orchestrator.GetHistory(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"delivered"}, statusNames(history))
}

func TestOrchestrator_ReportStatus_UnknownCodeDropped(t *testing.T) {
	comps := setupOrchestratorTest(t)

	require.NoError(t, comps.orchestrator.ReportStatus(context.Background(), "T1", "WEIRD"))
	comps.messageRepo.AssertNotCalled(t, "FindIDByTransportMessageID", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_ReportStatus_UnknownTransportIDDropped(t *testing.T) {
	comps := setupOrchestratorTest(t)

	comps.messageRepo.On("FindIDByTransportMessageID", mock.Anything, mock.Anything, "TX").
		Return("", domain.ErrMessageNotFound)

	require.NoError(t, comps.orchestrator.ReportStatus(context.Background(), "TX", "3"))
}

func validOrchestratorTextRequest() *domain.OutboundRequest {
	return &domain.OutboundRequest{
		SessionID: "session-1",
		Recipient: "5511999999999",
		Type:      domain.MessageTypeText,
		Text:      &domain.TextData{Text: "hi"},
	}
}
