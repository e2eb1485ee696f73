package transport

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockTransport is a simulated delivery backend for testing and development.
type MockTransport struct {
	logger       *slog.Logger
	name         string
	failRate     float64 // Chance to simulate failure (0.0 to 1.0)
	minLatencyMs int
	maxLatencyMs int
}

// NewMockTransport creates a new MockTransport.
func NewMockTransport(logger *slog.Logger, name string, failRate float64, minLatencyMs, maxLatencyMs int) Adapter {
	if name == "" {
		name = "mock-transport"
	}
	return &MockTransport{
		logger:       logger.With("transport", name),
		name:         name,
		failRate:     failRate,
		minLatencyMs: minLatencyMs,
		maxLatencyMs: maxLatencyMs,
	}
}

func (t *MockTransport) GetName() string {
	return t.name
}

func (t *MockTransport) Send(ctx context.Context, request SendRequestData) (*SendResponseData, error) {
	if t.maxLatencyMs > t.minLatencyMs {
		latency := t.minLatencyMs + rand.Intn(t.maxLatencyMs-t.minLatencyMs+1)
		time.Sleep(time.Duration(latency) * time.Millisecond)
	}

	t.logger.InfoContext(ctx, "MockTransport: Send called",
		"message_id", request.InternalMessageID,
		"session_id", request.SessionID,
		"recipient", request.Recipient,
		"type", string(request.Type))

	if rand.Float64() < t.failRate {
		errMsg := fmt.Sprintf("MockTransport simulated failure for recipient %s", request.Recipient)
		t.logger.WarnContext(ctx, errMsg, "message_id", request.InternalMessageID)
		return nil, fmt.Errorf(errMsg)
	}

	// Transport ids follow the uppercase-hex shape real envelopes carry.
	transportID := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	t.logger.InfoContext(ctx, "MockTransport: message dispatched (simulated)",
		"message_id", request.InternalMessageID,
		"transport_message_id", transportID)

	return &SendResponseData{
		TransportMessageID: transportID,
		Timestamp:          time.Now().UTC(),
		RawStatus:          "PENDING",
	}, nil
}
