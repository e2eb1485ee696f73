package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
)

// Querier abstracts over a pgxpool.Pool and a pgx.Tx so repository methods
// can run either standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MessageRepository defines persistence for message records and their
// type-specific payloads.
type MessageRepository interface {
	Create(ctx context.Context, q Querier, rec *domain.MessageRecord) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.MessageRecord, error)

	CreateTextPayload(ctx context.Context, q Querier, p *domain.TextPayload) error
	CreateMediaPayload(ctx context.Context, q Querier, p *domain.MediaPayload) error
	CreateReactionPayload(ctx context.Context, q Querier, p *domain.ReactionPayload) error

	// GetTransportMessageID returns the transport-assigned id stored for a
	// correlation id, for reaction target resolution.
	GetTransportMessageID(ctx context.Context, q Querier, correlationID string) (string, error)
	// FindIDByTransportMessageID resolves a transport-assigned id back to the
	// correlation id, for acknowledgment processing.
	FindIDByTransportMessageID(ctx context.Context, q Querier, transportMessageID string) (string, error)
}

// StatusEventRepository defines persistence for the append-only status
// history of messages.
type StatusEventRepository interface {
	Append(ctx context.Context, q Querier, ev *domain.StatusEvent) error
	// MaxLevel returns the highest recorded hierarchy level for the message,
	// excluding terminal failure rows. The bool is false when no rows exist.
	MaxLevel(ctx context.Context, q Querier, messageID string) (int, bool, error)
	History(ctx context.Context, q Querier, messageID string) ([]domain.StatusEvent, error)
}
