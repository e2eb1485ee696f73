package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

type pgMessageRepository struct{}

// NewPgMessageRepository creates a PostgreSQL-backed MessageRepository.
// Methods take a Querier so callers control transaction scope.
func NewPgMessageRepository() repository.MessageRepository {
	return &pgMessageRepository{}
}

func (r *pgMessageRepository) Create(ctx context.Context, q repository.Querier, rec *domain.MessageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (
			id, session_id, recipient, message_type, direction,
			quoted_message_id, transport_message_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.Exec(ctx, query,
		rec.ID, rec.SessionID, rec.Recipient, rec.Type, rec.Direction,
		rec.QuotedMessageID, rec.TransportMessageID, rec.CreatedAt,
	)
	return err
}

func (r *pgMessageRepository) GetByID(ctx context.Context, q repository.Querier, id string) (*domain.MessageRecord, error) {
	rec := &domain.MessageRecord{}
	query := `
		SELECT id, session_id, recipient, message_type, direction,
		       quoted_message_id, transport_message_id, created_at
		FROM messages WHERE id = $1
	`
	err := q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.SessionID, &rec.Recipient, &rec.Type, &rec.Direction,
		&rec.QuotedMessageID, &rec.TransportMessageID, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *pgMessageRepository) CreateTextPayload(ctx context.Context, q repository.Querier, p *domain.TextPayload) error {
	query := `INSERT INTO text_payloads (message_id, body) VALUES ($1, $2)`
	_, err := q.Exec(ctx, query, p.MessageID, p.Body)
	return err
}

func (r *pgMessageRepository) CreateMediaPayload(ctx context.Context, q repository.Querier, p *domain.MediaPayload) error {
	query := `
		INSERT INTO media_payloads (message_id, url, media_type, mime_type, file_name, caption)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query, p.MessageID, p.URL, p.MediaType, p.MimeType, p.FileName, p.Caption)
	return err
}

func (r *pgMessageRepository) CreateReactionPayload(ctx context.Context, q repository.Querier, p *domain.ReactionPayload) error {
	query := `INSERT INTO reaction_payloads (message_id, emoji, target_message_id) VALUES ($1, $2, $3)`
	_, err := q.Exec(ctx, query, p.MessageID, p.Emoji, p.TargetMessageID)
	return err
}

func (r *pgMessageRepository) GetTransportMessageID(ctx context.Context, q repository.Querier, correlationID string) (string, error) {
	var transportID *string
	query := `SELECT transport_message_id FROM messages WHERE id = $1`
	err := q.QueryRow(ctx, query, correlationID).Scan(&transportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrMessageNotFound
		}
		return "", err
	}
	if transportID == nil {
		return "", domain.ErrMessageNotFound
	}
	return *transportID, nil
}

func (r *pgMessageRepository) FindIDByTransportMessageID(ctx context.Context, q repository.Querier, transportMessageID string) (string, error) {
	var id string
	query := `
		SELECT id FROM messages
		WHERE transport_message_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := q.QueryRow(ctx, query, transportMessageID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrMessageNotFound
		}
		return "", err
	}
	return id, nil
}
