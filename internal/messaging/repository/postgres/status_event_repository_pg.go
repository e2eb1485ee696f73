package postgres

import (
	"context"
	"time"

	"github.com/nico4348/baileys-nest-sub001/internal/messaging/domain"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/repository"
)

type pgStatusEventRepository struct{}

// NewPgStatusEventRepository creates a PostgreSQL-backed StatusEventRepository.
func NewPgStatusEventRepository() repository.StatusEventRepository {
	return &pgStatusEventRepository{}
}

func (r *pgStatusEventRepository) Append(ctx context.Context, q repository.Querier, ev *domain.StatusEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO message_statuses (message_id, status_name, hierarchy_level, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := q.Exec(ctx, query, ev.MessageID, ev.StatusName, ev.HierarchyLevel, ev.CreatedAt)
	return err
}

func (r *pgStatusEventRepository) MaxLevel(ctx context.Context, q repository.Querier, messageID string) (int, bool, error) {
	// Terminal failure rows do not contribute to the monotonic maximum.
	var max *int
	query := `
		SELECT MAX(hierarchy_level) FROM message_statuses
		WHERE message_id = $1 AND hierarchy_level < $2
	`
	err := q.QueryRow(ctx, query, messageID, domain.FailedLevel).Scan(&max)
	if err != nil {
		return 0, false, err
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (r *pgStatusEventRepository) History(ctx context.Context, q repository.Querier, messageID string) ([]domain.StatusEvent, error) {
	query := `
		SELECT message_id, status_name, hierarchy_level, created_at
		FROM message_statuses
		WHERE message_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.StatusEvent
	for rows.Next() {
		var ev domain.StatusEvent
		if err := rows.Scan(&ev.MessageID, &ev.StatusName, &ev.HierarchyLevel, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
