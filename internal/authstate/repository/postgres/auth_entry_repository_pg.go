package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nico4348/baileys-nest-sub001/internal/authstate/repository"
)

type pgAuthEntryRepository struct {
	db *pgxpool.Pool
}

// NewPgAuthEntryRepository creates a PostgreSQL-backed AuthEntryRepository.
func NewPgAuthEntryRepository(db *pgxpool.Pool) repository.AuthEntryRepository {
	return &pgAuthEntryRepository{db: db}
}

func (r *pgAuthEntryRepository) Save(ctx context.Context, key, blob string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO auth_entries (entry_key, blob, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (entry_key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, key, blob, now)
	return err
}

func (r *pgAuthEntryRepository) FindByKey(ctx context.Context, key string) (string, bool, error) {
	var blob string
	query := `SELECT blob FROM auth_entries WHERE entry_key = $1`
	err := r.db.QueryRow(ctx, query, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return blob, true, nil
}

func (r *pgAuthEntryRepository) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM auth_entries WHERE entry_key = $1`, key)
	return err
}

func (r *pgAuthEntryRepository) DeleteByKeyPattern(ctx context.Context, prefix string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM auth_entries WHERE entry_key LIKE $1 || '%'`, prefix)
	return err
}
