package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge/task-service/internal/domain"
)

// TokenRepository manages persisted token records. The tokens table carries a
// unique index on user_id, so at most one record per user can exist.
type TokenRepository interface {
	Create(ctx context.Context, record *domain.TokenRecord) error
	GetByUserID(ctx context.Context, userID string) (*domain.TokenRecord, error)
	Delete(ctx context.Context, id string) error
	ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.TokenRecord, error)
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a Postgres-backed implementation.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Create(ctx context.Context, record *domain.TokenRecord) error {
	const query = `
        INSERT INTO tokens (user_id, token, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		record.UserID,
		record.Token,
		record.ExpiresAt,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *tokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	const query = `
        SELECT id, user_id, token, expires_at, created_at
        FROM tokens WHERE user_id=$1`

	var record domain.TokenRecord
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&record.ID,
		&record.UserID,
		&record.Token,
		&record.ExpiresAt,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tokens WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tokenRepository) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.TokenRecord, error) {
	const query = `
        SELECT id, user_id, token, expires_at, created_at
        FROM tokens WHERE expires_at < $1`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TokenRecord
	for rows.Next() {
		var record domain.TokenRecord
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Token,
			&record.ExpiresAt,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
