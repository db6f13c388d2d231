package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SigningSecret is the stored signing key record. A single row, under a fixed
// well-known id, holds the base64-encoded secret for the whole deployment.
type SigningSecret struct {
	ID        string
	Secret    string
	CreatedAt time.Time
}

// SecretRepository manages the signing secret record.
type SecretRepository interface {
	Get(ctx context.Context, id string) (*SigningSecret, error)
	// Insert persists the record unless one with the same id already exists.
	// It reports whether the write landed, so a losing bootstrap race can fall
	// back to reading the winner's secret.
	Insert(ctx context.Context, record *SigningSecret) (bool, error)
}

type secretRepository struct {
	pool *pgxpool.Pool
}

// NewSecretRepository returns a Postgres-backed implementation.
func NewSecretRepository(pool *pgxpool.Pool) SecretRepository {
	return &secretRepository{pool: pool}
}

func (r *secretRepository) Get(ctx context.Context, id string) (*SigningSecret, error) {
	const query = `
        SELECT id, secret, created_at
        FROM signing_secrets WHERE id=$1`

	var record SigningSecret
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.Secret,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *secretRepository) Insert(ctx context.Context, record *SigningSecret) (bool, error) {
	const query = `
        INSERT INTO signing_secrets (id, secret)
        VALUES ($1, $2)
        ON CONFLICT (id) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query, record.ID, record.Secret)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
