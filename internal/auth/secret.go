package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

// secretRecordID is the fixed well-known identifier of the single signing
// secret row.
const secretRecordID = "jwt-signing-secret"

// secretSizeBytes sizes the generated secret for HMAC-SHA512.
const secretSizeBytes = 64

// SecretKeyStore owns the signing secret lifecycle: it loads the durable
// secret on boot, generating and persisting one on first start.
type SecretKeyStore struct {
	secrets repository.SecretRepository
}

// NewSecretKeyStore builds the store.
func NewSecretKeyStore(secrets repository.SecretRepository) *SecretKeyStore {
	return &SecretKeyStore{secrets: secrets}
}

// GetOrCreate returns the decoded signing secret, generating and persisting
// it if no record exists yet. The insert is conditional on absence, so two
// replicas bootstrapping at once converge on whichever secret landed first.
func (s *SecretKeyStore) GetOrCreate(ctx context.Context) ([]byte, error) {
	record, err := s.secrets.Get(ctx, secretRecordID)
	if err == nil {
		return decodeSecret(record.Secret)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load signing secret: %w", err)
	}

	raw := make([]byte, secretSizeBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate signing secret: %w", err)
	}

	inserted, err := s.secrets.Insert(ctx, &repository.SigningSecret{
		ID:     secretRecordID,
		Secret: base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, apperrors.NewSecretNotPersisted(err)
	}
	if inserted {
		return raw, nil
	}

	// Lost the bootstrap race; use the secret the winner persisted.
	record, err = s.secrets.Get(ctx, secretRecordID)
	if err != nil {
		return nil, fmt.Errorf("reload signing secret: %w", err)
	}
	return decodeSecret(record.Secret)
}

func decodeSecret(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	return raw, nil
}
