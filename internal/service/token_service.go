package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

// TokenService orchestrates token issuance, reuse and cleanup against the
// token store. The store is bookkeeping only: request authentication relies
// on the token's own signature and expiry claim, never on store membership.
type TokenService struct {
	tokens repository.TokenRepository
	codec  *auth.TokenCodec
	logger *zap.Logger
}

// NewTokenService builds the service.
func NewTokenService(tokens repository.TokenRepository, codec *auth.TokenCodec, logger *zap.Logger) *TokenService {
	return &TokenService{tokens: tokens, codec: codec, logger: logger}
}

// Codec exposes the underlying codec for middleware wiring.
func (s *TokenService) Codec() *auth.TokenCodec {
	return s.codec
}

// IssueAndStore mints a fresh token for the user and persists its record.
// If the write fails the caller must not treat the user as holding a usable
// token, even though the signed string itself would verify.
func (s *TokenService) IssueAndStore(ctx context.Context, user *domain.User) (*domain.TokenRecord, error) {
	token, expiresAt, err := s.codec.Issue(user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	record := &domain.TokenRecord{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, apperrors.NewTokenNotPersisted(err)
	}
	return record, nil
}

// RefreshOrReuse returns the user's stored token while it is still valid,
// replacing it only when expired or absent. Reuse avoids needless rotation
// within the TTL window.
func (s *TokenService) RefreshOrReuse(ctx context.Context, user *domain.User) (*domain.TokenRecord, error) {
	existing, err := s.tokens.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.IssueAndStore(ctx, user)
		}
		return nil, err
	}

	expired, err := s.codec.IsExpired(existing.Token)
	if err == nil && !expired {
		return existing, nil
	}
	// An unparsable stored token is treated like an expired one and rotated.

	if err := s.tokens.Delete(ctx, existing.ID); err != nil {
		// The stale record must not linger next to a fresh one; abort.
		return nil, apperrors.NewTokenNotDeletable(err)
	}
	return s.IssueAndStore(ctx, user)
}

// SweepExpired deletes all records whose expiry lies in the past. Deletions
// are independent: a failing record is logged and the sweep moves on. The
// number of removed records is returned.
func (s *TokenService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.tokens.ListExpiredBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, record := range expired {
		if err := s.tokens.Delete(ctx, record.ID); err != nil {
			s.logger.Warn("failed to delete expired token record",
				zap.String("token_id", record.ID),
				zap.String("user_id", record.UserID),
				zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}
