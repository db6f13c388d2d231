package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *TokenService
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *TokenService, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a new account with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates by email and password and returns the user's token
// record, reusing a still-valid stored token. A missing account and a wrong
// password surface as the same generic failure.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenRecord, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	record, err := s.tokens.RefreshOrReuse(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, record, nil
}

// CheckAccess evaluates whether the presented token belongs to an admin.
// Regular users get 403 and unrecognized roles 404.
func (s *AuthService) CheckAccess(ctx context.Context, rawToken string) error {
	subject, err := s.tokens.Codec().VerifyAndExtractSubject(rawToken)
	if err != nil || subject == "" {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	switch user.Role {
	case domain.UserRoleAdmin:
		return nil
	case domain.UserRoleUser:
		return apperrors.NewForbidden("access denied")
	default:
		return apperrors.NewDomainError("ROLE_NOT_FOUND", "role not recognized", http.StatusNotFound, nil)
	}
}
