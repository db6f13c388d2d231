package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint %q", "users_email_key")
	}
	r.nextID++
	user.ID = fmt.Sprintf("u-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	existing, ok := r.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(r.byEmail, existing.Email)
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	existing, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(r.byEmail, existing.Email)
	delete(r.byID, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.byID {
		out = append(out, *user)
	}
	return out, nil
}

func newAuthService(users *fakeUserRepo, tokenRepo *fakeTokenRepo) *AuthService {
	return NewAuthService(users, newTokenService(tokenRepo), bcrypt.MinCost)
}

func (r *fakeUserRepo) seed(t *testing.T, email, password string, role domain.UserRole) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, r.Create(context.Background(), user))
	return user
}

func TestRegisterHashesPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())

	user, err := svc.Register(context.Background(), "alice@example.com", "s3cret", domain.UserRoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "s3cret"))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	_, err := svc.Register(context.Background(), "alice@example.com", "other", domain.UserRoleUser)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())

	_, err := svc.Register(context.Background(), "alice@example.com", "s3cret", domain.UserRole("SUPERVISOR"))
	require.Error(t, err)
	assert.Empty(t, users.byEmail)
}

func TestLoginIssuesToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	seeded := users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	user, record, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.NotEmpty(t, record.Token)
	assert.True(t, record.ExpiresAt.After(time.Now()))
}

func TestLoginReusesStoredToken(t *testing.T) {
	users := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	svc := newAuthService(users, tokenRepo)
	users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	_, first, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, 1, tokenRepo.creates)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	_, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", "s3cret")
	_, _, wrongErr := svc.Login(context.Background(), "alice@example.com", "wrong")

	// Both failures must be indistinguishable to the caller.
	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestCheckAccessAdmin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	admin := users.seed(t, "root@example.com", "s3cret", domain.UserRoleAdmin)

	record, err := svc.tokens.IssueAndStore(context.Background(), admin)
	require.NoError(t, err)

	assert.NoError(t, svc.CheckAccess(context.Background(), record.Token))
}

func TestCheckAccessRegularUserForbidden(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	user := users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	record, err := svc.tokens.IssueAndStore(context.Background(), user)
	require.NoError(t, err)

	err = svc.CheckAccess(context.Background(), record.Token)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestCheckAccessUnknownRole(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	user := users.seed(t, "alice@example.com", "s3cret", domain.UserRoleUser)

	record, err := svc.tokens.IssueAndStore(context.Background(), user)
	require.NoError(t, err)

	// The role was changed after the token was issued.
	user.Role = domain.UserRole("SUPERVISOR")
	require.NoError(t, users.Update(context.Background(), user))

	err = svc.CheckAccess(context.Background(), record.Token)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ROLE_NOT_FOUND", domainErr.Code)
}

func TestCheckAccessTamperedToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeTokenRepo())
	admin := users.seed(t, "root@example.com", "s3cret", domain.UserRoleAdmin)

	record, err := svc.tokens.IssueAndStore(context.Background(), admin)
	require.NoError(t, err)

	err = svc.CheckAccess(context.Background(), record.Token+"x")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}
