package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

var testSecret = []byte("token-service-test-secret")

type fakeTokenRepo struct {
	records   map[string]*domain.TokenRecord // keyed by record ID
	nextID    int
	createErr error
	deleteErr error
	listErr   error
	creates   int
	deletes   int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: map[string]*domain.TokenRecord{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, record *domain.TokenRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.records {
		if existing.UserID == record.UserID {
			return errors.New("duplicate key value violates unique constraint \"tokens_user_id_key\"")
		}
	}
	r.nextID++
	record.ID = fmt.Sprintf("tok-%d", r.nextID)
	record.CreatedAt = time.Now()
	stored := *record
	r.records[record.ID] = &stored
	r.creates++
	return nil
}

func (r *fakeTokenRepo) GetByUserID(_ context.Context, userID string) (*domain.TokenRecord, error) {
	for _, record := range r.records {
		if record.UserID == userID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTokenRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.records, id)
	r.deletes++
	return nil
}

func (r *fakeTokenRepo) ListExpiredBefore(_ context.Context, cutoff time.Time) ([]domain.TokenRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.TokenRecord
	for _, record := range r.records {
		if record.ExpiresAt.Before(cutoff) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) seed(userID, token string, expiresAt time.Time) *domain.TokenRecord {
	r.nextID++
	record := &domain.TokenRecord{
		ID:        fmt.Sprintf("tok-%d", r.nextID),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	r.records[record.ID] = record
	return record
}

func newTokenService(repo *fakeTokenRepo) *TokenService {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	return NewTokenService(repo, codec, zap.NewNop())
}

// signExpiring mints a token with an explicit expiry, so tests can plant
// already-expired tokens in the store.
func signExpiring(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestIssueAndStorePersistsRecord(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	record, err := svc.IssueAndStore(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "u-1", record.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.ExpiresAt, 5*time.Second)

	subject, err := svc.Codec().VerifyAndExtractSubject(record.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestIssueAndStoreFailedWriteError(t *testing.T) {
	repo := newFakeTokenRepo()
	repo.createErr = errors.New("connection reset")
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	_, err := svc.IssueAndStore(context.Background(), user)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_NOT_PERSISTED", domainErr.Code)
}

func TestRefreshOrReuseKeepsValidToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	first, err := svc.RefreshOrReuse(context.Background(), user)
	require.NoError(t, err)

	second, err := svc.RefreshOrReuse(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, 1, repo.creates, "a valid stored token must be reused, not rotated")
}

func TestRefreshOrReuseRotatesExpiredToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	expiredAt := time.Now().Add(-time.Minute)
	stale := repo.seed("u-1", signExpiring(t, user.Email, expiredAt), expiredAt)

	fresh, err := svc.RefreshOrReuse(context.Background(), user)
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, fresh.ID)
	assert.NotEqual(t, stale.Token, fresh.Token)
	assert.True(t, fresh.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, repo.deletes, "the expired record must be removed before issuing")
	assert.Len(t, repo.records, 1, "only the fresh record may remain")
}

func TestRefreshOrReuseRotatesUnparsableToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	repo.seed("u-1", "not-a-jwt", time.Now().Add(time.Hour))

	fresh, err := svc.RefreshOrReuse(context.Background(), user)
	require.NoError(t, err)

	subject, err := svc.Codec().VerifyAndExtractSubject(fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, user.Email, subject)
}

func TestRefreshOrReuseFailedDeleteAborts(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	user := &domain.User{ID: "u-1", Email: "alice@example.com", Role: domain.UserRoleUser}

	expiredAt := time.Now().Add(-time.Minute)
	repo.seed("u-1", signExpiring(t, user.Email, expiredAt), expiredAt)
	repo.deleteErr = errors.New("connection reset")

	_, err := svc.RefreshOrReuse(context.Background(), user)
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_NOT_DELETABLE", domainErr.Code)
	assert.Equal(t, 0, repo.creates, "no fresh token may be issued while the stale one lingers")
}

func TestSweepExpiredRemovesOnlyStaleRecords(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)

	repo.seed("u-1", "stale-1", time.Now().Add(-2*time.Hour))
	repo.seed("u-2", "stale-2", time.Now().Add(-time.Minute))
	kept := repo.seed("u-3", "live", time.Now().Add(time.Hour))

	deleted, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	require.Len(t, repo.records, 1)
	assert.Contains(t, repo.records, kept.ID)
}

func TestSweepExpiredContinuesPastFailures(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)

	repo.seed("u-1", "stale-1", time.Now().Add(-time.Hour))
	repo.seed("u-2", "stale-2", time.Now().Add(-time.Hour))
	repo.deleteErr = errors.New("connection reset")

	deleted, err := svc.SweepExpired(context.Background())
	require.NoError(t, err, "per-record failures are logged, not returned")
	assert.Equal(t, 0, deleted)
	assert.Len(t, repo.records, 2)
}

func TestSweepExpiredListFailure(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := newTokenService(repo)
	repo.listErr = errors.New("connection reset")

	_, err := svc.SweepExpired(context.Background())
	require.Error(t, err)
}
