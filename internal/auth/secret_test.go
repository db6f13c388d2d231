package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

type fakeSecretRepo struct {
	records   map[string]*repository.SigningSecret
	insertErr error
	inserts   int
}

func newFakeSecretRepo() *fakeSecretRepo {
	return &fakeSecretRepo{records: map[string]*repository.SigningSecret{}}
}

func (f *fakeSecretRepo) Get(_ context.Context, id string) (*repository.SigningSecret, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return record, nil
}

func (f *fakeSecretRepo) Insert(_ context.Context, record *repository.SigningSecret) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.inserts++
	if _, exists := f.records[record.ID]; exists {
		return false, nil
	}
	f.records[record.ID] = record
	return true, nil
}

func TestSecretKeyStore_GeneratesOnce(t *testing.T) {
	repo := newFakeSecretRepo()
	store := NewSecretKeyStore(repo)

	first, err := store.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, secretSizeBytes)
	assert.Equal(t, 1, repo.inserts)

	second, err := store.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.inserts, "second call must not insert a new record")
	assert.Len(t, repo.records, 1)
}

func TestSecretKeyStore_LoadsExistingSecret(t *testing.T) {
	raw := []byte("an-existing-secret-an-existing-secret-an-existing-secret-64byte!")
	repo := newFakeSecretRepo()
	repo.records[secretRecordID] = &repository.SigningSecret{
		ID:     secretRecordID,
		Secret: base64.StdEncoding.EncodeToString(raw),
	}

	secret, err := NewSecretKeyStore(repo).GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, secret)
}

func TestSecretKeyStore_LostRaceUsesWinner(t *testing.T) {
	winner := []byte("the-winning-secret-the-winning-secret-the-winning-secret-64byte!")
	repo := newFakeSecretRepo()
	// Simulate another replica winning the conditional insert between our
	// read and our write.
	repo.records[secretRecordID] = &repository.SigningSecret{
		ID:     secretRecordID,
		Secret: base64.StdEncoding.EncodeToString(winner),
	}
	store := NewSecretKeyStore(&racingSecretRepo{fakeSecretRepo: repo})

	secret, err := store.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, winner, secret)
}

// racingSecretRepo reports "absent" on the first read only, forcing the store
// down the generate-and-insert path against an already populated table.
type racingSecretRepo struct {
	*fakeSecretRepo
	reads int
}

func (r *racingSecretRepo) Get(ctx context.Context, id string) (*repository.SigningSecret, error) {
	r.reads++
	if r.reads == 1 {
		return nil, pgx.ErrNoRows
	}
	return r.fakeSecretRepo.Get(ctx, id)
}

func TestSecretKeyStore_PersistFailureIsFatal(t *testing.T) {
	repo := newFakeSecretRepo()
	repo.insertErr = errors.New("connection reset")

	_, err := NewSecretKeyStore(repo).GetOrCreate(context.Background())
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SECRET_NOT_PERSISTED", domainErr.Code)
}

func TestSecretKeyStore_CorruptStoredSecret(t *testing.T) {
	repo := newFakeSecretRepo()
	repo.records[secretRecordID] = &repository.SigningSecret{
		ID:     secretRecordID,
		Secret: "%%% not base64 %%%",
	}

	_, err := NewSecretKeyStore(repo).GetOrCreate(context.Background())
	assert.Error(t, err)
}
