package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/dbx"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/collections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollectionsRepo struct {
	listQuery  models.Query
	listOut    []models.Record
	upserted   models.Record
	upsertErr  error
	deletedID  string
	deletedAt  int64
	deleteErr  error
	collection string
}

func (f *fakeCollectionsRepo) List(_ context.Context, collection string, q models.Query) ([]models.Record, error) {
	f.collection, f.listQuery = collection, q
	return f.listOut, nil
}

func (f *fakeCollectionsRepo) Get(context.Context, string, string) (models.Record, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeCollectionsRepo) Upsert(_ context.Context, collection string, r models.Record) (models.Record, error) {
	f.collection, f.upserted = collection, r
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return r, nil
}

func (f *fakeCollectionsRepo) SoftDelete(_ context.Context, collection, id string, at int64) error {
	f.collection, f.deletedID, f.deletedAt = collection, id, at
	return f.deleteErr
}

type fakeManager struct {
	repo *fakeCollectionsRepo
}

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m fakeManager) Collections(dbx.DBTX) collections.Repository { return m.repo }

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newCollectionService(t *testing.T) (*CollectionService, *fakeCollectionsRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := &fakeCollectionsRepo{}
	s := NewCollectionService(db, fakeManager{repo: repo}, idgen.Func(func() string { return "generated" }))
	s.now = func() time.Time { return fixedNow }
	return s, repo, mock
}

func TestValidCollection(t *testing.T) {
	assert.True(t, ValidCollection("warehouse_orders"))
	assert.False(t, ValidCollection(""))
	assert.False(t, ValidCollection("Customers"))
	assert.False(t, ValidCollection("a/b"))
}

func TestCreate_AssignsIDAndTimestamps(t *testing.T) {
	s, repo, mock := newCollectionService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	in := models.Record{"name": "Acme"}
	got, err := s.Create(context.Background(), "customers", in)
	require.NoError(t, err)

	assert.Equal(t, "generated", got.ID())
	assert.Equal(t, fixedNow.UnixMilli(), got.CreatedAt())
	assert.Equal(t, fixedNow.UnixMilli(), got.UpdatedAt())
	assert.Equal(t, "customers", repo.collection)
	assert.Empty(t, in.ID(), "caller's record is not modified")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_KeepsClientIDAndUpdatedAt(t *testing.T) {
	s, _, mock := newCollectionService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Create(context.Background(), "customers",
		models.Record{"id": "client-id", "updatedAt": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, "client-id", got.ID())
	assert.Equal(t, int64(5), got.UpdatedAt())
}

func TestCreate_RepositoryErrorRollsBack(t *testing.T) {
	s, repo, mock := newCollectionService(t)
	repo.upsertErr = errors.New("db is down")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), "customers", models.Record{"name": "x"})
	assert.EqualError(t, err, "db is down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Invalid(t *testing.T) {
	s, _, _ := newCollectionService(t)

	_, err := s.Create(context.Background(), "customers", nil)
	assert.ErrorIs(t, err, common.ErrInvalidRecord)

	_, err = s.Create(context.Background(), "Bad Name", models.Record{"name": "x"})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)
}

func TestUpdate_RequiresID(t *testing.T) {
	s, _, mock := newCollectionService(t)

	_, err := s.Update(context.Background(), "customers", models.Record{"name": "x"})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)

	mock.ExpectBegin()
	mock.ExpectCommit()
	got, err := s.Update(context.Background(), "customers", models.Record{"id": "a", "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID())
}

func TestUpdate_Timestamps(t *testing.T) {
	s, repo, mock := newCollectionService(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	got, err := s.Update(ctx, "customers", models.Record{"id": "a", "createdAt": int64(10), "updatedAt": int64(2000)})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.UpdatedAt(), "client stamp decides last-write-wins")
	assert.Equal(t, int64(10), got.CreatedAt())
	assert.Equal(t, int64(2000), repo.upserted.UpdatedAt())

	mock.ExpectBegin()
	mock.ExpectCommit()
	got, err = s.Update(ctx, "customers", models.Record{"id": "a", "name": "curl"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), got.UpdatedAt())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	s, repo, _ := newCollectionService(t)
	repo.listOut = []models.Record{{"id": "a"}}

	got, err := s.List(context.Background(), "cities", models.NewQuery())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "cities", repo.collection)

	_, err = s.List(context.Background(), "../etc", models.NewQuery())
	assert.ErrorIs(t, err, common.ErrInvalidQuery)
}

func TestDelete(t *testing.T) {
	s, repo, _ := newCollectionService(t)

	require.NoError(t, s.Delete(context.Background(), "customers", "a"))
	assert.Equal(t, "a", repo.deletedID)
	assert.Equal(t, fixedNow.UnixMilli(), repo.deletedAt)

	repo.deleteErr = common.ErrorNotFound
	assert.ErrorIs(t, s.Delete(context.Background(), "customers", "a"), common.ErrorNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "customers", ""), common.ErrInvalidRecord)
}
