package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/collections"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestCollections_ReturnsPostgresRepository(t *testing.T) {
	m := NewPostgresRepositoryManager()

	repo := m.Collections(newDB(t))
	require.NotNil(t, repo)
	assert.IsType(t, &collections.PostgresRepository{}, repo)
}

func TestRunMigrations_Success(t *testing.T) {
	var gotDir string
	stubGoose(t, func(_ context.Context, _ *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	})

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), newDB(t)))
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	stubGoose(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	m := &PostgresRepositoryManager{}
	assert.EqualError(t, m.RunMigrations(context.Background(), newDB(t)), "boom")
}
