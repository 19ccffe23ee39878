package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/admindata/internal/dbx"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/server/config"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/collections"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	migrateErr error
}

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return m.migrateErr }

func (m fakeManager) Collections(db dbx.DBTX) collections.Repository {
	return collections.NewPostgresRepository(db)
}

func stubDeps(t *testing.T, m fakeManager) {
	t.Helper()
	origOpen, origManager := openDB, newRepositoryManager
	openDB = func(string) (*sql.DB, error) {
		db, _, err := sqlmock.New()
		return db, err
	}
	newRepositoryManager = func() repomanager.RepositoryManager { return m }
	t.Cleanup(func() { openDB, newRepositoryManager = origOpen, origManager })
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddr = "127.0.0.1:0"
	c.GRPCHealthAddr = "127.0.0.1:0"
	return c
}

func TestNewApp_MigrationFailure(t *testing.T) {
	stubDeps(t, fakeManager{migrateErr: errors.New("boom")})

	_, err := NewApp(context.Background(), testConfig(), logging.Discard())
	assert.ErrorContains(t, err, "migrations error: boom")
}

func TestNewApp_OpenFailure(t *testing.T) {
	stubDeps(t, fakeManager{})
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

	_, err := NewApp(context.Background(), testConfig(), logging.Discard())
	assert.ErrorContains(t, err, "db init error")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	stubDeps(t, fakeManager{})

	app, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, app.health)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestRun_FailsOnBadAddress(t *testing.T) {
	stubDeps(t, fakeManager{})

	c := testConfig()
	c.EndpointAddr = "127.0.0.1:99999"
	c.GRPCHealthAddr = ""
	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, app.health)

	assert.Error(t, app.Run(context.Background()))
}
