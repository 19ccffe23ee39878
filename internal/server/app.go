// Package server wires the reference backend: the PostgreSQL collection
// store, the REST API, the gRPC health service and Prometheus metrics.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/admindata/internal/cryptox"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/metrics"
	"github.com/dmitrijs2005/admindata/internal/server/config"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/admindata/internal/server/rest"
	"github.com/dmitrijs2005/admindata/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/admindata/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rest   *rest.Server
	health *gs.HealthServer
}

// NewApp opens the database, applies migrations and builds the servers.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if l == nil {
		l = logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "admindata"))

	key := cryptox.SigningKey(c.SecretKey)
	l.Info(ctx, "token signing key ready", "fingerprint", cryptox.Fingerprint(key))

	svc := services.NewCollectionService(db, rm, idgen.New())

	app := &App{
		config: c,
		logger: l,
		db:     db,
		rest:   rest.NewServer(c.EndpointAddr, l, svc, m, reg, key),
	}
	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, l)
	}
	return app, nil
}

// Run serves until ctx is done or a server fails, then closes the database.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.rest.Run(gctx)
	})
	if app.health != nil {
		app.health.SetServing(true)
		g.Go(func() error {
			return app.health.Run(gctx)
		})
	}

	return g.Wait()
}
