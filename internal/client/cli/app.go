package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/admindata/internal/client/bridge"
	"github.com/dmitrijs2005/admindata/internal/client/client"
	"github.com/dmitrijs2005/admindata/internal/client/config"
	"github.com/dmitrijs2005/admindata/internal/client/connectivity"
	"github.com/dmitrijs2005/admindata/internal/client/datasource"
	"github.com/dmitrijs2005/admindata/internal/client/entities"
	"github.com/dmitrijs2005/admindata/internal/client/localstore"
	"github.com/dmitrijs2005/admindata/internal/client/remote"
	"github.com/dmitrijs2005/admindata/internal/filex"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry

	db      *localstore.Database
	api     *client.RESTClient
	monitor *connectivity.Monitor
	closers []io.Closer

	stores      map[string]*localstore.Store
	sources     map[string]*datasource.DataSource
	bridgeCache *localstore.Store
	bridge      *bridge.Bridge

	modeMu sync.Mutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

type Option func(*App)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.logger = l }
}

// NewApp builds the client object graph. A local database that cannot be
// opened does not fail construction: the stores report ErrStorageUnavailable
// and reads degrade to network-only.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	a := &App{
		config:   c,
		metrics:  metrics.NewMetrics(),
		registry: prometheus.NewRegistry(),
		stores:   make(map[string]*localstore.Store),
		sources:  make(map[string]*datasource.DataSource),
		mode:     ModeOnline,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.New(os.Stderr, c.LogLevel, c.LogFormat)
	}

	if err := a.metrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	gen := idgen.New()

	if _, err := filex.EnsureParentDir(c.DatabaseDSN); err != nil {
		a.logger.Warn(ctx, "cannot prepare cache directory", "error", err)
	}
	a.db = localstore.Open(ctx, c.DatabaseDSN,
		localstore.WithLogger(a.logger),
		localstore.WithIDGenerator(gen),
	)
	if err := a.db.Err(); err != nil {
		a.logger.Warn(ctx, "working without local cache", "error", err)
	}

	api, err := client.NewRESTClient(c.ServerURL,
		client.WithAccessToken(c.AccessToken),
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.api = api

	prober, err := a.prober()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.monitor = connectivity.New(prober,
		connectivity.WithInterval(c.OnlineCheckInterval),
		connectivity.WithLogger(a.logger),
	)

	for _, e := range entities.All() {
		store, err := a.db.Store(ctx, e.Schema)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("store %s: %w", e.Name, err)
		}
		src, err := remote.New(e.Name, a.api, store, a.monitor,
			remote.WithLogger(a.logger),
			remote.WithMetrics(a.metrics),
			remote.WithIDGenerator(gen),
		)
		if err != nil {
			a.Close()
			return nil, err
		}
		ds, err := datasource.New(src, store, datasource.WithLogger(a.logger.With("collection", e.Name)))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.stores[e.Name] = store
		a.sources[e.Name] = ds
	}

	if err := a.wireBridge(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) prober() (connectivity.Prober, error) {
	switch a.config.ProbeKind {
	case config.ProbeHTTP, "":
		return connectivity.NewHTTPProber(a.config.ServerURL, &http.Client{}), nil
	case config.ProbeGRPC:
		p, err := connectivity.NewGRPCHealthProber(a.config.GRPCHealthAddr, "")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		return p, nil
	case config.ProbeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown probe kind %q", a.config.ProbeKind)
	}
}

func (a *App) wireBridge(ctx context.Context) error {
	cache, err := a.db.Store(ctx, bridge.Schema)
	if err != nil {
		return err
	}
	a.bridgeCache = cache

	var op bridge.Operation = bridge.HTTPOperation{URLTemplate: a.config.CountriesURL, Client: &http.Client{Timeout: a.config.RequestTimeout}}
	if a.config.S3Bucket != "" {
		s3c, err := bridge.NewS3Client(ctx, bridge.S3Config{
			Region:       a.config.S3Region,
			BaseEndpoint: a.config.S3BaseEndpoint,
			AccessKey:    a.config.S3AccessKey,
			SecretKey:    a.config.S3SecretKey,
		})
		if err != nil {
			return err
		}
		op = bridge.S3Operation{Client: s3c, Bucket: a.config.S3Bucket, KeyTemplate: "countries.json"}
	}

	a.bridge, err = bridge.New(bridge.Config{
		RecordType: entities.Countries.Name,
		Cache:      cache,
		Parsers:    map[string]bridge.Parser{entities.Countries.Name: entities.CountryParser},
		Operations: map[string]bridge.Operation{entities.CountriesOperation: op},
		TTL:        a.config.BridgeTTL,
		Logger:     a.logger,
		Metrics:    a.metrics,
	})
	return err
}

// Close releases the database and probe connections.
func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	a.metrics.SetOnline(mode == ModeOnline)
	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// StartOnlineStatusWatcher mirrors monitor transitions into the app mode
// until ctx is done or the monitor stops.
func (a *App) StartOnlineStatusWatcher(ctx context.Context) {
	ch, cancel := a.monitor.Subscribe()
	defer cancel()

	for {
		select {
		case online, ok := <-ch:
			if !ok {
				return
			}
			if online {
				a.setMode(ctx, ModeOnline)
			} else {
				a.setMode(ctx, ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Run executes args as one command, or the REPL when args is empty. The
// connectivity monitor and the watcher run alongside until the command
// finishes.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.Close()

	if err := a.promptToken(ctx); err != nil {
		return err
	}

	// settle the initial state before the first command
	if a.monitor.Probe(ctx) {
		a.setMode(ctx, ModeOnline)
	} else {
		a.setMode(ctx, ModeOffline)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)

	g.Go(func() error {
		a.monitor.Run(runCtx)
		return nil
	})
	g.Go(func() error {
		a.StartOnlineStatusWatcher(runCtx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if len(args) == 0 {
			fmt.Fprintln(a.out, "admindata client (type 'help' for commands)")
			runREPL(runCtx, a, a.status, a.reader)
			return nil
		}
		return a.Exec(runCtx, args)
	})

	return g.Wait()
}

func (a *App) status() string {
	return string(a.Mode())
}
