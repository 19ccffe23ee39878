package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/admindata/internal/client/migrations"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// IndexDef declares a named secondary index over a record field.
type IndexDef struct {
	Name  string
	Field string
}

// Schema declares one entity store.
type Schema struct {
	Name    string
	Indexes []IndexDef
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks store, index and field names before they reach SQL.
func (s Schema) Validate() error {
	if !namePattern.MatchString(s.Name) {
		return fmt.Errorf("%w: store name %q", common.ErrInvalidQuery, s.Name)
	}
	seen := make(map[string]struct{}, len(s.Indexes))
	for _, ix := range s.Indexes {
		if !namePattern.MatchString(ix.Name) {
			return fmt.Errorf("%w: index name %q", common.ErrInvalidQuery, ix.Name)
		}
		if !models.ValidField(ix.Field) {
			return fmt.Errorf("%w: index field %q", common.ErrInvalidQuery, ix.Field)
		}
		if _, dup := seen[ix.Name]; dup {
			return fmt.Errorf("%w: duplicate index %q", common.ErrInvalidQuery, ix.Name)
		}
		seen[ix.Name] = struct{}{}
	}
	return nil
}

// Option configures a Database.
type Option func(*Database)

// WithClock overrides the clock used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(d *Database) { d.now = now }
}

// WithIDGenerator overrides the generator used for records without an id.
func WithIDGenerator(g idgen.Generator) Option {
	return func(d *Database) { d.gen = g }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(d *Database) { d.logger = l }
}

// Database is the SQLite file backing every store. A Database whose open
// failed is still usable: its stores report ErrStorageUnavailable.
type Database struct {
	db     *sql.DB
	err    error
	now    func() time.Time
	gen    idgen.Generator
	logger logging.Logger
}

// Open opens (or creates) the cache database at dsn and applies migrations.
// It never returns nil; check Err for the outcome.
func Open(ctx context.Context, dsn string, opts ...Option) *Database {
	d := &Database{now: time.Now, gen: idgen.New(), logger: logging.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("module", "localstore")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		d.fail(ctx, err)
		return d
	}
	// one connection serializes writers and keeps :memory: databases whole
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		d.fail(ctx, err)
		return d
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		d.fail(ctx, err)
		return d
	}

	d.db = db
	return d
}

// Unavailable returns a Database whose stores always fail with
// ErrStorageUnavailable.
func Unavailable(cause error, opts ...Option) *Database {
	d := &Database{now: time.Now, gen: idgen.New(), logger: logging.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	d.err = fmt.Errorf("%w: %w", common.ErrStorageUnavailable, cause)
	return d
}

func (d *Database) fail(ctx context.Context, err error) {
	d.err = fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	d.logger.Error(ctx, "cache database unavailable", "error", err)
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Err reports why the database is unavailable, or nil.
func (d *Database) Err() error {
	return d.err
}

// Close releases the underlying handle.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Store returns the store declared by schema, creating its indexes. An
// invalid schema is a configuration error; storage failures are deferred to
// the store operations.
func (d *Database) Store(ctx context.Context, schema Schema) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		database: d,
		name:     schema.Name,
		indexes:  make(map[string]string, len(schema.Indexes)),
		logger:   d.logger.With("store", schema.Name),
	}
	for _, ix := range schema.Indexes {
		s.indexes[ix.Name] = ix.Field
	}

	if d.err != nil {
		return s, nil
	}
	for _, ix := range schema.Indexes {
		if err := d.createIndex(ctx, schema.Name, ix); err != nil {
			s.err = fmt.Errorf("%w: create index %s: %w", common.ErrStorageUnavailable, ix.Name, err)
			s.logger.Error(ctx, "index creation failed", "index", ix.Name, "error", err)
			break
		}
	}
	return s, nil
}

func (d *Database) createIndex(ctx context.Context, store string, ix IndexDef) error {
	// names are validated by Schema.Validate
	stmt := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "ix_%s_%s" ON records (store, %s)`,
		store, ix.Name, jsonField(ix.Field),
	)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO store_indexes (store, name, field) VALUES (?, ?, ?)
		ON CONFLICT(store, name) DO UPDATE SET field = excluded.field`,
		store, ix.Name, ix.Field)
	return err
}

// Indexes lists the declared indexes per store.
func (d *Database) Indexes(ctx context.Context) (map[string][]IndexDef, error) {
	if d.err != nil {
		return nil, d.err
	}
	rows, err := d.db.QueryContext(ctx, `SELECT store, name, field FROM store_indexes ORDER BY store, name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list indexes: %w", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	out := make(map[string][]IndexDef)
	for rows.Next() {
		var store string
		var ix IndexDef
		if err := rows.Scan(&store, &ix.Name, &ix.Field); err != nil {
			return nil, fmt.Errorf("%w: scan index: %w", common.ErrStorageUnavailable, err)
		}
		out[store] = append(out[store], ix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list indexes: %w", common.ErrStorageUnavailable, err)
	}
	return out, nil
}

// jsonField renders the json_extract expression for a validated field.
func jsonField(field string) string {
	return fmt.Sprintf(`json_extract(data, '$.%s')`, field)
}
