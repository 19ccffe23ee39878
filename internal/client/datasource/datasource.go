// Package datasource is the per-entity façade consumers page, filter, sort
// and mutate through.
//
// A DataSource holds the current paging, filter and sort state. The
// SetPaging, SetFilter and SetSort builders only change that state; GetAll
// turns it into a query descriptor and hands it to the remote source, which
// decides between network and cache. Results look the same whichever source
// answered.
package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/admindata/internal/client/localstore"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Remote is the network side of an entity collection.
type Remote interface {
	Fetch(ctx context.Context, q models.Query) ([]models.Record, error)
	Create(ctx context.Context, r models.Record) (models.Record, error)
	Update(ctx context.Context, r models.Record) (models.Record, error)
	Remove(ctx context.Context, r models.Record) (models.Record, error)
}

// Store is the local side of an entity collection.
type Store interface {
	Count(ctx context.Context) (int, error)
	InsertMany(ctx context.Context, records []models.Record) (int, []localstore.Rejection, error)
	GetByIndex(ctx context.Context, index string, kr localstore.KeyRange) ([]models.Record, error)
}

// Seeder supplies initial records for an empty store.
type Seeder interface {
	Records(ctx context.Context) ([]models.Record, error)
}

type Option func(*DataSource)

func WithLogger(l logging.Logger) Option {
	return func(d *DataSource) { d.logger = l }
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(d *DataSource) { d.query.PageSize = n }
}

type DataSource struct {
	remote Remote
	store  Store
	logger logging.Logger

	mu    sync.Mutex
	query models.Query
	last  *models.Query
}

// New returns a façade over remote and store, both required.
func New(remote Remote, store Store, opts ...Option) (*DataSource, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: remote source", common.ErrMissingCollaborator)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: local store", common.ErrMissingCollaborator)
	}

	d := &DataSource{
		remote: remote,
		store:  store,
		logger: logging.Discard(),
		query:  models.NewQuery(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("module", "datasource")
	return d, nil
}

// SetPaging selects page (1-based) of size items. Use models.Unbounded for
// the full result.
func (d *DataSource) SetPaging(page, size int) *DataSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.query.Page = page
	d.query.PageSize = size
	return d
}

// SetFilter replaces the filters and rewinds to the first page.
func (d *DataSource) SetFilter(filters ...models.Filter) *DataSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.query.Filters = append([]models.Filter(nil), filters...)
	d.query.Page = 1
	return d
}

// SetSort replaces the sort order.
func (d *DataSource) SetSort(sorts ...models.Sort) *DataSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.query.Sort = append([]models.Sort(nil), sorts...)
	return d
}

// Query returns a snapshot of the current descriptor.
func (d *DataSource) Query() models.Query {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query.Clone()
}

// GetAll fetches the page described by the current state.
func (d *DataSource) GetAll(ctx context.Context) ([]models.Record, error) {
	d.mu.Lock()
	q, err := d.query.Normalize()
	if err == nil {
		last := q.Clone()
		d.last = &last
	}
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return d.remote.Fetch(ctx, q)
}

// Refresh re-issues the last descriptor passed to GetAll, or the current
// state when there is none.
func (d *DataSource) Refresh(ctx context.Context) ([]models.Record, error) {
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()

	if last == nil {
		return d.GetAll(ctx)
	}
	return d.remote.Fetch(ctx, last.Clone())
}

// GetAllUnbounded fetches every record matching the current filters and
// sort, ignoring paging. The paging state is left unchanged.
func (d *DataSource) GetAllUnbounded(ctx context.Context) ([]models.Record, error) {
	d.mu.Lock()
	q := d.query.Clone()
	d.mu.Unlock()

	q.Page = 1
	q.PageSize = models.Unbounded
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	return d.remote.Fetch(ctx, q)
}

// GetByIndex reads through a local secondary index.
func (d *DataSource) GetByIndex(ctx context.Context, index string, kr localstore.KeyRange) ([]models.Record, error) {
	return d.store.GetByIndex(ctx, index, kr)
}

func (d *DataSource) Create(ctx context.Context, r models.Record) (models.Record, error) {
	return d.remote.Create(ctx, r)
}

func (d *DataSource) Update(ctx context.Context, r models.Record) (models.Record, error) {
	return d.remote.Update(ctx, r)
}

func (d *DataSource) Delete(ctx context.Context, r models.Record) (models.Record, error) {
	return d.remote.Remove(ctx, r)
}

// SeedIfEmpty inserts the seeder's records when the local store holds no
// records at all, soft-deleted ones included. It returns the number of
// records inserted.
func (d *DataSource) SeedIfEmpty(ctx context.Context, seeder Seeder) (int, error) {
	if seeder == nil {
		return 0, fmt.Errorf("%w: seeder", common.ErrMissingCollaborator)
	}

	n, err := d.store.Count(ctx)
	if err != nil {
		d.logger.Warn(ctx, "cannot count local records, skipping seed", "error", err)
		return 0, nil
	}
	if n > 0 {
		return 0, nil
	}

	records, err := seeder.Records(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		d.logger.Warn(ctx, "seeder failed", "error", err)
		return 0, nil
	}

	inserted, rejected, err := d.store.InsertMany(ctx, records)
	if err != nil {
		d.logger.Warn(ctx, "seed insert failed", "error", err)
		return 0, nil
	}
	for _, r := range rejected {
		d.logger.Debug(ctx, "seed record rejected", "index", r.Index, "id", r.ID, "error", r.Err)
	}
	d.logger.Info(ctx, "store seeded", "inserted", inserted, "rejected", len(rejected))
	return inserted, nil
}
