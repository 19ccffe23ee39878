package localstore

import (
	"context"

	"github.com/dmitrijs2005/admindata/internal/models"
)

// Repository describes the operations of a single-entity-type store.
// *Store is the SQLite implementation; consumers declare the narrower
// subsets they need.
type Repository interface {
	// Count returns the number of physically stored records, soft-deleted
	// ones included.
	Count(ctx context.Context) (int, error)

	// InsertMany inserts records one by one; a rejected record does not
	// abort the batch.
	InsertMany(ctx context.Context, records []models.Record) (int, []Rejection, error)

	// GetAll applies filters, sort and paging, excluding soft-deleted and
	// expired records unless the query asks for them.
	GetAll(ctx context.Context, q models.Query) ([]models.Record, error)

	// GetByIndex looks records up through a declared secondary index.
	GetByIndex(ctx context.Context, index string, kr KeyRange) ([]models.Record, error)

	// Upsert inserts or replaces a record by id.
	Upsert(ctx context.Context, r models.Record) (models.Record, error)

	// SoftDelete stamps deletedAt and expiredAt and upserts the record.
	SoftDelete(ctx context.Context, r models.Record) (models.Record, error)

	// Clear removes every record of the store.
	Clear(ctx context.Context) error

	// Purge removes records that are logically deleted or expired.
	Purge(ctx context.Context) (int, error)
}

var _ Repository = (*Store)(nil)

// Rejection reports a record InsertMany could not store.
type Rejection struct {
	Index int
	ID    string
	Err   error
}
