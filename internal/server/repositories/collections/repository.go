package collections

import (
	"context"

	"github.com/dmitrijs2005/admindata/internal/models"
)

type Repository interface {
	List(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
	Get(ctx context.Context, collection, id string) (models.Record, error)
	Upsert(ctx context.Context, collection string, r models.Record) (models.Record, error)
	SoftDelete(ctx context.Context, collection, id string, at int64) error
}
