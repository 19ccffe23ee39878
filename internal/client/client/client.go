package client

import (
	"context"

	"github.com/dmitrijs2005/admindata/internal/models"
)

type Client interface {
	List(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
	Create(ctx context.Context, collection string, r models.Record) ([]models.Record, error)
	Update(ctx context.Context, collection string, r models.Record) ([]models.Record, error)
	Delete(ctx context.Context, collection string, id string) error
	Ping(ctx context.Context) error
}

var _ Client = (*RESTClient)(nil)
