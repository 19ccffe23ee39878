// Package seed provides datasource.Seeder implementations for
// DataSource.SeedIfEmpty.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/admindata/internal/client/bridge"
	"github.com/dmitrijs2005/admindata/internal/client/datasource"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/models"
)

var (
	_ datasource.Seeder = StaticSeeder(nil)
	_ datasource.Seeder = FileSeeder{}
	_ datasource.Seeder = BridgeSeeder{}
)

// StaticSeeder returns a fixed record set. Each call hands out clones so the
// caller may stamp ids and timestamps freely.
type StaticSeeder []models.Record

func (s StaticSeeder) Records(context.Context) ([]models.Record, error) {
	out := make([]models.Record, len(s))
	for i, r := range s {
		out[i] = r.Clone()
	}
	return out, nil
}

// FromJSON builds a StaticSeeder from a JSON array of records.
func FromJSON(data []byte) (StaticSeeder, error) {
	records, err := models.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: seed data: %w", common.ErrParseFailure, err)
	}
	return StaticSeeder(records), nil
}

// FileSeeder reads a JSON array of records from Path on every call.
type FileSeeder struct {
	Path string
}

func (s FileSeeder) Records(ctx context.Context) ([]models.Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	records, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return records.Records(ctx)
}

// Fetcher is the bridge side of BridgeSeeder.
type Fetcher interface {
	Fetch(ctx context.Context, p bridge.FetchParam) ([]models.Record, error)
}

// BridgeSeeder seeds a store from a third-party fetch. A bridge that could
// not reach the external API yields no records, so nothing is seeded.
type BridgeSeeder struct {
	Bridge Fetcher
	Param  bridge.FetchParam
}

func (s BridgeSeeder) Records(ctx context.Context) ([]models.Record, error) {
	if s.Bridge == nil {
		return nil, fmt.Errorf("%w: bridge", common.ErrMissingCollaborator)
	}
	return s.Bridge.Fetch(ctx, s.Param)
}
