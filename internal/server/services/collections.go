// Package services contains server-side business logic. CollectionService
// assigns ids and bookkeeping timestamps and persists records through the
// repository manager.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/dbx"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/dmitrijs2005/admindata/internal/server/repositories/repomanager"
)

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidCollection reports whether name can be used as a collection name.
func ValidCollection(name string) bool {
	return collectionPattern.MatchString(name)
}

type CollectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ids         idgen.Generator
	now         func() time.Time
}

func NewCollectionService(db *sql.DB, m repomanager.RepositoryManager, ids idgen.Generator) *CollectionService {
	return &CollectionService{db: db, repomanager: m, ids: ids, now: time.Now}
}

func (s *CollectionService) List(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	if !ValidCollection(collection) {
		return nil, fmt.Errorf("%w: collection %q", common.ErrInvalidQuery, collection)
	}
	return s.repomanager.Collections(s.db).List(ctx, collection, q)
}

// Create stores a new record. A record without an id gets one minted.
func (s *CollectionService) Create(ctx context.Context, collection string, r models.Record) (models.Record, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty record", common.ErrInvalidRecord)
	}
	r = r.Clone()
	if r.ID() == "" {
		r.SetID(s.ids.Generate())
	}
	return s.save(ctx, collection, r)
}

// Update stores a record that already carries an id.
func (s *CollectionService) Update(ctx context.Context, collection string, r models.Record) (models.Record, error) {
	if r.ID() == "" {
		return nil, fmt.Errorf("%w: update without id", common.ErrInvalidRecord)
	}
	return s.save(ctx, collection, r)
}

// save stamps missing timestamps and upserts. updatedAt sent by the client
// is kept: the client stamps it at write time, so the newest edit wins.
func (s *CollectionService) save(ctx context.Context, collection string, r models.Record) (models.Record, error) {
	if !ValidCollection(collection) {
		return nil, fmt.Errorf("%w: collection %q", common.ErrInvalidRecord, collection)
	}

	now := s.now().UnixMilli()
	r = r.Clone()
	if r.CreatedAt() == 0 {
		r[models.FieldCreatedAt] = now
	}
	if r.UpdatedAt() == 0 {
		r[models.FieldUpdatedAt] = now
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (models.Record, error) {
		return s.repomanager.Collections(tx).Upsert(ctx, collection, r)
	})
}

func (s *CollectionService) Delete(ctx context.Context, collection, id string) error {
	if !ValidCollection(collection) {
		return fmt.Errorf("%w: collection %q", common.ErrInvalidRecord, collection)
	}
	if id == "" {
		return fmt.Errorf("%w: delete without id", common.ErrInvalidRecord)
	}
	return s.repomanager.Collections(s.db).SoftDelete(ctx, collection, id, s.now().UnixMilli())
}
