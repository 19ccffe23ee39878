// Package remote performs the network side of entity operations and keeps
// the local store in step with it.
//
// Reads go to the backend only when the connectivity monitor reports online.
// A successful response is written through to the local store record by
// record; any failure is logged and answered from the local store instead.
// Callers never see I/O errors: the worst case is an empty result. Only a
// cancelled context is returned as an error, and a response that arrives
// after cancellation is dropped without touching the store.
//
// Mutations are optimistic. Create and Update write the record locally first
// (minting a client id when absent) and then send it; Remove soft-deletes
// locally regardless of the network outcome. Concurrent writes to the same
// record resolve last-write-wins inside the store.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/admindata/internal/client/client"
	"github.com/dmitrijs2005/admindata/internal/client/connectivity"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/idgen"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/metrics"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Store is the part of the local store the source writes through to and
// falls back on.
type Store interface {
	GetAll(ctx context.Context, q models.Query) ([]models.Record, error)
	Upsert(ctx context.Context, r models.Record) (models.Record, error)
	SoftDelete(ctx context.Context, r models.Record) (models.Record, error)
}

type Option func(*Source)

func WithLogger(l logging.Logger) Option {
	return func(s *Source) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Source) { s.metrics = m }
}

func WithIDGenerator(g idgen.Generator) Option {
	return func(s *Source) { s.gen = g }
}

// Source is the remote side of one entity collection.
type Source struct {
	collection string
	api        client.Client
	store      Store
	status     connectivity.Status
	gen        idgen.Generator
	logger     logging.Logger
	metrics    *metrics.Metrics
}

// New returns a source for collection. Every collaborator is required.
func New(collection string, api client.Client, store Store, status connectivity.Status, opts ...Option) (*Source, error) {
	switch {
	case collection == "":
		return nil, fmt.Errorf("%w: collection name", common.ErrMissingCollaborator)
	case api == nil:
		return nil, fmt.Errorf("%w: api client", common.ErrMissingCollaborator)
	case store == nil:
		return nil, fmt.Errorf("%w: local store", common.ErrMissingCollaborator)
	case status == nil:
		return nil, fmt.Errorf("%w: connectivity monitor", common.ErrMissingCollaborator)
	}

	s := &Source{
		collection: collection,
		api:        api,
		store:      store,
		status:     status,
		gen:        idgen.New(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "remote", "collection", collection)
	return s, nil
}

func (s *Source) Collection() string { return s.collection }

// Fetch returns the page described by q.
func (s *Source) Fetch(ctx context.Context, q models.Query) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.status.Online() {
		s.metrics.ObserveRemote(s.collection, "fetch", metrics.OutcomeOffline, 0)
		return s.local(ctx, q), nil
	}

	start := time.Now()
	records, err := s.api.List(ctx, s.collection, q)
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.metrics.ObserveRemote(s.collection, "fetch", metrics.OutcomeCanceled, 0)
		return nil, ctxErr
	}
	if err == nil {
		err = checkIDs(records)
	}
	if err != nil {
		s.logger.Warn(ctx, "fetch failed, serving cached records", "error", err)
		s.metrics.ObserveRemote(s.collection, "fetch", metrics.OutcomeFallback, time.Since(start))
		s.metrics.Fallback(s.collection)
		return s.local(ctx, q), nil
	}
	s.metrics.ObserveRemote(s.collection, "fetch", metrics.OutcomeOK, time.Since(start))

	if err := s.writeThrough(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Source) Create(ctx context.Context, r models.Record) (models.Record, error) {
	return s.save(ctx, "create", r)
}

// Update behaves like Create but sends PUT.
func (s *Source) Update(ctx context.Context, r models.Record) (models.Record, error) {
	return s.save(ctx, "update", r)
}

func (s *Source) save(ctx context.Context, op string, r models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := r.Clone()
	if rec == nil {
		rec = models.Record{}
	}
	if rec.ID() == "" {
		rec.SetID(s.gen.Generate())
	}

	// the backend keeps the client's updatedAt, so what is sent must carry
	// this write's stamp rather than the one the record was read with
	saved, err := s.store.Upsert(ctx, rec)
	if err != nil {
		s.logger.Warn(ctx, "local write failed", "op", op, "id", rec.ID(), "error", err)
		rec[models.FieldUpdatedAt] = time.Now().UnixMilli()
		saved = rec
	}

	if !s.status.Online() {
		s.metrics.ObserveRemote(s.collection, op, metrics.OutcomeOffline, 0)
		return saved, nil
	}

	start := time.Now()
	var echo []models.Record
	if op == "create" {
		echo, err = s.api.Create(ctx, s.collection, saved)
	} else {
		echo, err = s.api.Update(ctx, s.collection, saved)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.metrics.ObserveRemote(s.collection, op, metrics.OutcomeCanceled, 0)
		return nil, ctxErr
	}
	if err != nil {
		s.logger.Warn(ctx, "remote write failed, kept local copy", "op", op, "id", rec.ID(), "error", err)
		s.metrics.ObserveRemote(s.collection, op, metrics.OutcomeFallback, time.Since(start))
		return saved, nil
	}
	s.metrics.ObserveRemote(s.collection, op, metrics.OutcomeOK, time.Since(start))

	for _, e := range echo {
		if e.ID() == "" {
			e.SetID(rec.ID())
		}
		stored, err := s.upsert(ctx, e)
		if err != nil {
			return nil, err
		}
		if e.ID() == rec.ID() {
			saved = stored
		}
	}
	return saved, nil
}

// Remove soft-deletes r locally and asks the backend to delete it.
func (s *Source) Remove(ctx context.Context, r models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.ID() == "" {
		return nil, fmt.Errorf("%w: remove without id", common.ErrInvalidRecord)
	}

	deleted, err := s.store.SoftDelete(ctx, r)
	if err != nil {
		s.logger.Warn(ctx, "local soft delete failed", "id", r.ID(), "error", err)
		deleted = r.Clone()
	}

	if !s.status.Online() {
		s.metrics.ObserveRemote(s.collection, "delete", metrics.OutcomeOffline, 0)
		return deleted, nil
	}

	start := time.Now()
	err = s.api.Delete(ctx, s.collection, r.ID())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	switch {
	case err == nil, errors.Is(err, common.ErrorNotFound):
		s.metrics.ObserveRemote(s.collection, "delete", metrics.OutcomeOK, time.Since(start))
	default:
		s.logger.Warn(ctx, "remote delete failed", "id", r.ID(), "error", err)
		s.metrics.ObserveRemote(s.collection, "delete", metrics.OutcomeFallback, time.Since(start))
	}
	return deleted, nil
}

func (s *Source) writeThrough(ctx context.Context, records []models.Record) error {
	for _, r := range records {
		if _, err := s.upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// upsert writes r unless ctx is done. Storage errors are logged only.
func (s *Source) upsert(ctx context.Context, r models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := s.store.Upsert(ctx, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn(ctx, "write-through failed", "id", r.ID(), "error", err)
		return r, nil
	}
	return stored, nil
}

// checkIDs treats a listed record without an id as a malformed payload.
func checkIDs(records []models.Record) error {
	for i, r := range records {
		if r.ID() == "" {
			return fmt.Errorf("%w: %w: record %d has no id", common.ErrNetworkFailure, common.ErrParseFailure, i)
		}
	}
	return nil
}

// local answers from the store; a failing store yields an empty result.
func (s *Source) local(ctx context.Context, q models.Query) []models.Record {
	records, err := s.store.GetAll(ctx, q)
	if err != nil {
		s.logger.Warn(ctx, "local read failed, returning empty result", "error", err)
		return []models.Record{}
	}
	return records
}
