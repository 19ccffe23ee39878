package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/dbx"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Store is one entity store inside a Database.
type Store struct {
	database *Database
	name     string
	indexes  map[string]string // index name -> field
	err      error
	logger   logging.Logger
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

func (s *Store) ready() error {
	if s.database.err != nil {
		return s.database.err
	}
	return s.err
}

func (s *Store) nowMs() int64 {
	return s.database.now().UnixMilli()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var n int
	err := s.database.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE store = ?`, s.name).Scan(&n)
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// prepare assigns an id when absent and fills the bookkeeping timestamps the
// caller did not provide.
func (s *Store) prepare(r models.Record, nowMs int64) models.Record {
	out := r.Clone()
	if out == nil {
		out = models.Record{}
	}
	if out.ID() == "" {
		out.SetID(s.database.gen.Generate())
	}
	if out.CreatedAt() == 0 {
		out[models.FieldCreatedAt] = nowMs
	}
	return out
}

type row struct {
	id        string
	data      []byte
	createdAt int64
	updatedAt int64
	deletedAt sql.NullInt64
	expiredAt sql.NullInt64
}

func toRow(r models.Record) (row, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return row{}, fmt.Errorf("%w: %w", common.ErrInvalidRecord, err)
	}
	out := row{id: r.ID(), data: data, createdAt: r.CreatedAt(), updatedAt: r.UpdatedAt()}
	if v, ok := r.DeletedAt(); ok {
		out.deletedAt = sql.NullInt64{Int64: v, Valid: true}
	}
	if v, ok := r.ExpiredAt(); ok {
		out.expiredAt = sql.NullInt64{Int64: v, Valid: true}
	}
	return out, nil
}

func isDuplicate(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) InsertMany(ctx context.Context, records []models.Record) (int, []Rejection, error) {
	if err := s.ready(); err != nil {
		return 0, nil, err
	}

	nowMs := s.nowMs()
	var inserted int
	var rejected []Rejection

	err := dbx.WithTx(ctx, s.database.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i, rec := range records {
			r := s.prepare(rec, nowMs)
			if r.UpdatedAt() == 0 {
				r[models.FieldUpdatedAt] = nowMs
			}
			rw, err := toRow(r)
			if err != nil {
				rejected = append(rejected, Rejection{Index: i, ID: r.ID(), Err: err})
				continue
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO records (store, id, data, created_at, updated_at, deleted_at, expired_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.name, rw.id, string(rw.data), rw.createdAt, rw.updatedAt, rw.deletedAt, rw.expiredAt)
			if err != nil {
				if !isDuplicate(err) {
					return err
				}
				rejected = append(rejected, Rejection{
					Index: i, ID: rw.id,
					Err: fmt.Errorf("%w: %s", common.ErrDuplicateID, rw.id),
				})
				continue
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, nil, unavailable("insert many", err)
	}

	if len(rejected) > 0 {
		s.logger.Warn(ctx, "records rejected", "inserted", inserted, "rejected", len(rejected))
	}
	return inserted, rejected, nil
}

func (s *Store) GetAll(ctx context.Context, q models.Query) ([]models.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	b := newSelect(s.name)
	if !q.IncludeDeleted {
		b.live(s.nowMs())
	}
	b.filters(q.ActiveFilters())
	b.sort(q.Sort)
	b.page(q)

	query, args := b.build("data")
	return s.query(ctx, "get all", query, args...)
}

func (s *Store) GetByIndex(ctx context.Context, index string, kr KeyRange) ([]models.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	field, ok := s.indexes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", common.ErrUnknownIndex, s.name, index)
	}

	expr := jsonField(field)
	cond, args, err := kr.where(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidQuery, err)
	}

	b := newSelect(s.name)
	b.live(s.nowMs())
	b.cond(cond, args...)
	b.order = append(b.order, expr+" ASC")

	query, qargs := b.build("data")
	return s.query(ctx, "get by index", query, qargs...)
}

// GetOneByIndex returns the first record of the range or ErrorNotFound.
func (s *Store) GetOneByIndex(ctx context.Context, index string, kr KeyRange) (models.Record, error) {
	rs, err := s.GetByIndex(ctx, index, kr)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, common.ErrorNotFound
	}
	return rs[0], nil
}

// Get returns the stored record with id whether or not it is live.
func (s *Store) Get(ctx context.Context, id string) (models.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var data string
	err := s.database.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE store = ? AND id = ?`, s.name, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return models.DecodeRecord([]byte(data))
}

// Upsert stores r, keeping the createdAt of an existing row and stamping
// updatedAt. A row whose updatedAt is newer than the write is left as is and
// returned.
func (s *Store) Upsert(ctx context.Context, r models.Record) (models.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	nowMs := s.nowMs()
	rec := s.prepare(r, nowMs)
	rec[models.FieldUpdatedAt] = nowMs

	rw, err := toRow(rec)
	if err != nil {
		return nil, err
	}

	var data string
	err = s.database.db.QueryRowContext(ctx, `
		INSERT INTO records (store, id, data, created_at, updated_at, deleted_at, expired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store, id) DO UPDATE SET
			data       = json_set(excluded.data, '$.createdAt', records.created_at),
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			expired_at = excluded.expired_at
		WHERE excluded.updated_at >= records.updated_at
		RETURNING data`,
		s.name, rw.id, string(rw.data), rw.createdAt, rw.updatedAt, rw.deletedAt, rw.expiredAt,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug(ctx, "stale write ignored", "id", rw.id)
		return s.Get(ctx, rw.id)
	}
	if err != nil {
		return nil, unavailable("upsert", err)
	}
	return models.DecodeRecord([]byte(data))
}

// SoftDelete merges r over the stored record, sets deletedAt and expiredAt to
// now and upserts the result.
func (s *Store) SoftDelete(ctx context.Context, r models.Record) (models.Record, error) {
	if r.ID() == "" {
		return nil, fmt.Errorf("%w: soft delete without id", common.ErrInvalidRecord)
	}

	merged, err := s.Get(ctx, r.ID())
	switch {
	case errors.Is(err, common.ErrorNotFound):
		merged = models.Record{}
	case err != nil:
		return nil, err
	}
	for k, v := range r {
		merged[k] = v
	}

	nowMs := s.nowMs()
	merged[models.FieldDeletedAt] = nowMs
	merged[models.FieldExpiredAt] = nowMs
	return s.Upsert(ctx, merged)
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.database.db.ExecContext(ctx, `DELETE FROM records WHERE store = ?`, s.name); err != nil {
		return unavailable("clear", err)
	}
	s.logger.Info(ctx, "store cleared")
	return nil
}

func (s *Store) Purge(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	nowMs := s.nowMs()
	res, err := s.database.db.ExecContext(ctx,
		`DELETE FROM records WHERE store = ? AND NOT (`+liveClause+`)`, s.name, nowMs, nowMs)
	if err != nil {
		return 0, unavailable("purge", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("purge", err)
	}
	return int(n), nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]models.Record, error) {
	rows, err := s.database.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, unavailable(op, err)
		}
		r, err := models.DecodeRecord([]byte(data))
		if err != nil {
			s.logger.Warn(ctx, "undecodable row skipped", "error", err)
			continue
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return result, nil
}
