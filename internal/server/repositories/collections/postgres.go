// Package collections provides the PostgreSQL-backed record repository of the
// reference backend. Every collection shares one JSONB table keyed by
// (collection, id).
package collections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/dbx"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// PostgresRepository implements record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the live records of collection matching q. Filters and sorts
// address fields inside the JSON document; ties fall back to insertion order.
func (r *PostgresRepository) List(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	query, args := buildList(collection, q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := models.DecodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("%w: stored record: %w", common.ErrParseFailure, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns one record, deleted or not. A missing row yields ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (models.Record, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = $1 AND id = $2`, collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return models.DecodeRecord(data)
}

// Upsert stores rec unless the stored copy carries a newer updatedAt. The
// record that ends up stored is returned, so a stale write gets the winning
// version back.
func (r *PostgresRepository) Upsert(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	id := rec.ID()
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", common.ErrInvalidRecord)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRecord, err)
	}

	var deletedAt sql.NullInt64
	if d, ok := rec.DeletedAt(); ok {
		deletedAt = sql.NullInt64{Int64: d, Valid: true}
	}

	query := `
		INSERT INTO records (collection, id, data, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6)
		ON CONFLICT (collection, id)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
			WHERE records.updated_at <= EXCLUDED.updated_at
		RETURNING data;
	`
	var data []byte
	err = r.db.QueryRowContext(ctx, query,
		collection, id, string(payload), rec.CreatedAt(), rec.UpdatedAt(), deletedAt,
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.Get(ctx, collection, id)
	case err != nil:
		return nil, fmt.Errorf("db error: %w", err)
	}
	return models.DecodeRecord(data)
}

// SoftDelete stamps deletedAt on a live record. ErrorNotFound is returned
// when no live record has the id.
func (r *PostgresRepository) SoftDelete(ctx context.Context, collection, id string, at int64) error {
	query := `
		UPDATE records
		SET deleted_at = $3,
			updated_at = $3,
			data = data || jsonb_build_object('deletedAt', $3::bigint, 'updatedAt', $3::bigint)
		WHERE collection = $1 AND id = $2 AND deleted_at IS NULL;
	`
	res, err := r.db.ExecContext(ctx, query, collection, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type listBuilder struct {
	where []string
	args  []any
	order []string
}

func (b *listBuilder) cond(c string, arg any) {
	b.args = append(b.args, arg)
	b.where = append(b.where, strings.ReplaceAll(c, "?", fmt.Sprintf("$%d", len(b.args))))
}

func buildList(collection string, q models.Query) (string, []any) {
	b := &listBuilder{}
	b.cond("collection = ?", collection)
	b.where = append(b.where, "deleted_at IS NULL")

	for _, f := range q.ActiveFilters() {
		expr := jsonField(f.Field)
		if f.ExactMatch {
			b.cond(expr+" = ?", f.SearchTerm)
			continue
		}
		b.cond(`lower(`+expr+`) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.SearchTerm))+"%")
	}
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Direction == models.Desc {
			dir = "DESC"
		}
		b.order = append(b.order, jsonField(s.Field)+" "+dir)
	}

	var sb strings.Builder
	sb.WriteString("SELECT data FROM records WHERE ")
	sb.WriteString(strings.Join(b.where, " AND "))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(append(b.order, "created_at ASC", "id ASC"), ", "))
	if !q.IsUnbounded() {
		n := len(b.args)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2))
		b.args = append(b.args, q.PageSize, q.Offset())
	}
	return sb.String(), b.args
}

// jsonField renders the text path expression of a validated field; dotted
// names address nested objects.
func jsonField(field string) string {
	return fmt.Sprintf(`(data #>> '{%s}')`, strings.ReplaceAll(field, ".", ","))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
