package localstore

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/models"
)

const liveClause = `(deleted_at IS NULL OR deleted_at > ?) AND (expired_at IS NULL OR expired_at > ?)`

// selectBuilder accumulates a SELECT over one store's rows.
type selectBuilder struct {
	where []string
	args  []any
	order []string
	limit string
}

func newSelect(store string) *selectBuilder {
	return &selectBuilder{where: []string{"store = ?"}, args: []any{store}}
}

func (b *selectBuilder) live(nowMs int64) {
	b.where = append(b.where, liveClause)
	b.args = append(b.args, nowMs, nowMs)
}

func (b *selectBuilder) cond(c string, args ...any) {
	b.where = append(b.where, c)
	b.args = append(b.args, args...)
}

func (b *selectBuilder) filters(fs []models.Filter) {
	for _, f := range fs {
		expr := jsonField(f.Field)
		if f.ExactMatch {
			b.cond(fmt.Sprintf("CAST(%s AS TEXT) = ?", expr), f.SearchTerm)
			continue
		}
		b.cond(
			fmt.Sprintf(`lower(CAST(%s AS TEXT)) LIKE ? ESCAPE '\'`, expr),
			"%"+escapeLike(strings.ToLower(f.SearchTerm))+"%",
		)
	}
}

func (b *selectBuilder) sort(ss []models.Sort) {
	for _, s := range ss {
		dir := "ASC"
		if s.Direction == models.Desc {
			dir = "DESC"
		}
		b.order = append(b.order, jsonField(s.Field)+" "+dir)
	}
}

func (b *selectBuilder) page(q models.Query) {
	if q.IsUnbounded() {
		return
	}
	b.limit = " LIMIT ? OFFSET ?"
	b.args = append(b.args, q.PageSize, q.Offset())
}

func (b *selectBuilder) build(columns string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM records WHERE ")
	sb.WriteString(strings.Join(b.where, " AND "))
	sb.WriteString(" ORDER BY ")
	// insertion order breaks ties
	sb.WriteString(strings.Join(append(b.order, "created_at ASC", "id ASC"), ", "))
	sb.WriteString(b.limit)
	return sb.String(), b.args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
