// Package models defines the data shapes shared by the client data layer and
// the backend: entity records, query descriptors and third-party payload wrappers.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Well-known record fields.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldDeletedAt = "deletedAt"
	FieldExpiredAt = "expiredAt"
)

// Record is an opaque entity: a mapping of field name to value. Only the
// bookkeeping fields above have meaning to the data layer.
type Record map[string]any

// ID returns the record id or "" when absent.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	switch v := r[FieldID].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// SetID stores id on the record.
func (r Record) SetID(id string) { r[FieldID] = id }

// CreatedAt returns createdAt in ms since epoch, 0 when absent.
func (r Record) CreatedAt() int64 { return r.Millis(FieldCreatedAt) }

// UpdatedAt returns updatedAt in ms since epoch, 0 when absent.
func (r Record) UpdatedAt() int64 { return r.Millis(FieldUpdatedAt) }

// DeletedAt returns deletedAt and whether it is set.
func (r Record) DeletedAt() (int64, bool) { return r.optionalMillis(FieldDeletedAt) }

// ExpiredAt returns expiredAt and whether it is set.
func (r Record) ExpiredAt() (int64, bool) { return r.optionalMillis(FieldExpiredAt) }

// IsLive reports whether the record is visible to default reads at now:
// neither deletedAt nor expiredAt is set to a moment at or before now.
func (r Record) IsLive(now time.Time) bool {
	ms := now.UnixMilli()
	if d, ok := r.DeletedAt(); ok && d <= ms {
		return false
	}
	if e, ok := r.ExpiredAt(); ok && e <= ms {
		return false
	}
	return true
}

// Millis reads a numeric timestamp field. JSON numbers, Go integers and
// numeric strings are accepted.
func (r Record) Millis(field string) int64 {
	v, _ := r.optionalMillis(field)
	return v
}

func (r Record) optionalMillis(field string) (int64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	return toInt64(v)
}

// String reads a field as a string ("" when absent).
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// DecodeRecord unmarshals a JSON object keeping numbers exact.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := unmarshalUseNumber(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("record is null")
	}
	return r, nil
}
