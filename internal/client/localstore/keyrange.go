package localstore

import (
	"encoding/json"
	"fmt"
)

// KeyRange selects index keys for GetByIndex. A range with neither bound
// selects every record that has the indexed field.
type KeyRange struct {
	Lower     any
	Upper     any
	LowerOpen bool
	UpperOpen bool

	hasLower bool
	hasUpper bool
	only     bool
}

// Only selects records whose key equals v.
func Only(v any) KeyRange {
	return KeyRange{Lower: v, Upper: v, hasLower: true, hasUpper: true, only: true}
}

// Bound selects keys between lower and upper.
func Bound(lower, upper any, lowerOpen, upperOpen bool) KeyRange {
	return KeyRange{
		Lower: lower, Upper: upper,
		LowerOpen: lowerOpen, UpperOpen: upperOpen,
		hasLower: true, hasUpper: true,
	}
}

// LowerBound selects keys above v (or at v when open is false).
func LowerBound(v any, open bool) KeyRange {
	return KeyRange{Lower: v, LowerOpen: open, hasLower: true}
}

// UpperBound selects keys below v (or at v when open is false).
func UpperBound(v any, open bool) KeyRange {
	return KeyRange{Upper: v, UpperOpen: open, hasUpper: true}
}

// where renders the range as a condition over expr.
func (kr KeyRange) where(expr string) (string, []any, error) {
	if kr.only {
		v, err := bindValue(kr.Lower)
		if err != nil {
			return "", nil, err
		}
		return expr + " = ?", []any{v}, nil
	}

	cond := expr + " IS NOT NULL"
	var args []any
	if kr.hasLower {
		v, err := bindValue(kr.Lower)
		if err != nil {
			return "", nil, err
		}
		op := " >= ?"
		if kr.LowerOpen {
			op = " > ?"
		}
		cond += " AND " + expr + op
		args = append(args, v)
	}
	if kr.hasUpper {
		v, err := bindValue(kr.Upper)
		if err != nil {
			return "", nil, err
		}
		op := " <= ?"
		if kr.UpperOpen {
			op = " < ?"
		}
		cond += " AND " + expr + op
		args = append(args, v)
	}
	return cond, args, nil
}

// bindValue converts a key to a value SQLite compares the same way as the
// output of json_extract.
func bindValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil index key")
	case string, int, int32, int64, float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad numeric key %q: %w", x, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported index key type %T", v)
	}
}
