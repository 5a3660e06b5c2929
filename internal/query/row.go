package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Row maps column name to value. Values coming from the proxy are JSON
// scalars (numbers as json.Number); values coming from pgx are native Go
// types. The accessors below accept both.
type Row map[string]any

func (r Row) IsNull(col string) bool {
	v, ok := r[col]
	return !ok || v == nil
}

func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// Int reads an integer column. bigint and numeric columns arrive from the
// proxy as strings, so numeric text is accepted.
func (r Row) Int(col string) (int64, error) {
	switch v := r[col].(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return wholeFloat(col, f)
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %q is not a number", col, v)
		}
		return wholeFloat(col, f)
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return wholeFloat(col, v)
	case pgtype.Numeric:
		n, err := v.Int64Value()
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n.Int64, nil
	default:
		return 0, fmt.Errorf("column %s: unsupported type %T", col, v)
	}
}

func (r Row) Time(col string) (time.Time, error) {
	switch v := r[col].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("column %s: %q is not a timestamp", col, v)
	default:
		return time.Time{}, fmt.Errorf("column %s: unsupported type %T", col, v)
	}
}

// Postgres prints timestamptz with an hour offset, or hour:minute for
// zones such as +09:30.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func wholeFloat(col string, f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("column %s: %v is not an integer", col, f)
	}
	// 2^63은 float64로 정확히 표현됨
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("column %s: %v is out of range", col, f)
	}
	return int64(f), nil
}
