package cassandra

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gopkg.in/inf.v0"
)

// coerce converts a value read from a relational source into the Go type
// gocql marshals into the given CQL column type. Sources hand over int64,
// float64, strings (pgx renders numeric as text) and time.Time; gocql only
// accepts inf.Dec for decimal, float32 for float and float64 for double.
func coerce(columnType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch baseType(columnType) {
	case "DECIMAL":
		return toDecimal(v)
	case "FLOAT":
		f, err := toFloat(v, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case "DOUBLE":
		return toFloat(v, 64)
	case "TINYINT", "SMALLINT", "INT", "BIGINT", "COUNTER":
		return toInteger(v)
	case "VARINT":
		return toVarint(v)
	case "BOOLEAN":
		return toBool(v)
	case "TIMESTAMP":
		return toTime(v)
	case "TEXT", "VARCHAR", "ASCII":
		return toText(v), nil
	}
	return v, nil
}

// baseType upper-cases a column type and drops any parameter list.
func baseType(columnType string) string {
	t := strings.ToUpper(strings.TrimSpace(columnType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func toDecimal(v any) (*inf.Dec, error) {
	switch n := v.(type) {
	case *inf.Dec:
		return n, nil
	case inf.Dec:
		return &n, nil
	case *big.Int:
		return inf.NewDecBig(n, 0), nil
	case float32:
		return parseDecimal(strconv.FormatFloat(float64(n), 'f', -1, 32))
	case float64:
		return parseDecimal(strconv.FormatFloat(n, 'f', -1, 64))
	case string:
		return parseDecimal(n)
	case []byte:
		return parseDecimal(string(n))
	}
	if i, ok := asInt64(v); ok {
		return inf.NewDec(i, 0), nil
	}
	return nil, fmt.Errorf("cannot convert %T to decimal", v)
}

func parseDecimal(s string) (*inf.Dec, error) {
	d, ok := new(inf.Dec).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("cannot convert %q to decimal", s)
	}
	return d, nil
}

func toFloat(v any, bitSize int) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case *inf.Dec:
		return strconv.ParseFloat(n.String(), bitSize)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), bitSize)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(n)), bitSize)
	}
	if i, ok := asInt64(v); ok {
		return float64(i), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

// toInteger leaves integers and numeric strings to gocql, which range-checks
// them, and converts whole floats.
func toInteger(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("cannot convert %v to an integer", n)
		}
		return int64(n), nil
	case float32:
		return toInteger(float64(n))
	case []byte:
		return string(n), nil
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return v, nil
}

func toVarint(v any) (any, error) {
	switch n := v.(type) {
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
		if !ok {
			return nil, fmt.Errorf("cannot convert %q to varint", n)
		}
		return b, nil
	case []byte:
		return toVarint(string(n))
	}
	return toInteger(v)
}

func toBool(v any) (any, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(n))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(n)))
	}
	if i, ok := asInt64(v); ok {
		return i != 0, nil
	}
	return nil, fmt.Errorf("cannot convert %T to boolean", v)
}

// timeLayouts are tried in order for timestamps stored as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func toTime(v any) (any, error) {
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case []byte:
		s = string(n)
	default:
		return v, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %q to timestamp", s)
}

func toText(v any) any {
	switch n := v.(type) {
	case string:
		return n
	case []byte:
		return string(n)
	case time.Time:
		return n.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return n.String()
	}
	return fmt.Sprint(v)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}
