// Package cql builds the statements leapmigrate sends to statement-based
// target stores.
//
// Statements are always executed with bound parameters. Each Statement also
// keeps a literal rendering, with values inlined the way the legacy migrator
// wrote them, for logging and dry runs. The literal rendering performs no
// escaping of embedded quotes and must never be executed.
package cql

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"gopkg.in/inf.v0"
)

// TimeLayout is the ISO-8601 layout used for timestamp literals.
const TimeLayout = time.RFC3339

// EncodeLiteral renders a value as a statement literal.
// Numbers are unquoted decimals, timestamps are quoted ISO-8601, nil is NULL
// and everything else is its quoted string form.
func EncodeLiteral(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := numeric(v); ok {
		return s
	}
	return quote(plain(v))
}

// quoteValue renders a value the way equality predicates do: always quoted,
// numbers included.
func quoteValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return quote(plain(v))
}

func quote(s string) string {
	return "'" + s + "'"
}

// plain returns the unquoted string form of a value.
func plain(v any) string {
	if s, ok := numeric(v); ok {
		return s
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(TimeLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(TimeLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// numeric returns the decimal representation of numeric values.
func numeric(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case *big.Int:
		if n == nil {
			return "", false
		}
		return n.String(), true
	case *big.Float:
		if n == nil {
			return "", false
		}
		return n.Text('f', -1), true
	case *inf.Dec:
		if n == nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}
