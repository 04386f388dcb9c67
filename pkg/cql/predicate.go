package cql

import (
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// Delimiters accepted by BuildPredicate.
const (
	DelimAssign = ","   // SET-style assignment lists
	DelimAnd    = "AND" // WHERE-style predicates
)

// BuildPredicate joins `field = 'value'` pairs in row order.
// Values are always quoted, numeric ones included.
func BuildPredicate(fields core.Row, delimiter string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + " = " + quoteValue(f.Value)
	}
	return strings.Join(parts, separator(delimiter))
}

// separator pads a delimiter: words get a space on both sides, punctuation
// only a trailing one.
func separator(delimiter string) string {
	d := strings.TrimSpace(delimiter)
	if d == "" {
		return " "
	}
	for _, r := range d {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			return " " + d + " "
		}
	}
	return d + " "
}

// assignments renders `field = ?` pairs and their bound values.
func assignments(fields core.Row, delimiter string) (string, []any) {
	parts := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + " = ?"
		args[i] = f.Value
	}
	return strings.Join(parts, separator(delimiter)), args
}
