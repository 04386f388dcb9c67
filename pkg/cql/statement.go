package cql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// Statement is a parameterized statement plus the literal rendering of its
// bound values.
type Statement struct {
	// Text uses ? placeholders.
	Text string

	// Args are bound in placeholder order.
	Args []any

	literals []string

	// literal, when set, is the whole rendering.
	literal string
}

// Literal renders the statement with every placeholder replaced by its
// literal value. For logs and dry runs only.
func (s Statement) Literal() string {
	if s.literal != "" {
		return s.literal
	}
	if len(s.literals) == 0 {
		return s.Text
	}
	var b strings.Builder
	i := 0
	for _, r := range s.Text {
		if r == '?' && i < len(s.literals) {
			b.WriteString(s.literals[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s Statement) String() string { return s.Literal() }

// Raw wraps statement text that has no bound values.
func Raw(text string) Statement {
	return Statement{Text: text}
}

// Bind builds a statement from text with ? placeholders and their values.
// The literal rendering quotes every value, as predicates do.
func Bind(text string, args ...any) Statement {
	literals := make([]string, len(args))
	for i, a := range args {
		literals[i] = quoteValue(a)
	}
	return Statement{Text: text, Args: args, literals: literals}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdentifier rejects names that cannot be used unquoted as table or
// column identifiers. Identifiers are never bound, so they are validated.
func CheckIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// CheckRow validates every field name of row.
func CheckRow(row core.Row) error {
	for _, f := range row {
		if err := CheckIdentifier(f.Name); err != nil {
			return err
		}
	}
	return nil
}

// ColumnDecl is one column of a CREATE TABLE statement.
type ColumnDecl struct {
	Name string
	Type string
}

// CreateTable builds
//
//	CREATE TABLE t (c1 T1, c2 T2, PRIMARY KEY(k1, k2))
func CreateTable(table string, columns []ColumnDecl, keys []string) Statement {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.Name + " " + c.Type
	}
	return Raw(fmt.Sprintf("CREATE TABLE %s (%s, PRIMARY KEY(%s))",
		table, strings.Join(defs, ", "), strings.Join(keys, ", ")))
}

// CreateIndex builds an idempotent single-column secondary index statement.
func CreateIndex(name, table, column string) Statement {
	return Raw(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, column))
}

// Insert builds INSERT INTO t (a,b) VALUES (?,?).
func Insert(table string, row core.Row) Statement {
	placeholders := make([]string, len(row))
	literals := make([]string, len(row))
	for i, f := range row {
		placeholders[i] = "?"
		literals[i] = EncodeLiteral(f.Value)
	}
	return Statement{
		Text: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(row.Names(), ","), strings.Join(placeholders, ",")),
		Args:     row.Values(),
		literals: literals,
	}
}

// Update builds UPDATE t SET a = ?, b = ? WHERE k = ?. Its literal form
// renders both clauses with BuildPredicate.
func Update(table string, set core.Row, key core.Row) Statement {
	setText, setArgs := assignments(set, DelimAssign)
	whereText, whereArgs := assignments(key, DelimAnd)
	literal := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table, BuildPredicate(set, DelimAssign), BuildPredicate(key, DelimAnd))
	return Statement{
		Text:    fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, setText, whereText),
		Args:    append(setArgs, whereArgs...),
		literal: literal,
	}
}

// Select builds SELECT * FROM t WHERE a = ? AND b = ?, with an optional LIMIT.
func Select(table string, where core.Row, limit int) Statement {
	text := "SELECT * FROM " + table
	literal := text
	var args []any
	if len(where) > 0 {
		var whereText string
		whereText, args = assignments(where, DelimAnd)
		text += " WHERE " + whereText
		literal += " WHERE " + BuildPredicate(where, DelimAnd)
	}
	if limit > 0 {
		text += fmt.Sprintf(" LIMIT %d", limit)
		literal += fmt.Sprintf(" LIMIT %d", limit)
	}
	return Statement{Text: text, Args: args, literal: literal}
}
