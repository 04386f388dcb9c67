package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store lifecycle violations.
var (
	// ErrNotConnected is returned by store operations invoked before Connect.
	ErrNotConnected = errors.New("store connection not established")

	// ErrStoreDropped is returned by operations on a store whose database was dropped.
	ErrStoreDropped = errors.New("store database has been dropped")

	// ErrDropDeclined is returned by DropDatabase when confirmation was refused.
	ErrDropDeclined = errors.New("database drop was not confirmed")
)

// ConfigurationError reports an invalid connection configuration or table definition.
// It is surfaced immediately and never retried.
type ConfigurationError struct {
	Adapter string
	Table   string
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Adapter != "" {
		fmt.Fprintf(&b, " for %s", e.Adapter)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " (table %s)", e.Table)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// ConnectionError reports a network or authentication failure during Connect.
type ConnectionError struct {
	Adapter string
	Target  string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s (%s): %v", e.Adapter, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DDLError reports a keyspace, table or index creation failure other than
// "already exists".
type DDLError struct {
	Object    string // keyspace, table or index name
	Statement string
	Err       error
}

func (e *DDLError) Error() string {
	return fmt.Sprintf("failed to create %s: %v", e.Object, e.Err)
}

func (e *DDLError) Unwrap() error { return e.Err }

// RowOperationError reports an insert, update or find failure for one row.
type RowOperationError struct {
	Table string
	Op    string // insert, update, find
	Err   error
}

func (e *RowOperationError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *RowOperationError) Unwrap() error { return e.Err }
