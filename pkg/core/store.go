package core

import "context"

// State is the lifecycle state of a store connection.
type State int

// Store lifecycle states.
const (
	StateNotConnected State = iota
	StateConnecting
	StateConnected
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateNotConnected:
		return "not_connected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Confirmer obtains an explicit yes/no answer from the user.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// Store is the capability set shared by every target store variant.
// A Store owns one connection for the life of a run and is not safe for
// concurrent use.
type Store interface {
	// Connect opens the session and creates the keyspace/database if absent.
	// It is idempotent.
	Connect(ctx context.Context) error

	// HasConnection reports whether Connect has succeeded. It never connects.
	HasConnection() bool

	// State returns the lifecycle state.
	State() State

	// EnsureTable creates the table for def unless it is known to exist.
	EnsureTable(ctx context.Context, def TableDefinition) error

	// InsertInto inserts each row independently.
	InsertInto(ctx context.Context, table string, rows ...Row) error

	// Update overwrites the fields of row on the record identified by key.
	Update(ctx context.Context, table string, key Row, row Row) error

	// FindOne returns the first record matching every field of query, or nil.
	FindOne(ctx context.Context, table string, query Row) (*Record, error)

	// DropDatabase drops the keyspace/database after confirmation.
	DropDatabase(ctx context.Context, confirm Confirmer) error

	// Close releases the connection.
	Close() error
}

// OriginIndexer is implemented by stores that can index the origin id field.
type OriginIndexer interface {
	EnsureOriginIndex(ctx context.Context, table string) error
}
