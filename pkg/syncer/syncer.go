// Package syncer implements idempotent upserts keyed by a row's original
// relational id.
//
// Rows carrying core.OriginIDField are matched against records already
// written by earlier runs: a match is overwritten, anything else is inserted.
// Re-running a migration therefore never duplicates target records.
package syncer

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// Outcome reports what Upsert did with a row.
type Outcome int

// Upsert outcomes.
const (
	Inserted Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Updated {
		return "updated"
	}
	return "inserted"
}

// Engine upserts rows through one store.
type Engine struct {
	store  core.Store
	logger *slog.Logger
}

// New creates an engine writing to store.
// If logger is nil, a discard logger is used.
func New(store core.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: store, logger: logger}
}

// Upsert writes row to table. A row with an origin id updates the record
// previously written for that id, or is inserted when none exists. A row
// without one is always inserted.
func (e *Engine) Upsert(ctx context.Context, table string, row core.Row) (Outcome, error) {
	id, ok := row.OriginID()
	if !ok {
		return Inserted, e.store.InsertInto(ctx, table, row)
	}

	rec, err := e.store.FindOne(ctx, table, core.Row{{Name: core.OriginIDField, Value: id}})
	if err != nil {
		return Inserted, err
	}
	if rec == nil {
		e.logger.Debug("inserting row", slog.String("table", table), slog.Any("origin_id", id))
		return Inserted, e.store.InsertInto(ctx, table, row)
	}

	e.logger.Debug("updating row", slog.String("table", table), slog.Any("origin_id", id))
	return Updated, e.store.Update(ctx, table, rec.Key, row)
}

// Insert writes rows without matching, as a one-shot migration does.
func (e *Engine) Insert(ctx context.Context, table string, rows ...core.Row) error {
	return e.store.InsertInto(ctx, table, rows...)
}
