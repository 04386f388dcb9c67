package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"
	"github.com/leapstack-labs/leapmigrate/pkg/syncer"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// Mode selects how rows are written.
type Mode string

// Run modes.
const (
	// ModeProcess inserts every row, as a one-shot migration.
	ModeProcess Mode = "process"

	// ModeSync upserts by origin id so repeated runs converge.
	ModeSync Mode = "sync"
)

// OriginIDType is the column type of the origin id column added to every
// target table.
var OriginIDType = core.Numeric("bigint")

// TableStats counts the rows written to one table.
type TableStats struct {
	Table    string
	Inserted int64
	Updated  int64
	Elapsed  time.Duration
}

// Stats summarises a run.
type Stats struct {
	Tables []TableStats
}

// Inserted totals inserted rows.
func (s *Stats) Inserted() int64 {
	var n int64
	for _, t := range s.Tables {
		n += t.Inserted
	}
	return n
}

// Updated totals updated rows.
func (s *Stats) Updated() int64 {
	var n int64
	for _, t := range s.Tables {
		n += t.Updated
	}
	return n
}

// Options configures a run.
type Options struct {
	Mode Mode

	// Tables restricts the run to the named tables, in that order.
	Tables []string

	// OnTable is called after each table completes.
	OnTable func(ctx context.Context, stats TableStats) error
}

// Runner moves rows from a source into a store following a translation.
type Runner struct {
	source      source.Reader
	store       core.Store
	translation *Translation
	engine      *syncer.Engine
	logger      *slog.Logger
}

// NewRunner creates a runner. Both source and store must be connected.
// If logger is nil, a discard logger is used.
func NewRunner(src source.Reader, store core.Store, tr *Translation, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		source:      src,
		store:       store,
		translation: tr,
		engine:      syncer.New(store, logger),
		logger:      logger,
	}
}

// Run ensures every selected table exists in the store and then streams
// its rows through the engine. It stops at the first error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Stats, error) {
	if opts.Mode != ModeProcess && opts.Mode != ModeSync {
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unknown mode %q", opts.Mode)}
	}
	defs, err := r.translation.Select(opts.Tables...)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, def := range defs {
		ts, err := r.runTable(ctx, opts.Mode, def)
		if err != nil {
			return stats, fmt.Errorf("table %s: %w", def.Name, err)
		}
		stats.Tables = append(stats.Tables, ts)
		if opts.OnTable != nil {
			if err := opts.OnTable(ctx, ts); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (r *Runner) runTable(ctx context.Context, mode Mode, def core.TableDefinition) (TableStats, error) {
	start := time.Now()
	ts := TableStats{Table: def.Name}

	if err := r.store.EnsureTable(ctx, def.WithOriginID(OriginIDType)); err != nil {
		return ts, err
	}
	if indexer, ok := r.store.(core.OriginIndexer); ok && mode == ModeSync {
		if err := indexer.EnsureOriginIndex(ctx, def.Name); err != nil {
			return ts, err
		}
	}

	keys := def.KeyColumns()
	if len(keys) > 1 {
		r.logger.Warn("composite key cannot be tracked, rows are inserted without an origin id",
			slog.String("table", def.Name))
	}

	err := r.source.Stream(ctx, def.Name, func(row core.Row) error {
		out := TranslateRow(def, row)
		if mode == ModeProcess {
			if err := r.engine.Insert(ctx, def.Name, out); err != nil {
				return err
			}
			ts.Inserted++
			return nil
		}
		outcome, err := r.engine.Upsert(ctx, def.Name, out)
		if err != nil {
			return err
		}
		if outcome == syncer.Updated {
			ts.Updated++
		} else {
			ts.Inserted++
		}
		return nil
	})
	ts.Elapsed = time.Since(start)
	if err != nil {
		return ts, err
	}

	r.logger.Info("table migrated",
		slog.String("table", def.Name),
		slog.Int64("inserted", ts.Inserted),
		slog.Int64("updated", ts.Updated),
		slog.Duration("elapsed", ts.Elapsed))
	return ts, nil
}

// TranslateRow shapes a source row for the target table def. Only declared
// columns are kept. The value of a single key column moves to the origin id
// field and the key itself is left for the target to assign; rows of tables
// with a composite key drop their keys without an origin id.
func TranslateRow(def core.TableDefinition, row core.Row) core.Row {
	keys := def.KeyColumns()
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	out := make(core.Row, 0, len(row)+1)
	for _, f := range row {
		if isKey[f.Name] || f.Name == core.OriginIDField {
			continue
		}
		if _, ok := def.Column(f.Name); ok {
			out = append(out, f)
		}
	}

	if id, ok := row.OriginID(); ok {
		return out.Set(core.OriginIDField, id)
	}
	if len(keys) == 1 {
		if id, ok := row.Get(keys[0]); ok && id != nil {
			return out.Set(core.OriginIDField, id)
		}
	}
	return out
}

// ForceDrop drops the target database of cfg after confirmation. A declined
// confirmation is logged and is not an error, so the run goes on against the
// existing data.
func ForceDrop(ctx context.Context, cfg core.ConnectionConfig, confirm core.Confirmer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	err := target.WithStore(ctx, cfg, logger, func(store core.Store) error {
		return store.DropDatabase(ctx, confirm)
	})
	if errors.Is(err, core.ErrDropDeclined) {
		logger.Info("database drop declined", slog.String("database", cfg.Database))
		return nil
	}
	return err
}
