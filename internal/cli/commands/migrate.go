package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmigrate/internal/migrate"
	"github.com/leapstack-labs/leapmigrate/internal/prompt"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// MigrateOptions holds options for the process and sync commands.
type MigrateOptions struct {
	Tables []string
	Force  bool
	Yes    bool
}

// NewProcessCommand creates the process command.
func NewProcessCommand() *cobra.Command {
	return newMigrateCommand(migrate.ModeProcess, &cobra.Command{
		Use:   "process",
		Short: "Copy every source row into the target once",
		Long: `Create the tables of the translation in the target and insert every
source row.

process never looks for earlier copies, so running it twice duplicates
records. Use sync for repeatable runs, or --force to start from an empty
database.`,
		Example: `  # One-shot migration into a fresh database
  leapmigrate process --force

  # Only some tables
  leapmigrate process --tables users,orders`,
	})
}

// NewSyncCommand creates the sync command.
func NewSyncCommand() *cobra.Command {
	return newMigrateCommand(migrate.ModeSync, &cobra.Command{
		Use:   "sync",
		Short: "Upsert source rows by their original id",
		Long: `Create the tables of the translation in the target and upsert every
source row.

Each record carries the source key in pre_mongified_id. A row whose id is
already present updates that record; any other row is inserted, so running
sync again converges instead of duplicating.`,
		Example: `  # Bring the target up to date
  leapmigrate sync

  # Drop and rebuild without prompting
  leapmigrate sync --force --yes`,
	})
}

func newMigrateCommand(mode migrate.Mode, cmd *cobra.Command) *cobra.Command {
	opts := &MigrateOptions{}
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return runMigrate(cmd, mode, opts)
	}

	cmd.Flags().StringSliceVar(&opts.Tables, "tables", nil, "Comma-separated tables to migrate (default: all in the translation)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Drop the target database first (asks for confirmation)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask before dropping the target database")

	return cmd
}

func runMigrate(cmd *cobra.Command, mode migrate.Mode, opts *MigrateOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := cc.Cfg.Validate(); err != nil {
		return err
	}
	tr, err := migrate.LoadTranslation(cc.Cfg.Translation)
	if err != nil {
		return err
	}

	if opts.Force || cc.Cfg.NoSQLConnection.ForceDrop {
		if err := migrate.ForceDrop(ctx, cc.Cfg.NoSQLConnection, confirmer(cmd, opts.Yes), cc.Logger); err != nil {
			return err
		}
	}

	src, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	store, err := target.NewStore(cc.Cfg.NoSQLConnection, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Connect(ctx); err != nil {
		return err
	}

	l, err := cc.OpenLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	run, err := l.StartRun(ctx, string(mode),
		cc.Cfg.SQLConnection.ConnectionString(), cc.Cfg.NoSQLConnection.ConnectionString())
	if err != nil {
		return err
	}

	start := time.Now()
	_, _ = fmt.Fprintf(out, "Run %s: %s %s -> %s\n", run.ID, mode, run.Source, run.Target)

	stats, runErr := migrate.NewRunner(src, store, tr, cc.Logger).Run(ctx, migrate.Options{
		Mode:   mode,
		Tables: opts.Tables,
		OnTable: func(ctx context.Context, ts migrate.TableStats) error {
			_, _ = fmt.Fprintf(out, "  %-30s %6d inserted %6d updated  %s\n",
				ts.Table, ts.Inserted, ts.Updated, dimStyle.Render(ts.Elapsed.Round(time.Millisecond).String()))
			return l.RecordTable(ctx, run.ID, ts.Table, ts.Inserted, ts.Updated)
		},
	})

	if err := l.FinishRun(ctx, run.ID, runErr); err != nil {
		cc.Logger.Warn("failed to finish run", slog.String("run", run.ID), slog.String("error", err.Error()))
	}
	if runErr != nil {
		return runErr
	}

	_, _ = fmt.Fprintf(out, "%s %d tables, %d inserted, %d updated in %s\n",
		okStyle.Render("Done:"), len(stats.Tables), stats.Inserted(), stats.Updated(),
		time.Since(start).Round(time.Millisecond))
	return nil
}

// confirmer asks on the command's input unless yes is set.
func confirmer(cmd *cobra.Command, yes bool) core.Confirmer {
	if yes {
		return prompt.Always
	}
	return prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
}
