package ledger

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
}

// Migrate runs all pending ledger migrations.
func (l *Ledger) Migrate(ctx context.Context) error {
	if l.db == nil {
		return fmt.Errorf("ledger not opened")
	}

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, l.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Version returns the current migration version.
func (l *Ledger) Version(ctx context.Context) (int64, error) {
	if l.db == nil {
		return 0, fmt.Errorf("ledger not opened")
	}

	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}

	return goose.GetDBVersionContext(ctx, l.db)
}
